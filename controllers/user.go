package controllers

import (
	"fmt"
	"net/http"
	"strings"

	"hostel-meals/middleware"
	"hostel-meals/models"
	"hostel-meals/rules"
	"hostel-meals/utils"

)

// UserController handles user-related requests
type UserController struct {
	users    UserStore
	issuer   *utils.TokenIssuer
	verifier utils.IdentityVerifier
	*Responder
}

// NewUserController creates a new UserController. verifier may be nil, in which case
// Login answers 503.
func NewUserController(users UserStore, issuer *utils.TokenIssuer, verifier utils.IdentityVerifier, rs *Responder) *UserController {
	return &UserController{users: users, issuer: issuer, verifier: verifier, Responder: rs}
}

// Login exchanges an identity provider ID token for a session token
func (uc *UserController) Login(w http.ResponseWriter, r *http.Request) {
	if uc.verifier == nil {
		uc.writeError(w, r, models.NewUnavailable("Sign in is not configured"))
		return
	}
	idToken, ok := middleware.BearerToken(r)
	if !ok {
		uc.writeError(w, r, models.NewUnauthorized("Invalid Authorization header format"))
		return
	}

	ctx, cancel := uc.requestContext(r)
	defer cancel()
	identity, err := uc.verifier.VerifyIDToken(ctx, idToken)
	if err != nil {
		uc.writeError(w, r, models.NewUnauthorized("Invalid token"))
		return
	}

	user, err := uc.users.UpsertUser(ctx, strings.ToLower(identity.Email), identity.Name, identity.Picture)
	if err != nil {
		uc.writeError(w, r, err)
		return
	}
	token, err := uc.issuer.GenerateJWT(user.Email, user.Role)
	if err != nil {
		uc.writeError(w, r, models.NewStorageError("Error generating token", err))
		return
	}
	uc.writeJSON(w, http.StatusOK, map[string]interface{}{"token": token, "user": user})
}

// Upsert records the signed in user, creating them as a Bronze user on first sight
func (uc *UserController) Upsert(w http.ResponseWriter, r *http.Request) {
	var req models.UpsertUserRequest
	if err := decode(r, &req); err != nil {
		uc.writeError(w, r, err)
		return
	}
	email, err := callerEmail(r)
	if err != nil {
		uc.writeError(w, r, err)
		return
	}
	if req.Email != "" && !strings.EqualFold(req.Email, email) {
		uc.writeError(w, r, models.NewForbidden("Cannot update another user"))
		return
	}

	ctx, cancel := uc.requestContext(r)
	defer cancel()
	if _, err := uc.users.UpsertUser(ctx, email, req.DisplayName, req.PhotoURL); err != nil {
		uc.writeError(w, r, err)
		return
	}
	uc.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (uc *UserController) GetUser(w http.ResponseWriter, r *http.Request) {
	email := pathEmail(r)
	if email == "" {
		uc.writeError(w, r, models.NewInvalidInput("Email parameter is required"))
		return
	}
	ctx, cancel := uc.requestContext(r)
	defer cancel()
	user, err := uc.users.FindUserByEmail(ctx, email)
	if err != nil {
		uc.writeError(w, r, err)
		return
	}
	uc.writeJSON(w, http.StatusOK, user)
}

// GetProfile returns the limited profile shown on the user dashboard
func (uc *UserController) GetProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := uc.requestContext(r)
	defer cancel()
	user, err := uc.users.FindUserByEmail(ctx, pathEmail(r))
	if err != nil {
		uc.writeError(w, r, err)
		return
	}
	uc.writeJSON(w, http.StatusOK, models.Profile{
		Name:  user.DisplayName,
		Image: user.PhotoURL,
		Email: user.Email,
		Badge: string(rules.TierOrDefault(user.Badge)),
	})
}

// CheckAdmin reports whether an email belongs to an admin. Unknown emails are not admins.
func (uc *UserController) CheckAdmin(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := uc.requestContext(r)
	defer cancel()
	user, err := uc.users.FindUserByEmail(ctx, pathEmail(r))
	if err != nil && !models.IsKind(err, models.KindNotFound) {
		uc.writeError(w, r, err)
		return
	}
	uc.writeJSON(w, http.StatusOK, map[string]bool{"isAdmin": rules.IsAdmin(user)})
}

func (uc *UserController) ListUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := models.NewPage(q.Get("page"), q.Get("limit"), 10)

	ctx, cancel := uc.requestContext(r)
	defer cancel()
	users, total, err := uc.users.ListUsers(ctx, q.Get("search"), page)
	if err != nil {
		uc.writeError(w, r, err)
		return
	}
	body := paged(page, total)
	body["users"] = users
	uc.writeJSON(w, http.StatusOK, body)
}

// UpdateBadge sets a user's badge directly (Admin only)
func (uc *UserController) UpdateBadge(w http.ResponseWriter, r *http.Request) {
	var req models.BadgeUpdateRequest
	if err := decode(r, &req); err != nil {
		uc.writeError(w, r, err)
		return
	}
	tier, ok := rules.ParseTier(req.Badge)
	if !ok {
		uc.writeError(w, r, models.NewInvalidInput("Invalid or missing badge value"))
		return
	}

	ctx, cancel := uc.requestContext(r)
	defer cancel()
	if err := uc.users.SetBadge(ctx, pathEmail(r), tier); err != nil {
		uc.writeError(w, r, err)
		return
	}
	uc.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": fmt.Sprintf("Badge updated to %s", tier),
	})
}

// MakeAdmin promotes a user by id. Promoting an admin again succeeds with modified=false.
func (uc *UserController) MakeAdmin(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "Invalid user ID")
	if err != nil {
		uc.writeError(w, r, err)
		return
	}
	ctx, cancel := uc.requestContext(r)
	defer cancel()
	changed, err := uc.users.PromoteToAdmin(ctx, id)
	if err != nil {
		uc.writeError(w, r, err)
		return
	}
	message := "User promoted to admin"
	if !changed {
		message = "User is already an admin"
	}
	uc.writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "modified": changed, "message": message})
}

func (uc *UserController) AdminProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := uc.requestContext(r)
	defer cancel()
	profile, err := uc.users.AdminProfile(ctx, pathEmail(r))
	if err != nil {
		uc.writeError(w, r, err)
		return
	}
	uc.writeJSON(w, http.StatusOK, profile)
}
