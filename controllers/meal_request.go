package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"hostel-meals/models"
	"hostel-meals/rules"
	"hostel-meals/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MealRequestController handles residents asking for meals and admins serving them
type MealRequestController struct {
	requests RequestStore
	users    UserLookup
	*Responder
}

func NewMealRequestController(requests RequestStore, users UserLookup, rs *Responder) *MealRequestController {
	return &MealRequestController{requests: requests, users: users, Responder: rs}
}

// CreateRequest files a pending request for the caller. Only premium badges may request,
// and each user may request a given meal once.
func (mc *MealRequestController) CreateRequest(w http.ResponseWriter, r *http.Request) {
	var body models.CreateMealRequestBody
	if err := decode(r, &body); err != nil {
		mc.writeError(w, r, err)
		return
	}
	if body.MealID == "" {
		mc.writeError(w, r, models.NewInvalidInput("Missing required fields"))
		return
	}
	mealID, err := primitive.ObjectIDFromHex(body.MealID)
	if err != nil {
		mc.writeError(w, r, models.NewInvalidInput("Invalid meal ID"))
		return
	}
	email, err := callerEmail(r)
	if err != nil {
		mc.writeError(w, r, err)
		return
	}
	if body.UserEmail != "" && !strings.EqualFold(body.UserEmail, email) {
		mc.writeError(w, r, models.NewForbidden("Cannot request a meal for another user"))
		return
	}

	ctx, cancel := mc.requestContext(r)
	defer cancel()
	user, err := mc.users.FindUserByEmail(ctx, email)
	if err != nil && !models.IsKind(err, models.KindNotFound) {
		mc.writeError(w, r, err)
		return
	}
	if err := rules.CheckMealRequest(user); err != nil {
		if errors.Is(err, rules.ErrTierForbidden) {
			utils.EngagementRejected.WithLabelValues("tier").Inc()
		}
		mc.writeError(w, r, err)
		return
	}
	if _, err := mc.requests.FindMeal(ctx, mealID); err != nil {
		mc.writeError(w, r, err)
		return
	}

	name := strings.TrimSpace(body.UserName)
	if name == "" {
		name = user.DisplayName
	}
	req := &models.MealRequest{
		MealID:      mealID,
		UserEmail:   email,
		UserName:    name,
		Status:      models.RequestPending,
		RequestedAt: time.Now().UTC(),
	}
	id, err := mc.requests.CreateMealRequest(ctx, req)
	if err != nil {
		if errors.Is(err, rules.ErrAlreadyRequested) {
			utils.EngagementRejected.WithLabelValues("request").Inc()
		}
		mc.writeError(w, r, err)
		return
	}
	mc.writeJSON(w, http.StatusCreated, map[string]interface{}{"success": true, "insertedId": id, "status": req.Status})
}

// CancelRequest deletes a request. Residents may cancel their own, admins any.
func (mc *MealRequestController) CancelRequest(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "Invalid request ID")
	if err != nil {
		mc.writeError(w, r, err)
		return
	}

	ctx, cancel := mc.requestContext(r)
	defer cancel()
	who, err := caller(ctx, r, mc.users)
	if err != nil {
		mc.writeError(w, r, err)
		return
	}
	req, err := mc.requests.FindMealRequest(ctx, id)
	if err != nil {
		mc.writeError(w, r, err)
		return
	}
	if !rules.CanActOnBehalf(who, req.UserEmail) {
		mc.writeError(w, r, models.NewForbidden("Cannot cancel another user's request"))
		return
	}
	if err := mc.requests.DeleteMealRequest(ctx, id); err != nil {
		mc.writeError(w, r, err)
		return
	}
	mc.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// GetRequestedMeals lists a user's requests with meal details
func (mc *MealRequestController) GetRequestedMeals(w http.ResponseWriter, r *http.Request) {
	email := pathEmail(r)
	q := r.URL.Query()
	page := models.NewPage(q.Get("page"), q.Get("limit"), 10)

	ctx, cancel := mc.requestContext(r)
	defer cancel()
	who, err := caller(ctx, r, mc.users)
	if err != nil {
		mc.writeError(w, r, err)
		return
	}
	if !rules.CanActOnBehalf(who, email) {
		mc.writeError(w, r, models.NewForbidden("Cannot view another user's requests"))
		return
	}
	requests, total, err := mc.requests.ListRequestsForUser(ctx, email, page)
	if err != nil {
		mc.writeError(w, r, err)
		return
	}
	body := paged(page, total)
	body["requests"] = requests
	mc.writeJSON(w, http.StatusOK, body)
}

// GetServeMeals lists requests for the admin serve table (Admin only)
func (mc *MealRequestController) GetServeMeals(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := models.NewPage(q.Get("page"), q.Get("limit"), 10)

	ctx, cancel := mc.requestContext(r)
	defer cancel()
	requests, total, err := mc.requests.ListServeRequests(ctx, q.Get("search"), page)
	if err != nil {
		mc.writeError(w, r, err)
		return
	}
	mc.writeJSON(w, http.StatusOK, map[string]interface{}{
		"total":    total,
		"page":     page.Number,
		"limit":    page.Limit,
		"requests": requests,
	})
}

// ServeRequest marks a request delivered (Admin only)
func (mc *MealRequestController) ServeRequest(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "Invalid request ID")
	if err != nil {
		mc.writeError(w, r, err)
		return
	}
	ctx, cancel := mc.requestContext(r)
	defer cancel()
	if err := mc.requests.ServeMealRequest(ctx, id); err != nil {
		mc.writeError(w, r, err)
		return
	}
	mc.writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Meal request marked as delivered"})
}
