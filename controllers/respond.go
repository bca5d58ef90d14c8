package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"hostel-meals/middleware"
	"hostel-meals/models"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Responder holds what every controller needs to answer a request
type Responder struct {
	logger         *slog.Logger
	conflictStatus int
	timeout        time.Duration
}

// NewResponder creates a Responder. conflictStatus is the status sent for duplicate
// likes, requests and payments (409, or 400 for older clients).
func NewResponder(logger *slog.Logger, conflictStatus int, timeout time.Duration) *Responder {
	if conflictStatus == 0 {
		conflictStatus = http.StatusConflict
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Responder{logger: logger, conflictStatus: conflictStatus, timeout: timeout}
}

func (rs *Responder) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), rs.timeout)
}

func (rs *Responder) status(kind models.ErrorKind) int {
	switch kind {
	case models.KindInvalidInput:
		return http.StatusBadRequest
	case models.KindUnauthorized:
		return http.StatusUnauthorized
	case models.KindForbidden:
		return http.StatusForbidden
	case models.KindNotFound:
		return http.StatusNotFound
	case models.KindConflict:
		return rs.conflictStatus
	case models.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (rs *Responder) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		rs.logger.Error("error encoding response", slog.String("error", err.Error()))
	}
}

// writeError maps err to a status and a {"message"} body. Server side failures are
// logged with their cause; the client only sees the message.
func (rs *Responder) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := models.KindOf(err)
	status := rs.status(kind)

	message := "Server error"
	var appErr *models.AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		message = appErr.Message
	}

	if status >= http.StatusInternalServerError {
		rs.logger.ErrorContext(r.Context(), "request failed",
			slog.String("path", r.URL.Path),
			slog.String("kind", kind.String()),
			slog.String("error", err.Error()),
		)
	}
	rs.writeJSON(w, status, map[string]string{"message": message})
}

// decode reads a JSON body into dst.
func decode(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return models.NewInvalidInput("Invalid input")
	}
	return nil
}

// pathID parses the named path variable as an ObjectID.
func pathID(r *http.Request, name, message string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)[name])
	if err != nil {
		return primitive.NilObjectID, models.NewInvalidInput(message)
	}
	return id, nil
}

// normalizeEmail is the stored form of an email. Every email entering a handler goes
// through it because store lookups are exact matches.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func pathEmail(r *http.Request) string {
	return normalizeEmail(mux.Vars(r)["email"])
}

// callerEmail is the email of the authenticated caller.
func callerEmail(r *http.Request) (string, error) {
	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok || strings.TrimSpace(claims.Email) == "" {
		return "", models.NewUnauthorized("Authorization header missing")
	}
	return normalizeEmail(claims.Email), nil
}

// caller loads the stored record of the authenticated caller. A caller without a
// record yet is returned as a bare user so ownership checks still work.
func caller(ctx context.Context, r *http.Request, users UserLookup) (*models.User, error) {
	email, err := callerEmail(r)
	if err != nil {
		return nil, err
	}
	user, err := users.FindUserByEmail(ctx, email)
	if models.IsKind(err, models.KindNotFound) {
		return &models.User{Email: email, Role: models.RoleUser}, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func paged(p models.Page, total int64) map[string]interface{} {
	return map[string]interface{}{
		"totalCount":  total,
		"totalPages":  p.TotalPages(total),
		"currentPage": p.Number,
	}
}
