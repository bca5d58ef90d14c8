package controllers

import (
	"net/http"
	"strings"
	"time"

	"hostel-meals/models"
	"hostel-meals/rules"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReviewController handles meal reviews
type ReviewController struct {
	reviews ReviewStore
	users   UserLookup
	*Responder
}

func NewReviewController(reviews ReviewStore, users UserLookup, rs *Responder) *ReviewController {
	return &ReviewController{reviews: reviews, users: users, Responder: rs}
}

// CreateReview posts the caller's review and bumps the meal's review count
func (rc *ReviewController) CreateReview(w http.ResponseWriter, r *http.Request) {
	var body models.CreateReviewBody
	if err := decode(r, &body); err != nil {
		rc.writeError(w, r, err)
		return
	}
	comment := strings.TrimSpace(body.Comment)
	if body.MealID == "" || comment == "" {
		rc.writeError(w, r, models.NewInvalidInput("Missing fields"))
		return
	}
	mealID, err := primitive.ObjectIDFromHex(body.MealID)
	if err != nil {
		rc.writeError(w, r, models.NewInvalidInput("Invalid meal ID"))
		return
	}

	ctx, cancel := rc.requestContext(r)
	defer cancel()
	who, err := caller(ctx, r, rc.users)
	if err != nil {
		rc.writeError(w, r, err)
		return
	}
	if body.UserEmail != "" && !strings.EqualFold(body.UserEmail, who.Email) {
		rc.writeError(w, r, models.NewForbidden("Cannot review as another user"))
		return
	}
	name := strings.TrimSpace(body.UserName)
	if name == "" {
		name = who.DisplayName
	}

	review := &models.Review{
		MealID:    mealID,
		UserEmail: who.Email,
		UserName:  name,
		Comment:   comment,
		CreatedAt: time.Now().UTC(),
	}
	id, err := rc.reviews.CreateReview(ctx, review)
	if err != nil {
		rc.writeError(w, r, err)
		return
	}
	rc.writeJSON(w, http.StatusCreated, map[string]interface{}{"success": true, "insertedId": id})
}

// GetMealReviews lists a meal's reviews, newest first
func (rc *ReviewController) GetMealReviews(w http.ResponseWriter, r *http.Request) {
	mealID, err := pathID(r, "mealId", "Invalid meal ID")
	if err != nil {
		rc.writeError(w, r, err)
		return
	}
	ctx, cancel := rc.requestContext(r)
	defer cancel()
	reviews, err := rc.reviews.ListMealReviews(ctx, mealID)
	if err != nil {
		rc.writeError(w, r, err)
		return
	}
	rc.writeJSON(w, http.StatusOK, reviews)
}

func (rc *ReviewController) GetReview(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "Invalid ID")
	if err != nil {
		rc.writeError(w, r, err)
		return
	}
	ctx, cancel := rc.requestContext(r)
	defer cancel()
	review, err := rc.reviews.FindReview(ctx, id)
	if err != nil {
		rc.writeError(w, r, err)
		return
	}
	rc.writeJSON(w, http.StatusOK, review)
}

// UpdateReview edits the comment of the caller's own review
func (rc *ReviewController) UpdateReview(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "Invalid review ID")
	if err != nil {
		rc.writeError(w, r, err)
		return
	}
	var body models.UpdateReviewBody
	if err := decode(r, &body); err != nil {
		rc.writeError(w, r, err)
		return
	}
	comment := strings.TrimSpace(body.Comment)
	if comment == "" {
		rc.writeError(w, r, models.NewInvalidInput("Comment cannot be empty"))
		return
	}
	email, err := callerEmail(r)
	if err != nil {
		rc.writeError(w, r, err)
		return
	}

	ctx, cancel := rc.requestContext(r)
	defer cancel()
	review, err := rc.reviews.FindReview(ctx, id)
	if err != nil {
		rc.writeError(w, r, err)
		return
	}
	if !strings.EqualFold(review.UserEmail, email) {
		rc.writeError(w, r, models.NewForbidden("Cannot edit another user's review"))
		return
	}
	changed, err := rc.reviews.UpdateReviewComment(ctx, id, comment)
	if err != nil {
		rc.writeError(w, r, err)
		return
	}
	if !changed {
		rc.writeError(w, r, models.NewInvalidInput("No changes made to the review"))
		return
	}
	rc.writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Review updated successfully"})
}

// DeleteReview removes a review and decrements the meal's review count. Owner or admin.
func (rc *ReviewController) DeleteReview(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "Invalid ID")
	if err != nil {
		rc.writeError(w, r, err)
		return
	}

	ctx, cancel := rc.requestContext(r)
	defer cancel()
	who, err := caller(ctx, r, rc.users)
	if err != nil {
		rc.writeError(w, r, err)
		return
	}
	review, err := rc.reviews.FindReview(ctx, id)
	if err != nil {
		rc.writeError(w, r, err)
		return
	}
	if !rules.CanActOnBehalf(who, review.UserEmail) {
		rc.writeError(w, r, models.NewForbidden("Cannot delete another user's review"))
		return
	}
	if err := rc.reviews.DeleteReview(ctx, id); err != nil {
		rc.writeError(w, r, err)
		return
	}
	rc.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// GetUserReviews lists a user's reviews with meal details. Owner or admin.
func (rc *ReviewController) GetUserReviews(w http.ResponseWriter, r *http.Request) {
	email := pathEmail(r)
	q := r.URL.Query()
	page := models.NewPage(q.Get("page"), q.Get("limit"), 10)

	ctx, cancel := rc.requestContext(r)
	defer cancel()
	who, err := caller(ctx, r, rc.users)
	if err != nil {
		rc.writeError(w, r, err)
		return
	}
	if !rules.CanActOnBehalf(who, email) {
		rc.writeError(w, r, models.NewForbidden("Cannot view another user's reviews"))
		return
	}
	reviews, total, err := rc.reviews.ListUserReviews(ctx, email, page)
	if err != nil {
		rc.writeError(w, r, err)
		return
	}
	body := paged(page, total)
	body["reviews"] = reviews
	rc.writeJSON(w, http.StatusOK, body)
}

// GetAllReviews lists every review with meal details (Admin only)
func (rc *ReviewController) GetAllReviews(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := models.NewPage(q.Get("page"), q.Get("limit"), 10)

	ctx, cancel := rc.requestContext(r)
	defer cancel()
	reviews, total, err := rc.reviews.ListReviews(ctx, page)
	if err != nil {
		rc.writeError(w, r, err)
		return
	}
	rc.writeJSON(w, http.StatusOK, map[string]interface{}{
		"totalItems":  total,
		"totalPages":  page.TotalPages(total),
		"currentPage": page.Number,
		"reviews":     reviews,
	})
}
