package controllers

import (
	"errors"
	"net/http"
	"time"

	"hostel-meals/models"
	"hostel-meals/rules"
	"hostel-meals/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UpcomingController handles upcoming meals: listing, premium likes and publishing
type UpcomingController struct {
	upcoming  UpcomingStore
	users     UserLookup
	threshold int
	*Responder
}

func NewUpcomingController(upcoming UpcomingStore, users UserLookup, threshold int, rs *Responder) *UpcomingController {
	if threshold <= 0 {
		threshold = rules.DefaultPublishThreshold
	}
	return &UpcomingController{upcoming: upcoming, users: users, threshold: threshold, Responder: rs}
}

// GetUpcomingMeals lists upcoming meals, soonest first
func (uc *UpcomingController) GetUpcomingMeals(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := uc.requestContext(r)
	defer cancel()
	meals, err := uc.upcoming.ListUpcomingMeals(ctx)
	if err != nil {
		uc.writeError(w, r, err)
		return
	}
	uc.writeJSON(w, http.StatusOK, meals)
}

// CreateUpcomingMeal handles adding a meal to the upcoming list (Admin only)
func (uc *UpcomingController) CreateUpcomingMeal(w http.ResponseWriter, r *http.Request) {
	var in models.MealInput
	if err := decode(r, &in); err != nil {
		uc.writeError(w, r, err)
		return
	}
	fields, publishDate, err := in.Validate("publishDate")
	if err != nil {
		uc.writeError(w, r, err)
		return
	}
	email, err := callerEmail(r)
	if err != nil {
		uc.writeError(w, r, err)
		return
	}

	meal := &models.UpcomingMeal{
		Title:           fields.Title,
		Category:        fields.Category,
		Image:           fields.Image,
		Ingredients:     fields.Ingredients,
		Description:     fields.Description,
		Price:           fields.Price,
		PublishDate:     publishDate,
		DistributorName: fields.DistributorName,
		AddedByEmail:    email,
		LikedBy:         []string{},
		CreatedAt:       time.Now().UTC(),
	}
	ctx, cancel := uc.requestContext(r)
	defer cancel()
	id, err := uc.upcoming.InsertUpcomingMeal(ctx, meal)
	if err != nil {
		uc.writeError(w, r, err)
		return
	}
	uc.writeJSON(w, http.StatusCreated, map[string]interface{}{"success": true, "insertedId": id})
}

// LikeUpcomingMeal lets Silver, Gold and Platinum users like an upcoming meal once
func (uc *UpcomingController) LikeUpcomingMeal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "Invalid ID")
	if err != nil {
		uc.writeError(w, r, err)
		return
	}
	email, err := callerEmail(r)
	if err != nil {
		uc.writeError(w, r, err)
		return
	}

	ctx, cancel := uc.requestContext(r)
	defer cancel()
	user, err := uc.users.FindUserByEmail(ctx, email)
	if err != nil && !models.IsKind(err, models.KindNotFound) {
		uc.writeError(w, r, err)
		return
	}
	if err := rules.CheckUpcomingLike(user); err != nil {
		utils.EngagementRejected.WithLabelValues("tier").Inc()
		uc.writeError(w, r, err)
		return
	}
	if err := uc.upcoming.LikeUpcomingMeal(ctx, id, email); err != nil {
		if errors.Is(err, rules.ErrAlreadyEngaged) {
			utils.EngagementRejected.WithLabelValues("like").Inc()
		}
		uc.writeError(w, r, err)
		return
	}
	uc.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Publish moves a sufficiently liked upcoming meal into the meal list (Admin only)
func (uc *UpcomingController) Publish(w http.ResponseWriter, r *http.Request) {
	var req models.PublishRequest
	if err := decode(r, &req); err != nil {
		uc.writeError(w, r, err)
		return
	}
	id, err := primitive.ObjectIDFromHex(req.MealID)
	if err != nil {
		uc.writeError(w, r, models.NewInvalidInput("Invalid meal ID"))
		return
	}
	email, err := callerEmail(r)
	if err != nil {
		uc.writeError(w, r, err)
		return
	}

	ctx, cancel := uc.requestContext(r)
	defer cancel()
	mealID, err := uc.upcoming.PublishUpcomingMeal(ctx, id, email, uc.threshold)
	if err != nil {
		uc.writeError(w, r, err)
		return
	}
	uc.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"message":    "Meal published successfully",
		"insertedId": mealID,
	})
}
