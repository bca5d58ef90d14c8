package controllers

import (
	"errors"
	"net/http"
	"slices"
	"strconv"
	"time"

	"hostel-meals/models"
	"hostel-meals/rules"
	"hostel-meals/store"
	"hostel-meals/utils"
)

// MealController handles meal-related requests
type MealController struct {
	meals MealStore
	*Responder
}

func NewMealController(meals MealStore, rs *Responder) *MealController {
	return &MealController{meals: meals, Responder: rs}
}

func parsePrice(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// GetMeals lists meals with search, category, price range, price sort and pagination
func (mc *MealController) GetMeals(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := models.NewPage(q.Get("page"), q.Get("limit"), 6)
	filter := models.MealFilter{
		Search:      q.Get("search"),
		Category:    q.Get("category"),
		MinPrice:    parsePrice(q.Get("minPrice")),
		MaxPrice:    parsePrice(q.Get("maxPrice")),
		SortByPrice: q.Get("sortByPrice"),
	}

	ctx, cancel := mc.requestContext(r)
	defer cancel()
	meals, total, err := mc.meals.ListMeals(ctx, filter, page)
	if err != nil {
		mc.writeError(w, r, err)
		return
	}
	mc.writeJSON(w, http.StatusOK, map[string]interface{}{"total": total, "page": page.Number, "meals": meals})
}

// GetRankedMeals lists meals sorted by likes, reviewCount or rating
func (mc *MealController) GetRankedMeals(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sortBy := q.Get("sortBy")
	if sortBy == "" {
		sortBy = "likes"
	}
	if !slices.Contains(store.RankedSortFields, sortBy) {
		mc.writeError(w, r, models.NewInvalidInput("Invalid sort field"))
		return
	}
	page := models.NewPage(q.Get("page"), q.Get("limit"), 10)

	ctx, cancel := mc.requestContext(r)
	defer cancel()
	meals, total, err := mc.meals.ListMealsRanked(ctx, sortBy, q.Get("order") == "asc", page)
	if err != nil {
		mc.writeError(w, r, err)
		return
	}
	mc.writeJSON(w, http.StatusOK, map[string]interface{}{
		"total": total,
		"page":  page.Number,
		"limit": page.Limit,
		"meals": meals,
	})
}

func (mc *MealController) GetMeal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "Invalid ID")
	if err != nil {
		mc.writeError(w, r, err)
		return
	}
	ctx, cancel := mc.requestContext(r)
	defer cancel()
	meal, err := mc.meals.FindMeal(ctx, id)
	if err != nil {
		mc.writeError(w, r, err)
		return
	}
	mc.writeJSON(w, http.StatusOK, meal)
}

// CreateMeal handles adding a new meal (Admin only)
func (mc *MealController) CreateMeal(w http.ResponseWriter, r *http.Request) {
	var in models.MealInput
	if err := decode(r, &in); err != nil {
		mc.writeError(w, r, err)
		return
	}
	fields, _, err := in.Validate("postTime")
	if err != nil {
		mc.writeError(w, r, err)
		return
	}
	email, err := callerEmail(r)
	if err != nil {
		mc.writeError(w, r, err)
		return
	}

	meal := &models.Meal{
		Title:           fields.Title,
		Category:        fields.Category,
		Image:           fields.Image,
		Ingredients:     fields.Ingredients,
		Description:     fields.Description,
		Price:           fields.Price,
		PostTime:        fields.PostTime,
		DistributorName: fields.DistributorName,
		AddedByEmail:    email,
		LikedBy:         []string{},
		CreatedAt:       time.Now().UTC(),
	}
	ctx, cancel := mc.requestContext(r)
	defer cancel()
	id, err := mc.meals.InsertMeal(ctx, meal)
	if err != nil {
		mc.writeError(w, r, err)
		return
	}
	mc.writeJSON(w, http.StatusCreated, map[string]interface{}{"success": true, "insertedId": id})
}

// UpdateMeal handles updating an existing meal (Admin only)
func (mc *MealController) UpdateMeal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "Invalid meal ID")
	if err != nil {
		mc.writeError(w, r, err)
		return
	}
	var in models.MealInput
	if err := decode(r, &in); err != nil {
		mc.writeError(w, r, err)
		return
	}
	fields, _, err := in.Validate("postTime")
	if err != nil {
		mc.writeError(w, r, err)
		return
	}

	ctx, cancel := mc.requestContext(r)
	defer cancel()
	if err := mc.meals.UpdateMeal(ctx, id, fields); err != nil {
		mc.writeError(w, r, err)
		return
	}
	mc.writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Meal updated successfully"})
}

// DeleteMeal handles deleting a meal (Admin only)
func (mc *MealController) DeleteMeal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "Invalid meal ID")
	if err != nil {
		mc.writeError(w, r, err)
		return
	}
	ctx, cancel := mc.requestContext(r)
	defer cancel()
	if err := mc.meals.DeleteMeal(ctx, id); err != nil {
		mc.writeError(w, r, err)
		return
	}
	mc.writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Meal deleted successfully"})
}

// LikeMeal records the caller's like, once per meal
func (mc *MealController) LikeMeal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "Invalid ID")
	if err != nil {
		mc.writeError(w, r, err)
		return
	}
	email, err := callerEmail(r)
	if err != nil {
		mc.writeError(w, r, err)
		return
	}

	ctx, cancel := mc.requestContext(r)
	defer cancel()
	if err := mc.meals.LikeMeal(ctx, id, email); err != nil {
		if errors.Is(err, rules.ErrAlreadyEngaged) {
			utils.EngagementRejected.WithLabelValues("like").Inc()
		}
		mc.writeError(w, r, err)
		return
	}
	mc.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
