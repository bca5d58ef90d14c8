package controllers

import (
	"context"

	"hostel-meals/models"
	"hostel-meals/rules"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserLookup resolves a user by email
type UserLookup interface {
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
}

type UserStore interface {
	UserLookup
	UpsertUser(ctx context.Context, email, displayName, photoURL string) (*models.User, error)
	FindUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	ListUsers(ctx context.Context, search string, page models.Page) ([]models.User, int64, error)
	SetBadge(ctx context.Context, email string, tier rules.Tier) error
	PromoteToAdmin(ctx context.Context, id primitive.ObjectID) (bool, error)
	AdminProfile(ctx context.Context, email string) (*models.AdminProfile, error)
}

type MealStore interface {
	InsertMeal(ctx context.Context, meal *models.Meal) (primitive.ObjectID, error)
	FindMeal(ctx context.Context, id primitive.ObjectID) (*models.Meal, error)
	ListMeals(ctx context.Context, f models.MealFilter, page models.Page) ([]models.Meal, int64, error)
	ListMealsRanked(ctx context.Context, sortBy string, ascending bool, page models.Page) ([]models.MealSummary, int64, error)
	UpdateMeal(ctx context.Context, id primitive.ObjectID, f models.MealFields) error
	DeleteMeal(ctx context.Context, id primitive.ObjectID) error
	LikeMeal(ctx context.Context, id primitive.ObjectID, email string) error
}

type UpcomingStore interface {
	InsertUpcomingMeal(ctx context.Context, meal *models.UpcomingMeal) (primitive.ObjectID, error)
	ListUpcomingMeals(ctx context.Context) ([]models.UpcomingMeal, error)
	LikeUpcomingMeal(ctx context.Context, id primitive.ObjectID, email string) error
	PublishUpcomingMeal(ctx context.Context, id primitive.ObjectID, addedBy string, threshold int) (primitive.ObjectID, error)
}

type RequestStore interface {
	FindMeal(ctx context.Context, id primitive.ObjectID) (*models.Meal, error)
	CreateMealRequest(ctx context.Context, req *models.MealRequest) (primitive.ObjectID, error)
	FindMealRequest(ctx context.Context, id primitive.ObjectID) (*models.MealRequest, error)
	DeleteMealRequest(ctx context.Context, id primitive.ObjectID) error
	ServeMealRequest(ctx context.Context, id primitive.ObjectID) error
	ListRequestsForUser(ctx context.Context, email string, page models.Page) ([]models.RequestedMeal, int64, error)
	ListServeRequests(ctx context.Context, search string, page models.Page) ([]models.ServeRequest, int64, error)
}

type ReviewStore interface {
	CreateReview(ctx context.Context, review *models.Review) (primitive.ObjectID, error)
	FindReview(ctx context.Context, id primitive.ObjectID) (*models.Review, error)
	ListMealReviews(ctx context.Context, mealID primitive.ObjectID) ([]models.Review, error)
	ListReviews(ctx context.Context, page models.Page) ([]models.ReviewWithMeal, int64, error)
	ListUserReviews(ctx context.Context, email string, page models.Page) ([]models.ReviewWithMeal, int64, error)
	UpdateReviewComment(ctx context.Context, id primitive.ObjectID, comment string) (bool, error)
	DeleteReview(ctx context.Context, id primitive.ObjectID) error
}

type PaymentStore interface {
	RecordPayment(ctx context.Context, p *models.Payment) (primitive.ObjectID, error)
	ApplyTier(ctx context.Context, email string, tier rules.Tier, allowDowngrade bool) (rules.Tier, error)
	MarkPaymentApplied(ctx context.Context, id primitive.ObjectID) error
	ListPayments(ctx context.Context, email string) ([]models.Payment, error)
}

// MaintenanceStore backs the dashboard and the reconciliation job
type MaintenanceStore interface {
	OverviewStats(ctx context.Context) (*models.OverviewStats, error)
	ReconcilePayments(ctx context.Context, allowDowngrade bool) (applied, superseded int, err error)
	RecountReviews(ctx context.Context) (int, error)
}
