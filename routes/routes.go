package routes

import (
	"log/slog"
	"net/http"
	"time"

	"hostel-meals/controllers"
	"hostel-meals/middleware"
	"hostel-meals/utils"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

// Controllers groups the handlers the route table dispatches to
type Controllers struct {
	Users     *controllers.UserController
	Meals     *controllers.MealController
	Upcoming  *controllers.UpcomingController
	Requests  *controllers.MealRequestController
	Reviews   *controllers.ReviewController
	Payments  *controllers.PaymentController
	Dashboard *controllers.DashboardController
}

// Guards are the access middlewares applied per route
type Guards struct {
	Issuer *utils.TokenIssuer
	Users  middleware.UserLookup
	Redis  *redis.Client
	// RatePerMinute limits engagement routes per caller; zero disables limiting.
	RatePerMinute int
	Logger        *slog.Logger
}

func chain(h http.HandlerFunc, mws ...func(http.Handler) http.Handler) http.Handler {
	var out http.Handler = h
	for i := len(mws) - 1; i >= 0; i-- {
		out = mws[i](out)
	}
	return out
}

// Health answers the root liveness probe
func Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("Server is running"))
}

// RegisterRoutes sets up all the routes for the application
func RegisterRoutes(router *mux.Router, c Controllers, g Guards) {
	auth := middleware.Auth(g.Issuer)
	admin := middleware.RequireAdmin(g.Users)
	limit := func(resource string) func(http.Handler) http.Handler {
		return middleware.RateLimit(g.Redis, g.RatePerMinute, time.Minute, resource, g.Logger)
	}

	// Public routes
	router.HandleFunc("/", Health).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	router.HandleFunc("/auth/login", c.Users.Login).Methods(http.MethodPost)
	router.HandleFunc("/meals", c.Meals.GetMeals).Methods(http.MethodGet)
	router.HandleFunc("/all-meals", c.Meals.GetRankedMeals).Methods(http.MethodGet)
	router.HandleFunc("/meals/{id}", c.Meals.GetMeal).Methods(http.MethodGet)
	router.HandleFunc("/reviews/item/{id}", c.Reviews.GetReview).Methods(http.MethodGet)
	router.HandleFunc("/reviews/{mealId}", c.Reviews.GetMealReviews).Methods(http.MethodGet)
	router.HandleFunc("/upcoming-meals", c.Upcoming.GetUpcomingMeals).Methods(http.MethodGet)
	router.HandleFunc("/users/admin/{email}", c.Users.CheckAdmin).Methods(http.MethodGet)

	// Authenticated routes
	router.Handle("/users/upsert", chain(c.Users.Upsert, auth)).Methods(http.MethodPost)
	router.Handle("/users/{email}", chain(c.Users.GetUser, auth)).Methods(http.MethodGet)
	router.Handle("/my-profile/{email}", chain(c.Users.GetProfile, auth)).Methods(http.MethodGet)
	router.Handle("/meals/{id}/like", chain(c.Meals.LikeMeal, auth, limit("like"))).Methods(http.MethodPatch)
	router.Handle("/upcoming-meals/{id}/like", chain(c.Upcoming.LikeUpcomingMeal, auth, limit("like"))).Methods(http.MethodPatch)
	router.Handle("/meal-requests", chain(c.Requests.CreateRequest, auth, limit("meal-requests"))).Methods(http.MethodPost)
	router.Handle("/meal-requests/{id}", chain(c.Requests.CancelRequest, auth)).Methods(http.MethodDelete)
	router.Handle("/requested-meals/{email}", chain(c.Requests.GetRequestedMeals, auth)).Methods(http.MethodGet)
	router.Handle("/reviews", chain(c.Reviews.CreateReview, auth, limit("reviews"))).Methods(http.MethodPost)
	router.Handle("/reviews/{id}", chain(c.Reviews.UpdateReview, auth)).Methods(http.MethodPut)
	router.Handle("/reviews/{id}", chain(c.Reviews.DeleteReview, auth)).Methods(http.MethodDelete)
	router.Handle("/my-reviews/{email}", chain(c.Reviews.GetUserReviews, auth)).Methods(http.MethodGet)
	router.Handle("/create-payment-intent", chain(c.Payments.CreatePaymentIntent, auth)).Methods(http.MethodPost)
	router.Handle("/payments/save", chain(c.Payments.SavePayment, auth, limit("payments"))).Methods(http.MethodPost)
	router.Handle("/payments/{email}", chain(c.Payments.GetPayments, auth)).Methods(http.MethodGet)

	// Admin routes
	router.Handle("/users", chain(c.Users.ListUsers, auth, admin)).Methods(http.MethodGet)
	router.Handle("/users/{email}/badge", chain(c.Users.UpdateBadge, auth, admin)).Methods(http.MethodPatch)
	router.Handle("/users/{id}/make-admin", chain(c.Users.MakeAdmin, auth, admin)).Methods(http.MethodPatch)
	router.Handle("/admin/profile/{email}", chain(c.Users.AdminProfile, auth, admin)).Methods(http.MethodGet)
	router.Handle("/dashboard/overview-stats", chain(c.Dashboard.OverviewStats, auth, admin)).Methods(http.MethodGet)
	router.Handle("/admin/reconcile", chain(c.Dashboard.Reconcile, auth, admin)).Methods(http.MethodPost)
	router.Handle("/meals", chain(c.Meals.CreateMeal, auth, admin)).Methods(http.MethodPost)
	router.Handle("/meals/{id}", chain(c.Meals.UpdateMeal, auth, admin)).Methods(http.MethodPut)
	router.Handle("/meals/{id}", chain(c.Meals.DeleteMeal, auth, admin)).Methods(http.MethodDelete)
	router.Handle("/upcoming-meals", chain(c.Upcoming.CreateUpcomingMeal, auth, admin)).Methods(http.MethodPost)
	router.Handle("/upcoming-meals/publish", chain(c.Upcoming.Publish, auth, admin)).Methods(http.MethodPost)
	router.Handle("/serve-meals", chain(c.Requests.GetServeMeals, auth, admin)).Methods(http.MethodGet)
	router.Handle("/serve-meals/{id}/serve", chain(c.Requests.ServeRequest, auth, admin)).Methods(http.MethodPut)
	router.Handle("/meal-requests/{id}", chain(c.Requests.ServeRequest, auth, admin)).Methods(http.MethodPatch)
	router.Handle("/all-reviews", chain(c.Reviews.GetAllReviews, auth, admin)).Methods(http.MethodGet)
}

// NewRouter builds the router with request id, logging and metrics middleware.
func NewRouter(c Controllers, g Guards) *mux.Router {
	router := mux.NewRouter()
	router.Use(middleware.RequestID, middleware.Logging(g.Logger), middleware.Metrics)
	RegisterRoutes(router, c, g)
	return router
}

// Handler wraps the router with CORS for the given origins.
func Handler(router http.Handler, origins []string) http.Handler {
	return handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type", middleware.RequestIDHeader}),
		handlers.ExposedHeaders([]string{middleware.RequestIDHeader}),
	)(router)
}
