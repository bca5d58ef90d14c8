package controllers

import (
	"context"
	"sort"
	"strings"
	"sync"

	"hostel-meals/models"
	"hostel-meals/rules"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memStore is an in-memory stand-in for store.Store that applies the same rules.
type memStore struct {
	mu       sync.Mutex
	users    map[string]*models.User
	meals    map[primitive.ObjectID]*models.Meal
	upcoming map[primitive.ObjectID]*models.UpcomingMeal
	requests map[primitive.ObjectID]*models.MealRequest
	reviews  map[primitive.ObjectID]*models.Review
	payments []*models.Payment
}

func newMemStore() *memStore {
	return &memStore{
		users:    map[string]*models.User{},
		meals:    map[primitive.ObjectID]*models.Meal{},
		upcoming: map[primitive.ObjectID]*models.UpcomingMeal{},
		requests: map[primitive.ObjectID]*models.MealRequest{},
		reviews:  map[primitive.ObjectID]*models.Review{},
	}
}

func (m *memStore) addUser(email, badge, role string) *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := &models.User{ID: primitive.NewObjectID(), Email: email, DisplayName: strings.Split(email, "@")[0], Badge: badge, Role: role}
	m.users[email] = u
	return u
}

func (m *memStore) addMeal(likes, reviewCount int) *models.Meal {
	m.mu.Lock()
	defer m.mu.Unlock()
	meal := &models.Meal{ID: primitive.NewObjectID(), Title: "Khichuri", Likes: likes, ReviewCount: reviewCount, LikedBy: []string{}}
	m.meals[meal.ID] = meal
	return meal
}

func (m *memStore) addUpcoming(likes int) *models.UpcomingMeal {
	m.mu.Lock()
	defer m.mu.Unlock()
	meal := &models.UpcomingMeal{ID: primitive.NewObjectID(), Title: "Biryani", Price: 5, Likes: likes, LikedBy: []string{}}
	m.upcoming[meal.ID] = meal
	return meal
}

func (m *memStore) user(email string) *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[email]
}

// users

func (m *memStore) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[email]
	if !ok {
		return nil, models.NewNotFound("User not found")
	}
	cp := *u
	return &cp, nil
}

func (m *memStore) UpsertUser(_ context.Context, email, displayName, photoURL string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[email]
	if !ok {
		u = &models.User{ID: primitive.NewObjectID(), Email: email, Badge: string(rules.Bronze), Role: models.RoleUser}
		m.users[email] = u
	}
	if displayName != "" {
		u.DisplayName = displayName
	}
	if photoURL != "" {
		u.PhotoURL = photoURL
	}
	cp := *u
	return &cp, nil
}

func (m *memStore) FindUserByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, models.NewNotFound("User not found")
}

func (m *memStore) ListUsers(_ context.Context, search string, page models.Page) ([]models.User, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.User{}
	for _, u := range m.users {
		if search == "" || strings.Contains(u.Email, search) {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, int64(len(out)), nil
}

func (m *memStore) SetBadge(_ context.Context, email string, tier rules.Tier) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[email]
	if !ok {
		return models.NewNotFound("User not found")
	}
	u.Badge = string(tier)
	return nil
}

func (m *memStore) PromoteToAdmin(_ context.Context, id primitive.ObjectID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			changed := u.Role != models.RoleAdmin
			u.Role = models.RoleAdmin
			return changed, nil
		}
	}
	return false, models.NewNotFound("User not found")
}

func (m *memStore) AdminProfile(_ context.Context, email string) (*models.AdminProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[email]
	if !ok || u.Role != models.RoleAdmin {
		return nil, models.NewNotFound("Admin user not found")
	}
	var count int64
	for _, meal := range m.meals {
		if meal.AddedByEmail == email {
			count++
		}
	}
	return &models.AdminProfile{Name: u.DisplayName, Email: u.Email, MealsAddedCount: count}, nil
}

func (m *memStore) ApplyTier(_ context.Context, email string, tier rules.Tier, allowDowngrade bool) (rules.Tier, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[email]
	if !ok {
		return "", models.NewNotFound("User not found")
	}
	next := rules.NextTier(rules.TierOrDefault(u.Badge), tier, allowDowngrade)
	u.Badge = string(next)
	return next, nil
}

// meals

func (m *memStore) InsertMeal(_ context.Context, meal *models.Meal) (primitive.ObjectID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	meal.ID = primitive.NewObjectID()
	cp := *meal
	m.meals[meal.ID] = &cp
	return meal.ID, nil
}

func (m *memStore) FindMeal(_ context.Context, id primitive.ObjectID) (*models.Meal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	meal, ok := m.meals[id]
	if !ok {
		return nil, models.NewNotFound("Meal not found")
	}
	cp := *meal
	return &cp, nil
}

func (m *memStore) ListMeals(_ context.Context, f models.MealFilter, page models.Page) ([]models.Meal, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Meal{}
	for _, meal := range m.meals {
		if f.Category != "" && f.Category != "All" && meal.Category != f.Category {
			continue
		}
		out = append(out, *meal)
	}
	total := int64(len(out))
	if len(out) > page.Limit {
		out = out[:page.Limit]
	}
	return out, total, nil
}

func (m *memStore) ListMealsRanked(_ context.Context, sortBy string, ascending bool, page models.Page) ([]models.MealSummary, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.MealSummary{}
	for _, meal := range m.meals {
		out = append(out, models.MealSummary{ID: meal.ID, Title: meal.Title, Likes: meal.Likes, ReviewCount: meal.ReviewCount})
	}
	return out, int64(len(out)), nil
}

func (m *memStore) UpdateMeal(_ context.Context, id primitive.ObjectID, f models.MealFields) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	meal, ok := m.meals[id]
	if !ok {
		return models.NewNotFound("Meal not found")
	}
	meal.Title, meal.Category, meal.Price = f.Title, f.Category, f.Price
	return nil
}

func (m *memStore) DeleteMeal(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.meals[id]; !ok {
		return models.NewNotFound("Meal not found")
	}
	delete(m.meals, id)
	return nil
}

func (m *memStore) LikeMeal(_ context.Context, id primitive.ObjectID, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	meal, ok := m.meals[id]
	if !ok {
		return models.NewNotFound("Meal not found")
	}
	e := rules.Engagement{Likes: meal.Likes, LikedBy: meal.LikedBy}
	if err := rules.ApplyLike(&e, email); err != nil {
		return err
	}
	meal.Likes, meal.LikedBy = e.Likes, e.LikedBy
	return nil
}

// upcoming

func (m *memStore) InsertUpcomingMeal(_ context.Context, meal *models.UpcomingMeal) (primitive.ObjectID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	meal.ID = primitive.NewObjectID()
	cp := *meal
	m.upcoming[meal.ID] = &cp
	return meal.ID, nil
}

func (m *memStore) ListUpcomingMeals(_ context.Context) ([]models.UpcomingMeal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.UpcomingMeal{}
	for _, meal := range m.upcoming {
		out = append(out, *meal)
	}
	return out, nil
}

func (m *memStore) LikeUpcomingMeal(_ context.Context, id primitive.ObjectID, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	meal, ok := m.upcoming[id]
	if !ok {
		return models.NewNotFound("Meal not found")
	}
	e := rules.Engagement{Likes: meal.Likes, LikedBy: meal.LikedBy}
	if err := rules.ApplyLike(&e, email); err != nil {
		return err
	}
	meal.Likes, meal.LikedBy = e.Likes, e.LikedBy
	return nil
}

func (m *memStore) PublishUpcomingMeal(_ context.Context, id primitive.ObjectID, addedBy string, threshold int) (primitive.ObjectID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	up, ok := m.upcoming[id]
	if !ok {
		return primitive.NilObjectID, models.NewNotFound("Upcoming meal not found")
	}
	if err := rules.CanPublish(up.Likes, threshold); err != nil {
		return primitive.NilObjectID, err
	}
	meal := up.ToMeal(addedBy, up.CreatedAt)
	meal.ID = primitive.NewObjectID()
	m.meals[meal.ID] = &meal
	delete(m.upcoming, id)
	return meal.ID, nil
}

// requests

func (m *memStore) CreateMealRequest(_ context.Context, req *models.MealRequest) (primitive.ObjectID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.requests {
		if existing.UserEmail == req.UserEmail && existing.MealID == req.MealID {
			return primitive.NilObjectID, rules.ErrAlreadyRequested
		}
	}
	req.ID = primitive.NewObjectID()
	req.Status = models.RequestPending
	cp := *req
	m.requests[req.ID] = &cp
	return req.ID, nil
}

func (m *memStore) FindMealRequest(_ context.Context, id primitive.ObjectID) (*models.MealRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requests[id]
	if !ok {
		return nil, models.NewNotFound("Meal request not found")
	}
	cp := *req
	return &cp, nil
}

func (m *memStore) DeleteMealRequest(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.requests[id]; !ok {
		return models.NewNotFound("Meal request not found")
	}
	delete(m.requests, id)
	return nil
}

func (m *memStore) ServeMealRequest(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requests[id]
	if !ok {
		return models.NewNotFound("Meal request not found")
	}
	req.Status = models.RequestDelivered
	return nil
}

func (m *memStore) ListRequestsForUser(_ context.Context, email string, _ models.Page) ([]models.RequestedMeal, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.RequestedMeal{}
	for _, req := range m.requests {
		meal, ok := m.meals[req.MealID]
		if req.UserEmail != email || !ok {
			continue
		}
		out = append(out, models.RequestedMeal{ID: req.ID, MealTitle: meal.Title, Likes: meal.Likes, Status: req.Status})
	}
	return out, int64(len(out)), nil
}

func (m *memStore) ListServeRequests(_ context.Context, _ string, _ models.Page) ([]models.ServeRequest, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.ServeRequest{}
	for _, req := range m.requests {
		out = append(out, models.ServeRequest{ID: req.ID, UserEmail: req.UserEmail, Status: req.Status})
	}
	return out, int64(len(out)), nil
}

// reviews

func (m *memStore) CreateReview(_ context.Context, review *models.Review) (primitive.ObjectID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	meal, ok := m.meals[review.MealID]
	if !ok {
		return primitive.NilObjectID, models.NewNotFound("Meal not found")
	}
	meal.ReviewCount++
	review.ID = primitive.NewObjectID()
	cp := *review
	m.reviews[review.ID] = &cp
	return review.ID, nil
}

func (m *memStore) addReview(mealID primitive.ObjectID, email string) *models.Review {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := &models.Review{ID: primitive.NewObjectID(), MealID: mealID, UserEmail: email, Comment: "tasty"}
	m.reviews[r.ID] = r
	return r
}

func (m *memStore) FindReview(_ context.Context, id primitive.ObjectID) (*models.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reviews[id]
	if !ok {
		return nil, models.NewNotFound("Review not found")
	}
	cp := *r
	return &cp, nil
}

func (m *memStore) ListMealReviews(_ context.Context, mealID primitive.ObjectID) ([]models.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Review{}
	for _, r := range m.reviews {
		if r.MealID == mealID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memStore) listReviews(match func(*models.Review) bool) ([]models.ReviewWithMeal, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.ReviewWithMeal{}
	for _, r := range m.reviews {
		meal, ok := m.meals[r.MealID]
		if !ok || !match(r) {
			continue
		}
		out = append(out, models.ReviewWithMeal{ID: r.ID, Comment: r.Comment, UserEmail: r.UserEmail, MealID: meal.ID, MealTitle: meal.Title})
	}
	return out, int64(len(out)), nil
}

func (m *memStore) ListReviews(_ context.Context, _ models.Page) ([]models.ReviewWithMeal, int64, error) {
	return m.listReviews(func(*models.Review) bool { return true })
}

func (m *memStore) ListUserReviews(_ context.Context, email string, _ models.Page) ([]models.ReviewWithMeal, int64, error) {
	return m.listReviews(func(r *models.Review) bool { return r.UserEmail == email })
}

func (m *memStore) UpdateReviewComment(_ context.Context, id primitive.ObjectID, comment string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reviews[id]
	if !ok {
		return false, models.NewNotFound("Review not found")
	}
	changed := r.Comment != comment
	r.Comment = comment
	return changed, nil
}

func (m *memStore) DeleteReview(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reviews[id]
	if !ok {
		return models.NewNotFound("Review not found")
	}
	delete(m.reviews, id)
	if meal, ok := m.meals[r.MealID]; ok && meal.ReviewCount > 0 {
		meal.ReviewCount--
	}
	return nil
}

// payments

func (m *memStore) RecordPayment(_ context.Context, p *models.Payment) (primitive.ObjectID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.payments {
		if existing.PaymentIntentID == p.PaymentIntentID {
			return primitive.NilObjectID, models.NewConflict("Payment already recorded")
		}
	}
	p.ID = primitive.NewObjectID()
	p.TierApplied = false
	cp := *p
	m.payments = append(m.payments, &cp)
	return p.ID, nil
}

func (m *memStore) MarkPaymentApplied(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.payments {
		if p.ID == id {
			p.TierApplied = true
		}
	}
	return nil
}

func (m *memStore) ListPayments(_ context.Context, email string) ([]models.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Payment{}
	for _, p := range m.payments {
		if p.UserEmail == email {
			out = append(out, *p)
		}
	}
	return out, nil
}

// maintenance

func (m *memStore) OverviewStats(_ context.Context) (*models.OverviewStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return &models.OverviewStats{
		TotalUsers:    int64(len(m.users)),
		TotalMeals:    int64(len(m.meals)),
		TotalRequests: int64(len(m.requests)),
		TotalReviews:  int64(len(m.reviews)),
		MealLikes:     []models.MealSummary{},
	}, nil
}

func (m *memStore) ReconcilePayments(_ context.Context, allowDowngrade bool) (int, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	applied := 0
	for _, p := range m.payments {
		if p.TierApplied {
			continue
		}
		if u, ok := m.users[p.UserEmail]; ok {
			u.Badge = string(rules.NextTier(rules.TierOrDefault(u.Badge), rules.Tier(p.Badge), allowDowngrade))
			p.TierApplied = true
			applied++
		}
	}
	return applied, 0, nil
}

func (m *memStore) RecountReviews(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[primitive.ObjectID]int{}
	for _, r := range m.reviews {
		counts[r.MealID]++
	}
	fixed := 0
	for id, meal := range m.meals {
		if meal.ReviewCount != counts[id] {
			meal.ReviewCount = counts[id]
			fixed++
		}
	}
	return fixed, nil
}
