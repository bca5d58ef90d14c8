package store

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"hostel-meals/models"
	"hostel-meals/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CreateReview stores a review and increments the parent meal's reviewCount.
// The meal is incremented first so a missing meal is rejected before anything is written;
// a failed insert is compensated, and a failed compensation is logged and counted.
func (s *Store) CreateReview(ctx context.Context, review *models.Review) (primitive.ObjectID, error) {
	res, err := s.meals.UpdateOne(ctx, bson.M{"_id": review.MealID}, bson.M{"$inc": bson.M{"reviewCount": 1}})
	if err != nil {
		return primitive.NilObjectID, storageErr("Server error", err)
	}
	if res.MatchedCount == 0 {
		return primitive.NilObjectID, models.NewNotFound("Meal not found")
	}

	if review.CreatedAt.IsZero() {
		review.CreatedAt = time.Now().UTC()
	}
	ins, err := s.reviews.InsertOne(ctx, review)
	if err != nil {
		if _, cerr := s.meals.UpdateOne(ctx, bson.M{"_id": review.MealID}, bson.M{"$inc": bson.M{"reviewCount": -1}}); cerr != nil {
			s.reviewCountDrift(ctx, "create", review.MealID, cerr)
		}
		return primitive.NilObjectID, storageErr("Error saving review", err)
	}
	id, _ := ins.InsertedID.(primitive.ObjectID)
	review.ID = id
	return id, nil
}

// DeleteReview removes a review and decrements the parent meal's reviewCount.
func (s *Store) DeleteReview(ctx context.Context, id primitive.ObjectID) error {
	var review models.Review
	err := s.reviews.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&review)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.NewNotFound("Review not found")
	}
	if err != nil {
		return storageErr("Server error", err)
	}

	filter := bson.M{"_id": review.MealID, "reviewCount": bson.M{"$gt": 0}}
	if _, err := s.meals.UpdateOne(ctx, filter, bson.M{"$inc": bson.M{"reviewCount": -1}}); err != nil {
		// The review is already gone; RecountReviews repairs the counter.
		s.reviewCountDrift(ctx, "delete", review.MealID, err)
	}
	return nil
}

func (s *Store) reviewCountDrift(ctx context.Context, operation string, mealID primitive.ObjectID, err error) {
	utils.ReviewCountDrift.WithLabelValues(operation).Inc()
	s.logger.ErrorContext(ctx, "review count drift",
		slog.String("operation", operation),
		slog.String("meal_id", mealID.Hex()),
		slog.String("error", err.Error()),
	)
}

func (s *Store) FindReview(ctx context.Context, id primitive.ObjectID) (*models.Review, error) {
	var review models.Review
	if err := findOne(ctx, s.reviews, bson.M{"_id": id}, &review, "Review not found"); err != nil {
		return nil, err
	}
	return &review, nil
}

// ListMealReviews returns a meal's reviews, newest first.
func (s *Store) ListMealReviews(ctx context.Context, mealID primitive.ObjectID) ([]models.Review, error) {
	return findAll[models.Review](ctx, s.reviews, bson.M{"mealId": mealID}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
}

// ListReviews pages through all reviews joined with their meals.
func (s *Store) ListReviews(ctx context.Context, page models.Page) ([]models.ReviewWithMeal, int64, error) {
	return s.listReviewsWithMeals(ctx, bson.M{}, page)
}

// ListUserReviews pages through one user's reviews joined with their meals.
func (s *Store) ListUserReviews(ctx context.Context, email string, page models.Page) ([]models.ReviewWithMeal, int64, error) {
	return s.listReviewsWithMeals(ctx, bson.M{"userEmail": email}, page)
}

func (s *Store) listReviewsWithMeals(ctx context.Context, match bson.M, page models.Page) ([]models.ReviewWithMeal, int64, error) {
	total, err := countJoined(ctx, s.reviews, match)
	if err != nil {
		return nil, 0, err
	}

	pipeline := mongo.Pipeline{{{Key: "$match", Value: match}}}
	pipeline = append(pipeline, lookupMeal()...)
	pipeline = append(pipeline,
		bson.D{{Key: "$project", Value: bson.M{
			"_id":             1,
			"comment":         1,
			"createdAt":       1,
			"userEmail":       1,
			"userName":        1,
			"mealId":          "$mealDetails._id",
			"mealTitle":       "$mealDetails.title",
			"mealLikes":       "$mealDetails.likes",
			"mealReviewCount": "$mealDetails.reviewCount",
		}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}},
	)
	pipeline = append(pipeline, pageStages(page)...)

	out, err := aggregate[models.ReviewWithMeal](ctx, s.reviews, pipeline)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// UpdateReviewComment replaces a review's comment and reports whether anything changed.
func (s *Store) UpdateReviewComment(ctx context.Context, id primitive.ObjectID, comment string) (bool, error) {
	res, err := s.reviews.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"comment": comment}})
	if err != nil {
		return false, storageErr("Server error", err)
	}
	if res.MatchedCount == 0 {
		return false, models.NewNotFound("Review not found")
	}
	return res.ModifiedCount > 0, nil
}

type reviewTally struct {
	MealID primitive.ObjectID `bson:"_id"`
	Count  int                `bson:"count"`
}

type mealCount struct {
	ID          primitive.ObjectID `bson:"_id"`
	ReviewCount int                `bson:"reviewCount"`
}

// RecountReviews recomputes every meal's reviewCount from the reviews collection and
// returns how many meals had drifted.
func (s *Store) RecountReviews(ctx context.Context) (int, error) {
	tallies, err := aggregate[reviewTally](ctx, s.reviews, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$mealId", "count": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return 0, err
	}
	actual := make(map[primitive.ObjectID]int, len(tallies))
	for _, t := range tallies {
		actual[t.MealID] = t.Count
	}

	meals, err := findAll[mealCount](ctx, s.meals, bson.M{}, options.Find().SetProjection(bson.M{"reviewCount": 1}))
	if err != nil {
		return 0, err
	}

	fixed := 0
	for _, m := range meals {
		want := actual[m.ID]
		if m.ReviewCount == want {
			continue
		}
		if _, err := s.meals.UpdateOne(ctx, bson.M{"_id": m.ID}, bson.M{"$set": bson.M{"reviewCount": want}}); err != nil {
			return fixed, storageErr("Error correcting review count", err)
		}
		s.logger.WarnContext(ctx, "review count corrected",
			slog.String("meal_id", m.ID.Hex()),
			slog.Int("stored", m.ReviewCount),
			slog.Int("actual", want),
		)
		fixed++
	}
	return fixed, nil
}
