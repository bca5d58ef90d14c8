package store

import (
	"context"

	"hostel-meals/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// OverviewStats counts the main collections and lists the five most liked meals.
func (s *Store) OverviewStats(ctx context.Context) (*models.OverviewStats, error) {
	var stats models.OverviewStats
	counts := []struct {
		coll *mongo.Collection
		dst  *int64
	}{
		{s.users, &stats.TotalUsers},
		{s.meals, &stats.TotalMeals},
		{s.requests, &stats.TotalRequests},
		{s.reviews, &stats.TotalReviews},
	}
	for _, c := range counts {
		n, err := c.coll.CountDocuments(ctx, bson.M{})
		if err != nil {
			return nil, storageErr("Server error", err)
		}
		*c.dst = n
	}

	top, err := findAll[models.MealSummary](ctx, s.meals, bson.M{}, options.Find().
		SetSort(bson.D{{Key: "likes", Value: -1}}).
		SetLimit(5).
		SetProjection(bson.M{"title": 1, "likes": 1}))
	if err != nil {
		return nil, err
	}
	stats.MealLikes = top
	return &stats, nil
}
