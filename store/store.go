// Package store is the MongoDB data layer. Every engagement rule that can race
// (likes, meal requests, publishing) is expressed here as a single conditional write.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"

	"hostel-meals/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	UsersCollection         = "users"
	MealsCollection         = "meals"
	UpcomingMealsCollection = "upcomingMeals"
	MealRequestsCollection  = "mealRequests"
	ReviewsCollection       = "reviews"
	PaymentsCollection      = "payments"
)

// Store holds the collections of the hostel database
type Store struct {
	users    *mongo.Collection
	meals    *mongo.Collection
	upcoming *mongo.Collection
	requests *mongo.Collection
	reviews  *mongo.Collection
	payments *mongo.Collection
	logger   *slog.Logger
}

// New creates a Store over db.
func New(db *mongo.Database, logger *slog.Logger) *Store {
	return &Store{
		users:    db.Collection(UsersCollection),
		meals:    db.Collection(MealsCollection),
		upcoming: db.Collection(UpcomingMealsCollection),
		requests: db.Collection(MealRequestsCollection),
		reviews:  db.Collection(ReviewsCollection),
		payments: db.Collection(PaymentsCollection),
		logger:   logger,
	}
}

// EnsureIndexes creates the indexes the uniqueness invariants rely on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []struct {
		coll  *mongo.Collection
		model mongo.IndexModel
	}{
		{s.users, mongo.IndexModel{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)}},
		{s.requests, mongo.IndexModel{
			Keys:    bson.D{{Key: "userEmail", Value: 1}, {Key: "mealId", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		{s.payments, mongo.IndexModel{Keys: bson.D{{Key: "paymentIntentId", Value: 1}}, Options: options.Index().SetUnique(true)}},
		{s.payments, mongo.IndexModel{Keys: bson.D{{Key: "tierApplied", Value: 1}, {Key: "purchasedAt", Value: 1}}}},
		{s.payments, mongo.IndexModel{Keys: bson.D{{Key: "userEmail", Value: 1}, {Key: "purchasedAt", Value: -1}}}},
		{s.reviews, mongo.IndexModel{Keys: bson.D{{Key: "mealId", Value: 1}, {Key: "createdAt", Value: -1}}}},
		{s.reviews, mongo.IndexModel{Keys: bson.D{{Key: "userEmail", Value: 1}}}},
	}
	for _, ix := range indexes {
		if _, err := ix.coll.Indexes().CreateOne(ctx, ix.model); err != nil {
			return fmt.Errorf("create index on %s: %w", ix.coll.Name(), err)
		}
	}
	return nil
}

func storageErr(message string, err error) error {
	return models.NewStorageError(message, err)
}

// findOne decodes a single document, mapping a miss to NotFound.
func findOne(ctx context.Context, coll *mongo.Collection, filter interface{}, out interface{}, notFound string, opts ...*options.FindOneOptions) error {
	err := coll.FindOne(ctx, filter, opts...).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.NewNotFound(notFound)
	}
	if err != nil {
		return storageErr("Server error", err)
	}
	return nil
}

// findPage runs a counted, paged find.
func findPage[T any](ctx context.Context, coll *mongo.Collection, filter interface{}, page models.Page, opts *options.FindOptions) ([]T, int64, error) {
	total, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, storageErr("Server error", err)
	}
	if opts == nil {
		opts = options.Find()
	}
	opts.SetSkip(page.Skip()).SetLimit(int64(page.Limit))

	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, storageErr("Server error", err)
	}
	out := []T{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, 0, storageErr("Server error", err)
	}
	return out, total, nil
}

func findAll[T any](ctx context.Context, coll *mongo.Collection, filter interface{}, opts ...*options.FindOptions) ([]T, error) {
	cursor, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, storageErr("Server error", err)
	}
	out := []T{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, storageErr("Server error", err)
	}
	return out, nil
}

func aggregate[T any](ctx context.Context, coll *mongo.Collection, pipeline mongo.Pipeline) ([]T, error) {
	cursor, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, storageErr("Server error", err)
	}
	out := []T{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, storageErr("Server error", err)
	}
	return out, nil
}

// containsInsensitive matches a user supplied search term literally.
func containsInsensitive(term string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(term), Options: "i"}
}

// lookupMeal joins a document's mealId with its meal and drops orphans.
func lookupMeal() []bson.D {
	return []bson.D{
		{{Key: "$lookup", Value: bson.M{
			"from":         MealsCollection,
			"localField":   "mealId",
			"foreignField": "_id",
			"as":           "mealDetails",
		}}},
		{{Key: "$unwind", Value: "$mealDetails"}},
	}
}

type joinedCount struct {
	Total int64 `bson:"total"`
}

// countJoined counts the documents matching match that survive lookupMeal, so paged
// totals agree with the rows the joined listing returns.
func countJoined(ctx context.Context, coll *mongo.Collection, match bson.M) (int64, error) {
	pipeline := mongo.Pipeline{{{Key: "$match", Value: match}}}
	pipeline = append(pipeline, lookupMeal()...)
	pipeline = append(pipeline, bson.D{{Key: "$count", Value: "total"}})
	rows, err := aggregate[joinedCount](ctx, coll, pipeline)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Total, nil
}

func pageStages(page models.Page) []bson.D {
	return []bson.D{
		{{Key: "$skip", Value: page.Skip()}},
		{{Key: "$limit", Value: int64(page.Limit)}},
	}
}
