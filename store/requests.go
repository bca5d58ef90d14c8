package store

import (
	"context"
	"strings"

	"hostel-meals/models"
	"hostel-meals/rules"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CreateMealRequest inserts a pending request unless the user already requested the meal.
// The upsert keyed on (userEmail, mealId) is the dedup check; the unique index catches
// two upserts racing to insert.
func (s *Store) CreateMealRequest(ctx context.Context, req *models.MealRequest) (primitive.ObjectID, error) {
	filter := bson.M{"userEmail": req.UserEmail, "mealId": req.MealID}
	update := bson.M{"$setOnInsert": bson.M{
		"userName":    req.UserName,
		"status":      models.RequestPending,
		"requestedAt": req.RequestedAt,
	}}
	res, err := s.requests.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		return primitive.NilObjectID, rules.ErrAlreadyRequested
	}
	if err != nil {
		return primitive.NilObjectID, storageErr("Error creating meal request", err)
	}
	id, ok := res.UpsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, rules.ErrAlreadyRequested
	}
	req.ID = id
	req.Status = models.RequestPending
	return id, nil
}

func (s *Store) FindMealRequest(ctx context.Context, id primitive.ObjectID) (*models.MealRequest, error) {
	var req models.MealRequest
	if err := findOne(ctx, s.requests, bson.M{"_id": id}, &req, "Meal request not found"); err != nil {
		return nil, err
	}
	return &req, nil
}

func (s *Store) DeleteMealRequest(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.requests.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return storageErr("Error deleting meal request", err)
	}
	if res.DeletedCount == 0 {
		return models.NewNotFound("Meal request not found")
	}
	return nil
}

// ServeMealRequest marks a request delivered.
func (s *Store) ServeMealRequest(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.requests.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"status": models.RequestDelivered}})
	if err != nil {
		return storageErr("Error updating meal request status", err)
	}
	if res.MatchedCount == 0 {
		return models.NewNotFound("Meal request not found")
	}
	return nil
}

// ListRequestsForUser returns a user's requests joined with meal details, newest first.
func (s *Store) ListRequestsForUser(ctx context.Context, email string, page models.Page) ([]models.RequestedMeal, int64, error) {
	match := bson.M{"userEmail": email}
	total, err := countJoined(ctx, s.requests, match)
	if err != nil {
		return nil, 0, err
	}

	pipeline := mongo.Pipeline{{{Key: "$match", Value: match}}}
	pipeline = append(pipeline, lookupMeal()...)
	pipeline = append(pipeline,
		bson.D{{Key: "$project", Value: bson.M{
			"_id":         1,
			"mealTitle":   "$mealDetails.title",
			"likes":       "$mealDetails.likes",
			"reviewCount": "$mealDetails.reviewCount",
			"status":      1,
			"requestedAt": 1,
		}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "requestedAt", Value: -1}}}},
	)
	pipeline = append(pipeline, pageStages(page)...)

	out, err := aggregate[models.RequestedMeal](ctx, s.requests, pipeline)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// ListServeRequests backs the admin serve table, searching requester name or email.
func (s *Store) ListServeRequests(ctx context.Context, search string, page models.Page) ([]models.ServeRequest, int64, error) {
	match := bson.M{}
	if search = strings.TrimSpace(search); search != "" {
		re := containsInsensitive(search)
		match["$or"] = bson.A{bson.M{"userName": re}, bson.M{"userEmail": re}}
	}
	total, err := countJoined(ctx, s.requests, match)
	if err != nil {
		return nil, 0, err
	}

	pipeline := mongo.Pipeline{{{Key: "$match", Value: match}}}
	pipeline = append(pipeline, lookupMeal()...)
	pipeline = append(pipeline,
		bson.D{{Key: "$project", Value: bson.M{
			"userName":  1,
			"userEmail": 1,
			"status":    1,
			"mealTitle": "$mealDetails.title",
		}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "_id", Value: -1}}}},
	)
	pipeline = append(pipeline, pageStages(page)...)

	out, err := aggregate[models.ServeRequest](ctx, s.requests, pipeline)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
