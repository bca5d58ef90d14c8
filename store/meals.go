package store

import (
	"context"
	"strings"
	"time"

	"hostel-meals/models"
	"hostel-meals/rules"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// RankedSortFields are the fields the ranked meal listing may sort by.
var RankedSortFields = []string{"likes", "reviewCount", "rating"}

func (s *Store) InsertMeal(ctx context.Context, meal *models.Meal) (primitive.ObjectID, error) {
	if meal.LikedBy == nil {
		meal.LikedBy = []string{}
	}
	if meal.CreatedAt.IsZero() {
		meal.CreatedAt = time.Now().UTC()
	}
	res, err := s.meals.InsertOne(ctx, meal)
	if err != nil {
		return primitive.NilObjectID, storageErr("Error adding meal", err)
	}
	id, _ := res.InsertedID.(primitive.ObjectID)
	meal.ID = id
	return id, nil
}

func (s *Store) FindMeal(ctx context.Context, id primitive.ObjectID) (*models.Meal, error) {
	var meal models.Meal
	if err := findOne(ctx, s.meals, bson.M{"_id": id}, &meal, "Meal not found"); err != nil {
		return nil, err
	}
	return &meal, nil
}

// ListMeals backs the public meal browser: free text search, category, price range and price sort.
func (s *Store) ListMeals(ctx context.Context, f models.MealFilter, page models.Page) ([]models.Meal, int64, error) {
	filter := bson.M{}
	if search := strings.TrimSpace(f.Search); search != "" {
		re := containsInsensitive(search)
		filter["$or"] = bson.A{
			bson.M{"title": re},
			bson.M{"description": re},
			bson.M{"category": re},
		}
	}
	if f.Category != "" && f.Category != "All" {
		filter["category"] = f.Category
	}
	if f.MinPrice != nil || f.MaxPrice != nil {
		price := bson.M{}
		if f.MinPrice != nil {
			price["$gte"] = *f.MinPrice
		}
		if f.MaxPrice != nil {
			price["$lte"] = *f.MaxPrice
		}
		filter["price"] = price
	}

	opts := options.Find()
	switch f.SortByPrice {
	case "asc":
		opts.SetSort(bson.D{{Key: "price", Value: 1}})
	case "desc":
		opts.SetSort(bson.D{{Key: "price", Value: -1}})
	}
	return findPage[models.Meal](ctx, s.meals, filter, page, opts)
}

// ListMealsRanked backs the admin meal table sorted by an engagement field.
func (s *Store) ListMealsRanked(ctx context.Context, sortBy string, ascending bool, page models.Page) ([]models.MealSummary, int64, error) {
	order := -1
	if ascending {
		order = 1
	}
	opts := options.Find().
		SetSort(bson.D{{Key: sortBy, Value: order}}).
		SetProjection(bson.M{"title": 1, "likes": 1, "reviewCount": 1, "rating": 1, "distributorName": 1})
	return findPage[models.MealSummary](ctx, s.meals, bson.M{}, page, opts)
}

func (s *Store) UpdateMeal(ctx context.Context, id primitive.ObjectID, f models.MealFields) error {
	update := bson.M{"$set": bson.M{
		"title":           f.Title,
		"category":        f.Category,
		"image":           f.Image,
		"ingredients":     f.Ingredients,
		"description":     f.Description,
		"price":           f.Price,
		"postTime":        f.PostTime,
		"distributorName": f.DistributorName,
	}}
	res, err := s.meals.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return storageErr("Error updating meal", err)
	}
	if res.MatchedCount == 0 {
		return models.NewNotFound("Meal not found")
	}
	return nil
}

func (s *Store) DeleteMeal(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.meals.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return storageErr("Error deleting meal", err)
	}
	if res.DeletedCount == 0 {
		return models.NewNotFound("Meal not found")
	}
	return nil
}

// LikeMeal adds email to the meal's likedBy set and bumps its like counter, at most once per email.
func (s *Store) LikeMeal(ctx context.Context, id primitive.ObjectID, email string) error {
	return likeOnce(ctx, s.meals, id, email, "Meal not found")
}

func (s *Store) CountMealsByAuthor(ctx context.Context, email string) (int64, error) {
	n, err := s.meals.CountDocuments(ctx, bson.M{"addedByEmail": email})
	if err != nil {
		return 0, storageErr("Server error", err)
	}
	return n, nil
}

// likeOnce is the persistent form of rules.ApplyLike. The "not yet liked" check is part of
// the update filter, so concurrent likes by the same email can match at most once.
func likeOnce(ctx context.Context, coll *mongo.Collection, id primitive.ObjectID, email, notFound string) error {
	filter := bson.M{"_id": id, "likedBy": bson.M{"$ne": email}}
	update := bson.M{
		"$inc":      bson.M{"likes": 1},
		"$addToSet": bson.M{"likedBy": email},
	}
	res, err := coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return storageErr("Server error", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	n, err := coll.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return storageErr("Server error", err)
	}
	if n == 0 {
		return models.NewNotFound(notFound)
	}
	return rules.ErrAlreadyEngaged
}
