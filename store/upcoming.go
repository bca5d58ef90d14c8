package store

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"hostel-meals/models"
	"hostel-meals/rules"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (s *Store) InsertUpcomingMeal(ctx context.Context, meal *models.UpcomingMeal) (primitive.ObjectID, error) {
	if meal.LikedBy == nil {
		meal.LikedBy = []string{}
	}
	if meal.CreatedAt.IsZero() {
		meal.CreatedAt = time.Now().UTC()
	}
	res, err := s.upcoming.InsertOne(ctx, meal)
	if err != nil {
		return primitive.NilObjectID, storageErr("Error adding upcoming meal", err)
	}
	id, _ := res.InsertedID.(primitive.ObjectID)
	meal.ID = id
	return id, nil
}

// ListUpcomingMeals returns every upcoming meal, soonest publish date first.
func (s *Store) ListUpcomingMeals(ctx context.Context) ([]models.UpcomingMeal, error) {
	return findAll[models.UpcomingMeal](ctx, s.upcoming, bson.M{}, options.Find().SetSort(bson.D{{Key: "publishDate", Value: 1}}))
}

func (s *Store) FindUpcomingMeal(ctx context.Context, id primitive.ObjectID) (*models.UpcomingMeal, error) {
	var meal models.UpcomingMeal
	if err := findOne(ctx, s.upcoming, bson.M{"_id": id}, &meal, "Meal not found"); err != nil {
		return nil, err
	}
	return &meal, nil
}

// LikeUpcomingMeal applies the like-once rule to an upcoming meal. Tier gating happens in the caller.
func (s *Store) LikeUpcomingMeal(ctx context.Context, id primitive.ObjectID, email string) error {
	return likeOnce(ctx, s.upcoming, id, email, "Meal not found")
}

// PublishUpcomingMeal moves an upcoming meal with at least threshold likes into the meal set.
// The threshold check and the removal are one FindOneAndDelete, so a meal can only be
// published once. If the meal insert fails the upcoming document is put back.
func (s *Store) PublishUpcomingMeal(ctx context.Context, id primitive.ObjectID, addedBy string, threshold int) (primitive.ObjectID, error) {
	var upcoming models.UpcomingMeal
	err := s.upcoming.FindOneAndDelete(ctx, bson.M{"_id": id, "likes": bson.M{"$gte": threshold}}).Decode(&upcoming)
	if errors.Is(err, mongo.ErrNoDocuments) {
		current, ferr := s.FindUpcomingMeal(ctx, id)
		if ferr != nil {
			if models.IsKind(ferr, models.KindNotFound) {
				return primitive.NilObjectID, models.NewNotFound("Upcoming meal not found")
			}
			return primitive.NilObjectID, ferr
		}
		if perr := rules.CanPublish(current.Likes, threshold); perr != nil {
			return primitive.NilObjectID, perr
		}
		return primitive.NilObjectID, models.NewConflict("Upcoming meal changed while publishing, try again")
	}
	if err != nil {
		return primitive.NilObjectID, storageErr("Server error", err)
	}

	meal := upcoming.ToMeal(addedBy, time.Now().UTC())
	mealID, err := s.InsertMeal(ctx, &meal)
	if err != nil {
		if _, rerr := s.upcoming.InsertOne(ctx, upcoming); rerr != nil {
			s.logger.ErrorContext(ctx, "upcoming meal lost during publish",
				slog.String("upcoming_id", id.Hex()),
				slog.String("title", upcoming.Title),
				slog.String("error", rerr.Error()),
			)
		}
		return primitive.NilObjectID, err
	}
	return mealID, nil
}
