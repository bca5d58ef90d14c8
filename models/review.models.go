package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Review is a resident's comment on a meal
type Review struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	MealID    primitive.ObjectID `bson:"mealId" json:"mealId"`
	UserEmail string             `bson:"userEmail" json:"userEmail"`
	UserName  string             `bson:"userName" json:"userName"`
	Comment   string             `bson:"comment" json:"comment"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

type CreateReviewBody struct {
	MealID    string `json:"mealId"`
	UserEmail string `json:"userEmail"`
	UserName  string `json:"userName"`
	Comment   string `json:"comment"`
}

type UpdateReviewBody struct {
	Comment string `json:"comment"`
}

// ReviewWithMeal is a review joined with its meal for the admin listing
type ReviewWithMeal struct {
	ID              primitive.ObjectID `bson:"_id" json:"_id"`
	Comment         string             `bson:"comment" json:"comment"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UserEmail       string             `bson:"userEmail,omitempty" json:"userEmail,omitempty"`
	UserName        string             `bson:"userName,omitempty" json:"userName,omitempty"`
	MealID          primitive.ObjectID `bson:"mealId" json:"mealId"`
	MealTitle       string             `bson:"mealTitle" json:"mealTitle"`
	MealLikes       int                `bson:"mealLikes" json:"mealLikes"`
	MealReviewCount int                `bson:"mealReviewCount" json:"mealReviewCount"`
}
