package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RequestPending   = "pending"
	RequestDelivered = "delivered"
)

// MealRequest links a resident to a meal they asked to be served
type MealRequest struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	MealID      primitive.ObjectID `bson:"mealId" json:"mealId"`
	UserEmail   string             `bson:"userEmail" json:"userEmail"`
	UserName    string             `bson:"userName" json:"userName"`
	Status      string             `bson:"status" json:"status"`
	RequestedAt time.Time          `bson:"requestedAt" json:"requestedAt"`
}

type CreateMealRequestBody struct {
	MealID    string `json:"mealId"`
	UserEmail string `json:"userEmail"`
	UserName  string `json:"userName"`
}

// RequestedMeal is a user's request joined with its meal
type RequestedMeal struct {
	ID          primitive.ObjectID `bson:"_id" json:"_id"`
	MealTitle   string             `bson:"mealTitle" json:"mealTitle"`
	Likes       int                `bson:"likes" json:"likes"`
	ReviewCount int                `bson:"reviewCount" json:"reviewCount"`
	Status      string             `bson:"status" json:"status"`
	RequestedAt time.Time          `bson:"requestedAt" json:"requestedAt"`
}

// ServeRequest is a row of the admin serve-meals listing
type ServeRequest struct {
	ID        primitive.ObjectID `bson:"_id" json:"_id"`
	UserName  string             `bson:"userName" json:"userName"`
	UserEmail string             `bson:"userEmail" json:"userEmail"`
	Status    string             `bson:"status" json:"status"`
	MealTitle string             `bson:"mealTitle" json:"mealTitle"`
}
