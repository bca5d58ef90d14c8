package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is a hostel resident or administrator, keyed by email
type User struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	Email       string             `bson:"email" json:"email"`
	DisplayName string             `bson:"displayName,omitempty" json:"displayName,omitempty"`
	PhotoURL    string             `bson:"photoURL,omitempty" json:"photoURL,omitempty"`
	Role        string             `bson:"role" json:"role"`   // "user" or "admin"
	Badge       string             `bson:"badge" json:"badge"` // Bronze, Silver, Gold, Platinum
	CreatedAt   time.Time          `bson:"createdAt,omitempty" json:"createdAt,omitempty"`
}

// Profile is the limited view returned by /my-profile
type Profile struct {
	Name  string `json:"name"`
	Image string `json:"image"`
	Email string `json:"email"`
	Badge string `json:"badge"`
}

// AdminProfile is returned by /admin/profile
type AdminProfile struct {
	Name            string `json:"name"`
	Image           string `json:"image"`
	Email           string `json:"email"`
	MealsAddedCount int64  `json:"mealsAddedCount"`
}

// UpsertUserRequest is sent by the client after signing in
type UpsertUserRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoURL"`
}

type BadgeUpdateRequest struct {
	Badge string `json:"badge"`
}
