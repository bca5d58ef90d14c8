package models

import (
	"encoding/json"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Ingredients accepts either a JSON array or a comma separated string
type Ingredients []string

func (in *Ingredients) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*in = list
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	out := Ingredients{}
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	*in = out
	return nil
}

// Meal is a curated meal served by the hostel
type Meal struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	Title           string             `bson:"title" json:"title"`
	Category        string             `bson:"category" json:"category"`
	Image           string             `bson:"image" json:"image"`
	Ingredients     Ingredients        `bson:"ingredients" json:"ingredients"`
	Description     string             `bson:"description" json:"description"`
	Price           float64            `bson:"price" json:"price"`
	PostTime        time.Time          `bson:"postTime" json:"postTime"`
	DistributorName string             `bson:"distributorName" json:"distributorName"`
	AddedByEmail    string             `bson:"addedByEmail" json:"addedByEmail"`
	Likes           int                `bson:"likes" json:"likes"`
	ReviewCount     int                `bson:"reviewCount" json:"reviewCount"`
	Rating          float64            `bson:"rating" json:"rating"`
	LikedBy         []string           `bson:"likedBy" json:"likedBy"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
}

// UpcomingMeal is a candidate meal collecting likes before it is published
type UpcomingMeal struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	Title           string             `bson:"title" json:"title"`
	Category        string             `bson:"category" json:"category"`
	Image           string             `bson:"image" json:"image"`
	Ingredients     Ingredients        `bson:"ingredients" json:"ingredients"`
	Description     string             `bson:"description" json:"description"`
	Price           float64            `bson:"price" json:"price"`
	PublishDate     time.Time          `bson:"publishDate" json:"publishDate"`
	DistributorName string             `bson:"distributorName" json:"distributorName"`
	AddedByEmail    string             `bson:"addedByEmail,omitempty" json:"addedByEmail,omitempty"`
	Likes           int                `bson:"likes" json:"likes"`
	LikedBy         []string           `bson:"likedBy" json:"likedBy"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
}

// ToMeal converts a published upcoming meal into a fresh meal with zeroed engagement.
func (u UpcomingMeal) ToMeal(addedBy string, now time.Time) Meal {
	return Meal{
		Title:           u.Title,
		Category:        u.Category,
		Image:           u.Image,
		Ingredients:     u.Ingredients,
		Description:     u.Description,
		Price:           u.Price,
		PostTime:        now,
		DistributorName: u.DistributorName,
		AddedByEmail:    addedBy,
		LikedBy:         []string{},
		CreatedAt:       now,
	}
}

// MealInput is the body of meal create/update and upcoming meal create requests
type MealInput struct {
	Title           string      `json:"title"`
	Category        string      `json:"category"`
	Image           string      `json:"image"`
	Ingredients     Ingredients `json:"ingredients"`
	Description     string      `json:"description"`
	Price           json.Number `json:"price"`
	PostTime        string      `json:"postTime"`
	PublishDate     string      `json:"publishDate"`
	DistributorName string      `json:"distributorName"`
}

// MealFields is the validated, typed form of MealInput
type MealFields struct {
	Title           string
	Category        string
	Image           string
	Ingredients     Ingredients
	Description     string
	Price           float64
	PostTime        time.Time
	DistributorName string
}

// Validate checks the fields shared by meals and upcoming meals. The named
// date field ("postTime" or "publishDate") must also be present and parseable.
func (in MealInput) Validate(dateField string) (MealFields, time.Time, error) {
	var f MealFields
	date := in.PostTime
	if dateField == "publishDate" {
		date = in.PublishDate
	}
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Category) == "" || in.Image == "" ||
		len(in.Ingredients) == 0 || strings.TrimSpace(in.Description) == "" || in.Price == "" ||
		date == "" || strings.TrimSpace(in.DistributorName) == "" {
		return f, time.Time{}, NewInvalidInput("Missing required fields")
	}
	price, err := in.Price.Float64()
	if err != nil || price < 0 {
		return f, time.Time{}, NewInvalidInput("Price must be a non-negative number")
	}
	when, err := ParseTime(date)
	if err != nil {
		return f, time.Time{}, NewInvalidInput("Invalid " + dateField)
	}
	f = MealFields{
		Title:           strings.TrimSpace(in.Title),
		Category:        strings.TrimSpace(in.Category),
		Image:           in.Image,
		Ingredients:     in.Ingredients,
		Description:     strings.TrimSpace(in.Description),
		Price:           price,
		PostTime:        when,
		DistributorName: strings.TrimSpace(in.DistributorName),
	}
	return f, when, nil
}

// MealFilter narrows the public meal listing
type MealFilter struct {
	Search      string
	Category    string
	MinPrice    *float64
	MaxPrice    *float64
	SortByPrice string // "asc", "desc" or empty
}

// MealSummary is the projection used by the ranked admin listing
type MealSummary struct {
	ID              primitive.ObjectID `bson:"_id" json:"_id"`
	Title           string             `bson:"title" json:"title"`
	Likes           int                `bson:"likes" json:"likes"`
	ReviewCount     int                `bson:"reviewCount" json:"reviewCount"`
	Rating          float64            `bson:"rating" json:"rating"`
	DistributorName string             `bson:"distributorName" json:"distributorName"`
}

type PublishRequest struct {
	MealID string `json:"mealId"`
}

// OverviewStats backs the admin dashboard
type OverviewStats struct {
	TotalUsers    int64         `json:"totalUsers"`
	TotalMeals    int64         `json:"totalMeals"`
	TotalRequests int64         `json:"totalRequests"`
	TotalReviews  int64         `json:"totalReviews"`
	MealLikes     []MealSummary `json:"mealLikes"`
}

var timeLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04", "2006-01-02 15:04:05", "2006-01-02"}

// ParseTime accepts RFC 3339 timestamps and the plain date forms sent by browser inputs.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var err error
	for _, layout := range timeLayouts {
		var t time.Time
		if t, err = time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, err
}
