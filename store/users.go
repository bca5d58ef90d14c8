package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"hostel-meals/models"
	"hostel-meals/rules"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UpsertUser creates the user on first sign in with the Bronze badge and user role,
// and refreshes the display fields on later sign ins.
func (s *Store) UpsertUser(ctx context.Context, email, displayName, photoURL string) (*models.User, error) {
	update := bson.M{
		"$setOnInsert": bson.M{
			"badge":     string(rules.Bronze),
			"role":      models.RoleUser,
			"createdAt": time.Now().UTC(),
		},
	}
	set := bson.M{}
	if displayName != "" {
		set["displayName"] = displayName
	}
	if photoURL != "" {
		set["photoURL"] = photoURL
	}
	if len(set) > 0 {
		update["$set"] = set
	}

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var user models.User
	if err := s.users.FindOneAndUpdate(ctx, bson.M{"email": email}, update, opts).Decode(&user); err != nil {
		return nil, storageErr("Error saving user", err)
	}
	return &user, nil
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := findOne(ctx, s.users, bson.M{"email": email}, &user, "User not found"); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Store) FindUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	if err := findOne(ctx, s.users, bson.M{"_id": id}, &user, "User not found"); err != nil {
		return nil, err
	}
	return &user, nil
}

// ListUsers pages through users matching search on display name or email.
func (s *Store) ListUsers(ctx context.Context, search string, page models.Page) ([]models.User, int64, error) {
	filter := bson.M{}
	if search = strings.TrimSpace(search); search != "" {
		re := containsInsensitive(search)
		filter["$or"] = bson.A{bson.M{"displayName": re}, bson.M{"email": re}}
	}
	return findPage[models.User](ctx, s.users, filter, page, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
}

func (s *Store) SetBadge(ctx context.Context, email string, tier rules.Tier) error {
	res, err := s.users.UpdateOne(ctx, bson.M{"email": email}, bson.M{"$set": bson.M{"badge": string(tier)}})
	if err != nil {
		return storageErr("Server error", err)
	}
	if res.MatchedCount == 0 {
		return models.NewNotFound("User not found")
	}
	return nil
}

// PromoteToAdmin grants the admin role. It reports false when the user already was an admin.
func (s *Store) PromoteToAdmin(ctx context.Context, id primitive.ObjectID) (bool, error) {
	res, err := s.users.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"role": models.RoleAdmin}})
	if err != nil {
		return false, storageErr("Server error", err)
	}
	if res.MatchedCount == 0 {
		return false, models.NewNotFound("User not found")
	}
	return res.ModifiedCount > 0, nil
}

// ApplyTier sets the badge bought by a payment and returns the badge the user ends up with.
// Without downgrades the update only matches users whose badge is not above tier, so the
// rank comparison and the write are one operation.
func (s *Store) ApplyTier(ctx context.Context, email string, tier rules.Tier, allowDowngrade bool) (rules.Tier, error) {
	filter := bson.M{"email": email}
	if !allowDowngrade {
		if tier.Rank() < 0 {
			user, err := s.FindUserByEmail(ctx, email)
			if err != nil {
				return "", err
			}
			return rules.TierOrDefault(user.Badge), nil
		}
		if above := tier.Above(); len(above) > 0 {
			names := bson.A{}
			for _, t := range above {
				names = append(names, string(t))
			}
			filter["badge"] = bson.M{"$nin": names}
		}
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var user models.User
	err := s.users.FindOneAndUpdate(ctx, filter, bson.M{"$set": bson.M{"badge": string(tier)}}, opts).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		current, ferr := s.FindUserByEmail(ctx, email)
		if ferr != nil {
			return "", ferr
		}
		return rules.TierOrDefault(current.Badge), nil
	}
	if err != nil {
		return "", storageErr("Error updating badge", err)
	}
	return rules.Tier(user.Badge), nil
}

// SeedAdmins makes sure every configured email exists with the admin role.
func (s *Store) SeedAdmins(ctx context.Context, emails []string) error {
	for _, email := range emails {
		update := bson.M{
			"$set":         bson.M{"role": models.RoleAdmin},
			"$setOnInsert": bson.M{"badge": string(rules.Bronze), "createdAt": time.Now().UTC()},
		}
		if _, err := s.users.UpdateOne(ctx, bson.M{"email": email}, update, options.Update().SetUpsert(true)); err != nil {
			return storageErr("Error seeding admin "+email, err)
		}
	}
	return nil
}

// AdminProfile returns an admin's profile with the number of meals they added.
func (s *Store) AdminProfile(ctx context.Context, email string) (*models.AdminProfile, error) {
	var admin models.User
	if err := findOne(ctx, s.users, bson.M{"email": email, "role": models.RoleAdmin}, &admin, "Admin user not found"); err != nil {
		return nil, err
	}
	count, err := s.CountMealsByAuthor(ctx, email)
	if err != nil {
		return nil, err
	}
	return &models.AdminProfile{
		Name:            admin.DisplayName,
		Image:           admin.PhotoURL,
		Email:           admin.Email,
		MealsAddedCount: count,
	}, nil
}
