package store

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"hostel-meals/models"
	"hostel-meals/rules"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func updated(n, modified int) bson.D {
	return mtest.CreateSuccessResponse(bson.E{Key: "n", Value: n}, bson.E{Key: "nModified", Value: modified})
}

func count(ns string, n int) bson.D {
	if n == 0 {
		return mtest.CreateCursorResponse(0, ns, mtest.FirstBatch)
	}
	return mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{{Key: "n", Value: n}})
}

func found(ns string, docs ...bson.D) bson.D {
	return mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, docs...)
}

func modified(doc interface{}) bson.D {
	return mtest.CreateSuccessResponse(bson.E{Key: "value", Value: doc})
}

func TestLikeMeal(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()
	id := primitive.NewObjectID()

	mt.Run("first like", func(mt *mtest.T) {
		mt.AddMockResponses(updated(1, 1))
		s := New(mt.DB, testLogger())
		assert.NoError(mt, s.LikeMeal(ctx, id, "a@x.io"))
	})

	mt.Run("repeat like", func(mt *mtest.T) {
		mt.AddMockResponses(updated(0, 0), count("hostelDB.meals", 1))
		s := New(mt.DB, testLogger())
		err := s.LikeMeal(ctx, id, "a@x.io")
		assert.ErrorIs(mt, err, rules.ErrAlreadyEngaged)
	})

	mt.Run("missing meal", func(mt *mtest.T) {
		mt.AddMockResponses(updated(0, 0), count("hostelDB.meals", 0))
		s := New(mt.DB, testLogger())
		err := s.LikeMeal(ctx, id, "a@x.io")
		assert.True(mt, models.IsKind(err, models.KindNotFound))
	})
}

func TestCreateMealRequest(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("new request", func(mt *mtest.T) {
		newID := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 0},
			bson.E{Key: "upserted", Value: bson.A{bson.D{{Key: "index", Value: 0}, {Key: "_id", Value: newID}}}},
		))
		s := New(mt.DB, testLogger())
		req := &models.MealRequest{MealID: primitive.NewObjectID(), UserEmail: "s@x.io", UserName: "S"}
		id, err := s.CreateMealRequest(ctx, req)
		require.NoError(mt, err)
		assert.Equal(mt, newID, id)
		assert.Equal(mt, models.RequestPending, req.Status)
	})

	mt.Run("existing request", func(mt *mtest.T) {
		mt.AddMockResponses(updated(1, 0))
		s := New(mt.DB, testLogger())
		_, err := s.CreateMealRequest(ctx, &models.MealRequest{MealID: primitive.NewObjectID(), UserEmail: "s@x.io"})
		assert.ErrorIs(mt, err, rules.ErrAlreadyRequested)
	})

	mt.Run("racing insert", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "duplicate key"}))
		s := New(mt.DB, testLogger())
		_, err := s.CreateMealRequest(ctx, &models.MealRequest{MealID: primitive.NewObjectID(), UserEmail: "s@x.io"})
		assert.ErrorIs(mt, err, rules.ErrAlreadyRequested)
	})
}

func upcomingDoc(id primitive.ObjectID, likes int) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "title", Value: "Biryani"},
		{Key: "category", Value: "Dinner"},
		{Key: "price", Value: 4.5},
		{Key: "likes", Value: likes},
		{Key: "likedBy", Value: bson.A{"a@x.io"}},
	}
}

func TestPublishUpcomingMeal(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()
	id := primitive.NewObjectID()

	mt.Run("below threshold", func(mt *mtest.T) {
		mt.AddMockResponses(modified(nil), found("hostelDB.upcomingMeals", upcomingDoc(id, 9)))
		s := New(mt.DB, testLogger())
		_, err := s.PublishUpcomingMeal(ctx, id, "admin@x.io", 10)
		require.Error(mt, err)
		assert.ErrorIs(mt, err, rules.ErrBelowPublishThreshold)
		assert.Contains(mt, err.Error(), "Minimum 10 likes")
	})

	mt.Run("missing", func(mt *mtest.T) {
		mt.AddMockResponses(modified(nil), found("hostelDB.upcomingMeals"))
		s := New(mt.DB, testLogger())
		_, err := s.PublishUpcomingMeal(ctx, id, "admin@x.io", 10)
		assert.True(mt, models.IsKind(err, models.KindNotFound))
	})

	mt.Run("published", func(mt *mtest.T) {
		mt.AddMockResponses(modified(upcomingDoc(id, 10)), mtest.CreateSuccessResponse())
		s := New(mt.DB, testLogger())
		mealID, err := s.PublishUpcomingMeal(ctx, id, "admin@x.io", 10)
		require.NoError(mt, err)
		assert.False(mt, mealID.IsZero())
	})
}

func TestReviewCounts(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()
	mealID := primitive.NewObjectID()

	mt.Run("create on missing meal", func(mt *mtest.T) {
		mt.AddMockResponses(updated(0, 0))
		s := New(mt.DB, testLogger())
		_, err := s.CreateReview(ctx, &models.Review{MealID: mealID, UserEmail: "r@x.io", Comment: "good"})
		assert.True(mt, models.IsKind(err, models.KindNotFound))
	})

	mt.Run("create", func(mt *mtest.T) {
		mt.AddMockResponses(updated(1, 1), mtest.CreateSuccessResponse())
		s := New(mt.DB, testLogger())
		review := &models.Review{MealID: mealID, UserEmail: "r@x.io", Comment: "good"}
		id, err := s.CreateReview(ctx, review)
		require.NoError(mt, err)
		assert.Equal(mt, id, review.ID)
		assert.False(mt, review.CreatedAt.IsZero())
	})

	mt.Run("delete", func(mt *mtest.T) {
		doc := bson.D{{Key: "_id", Value: primitive.NewObjectID()}, {Key: "mealId", Value: mealID}, {Key: "comment", Value: "ok"}}
		mt.AddMockResponses(modified(doc), updated(1, 1))
		s := New(mt.DB, testLogger())
		assert.NoError(mt, s.DeleteReview(ctx, primitive.NewObjectID()))
	})

	mt.Run("delete missing", func(mt *mtest.T) {
		mt.AddMockResponses(modified(nil))
		s := New(mt.DB, testLogger())
		err := s.DeleteReview(ctx, primitive.NewObjectID())
		assert.True(mt, models.IsKind(err, models.KindNotFound))
	})
}

func TestRecordPaymentDuplicate(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("duplicate intent", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "duplicate key"}))
		s := New(mt.DB, testLogger())
		_, err := s.RecordPayment(context.Background(), &models.Payment{PaymentIntentID: "pi_1", UserEmail: "p@x.io"})
		assert.True(mt, models.IsKind(err, models.KindConflict))
	})
}

func TestApplyTier(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("upgrade", func(mt *mtest.T) {
		user := bson.D{{Key: "_id", Value: primitive.NewObjectID()}, {Key: "email", Value: "p@x.io"}, {Key: "badge", Value: "Gold"}}
		mt.AddMockResponses(modified(user))
		s := New(mt.DB, testLogger())
		tier, err := s.ApplyTier(ctx, "p@x.io", rules.Gold, false)
		require.NoError(mt, err)
		assert.Equal(mt, rules.Gold, tier)
	})

	mt.Run("no downgrade", func(mt *mtest.T) {
		user := bson.D{{Key: "_id", Value: primitive.NewObjectID()}, {Key: "email", Value: "p@x.io"}, {Key: "badge", Value: "Platinum"}}
		mt.AddMockResponses(modified(nil), found("hostelDB.users", user))
		s := New(mt.DB, testLogger())
		tier, err := s.ApplyTier(ctx, "p@x.io", rules.Silver, false)
		require.NoError(mt, err)
		assert.Equal(mt, rules.Platinum, tier)
	})
}

func TestPromoteToAdmin(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("already admin", func(mt *mtest.T) {
		mt.AddMockResponses(updated(1, 0))
		s := New(mt.DB, testLogger())
		changed, err := s.PromoteToAdmin(ctx, primitive.NewObjectID())
		require.NoError(mt, err)
		assert.False(mt, changed)
	})

	mt.Run("missing user", func(mt *mtest.T) {
		mt.AddMockResponses(updated(0, 0))
		s := New(mt.DB, testLogger())
		_, err := s.PromoteToAdmin(ctx, primitive.NewObjectID())
		assert.True(mt, models.IsKind(err, models.KindNotFound))
	})
}

func TestOverviewStats(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("counts and top meals", func(mt *mtest.T) {
		top := bson.D{{Key: "_id", Value: primitive.NewObjectID()}, {Key: "title", Value: "Khichuri"}, {Key: "likes", Value: 12}}
		mt.AddMockResponses(
			count("hostelDB.users", 3),
			count("hostelDB.meals", 2),
			count("hostelDB.mealRequests", 1),
			count("hostelDB.reviews", 0),
			found("hostelDB.meals", top),
		)
		s := New(mt.DB, testLogger())
		stats, err := s.OverviewStats(context.Background())
		require.NoError(mt, err)
		assert.EqualValues(mt, 3, stats.TotalUsers)
		assert.EqualValues(mt, 2, stats.TotalMeals)
		assert.EqualValues(mt, 1, stats.TotalRequests)
		assert.EqualValues(mt, 0, stats.TotalReviews)
		require.Len(mt, stats.MealLikes, 1)
		assert.Equal(mt, "Khichuri", stats.MealLikes[0].Title)
	})
}

func TestJoinedListingTotals(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()
	page := models.NewPage("1", "10", 10)

	mt.Run("total counts joined rows", func(mt *mtest.T) {
		row := bson.D{
			{Key: "_id", Value: primitive.NewObjectID()},
			{Key: "mealTitle", Value: "Khichuri"},
			{Key: "status", Value: models.RequestPending},
		}
		mt.AddMockResponses(
			found("hostelDB.mealRequests", bson.D{{Key: "total", Value: 1}}),
			found("hostelDB.mealRequests", row),
		)
		s := New(mt.DB, testLogger())
		rows, total, err := s.ListRequestsForUser(ctx, "s@x.io", page)
		require.NoError(mt, err)
		assert.EqualValues(mt, 1, total)
		require.Len(mt, rows, 1)
		assert.Equal(mt, "Khichuri", rows[0].MealTitle)
		assert.EqualValues(mt, 1, page.TotalPages(total))
	})

	mt.Run("only orphaned reviews", func(mt *mtest.T) {
		mt.AddMockResponses(found("hostelDB.reviews"), found("hostelDB.reviews"))
		s := New(mt.DB, testLogger())
		rows, total, err := s.ListUserReviews(ctx, "s@x.io", page)
		require.NoError(mt, err)
		assert.Zero(mt, total)
		assert.Empty(mt, rows)
	})
}
