package store

import (
	"context"
	"log/slog"
	"time"

	"hostel-meals/models"
	"hostel-meals/rules"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// RecordPayment stores a payment with tierApplied=false. The unapplied flag is the outbox
// entry: MarkPaymentApplied clears it once the badge is set, and ReconcilePayments replays
// anything left behind by a failure in between.
func (s *Store) RecordPayment(ctx context.Context, p *models.Payment) (primitive.ObjectID, error) {
	p.TierApplied = false
	if p.RecordedAt.IsZero() {
		p.RecordedAt = time.Now().UTC()
	}
	res, err := s.payments.InsertOne(ctx, p)
	if mongo.IsDuplicateKeyError(err) {
		return primitive.NilObjectID, models.NewConflict("Payment already recorded")
	}
	if err != nil {
		return primitive.NilObjectID, storageErr("Error saving payment", err)
	}
	id, _ := res.InsertedID.(primitive.ObjectID)
	p.ID = id
	return id, nil
}

func (s *Store) MarkPaymentApplied(ctx context.Context, id primitive.ObjectID) error {
	if _, err := s.payments.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"tierApplied": true}}); err != nil {
		return storageErr("Error updating payment", err)
	}
	return nil
}

// ListPayments returns a user's payment history, newest first.
func (s *Store) ListPayments(ctx context.Context, email string) ([]models.Payment, error) {
	return findAll[models.Payment](ctx, s.payments, bson.M{"userEmail": email}, options.Find().SetSort(bson.D{{Key: "purchasedAt", Value: -1}}))
}

// LatestPayment returns the most recent purchase by email.
func (s *Store) LatestPayment(ctx context.Context, email string) (*models.Payment, error) {
	var p models.Payment
	opts := options.FindOne().SetSort(bson.D{{Key: "purchasedAt", Value: -1}, {Key: "_id", Value: -1}})
	if err := findOne(ctx, s.payments, bson.M{"userEmail": email}, &p, "Payment not found", opts); err != nil {
		return nil, err
	}
	return &p, nil
}

// ReconcilePayments replays payments whose badge change never completed. Only a user's most
// recent payment decides their badge; older unapplied ones are marked superseded.
func (s *Store) ReconcilePayments(ctx context.Context, allowDowngrade bool) (applied, superseded int, err error) {
	pending, err := findAll[models.Payment](ctx, s.payments, bson.M{"tierApplied": false},
		options.Find().SetSort(bson.D{{Key: "purchasedAt", Value: 1}}))
	if err != nil {
		return 0, 0, err
	}

	for _, p := range pending {
		latest, err := s.LatestPayment(ctx, p.UserEmail)
		if err != nil {
			return applied, superseded, err
		}
		if latest.ID != p.ID {
			if err := s.MarkPaymentApplied(ctx, p.ID); err != nil {
				return applied, superseded, err
			}
			superseded++
			continue
		}

		tier, err := s.ApplyTier(ctx, p.UserEmail, rules.Tier(p.Badge), allowDowngrade)
		if models.IsKind(err, models.KindNotFound) {
			s.logger.WarnContext(ctx, "payment for unknown user left unapplied",
				slog.String("payment_id", p.ID.Hex()),
				slog.String("user_email", p.UserEmail),
			)
			continue
		}
		if err != nil {
			return applied, superseded, err
		}
		if err := s.MarkPaymentApplied(ctx, p.ID); err != nil {
			return applied, superseded, err
		}
		s.logger.InfoContext(ctx, "payment reconciled",
			slog.String("payment_id", p.ID.Hex()),
			slog.String("user_email", p.UserEmail),
			slog.String("badge", string(tier)),
		)
		applied++
	}
	return applied, superseded, nil
}
