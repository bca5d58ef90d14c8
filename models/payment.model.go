package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Payment is an immutable record of a completed package purchase.
// TierApplied flips to true once the purchaser's badge reflects the payment.
type Payment struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	UserEmail       string             `bson:"userEmail" json:"userEmail"`
	PackageName     string             `bson:"packageName" json:"packageName"`
	PaymentIntentID string             `bson:"paymentIntentId" json:"paymentIntentId"`
	Amount          float64            `bson:"amount" json:"amount"`
	Status          string             `bson:"status" json:"status"`
	PurchasedAt     time.Time          `bson:"purchasedAt" json:"purchasedAt"`
	Badge           string             `bson:"badge" json:"badge"`
	TierApplied     bool               `bson:"tierApplied" json:"tierApplied"`
	RecordedAt      time.Time          `bson:"recordedAt" json:"recordedAt"`
}

// SavePaymentRequest is the confirmation payload posted after the client confirms an intent
type SavePaymentRequest struct {
	UserEmail       string  `json:"userEmail"`
	PackageName     string  `json:"packageName"`
	PaymentIntentID string  `json:"paymentIntentId"`
	Amount          float64 `json:"amount"`
	Status          string  `json:"status"`
	PurchasedAt     string  `json:"purchasedAt"`
}

type PaymentIntentRequest struct {
	Amount      float64 `json:"amount"`
	PackageName string  `json:"packageName"`
	UserEmail   string  `json:"userEmail"`
}

// ReconcileReport summarizes a reconciliation pass
type ReconcileReport struct {
	PaymentsApplied    int `json:"paymentsApplied"`
	PaymentsSuperseded int `json:"paymentsSuperseded"`
	MealsRecounted     int `json:"mealsRecounted"`
}
