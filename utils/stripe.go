package utils

import (
	"context"
	"errors"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
)

// Intent is the subset of a processor payment intent the service relies on
type Intent struct {
	ID           string
	ClientSecret string
	Status       string
	Amount       int64
	Metadata     map[string]string
}

// PaymentProcessor creates and looks up payment intents
type PaymentProcessor interface {
	CreateIntent(ctx context.Context, amount int64, metadata map[string]string) (*Intent, error)
	GetIntent(ctx context.Context, id string) (*Intent, error)
}

var ErrProcessorDisabled = errors.New("payment processor not configured")

// StripeProcessor talks to Stripe's PaymentIntents API
type StripeProcessor struct {
	client   *paymentintent.Client
	currency string
}

// NewStripeProcessor returns nil when no secret key is configured.
func NewStripeProcessor(secretKey, currency string) *StripeProcessor {
	if secretKey == "" {
		return nil
	}
	return &StripeProcessor{
		client:   &paymentintent.Client{B: stripe.GetBackend(stripe.APIBackend), Key: secretKey},
		currency: currency,
	}
}

func (s *StripeProcessor) CreateIntent(ctx context.Context, amount int64, metadata map[string]string) (*Intent, error) {
	if s == nil {
		return nil, ErrProcessorDisabled
	}
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(s.currency),
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}
	pi, err := s.client.New(params)
	if err != nil {
		return nil, err
	}
	return toIntent(pi), nil
}

func (s *StripeProcessor) GetIntent(ctx context.Context, id string) (*Intent, error) {
	if s == nil {
		return nil, ErrProcessorDisabled
	}
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := s.client.Get(id, params)
	if err != nil {
		return nil, err
	}
	return toIntent(pi), nil
}

func toIntent(pi *stripe.PaymentIntent) *Intent {
	return &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
		Amount:       pi.Amount,
		Metadata:     pi.Metadata,
	}
}
