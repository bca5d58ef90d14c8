package controllers

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"hostel-meals/models"
	"hostel-meals/rules"
	"hostel-meals/utils"

)

// PaymentOptions are the payment policy switches
type PaymentOptions struct {
	StrictPackageNames bool
	AllowDowngrade     bool
	VerifyIntents      bool
}

// PaymentController handles package purchases and payment history
type PaymentController struct {
	payments  PaymentStore
	users     UserLookup
	processor utils.PaymentProcessor
	mailer    utils.Mailer
	opts      PaymentOptions
	*Responder
}

func NewPaymentController(payments PaymentStore, users UserLookup, processor utils.PaymentProcessor, mailer utils.Mailer, opts PaymentOptions, rs *Responder) *PaymentController {
	return &PaymentController{
		payments:  payments,
		users:     users,
		processor: processor,
		mailer:    mailer,
		opts:      opts,
		Responder: rs,
	}
}

func processorErr(err error) error {
	if errors.Is(err, utils.ErrProcessorDisabled) {
		return models.NewUnavailable("Payments are not configured")
	}
	return models.NewUpstreamError("Stripe error", err)
}

// CreatePaymentIntent starts a package purchase with the payment processor
func (pc *PaymentController) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	var req models.PaymentIntentRequest
	if err := decode(r, &req); err != nil {
		pc.writeError(w, r, err)
		return
	}
	if req.Amount <= 0 || strings.TrimSpace(req.PackageName) == "" {
		pc.writeError(w, r, models.NewInvalidInput("Missing fields"))
		return
	}
	if _, err := rules.TierForPackage(req.PackageName, pc.opts.StrictPackageNames); err != nil {
		pc.writeError(w, r, err)
		return
	}

	ctx, cancel := pc.requestContext(r)
	defer cancel()
	who, err := caller(ctx, r, pc.users)
	if err != nil {
		pc.writeError(w, r, err)
		return
	}
	payer := who.Email
	if req.UserEmail != "" {
		if !rules.CanActOnBehalf(who, req.UserEmail) {
			pc.writeError(w, r, models.NewForbidden("Cannot pay for another user"))
			return
		}
		payer = normalizeEmail(req.UserEmail)
	}

	intent, err := pc.processor.CreateIntent(ctx, int64(math.Round(req.Amount)), map[string]string{
		"packageName": req.PackageName,
		"userEmail":   payer,
	})
	if err != nil {
		pc.writeError(w, r, processorErr(err))
		return
	}
	pc.writeJSON(w, http.StatusOK, map[string]string{"clientSecret": intent.ClientSecret})
}

// verifyIntent checks that the processor settled the intent for the claimed package.
func (pc *PaymentController) verifyIntent(ctx context.Context, p models.Payment) error {
	intent, err := pc.processor.GetIntent(ctx, p.PaymentIntentID)
	if err != nil {
		return processorErr(err)
	}
	if intent.Status != "succeeded" || !strings.EqualFold(intent.Metadata["packageName"], p.PackageName) {
		return models.NewInvalidInput("Payment could not be verified")
	}
	return nil
}

// SavePayment records a confirmed purchase and upgrades the payer's badge.
// The payment is stored unapplied first; a crash before the badge update is repaired by reconciliation.
func (pc *PaymentController) SavePayment(w http.ResponseWriter, r *http.Request) {
	var req models.SavePaymentRequest
	if err := decode(r, &req); err != nil {
		pc.writeError(w, r, err)
		return
	}
	purchasedAt, _ := models.ParseTime(req.PurchasedAt)
	payment := models.Payment{
		UserEmail:       normalizeEmail(req.UserEmail),
		PackageName:     strings.TrimSpace(req.PackageName),
		PaymentIntentID: strings.TrimSpace(req.PaymentIntentID),
		Amount:          req.Amount,
		Status:          req.Status,
		PurchasedAt:     purchasedAt,
	}
	tier, err := rules.ApplyPayment(payment, pc.opts.StrictPackageNames)
	if err != nil {
		pc.writeError(w, r, err)
		return
	}
	payment.Badge = string(tier)

	ctx, cancel := pc.requestContext(r)
	defer cancel()
	who, err := caller(ctx, r, pc.users)
	if err != nil {
		pc.writeError(w, r, err)
		return
	}
	if !rules.CanActOnBehalf(who, payment.UserEmail) {
		pc.writeError(w, r, models.NewForbidden("Cannot record a payment for another user"))
		return
	}
	// A payment without a payer record could never get its badge applied.
	if _, err := pc.users.FindUserByEmail(ctx, payment.UserEmail); err != nil {
		pc.writeError(w, r, err)
		return
	}
	if pc.opts.VerifyIntents {
		if err := pc.verifyIntent(ctx, payment); err != nil {
			pc.writeError(w, r, err)
			return
		}
	}

	id, err := pc.payments.RecordPayment(ctx, &payment)
	if err != nil {
		pc.writeError(w, r, err)
		return
	}
	badge, err := pc.payments.ApplyTier(ctx, payment.UserEmail, tier, pc.opts.AllowDowngrade)
	if err != nil {
		utils.PaymentTierGap.Inc()
		pc.logger.ErrorContext(ctx, "payment recorded without badge change",
			slog.String("payment_id", id.Hex()),
			slog.String("user_email", payment.UserEmail),
			slog.String("error", err.Error()),
		)
		pc.writeError(w, r, err)
		return
	}
	if err := pc.payments.MarkPaymentApplied(ctx, id); err != nil {
		// The badge is already set; reconciliation re-applies it idempotently.
		pc.logger.WarnContext(ctx, "payment not marked applied",
			slog.String("payment_id", id.Hex()),
			slog.String("error", err.Error()),
		)
	}

	go func(email, badge string, amount float64, intentID string) {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := utils.SendBadgeReceipt(ctx, pc.mailer, email, badge, amount, intentID); err != nil {
			pc.logger.Error("failed to send receipt", slog.String("to", email), slog.String("error", err.Error()))
		}
	}(payment.UserEmail, string(badge), payment.Amount, payment.PaymentIntentID)

	pc.writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "badge": badge})
}

// GetPayments returns a user's payment history, newest first. Owner or admin.
func (pc *PaymentController) GetPayments(w http.ResponseWriter, r *http.Request) {
	email := pathEmail(r)
	ctx, cancel := pc.requestContext(r)
	defer cancel()
	who, err := caller(ctx, r, pc.users)
	if err != nil {
		pc.writeError(w, r, err)
		return
	}
	if !rules.CanActOnBehalf(who, email) {
		pc.writeError(w, r, models.NewForbidden("Cannot view another user's payments"))
		return
	}
	payments, err := pc.payments.ListPayments(ctx, email)
	if err != nil {
		pc.writeError(w, r, err)
		return
	}
	if len(payments) == 0 {
		pc.writeJSON(w, http.StatusOK, map[string]interface{}{"message": "No payment history found", "payments": payments})
		return
	}
	pc.writeJSON(w, http.StatusOK, map[string]interface{}{"payments": payments})
}
