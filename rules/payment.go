package rules

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"hostel-meals/models"
)

var (
	ErrInvalidPayment = models.NewInvalidInput("Missing payment info")
	ErrUnknownPackage = models.NewInvalidInput("Unknown package name")
)

// ValidatePayment requires payer, package, intent id, a positive amount, status and purchase time.
func ValidatePayment(p models.Payment) error {
	if strings.TrimSpace(p.UserEmail) == "" || strings.TrimSpace(p.PackageName) == "" ||
		strings.TrimSpace(p.PaymentIntentID) == "" || p.Amount <= 0 ||
		strings.TrimSpace(p.Status) == "" || p.PurchasedAt.IsZero() {
		return ErrInvalidPayment
	}
	return nil
}

// TierForPackage derives the badge granted by a package by capitalizing its name.
// In strict mode only the four known tiers are accepted.
func TierForPackage(name string, strict bool) (Tier, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrInvalidPayment
	}
	if t, ok := ParseTier(name); ok {
		return t, nil
	}
	if strict {
		return "", ErrUnknownPackage
	}
	r, size := utf8.DecodeRuneInString(name)
	return Tier(string(unicode.ToUpper(r)) + name[size:]), nil
}

// ApplyPayment validates a confirmed payment and returns the badge it grants.
func ApplyPayment(p models.Payment, strict bool) (Tier, error) {
	if err := ValidatePayment(p); err != nil {
		return "", err
	}
	return TierForPackage(p.PackageName, strict)
}

// NextTier is the badge a user ends up with after purchasing a package.
// Without downgrades a cheaper purchase keeps the current badge.
func NextTier(current, purchased Tier, allowDowngrade bool) Tier {
	if allowDowngrade || purchased.Rank() >= current.Rank() {
		return purchased
	}
	return current
}
