// Package rules holds the access and engagement rules of the hostel meal service.
// Nothing here performs I/O; the store and controllers apply these decisions.
package rules

import (
	"strings"

	"hostel-meals/models"
)

// Tier is a membership badge
type Tier string

const (
	Bronze   Tier = "Bronze"
	Silver   Tier = "Silver"
	Gold     Tier = "Gold"
	Platinum Tier = "Platinum"
)

// Tiers lists every badge from lowest to highest.
var Tiers = []Tier{Bronze, Silver, Gold, Platinum}

var ErrTierForbidden = models.NewForbidden("Only Silver, Gold, or Platinum users can perform this action.")

// ParseTier matches a badge name case-insensitively.
func ParseTier(s string) (Tier, bool) {
	for _, t := range Tiers {
		if strings.EqualFold(strings.TrimSpace(s), string(t)) {
			return t, true
		}
	}
	return "", false
}

// TierOrDefault reads a stored badge. Missing or unrecognised badges count as Bronze.
func TierOrDefault(s string) Tier {
	if t, ok := ParseTier(s); ok {
		return t
	}
	return Bronze
}

// Rank orders tiers Bronze < Silver < Gold < Platinum. Unknown tiers rank below Bronze.
func (t Tier) Rank() int {
	for i, known := range Tiers {
		if t == known {
			return i
		}
	}
	return -1
}

// Above returns the tiers ranked strictly higher than t.
func (t Tier) Above() []Tier {
	var out []Tier
	for _, known := range Tiers {
		if known.Rank() > t.Rank() {
			out = append(out, known)
		}
	}
	return out
}

func premium(t Tier) bool {
	return t == Silver || t == Gold || t == Platinum
}

// CanRequestMeal reports whether a badge may request curated meals. Bronze is the free tier.
func CanRequestMeal(t Tier) bool {
	return premium(t)
}

// CanLikeUpcoming reports whether a badge may like upcoming meals.
func CanLikeUpcoming(t Tier) bool {
	return premium(t)
}

// CheckMealRequest applies the tier gate for a requesting user.
func CheckMealRequest(u *models.User) error {
	if u == nil {
		return models.NewNotFound("User not found")
	}
	if !CanRequestMeal(TierOrDefault(u.Badge)) {
		return ErrTierForbidden
	}
	return nil
}

// CheckUpcomingLike applies the tier gate for liking an upcoming meal. A missing user is forbidden.
func CheckUpcomingLike(u *models.User) error {
	if u == nil || !CanLikeUpcoming(TierOrDefault(u.Badge)) {
		return ErrTierForbidden
	}
	return nil
}
