package rules

import (
	"slices"

	"hostel-meals/models"
)

var (
	ErrAlreadyEngaged   = models.NewConflict("Already liked")
	ErrAlreadyRequested = models.NewConflict("You have already requested this meal.")
)

// Engagement is the like counter and actor set of a meal or upcoming meal
type Engagement struct {
	Likes   int
	LikedBy []string
}

// HasEngaged reports whether email already appears in the actor set.
func (e Engagement) HasEngaged(email string) bool {
	return slices.Contains(e.LikedBy, email)
}

// ApplyLike records one like by email. A repeat like returns ErrAlreadyEngaged and
// leaves the counter untouched. Persistent stores must apply the same rule as a
// single conditional update.
func ApplyLike(e *Engagement, email string) error {
	if email == "" {
		return models.NewInvalidInput("User email required")
	}
	if e.HasEngaged(email) {
		return ErrAlreadyEngaged
	}
	e.LikedBy = append(e.LikedBy, email)
	e.Likes++
	return nil
}
