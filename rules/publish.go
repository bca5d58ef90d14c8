package rules

import (
	"fmt"

	"hostel-meals/models"
)

// DefaultPublishThreshold is the number of likes an upcoming meal needs before it is published.
const DefaultPublishThreshold = 10

var ErrBelowPublishThreshold = models.NewInvalidInput("Cannot publish. Not enough likes.")

// CanPublish checks the popularity threshold of an upcoming meal.
func CanPublish(likes, threshold int) error {
	if likes < threshold {
		return &models.AppError{
			Kind:    models.KindInvalidInput,
			Message: fmt.Sprintf("Cannot publish. Minimum %d likes required.", threshold),
			Err:     ErrBelowPublishThreshold,
		}
	}
	return nil
}
