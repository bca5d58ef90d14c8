package rules

import (
	"strings"

	"hostel-meals/models"
)

var ErrAdminRequired = models.NewForbidden("Forbidden: Admin access required")

// IsAdmin fails closed: a nil user is never an admin.
func IsAdmin(u *models.User) bool {
	return u != nil && u.Role == models.RoleAdmin
}

// CanActOnBehalf reports whether caller may act on a resource owned by ownerEmail.
func CanActOnBehalf(caller *models.User, ownerEmail string) bool {
	if caller == nil {
		return false
	}
	return strings.EqualFold(caller.Email, ownerEmail) || IsAdmin(caller)
}
