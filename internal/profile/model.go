package profile

import (
	"time"

	"github.com/google/uuid"
)

// Roles a profile can hold. Role changes are restricted to super admins.
const (
	RoleUser       = "user"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
)

// Billing plans, driven by payment-provider webhooks.
const (
	PlanFree = "free"
	PlanPro  = "pro"
)

// Profile is the local record for an identity issued by the hosted provider.
// Its ID always equals the provider identity's ID; the row must exist before
// any owned entity can reference it.
type Profile struct {
	ID        uuid.UUID
	Email     string
	FullName  string
	Role      string
	Plan      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ValidRole reports whether s is a recognized role value.
func ValidRole(s string) bool {
	return s == RoleUser || s == RoleAdmin || s == RoleSuperAdmin
}
