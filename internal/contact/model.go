package contact

import (
	"time"

	"github.com/google/uuid"
)

// Contact represents a row in the contacts table. Every contact belongs to
// exactly one owner profile and is invisible to everyone else.
type Contact struct {
	ID             uuid.UUID
	OwnerID        uuid.UUID
	FirstName      string
	LastName       string
	Email          string
	Phone          string
	JobTitle       string
	OrganizationID *uuid.UUID
	Notes          string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ListFilter holds optional filters and pagination for listing contacts.
type ListFilter struct {
	Search         *string
	OrganizationID *uuid.UUID
	Page           int
	Limit          int
}

// ListResult is a page of contacts with pagination metadata.
type ListResult struct {
	Contacts []Contact
	Total    int
	Page     int
	Limit    int
}

// UpdateFields holds the user-updatable fields for a PATCH. Nil pointers are
// left untouched. ClearOrganization removes the organization link; it wins
// over OrganizationID when both are set.
type UpdateFields struct {
	FirstName         *string
	LastName          *string
	Email             *string
	Phone             *string
	JobTitle          *string
	OrganizationID    *uuid.UUID
	ClearOrganization bool
	Notes             *string
}
