package organization

import (
	"time"

	"github.com/google/uuid"
)

// Organization represents a row in the organizations table.
type Organization struct {
	ID        uuid.UUID
	OwnerID   uuid.UUID
	Name      string
	Website   string
	Industry  string
	Size      string
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ListFilter holds optional filters and pagination for listing organizations.
type ListFilter struct {
	Search   *string
	Industry *string
	Page     int
	Limit    int
}

// ListResult is a page of organizations with pagination metadata.
type ListResult struct {
	Organizations []Organization
	Total         int
	Page          int
	Limit         int
}

// UpdateFields holds the user-updatable fields for a PATCH. Nil pointers are
// left untouched.
type UpdateFields struct {
	Name     *string
	Website  *string
	Industry *string
	Size     *string
	Notes    *string
}
