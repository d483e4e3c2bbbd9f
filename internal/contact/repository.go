package contact

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a contact is absent or not owned by the
// requesting profile. The two cases are deliberately indistinguishable so
// that other users' record ids cannot be probed.
var ErrNotFound = errors.New("contact not found")

// ErrDuplicateEmail is returned when the owner already has a contact with the same email.
var ErrDuplicateEmail = errors.New("contact email already exists")

// ErrOrganizationNotFound is returned when the referenced organization does
// not exist (or is not owned by the caller).
var ErrOrganizationNotFound = errors.New("organization not found")

// Repository provides owner-scoped CRUD operations on the contacts table.
// Every query carries the owner id in its WHERE clause.
type Repository interface {
	Create(ctx context.Context, c *Contact) error
	GetByID(ctx context.Context, owner, id uuid.UUID) (*Contact, error)
	List(ctx context.Context, owner uuid.UUID, filter ListFilter) (*ListResult, error)
	Update(ctx context.Context, owner, id uuid.UUID, fields UpdateFields) (*Contact, error)
	Delete(ctx context.Context, owner, id uuid.UUID) error
}
