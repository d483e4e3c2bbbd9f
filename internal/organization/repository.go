package organization

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when an organization is absent or not owned by the
// requesting profile; the two are deliberately indistinguishable.
var ErrNotFound = errors.New("organization not found")

// ErrDuplicateName is returned when the owner already has an organization with the same name.
var ErrDuplicateName = errors.New("organization name already exists")

// Repository provides owner-scoped CRUD operations on the organizations table.
type Repository interface {
	Create(ctx context.Context, o *Organization) error
	GetByID(ctx context.Context, owner, id uuid.UUID) (*Organization, error)
	List(ctx context.Context, owner uuid.UUID, filter ListFilter) (*ListResult, error)
	Update(ctx context.Context, owner, id uuid.UUID, fields UpdateFields) (*Organization, error)
	Delete(ctx context.Context, owner, id uuid.UUID) error
}
