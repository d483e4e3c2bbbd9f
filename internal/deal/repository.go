package deal

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a deal is absent or not owned by the
// requesting profile; the two are deliberately indistinguishable.
var ErrNotFound = errors.New("deal not found")

// ErrContactNotFound is returned when the referenced contact does not exist.
var ErrContactNotFound = errors.New("contact not found")

// ErrOrganizationNotFound is returned when the referenced organization does not exist.
var ErrOrganizationNotFound = errors.New("organization not found")

// Repository provides owner-scoped CRUD operations on the deals table.
type Repository interface {
	Create(ctx context.Context, d *Deal) error
	GetByID(ctx context.Context, owner, id uuid.UUID) (*Deal, error)
	List(ctx context.Context, owner uuid.UUID, filter ListFilter) (*ListResult, error)
	Update(ctx context.Context, owner, id uuid.UUID, fields UpdateFields) (*Deal, error)
	Delete(ctx context.Context, owner, id uuid.UUID) error
}
