package profile

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a profile record is not found.
var ErrNotFound = errors.New("profile not found")

// ErrDuplicate is returned when a profile with the same id or email already exists.
var ErrDuplicate = errors.New("profile already exists")

// Repository provides operations on the profiles table.
type Repository interface {
	Create(ctx context.Context, p *Profile) error
	GetByID(ctx context.Context, id uuid.UUID) (*Profile, error)
	List(ctx context.Context, page, limit int) (*ListResult, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role string) (*Profile, error)
	UpdatePlanByEmail(ctx context.Context, email, plan string) error
}

// ListResult is a page of profiles with pagination metadata.
type ListResult struct {
	Profiles []Profile
	Total    int
	Page     int
	Limit    int
}
