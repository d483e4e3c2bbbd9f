package apikey

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when an API key record is not found (or is not
// owned by the requesting profile; the two are indistinguishable).
var ErrNotFound = errors.New("api key not found")

// Repository provides operations on the api_keys table.
type Repository interface {
	Create(ctx context.Context, k *Key) error
	FindByPrefix(ctx context.Context, prefix string) ([]Key, error)
	ListByProfile(ctx context.Context, profileID uuid.UUID) ([]Key, error)
	Revoke(ctx context.Context, profileID, id uuid.UUID) error
}
