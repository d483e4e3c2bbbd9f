package apikey

import (
	"time"

	"github.com/google/uuid"
)

// Key represents a row in the api_keys table. The raw key is shown once at
// creation; only its prefix and bcrypt hash are stored.
type Key struct {
	ID        uuid.UUID
	ProfileID uuid.UUID
	Name      string
	Prefix    string
	Hash      string
	CreatedAt time.Time
	RevokedAt *time.Time
}
