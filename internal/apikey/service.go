package apikey

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/covecrm/cove/internal/profile"
)

// ErrInvalidKey is returned when the provided API key does not match any active key.
var ErrInvalidKey = errors.New("invalid or revoked API key")

// Service issues and authenticates integration API keys.
type Service struct {
	keys       Repository
	profiles   profile.Repository
	bcryptCost int
}

// NewService creates a new apikey Service.
func NewService(keys Repository, profiles profile.Repository, bcryptCost int) *Service {
	return &Service{
		keys:       keys,
		profiles:   profiles,
		bcryptCost: bcryptCost,
	}
}

// Generate creates and stores a new API key for a profile. Returns the raw
// key, which is never recoverable afterwards: 32 random bytes -> base64url
// -> prepend "cove_"; the first 8 characters form the lookup prefix.
func (s *Service) Generate(ctx context.Context, profileID uuid.UUID, name string) (rawKey string, k *Key, err error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", nil, fmt.Errorf("generating random bytes: %w", err)
	}

	rawKey = "cove_" + base64.RawURLEncoding.EncodeToString(b)
	prefix := rawKey[:8]

	hashBytes, err := bcrypt.GenerateFromPassword([]byte(rawKey), s.bcryptCost)
	if err != nil {
		return "", nil, fmt.Errorf("hashing key: %w", err)
	}

	k = &Key{
		ProfileID: profileID,
		Name:      name,
		Prefix:    prefix,
		Hash:      string(hashBytes),
	}
	if err := s.keys.Create(ctx, k); err != nil {
		return "", nil, err
	}

	return rawKey, k, nil
}

// Authenticate resolves a raw API key to the owning profile. It extracts the
// prefix, looks up active candidates, and bcrypt-compares each one.
func (s *Service) Authenticate(ctx context.Context, rawKey string) (*profile.Profile, error) {
	if len(rawKey) < 8 {
		return nil, ErrInvalidKey
	}

	candidates, err := s.keys.FindByPrefix(ctx, rawKey[:8])
	if err != nil {
		return nil, fmt.Errorf("finding api keys by prefix: %w", err)
	}

	for _, k := range candidates {
		if bcrypt.CompareHashAndPassword([]byte(k.Hash), []byte(rawKey)) == nil {
			p, err := s.profiles.GetByID(ctx, k.ProfileID)
			if err != nil {
				return nil, fmt.Errorf("fetching profile for api key: %w", err)
			}
			return p, nil
		}
	}

	return nil, ErrInvalidKey
}
