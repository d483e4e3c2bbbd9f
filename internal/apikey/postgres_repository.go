package apikey

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository implements Repository using pgxpool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new Repository backed by the given connection pool.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &PostgresRepository{pool: pool}
}

// Create inserts a new API key record.
func (r *PostgresRepository) Create(ctx context.Context, k *Key) error {
	query := `
		INSERT INTO api_keys (profile_id, name, prefix, hash)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := r.pool.QueryRow(ctx, query, k.ProfileID, k.Name, k.Prefix, k.Hash).
		Scan(&k.ID, &k.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting api key: %w", err)
	}
	return nil
}

// FindByPrefix returns all non-revoked keys sharing a prefix. Prefixes are
// not unique; the caller bcrypt-compares each candidate.
func (r *PostgresRepository) FindByPrefix(ctx context.Context, prefix string) ([]Key, error) {
	query := `
		SELECT id, profile_id, name, prefix, hash, created_at, revoked_at
		FROM api_keys
		WHERE prefix = $1 AND revoked_at IS NULL`

	rows, err := r.pool.Query(ctx, query, prefix)
	if err != nil {
		return nil, fmt.Errorf("finding api keys by prefix: %w", err)
	}
	defer rows.Close()

	return scanKeys(rows)
}

// ListByProfile returns all keys (including revoked ones) owned by a profile.
func (r *PostgresRepository) ListByProfile(ctx context.Context, profileID uuid.UUID) ([]Key, error) {
	query := `
		SELECT id, profile_id, name, prefix, hash, created_at, revoked_at
		FROM api_keys
		WHERE profile_id = $1
		ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, profileID)
	if err != nil {
		return nil, fmt.Errorf("listing api keys: %w", err)
	}
	defer rows.Close()

	return scanKeys(rows)
}

// Revoke marks a key as revoked, scoped to its owning profile.
func (r *PostgresRepository) Revoke(ctx context.Context, profileID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE api_keys SET revoked_at = NOW() WHERE id = $1 AND profile_id = $2 AND revoked_at IS NULL`,
		id, profileID,
	)
	if err != nil {
		return fmt.Errorf("revoking api key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanKeys(rows rowScanner) ([]Key, error) {
	var keys []Key
	for rows.Next() {
		var k Key
		if err := rows.Scan(&k.ID, &k.ProfileID, &k.Name, &k.Prefix, &k.Hash, &k.CreatedAt, &k.RevokedAt); err != nil {
			return nil, fmt.Errorf("scanning api key row: %w", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating api key rows: %w", err)
	}
	if keys == nil {
		keys = []Key{}
	}
	return keys, nil
}
