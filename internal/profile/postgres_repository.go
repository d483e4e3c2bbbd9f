package profile

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
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

// Create inserts a new profile row. The id comes from the identity provider.
func (r *PostgresRepository) Create(ctx context.Context, p *Profile) error {
	if p.Role == "" {
		p.Role = RoleUser
	}
	if p.Plan == "" {
		p.Plan = PlanFree
	}

	query := `
		INSERT INTO profiles (id, email, full_name, role, plan)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		p.ID,
		p.Email,
		p.FullName,
		p.Role,
		p.Plan,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicate
		}
		return fmt.Errorf("inserting profile: %w", err)
	}

	return nil
}

// GetByID retrieves a single profile by its UUID.
func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Profile, error) {
	query := `
		SELECT id, email, full_name, role, plan, created_at, updated_at
		FROM profiles
		WHERE id = $1`

	var p Profile
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.Email, &p.FullName, &p.Role, &p.Plan, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting profile: %w", err)
	}
	return &p, nil
}

// List retrieves a page of profiles ordered by creation time.
func (r *PostgresRepository) List(ctx context.Context, page, limit int) (*ListResult, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM profiles`).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting profiles: %w", err)
	}

	query := `
		SELECT id, email, full_name, role, plan, created_at, updated_at
		FROM profiles
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, limit, (page-1)*limit)
	if err != nil {
		return nil, fmt.Errorf("listing profiles: %w", err)
	}
	defer rows.Close()

	var profiles []Profile
	for rows.Next() {
		var p Profile
		if err := rows.Scan(&p.ID, &p.Email, &p.FullName, &p.Role, &p.Plan, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning profile row: %w", err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating profile rows: %w", err)
	}

	if profiles == nil {
		profiles = []Profile{}
	}

	return &ListResult{Profiles: profiles, Total: total, Page: page, Limit: limit}, nil
}

// UpdateRole changes a profile's role.
func (r *PostgresRepository) UpdateRole(ctx context.Context, id uuid.UUID, role string) (*Profile, error) {
	query := `
		UPDATE profiles
		SET role = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING id, email, full_name, role, plan, created_at, updated_at`

	var p Profile
	err := r.pool.QueryRow(ctx, query, role, id).Scan(
		&p.ID, &p.Email, &p.FullName, &p.Role, &p.Plan, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("updating profile role: %w", err)
	}
	return &p, nil
}

// UpdatePlanByEmail changes the billing plan for the profile with the given
// email. Used by the payment webhook, which identifies customers by email.
func (r *PostgresRepository) UpdatePlanByEmail(ctx context.Context, email, plan string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE profiles SET plan = $1, updated_at = NOW() WHERE email = $2`,
		plan, email,
	)
	if err != nil {
		return fmt.Errorf("updating profile plan: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
