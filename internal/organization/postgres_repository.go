package organization

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const organizationColumns = `id, owner_id, name, website, industry, size, notes, created_at, updated_at`

// PostgresRepository implements Repository using pgxpool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new Repository backed by the given connection pool.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &PostgresRepository{pool: pool}
}

// Create inserts a new organization owned by o.OwnerID.
func (r *PostgresRepository) Create(ctx context.Context, o *Organization) error {
	query := `
		INSERT INTO organizations (owner_id, name, website, industry, size, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		o.OwnerID,
		o.Name,
		o.Website,
		o.Industry,
		o.Size,
		o.Notes,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateName
		}
		return fmt.Errorf("inserting organization: %w", err)
	}

	return nil
}

// GetByID retrieves a single organization scoped to its owner.
func (r *PostgresRepository) GetByID(ctx context.Context, owner, id uuid.UUID) (*Organization, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM organizations
		WHERE id = $1 AND owner_id = $2`, organizationColumns)

	return r.scanOne(ctx, query, id, owner)
}

// List retrieves a paginated, filtered page of the owner's organizations.
func (r *PostgresRepository) List(ctx context.Context, owner uuid.UUID, filter ListFilter) (*ListResult, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 20
	}
	if filter.Limit > 100 {
		filter.Limit = 100
	}

	conditions := []string{"owner_id = $1"}
	args := []any{owner}
	argIdx := 2

	if filter.Search != nil {
		conditions = append(conditions, fmt.Sprintf("name ILIKE $%d", argIdx))
		args = append(args, "%"+*filter.Search+"%")
		argIdx++
	}
	if filter.Industry != nil {
		conditions = append(conditions, fmt.Sprintf("industry = $%d", argIdx))
		args = append(args, *filter.Industry)
		argIdx++
	}

	whereClause := "WHERE " + strings.Join(conditions, " AND ")

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM organizations %s", whereClause)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting organizations: %w", err)
	}

	dataQuery := fmt.Sprintf(`
		SELECT %s
		FROM organizations
		%s
		ORDER BY name
		LIMIT $%d OFFSET $%d`, organizationColumns, whereClause, argIdx, argIdx+1)

	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)

	rows, err := r.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("listing organizations: %w", err)
	}
	defer rows.Close()

	var organizations []Organization
	for rows.Next() {
		var o Organization
		if err := scanOrganization(rows, &o); err != nil {
			return nil, err
		}
		organizations = append(organizations, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating organization rows: %w", err)
	}

	if organizations == nil {
		organizations = []Organization{}
	}

	return &ListResult{
		Organizations: organizations,
		Total:         total,
		Page:          filter.Page,
		Limit:         filter.Limit,
	}, nil
}

// Update modifies the given fields on an owned organization. Zero matched
// rows (wrong id or different owner) surface as ErrNotFound.
func (r *PostgresRepository) Update(ctx context.Context, owner, id uuid.UUID, fields UpdateFields) (*Organization, error) {
	var setClauses []string
	var args []any
	argIdx := 1

	appendSet := func(column string, value any) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, argIdx))
		args = append(args, value)
		argIdx++
	}

	if fields.Name != nil {
		appendSet("name", *fields.Name)
	}
	if fields.Website != nil {
		appendSet("website", *fields.Website)
	}
	if fields.Industry != nil {
		appendSet("industry", *fields.Industry)
	}
	if fields.Size != nil {
		appendSet("size", *fields.Size)
	}
	if fields.Notes != nil {
		appendSet("notes", *fields.Notes)
	}

	if len(setClauses) == 0 {
		return r.GetByID(ctx, owner, id)
	}

	setClauses = append(setClauses, "updated_at = NOW()")
	args = append(args, id, owner)

	query := fmt.Sprintf(`
		UPDATE organizations
		SET %s
		WHERE id = $%d AND owner_id = $%d
		RETURNING %s`,
		strings.Join(setClauses, ", "), argIdx, argIdx+1, organizationColumns)

	o, err := r.scanOne(ctx, query, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrDuplicateName
		}
		return nil, err
	}
	return o, nil
}

// Delete hard-deletes an owned organization. Contacts and deals referencing
// it have their link set to NULL by the schema's ON DELETE SET NULL.
func (r *PostgresRepository) Delete(ctx context.Context, owner, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM organizations WHERE id = $1 AND owner_id = $2`,
		id, owner,
	)
	if err != nil {
		return fmt.Errorf("deleting organization: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) scanOne(ctx context.Context, query string, args ...any) (*Organization, error) {
	var o Organization
	row := r.pool.QueryRow(ctx, query, args...)
	if err := scanOrganization(row, &o); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scanning organization: %w", err)
	}
	return &o, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanOrganization(row scannable, o *Organization) error {
	return row.Scan(
		&o.ID, &o.OwnerID, &o.Name, &o.Website, &o.Industry, &o.Size,
		&o.Notes, &o.CreatedAt, &o.UpdatedAt,
	)
}
