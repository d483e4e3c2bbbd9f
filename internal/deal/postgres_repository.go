package deal

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

const dealColumns = `id, owner_id, title, amount_cents, currency, stage, probability,
	       contact_id, organization_id, expected_close, notes, created_at, updated_at`

// PostgresRepository implements Repository using pgxpool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new Repository backed by the given connection pool.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &PostgresRepository{pool: pool}
}

// Create inserts a new deal owned by d.OwnerID.
func (r *PostgresRepository) Create(ctx context.Context, d *Deal) error {
	if d.Stage == "" {
		d.Stage = StageLead
	}

	query := `
		INSERT INTO deals (owner_id, title, amount_cents, currency, stage, probability,
		                   contact_id, organization_id, expected_close, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		d.OwnerID,
		d.Title,
		d.AmountCents,
		d.Currency,
		d.Stage,
		d.Probability,
		d.ContactID,
		d.OrganizationID,
		d.ExpectedClose,
		d.Notes,
	).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return classifyError(err, "inserting deal")
	}

	return nil
}

// GetByID retrieves a single deal scoped to its owner.
func (r *PostgresRepository) GetByID(ctx context.Context, owner, id uuid.UUID) (*Deal, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM deals
		WHERE id = $1 AND owner_id = $2`, dealColumns)

	return r.scanOne(ctx, query, id, owner)
}

// List retrieves a paginated, filtered page of the owner's deals.
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

	if filter.Stage != nil {
		conditions = append(conditions, fmt.Sprintf("stage = $%d", argIdx))
		args = append(args, *filter.Stage)
		argIdx++
	}
	if filter.ContactID != nil {
		conditions = append(conditions, fmt.Sprintf("contact_id = $%d", argIdx))
		args = append(args, *filter.ContactID)
		argIdx++
	}
	if filter.OrganizationID != nil {
		conditions = append(conditions, fmt.Sprintf("organization_id = $%d", argIdx))
		args = append(args, *filter.OrganizationID)
		argIdx++
	}

	whereClause := "WHERE " + strings.Join(conditions, " AND ")

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM deals %s", whereClause)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting deals: %w", err)
	}

	dataQuery := fmt.Sprintf(`
		SELECT %s
		FROM deals
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, dealColumns, whereClause, argIdx, argIdx+1)

	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)

	rows, err := r.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("listing deals: %w", err)
	}
	defer rows.Close()

	var deals []Deal
	for rows.Next() {
		var d Deal
		if err := scanDeal(rows, &d); err != nil {
			return nil, err
		}
		deals = append(deals, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating deal rows: %w", err)
	}

	if deals == nil {
		deals = []Deal{}
	}

	return &ListResult{
		Deals: deals,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

// Update modifies the given fields on an owned deal. Zero matched rows
// (wrong id or different owner) surface as ErrNotFound.
func (r *PostgresRepository) Update(ctx context.Context, owner, id uuid.UUID, fields UpdateFields) (*Deal, error) {
	var setClauses []string
	var args []any
	argIdx := 1

	appendSet := func(column string, value any) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, argIdx))
		args = append(args, value)
		argIdx++
	}

	if fields.Title != nil {
		appendSet("title", *fields.Title)
	}
	if fields.AmountCents != nil {
		appendSet("amount_cents", *fields.AmountCents)
	}
	if fields.Currency != nil {
		appendSet("currency", *fields.Currency)
	}
	if fields.Stage != nil {
		appendSet("stage", *fields.Stage)
	}
	if fields.Probability != nil {
		appendSet("probability", *fields.Probability)
	}
	if fields.ClearContact {
		setClauses = append(setClauses, "contact_id = NULL")
	} else if fields.ContactID != nil {
		appendSet("contact_id", *fields.ContactID)
	}
	if fields.ClearOrganization {
		setClauses = append(setClauses, "organization_id = NULL")
	} else if fields.OrganizationID != nil {
		appendSet("organization_id", *fields.OrganizationID)
	}
	if fields.ClearExpectedClose {
		setClauses = append(setClauses, "expected_close = NULL")
	} else if fields.ExpectedClose != nil {
		appendSet("expected_close", *fields.ExpectedClose)
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
		UPDATE deals
		SET %s
		WHERE id = $%d AND owner_id = $%d
		RETURNING %s`,
		strings.Join(setClauses, ", "), argIdx, argIdx+1, dealColumns)

	d, err := r.scanOne(ctx, query, args...)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, classifyError(err, "updating deal")
	}
	return d, nil
}

// Delete hard-deletes an owned deal. Zero matched rows surface as ErrNotFound.
func (r *PostgresRepository) Delete(ctx context.Context, owner, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM deals WHERE id = $1 AND owner_id = $2`,
		id, owner,
	)
	if err != nil {
		return fmt.Errorf("deleting deal: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) scanOne(ctx context.Context, query string, args ...any) (*Deal, error) {
	var d Deal
	row := r.pool.QueryRow(ctx, query, args...)
	if err := scanDeal(row, &d); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanDeal(row scannable, d *Deal) error {
	return row.Scan(
		&d.ID, &d.OwnerID, &d.Title, &d.AmountCents, &d.Currency, &d.Stage,
		&d.Probability, &d.ContactID, &d.OrganizationID, &d.ExpectedClose,
		&d.Notes, &d.CreatedAt, &d.UpdatedAt,
	)
}

// classifyError maps foreign-key violations onto the referenced entity's
// sentinel error so handlers can report them against the right field.
func classifyError(err error, op string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		if strings.Contains(pgErr.ConstraintName, "contact") {
			return ErrContactNotFound
		}
		if strings.Contains(pgErr.ConstraintName, "organization") {
			return ErrOrganizationNotFound
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
