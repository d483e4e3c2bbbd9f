package contact

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

const contactColumns = `id, owner_id, first_name, last_name, email, phone, job_title,
	       organization_id, notes, created_at, updated_at`

// PostgresRepository implements Repository using pgxpool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new Repository backed by the given connection pool.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &PostgresRepository{pool: pool}
}

// Create inserts a new contact owned by c.OwnerID.
func (r *PostgresRepository) Create(ctx context.Context, c *Contact) error {
	query := `
		INSERT INTO contacts (owner_id, first_name, last_name, email, phone, job_title, organization_id, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		c.OwnerID,
		c.FirstName,
		c.LastName,
		c.Email,
		c.Phone,
		c.JobTitle,
		c.OrganizationID,
		c.Notes,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return classifyError(err, "inserting contact")
	}

	return nil
}

// GetByID retrieves a single contact scoped to its owner.
func (r *PostgresRepository) GetByID(ctx context.Context, owner, id uuid.UUID) (*Contact, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM contacts
		WHERE id = $1 AND owner_id = $2`, contactColumns)

	return r.scanOne(ctx, query, id, owner)
}

// List retrieves a paginated, filtered page of the owner's contacts.
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
		conditions = append(conditions, fmt.Sprintf("(first_name ILIKE $%d OR last_name ILIKE $%d OR email ILIKE $%d)", argIdx, argIdx, argIdx))
		args = append(args, "%"+*filter.Search+"%")
		argIdx++
	}
	if filter.OrganizationID != nil {
		conditions = append(conditions, fmt.Sprintf("organization_id = $%d", argIdx))
		args = append(args, *filter.OrganizationID)
		argIdx++
	}

	whereClause := "WHERE " + strings.Join(conditions, " AND ")

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM contacts %s", whereClause)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting contacts: %w", err)
	}

	dataQuery := fmt.Sprintf(`
		SELECT %s
		FROM contacts
		%s
		ORDER BY last_name, first_name
		LIMIT $%d OFFSET $%d`, contactColumns, whereClause, argIdx, argIdx+1)

	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)

	rows, err := r.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("listing contacts: %w", err)
	}
	defer rows.Close()

	var contacts []Contact
	for rows.Next() {
		var c Contact
		if err := scanContact(rows, &c); err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating contact rows: %w", err)
	}

	if contacts == nil {
		contacts = []Contact{}
	}

	return &ListResult{
		Contacts: contacts,
		Total:    total,
		Page:     filter.Page,
		Limit:    filter.Limit,
	}, nil
}

// Update modifies the given fields on an owned contact. Zero matched rows
// (wrong id or different owner) surface as ErrNotFound.
func (r *PostgresRepository) Update(ctx context.Context, owner, id uuid.UUID, fields UpdateFields) (*Contact, error) {
	var setClauses []string
	var args []any
	argIdx := 1

	appendSet := func(column string, value any) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, argIdx))
		args = append(args, value)
		argIdx++
	}

	if fields.FirstName != nil {
		appendSet("first_name", *fields.FirstName)
	}
	if fields.LastName != nil {
		appendSet("last_name", *fields.LastName)
	}
	if fields.Email != nil {
		appendSet("email", *fields.Email)
	}
	if fields.Phone != nil {
		appendSet("phone", *fields.Phone)
	}
	if fields.JobTitle != nil {
		appendSet("job_title", *fields.JobTitle)
	}
	if fields.ClearOrganization {
		setClauses = append(setClauses, "organization_id = NULL")
	} else if fields.OrganizationID != nil {
		appendSet("organization_id", *fields.OrganizationID)
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
		UPDATE contacts
		SET %s
		WHERE id = $%d AND owner_id = $%d
		RETURNING %s`,
		strings.Join(setClauses, ", "), argIdx, argIdx+1, contactColumns)

	c, err := r.scanOne(ctx, query, args...)
	if err != nil {
		return nil, classifyErrorOrPass(err, "updating contact")
	}
	return c, nil
}

// Delete hard-deletes an owned contact. Zero matched rows surface as ErrNotFound.
func (r *PostgresRepository) Delete(ctx context.Context, owner, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM contacts WHERE id = $1 AND owner_id = $2`,
		id, owner,
	)
	if err != nil {
		return fmt.Errorf("deleting contact: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) scanOne(ctx context.Context, query string, args ...any) (*Contact, error) {
	var c Contact
	row := r.pool.QueryRow(ctx, query, args...)
	if err := scanContact(row, &c); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scanning contact: %w", err)
	}
	return &c, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanContact(row scannable, c *Contact) error {
	return row.Scan(
		&c.ID, &c.OwnerID, &c.FirstName, &c.LastName, &c.Email, &c.Phone,
		&c.JobTitle, &c.OrganizationID, &c.Notes, &c.CreatedAt, &c.UpdatedAt,
	)
}

// classifyError maps constraint violations onto the package's sentinel errors.
func classifyError(err error, op string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return ErrDuplicateEmail
		case "23503":
			if strings.Contains(pgErr.ConstraintName, "organization") {
				return ErrOrganizationNotFound
			}
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// classifyErrorOrPass applies classifyError but lets sentinel errors through untouched.
func classifyErrorOrPass(err error, op string) error {
	if errors.Is(err, ErrNotFound) {
		return err
	}
	return classifyError(err, op)
}
