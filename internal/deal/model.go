package deal

import (
	"time"

	"github.com/google/uuid"
)

// Pipeline stages a deal moves through.
const (
	StageLead        = "lead"
	StageQualified   = "qualified"
	StageProposal    = "proposal"
	StageNegotiation = "negotiation"
	StageWon         = "won"
	StageLost        = "lost"
)

// Deal represents a row in the deals table. Amounts are stored in minor
// units (cents) to avoid floating-point money.
type Deal struct {
	ID             uuid.UUID
	OwnerID        uuid.UUID
	Title          string
	AmountCents    int64
	Currency       string
	Stage          string
	Probability    int
	ContactID      *uuid.UUID
	OrganizationID *uuid.UUID
	ExpectedClose  *time.Time
	Notes          string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ListFilter holds optional filters and pagination for listing deals.
type ListFilter struct {
	Stage          *string
	ContactID      *uuid.UUID
	OrganizationID *uuid.UUID
	Page           int
	Limit          int
}

// ListResult is a page of deals with pagination metadata.
type ListResult struct {
	Deals []Deal
	Total int
	Page  int
	Limit int
}

// UpdateFields holds the user-updatable fields for a PATCH. Nil pointers are
// left untouched; the Clear flags remove the corresponding link.
type UpdateFields struct {
	Title              *string
	AmountCents        *int64
	Currency           *string
	Stage              *string
	Probability        *int
	ContactID          *uuid.UUID
	ClearContact       bool
	OrganizationID     *uuid.UUID
	ClearOrganization  bool
	ExpectedClose      *time.Time
	ClearExpectedClose bool
	Notes              *string
}
