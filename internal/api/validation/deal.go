package validation

import (
	"strings"
	"time"
)

const maxDealTitleLen = 200

// Stages a deal can be in.
var Stages = []string{"lead", "qualified", "proposal", "negotiation", "won", "lost"}

// Currencies accepted for deal amounts (ISO 4217).
var Currencies = []string{"USD", "EUR", "GBP", "CAD", "AUD", "JPY", "CHF", "SEK"}

// expectedCloseLayout is the wire format for the expected close date.
const expectedCloseLayout = "2006-01-02"

// DealCreate mirrors the fields needed to validate a deal creation.
type DealCreate struct {
	Title          string
	AmountCents    int64
	Currency       string
	Stage          string
	Probability    int
	ContactID      string
	OrganizationID string
	ExpectedClose  string
	Notes          string
}

// DealUpdate mirrors the fields of a deal update; nil means "not provided".
type DealUpdate struct {
	Title          *string
	AmountCents    *int64
	Currency       *string
	Stage          *string
	Probability    *int
	ContactID      *string
	OrganizationID *string
	ExpectedClose  *string
	Notes          *string
}

// ValidateDealCreate validates a deal-create request.
func ValidateDealCreate(req DealCreate) FieldErrors {
	errs := FieldErrors{}

	checkDealTitle(errs, req.Title)
	checkAmount(errs, req.AmountCents)

	if strings.TrimSpace(req.Currency) == "" {
		errs.Add("currency", "Currency is required")
	} else {
		checkCurrency(errs, req.Currency)
	}

	if req.Stage != "" {
		checkStage(errs, req.Stage)
	}
	checkProbability(errs, req.Probability)

	if req.ContactID != "" && !validUUID(req.ContactID) {
		errs.Add("contactId", "Contact id must be a valid UUID")
	}
	if req.OrganizationID != "" && !validUUID(req.OrganizationID) {
		errs.Add("organizationId", "Organization id must be a valid UUID")
	}
	if req.ExpectedClose != "" {
		checkExpectedClose(errs, req.ExpectedClose)
	}
	if tooLong(req.Notes, maxNotesLen) {
		errs.Add("notes", "Notes must be at most 10000 characters")
	}

	return errs
}

// ValidateDealUpdate validates a deal-update request.
func ValidateDealUpdate(req DealUpdate) FieldErrors {
	errs := FieldErrors{}

	if req.Title != nil {
		checkDealTitle(errs, *req.Title)
	}
	if req.AmountCents != nil {
		checkAmount(errs, *req.AmountCents)
	}
	if req.Currency != nil {
		checkCurrency(errs, *req.Currency)
	}
	if req.Stage != nil {
		checkStage(errs, *req.Stage)
	}
	if req.Probability != nil {
		checkProbability(errs, *req.Probability)
	}
	if req.ContactID != nil && *req.ContactID != "" && !validUUID(*req.ContactID) {
		errs.Add("contactId", "Contact id must be a valid UUID")
	}
	if req.OrganizationID != nil && *req.OrganizationID != "" && !validUUID(*req.OrganizationID) {
		errs.Add("organizationId", "Organization id must be a valid UUID")
	}
	if req.ExpectedClose != nil && *req.ExpectedClose != "" {
		checkExpectedClose(errs, *req.ExpectedClose)
	}
	if req.Notes != nil && tooLong(*req.Notes, maxNotesLen) {
		errs.Add("notes", "Notes must be at most 10000 characters")
	}

	return errs
}

// ParseExpectedClose parses a validated expected-close date.
func ParseExpectedClose(s string) (time.Time, error) {
	return time.Parse(expectedCloseLayout, s)
}

func checkDealTitle(errs FieldErrors, title string) {
	switch {
	case strings.TrimSpace(title) == "":
		errs.Add("title", "Title is required")
	case tooLong(title, maxDealTitleLen):
		errs.Add("title", "Title must be at most 200 characters")
	}
}

func checkAmount(errs FieldErrors, cents int64) {
	if cents < 0 {
		errs.Add("amountCents", "Amount must be zero or positive")
	}
}

func checkCurrency(errs FieldErrors, currency string) {
	if !inSet(currency, Currencies) {
		errs.Add("currency", "Currency must be one of: "+strings.Join(Currencies, ", "))
	}
}

func checkStage(errs FieldErrors, stage string) {
	if !inSet(stage, Stages) {
		errs.Add("stage", "Stage must be one of: "+strings.Join(Stages, ", "))
	}
}

func checkProbability(errs FieldErrors, p int) {
	if p < 0 || p > 100 {
		errs.Add("probability", "Probability must be between 0 and 100")
	}
}

func checkExpectedClose(errs FieldErrors, s string) {
	if _, err := time.Parse(expectedCloseLayout, s); err != nil {
		errs.Add("expectedClose", "Expected close must be a date in YYYY-MM-DD format")
	}
}
