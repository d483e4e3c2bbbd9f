package validation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/covecrm/cove/internal/api/validation"
)

func validDealCreate() validation.DealCreate {
	return validation.DealCreate{
		Title:       "Annual license renewal",
		AmountCents: 1200000,
		Currency:    "USD",
		Stage:       "qualified",
		Probability: 60,
	}
}

func TestValidateDealCreate_Valid(t *testing.T) {
	errs := validation.ValidateDealCreate(validDealCreate())
	assert.Empty(t, errs)
}

func TestValidateDealCreate_MissingTitle(t *testing.T) {
	req := validDealCreate()
	req.Title = ""

	errs := validation.ValidateDealCreate(req)
	assert.Equal(t, []string{"Title is required"}, errs["title"])
}

func TestValidateDealCreate_NegativeAmount(t *testing.T) {
	req := validDealCreate()
	req.AmountCents = -1

	errs := validation.ValidateDealCreate(req)
	assert.Contains(t, errs, "amountCents")
}

func TestValidateDealCreate_ZeroAmountAllowed(t *testing.T) {
	req := validDealCreate()
	req.AmountCents = 0

	errs := validation.ValidateDealCreate(req)
	assert.Empty(t, errs)
}

func TestValidateDealCreate_UnknownCurrency(t *testing.T) {
	req := validDealCreate()
	req.Currency = "BTC"

	errs := validation.ValidateDealCreate(req)
	assert.Contains(t, errs, "currency")
}

func TestValidateDealCreate_MissingCurrency(t *testing.T) {
	req := validDealCreate()
	req.Currency = ""

	errs := validation.ValidateDealCreate(req)
	assert.Equal(t, []string{"Currency is required"}, errs["currency"])
}

func TestValidateDealCreate_UnknownStage(t *testing.T) {
	req := validDealCreate()
	req.Stage = "closed-ish"

	errs := validation.ValidateDealCreate(req)
	assert.Contains(t, errs, "stage")
}

func TestValidateDealCreate_ProbabilityBounds(t *testing.T) {
	for _, p := range []int{-1, 101} {
		req := validDealCreate()
		req.Probability = p

		errs := validation.ValidateDealCreate(req)
		assert.Contains(t, errs, "probability", "probability %d", p)
	}

	for _, p := range []int{0, 100} {
		req := validDealCreate()
		req.Probability = p

		errs := validation.ValidateDealCreate(req)
		assert.Empty(t, errs, "probability %d", p)
	}
}

func TestValidateDealCreate_BadExpectedClose(t *testing.T) {
	tests := []string{"2026-13-01", "01/02/2026", "next quarter"}

	for _, date := range tests {
		t.Run(date, func(t *testing.T) {
			req := validDealCreate()
			req.ExpectedClose = date

			errs := validation.ValidateDealCreate(req)
			assert.Contains(t, errs, "expectedClose")
		})
	}
}

func TestValidateDealCreate_BadLinkedIDs(t *testing.T) {
	req := validDealCreate()
	req.ContactID = "nope"
	req.OrganizationID = "also-nope"

	errs := validation.ValidateDealCreate(req)
	assert.Contains(t, errs, "contactId")
	assert.Contains(t, errs, "organizationId")
}

func TestValidateDealUpdate_NilFieldsValid(t *testing.T) {
	errs := validation.ValidateDealUpdate(validation.DealUpdate{})
	assert.Empty(t, errs)
}

func TestValidateDealUpdate_ProvidedFieldsChecked(t *testing.T) {
	stage := "maybe"
	cents := int64(-500)

	errs := validation.ValidateDealUpdate(validation.DealUpdate{
		Stage:       &stage,
		AmountCents: &cents,
	})
	assert.Contains(t, errs, "stage")
	assert.Contains(t, errs, "amountCents")
}

func TestValidateDealUpdate_EmptyExpectedCloseClears(t *testing.T) {
	empty := ""
	errs := validation.ValidateDealUpdate(validation.DealUpdate{ExpectedClose: &empty})
	assert.Empty(t, errs)
}

func TestParseExpectedClose(t *testing.T) {
	d, err := validation.ParseExpectedClose("2026-09-30")
	assert.NoError(t, err)
	assert.Equal(t, 2026, d.Year())
	assert.Equal(t, 30, d.Day())
}
