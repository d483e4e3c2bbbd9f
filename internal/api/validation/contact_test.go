package validation_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/covecrm/cove/internal/api/validation"
)

func validContactCreate() validation.ContactCreate {
	return validation.ContactCreate{
		FirstName: "John",
		LastName:  "Doe",
		Email:     "john@example.com",
	}
}

func TestValidateContactCreate_Valid(t *testing.T) {
	errs := validation.ValidateContactCreate(validContactCreate())
	assert.Empty(t, errs)
}

func TestValidateContactCreate_AllOptionalsValid(t *testing.T) {
	req := validContactCreate()
	req.Phone = "+1 (555) 123-4567"
	req.JobTitle = "VP of Sales"
	req.OrganizationID = "0cbe4f64-36a7-4f63-9ed5-2d0148ce253f"
	req.Notes = "Met at the conference."

	errs := validation.ValidateContactCreate(req)
	assert.Empty(t, errs)
}

func TestValidateContactCreate_MissingFirstName(t *testing.T) {
	req := validContactCreate()
	req.FirstName = ""

	errs := validation.ValidateContactCreate(req)
	assert.Equal(t, []string{"First name is required"}, errs["firstName"])
	assert.Len(t, errs, 1)
}

func TestValidateContactCreate_BlankLastName(t *testing.T) {
	req := validContactCreate()
	req.LastName = "   "

	errs := validation.ValidateContactCreate(req)
	assert.Contains(t, errs, "lastName")
}

func TestValidateContactCreate_NameTooLong(t *testing.T) {
	req := validContactCreate()
	req.FirstName = strings.Repeat("a", 101)

	errs := validation.ValidateContactCreate(req)
	assert.Contains(t, errs, "firstName")
}

func TestValidateContactCreate_NameLengthCountsRunes(t *testing.T) {
	// 100 three-byte runes is exactly at the limit; 101 is over it.
	req := validContactCreate()
	req.FirstName = strings.Repeat("あ", 100)

	errs := validation.ValidateContactCreate(req)
	assert.NotContains(t, errs, "firstName")

	req.FirstName = strings.Repeat("あ", 101)
	errs = validation.ValidateContactCreate(req)
	assert.Contains(t, errs, "firstName")
}

func TestValidateContactCreate_MalformedEmail(t *testing.T) {
	tests := []string{"notanemail", "a@b", "a @b.com", "@example.com", "john@"}

	for _, email := range tests {
		t.Run(email, func(t *testing.T) {
			req := validContactCreate()
			req.Email = email

			errs := validation.ValidateContactCreate(req)
			assert.Contains(t, errs, "email")
		})
	}
}

func TestValidateContactCreate_MalformedPhone(t *testing.T) {
	req := validContactCreate()
	req.Phone = "call me maybe"

	errs := validation.ValidateContactCreate(req)
	assert.Contains(t, errs, "phone")
}

func TestValidateContactCreate_BadOrganizationID(t *testing.T) {
	req := validContactCreate()
	req.OrganizationID = "not-a-uuid"

	errs := validation.ValidateContactCreate(req)
	assert.Contains(t, errs, "organizationId")
}

func TestValidateContactCreate_NotesTooLong(t *testing.T) {
	req := validContactCreate()
	req.Notes = strings.Repeat("x", 10001)

	errs := validation.ValidateContactCreate(req)
	assert.Contains(t, errs, "notes")
}

func TestValidateContactCreate_MultipleErrors(t *testing.T) {
	errs := validation.ValidateContactCreate(validation.ContactCreate{
		Email: "bogus",
	})

	assert.Contains(t, errs, "firstName")
	assert.Contains(t, errs, "lastName")
	assert.Contains(t, errs, "email")
}

func TestValidateContactUpdate_NilFieldsValid(t *testing.T) {
	errs := validation.ValidateContactUpdate(validation.ContactUpdate{})
	assert.Empty(t, errs)
}

func TestValidateContactUpdate_ProvidedFieldsChecked(t *testing.T) {
	bad := "bogus"
	errs := validation.ValidateContactUpdate(validation.ContactUpdate{Email: &bad})
	assert.Contains(t, errs, "email")
}

func TestValidateContactUpdate_CannotBlankRequiredField(t *testing.T) {
	empty := ""
	errs := validation.ValidateContactUpdate(validation.ContactUpdate{FirstName: &empty})
	assert.Equal(t, []string{"First name is required"}, errs["firstName"])
}

func TestValidateContactUpdate_EmptyOrganizationIDClearsLink(t *testing.T) {
	// An empty organizationId means "clear the link" and must not be
	// rejected as a malformed UUID.
	empty := ""
	errs := validation.ValidateContactUpdate(validation.ContactUpdate{OrganizationID: &empty})
	assert.Empty(t, errs)
}
