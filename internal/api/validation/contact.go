package validation

import "strings"

const (
	maxNameLen     = 100
	maxJobTitleLen = 150
	maxNotesLen    = 10000
)

// ContactCreate mirrors the fields needed to validate a contact creation.
type ContactCreate struct {
	FirstName      string
	LastName       string
	Email          string
	Phone          string
	JobTitle       string
	OrganizationID string
	Notes          string
}

// ContactUpdate mirrors the fields of a contact update; nil means "not provided".
type ContactUpdate struct {
	FirstName      *string
	LastName       *string
	Email          *string
	Phone          *string
	JobTitle       *string
	OrganizationID *string
	Notes          *string
}

// ValidateContactCreate validates a contact-create request.
func ValidateContactCreate(req ContactCreate) FieldErrors {
	errs := FieldErrors{}

	checkRequiredName(errs, "firstName", "First name", req.FirstName)
	checkRequiredName(errs, "lastName", "Last name", req.LastName)

	switch {
	case strings.TrimSpace(req.Email) == "":
		errs.Add("email", "Email is required")
	case !validEmail(req.Email):
		errs.Add("email", "Email must be a valid address")
	}

	validateContactOptionals(errs, req.Phone, req.JobTitle, req.OrganizationID, req.Notes)

	return errs
}

// ValidateContactUpdate validates a contact-update request. Provided fields
// obey the same constraints as at creation; required fields may not be
// blanked out.
func ValidateContactUpdate(req ContactUpdate) FieldErrors {
	errs := FieldErrors{}

	if req.FirstName != nil {
		checkRequiredName(errs, "firstName", "First name", *req.FirstName)
	}
	if req.LastName != nil {
		checkRequiredName(errs, "lastName", "Last name", *req.LastName)
	}
	if req.Email != nil {
		switch {
		case strings.TrimSpace(*req.Email) == "":
			errs.Add("email", "Email is required")
		case !validEmail(*req.Email):
			errs.Add("email", "Email must be a valid address")
		}
	}

	var phone, jobTitle, orgID, notes string
	if req.Phone != nil {
		phone = *req.Phone
	}
	if req.JobTitle != nil {
		jobTitle = *req.JobTitle
	}
	if req.OrganizationID != nil {
		orgID = *req.OrganizationID
	}
	if req.Notes != nil {
		notes = *req.Notes
	}
	validateContactOptionals(errs, phone, jobTitle, orgID, notes)

	return errs
}

func checkRequiredName(errs FieldErrors, field, label, value string) {
	switch {
	case strings.TrimSpace(value) == "":
		errs.Add(field, label+" is required")
	case tooLong(value, maxNameLen):
		errs.Add(field, label+" must be at most 100 characters")
	}
}

func validateContactOptionals(errs FieldErrors, phone, jobTitle, orgID, notes string) {
	if phone != "" && !validPhone(phone) {
		errs.Add("phone", "Phone must be a valid phone number")
	}
	if tooLong(jobTitle, maxJobTitleLen) {
		errs.Add("jobTitle", "Job title must be at most 150 characters")
	}
	if orgID != "" && !validUUID(orgID) {
		errs.Add("organizationId", "Organization id must be a valid UUID")
	}
	if tooLong(notes, maxNotesLen) {
		errs.Add("notes", "Notes must be at most 10000 characters")
	}
}
