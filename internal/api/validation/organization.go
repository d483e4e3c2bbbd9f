package validation

import "strings"

const maxOrgNameLen = 200

// Industries an organization can be tagged with.
var Industries = []string{
	"technology", "finance", "healthcare", "retail",
	"manufacturing", "education", "real_estate", "other",
}

// Sizes an organization can report (employee count bands).
var Sizes = []string{"1-10", "11-50", "51-200", "201-500", "501-1000", "1000+"}

// OrganizationCreate mirrors the fields needed to validate an organization creation.
type OrganizationCreate struct {
	Name     string
	Website  string
	Industry string
	Size     string
	Notes    string
}

// OrganizationUpdate mirrors the fields of an organization update; nil means "not provided".
type OrganizationUpdate struct {
	Name     *string
	Website  *string
	Industry *string
	Size     *string
	Notes    *string
}

// ValidateOrganizationCreate validates an organization-create request.
func ValidateOrganizationCreate(req OrganizationCreate) FieldErrors {
	errs := FieldErrors{}

	checkOrgName(errs, req.Name)
	validateOrgOptionals(errs, req.Website, req.Industry, req.Size, req.Notes)

	return errs
}

// ValidateOrganizationUpdate validates an organization-update request.
func ValidateOrganizationUpdate(req OrganizationUpdate) FieldErrors {
	errs := FieldErrors{}

	if req.Name != nil {
		checkOrgName(errs, *req.Name)
	}

	var website, industry, size, notes string
	if req.Website != nil {
		website = *req.Website
	}
	if req.Industry != nil {
		industry = *req.Industry
	}
	if req.Size != nil {
		size = *req.Size
	}
	if req.Notes != nil {
		notes = *req.Notes
	}
	validateOrgOptionals(errs, website, industry, size, notes)

	return errs
}

func checkOrgName(errs FieldErrors, name string) {
	switch {
	case strings.TrimSpace(name) == "":
		errs.Add("name", "Name is required")
	case tooLong(name, maxOrgNameLen):
		errs.Add("name", "Name must be at most 200 characters")
	}
}

func validateOrgOptionals(errs FieldErrors, website, industry, size, notes string) {
	if website != "" && !validURL(website) {
		errs.Add("website", "Website must be a valid http or https URL")
	}
	if industry != "" && !inSet(industry, Industries) {
		errs.Add("industry", "Industry must be one of: "+strings.Join(Industries, ", "))
	}
	if size != "" && !inSet(size, Sizes) {
		errs.Add("size", "Size must be one of: "+strings.Join(Sizes, ", "))
	}
	if tooLong(notes, maxNotesLen) {
		errs.Add("notes", "Notes must be at most 10000 characters")
	}
}
