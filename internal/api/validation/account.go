package validation

import (
	"strings"
	"unicode"
)

const (
	minPasswordLen = 8
	maxFullNameLen = 200
)

// Registration mirrors the fields of a registration request.
type Registration struct {
	Email           string
	Password        string
	ConfirmPassword string
	FullName        string
}

// Login mirrors the fields of a login request.
type Login struct {
	Email    string
	Password string
}

// ValidateRegistration validates a registration request. The password
// confirmation check is the one cross-field rule in the system.
func ValidateRegistration(req Registration) FieldErrors {
	errs := FieldErrors{}

	switch {
	case strings.TrimSpace(req.Email) == "":
		errs.Add("email", "Email is required")
	case !validEmail(req.Email):
		errs.Add("email", "Email must be a valid address")
	}

	checkPassword(errs, req.Password)

	if req.ConfirmPassword != req.Password {
		errs.Add("confirmPassword", "Passwords do not match")
	}

	if tooLong(req.FullName, maxFullNameLen) {
		errs.Add("fullName", "Full name must be at most 200 characters")
	}

	return errs
}

// ValidateLogin validates a login request.
func ValidateLogin(req Login) FieldErrors {
	errs := FieldErrors{}

	if strings.TrimSpace(req.Email) == "" {
		errs.Add("email", "Email is required")
	}
	if req.Password == "" {
		errs.Add("password", "Password is required")
	}

	return errs
}

func checkPassword(errs FieldErrors, password string) {
	if len(password) < minPasswordLen {
		errs.Add("password", "Password must be at least 8 characters")
		return
	}

	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasUpper || !hasLower || !hasDigit {
		errs.Add("password", "Password must contain upper and lower case letters and a digit")
	}
}
