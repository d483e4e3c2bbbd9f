// Package validation holds the per-entity input contracts. Validators are
// pure: they inspect a request struct and return a field -> messages map,
// shared by every mutation entry point before any data-layer call.
package validation

import (
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// FieldErrors maps a field name to its validation messages. An empty map
// means the input is valid.
type FieldErrors map[string][]string

// Add appends a message for a field.
func (e FieldErrors) Add(field, message string) {
	e[field] = append(e[field], message)
}

var (
	emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRegex = regexp.MustCompile(`^\+?[0-9][0-9\s\-().]{5,24}$`)
)

func validEmail(s string) bool {
	return len(s) <= 254 && emailRegex.MatchString(s)
}

func validPhone(s string) bool {
	return phoneRegex.MatchString(s)
}

func validURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func validUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

func inSet(s string, set []string) bool {
	for _, v := range set {
		if s == v {
			return true
		}
	}
	return false
}

// tooLong counts runes, not bytes: limits are phrased as "characters" in the
// user-facing messages and multibyte names must not hit them early.
func tooLong(s string, max int) bool {
	return utf8.RuneCountInString(strings.TrimSpace(s)) > max
}
