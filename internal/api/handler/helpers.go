package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/covecrm/cove/internal/api/middleware"
	"github.com/covecrm/cove/internal/api/response"
	"github.com/covecrm/cove/internal/identity"
)

const maxBodyBytes = 1 << 20 // 1MB limit

// notesPolicy strips all markup from free-form notes fields.
var notesPolicy = bluemonday.StrictPolicy()

func sanitizeNotes(s string) string {
	return notesPolicy.Sanitize(s)
}

// etagMatches reports whether an If-None-Match header matches the current
// entity tag. The header may carry "*", a single tag, or a comma-separated
// list, each optionally weak ("W/..."); comparison ignores the weak marker,
// as RFC 9110 prescribes for If-None-Match.
func etagMatches(header, etag string) bool {
	if header == "" {
		return false
	}
	if strings.TrimSpace(header) == "*" {
		return true
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		candidate = strings.TrimPrefix(candidate, "W/")
		if candidate == etag {
			return true
		}
	}
	return false
}

// decodeJSON decodes the request body into dst. On failure it writes the 400
// response itself and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		response.Err(w, http.StatusBadRequest, "Request body must be valid JSON", middleware.GetRequestID(r.Context()))
		return false
	}
	return true
}

// callerIdentity re-resolves the verified identity from the context. On an
// absent identity it writes the 401 response itself and returns nil: the
// mutation performs no further work.
func callerIdentity(w http.ResponseWriter, r *http.Request) *identity.Identity {
	id := middleware.GetIdentity(r.Context())
	if id == nil {
		response.Err(w, http.StatusUnauthorized, "Authentication required", middleware.GetRequestID(r.Context()))
	}
	return id
}
