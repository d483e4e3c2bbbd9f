package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/covecrm/cove/internal/apikey"
	"github.com/covecrm/cove/internal/identity"
)

const identityKey contextKey = "identity"

// Session is middleware that resolves the caller's identity, either from the
// session cookie (verified with the identity provider on every request) or
// from an X-API-Key header. An unresolvable identity is not an error here;
// rejection is the route guard's and the handlers' job.
func Session(validator *identity.Validator, keys *apikey.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if rawKey := r.Header.Get("X-API-Key"); rawKey != "" {
				p, err := keys.Authenticate(r.Context(), rawKey)
				if err == nil {
					id := &identity.Identity{ID: p.ID, Email: p.Email}
					next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
					return
				}
				if !errors.Is(err, apikey.ErrInvalidKey) {
					slog.Error("api key authentication failed", "error", err)
				}
				next.ServeHTTP(w, r)
				return
			}

			id, err := validator.Validate(w, r)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// WithIdentity stores a verified identity in the context. Exposed for
// handler construction outside the middleware chain, e.g. in tests.
func WithIdentity(ctx context.Context, id *identity.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// GetIdentity retrieves the verified Identity from the request context.
// Returns nil when the request is unauthenticated.
func GetIdentity(ctx context.Context) *identity.Identity {
	if id, ok := ctx.Value(identityKey).(*identity.Identity); ok {
		return id
	}
	return nil
}
