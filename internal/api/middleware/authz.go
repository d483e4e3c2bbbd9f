package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/covecrm/cove/internal/api/response"
	"github.com/covecrm/cove/internal/profile"
)

// RequireIdentity returns middleware that rejects unauthenticated requests
// with a 401 structured result. Handlers still re-check the identity
// themselves before mutating anything.
func RequireIdentity() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if GetIdentity(r.Context()) == nil {
				response.Err(w, http.StatusUnauthorized, "Authentication required", GetRequestID(r.Context()))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole returns middleware that loads the caller's profile and rejects
// roles not in the allowed list with 403.
func RequireRole(profiles profile.Repository, roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := GetRequestID(r.Context())

			id := GetIdentity(r.Context())
			if id == nil {
				response.Err(w, http.StatusUnauthorized, "Authentication required", requestID)
				return
			}

			p, err := profiles.GetByID(r.Context(), id.ID)
			if err != nil {
				if errors.Is(err, profile.ErrNotFound) {
					response.Err(w, http.StatusForbidden, "Insufficient permissions", requestID)
					return
				}
				slog.Error("failed to load profile for role check", "error", err)
				response.Err(w, http.StatusInternalServerError, "Authorization failed", requestID)
				return
			}

			if !allowed[p.Role] {
				response.Err(w, http.StatusForbidden, "Insufficient permissions", requestID)
				return
			}

			next.ServeHTTP(w, r.WithContext(withProfile(r.Context(), p)))
		})
	}
}

const profileKey contextKey = "profile"

func withProfile(ctx context.Context, p *profile.Profile) context.Context {
	return context.WithValue(ctx, profileKey, p)
}

// GetProfile retrieves the caller's profile from the context when a role
// middleware has loaded it.
func GetProfile(ctx context.Context) *profile.Profile {
	if p, ok := ctx.Value(profileKey).(*profile.Profile); ok {
		return p
	}
	return nil
}
