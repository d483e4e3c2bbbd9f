package identity

import (
	"errors"
	"log/slog"
	"net/http"
)

// Validator resolves an inbound request's session cookie to a verified
// Identity. Verification always round-trips to the provider; the only side
// effect is a cookie rotation when an expired access token is refreshed.
type Validator struct {
	provider *Provider
	cookies  *CookieCodec
}

// NewValidator creates a Validator from a provider client and cookie codec.
func NewValidator(provider *Provider, cookies *CookieCodec) *Validator {
	return &Validator{provider: provider, cookies: cookies}
}

// Validate returns the verified identity for the request, or
// ErrUnauthenticated. When the access token fails introspection but a
// refresh token is present, one refresh grant is attempted; on success the
// rotated session is written back to the response.
func (v *Validator) Validate(w http.ResponseWriter, r *http.Request) (*Identity, error) {
	sess, err := v.cookies.Read(r)
	if err != nil {
		return nil, ErrUnauthenticated
	}

	id, err := v.provider.Introspect(r.Context(), sess.AccessToken)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, ErrUnauthenticated) || sess.RefreshToken == "" {
		return nil, ErrUnauthenticated
	}

	id, rotated, err := v.provider.Refresh(r.Context(), sess.RefreshToken)
	if err != nil {
		return nil, ErrUnauthenticated
	}

	if err := v.cookies.Write(w, rotated); err != nil {
		slog.Error("failed to rotate session cookie", "error", err)
	}

	return id, nil
}

// SignOut revokes the request's session with the provider (best effort) and
// clears the cookie.
func (v *Validator) SignOut(w http.ResponseWriter, r *http.Request) {
	if sess, err := v.cookies.Read(r); err == nil {
		if err := v.provider.SignOut(r.Context(), sess.AccessToken); err != nil {
			slog.Warn("provider signout failed", "error", err)
		}
	}
	v.cookies.Clear(w)
}

// Establish writes a freshly issued session to the response cookie.
func (v *Validator) Establish(w http.ResponseWriter, s *Session) error {
	return v.cookies.Write(w, s)
}
