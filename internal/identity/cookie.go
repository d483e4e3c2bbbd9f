package identity

import (
	"net/http"

	"github.com/gorilla/securecookie"
)

// SessionCookie is the name of the cookie carrying the token pair.
const SessionCookie = "cove_session"

// CookieCodec encodes and decodes the session cookie. The cookie value is
// authenticated (and, with a block key, encrypted) by securecookie; the
// tokens inside are still verified with the provider on every request.
type CookieCodec struct {
	sc     *securecookie.SecureCookie
	secure bool
}

// NewCookieCodec creates a codec. blockKey may be nil to disable encryption.
func NewCookieCodec(hashKey, blockKey []byte, secure bool) *CookieCodec {
	return &CookieCodec{
		sc:     securecookie.New(hashKey, blockKey),
		secure: secure,
	}
}

// Read extracts the session token pair from the request cookie.
// A missing or undecodable cookie yields ErrUnauthenticated.
func (c *CookieCodec) Read(r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		return nil, ErrUnauthenticated
	}

	var s Session
	if err := c.sc.Decode(SessionCookie, cookie.Value, &s); err != nil {
		return nil, ErrUnauthenticated
	}
	return &s, nil
}

// Write sets (or rotates) the session cookie.
func (c *CookieCodec) Write(w http.ResponseWriter, s *Session) error {
	encoded, err := c.sc.Encode(SessionCookie, s)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    encoded,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Clear expires the session cookie.
func (c *CookieCodec) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
