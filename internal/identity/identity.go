package identity

import "github.com/google/uuid"

// Identity is a verified caller identity returned by the hosted provider.
type Identity struct {
	ID    uuid.UUID
	Email string
}

// Session is the token pair issued by the provider. It is carried in the
// session cookie and exchanged for an Identity on every request.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
