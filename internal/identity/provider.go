package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrUnauthenticated is returned when the provider does not recognize the
// presented credentials or token. Every verification failure collapses into
// this error; callers treat it as "no identity", never as a transient fault.
var ErrUnauthenticated = errors.New("unauthenticated")

// ErrEmailTaken is returned when registering an email the provider already knows.
var ErrEmailTaken = errors.New("email already registered")

// Provider is an HTTP client for the hosted identity service. Tokens are
// always verified remotely; a locally decoded token is never accepted as
// proof of identity.
type Provider struct {
	baseURL    string
	serviceKey string
	client     *http.Client
}

// NewProvider creates a Provider for the identity service at baseURL.
// A nil client falls back to a default with a 10s timeout.
func NewProvider(baseURL, serviceKey string, client *http.Client) *Provider {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Provider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		serviceKey: serviceKey,
		client:     client,
	}
}

type credentialsRequest struct {
	Email        string `json:"email,omitempty"`
	Password     string `json:"password,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

type tokenResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         userResponse `json:"user"`
}

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// SignUp registers a new account and returns the identity plus an initial session.
func (p *Provider) SignUp(ctx context.Context, email, password string) (*Identity, *Session, error) {
	body := credentialsRequest{Email: email, Password: password}
	resp, err := p.do(ctx, http.MethodPost, "/signup", "", body)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusConflict || resp.StatusCode == http.StatusUnprocessableEntity:
		return nil, nil, ErrEmailTaken
	default:
		return nil, nil, fmt.Errorf("identity provider signup: unexpected status %d", resp.StatusCode)
	}

	return decodeTokenResponse(resp.Body)
}

// SignIn exchanges email/password credentials for a session (password grant).
func (p *Provider) SignIn(ctx context.Context, email, password string) (*Identity, *Session, error) {
	body := credentialsRequest{Email: email, Password: password}
	resp, err := p.do(ctx, http.MethodPost, "/token?grant_type=password", "", body)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, ErrUnauthenticated
	}

	return decodeTokenResponse(resp.Body)
}

// Introspect verifies an access token with the provider and returns the
// identity it belongs to. Any non-OK answer means unauthenticated.
func (p *Provider) Introspect(ctx context.Context, accessToken string) (*Identity, error) {
	resp, err := p.do(ctx, http.MethodGet, "/user", accessToken, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ErrUnauthenticated
	}

	var u userResponse
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return nil, fmt.Errorf("decoding introspection response: %w", err)
	}
	return u.toIdentity()
}

// Refresh exchanges a refresh token for a fresh session (refresh grant).
func (p *Provider) Refresh(ctx context.Context, refreshToken string) (*Identity, *Session, error) {
	body := credentialsRequest{RefreshToken: refreshToken}
	resp, err := p.do(ctx, http.MethodPost, "/token?grant_type=refresh_token", "", body)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, ErrUnauthenticated
	}

	return decodeTokenResponse(resp.Body)
}

// SignOut revokes the session behind the access token. A failed revocation
// is reported but the local cookie is cleared regardless by the caller.
func (p *Provider) SignOut(ctx context.Context, accessToken string) error {
	resp, err := p.do(ctx, http.MethodPost, "/logout", accessToken, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("identity provider logout: unexpected status %d", resp.StatusCode)
	}
	return nil
}

func (p *Provider) do(ctx context.Context, method, path, bearer string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding provider request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("building provider request: %w", err)
	}
	req.Header.Set("apikey", p.serviceKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling identity provider: %w", err)
	}
	return resp, nil
}

func decodeTokenResponse(r io.Reader) (*Identity, *Session, error) {
	var tok tokenResponse
	if err := json.NewDecoder(r).Decode(&tok); err != nil {
		return nil, nil, fmt.Errorf("decoding token response: %w", err)
	}
	id, err := tok.User.toIdentity()
	if err != nil {
		return nil, nil, err
	}
	return id, &Session{AccessToken: tok.AccessToken, RefreshToken: tok.RefreshToken}, nil
}

func (u userResponse) toIdentity() (*Identity, error) {
	id, err := uuid.Parse(u.ID)
	if err != nil {
		return nil, fmt.Errorf("provider returned malformed user id %q: %w", u.ID, err)
	}
	return &Identity{ID: id, Email: u.Email}, nil
}
