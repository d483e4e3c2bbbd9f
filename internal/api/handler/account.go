package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/covecrm/cove/internal/api/middleware"
	"github.com/covecrm/cove/internal/api/response"
	"github.com/covecrm/cove/internal/api/validation"
	"github.com/covecrm/cove/internal/identity"
	"github.com/covecrm/cove/internal/profile"
)

// registerRequest is the request body for POST /auth/register.
type registerRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	FullName        string `json:"fullName"`
}

// loginRequest is the request body for POST /auth/login.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// profileResponse is the API representation of a profile record.
type profileResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FullName  string `json:"fullName,omitempty"`
	Role      string `json:"role"`
	Plan      string `json:"plan"`
	CreatedAt string `json:"createdAt"`
}

func toProfileResponse(p *profile.Profile) profileResponse {
	return profileResponse{
		ID:        p.ID.String(),
		Email:     p.Email,
		FullName:  p.FullName,
		Role:      p.Role,
		Plan:      p.Plan,
		CreatedAt: p.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}

// AccountHandler handles registration, login, logout and the current-user endpoint.
type AccountHandler struct {
	provider  *identity.Provider
	validator *identity.Validator
	profiles  profile.Repository
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(provider *identity.Provider, validator *identity.Validator, profiles profile.Repository) *AccountHandler {
	return &AccountHandler{provider: provider, validator: validator, profiles: profiles}
}

// Register handles POST /auth/register. The identity provider owns password
// hashing and email delivery; the local profile row is created here, before
// any owned entity may reference the new identity.
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	fieldErrors := validation.ValidateRegistration(validation.Registration{
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		FullName:        req.FullName,
	})
	if len(fieldErrors) > 0 {
		response.FieldErrors(w, fieldErrors, requestID)
		return
	}

	id, sess, err := h.provider.SignUp(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, identity.ErrEmailTaken) {
			response.Err(w, http.StatusConflict, "An account with this email already exists", requestID)
			return
		}
		slog.Error("provider signup failed", "error", err, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, "Registration failed", requestID)
		return
	}

	p := &profile.Profile{
		ID:       id.ID,
		Email:    id.Email,
		FullName: strings.TrimSpace(req.FullName),
	}
	if err := h.profiles.Create(r.Context(), p); err != nil && !errors.Is(err, profile.ErrDuplicate) {
		slog.Error("failed to create profile", "error", err, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, "Registration failed", requestID)
		return
	}

	if err := h.validator.Establish(w, sess); err != nil {
		slog.Error("failed to set session cookie", "error", err, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, "Registration failed", requestID)
		return
	}

	response.Success(w, http.StatusCreated, toProfileResponse(p), requestID)
}

// Login handles POST /auth/login.
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	fieldErrors := validation.ValidateLogin(validation.Login{Email: req.Email, Password: req.Password})
	if len(fieldErrors) > 0 {
		response.FieldErrors(w, fieldErrors, requestID)
		return
	}

	id, sess, err := h.provider.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, identity.ErrUnauthenticated) {
			response.Err(w, http.StatusUnauthorized, "Invalid email or password", requestID)
			return
		}
		slog.Error("provider signin failed", "error", err, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, "Login failed", requestID)
		return
	}

	p, err := h.profiles.GetByID(r.Context(), id.ID)
	if errors.Is(err, profile.ErrNotFound) {
		// Identity exists at the provider but the local row is missing
		// (e.g. created out of band). Recreate it.
		p = &profile.Profile{ID: id.ID, Email: id.Email}
		err = h.profiles.Create(r.Context(), p)
	}
	if err != nil {
		slog.Error("failed to load profile", "error", err, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, "Login failed", requestID)
		return
	}

	if err := h.validator.Establish(w, sess); err != nil {
		slog.Error("failed to set session cookie", "error", err, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, "Login failed", requestID)
		return
	}

	response.Success(w, http.StatusOK, toProfileResponse(p), requestID)
}

// Logout handles POST /auth/logout. The provider revocation is best effort;
// the cookie is always cleared.
func (h *AccountHandler) Logout(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	h.validator.SignOut(w, r)
	response.Success(w, http.StatusOK, nil, requestID)
}

// Me handles GET /profile. It returns the caller's profile record.
func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id := callerIdentity(w, r)
	if id == nil {
		return
	}

	p, err := h.profiles.GetByID(r.Context(), id.ID)
	if err != nil {
		if errors.Is(err, profile.ErrNotFound) {
			response.Err(w, http.StatusNotFound, "Profile not found", requestID)
			return
		}
		slog.Error("failed to get profile", "error", err, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, "Failed to get profile", requestID)
		return
	}

	response.Success(w, http.StatusOK, toProfileResponse(p), requestID)
}
