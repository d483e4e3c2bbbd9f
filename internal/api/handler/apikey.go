package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/covecrm/cove/internal/api/middleware"
	"github.com/covecrm/cove/internal/api/response"
	"github.com/covecrm/cove/internal/apikey"
)

// createKeyRequest is the request body for POST /profile/apikeys.
type createKeyRequest struct {
	Name string `json:"name"`
}

// keyResponse is the API representation of an API key record. The raw key
// appears only in the creation response.
type keyResponse struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Prefix    string  `json:"prefix"`
	Key       string  `json:"key,omitempty"`
	CreatedAt string  `json:"createdAt"`
	RevokedAt *string `json:"revokedAt,omitempty"`
}

func toKeyResponse(k *apikey.Key, rawKey string) keyResponse {
	resp := keyResponse{
		ID:        k.ID.String(),
		Name:      k.Name,
		Prefix:    k.Prefix,
		Key:       rawKey,
		CreatedAt: k.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
	if k.RevokedAt != nil {
		s := k.RevokedAt.UTC().Format("2006-01-02T15:04:05Z")
		resp.RevokedAt = &s
	}
	return resp
}

// APIKeyHandler handles the integration API key endpoints.
type APIKeyHandler struct {
	service *apikey.Service
	repo    apikey.Repository
}

// NewAPIKeyHandler creates a new APIKeyHandler.
func NewAPIKeyHandler(service *apikey.Service, repo apikey.Repository) *APIKeyHandler {
	return &APIKeyHandler{service: service, repo: repo}
}

// Create handles POST /profile/apikeys.
func (h *APIKeyHandler) Create(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id := callerIdentity(w, r)
	if id == nil {
		return
	}

	var req createKeyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || len(req.Name) > 100 {
		response.FieldErrors(w, map[string][]string{"name": {"Name is required and must be at most 100 characters"}}, requestID)
		return
	}

	rawKey, k, err := h.service.Generate(r.Context(), id.ID, req.Name)
	if err != nil {
		slog.Error("failed to create api key", "error", err, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, "Failed to create API key", requestID)
		return
	}

	response.Success(w, http.StatusCreated, toKeyResponse(k, rawKey), requestID)
}

// List handles GET /profile/apikeys.
func (h *APIKeyHandler) List(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id := callerIdentity(w, r)
	if id == nil {
		return
	}

	keys, err := h.repo.ListByProfile(r.Context(), id.ID)
	if err != nil {
		slog.Error("failed to list api keys", "error", err, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, "Failed to list API keys", requestID)
		return
	}

	items := make([]keyResponse, 0, len(keys))
	for i := range keys {
		items = append(items, toKeyResponse(&keys[i], ""))
	}

	response.Success(w, http.StatusOK, items, requestID)
}

// Revoke handles DELETE /profile/apikeys/{id}. A key that is absent, already
// revoked, or owned by someone else reports not found.
func (h *APIKeyHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id := callerIdentity(w, r)
	if id == nil {
		return
	}

	keyID, ok := parseID(w, r, requestID)
	if !ok {
		return
	}

	if err := h.repo.Revoke(r.Context(), id.ID, keyID); err != nil {
		if errors.Is(err, apikey.ErrNotFound) {
			response.Err(w, http.StatusNotFound, "API key not found", requestID)
			return
		}
		slog.Error("failed to revoke api key", "error", err, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, "Failed to revoke API key", requestID)
		return
	}

	response.Success(w, http.StatusOK, nil, requestID)
}
