package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/covecrm/cove/internal/api/middleware"
	"github.com/covecrm/cove/internal/api/response"
	"github.com/covecrm/cove/internal/profile"
)

// AdminHandler handles the admin-only profile endpoints. Routes using it sit
// behind the role middleware.
type AdminHandler struct {
	profiles profile.Repository
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(profiles profile.Repository) *AdminHandler {
	return &AdminHandler{profiles: profiles}
}

// ListProfiles handles GET /admin/profiles.
func (h *AdminHandler) ListProfiles(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	page, limit := 1, 20
	if !parsePagination(w, r, &page, &limit, requestID) {
		return
	}

	result, err := h.profiles.List(r.Context(), page, limit)
	if err != nil {
		slog.Error("failed to list profiles", "error", err, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, "Failed to list profiles", requestID)
		return
	}

	items := make([]profileResponse, 0, len(result.Profiles))
	for i := range result.Profiles {
		items = append(items, toProfileResponse(&result.Profiles[i]))
	}

	response.SuccessList(w, http.StatusOK, items, result.Total, result.Page, result.Limit, requestID)
}

type updateRoleRequest struct {
	Role string `json:"role"`
}

// UpdateRole handles PATCH /admin/profiles/{id}/role. Only super admins
// reach this handler; they may not change their own role.
func (h *AdminHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id := callerIdentity(w, r)
	if id == nil {
		return
	}

	targetID, ok := parseID(w, r, requestID)
	if !ok {
		return
	}

	if targetID == id.ID {
		response.Err(w, http.StatusBadRequest, "Cannot change your own role", requestID)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req updateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "Request body must be valid JSON", requestID)
		return
	}

	if !profile.ValidRole(req.Role) {
		response.FieldErrors(w, map[string][]string{"role": {"Role must be one of: user, admin, super_admin"}}, requestID)
		return
	}

	p, err := h.profiles.UpdateRole(r.Context(), targetID, req.Role)
	if err != nil {
		if errors.Is(err, profile.ErrNotFound) {
			response.Err(w, http.StatusNotFound, "Profile not found", requestID)
			return
		}
		slog.Error("failed to update profile role", "error", err, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, "Failed to update role", requestID)
		return
	}

	response.Success(w, http.StatusOK, toProfileResponse(p), requestID)
}
