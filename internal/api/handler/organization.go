package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/covecrm/cove/internal/api/middleware"
	"github.com/covecrm/cove/internal/api/response"
	"github.com/covecrm/cove/internal/api/validation"
	"github.com/covecrm/cove/internal/audit"
	"github.com/covecrm/cove/internal/organization"
	"github.com/covecrm/cove/internal/viewcache"
)

// createOrganizationRequest is the request body for POST /organizations.
type createOrganizationRequest struct {
	Name     string `json:"name"`
	Website  string `json:"website"`
	Industry string `json:"industry"`
	Size     string `json:"size"`
	Notes    string `json:"notes"`
}

// updateOrganizationRequest is the request body for PATCH /organizations/{id}.
type updateOrganizationRequest struct {
	Name     *string `json:"name,omitempty"`
	Website  *string `json:"website,omitempty"`
	Industry *string `json:"industry,omitempty"`
	Size     *string `json:"size,omitempty"`
	Notes    *string `json:"notes,omitempty"`
}

// organizationResponse is the API representation of an organization record.
type organizationResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Website   string `json:"website,omitempty"`
	Industry  string `json:"industry,omitempty"`
	Size      string `json:"size,omitempty"`
	Notes     string `json:"notes,omitempty"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

func toOrganizationResponse(o *organization.Organization) organizationResponse {
	return organizationResponse{
		ID:        o.ID.String(),
		Name:      o.Name,
		Website:   o.Website,
		Industry:  o.Industry,
		Size:      o.Size,
		Notes:     o.Notes,
		CreatedAt: o.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		UpdatedAt: o.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}

// OrganizationHandler handles organization CRUD endpoints.
type OrganizationHandler struct {
	repo  organization.Repository
	views *viewcache.Versions
	audit audit.Recorder
}

// NewOrganizationHandler creates a new OrganizationHandler.
func NewOrganizationHandler(repo organization.Repository, views *viewcache.Versions, rec audit.Recorder) *OrganizationHandler {
	return &OrganizationHandler{repo: repo, views: views, audit: rec}
}

// Create handles POST /organizations.
func (h *OrganizationHandler) Create(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id := callerIdentity(w, r)
	if id == nil {
		return
	}

	var req createOrganizationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	req.Name = strings.TrimSpace(req.Name)

	fieldErrors := validation.ValidateOrganizationCreate(validation.OrganizationCreate{
		Name:     req.Name,
		Website:  req.Website,
		Industry: req.Industry,
		Size:     req.Size,
		Notes:    req.Notes,
	})
	if len(fieldErrors) > 0 {
		response.FieldErrors(w, fieldErrors, requestID)
		return
	}

	o := &organization.Organization{
		OwnerID:  id.ID,
		Name:     req.Name,
		Website:  strings.TrimSpace(req.Website),
		Industry: req.Industry,
		Size:     req.Size,
		Notes:    sanitizeNotes(req.Notes),
	}

	if err := h.repo.Create(r.Context(), o); err != nil {
		if errors.Is(err, organization.ErrDuplicateName) {
			response.Err(w, http.StatusConflict, "An organization with this name already exists", requestID)
			return
		}
		slog.Error("failed to create organization", "error", err, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, "Failed to create organization", requestID)
		return
	}

	h.views.Bump(id.ID, viewcache.Organizations)
	h.audit.Record(r.Context(), audit.Entry{ActorID: id.ID, Entity: "organization", EntityID: o.ID, Action: audit.ActionCreate})

	response.Success(w, http.StatusCreated, toOrganizationResponse(o), requestID)
}

// List handles GET /organizations.
func (h *OrganizationHandler) List(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id := callerIdentity(w, r)
	if id == nil {
		return
	}

	etag := h.views.ETag(id.ID, viewcache.Organizations)
	if etagMatches(r.Header.Get("If-None-Match"), etag) {
		response.NotModified(w)
		return
	}

	filter := organization.ListFilter{Page: 1, Limit: 20}
	if v := r.URL.Query().Get("search"); v != "" {
		filter.Search = &v
	}
	if v := r.URL.Query().Get("industry"); v != "" {
		filter.Industry = &v
	}
	if !parsePagination(w, r, &filter.Page, &filter.Limit, requestID) {
		return
	}

	result, err := h.repo.List(r.Context(), id.ID, filter)
	if err != nil {
		slog.Error("failed to list organizations", "error", err, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, "Failed to list organizations", requestID)
		return
	}

	items := make([]organizationResponse, 0, len(result.Organizations))
	for i := range result.Organizations {
		items = append(items, toOrganizationResponse(&result.Organizations[i]))
	}

	w.Header().Set("ETag", etag)
	response.SuccessList(w, http.StatusOK, items, result.Total, result.Page, result.Limit, requestID)
}

// GetByID handles GET /organizations/{id}.
func (h *OrganizationHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id := callerIdentity(w, r)
	if id == nil {
		return
	}

	orgID, ok := parseID(w, r, requestID)
	if !ok {
		return
	}

	o, err := h.repo.GetByID(r.Context(), id.ID, orgID)
	if err != nil {
		if errors.Is(err, organization.ErrNotFound) {
			response.Err(w, http.StatusNotFound, "Organization not found", requestID)
			return
		}
		slog.Error("failed to get organization", "error", err, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, "Failed to get organization", requestID)
		return
	}

	response.Success(w, http.StatusOK, toOrganizationResponse(o), requestID)
}

// Update handles PATCH /organizations/{id}.
func (h *OrganizationHandler) Update(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id := callerIdentity(w, r)
	if id == nil {
		return
	}

	orgID, ok := parseID(w, r, requestID)
	if !ok {
		return
	}

	var req updateOrganizationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	fieldErrors := validation.ValidateOrganizationUpdate(validation.OrganizationUpdate{
		Name:     req.Name,
		Website:  req.Website,
		Industry: req.Industry,
		Size:     req.Size,
		Notes:    req.Notes,
	})
	if len(fieldErrors) > 0 {
		response.FieldErrors(w, fieldErrors, requestID)
		return
	}

	fields := organization.UpdateFields{
		Name:     trimmed(req.Name),
		Website:  trimmed(req.Website),
		Industry: req.Industry,
		Size:     req.Size,
	}
	if req.Notes != nil {
		clean := sanitizeNotes(*req.Notes)
		fields.Notes = &clean
	}

	o, err := h.repo.Update(r.Context(), id.ID, orgID, fields)
	if err != nil {
		switch {
		case errors.Is(err, organization.ErrNotFound):
			response.Err(w, http.StatusNotFound, "Organization not found", requestID)
		case errors.Is(err, organization.ErrDuplicateName):
			response.Err(w, http.StatusConflict, "An organization with this name already exists", requestID)
		default:
			slog.Error("failed to update organization", "error", err, "requestId", requestID)
			response.Err(w, http.StatusInternalServerError, "Failed to update organization", requestID)
		}
		return
	}

	h.views.Bump(id.ID, viewcache.Organizations)
	h.audit.Record(r.Context(), audit.Entry{ActorID: id.ID, Entity: "organization", EntityID: o.ID, Action: audit.ActionUpdate})

	response.Success(w, http.StatusOK, toOrganizationResponse(o), requestID)
}

// Delete handles DELETE /organizations/{id}. Contacts and deals linked to
// the organization keep existing; the schema nulls their link.
func (h *OrganizationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id := callerIdentity(w, r)
	if id == nil {
		return
	}

	orgID, ok := parseID(w, r, requestID)
	if !ok {
		return
	}

	if err := h.repo.Delete(r.Context(), id.ID, orgID); err != nil {
		if errors.Is(err, organization.ErrNotFound) {
			response.Err(w, http.StatusNotFound, "Organization not found", requestID)
			return
		}
		slog.Error("failed to delete organization", "error", err, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, "Failed to delete organization", requestID)
		return
	}

	// Contacts and deals may have lost their organization link.
	h.views.Bump(id.ID, viewcache.Organizations, viewcache.Contacts, viewcache.Deals)
	h.audit.Record(r.Context(), audit.Entry{ActorID: id.ID, Entity: "organization", EntityID: orgID, Action: audit.ActionDelete})

	response.Success(w, http.StatusOK, nil, requestID)
}
