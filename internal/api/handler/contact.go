package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/covecrm/cove/internal/api/middleware"
	"github.com/covecrm/cove/internal/api/response"
	"github.com/covecrm/cove/internal/api/validation"
	"github.com/covecrm/cove/internal/audit"
	"github.com/covecrm/cove/internal/contact"
	"github.com/covecrm/cove/internal/viewcache"
)

// createContactRequest is the request body for POST /contacts.
type createContactRequest struct {
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	JobTitle       string `json:"jobTitle"`
	OrganizationID string `json:"organizationId"`
	Notes          string `json:"notes"`
}

// updateContactRequest is the request body for PATCH /contacts/{id}.
// An empty-string organizationId clears the link.
type updateContactRequest struct {
	FirstName      *string `json:"firstName,omitempty"`
	LastName       *string `json:"lastName,omitempty"`
	Email          *string `json:"email,omitempty"`
	Phone          *string `json:"phone,omitempty"`
	JobTitle       *string `json:"jobTitle,omitempty"`
	OrganizationID *string `json:"organizationId,omitempty"`
	Notes          *string `json:"notes,omitempty"`
}

// contactResponse is the API representation of a contact record.
type contactResponse struct {
	ID             string  `json:"id"`
	FirstName      string  `json:"firstName"`
	LastName       string  `json:"lastName"`
	Email          string  `json:"email"`
	Phone          string  `json:"phone,omitempty"`
	JobTitle       string  `json:"jobTitle,omitempty"`
	OrganizationID *string `json:"organizationId,omitempty"`
	Notes          string  `json:"notes,omitempty"`
	CreatedAt      string  `json:"createdAt"`
	UpdatedAt      string  `json:"updatedAt"`
}

func toContactResponse(c *contact.Contact) contactResponse {
	resp := contactResponse{
		ID:        c.ID.String(),
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Email:     c.Email,
		Phone:     c.Phone,
		JobTitle:  c.JobTitle,
		Notes:     c.Notes,
		CreatedAt: c.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		UpdatedAt: c.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
	if c.OrganizationID != nil {
		s := c.OrganizationID.String()
		resp.OrganizationID = &s
	}
	return resp
}

// ContactHandler handles contact CRUD endpoints.
type ContactHandler struct {
	repo  contact.Repository
	views *viewcache.Versions
	audit audit.Recorder
}

// NewContactHandler creates a new ContactHandler.
func NewContactHandler(repo contact.Repository, views *viewcache.Versions, rec audit.Recorder) *ContactHandler {
	return &ContactHandler{repo: repo, views: views, audit: rec}
}

// Create handles POST /contacts.
func (h *ContactHandler) Create(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id := callerIdentity(w, r)
	if id == nil {
		return
	}

	var req createContactRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Email = strings.TrimSpace(req.Email)

	fieldErrors := validation.ValidateContactCreate(validation.ContactCreate{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Email:          req.Email,
		Phone:          req.Phone,
		JobTitle:       req.JobTitle,
		OrganizationID: req.OrganizationID,
		Notes:          req.Notes,
	})
	if len(fieldErrors) > 0 {
		response.FieldErrors(w, fieldErrors, requestID)
		return
	}

	c := &contact.Contact{
		OwnerID:   id.ID,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     strings.TrimSpace(req.Phone),
		JobTitle:  strings.TrimSpace(req.JobTitle),
		Notes:     sanitizeNotes(req.Notes),
	}
	if req.OrganizationID != "" {
		orgID, _ := uuid.Parse(req.OrganizationID) // validated above
		c.OrganizationID = &orgID
	}

	if err := h.repo.Create(r.Context(), c); err != nil {
		switch {
		case errors.Is(err, contact.ErrDuplicateEmail):
			response.Err(w, http.StatusConflict, "A contact with this email already exists", requestID)
		case errors.Is(err, contact.ErrOrganizationNotFound):
			response.FieldErrors(w, validation.FieldErrors{"organizationId": {"Organization not found"}}, requestID)
		default:
			slog.Error("failed to create contact", "error", err, "requestId", requestID)
			response.Err(w, http.StatusInternalServerError, "Failed to create contact", requestID)
		}
		return
	}

	h.views.Bump(id.ID, viewcache.Contacts)
	h.audit.Record(r.Context(), audit.Entry{ActorID: id.ID, Entity: "contact", EntityID: c.ID, Action: audit.ActionCreate})

	response.Success(w, http.StatusCreated, toContactResponse(c), requestID)
}

// List handles GET /contacts.
func (h *ContactHandler) List(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id := callerIdentity(w, r)
	if id == nil {
		return
	}

	etag := h.views.ETag(id.ID, viewcache.Contacts)
	if etagMatches(r.Header.Get("If-None-Match"), etag) {
		response.NotModified(w)
		return
	}

	filter := contact.ListFilter{Page: 1, Limit: 20}
	if v := r.URL.Query().Get("search"); v != "" {
		filter.Search = &v
	}
	if v := r.URL.Query().Get("organization_id"); v != "" {
		orgID, err := uuid.Parse(v)
		if err != nil {
			response.Err(w, http.StatusBadRequest, "organization_id must be a valid UUID", requestID)
			return
		}
		filter.OrganizationID = &orgID
	}
	if !parsePagination(w, r, &filter.Page, &filter.Limit, requestID) {
		return
	}

	result, err := h.repo.List(r.Context(), id.ID, filter)
	if err != nil {
		slog.Error("failed to list contacts", "error", err, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, "Failed to list contacts", requestID)
		return
	}

	items := make([]contactResponse, 0, len(result.Contacts))
	for i := range result.Contacts {
		items = append(items, toContactResponse(&result.Contacts[i]))
	}

	w.Header().Set("ETag", etag)
	response.SuccessList(w, http.StatusOK, items, result.Total, result.Page, result.Limit, requestID)
}

// GetByID handles GET /contacts/{id}.
func (h *ContactHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id := callerIdentity(w, r)
	if id == nil {
		return
	}

	contactID, ok := parseID(w, r, requestID)
	if !ok {
		return
	}

	c, err := h.repo.GetByID(r.Context(), id.ID, contactID)
	if err != nil {
		if errors.Is(err, contact.ErrNotFound) {
			response.Err(w, http.StatusNotFound, "Contact not found", requestID)
			return
		}
		slog.Error("failed to get contact", "error", err, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, "Failed to get contact", requestID)
		return
	}

	response.Success(w, http.StatusOK, toContactResponse(c), requestID)
}

// Update handles PATCH /contacts/{id}.
func (h *ContactHandler) Update(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id := callerIdentity(w, r)
	if id == nil {
		return
	}

	contactID, ok := parseID(w, r, requestID)
	if !ok {
		return
	}

	var req updateContactRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	fieldErrors := validation.ValidateContactUpdate(validation.ContactUpdate{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Email:          req.Email,
		Phone:          req.Phone,
		JobTitle:       req.JobTitle,
		OrganizationID: req.OrganizationID,
		Notes:          req.Notes,
	})
	if len(fieldErrors) > 0 {
		response.FieldErrors(w, fieldErrors, requestID)
		return
	}

	fields := contact.UpdateFields{
		FirstName: trimmed(req.FirstName),
		LastName:  trimmed(req.LastName),
		Email:     trimmed(req.Email),
		Phone:     trimmed(req.Phone),
		JobTitle:  trimmed(req.JobTitle),
	}
	if req.OrganizationID != nil {
		if *req.OrganizationID == "" {
			fields.ClearOrganization = true
		} else {
			orgID, _ := uuid.Parse(*req.OrganizationID) // validated above
			fields.OrganizationID = &orgID
		}
	}
	if req.Notes != nil {
		clean := sanitizeNotes(*req.Notes)
		fields.Notes = &clean
	}

	c, err := h.repo.Update(r.Context(), id.ID, contactID, fields)
	if err != nil {
		switch {
		case errors.Is(err, contact.ErrNotFound):
			response.Err(w, http.StatusNotFound, "Contact not found", requestID)
		case errors.Is(err, contact.ErrDuplicateEmail):
			response.Err(w, http.StatusConflict, "A contact with this email already exists", requestID)
		case errors.Is(err, contact.ErrOrganizationNotFound):
			response.FieldErrors(w, validation.FieldErrors{"organizationId": {"Organization not found"}}, requestID)
		default:
			slog.Error("failed to update contact", "error", err, "requestId", requestID)
			response.Err(w, http.StatusInternalServerError, "Failed to update contact", requestID)
		}
		return
	}

	h.views.Bump(id.ID, viewcache.Contacts)
	h.audit.Record(r.Context(), audit.Entry{ActorID: id.ID, Entity: "contact", EntityID: c.ID, Action: audit.ActionUpdate})

	response.Success(w, http.StatusOK, toContactResponse(c), requestID)
}

// Delete handles DELETE /contacts/{id}.
func (h *ContactHandler) Delete(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id := callerIdentity(w, r)
	if id == nil {
		return
	}

	contactID, ok := parseID(w, r, requestID)
	if !ok {
		return
	}

	if err := h.repo.Delete(r.Context(), id.ID, contactID); err != nil {
		if errors.Is(err, contact.ErrNotFound) {
			response.Err(w, http.StatusNotFound, "Contact not found", requestID)
			return
		}
		slog.Error("failed to delete contact", "error", err, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, "Failed to delete contact", requestID)
		return
	}

	h.views.Bump(id.ID, viewcache.Contacts)
	h.audit.Record(r.Context(), audit.Entry{ActorID: id.ID, Entity: "contact", EntityID: contactID, Action: audit.ActionDelete})

	response.Success(w, http.StatusOK, nil, requestID)
}

// parseID reads the {id} URL parameter as a UUID, writing a 400 on failure.
func parseID(w http.ResponseWriter, r *http.Request, requestID string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "id must be a valid UUID", requestID)
		return uuid.Nil, false
	}
	return id, true
}

// parsePagination reads page/limit query parameters, writing a 400 on failure.
func parsePagination(w http.ResponseWriter, r *http.Request, page, limit *int, requestID string) bool {
	if v := r.URL.Query().Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			response.Err(w, http.StatusBadRequest, "page must be a positive integer", requestID)
			return false
		}
		*page = n
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			response.Err(w, http.StatusBadRequest, "limit must be a positive integer", requestID)
			return false
		}
		*limit = n
	}
	return true
}

// trimmed maps an optional string to its trimmed form, preserving nil.
func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}
