package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/covecrm/cove/internal/api/middleware"
	"github.com/covecrm/cove/internal/api/response"
	"github.com/covecrm/cove/internal/api/validation"
	"github.com/covecrm/cove/internal/audit"
	"github.com/covecrm/cove/internal/deal"
	"github.com/covecrm/cove/internal/viewcache"
)

// createDealRequest is the request body for POST /deals.
type createDealRequest struct {
	Title          string `json:"title"`
	AmountCents    int64  `json:"amountCents"`
	Currency       string `json:"currency"`
	Stage          string `json:"stage"`
	Probability    int    `json:"probability"`
	ContactID      string `json:"contactId"`
	OrganizationID string `json:"organizationId"`
	ExpectedClose  string `json:"expectedClose"`
	Notes          string `json:"notes"`
}

// updateDealRequest is the request body for PATCH /deals/{id}.
// Empty-string link and date fields clear the corresponding value.
type updateDealRequest struct {
	Title          *string `json:"title,omitempty"`
	AmountCents    *int64  `json:"amountCents,omitempty"`
	Currency       *string `json:"currency,omitempty"`
	Stage          *string `json:"stage,omitempty"`
	Probability    *int    `json:"probability,omitempty"`
	ContactID      *string `json:"contactId,omitempty"`
	OrganizationID *string `json:"organizationId,omitempty"`
	ExpectedClose  *string `json:"expectedClose,omitempty"`
	Notes          *string `json:"notes,omitempty"`
}

// dealResponse is the API representation of a deal record.
type dealResponse struct {
	ID             string  `json:"id"`
	Title          string  `json:"title"`
	AmountCents    int64   `json:"amountCents"`
	Currency       string  `json:"currency"`
	Stage          string  `json:"stage"`
	Probability    int     `json:"probability"`
	ContactID      *string `json:"contactId,omitempty"`
	OrganizationID *string `json:"organizationId,omitempty"`
	ExpectedClose  *string `json:"expectedClose,omitempty"`
	Notes          string  `json:"notes,omitempty"`
	CreatedAt      string  `json:"createdAt"`
	UpdatedAt      string  `json:"updatedAt"`
}

func toDealResponse(d *deal.Deal) dealResponse {
	resp := dealResponse{
		ID:          d.ID.String(),
		Title:       d.Title,
		AmountCents: d.AmountCents,
		Currency:    d.Currency,
		Stage:       d.Stage,
		Probability: d.Probability,
		Notes:       d.Notes,
		CreatedAt:   d.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		UpdatedAt:   d.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
	if d.ContactID != nil {
		s := d.ContactID.String()
		resp.ContactID = &s
	}
	if d.OrganizationID != nil {
		s := d.OrganizationID.String()
		resp.OrganizationID = &s
	}
	if d.ExpectedClose != nil {
		s := d.ExpectedClose.UTC().Format("2006-01-02")
		resp.ExpectedClose = &s
	}
	return resp
}

// DealHandler handles deal CRUD endpoints.
type DealHandler struct {
	repo  deal.Repository
	views *viewcache.Versions
	audit audit.Recorder
}

// NewDealHandler creates a new DealHandler.
func NewDealHandler(repo deal.Repository, views *viewcache.Versions, rec audit.Recorder) *DealHandler {
	return &DealHandler{repo: repo, views: views, audit: rec}
}

// Create handles POST /deals.
func (h *DealHandler) Create(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id := callerIdentity(w, r)
	if id == nil {
		return
	}

	var req createDealRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	req.Title = strings.TrimSpace(req.Title)

	fieldErrors := validation.ValidateDealCreate(validation.DealCreate{
		Title:          req.Title,
		AmountCents:    req.AmountCents,
		Currency:       req.Currency,
		Stage:          req.Stage,
		Probability:    req.Probability,
		ContactID:      req.ContactID,
		OrganizationID: req.OrganizationID,
		ExpectedClose:  req.ExpectedClose,
		Notes:          req.Notes,
	})
	if len(fieldErrors) > 0 {
		response.FieldErrors(w, fieldErrors, requestID)
		return
	}

	d := &deal.Deal{
		OwnerID:     id.ID,
		Title:       req.Title,
		AmountCents: req.AmountCents,
		Currency:    req.Currency,
		Stage:       req.Stage,
		Probability: req.Probability,
		Notes:       sanitizeNotes(req.Notes),
	}
	if req.ContactID != "" {
		cid, _ := uuid.Parse(req.ContactID) // validated above
		d.ContactID = &cid
	}
	if req.OrganizationID != "" {
		oid, _ := uuid.Parse(req.OrganizationID) // validated above
		d.OrganizationID = &oid
	}
	if req.ExpectedClose != "" {
		t, _ := validation.ParseExpectedClose(req.ExpectedClose) // validated above
		d.ExpectedClose = &t
	}

	if err := h.repo.Create(r.Context(), d); err != nil {
		switch {
		case errors.Is(err, deal.ErrContactNotFound):
			response.FieldErrors(w, validation.FieldErrors{"contactId": {"Contact not found"}}, requestID)
		case errors.Is(err, deal.ErrOrganizationNotFound):
			response.FieldErrors(w, validation.FieldErrors{"organizationId": {"Organization not found"}}, requestID)
		default:
			slog.Error("failed to create deal", "error", err, "requestId", requestID)
			response.Err(w, http.StatusInternalServerError, "Failed to create deal", requestID)
		}
		return
	}

	h.views.Bump(id.ID, viewcache.Deals)
	h.audit.Record(r.Context(), audit.Entry{ActorID: id.ID, Entity: "deal", EntityID: d.ID, Action: audit.ActionCreate})

	response.Success(w, http.StatusCreated, toDealResponse(d), requestID)
}

// List handles GET /deals.
func (h *DealHandler) List(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id := callerIdentity(w, r)
	if id == nil {
		return
	}

	etag := h.views.ETag(id.ID, viewcache.Deals)
	if etagMatches(r.Header.Get("If-None-Match"), etag) {
		response.NotModified(w)
		return
	}

	filter := deal.ListFilter{Page: 1, Limit: 20}
	if v := r.URL.Query().Get("stage"); v != "" {
		if !validStageFilter(v) {
			response.Err(w, http.StatusBadRequest, "stage must be one of: "+strings.Join(validation.Stages, ", "), requestID)
			return
		}
		filter.Stage = &v
	}
	if v := r.URL.Query().Get("contact_id"); v != "" {
		cid, err := uuid.Parse(v)
		if err != nil {
			response.Err(w, http.StatusBadRequest, "contact_id must be a valid UUID", requestID)
			return
		}
		filter.ContactID = &cid
	}
	if v := r.URL.Query().Get("organization_id"); v != "" {
		oid, err := uuid.Parse(v)
		if err != nil {
			response.Err(w, http.StatusBadRequest, "organization_id must be a valid UUID", requestID)
			return
		}
		filter.OrganizationID = &oid
	}
	if !parsePagination(w, r, &filter.Page, &filter.Limit, requestID) {
		return
	}

	result, err := h.repo.List(r.Context(), id.ID, filter)
	if err != nil {
		slog.Error("failed to list deals", "error", err, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, "Failed to list deals", requestID)
		return
	}

	items := make([]dealResponse, 0, len(result.Deals))
	for i := range result.Deals {
		items = append(items, toDealResponse(&result.Deals[i]))
	}

	w.Header().Set("ETag", etag)
	response.SuccessList(w, http.StatusOK, items, result.Total, result.Page, result.Limit, requestID)
}

// GetByID handles GET /deals/{id}.
func (h *DealHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id := callerIdentity(w, r)
	if id == nil {
		return
	}

	dealID, ok := parseID(w, r, requestID)
	if !ok {
		return
	}

	d, err := h.repo.GetByID(r.Context(), id.ID, dealID)
	if err != nil {
		if errors.Is(err, deal.ErrNotFound) {
			response.Err(w, http.StatusNotFound, "Deal not found", requestID)
			return
		}
		slog.Error("failed to get deal", "error", err, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, "Failed to get deal", requestID)
		return
	}

	response.Success(w, http.StatusOK, toDealResponse(d), requestID)
}

// Update handles PATCH /deals/{id}.
func (h *DealHandler) Update(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id := callerIdentity(w, r)
	if id == nil {
		return
	}

	dealID, ok := parseID(w, r, requestID)
	if !ok {
		return
	}

	var req updateDealRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	fieldErrors := validation.ValidateDealUpdate(validation.DealUpdate{
		Title:          req.Title,
		AmountCents:    req.AmountCents,
		Currency:       req.Currency,
		Stage:          req.Stage,
		Probability:    req.Probability,
		ContactID:      req.ContactID,
		OrganizationID: req.OrganizationID,
		ExpectedClose:  req.ExpectedClose,
		Notes:          req.Notes,
	})
	if len(fieldErrors) > 0 {
		response.FieldErrors(w, fieldErrors, requestID)
		return
	}

	fields := deal.UpdateFields{
		Title:       trimmed(req.Title),
		AmountCents: req.AmountCents,
		Currency:    req.Currency,
		Stage:       req.Stage,
		Probability: req.Probability,
	}
	if req.ContactID != nil {
		if *req.ContactID == "" {
			fields.ClearContact = true
		} else {
			cid, _ := uuid.Parse(*req.ContactID) // validated above
			fields.ContactID = &cid
		}
	}
	if req.OrganizationID != nil {
		if *req.OrganizationID == "" {
			fields.ClearOrganization = true
		} else {
			oid, _ := uuid.Parse(*req.OrganizationID) // validated above
			fields.OrganizationID = &oid
		}
	}
	if req.ExpectedClose != nil {
		if *req.ExpectedClose == "" {
			fields.ClearExpectedClose = true
		} else {
			t, _ := validation.ParseExpectedClose(*req.ExpectedClose) // validated above
			fields.ExpectedClose = &t
		}
	}
	if req.Notes != nil {
		clean := sanitizeNotes(*req.Notes)
		fields.Notes = &clean
	}

	d, err := h.repo.Update(r.Context(), id.ID, dealID, fields)
	if err != nil {
		switch {
		case errors.Is(err, deal.ErrNotFound):
			response.Err(w, http.StatusNotFound, "Deal not found", requestID)
		case errors.Is(err, deal.ErrContactNotFound):
			response.FieldErrors(w, validation.FieldErrors{"contactId": {"Contact not found"}}, requestID)
		case errors.Is(err, deal.ErrOrganizationNotFound):
			response.FieldErrors(w, validation.FieldErrors{"organizationId": {"Organization not found"}}, requestID)
		default:
			slog.Error("failed to update deal", "error", err, "requestId", requestID)
			response.Err(w, http.StatusInternalServerError, "Failed to update deal", requestID)
		}
		return
	}

	h.views.Bump(id.ID, viewcache.Deals)
	h.audit.Record(r.Context(), audit.Entry{ActorID: id.ID, Entity: "deal", EntityID: d.ID, Action: audit.ActionUpdate})

	response.Success(w, http.StatusOK, toDealResponse(d), requestID)
}

// Delete handles DELETE /deals/{id}.
func (h *DealHandler) Delete(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id := callerIdentity(w, r)
	if id == nil {
		return
	}

	dealID, ok := parseID(w, r, requestID)
	if !ok {
		return
	}

	if err := h.repo.Delete(r.Context(), id.ID, dealID); err != nil {
		if errors.Is(err, deal.ErrNotFound) {
			response.Err(w, http.StatusNotFound, "Deal not found", requestID)
			return
		}
		slog.Error("failed to delete deal", "error", err, "requestId", requestID)
		response.Err(w, http.StatusInternalServerError, "Failed to delete deal", requestID)
		return
	}

	h.views.Bump(id.ID, viewcache.Deals)
	h.audit.Record(r.Context(), audit.Entry{ActorID: id.ID, Entity: "deal", EntityID: dealID, Action: audit.ActionDelete})

	response.Success(w, http.StatusOK, nil, requestID)
}

func validStageFilter(s string) bool {
	for _, v := range validation.Stages {
		if s == v {
			return true
		}
	}
	return false
}
