package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/covecrm/cove/internal/api/handler"
	"github.com/covecrm/cove/internal/api/middleware"
	"github.com/covecrm/cove/internal/api/response"
	"github.com/covecrm/cove/internal/audit"
	"github.com/covecrm/cove/internal/contact"
	"github.com/covecrm/cove/internal/identity"
	"github.com/covecrm/cove/internal/viewcache"
)

type mockContactRepo struct {
	createFn  func(ctx context.Context, c *contact.Contact) error
	getByIDFn func(ctx context.Context, owner, id uuid.UUID) (*contact.Contact, error)
	listFn    func(ctx context.Context, owner uuid.UUID, filter contact.ListFilter) (*contact.ListResult, error)
	updateFn  func(ctx context.Context, owner, id uuid.UUID, fields contact.UpdateFields) (*contact.Contact, error)
	deleteFn  func(ctx context.Context, owner, id uuid.UUID) error
}

func (m *mockContactRepo) Create(ctx context.Context, c *contact.Contact) error {
	return m.createFn(ctx, c)
}

func (m *mockContactRepo) GetByID(ctx context.Context, owner, id uuid.UUID) (*contact.Contact, error) {
	return m.getByIDFn(ctx, owner, id)
}

func (m *mockContactRepo) List(ctx context.Context, owner uuid.UUID, filter contact.ListFilter) (*contact.ListResult, error) {
	return m.listFn(ctx, owner, filter)
}

func (m *mockContactRepo) Update(ctx context.Context, owner, id uuid.UUID, fields contact.UpdateFields) (*contact.Contact, error) {
	return m.updateFn(ctx, owner, id, fields)
}

func (m *mockContactRepo) Delete(ctx context.Context, owner, id uuid.UUID) error {
	return m.deleteFn(ctx, owner, id)
}

// contactRouter mounts the handler the way the real router does, so URL
// parameters resolve through chi.
func contactRouter(h *handler.ContactHandler) http.Handler {
	r := chi.NewRouter()
	r.Post("/contacts", h.Create)
	r.Get("/contacts", h.List)
	r.Get("/contacts/{id}", h.GetByID)
	r.Patch("/contacts/{id}", h.Update)
	r.Delete("/contacts/{id}", h.Delete)
	return r
}

func doAuthed(h http.Handler, owner uuid.UUID, method, target, body string, header http.Header) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, target, reader)
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req = req.WithContext(middleware.WithIdentity(req.Context(), &identity.Identity{ID: owner, Email: "owner@example.com"}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) response.Envelope {
	t.Helper()
	var env response.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestContactCreate_Valid(t *testing.T) {
	owner := uuid.New()
	created := false
	repo := &mockContactRepo{
		createFn: func(ctx context.Context, c *contact.Contact) error {
			created = true
			assert.Equal(t, owner, c.OwnerID)
			assert.Equal(t, "John", c.FirstName)
			c.ID = uuid.New()
			return nil
		},
	}
	h := contactRouter(handler.NewContactHandler(repo, viewcache.New(), audit.NopRecorder{}))

	rec := doAuthed(h, owner, http.MethodPost, "/contacts",
		`{"firstName":"John","lastName":"Doe","email":"john@example.com"}`, nil)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, created)

	env := decodeEnvelope(t, rec)
	assert.True(t, env.Success)
}

func TestContactCreate_ValidationFailureSkipsRepository(t *testing.T) {
	repo := &mockContactRepo{
		createFn: func(ctx context.Context, c *contact.Contact) error {
			t.Fatal("repository must not be called on invalid input")
			return nil
		},
	}
	h := contactRouter(handler.NewContactHandler(repo, viewcache.New(), audit.NopRecorder{}))

	rec := doAuthed(h, uuid.New(), http.MethodPost, "/contacts",
		`{"firstName":"","lastName":"Doe","email":"john@example.com"}`, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	env := decodeEnvelope(t, rec)
	assert.False(t, env.Success)
	assert.Equal(t, []string{"First name is required"}, env.Errors["firstName"])
}

func TestContactCreate_Unauthenticated(t *testing.T) {
	repo := &mockContactRepo{
		createFn: func(ctx context.Context, c *contact.Contact) error {
			t.Fatal("repository must not be called without an identity")
			return nil
		},
	}
	h := contactRouter(handler.NewContactHandler(repo, viewcache.New(), audit.NopRecorder{}))

	req := httptest.NewRequest(http.MethodPost, "/contacts",
		strings.NewReader(`{"firstName":"John","lastName":"Doe","email":"john@example.com"}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestContactCreate_MalformedJSON(t *testing.T) {
	repo := &mockContactRepo{}
	h := contactRouter(handler.NewContactHandler(repo, viewcache.New(), audit.NopRecorder{}))

	rec := doAuthed(h, uuid.New(), http.MethodPost, "/contacts", "{not json", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, "Request body must be valid JSON", env.Error)
}

func TestContactCreate_DuplicateEmailConflict(t *testing.T) {
	repo := &mockContactRepo{
		createFn: func(ctx context.Context, c *contact.Contact) error {
			return contact.ErrDuplicateEmail
		},
	}
	h := contactRouter(handler.NewContactHandler(repo, viewcache.New(), audit.NopRecorder{}))

	rec := doAuthed(h, uuid.New(), http.MethodPost, "/contacts",
		`{"firstName":"John","lastName":"Doe","email":"john@example.com"}`, nil)

	assert.Equal(t, http.StatusConflict, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, "A contact with this email already exists", env.Error)
}

func TestContactCreate_UnknownOrganization(t *testing.T) {
	repo := &mockContactRepo{
		createFn: func(ctx context.Context, c *contact.Contact) error {
			return contact.ErrOrganizationNotFound
		},
	}
	h := contactRouter(handler.NewContactHandler(repo, viewcache.New(), audit.NopRecorder{}))

	rec := doAuthed(h, uuid.New(), http.MethodPost, "/contacts",
		`{"firstName":"John","lastName":"Doe","email":"john@example.com","organizationId":"`+uuid.NewString()+`"}`, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, []string{"Organization not found"}, env.Errors["organizationId"])
}

func TestContactCreate_NotesSanitized(t *testing.T) {
	var stored *contact.Contact
	repo := &mockContactRepo{
		createFn: func(ctx context.Context, c *contact.Contact) error {
			stored = c
			return nil
		},
	}
	h := contactRouter(handler.NewContactHandler(repo, viewcache.New(), audit.NopRecorder{}))

	rec := doAuthed(h, uuid.New(), http.MethodPost, "/contacts",
		`{"firstName":"John","lastName":"Doe","email":"john@example.com","notes":"hello <script>alert(1)</script>world"}`, nil)

	assert.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, stored)
	assert.NotContains(t, stored.Notes, "<script>")
}

func TestContactGetByID_NotFound(t *testing.T) {
	repo := &mockContactRepo{
		getByIDFn: func(ctx context.Context, owner, id uuid.UUID) (*contact.Contact, error) {
			return nil, contact.ErrNotFound
		},
	}
	h := contactRouter(handler.NewContactHandler(repo, viewcache.New(), audit.NopRecorder{}))

	rec := doAuthed(h, uuid.New(), http.MethodGet, "/contacts/"+uuid.NewString(), "", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, "Contact not found", env.Error)
}

func TestContactGetByID_BadID(t *testing.T) {
	repo := &mockContactRepo{}
	h := contactRouter(handler.NewContactHandler(repo, viewcache.New(), audit.NopRecorder{}))

	rec := doAuthed(h, uuid.New(), http.MethodGet, "/contacts/not-a-uuid", "", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestContactUpdate_NotOwnedLooksLikeMissing(t *testing.T) {
	// A record owned by someone else returns the same 404 as a nonexistent
	// one; the response must not leak that the id exists.
	repo := &mockContactRepo{
		updateFn: func(ctx context.Context, owner, id uuid.UUID, fields contact.UpdateFields) (*contact.Contact, error) {
			return nil, contact.ErrNotFound
		},
	}
	h := contactRouter(handler.NewContactHandler(repo, viewcache.New(), audit.NopRecorder{}))

	rec := doAuthed(h, uuid.New(), http.MethodPatch, "/contacts/"+uuid.NewString(),
		`{"firstName":"Johnny"}`, nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, "Contact not found", env.Error)
}

func TestContactUpdate_EmptyOrganizationIDClears(t *testing.T) {
	owner := uuid.New()
	var gotFields contact.UpdateFields
	repo := &mockContactRepo{
		updateFn: func(ctx context.Context, o, id uuid.UUID, fields contact.UpdateFields) (*contact.Contact, error) {
			gotFields = fields
			return &contact.Contact{ID: id, OwnerID: o}, nil
		},
	}
	h := contactRouter(handler.NewContactHandler(repo, viewcache.New(), audit.NopRecorder{}))

	rec := doAuthed(h, owner, http.MethodPatch, "/contacts/"+uuid.NewString(),
		`{"organizationId":""}`, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, gotFields.ClearOrganization)
	assert.Nil(t, gotFields.OrganizationID)
}

func TestContactUpdate_PartialFieldsOnly(t *testing.T) {
	var gotFields contact.UpdateFields
	repo := &mockContactRepo{
		updateFn: func(ctx context.Context, o, id uuid.UUID, fields contact.UpdateFields) (*contact.Contact, error) {
			gotFields = fields
			return &contact.Contact{ID: id, OwnerID: o, FirstName: "Johnny"}, nil
		},
	}
	h := contactRouter(handler.NewContactHandler(repo, viewcache.New(), audit.NopRecorder{}))

	rec := doAuthed(h, uuid.New(), http.MethodPatch, "/contacts/"+uuid.NewString(),
		`{"firstName":"  Johnny  "}`, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, gotFields.FirstName)
	assert.Equal(t, "Johnny", *gotFields.FirstName)
	assert.Nil(t, gotFields.LastName)
	assert.Nil(t, gotFields.Email)
}

func TestContactDelete(t *testing.T) {
	owner := uuid.New()
	contactID := uuid.New()
	deleted := map[uuid.UUID]bool{}
	repo := &mockContactRepo{
		deleteFn: func(ctx context.Context, o, id uuid.UUID) error {
			if deleted[id] {
				return contact.ErrNotFound
			}
			deleted[id] = true
			return nil
		},
	}
	h := contactRouter(handler.NewContactHandler(repo, viewcache.New(), audit.NopRecorder{}))

	rec := doAuthed(h, owner, http.MethodDelete, "/contacts/"+contactID.String(), "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.True(t, env.Success)
	assert.Nil(t, env.Data)

	// Deleting again reports the record as missing.
	rec = doAuthed(h, owner, http.MethodDelete, "/contacts/"+contactID.String(), "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestContactList(t *testing.T) {
	owner := uuid.New()
	repo := &mockContactRepo{
		listFn: func(ctx context.Context, o uuid.UUID, filter contact.ListFilter) (*contact.ListResult, error) {
			assert.Equal(t, owner, o)
			assert.Equal(t, 2, filter.Page)
			assert.Equal(t, 10, filter.Limit)
			require.NotNil(t, filter.Search)
			assert.Equal(t, "john", *filter.Search)
			return &contact.ListResult{
				Contacts: []contact.Contact{{ID: uuid.New(), OwnerID: o, FirstName: "John"}},
				Total:    21, Page: 2, Limit: 10,
			}, nil
		},
	}
	h := contactRouter(handler.NewContactHandler(repo, viewcache.New(), audit.NopRecorder{}))

	rec := doAuthed(h, owner, http.MethodGet, "/contacts?search=john&page=2&limit=10", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("ETag"))

	var env response.ListEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, 21, env.Meta.Total)
	assert.Equal(t, 2, env.Meta.Page)
}

func TestContactList_ETagRevalidation(t *testing.T) {
	owner := uuid.New()
	views := viewcache.New()
	repo := &mockContactRepo{
		listFn: func(ctx context.Context, o uuid.UUID, filter contact.ListFilter) (*contact.ListResult, error) {
			return &contact.ListResult{Page: 1, Limit: 20}, nil
		},
	}
	h := contactRouter(handler.NewContactHandler(repo, views, audit.NopRecorder{}))

	rec := doAuthed(h, owner, http.MethodGet, "/contacts", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)

	// Same tag revalidates to 304 with no body.
	header := http.Header{"If-None-Match": {etag}}
	rec = doAuthed(h, owner, http.MethodGet, "/contacts", "", header)
	assert.Equal(t, http.StatusNotModified, rec.Code)
	assert.Zero(t, rec.Body.Len())

	// A mutation bumps the version; the stale tag no longer matches.
	views.Bump(owner, viewcache.Contacts)
	rec = doAuthed(h, owner, http.MethodGet, "/contacts", "", header)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEqual(t, etag, rec.Header().Get("ETag"))
}

func TestContactList_IfNoneMatchListAndWeakForms(t *testing.T) {
	owner := uuid.New()
	views := viewcache.New()
	repo := &mockContactRepo{
		listFn: func(ctx context.Context, o uuid.UUID, filter contact.ListFilter) (*contact.ListResult, error) {
			return &contact.ListResult{Page: 1, Limit: 20}, nil
		},
	}
	h := contactRouter(handler.NewContactHandler(repo, views, audit.NopRecorder{}))

	rec := doAuthed(h, owner, http.MethodGet, "/contacts", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)

	// Clients may send a tag list, a weak validator, or "*"; all revalidate.
	for _, value := range []string{
		`"stale-tag", ` + etag,
		"W/" + etag,
		"*",
	} {
		header := http.Header{"If-None-Match": {value}}
		rec = doAuthed(h, owner, http.MethodGet, "/contacts", "", header)
		assert.Equal(t, http.StatusNotModified, rec.Code, value)
	}

	// A non-matching list still yields a fresh 200.
	header := http.Header{"If-None-Match": {`"stale-tag", "other-tag"`}}
	rec = doAuthed(h, owner, http.MethodGet, "/contacts", "", header)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestContactList_BadPagination(t *testing.T) {
	repo := &mockContactRepo{}
	h := contactRouter(handler.NewContactHandler(repo, viewcache.New(), audit.NopRecorder{}))

	for _, target := range []string{"/contacts?page=0", "/contacts?limit=-5", "/contacts?page=abc"} {
		rec := doAuthed(h, uuid.New(), http.MethodGet, target, "", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestContactList_RepositoryFailure(t *testing.T) {
	repo := &mockContactRepo{
		listFn: func(ctx context.Context, o uuid.UUID, filter contact.ListFilter) (*contact.ListResult, error) {
			return nil, errors.New("connection reset")
		},
	}
	h := contactRouter(handler.NewContactHandler(repo, viewcache.New(), audit.NopRecorder{}))

	rec := doAuthed(h, uuid.New(), http.MethodGet, "/contacts", "", nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, "Failed to list contacts", env.Error)
}
