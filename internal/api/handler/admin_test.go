package handler_test

import (
	"context"
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
	"github.com/covecrm/cove/internal/identity"
	"github.com/covecrm/cove/internal/profile"
)

func adminRouter(h *handler.AdminHandler) http.Handler {
	r := chi.NewRouter()
	r.Get("/admin/profiles", h.ListProfiles)
	r.Patch("/admin/profiles/{id}/role", h.UpdateRole)
	return r
}

func TestAdminListProfiles(t *testing.T) {
	profiles := &mockProfileRepo{
		listFn: func(ctx context.Context, page, limit int) (*profile.ListResult, error) {
			assert.Equal(t, 1, page)
			assert.Equal(t, 20, limit)
			return &profile.ListResult{
				Profiles: []profile.Profile{
					{ID: uuid.New(), Email: "a@example.com", Role: profile.RoleUser, Plan: profile.PlanFree},
					{ID: uuid.New(), Email: "b@example.com", Role: profile.RoleAdmin, Plan: profile.PlanPro},
				},
				Total: 2, Page: 1, Limit: 20,
			}, nil
		},
	}
	h := adminRouter(handler.NewAdminHandler(profiles))

	rec := doAuthed(h, uuid.New(), http.MethodGet, "/admin/profiles", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "a@example.com")
	assert.Contains(t, rec.Body.String(), "b@example.com")
}

func TestAdminUpdateRole(t *testing.T) {
	caller := uuid.New()
	target := uuid.New()
	profiles := &mockProfileRepo{
		updateRoleFn: func(ctx context.Context, id uuid.UUID, role string) (*profile.Profile, error) {
			assert.Equal(t, target, id)
			assert.Equal(t, profile.RoleAdmin, role)
			return &profile.Profile{ID: id, Email: "b@example.com", Role: role}, nil
		},
	}
	h := adminRouter(handler.NewAdminHandler(profiles))

	rec := doAuthed(h, caller, http.MethodPatch, "/admin/profiles/"+target.String()+"/role",
		`{"role":"admin"}`, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"role":"admin"`)
}

func TestAdminUpdateRole_SelfChangeRejected(t *testing.T) {
	caller := uuid.New()
	profiles := &mockProfileRepo{
		updateRoleFn: func(ctx context.Context, id uuid.UUID, role string) (*profile.Profile, error) {
			t.Fatal("self role change must not reach the repository")
			return nil, nil
		},
	}
	h := adminRouter(handler.NewAdminHandler(profiles))

	rec := doAuthed(h, caller, http.MethodPatch, "/admin/profiles/"+caller.String()+"/role",
		`{"role":"user"}`, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Cannot change your own role")
}

func TestAdminUpdateRole_InvalidRole(t *testing.T) {
	h := adminRouter(handler.NewAdminHandler(&mockProfileRepo{}))

	rec := doAuthed(h, uuid.New(), http.MethodPatch, "/admin/profiles/"+uuid.NewString()+"/role",
		`{"role":"emperor"}`, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	env := decodeEnvelope(t, rec)
	require.Contains(t, env.Errors, "role")
}

func TestAdminUpdateRole_UnknownProfile(t *testing.T) {
	profiles := &mockProfileRepo{
		updateRoleFn: func(ctx context.Context, id uuid.UUID, role string) (*profile.Profile, error) {
			return nil, profile.ErrNotFound
		},
	}
	h := adminRouter(handler.NewAdminHandler(profiles))

	rec := doAuthed(h, uuid.New(), http.MethodPatch, "/admin/profiles/"+uuid.NewString()+"/role",
		`{"role":"admin"}`, nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAccountMe(t *testing.T) {
	owner := uuid.New()
	profiles := &mockProfileRepo{
		getByIDFn: func(ctx context.Context, id uuid.UUID) (*profile.Profile, error) {
			assert.Equal(t, owner, id)
			return &profile.Profile{ID: id, Email: "jane@example.com", Role: profile.RoleUser, Plan: profile.PlanPro}, nil
		},
	}
	srv := fakeIdentityServer(t)
	defer srv.Close()
	h := newAccountHandler(t, srv.URL, profiles)

	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	req = req.WithContext(middleware.WithIdentity(req.Context(), &identity.Identity{ID: owner, Email: "jane@example.com"}))
	rec := httptest.NewRecorder()
	h.Me(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"plan":"pro"`)
}

func TestAccountMe_Unauthenticated(t *testing.T) {
	srv := fakeIdentityServer(t)
	defer srv.Close()
	h := newAccountHandler(t, srv.URL, &mockProfileRepo{})

	req := httptest.NewRequest(http.MethodGet, "/profile", strings.NewReader(""))
	rec := httptest.NewRecorder()
	h.Me(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
