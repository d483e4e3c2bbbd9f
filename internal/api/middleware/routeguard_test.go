package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/covecrm/cove/internal/api/middleware"
	"github.com/covecrm/cove/internal/identity"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		path string
		want middleware.RouteClass
	}{
		{"/", middleware.RoutePublic},
		{"/health", middleware.RoutePublic},
		{"/pricing", middleware.RoutePublic},
		{"/webhooks/payment", middleware.RoutePublic},
		{"/dashboard", middleware.RouteProtected},
		{"/contacts", middleware.RouteProtected},
		{"/contacts/0cbe4f64-36a7-4f63-9ed5-2d0148ce253f", middleware.RouteProtected},
		{"/organizations/abc/edit", middleware.RouteProtected},
		{"/deals", middleware.RouteProtected},
		{"/profile", middleware.RouteProtected},
		{"/settings", middleware.RouteProtected},
		{"/admin/profiles", middleware.RouteProtected},
		{"/contactsfoo", middleware.RoutePublic},
		{"/login", middleware.RouteAuthOnly},
		{"/register", middleware.RouteAuthOnly},
		{"/auth/login", middleware.RouteAuthOnly},
		{"/auth/register", middleware.RouteAuthOnly},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, middleware.Classify(tt.path))
		})
	}
}

func guardedHandler(t *testing.T) (http.Handler, *bool) {
	t.Helper()
	reached := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		w.WriteHeader(http.StatusOK)
	})
	return middleware.Guard("/login", "/dashboard")(next), &reached
}

func TestGuard_ProtectedBrowserRedirectsWithReturn(t *testing.T) {
	h, reached := guardedHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/contacts?page=2", nil)
	req.Header.Set("Accept", "text/html")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.False(t, *reached)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login?return=%2Fcontacts%3Fpage%3D2", rec.Header().Get("Location"))
}

func TestGuard_ProtectedAPICallerGets401(t *testing.T) {
	h, reached := guardedHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/contacts", nil)
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.False(t, *reached)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Authentication required")
}

func TestGuard_ProtectedWithIdentityPasses(t *testing.T) {
	h, reached := guardedHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/contacts", nil)
	req = req.WithContext(middleware.WithIdentity(req.Context(), &identity.Identity{ID: uuid.New()}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.True(t, *reached)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGuard_AuthOnlyWithIdentityRedirectsToLanding(t *testing.T) {
	h, reached := guardedHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	req.Header.Set("Accept", "text/html")
	req = req.WithContext(middleware.WithIdentity(req.Context(), &identity.Identity{ID: uuid.New()}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.False(t, *reached)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/dashboard", rec.Header().Get("Location"))
}

func TestGuard_AuthOnlyJSONPostRedirectsToLanding(t *testing.T) {
	// The redirect covers every method and content type: an authenticated
	// JSON POST to /auth/login never reaches the login handler.
	h, reached := guardedHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(middleware.WithIdentity(req.Context(), &identity.Identity{ID: uuid.New()}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.False(t, *reached)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/dashboard", rec.Header().Get("Location"))
}

func TestGuard_AuthOnlyWithoutIdentityPasses(t *testing.T) {
	h, reached := guardedHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/register", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.True(t, *reached)
}

func TestGuard_PublicAlwaysPasses(t *testing.T) {
	h, reached := guardedHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.True(t, *reached)
	assert.Equal(t, http.StatusOK, rec.Code)
}
