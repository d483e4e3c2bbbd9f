package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/covecrm/cove/internal/api/handler"
)

type mockPinger struct {
	pingFn func(ctx context.Context) error
}

func (m *mockPinger) Ping(ctx context.Context) error {
	return m.pingFn(ctx)
}

func healthData(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body struct {
		Success bool           `json:"success"`
		Data    map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	return body.Data
}

func TestHealth_Healthy(t *testing.T) {
	db := &mockPinger{pingFn: func(ctx context.Context) error { return nil }}
	h := handler.NewHealthHandler(db, "1.2.3")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	data := healthData(t, rec)
	assert.Equal(t, "healthy", data["status"])
	assert.Equal(t, "1.2.3", data["version"])

	dbStatus, ok := data["database"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, dbStatus["connected"])
}

func TestHealth_DatabaseDown(t *testing.T) {
	db := &mockPinger{pingFn: func(ctx context.Context) error { return errors.New("dial tcp: connection refused") }}
	h := handler.NewHealthHandler(db, "1.2.3")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	// Still 200: the process is alive, the payload carries the degradation.
	assert.Equal(t, http.StatusOK, rec.Code)

	data := healthData(t, rec)
	assert.Equal(t, "degraded", data["status"])

	dbStatus, ok := data["database"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, false, dbStatus["connected"])
	assert.Contains(t, dbStatus["error"], "connection refused")
}
