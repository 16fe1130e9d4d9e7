package health

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func get(t *testing.T, r chi.Router, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestLiveness(t *testing.T) {
	r := chi.NewRouter()
	New("sepolia").Register(r)

	rec := get(t, r, "/healthz/live")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStatusReportsNetwork(t *testing.T) {
	r := chi.NewRouter()
	New("sepolia").Register(r)

	rec := get(t, r, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "sepolia", resp.ChainNetwork)
	assert.Equal(t, Version, resp.Version)
}

func TestReadinessAggregatesChecks(t *testing.T) {
	h := New("sepolia")
	h.RegisterCheck("snapshot", func() error { return nil })
	h.RegisterCheck("chain", func() error { return errors.New("rpc unreachable") })
	r := chi.NewRouter()
	h.Register(r)

	rec := get(t, r, "/healthz/ready")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp ReadinessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "not_ready", resp.Status)
	require.Len(t, resp.Dependencies, 2)
	assert.Equal(t, "chain", resp.Dependencies[0].Name)
	assert.Equal(t, "down", resp.Dependencies[0].Status)
	assert.Equal(t, "snapshot", resp.Dependencies[1].Name)
	assert.Equal(t, "up", resp.Dependencies[1].Status)
}

func TestReadinessWithNoChecks(t *testing.T) {
	r := chi.NewRouter()
	New("mainnet").Register(r)

	rec := get(t, r, "/healthz/ready")
	assert.Equal(t, http.StatusOK, rec.Code)
}
