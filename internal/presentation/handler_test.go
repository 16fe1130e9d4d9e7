package presentation

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proofgate/internal/verification"
	"proofgate/pkg/testutil"
)

func newHandlerRouter(t *testing.T) chi.Router {
	t.Helper()
	store := NewRequestStore(nil, WithStoreLogger(discardLogger()))
	svc := New(store, &stubVerifier{}, 5*time.Minute, WithLogger(discardLogger()))
	r := chi.NewRouter()
	NewHandler(svc, discardLogger()).Register(r)
	return r
}

func postJSON(t *testing.T, r chi.Router, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestPresentationExchangeOverHTTP(t *testing.T) {
	r := newHandlerRouter(t)

	created := postJSON(t, r, "/v1/oid4vp/requests", map[string]any{
		"purpose": "proof of employment",
		"state":   "s-1",
	})
	require.Equal(t, http.StatusCreated, created.Code)

	var cr CreateResponse
	require.NoError(t, json.Unmarshal(created.Body.Bytes(), &cr))
	assert.NotEmpty(t, cr.RequestID)
	assert.NotEmpty(t, cr.Nonce)
	assert.False(t, cr.ExpiresAt.IsZero())
	require.NotNil(t, cr.PresentationDefinition)
	assert.Equal(t, "proof of employment", cr.PresentationDefinition["purpose"])

	submitted := postJSON(t, r, "/v1/oid4vp/responses", map[string]any{
		"request_id": cr.RequestID,
		"vp_token":   testutil.JWTWithClaims(map[string]any{"nonce": cr.Nonce}, true),
		"state":      "s-1",
	})
	require.Equal(t, http.StatusOK, submitted.Code)

	var sr SubmitResponse
	require.NoError(t, json.Unmarshal(submitted.Body.Bytes(), &sr))
	assert.Equal(t, verification.StatusVerified, sr.Status)
	assert.Equal(t, "ver-1", sr.VerificationID)
}

func TestCreateRequestRequiresPurpose(t *testing.T) {
	r := newHandlerRouter(t)

	rec := postJSON(t, r, "/v1/oid4vp/requests", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitResponseNonceMismatchOverHTTP(t *testing.T) {
	r := newHandlerRouter(t)

	created := postJSON(t, r, "/v1/oid4vp/requests", map[string]any{"purpose": "kyc"})
	require.Equal(t, http.StatusCreated, created.Code)
	var cr CreateResponse
	require.NoError(t, json.Unmarshal(created.Body.Bytes(), &cr))

	rec := postJSON(t, r, "/v1/oid4vp/responses", map[string]any{
		"request_id": cr.RequestID,
		"vp_token":   testutil.JWTWithClaims(map[string]any{"nonce": "wrong"}, true),
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var errBody map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errBody))
	assert.Equal(t, "nonce_mismatch", errBody["error"])
}

func TestSubmitResponseUnknownRequestOverHTTP(t *testing.T) {
	r := newHandlerRouter(t)

	rec := postJSON(t, r, "/v1/oid4vp/responses", map[string]any{
		"request_id": "never-issued",
		"jwt":        testutil.NewCredentialBuilder().SignedJWT(),
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var errBody map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errBody))
	assert.Equal(t, "unknown request_id", errBody["error"])
}
