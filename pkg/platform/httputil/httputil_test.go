package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "proofgate/pkg/domain-errors"
)

func TestWriteErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", dErrors.New(dErrors.CodeNotFound, "gone"), http.StatusNotFound, "not_found"},
		{"invalid input", dErrors.New(dErrors.CodeInvalidInput, "bad"), http.StatusBadRequest, "bad_request"},
		{"batch too large", dErrors.New(dErrors.CodeBatchTooLarge, "big"), http.StatusBadRequest, "batch_too_large"},
		{"unknown request", dErrors.New(dErrors.CodeUnknownRequest, "unknown request_id"), http.StatusBadRequest, "unknown request_id"},
		{"nonce mismatch", dErrors.New(dErrors.CodeNonceMismatch, "nope"), http.StatusBadRequest, "nonce_mismatch"},
		{"state mismatch", dErrors.New(dErrors.CodeStateMismatch, "nope"), http.StatusBadRequest, "state_mismatch"},
		{"replay", dErrors.New(dErrors.CodeReplayDetected, "seen"), http.StatusConflict, "PROOF_REPLAY_DETECTED"},
		{"unavailable", dErrors.New(dErrors.CodeUnavailable, "down"), http.StatusServiceUnavailable, "unavailable"},
		{"plain error", errors.New("surprise"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(rec, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body["error"])
		})
	}
}

func TestWriteErrorIncludesDescription(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, dErrors.New(dErrors.CodeNotFound, "bulk job not found"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "bulk job not found", body["error_description"])
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusCreated, map[string]int{"n": 1})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"n":1}`, rec.Body.String())
}
