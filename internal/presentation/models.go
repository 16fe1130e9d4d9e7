package presentation

import (
	"encoding/json"
	"time"

	"proofgate/internal/verification"
	dErrors "proofgate/pkg/domain-errors"
)

// Request is one open presentation request. It exists from creation until it
// is either consumed by a matching response (deleted) or pruned after TTL.
// A request is never both responded and still present.
type Request struct {
	ID        string    `json:"id"`
	Nonce     string    `json:"nonce"`
	CreatedAt time.Time `json:"createdAt"`
	Purpose   string    `json:"purpose"`
	State     string    `json:"state,omitempty"`
}

// Expired reports whether the request has outlived the TTL at the given time.
func (r *Request) Expired(ttl time.Duration, now time.Time) bool {
	return r.CreatedAt.Add(ttl).Before(now)
}

// CreateRequest is the body of POST /v1/oid4vp/requests.
type CreateRequest struct {
	Purpose string `json:"purpose"`
	State   string `json:"state,omitempty"`
}

// Validate implements httputil.Validatable.
func (r *CreateRequest) Validate() error {
	if r.Purpose == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "purpose is required")
	}
	return nil
}

// CreateResponse is the 201 body returned for a new presentation request.
type CreateResponse struct {
	RequestID              string         `json:"request_id"`
	Nonce                  string         `json:"nonce"`
	State                  string         `json:"state,omitempty"`
	ExpiresAt              time.Time      `json:"expires_at"`
	PresentationDefinition map[string]any `json:"presentation_definition"`
}

// SubmitRequest is the body of POST /v1/oid4vp/responses. The presented
// credential arrives as a vp_token, a bare JWT, or a raw credential object.
type SubmitRequest struct {
	RequestID  string          `json:"request_id"`
	VPToken    string          `json:"vp_token,omitempty"`
	JWT        string          `json:"jwt,omitempty"`
	Credential json.RawMessage `json:"credential,omitempty"`
	State      string          `json:"state,omitempty"`
	Nonce      string          `json:"nonce,omitempty"`
}

// Validate implements httputil.Validatable.
func (r *SubmitRequest) Validate() error {
	if r.RequestID == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "request_id is required")
	}
	if r.VPToken == "" && r.JWT == "" && len(r.Credential) == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "one of vp_token, jwt or credential is required")
	}
	return nil
}

// SubmitResponse summarizes the verification triggered by a presentation.
type SubmitResponse struct {
	Status         verification.Status  `json:"status"`
	VerificationID string               `json:"verification_id"`
	Checks         []verification.Check `json:"checks"`
	RiskScore      int                  `json:"risk_score"`
}
