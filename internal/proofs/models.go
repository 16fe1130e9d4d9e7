package proofs

import (
	"encoding/json"

	"proofgate/internal/verification"
	dErrors "proofgate/pkg/domain-errors"
)

// VerifyRequest is the body of POST /v1/proofs/verify. Proof is either a
// JSON string holding a compact JWT or a raw proof/credential object.
type VerifyRequest struct {
	Format             string          `json:"format"`
	Proof              json.RawMessage `json:"proof"`
	Challenge          string          `json:"challenge,omitempty"`
	Domain             string          `json:"domain,omitempty"`
	ExpectedIssuerDID  string          `json:"expected_issuer_did,omitempty"`
	ExpectedSubjectDID string          `json:"expected_subject_did,omitempty"`
	ExpectedHash       string          `json:"expected_hash,omitempty"`
	HashAlgorithm      string          `json:"hash_algorithm,omitempty"`
}

// Validate implements httputil.Validatable.
func (r *VerifyRequest) Validate() error {
	if r.Format == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "format is required")
	}
	if len(r.Proof) == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "proof is required")
	}
	return nil
}

// Expectation records one caller-supplied assertion checked against the
// decoded credential.
type Expectation struct {
	Field    string `json:"field"`
	Expected string `json:"expected"`
	Actual   string `json:"actual,omitempty"`
	Matched  bool   `json:"matched"`
}

// VerifyResponse is the result of one proof verification.
type VerifyResponse struct {
	Valid           bool                 `json:"valid"`
	ReplayProtected bool                 `json:"replay_protected"`
	Verification    *verification.Result `json:"verification"`
	Expectations    []Expectation        `json:"expectations,omitempty"`
}

// MetadataRequest is the body of POST /v1/proofs/metadata.
type MetadataRequest struct {
	Credential    map[string]any `json:"credential"`
	HashAlgorithm string         `json:"hash_algorithm,omitempty"`
}

// Validate implements httputil.Validatable.
func (r *MetadataRequest) Validate() error {
	if len(r.Credential) == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "credential is required")
	}
	return nil
}

// MetadataResponse carries the canonical hash of a credential.
type MetadataResponse struct {
	Hash             string `json:"hash"`
	HashAlgorithm    string `json:"hash_algorithm"`
	Canonicalization string `json:"canonicalization"`
}
