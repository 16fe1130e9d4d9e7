// Package verification runs credential artifacts through the multi-stage
// trust pipeline and aggregates the outcome into a single result with a risk
// score. Findings about untrustworthy credentials are data, not errors: the
// pipeline always returns a result object.
package verification

import "time"

// CheckStatus is the outcome of a single pipeline check.
type CheckStatus string

const (
	CheckPassed  CheckStatus = "passed"
	CheckFailed  CheckStatus = "failed"
	CheckWarning CheckStatus = "warning"
	CheckSkipped CheckStatus = "skipped"
)

// Status is the aggregate verification verdict.
type Status string

const (
	StatusVerified   Status = "verified"
	StatusFailed     Status = "failed"
	StatusSuspicious Status = "suspicious"
	StatusPending    Status = "pending"
)

// Check names, in fixed pipeline order.
const (
	CheckNameFormat     = "Format Validation"
	CheckNameSignature  = "Signature Validation"
	CheckNameIssuer     = "Issuer Verification"
	CheckNameExpiration = "Expiration Check"
	CheckNameRevocation = "Revocation Check"
	CheckNameAnchor     = "Blockchain Anchor"
	CheckNameDID        = "DID Resolution"
)

// Risk flags contributed by checks.
const (
	FlagInvalidFormat     = "INVALID_FORMAT"
	FlagInvalidSignature  = "INVALID_SIGNATURE"
	FlagUnknownIssuer     = "UNKNOWN_ISSUER"
	FlagUnverifiedIssuer  = "UNVERIFIED_ISSUER"
	FlagExpiredCredential = "EXPIRED_CREDENTIAL"
	FlagRevokedCredential = "REVOKED_CREDENTIAL"
	FlagProofHashMismatch = "PROOF_HASH_MISMATCH"
	FlagNoAnchor          = "NO_BLOCKCHAIN_ANCHOR"
	FlagDIDResolution     = "DID_RESOLUTION_FAILED"
)

// Check is one immutable pipeline finding, appended in fixed order.
type Check struct {
	Name    string         `json:"name"`
	Status  CheckStatus    `json:"status"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Result is the aggregate outcome of one verification call. It is created
// once, cached by VerificationID, and never mutated afterwards.
type Result struct {
	VerificationID string    `json:"verificationId"`
	Status         Status    `json:"status"`
	Confidence     int       `json:"confidence"`
	RiskScore      int       `json:"riskScore"`
	RiskFlags      []string  `json:"riskFlags"`
	Checks         []Check   `json:"checks"`
	Timestamp      time.Time `json:"timestamp"`
}

// BulkResult folds sequential results over one batch. The status counts
// always sum to at most Total; pending results account for the remainder.
type BulkResult struct {
	ID          string    `json:"id"`
	Total       int       `json:"total"`
	Verified    int       `json:"verified"`
	Failed      int       `json:"failed"`
	Suspicious  int       `json:"suspicious"`
	Results     []*Result `json:"results"`
	CompletedAt time.Time `json:"completedAt"`
}
