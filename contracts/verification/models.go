package verification

// Package verification hosts the stable wire DTOs of the instant-verify
// envelope. Keep these versioned independently from internal pipeline models;
// external consumers pin against these shapes.

import "time"

// ContractVersion identifies the contract schema version for compatibility checks.
// Bump on breaking changes to the shapes below.
const ContractVersion = "v0.1.0"

// FraudAnalysis summarizes the risk assessment of one verification.
type FraudAnalysis struct {
	RiskScore      int      `json:"risk_score"`
	RiskFlags      []string `json:"risk_flags"`
	Recommendation string   `json:"recommendation"`
}

// RecordSummary identifies the stored verification record for later retrieval.
type RecordSummary struct {
	VerificationID string    `json:"verification_id"`
	Timestamp      time.Time `json:"timestamp"`
}

// CandidateSummary describes the credential that was examined, as far as it
// could be decoded. Null when the payload never parsed.
type CandidateSummary struct {
	CredentialID   string     `json:"credential_id,omitempty"`
	IssuerDID      string     `json:"issuer_did,omitempty"`
	SubjectDID     string     `json:"subject_did,omitempty"`
	Types          []string   `json:"types,omitempty"`
	ExpirationDate *time.Time `json:"expiration_date,omitempty"`
}

// RiskSignal is one non-passing check outcome, surfaced for callers that
// want machine-readable findings without parsing the full check list.
type RiskSignal struct {
	Check   string `json:"check"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}
