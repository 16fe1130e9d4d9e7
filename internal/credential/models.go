// Package credential decodes opaque credential artifacts (JWT, QR payload, or
// raw claim object) into a validated structure before the verification
// pipeline runs. The pipeline never touches undecoded input.
package credential

import (
	"encoding/json"
	"time"
)

// Form identifies which arm of the payload union was interpreted.
type Form string

const (
	FormJWT Form = "jwt"
	FormQR  Form = "qr"
	FormRaw Form = "raw"
)

// Payload is the one-of credential artifact accepted by the API.
// Exactly one form is interpreted per call; priority order is JWT, then
// QRData, then Raw.
type Payload struct {
	JWT    string          `json:"jwt,omitempty"`
	QRData string          `json:"qrData,omitempty"`
	Raw    json.RawMessage `json:"credential,omitempty"`
}

// IsZero reports whether no form was provided at all.
func (p Payload) IsZero() bool {
	return p.JWT == "" && p.QRData == "" && len(p.Raw) == 0
}

// Proof is the typed view of a credential's proof or signature block.
// Optional fields are explicit; nothing is accessed through untyped maps
// after decode.
type Proof struct {
	Type               string `json:"type,omitempty"`
	Created            string `json:"created,omitempty"`
	VerificationMethod string `json:"verificationMethod,omitempty"`
	Challenge          string `json:"challenge,omitempty"`
	Domain             string `json:"domain,omitempty"`
	JWS                string `json:"jws,omitempty"`
	ProofValue         string `json:"proofValue,omitempty"`

	// CredentialHash is the hash the proof claims the credential canonicalizes
	// to. It must equal the strict or legacy hash or verification fails hard.
	CredentialHash string `json:"credentialHash,omitempty"`
}

// HasSignatureMaterial reports whether the proof carries anything that could
// be a signature. The pipeline treats its absence as a hard failure.
func (p *Proof) HasSignatureMaterial() bool {
	if p == nil {
		return false
	}
	return p.JWS != "" || p.ProofValue != "" || p.Type != ""
}

// ExpectedHash returns the embedded hash claim, empty when absent.
func (p *Proof) ExpectedHash() string {
	if p == nil {
		return ""
	}
	return p.CredentialHash
}

// Credential is the decoded, schema-checked credential the pipeline operates
// on. Claims preserves the full decoded object for canonical hashing.
type Credential struct {
	ID             string
	IssuerDID      string
	SubjectDID     string
	Types          []string
	IssuanceDate   *time.Time
	ExpirationDate *time.Time
	Proof          *Proof
	HasSignature   bool

	// Claims is the complete decoded claim object, used by the canonicalizer.
	Claims map[string]any
}

// Expired reports whether the credential has an expiry in the past.
// Absence of an expiry means the credential never expires.
func (c *Credential) Expired(now time.Time) bool {
	return c.ExpirationDate != nil && c.ExpirationDate.Before(now)
}
