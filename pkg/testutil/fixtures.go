package testutil

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"
)

// TrustedIssuerDID matches a verified entry in the issuer seed table.
const TrustedIssuerDID = "did:web:registry.gov.example"

// SandboxIssuerDID matches the unverified seed entry.
const SandboxIssuerDID = "did:web:issuer.sandbox.example"

// CredentialBuilder provides a fluent interface for building test credentials.
type CredentialBuilder struct {
	claims map[string]any
}

// NewCredentialBuilder creates a builder with a plausible signed credential.
func NewCredentialBuilder() *CredentialBuilder {
	return &CredentialBuilder{
		claims: map[string]any{
			"id":     "urn:credential:test-1",
			"issuer": TrustedIssuerDID,
			"type":   []any{"VerifiableCredential"},
			"credentialSubject": map[string]any{
				"id":   "did:key:z6MkTestSubject",
				"name": "Test Holder",
			},
			"issuanceDate": "2026-01-01T00:00:00Z",
			"proof": map[string]any{
				"type":               "Ed25519Signature2020",
				"created":            "2026-01-01T00:00:00Z",
				"verificationMethod": TrustedIssuerDID + "#key-1",
				"proofValue":         "z3MvGcVxzRzzpKF1HA11EjvfPZsN8NAb",
			},
		},
	}
}

// WithID sets the credential ID.
func (b *CredentialBuilder) WithID(id string) *CredentialBuilder {
	b.claims["id"] = id
	return b
}

// WithIssuer sets the issuer field.
func (b *CredentialBuilder) WithIssuer(issuer any) *CredentialBuilder {
	b.claims["issuer"] = issuer
	return b
}

// WithExpiration sets an expiration date.
func (b *CredentialBuilder) WithExpiration(t time.Time) *CredentialBuilder {
	b.claims["expirationDate"] = t.UTC().Format(time.RFC3339)
	return b
}

// WithoutProof removes the proof sub-object.
func (b *CredentialBuilder) WithoutProof() *CredentialBuilder {
	delete(b.claims, "proof")
	return b
}

// WithProofField sets one field inside the proof sub-object.
func (b *CredentialBuilder) WithProofField(key string, value any) *CredentialBuilder {
	proof, ok := b.claims["proof"].(map[string]any)
	if !ok {
		proof = map[string]any{}
		b.claims["proof"] = proof
	}
	proof[key] = value
	return b
}

// WithClaim sets a top-level claim.
func (b *CredentialBuilder) WithClaim(key string, value any) *CredentialBuilder {
	b.claims[key] = value
	return b
}

// Claims returns the credential as a claim map.
func (b *CredentialBuilder) Claims() map[string]any {
	return b.claims
}

// JSON returns the credential as raw JSON.
func (b *CredentialBuilder) JSON() []byte {
	data, err := json.Marshal(b.claims)
	if err != nil {
		panic(fmt.Sprintf("testutil: marshal credential: %v", err))
	}
	return data
}

// SignedJWT wraps the credential in a three-segment unsigned-header JWT with
// a fake signature segment, the shape the decoder accepts as signed.
func (b *CredentialBuilder) SignedJWT() string {
	return buildJWT(map[string]any{"vc": b.claims}, "ZmFrZS1zaWduYXR1cmU")
}

// UnsignedJWT wraps the credential in a two-segment JWT with no signature.
func (b *CredentialBuilder) UnsignedJWT() string {
	return buildJWT(map[string]any{"vc": b.claims}, "")
}

// JWTWithClaims builds a JWT carrying arbitrary top-level claims.
func JWTWithClaims(claims map[string]any, signed bool) string {
	sig := ""
	if signed {
		sig = "ZmFrZS1zaWduYXR1cmU"
	}
	return buildJWT(claims, sig)
}

func buildJWT(claims map[string]any, signature string) string {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"EdDSA","typ":"JWT"}`))
	payload, err := json.Marshal(claims)
	if err != nil {
		panic(fmt.Sprintf("testutil: marshal claims: %v", err))
	}
	body := base64.RawURLEncoding.EncodeToString(payload)
	if signature == "" {
		return header + "." + body
	}
	return header + "." + body + "." + signature
}
