package credential

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MaxJWTBytes bounds accepted JWT artifacts. Anything larger is rejected
// before decoding.
const MaxJWTBytes = 64 * 1024

var (
	ErrEmptyPayload     = errors.New("no credential payload provided")
	ErrJWTTooLarge      = fmt.Errorf("jwt exceeds %d bytes", MaxJWTBytes)
	ErrJWTSegments      = errors.New("jwt must have at least two dot-separated segments")
	ErrJWTPayload       = errors.New("jwt payload is not a JSON object")
	ErrMalformedJSON    = errors.New("credential is not a JSON object")
	ErrUnsupportedOffer = errors.New("credential offer URIs are not accepted for verification")
)

// Decode interprets exactly one arm of the payload union and returns the
// validated credential plus the form that was used.
func Decode(p Payload) (*Credential, Form, error) {
	switch {
	case p.JWT != "":
		cred, err := decodeJWT(p.JWT)
		return cred, FormJWT, err
	case p.QRData != "":
		cred, err := decodeQR(p.QRData)
		return cred, FormQR, err
	case len(p.Raw) > 0:
		cred, err := decodeRaw(p.Raw)
		return cred, FormRaw, err
	default:
		return nil, "", ErrEmptyPayload
	}
}

// decodeJWT extracts the claim object from a compact JWT without verifying
// its signature; signature presence is judged separately by the pipeline.
func decodeJWT(token string) (*Credential, error) {
	if len(token) > MaxJWTBytes {
		return nil, ErrJWTTooLarge
	}
	segments := strings.Split(token, ".")
	if len(segments) < 2 {
		return nil, ErrJWTSegments
	}

	parser := jwt.NewParser()
	payload, err := parser.DecodeSegment(segments[1])
	if err != nil {
		return nil, fmt.Errorf("jwt payload decode: %w", err)
	}

	var claims map[string]any
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, ErrJWTPayload
	}

	// A W3C VC-JWT nests the credential under the vc claim; unwrap it but
	// keep registered claims visible for issuer/subject/expiry fallbacks.
	body := claims
	if vc, ok := claims["vc"].(map[string]any); ok {
		body = vc
	}

	cred := fromClaimObject(body)
	applyRegisteredClaims(cred, claims)

	// A three-segment token with a non-empty signature segment counts as
	// signed even without an embedded proof object.
	if len(segments) >= 3 && segments[2] != "" {
		cred.HasSignature = true
	}
	return cred, nil
}

// decodeQR interprets scanned QR content: either an inline JSON credential or
// an opaque string. Credential-offer URIs are issuance artifacts, not
// verifiable material, and are rejected.
func decodeQR(data string) (*Credential, error) {
	trimmed := strings.TrimSpace(data)
	if strings.HasPrefix(trimmed, "openid-credential-offer://") {
		return nil, ErrUnsupportedOffer
	}
	if strings.HasPrefix(trimmed, "{") {
		return decodeRaw([]byte(trimmed))
	}
	if strings.Count(trimmed, ".") >= 2 {
		return decodeJWT(trimmed)
	}
	// Opaque scan, kept hashable but failing signature checks downstream.
	return fromClaimObject(map[string]any{"qr_payload": trimmed}), nil
}

func decodeRaw(raw json.RawMessage) (*Credential, error) {
	var claims map[string]any
	if err := json.Unmarshal(raw, &claims); err != nil {
		return nil, ErrMalformedJSON
	}
	return fromClaimObject(claims), nil
}

// fromClaimObject maps an untyped claim object into the typed Credential.
// This is the single place dynamic credential shapes are interpreted.
func fromClaimObject(claims map[string]any) *Credential {
	cred := &Credential{Claims: claims}

	if id, ok := claims["id"].(string); ok {
		cred.ID = id
	}
	cred.IssuerDID = extractIssuer(claims["issuer"])

	if subject, ok := claims["credentialSubject"].(map[string]any); ok {
		if sid, ok := subject["id"].(string); ok {
			cred.SubjectDID = sid
		}
	}

	switch t := claims["type"].(type) {
	case []any:
		for _, v := range t {
			if s, ok := v.(string); ok {
				cred.Types = append(cred.Types, s)
			}
		}
	case string:
		cred.Types = []string{t}
	}

	cred.IssuanceDate = parseTimeField(claims["issuanceDate"])
	cred.ExpirationDate = parseTimeField(claims["expirationDate"])

	if proofRaw, ok := claims["proof"].(map[string]any); ok {
		cred.Proof = proofFromMap(proofRaw)
		cred.HasSignature = cred.Proof.HasSignatureMaterial()
	}
	if !cred.HasSignature {
		if sig, ok := claims["signature"].(string); ok && sig != "" {
			cred.HasSignature = true
		}
	}
	return cred
}

func proofFromMap(m map[string]any) *Proof {
	p := &Proof{}
	p.Type, _ = m["type"].(string)
	p.Created, _ = m["created"].(string)
	p.VerificationMethod, _ = m["verificationMethod"].(string)
	p.Challenge, _ = m["challenge"].(string)
	p.Domain, _ = m["domain"].(string)
	p.JWS, _ = m["jws"].(string)
	p.ProofValue, _ = m["proofValue"].(string)
	if h, ok := m["credentialHash"].(string); ok {
		p.CredentialHash = h
	} else if h, ok := m["expected_hash"].(string); ok {
		p.CredentialHash = h
	}
	return p
}

// applyRegisteredClaims fills gaps from JWT registered claims (iss, sub, jti,
// exp, nbf) when the VC body did not carry the equivalent field.
func applyRegisteredClaims(cred *Credential, claims map[string]any) {
	if cred.IssuerDID == "" {
		if iss, ok := claims["iss"].(string); ok {
			cred.IssuerDID = iss
		}
	}
	if cred.SubjectDID == "" {
		if sub, ok := claims["sub"].(string); ok {
			cred.SubjectDID = sub
		}
	}
	if cred.ID == "" {
		if jti, ok := claims["jti"].(string); ok {
			cred.ID = jti
		}
	}
	if cred.ExpirationDate == nil {
		if exp, ok := claims["exp"].(float64); ok {
			t := time.Unix(int64(exp), 0).UTC()
			cred.ExpirationDate = &t
		}
	}
	if cred.IssuanceDate == nil {
		if iat, ok := claims["iat"].(float64); ok {
			t := time.Unix(int64(iat), 0).UTC()
			cred.IssuanceDate = &t
		}
	}
}

func extractIssuer(v any) string {
	switch issuer := v.(type) {
	case string:
		return issuer
	case map[string]any:
		if id, ok := issuer["id"].(string); ok {
			return id
		}
	}
	return ""
}

func parseTimeField(v any) *time.Time {
	s, ok := v.(string)
	if !ok || s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, time.RFC3339Nano, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
