package credential_test

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proofgate/internal/credential"
	"proofgate/pkg/testutil"
)

func TestDecodeEmptyPayload(t *testing.T) {
	_, _, err := credential.Decode(credential.Payload{})
	assert.ErrorIs(t, err, credential.ErrEmptyPayload)
}

func TestDecodeSignedJWT(t *testing.T) {
	token := testutil.NewCredentialBuilder().SignedJWT()

	cred, form, err := credential.Decode(credential.Payload{JWT: token})
	require.NoError(t, err)
	assert.Equal(t, credential.FormJWT, form)
	assert.Equal(t, "urn:credential:test-1", cred.ID)
	assert.Equal(t, testutil.TrustedIssuerDID, cred.IssuerDID)
	assert.Equal(t, "did:key:z6MkTestSubject", cred.SubjectDID)
	assert.True(t, cred.HasSignature)
	require.NotNil(t, cred.Proof)
	assert.Equal(t, "Ed25519Signature2020", cred.Proof.Type)
}

func TestDecodeTwoSegmentJWTIsUnsigned(t *testing.T) {
	token := testutil.NewCredentialBuilder().WithoutProof().UnsignedJWT()

	cred, _, err := credential.Decode(credential.Payload{JWT: token})
	require.NoError(t, err)
	assert.False(t, cred.HasSignature)
}

func TestDecodeJWTRegisteredClaimFallbacks(t *testing.T) {
	exp := time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)
	token := testutil.JWTWithClaims(map[string]any{
		"iss": "did:web:fallback.example",
		"sub": "did:key:z6MkFallback",
		"jti": "urn:credential:fallback",
		"exp": exp.Unix(),
	}, true)

	cred, _, err := credential.Decode(credential.Payload{JWT: token})
	require.NoError(t, err)
	assert.Equal(t, "did:web:fallback.example", cred.IssuerDID)
	assert.Equal(t, "did:key:z6MkFallback", cred.SubjectDID)
	assert.Equal(t, "urn:credential:fallback", cred.ID)
	require.NotNil(t, cred.ExpirationDate)
	assert.True(t, exp.Equal(*cred.ExpirationDate))
}

func TestDecodeJWTInvalid(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{name: "single segment", token: "not-a-jwt"},
		{name: "bad base64 payload", token: "aGVhZGVy.@@@.c2ln"},
		{name: "non-object payload", token: "aGVhZGVy.IjEi.c2ln"},
		{name: "oversized", token: strings.Repeat("a", credential.MaxJWTBytes+1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := credential.Decode(credential.Payload{JWT: tt.token})
			assert.Error(t, err)
		})
	}
}

func TestDecodeQRInlineJSON(t *testing.T) {
	raw := testutil.NewCredentialBuilder().JSON()

	cred, form, err := credential.Decode(credential.Payload{QRData: string(raw)})
	require.NoError(t, err)
	assert.Equal(t, credential.FormQR, form)
	assert.Equal(t, testutil.TrustedIssuerDID, cred.IssuerDID)
	assert.True(t, cred.HasSignature)
}

func TestDecodeQREmbeddedJWT(t *testing.T) {
	token := testutil.NewCredentialBuilder().SignedJWT()

	cred, form, err := credential.Decode(credential.Payload{QRData: token})
	require.NoError(t, err)
	assert.Equal(t, credential.FormQR, form)
	assert.True(t, cred.HasSignature)
}

func TestDecodeQRRejectsCredentialOffer(t *testing.T) {
	_, _, err := credential.Decode(credential.Payload{
		QRData: "openid-credential-offer://issuer.example?credential_offer=x",
	})
	assert.ErrorIs(t, err, credential.ErrUnsupportedOffer)
}

func TestDecodeQROpaqueString(t *testing.T) {
	cred, _, err := credential.Decode(credential.Payload{QRData: "SCAN-12345"})
	require.NoError(t, err)
	assert.False(t, cred.HasSignature)
	assert.Equal(t, "SCAN-12345", cred.Claims["qr_payload"])
}

func TestDecodeRaw(t *testing.T) {
	raw := testutil.NewCredentialBuilder().
		WithIssuer(map[string]any{"id": "did:web:object.example"}).
		JSON()

	cred, form, err := credential.Decode(credential.Payload{Raw: raw})
	require.NoError(t, err)
	assert.Equal(t, credential.FormRaw, form)
	assert.Equal(t, "did:web:object.example", cred.IssuerDID)
}

func TestDecodeRawMalformed(t *testing.T) {
	_, _, err := credential.Decode(credential.Payload{Raw: json.RawMessage(`[1,2]`)})
	assert.ErrorIs(t, err, credential.ErrMalformedJSON)
}

func TestDecodePriorityJWTFirst(t *testing.T) {
	token := testutil.NewCredentialBuilder().WithID("urn:credential:from-jwt").SignedJWT()
	raw := testutil.NewCredentialBuilder().WithID("urn:credential:from-raw").JSON()

	cred, form, err := credential.Decode(credential.Payload{JWT: token, Raw: raw})
	require.NoError(t, err)
	assert.Equal(t, credential.FormJWT, form)
	assert.Equal(t, "urn:credential:from-jwt", cred.ID)
}

func TestExpired(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Second)

	raw := testutil.NewCredentialBuilder().WithExpiration(past).JSON()
	cred, _, err := credential.Decode(credential.Payload{Raw: raw})
	require.NoError(t, err)
	assert.True(t, cred.Expired(now))

	noExpiry, _, err := credential.Decode(credential.Payload{Raw: testutil.NewCredentialBuilder().JSON()})
	require.NoError(t, err)
	assert.False(t, noExpiry.Expired(now))
}
