package proofs

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proofgate/internal/canonical"
	"proofgate/internal/credential"
	"proofgate/internal/replay"
	"proofgate/internal/verification"
	dErrors "proofgate/pkg/domain-errors"
	"proofgate/pkg/testutil"
)

type stubVerifier struct {
	status   verification.Status
	payloads []credential.Payload
}

func (v *stubVerifier) Verify(_ context.Context, p credential.Payload) *verification.Result {
	v.payloads = append(v.payloads, p)
	status := v.status
	if status == "" {
		status = verification.StatusVerified
	}
	return &verification.Result{VerificationID: "ver-1", Status: status}
}

func newProofService(t *testing.T) (*Service, *stubVerifier) {
	t.Helper()
	verifier := &stubVerifier{}
	svc := New(replay.NewGuard(time.Minute), verifier,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	return svc, verifier
}

func jwtProof(token string) json.RawMessage {
	b, _ := json.Marshal(token)
	return b
}

func TestVerifyProofHappyPath(t *testing.T) {
	svc, verifier := newProofService(t)

	resp, err := svc.Verify(context.Background(), VerifyRequest{
		Format:    "jwt_vc",
		Proof:     jwtProof(testutil.NewCredentialBuilder().SignedJWT()),
		Challenge: "challenge-1",
		Domain:    "verifier.example",
	})
	require.NoError(t, err)

	assert.True(t, resp.Valid)
	assert.True(t, resp.ReplayProtected)
	assert.Equal(t, "ver-1", resp.Verification.VerificationID)
	assert.Empty(t, resp.Expectations)
	require.Len(t, verifier.payloads, 1)
	assert.NotEmpty(t, verifier.payloads[0].JWT, "a JSON string proof is treated as a compact JWT")
}

func TestVerifyProofReplayRejected(t *testing.T) {
	svc, _ := newProofService(t)
	req := VerifyRequest{
		Format:    "jwt_vc",
		Proof:     jwtProof(testutil.NewCredentialBuilder().SignedJWT()),
		Challenge: "challenge-1",
		Domain:    "verifier.example",
	}

	_, err := svc.Verify(context.Background(), req)
	require.NoError(t, err)

	_, err = svc.Verify(context.Background(), req)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeReplayDetected))
}

func TestVerifyProofWithoutChallengeIsUnguarded(t *testing.T) {
	svc, _ := newProofService(t)
	req := VerifyRequest{
		Format: "jwt_vc",
		Proof:  jwtProof(testutil.NewCredentialBuilder().SignedJWT()),
	}

	for i := 0; i < 3; i++ {
		resp, err := svc.Verify(context.Background(), req)
		require.NoError(t, err)
		assert.False(t, resp.ReplayProtected)
	}
}

func TestVerifyProofExpectations(t *testing.T) {
	svc, _ := newProofService(t)

	claims := testutil.NewCredentialBuilder().Claims()
	strict, _, err := canonical.CredentialHashes(claims, canonical.SHA256)
	require.NoError(t, err)

	resp, err := svc.Verify(context.Background(), VerifyRequest{
		Format:             "ldp_vc",
		Proof:              json.RawMessage(testutil.NewCredentialBuilder().JSON()),
		Challenge:          "challenge-exp",
		ExpectedIssuerDID:  testutil.TrustedIssuerDID,
		ExpectedSubjectDID: "did:key:somebody-else",
		ExpectedHash:       "0x" + strict,
	})
	require.NoError(t, err)

	require.Len(t, resp.Expectations, 3)
	byField := map[string]Expectation{}
	for _, e := range resp.Expectations {
		byField[e.Field] = e
	}

	assert.True(t, byField["issuer_did"].Matched)
	assert.False(t, byField["subject_did"].Matched)
	assert.Equal(t, "did:key:z6MkTestSubject", byField["subject_did"].Actual)
	assert.True(t, byField["hash"].Matched, "0x prefix and case are normalized")
	assert.False(t, resp.Valid, "any unmatched expectation invalidates the proof")
}

func TestVerifyProofPipelineFailureInvalidates(t *testing.T) {
	svc, verifier := newProofService(t)
	verifier.status = verification.StatusFailed

	resp, err := svc.Verify(context.Background(), VerifyRequest{
		Format:    "jwt_vc",
		Proof:     jwtProof(testutil.NewCredentialBuilder().SignedJWT()),
		Challenge: "challenge-f",
	})
	require.NoError(t, err)
	assert.False(t, resp.Valid)
}

func TestVerifyProofBadHashAlgorithm(t *testing.T) {
	svc, _ := newProofService(t)

	_, err := svc.Verify(context.Background(), VerifyRequest{
		Format:        "ldp_vc",
		Proof:         json.RawMessage(testutil.NewCredentialBuilder().JSON()),
		Challenge:     "challenge-alg",
		ExpectedHash:  "deadbeef",
		HashAlgorithm: "md5",
	})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestMetadataMatchesCanonicalHash(t *testing.T) {
	svc, _ := newProofService(t)
	claims := testutil.NewCredentialBuilder().Claims()

	want, err := canonical.Hash(claims, canonical.SHA256, canonical.Strict)
	require.NoError(t, err)

	resp, err := svc.Metadata(MetadataRequest{Credential: claims})
	require.NoError(t, err)
	assert.Equal(t, want, resp.Hash)
	assert.Equal(t, string(canonical.SHA256), resp.HashAlgorithm)
	assert.Equal(t, string(canonical.Strict), resp.Canonicalization)
}

func TestMetadataKeccak(t *testing.T) {
	svc, _ := newProofService(t)
	claims := testutil.NewCredentialBuilder().Claims()

	resp, err := svc.Metadata(MetadataRequest{Credential: claims, HashAlgorithm: "keccak256"})
	require.NoError(t, err)

	want, err := canonical.Hash(claims, canonical.Keccak256, canonical.Strict)
	require.NoError(t, err)
	assert.Equal(t, want, resp.Hash)
}

func TestMetadataRejectsUnknownAlgorithm(t *testing.T) {
	svc, _ := newProofService(t)

	_, err := svc.Metadata(MetadataRequest{
		Credential:    map[string]any{"id": "x"},
		HashAlgorithm: "sha1",
	})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}
