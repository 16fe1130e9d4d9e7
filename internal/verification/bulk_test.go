package verification

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proofgate/internal/credential"
	"proofgate/internal/issuer"
	dErrors "proofgate/pkg/domain-errors"
	"proofgate/pkg/testutil"
)

func newBulkService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	issuers := &fakeIssuers{infos: map[string]*issuer.Info{
		testutil.TrustedIssuerDID: {DID: testutil.TrustedIssuerDID, Verified: true},
	}}
	base := []Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}
	return New(NewResultStore(time.Minute), issuers, &fakeStatus{}, &fakeAnchors{},
		append(base, opts...)...)
}

func TestBulkVerifyCounts(t *testing.T) {
	svc := newBulkService(t)

	payloads := []credential.Payload{
		{Raw: testutil.NewCredentialBuilder().JSON()},
		{Raw: testutil.NewCredentialBuilder().WithID("urn:credential:test-2").JSON()},
		{JWT: "not-a-credential"},
	}

	job, err := svc.BulkVerify(context.Background(), payloads)
	require.NoError(t, err)

	assert.NotEmpty(t, job.ID)
	assert.Equal(t, 3, job.Total)
	assert.Equal(t, job.Total, job.Verified+job.Failed+job.Suspicious)
	assert.Equal(t, 1, job.Failed)
	assert.Len(t, job.Results, 3)
	assert.False(t, job.CompletedAt.IsZero())
}

func TestBulkVerifyResultsIndividuallyRetrievable(t *testing.T) {
	svc := newBulkService(t)

	job, err := svc.BulkVerify(context.Background(), []credential.Payload{
		{Raw: testutil.NewCredentialBuilder().JSON()},
	})
	require.NoError(t, err)
	require.Len(t, job.Results, 1)

	res, ok := svc.GetResult(job.Results[0].VerificationID)
	require.True(t, ok)
	assert.Equal(t, job.Results[0], res)
}

func TestBulkVerifyEmptyBatch(t *testing.T) {
	svc := newBulkService(t)

	_, err := svc.BulkVerify(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestBulkVerifyBatchTooLarge(t *testing.T) {
	svc := newBulkService(t, WithMaxBulkSize(2))

	payloads := make([]credential.Payload, 3)
	for i := range payloads {
		payloads[i] = credential.Payload{
			Raw: testutil.NewCredentialBuilder().
				WithID(fmt.Sprintf("urn:credential:bulk-%d", i)).
				JSON(),
		}
	}

	_, err := svc.BulkVerify(context.Background(), payloads)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBatchTooLarge))
}

func TestBulkJobRetrievable(t *testing.T) {
	svc := newBulkService(t)

	job, err := svc.BulkVerify(context.Background(), []credential.Payload{
		{Raw: testutil.NewCredentialBuilder().JSON()},
	})
	require.NoError(t, err)

	got, ok := svc.GetBulk(job.ID)
	require.True(t, ok)
	assert.Equal(t, job, got)

	_, ok = svc.GetBulk("missing")
	assert.False(t, ok)
}
