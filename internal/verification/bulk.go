package verification

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"proofgate/internal/credential"
	"proofgate/internal/platform/tracer"
	dErrors "proofgate/pkg/domain-errors"
)

// BulkVerify runs the pipeline sequentially over a batch of payloads and
// folds the outcomes into one job record. Individual results are cached under
// their own verification IDs as well, so a caller can drill into any entry of
// a completed job.
func (s *Service) BulkVerify(ctx context.Context, payloads []credential.Payload) (*BulkResult, error) {
	if len(payloads) == 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "bulk request contains no credentials")
	}
	if len(payloads) > s.maxBulk {
		return nil, dErrors.New(dErrors.CodeBatchTooLarge,
			fmt.Sprintf("bulk request of %d credentials exceeds the limit of %d", len(payloads), s.maxBulk))
	}

	ctx, span := s.tracer.Start(ctx, tracer.SpanBulk)
	defer span.End(nil)

	job := &BulkResult{
		ID:      uuid.New().String(),
		Total:   len(payloads),
		Results: make([]*Result, 0, len(payloads)),
	}

	for _, p := range payloads {
		res := s.Verify(ctx, p)
		job.Results = append(job.Results, res)
		switch res.Status {
		case StatusVerified:
			job.Verified++
		case StatusFailed:
			job.Failed++
		case StatusSuspicious:
			job.Suspicious++
		}
	}
	job.CompletedAt = s.now()

	s.store.PutBulk(job)
	if s.metrics != nil {
		s.metrics.BulkJobsTotal.Inc()
		s.metrics.BulkJobSize.Observe(float64(job.Total))
	}
	s.logger.InfoContext(ctx, "bulk verification completed",
		"job_id", job.ID, "total", job.Total,
		"verified", job.Verified, "failed", job.Failed, "suspicious", job.Suspicious)

	return job, nil
}

// GetBulk returns a completed bulk job by ID.
func (s *Service) GetBulk(id string) (*BulkResult, bool) {
	return s.store.GetBulk(id)
}
