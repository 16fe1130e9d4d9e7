package verification

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"proofgate/internal/anchor"
	"proofgate/internal/credential"
	"proofgate/internal/issuer"
	"proofgate/internal/platform/metrics"
	"proofgate/internal/platform/tracer"
	"proofgate/internal/revocation"
)

// AnchorVerifier is the on-chain registry dependency.
type AnchorVerifier interface {
	Verify(ctx context.Context, hash string) anchor.VerifyResult
}

// IssuerResolver resolves an issuer DID to trust information.
type IssuerResolver interface {
	Resolve(ctx context.Context, did string) (*issuer.Info, error)
}

// StatusChecker queries the issuer's credential status endpoint.
type StatusChecker interface {
	Status(ctx context.Context, credentialID string) (revocation.Status, error)
}

// Service orchestrates the verification pipeline. Checks run in fixed order
// and never short-circuit: a failure in one check does not skip later checks.
type Service struct {
	store   *ResultStore
	issuers IssuerResolver
	status  StatusChecker
	anchors AnchorVerifier
	tracer  tracer.Tracer
	logger  *slog.Logger
	metrics *metrics.Metrics
	maxBulk int
	now     func() time.Time
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets the logger for the service.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// WithMetrics sets the metrics collector for the service.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithTracer sets the tracer for the service.
func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

// WithMaxBulkSize overrides the bulk batch bound.
func WithMaxBulkSize(n int) Option {
	return func(s *Service) {
		s.maxBulk = n
	}
}

// WithClock overrides the time source (for deterministic tests).
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// New creates the pipeline service. The result store is required; the
// external collaborators may be nil, in which case their checks degrade to
// warnings rather than failing hard.
func New(store *ResultStore, issuers IssuerResolver, status StatusChecker, anchors AnchorVerifier, opts ...Option) *Service {
	if store == nil {
		panic("verification.New: result store is required")
	}

	s := &Service{
		store:   store,
		issuers: issuers,
		status:  status,
		anchors: anchors,
		tracer:  tracer.NewNoop(),
		logger:  slog.Default(),
		maxBulk: 100,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Verify runs the full pipeline over one payload. It always returns a result
// object: findings about untrustworthy credentials are folded into checks and
// flags, and unexpected internal failures become a terminal failed result
// with a maxed risk score rather than propagating.
func (s *Service) Verify(ctx context.Context, payload credential.Payload) (res *Result) {
	start := s.now()
	verificationID := uuid.New().String()

	ctx, span := s.tracer.Start(ctx, tracer.SpanVerify)

	defer func() {
		if r := recover(); r != nil {
			s.logger.ErrorContext(ctx, "verification pipeline panic",
				"verification_id", verificationID, "panic", r)
			res = s.terminalResult(verificationID, start, "internal verification error")
		}
		span.SetAttributes(
			tracer.String(tracer.AttrStatus, string(res.Status)),
			tracer.Int64(tracer.AttrRiskScore, int64(res.RiskScore)),
		)
		span.End(nil)

		s.store.PutResult(res)
		if s.metrics != nil {
			s.metrics.ObserveVerification(string(res.Status), res.RiskScore, start)
		}
	}()

	cred, form, err := credential.Decode(payload)
	if err != nil {
		span.AddEvent("parse_failed", tracer.String("error", err.Error()))
		res = s.terminalResult(verificationID, start, err.Error())
		return res
	}
	span.SetAttributes(tracer.String(tracer.AttrForm, string(form)))

	checks := make([]Check, 0, 7)
	flags := make([]string, 0, 4)

	appendCheck := func(c Check, f []string) {
		checks = append(checks, c)
		flags = append(flags, f...)
		span.AddEvent("check",
			tracer.String(tracer.AttrCheckName, c.Name),
			tracer.String(tracer.AttrCheckStatus, string(c.Status)),
		)
	}

	appendCheck(formatCheck(form))
	appendCheck(signatureCheck(cred))
	appendCheck(s.issuerCheck(ctx, cred))
	appendCheck(expirationCheck(cred, start))
	appendCheck(s.revocationCheck(ctx, cred))
	appendCheck(s.anchorCheck(ctx, cred))
	appendCheck(didCheck(cred))

	riskScore := scoreRisk(checks, flags)
	res = &Result{
		VerificationID: verificationID,
		Status:         deriveStatus(checks, flags, riskScore),
		Confidence:     maxRiskScore - riskScore,
		RiskScore:      riskScore,
		RiskFlags:      flags,
		Checks:         checks,
		Timestamp:      start,
	}
	return res
}

// GetResult returns a previously produced result by verification ID.
func (s *Service) GetResult(id string) (*Result, bool) {
	return s.store.GetResult(id)
}

// terminalResult is the failed result for total parse failures and boundary
// recoveries: a single format check, risk score maxed out.
func (s *Service) terminalResult(verificationID string, ts time.Time, message string) *Result {
	return &Result{
		VerificationID: verificationID,
		Status:         StatusFailed,
		Confidence:     0,
		RiskScore:      maxRiskScore,
		RiskFlags:      []string{FlagInvalidFormat},
		Checks: []Check{{
			Name:    CheckNameFormat,
			Status:  CheckFailed,
			Message: message,
		}},
		Timestamp: ts,
	}
}
