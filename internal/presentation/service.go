package presentation

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"proofgate/internal/credential"
	"proofgate/internal/platform/metrics"
	"proofgate/internal/verification"
	dErrors "proofgate/pkg/domain-errors"
)

const nonceBytes = 16

// Verifier runs the verification pipeline over a presented credential.
type Verifier interface {
	Verify(ctx context.Context, payload credential.Payload) *verification.Result
}

// Service brokers the presentation exchange: it issues nonce-bound requests
// and consumes each one exactly once. A consumed request is deleted, so a
// second response against the same request ID is indistinguishable from a
// response against a request that never existed.
type Service struct {
	store    *RequestStore
	verifier Verifier
	ttl      time.Duration

	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	stop chan struct{}
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

// WithClock overrides the time source (for deterministic tests).
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// New creates the broker. Store, verifier and a positive TTL are required.
func New(store *RequestStore, verifier Verifier, ttl time.Duration, opts ...Option) *Service {
	if store == nil {
		panic("presentation.New: request store is required")
	}
	if verifier == nil {
		panic("presentation.New: verifier is required")
	}
	if ttl <= 0 {
		panic("presentation.New: ttl must be positive")
	}

	s := &Service{
		store:    store,
		verifier: verifier,
		ttl:      ttl,
		logger:   slog.Default(),
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateRequest opens a presentation request with a fresh random nonce.
func (s *Service) CreateRequest(ctx context.Context, purpose, state string) (*Request, error) {
	if err := s.store.Hydrate(ctx); err != nil {
		return nil, err
	}

	nonce, err := newNonce()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "generate nonce")
	}

	req := &Request{
		ID:        uuid.New().String(),
		Nonce:     nonce,
		CreatedAt: s.now(),
		Purpose:   purpose,
		State:     state,
	}
	if err := s.store.Put(ctx, req); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.PresentationRequestsCreated.Inc()
	}
	s.logger.InfoContext(ctx, "presentation request created",
		"request_id", req.ID, "purpose", purpose)
	return req, nil
}

// ExpiresAt returns the expiry deadline for a request.
func (s *Service) ExpiresAt(req *Request) time.Time {
	return req.CreatedAt.Add(s.ttl)
}

// ConsumeResponse matches a response against its open request, deletes the
// request, and runs the pipeline over the presented credential. Unknown and
// expired requests are rejected identically: the caller cannot distinguish a
// request that expired from one that never existed.
func (s *Service) ConsumeResponse(ctx context.Context, sub SubmitRequest) (*verification.Result, error) {
	if err := s.store.Hydrate(ctx); err != nil {
		return nil, err
	}

	req, ok := s.store.Get(sub.RequestID)
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnknownRequest, "unknown request_id")
	}
	if req.Expired(s.ttl, s.now()) {
		if err := s.store.Delete(ctx, req.ID); err != nil {
			s.logger.WarnContext(ctx, "failed to delete expired request",
				"request_id", req.ID, "error", err)
		}
		if s.metrics != nil {
			s.metrics.PresentationRequestsExpired.Inc()
		}
		return nil, dErrors.New(dErrors.CodeUnknownRequest, "unknown request_id")
	}

	// A token-form response must prove freshness: the stored nonce has to
	// arrive either inside the token claims or as an explicit top-level
	// nonce. Only a bare credential, which has no place to bind a nonce,
	// skips the check.
	nonce, bound := presentedNonce(sub)
	if !bound && (sub.VPToken != "" || sub.JWT != "") {
		return nil, dErrors.New(dErrors.CodeNonceMismatch, "presented token carries no nonce")
	}
	if bound && nonce != req.Nonce {
		return nil, dErrors.New(dErrors.CodeNonceMismatch, "nonce does not match presentation request")
	}
	if req.State != "" && sub.State != req.State {
		return nil, dErrors.New(dErrors.CodeStateMismatch, "state does not match presentation request")
	}

	// Consumption is the delete: success leaves no request to replay against.
	if err := s.store.Delete(ctx, req.ID); err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.PresentationRequestsConsumed.Inc()
	}

	res := s.verifier.Verify(ctx, credential.Payload{
		JWT:    firstNonEmpty(sub.VPToken, sub.JWT),
		Raw:    sub.Credential,
		QRData: "",
	})
	s.logger.InfoContext(ctx, "presentation response consumed",
		"request_id", req.ID, "verification_id", res.VerificationID, "status", res.Status)
	return res, nil
}

// Start launches the background prune loop, sweeping at half the TTL.
func (s *Service) Start(ctx context.Context) {
	interval := s.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if pruned := s.store.PruneExpired(ctx, s.ttl, s.now()); pruned > 0 {
					if s.metrics != nil {
						s.metrics.PresentationRequestsExpired.Add(float64(pruned))
					}
					s.logger.DebugContext(ctx, "pruned expired presentation requests", "count", pruned)
				}
			case <-ctx.Done():
				return
			case <-s.stop:
				return
			}
		}
	}()
}

// Stop halts the background prune loop.
func (s *Service) Stop() {
	close(s.stop)
}

// presentedNonce extracts the nonce bound into the response, if any. A
// vp_token or JWT binds the nonce inside its claims; a bare credential with
// no explicit nonce field is unbound.
func presentedNonce(sub SubmitRequest) (string, bool) {
	if sub.Nonce != "" {
		return sub.Nonce, true
	}
	for _, token := range []string{sub.VPToken, sub.JWT} {
		if token == "" {
			continue
		}
		if nonce, ok := tokenNonce(token); ok {
			return nonce, true
		}
	}
	return "", false
}

// tokenNonce decodes a compact JWT payload without verifying its signature
// and reads the nonce claim.
func tokenNonce(token string) (string, bool) {
	segments := strings.Split(token, ".")
	if len(segments) < 2 {
		return "", false
	}
	decoded, err := jwt.NewParser().DecodeSegment(segments[1])
	if err != nil {
		return "", false
	}
	var claims map[string]any
	if err := json.Unmarshal(decoded, &claims); err != nil {
		return "", false
	}
	nonce, ok := claims["nonce"].(string)
	return nonce, ok && nonce != ""
}

func newNonce() (string, error) {
	buf := make([]byte, nonceBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
