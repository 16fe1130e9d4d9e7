package proofs

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"proofgate/internal/canonical"
	"proofgate/internal/credential"
	"proofgate/internal/platform/metrics"
	"proofgate/internal/replay"
	"proofgate/internal/verification"
	dErrors "proofgate/pkg/domain-errors"
)

// Verifier runs the verification pipeline over a proof payload.
type Verifier interface {
	Verify(ctx context.Context, payload credential.Payload) *verification.Result
}

// Service verifies individual proofs under replay protection and checks
// caller-supplied expectations against the decoded credential.
type Service struct {
	guard    *replay.Guard
	verifier Verifier
	logger   *slog.Logger
	metrics  *metrics.Metrics
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

// New creates the proofs service. Guard and verifier are required.
func New(guard *replay.Guard, verifier Verifier, opts ...Option) *Service {
	if guard == nil {
		panic("proofs.New: replay guard is required")
	}
	if verifier == nil {
		panic("proofs.New: verifier is required")
	}

	s := &Service{
		guard:    guard,
		verifier: verifier,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Verify checks one proof. A duplicate submission with the same format,
// challenge, domain and proof bytes inside the replay TTL is rejected before
// any pipeline work.
func (s *Service) Verify(ctx context.Context, req VerifyRequest) (*VerifyResponse, error) {
	fp := replay.NewFingerprint(req.Format, req.Challenge, req.Domain, req.Proof)
	if !s.guard.MarkIfFirstSeen(fp) {
		if s.metrics != nil {
			s.metrics.ReplaysRejected.Inc()
		}
		s.logger.WarnContext(ctx, "proof replay rejected",
			"format", req.Format, "challenge_set", req.Challenge != "")
		return nil, dErrors.New(dErrors.CodeReplayDetected, "proof was already presented within the replay window")
	}

	res := s.verifier.Verify(ctx, proofPayload(req.Proof))

	expectations, err := s.checkExpectations(req)
	if err != nil {
		return nil, err
	}

	valid := res.Status == verification.StatusVerified
	for _, e := range expectations {
		if !e.Matched {
			valid = false
		}
	}

	return &VerifyResponse{
		Valid:           valid,
		ReplayProtected: fp.Guarded(),
		Verification:    res,
		Expectations:    expectations,
	}, nil
}

// Metadata computes the strict canonical hash of a credential object.
func (s *Service) Metadata(req MetadataRequest) (*MetadataResponse, error) {
	alg, err := canonical.ParseAlgorithm(req.HashAlgorithm)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, err.Error())
	}
	hash, err := canonical.Hash(req.Credential, alg, canonical.Strict)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "credential cannot be canonicalized")
	}
	return &MetadataResponse{
		Hash:             hash,
		HashAlgorithm:    string(alg),
		Canonicalization: string(canonical.Strict),
	}, nil
}

// checkExpectations decodes the proof's credential and compares it against
// the caller's asserted issuer, subject and hash. Mismatches are findings,
// not errors; only an unusable hash algorithm is rejected outright.
func (s *Service) checkExpectations(req VerifyRequest) ([]Expectation, error) {
	if req.ExpectedIssuerDID == "" && req.ExpectedSubjectDID == "" && req.ExpectedHash == "" {
		return nil, nil
	}

	cred, _, err := credential.Decode(proofPayload(req.Proof))
	if err != nil {
		// The pipeline already reported the parse failure; every
		// expectation over an undecodable proof is unmatched.
		var out []Expectation
		for field, expected := range map[string]string{
			"issuer_did":  req.ExpectedIssuerDID,
			"subject_did": req.ExpectedSubjectDID,
			"hash":        req.ExpectedHash,
		} {
			if expected != "" {
				out = append(out, Expectation{Field: field, Expected: expected})
			}
		}
		return out, nil
	}

	var out []Expectation
	if req.ExpectedIssuerDID != "" {
		out = append(out, Expectation{
			Field:    "issuer_did",
			Expected: req.ExpectedIssuerDID,
			Actual:   cred.IssuerDID,
			Matched:  cred.IssuerDID == req.ExpectedIssuerDID,
		})
	}
	if req.ExpectedSubjectDID != "" {
		out = append(out, Expectation{
			Field:    "subject_did",
			Expected: req.ExpectedSubjectDID,
			Actual:   cred.SubjectDID,
			Matched:  cred.SubjectDID == req.ExpectedSubjectDID,
		})
	}
	if req.ExpectedHash != "" {
		alg, err := canonical.ParseAlgorithm(req.HashAlgorithm)
		if err != nil {
			return nil, dErrors.New(dErrors.CodeInvalidInput, err.Error())
		}
		strict, legacy, err := canonical.CredentialHashes(cred.Claims, alg)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "credential cannot be canonicalized")
		}
		expected := strings.ToLower(strings.TrimPrefix(req.ExpectedHash, "0x"))
		out = append(out, Expectation{
			Field:    "hash",
			Expected: req.ExpectedHash,
			Actual:   strict,
			Matched:  expected == strict || expected == legacy,
		})
	}
	return out, nil
}

// proofPayload maps raw proof bytes onto the pipeline's input form. A JSON
// string is a compact JWT; anything else is treated as a raw credential.
func proofPayload(proof json.RawMessage) credential.Payload {
	var token string
	if err := json.Unmarshal(proof, &token); err == nil {
		return credential.Payload{JWT: token}
	}
	return credential.Payload{Raw: proof}
}
