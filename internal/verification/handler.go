package verification

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	contracts "proofgate/contracts/verification"
	"proofgate/internal/credential"
	"proofgate/internal/platform/middleware"
	dErrors "proofgate/pkg/domain-errors"
	"proofgate/pkg/platform/httputil"
)

// InstantVerifyRequest carries one credential in whichever form the caller
// has it. Exactly one of the three fields must be set; JWT wins when several
// are present.
type InstantVerifyRequest struct {
	JWT        string          `json:"jwt,omitempty"`
	QRData     string          `json:"qrData,omitempty"`
	Credential json.RawMessage `json:"credential,omitempty"`
}

// Validate implements httputil.Validatable.
func (r *InstantVerifyRequest) Validate() error {
	if r.Payload().IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "one of jwt, qrData or credential is required")
	}
	return nil
}

// Payload converts the request into the pipeline's input form.
func (r *InstantVerifyRequest) Payload() credential.Payload {
	return credential.Payload{JWT: r.JWT, QRData: r.QRData, Raw: r.Credential}
}

// BulkVerifyRequest carries a batch of credentials.
type BulkVerifyRequest struct {
	Credentials []InstantVerifyRequest `json:"credentials"`
}

// Validate implements httputil.Validatable. The upper bound is enforced by
// the service, which owns the configured limit.
func (r *BulkVerifyRequest) Validate() error {
	if len(r.Credentials) == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "credentials must not be empty")
	}
	return nil
}

// InstantVerifyResponse is the envelope returned by the instant endpoint.
type InstantVerifyResponse struct {
	Verification     *Result                     `json:"verification"`
	Fraud            contracts.FraudAnalysis     `json:"fraud"`
	Record           contracts.RecordSummary     `json:"record"`
	CandidateSummary *contracts.CandidateSummary `json:"candidate_summary"`
	ReasonCodes      []string                    `json:"reason_codes"`
	RiskSignals      []contracts.RiskSignal      `json:"risk_signals"`
}

// Handler exposes the verification pipeline over HTTP.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

// NewHandler creates the verification Handler.
func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register registers the verification routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/verify/instant", h.handleInstantVerify)
	r.Post("/verify/bulk", h.handleBulkVerify)
	r.Get("/verify/bulk/{jobID}", h.handleGetBulk)
	r.Get("/verify/result/{verificationID}", h.handleGetResult)
}

func (h *Handler) handleInstantVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[InstantVerifyRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	payload := req.Payload()
	res := h.service.Verify(ctx, payload)

	httputil.WriteJSON(w, http.StatusOK, buildInstantResponse(res, payload))
}

func (h *Handler) handleBulkVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[BulkVerifyRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	payloads := make([]credential.Payload, 0, len(req.Credentials))
	for _, c := range req.Credentials {
		payloads = append(payloads, c.Payload())
	}

	job, err := h.service.BulkVerify(ctx, payloads)
	if err != nil {
		h.logger.WarnContext(ctx, "bulk verification rejected",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{"result": job})
}

func (h *Handler) handleGetBulk(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job, ok := h.service.GetBulk(jobID)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "bulk job not found"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"result": job})
}

func (h *Handler) handleGetResult(w http.ResponseWriter, r *http.Request) {
	verificationID := chi.URLParam(r, "verificationID")
	res, ok := h.service.GetResult(verificationID)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "verification result not found"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

// buildInstantResponse shapes the pipeline result into the public envelope.
// The candidate summary is decoded independently of the pipeline run; a
// payload that never parsed yields a null summary.
func buildInstantResponse(res *Result, payload credential.Payload) *InstantVerifyResponse {
	signals := make([]contracts.RiskSignal, 0, len(res.Checks))
	for _, c := range res.Checks {
		if c.Status == CheckPassed || c.Status == CheckSkipped {
			continue
		}
		signals = append(signals, contracts.RiskSignal{
			Check:   c.Name,
			Status:  string(c.Status),
			Message: c.Message,
		})
	}

	return &InstantVerifyResponse{
		Verification: res,
		Fraud: contracts.FraudAnalysis{
			RiskScore:      res.RiskScore,
			RiskFlags:      res.RiskFlags,
			Recommendation: recommendationFor(res.Status),
		},
		Record: contracts.RecordSummary{
			VerificationID: res.VerificationID,
			Timestamp:      res.Timestamp,
		},
		CandidateSummary: summarizeCandidate(payload),
		ReasonCodes:      res.RiskFlags,
		RiskSignals:      signals,
	}
}

func recommendationFor(status Status) string {
	switch status {
	case StatusVerified:
		return "approve"
	case StatusSuspicious:
		return "review"
	default:
		return "reject"
	}
}

func summarizeCandidate(payload credential.Payload) *contracts.CandidateSummary {
	cred, _, err := credential.Decode(payload)
	if err != nil {
		return nil
	}
	return &contracts.CandidateSummary{
		CredentialID:   cred.ID,
		IssuerDID:      cred.IssuerDID,
		SubjectDID:     cred.SubjectDID,
		Types:          cred.Types,
		ExpirationDate: cred.ExpirationDate,
	}
}
