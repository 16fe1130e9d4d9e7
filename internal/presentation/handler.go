package presentation

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"proofgate/internal/platform/middleware"
	"proofgate/pkg/platform/httputil"
)

// Handler exposes the presentation exchange over HTTP.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

// NewHandler creates the presentation Handler.
func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register registers the presentation routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/v1/oid4vp/requests", h.handleCreateRequest)
	r.Post("/v1/oid4vp/responses", h.handleSubmitResponse)
}

func (h *Handler) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	created, err := h.service.CreateRequest(ctx, req.Purpose, req.State)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to create presentation request",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, &CreateResponse{
		RequestID: created.ID,
		Nonce:     created.Nonce,
		State:     created.State,
		ExpiresAt: h.service.ExpiresAt(created),
		PresentationDefinition: map[string]any{
			"id":      created.ID,
			"purpose": created.Purpose,
			"input_descriptors": []map[string]any{
				{"id": "credential", "format": map[string]any{"jwt_vc": map[string]any{}}},
			},
		},
	})
}

func (h *Handler) handleSubmitResponse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[SubmitRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	res, err := h.service.ConsumeResponse(ctx, *req)
	if err != nil {
		h.logger.WarnContext(ctx, "presentation response rejected",
			"request_id", requestID,
			"presentation_request_id", req.RequestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, &SubmitResponse{
		Status:         res.Status,
		VerificationID: res.VerificationID,
		Checks:         res.Checks,
		RiskScore:      res.RiskScore,
	})
}
