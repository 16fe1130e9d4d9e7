package proofs

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"proofgate/internal/platform/middleware"
	"proofgate/pkg/platform/httputil"
)

// Handler exposes proof verification and metadata over HTTP.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

// NewHandler creates the proofs Handler.
func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register registers the proof routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/v1/proofs/verify", h.handleVerify)
	r.Post("/v1/proofs/metadata", h.handleMetadata)
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[VerifyRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	res, err := h.service.Verify(ctx, *req)
	if err != nil {
		h.logger.WarnContext(ctx, "proof verification rejected",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) handleMetadata(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[MetadataRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	res, err := h.service.Metadata(*req)
	if err != nil {
		h.logger.WarnContext(ctx, "proof metadata rejected",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, res)
}
