// Package handler exposes the inbound verification webhook.
package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"veriflow/internal/pipeline"
	dErrors "veriflow/pkg/domain-errors"
	"veriflow/pkg/platform/httputil"
	"veriflow/pkg/requestcontext"
)

// Handler wires the webhook endpoint to the decisioning pipeline.
type Handler struct {
	pipeline *pipeline.Service
	logger   *slog.Logger
}

// New constructs a webhook handler.
func New(p *pipeline.Service, logger *slog.Logger) *Handler {
	return &Handler{pipeline: p, logger: logger}
}

// Register mounts the webhook endpoint on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/webhooks/verification", h.HandleVerification)
}

// HandleVerification handles POST /webhooks/verification.
//
// Status codes follow the delivery contract: 400 only for malformed input,
// 500 only for unrecoverable internal failure. A rejected verification is a
// successfully processed delivery and returns 200.
func (h *Handler) HandleVerification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[verificationRequest](w, r, h.logger, requestID)
	if !ok {
		return
	}

	result, err := h.pipeline.Process(ctx, req.Token)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeBadRequest) {
			h.logger.WarnContext(ctx, "webhook delivery malformed",
				"request_id", requestID,
				"error", err,
			)
			httputil.WriteError(w, err)
			return
		}
		h.logger.ErrorContext(ctx, "webhook delivery failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "delivery processing failed"))
		return
	}

	h.logger.InfoContext(ctx, "webhook delivery processed",
		"request_id", requestID,
		"tenant_id", requestcontext.TenantID(ctx),
		"account_id", result.Account.ID,
		"status", result.Verdict.Status,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	httputil.WriteJSON(w, http.StatusOK, buildEnvelope(result))
}
