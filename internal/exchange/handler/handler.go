// Package handler exposes the session handoff endpoints used by the SDK
// bootstrap flow.
package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"veriflow/internal/exchange"
	dErrors "veriflow/pkg/domain-errors"
	"veriflow/pkg/platform/httputil"
	"veriflow/pkg/platform/sentinel"
	"veriflow/pkg/requestcontext"
)

// Handler wires exchange endpoints to the token store.
type Handler struct {
	store  exchange.Store
	ttl    time.Duration
	logger *slog.Logger
}

// New constructs an exchange handler.
func New(store exchange.Store, logger *slog.Logger) *Handler {
	return &Handler{store: store, ttl: exchange.DefaultTTL, logger: logger}
}

// Register mounts exchange endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/exchange/issue", h.HandleIssue)
	r.Post("/exchange/redeem", h.HandleRedeem)
}

type issueRequest struct {
	SessionID string `json:"session_id"`
}

func (r issueRequest) Validate() error {
	if r.SessionID == "" {
		return dErrors.New(dErrors.CodeBadRequest, "session_id is required")
	}
	return nil
}

type issueResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}

// HandleIssue handles POST /exchange/issue.
func (h *Handler) HandleIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[issueRequest](w, r, h.logger, requestID)
	if !ok {
		return
	}

	token, err := h.store.Issue(ctx, req.SessionID, h.ttl)
	if err != nil {
		h.logger.ErrorContext(ctx, "exchange issue failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "token issue failed"))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, issueResponse{
		Token:     token,
		ExpiresIn: int(h.ttl.Seconds()),
	})
}

type redeemRequest struct {
	Token string `json:"token"`
}

func (r redeemRequest) Validate() error {
	if r.Token == "" {
		return dErrors.New(dErrors.CodeBadRequest, "token is required")
	}
	return nil
}

type redeemResponse struct {
	SessionID string `json:"session_id"`
}

// HandleRedeem handles POST /exchange/redeem. A token redeems exactly once.
func (h *Handler) HandleRedeem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[redeemRequest](w, r, h.logger, requestID)
	if !ok {
		return
	}

	sessionID, err := h.store.Redeem(ctx, req.Token)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "token is unknown, expired, or already used"))
			return
		}
		h.logger.ErrorContext(ctx, "exchange redeem failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "token redeem failed"))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, redeemResponse{SessionID: sessionID})
}
