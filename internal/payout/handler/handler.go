package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ascend/internal/payout/models"
	"ascend/pkg/domain"
	dErrors "ascend/pkg/domain-errors"
	"ascend/pkg/platform/httputil"
	"ascend/pkg/platform/middleware/auth"
	"ascend/pkg/requestcontext"
)

// Service defines the payout operations exposed over HTTP.
type Service interface {
	RequestPayout(ctx context.Context, payee domain.ParticipantID, req *models.RequestPayoutRequest) (*models.Request, error)
	CompletePayout(ctx context.Context, id domain.PayoutRequestID, reference string) (*models.Request, error)
	FailPayout(ctx context.Context, id domain.PayoutRequestID, reason string) (*models.Request, error)
	ExecutePayout(ctx context.Context, id domain.PayoutRequestID) (*models.Request, error)
	GetPayout(ctx context.Context, id domain.PayoutRequestID) (*models.Request, error)
	ListPayouts(ctx context.Context, payee domain.ParticipantID) ([]*models.Request, error)
}

// Handler serves payout requests.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the participant-facing payout routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/participants/{id}/payouts", h.handleRequest)
	r.Get("/participants/{id}/payouts", h.handleList)
	r.Get("/participants/{id}/payouts/{payoutID}", h.handleGetOwn)
}

// RegisterAdmin mounts payout execution and settlement. The caller applies
// the admin token check.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/payouts/{payoutID}", h.handleGet)
	r.Post("/payouts/{payoutID}/execute", h.handleExecute)
	r.Post("/payouts/{payoutID}/complete", h.handleComplete)
	r.Post("/payouts/{payoutID}/fail", h.handleFail)

	r.Post("/participants/{id}/payouts", h.handleRequest)
	r.Get("/participants/{id}/payouts", h.handleList)
}

func (h *Handler) handleRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	payee, ok := authorizedID(w, r)
	if !ok {
		return
	}
	var req models.RequestPayoutRequest
	// The body is optional; an empty one requests the default currency.
	if err := httputil.DecodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		httputil.WriteError(w, err)
		return
	}
	payout, err := h.service.RequestPayout(ctx, payee, &req)
	if err != nil {
		h.fail(ctx, w, "request payout", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, payout)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	payee, ok := authorizedID(w, r)
	if !ok {
		return
	}
	payouts, err := h.service.ListPayouts(ctx, payee)
	if err != nil {
		h.fail(ctx, w, "list payouts", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"payouts": payouts})
}

func (h *Handler) handleGetOwn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	payee, ok := authorizedID(w, r)
	if !ok {
		return
	}
	id, ok := payoutID(w, r)
	if !ok {
		return
	}
	payout, err := h.service.GetPayout(ctx, id)
	if err != nil {
		h.fail(ctx, w, "get payout", err)
		return
	}
	// Someone else's payout is reported as missing rather than forbidden.
	if payout.PayeeID != payee {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "payout request not found").WithDetail("payout_id", id.String()))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, payout)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := payoutID(w, r)
	if !ok {
		return
	}
	payout, err := h.service.GetPayout(ctx, id)
	if err != nil {
		h.fail(ctx, w, "get payout", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, payout)
}

func (h *Handler) handleExecute(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := payoutID(w, r)
	if !ok {
		return
	}
	payout, err := h.service.ExecutePayout(ctx, id)
	if err != nil {
		h.fail(ctx, w, "execute payout", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, payout)
}

func (h *Handler) handleComplete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := payoutID(w, r)
	if !ok {
		return
	}
	var req models.CompletePayoutRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}
	payout, err := h.service.CompletePayout(ctx, id, req.ExternalReference)
	if err != nil {
		h.fail(ctx, w, "complete payout", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, payout)
}

func (h *Handler) handleFail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := payoutID(w, r)
	if !ok {
		return
	}
	var req models.FailPayoutRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}
	payout, err := h.service.FailPayout(ctx, id, req.Reason)
	if err != nil {
		h.fail(ctx, w, "fail payout", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, payout)
}

func payoutID(w http.ResponseWriter, r *http.Request) (domain.PayoutRequestID, bool) {
	id, err := domain.ParsePayoutRequestID(chi.URLParam(r, "payoutID"))
	if err != nil {
		httputil.WriteError(w, err)
		return id, false
	}
	return id, true
}

// authorizedID parses the {id} path parameter. Participant callers may only
// act on their own payouts; admin callers have no participant in context.
func authorizedID(w http.ResponseWriter, r *http.Request) (domain.ParticipantID, bool) {
	id, err := domain.ParseParticipantID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return id, false
	}
	if requestcontext.ParticipantID(r.Context()).IsNil() {
		return id, true
	}
	if err := auth.RequireSelf(r.Context(), id); err != nil {
		httputil.WriteError(w, err)
		return id, false
	}
	return id, true
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, op string, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, "failed to "+op,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	}
	httputil.WriteError(w, err)
}
