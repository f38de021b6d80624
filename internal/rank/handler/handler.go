package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ascend/internal/rank/models"
	"ascend/pkg/domain"
	dErrors "ascend/pkg/domain-errors"
	"ascend/pkg/platform/httputil"
	"ascend/pkg/platform/middleware/auth"
	"ascend/pkg/requestcontext"
)

// Service defines the rank operations exposed over HTTP.
type Service interface {
	GetStatus(ctx context.Context, id domain.ParticipantID) (*models.Status, error)
	RecomputeStatus(ctx context.Context, id domain.ParticipantID) (*models.Status, error)
	Ladder() *models.Ladder
}

// Handler serves tier status and the tier table.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterPublic mounts the tier table.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/tiers", h.handleLadder)
}

// Register mounts participant routes. The caller applies authentication.
func (h *Handler) Register(r chi.Router) {
	r.Get("/participants/{id}/status", h.handleStatus)
}

// RegisterAdmin mounts operator routes.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/participants/{id}/status/recompute", h.handleRecompute)
}

func (h *Handler) handleLadder(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"tiers": h.service.Ladder().Thresholds()})
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseParticipantID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := auth.RequireSelf(ctx, id); err != nil {
		httputil.WriteError(w, err)
		return
	}
	status, err := h.service.GetStatus(ctx, id)
	if err != nil {
		h.fail(ctx, w, "get status", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, status)
}

func (h *Handler) handleRecompute(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseParticipantID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	status, err := h.service.RecomputeStatus(ctx, id)
	if err != nil {
		h.fail(ctx, w, "recompute status", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, status)
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
