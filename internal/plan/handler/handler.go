package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"ascend/internal/plan/models"
	"ascend/pkg/domain"
	dErrors "ascend/pkg/domain-errors"
	"ascend/pkg/platform/httputil"
	"ascend/pkg/platform/middleware/auth"
	"ascend/pkg/requestcontext"
)

// Service defines the plan registry operations exposed over HTTP.
type Service interface {
	PublishPlan(ctx context.Context, req *models.PlanRequest) (*models.Plan, error)
	RevisePlan(ctx context.Context, id domain.PlanID, req *models.PlanRequest) (*models.Plan, error)
	SetActive(ctx context.Context, id domain.PlanID, active bool) (*models.Plan, error)
	GetPlan(ctx context.Context, id domain.PlanID) (*models.Plan, error)
	GetPlanVersion(ctx context.Context, id domain.PlanID, version int) (*models.Plan, error)
	ListActivePlans(ctx context.Context) ([]*models.Plan, error)
	GetActivePlan(ctx context.Context, participantID domain.ParticipantID) (*models.Plan, error)
	PurchasePlan(ctx context.Context, participantID domain.ParticipantID, req *models.PurchaseRequest) (*models.Activation, error)
	ListActivations(ctx context.Context, participantID domain.ParticipantID) ([]*models.Activation, error)
}

// Handler serves the plan catalogue, purchases and plan administration.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts participant routes. The caller applies authentication.
func (h *Handler) Register(r chi.Router) {
	r.Get("/plans", h.handleListActive)
	r.Get("/plans/{planID}", h.handleGet)
	r.Get("/participants/{id}/plan", h.handleActivePlan)
	r.Post("/participants/{id}/plan", h.handlePurchase)
	r.Get("/participants/{id}/plan/history", h.handleHistory)
}

// RegisterAdmin mounts plan authoring routes. The caller applies the admin token check.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/plans", h.handlePublish)
	r.Get("/plans/{planID}", h.handleGet)
	r.Get("/plans/{planID}/versions/{version}", h.handleGetVersion)
	r.Post("/plans/{planID}/revisions", h.handleRevise)
	r.Put("/plans/{planID}/active", h.handleSetActive)
}

func (h *Handler) handlePublish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req models.PlanRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	p, err := h.service.PublishPlan(ctx, &req)
	if err != nil {
		h.fail(ctx, w, "publish plan", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, models.NewPlanView(p))
}

func (h *Handler) handleRevise(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	planID, err := domain.ParsePlanID(chi.URLParam(r, "planID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req models.PlanRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	p, err := h.service.RevisePlan(ctx, planID, &req)
	if err != nil {
		h.fail(ctx, w, "revise plan", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, models.NewPlanView(p))
}

func (h *Handler) handleSetActive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	planID, err := domain.ParsePlanID(chi.URLParam(r, "planID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req models.ActiveRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}
	p, err := h.service.SetActive(ctx, planID, *req.Active)
	if err != nil {
		h.fail(ctx, w, "set plan active", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.NewPlanView(p))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	planID, err := domain.ParsePlanID(chi.URLParam(r, "planID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	p, err := h.service.GetPlan(ctx, planID)
	if err != nil {
		h.fail(ctx, w, "get plan", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.NewPlanView(p))
}

func (h *Handler) handleGetVersion(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	planID, err := domain.ParsePlanID(chi.URLParam(r, "planID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	version, err := strconv.Atoi(chi.URLParam(r, "version"))
	if err != nil || version < 1 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "version must be a positive integer"))
		return
	}
	p, err := h.service.GetPlanVersion(ctx, planID, version)
	if err != nil {
		h.fail(ctx, w, "get plan version", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.NewPlanView(p))
}

func (h *Handler) handleListActive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	plans, err := h.service.ListActivePlans(ctx)
	if err != nil {
		h.fail(ctx, w, "list plans", err)
		return
	}
	views := make([]models.PlanView, 0, len(plans))
	for _, p := range plans {
		views = append(views, models.NewPlanView(p))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"plans": views})
}

func (h *Handler) handleActivePlan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.self(w, r)
	if !ok {
		return
	}
	p, err := h.service.GetActivePlan(ctx, id)
	if err != nil {
		h.fail(ctx, w, "get active plan", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.NewPlanView(p))
}

func (h *Handler) handlePurchase(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.self(w, r)
	if !ok {
		return
	}
	var req models.PurchaseRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	activation, err := h.service.PurchasePlan(ctx, id, &req)
	if err != nil {
		h.fail(ctx, w, "purchase plan", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, activation)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.self(w, r)
	if !ok {
		return
	}
	history, err := h.service.ListActivations(ctx, id)
	if err != nil {
		h.fail(ctx, w, "list activations", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"activations": history})
}

func (h *Handler) self(w http.ResponseWriter, r *http.Request) (domain.ParticipantID, bool) {
	id, err := domain.ParseParticipantID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return id, false
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
