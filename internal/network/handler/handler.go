package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"ascend/internal/network/models"
	"ascend/pkg/domain"
	dErrors "ascend/pkg/domain-errors"
	"ascend/pkg/platform/httputil"
	"ascend/pkg/platform/middleware/auth"
	"ascend/pkg/requestcontext"
)

// maxUplineDepth caps the depth a caller may ask for in one request.
const maxUplineDepth = 32

// Service defines the network operations exposed over HTTP.
type Service interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.Participant, error)
	GetParticipant(ctx context.Context, id domain.ParticipantID) (*models.Participant, error)
	FindByReferralCode(ctx context.Context, raw string) (*models.Participant, error)
	GetUpline(ctx context.Context, id domain.ParticipantID, maxDepth int) ([]*models.Participant, error)
	GetDirectDownline(ctx context.Context, id domain.ParticipantID) ([]*models.Participant, error)
	SetUpline(ctx context.Context, id, parentID domain.ParticipantID) error
	NetworkSize(ctx context.Context, id domain.ParticipantID) (int, error)
	RecordActivity(ctx context.Context, id domain.ParticipantID, req *models.ActivityRequest) (*models.Participant, error)
}

// Handler serves participant registration and network queries.
type Handler struct {
	service      Service
	logger       *slog.Logger
	defaultDepth int
}

// New creates a network Handler. defaultDepth is used when a request names
// no depth.
func New(service Service, logger *slog.Logger, defaultDepth int) *Handler {
	return &Handler{service: service, logger: logger, defaultDepth: defaultDepth}
}

// RegisterPublic mounts the unauthenticated signup route.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/participants", h.handleRegister)
}

// Register mounts the participant routes. The caller applies authentication.
func (h *Handler) Register(r chi.Router) {
	r.Get("/participants/{id}", h.handleGet)
	r.Get("/participants/{id}/upline", h.handleUpline)
	r.Get("/participants/{id}/downline", h.handleDownline)
	r.Get("/participants/{id}/network-size", h.handleNetworkSize)
	r.Post("/participants/{id}/upline", h.handleLink)
	r.Get("/referrals/{code}", h.handleResolveReferral)
}

// RegisterAdmin mounts operator routes. The caller applies the admin token check.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/participants/{id}", h.handleGet)
	r.Get("/participants/{id}/upline", h.handleUpline)
	r.Post("/participants/{id}/upline", h.handleLink)
	r.Post("/participants/{id}/activity", h.handleActivity)
}

type registerResponse struct {
	ID           domain.ParticipantID  `json:"id"`
	ReferralCode string                `json:"referral_code"`
	UplineID     *domain.ParticipantID `json:"upline_id,omitempty"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req models.RegisterRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	p, err := h.service.Register(ctx, &req)
	if err != nil {
		h.fail(ctx, w, "register participant", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, registerResponse{
		ID:           p.ID,
		ReferralCode: p.ReferralCode.String(),
		UplineID:     p.UplineID,
	})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.authorizedID(w, r)
	if !ok {
		return
	}
	p, err := h.service.GetParticipant(ctx, id)
	if err != nil {
		h.fail(ctx, w, "get participant", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) handleUpline(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.authorizedID(w, r)
	if !ok {
		return
	}
	depth := h.defaultDepth
	if raw := r.URL.Query().Get("depth"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 || parsed > maxUplineDepth {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "depth must be between 0 and 32").
				WithDetail("depth", raw))
			return
		}
		depth = parsed
	}

	chain, err := h.service.GetUpline(ctx, id, depth)
	if err != nil {
		h.fail(ctx, w, "get upline", err)
		return
	}
	views := make([]models.UplineView, 0, len(chain))
	for i, p := range chain {
		views = append(views, toView(p, i+1))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"participant_id": id, "upline": views})
}

func (h *Handler) handleDownline(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.authorizedID(w, r)
	if !ok {
		return
	}
	children, err := h.service.GetDirectDownline(ctx, id)
	if err != nil {
		h.fail(ctx, w, "get downline", err)
		return
	}
	views := make([]models.UplineView, 0, len(children))
	for _, p := range children {
		views = append(views, toView(p, 0))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"participant_id": id, "downline": views})
}

func (h *Handler) handleNetworkSize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.authorizedID(w, r)
	if !ok {
		return
	}
	size, err := h.service.NetworkSize(ctx, id)
	if err != nil {
		h.fail(ctx, w, "network size", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"participant_id": id, "network_size": size})
}

func (h *Handler) handleLink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := h.authorizedID(w, r)
	if !ok {
		return
	}
	var req models.LinkRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}
	parentID, err := domain.ParseParticipantID(req.ParentID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.SetUpline(ctx, id, parentID); err != nil {
		h.fail(ctx, w, "link upline", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleActivity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseParticipantID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req models.ActivityRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	p, err := h.service.RecordActivity(ctx, id, &req)
	if err != nil {
		h.fail(ctx, w, "record activity", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) handleResolveReferral(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, err := h.service.FindByReferralCode(ctx, chi.URLParam(r, "code"))
	if err != nil {
		h.fail(ctx, w, "resolve referral code", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toView(p, 0))
}

// authorizedID parses the {id} path parameter. Participant callers may only
// address themselves; admin callers have no participant in context.
func (h *Handler) authorizedID(w http.ResponseWriter, r *http.Request) (domain.ParticipantID, bool) {
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

func toView(p *models.Participant, level int) models.UplineView {
	return models.UplineView{
		Level:       level,
		ID:          p.ID,
		DisplayName: p.DisplayName,
		Tier:        p.Tier,
		HasPlan:     p.HasPlan(),
	}
}
