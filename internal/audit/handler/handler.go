// Package handler exposes the audit trail to operators.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"ascend/pkg/domain"
	dErrors "ascend/pkg/domain-errors"
	"ascend/pkg/platform/audit"
	"ascend/pkg/platform/httputil"
	"ascend/pkg/requestcontext"
)

const (
	defaultLimit = 100
	maxLimit     = 1000
)

// Reader is the read side of the audit publisher.
type Reader interface {
	List(ctx context.Context, participantID domain.ParticipantID) ([]audit.Event, error)
	Recent(ctx context.Context, limit int) ([]audit.Event, error)
}

type Handler struct {
	reader Reader
	logger *slog.Logger
}

func New(reader Reader, logger *slog.Logger) *Handler {
	return &Handler{reader: reader, logger: logger}
}

// Register mounts nothing; the trail is operator-only.
func (h *Handler) Register(chi.Router) {}

func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/audit", h.handleList)
}

type eventResponse struct {
	Category      string    `json:"category"`
	Action        string    `json:"action"`
	Timestamp     time.Time `json:"timestamp"`
	ParticipantID string    `json:"participant_id,omitempty"`
	Subject       string    `json:"subject,omitempty"`
	Reason        string    `json:"reason,omitempty"`
	Amount        string    `json:"amount,omitempty"`
	RequestID     string    `json:"request_id,omitempty"`
	ActorID       string    `json:"actor_id,omitempty"`
}

func toResponse(e audit.Event) eventResponse {
	resp := eventResponse{
		Category:  string(e.Category),
		Action:    e.Action,
		Timestamp: e.Timestamp,
		Subject:   e.Subject,
		Reason:    e.Reason,
		Amount:    e.Amount,
		RequestID: e.RequestID,
		ActorID:   e.ActorID,
	}
	if !e.ParticipantID.IsNil() {
		resp.ParticipantID = e.ParticipantID.String()
	}
	return resp
}

// handleList returns one participant's trail oldest first, or the newest
// events across everyone when participant_id is absent.
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	limit := defaultLimit
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxLimit {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "limit must be between 1 and 1000"))
			return
		}
		limit = n
	}

	var (
		events []audit.Event
		err    error
	)
	if raw := q.Get("participant_id"); raw != "" {
		id, perr := domain.ParseParticipantID(raw)
		if perr != nil {
			httputil.WriteError(w, perr)
			return
		}
		events, err = h.reader.List(ctx, id)
		if len(events) > limit {
			events = events[len(events)-limit:]
		}
	} else {
		events, err = h.reader.Recent(ctx, limit)
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list audit events",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	out := make([]eventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, toResponse(e))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"events": out})
}
