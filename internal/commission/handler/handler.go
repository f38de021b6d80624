package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"ascend/internal/commission/models"
	"ascend/pkg/domain"
	dErrors "ascend/pkg/domain-errors"
	"ascend/pkg/platform/httputil"
	"ascend/pkg/platform/middleware/auth"
	"ascend/pkg/requestcontext"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

// Service defines the sale and ledger operations exposed over HTTP.
type Service interface {
	RecordSale(ctx context.Context, req *models.RecordSaleRequest) (*models.SaleResult, error)
	GetSale(ctx context.Context, id domain.SaleID) (*models.SaleResult, error)
	ListSales(ctx context.Context, seller domain.ParticipantID) ([]*models.Sale, error)
	VoidSale(ctx context.Context, id domain.SaleID, req *models.VoidSaleRequest) (*models.VoidResult, error)
	ComputeCommissions(ctx context.Context, id domain.SaleID) ([]*models.Line, error)
	ApproveSale(ctx context.Context, id domain.SaleID) ([]*models.Line, error)

	Approve(ctx context.Context, id domain.LineID) (*models.Line, error)
	MarkPaid(ctx context.Context, id domain.LineID, paidAt time.Time) (*models.Line, error)
	Cancel(ctx context.Context, id domain.LineID, reason string) (*models.Line, error)
	GetLine(ctx context.Context, id domain.LineID) (*models.Line, error)
	ListLines(ctx context.Context, payee domain.ParticipantID, filter models.LineFilter) ([]*models.Line, error)

	ByLevel(ctx context.Context, payee domain.ParticipantID, currency domain.Currency, period models.Period) (map[int]models.LevelTotal, error)
	ByStatus(ctx context.Context, payee domain.ParticipantID, currency domain.Currency) (map[models.LineStatus]decimal.Decimal, error)
	ByPeriod(ctx context.Context, payee domain.ParticipantID, currency domain.Currency, period models.Period, g models.Granularity) ([]models.Bucket, error)
}

// Handler serves sales, the commission ledger and its reports.
type Handler struct {
	service  Service
	logger   *slog.Logger
	currency domain.Currency
}

// New creates a commission Handler. currency is used by reports when the
// request names none.
func New(service Service, logger *slog.Logger, currency domain.Currency) *Handler {
	return &Handler{service: service, logger: logger, currency: currency}
}

// Register mounts the participant-facing ledger routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/participants/{id}/sales", h.handleListSales)
	r.Get("/participants/{id}/commissions", h.handleListLines)
	r.Get("/participants/{id}/commissions/by-level", h.handleByLevel)
	r.Get("/participants/{id}/commissions/by-status", h.handleByStatus)
	r.Get("/participants/{id}/commissions/by-period", h.handleByPeriod)
}

// RegisterAdmin mounts sale ingestion and ledger administration. The caller
// applies the admin token check.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/sales", h.handleRecordSale)
	r.Get("/sales/{id}", h.handleGetSale)
	r.Post("/sales/{id}/void", h.handleVoidSale)
	r.Post("/sales/{id}/commissions", h.handleCompute)
	r.Post("/sales/{id}/approve", h.handleApproveSale)

	r.Get("/commissions/{id}", h.handleGetLine)
	r.Post("/commissions/{id}/approve", h.handleApproveLine)
	r.Post("/commissions/{id}/cancel", h.handleCancelLine)
	r.Post("/commissions/{id}/mark-paid", h.handleMarkPaid)

	r.Get("/participants/{id}/commissions", h.handleListLines)
}

func (h *Handler) handleRecordSale(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req models.RecordSaleRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	result, err := h.service.RecordSale(ctx, &req)
	if err != nil {
		h.fail(ctx, w, "record sale", err)
		return
	}
	status := http.StatusCreated
	if result.Queued {
		status = http.StatusAccepted
	}
	httputil.WriteJSON(w, status, result)
}

func (h *Handler) handleGetSale(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := saleID(w, r)
	if !ok {
		return
	}
	result, err := h.service.GetSale(ctx, id)
	if err != nil {
		h.fail(ctx, w, "get sale", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleVoidSale(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := saleID(w, r)
	if !ok {
		return
	}
	var req models.VoidSaleRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	result, err := h.service.VoidSale(ctx, id, &req)
	if err != nil {
		h.fail(ctx, w, "void sale", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleCompute(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := saleID(w, r)
	if !ok {
		return
	}
	lines, err := h.service.ComputeCommissions(ctx, id)
	if err != nil {
		h.fail(ctx, w, "compute commissions", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"sale_id": id, "lines": lines})
}

func (h *Handler) handleApproveSale(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := saleID(w, r)
	if !ok {
		return
	}
	lines, err := h.service.ApproveSale(ctx, id)
	if err != nil {
		h.fail(ctx, w, "approve sale", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"sale_id": id, "approved": lines})
}

func (h *Handler) handleGetLine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := lineID(w, r)
	if !ok {
		return
	}
	l, err := h.service.GetLine(ctx, id)
	if err != nil {
		h.fail(ctx, w, "get commission line", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, l)
}

func (h *Handler) handleApproveLine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := lineID(w, r)
	if !ok {
		return
	}
	l, err := h.service.Approve(ctx, id)
	if err != nil {
		h.fail(ctx, w, "approve commission line", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, l)
}

func (h *Handler) handleCancelLine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := lineID(w, r)
	if !ok {
		return
	}
	var req models.CancelLineRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}
	l, err := h.service.Cancel(ctx, id, req.Reason)
	if err != nil {
		h.fail(ctx, w, "cancel commission line", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, l)
}

func (h *Handler) handleMarkPaid(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := lineID(w, r)
	if !ok {
		return
	}
	var req models.MarkPaidRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}
	paidAt := requestcontext.Now(ctx)
	if req.PaidAt != "" {
		parsed, err := time.Parse(time.RFC3339, req.PaidAt)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "paid_at must be RFC 3339").WithDetail("paid_at", req.PaidAt))
			return
		}
		paidAt = parsed
	}
	l, err := h.service.MarkPaid(ctx, id, paidAt)
	if err != nil {
		h.fail(ctx, w, "mark commission line paid", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, l)
}

func (h *Handler) handleListSales(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := authorizedID(w, r)
	if !ok {
		return
	}
	sales, err := h.service.ListSales(ctx, id)
	if err != nil {
		h.fail(ctx, w, "list sales", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"participant_id": id, "sales": sales})
}

func (h *Handler) handleListLines(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := authorizedID(w, r)
	if !ok {
		return
	}
	filter, err := parseFilter(r.URL.Query())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	lines, err := h.service.ListLines(ctx, id, filter)
	if err != nil {
		h.fail(ctx, w, "list commission lines", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"participant_id": id,
		"lines":          lines,
		"limit":          filter.Limit,
		"offset":         filter.Offset,
	})
}

func (h *Handler) handleByLevel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := authorizedID(w, r)
	if !ok {
		return
	}
	currency, period, err := h.reportParams(r.URL.Query())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	levels, err := h.service.ByLevel(ctx, id, currency, period)
	if err != nil {
		h.fail(ctx, w, "report by level", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"participant_id": id, "currency": currency, "levels": levels})
}

func (h *Handler) handleByStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := authorizedID(w, r)
	if !ok {
		return
	}
	currency, _, err := h.reportParams(r.URL.Query())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	totals, err := h.service.ByStatus(ctx, id, currency)
	if err != nil {
		h.fail(ctx, w, "report by status", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"participant_id": id, "currency": currency, "totals": totals})
}

func (h *Handler) handleByPeriod(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := authorizedID(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	currency, period, err := h.reportParams(q)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	granularity, err := models.ParseGranularity(q.Get("granularity"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	buckets, err := h.service.ByPeriod(ctx, id, currency, period, granularity)
	if err != nil {
		h.fail(ctx, w, "report by period", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"participant_id": id,
		"currency":       currency,
		"granularity":    granularity,
		"buckets":        buckets,
	})
}

func (h *Handler) reportParams(q url.Values) (domain.Currency, models.Period, error) {
	currency := h.currency
	if raw := q.Get("currency"); raw != "" {
		parsed, err := domain.ParseCurrency(raw)
		if err != nil {
			return "", models.Period{}, err
		}
		currency = parsed
	}
	period, err := parsePeriod(q)
	if err != nil {
		return "", models.Period{}, err
	}
	return currency, period, nil
}

func parseFilter(q url.Values) (models.LineFilter, error) {
	filter := models.LineFilter{
		Status: models.LineStatus(q.Get("status")),
		Limit:  defaultPageSize,
	}
	if raw := q.Get("level"); raw != "" {
		level, err := strconv.Atoi(raw)
		if err != nil || level < 0 {
			return filter, dErrors.New(dErrors.CodeValidation, "level must be a non-negative integer").WithDetail("level", raw)
		}
		filter.Level = &level
	}
	if raw := q.Get("currency"); raw != "" {
		currency, err := domain.ParseCurrency(raw)
		if err != nil {
			return filter, err
		}
		filter.Currency = currency.String()
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > maxPageSize {
			return filter, dErrors.New(dErrors.CodeValidation, "limit must be between 1 and 500").WithDetail("limit", raw)
		}
		filter.Limit = limit
	}
	if raw := q.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return filter, dErrors.New(dErrors.CodeValidation, "offset must be a non-negative integer").WithDetail("offset", raw)
		}
		filter.Offset = offset
	}
	period, err := parsePeriod(q)
	if err != nil {
		return filter, err
	}
	filter.Period = period
	return filter, nil
}

func parsePeriod(q url.Values) (models.Period, error) {
	var period models.Period
	for key, dst := range map[string]*time.Time{"from": &period.From, "to": &period.To} {
		raw := q.Get(key)
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return period, dErrors.New(dErrors.CodeValidation, key+" must be RFC 3339").WithDetail(key, raw)
		}
		*dst = t
	}
	return period, period.Validate()
}

func saleID(w http.ResponseWriter, r *http.Request) (domain.SaleID, bool) {
	id, err := domain.ParseSaleID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return id, false
	}
	return id, true
}

func lineID(w http.ResponseWriter, r *http.Request) (domain.LineID, bool) {
	id, err := domain.ParseLineID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return id, false
	}
	return id, true
}

// authorizedID parses the {id} path parameter. Participant callers may only
// read their own ledger; admin callers have no participant in context.
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
