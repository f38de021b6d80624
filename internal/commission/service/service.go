package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"ascend/internal/commission/lock"
	"ascend/internal/commission/metrics"
	"ascend/internal/commission/models"
	netmodels "ascend/internal/network/models"
	planmodels "ascend/internal/plan/models"
	"ascend/pkg/attrs"
	"ascend/pkg/domain"
	dErrors "ascend/pkg/domain-errors"
	"ascend/pkg/platform/audit"
	"ascend/pkg/platform/sentinel"
	txcontext "ascend/pkg/platform/tx"
	"ascend/pkg/requestcontext"
)

// SaleStore persists sales.
type SaleStore interface {
	Create(ctx context.Context, sale *models.Sale) error
	FindByID(ctx context.Context, id domain.SaleID) (*models.Sale, error)
	MarkVoided(ctx context.Context, id domain.SaleID, reason string, at time.Time) (*models.Sale, error)
	MarkComputed(ctx context.Context, id domain.SaleID, at time.Time) error
	ListBySeller(ctx context.Context, seller domain.ParticipantID) ([]*models.Sale, error)
}

// LineStore is the commission ledger.
type LineStore interface {
	InsertBatch(ctx context.Context, lines []*models.Line) error
	FindByID(ctx context.Context, id domain.LineID) (*models.Line, error)
	ListBySale(ctx context.Context, saleID domain.SaleID) ([]*models.Line, error)
	ListByPayee(ctx context.Context, payee domain.ParticipantID, filter models.LineFilter) ([]*models.Line, error)
	ListByPayout(ctx context.Context, requestID domain.PayoutRequestID) ([]*models.Line, error)
	ListPayable(ctx context.Context, payee domain.ParticipantID, currency domain.Currency) ([]*models.Line, error)
	UpdateStatus(ctx context.Context, id domain.LineID, from, to models.LineStatus, at time.Time) (*models.Line, error)
	FlagReconciliation(ctx context.Context, id domain.LineID) (*models.Line, error)
	Reserve(ctx context.Context, ids []domain.LineID, requestID domain.PayoutRequestID) error
	Release(ctx context.Context, requestID domain.PayoutRequestID) (int, error)
	Revision(ctx context.Context, payee domain.ParticipantID) (int64, error)
	LevelTotals(ctx context.Context, payee domain.ParticipantID, currency domain.Currency, period models.Period) (map[int]models.LevelTotal, error)
	StatusTotals(ctx context.Context, payee domain.ParticipantID, currency domain.Currency) (map[models.LineStatus]decimal.Decimal, error)
	Buckets(ctx context.Context, payee domain.ParticipantID, currency domain.Currency, period models.Period, g models.Granularity) ([]models.Bucket, error)
	LifetimeTotal(ctx context.Context, payee domain.ParticipantID, currency domain.Currency) (decimal.Decimal, error)
}

// Network is the slice of the network service the engine reads.
type Network interface {
	GetParticipant(ctx context.Context, id domain.ParticipantID) (*netmodels.Participant, error)
	GetUpline(ctx context.Context, id domain.ParticipantID, maxDepth int) ([]*netmodels.Participant, error)
	AddLifetimeSales(ctx context.Context, id domain.ParticipantID, amount decimal.Decimal) error
}

// Plans resolves a participant's active plan. A participant without one
// yields a no_plan error.
type Plans interface {
	PlanOf(ctx context.Context, participant *netmodels.Participant) (*planmodels.Plan, error)
}

// TierMultipliers maps a payee's tier to the factor applied to base rates.
type TierMultipliers interface {
	TierMultiplier(tier domain.Tier) decimal.Decimal
}

// SaleLocker serializes work on one sale.
type SaleLocker interface {
	Acquire(ctx context.Context, key string) (lock.Release, error)
}

// EventPublisher hands recorded sales to the asynchronous consumer.
type EventPublisher interface {
	PublishJSON(ctx context.Context, topic, key string, payload any) error
}

// StandingRefresher re-evaluates a participant's tier after their ledger changes.
type StandingRefresher interface {
	Refresh(ctx context.Context, id domain.ParticipantID)
}

// AggregateCache stores ledger reports. Keys embed the ledger revision.
type AggregateCache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, value any) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service records sales, computes their commission lines and manages the
// ledger those lines live in.
type Service struct {
	sales       SaleStore
	lines       LineStore
	network     Network
	plans       Plans
	multipliers TierMultipliers
	locker      SaleLocker
	tx          txcontext.Runner

	events      EventPublisher
	salesTopic  string
	refresher   StandingRefresher
	cache       AggregateCache
	logger      *slog.Logger
	auditor     AuditPublisher
	metrics     *metrics.Metrics
	lockTimeout time.Duration
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditor = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithSaleEvents makes RecordSale publish to topic instead of computing
// commissions inline.
func WithSaleEvents(publisher EventPublisher, topic string) Option {
	return func(s *Service) {
		s.events = publisher
		s.salesTopic = topic
	}
}

func WithAggregateCache(cache AggregateCache) Option {
	return func(s *Service) {
		s.cache = cache
	}
}

func WithStandingRefresher(r StandingRefresher) Option {
	return func(s *Service) {
		s.refresher = r
	}
}

// WithLockTimeout bounds how long a computation waits for its sale lock.
func WithLockTimeout(d time.Duration) Option {
	return func(s *Service) {
		s.lockTimeout = d
	}
}

func New(
	sales SaleStore,
	lines LineStore,
	network Network,
	plans Plans,
	multipliers TierMultipliers,
	locker SaleLocker,
	tx txcontext.Runner,
	opts ...Option,
) *Service {
	s := &Service{
		sales:       sales,
		lines:       lines,
		network:     network,
		plans:       plans,
		multipliers: multipliers,
		locker:      locker,
		tx:          tx,
		logger:      slog.Default(),
		lockTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetStandingRefresher wires the rank engine after construction; the rank
// engine reads ledger totals from this service.
func (s *Service) SetStandingRefresher(r StandingRefresher) {
	s.refresher = r
}

// RecordSale stores a sale and credits the seller's volume. Commissions are
// then computed inline, or by the sale consumer when events are configured.
// The sale is committed before computation; a failed computation is logged
// and can be retried with ComputeCommissions.
func (s *Service) RecordSale(ctx context.Context, req *models.RecordSaleRequest) (*models.SaleResult, error) {
	req.Normalize()
	sellerID, amount, err := req.Parse()
	if err != nil {
		return nil, err
	}
	if _, err := s.network.GetParticipant(ctx, sellerID); err != nil {
		return nil, err
	}

	sale, err := models.NewSale(domain.NewSaleID(), sellerID, amount, req.Metadata, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	err = s.tx.RunInTx(txcontext.WithShardKey(ctx, sale.ID.String()), func(ctx context.Context) error {
		if err := s.sales.Create(ctx, sale); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "seller not found").WithDetail("participant_id", sellerID.String())
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record sale")
		}
		return s.network.AddLifetimeSales(ctx, sellerID, sale.Amount)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncSaleRecorded()
	s.logAudit(ctx, string(audit.EventSaleRecorded),
		"participant_id", sellerID.String(),
		"subject", sale.ID.String(),
		"amount", sale.Money().String())

	result := &models.SaleResult{Sale: sale}
	if s.events != nil {
		event := models.SaleRecordedEvent{SaleID: sale.ID, SellerID: sellerID}
		err := s.events.PublishJSON(ctx, s.salesTopic, sale.ID.String(), event)
		if err == nil {
			result.Queued = true
			return result, nil
		}
		s.logger.WarnContext(ctx, "failed to publish sale, computing inline",
			"sale_id", sale.ID.String(),
			"error", err,
		)
	}

	lines, err := s.ComputeCommissions(ctx, sale.ID)
	switch {
	case err == nil:
		result.Lines = lines
	case dErrors.HasCode(err, dErrors.CodeNoPlan):
	default:
		s.logger.ErrorContext(ctx, "commission computation failed after sale was recorded",
			"sale_id", sale.ID.String(),
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	}
	return result, nil
}

// GetSale returns a sale with its current lines.
func (s *Service) GetSale(ctx context.Context, id domain.SaleID) (*models.SaleResult, error) {
	sale, err := s.sales.FindByID(ctx, id)
	if err != nil {
		return nil, translateSale(err, id)
	}
	lines, err := s.lines.ListBySale(ctx, id)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load commission lines")
	}
	return &models.SaleResult{Sale: sale, Lines: lines}, nil
}

// ListSales returns a seller's sales, oldest first.
func (s *Service) ListSales(ctx context.Context, seller domain.ParticipantID) ([]*models.Sale, error) {
	sales, err := s.sales.ListBySeller(ctx, seller)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list sales")
	}
	return sales, nil
}

func (s *Service) refresh(ctx context.Context, lines []*models.Line) {
	if s.refresher == nil {
		return
	}
	seen := make(map[domain.ParticipantID]struct{}, len(lines))
	for _, l := range lines {
		if _, done := seen[l.PayeeID]; done {
			continue
		}
		seen[l.PayeeID] = struct{}{}
		s.refresher.Refresh(ctx, l.PayeeID)
	}
}

func translateSale(err error, id domain.SaleID) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "sale not found").WithDetail("sale_id", id.String())
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load sale")
}

func (s *Service) logAudit(ctx context.Context, event string, attributes ...any) {
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", event, "log_type", "audit")
	if s.logger != nil {
		s.logger.InfoContext(ctx, event, args...)
	}
	if s.auditor == nil {
		return
	}
	participantID, _ := domain.ParseParticipantID(attrs.ExtractString(attributes, "participant_id"))
	_ = s.auditor.Emit(ctx, audit.Event{
		ParticipantID: participantID,
		Subject:       attrs.ExtractString(attributes, "subject"),
		Action:        event,
		Reason:        attrs.ExtractString(attributes, "reason"),
		Amount:        attrs.ExtractString(attributes, "amount"),
		RequestID:     requestcontext.RequestID(ctx),
		ActorID:       requestcontext.ActorID(ctx),
	})
}
