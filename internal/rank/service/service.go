package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	netmodels "ascend/internal/network/models"
	"ascend/internal/rank/metrics"
	"ascend/internal/rank/models"
	"ascend/pkg/attrs"
	"ascend/pkg/domain"
	dErrors "ascend/pkg/domain-errors"
	"ascend/pkg/platform/audit"
	"ascend/pkg/requestcontext"
)

// Network is the slice of the network service tier evaluation reads and writes.
type Network interface {
	GetParticipant(ctx context.Context, id domain.ParticipantID) (*netmodels.Participant, error)
	NetworkSize(ctx context.Context, id domain.ParticipantID) (int, error)
	UpdateStanding(ctx context.Context, id domain.ParticipantID, tier domain.Tier, lifetimeCommission decimal.Decimal) error
	ListParticipantIDs(ctx context.Context, offset, limit int) ([]domain.ParticipantID, error)
}

// Ledger reports commission totals.
type Ledger interface {
	LifetimeCommission(ctx context.Context, payee domain.ParticipantID, currency domain.Currency) (decimal.Decimal, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

const defaultSweepPage = 200

// Service evaluates participant tiers against the ladder and caches the
// result on the participant.
type Service struct {
	ladder         *models.Ladder
	network        Network
	ledger         Ledger
	currency       domain.Currency
	sweepPage      int
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithLadder replaces the default tier table.
func WithLadder(l *models.Ladder) Option {
	return func(s *Service) {
		s.ladder = l
	}
}

// WithSweepPage sets how many participants a sweep loads per page.
func WithSweepPage(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.sweepPage = n
		}
	}
}

// New builds the rank engine. Lifetime commission is counted in currency.
func New(network Network, ledger Ledger, currency domain.Currency, opts ...Option) *Service {
	s := &Service{
		ladder:    models.DefaultLadder(),
		network:   network,
		ledger:    ledger,
		currency:  currency,
		sweepPage: defaultSweepPage,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ladder returns the tier table in use.
func (s *Service) Ladder() *models.Ladder {
	return s.ladder
}

// SetLedger wires the commission engine after construction; the commission
// engine reads multipliers from this service.
func (s *Service) SetLedger(l Ledger) {
	s.ledger = l
}

// RecomputeStatus evaluates the participant's tier from current stats and
// stores it. The stored tier never moves down.
func (s *Service) RecomputeStatus(ctx context.Context, id domain.ParticipantID) (*models.Status, error) {
	p, err := s.network.GetParticipant(ctx, id)
	if err != nil {
		return nil, err
	}
	stats, err := s.stats(ctx, p)
	if err != nil {
		return nil, err
	}

	tier := s.ladder.Evaluate(stats, p.Tier)
	s.metrics.IncEvaluation()
	if err := s.network.UpdateStanding(ctx, id, tier, stats.LifetimeCommission); err != nil {
		return nil, err
	}

	status := s.status(p, tier, stats)
	if status.Promoted {
		s.metrics.IncPromotion(tier.String())
		s.logAudit(ctx, string(audit.EventTierPromoted),
			"participant_id", id.String(),
			"from", p.Tier.String(),
			"to", tier.String())
	}
	return status, nil
}

// GetStatus returns the stored tier with the stats behind it, without
// re-evaluating.
func (s *Service) GetStatus(ctx context.Context, id domain.ParticipantID) (*models.Status, error) {
	p, err := s.network.GetParticipant(ctx, id)
	if err != nil {
		return nil, err
	}
	stats, err := s.stats(ctx, p)
	if err != nil {
		return nil, err
	}
	return s.status(p, p.Tier, stats), nil
}

// Refresh re-evaluates a participant after a change to their stats. Failures
// are logged; the next refresh or sweep corrects the tier.
func (s *Service) Refresh(ctx context.Context, id domain.ParticipantID) {
	if _, err := s.RecomputeStatus(ctx, id); err != nil {
		s.metrics.IncRefreshFailure()
		s.logger.WarnContext(ctx, "tier refresh failed",
			"participant_id", id.String(),
			"error", err,
		)
	}
}

// Multiplier is the participant's current commission multiplier.
func (s *Service) Multiplier(ctx context.Context, id domain.ParticipantID) (decimal.Decimal, error) {
	p, err := s.network.GetParticipant(ctx, id)
	if err != nil {
		return decimal.Zero, err
	}
	return s.ladder.Multiplier(p.Tier), nil
}

// TierMultiplier maps a tier to its multiplier.
func (s *Service) TierMultiplier(tier domain.Tier) decimal.Decimal {
	return s.ladder.Multiplier(tier)
}

// MaxMultiplier is the highest multiplier any payee can carry.
func (s *Service) MaxMultiplier() decimal.Decimal {
	return s.ladder.MaxMultiplier()
}

// Sweep re-evaluates every participant page by page and returns how many
// were evaluated. A failing participant is logged and skipped.
func (s *Service) Sweep(ctx context.Context) (int, error) {
	start := time.Now()
	evaluated := 0
	defer func() { s.metrics.ObserveSweep(start, evaluated) }()

	for offset := 0; ; offset += s.sweepPage {
		ids, err := s.network.ListParticipantIDs(ctx, offset, s.sweepPage)
		if err != nil {
			return evaluated, err
		}
		for _, id := range ids {
			if err := ctx.Err(); err != nil {
				return evaluated, dErrors.Wrap(err, dErrors.CodeTimeout, "tier sweep interrupted")
			}
			s.Refresh(ctx, id)
			evaluated++
		}
		if len(ids) < s.sweepPage {
			break
		}
	}
	s.logger.InfoContext(ctx, "tier sweep finished",
		"evaluated", evaluated,
		"duration", time.Since(start).String(),
	)
	return evaluated, nil
}

func (s *Service) stats(ctx context.Context, p *netmodels.Participant) (models.Stats, error) {
	size, err := s.network.NetworkSize(ctx, p.ID)
	if err != nil {
		return models.Stats{}, err
	}
	commission := p.Stats.LifetimeCommission
	if s.ledger != nil {
		commission, err = s.ledger.LifetimeCommission(ctx, p.ID, s.currency)
		if err != nil {
			return models.Stats{}, err
		}
	}
	return models.Stats{
		Points:             p.Stats.Points,
		NetworkSize:        size,
		LifetimeCommission: commission,
	}, nil
}

func (s *Service) status(p *netmodels.Participant, tier domain.Tier, stats models.Stats) *models.Status {
	status := &models.Status{
		ParticipantID: p.ID,
		Tier:          tier,
		Previous:      p.Tier,
		Promoted:      p.Tier.Below(tier),
		Multiplier:    s.ladder.Multiplier(tier),
		Stats:         stats,
	}
	if next, ok := s.ladder.Next(tier); ok {
		status.Next = &next
	}
	return status
}

func (s *Service) logAudit(ctx context.Context, event string, attributes ...any) {
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", event, "log_type", "audit")
	if s.logger != nil {
		s.logger.InfoContext(ctx, event, args...)
	}
	if s.auditPublisher == nil {
		return
	}
	participantID, _ := domain.ParseParticipantID(attrs.ExtractString(attributes, "participant_id"))
	_ = s.auditPublisher.Emit(ctx, audit.Event{
		ParticipantID: participantID,
		Subject:       attrs.ExtractString(attributes, "to"),
		Action:        event,
		RequestID:     requestcontext.RequestID(ctx),
		ActorID:       requestcontext.ActorID(ctx),
	})
}
