package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"ascend/internal/network/metrics"
	"ascend/internal/network/models"
	participantstore "ascend/internal/network/store/participant"
	"ascend/pkg/attrs"
	"ascend/pkg/domain"
	dErrors "ascend/pkg/domain-errors"
	"ascend/pkg/platform/audit"
	"ascend/pkg/platform/sentinel"
	"ascend/pkg/requestcontext"
)

// ParticipantStore persists participants and their upline edges.
type ParticipantStore interface {
	Create(ctx context.Context, p *models.Participant) error
	FindByID(ctx context.Context, id domain.ParticipantID) (*models.Participant, error)
	FindByReferralCode(ctx context.Context, code models.ReferralCode) (*models.Participant, error)
	Ancestors(ctx context.Context, id domain.ParticipantID, maxDepth int) ([]*models.Participant, error)
	ListChildren(ctx context.Context, id domain.ParticipantID) ([]*models.Participant, error)
	LinkUpline(ctx context.Context, childID, parentID domain.ParticipantID, maxDepth int, now time.Time) error
	CountDescendants(ctx context.Context, id domain.ParticipantID) (int, error)
	AddActivity(ctx context.Context, id domain.ParticipantID, points, tasks int64) (*models.Participant, error)
	AddLifetimeSales(ctx context.Context, id domain.ParticipantID, amount decimal.Decimal) error
	UpdateStanding(ctx context.Context, id domain.ParticipantID, tier domain.Tier, lifetimeCommission decimal.Decimal) error
	SetPlan(ctx context.Context, id domain.ParticipantID, planID domain.PlanID, version int) error
	ListIDs(ctx context.Context, offset, limit int) ([]domain.ParticipantID, error)
}

// StandingRefresher re-evaluates a participant's tier after their stats change.
type StandingRefresher interface {
	Refresh(ctx context.Context, id domain.ParticipantID)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// maxCodeAttempts bounds referral code generation retries on collision.
const maxCodeAttempts = 5

// DefaultMaxDepth is the deepest level below a root the network accepts.
const DefaultMaxDepth = 512

// Service manages the referral network: registration, upline edges and the
// participant counters other modules read.
type Service struct {
	participants   ParticipantStore
	refresher      StandingRefresher
	maxDepth       int
	newCode        func() (models.ReferralCode, error)
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

// WithMaxDepth bounds how deep below a root a participant may sit. Zero or
// less disables the bound.
func WithMaxDepth(depth int) Option {
	return func(s *Service) {
		s.maxDepth = depth
	}
}

// WithCodeGenerator replaces the referral code source.
func WithCodeGenerator(gen func() (models.ReferralCode, error)) Option {
	return func(s *Service) {
		s.newCode = gen
	}
}

func New(participants ParticipantStore, opts ...Option) *Service {
	s := &Service{
		participants: participants,
		newCode:      models.NewReferralCode,
		logger:       slog.Default(),
		maxDepth:     DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetStandingRefresher wires the rank engine after construction; the rank
// engine itself reads from this service.
func (s *Service) SetStandingRefresher(r StandingRefresher) {
	s.refresher = r
}

// Register creates a participant. A referral code that does not resolve
// leaves the participant unlinked rather than failing the registration.
func (s *Service) Register(ctx context.Context, req *models.RegisterRequest) (*models.Participant, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)

	var parent *models.Participant
	if req.ReferralCode != "" {
		parent = s.resolveReferral(ctx, models.ReferralCode(req.ReferralCode))
	}
	if parent != nil {
		if err := s.checkDepth(ctx, parent.ID); err != nil {
			return nil, err
		}
	}

	var (
		p   *models.Participant
		err error
	)
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, genErr := s.newCode()
		if genErr != nil {
			return nil, dErrors.Wrap(genErr, dErrors.CodeInternal, "failed to generate referral code")
		}
		p, err = models.NewParticipant(domain.NewParticipantID(), code, req.Email, req.DisplayName, now)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to build participant")
		}
		p.PayoutAccount = req.PayoutAccount
		if parent != nil {
			p.ApplyLink(parent.ID, now)
		}

		err = s.participants.Create(ctx, p)
		if !errors.Is(err, sentinel.ErrAlreadyUsed) {
			break
		}
		s.logger.WarnContext(ctx, "referral code collision, retrying", "attempt", attempt+1)
	}
	if err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "could not allocate a unique referral code")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create participant")
	}

	s.metrics.IncRegistered()
	s.logAudit(ctx, string(audit.EventParticipantRegistered),
		"participant_id", p.ID.String(),
		"referral_code", p.ReferralCode.String())
	if parent != nil {
		s.metrics.IncLinked()
		s.logAudit(ctx, string(audit.EventUplineLinked),
			"participant_id", p.ID.String(),
			"upline_id", parent.ID.String())
		s.refresh(ctx, parent.ID)
	}
	return p, nil
}

// checkDepth rejects a new child under parentID when the child would sit
// below the depth limit.
func (s *Service) checkDepth(ctx context.Context, parentID domain.ParticipantID) error {
	if s.maxDepth <= 0 {
		return nil
	}
	ancestors, err := s.participants.Ancestors(ctx, parentID, s.maxDepth)
	if err != nil {
		return translateLookup(err, parentID, "failed to check network depth")
	}
	if len(ancestors) >= s.maxDepth {
		s.metrics.IncLinkRejected(string(dErrors.CodeDepthExceeded))
		return dErrors.New(dErrors.CodeDepthExceeded, "referrer sits at the network depth limit").
			WithDetail("parent_id", parentID.String()).
			WithDetail("max_depth", strconv.Itoa(s.maxDepth))
	}
	return nil
}

func (s *Service) resolveReferral(ctx context.Context, code models.ReferralCode) *models.Participant {
	if !code.Valid() {
		s.metrics.IncReferralMiss()
		s.logger.InfoContext(ctx, "referral code malformed, registering unlinked", "referral_code", code.String())
		return nil
	}
	parent, err := s.participants.FindByReferralCode(ctx, code)
	if err != nil {
		s.metrics.IncReferralMiss()
		if !errors.Is(err, sentinel.ErrNotFound) {
			s.logger.ErrorContext(ctx, "referral lookup failed, registering unlinked", "error", err)
		}
		return nil
	}
	return parent
}

func (s *Service) GetParticipant(ctx context.Context, id domain.ParticipantID) (*models.Participant, error) {
	p, err := s.participants.FindByID(ctx, id)
	if err != nil {
		return nil, translateLookup(err, id, "failed to load participant")
	}
	return p, nil
}

func (s *Service) FindByReferralCode(ctx context.Context, raw string) (*models.Participant, error) {
	code := models.NormalizeReferralCode(raw)
	if !code.Valid() {
		return nil, dErrors.New(dErrors.CodeValidation, "referral code malformed").WithDetail("referral_code", raw)
	}
	p, err := s.participants.FindByReferralCode(ctx, code)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "referral code not found").WithDetail("referral_code", code.String())
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve referral code")
	}
	return p, nil
}

// GetUpline returns at most maxDepth ancestors, closest first. The walk
// stops at the root.
func (s *Service) GetUpline(ctx context.Context, id domain.ParticipantID, maxDepth int) ([]*models.Participant, error) {
	if maxDepth < 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "max depth must not be negative")
	}
	start := time.Now()
	defer s.metrics.ObserveUplineWalk(start)

	chain, err := s.participants.Ancestors(ctx, id, maxDepth)
	if err != nil {
		return nil, translateLookup(err, id, "failed to load upline")
	}
	return chain, nil
}

func (s *Service) GetDirectDownline(ctx context.Context, id domain.ParticipantID) ([]*models.Participant, error) {
	children, err := s.participants.ListChildren(ctx, id)
	if err != nil {
		return nil, translateLookup(err, id, "failed to load downline")
	}
	return children, nil
}

// SetUpline links an unlinked participant under parentID. The store performs
// the ancestry check and the write atomically.
func (s *Service) SetUpline(ctx context.Context, id, parentID domain.ParticipantID) error {
	child, err := s.GetParticipant(ctx, id)
	if err != nil {
		return err
	}
	if err := child.CanLinkTo(parentID); err != nil {
		s.metrics.IncLinkRejected(string(dErrors.CodeOf(err)))
		return err
	}

	err = s.participants.LinkUpline(ctx, id, parentID, s.maxDepth, requestcontext.Now(ctx))
	switch {
	case err == nil:
	case errors.Is(err, participantstore.ErrCycle):
		s.metrics.IncLinkRejected(string(dErrors.CodeCycle))
		return dErrors.New(dErrors.CodeCycle, "parent is a descendant of the participant").
			WithDetail("participant_id", id.String()).
			WithDetail("parent_id", parentID.String())
	case errors.Is(err, participantstore.ErrTooDeep):
		s.metrics.IncLinkRejected(string(dErrors.CodeDepthExceeded))
		return dErrors.New(dErrors.CodeDepthExceeded, "link would exceed the network depth limit").
			WithDetail("participant_id", id.String()).
			WithDetail("parent_id", parentID.String()).
			WithDetail("max_depth", strconv.Itoa(s.maxDepth))
	case errors.Is(err, participantstore.ErrAlreadyLinked):
		s.metrics.IncLinkRejected(string(dErrors.CodeAlreadyLinked))
		return dErrors.New(dErrors.CodeAlreadyLinked, "participant already has an upline").
			WithDetail("participant_id", id.String())
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "parent not found").WithDetail("parent_id", parentID.String())
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to link upline")
	}

	s.metrics.IncLinked()
	s.logAudit(ctx, string(audit.EventUplineLinked),
		"participant_id", id.String(),
		"upline_id", parentID.String())
	s.refresh(ctx, parentID)
	return nil
}

// NetworkSize counts every participant below id.
func (s *Service) NetworkSize(ctx context.Context, id domain.ParticipantID) (int, error) {
	n, err := s.participants.CountDescendants(ctx, id)
	if err != nil {
		return 0, translateLookup(err, id, "failed to count network")
	}
	return n, nil
}

// RecordActivity adds points and completed tasks, then refreshes the tier.
func (s *Service) RecordActivity(ctx context.Context, id domain.ParticipantID, req *models.ActivityRequest) (*models.Participant, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	p, err := s.participants.AddActivity(ctx, id, req.Points, req.CompletedTasks)
	if err != nil {
		return nil, translateLookup(err, id, "failed to record activity")
	}
	s.logAudit(ctx, string(audit.EventActivityRecorded),
		"participant_id", id.String(),
		"points", req.Points,
		"completed_tasks", req.CompletedTasks)
	s.refresh(ctx, id)
	return p, nil
}

// AddLifetimeSales adds a recorded sale's amount to the seller's volume.
func (s *Service) AddLifetimeSales(ctx context.Context, id domain.ParticipantID, amount decimal.Decimal) error {
	if err := s.participants.AddLifetimeSales(ctx, id, amount); err != nil {
		return translateLookup(err, id, "failed to add lifetime sales")
	}
	return nil
}

// UpdateStanding caches the rank engine's evaluation on the participant.
func (s *Service) UpdateStanding(ctx context.Context, id domain.ParticipantID, tier domain.Tier, lifetimeCommission decimal.Decimal) error {
	if err := s.participants.UpdateStanding(ctx, id, tier, lifetimeCommission); err != nil {
		return translateLookup(err, id, "failed to update standing")
	}
	return nil
}

// SetPlan records the participant's active plan pinned at the purchased
// version.
func (s *Service) SetPlan(ctx context.Context, id domain.ParticipantID, planID domain.PlanID, version int) error {
	if err := s.participants.SetPlan(ctx, id, planID, version); err != nil {
		return translateLookup(err, id, "failed to set plan")
	}
	return nil
}

// ListParticipantIDs pages through every participant in registration order.
func (s *Service) ListParticipantIDs(ctx context.Context, offset, limit int) ([]domain.ParticipantID, error) {
	ids, err := s.participants.ListIDs(ctx, offset, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list participants")
	}
	return ids, nil
}

func (s *Service) refresh(ctx context.Context, id domain.ParticipantID) {
	if s.refresher != nil {
		s.refresher.Refresh(ctx, id)
	}
}

func translateLookup(err error, id domain.ParticipantID, msg string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "participant not found").WithDetail("participant_id", id.String())
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
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
		Subject:       attrs.ExtractString(attributes, "upline_id"),
		Action:        event,
		RequestID:     requestcontext.RequestID(ctx),
		ActorID:       requestcontext.ActorID(ctx),
	})
}
