package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	netmodels "ascend/internal/network/models"
	"ascend/internal/plan/metrics"
	"ascend/internal/plan/models"
	"ascend/pkg/attrs"
	"ascend/pkg/domain"
	dErrors "ascend/pkg/domain-errors"
	"ascend/pkg/platform/audit"
	"ascend/pkg/platform/sentinel"
	txcontext "ascend/pkg/platform/tx"
	"ascend/pkg/requestcontext"
)

// PlanStore persists plan versions and the purchase history.
type PlanStore interface {
	CreateVersion(ctx context.Context, p *models.Plan) error
	FindLatest(ctx context.Context, id domain.PlanID) (*models.Plan, error)
	FindVersion(ctx context.Context, id domain.PlanID, version int) (*models.Plan, error)
	ListActive(ctx context.Context) ([]*models.Plan, error)
	SetActive(ctx context.Context, id domain.PlanID, active bool) error
	RecordActivation(ctx context.Context, a *models.Activation) error
	ListActivations(ctx context.Context, participantID domain.ParticipantID) ([]*models.Activation, error)
}

// Participants is the slice of the network service the registry needs.
type Participants interface {
	GetParticipant(ctx context.Context, id domain.ParticipantID) (*netmodels.Participant, error)
	SetPlan(ctx context.Context, id domain.ParticipantID, planID domain.PlanID, version int) error
}

// VerificationChecker is the external KYC gate.
type VerificationChecker interface {
	IsVerified(ctx context.Context, id domain.ParticipantID) (bool, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// DefaultReservedMargin is the share of every sale kept by the operator
// when no margin is configured.
var DefaultReservedMargin = decimal.RequireFromString("0.10")

// Service is the commission plan registry.
type Service struct {
	plans          PlanStore
	participants   Participants
	verifier       VerificationChecker
	tx             txcontext.Runner
	reservedMargin decimal.Decimal
	maxMultiplier  decimal.Decimal
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

// WithMarginPolicy sets the operator margin every plan must leave and the
// highest tier multiplier a payee can carry.
func WithMarginPolicy(reservedMargin, maxMultiplier decimal.Decimal) Option {
	return func(s *Service) {
		s.reservedMargin = reservedMargin
		s.maxMultiplier = maxMultiplier
	}
}

func New(plans PlanStore, participants Participants, verifier VerificationChecker, tx txcontext.Runner, opts ...Option) *Service {
	s := &Service{
		plans:          plans,
		participants:   participants,
		verifier:       verifier,
		tx:             tx,
		reservedMargin: DefaultReservedMargin,
		maxMultiplier:  decimal.NewFromInt(1),
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PublishPlan creates version 1 of a new plan, offered for sale.
func (s *Service) PublishPlan(ctx context.Context, req *models.PlanRequest) (*models.Plan, error) {
	req.Normalize()
	sched, err := req.Schedule()
	if err != nil {
		return nil, err
	}
	p, err := models.NewPlan(domain.NewPlanID(), 1, sched, true, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := p.CheckMargin(s.reservedMargin, s.maxMultiplier); err != nil {
		return nil, err
	}
	if err := s.plans.CreateVersion(ctx, p); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store plan")
	}

	s.metrics.IncPublished()
	s.logAudit(ctx, string(audit.EventPlanPublished),
		"plan_id", p.ID.String(),
		"version", p.Version,
		"total_rate", p.TotalRate().String())
	return p, nil
}

// RevisePlan stores version n+1. Earlier versions stay readable and lines
// computed under them keep pointing at them.
func (s *Service) RevisePlan(ctx context.Context, id domain.PlanID, req *models.PlanRequest) (*models.Plan, error) {
	req.Normalize()
	sched, err := req.Schedule()
	if err != nil {
		return nil, err
	}
	latest, err := s.GetPlan(ctx, id)
	if err != nil {
		return nil, err
	}
	next, err := latest.Revise(sched, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := next.CheckMargin(s.reservedMargin, s.maxMultiplier); err != nil {
		return nil, err
	}
	if err := s.plans.CreateVersion(ctx, next); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "plan was revised concurrently").
				WithDetail("plan_id", id.String())
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store plan revision")
	}

	s.metrics.IncRevised()
	s.logAudit(ctx, string(audit.EventPlanRevised),
		"plan_id", id.String(),
		"version", next.Version,
		"total_rate", next.TotalRate().String())
	return next, nil
}

// SetActive offers or retires a plan. Holders of a retired plan keep it.
func (s *Service) SetActive(ctx context.Context, id domain.PlanID, active bool) (*models.Plan, error) {
	if err := s.plans.SetActive(ctx, id, active); err != nil {
		return nil, translatePlanLookup(err, id)
	}
	s.logAudit(ctx, string(audit.EventPlanActivationSet),
		"plan_id", id.String(),
		"active", active)
	return s.GetPlan(ctx, id)
}

// GetPlan returns the latest version.
func (s *Service) GetPlan(ctx context.Context, id domain.PlanID) (*models.Plan, error) {
	p, err := s.plans.FindLatest(ctx, id)
	if err != nil {
		return nil, translatePlanLookup(err, id)
	}
	return p, nil
}

func (s *Service) GetPlanVersion(ctx context.Context, id domain.PlanID, version int) (*models.Plan, error) {
	p, err := s.plans.FindVersion(ctx, id, version)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "plan version not found").
				WithDetail("plan_id", id.String())
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load plan version")
	}
	return p, nil
}

func (s *Service) ListActivePlans(ctx context.Context) ([]*models.Plan, error) {
	plans, err := s.plans.ListActive(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list plans")
	}
	return plans, nil
}

// GetActivePlan resolves the participant's plan at the version they bought.
func (s *Service) GetActivePlan(ctx context.Context, participantID domain.ParticipantID) (*models.Plan, error) {
	participant, err := s.participants.GetParticipant(ctx, participantID)
	if err != nil {
		return nil, err
	}
	return s.PlanOf(ctx, participant)
}

// PlanOf resolves the plan of an already-loaded participant. Revisions made
// after the purchase do not apply; a holder recorded without a version gets
// the latest one.
func (s *Service) PlanOf(ctx context.Context, participant *netmodels.Participant) (*models.Plan, error) {
	if !participant.HasPlan() {
		return nil, dErrors.New(dErrors.CodeNoPlan, "participant has no active plan").
			WithDetail("participant_id", participant.ID.String())
	}
	if participant.PlanVersion == 0 {
		return s.GetPlan(ctx, *participant.PlanID)
	}
	return s.GetPlanVersion(ctx, *participant.PlanID, participant.PlanVersion)
}

// PurchasePlan activates planID for the participant after the verification
// gate and the plan's eligibility minimums. A purchase replaces any plan
// the participant already held.
func (s *Service) PurchasePlan(ctx context.Context, participantID domain.ParticipantID, req *models.PurchaseRequest) (*models.Activation, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	planID, err := domain.ParsePlanID(req.PlanID)
	if err != nil {
		return nil, err
	}

	participant, err := s.participants.GetParticipant(ctx, participantID)
	if err != nil {
		return nil, err
	}
	p, err := s.GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	if !p.Active {
		s.metrics.IncPurchaseRejected("retired")
		return nil, dErrors.New(dErrors.CodeInvalidState, "plan is not offered for sale").
			WithDetail("plan_id", planID.String())
	}

	verified, err := s.verifier.IsVerified(ctx, participantID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "verification check failed")
	}
	if !verified {
		s.metrics.IncPurchaseRejected("unverified")
		s.logAudit(ctx, string(audit.EventPlanPurchaseBlocked),
			"participant_id", participantID.String(),
			"plan_id", planID.String(),
			"reason", "verification_required")
		return nil, dErrors.New(dErrors.CodeVerificationRequired, "identity verification required before purchase").
			WithDetail("participant_id", participantID.String())
	}

	if err := p.CheckEligibility(models.Standing{
		Points:         participant.Stats.Points,
		CompletedTasks: participant.Stats.CompletedTasks,
		LifetimeSales:  participant.Stats.LifetimeSales,
	}); err != nil {
		s.metrics.IncPurchaseRejected("ineligible")
		s.logAudit(ctx, string(audit.EventPlanPurchaseBlocked),
			"participant_id", participantID.String(),
			"plan_id", planID.String(),
			"reason", dErrors.DetailsOf(err)["unmet"])
		return nil, err
	}

	activation := &models.Activation{
		ID:            uuid.New(),
		ParticipantID: participantID,
		PlanID:        p.ID,
		PlanVersion:   p.Version,
		PaymentRef:    req.PaymentConfirmation,
		ActivatedAt:   requestcontext.Now(ctx),
	}
	err = s.tx.RunInTx(txcontext.WithShardKey(ctx, participantID.String()), func(ctx context.Context) error {
		if err := s.plans.RecordActivation(ctx, activation); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record activation")
		}
		return s.participants.SetPlan(ctx, participantID, activation.PlanID, activation.PlanVersion)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncPurchase(p.Name)
	s.logAudit(ctx, string(audit.EventPlanPurchased),
		"participant_id", participantID.String(),
		"plan_id", p.ID.String(),
		"version", p.Version,
		"amount", p.Cost.String())
	return activation, nil
}

// ListActivations returns the participant's purchase history, newest first.
func (s *Service) ListActivations(ctx context.Context, participantID domain.ParticipantID) ([]*models.Activation, error) {
	history, err := s.plans.ListActivations(ctx, participantID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list activations")
	}
	return history, nil
}

func translatePlanLookup(err error, id domain.PlanID) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "plan not found").WithDetail("plan_id", id.String())
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load plan")
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
		Subject:       attrs.ExtractString(attributes, "plan_id"),
		Action:        event,
		Reason:        attrs.ExtractString(attributes, "reason"),
		Amount:        attrs.ExtractString(attributes, "amount"),
		RequestID:     requestcontext.RequestID(ctx),
		ActorID:       requestcontext.ActorID(ctx),
	})
}
