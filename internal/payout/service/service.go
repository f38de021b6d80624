package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	cmodels "ascend/internal/commission/models"
	netmodels "ascend/internal/network/models"
	"ascend/internal/payout/metrics"
	"ascend/internal/payout/models"
	"ascend/pkg/attrs"
	"ascend/pkg/domain"
	dErrors "ascend/pkg/domain-errors"
	"ascend/pkg/platform/audit"
	"ascend/pkg/platform/sentinel"
	"ascend/pkg/platform/tracing"
	txcontext "ascend/pkg/platform/tx"
	"ascend/pkg/requestcontext"
)

// Store persists payout requests.
type Store interface {
	Create(ctx context.Context, r *models.Request) error
	FindByID(ctx context.Context, id domain.PayoutRequestID) (*models.Request, error)
	ListByPayee(ctx context.Context, payee domain.ParticipantID) ([]*models.Request, error)
	Update(ctx context.Context, r *models.Request, from models.Status) error
}

// Ledger is the slice of the commission ledger payouts drive.
type Ledger interface {
	PayableLines(ctx context.Context, payee domain.ParticipantID, currency domain.Currency) ([]*cmodels.Line, error)
	ReserveLines(ctx context.Context, ids []domain.LineID, requestID domain.PayoutRequestID) error
	ReleaseLines(ctx context.Context, requestID domain.PayoutRequestID) (int, error)
	LinesForPayout(ctx context.Context, requestID domain.PayoutRequestID) ([]*cmodels.Line, error)
	MarkPaid(ctx context.Context, id domain.LineID, paidAt time.Time) (*cmodels.Line, error)
}

// Network resolves payees and their payout accounts.
type Network interface {
	GetParticipant(ctx context.Context, id domain.ParticipantID) (*netmodels.Participant, error)
}

// TransferGateway moves money to the payee. Errors wrapping
// models.ErrGatewayUnavailable are retried; any other error is a rejection.
type TransferGateway interface {
	ExecuteTransfer(ctx context.Context, transfer models.Transfer) (models.Receipt, error)
}

// TokenNotifier is told about settled payouts. It must not block.
type TokenNotifier interface {
	NotifyPaid(ctx context.Context, n models.PaidNotification)
}

// Enqueuer schedules asynchronous execution of a new request.
type Enqueuer interface {
	EnqueueExecution(ctx context.Context, id domain.PayoutRequestID) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service runs the payout request workflow over the commission ledger.
type Service struct {
	store    Store
	ledger   Ledger
	network  Network
	tx       txcontext.Runner
	currency domain.Currency

	gateway        TransferGateway
	notifier       TokenNotifier
	enqueuer       Enqueuer
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

func WithGateway(g TransferGateway) Option {
	return func(s *Service) {
		s.gateway = g
	}
}

func WithTokenNotifier(n TokenNotifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

// WithEnqueuer executes every new request in the background.
func WithEnqueuer(e Enqueuer) Option {
	return func(s *Service) {
		s.enqueuer = e
	}
}

// New builds the payout workflow. currency is used when a request names none.
func New(store Store, ledger Ledger, network Network, tx txcontext.Runner, currency domain.Currency, opts ...Option) *Service {
	s := &Service{
		store:    store,
		ledger:   ledger,
		network:  network,
		tx:       tx,
		currency: currency,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetEnqueuer wires the job queue after construction; its workers call back
// into this service.
func (s *Service) SetEnqueuer(e Enqueuer) {
	s.enqueuer = e
}

// RequestPayout gathers the payee's approved, unreserved lines in currency
// and reserves them for a new request. Nothing payable is nothing_to_pay.
func (s *Service) RequestPayout(ctx context.Context, payee domain.ParticipantID, req *models.RequestPayoutRequest) (*models.Request, error) {
	if req == nil {
		req = &models.RequestPayoutRequest{}
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	currency := s.currency
	if req.Currency != "" {
		parsed, err := domain.ParseCurrency(req.Currency)
		if err != nil {
			return nil, err
		}
		currency = parsed
	}
	if _, err := s.network.GetParticipant(ctx, payee); err != nil {
		return nil, err
	}

	var request *models.Request
	err := s.tx.RunInTx(txcontext.WithShardKey(ctx, payee.String()), func(ctx context.Context) error {
		lines, err := s.ledger.PayableLines(ctx, payee, currency)
		if err != nil {
			return err
		}
		total := decimal.Zero
		ids := make([]domain.LineID, 0, len(lines))
		for _, l := range lines {
			total = total.Add(l.Amount)
			ids = append(ids, l.ID)
		}
		if len(ids) == 0 || !total.IsPositive() {
			return dErrors.New(dErrors.CodeNothingToPay, "no approved commission to pay out").
				WithDetail("participant_id", payee.String()).
				WithDetail("currency", currency.String())
		}

		request, err = models.NewRequest(domain.NewPayoutRequestID(), payee,
			domain.Money{Amount: total, Currency: currency}, ids, requestcontext.Now(ctx))
		if err != nil {
			return err
		}
		if err := s.ledger.ReserveLines(ctx, ids, request.ID); err != nil {
			return err
		}
		if err := s.store.Create(ctx, request); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store payout request")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncStatus(string(models.StatusRequested))
	s.logAudit(ctx, string(audit.EventPayoutRequested),
		"participant_id", payee.String(),
		"subject", request.ID.String(),
		"amount", request.Money().String())

	if s.enqueuer != nil {
		if err := s.enqueuer.EnqueueExecution(ctx, request.ID); err != nil {
			s.logger.WarnContext(ctx, "failed to schedule payout execution",
				"payout_request_id", request.ID.String(),
				"error", err,
			)
		}
	}
	return request, nil
}

// CompletePayout settles a requested or processing payout. Every approved
// line it still holds is marked paid; lines cancelled in flight are not, and
// the shortfall is logged for reconciliation.
func (s *Service) CompletePayout(ctx context.Context, id domain.PayoutRequestID, reference string) (*models.Request, error) {
	if reference == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "external reference is required").
			WithDetail("payout_request_id", id.String())
	}

	var (
		request *models.Request
		paid    = decimal.Zero
	)
	now := requestcontext.Now(ctx)
	err := s.inPayeeTx(ctx, id, func(ctx context.Context, r *models.Request) error {
		lines, err := s.ledger.LinesForPayout(ctx, id)
		if err != nil {
			return err
		}
		var unpaid []domain.LineID
		for _, l := range lines {
			switch l.Status {
			case cmodels.LineApproved:
				unpaid = append(unpaid, l.ID)
			case cmodels.LinePaid:
			default:
				continue
			}
			paid = paid.Add(l.Amount)
		}

		from := r.Status
		if err := r.Complete(reference, paid, now); err != nil {
			return err
		}
		if err := s.update(ctx, r, from); err != nil {
			return err
		}
		for _, lineID := range unpaid {
			if _, err := s.ledger.MarkPaid(ctx, lineID, now); err != nil {
				return err
			}
		}
		request = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !paid.Equal(request.Amount) {
		s.metrics.IncReconciliationGap()
		s.logger.WarnContext(ctx, "payout settled less than requested",
			"payout_request_id", id.String(),
			"requested", request.Amount.String(),
			"paid", paid.String(),
		)
	}
	s.metrics.IncStatus(string(models.StatusCompleted))
	s.logAudit(ctx, string(audit.EventPayoutCompleted),
		"participant_id", request.PayeeID.String(),
		"subject", request.ID.String(),
		"amount", domain.Money{Amount: paid, Currency: request.Currency}.String())

	if s.notifier != nil {
		s.notifier.NotifyPaid(ctx, models.PaidNotification{
			RequestID: request.ID,
			PayeeID:   request.PayeeID,
			Amount:    paid,
			Currency:  request.Currency,
			Reference: reference,
			PaidAt:    now,
		})
	}
	return request, nil
}

// FailPayout closes a requested or processing payout and releases its lines
// so they can be requested again.
func (s *Service) FailPayout(ctx context.Context, id domain.PayoutRequestID, reason string) (*models.Request, error) {
	if reason == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "failure reason is required").
			WithDetail("payout_request_id", id.String())
	}

	var (
		request  *models.Request
		released int
	)
	err := s.inPayeeTx(ctx, id, func(ctx context.Context, r *models.Request) error {
		from := r.Status
		if err := r.Fail(reason, requestcontext.Now(ctx)); err != nil {
			return err
		}
		if err := s.update(ctx, r, from); err != nil {
			return err
		}
		n, err := s.ledger.ReleaseLines(ctx, id)
		if err != nil {
			return err
		}
		request, released = r, n
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncStatus(string(models.StatusFailed))
	s.logAudit(ctx, string(audit.EventPayoutFailed),
		"participant_id", request.PayeeID.String(),
		"subject", request.ID.String(),
		"amount", request.Money().String(),
		"reason", reason,
		"released", released)
	return request, nil
}

// ExecutePayout sends a payout through the transfer gateway. A rejected
// transfer fails the payout; an unreachable gateway leaves it processing so
// the call can be retried. Settled requests are returned as they are.
func (s *Service) ExecutePayout(ctx context.Context, id domain.PayoutRequestID) (result *models.Request, err error) {
	ctx, span := tracing.Start(ctx, "payout.execute", attribute.String("payout_request_id", id.String()))
	defer func() { tracing.End(span, err) }()

	if s.gateway == nil {
		return nil, dErrors.New(dErrors.CodeTransferFailed, "no transfer gateway configured").
			WithDetail("payout_request_id", id.String())
	}
	r, err := s.GetPayout(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.Status.IsTerminal() {
		return r, nil
	}
	if r.Status == models.StatusRequested {
		if err := r.StartProcessing(requestcontext.Now(ctx)); err != nil {
			return nil, err
		}
		if err := s.update(ctx, r, models.StatusRequested); err != nil {
			return nil, err
		}
		s.metrics.IncStatus(string(models.StatusProcessing))
		s.logAudit(ctx, string(audit.EventPayoutProcessing),
			"participant_id", r.PayeeID.String(),
			"subject", r.ID.String(),
			"amount", r.Money().String())
	}

	payee, err := s.network.GetParticipant(ctx, r.PayeeID)
	if err != nil {
		return nil, err
	}
	if payee.PayoutAccount == "" {
		failed, failErr := s.FailPayout(ctx, id, "payee has no payout account")
		if failErr != nil {
			return nil, failErr
		}
		return failed, dErrors.New(dErrors.CodeTransferFailed, "payee has no payout account").
			WithDetail("payout_request_id", id.String()).
			WithDetail("participant_id", r.PayeeID.String())
	}

	start := time.Now()
	receipt, err := s.gateway.ExecuteTransfer(ctx, models.Transfer{
		RequestID: r.ID,
		PayeeID:   r.PayeeID,
		Account:   payee.PayoutAccount,
		Amount:    r.Money(),
	})
	switch {
	case err == nil:
		s.metrics.ObserveTransfer(start, "executed")
	case errors.Is(err, models.ErrGatewayUnavailable):
		s.metrics.ObserveTransfer(start, "unavailable")
		return r, dErrors.Wrap(err, dErrors.CodeTransferFailed, "transfer gateway unavailable").
			WithDetail("payout_request_id", id.String())
	default:
		s.metrics.ObserveTransfer(start, "rejected")
		failed, failErr := s.FailPayout(ctx, id, "transfer rejected: "+err.Error())
		if failErr != nil {
			return nil, failErr
		}
		return failed, dErrors.Wrap(err, dErrors.CodeTransferFailed, "transfer rejected").
			WithDetail("payout_request_id", id.String())
	}
	return s.CompletePayout(ctx, id, receipt.Reference)
}

func (s *Service) GetPayout(ctx context.Context, id domain.PayoutRequestID) (*models.Request, error) {
	r, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err, id)
	}
	return r, nil
}

// ListPayouts returns the payee's requests, newest first.
func (s *Service) ListPayouts(ctx context.Context, payee domain.ParticipantID) ([]*models.Request, error) {
	requests, err := s.store.ListByPayee(ctx, payee)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list payout requests")
	}
	return requests, nil
}

// inPayeeTx loads the request and runs fn in a unit of work serialized with
// every other payout change for the same payee.
func (s *Service) inPayeeTx(ctx context.Context, id domain.PayoutRequestID, fn func(ctx context.Context, r *models.Request) error) error {
	r, err := s.GetPayout(ctx, id)
	if err != nil {
		return err
	}
	return s.tx.RunInTx(txcontext.WithShardKey(ctx, r.PayeeID.String()), func(ctx context.Context) error {
		current, err := s.GetPayout(ctx, id)
		if err != nil {
			return err
		}
		return fn(ctx, current)
	})
}

func (s *Service) update(ctx context.Context, r *models.Request, from models.Status) error {
	err := s.store.Update(ctx, r, from)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sentinel.ErrInvalidState):
		return dErrors.New(dErrors.CodeInvalidState, "payout request changed concurrently").
			WithDetail("payout_request_id", r.ID.String())
	default:
		return translate(err, r.ID)
	}
}

func translate(err error, id domain.PayoutRequestID) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "payout request not found").
			WithDetail("payout_request_id", id.String())
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load payout request")
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
		Subject:       attrs.ExtractString(attributes, "subject"),
		Action:        event,
		Reason:        attrs.ExtractString(attributes, "reason"),
		Amount:        attrs.ExtractString(attributes, "amount"),
		RequestID:     requestcontext.RequestID(ctx),
		ActorID:       requestcontext.ActorID(ctx),
	})
}
