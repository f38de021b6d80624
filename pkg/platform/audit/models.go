package audit

import (
	"context"
	"time"

	"ascend/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies and routing.
type EventCategory string

const (
	// CategoryFinancial covers events that move or commit money: commission
	// line transitions and payout outcomes. These are kept for reconciliation.
	CategoryFinancial EventCategory = "financial"

	// CategorySecurity covers gate rejections and administrative changes.
	// Examples: plan purchase blocked by verification, plan rates revised.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine activity useful for debugging.
	// Examples: participant registration, sale recorded, tier promotion.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category      EventCategory
	Timestamp     time.Time
	ParticipantID domain.ParticipantID
	// Subject is the identifier of the entity acted on (sale, line, payout, plan).
	Subject string
	Action  string
	Reason  string
	// Amount is the decimal string of the money involved, when any.
	Amount    string
	RequestID string
	// ActorID tracks who performed the action when different from ParticipantID,
	// e.g. an operator approving lines or the payout worker.
	ActorID string
}

type AuditEvent string

const (
	// Network events
	EventParticipantRegistered AuditEvent = "participant_registered"
	EventUplineLinked          AuditEvent = "upline_linked"
	EventActivityRecorded      AuditEvent = "activity_recorded"

	// Plan events
	EventPlanPublished       AuditEvent = "plan_published"
	EventPlanRevised         AuditEvent = "plan_revised"
	EventPlanActivationSet   AuditEvent = "plan_activation_set"
	EventPlanPurchased       AuditEvent = "plan_purchased"
	EventPlanPurchaseBlocked AuditEvent = "plan_purchase_blocked"

	// Sale and commission events
	EventSaleRecorded             AuditEvent = "sale_recorded"
	EventSaleVoided               AuditEvent = "sale_voided"
	EventCommissionsComputed      AuditEvent = "commissions_computed"
	EventCommissionApproved       AuditEvent = "commission_approved"
	EventCommissionPaid           AuditEvent = "commission_paid"
	EventCommissionCancelled      AuditEvent = "commission_cancelled"
	EventCommissionReconciliation AuditEvent = "commission_reconciliation_flagged"

	// Payout events
	EventPayoutRequested  AuditEvent = "payout_requested"
	EventPayoutProcessing AuditEvent = "payout_processing"
	EventPayoutCompleted  AuditEvent = "payout_completed"
	EventPayoutFailed     AuditEvent = "payout_failed"

	// Rank events
	EventTierPromoted AuditEvent = "tier_promoted"
)

// eventCategories maps each audit event to its category.
var eventCategories = map[AuditEvent]EventCategory{
	EventCommissionApproved:       CategoryFinancial,
	EventCommissionPaid:           CategoryFinancial,
	EventCommissionCancelled:      CategoryFinancial,
	EventCommissionReconciliation: CategoryFinancial,
	EventSaleVoided:               CategoryFinancial,
	EventPayoutRequested:          CategoryFinancial,
	EventPayoutCompleted:          CategoryFinancial,
	EventPayoutFailed:             CategoryFinancial,
	EventPlanPurchased:            CategoryFinancial,

	EventPlanPublished:       CategorySecurity,
	EventPlanRevised:         CategorySecurity,
	EventPlanActivationSet:   CategorySecurity,
	EventPlanPurchaseBlocked: CategorySecurity,
	EventUplineLinked:        CategorySecurity,

	EventParticipantRegistered: CategoryOperations,
	EventActivityRecorded:      CategoryOperations,
	EventSaleRecorded:          CategoryOperations,
	EventCommissionsComputed:   CategoryOperations,
	EventPayoutProcessing:      CategoryOperations,
	EventTierPromoted:          CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByParticipant(ctx context.Context, participantID domain.ParticipantID) ([]Event, error)
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}
