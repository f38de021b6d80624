// Package domain holds domain primitives shared across modules: typed
// identifiers and money. Primitives enforce validity at parse time so services
// never see malformed identifiers or amounts.
package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "ascend/pkg/domain-errors"
)

// Typed identifiers. Distinct types prevent passing a sale id where a
// participant id is expected.
type (
	ParticipantID   uuid.UUID
	PlanID          uuid.UUID
	SaleID          uuid.UUID
	LineID          uuid.UUID
	PayoutRequestID uuid.UUID
)

func parseUUID(kind, s string) (uuid.UUID, error) {
	if strings.TrimSpace(s) == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" must not be nil")
	}
	return u, nil
}

func ParseParticipantID(s string) (ParticipantID, error) {
	u, err := parseUUID("participant id", s)
	return ParticipantID(u), err
}

func ParsePlanID(s string) (PlanID, error) {
	u, err := parseUUID("plan id", s)
	return PlanID(u), err
}

func ParseSaleID(s string) (SaleID, error) {
	u, err := parseUUID("sale id", s)
	return SaleID(u), err
}

func ParseLineID(s string) (LineID, error) {
	u, err := parseUUID("commission line id", s)
	return LineID(u), err
}

func ParsePayoutRequestID(s string) (PayoutRequestID, error) {
	u, err := parseUUID("payout request id", s)
	return PayoutRequestID(u), err
}

func NewParticipantID() ParticipantID     { return ParticipantID(uuid.New()) }
func NewPlanID() PlanID                   { return PlanID(uuid.New()) }
func NewSaleID() SaleID                   { return SaleID(uuid.New()) }
func NewLineID() LineID                   { return LineID(uuid.New()) }
func NewPayoutRequestID() PayoutRequestID { return PayoutRequestID(uuid.New()) }

func (id ParticipantID) String() string   { return uuid.UUID(id).String() }
func (id PlanID) String() string          { return uuid.UUID(id).String() }
func (id SaleID) String() string          { return uuid.UUID(id).String() }
func (id LineID) String() string          { return uuid.UUID(id).String() }
func (id PayoutRequestID) String() string { return uuid.UUID(id).String() }

func (id ParticipantID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id PlanID) IsNil() bool          { return uuid.UUID(id) == uuid.Nil }
func (id SaleID) IsNil() bool          { return uuid.UUID(id) == uuid.Nil }
func (id LineID) IsNil() bool          { return uuid.UUID(id) == uuid.Nil }
func (id PayoutRequestID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// Text marshalling keeps JSON payloads and map keys in canonical UUID form.

func (id ParticipantID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id PlanID) MarshalText() ([]byte, error)        { return uuid.UUID(id).MarshalText() }
func (id SaleID) MarshalText() ([]byte, error)        { return uuid.UUID(id).MarshalText() }
func (id LineID) MarshalText() ([]byte, error)        { return uuid.UUID(id).MarshalText() }
func (id PayoutRequestID) MarshalText() ([]byte, error) {
	return uuid.UUID(id).MarshalText()
}

func (id *ParticipantID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

func (id *PlanID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

func (id *SaleID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

func (id *LineID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

func (id *PayoutRequestID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}
