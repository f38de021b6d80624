// Package kafka consumes recorded-sale events and computes their commissions.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"ascend/internal/commission/models"
	"ascend/internal/platform/kafka/consumer"
	"ascend/internal/platform/kafka/producer"
	"ascend/pkg/domain"
	dErrors "ascend/pkg/domain-errors"
	"ascend/pkg/requestcontext"
)

// Computer computes and stores the commission lines of a sale. It must be
// idempotent: redelivered events return the stored lines.
type Computer interface {
	ComputeCommissions(ctx context.Context, saleID domain.SaleID) ([]*models.Line, error)
}

// SalesHandler handles the sales topic.
type SalesHandler struct {
	computer Computer
	logger   *slog.Logger
}

func NewSalesHandler(computer Computer, logger *slog.Logger) *SalesHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SalesHandler{computer: computer, logger: logger}
}

// Handle computes commissions for one sale event. Events that can never
// succeed are committed; anything else is returned for retry.
func (h *SalesHandler) Handle(ctx context.Context, msg *consumer.Message) error {
	var event models.SaleRecordedEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("decode sale event at offset %d: %w: %v", msg.Offset, consumer.ErrPermanent, err)
	}
	if event.SaleID.IsNil() {
		return fmt.Errorf("sale event at offset %d has no sale id: %w", msg.Offset, consumer.ErrPermanent)
	}
	if requestID := msg.Headers[producer.RequestIDHeader]; requestID != "" {
		ctx = requestcontext.WithRequestID(ctx, requestID)
	}

	lines, err := h.computer.ComputeCommissions(ctx, event.SaleID)
	switch {
	case err == nil:
		h.logger.InfoContext(ctx, "sale commissions computed",
			"sale_id", event.SaleID.String(),
			"lines", len(lines),
		)
		return nil
	case dErrors.HasCode(err, dErrors.CodeNotFound),
		dErrors.HasCode(err, dErrors.CodeNoPlan),
		dErrors.HasCode(err, dErrors.CodeInvalidState):
		h.logger.WarnContext(ctx, "skipping sale event",
			"sale_id", event.SaleID.String(),
			"code", string(dErrors.CodeOf(err)),
			"error", err,
		)
		return nil
	default:
		return fmt.Errorf("compute commissions for sale %s: %w", event.SaleID, err)
	}
}
