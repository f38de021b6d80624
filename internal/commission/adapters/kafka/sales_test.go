package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ascend/internal/commission/models"
	"ascend/internal/platform/kafka/consumer"
	"ascend/internal/platform/kafka/producer"
	"ascend/pkg/domain"
	dErrors "ascend/pkg/domain-errors"
	"ascend/pkg/requestcontext"
)

type computeFunc func(ctx context.Context, saleID domain.SaleID) ([]*models.Line, error)

func (f computeFunc) ComputeCommissions(ctx context.Context, saleID domain.SaleID) ([]*models.Line, error) {
	return f(ctx, saleID)
}

func saleMessage(t *testing.T, saleID domain.SaleID) *consumer.Message {
	t.Helper()
	value, err := json.Marshal(models.SaleRecordedEvent{SaleID: saleID, SellerID: domain.NewParticipantID()})
	require.NoError(t, err)
	return &consumer.Message{Topic: "sales", Key: []byte(saleID.String()), Value: value, Headers: map[string]string{}}
}

func TestSalesHandler(t *testing.T) {
	t.Run("computes the sale in the event", func(t *testing.T) {
		saleID := domain.NewSaleID()
		var got domain.SaleID
		var gotRequestID string
		h := NewSalesHandler(computeFunc(func(ctx context.Context, id domain.SaleID) ([]*models.Line, error) {
			got = id
			gotRequestID = requestcontext.RequestID(ctx)
			return []*models.Line{{}, {}}, nil
		}), nil)

		msg := saleMessage(t, saleID)
		msg.Headers[producer.RequestIDHeader] = "req-42"

		require.NoError(t, h.Handle(context.Background(), msg))
		assert.Equal(t, saleID, got)
		assert.Equal(t, "req-42", gotRequestID)
	})

	t.Run("malformed payloads are permanent", func(t *testing.T) {
		h := NewSalesHandler(computeFunc(func(context.Context, domain.SaleID) ([]*models.Line, error) {
			t.Fatal("computer must not be called")
			return nil, nil
		}), nil)

		err := h.Handle(context.Background(), &consumer.Message{Value: []byte("{not json")})
		assert.ErrorIs(t, err, consumer.ErrPermanent)

		err = h.Handle(context.Background(), &consumer.Message{Value: []byte(`{"seller_id":"` + domain.NewParticipantID().String() + `"}`)})
		assert.ErrorIs(t, err, consumer.ErrPermanent)
	})

	t.Run("unprocessable sales are committed", func(t *testing.T) {
		for _, code := range []dErrors.Code{dErrors.CodeNotFound, dErrors.CodeNoPlan, dErrors.CodeInvalidState} {
			h := NewSalesHandler(computeFunc(func(context.Context, domain.SaleID) ([]*models.Line, error) {
				return nil, dErrors.New(code, "cannot compute")
			}), nil)
			assert.NoError(t, h.Handle(context.Background(), saleMessage(t, domain.NewSaleID())), code)
		}
	})

	t.Run("other failures are retried", func(t *testing.T) {
		cause := errors.New("store unavailable")
		h := NewSalesHandler(computeFunc(func(context.Context, domain.SaleID) ([]*models.Line, error) {
			return nil, cause
		}), nil)

		err := h.Handle(context.Background(), saleMessage(t, domain.NewSaleID()))
		require.Error(t, err)
		assert.ErrorIs(t, err, cause)
		assert.NotErrorIs(t, err, consumer.ErrPermanent)
	})
}
