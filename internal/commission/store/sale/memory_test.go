package sale

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ascend/internal/commission/models"
	"ascend/pkg/domain"
	"ascend/pkg/platform/sentinel"
)

func newSale(t *testing.T, seller domain.ParticipantID, at time.Time) *models.Sale {
	t.Helper()
	s, err := models.NewSale(domain.NewSaleID(), seller, domain.Money{Amount: decimal.RequireFromString("120.50"), Currency: "EUR"},
		map[string]string{"order": "A-17"}, at)
	require.NoError(t, err)
	return s
}

func TestInMemory(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	seller := domain.NewParticipantID()

	t.Run("create and find", func(t *testing.T) {
		store := NewInMemory()
		sale := newSale(t, seller, now)
		require.NoError(t, store.Create(ctx, sale))
		assert.ErrorIs(t, store.Create(ctx, sale), sentinel.ErrConflict)

		got, err := store.FindByID(ctx, sale.ID)
		require.NoError(t, err)
		assert.Equal(t, "A-17", got.Metadata["order"])
		assert.Equal(t, models.SaleRecorded, got.Status)

		_, err = store.FindByID(ctx, domain.NewSaleID())
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("void once", func(t *testing.T) {
		store := NewInMemory()
		sale := newSale(t, seller, now)
		require.NoError(t, store.Create(ctx, sale))

		voided, err := store.MarkVoided(ctx, sale.ID, "chargeback", now.Add(time.Hour))
		require.NoError(t, err)
		assert.True(t, voided.IsVoided())
		assert.Equal(t, "chargeback", voided.VoidReason)

		_, err = store.MarkVoided(ctx, sale.ID, "again", now)
		assert.ErrorIs(t, err, sentinel.ErrInvalidState)
		_, err = store.MarkVoided(ctx, domain.NewSaleID(), "x", now)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("computed mark is set once", func(t *testing.T) {
		store := NewInMemory()
		sale := newSale(t, seller, now)
		require.NoError(t, store.Create(ctx, sale))

		require.NoError(t, store.MarkComputed(ctx, sale.ID, now))
		require.NoError(t, store.MarkComputed(ctx, sale.ID, now.Add(time.Hour)))
		got, err := store.FindByID(ctx, sale.ID)
		require.NoError(t, err)
		require.True(t, got.IsComputed())
		assert.Equal(t, now, *got.ComputedAt)

		assert.ErrorIs(t, store.MarkComputed(ctx, domain.NewSaleID(), now), sentinel.ErrNotFound)
	})

	t.Run("lists a seller's sales oldest first", func(t *testing.T) {
		store := NewInMemory()
		later := newSale(t, seller, now.Add(time.Hour))
		earlier := newSale(t, seller, now)
		require.NoError(t, store.Create(ctx, later))
		require.NoError(t, store.Create(ctx, earlier))
		require.NoError(t, store.Create(ctx, newSale(t, domain.NewParticipantID(), now)))

		sales, err := store.ListBySeller(ctx, seller)
		require.NoError(t, err)
		require.Len(t, sales, 2)
		assert.Equal(t, earlier.ID, sales[0].ID)
	})
}
