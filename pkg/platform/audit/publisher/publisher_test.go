package publisher

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ascend/pkg/domain"
	audit "ascend/pkg/platform/audit"
	"ascend/pkg/platform/audit/store/memory"
)

func emit(t *testing.T, pub *Publisher, seller domain.ParticipantID, action audit.AuditEvent) {
	t.Helper()
	require.NoError(t, pub.Emit(context.Background(), audit.Event{ParticipantID: seller, Action: string(action)}))
}

func TestPublisher_SyncFillsCategoryAndTimestamp(t *testing.T) {
	pub := NewPublisher(memory.NewInMemoryStore())
	defer pub.Close()
	seller := domain.NewParticipantID()

	before := time.Now()
	emit(t, pub, seller, audit.EventParticipantRegistered)
	emit(t, pub, seller, audit.EventPlanPurchased)
	emit(t, pub, seller, audit.EventPayoutRequested)

	events, err := pub.List(context.Background(), seller)
	require.NoError(t, err)
	require.Len(t, events, 3)
	for i, want := range []struct {
		action   audit.AuditEvent
		category audit.EventCategory
	}{
		{audit.EventParticipantRegistered, audit.CategoryOperations},
		{audit.EventPlanPurchased, audit.EventPlanPurchased.Category()},
		{audit.EventPayoutRequested, audit.CategoryFinancial},
	} {
		assert.Equal(t, string(want.action), events[i].Action, "order is kept")
		assert.Equal(t, want.category, events[i].Category)
		assert.False(t, events[i].Timestamp.Before(before))
	}
}

func TestPublisher_KeepsCallerTimestamp(t *testing.T) {
	pub := NewPublisher(memory.NewInMemoryStore())
	defer pub.Close()
	seller := domain.NewParticipantID()
	at := time.Date(2026, 1, 31, 23, 59, 0, 0, time.UTC)

	require.NoError(t, pub.Emit(context.Background(), audit.Event{
		ParticipantID: seller,
		Action:        string(audit.EventPayoutCompleted),
		Timestamp:     at,
	}))

	events, err := pub.List(context.Background(), seller)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, at, events[0].Timestamp)
}

func TestPublisher_AsyncDrainsOnClose(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(64))
	seller := domain.NewParticipantID()

	for range 20 {
		emit(t, pub, seller, audit.EventCommissionApproved)
	}
	pub.Close()
	pub.Close()

	events, err := store.ListByParticipant(context.Background(), seller)
	require.NoError(t, err)
	require.Len(t, events, 20)
	assert.Equal(t, audit.CategoryFinancial, events[0].Category)
}

func TestPublisher_AsyncRejectsWhenFullOrCancelled(t *testing.T) {
	pub := NewPublisher(memory.NewInMemoryStore(), WithAsyncBuffer(1))
	defer pub.Close()

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := pub.Emit(context.Background(), audit.Event{Action: string(audit.EventSaleRecorded)})
			if err != nil {
				assert.ErrorIs(t, err, ErrBufferFull)
			}
		}()
	}
	wg.Wait()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, pub.Emit(ctx, audit.Event{Action: string(audit.EventSaleRecorded)}), context.Canceled)
}

func TestPublisher_RecentIsNewestFirst(t *testing.T) {
	pub := NewPublisher(memory.NewInMemoryStore())
	defer pub.Close()
	t0 := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	for i, action := range []audit.AuditEvent{audit.EventSaleRecorded, audit.EventCommissionsComputed, audit.EventTierPromoted} {
		require.NoError(t, pub.Emit(context.Background(), audit.Event{
			ParticipantID: domain.NewParticipantID(),
			Action:        string(action),
			Timestamp:     t0.Add(time.Duration(i) * time.Minute),
		}))
	}

	recent, err := pub.Recent(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, string(audit.EventTierPromoted), recent[0].Action)
	assert.Equal(t, string(audit.EventCommissionsComputed), recent[1].Action)
}
