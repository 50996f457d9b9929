package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CarbonDesk/internal/domain/models"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestMemorySampleStoreAppendOrder(t *testing.T) {
	s := NewMemorySampleStore()
	ctx := context.Background()
	require.NoError(t, s.Append(ctx, "mangrove", models.Sample{Timestamp: t0, Price: 20}))
	assert.ErrorIs(t, s.Append(ctx, "mangrove", models.Sample{Timestamp: t0, Price: 21}), models.ErrOutOfOrderSample)
	assert.ErrorIs(t, s.Append(ctx, "mangrove", models.Sample{Timestamp: t0.Add(-time.Second)}), models.ErrOutOfOrderSample)
	// other assets are independent
	require.NoError(t, s.Append(ctx, "peatland", models.Sample{Timestamp: t0.Add(-time.Hour), Price: 5}))

	latest, err := s.Latest(ctx, "mangrove")
	require.NoError(t, err)
	assert.Equal(t, 20.0, latest.Price)

	ids, err := s.Assets(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"mangrove", "peatland"}, ids)
}

func TestMemorySampleStoreQueryBounds(t *testing.T) {
	s := NewMemorySampleStore()
	ctx := context.Background()
	for i := range 10 {
		require.NoError(t, s.Append(ctx, "mangrove", models.Sample{Timestamp: t0.Add(time.Duration(i) * time.Hour), Price: float64(i)}))
	}

	got, err := s.Query(ctx, "mangrove", t0.Add(2*time.Hour), t0.Add(4*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 3, 4}, models.Prices(got))

	got, err = s.Query(ctx, "mangrove", time.Time{}, t0.Add(time.Hour))
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = s.Query(ctx, "mangrove", t0.Add(100*time.Hour), time.Time{})
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = s.Query(ctx, "kelp", time.Time{}, time.Time{})
	assert.ErrorIs(t, err, models.ErrAssetNotFound)
	_, err = s.Latest(ctx, "kelp")
	assert.ErrorIs(t, err, models.ErrAssetNotFound)
}

func TestMemorySampleStoreConcurrentAppends(t *testing.T) {
	s := NewMemorySampleStore()
	ctx := context.Background()
	var wg sync.WaitGroup
	for a := range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			asset := fmt.Sprintf("asset-%d", a)
			for i := range 200 {
				_ = s.Append(ctx, asset, models.Sample{Timestamp: t0.Add(time.Duration(i) * time.Minute), Price: 1})
			}
		}()
	}
	wg.Wait()
	for a := range 4 {
		got, err := s.Query(ctx, fmt.Sprintf("asset-%d", a), time.Time{}, time.Time{})
		require.NoError(t, err)
		assert.Len(t, got, 200)
	}
}

func TestMemoryAuditStoreOrdering(t *testing.T) {
	s := NewMemoryAuditStore()
	fixed := t0
	s.clock.now = func() time.Time { return fixed }
	ctx := context.Background()

	ids := map[string]bool{}
	for i := range 3 {
		id, err := s.Append(ctx, models.AuditLogEntry{ActorID: "a", Action: models.ActionOrderExecuted, TargetID: fmt.Sprint(i)})
		require.NoError(t, err)
		ids[id] = true
	}
	// an explicit timestamp in the past still sorts after earlier entries
	_, err := s.Append(ctx, models.AuditLogEntry{ActorID: "b", Action: models.ActionUserCreated, Timestamp: t0.Add(-time.Hour)})
	require.NoError(t, err)
	assert.Len(t, ids, 3)

	var got []models.AuditLogEntry
	for e, err := range s.Query(ctx, models.AuditFilter{}) {
		require.NoError(t, err)
		got = append(got, e)
	}
	require.Len(t, got, 4)
	for i := 1; i < len(got); i++ {
		assert.True(t, got[i].Timestamp.After(got[i-1].Timestamp))
	}
	assert.Equal(t, "b", got[3].ActorID)

	n := 0
	for e := range s.Query(ctx, models.AuditFilter{ActorID: "a", Limit: 2}) {
		assert.Equal(t, "a", e.ActorID)
		n++
	}
	assert.Equal(t, 2, n)
}

func TestMemoryOrderStore(t *testing.T) {
	s := NewMemoryOrderStore()
	ctx := context.Background()
	r := models.OrderExecutionResult{OrderID: "o-1", State: models.StateExecuted, Status: models.StatusFilled}
	require.NoError(t, s.Save(ctx, r))
	assert.ErrorIs(t, s.Save(ctx, r), models.ErrInvalidArgument)

	got, err := s.Get(ctx, "o-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusFilled, got.Status)
	_, err = s.Get(ctx, "o-2")
	assert.ErrorIs(t, err, models.ErrOrderNotFound)
}

func TestOrderStoresRejectNonTerminalResults(t *testing.T) {
	ctx := context.Background()
	pending := models.OrderExecutionResult{OrderID: "o-3", State: models.StateValidated}

	mem := NewMemoryOrderStore()
	assert.ErrorIs(t, mem.Save(ctx, pending), models.ErrInvalidArgument)
	_, err := mem.Get(ctx, "o-3")
	assert.ErrorIs(t, err, models.ErrOrderNotFound)

	// db is nil: the state check runs before any ClickHouse call
	ch := &CHOrderStore{table: "carbondesk.order_fills"}
	assert.ErrorIs(t, ch.Save(ctx, pending), models.ErrInvalidArgument)

	pending.State = models.StateRejected
	require.NoError(t, mem.Save(ctx, pending))
}
