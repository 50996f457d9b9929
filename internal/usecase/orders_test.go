package usecase

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"CarbonDesk/internal/domain/models"
	"CarbonDesk/internal/repository"
	"CarbonDesk/pkg/metrics"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type engineFixture struct {
	store  *repository.MemorySampleStore
	audit  *repository.MemoryAuditStore
	orders *repository.MemoryOrderStore
	engine *OrderEngine
}

func newEngine(t *testing.T, price, volume float64) *engineFixture {
	t.Helper()
	f := &engineFixture{
		store:  repository.NewMemorySampleStore(),
		audit:  repository.NewMemoryAuditStore(),
		orders: repository.NewMemoryOrderStore(),
	}
	require.NoError(t, f.store.Append(context.Background(), "mangrove", models.Sample{Timestamp: t0, Price: price, Volume: volume}))
	f.engine = NewOrderEngine(f.store, f.orders, f.audit, repository.NopEventPublisher{}, metrics.Nop{})
	return f
}

func (f *engineFixture) auditEntries(t *testing.T) []models.AuditLogEntry {
	t.Helper()
	var out []models.AuditLogEntry
	for e, err := range f.audit.Query(context.Background(), models.AuditFilter{}) {
		require.NoError(t, err)
		out = append(out, e)
	}
	return out
}

func buy(amount, tol, ref string) PlaceOrderParams {
	p := PlaceOrderParams{
		ActorID:              "trader-1",
		AssetID:              "mangrove",
		Side:                 models.SideBuy,
		Amount:               dec(amount),
		SlippageTolerancePct: dec(tol),
	}
	if ref != "" {
		p.ReferencePrice = dec(ref)
	}
	return p
}

func TestPlaceOrderFilled(t *testing.T) {
	f := newEngine(t, 21.5, 1000)
	res, err := f.engine.PlaceOrder(context.Background(), buy("100", "1", ""))
	require.NoError(t, err)

	assert.Equal(t, models.StatusFilled, res.Status)
	assert.Equal(t, models.StateExecuted, res.State)
	assert.True(t, res.ExecutedPrice.Equal(dec("21.5")))
	assert.True(t, res.ExecutedAmount.Equal(dec("100")))

	stored, err := f.engine.Get(context.Background(), res.OrderID)
	require.NoError(t, err)
	assert.Equal(t, res.Status, stored.Status)

	depth, err := f.engine.Depth(context.Background(), "mangrove")
	require.NoError(t, err)
	assert.True(t, depth.Equal(dec("900")), depth.String())
}

func TestPlaceOrderPartialFillReportsUnmetShare(t *testing.T) {
	f := newEngine(t, 20, 100)
	res, err := f.engine.PlaceOrder(context.Background(), buy("110", "5", ""))
	require.NoError(t, err)

	assert.Equal(t, models.StatusPartiallyFilled, res.Status)
	assert.True(t, res.ExecutedAmount.Equal(dec("100")))
	assert.True(t, res.Shortfall.Equal(dec("10")))
	assert.Contains(t, res.Reason, "unmet 10")
	assert.Contains(t, res.Reason, "10.00%")

	// the sample's volume is used up until a new one arrives
	res, err = f.engine.PlaceOrder(context.Background(), buy("1", "5", ""))
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, res.Status)
	assert.Equal(t, "no liquidity", res.Reason)

	require.NoError(t, f.store.Append(context.Background(), "mangrove", models.Sample{Timestamp: t0.Add(time.Hour), Price: 20, Volume: 50}))
	res, err = f.engine.PlaceOrder(context.Background(), buy("1", "5", ""))
	require.NoError(t, err)
	assert.Equal(t, models.StatusFilled, res.Status)
}

func TestSlippageBoundary(t *testing.T) {
	for _, tc := range []struct {
		name   string
		price  float64
		ref    string
		status models.OrderStatus
	}{
		{"exactly at tolerance above", 105, "100", models.StatusFilled},
		{"exactly at tolerance below", 95, "100", models.StatusFilled},
		{"just beyond", 105.01, "100", models.StatusRejected},
		{"fractional exact", 21.21, "20.2", models.StatusFilled},
	} {
		t.Run(tc.name, func(t *testing.T) {
			f := newEngine(t, tc.price, 1000)
			res, err := f.engine.PlaceOrder(context.Background(), buy("10", "5", tc.ref))
			require.NoError(t, err)
			assert.Equal(t, tc.status, res.Status, res.Reason)
			if tc.status == models.StatusRejected {
				assert.Contains(t, res.Reason, models.ErrSlippageExceeded.Error())
				assert.True(t, res.ExecutedAmount.IsZero())
			}
			assert.Len(t, f.auditEntries(t), 1)
		})
	}
}

func TestExactlyOneAuditEntryPerCall(t *testing.T) {
	f := newEngine(t, 20, 100)
	calls := []PlaceOrderParams{
		buy("10", "1", ""),    // filled
		buy("500", "1", ""),   // partial
		buy("1", "1", ""),     // no liquidity
		buy("-1", "1", ""),    // invalid amount
		buy("1", "101", ""),   // invalid tolerance
		buy("1", "1", "10"),   // slippage
		{ActorID: "trader-2", AssetID: "unknown", Side: models.SideSell, Amount: dec("1"), SlippageTolerancePct: dec("1")},
		{ActorID: "trader-2", AssetID: "mangrove", Side: "hold", Amount: dec("1"), SlippageTolerancePct: dec("1")},
	}
	for i, p := range calls {
		res, err := f.engine.PlaceOrder(context.Background(), p)
		require.NoError(t, err, "call %d", i)

		entries := f.auditEntries(t)
		require.Len(t, entries, i+1, "call %d", i)
		last := entries[i]
		assert.Equal(t, res.OrderID, last.TargetID)
		assert.Equal(t, models.TargetOrder, last.TargetType)
		if res.Status == models.StatusRejected {
			assert.Equal(t, models.ActionOrderRejected, last.Action)
		} else {
			assert.Equal(t, models.ActionOrderExecuted, last.Action)
		}
	}
}

func TestRejectedUnknownAsset(t *testing.T) {
	f := newEngine(t, 20, 100)
	res, err := f.engine.PlaceOrder(context.Background(), PlaceOrderParams{
		AssetID: "kelp", Side: models.SideBuy, Amount: dec("1"), SlippageTolerancePct: dec("1"),
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, res.Status)
	assert.Contains(t, res.Reason, "asset not found")
	assert.Equal(t, "anonymous", f.auditEntries(t)[0].ActorID)
}

type failingAudit struct{}

func (failingAudit) Append(context.Context, models.AuditLogEntry) (string, error) {
	return "", fmt.Errorf("append: %w", models.ErrStoreUnavailable)
}

func (failingAudit) Query(context.Context, models.AuditFilter) iter.Seq2[models.AuditLogEntry, error] {
	return func(func(models.AuditLogEntry, error) bool) {}
}

func TestAuditFailureCommitsNothing(t *testing.T) {
	store := repository.NewMemorySampleStore()
	require.NoError(t, store.Append(context.Background(), "mangrove", models.Sample{Timestamp: t0, Price: 20, Volume: 100}))
	orders := repository.NewMemoryOrderStore()
	e := NewOrderEngine(store, orders, failingAudit{}, repository.NopEventPublisher{}, metrics.Nop{})

	_, err := e.PlaceOrder(context.Background(), buy("10", "1", ""))
	require.ErrorIs(t, err, models.ErrStoreUnavailable)

	depth, err := e.Depth(context.Background(), "mangrove")
	require.NoError(t, err)
	assert.True(t, depth.Equal(dec("100")))
}

type failingOrders struct{ *repository.MemoryOrderStore }

func (failingOrders) Save(context.Context, models.OrderExecutionResult) error {
	return fmt.Errorf("save: %w", models.ErrStoreUnavailable)
}

func TestSaveFailureAfterAuditKeepsFillCommitted(t *testing.T) {
	f := newEngine(t, 20, 100)
	f.engine.orders = failingOrders{f.orders}

	res, err := f.engine.PlaceOrder(context.Background(), buy("30", "1", ""))
	require.ErrorIs(t, err, models.ErrStoreUnavailable)
	assert.Equal(t, models.StatusFilled, res.Status)
	require.NotEmpty(t, res.OrderID)

	entries := f.auditEntries(t)
	require.Len(t, entries, 1)
	assert.Equal(t, res.OrderID, entries[0].TargetID)

	// the audited fill still holds its liquidity
	depth, err := f.engine.Depth(context.Background(), "mangrove")
	require.NoError(t, err)
	assert.True(t, depth.Equal(dec("70")), depth.String())
}

type recordingEvents struct {
	audits, fills int
	err           error
}

func (r *recordingEvents) PublishAudit(context.Context, models.AuditLogEntry) error {
	r.audits++
	return r.err
}

func (r *recordingEvents) PublishFill(context.Context, models.OrderExecutionResult) error {
	r.fills++
	return r.err
}

func (r *recordingEvents) Close() error { return nil }

func TestEventsAreBestEffort(t *testing.T) {
	f := newEngine(t, 20, 100)
	ev := &recordingEvents{err: errors.New("broker down")}
	f.engine.events = ev

	res, err := f.engine.PlaceOrder(context.Background(), buy("10", "1", ""))
	require.NoError(t, err)
	assert.Equal(t, models.StatusFilled, res.Status)

	_, err = f.engine.PlaceOrder(context.Background(), buy("-1", "1", ""))
	require.NoError(t, err)
	assert.Equal(t, 2, ev.audits)
	assert.Equal(t, 1, ev.fills)
}

func TestConcurrentOrdersNeverOverfill(t *testing.T) {
	f := newEngine(t, 20, 100)
	var g errgroup.Group
	results := make([]models.OrderExecutionResult, 40)
	for i := range results {
		g.Go(func() error {
			res, err := f.engine.PlaceOrder(context.Background(), buy("7", "1", ""))
			results[i] = res
			return err
		})
	}
	require.NoError(t, g.Wait())

	total := decimal.Zero
	for _, r := range results {
		total = total.Add(r.ExecutedAmount)
	}
	assert.True(t, total.Equal(dec("100")), total.String())
	assert.Len(t, f.auditEntries(t), len(results))

	ids := make([]string, 0, len(results))
	for _, r := range results {
		ids = append(ids, r.OrderID)
	}
	slices.Sort(ids)
	assert.Len(t, slices.Compact(ids), len(results))
}

func TestOrderDetailMentionsReason(t *testing.T) {
	f := newEngine(t, 20, 100)
	_, err := f.engine.PlaceOrder(context.Background(), buy("1", "1", "10"))
	require.NoError(t, err)
	detail := f.auditEntries(t)[0].Detail
	assert.True(t, strings.Contains(detail, "status=rejected"), detail)
	assert.Contains(t, detail, "reason=")
}
