package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"CarbonDesk/internal/domain/models"
	domrepo "CarbonDesk/internal/domain/repository"
	applogger "CarbonDesk/pkg/logger"
	"CarbonDesk/pkg/util"
)

var hundred = decimal.NewFromInt(100)

// PlaceOrderParams is a validated order request.
type PlaceOrderParams struct {
	ActorID              string
	AssetID              string
	Side                 models.Side
	Amount               decimal.Decimal
	SlippageTolerancePct decimal.Decimal
	// ReferencePrice zero means the latest price at submission.
	ReferencePrice decimal.Decimal
}

// consumption tracks how much of the latest sample's volume fills have used.
type consumption struct {
	sampleTS time.Time
	used     decimal.Decimal
}

// OrderEngine executes orders against the latest stored price and volume.
// Executions of one asset are serialized; different assets proceed in parallel.
type OrderEngine struct {
	store   domrepo.SampleStore
	orders  domrepo.OrderStore
	audit   domrepo.AuditStore
	events  domrepo.EventPublisher
	metrics domrepo.Metrics
	locks   *util.KeyedMutex

	mu       sync.Mutex
	consumed map[string]consumption

	now   func() time.Time
	newID func() string
	l     *applogger.Logger
}

func NewOrderEngine(
	store domrepo.SampleStore,
	orders domrepo.OrderStore,
	audit domrepo.AuditStore,
	events domrepo.EventPublisher,
	metrics domrepo.Metrics,
) *OrderEngine {
	return &OrderEngine{
		store:    store,
		orders:   orders,
		audit:    audit,
		events:   events,
		metrics:  metrics,
		locks:    util.NewKeyedMutex(),
		consumed: make(map[string]consumption),
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// SetLogger injects a structured logger.
func (e *OrderEngine) SetLogger(l *applogger.Logger) { e.l = l }

// Depth is the latest sample volume minus what fills consumed since that sample.
func (e *OrderEngine) Depth(ctx context.Context, assetID string) (decimal.Decimal, error) {
	latest, err := e.store.Latest(ctx, assetID)
	if err != nil {
		return decimal.Zero, err
	}
	return e.depthAt(assetID, latest), nil
}

func (e *OrderEngine) depthAt(assetID string, latest models.Sample) decimal.Decimal {
	vol := decimal.NewFromFloat(latest.Volume)
	e.mu.Lock()
	c, ok := e.consumed[assetID]
	e.mu.Unlock()
	if ok && c.sampleTS.Equal(latest.Timestamp) {
		vol = vol.Sub(c.used)
	}
	if vol.IsNegative() {
		return decimal.Zero
	}
	return vol
}

func (e *OrderEngine) consume(assetID string, sampleTS time.Time, amount decimal.Decimal) {
	e.mu.Lock()
	defer e.mu.Unlock()
	c := e.consumed[assetID]
	if !c.sampleTS.Equal(sampleTS) {
		c = consumption{sampleTS: sampleTS}
	}
	c.used = c.used.Add(amount)
	e.consumed[assetID] = c
}

// PlaceOrder runs one order to a terminal state. Rejections are returned as results,
// not errors. The audit append is the commit point: once it succeeds the fill
// consumes liquidity, even if saving the result fails afterwards. In that case,
// and for a price read failure, the result is returned together with the error.
// An error with a zero result means nothing was committed.
// Every call that returns a result has written exactly one audit entry.
func (e *OrderEngine) PlaceOrder(ctx context.Context, p PlaceOrderParams) (models.OrderExecutionResult, error) {
	order := models.Order{
		OrderID:              e.newID(),
		AssetID:              p.AssetID,
		ActorID:              p.ActorID,
		Side:                 p.Side,
		RequestedAmount:      p.Amount,
		SlippageTolerancePct: p.SlippageTolerancePct,
		ReferencePrice:       p.ReferencePrice,
		SubmittedAt:          e.now().UTC(),
	}
	if order.ActorID == "" {
		order.ActorID = "anonymous"
	}
	// the reference is captured before waiting for the asset lock
	if order.ReferencePrice.IsZero() {
		if s, err := e.store.Latest(ctx, order.AssetID); err == nil {
			order.ReferencePrice = decimal.NewFromFloat(s.Price)
		}
	}

	unlock := e.locks.Lock(order.AssetID)
	defer unlock()

	res, fill, cause := e.execute(ctx, order)
	if !res.State.Terminal() {
		return models.OrderExecutionResult{}, fmt.Errorf("place order %s: ended in state %q", order.OrderID, res.State)
	}

	entry := models.AuditLogEntry{
		EntryID:    e.newID(),
		ActorID:    order.ActorID,
		Action:     models.ActionOrderExecuted,
		TargetType: models.TargetOrder,
		TargetID:   order.OrderID,
		Timestamp:  res.ExecutedAt,
		Detail:     orderDetail(order, res),
	}
	if res.State == models.StateRejected {
		entry.Action = models.ActionOrderRejected
	}
	id, err := e.audit.Append(ctx, entry)
	if err != nil {
		e.metrics.RecordError("order_audit")
		return models.OrderExecutionResult{}, fmt.Errorf("place order %s: audit: %w", order.OrderID, err)
	}
	entry.EntryID = id

	if fill != nil {
		e.consume(order.AssetID, fill.sampleTS, res.ExecutedAmount)
	}
	e.metrics.RecordOrder(order.AssetID, res.Status)
	e.publish(ctx, entry, res)

	if err := e.orders.Save(ctx, res); err != nil {
		e.metrics.RecordError("order_save")
		if e.l != nil {
			e.l.Error("order audited but result not saved",
				applogger.String("order_id", order.OrderID), applogger.String("audit_id", id), applogger.Error(err))
		}
		return res, fmt.Errorf("place order %s: save: %w", order.OrderID, err)
	}
	if cause != nil {
		return res, fmt.Errorf("place order %s: %w", order.OrderID, cause)
	}
	return res, nil
}

// Get returns a previously recorded execution result.
func (e *OrderEngine) Get(ctx context.Context, orderID string) (models.OrderExecutionResult, error) {
	return e.orders.Get(ctx, orderID)
}

type pendingFill struct {
	sampleTS time.Time
}

// execute moves the order Submitted -> Validated -> Executed|Rejected without side effects.
// cause is set only when a rejection stems from an infrastructure failure.
func (e *OrderEngine) execute(ctx context.Context, o models.Order) (res models.OrderExecutionResult, fill *pendingFill, cause error) {
	res = models.OrderExecutionResult{
		OrderID:        o.OrderID,
		AssetID:        o.AssetID,
		Side:           o.Side,
		State:          models.StateSubmitted,
		ReferencePrice: o.ReferencePrice,
		ExecutedPrice:  decimal.Zero,
		ExecutedAmount: decimal.Zero,
		Shortfall:      decimal.Zero,
	}
	reject := func(reason string) (models.OrderExecutionResult, *pendingFill, error) {
		res.State = models.StateRejected
		res.Status = models.StatusRejected
		res.Reason = reason
		res.ExecutedAmount = decimal.Zero
		res.Shortfall = o.RequestedAmount
		res.ExecutedAt = e.now().UTC()
		return res, nil, cause
	}

	switch {
	case !o.Side.Valid():
		return reject(fmt.Sprintf("invalid side %q", o.Side))
	case !o.RequestedAmount.IsPositive():
		return reject("amount must be positive")
	case o.SlippageTolerancePct.IsNegative() || o.SlippageTolerancePct.GreaterThan(hundred):
		return reject("slippage tolerance must be within [0, 100]")
	}

	latest, err := e.store.Latest(ctx, o.AssetID)
	if err != nil {
		if errors.Is(err, models.ErrAssetNotFound) {
			return reject("asset not found: no price available")
		}
		cause = err
		return reject("price unavailable")
	}
	res.State = models.StateValidated

	exec := decimal.NewFromFloat(latest.Price)
	ref := o.ReferencePrice
	if ref.IsZero() {
		ref = exec
		res.ReferencePrice = ref
	}
	if !ref.IsPositive() {
		return reject("reference price must be positive")
	}
	res.ExecutedPrice = exec

	// |exec-ref|/ref <= tol/100, cross-multiplied so the comparison stays exact
	if exec.Sub(ref).Abs().Mul(hundred).GreaterThan(o.SlippageTolerancePct.Mul(ref)) {
		dev := exec.Sub(ref).Abs().Div(ref).Mul(hundred)
		return reject(fmt.Sprintf("%s: price moved %s%% (tolerance %s%%)",
			models.ErrSlippageExceeded, dev.StringFixed(4), o.SlippageTolerancePct.String()))
	}

	depth := e.depthAt(o.AssetID, latest)
	if !depth.IsPositive() {
		return reject("no liquidity")
	}

	res.State = models.StateExecuted
	res.ExecutedAt = e.now().UTC()
	fill = &pendingFill{sampleTS: latest.Timestamp}
	if o.RequestedAmount.GreaterThan(depth) {
		unmet := o.RequestedAmount.Sub(depth)
		res.Status = models.StatusPartiallyFilled
		res.ExecutedAmount = depth
		res.Shortfall = unmet
		res.Reason = fmt.Sprintf("insufficient liquidity: unmet %s (%s%% of available depth %s)",
			unmet.String(), unmet.Div(depth).Mul(hundred).StringFixed(2), depth.String())
		return res, fill, nil
	}
	res.Status = models.StatusFilled
	res.ExecutedAmount = o.RequestedAmount
	return res, fill, nil
}

func (e *OrderEngine) publish(ctx context.Context, entry models.AuditLogEntry, res models.OrderExecutionResult) {
	if e.events == nil {
		return
	}
	if err := e.events.PublishAudit(ctx, entry); err != nil {
		e.warn("publish audit event failed", err, res.OrderID)
	}
	if res.Status == models.StatusRejected {
		return
	}
	if err := e.events.PublishFill(ctx, res); err != nil {
		e.warn("publish fill event failed", err, res.OrderID)
	}
}

func (e *OrderEngine) warn(msg string, err error, orderID string) {
	e.metrics.RecordError("order_publish")
	if e.l != nil {
		e.l.Warn(msg, applogger.String("order_id", orderID), applogger.Error(err))
	}
}

func orderDetail(o models.Order, r models.OrderExecutionResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "side=%s asset=%s requested=%s tolerance_pct=%s reference=%s status=%s executed=%s",
		o.Side, o.AssetID, o.RequestedAmount, o.SlippageTolerancePct, r.ReferencePrice, r.Status, r.ExecutedAmount)
	if r.State != models.StateRejected {
		fmt.Fprintf(&b, " price=%s", r.ExecutedPrice)
	}
	if r.Reason != "" {
		fmt.Fprintf(&b, " reason=%q", r.Reason)
	}
	return b.String()
}
