package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"CarbonDesk/internal/domain/models"
	"CarbonDesk/internal/domain/repository"
	pkgch "CarbonDesk/pkg/clickhouse"
)

type MemoryOrderStore struct {
	mu     sync.RWMutex
	orders map[string]models.OrderExecutionResult
}

func NewMemoryOrderStore() *MemoryOrderStore {
	return &MemoryOrderStore{orders: make(map[string]models.OrderExecutionResult)}
}

func checkTerminal(r models.OrderExecutionResult) error {
	if !r.State.Terminal() {
		return fmt.Errorf("save order %s: state %q is not terminal: %w", r.OrderID, r.State, models.ErrInvalidArgument)
	}
	return nil
}

// Save records a terminal result once; results are never overwritten.
func (m *MemoryOrderStore) Save(_ context.Context, r models.OrderExecutionResult) error {
	if err := checkTerminal(r); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[r.OrderID]; ok {
		return fmt.Errorf("save order %s: already recorded: %w", r.OrderID, models.ErrInvalidArgument)
	}
	m.orders[r.OrderID] = r
	return nil
}

func (m *MemoryOrderStore) Get(_ context.Context, orderID string) (models.OrderExecutionResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.orders[orderID]
	if !ok {
		return models.OrderExecutionResult{}, fmt.Errorf("get order %s: %w", orderID, models.ErrOrderNotFound)
	}
	return r, nil
}

// CHOrderStore keeps execution results in ClickHouse; decimals are stored as strings.
type CHOrderStore struct {
	db    *sql.DB
	table string
}

func NewCHOrderStore(ch *pkgch.Client, database string) *CHOrderStore {
	return &CHOrderStore{db: ch.DB(), table: database + ".order_fills"}
}

func (s *CHOrderStore) Save(ctx context.Context, r models.OrderExecutionResult) error {
	if err := checkTerminal(r); err != nil {
		return err
	}
	q := fmt.Sprintf(`INSERT INTO %s (order_id, asset_id, side, state, status, reference_price,
        executed_price, executed_amount, shortfall, reason, executed_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, s.table)
	_, err := s.db.ExecContext(ctx, q,
		r.OrderID, r.AssetID, string(r.Side), string(r.State), string(r.Status),
		r.ReferencePrice.String(), r.ExecutedPrice.String(), r.ExecutedAmount.String(), r.Shortfall.String(),
		r.Reason, r.ExecutedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("save order %s: %w: %v", r.OrderID, models.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *CHOrderStore) Get(ctx context.Context, orderID string) (models.OrderExecutionResult, error) {
	q := fmt.Sprintf(`SELECT order_id, asset_id, side, state, status, reference_price, executed_price,
        executed_amount, shortfall, reason, executed_at FROM %s WHERE order_id = ? LIMIT 1`, s.table)
	var (
		r                  models.OrderExecutionResult
		side, state, stat  string
		ref, px, amt, shrt string
	)
	err := s.db.QueryRowContext(ctx, q, orderID).Scan(&r.OrderID, &r.AssetID, &side, &state, &stat, &ref, &px, &amt, &shrt, &r.Reason, &r.ExecutedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.OrderExecutionResult{}, fmt.Errorf("get order %s: %w", orderID, models.ErrOrderNotFound)
	}
	if err != nil {
		return models.OrderExecutionResult{}, fmt.Errorf("get order %s: %w: %v", orderID, models.ErrStoreUnavailable, err)
	}
	r.Side, r.State, r.Status = models.Side(side), models.OrderState(state), models.OrderStatus(stat)
	r.ReferencePrice = decimalOrZero(ref)
	r.ExecutedPrice = decimalOrZero(px)
	r.ExecutedAmount = decimalOrZero(amt)
	r.Shortfall = decimalOrZero(shrt)
	r.ExecutedAt = r.ExecutedAt.UTC()
	return r, nil
}

func decimalOrZero(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

var (
	_ repository.OrderStore = (*MemoryOrderStore)(nil)
	_ repository.OrderStore = (*CHOrderStore)(nil)
)
