package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"CarbonDesk/internal/domain/models"
	"CarbonDesk/internal/domain/repository"
	pkgch "CarbonDesk/pkg/clickhouse"
	applogger "CarbonDesk/pkg/logger"
	"CarbonDesk/pkg/util"
)

// CHSampleStore persists samples in ClickHouse.
// ClickHouse has no uniqueness constraints, so ordering is enforced here: one writer
// per asset, checked against the cached last timestamp.
type CHSampleStore struct {
	db    *sql.DB
	table string
	locks *util.KeyedMutex
	l     *applogger.Logger

	mu   sync.Mutex
	last map[string]time.Time
}

func NewCHSampleStore(ch *pkgch.Client, database string) *CHSampleStore {
	return &CHSampleStore{
		db:    ch.DB(),
		table: database + ".samples",
		locks: util.NewKeyedMutex(),
		last:  make(map[string]time.Time),
	}
}

// SetLogger injects a structured logger.
func (s *CHSampleStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHSampleStore) lastTS(ctx context.Context, assetID string) (time.Time, error) {
	s.mu.Lock()
	ts, ok := s.last[assetID]
	s.mu.Unlock()
	if ok {
		return ts, nil
	}
	q := fmt.Sprintf("SELECT count(), max(ts) FROM %s WHERE asset_id = ?", s.table)
	var n uint64
	if err := s.db.QueryRowContext(ctx, q, assetID).Scan(&n, &ts); err != nil {
		return time.Time{}, s.unavailable("last_ts", assetID, err)
	}
	if n == 0 {
		ts = time.Time{}
	}
	s.remember(assetID, ts)
	return ts, nil
}

func (s *CHSampleStore) remember(assetID string, ts time.Time) {
	s.mu.Lock()
	s.last[assetID] = ts
	s.mu.Unlock()
}

func (s *CHSampleStore) Append(ctx context.Context, assetID string, smp models.Sample) error {
	unlock := s.locks.Lock(assetID)
	defer unlock()

	last, err := s.lastTS(ctx, assetID)
	if err != nil {
		return err
	}
	if !last.IsZero() && !smp.Timestamp.After(last) {
		return fmt.Errorf("append %s at %s (last %s): %w",
			assetID, smp.Timestamp.Format(time.RFC3339Nano), last.Format(time.RFC3339Nano), models.ErrOutOfOrderSample)
	}
	q := fmt.Sprintf("INSERT INTO %s (asset_id, ts, price, volume) VALUES (?, ?, ?, ?)", s.table)
	if _, err := s.db.ExecContext(ctx, q, assetID, smp.Timestamp.UTC(), smp.Price, smp.Volume); err != nil {
		return s.unavailable("append", assetID, err)
	}
	s.remember(assetID, smp.Timestamp.UTC())
	return nil
}

func (s *CHSampleStore) Query(ctx context.Context, assetID string, start, end time.Time) ([]models.Sample, error) {
	begin := time.Now()
	last, err := s.lastTS(ctx, assetID)
	if err != nil {
		return nil, err
	}
	if last.IsZero() {
		return nil, fmt.Errorf("query %s: %w", assetID, models.ErrAssetNotFound)
	}
	if start.IsZero() {
		start = time.Unix(0, 0)
	}
	if end.IsZero() {
		end = last
	}
	const qtpl = `
        SELECT ts, price, volume
        FROM %s
        WHERE asset_id = ? AND ts >= ? AND ts <= ?
        ORDER BY ts ASC
    `
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(qtpl, s.table), assetID, start.UTC(), end.UTC())
	if err != nil {
		return nil, s.unavailable("query", assetID, err)
	}
	defer rows.Close()

	out := make([]models.Sample, 0, 256)
	for rows.Next() {
		var smp models.Sample
		if err := rows.Scan(&smp.Timestamp, &smp.Price, &smp.Volume); err != nil {
			return nil, s.unavailable("scan", assetID, err)
		}
		smp.Timestamp = smp.Timestamp.UTC()
		out = append(out, smp)
	}
	if err := rows.Err(); err != nil {
		return nil, s.unavailable("rows", assetID, err)
	}
	if s.l != nil {
		s.l.Debug("clickhouse query_samples ok",
			applogger.String("asset_id", assetID),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(begin)),
		)
	}
	return out, nil
}

func (s *CHSampleStore) Latest(ctx context.Context, assetID string) (models.Sample, error) {
	q := fmt.Sprintf("SELECT ts, price, volume FROM %s WHERE asset_id = ? ORDER BY ts DESC LIMIT 1", s.table)
	var smp models.Sample
	err := s.db.QueryRowContext(ctx, q, assetID).Scan(&smp.Timestamp, &smp.Price, &smp.Volume)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Sample{}, fmt.Errorf("latest %s: %w", assetID, models.ErrAssetNotFound)
	}
	if err != nil {
		return models.Sample{}, s.unavailable("latest", assetID, err)
	}
	smp.Timestamp = smp.Timestamp.UTC()
	return smp, nil
}

func (s *CHSampleStore) Assets(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("SELECT DISTINCT asset_id FROM %s ORDER BY asset_id", s.table))
	if err != nil {
		return nil, s.unavailable("assets", "", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, s.unavailable("assets", "", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (s *CHSampleStore) Health(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("clickhouse ping: %w: %v", models.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *CHSampleStore) unavailable(op, assetID string, err error) error {
	if s.l != nil {
		s.l.Error("clickhouse sample store error",
			applogger.String("op", op),
			applogger.String("asset_id", assetID),
			applogger.Error(err),
		)
	}
	return fmt.Errorf("%s %s: %w: %v", op, assetID, models.ErrStoreUnavailable, err)
}

var _ repository.SampleStore = (*CHSampleStore)(nil)
