package repository

import (
	"context"
	"database/sql"
	"fmt"
	"iter"
	"sync"
	"time"

	"github.com/google/uuid"

	"CarbonDesk/internal/domain/models"
	"CarbonDesk/internal/domain/repository"
	pkgch "CarbonDesk/pkg/clickhouse"
	applogger "CarbonDesk/pkg/logger"
)

// auditClock stamps entries with strictly increasing microsecond timestamps,
// so timestamp order is also append order.
type auditClock struct {
	mu   sync.Mutex
	last time.Time
	now  func() time.Time
}

// stamp assigns the entry ID and timestamp and returns the previous high-water
// mark, which release needs to undo a failed write.
func (c *auditClock) stamp(e *models.AuditLogEntry) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e.EntryID == "" {
		e.EntryID = uuid.NewString()
	}
	ts := e.Timestamp
	if ts.IsZero() {
		ts = c.now()
	}
	ts = ts.UTC().Truncate(time.Microsecond)
	if !ts.After(c.last) {
		ts = c.last.Add(time.Microsecond)
	}
	prev := c.last
	c.last = ts
	e.Timestamp = ts
	return prev
}

// release rolls the clock back to prev, unless a later stamp has moved it on.
func (c *auditClock) release(ts, prev time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last.Equal(ts) {
		c.last = prev
	}
}

// MemoryAuditStore is an in-process append-only audit log.
type MemoryAuditStore struct {
	clock   auditClock
	mu      sync.RWMutex
	entries []models.AuditLogEntry
}

func NewMemoryAuditStore() *MemoryAuditStore {
	return &MemoryAuditStore{clock: auditClock{now: time.Now}}
}

func (m *MemoryAuditStore) Append(_ context.Context, e models.AuditLogEntry) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clock.stamp(&e)
	m.entries = append(m.entries, e)
	return e.EntryID, nil
}

// Query iterates a snapshot taken at call time; later appends are not observed.
func (m *MemoryAuditStore) Query(_ context.Context, f models.AuditFilter) iter.Seq2[models.AuditLogEntry, error] {
	m.mu.RLock()
	snap := m.entries[:len(m.entries):len(m.entries)]
	m.mu.RUnlock()

	return func(yield func(models.AuditLogEntry, error) bool) {
		n := 0
		for _, e := range snap {
			if !f.Match(e) {
				continue
			}
			if !yield(e, nil) {
				return
			}
			n++
			if f.Limit > 0 && n >= f.Limit {
				return
			}
		}
	}
}

// CHAuditStore writes the audit trail to ClickHouse.
type CHAuditStore struct {
	db    *sql.DB
	table string
	clock auditClock
	l     *applogger.Logger
}

func NewCHAuditStore(ch *pkgch.Client, database string) *CHAuditStore {
	return &CHAuditStore{db: ch.DB(), table: database + ".audit_log", clock: auditClock{now: time.Now}}
}

// SetLogger injects a structured logger.
func (s *CHAuditStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHAuditStore) Append(ctx context.Context, e models.AuditLogEntry) (string, error) {
	prev := s.clock.stamp(&e)

	q := fmt.Sprintf("INSERT INTO %s (entry_id, actor_id, action, target_type, target_id, ts, detail) VALUES (?, ?, ?, ?, ?, ?, ?)", s.table)
	if _, err := s.db.ExecContext(ctx, q, e.EntryID, e.ActorID, e.Action, e.TargetType, e.TargetID, e.Timestamp, e.Detail); err != nil {
		s.clock.release(e.Timestamp, prev)
		if s.l != nil {
			s.l.Error("clickhouse audit append error",
				applogger.String("action", e.Action),
				applogger.String("target_id", e.TargetID),
				applogger.Error(err),
			)
		}
		return "", fmt.Errorf("audit append: %w: %v", models.ErrStoreUnavailable, err)
	}
	return e.EntryID, nil
}

// Query streams matching rows; rows are read only as the caller iterates.
func (s *CHAuditStore) Query(ctx context.Context, f models.AuditFilter) iter.Seq2[models.AuditLogEntry, error] {
	return func(yield func(models.AuditLogEntry, error) bool) {
		q, args := buildAuditQuery(s.table, f)
		rows, err := s.db.QueryContext(ctx, q, args...)
		if err != nil {
			yield(models.AuditLogEntry{}, fmt.Errorf("audit query: %w: %v", models.ErrStoreUnavailable, err))
			return
		}
		defer rows.Close()
		for rows.Next() {
			var e models.AuditLogEntry
			if err := rows.Scan(&e.EntryID, &e.ActorID, &e.Action, &e.TargetType, &e.TargetID, &e.Timestamp, &e.Detail); err != nil {
				yield(models.AuditLogEntry{}, fmt.Errorf("audit scan: %w: %v", models.ErrStoreUnavailable, err))
				return
			}
			e.Timestamp = e.Timestamp.UTC()
			if !yield(e, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(models.AuditLogEntry{}, fmt.Errorf("audit rows: %w: %v", models.ErrStoreUnavailable, err))
		}
	}
}

// buildAuditQuery renders the filter as a parameterized SELECT in append order.
func buildAuditQuery(table string, f models.AuditFilter) (string, []any) {
	q := fmt.Sprintf("SELECT entry_id, actor_id, action, target_type, target_id, ts, detail FROM %s WHERE 1 = 1", table)
	var args []any
	if f.ActorID != "" {
		q += " AND actor_id = ?"
		args = append(args, f.ActorID)
	}
	if f.Action != "" {
		q += " AND action = ?"
		args = append(args, f.Action)
	}
	if !f.From.IsZero() {
		q += " AND ts >= ?"
		args = append(args, f.From.UTC())
	}
	if !f.To.IsZero() {
		q += " AND ts <= ?"
		args = append(args, f.To.UTC())
	}
	q += " ORDER BY ts ASC, entry_id ASC"
	if f.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, f.Limit)
	}
	return q, args
}

var (
	_ repository.AuditStore = (*MemoryAuditStore)(nil)
	_ repository.AuditStore = (*CHAuditStore)(nil)
)
