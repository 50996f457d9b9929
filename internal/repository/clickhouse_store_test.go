package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CarbonDesk/internal/domain/models"
	"CarbonDesk/pkg/util"
)

func TestCHSampleStoreRejectsAgainstCachedLast(t *testing.T) {
	// db is nil: a rejected append must never reach ClickHouse.
	s := &CHSampleStore{
		table: "carbondesk.samples",
		locks: util.NewKeyedMutex(),
		last:  map[string]time.Time{"mangrove": t0},
	}
	ctx := context.Background()

	assert.ErrorIs(t, s.Append(ctx, "mangrove", models.Sample{Timestamp: t0, Price: 20}), models.ErrOutOfOrderSample)
	assert.ErrorIs(t, s.Append(ctx, "mangrove", models.Sample{Timestamp: t0.Add(-time.Minute), Price: 20}), models.ErrOutOfOrderSample)

	last, err := s.lastTS(ctx, "mangrove")
	require.NoError(t, err)
	assert.True(t, last.Equal(t0))
}

func TestAuditClockStampsStrictlyIncreasing(t *testing.T) {
	fixed := t0
	c := auditClock{now: func() time.Time { return fixed }}

	var a, b models.AuditLogEntry
	c.stamp(&a)
	c.stamp(&b)
	assert.NotEmpty(t, a.EntryID)
	assert.True(t, b.Timestamp.After(a.Timestamp))

	early := models.AuditLogEntry{Timestamp: t0.Add(-time.Hour)}
	c.stamp(&early)
	assert.True(t, early.Timestamp.After(b.Timestamp))
}

func TestAuditClockReleaseKeepsNewerStamp(t *testing.T) {
	c := auditClock{now: func() time.Time { return t0 }}

	var failed models.AuditLogEntry
	prev := c.stamp(&failed)
	var next models.AuditLogEntry
	c.stamp(&next)

	// a later stamp moved the clock on; releasing the failed one must not rewind it
	c.release(failed.Timestamp, prev)
	assert.True(t, c.last.Equal(next.Timestamp))

	var solo models.AuditLogEntry
	prev = c.stamp(&solo)
	c.release(solo.Timestamp, prev)
	assert.True(t, c.last.Equal(next.Timestamp))
}

func TestAuditClockConcurrentStamps(t *testing.T) {
	c := auditClock{now: func() time.Time { return t0 }}
	const n = 64
	stamps := make([]time.Time, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var e models.AuditLogEntry
			c.stamp(&e)
			stamps[i] = e.Timestamp
		}()
	}
	wg.Wait()

	seen := make(map[time.Time]bool, n)
	for _, ts := range stamps {
		assert.False(t, seen[ts], "duplicate stamp %s", ts)
		seen[ts] = true
	}
	assert.True(t, c.last.Equal(t0.Add((n-1)*time.Microsecond)))
}

func TestBuildAuditQuery(t *testing.T) {
	q, args := buildAuditQuery("carbondesk.audit_log", models.AuditFilter{})
	assert.Equal(t, "SELECT entry_id, actor_id, action, target_type, target_id, ts, detail FROM carbondesk.audit_log WHERE 1 = 1 ORDER BY ts ASC, entry_id ASC", q)
	assert.Empty(t, args)

	from := time.Date(2024, 1, 1, 2, 0, 0, 0, time.FixedZone("UTC+2", 2*3600))
	q, args = buildAuditQuery("carbondesk.audit_log", models.AuditFilter{
		ActorID: "trader-7",
		Action:  models.ActionOrderExecuted,
		From:    from,
		To:      t0.Add(time.Hour),
		Limit:   50,
	})
	assert.Contains(t, q, "AND actor_id = ? AND action = ? AND ts >= ? AND ts <= ? ORDER BY ts ASC, entry_id ASC LIMIT ?")
	require.Len(t, args, 5)
	assert.Equal(t, "trader-7", args[0])
	assert.Equal(t, models.ActionOrderExecuted, args[1])
	assert.Equal(t, time.UTC, args[2].(time.Time).Location())
	assert.True(t, args[2].(time.Time).Equal(t0))
	assert.Equal(t, 50, args[4])
}
