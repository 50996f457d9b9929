package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"CarbonDesk/internal/domain/models"
	"CarbonDesk/internal/domain/repository"
)

// MemorySampleStore keeps every asset's series in process memory.
// Each series has its own lock, so appends to different assets never contend.
type MemorySampleStore struct {
	mu     sync.RWMutex
	series map[string]*series
}

type series struct {
	mu      sync.RWMutex
	samples []models.Sample
}

func NewMemorySampleStore() *MemorySampleStore {
	return &MemorySampleStore{series: make(map[string]*series)}
}

func (m *MemorySampleStore) get(assetID string, create bool) *series {
	m.mu.RLock()
	s, ok := m.series[assetID]
	m.mu.RUnlock()
	if ok || !create {
		return s
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok = m.series[assetID]; !ok {
		s = &series{}
		m.series[assetID] = s
	}
	return s
}

// Append rejects samples that do not advance the asset's last timestamp.
func (m *MemorySampleStore) Append(_ context.Context, assetID string, smp models.Sample) error {
	s := m.get(assetID, true)
	s.mu.Lock()
	defer s.mu.Unlock()
	if n := len(s.samples); n > 0 && !smp.Timestamp.After(s.samples[n-1].Timestamp) {
		return fmt.Errorf("append %s at %s (last %s): %w",
			assetID, smp.Timestamp.Format(time.RFC3339Nano), s.samples[n-1].Timestamp.Format(time.RFC3339Nano), models.ErrOutOfOrderSample)
	}
	smp.Timestamp = smp.Timestamp.UTC()
	s.samples = append(s.samples, smp)
	return nil
}

// Query returns a copy of samples within [start, end]. Zero bounds are open.
func (m *MemorySampleStore) Query(_ context.Context, assetID string, start, end time.Time) ([]models.Sample, error) {
	s := m.get(assetID, false)
	if s == nil {
		return nil, fmt.Errorf("query %s: %w", assetID, models.ErrAssetNotFound)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	lo := 0
	if !start.IsZero() {
		lo = sort.Search(len(s.samples), func(i int) bool { return !s.samples[i].Timestamp.Before(start) })
	}
	hi := len(s.samples)
	if !end.IsZero() {
		hi = sort.Search(len(s.samples), func(i int) bool { return s.samples[i].Timestamp.After(end) })
	}
	if lo >= hi {
		return []models.Sample{}, nil
	}
	return append([]models.Sample(nil), s.samples[lo:hi]...), nil
}

func (m *MemorySampleStore) Latest(_ context.Context, assetID string) (models.Sample, error) {
	s := m.get(assetID, false)
	if s == nil {
		return models.Sample{}, fmt.Errorf("latest %s: %w", assetID, models.ErrAssetNotFound)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.samples) == 0 {
		return models.Sample{}, fmt.Errorf("latest %s: %w", assetID, models.ErrAssetNotFound)
	}
	return s.samples[len(s.samples)-1], nil
}

// Assets lists known asset ids in ascending order.
func (m *MemorySampleStore) Assets(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.series))
	for id := range m.series {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

func (m *MemorySampleStore) Health(context.Context) error { return nil }

var _ repository.SampleStore = (*MemorySampleStore)(nil)
