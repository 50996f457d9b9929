package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CarbonDesk/internal/domain/models"
	mid "CarbonDesk/internal/middleware"
	"CarbonDesk/internal/repository"
	"CarbonDesk/pkg/metrics"
)

type capturePublisher struct {
	mu  sync.Mutex
	got []*models.AssetSample
}

func (p *capturePublisher) Publish(_ context.Context, s *models.AssetSample) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.got = append(p.got, s)
	return nil
}

func (p *capturePublisher) PublishBatch(ctx context.Context, samples []*models.AssetSample) error {
	for _, s := range samples {
		_ = p.Publish(ctx, s)
	}
	return nil
}

func (p *capturePublisher) Close() error { return nil }

func assetSample(asset string, ts time.Time, price float64) *models.AssetSample {
	return &models.AssetSample{AssetID: asset, Sample: models.Sample{Timestamp: ts, Price: price, Volume: 1}}
}

func TestSampleProcessorBackends(t *testing.T) {
	store := repository.NewMemorySampleStore()
	p := NewSampleProcessor(nil, store, metrics.Nop{}, BackendStore)
	require.NoError(t, p.Process(context.Background(), assetSample("kelp", t0, 3)))
	s, err := store.Latest(context.Background(), "kelp")
	require.NoError(t, err)
	assert.Equal(t, 3.0, s.Price)

	err = p.Process(context.Background(), assetSample("kelp", t0.Add(-time.Minute), 2))
	assert.ErrorIs(t, err, models.ErrOutOfOrderSample)

	pub := &capturePublisher{}
	kp := NewSampleProcessor(pub, store, metrics.Nop{}, BackendKafka)
	require.NoError(t, kp.ProcessBatch(context.Background(), []*models.AssetSample{
		assetSample("kelp", t0.Add(time.Hour), 4),
		assetSample("kelp", t0.Add(2*time.Hour), 5),
	}))
	assert.Len(t, pub.got, 2)

	bad := NewSampleProcessor(nil, store, metrics.Nop{}, "carrier-pigeon")
	assert.Error(t, bad.Process(context.Background(), assetSample("kelp", t0.Add(3*time.Hour), 6)))
}

type fakeStream struct {
	samples   []*models.AssetSample
	mu        sync.Mutex
	connected bool
	closed    bool
}

func (f *fakeStream) Connect(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = true
	return nil
}

func (f *fakeStream) Subscribe(context.Context) error { return nil }

func (f *fakeStream) Read(context.Context) (<-chan *models.AssetSample, <-chan error) {
	ch := make(chan *models.AssetSample, len(f.samples))
	for _, s := range f.samples {
		ch <- s
	}
	f.samples = nil
	return ch, make(chan error)
}

func (f *fakeStream) Reconnect(context.Context) error { return nil }

func (f *fakeStream) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	f.connected = false
	return nil
}

func (f *fakeStream) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func TestSampleCollectorIngestsFeed(t *testing.T) {
	store := repository.NewMemorySampleStore()
	stream := &fakeStream{samples: []*models.AssetSample{
		assetSample("kelp", t0, 1),
		assetSample("kelp", t0.Add(time.Minute), 2),
		assetSample("seagrass", t0, 7),
	}}
	proc := NewSampleProcessor(nil, store, metrics.Nop{}, BackendStore)
	pipe := mid.NewSamplePipeline(proc, metrics.Nop{}, mid.WithMaxRPS(0))
	c := NewSampleCollector(stream, pipe, metrics.Nop{})

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, c.Start(ctx))
	assert.True(t, c.IsConnected())

	require.Eventually(t, func() bool {
		s, err := store.Latest(context.Background(), "kelp")
		if err != nil || s.Price != 2 {
			return false
		}
		_, err = store.Latest(context.Background(), "seagrass")
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	shutdownCtx, done := context.WithTimeout(context.Background(), time.Second)
	defer done()
	require.NoError(t, c.Shutdown(shutdownCtx))
	assert.True(t, stream.closed)
}
