package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"CarbonDesk/internal/domain/models"
	domrepo "CarbonDesk/internal/domain/repository"
	"CarbonDesk/internal/service/ratelimit"
)

// Proc is the minimal processor interface the pipeline needs.
type Proc interface {
	Process(ctx context.Context, s *models.AssetSample) error
}

// SamplePipeline sits between the live feed and the processor.
// It validates, throttles per asset and buffers samples while downstream is failing.
// Business rejections (e.g. out-of-order samples) are dropped, never buffered.
type SamplePipeline struct {
	proc      Proc
	metrics   domrepo.Metrics
	maxRPS    float64
	bufSize   int
	throttle  *ratelimit.Limiter
	bufCh     chan *models.AssetSample
	stopCh    chan struct{}
	wg        sync.WaitGroup
	mu        sync.Mutex
	started   bool
	transform func(*models.AssetSample) *models.AssetSample
}

type PipelineOption func(*SamplePipeline)

// WithMaxRPS caps accepted samples per second per asset; zero disables throttling.
func WithMaxRPS(n float64) PipelineOption {
	return func(p *SamplePipeline) {
		if n >= 0 {
			p.maxRPS = n
		}
	}
}

func WithBufferSize(n int) PipelineOption {
	return func(p *SamplePipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// WithTransform rewrites samples before validation of the result.
func WithTransform(fn func(*models.AssetSample) *models.AssetSample) PipelineOption {
	return func(p *SamplePipeline) { p.transform = fn }
}

func NewSamplePipeline(proc Proc, metrics domrepo.Metrics, opts ...PipelineOption) *SamplePipeline {
	p := &SamplePipeline{
		proc:    proc,
		metrics: metrics,
		maxRPS:  20,
		bufSize: 1000,
		stopCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.bufCh = make(chan *models.AssetSample, p.bufSize)
	if p.maxRPS > 0 {
		p.throttle = ratelimit.New(p.maxRPS, int(max(1, p.maxRPS)))
	}
	return p
}

// Start launches the background flush of buffered samples.
func (p *SamplePipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		backoff := 50 * time.Millisecond
		for {
			select {
			case <-p.stopCh:
				return
			case <-ctx.Done():
				return
			case s := <-p.bufCh:
				err := p.proc.Process(ctx, s)
				if err == nil || models.IsBusiness(err) {
					backoff = 50 * time.Millisecond
					continue
				}
				if backoff < 2*time.Second {
					backoff *= 2
				}
				p.metrics.RecordError("pipeline_flush")
				select {
				case <-time.After(backoff):
				case <-p.stopCh:
					return
				}
				select {
				case p.bufCh <- s:
				default:
					p.metrics.RecordError("pipeline_buffer_drop")
				}
			}
		}
	}()
}

// Stop halts the flusher; buffered samples are discarded.
func (p *SamplePipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	p.mu.Unlock()
	close(p.stopCh)
	p.wg.Wait()
}

// Buffered reports the number of samples awaiting retry.
func (p *SamplePipeline) Buffered() int { return len(p.bufCh) }

// Process validates, throttles and forwards s, buffering it on infrastructure errors.
func (p *SamplePipeline) Process(ctx context.Context, s *models.AssetSample) error {
	start := time.Now()
	if err := validateSample(s); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return err
	}
	if p.transform != nil {
		s = p.transform(s)
		if err := validateSample(s); err != nil {
			p.metrics.RecordError("pipeline_transform_invalid")
			return err
		}
	}
	if p.throttle != nil && !p.throttle.Allow(s.AssetID) {
		p.metrics.RecordError("pipeline_throttle")
		return nil
	}

	err := p.proc.Process(ctx, s)
	switch {
	case err == nil:
		p.metrics.RecordLatency("pipeline_process", time.Since(start).Seconds())
		return nil
	case models.IsBusiness(err):
		p.metrics.RecordError("pipeline_rejected")
		return err
	}
	p.metrics.RecordError("pipeline_process")
	select {
	case p.bufCh <- s:
	default:
		p.metrics.RecordError("pipeline_buffer_full")
	}
	return fmt.Errorf("pipeline downstream: %w", err)
}

func validateSample(s *models.AssetSample) error {
	switch {
	case s == nil:
		return fmt.Errorf("sample nil: %w", models.ErrInvalidArgument)
	case s.AssetID == "":
		return fmt.Errorf("asset empty: %w", models.ErrInvalidArgument)
	case s.Timestamp.IsZero():
		return fmt.Errorf("timestamp missing: %w", models.ErrInvalidArgument)
	case s.Price < 0 || s.Volume < 0:
		return fmt.Errorf("negative price/volume: %w", models.ErrInvalidArgument)
	}
	return nil
}
