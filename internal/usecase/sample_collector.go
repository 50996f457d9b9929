package usecase

import (
	"context"

	"CarbonDesk/internal/domain/models"
	drepo "CarbonDesk/internal/domain/repository"
	mid "CarbonDesk/internal/middleware"
	applogger "CarbonDesk/pkg/logger"
)

// SampleCollector pumps the live feed through the ingest pipeline.
type SampleCollector struct {
	stream  drepo.MarketStream
	pipe    *mid.SamplePipeline
	metrics drepo.Metrics
	l       *applogger.Logger
	done    chan struct{}
}

func NewSampleCollector(stream drepo.MarketStream, pipe *mid.SamplePipeline, metrics drepo.Metrics) *SampleCollector {
	return &SampleCollector{stream: stream, pipe: pipe, metrics: metrics, done: make(chan struct{})}
}

// SetLogger injects a structured logger.
func (c *SampleCollector) SetLogger(l *applogger.Logger) { c.l = l }

func (c *SampleCollector) IsConnected() bool { return c.stream.IsConnected() }

func (c *SampleCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	c.pipe.Start(ctx)
	go c.consume(ctx)
	return nil
}

// consume re-reads after every reconnect; it exits when ctx ends.
func (c *SampleCollector) consume(ctx context.Context) {
	defer close(c.done)
	for {
		sCh, errCh := c.stream.Read(ctx)
		c.drain(ctx, sCh, errCh)
		if ctx.Err() != nil {
			return
		}
		for {
			err := c.stream.Reconnect(ctx)
			if err == nil {
				break
			}
			if ctx.Err() != nil {
				return
			}
			c.metrics.RecordError("stream_reconnect")
			if c.l != nil {
				c.l.Warn("feed reconnect failed", applogger.Error(err))
			}
		}
	}
}

func (c *SampleCollector) drain(ctx context.Context, sCh <-chan *models.AssetSample, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errCh:
			if ok && err != nil {
				c.metrics.RecordError("stream")
				if c.l != nil {
					c.l.Warn("feed read failed", applogger.Error(err))
				}
				return
			}
			if !ok {
				errCh = nil
			}
		case s, ok := <-sCh:
			if !ok {
				return
			}
			if s == nil {
				continue
			}
			if err := c.pipe.Process(ctx, s); err != nil && c.l != nil {
				c.l.Debug("sample not ingested", applogger.String("asset", s.AssetID), applogger.Error(err))
			}
			c.metrics.RecordLastPrice(s.AssetID, s.Price)
		}
	}
}

// Shutdown stops the pipeline and closes the stream.
func (c *SampleCollector) Shutdown(ctx context.Context) error {
	c.pipe.Stop()
	err := c.stream.Close()
	select {
	case <-c.done:
	case <-ctx.Done():
	}
	return err
}
