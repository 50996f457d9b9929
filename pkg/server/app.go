package server

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"CarbonDesk/internal/usecase"
	"CarbonDesk/pkg/config"
	xhttp "CarbonDesk/pkg/http"
	pkgkafka "CarbonDesk/pkg/kafka"
	applogger "CarbonDesk/pkg/logger"
)

// App encapsulates the application lifecycle. Infrastructure clients are
// released by the cleanup returned from DI, not here.
type App struct {
	cfg        *config.Config
	l          *applogger.Logger
	httpServer *xhttp.Server
	collector  *usecase.SampleCollector
	consumer   *pkgkafka.Consumer
	kh         pkgkafka.MessageHandler
}

// New creates an App. collector, consumer and kh are optional.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	httpServer *xhttp.Server,
	collector *usecase.SampleCollector,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
) *App {
	if l == nil {
		l = applogger.Nop()
	}
	return &App{cfg: cfg, l: l, httpServer: httpServer, collector: collector, consumer: consumer, kh: kh}
}

// Run starts every component and blocks until SIGINT/SIGTERM.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext is Run bounded by ctx instead of process signals.
func (a *App) RunContext(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		if err := a.consumer.Start(); err != nil {
			return err
		}
		a.l.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	if a.collector != nil {
		if err := a.collector.Start(runCtx); err != nil {
			// the feed reconnects on its own once running; a failed first dial is not fatal
			a.l.Error("collector start error", applogger.Error(err))
		} else {
			a.l.Info("collector started", applogger.Strings("assets", a.cfg.Feed.Assets))
		}
	}

	if err := a.httpServer.Start(); err != nil {
		a.l.Error("http server start error", applogger.Error(err))
		cancel()
		return errors.Join(err, a.shutdown())
	}
	a.l.Info("carbondesk started",
		applogger.String("env", a.cfg.Environment),
		applogger.String("store", a.cfg.Store.Backend),
		applogger.String("ingest", a.cfg.Ingest.Backend),
	)

	<-ctx.Done()
	a.l.Info("shutdown signal received")
	cancel()
	return a.shutdown()
}

// shutdown stops inbound traffic first, then ingestion.
func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.httpServer.Stop(ctx); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
		errs = append(errs, err)
	}
	if a.collector != nil {
		if err := a.collector.Shutdown(ctx); err != nil {
			a.l.Warn("collector stop error", applogger.Error(err))
		}
	}
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.l.Warn("kafka consumer stop error", applogger.Error(err))
			errs = append(errs, err)
		}
	}
	a.l.Info("shutdown complete")
	return errors.Join(errs...)
}
