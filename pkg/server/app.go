package server

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"FxCloud/internal/usecase"
	pkgch "FxCloud/pkg/clickhouse"
	"FxCloud/pkg/config"
	xhttp "FxCloud/pkg/http"
	pkgkafka "FxCloud/pkg/kafka"
	applogger "FxCloud/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	httpServer *xhttp.Server
	chClient   *pkgch.Client
	collector  *usecase.BarCollector
	proc       *usecase.BarProcessor
	consumer   *pkgkafka.Consumer
	kh         pkgkafka.MessageHandler
	closers    []namedCloser
}

type namedCloser struct {
	name string
	c    io.Closer
}

// Option attaches optional components to the App.
type Option func(*App)

// WithIngestion runs the bridge collector; proc is closed on shutdown.
func WithIngestion(collector *usecase.BarCollector, proc *usecase.BarProcessor) Option {
	return func(a *App) {
		a.collector = collector
		a.proc = proc
	}
}

// WithConsumer runs a Kafka consumer with the given handler.
func WithConsumer(consumer *pkgkafka.Consumer, kh pkgkafka.MessageHandler) Option {
	return func(a *App) {
		a.consumer = consumer
		a.kh = kh
	}
}

// WithCloser registers a resource released at the end of shutdown.
func WithCloser(name string, c io.Closer) Option {
	return func(a *App) {
		if c != nil {
			a.closers = append(a.closers, namedCloser{name: name, c: c})
		}
	}
}

// New creates a new App instance with all dependencies.
func New(cfg *config.Config, log *applogger.Logger, httpServer *xhttp.Server, chClient *pkgch.Client, opts ...Option) *App {
	if log == nil {
		log = applogger.Nop()
	}
	a := &App{cfg: cfg, log: log, httpServer: httpServer, chClient: chClient}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext starts every component and blocks until ctx is done.
func (a *App) RunContext(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if a.collector != nil {
		if err := a.collector.Start(runCtx); err != nil {
			// the bridge may come up later; the API still serves stored bars
			a.log.Error("collector start failed", applogger.Error(err))
		} else {
			a.log.Info("collector started",
				applogger.Strings("symbols", a.cfg.Bridge.Symbols),
				applogger.Strings("timeframes", a.cfg.Bridge.Timeframes))
		}
	}

	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		if err := a.consumer.Start(); err != nil {
			a.log.Error("kafka consumer error", applogger.Error(err))
		} else {
			a.log.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
		}
	}

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}

	<-ctx.Done()
	a.log.Info("shutdown signal received")
	cancel()
	return a.shutdown()
}

// shutdown gracefully stops all services.
func (a *App) shutdown() error {
	timeout := a.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	a.log.Info("shutting down...")

	if err := a.httpServer.Stop(ctx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	// collector first so the pipeline flushes into a live backend
	if a.collector != nil {
		if err := a.collector.Shutdown(ctx); err != nil {
			a.log.Warn("collector stop error", applogger.Error(err))
		}
	}
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}
	if a.proc != nil {
		a.proc.Close()
	}

	for _, nc := range a.closers {
		if err := nc.c.Close(); err != nil {
			a.log.Warn("close error", applogger.String("resource", nc.name), applogger.Error(err))
		}
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.log.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
