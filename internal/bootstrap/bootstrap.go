package bootstrap

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/mvolochek/docsign-gateway/internal/config"
	"github.com/mvolochek/docsign-gateway/internal/core/ports"
	"github.com/mvolochek/docsign-gateway/internal/core/store"
	"github.com/mvolochek/docsign-gateway/internal/infrastructure/backend/docstore"
	natsevents "github.com/mvolochek/docsign-gateway/internal/infrastructure/events/nats"
	"github.com/mvolochek/docsign-gateway/internal/infrastructure/resilience"
	"github.com/mvolochek/docsign-gateway/internal/infrastructure/staging/localfs"
	"github.com/mvolochek/docsign-gateway/internal/observability/logging"
	"github.com/mvolochek/docsign-gateway/internal/observability/metrics"
)

const ServiceName = "docsign-gateway"

type App struct {
	Config config.Config
	Logger *slog.Logger

	Lifecycle ports.DocumentLifecycle
	Metrics   *metrics.ServerMetrics

	closeFn func()
}

func New(cfg config.Config) (*App, error) {
	logger := logging.NewJSONLogger(ServiceName, cfg.LogLevel)

	staging, err := localfs.New(cfg.StagingPath)
	if err != nil {
		return nil, fmt.Errorf("init staging store: %w", err)
	}

	guard := resilience.New(resilience.Config{
		BreakerEnabled:          cfg.BreakerEnabled,
		BreakerMinRequests:      uint32(cfg.BreakerMinRequests),
		BreakerFailureRatio:     cfg.BreakerFailureRatio,
		BreakerOpenTimeout:      time.Duration(cfg.BreakerOpenTimeoutSecs) * time.Second,
		BreakerHalfOpenMaxCalls: uint32(cfg.BreakerHalfOpenMaxCalls),
	})
	backend := docstore.New(cfg.BackendBaseURL, time.Duration(cfg.BackendTimeoutSeconds)*time.Second, guard)

	var events ports.EventPublisher
	var publisher *natsevents.Publisher
	if cfg.NATSEnabled {
		publisher, err = natsevents.New(cfg.NATSURL, cfg.NATSSubject)
		if err != nil {
			return nil, fmt.Errorf("init event publisher: %w", err)
		}
		events = publisher
	}

	lifecycle := store.New(backend, staging, events, logger, int64(cfg.MaxUploadBytes))

	return &App{
		Config:    cfg,
		Logger:    logger,
		Lifecycle: lifecycle,
		Metrics:   metrics.NewServerMetrics(ServiceName),

		closeFn: func() {
			if publisher != nil {
				publisher.Close()
			}
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
