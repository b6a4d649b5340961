package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	temporalsdkclient "go.temporal.io/sdk/client"

	"github.com/yungbote/checkout-backend/internal/clients/controlplane"
	"github.com/yungbote/checkout-backend/internal/clients/redisbus"
	"github.com/yungbote/checkout-backend/internal/clients/shipping"
	"github.com/yungbote/checkout-backend/internal/clients/stock"
	"github.com/yungbote/checkout-backend/internal/data/archive"
	"github.com/yungbote/checkout-backend/internal/db"
	"github.com/yungbote/checkout-backend/internal/observability"
	"github.com/yungbote/checkout-backend/internal/pkg/logger"
	"github.com/yungbote/checkout-backend/internal/temporalx"
	"github.com/yungbote/checkout-backend/internal/temporalx/temporalworker"
	"github.com/yungbote/checkout-backend/internal/utils"
)

// WorkerApp is the worker process: it hosts the workflow and activity
// executors plus the optional control-plane heartbeat.
type WorkerApp struct {
	Log *logger.Logger
	Cfg Config

	tc           temporalsdkclient.Client
	runner       *temporalworker.Runner
	bus          redisbus.Publisher
	heartbeat    *controlplane.Client
	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

func NewWorker() (*WorkerApp, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)

	otelShutdown := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: "checkout-worker",
		Environment: cfg.Environment,
		Version:     cfg.Version,
	})

	tc, err := temporalx.NewClient(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init temporal client: %w", err)
	}
	if tc == nil {
		log.Sync()
		return nil, fmt.Errorf("TEMPORAL_ADDRESS is required for the worker")
	}

	bus, err := redisbus.NewPublisher(log)
	if err != nil {
		log.Warn("Redis bus unavailable; transition events disabled", "error", err)
		bus = nil
	}

	var archiveRepo archive.Repo
	pg, err := db.NewPostgresService(log)
	if err != nil {
		if cfg.RequirePostgres {
			tc.Close()
			log.Sync()
			return nil, fmt.Errorf("init postgres: %w", err)
		}
		log.Warn("Postgres unavailable; purchase archive disabled", "error", err)
	} else {
		if err := pg.AutoMigrateAll(); err != nil {
			tc.Close()
			log.Sync()
			return nil, fmt.Errorf("postgres automigrate: %w", err)
		}
		archiveRepo = archive.NewRepo(pg.DB(), log)
	}

	runner, err := temporalworker.NewRunner(
		log,
		tc,
		stock.NewClient(log),
		shipping.NewClient(log),
		bus,
		archiveRepo,
	)
	if err != nil {
		tc.Close()
		log.Sync()
		return nil, err
	}

	return &WorkerApp{
		Log:          log,
		Cfg:          cfg,
		tc:           tc,
		runner:       runner,
		bus:          bus,
		heartbeat:    controlplane.NewClient(log),
		otelShutdown: otelShutdown,
	}, nil
}

// Start brings the worker and heartbeat up and returns. Callers block on
// their own shutdown signal and then Close.
func (w *WorkerApp) Start() error {
	if w == nil || w.runner == nil {
		return fmt.Errorf("worker not initialized")
	}
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel

	if err := w.runner.Start(ctx); err != nil {
		cancel()
		return err
	}

	if w.heartbeat != nil {
		intervalSeconds := utils.GetEnvAsInt("CONTROL_PLANE_HEARTBEAT_SECONDS", 5, w.Log)
		hb := controlplane.Heartbeat{
			TaskQueue: temporalx.LoadConfig().TaskQueue,
			WorkerID:  uuid.New().String(),
			Version:   w.Cfg.Version,
		}
		go w.heartbeat.Run(ctx, hb, time.Duration(intervalSeconds)*time.Second)
	}
	return nil
}

func (w *WorkerApp) Close() {
	if w == nil {
		return
	}
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
	if w.bus != nil {
		_ = w.bus.Close()
		w.bus = nil
	}
	if w.tc != nil {
		w.tc.Close()
		w.tc = nil
	}
	if w.otelShutdown != nil {
		_ = w.otelShutdown(context.Background())
		w.otelShutdown = nil
	}
	if w.Log != nil {
		w.Log.Sync()
	}
}
