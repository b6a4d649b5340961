package app

import (
	"context"
	"fmt"
	"os"

	temporalsdkclient "go.temporal.io/sdk/client"

	"github.com/yungbote/checkout-backend/internal/data/archive"
	"github.com/yungbote/checkout-backend/internal/db"
	checkouthttp "github.com/yungbote/checkout-backend/internal/http"
	"github.com/yungbote/checkout-backend/internal/http/handlers"
	"github.com/yungbote/checkout-backend/internal/observability"
	"github.com/yungbote/checkout-backend/internal/pkg/logger"
	"github.com/yungbote/checkout-backend/internal/services"
	"github.com/yungbote/checkout-backend/internal/temporalx"
)

// App is the gateway process: the HTTP surface in front of the purchase
// lifecycle instances.
type App struct {
	Log    *logger.Logger
	Cfg    Config
	Server *checkouthttp.Server

	tc           temporalsdkclient.Client
	otelShutdown func(context.Context) error
}

func New() (*App, error) {
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
		ServiceName: "checkout-gateway",
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
		return nil, fmt.Errorf("TEMPORAL_ADDRESS is required for the gateway")
	}

	// The purchase archive is served straight from Postgres; the gateway can
	// run without it, degrading only the archive endpoint.
	var archiveRepo archive.Repo
	pg, err := db.NewPostgresService(log)
	if err != nil {
		if cfg.RequirePostgres {
			tc.Close()
			log.Sync()
			return nil, fmt.Errorf("init postgres: %w", err)
		}
		log.Warn("Postgres unavailable; archive endpoint disabled", "error", err)
	} else {
		if err := pg.AutoMigrateAll(); err != nil {
			tc.Close()
			log.Sync()
			return nil, fmt.Errorf("postgres automigrate: %w", err)
		}
		archiveRepo = archive.NewRepo(pg.DB(), log)
	}

	purchaseService, err := services.NewPurchaseService(log, tc)
	if err != nil {
		tc.Close()
		log.Sync()
		return nil, err
	}
	fleetService, err := services.NewFleetService(log, tc)
	if err != nil {
		tc.Close()
		log.Sync()
		return nil, err
	}

	routerCfg := checkouthttp.RouterConfig{
		Log:             log,
		ServiceName:     "checkout-gateway",
		PurchaseHandler: handlers.NewPurchaseHandler(purchaseService),
		FleetHandler:    handlers.NewFleetHandler(fleetService, archiveRepo),
		HealthHandler:   handlers.NewHealthHandler(),
	}
	if cfg.EnableShippingSim {
		routerCfg.ShippingSimHandler = handlers.NewShippingSimHandler(log)
	}

	return &App{
		Log:          log,
		Cfg:          cfg,
		Server:       checkouthttp.NewServer(routerCfg),
		tc:           tc,
		otelShutdown: otelShutdown,
	}, nil
}

func (a *App) Run() error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Log.Info("Gateway listening", "port", a.Cfg.Port)
	return a.Server.Run(":" + a.Cfg.Port)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.tc != nil {
		a.tc.Close()
		a.tc = nil
	}
	if a.otelShutdown != nil {
		_ = a.otelShutdown(context.Background())
		a.otelShutdown = nil
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
