package app

import (
	"github.com/yungbote/checkout-backend/internal/pkg/logger"
	"github.com/yungbote/checkout-backend/internal/utils"
)

type Config struct {
	Port        string
	Environment string
	Version     string

	// EnableShippingSim mounts the stand-in carrier endpoint on the gateway.
	EnableShippingSim bool
	// RequirePostgres makes a failed Postgres init fatal instead of running
	// without the purchase archive.
	RequirePostgres bool
}

func LoadConfig(log *logger.Logger) Config {
	return Config{
		Port:              utils.GetEnv("PORT", "8000", log),
		Environment:       utils.GetEnv("APP_ENV", "development", log),
		Version:           utils.GetEnv("APP_VERSION", "dev", log),
		EnableShippingSim: utils.GetEnv("ENABLE_SHIPPING_SIM", "true", log) == "true",
		RequirePostgres:   utils.GetEnv("REQUIRE_POSTGRES", "false", log) == "true",
	}
}
