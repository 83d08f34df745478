package config

import (
	"fmt"
	"time"

	"github.com/tripseat/service-booking/internal/platform/config"
)

// Ledger modes.
const (
	LedgerModeSQL     = "sql"
	LedgerModeStriped = "striped"
)

// ServiceConfig holds all configuration for the booking service.
type ServiceConfig struct {
	Port                string
	AppEnv              string
	DBConfig            config.DatabaseConfig
	JWTConfig           config.JWTConfig
	KafkaConfig         config.KafkaConfig
	KafkaEnabled        bool
	LedgerMode          string
	LedgerStripes       int
	CompensationTimeout time.Duration
	MigrationsPath      string
}

// Load reads configuration from environment variables.
func Load() (*ServiceConfig, error) {
	v, err := config.Load("BOOKING")
	if err != nil {
		return nil, err
	}

	v.SetDefault("DB_NAME", "booking_db")
	v.SetDefault("KAFKA_ENABLED", true)
	v.SetDefault("LEDGER_MODE", LedgerModeSQL)
	v.SetDefault("LEDGER_STRIPES", 0)
	v.SetDefault("MIGRATIONS_PATH", "migrations")

	cfg := &ServiceConfig{
		Port:                config.GetServicePort(v, "SERVICE_PORT"),
		AppEnv:              config.GetAppEnv(v),
		DBConfig:            config.LoadDatabaseConfig(v, "DB_NAME"),
		JWTConfig:           config.LoadJWTConfig(v),
		KafkaConfig:         config.LoadKafkaConfig(v),
		KafkaEnabled:        v.GetBool("KAFKA_ENABLED"),
		LedgerMode:          v.GetString("LEDGER_MODE"),
		LedgerStripes:       v.GetInt("LEDGER_STRIPES"),
		CompensationTimeout: config.GetDuration(v, "COMPENSATION_TIMEOUT", 5*time.Second),
		MigrationsPath:      v.GetString("MIGRATIONS_PATH"),
	}

	switch cfg.LedgerMode {
	case LedgerModeSQL, LedgerModeStriped:
	default:
		return nil, fmt.Errorf("unknown BOOKING_LEDGER_MODE %q", cfg.LedgerMode)
	}
	return cfg, nil
}
