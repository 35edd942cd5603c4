// Package config loads engine-wide settings from the process environment:
// typed getEnv* helpers with defaults, godotenv loaded by the caller
// (cmd/* mains) before Load runs. This is distinct from the per-strategy JSON config
// watched by pkg/hotreload -- env vars seed the process, the JSON
// file seeds the reloadable strategy.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/web3guy0/quantframe/pkg/decimal"
)

// Config is the process-wide configuration for a quantframe binary
// (cmd/quantbot, cmd/backtest).
type Config struct {
	Debug bool

	// Risk gate.
	MinOrderIntervalMs int64
	MaxOrderSize       decimal.Decimal
	MaxOpenOrders      int
	AllowedSymbols     string // comma-separated; empty means "all symbols allowed"

	// Timeout sweep.
	OrderTimeoutMs  int64
	OrderAutoCancel bool

	// Live engine cadence.
	TickIntervalMs      int64
	HeartbeatIntervalMs int64

	// Hot-reload.
	StrategyConfigPath string
	ReloadWatchMs      int64
	ReloadBackup       bool
	ReloadOnTick       bool

	// Persistence (optional GORM-backed archival, see pkg/order/persistence.go).
	DatabasePath string

	// Data / backtest inputs.
	DataFilePath string
}

// Load reads Config from the environment with documented defaults. Callers
// load a .env file with godotenv before calling Load.
func Load() (*Config, error) {
	cfg := &Config{
		Debug: getEnvBool("DEBUG", false),

		MinOrderIntervalMs: getEnvInt64("RISK_MIN_ORDER_INTERVAL_MS", 0),
		MaxOrderSize:       getEnvDecimal("RISK_MAX_ORDER_SIZE", decimal.Zero),
		MaxOpenOrders:      getEnvInt("RISK_MAX_OPEN_ORDERS", 0),
		AllowedSymbols:     getEnv("RISK_ALLOWED_SYMBOLS", ""),

		OrderTimeoutMs:  getEnvInt64("ORDER_TIMEOUT_MS", 60_000),
		OrderAutoCancel: getEnvBool("ORDER_AUTO_CANCEL", true),

		TickIntervalMs:      getEnvInt64("TICK_INTERVAL_MS", 1_000),
		HeartbeatIntervalMs: getEnvInt64("HEARTBEAT_INTERVAL_MS", 30_000),

		StrategyConfigPath: getEnv("STRATEGY_CONFIG_PATH", "config/strategy.json"),
		ReloadWatchMs:      getEnvInt64("RELOAD_WATCH_MS", 2_000),
		ReloadBackup:       getEnvBool("RELOAD_BACKUP", true),
		ReloadOnTick:       getEnvBool("RELOAD_ON_TICK", true),

		DatabasePath: getEnv("DATABASE_PATH", "data/quantframe.db"),
		DataFilePath: getEnv("DATA_FILE_PATH", ""),
	}

	if cfg.TickIntervalMs <= 0 {
		return nil, fmt.Errorf("config: TICK_INTERVAL_MS must be positive")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		return v == "true" || v == "1" || v == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	if v := os.Getenv(key); v != "" {
		if d, err := decimal.Parse(v); err == nil {
			return d
		}
	}
	return defaultValue
}
