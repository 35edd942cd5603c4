// Command quantbot is the live-trading entrypoint: it wires the bus,
// cache, data engine and execution engine into a sync live trading engine,
// attaches the hot-reload pipeline, and runs until a shutdown signal
// arrives.
package main

import (
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/web3guy0/quantframe/internal/logging"
	"github.com/web3guy0/quantframe/pkg/bus"
	"github.com/web3guy0/quantframe/pkg/cache"
	"github.com/web3guy0/quantframe/pkg/config"
	"github.com/web3guy0/quantframe/pkg/dataengine"
	"github.com/web3guy0/quantframe/pkg/dataengine/providers"
	"github.com/web3guy0/quantframe/pkg/execution"
	"github.com/web3guy0/quantframe/pkg/hotreload"
	"github.com/web3guy0/quantframe/pkg/liveengine"
	"github.com/web3guy0/quantframe/pkg/order"
)

func main() {
	pretty := flag.Bool("pretty", true, "use the human-readable console log writer")
	wsURL := flag.String("ws-url", "", "websocket URL for the illustrative market-data provider (empty disables it)")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logging.Init(*pretty, cfg.Debug)
	log.Info().Msg("quantbot starting")

	b := bus.New()
	c := cache.New()
	c.Attach(b)

	dataEngine := dataengine.New(b, c)
	if *wsURL != "" {
		dataEngine.AddProvider(providers.NewWebsocketProvider("primary", *wsURL))
	}

	store := order.NewStore()
	resultStore, err := order.OpenResultStore(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open order history store")
	}
	defer resultStore.Close()

	riskCfg := execution.RiskConfig{
		MinOrderInterval: time.Duration(cfg.MinOrderIntervalMs) * time.Millisecond,
		MaxOrderSize:     cfg.MaxOrderSize,
		MaxOpenOrders:    cfg.MaxOpenOrders,
		AllowedSymbols:   allowedSymbolSet(cfg.AllowedSymbols),
	}
	execEngine := execution.NewEngine(riskCfg, b, store)

	live := liveengine.New(b, c, dataEngine, execEngine)

	manager, _ := wireHotReload(cfg, live)
	if manager != nil {
		manager.Start()
		defer manager.Stop()
	}

	ticker := time.NewTicker(time.Duration(cfg.TickIntervalMs) * time.Millisecond)
	defer ticker.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	if err := live.Start(); err != nil {
		log.Fatal().Err(err).Msg("live engine failed to start")
	}

	log.Info().Msg("quantbot running")

	for {
		select {
		case <-ticker.C:
			live.Tick()
			if report := execEngine.RecoverOrders(); report.Errors > 0 {
				log.Warn().Int("errors", report.Errors).Msg("order recovery sweep reported errors")
			}
			if err := resultStore.Archive(store); err != nil {
				log.Warn().Err(err).Msg("failed to archive order history")
			}
		case <-quit:
			log.Info().Msg("shutdown signal received")
			live.Stop()
			log.Info().Msg("quantbot stopped")
			return
		}
	}
}

// allowedSymbolSet turns a comma-separated env var into the set shape
// execution.RiskConfig expects. An empty string means "all symbols
// allowed".
func allowedSymbolSet(csv string) map[string]bool {
	if csv == "" {
		return nil
	}
	out := make(map[string]bool)
	for _, sym := range strings.Split(csv, ",") {
		if sym = strings.TrimSpace(sym); sym != "" {
			out[sym] = true
		}
	}
	return out
}

// noopStrategyHost is the Reloadable strategy host quantbot wires the
// hot-reload manager to when no concrete strategy is plugged in. Real
// deployments replace this with their own strategy's Reloadable
// implementation.
type noopStrategyHost struct {
	current hotreload.HotReloadConfig
}

func (h *noopStrategyHost) UpdateParams(cfg *hotreload.HotReloadConfig) error {
	h.current = *cfg
	log.Info().Str("strategy", cfg.Strategy).Int("version", cfg.Version).Msg("strategy params reloaded")
	return nil
}

func (h *noopStrategyHost) ValidateParams(cfg *hotreload.HotReloadConfig) error { return nil }

func (h *noopStrategyHost) GetCurrentParams() hotreload.HotReloadConfig { return h.current }

func wireHotReload(cfg *config.Config, live *liveengine.SyncEngine) (*hotreload.Manager, *hotreload.SafeReloadScheduler) {
	if cfg.StrategyConfigPath == "" {
		return nil, nil
	}
	if _, err := os.Stat(cfg.StrategyConfigPath); err != nil {
		log.Warn().Str("path", cfg.StrategyConfigPath).Msg("strategy config file not found, hot-reload disabled")
		return nil, nil
	}

	host := &noopStrategyHost{}
	scheduler := hotreload.NewSafeReloadScheduler(host.UpdateParams)
	live.SetReloadScheduler(scheduler)

	manager := hotreload.NewManager(hotreload.Config{
		Path:           cfg.StrategyConfigPath,
		WatchInterval:  time.Duration(cfg.ReloadWatchMs) * time.Millisecond,
		BackupOnReload: cfg.ReloadBackup,
		ReloadOnTick:   cfg.ReloadOnTick,
	}, host, scheduler)
	return manager, scheduler
}
