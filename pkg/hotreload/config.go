// Package hotreload implements the file-watch -> validate -> schedule ->
// apply pipeline for strategy configs: a background goroutine stats a
// strategy's JSON config file by (mtime, size), and on change hands a
// validated config to a scheduler that defers application until the next
// tick boundary. Watching is plain os.Stat polling on a ticker; the file
// formats in play are small enough that OS-level file events buy nothing
// over a poll.
package hotreload

import (
	"encoding/json"
	"fmt"
)

// ConfigParam is one tunable strategy parameter, bounded by [Min, Max].
type ConfigParam struct {
	Name        string  `json:"name"`
	Value       float64 `json:"value"`
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
	Description string  `json:"description"`
}

// RiskParams is the risk sub-config carried in the reload file.
type RiskParams struct {
	StopLossPct     float64 `json:"stop_loss_pct"`
	TakeProfitPct   float64 `json:"take_profit_pct"`
	MaxPositionSize float64 `json:"max_position_size"`
}

// HotReloadConfig is the JSON document watched and applied by Manager.
type HotReloadConfig struct {
	Strategy string                 `json:"strategy"`
	Version  int                    `json:"version"`
	Params   map[string]ConfigParam `json:"params"`
	Risk     RiskParams             `json:"risk"`
}

// Reloadable is the capability a strategy host implements: apply a
// validated config, run strategy-specific validation, and report the
// currently-applied config for observability.
type Reloadable interface {
	UpdateParams(cfg *HotReloadConfig) error
	ValidateParams(cfg *HotReloadConfig) error
	GetCurrentParams() HotReloadConfig
}

// ParseConfig decodes a hot-reload config document.
func ParseConfig(data []byte) (*HotReloadConfig, error) {
	var cfg HotReloadConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("hotreload: parse config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the structural invariants of a parsed config: every
// param's value lies within its own [min, max], and the risk
// sub-config's fields are positive. Strategy-specific checks are the
// caller's job via Reloadable.ValidateParams.
func Validate(cfg *HotReloadConfig) error {
	for name, p := range cfg.Params {
		if p.Value < p.Min || p.Value > p.Max {
			return fmt.Errorf("hotreload: param %q value %g out of range [%g, %g]", name, p.Value, p.Min, p.Max)
		}
	}
	if cfg.Risk.StopLossPct <= 0 {
		return fmt.Errorf("hotreload: risk.stop_loss_pct must be positive")
	}
	if cfg.Risk.TakeProfitPct <= 0 {
		return fmt.Errorf("hotreload: risk.take_profit_pct must be positive")
	}
	if cfg.Risk.MaxPositionSize <= 0 {
		return fmt.Errorf("hotreload: risk.max_position_size must be positive")
	}
	return nil
}
