package config

import "testing"

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("TICK_INTERVAL_MS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.TickIntervalMs != 1_000 {
		t.Errorf("expected default tick interval 1000ms, got %d", cfg.TickIntervalMs)
	}
	if cfg.OrderTimeoutMs != 60_000 {
		t.Errorf("expected default order timeout 60000ms, got %d", cfg.OrderTimeoutMs)
	}
	if !cfg.ReloadOnTick {
		t.Errorf("expected reload-on-tick to default true")
	}
}

func TestLoadReadsOverrides(t *testing.T) {
	t.Setenv("TICK_INTERVAL_MS", "500")
	t.Setenv("RISK_MAX_OPEN_ORDERS", "10")
	t.Setenv("RISK_MAX_ORDER_SIZE", "25.5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.TickIntervalMs != 500 {
		t.Errorf("expected overridden tick interval 500ms, got %d", cfg.TickIntervalMs)
	}
	if cfg.MaxOpenOrders != 10 {
		t.Errorf("expected overridden max open orders 10, got %d", cfg.MaxOpenOrders)
	}
	if cfg.MaxOrderSize.String() != "25.5" {
		t.Errorf("expected overridden max order size 25.5, got %s", cfg.MaxOrderSize.String())
	}
}
