package execution

import (
	"sync"
	"time"

	"github.com/web3guy0/quantframe/pkg/decimal"
)

// RiskConfig is the pre-trade gate's configuration.
// Checks are enforced in the order the fields are listed here.
type RiskConfig struct {
	MinOrderInterval time.Duration
	MaxOrderSize     decimal.Decimal
	MaxOpenOrders    int
	AllowedSymbols   map[string]bool // nil/empty means "all symbols allowed"
}

// riskGate enforces RiskConfig against the engine's live state. It is a
// pre-trade gate, not a risk-management subsystem: order interval, order
// size, open-order count and symbol allowlist, checked in that order.
// Position sizing and strategy-level filters belong to the strategy.
type riskGate struct {
	mu            sync.Mutex
	config        RiskConfig
	lastOrderTime time.Time
}

func newRiskGate(cfg RiskConfig) *riskGate {
	return &riskGate{config: cfg}
}

// check enforces, in order: min_order_interval_ms, max_order_size,
// max_open_orders, allowed_symbols.
func (g *riskGate) check(req OrderRequest, openOrderCount int, now time.Time) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.config.MinOrderInterval > 0 && !g.lastOrderTime.IsZero() {
		if now.Sub(g.lastOrderTime) < g.config.MinOrderInterval {
			return ErrRiskLimitExceeded
		}
	}

	if g.config.MaxOrderSize.IsPositive() && req.Quantity.GreaterThan(g.config.MaxOrderSize) {
		return ErrRiskLimitExceeded
	}

	if g.config.MaxOpenOrders > 0 && openOrderCount >= g.config.MaxOpenOrders {
		return ErrRiskLimitExceeded
	}

	if len(g.config.AllowedSymbols) > 0 && !g.config.AllowedSymbols[req.Symbol] {
		return ErrRiskLimitExceeded
	}

	return nil
}

func (g *riskGate) recordOrder(now time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lastOrderTime = now
}
