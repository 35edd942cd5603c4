package position

import (
	"github.com/web3guy0/quantframe/pkg/clock"
	"github.com/web3guy0/quantframe/pkg/decimal"
)

// Account aggregates positions plus a cross-margin summary.
// Positions are lazily created on first non-zero fill and deleted when
// fully closed; Account owns that lifecycle.
type Account struct {
	positions        map[string]*Position
	AccountValue     decimal.Decimal
	TotalRealizedPnL decimal.Decimal
}

// NewAccount creates an empty account.
func NewAccount() *Account {
	return &Account{positions: make(map[string]*Position)}
}

// Position returns the position for coin, if any.
func (a *Account) Position(coin string) (*Position, bool) {
	p, ok := a.positions[coin]
	return p, ok
}

// Positions returns every open position, keyed by coin.
func (a *Account) Positions() map[string]*Position {
	out := make(map[string]*Position, len(a.positions))
	for k, v := range a.positions {
		out[k] = v
	}
	return out
}

// ApplyFill routes a fill for coin to Increase or Decrease depending on
// whether it adds to or reduces the existing position, lazily creating the
// position on first fill and deleting it on full close.
func (a *Account) ApplyFill(coin string, fillSzi, price decimal.Decimal, now clock.Timestamp) (realized decimal.Decimal, err error) {
	pos, exists := a.positions[coin]
	if !exists {
		pos = &Position{Coin: coin, OpenedAt: now}
		a.positions[coin] = pos
	}

	sameSide := pos.Szi.IsZero() || (pos.Szi.IsPositive() == fillSzi.IsPositive())

	if sameSide {
		pos.Increase(fillSzi.Abs(), price, now)
		return decimal.Zero, nil
	}

	realized, err = pos.Decrease(fillSzi.Abs(), price, now)
	if err != nil {
		return decimal.Zero, err
	}
	a.TotalRealizedPnL = a.TotalRealizedPnL.Add(realized)

	if pos.IsClosed() {
		delete(a.positions, coin)
	}
	return realized, nil
}
