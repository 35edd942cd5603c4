// Package position implements the signed-size Position and Account model:
// weighted entry on increase, realized PnL on decrease, signed unrealized
// PnL against a mark price.
package position

import (
	"fmt"

	"github.com/web3guy0/quantframe/pkg/clock"
	"github.com/web3guy0/quantframe/pkg/decimal"
)

// Side is derived from the sign of Szi.
type Side string

const (
	SideBuy   Side = "buy"
	SideSell  Side = "sell"
	SideEmpty Side = "empty"
)

// LeverageType distinguishes margin modes.
type LeverageType string

const (
	LeverageCross    LeverageType = "cross"
	LeverageIsolated LeverageType = "isolated"
)

// Leverage describes a position's margin configuration.
type Leverage struct {
	Type   LeverageType
	Value  decimal.Decimal
	RawUSD decimal.Decimal
}

// Funding tracks accumulated funding payments over different horizons.
type Funding struct {
	AllTime    decimal.Decimal
	SinceChange decimal.Decimal
	SinceOpen  decimal.Decimal
}

// Position is a signed, mark-to-market trading position.
type Position struct {
	Coin           string
	Szi            decimal.Decimal // signed: positive=long, negative=short
	EntryPx        decimal.Decimal
	MarkPrice      *decimal.Decimal
	LiquidationPx  *decimal.Decimal
	Leverage       Leverage
	UnrealizedPnL  decimal.Decimal
	RealizedPnL    decimal.Decimal
	MarginUsed     decimal.Decimal
	PositionValue  decimal.Decimal
	ReturnOnEquity decimal.Decimal
	CumFunding     Funding
	OpenedAt       clock.Timestamp
	UpdatedAt      clock.Timestamp
}

// Side derives the position's side from Szi.
func (p *Position) Side() Side {
	switch {
	case p.Szi.IsPositive():
		return SideBuy
	case p.Szi.IsNegative():
		return SideSell
	default:
		return SideEmpty
	}
}

// ErrInvalidQuantity is returned when a decrease exceeds the open size.
var ErrInvalidQuantity = fmt.Errorf("position: decrease quantity exceeds open size")

// Increase applies an add-to-position fill at price, for quantity qty (> 0),
// recomputing the quantity-weighted entry price.
func (p *Position) Increase(qty, price decimal.Decimal, now clock.Timestamp) {
	absSzi := p.Szi.Abs()
	newAbs := absSzi.Add(qty)

	if newAbs.IsPositive() {
		totalCost := absSzi.Mul(p.EntryPx).Add(qty.Mul(price))
		entry, err := totalCost.Div(newAbs)
		if err == nil {
			p.EntryPx = entry
		}
	}

	if p.Szi.IsNegative() {
		p.Szi = p.Szi.Sub(qty)
	} else {
		p.Szi = p.Szi.Add(qty)
	}
	p.UpdatedAt = now
}

// Decrease applies a reduce-position fill at closePrice for quantity qty
// (> 0, <= |Szi|), realizing PnL. On full close, entry/unrealized/
// position_value reset to zero.
func (p *Position) Decrease(qty, closePrice decimal.Decimal, now clock.Timestamp) (realized decimal.Decimal, err error) {
	absSzi := p.Szi.Abs()
	if qty.GreaterThan(absSzi) {
		return decimal.Zero, ErrInvalidQuantity
	}

	sign := decimal.NewFromInt(int64(p.Szi.Sign()))
	realized = closePrice.Sub(p.EntryPx).Mul(qty).Mul(sign)
	p.RealizedPnL = p.RealizedPnL.Add(realized)

	if p.Szi.IsNegative() {
		p.Szi = p.Szi.Add(qty)
	} else {
		p.Szi = p.Szi.Sub(qty)
	}
	p.UpdatedAt = now

	if p.Szi.IsZero() {
		p.EntryPx = decimal.Zero
		p.UnrealizedPnL = decimal.Zero
		p.PositionValue = decimal.Zero
	}

	return realized, nil
}

// UnrealizedPnLAt computes unrealized PnL against mark. The signed
// multiplication by Szi preserves long/short asymmetry without a branch.
func (p *Position) UnrealizedPnLAt(mark decimal.Decimal) decimal.Decimal {
	return mark.Sub(p.EntryPx).Mul(p.Szi)
}

// MarkTo recomputes UnrealizedPnL and MarkPrice in place.
func (p *Position) MarkTo(mark decimal.Decimal) {
	p.MarkPrice = &mark
	p.UnrealizedPnL = p.UnrealizedPnLAt(mark)
}

// IsClosed reports whether the position has zero size (eligible for
// deletion from an owning Account's map).
func (p *Position) IsClosed() bool {
	return p.Szi.IsZero()
}
