// Package order implements the Order type and the dual-indexed,
// active/history-partitioned Order Store.
package order

import (
	"fmt"

	"github.com/web3guy0/quantframe/pkg/clock"
	"github.com/web3guy0/quantframe/pkg/decimal"
)

// Side is the direction of an order.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Type is the order's matching instruction.
type Type string

const (
	TypeMarket Type = "market"
	TypeLimit  Type = "limit"
)

// Status is a position in the order's lifecycle lattice:
//
//	pending -> open -> partially_filled -> filled | cancelled | rejected
type Status string

const (
	StatusPending         Status = "pending"
	StatusOpen            Status = "open"
	StatusPartiallyFilled Status = "partially_filled"
	StatusFilled          Status = "filled"
	StatusCancelled       Status = "cancelled"
	StatusRejected        Status = "rejected"
)

// IsFinal reports whether status is one from which no further transition is
// allowed.
func (s Status) IsFinal() bool {
	switch s {
	case StatusFilled, StatusCancelled, StatusRejected:
		return true
	default:
		return false
	}
}

// IsCancellable reports whether an order in this status can be cancelled.
func (s Status) IsCancellable() bool {
	switch s {
	case StatusPending, StatusOpen, StatusPartiallyFilled:
		return true
	default:
		return false
	}
}

// Pair identifies a tradable instrument.
type Pair struct {
	Base  string
	Quote string
}

func (p Pair) String() string { return p.Base + "-" + p.Quote }

// Order is the system's order record.
type Order struct {
	Pair            Pair
	Side            Side
	OrderType       Type
	Amount          decimal.Decimal
	Price           *decimal.Decimal // nil unless OrderType == TypeLimit
	Status          Status
	ClientOrderID   string
	ExchangeOrderID *uint64
	FilledAmount    decimal.Decimal
	AvgFillPrice    *decimal.Decimal
	CreatedAt       clock.Timestamp
	UpdatedAt       clock.Timestamp
}

// ApplyFill folds one more fill into the order. The filled amount never
// exceeds Amount, and AvgFillPrice stays the quantity-weighted mean over
// all contributing fills.
func (o *Order) ApplyFill(qty, price decimal.Decimal, now clock.Timestamp) error {
	newFilled := o.FilledAmount.Add(qty)
	if newFilled.GreaterThan(o.Amount) {
		return fmt.Errorf("order %s: fill %s would exceed amount %s", o.ClientOrderID, qty, o.Amount)
	}

	priorNotional := decimal.Zero
	if o.AvgFillPrice != nil {
		priorNotional = o.AvgFillPrice.Mul(o.FilledAmount)
	}
	totalNotional := priorNotional.Add(price.Mul(qty))

	avg, err := totalNotional.Div(newFilled)
	if err != nil {
		avg = price
	}

	o.FilledAmount = newFilled
	o.AvgFillPrice = &avg
	o.UpdatedAt = now

	switch {
	case o.FilledAmount.Equal(o.Amount):
		o.Status = StatusFilled
	case o.FilledAmount.IsPositive():
		o.Status = StatusPartiallyFilled
	}

	return nil
}

// View returns a read-only snapshot suitable for bus events.
func (o *Order) View() (symbol, side, status, filled, avgFill string, exchangeID uint64) {
	symbol = o.Pair.String()
	side = string(o.Side)
	status = string(o.Status)
	filled = o.FilledAmount.String()
	if o.AvgFillPrice != nil {
		avgFill = o.AvgFillPrice.String()
	}
	if o.ExchangeOrderID != nil {
		exchangeID = *o.ExchangeOrderID
	}
	return
}
