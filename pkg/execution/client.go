// Package execution implements the order submission / risk-gate / order
// lifecycle state machine, plus the execution-client contract that both
// live and simulated executors satisfy.
package execution

import (
	"time"

	"github.com/web3guy0/quantframe/pkg/decimal"
	"github.com/web3guy0/quantframe/pkg/order"
)

// TimeInForce constrains how long an order rests on the book.
type TimeInForce string

const (
	TimeInForceGTC TimeInForce = "gtc"
	TimeInForceIOC TimeInForce = "ioc"
	TimeInForceFOK TimeInForce = "fok"
)

// OrderRequest is the outbound order submission contract.
type OrderRequest struct {
	ClientOrderID string
	Symbol        string
	Side          order.Side
	OrderType     order.Type
	Quantity      decimal.Decimal
	Price         *decimal.Decimal // required when OrderType == TypeLimit
	StopPrice     *decimal.Decimal
	TimeInForce   TimeInForce
	ReduceOnly    bool
	PostOnly      bool
}

// DefaultOrderRequest fills in the request defaults (GTC, no flags).
func DefaultOrderRequest() OrderRequest {
	return OrderRequest{TimeInForce: TimeInForceGTC}
}

// OrderResult is the outbound order submission response contract.
// Remote failures are carried as data here, never as a Go error from the
// client -- risk/accounting code stays in one flow.
type OrderResult struct {
	Success         bool
	OrderID         string
	ExchangeOrderID *uint64
	Status          order.Status
	FilledQuantity  decimal.Decimal
	AvgFillPrice    *decimal.Decimal
	ErrorCode       uint32
	ErrorMessage    string
	Timestamp       time.Time
}

// PositionInfo is the execution client's view of an open position.
type PositionInfo struct {
	Symbol   string
	Quantity decimal.Decimal
	EntryPx  decimal.Decimal
}

// BalanceInfo is the execution client's view of account balance.
type BalanceInfo struct {
	Available decimal.Decimal
	Total     decimal.Decimal
}

// Client is the execution-client capability every backend (real exchange or
// paper-trading simulator) implements. Implementations are
// expected to be blocking but fast.
type Client interface {
	SubmitOrder(req OrderRequest) (OrderResult, error)
	CancelOrder(id string) error
	GetOrderStatus(id string) (*order.Status, error)
	GetPosition(symbol string) (*PositionInfo, error)
	GetBalance() (BalanceInfo, error)
}
