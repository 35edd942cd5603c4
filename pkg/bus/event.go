package bus

import "github.com/web3guy0/quantframe/pkg/clock"

// Event is the tagged-variant contract every bus payload satisfies.
type Event interface {
	Topic() string
}

// Stable bus topics.
const (
	TopicOrderSubmitted              = "order.submitted"
	TopicOrderRejected               = "order.rejected"
	TopicOrderCancelled              = "order.cancelled"
	TopicOrderUpdated                = "order.updated"
	TopicOrderFilled                 = "order.filled"
	TopicSystemTick                  = "system.tick"
	TopicSystemHeartbeat             = "system.heartbeat"
	TopicLiveEngineStarted           = "live_engine.started"
	TopicLiveEngineStopped           = "live_engine.stopped"
	TopicExecutionEngineStarted      = "execution_engine.started"
	TopicExecutionEngineStopped      = "execution_engine.stopped"
	TopicExecutionEngineRecovery     = "execution_engine.recovery_complete"
	TopicExecutionEngineTimeoutCheck = "execution_engine.timeout_check"
	TopicPaperTrade                  = "paper_trading.trade"
	TopicSystemShutdown              = "system.shutdown"
	TopicMarketTicker                = "market.ticker"
	TopicMarketOrderBook             = "market.orderbook"
	TopicMarketTrade                 = "market.trade"
)

// Tick marks one step of the engine's clock.
type Tick struct {
	Timestamp  clock.Timestamp
	TickNumber uint64
}

func (Tick) Topic() string { return TopicSystemTick }

// Shutdown carries the reason an engine is stopping.
type Shutdown struct {
	Reason  string
	Message string
}

func (Shutdown) Topic() string { return TopicSystemShutdown }

// OrderView is the read-only order snapshot published with order events.
type OrderView struct {
	ClientOrderID  string
	ExchangeOrderID uint64
	Symbol         string
	Side           string
	Status         string
	FilledAmount   string
	AvgFillPrice   string
}

// OrderSubmitted is published when an order is accepted by the client.
type OrderSubmitted struct {
	Order OrderView
}

func (OrderSubmitted) Topic() string { return TopicOrderSubmitted }

// OrderRejected is published when risk or the client rejects an order.
type OrderRejected struct {
	Order  OrderView
	Reason string
}

func (OrderRejected) Topic() string { return TopicOrderRejected }

// OrderCancelled is published when an order is cancelled. The symbol is
// captured from the order snapshot before it leaves the active partition,
// so subscribers always see which instrument the cancel belonged to.
type OrderCancelled struct {
	Order OrderView
}

func (OrderCancelled) Topic() string { return TopicOrderCancelled }

// OrderUpdated is published whenever an order's state mutates without
// reaching a final status (e.g. partial fill, exchange-id assignment).
type OrderUpdated struct {
	Order OrderView
}

func (OrderUpdated) Topic() string { return TopicOrderUpdated }

// OrderFilled is published when an order reaches the Filled status.
type OrderFilled struct {
	Order OrderView
}

func (OrderFilled) Topic() string { return TopicOrderFilled }

// Opaque wraps market-data events the Data Engine normalizes onto arbitrary
// topic strings, without requiring bus to know their concrete shape.
type Opaque struct {
	TopicName string
	Payload   any
}

func (o Opaque) Topic() string { return o.TopicName }
