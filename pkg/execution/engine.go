package execution

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/web3guy0/quantframe/pkg/bus"
	"github.com/web3guy0/quantframe/pkg/clock"
	"github.com/web3guy0/quantframe/pkg/order"
)

// State is the engine's lifecycle state.
type State int

const (
	StateStopped State = iota
	StateRunning
	StatePaused
)

// RecoveryReport is returned by RecoverOrders.
type RecoveryReport struct {
	Checked    int
	Updated    int
	Closed     int
	Errors     int
	DurationMs int64
}

// TimeoutReport is returned by CheckTimeoutOrders.
type TimeoutReport struct {
	TimeoutOrders   int
	OrdersCancelled int
	CancelErrors    int
}

// TimeoutConfig configures the timeout sweep.
type TimeoutConfig struct {
	TimeoutMs  int64
	AutoCancel bool
}

// Engine is the order submission / risk-gate / lifecycle state machine.
// It owns the pending order map and the submission counters, keeps active
// orders in the shared order.Store, and
// delegates actual execution to whichever Client it was started with.
type Engine struct {
	mu sync.Mutex

	state  State
	client Client
	risk   *riskGate
	bus    *bus.Bus
	store  *order.Store

	pendingOrders map[string]*order.Order

	rejected  int64
	cancelled int64
}

// NewEngine creates a stopped engine. Call SetClient and Start before
// submitting orders.
func NewEngine(riskCfg RiskConfig, b *bus.Bus, store *order.Store) *Engine {
	return &Engine{
		state:         StateStopped,
		risk:          newRiskGate(riskCfg),
		bus:           b,
		store:         store,
		pendingOrders: make(map[string]*order.Order),
	}
}

// SetClient installs the execution client. Must be called before Start.
func (e *Engine) SetClient(c Client) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.client = c
}

// Start transitions stopped -> running. Requires a client to be set.
func (e *Engine) Start() error {
	e.mu.Lock()
	if e.client == nil {
		e.mu.Unlock()
		return ErrNoClient
	}
	if e.state == StateRunning {
		e.mu.Unlock()
		return nil
	}
	e.state = StateRunning
	e.mu.Unlock()

	e.bus.Publish(bus.Opaque{TopicName: bus.TopicExecutionEngineStarted, Payload: nil})
	log.Info().Msg("execution engine started")
	return nil
}

// Pause transitions running -> paused.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateRunning {
		e.state = StatePaused
	}
}

// Resume transitions paused -> running.
func (e *Engine) Resume() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StatePaused {
		e.state = StateRunning
	}
}

// Stop transitions any state -> stopped.
func (e *Engine) Stop() {
	e.mu.Lock()
	e.state = StateStopped
	e.mu.Unlock()

	e.bus.Publish(bus.Opaque{TopicName: bus.TopicExecutionEngineStopped, Payload: nil})
	log.Info().Msg("execution engine stopped")
}

func (e *Engine) running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state == StateRunning
}

// SubmitOrder runs the full submission flow: risk gate, pending insertion,
// client delegation, active migration, bus publication. A missing
// ClientOrderID is filled in with a fresh UUID.
func (e *Engine) SubmitOrder(req OrderRequest) (OrderResult, error) {
	if !e.running() || e.client == nil {
		return OrderResult{Success: false, ErrorMessage: ErrNotRunning.Error()}, nil
	}

	if req.ClientOrderID == "" {
		req.ClientOrderID = uuid.NewString()
	}

	e.mu.Lock()
	openCount := len(e.pendingOrders) + len(e.store.Active())
	if err := e.risk.check(req, openCount, time.Now()); err != nil {
		e.mu.Unlock()
		return OrderResult{Success: false, ErrorMessage: err.Error()}, nil
	}

	if _, exists := e.pendingOrders[req.ClientOrderID]; exists {
		e.mu.Unlock()
		return OrderResult{Success: false, ErrorMessage: "Duplicate order ID"}, nil
	}
	if _, exists := e.store.GetByClientID(req.ClientOrderID); exists {
		e.mu.Unlock()
		return OrderResult{Success: false, ErrorMessage: "Duplicate order ID"}, nil
	}

	now := clock.Now()
	o := &order.Order{
		Pair:          pairFromSymbol(req.Symbol),
		Side:          req.Side,
		OrderType:     req.OrderType,
		Amount:        req.Quantity,
		Price:         req.Price,
		Status:        order.StatusPending,
		ClientOrderID: req.ClientOrderID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	e.pendingOrders[req.ClientOrderID] = o
	e.mu.Unlock()

	result, err := e.client.SubmitOrder(req)

	e.mu.Lock()
	delete(e.pendingOrders, req.ClientOrderID)

	if err != nil || !result.Success {
		e.rejected++
		e.mu.Unlock()

		msg := result.ErrorMessage
		if err != nil {
			msg = err.Error()
		}
		e.bus.Publish(bus.OrderRejected{
			Order:  bus.OrderView{ClientOrderID: req.ClientOrderID, Symbol: req.Symbol, Side: string(req.Side), Status: string(order.StatusRejected)},
			Reason: msg,
		})
		return result, nil
	}

	o.Status = result.Status
	o.FilledAmount = result.FilledQuantity
	o.AvgFillPrice = result.AvgFillPrice
	o.ExchangeOrderID = result.ExchangeOrderID
	if err := e.store.Add(o); err != nil {
		e.mu.Unlock()
		return result, err
	}
	e.risk.recordOrder(time.Now())
	e.mu.Unlock()

	e.bus.Publish(bus.OrderSubmitted{Order: orderView(o)})
	return result, nil
}

// CancelOrder cancels an active order by client id. Idempotent: cancelling
// an order that isn't present raises no error.
func (e *Engine) CancelOrder(clientID string) error {
	if e.client == nil {
		return ErrNoClient
	}

	o, found := e.store.GetByClientID(clientID)

	if err := e.client.CancelOrder(clientID); err != nil {
		return err
	}

	e.mu.Lock()
	e.cancelled++
	e.mu.Unlock()

	view := bus.OrderView{ClientOrderID: clientID}
	if found {
		o.Status = order.StatusCancelled
		_ = e.store.Update(clientID)
		view = orderView(o)
	}
	e.bus.Publish(bus.OrderCancelled{Order: view})
	return nil
}

// CancelAllOrders snapshots active order ids and cancels each best-effort,
// returning the number attempted.
func (e *Engine) CancelAllOrders() int {
	active := e.store.Active()
	for _, o := range active {
		if err := e.CancelOrder(o.ClientOrderID); err != nil {
			log.Warn().Err(err).Str("client_order_id", o.ClientOrderID).Msg("cancel failed during cancel-all sweep")
		}
	}
	return len(active)
}

// RecoverOrders polls the client for the status of every active order and
// migrates any that have reached a final state.
func (e *Engine) RecoverOrders() RecoveryReport {
	start := time.Now()
	report := RecoveryReport{}

	for _, o := range e.store.Active() {
		report.Checked++
		status, err := e.client.GetOrderStatus(o.ClientOrderID)
		if err != nil {
			report.Errors++
			continue
		}
		if status == nil {
			continue
		}
		if *status != o.Status {
			o.Status = *status
			report.Updated++
		}
		if status.IsFinal() {
			_ = e.store.Update(o.ClientOrderID)
			report.Closed++
		}
	}

	report.DurationMs = time.Since(start).Milliseconds()
	e.bus.Publish(bus.Opaque{TopicName: bus.TopicExecutionEngineRecovery, Payload: report})
	return report
}

// CheckTimeoutOrders sweeps active orders for age > cfg.TimeoutMs,
// optionally auto-cancelling them.
func (e *Engine) CheckTimeoutOrders(cfg TimeoutConfig) TimeoutReport {
	report := TimeoutReport{}
	now := time.Now()

	for _, o := range e.store.Active() {
		age := now.Sub(o.CreatedAt.Time())
		if age.Milliseconds() <= cfg.TimeoutMs {
			continue
		}
		report.TimeoutOrders++
		if cfg.AutoCancel {
			if err := e.CancelOrder(o.ClientOrderID); err != nil {
				report.CancelErrors++
			} else {
				report.OrdersCancelled++
			}
		}
	}

	e.bus.Publish(bus.Opaque{TopicName: bus.TopicExecutionEngineTimeoutCheck, Payload: report})
	return report
}

// Stats returns rejected/cancelled counters.
func (e *Engine) Stats() (rejected, cancelled int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rejected, e.cancelled
}

func orderView(o *order.Order) bus.OrderView {
	symbol, side, status, filled, avgFill, exchangeID := o.View()
	return bus.OrderView{
		ClientOrderID:   o.ClientOrderID,
		ExchangeOrderID: exchangeID,
		Symbol:          symbol,
		Side:            side,
		Status:          status,
		FilledAmount:    filled,
		AvgFillPrice:    avgFill,
	}
}

func pairFromSymbol(symbol string) order.Pair {
	for i := 0; i < len(symbol); i++ {
		if symbol[i] == '-' || symbol[i] == '/' {
			return order.Pair{Base: symbol[:i], Quote: symbol[i+1:]}
		}
	}
	return order.Pair{Base: symbol}
}
