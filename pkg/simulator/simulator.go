// Package simulator implements the paper-trading executor and account:
// immediate market fills with slippage and commission, a queued limit-order
// matcher, weighted-average entry accounting, and on-demand trade
// statistics. For a fixed candle sequence and fee configuration the
// resulting account state is fully reproducible.
package simulator

import (
	"math"
	"sync"
	"time"

	"github.com/web3guy0/quantframe/pkg/bus"
	"github.com/web3guy0/quantframe/pkg/clock"
	"github.com/web3guy0/quantframe/pkg/decimal"
	"github.com/web3guy0/quantframe/pkg/execution"
	"github.com/web3guy0/quantframe/pkg/order"
	"github.com/web3guy0/quantframe/pkg/position"
)

// Config configures commission and slippage behavior.
type Config struct {
	CommissionRate decimal.Decimal // fraction of fill notional, e.g. 0.0005
	Slippage       decimal.Decimal // absolute price offset applied against the taker
	InitialBalance decimal.Decimal
}

// pendingLimit is a resting limit order awaiting a marketable price.
type pendingLimit struct {
	clientID string
	req      execution.OrderRequest
}

// Trade is one completed round-trip or partial fill recorded for
// statistics purposes.
type Trade struct {
	Symbol     string
	Side       order.Side
	Quantity   decimal.Decimal
	Price      decimal.Decimal
	Commission decimal.Decimal
	PnL        decimal.Decimal
	Timestamp  time.Time
}

// Executor implements execution.Client against simulated fills instead of
// a real exchange.
type Executor struct {
	mu sync.Mutex

	config Config
	prices map[string]decimal.Decimal // last-known price per symbol

	account *position.Account

	availableBalance decimal.Decimal
	currentBalance   decimal.Decimal

	pendingLimits []pendingLimit
	statuses      map[string]order.Status

	trades      []Trade
	equityMarks []decimal.Decimal

	bus *bus.Bus
}

// NewExecutor creates a simulator seeded with InitialBalance.
func NewExecutor(cfg Config) *Executor {
	return &Executor{
		config:           cfg,
		prices:           make(map[string]decimal.Decimal),
		account:          position.NewAccount(),
		availableBalance: cfg.InitialBalance,
		currentBalance:   cfg.InitialBalance,
		statuses:         make(map[string]order.Status),
	}
}

// AttachBus makes the executor publish each simulated fill on
// paper_trading.trade.
func (e *Executor) AttachBus(b *bus.Bus) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.bus = b
}

// SetLastPrice updates the last-known price used to fill market orders and
// to evaluate resting limit orders.
func (e *Executor) SetLastPrice(symbol string, price decimal.Decimal) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.prices[symbol] = price
}

var _ execution.Client = (*Executor)(nil)

// SubmitOrder fills market orders immediately (with slippage+commission) and
// queues limit orders for ProcessLimitOrders.
func (e *Executor) SubmitOrder(req execution.OrderRequest) (execution.OrderResult, error) {
	e.mu.Lock()

	if req.OrderType == order.TypeLimit {
		e.pendingLimits = append(e.pendingLimits, pendingLimit{clientID: req.ClientOrderID, req: req})
		e.statuses[req.ClientOrderID] = order.StatusOpen
		e.mu.Unlock()
		return execution.OrderResult{
			Success:   true,
			OrderID:   req.ClientOrderID,
			Status:    order.StatusOpen,
			Timestamp: time.Now(),
		}, nil
	}

	last, ok := e.prices[req.Symbol]
	if !ok {
		e.mu.Unlock()
		return execution.OrderResult{Success: false, ErrorMessage: "no last-known price for symbol"}, nil
	}

	fillPrice := e.marketFillPrice(last, req.Side)
	result, trade := e.execute(req, fillPrice)
	b := e.bus
	e.mu.Unlock()

	publishTrade(b, trade)
	return result, nil
}

// marketFillPrice applies slippage against the taker: buyers pay more,
// sellers receive less.
func (e *Executor) marketFillPrice(last decimal.Decimal, side order.Side) decimal.Decimal {
	if side == order.SideBuy {
		return last.Add(e.config.Slippage)
	}
	return last.Sub(e.config.Slippage)
}

// ProcessLimitOrders walks the resting queue and fills any limit order that
// is marketable against the current last-known price: a buy limit is
// marketable at or above market, a sell limit at or below market.
func (e *Executor) ProcessLimitOrders() int {
	e.mu.Lock()

	filled := 0
	remaining := e.pendingLimits[:0]
	var fills []Trade

	for _, pl := range e.pendingLimits {
		last, ok := e.prices[pl.req.Symbol]
		if !ok || pl.req.Price == nil {
			remaining = append(remaining, pl)
			continue
		}

		marketable := (pl.req.Side == order.SideBuy && pl.req.Price.GreaterThanOrEqual(last)) ||
			(pl.req.Side == order.SideSell && pl.req.Price.LessThanOrEqual(last))

		if !marketable {
			remaining = append(remaining, pl)
			continue
		}

		if _, trade := e.execute(pl.req, *pl.req.Price); trade != nil {
			fills = append(fills, *trade)
		}
		filled++
	}

	e.pendingLimits = remaining
	b := e.bus
	e.mu.Unlock()

	for i := range fills {
		publishTrade(b, &fills[i])
	}
	return filled
}

// execute applies a fill at fillPrice to the account and balances,
// returning the recorded trade so the caller can publish it after
// releasing e.mu. Caller must hold e.mu.
func (e *Executor) execute(req execution.OrderRequest, fillPrice decimal.Decimal) (execution.OrderResult, *Trade) {
	notional := fillPrice.Mul(req.Quantity)
	commission := notional.Mul(e.config.CommissionRate)

	szi := req.Quantity
	if req.Side == order.SideSell {
		szi = szi.Neg()
	}

	pos, existed := e.account.Position(req.Symbol)
	opening := !existed || pos.Szi.IsZero() || (pos.Szi.IsPositive() == szi.IsPositive())

	realized, err := e.account.ApplyFill(req.Symbol, szi, fillPrice, clock.Now())
	if err != nil {
		e.statuses[req.ClientOrderID] = order.StatusRejected
		return execution.OrderResult{Success: false, ErrorMessage: err.Error(), Timestamp: time.Now()}, nil
	}

	if opening {
		e.availableBalance = e.availableBalance.Sub(notional).Sub(commission)
	} else {
		proceeds := notional
		e.availableBalance = e.availableBalance.Add(proceeds).Sub(commission)
		e.currentBalance = e.currentBalance.Add(realized)
	}

	e.statuses[req.ClientOrderID] = order.StatusFilled
	e.equityMarks = append(e.equityMarks, e.currentEquity())
	trade := Trade{
		Symbol:     req.Symbol,
		Side:       req.Side,
		Quantity:   req.Quantity,
		Price:      fillPrice,
		Commission: commission,
		PnL:        realized,
		Timestamp:  time.Now(),
	}
	e.trades = append(e.trades, trade)

	return execution.OrderResult{
		Success:        true,
		OrderID:        req.ClientOrderID,
		Status:         order.StatusFilled,
		FilledQuantity: req.Quantity,
		AvgFillPrice:   &fillPrice,
		Timestamp:      time.Now(),
	}, &trade
}

func publishTrade(b *bus.Bus, trade *Trade) {
	if b == nil || trade == nil {
		return
	}
	b.Publish(bus.Opaque{TopicName: bus.TopicPaperTrade, Payload: *trade})
}

func (e *Executor) CancelOrder(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	kept := e.pendingLimits[:0]
	for _, pl := range e.pendingLimits {
		if pl.clientID == id {
			continue
		}
		kept = append(kept, pl)
	}
	e.pendingLimits = kept
	e.statuses[id] = order.StatusCancelled
	return nil
}

func (e *Executor) GetOrderStatus(id string) (*order.Status, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.statuses[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (e *Executor) GetPosition(symbol string) (*execution.PositionInfo, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	pos, ok := e.account.Position(symbol)
	if !ok {
		return nil, nil
	}
	return &execution.PositionInfo{Symbol: symbol, Quantity: pos.Szi, EntryPx: pos.EntryPx}, nil
}

func (e *Executor) GetBalance() (execution.BalanceInfo, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return execution.BalanceInfo{Available: e.availableBalance, Total: e.currentEquity()}, nil
}

// currentEquity returns current balance plus sum of unrealized PnL across
// open positions, marked at the last-known price. Caller must hold e.mu.
func (e *Executor) currentEquity() decimal.Decimal {
	total := e.currentBalance
	for symbol, pos := range e.account.Positions() {
		if last, ok := e.prices[symbol]; ok {
			total = total.Add(pos.UnrealizedPnLAt(last))
		}
	}
	return total
}

// Trades returns a copy of the trade ledger recorded so far, for backtest
// and optimizer reporting.
func (e *Executor) Trades() []Trade {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Trade, len(e.trades))
	copy(out, e.trades)
	return out
}

// Statistics is the on-demand summary of the simulated account's trading
// activity so far.
type Statistics struct {
	TotalTrades     int
	WinningTrades   int
	LosingTrades    int
	WinRate         float64
	AvgWin          decimal.Decimal
	AvgLoss         decimal.Decimal
	ProfitFactor    float64 // +Inf when there are wins but no losses
	MaxDrawdown     float64
	TotalCommission decimal.Decimal
	TotalReturnPct  float64
}

// Statistics derives the account summary from the trade ledger and the
// per-fill equity marks. Ratios are returned as float64 since they feed
// reporting and analysis code, not accounting.
func (e *Executor) Statistics() Statistics {
	e.mu.Lock()
	defer e.mu.Unlock()

	stats := Statistics{TotalTrades: len(e.trades)}
	grossProfit := decimal.Zero
	grossLoss := decimal.Zero

	for _, t := range e.trades {
		stats.TotalCommission = stats.TotalCommission.Add(t.Commission)
		if t.PnL.IsPositive() {
			stats.WinningTrades++
			grossProfit = grossProfit.Add(t.PnL)
		} else if t.PnL.IsNegative() {
			stats.LosingTrades++
			grossLoss = grossLoss.Add(t.PnL.Abs())
		}
	}

	if stats.TotalTrades > 0 {
		stats.WinRate = float64(stats.WinningTrades) / float64(stats.TotalTrades)
	}
	if stats.WinningTrades > 0 {
		avgWin, err := grossProfit.Div(decimal.NewFromInt(int64(stats.WinningTrades)))
		if err == nil {
			stats.AvgWin = avgWin
		}
	}
	if stats.LosingTrades > 0 {
		avgLoss, err := grossLoss.Div(decimal.NewFromInt(int64(stats.LosingTrades)))
		if err == nil {
			stats.AvgLoss = avgLoss
		}
	}
	if grossLoss.IsPositive() {
		stats.ProfitFactor = grossProfit.InexactFloat64() / grossLoss.InexactFloat64()
	} else if grossProfit.IsPositive() {
		stats.ProfitFactor = math.Inf(1)
	}

	stats.MaxDrawdown = maxDrawdownOf(e.equityMarks)

	if e.config.InitialBalance.IsPositive() {
		ret, err := e.currentBalance.Sub(e.config.InitialBalance).Div(e.config.InitialBalance)
		if err == nil {
			stats.TotalReturnPct = ret.InexactFloat64()
		}
	}

	return stats
}

// maxDrawdownOf walks equity marks tracking a running peak.
func maxDrawdownOf(marks []decimal.Decimal) float64 {
	worst := 0.0
	if len(marks) == 0 {
		return worst
	}
	peak := marks[0]
	for _, m := range marks {
		if m.GreaterThan(peak) {
			peak = m
		}
		if peak.IsZero() {
			continue
		}
		dd, err := peak.Sub(m).Div(peak)
		if err != nil {
			continue
		}
		if f := dd.InexactFloat64(); f > worst {
			worst = f
		}
	}
	return worst
}
