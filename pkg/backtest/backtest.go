// Package backtest implements the bar-driven replay Backtest Engine: it
// walks a candle series, invokes the strategy once per bar, and routes the
// resulting order intents through the same simulated fill and position
// accounting as pkg/simulator, collecting an equity curve and trade ledger
// along the way.
package backtest

import (
	"sync/atomic"
	"time"

	"github.com/web3guy0/quantframe/pkg/dataengine"
	"github.com/web3guy0/quantframe/pkg/decimal"
	"github.com/web3guy0/quantframe/pkg/simulator"
)

// Status is the terminal state of a backtest run.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusFailed    Status = "failed"
)

// Config parameterizes one backtest run.
type Config struct {
	Pair           string
	Timeframe      time.Duration
	StartTime      time.Time
	EndTime        time.Time
	InitialCapital decimal.Decimal
	CommissionRate decimal.Decimal
	Slippage       decimal.Decimal
	DataFile       string // optional: where the candle series came from
	ProgressEveryN int    // default 50
}

// Context is handed to the strategy's per-bar callback: the simulated
// executor it routes order intents through, and the current candle.
type Context struct {
	Executor *simulator.Executor
	Bar      dataengine.Bar
	BarIndex int
}

// Strategy is the capability set a backtestable strategy implements: a
// factory is implicit (callers construct a Strategy per ParameterSet before
// calling Run), OnBar drives one candle, OnStart/OnStop bracket the run.
type Strategy interface {
	OnStart(ctx *Context) error
	OnBar(ctx *Context) error
	OnStop(ctx *Context) error
}

// EquityPoint is one sample of the equity curve.
type EquityPoint struct {
	Timestamp time.Time
	Equity    decimal.Decimal
}

// Result is the aggregate output of a run.
type Result struct {
	Config       Config
	Status       Status
	Trades       []simulator.Trade
	EquityCurve  []EquityPoint
	NetProfit    decimal.Decimal
	WinRate      decimal.Decimal
	ProfitFactor decimal.Decimal
	TotalReturn  decimal.Decimal
	MaxDrawdown  decimal.Decimal
	Error        error
}

// ProgressFunc is invoked at a bounded frequency during Run.
type ProgressFunc func(progress float64, currentBar, totalBars int)

// Engine drives one strategy instance over one candle series, backed by the
// simulated executor created in New; repeated Run calls on one Engine share
// that executor's balances, positions and trades.
type Engine struct {
	config       Config
	sim          *simulator.Executor
	shouldCancel atomic.Bool
}

// New creates an Engine seeded with Config.InitialCapital/CommissionRate/
// Slippage.
func New(cfg Config) *Engine {
	if cfg.ProgressEveryN <= 0 {
		cfg.ProgressEveryN = 50
	}
	sim := simulator.NewExecutor(simulator.Config{
		CommissionRate: cfg.CommissionRate,
		Slippage:       cfg.Slippage,
		InitialBalance: cfg.InitialCapital,
	})
	return &Engine{config: cfg, sim: sim}
}

// Cancel requests the run stop at the next bar boundary.
func (e *Engine) Cancel() { e.shouldCancel.Store(true) }

// Run replays bars through strategy, producing a Result.
func (e *Engine) Run(strategy Strategy, bars []dataengine.Bar, onProgress ProgressFunc) Result {
	result := Result{Config: e.config}

	ctx := &Context{Executor: e.sim}
	if err := strategy.OnStart(ctx); err != nil {
		result.Status = StatusFailed
		result.Error = err
		return result
	}

	total := len(bars)
	for i, bar := range bars {
		if e.shouldCancel.Load() {
			result.Status = StatusCancelled
			break
		}

		e.sim.SetLastPrice(bar.Symbol, bar.Close)
		e.sim.ProcessLimitOrders()
		ctx.Bar = bar
		ctx.BarIndex = i

		if err := strategy.OnBar(ctx); err != nil {
			result.Status = StatusFailed
			result.Error = err
			break
		}

		bal, _ := e.sim.GetBalance()
		result.EquityCurve = append(result.EquityCurve, EquityPoint{Timestamp: bar.Timestamp, Equity: bal.Total})

		if onProgress != nil && (i%e.config.ProgressEveryN == 0 || i == total-1) {
			onProgress(float64(i+1)/float64(total), i+1, total)
		}
	}

	if result.Status == "" {
		result.Status = StatusCompleted
	}

	_ = strategy.OnStop(ctx)

	result.Trades = e.sim.Trades()
	e.finalize(&result)
	return result
}

// finalize computes net_profit/win_rate/profit_factor/total_return/
// max_drawdown from the trade ledger and equity curve.
func (e *Engine) finalize(r *Result) {
	netProfit := decimal.Zero
	grossProfit := decimal.Zero
	grossLoss := decimal.Zero
	wins := 0

	for _, t := range r.Trades {
		netProfit = netProfit.Add(t.PnL)
		if t.PnL.IsPositive() {
			grossProfit = grossProfit.Add(t.PnL)
			wins++
		} else if t.PnL.IsNegative() {
			grossLoss = grossLoss.Add(t.PnL.Abs())
		}
	}
	r.NetProfit = netProfit

	if len(r.Trades) > 0 {
		r.WinRate, _ = decimal.NewFromInt(int64(wins)).Div(decimal.NewFromInt(int64(len(r.Trades))))
	}
	if grossLoss.IsPositive() {
		r.ProfitFactor, _ = grossProfit.Div(grossLoss)
	}
	if e.config.InitialCapital.IsPositive() {
		r.TotalReturn, _ = netProfit.Div(e.config.InitialCapital)
	}

	r.MaxDrawdown = maxDrawdown(r.EquityCurve)
}

// maxDrawdown walks the equity curve tracking a running peak.
func maxDrawdown(curve []EquityPoint) decimal.Decimal {
	if len(curve) == 0 {
		return decimal.Zero
	}

	peak := curve[0].Equity
	worst := decimal.Zero

	for _, p := range curve {
		if p.Equity.GreaterThan(peak) {
			peak = p.Equity
		}
		if peak.IsZero() {
			continue
		}
		dd, err := peak.Sub(p.Equity).Div(peak)
		if err != nil {
			continue
		}
		if dd.GreaterThan(worst) {
			worst = dd
		}
	}
	return worst
}
