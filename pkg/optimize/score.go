package optimize

import (
	"math"
	"sort"

	"github.com/web3guy0/quantframe/pkg/backtest"
)

// score maps a backtest.Result to a scalar under objective. minimize_*
// variants negate the underlying maximize metric.
//
// Several objectives (sortino/calmar/omega/tail/stability/risk_adjusted)
// need per-trade or per-bar return series the core backtest.Result does
// not carry on its own; they are derived here from the equity curve,
// which is the only series every run is guaranteed to produce.
func score(objective Objective, r backtest.Result, custom func(backtest.Result) float64) float64 {
	switch objective {
	case ObjectiveMaximizeSharpe:
		return sharpeRatio(r)
	case ObjectiveMaximizeProfitFactor:
		if r.ProfitFactor.IsZero() && r.NetProfit.IsPositive() {
			return math.Inf(1) // wins and no losses
		}
		return r.ProfitFactor.InexactFloat64()
	case ObjectiveMaximizeWinRate:
		return r.WinRate.InexactFloat64()
	case ObjectiveMinimizeMaxDrawdown:
		return -r.MaxDrawdown.InexactFloat64()
	case ObjectiveMaximizeNetProfit:
		return r.NetProfit.InexactFloat64()
	case ObjectiveMaximizeTotalReturn:
		return r.TotalReturn.InexactFloat64()
	case ObjectiveMaximizeSortino:
		return sortinoRatio(r)
	case ObjectiveMaximizeCalmar:
		return calmarRatio(r)
	case ObjectiveMaximizeOmega:
		return omegaRatio(r)
	case ObjectiveMaximizeTail:
		return tailRatio(r)
	case ObjectiveMaximizeStability:
		return stabilityScore(r)
	case ObjectiveMaximizeRiskAdjusted:
		return riskAdjustedScore(r)
	case ObjectiveCustom:
		if custom != nil {
			return custom(r)
		}
		return math.Inf(-1)
	default:
		return math.Inf(-1)
	}
}

// barReturns computes simple period-over-period returns from the equity
// curve.
func barReturns(r backtest.Result) []float64 {
	if len(r.EquityCurve) < 2 {
		return nil
	}
	out := make([]float64, 0, len(r.EquityCurve)-1)
	for i := 1; i < len(r.EquityCurve); i++ {
		prev := r.EquityCurve[i-1].Equity.InexactFloat64()
		cur := r.EquityCurve[i].Equity.InexactFloat64()
		if prev == 0 {
			continue
		}
		out = append(out, (cur-prev)/prev)
	}
	return out
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func stddev(xs []float64, m float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		d := x - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(xs)))
}

func sharpeRatio(r backtest.Result) float64 {
	returns := barReturns(r)
	m := mean(returns)
	sd := stddev(returns, m)
	if sd == 0 {
		return 0
	}
	return m / sd
}

// sortinoRatio uses downside deviation (only negative returns) in place of
// total standard deviation.
func sortinoRatio(r backtest.Result) float64 {
	returns := barReturns(r)
	m := mean(returns)

	var downside []float64
	for _, x := range returns {
		if x < 0 {
			downside = append(downside, x)
		}
	}
	dd := stddev(downside, 0)
	if dd == 0 {
		return 0
	}
	return m / dd
}

// calmarRatio is total return over max drawdown.
func calmarRatio(r backtest.Result) float64 {
	dd := r.MaxDrawdown.InexactFloat64()
	if dd == 0 {
		return 0
	}
	return r.TotalReturn.InexactFloat64() / dd
}

// omegaRatio is the ratio of gains to losses about a zero threshold.
func omegaRatio(r backtest.Result) float64 {
	returns := barReturns(r)
	gains, losses := 0.0, 0.0
	for _, x := range returns {
		if x >= 0 {
			gains += x
		} else {
			losses += -x
		}
	}
	if losses == 0 {
		return 0
	}
	return gains / losses
}

// tailRatio compares the magnitude of the best decile of returns against
// the worst decile.
func tailRatio(r backtest.Result) float64 {
	returns := append([]float64(nil), barReturns(r)...)
	if len(returns) < 2 {
		return 0
	}
	sort.Float64s(returns)

	k := len(returns) / 10
	if k == 0 {
		k = 1
	}

	worst := mean(returns[:k])
	best := mean(returns[len(returns)-k:])
	if worst == 0 {
		return 0
	}
	return -best / worst
}

// stabilityScore rewards a smoothly rising equity curve: 1 minus the
// coefficient of variation of bar returns.
func stabilityScore(r backtest.Result) float64 {
	returns := barReturns(r)
	m := mean(returns)
	sd := stddev(returns, m)
	if m == 0 {
		return 0
	}
	cv := sd / math.Abs(m)
	return 1 - math.Min(1, cv)
}

// riskAdjustedScore blends Sharpe with a max-drawdown penalty.
func riskAdjustedScore(r backtest.Result) float64 {
	return sharpeRatio(r) * (1 - r.MaxDrawdown.InexactFloat64())
}
