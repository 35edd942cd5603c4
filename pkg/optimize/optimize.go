// Package optimize implements the grid-search optimizer: Cartesian
// enumeration of typed parameter spaces, objective scoring, and a
// dynamic-work-distribution worker pool built on errgroup plus an atomic
// task cursor, so each worker claims the next un-started combination
// rather than taking a static share.
package optimize

import (
	"math"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/web3guy0/quantframe/pkg/backtest"
	"github.com/web3guy0/quantframe/pkg/dataengine"
)

// Objective selects the scoring function applied to each backtest result.
// minimize_* variants are scored as negated maximize.
type Objective string

const (
	ObjectiveMaximizeSharpe       Objective = "maximize_sharpe"
	ObjectiveMaximizeProfitFactor Objective = "maximize_profit_factor"
	ObjectiveMaximizeWinRate      Objective = "maximize_win_rate"
	ObjectiveMinimizeMaxDrawdown  Objective = "minimize_max_drawdown"
	ObjectiveMaximizeNetProfit    Objective = "maximize_net_profit"
	ObjectiveMaximizeTotalReturn  Objective = "maximize_total_return"
	ObjectiveMaximizeSortino      Objective = "maximize_sortino"
	ObjectiveMaximizeCalmar       Objective = "maximize_calmar"
	ObjectiveMaximizeOmega        Objective = "maximize_omega"
	ObjectiveMaximizeTail         Objective = "maximize_tail"
	ObjectiveMaximizeStability    Objective = "maximize_stability"
	ObjectiveMaximizeRiskAdjusted Objective = "maximize_risk_adjusted"
	ObjectiveCustom               Objective = "custom"
)

// ParameterSpec is one tunable parameter's flattened candidate values.
// Optimize=false excludes it from the Cartesian product; it is held fixed
// at Values[0].
type ParameterSpec struct {
	Name     string
	Values   []ParameterValue
	Optimize bool
}

// Config parameterizes one optimization sweep.
type Config struct {
	Objective       Objective
	Backtest        backtest.Config
	Parameters      []StrategyParameter
	MaxCombinations uint32 // 0 means unbounded
	EnableParallel  bool
	NumWorkers      int // 0 defaults to runtime.NumCPU()

	// CustomScore is consulted when Objective == ObjectiveCustom.
	CustomScore func(backtest.Result) float64

	// StrategyFactory builds a fresh strategy instance per ParameterSet.
	// A factory error is a configuration error and is recorded against the
	// combination rather than aborting the sweep.
	StrategyFactory func(ParameterSet) (backtest.Strategy, error)

	Bars []dataengine.Bar
}

// CombinationResult is one sweep member's outcome.
type CombinationResult struct {
	Params ParameterSet
	Score  float64
	Result backtest.Result
	Error  string
}

// Report is the sweep's aggregate output.
type Report struct {
	BestParams        ParameterSet
	BestScore         float64
	AllResults        []CombinationResult
	TotalCombinations uint64
	ElapsedMs         int64
}

// ErrTooManyCombinations is returned when the Cartesian product of
// optimize=true parameters would overflow uint32.
type ErrTooManyCombinations struct{ Count uint64 }

func (e ErrTooManyCombinations) Error() string {
	return "optimize: combination count exceeds uint32 range"
}

// enumerate builds every ParameterSet in lexicographic order over the
// optimize=true parameters, holding the rest fixed at Values[0].
func enumerate(params []ParameterSpec) ([]ParameterSet, error) {
	var varying []ParameterSpec
	fixed := ParameterSet{}

	for _, p := range params {
		if p.Optimize && len(p.Values) > 1 {
			varying = append(varying, p)
		} else if len(p.Values) > 0 {
			fixed[p.Name] = p.Values[0]
		}
	}

	total := uint64(1)
	for _, p := range varying {
		total *= uint64(len(p.Values))
		if total > math.MaxUint32 {
			return nil, ErrTooManyCombinations{Count: total}
		}
	}

	sets := make([]ParameterSet, 0, total)
	indices := make([]int, len(varying))

	for {
		set := ParameterSet{}
		for k, v := range fixed {
			set[k] = v
		}
		for i, p := range varying {
			set[p.Name] = p.Values[indices[i]]
		}
		sets = append(sets, set)

		pos := len(varying) - 1
		for pos >= 0 {
			indices[pos]++
			if indices[pos] < len(varying[pos].Values) {
				break
			}
			indices[pos] = 0
			pos--
		}
		if pos < 0 {
			break
		}
	}

	return sets, nil
}

// Run enumerates the parameter grid, runs one backtest per combination
// (each against a fresh backtest.Engine so no state leaks across runs),
// and returns the best combination.
func Run(cfg Config) (Report, error) {
	start := time.Now()

	flat, err := specs(cfg.Parameters)
	if err != nil {
		return Report{}, err
	}
	sets, err := enumerate(flat)
	if err != nil {
		return Report{}, err
	}
	if cfg.MaxCombinations > 0 && uint64(len(sets)) > uint64(cfg.MaxCombinations) {
		sets = sets[:cfg.MaxCombinations]
	}

	results := make([]CombinationResult, len(sets))

	run := func(idx int) {
		set := sets[idx]
		strat, err := cfg.StrategyFactory(set)
		if err != nil {
			// configuration error: surfaced, not swallowed
			results[idx] = CombinationResult{Params: set, Score: math.Inf(-1), Error: err.Error()}
			return
		}

		engine := backtest.New(cfg.Backtest)
		btResult := engine.Run(strat, cfg.Bars, nil)

		if btResult.Status == backtest.StatusFailed {
			results[idx] = CombinationResult{Params: set, Score: math.Inf(-1), Result: btResult, Error: errString(btResult.Error)}
			return
		}

		score := score(cfg.Objective, btResult, cfg.CustomScore)
		results[idx] = CombinationResult{Params: set, Score: score, Result: btResult}
	}

	if cfg.EnableParallel && len(sets) > 1 {
		runParallel(sets, cfg.NumWorkers, run)
	} else {
		for i := range sets {
			run(i)
		}
	}

	report := Report{AllResults: results, TotalCombinations: uint64(len(sets)), ElapsedMs: time.Since(start).Milliseconds()}
	report.BestScore = math.Inf(-1)
	for _, r := range results {
		if r.Score > report.BestScore {
			report.BestScore = r.Score
			report.BestParams = r.Params.Clone()
		}
	}

	return report, nil
}

// runParallel fans tasks over an errgroup of workers racing a shared
// atomic cursor, so each worker claims the next un-started task index and
// results land at their task index regardless of completion order.
func runParallel(sets []ParameterSet, numWorkers int, run func(idx int)) {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	if numWorkers > len(sets) {
		numWorkers = len(sets)
	}

	var cursor atomic.Int64
	var g errgroup.Group

	for w := 0; w < numWorkers; w++ {
		g.Go(func() error {
			for {
				idx := int(cursor.Add(1)) - 1
				if idx >= len(sets) {
					return nil
				}
				run(idx)
			}
		})
	}

	_ = g.Wait() // run() never returns an error; task failures are recorded per-result instead
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
