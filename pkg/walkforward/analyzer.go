package walkforward

import (
	"math"

	"github.com/web3guy0/quantframe/pkg/backtest"
	"github.com/web3guy0/quantframe/pkg/dataengine"
	"github.com/web3guy0/quantframe/pkg/optimize"
	"github.com/web3guy0/quantframe/pkg/split"
)

// WindowResult carries one split window's train/test outcome.
type WindowResult struct {
	Window           split.DataWindow
	BestParams       optimize.ParameterSet
	TrainResult      backtest.Result
	TestResult       backtest.Result
	TrainSharpe      float64
	TestSharpe       float64
	OverfittingScore float64
}

// OverallStats aggregates across windows.
type OverallStats struct {
	MeanTrainSharpe      float64
	MeanTestSharpe       float64
	MeanTrainReturn      float64
	MeanTestReturn       float64
	ConsistencyScore     float64
	TrainTestCorrelation float64
}

// Report is the analyzer's output.
type Report struct {
	Windows  []WindowResult
	Overall  OverallStats
	Detector DetectorResult
	Best     *WindowResult
}

// Config parameterizes one walk-forward run.
type Config struct {
	Split    split.Config
	Optimize optimize.Config
	Detector DetectorConfig
}

// sharpeOf extracts an approximate Sharpe ratio from a backtest.Result's
// equity curve, the same derivation pkg/optimize uses for
// maximize_sharpe, since backtest.Result itself carries no Sharpe field.
func sharpeOf(r backtest.Result) float64 {
	if len(r.EquityCurve) < 2 {
		return 0
	}
	returns := make([]float64, 0, len(r.EquityCurve)-1)
	for i := 1; i < len(r.EquityCurve); i++ {
		prev := r.EquityCurve[i-1].Equity.InexactFloat64()
		cur := r.EquityCurve[i].Equity.InexactFloat64()
		if prev == 0 {
			continue
		}
		returns = append(returns, (cur-prev)/prev)
	}
	if len(returns) == 0 {
		return 0
	}
	m := mean(returns)
	sd := stddev(returns, m)
	if sd == 0 {
		return 0
	}
	return m / sd
}

// Run executes the walk-forward procedure: split, per-window
// grid-search + re-test, overfitting detection, and selection
// of a single best-overall parameter set.
func Run(cfg Config, bars []dataengine.Bar) (Report, error) {
	windows, err := split.Split(cfg.Split, len(bars))
	if err != nil {
		return Report{}, err
	}

	results := make([]WindowResult, 0, len(windows))

	for _, w := range windows {
		trainBars := bars[w.TrainStart:w.TrainEnd]
		testBars := bars[w.TestStart:w.TestEnd]

		optCfg := cfg.Optimize
		optCfg.Bars = trainBars
		optReport, err := optimize.Run(optCfg)
		if err != nil {
			return Report{}, err
		}

		strat, err := cfg.Optimize.StrategyFactory(optReport.BestParams)
		if err != nil {
			return Report{}, err
		}
		testEngine := backtest.New(cfg.Optimize.Backtest)
		testResult := testEngine.Run(strat, testBars, nil)

		var trainResult backtest.Result
		for _, r := range optReport.AllResults {
			if equalParams(r.Params, optReport.BestParams) {
				trainResult = r.Result
				break
			}
		}

		trainSharpe := sharpeOf(trainResult)
		testSharpe := sharpeOf(testResult)

		overfittingScore := 0.0
		if trainSharpe > 0 {
			overfittingScore = math.Max(0, (trainSharpe-testSharpe)/trainSharpe)
		}

		results = append(results, WindowResult{
			Window:           w,
			BestParams:       optReport.BestParams,
			TrainResult:      trainResult,
			TestResult:       testResult,
			TrainSharpe:      trainSharpe,
			TestSharpe:       testSharpe,
			OverfittingScore: overfittingScore,
		})
	}

	report := Report{Windows: results}
	report.Overall = aggregate(results)

	metrics := make([]WindowMetrics, len(results))
	for i, r := range results {
		metrics[i] = WindowMetrics{
			TrainSharpe: r.TrainSharpe,
			TestSharpe:  r.TestSharpe,
			TrainReturn: r.TrainResult.TotalReturn.InexactFloat64(),
			TestReturn:  r.TestResult.TotalReturn.InexactFloat64(),
			WinRate:     r.TestResult.WinRate.InexactFloat64(),
		}
	}
	report.Detector = Detect(cfg.Detector, metrics)

	report.Best = selectBest(results)
	return report, nil
}

// aggregate computes OverallStats.
func aggregate(results []WindowResult) OverallStats {
	if len(results) == 0 {
		return OverallStats{}
	}

	trainSharpes := make([]float64, len(results))
	testSharpes := make([]float64, len(results))
	trainReturns := make([]float64, len(results))
	testReturns := make([]float64, len(results))
	positiveTests := 0

	for i, r := range results {
		trainSharpes[i] = r.TrainSharpe
		testSharpes[i] = r.TestSharpe
		trainReturns[i] = r.TrainResult.TotalReturn.InexactFloat64()
		testReturns[i] = r.TestResult.TotalReturn.InexactFloat64()
		if r.TestResult.TotalReturn.IsPositive() {
			positiveTests++
		}
	}

	return OverallStats{
		MeanTrainSharpe:      mean(trainSharpes),
		MeanTestSharpe:       mean(testSharpes),
		MeanTrainReturn:      mean(trainReturns),
		MeanTestReturn:       mean(testReturns),
		ConsistencyScore:     float64(positiveTests) / float64(len(results)),
		TrainTestCorrelation: pearson(trainSharpes, testSharpes),
	}
}

// selectBest picks the window maximizing test_sharpe * (1 - overfitting_score).
func selectBest(results []WindowResult) *WindowResult {
	if len(results) == 0 {
		return nil
	}
	best := &results[0]
	bestScore := best.TestSharpe * (1 - best.OverfittingScore)

	for i := 1; i < len(results); i++ {
		score := results[i].TestSharpe * (1 - results[i].OverfittingScore)
		if score > bestScore {
			bestScore = score
			best = &results[i]
		}
	}
	return best
}

func pearson(xs, ys []float64) float64 {
	if len(xs) != len(ys) || len(xs) < 2 {
		return 0
	}
	mx, my := mean(xs), mean(ys)

	var num, dx2, dy2 float64
	for i := range xs {
		dx := xs[i] - mx
		dy := ys[i] - my
		num += dx * dy
		dx2 += dx * dx
		dy2 += dy * dy
	}
	if dx2 == 0 || dy2 == 0 {
		return 0
	}
	return num / math.Sqrt(dx2*dy2)
}

func equalParams(a, b optimize.ParameterSet) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		other, ok := b[k]
		if !ok || !v.Equal(other) {
			return false
		}
	}
	return true
}
