package walkforward

import (
	"testing"

	"github.com/web3guy0/quantframe/pkg/backtest"
	"github.com/web3guy0/quantframe/pkg/dataengine"
	"github.com/web3guy0/quantframe/pkg/decimal"
	"github.com/web3guy0/quantframe/pkg/execution"
	"github.com/web3guy0/quantframe/pkg/optimize"
	"github.com/web3guy0/quantframe/pkg/order"
	"github.com/web3guy0/quantframe/pkg/split"
)

func TestDetectInsufficientDataUnderThreeWindows(t *testing.T) {
	result := Detect(DefaultDetectorConfig(), []WindowMetrics{{TrainSharpe: 1, TestSharpe: 1}})
	if result.Recommendation != RecommendationInsufficientData {
		t.Errorf("expected insufficient_data with <3 windows, got %s", result.Recommendation)
	}
}

func TestDetectProceedsWhenTrainTestAgree(t *testing.T) {
	windows := []WindowMetrics{
		{TrainSharpe: 1.0, TestSharpe: 0.95},
		{TrainSharpe: 1.1, TestSharpe: 1.05},
		{TrainSharpe: 0.9, TestSharpe: 0.85},
	}
	result := Detect(DefaultDetectorConfig(), windows)
	if result.Recommendation != RecommendationProceed {
		t.Errorf("expected proceed for closely agreeing train/test, got %s (prob=%.3f stability=%.3f)", result.Recommendation, result.OverfittingProbability, result.Stability)
	}
	if result.IsLikelyOverfitting {
		t.Errorf("expected not likely overfitting")
	}
}

func TestDetectCautionsOnWideTrainTestGap(t *testing.T) {
	windows := []WindowMetrics{
		{TrainSharpe: 3.0, TestSharpe: -1.0},
		{TrainSharpe: 2.8, TestSharpe: -1.2},
		{TrainSharpe: 3.2, TestSharpe: -0.8},
	}
	result := Detect(DefaultDetectorConfig(), windows)
	// gap 4 saturates its terms, but cv 0.163 and sensitivity 0.2 are small:
	// probability 0.558 and stability 0.491 fall in the caution band.
	if result.Recommendation != RecommendationCaution {
		t.Errorf("expected caution for a wide train/test gap, got %s (prob=%.3f stability=%.3f)", result.Recommendation, result.OverfittingProbability, result.Stability)
	}
}

// flatStrategy never trades; used to exercise the analyzer's wiring without
// depending on any particular profit outcome.
type flatStrategy struct{}

func (flatStrategy) OnStart(ctx *backtest.Context) error { return nil }
func (flatStrategy) OnBar(ctx *backtest.Context) error   { return nil }
func (flatStrategy) OnStop(ctx *backtest.Context) error  { return nil }

// momentumStrategy buys once when the bar close passes its threshold
// parameter and holds, giving windows a distinguishable equity curve.
type momentumStrategy struct {
	threshold decimal.Decimal
	bought    bool
}

func (s *momentumStrategy) OnStart(ctx *backtest.Context) error { return nil }

func (s *momentumStrategy) OnBar(ctx *backtest.Context) error {
	if s.bought {
		return nil
	}
	if ctx.Bar.Close.GreaterThan(s.threshold) {
		_, err := ctx.Executor.SubmitOrder(execution.OrderRequest{
			ClientOrderID: "entry",
			Symbol:        ctx.Bar.Symbol,
			Side:          order.SideBuy,
			OrderType:     order.TypeMarket,
			Quantity:      decimal.NewFromInt(1),
		})
		s.bought = err == nil
	}
	return nil
}

func (s *momentumStrategy) OnStop(ctx *backtest.Context) error { return nil }

func makeBars(closes []int64) []dataengine.Bar {
	bars := make([]dataengine.Bar, len(closes))
	for i, c := range closes {
		bars[i] = dataengine.Bar{Symbol: "BTC-USD", Close: decimal.NewFromInt(c)}
	}
	return bars
}

func TestRunProducesOneWindowResultPerSplitWindow(t *testing.T) {
	closes := make([]int64, 60)
	for i := range closes {
		closes[i] = 100 + int64(i)
	}
	bars := makeBars(closes)

	cfg := Config{
		Split: split.Config{Strategy: split.StrategyFixedRatio, TrainRatio: 0.7, MinTrainSize: 10, MinTestSize: 5},
		Optimize: optimize.Config{
			Objective: optimize.ObjectiveMaximizeNetProfit,
			Backtest:  backtest.Config{InitialCapital: decimal.NewFromInt(10000)},
			Parameters: []optimize.StrategyParameter{
				{Name: "threshold", Kind: optimize.KindInt, Optimize: true, Range: &optimize.Range{Int: &optimize.IntRange{Min: 90, Max: 120, Step: 30}}},
			},
			StrategyFactory: func(set optimize.ParameterSet) (backtest.Strategy, error) {
				return &momentumStrategy{threshold: set["threshold"].Decimal()}, nil
			},
		},
		Detector: DefaultDetectorConfig(),
	}

	report, err := Run(cfg, bars)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.Windows) != 1 {
		t.Fatalf("expected 1 window from fixed_ratio split, got %d", len(report.Windows))
	}
	if report.Best == nil {
		t.Fatal("expected a best window to be selected")
	}
}

func TestAggregateConsistencyScoreCountsPositiveTests(t *testing.T) {
	results := []WindowResult{
		{TestResult: backtest.Result{TotalReturn: decimal.NewFromInt(1)}},
		{TestResult: backtest.Result{TotalReturn: decimal.NewFromInt(-1)}},
		{TestResult: backtest.Result{TotalReturn: decimal.NewFromInt(2)}},
	}
	stats := aggregate(results)
	want := 2.0 / 3.0
	if stats.ConsistencyScore != want {
		t.Errorf("expected consistency_score=%.4f, got %.4f", want, stats.ConsistencyScore)
	}
}

func TestPearsonPerfectCorrelation(t *testing.T) {
	corr := pearson([]float64{1, 2, 3, 4}, []float64{2, 4, 6, 8})
	if corr < 0.999 {
		t.Errorf("expected near-perfect correlation, got %.4f", corr)
	}
}
