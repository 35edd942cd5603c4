// Command backtest replays a candle file through a strategy: a single run,
// a grid-search sweep, or a full walk-forward analysis, selected by -mode.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/web3guy0/quantframe/internal/logging"
	"github.com/web3guy0/quantframe/pkg/backtest"
	"github.com/web3guy0/quantframe/pkg/config"
	"github.com/web3guy0/quantframe/pkg/dataengine"
	"github.com/web3guy0/quantframe/pkg/decimal"
	"github.com/web3guy0/quantframe/pkg/execution"
	"github.com/web3guy0/quantframe/pkg/optimize"
	"github.com/web3guy0/quantframe/pkg/order"
	"github.com/web3guy0/quantframe/pkg/split"
	"github.com/web3guy0/quantframe/pkg/walkforward"
)

func main() {
	mode := flag.String("mode", "backtest", "backtest | optimize | walkforward")
	dataFile := flag.String("data", "", "CSV candle file (timestamp,open,high,low,close,volume)")
	symbol := flag.String("symbol", "BTC-USD", "instrument symbol")
	capital := flag.String("capital", "10000", "initial capital")
	commission := flag.String("commission", "0.0005", "commission rate")
	slippage := flag.String("slippage", "0", "slippage as an absolute price offset")
	parallel := flag.Bool("parallel", true, "run sweep combinations in parallel")
	archivePath := flag.String("archive", "", "SQLite path to archive sweep results (empty disables)")
	pretty := flag.Bool("pretty", true, "use the human-readable console log writer")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	logging.Init(*pretty, cfg.Debug)

	path := *dataFile
	if path == "" {
		path = cfg.DataFilePath
	}
	if path == "" {
		log.Fatal().Msg("no candle file: pass -data or set DATA_FILE_PATH")
	}

	bars, err := loadBars(path, *symbol)
	if err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("failed to load candles")
	}
	log.Info().Int("bars", len(bars)).Str("symbol", *symbol).Msg("candles loaded")

	btCfg := backtest.Config{
		Pair:           *symbol,
		InitialCapital: mustDecimal(*capital),
		CommissionRate: mustDecimal(*commission),
		Slippage:       mustDecimal(*slippage),
		DataFile:       path,
	}

	switch *mode {
	case "backtest":
		runSingle(btCfg, bars)
	case "optimize":
		runSweep(btCfg, bars, *parallel, *archivePath)
	case "walkforward":
		runWalkForward(btCfg, bars, *parallel)
	default:
		log.Fatal().Str("mode", *mode).Msg("unknown mode")
	}
}

func runSingle(btCfg backtest.Config, bars []dataengine.Bar) {
	engine := backtest.New(btCfg)
	result := engine.Run(&crossoverStrategy{fast: 5, slow: 20, size: decimal.NewFromInt(1)}, bars, func(progress float64, cur, total int) {
		log.Debug().Int("bar", cur).Int("total", total).Msg("backtest progress")
	})

	log.Info().
		Str("status", string(result.Status)).
		Str("net_profit", result.NetProfit.String()).
		Str("win_rate", result.WinRate.StringFixed(4)).
		Str("max_drawdown", result.MaxDrawdown.StringFixed(4)).
		Int("trades", len(result.Trades)).
		Msg("backtest complete")
}

func sweepConfig(btCfg backtest.Config, bars []dataengine.Bar, parallel bool) optimize.Config {
	return optimize.Config{
		Objective: optimize.ObjectiveMaximizeNetProfit,
		Backtest:  btCfg,
		Parameters: []optimize.StrategyParameter{
			{Name: "fast", Kind: optimize.KindInt, Optimize: true, Range: &optimize.Range{Int: &optimize.IntRange{Min: 5, Max: 15, Step: 5}}},
			{Name: "slow", Kind: optimize.KindInt, Optimize: true, Range: &optimize.Range{Int: &optimize.IntRange{Min: 20, Max: 30, Step: 5}}},
			{Name: "size", Kind: optimize.KindDecimal, Default: optimize.DecimalValue(decimal.NewFromInt(1))},
		},
		EnableParallel: parallel,
		StrategyFactory: func(set optimize.ParameterSet) (backtest.Strategy, error) {
			return &crossoverStrategy{
				fast: int(set["fast"].Int()),
				slow: int(set["slow"].Int()),
				size: set["size"].Decimal(),
			}, nil
		},
		Bars: bars,
	}
}

func runSweep(btCfg backtest.Config, bars []dataengine.Bar, parallel bool, archivePath string) {
	report, err := optimize.Run(sweepConfig(btCfg, bars, parallel))
	if err != nil {
		log.Fatal().Err(err).Msg("optimization failed")
	}

	log.Info().
		Uint64("combinations", report.TotalCombinations).
		Float64("best_score", report.BestScore).
		Int64("elapsed_ms", report.ElapsedMs).
		Msg("optimization complete")
	for name, v := range report.BestParams {
		log.Info().Str("param", name).Str("value", v.String()).Msg("best parameter")
	}

	if archivePath != "" {
		archive, err := optimize.OpenArchive(archivePath)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open result archive")
		}
		defer archive.Close()
		tag := fmt.Sprintf("sweep-%d", time.Now().UnixMilli())
		if err := archive.Save(tag, optimize.ObjectiveMaximizeNetProfit, report); err != nil {
			log.Error().Err(err).Msg("failed to archive sweep results")
		} else {
			log.Info().Str("tag", tag).Str("path", archivePath).Msg("sweep archived")
		}
	}
}

func runWalkForward(btCfg backtest.Config, bars []dataengine.Bar, parallel bool) {
	report, err := walkforward.Run(walkforward.Config{
		Split: split.Config{
			Strategy:     split.StrategyRollingWindow,
			TrainRatio:   0.6,
			MinTrainSize: 50,
			MinTestSize:  20,
		},
		Optimize: sweepConfig(btCfg, bars, parallel),
		Detector: walkforward.DefaultDetectorConfig(),
	}, bars)
	if err != nil {
		log.Fatal().Err(err).Msg("walk-forward analysis failed")
	}

	log.Info().
		Int("windows", len(report.Windows)).
		Float64("mean_test_sharpe", report.Overall.MeanTestSharpe).
		Float64("consistency", report.Overall.ConsistencyScore).
		Float64("overfitting_probability", report.Detector.OverfittingProbability).
		Str("recommendation", string(report.Detector.Recommendation)).
		Msg("walk-forward complete")

	if report.Best != nil {
		for name, v := range report.Best.BestParams {
			log.Info().Str("param", name).Str("value", v.String()).Msg("best overall parameter")
		}
	}
}

// crossoverStrategy is a minimal moving-average crossover: long when the
// fast SMA crosses above the slow SMA, flat when it crosses back under.
type crossoverStrategy struct {
	fast, slow int
	size       decimal.Decimal

	closes []decimal.Decimal
	long   bool
	seq    int
}

func (s *crossoverStrategy) OnStart(ctx *backtest.Context) error { return nil }
func (s *crossoverStrategy) OnStop(ctx *backtest.Context) error  { return nil }

func (s *crossoverStrategy) OnBar(ctx *backtest.Context) error {
	s.closes = append(s.closes, ctx.Bar.Close)
	if len(s.closes) < s.slow {
		return nil
	}

	fast := sma(s.closes, s.fast)
	slow := sma(s.closes, s.slow)

	switch {
	case !s.long && fast.GreaterThan(slow):
		if err := s.submit(ctx, order.SideBuy); err != nil {
			return err
		}
		s.long = true
	case s.long && fast.LessThan(slow):
		if err := s.submit(ctx, order.SideSell); err != nil {
			return err
		}
		s.long = false
	}
	return nil
}

func (s *crossoverStrategy) submit(ctx *backtest.Context, side order.Side) error {
	s.seq++
	_, err := ctx.Executor.SubmitOrder(execution.OrderRequest{
		ClientOrderID: fmt.Sprintf("xover-%d", s.seq),
		Symbol:        ctx.Bar.Symbol,
		Side:          side,
		OrderType:     order.TypeMarket,
		Quantity:      s.size,
	})
	return err
}

func sma(closes []decimal.Decimal, n int) decimal.Decimal {
	sum := decimal.Zero
	for _, c := range closes[len(closes)-n:] {
		sum = sum.Add(c)
	}
	avg, err := sum.Div(decimal.NewFromInt(int64(n)))
	if err != nil {
		return decimal.Zero
	}
	return avg
}

func mustDecimal(s string) decimal.Decimal {
	v, err := decimal.Parse(s)
	if err != nil {
		log.Fatal().Err(err).Str("value", s).Msg("bad decimal flag")
	}
	return v
}

// loadBars reads a timestamp,open,high,low,close,volume CSV, skipping a
// header row if present.
func loadBars(path, symbol string) ([]dataengine.Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}

	var bars []dataengine.Bar
	for i, row := range rows {
		if len(row) < 6 {
			return nil, fmt.Errorf("row %d: expected 6 columns, got %d", i, len(row))
		}
		ms, err := strconv.ParseInt(row[0], 10, 64)
		if err != nil {
			if i == 0 {
				continue // header row
			}
			return nil, fmt.Errorf("row %d: bad timestamp %q", i, row[0])
		}

		bar := dataengine.Bar{Symbol: symbol, Timestamp: time.UnixMilli(ms)}
		fields := []*decimal.Decimal{&bar.Open, &bar.High, &bar.Low, &bar.Close, &bar.Volume}
		for j, dst := range fields {
			v, err := decimal.Parse(row[j+1])
			if err != nil {
				return nil, fmt.Errorf("row %d col %d: %w", i, j+1, err)
			}
			*dst = v
		}
		bars = append(bars, bar)
	}
	return bars, nil
}
