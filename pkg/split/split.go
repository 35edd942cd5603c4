// Package split generates train/test windows over an indexed candle
// series: fixed-ratio, rolling, expanding and anchored strategies.
package split

import (
	"fmt"
)

// Strategy selects the windowing algorithm.
type Strategy string

const (
	StrategyFixedRatio      Strategy = "fixed_ratio"
	StrategyRollingWindow   Strategy = "rolling_window"
	StrategyExpandingWindow Strategy = "expanding_window"
	StrategyAnchoredWindow  Strategy = "anchored_window"
)

// Config parameterizes a split.
type Config struct {
	Strategy     Strategy
	TrainRatio   float64 // used by fixed_ratio and to seed expanding/anchored
	StepSize     int     // defaults to train_size/4 when zero, for rolling/expanding/anchored
	GapSize      int
	MinTrainSize int
	MinTestSize  int
	MaxWindows   int // 0 means unbounded
}

// DataWindow is one train/test split over a 0-based index range.
// End indices are exclusive, [Start, End).
type DataWindow struct {
	ID         int
	TrainStart int
	TrainEnd   int
	TestStart  int
	TestEnd    int
}

// TrainSize returns the number of samples in the training range.
func (w DataWindow) TrainSize() int { return w.TrainEnd - w.TrainStart }

// TestSize returns the number of samples in the testing range.
func (w DataWindow) TestSize() int { return w.TestEnd - w.TestStart }

// ErrInsufficientData is returned when dataLen cannot satisfy the
// configured minimums.
type ErrInsufficientData struct {
	DataLen  int
	Required int
}

func (e ErrInsufficientData) Error() string {
	return fmt.Sprintf("split: insufficient data: have %d, need at least %d", e.DataLen, e.Required)
}

// Split produces DataWindows for dataLen samples under cfg.
func Split(cfg Config, dataLen int) ([]DataWindow, error) {
	required := cfg.MinTrainSize + cfg.MinTestSize + cfg.GapSize
	if dataLen < required {
		return nil, ErrInsufficientData{DataLen: dataLen, Required: required}
	}

	switch cfg.Strategy {
	case StrategyFixedRatio:
		return splitFixedRatio(cfg, dataLen), nil
	case StrategyRollingWindow:
		return splitRollingWindow(cfg, dataLen), nil
	case StrategyExpandingWindow:
		return splitExpandingWindow(cfg, dataLen), nil
	case StrategyAnchoredWindow:
		return splitAnchoredWindow(cfg, dataLen), nil
	default:
		return nil, fmt.Errorf("split: unknown strategy %q", cfg.Strategy)
	}
}

func splitFixedRatio(cfg Config, dataLen int) []DataWindow {
	trainSize := floorAtLeast(int(float64(dataLen)*cfg.TrainRatio), cfg.MinTrainSize)
	testStart := trainSize + cfg.GapSize
	if testStart > dataLen {
		testStart = dataLen
	}

	return []DataWindow{{
		ID:         0,
		TrainStart: 0,
		TrainEnd:   trainSize,
		TestStart:  testStart,
		TestEnd:    dataLen,
	}}
}

func splitRollingWindow(cfg Config, dataLen int) []DataWindow {
	trainSize := floorAtLeast(int(float64(dataLen)*cfg.TrainRatio), cfg.MinTrainSize)
	step := cfg.StepSize
	if step <= 0 {
		step = trainSize / 4
	}
	if step <= 0 {
		step = 1
	}

	var windows []DataWindow
	trainStart := 0

	for {
		trainEnd := trainStart + trainSize
		testStart := trainEnd + cfg.GapSize
		testEnd := testStart + step
		if testEnd > dataLen {
			testEnd = dataLen
		}

		if trainEnd > dataLen || testStart >= dataLen || testEnd-testStart < cfg.MinTestSize {
			break
		}

		windows = append(windows, DataWindow{
			ID:         len(windows),
			TrainStart: trainStart,
			TrainEnd:   trainEnd,
			TestStart:  testStart,
			TestEnd:    testEnd,
		})

		if cfg.MaxWindows > 0 && len(windows) >= cfg.MaxWindows {
			break
		}

		trainStart += step
	}

	return windows
}

func splitExpandingWindow(cfg Config, dataLen int) []DataWindow {
	initialTrain := floorAtLeast(int(float64(dataLen)*cfg.TrainRatio/2), cfg.MinTrainSize)
	step := cfg.StepSize
	if step <= 0 {
		step = initialTrain / 4
	}
	if step <= 0 {
		step = 1
	}

	var windows []DataWindow
	trainEnd := initialTrain

	for {
		testStart := trainEnd + cfg.GapSize
		testEnd := testStart + step
		if testEnd > dataLen {
			testEnd = dataLen
		}

		if trainEnd > dataLen || testStart >= dataLen || testEnd-testStart < cfg.MinTestSize {
			break
		}

		windows = append(windows, DataWindow{
			ID:         len(windows),
			TrainStart: 0,
			TrainEnd:   trainEnd,
			TestStart:  testStart,
			TestEnd:    testEnd,
		})

		if cfg.MaxWindows > 0 && len(windows) >= cfg.MaxWindows {
			break
		}

		trainEnd += step
	}

	return windows
}

// splitAnchoredWindow keeps the first window identical to expanding's, then
// rolls forward like rolling_window while retaining the same train_start=0
// reference window as window 0.
func splitAnchoredWindow(cfg Config, dataLen int) []DataWindow {
	expanding := splitExpandingWindow(cfg, dataLen)
	if len(expanding) == 0 {
		return nil
	}

	first := expanding[0]
	rollingCfg := cfg
	rollingCfg.TrainRatio = float64(first.TrainSize()) / float64(dataLen)
	rest := splitRollingWindow(rollingCfg, dataLen)

	windows := []DataWindow{first}
	for _, w := range rest[1:] {
		if cfg.MaxWindows > 0 && len(windows) >= cfg.MaxWindows {
			break
		}
		w.ID = len(windows)
		windows = append(windows, w)
	}
	return windows
}

func floorAtLeast(v, min int) int {
	if v < min {
		return min
	}
	return v
}
