package split

import "testing"

func TestFixedRatioSingleWindow(t *testing.T) {
	windows, err := Split(Config{Strategy: StrategyFixedRatio, TrainRatio: 0.8, MinTrainSize: 10, MinTestSize: 5}, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(windows) != 1 {
		t.Fatalf("expected exactly 1 window, got %d", len(windows))
	}
	if windows[0].TrainEnd != 80 {
		t.Errorf("expected train_size=80, got %d", windows[0].TrainEnd)
	}
	if windows[0].TestEnd != 100 {
		t.Errorf("expected test to run to data end, got %d", windows[0].TestEnd)
	}
}

func TestFixedRatioSeventyThirty(t *testing.T) {
	windows, err := Split(Config{Strategy: StrategyFixedRatio, TrainRatio: 0.7, MinTrainSize: 50, MinTestSize: 20}, 200)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(windows) != 1 {
		t.Fatalf("expected exactly 1 window, got %d", len(windows))
	}
	if got := windows[0].TrainSize(); got != 140 {
		t.Errorf("expected train size 140, got %d", got)
	}
	if got := windows[0].TestSize(); got != 60 {
		t.Errorf("expected test size 60, got %d", got)
	}
}

func TestFixedRatioRespectsGap(t *testing.T) {
	windows, err := Split(Config{Strategy: StrategyFixedRatio, TrainRatio: 0.5, GapSize: 10, MinTrainSize: 10, MinTestSize: 5}, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if windows[0].TestStart != 60 {
		t.Errorf("expected test_start=train_end+gap=60, got %d", windows[0].TestStart)
	}
}

func TestInsufficientDataRejected(t *testing.T) {
	_, err := Split(Config{Strategy: StrategyFixedRatio, TrainRatio: 0.8, MinTrainSize: 50, MinTestSize: 50}, 10)
	if err == nil {
		t.Fatal("expected ErrInsufficientData")
	}
	if _, ok := err.(ErrInsufficientData); !ok {
		t.Errorf("expected ErrInsufficientData, got %T", err)
	}
}

func TestRollingWindowAdvancesByStep(t *testing.T) {
	windows, err := Split(Config{
		Strategy: StrategyRollingWindow, TrainRatio: 0.5, StepSize: 10, MinTrainSize: 10, MinTestSize: 5,
	}, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(windows) < 2 {
		t.Fatalf("expected multiple rolling windows, got %d", len(windows))
	}
	for i, w := range windows {
		if w.ID != i {
			t.Errorf("expected window ids 0-based and monotonic, window %d has id %d", i, w.ID)
		}
	}
	if windows[1].TrainStart != windows[0].TrainStart+10 {
		t.Errorf("expected window 1 train_start to advance by step_size, got %d vs %d", windows[1].TrainStart, windows[0].TrainStart)
	}
}

func TestRollingWindowRespectsMaxWindows(t *testing.T) {
	windows, err := Split(Config{
		Strategy: StrategyRollingWindow, TrainRatio: 0.3, StepSize: 5, MinTrainSize: 10, MinTestSize: 5, MaxWindows: 2,
	}, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(windows) != 2 {
		t.Errorf("expected max_windows=2 to cap the result, got %d", len(windows))
	}
}

func TestExpandingWindowKeepsTrainStartAtZero(t *testing.T) {
	windows, err := Split(Config{
		Strategy: StrategyExpandingWindow, TrainRatio: 0.4, StepSize: 10, MinTrainSize: 10, MinTestSize: 5,
	}, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, w := range windows {
		if w.TrainStart != 0 {
			t.Errorf("expected expanding window to keep train_start=0, got %d for window %d", w.TrainStart, w.ID)
		}
	}
	if len(windows) < 2 {
		t.Fatalf("expected multiple expanding windows, got %d", len(windows))
	}
	if windows[1].TrainEnd <= windows[0].TrainEnd {
		t.Errorf("expected train_end to advance across windows")
	}
}

func TestAnchoredWindowFirstMatchesExpanding(t *testing.T) {
	cfg := Config{Strategy: StrategyAnchoredWindow, TrainRatio: 0.4, StepSize: 10, MinTrainSize: 10, MinTestSize: 5}
	anchored, err := Split(cfg, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expandingCfg := cfg
	expandingCfg.Strategy = StrategyExpandingWindow
	expanding, err := Split(expandingCfg, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(anchored) == 0 || len(expanding) == 0 {
		t.Fatal("expected both strategies to produce at least one window")
	}
	if anchored[0] != expanding[0] {
		t.Errorf("expected anchored window 0 to equal expanding window 0, got %+v vs %+v", anchored[0], expanding[0])
	}
}

func TestAnchoredWindowRollsForwardAfterFirst(t *testing.T) {
	cfg := Config{Strategy: StrategyAnchoredWindow, TrainRatio: 0.3, StepSize: 5, MinTrainSize: 10, MinTestSize: 5}
	windows, err := Split(cfg, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(windows) < 2 {
		t.Fatalf("expected multiple anchored windows, got %d", len(windows))
	}
	for i := 1; i < len(windows); i++ {
		if windows[i].TrainStart <= windows[i-1].TrainStart {
			t.Errorf("expected anchored windows after the first to roll forward, window %d train_start=%d did not advance past window %d's %d",
				i, windows[i].TrainStart, i-1, windows[i-1].TrainStart)
		}
	}
}
