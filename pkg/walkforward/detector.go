// Package walkforward implements the Walk-Forward Analyzer
// and the Overfitting Detector it feeds per-window metrics
// through.
package walkforward

import "math"

// WindowMetrics is the per-window train/test statistics the detector
// consumes.
type WindowMetrics struct {
	TrainSharpe float64
	TestSharpe  float64
	TrainReturn float64
	TestReturn  float64
	WinRate     float64
}

// DetectorConfig carries the detector's weights and thresholds.
type DetectorConfig struct {
	GapWeight            float64 // default 0.4
	CVWeight             float64 // default 0.3
	SensitivityWeight    float64 // default 0.3
	GapThreshold         float64 // default 0.5
	CVThreshold          float64 // default 0.5
	ProbabilityThreshold float64 // default 0.7
}

// DefaultDetectorConfig returns the default weights and thresholds.
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		GapWeight: 0.4, CVWeight: 0.3, SensitivityWeight: 0.3,
		GapThreshold: 0.5, CVThreshold: 0.5, ProbabilityThreshold: 0.7,
	}
}

// Recommendation is the detector's categorical verdict.
type Recommendation string

const (
	RecommendationInsufficientData Recommendation = "insufficient_data"
	RecommendationReject           Recommendation = "reject"
	RecommendationCaution          Recommendation = "caution"
	RecommendationProceed          Recommendation = "proceed"
)

// DetectorResult is the detector's output.
type DetectorResult struct {
	TrainTestGap           float64
	TestPerformanceCV      float64
	ParamSensitivity       float64
	Stability              float64
	OverfittingProbability float64
	IsLikelyOverfitting    bool
	Recommendation         Recommendation
}

const epsilon = 1e-9

// Detect computes the overfitting verdict from per-window metrics.
func Detect(cfg DetectorConfig, windows []WindowMetrics) DetectorResult {
	if len(windows) < 3 {
		return DetectorResult{Recommendation: RecommendationInsufficientData}
	}

	trainSharpes := make([]float64, len(windows))
	testSharpes := make([]float64, len(windows))
	absGaps := make([]float64, len(windows))
	for i, w := range windows {
		trainSharpes[i] = w.TrainSharpe
		testSharpes[i] = w.TestSharpe
		absGaps[i] = math.Abs(w.TrainSharpe - w.TestSharpe)
	}

	gap := mean(absGaps)

	testMean := mean(testSharpes)
	testSD := stddev(testSharpes, testMean)
	var cv float64
	if math.Abs(testMean) < epsilon {
		cv = math.Min(1, testSD)
	} else {
		cv = clamp(testSD/math.Max(math.Abs(testMean), epsilon), 0, 2)
	}

	sensitivity := math.Min(1, (maxOf(trainSharpes)-minOf(trainSharpes))/2)

	stability := 0.4*clamp01(1-gap) + 0.3*clamp01(1-cv) + 0.3*clamp01(1-sensitivity)

	probability := cfg.GapWeight*math.Min(1, gap/nonZero(cfg.GapThreshold)) +
		cfg.CVWeight*math.Min(1, cv/nonZero(cfg.CVThreshold)) +
		cfg.SensitivityWeight*sensitivity

	result := DetectorResult{
		TrainTestGap:           gap,
		TestPerformanceCV:      cv,
		ParamSensitivity:       sensitivity,
		Stability:              stability,
		OverfittingProbability: probability,
		IsLikelyOverfitting:    probability > cfg.ProbabilityThreshold,
	}

	switch {
	case probability > 0.8 || stability < 0.3:
		result.Recommendation = RecommendationReject
	case probability > 0.5 || stability < 0.5:
		result.Recommendation = RecommendationCaution
	default:
		result.Recommendation = RecommendationProceed
	}

	return result
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

func maxOf(xs []float64) float64 {
	m := xs[0]
	for _, x := range xs[1:] {
		if x > m {
			m = x
		}
	}
	return m
}

func minOf(xs []float64) float64 {
	m := xs[0]
	for _, x := range xs[1:] {
		if x < m {
			m = x
		}
	}
	return m
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clamp01(v float64) float64 { return clamp(v, 0, 1) }

func nonZero(v float64) float64 {
	if v == 0 {
		return epsilon
	}
	return v
}
