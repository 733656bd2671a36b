package compare

import "math"

const (
	VerdictPass = "PASS"
	VerdictFail = "FAIL"
)

// Verdict converts an overall score into PASS/FAIL at the given threshold.
func Verdict(score, threshold float64) string {
	if score >= threshold {
		return VerdictPass
	}
	return VerdictFail
}

// DynamicConfig holds parameters for history-based verdict classification.
type DynamicConfig struct {
	WindowSize int
	SigmaScale float64
	MinRuns    int
}

// DefaultDynamicConfig provides sensible defaults for dynamic classification.
var DefaultDynamicConfig = DynamicConfig{WindowSize: 50, SigmaScale: 2.0, MinRuns: 10}

// DynamicVerdict classifies a score against a scenario's historical scores.
// With fewer than cfg.MinRuns history entries it falls back to the fixed
// threshold. Otherwise the run passes when score >= mean - sigmaScale*stddev
// of the history window, which tolerates scenarios that are noisy at a
// stable level while still catching drops below their own baseline.
func DynamicVerdict(score float64, history []float64, threshold float64, cfg DynamicConfig) string {
	if len(history) < cfg.MinRuns {
		return Verdict(score, threshold)
	}
	mean, stddev := computeStats(history)
	if score >= mean-cfg.SigmaScale*stddev {
		return VerdictPass
	}
	return VerdictFail
}

// computeStats returns the mean and population standard deviation of data.
func computeStats(data []float64) (mean, stddev float64) {
	if len(data) == 0 {
		return 0, 0
	}
	sum := 0.0
	for _, v := range data {
		sum += v
	}
	mean = sum / float64(len(data))

	sumSqDiff := 0.0
	for _, v := range data {
		diff := v - mean
		sumSqDiff += diff * diff
	}
	stddev = math.Sqrt(sumSqDiff / float64(len(data)))
	return mean, stddev
}
