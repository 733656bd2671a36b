// Package compare orchestrates status analysis, trajectory similarity, and
// the failure-aware weighting policy into a single verdict. The engine is a
// stateless function of its two input trajectories and an immutable
// configuration; any number of comparisons may run concurrently.
package compare

import (
	"github.com/mcp-eval/engine/internal/analysis"
	"github.com/mcp-eval/engine/internal/config"
	"github.com/mcp-eval/engine/internal/similarity"
	"github.com/mcp-eval/engine/pkg/types"
)

// Engine compares current trajectories against baselines.
type Engine struct {
	cfg      *config.Config
	scorer   *similarity.Scorer
	analyzer *analysis.Analyzer
}

// New builds an Engine from a configuration bundle. A nil cfg uses defaults.
func New(cfg *config.Config) *Engine {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Engine{
		cfg:      cfg,
		scorer:   similarity.NewScorer(cfg.MaxNumericDiff, cfg.DomainToolPrefix),
		analyzer: analysis.New(cfg.CriticalOperationKeywords),
	}
}

// AnalyzeStatus classifies a single trajectory.
func (e *Engine) AnalyzeStatus(calls []types.ToolCallRecord) *types.ExecutionAnalysis {
	return e.analyzer.AnalyzeStatus(calls)
}

// Compare scores a current run against its baseline.
//
// Both sides are classified independently. A current run BLOCKED against a
// SUCCESS baseline short-circuits: the two runs are not meaningfully
// comparable once a precondition has failed against a previously working
// baseline, so the result is a zero score with an empty per-call list and a
// CRITICAL regression flag. Otherwise the trajectory similarity feeds the
// status-pair weighting table and per-call results are built over the same
// positional alignment the similarity used.
func (e *Engine) Compare(current, baseline []types.ToolCallRecord) *types.ComparisonResult {
	curAnalysis := e.analyzer.AnalyzeStatus(current)
	baseAnalysis := e.analyzer.AnalyzeStatus(baseline)

	if curAnalysis.Status == types.StatusBlocked && baseAnalysis.Status == types.StatusSuccess {
		return e.blockedResult(current, baseline, curAnalysis, baseAnalysis)
	}

	trajectoryScore := e.scorer.Trajectory(current, baseline)
	perCall := e.perCallResults(current, baseline)
	toolCountDiff := len(current) - len(baseline)

	overall := weightedScore(trajectoryScore, curAnalysis.Status, baseAnalysis.Status, toolCountDiff)

	return &types.ComparisonResult{
		OverallScore:    overall,
		TrajectoryScore: trajectoryScore,
		ExecutionStatus: curAnalysis.Status,
		BaselineStatus:  baseAnalysis.Status,
		Passed:          overall >= e.cfg.PassThreshold,
		PassThreshold:   e.cfg.PassThreshold,
		PerCallResults:  perCall,
		FailureAnalysis: e.failureAnalysis(current, baseline, curAnalysis, baseAnalysis),
		ToolCountDiff:   toolCountDiff,
		EarlyStopped:    curAnalysis.EarlyStopped,
		BlockingStep:    curAnalysis.BlockingStep,
	}
}

// blockedResult builds the short-circuited result for a blocked current run
// against a working baseline.
func (e *Engine) blockedResult(current, baseline []types.ToolCallRecord, curAnalysis, baseAnalysis *types.ExecutionAnalysis) *types.ComparisonResult {
	return &types.ComparisonResult{
		OverallScore:       0.0,
		TrajectoryScore:    0.0,
		ExecutionStatus:    types.StatusBlocked,
		BaselineStatus:     baseAnalysis.Status,
		Passed:             false,
		PassThreshold:      e.cfg.PassThreshold,
		PerCallResults:     []types.PerCallResult{},
		FailureAnalysis:    e.failureAnalysis(current, baseline, curAnalysis, baseAnalysis),
		ToolCountDiff:      len(current) - len(baseline),
		EarlyStopped:       true,
		BlockingStep:       curAnalysis.BlockingStep,
		RegressionSeverity: types.SeverityCritical,
	}
}

// perCallResults classifies each aligned position of the domain-filtered
// trajectories using the same strictly positional alignment the trajectory
// score is computed over.
func (e *Engine) perCallResults(current, baseline []types.ToolCallRecord) []types.PerCallResult {
	cur := e.scorer.FilterDomain(current)
	base := e.scorer.FilterDomain(baseline)

	maxLen := len(cur)
	if len(base) > maxLen {
		maxLen = len(base)
	}

	results := make([]types.PerCallResult, 0, maxLen)
	for i := 0; i < maxLen; i++ {
		var curCall, baseCall *types.ToolCallRecord
		if i < len(cur) {
			curCall = &cur[i]
		}
		if i < len(base) {
			baseCall = &base[i]
		}

		var score float64
		var label string
		switch {
		case curCall != nil && baseCall != nil:
			score = e.scorer.ToolCall(curCall, baseCall)
			label = classifyScore(score)
		case curCall != nil:
			score, label = 0.0, types.LabelExtra
		default:
			score, label = 0.0, types.LabelMissing
		}

		results = append(results, types.PerCallResult{
			Index:    i,
			Score:    score,
			Label:    label,
			Current:  curCall,
			Baseline: baseCall,
		})
	}
	return results
}

func classifyScore(score float64) string {
	switch {
	case score == 1.0:
		return types.LabelExactMatch
	case score >= 0.8:
		return types.LabelSimilar
	case score > 0.0:
		return types.LabelPartial
	default:
		return types.LabelMismatch
	}
}

func (e *Engine) failureAnalysis(current, baseline []types.ToolCallRecord, curAnalysis, baseAnalysis *types.ExecutionAnalysis) types.FailureAnalysis {
	return types.FailureAnalysis{
		CurrentFailures:   curAnalysis.Failures,
		BaselineFailures:  baseAnalysis.Failures,
		NewFailures:       setDifference(curAnalysis.Failures, baseAnalysis.Failures),
		ResolvedFailures:  setDifference(baseAnalysis.Failures, curAnalysis.Failures),
		FailureCascade:    e.analyzer.DetectCascade(current),
		CriticalRegressed: e.criticalRegressions(current, baseline),
	}
}

// setDifference returns the elements of a not present in b, preserving a's
// order.
func setDifference(a, b []string) []string {
	inB := make(map[string]bool, len(b))
	for _, s := range b {
		inB[s] = true
	}
	diff := []string{}
	for _, s := range a {
		if !inB[s] {
			diff = append(diff, s)
		}
	}
	return diff
}

// criticalRegressions lists critical operations that failed in the current
// run but succeeded in the baseline.
func (e *Engine) criticalRegressions(current, baseline []types.ToolCallRecord) []types.CriticalOperation {
	baseOK := make(map[string]bool)
	for _, op := range e.analyzer.CriticalOperations(baseline) {
		if op.Success {
			baseOK[op.Operation] = true
		}
	}

	var regressed []types.CriticalOperation
	for _, op := range e.analyzer.CriticalOperations(current) {
		if !op.Success && baseOK[op.Operation] {
			regressed = append(regressed, op)
		}
	}
	return regressed
}

// weightedScore applies the fixed status-pair weighting table. diff is the
// signed raw tool-count difference; only its magnitude matters.
func weightedScore(trajectoryScore float64, curStatus, baseStatus string, diff int) float64 {
	if diff < 0 {
		diff = -diff
	}

	switch curStatus {
	case types.StatusBlocked:
		switch baseStatus {
		case types.StatusSuccess:
			return 0.0
		case types.StatusBlocked:
			return 0.3
		default:
			return 0.1
		}

	case types.StatusFailed:
		switch baseStatus {
		case types.StatusSuccess:
			return clamp01(trajectoryScore * 0.5)
		case types.StatusFailed:
			return trajectoryScore * 0.7
		default:
			return trajectoryScore * 0.6
		}

	case types.StatusSuccess:
		if baseStatus == types.StatusSuccess {
			score := trajectoryScore*0.8 + 0.2
			if diff > 2 {
				score -= 0.1
			}
			return clamp01(score)
		}
		return min1(trajectoryScore + 0.2)
	}

	return clamp01(trajectoryScore)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func min1(v float64) float64 {
	if v > 1 {
		return 1
	}
	return v
}
