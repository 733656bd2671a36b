package compare

import (
	"sort"

	"github.com/mcp-eval/engine/internal/similarity"
	"github.com/mcp-eval/engine/pkg/types"
)

// Weights for the session-level blend: tool usage dominates, dialog shape
// and turn count refine it.
const (
	dialogTrajectoryWeight = 0.4
	dialogFlowWeight       = 0.35
	dialogTurnWeight       = 0.25
)

// DialogComparator compares recorded multi-turn sessions.
type DialogComparator struct {
	scorer    *similarity.Scorer
	threshold float64
}

// NewDialogComparator builds a comparator sharing the engine's scorer and
// pass threshold.
func (e *Engine) NewDialogComparator() *DialogComparator {
	return &DialogComparator{scorer: e.scorer, threshold: e.cfg.PassThreshold}
}

// Compare scores a current session against a baseline session: domain tool
// trajectory across all turns, dialog flow (speaker sequence and message
// length profile), and turn-count similarity, blended 0.4/0.35/0.25.
//
// The session status is SUCCESS at or above the pass threshold, FAILED below
// half of it, and PARTIAL in between; this is the only place PARTIAL is
// produced.
func (d *DialogComparator) Compare(current, baseline []types.DialogTurn) *types.DialogComparison {
	curTrajectory := d.extractTrajectory(current)
	baseTrajectory := d.extractTrajectory(baseline)

	trajectorySim := d.scorer.Trajectory(curTrajectory, baseTrajectory)
	flowSim := d.flowSimilarity(current, baseline)
	turnSim := turnCountSimilarity(len(current), len(baseline))

	overall := trajectorySim*dialogTrajectoryWeight +
		flowSim*dialogFlowWeight +
		turnSim*dialogTurnWeight

	var status string
	switch {
	case overall >= d.threshold:
		status = types.StatusSuccess
	case overall < d.threshold/2:
		status = types.StatusFailed
	default:
		status = types.StatusPartial
	}

	return &types.DialogComparison{
		OverallSimilarity:    overall,
		TrajectorySimilarity: trajectorySim,
		DialogFlowSimilarity: flowSim,
		TurnSimilarity:       turnSim,
		Status:               status,
		CurrentTurns:         len(current),
		BaselineTurns:        len(baseline),
		CurrentToolCalls:     len(curTrajectory),
		BaselineToolCalls:    len(baseTrajectory),
		TurnAnalysis:         analyzeTurns(current, baseline),
		ToolUsage:            compareToolUsage(curTrajectory, baseTrajectory),
	}
}

// extractTrajectory flattens a session into its domain tool calls in order.
func (d *DialogComparator) extractTrajectory(turns []types.DialogTurn) []types.ToolCallRecord {
	var trajectory []types.ToolCallRecord
	for _, turn := range turns {
		trajectory = append(trajectory, d.scorer.FilterDomain(turn.ToolCalls)...)
	}
	return trajectory
}

// flowSimilarity blends speaker-sequence similarity (longest common
// subsequence) with the message-length profile.
func (d *DialogComparator) flowSimilarity(current, baseline []types.DialogTurn) float64 {
	if len(current) == 0 || len(baseline) == 0 {
		return 0.0
	}

	curSpeakers := make([]string, len(current))
	curLengths := make([]int, len(current))
	for i, t := range current {
		curSpeakers[i] = t.Speaker
		curLengths[i] = len(t.Message)
	}
	baseSpeakers := make([]string, len(baseline))
	baseLengths := make([]int, len(baseline))
	for i, t := range baseline {
		baseSpeakers[i] = t.Speaker
		baseLengths[i] = len(t.Message)
	}

	return (lcsSimilarity(curSpeakers, baseSpeakers) + lengthProfileSimilarity(curLengths, baseLengths)) / 2
}

func turnCountSimilarity(current, baseline int) float64 {
	if baseline == 0 {
		if current == 0 {
			return 1.0
		}
		return 0.0
	}
	maxTurns := current
	if baseline > maxTurns {
		maxTurns = baseline
	}
	diff := current - baseline
	if diff < 0 {
		diff = -diff
	}
	sim := 1.0 - float64(diff)/float64(maxTurns)
	if sim < 0 {
		return 0.0
	}
	return sim
}

func analyzeTurns(current, baseline []types.DialogTurn) []types.TurnAnalysis {
	maxTurns := len(current)
	if len(baseline) > maxTurns {
		maxTurns = len(baseline)
	}

	analysis := make([]types.TurnAnalysis, 0, maxTurns)
	for i := 0; i < maxTurns; i++ {
		ta := types.TurnAnalysis{
			Turn:            i,
			CurrentPresent:  i < len(current),
			BaselinePresent: i < len(baseline),
		}
		if ta.CurrentPresent {
			ta.CurrentSpeaker = current[i].Speaker
			ta.CurrentToolCalls = len(current[i].ToolCalls)
		}
		if ta.BaselinePresent {
			ta.BaselineSpeaker = baseline[i].Speaker
			ta.BaselineToolCalls = len(baseline[i].ToolCalls)
		}

		switch {
		case !ta.CurrentPresent || !ta.BaselinePresent:
			ta.Similarity = 0.0
		case ta.CurrentSpeaker == ta.BaselineSpeaker && ta.CurrentToolCalls == ta.BaselineToolCalls:
			ta.Similarity = 1.0
		case ta.CurrentSpeaker == ta.BaselineSpeaker:
			ta.Similarity = 0.5
		default:
			ta.Similarity = 0.0
		}
		analysis = append(analysis, ta)
	}
	return analysis
}

func compareToolUsage(current, baseline []types.ToolCallRecord) types.ToolUsageComparison {
	curSet := make(map[string]struct{})
	for _, c := range current {
		curSet[c.ToolName] = struct{}{}
	}
	baseSet := make(map[string]struct{})
	for _, c := range baseline {
		baseSet[c.ToolName] = struct{}{}
	}

	var common, currentOnly, baselineOnly []string
	for name := range curSet {
		if _, ok := baseSet[name]; ok {
			common = append(common, name)
		} else {
			currentOnly = append(currentOnly, name)
		}
	}
	for name := range baseSet {
		if _, ok := curSet[name]; !ok {
			baselineOnly = append(baselineOnly, name)
		}
	}
	sort.Strings(common)
	sort.Strings(currentOnly)
	sort.Strings(baselineOnly)

	overlap := 0.0
	if len(baseSet) > 0 {
		overlap = float64(len(common)) / float64(len(baseSet))
	}

	return types.ToolUsageComparison{
		CommonTools:       common,
		CurrentOnlyTools:  currentOnly,
		BaselineOnlyTools: baselineOnly,
		ToolOverlapRatio:  overlap,
		CurrentToolCount:  len(current),
		BaselineToolCount: len(baseline),
	}
}

// lcsSimilarity is the longest-common-subsequence length normalized by the
// longer sequence.
func lcsSimilarity(seq1, seq2 []string) float64 {
	if len(seq1) == 0 || len(seq2) == 0 {
		return 0.0
	}
	m, n := len(seq1), len(seq2)
	dp := make([][]int, m+1)
	for i := range dp {
		dp[i] = make([]int, n+1)
	}
	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			if seq1[i-1] == seq2[j-1] {
				dp[i][j] = dp[i-1][j-1] + 1
			} else if dp[i-1][j] >= dp[i][j-1] {
				dp[i][j] = dp[i-1][j]
			} else {
				dp[i][j] = dp[i][j-1]
			}
		}
	}
	longer := m
	if n > longer {
		longer = n
	}
	return float64(dp[m][n]) / float64(longer)
}

// lengthProfileSimilarity compares two message-length sequences position by
// position, padding the shorter with zeros.
func lengthProfileSimilarity(seq1, seq2 []int) float64 {
	if len(seq1) == 0 || len(seq2) == 0 {
		return 0.0
	}
	maxLen := len(seq1)
	if len(seq2) > maxLen {
		maxLen = len(seq2)
	}

	var sum float64
	for i := 0; i < maxLen; i++ {
		a, b := 0, 0
		if i < len(seq1) {
			a = seq1[i]
		}
		if i < len(seq2) {
			b = seq2[i]
		}
		maxVal := a
		if b > maxVal {
			maxVal = b
		}
		if maxVal < 1 {
			maxVal = 1
		}
		diff := a - b
		if diff < 0 {
			diff = -diff
		}
		sum += 1.0 - float64(diff)/float64(maxVal)
	}
	return sum / float64(maxLen)
}
