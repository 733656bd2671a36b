// Package report renders comparison results for humans and CI: JSON for
// machines, Markdown for PR comments, HTML for browsing.
package report

import (
	"fmt"
	"time"

	"github.com/mcp-eval/engine/pkg/types"
)

// Report wraps a comparison result with the context a reader needs.
type Report struct {
	ReportType      string                  `json:"report_type"`
	Version         string                  `json:"version"`
	GeneratedAt     string                  `json:"generated_at"`
	Scenario        string                  `json:"scenario"`
	Verdict         string                  `json:"verdict"`
	Result          *types.ComparisonResult `json:"result"`
	Recommendations []string                `json:"recommendations,omitempty"`
}

const reportVersion = "1.0"

// New assembles a comparison report.
func New(scenario string, res *types.ComparisonResult) *Report {
	verdict := "FAIL"
	if res.Passed {
		verdict = "PASS"
	}
	return &Report{
		ReportType:      "trajectory_comparison",
		Version:         reportVersion,
		GeneratedAt:     time.Now().UTC().Format(time.RFC3339),
		Scenario:        scenario,
		Verdict:         verdict,
		Result:          res,
		Recommendations: Recommendations(res),
	}
}

// Recommendations derives actionable follow-ups from a comparison result.
func Recommendations(res *types.ComparisonResult) []string {
	var recs []string

	if res.RegressionSeverity == types.SeverityCritical {
		recs = append(recs,
			"Critical regression: the current run blocked on a failed precondition the baseline completed. Fix the blocking operation before re-baselining.")
	}

	if res.TrajectoryScore < res.PassThreshold {
		recs = append(recs,
			"Tool trajectory mismatch detected. Review expected vs actual tool calls.")
	}

	diff := res.ToolCountDiff
	if diff < 0 {
		diff = -diff
	}
	if diff > 2 {
		recs = append(recs, fmt.Sprintf(
			"Significant difference in tool usage count (%+d). Consider updating the baseline or investigating efficiency.",
			res.ToolCountDiff))
	}

	if res.ExecutionStatus != res.BaselineStatus {
		recs = append(recs, fmt.Sprintf(
			"Execution status changed: baseline %s, current %s.",
			res.BaselineStatus, res.ExecutionStatus))
	}

	if len(res.FailureAnalysis.NewFailures) > 0 {
		recs = append(recs, fmt.Sprintf(
			"New failures not present in the baseline: %v.", res.FailureAnalysis.NewFailures))
	}
	if len(res.FailureAnalysis.ResolvedFailures) > 0 {
		recs = append(recs, fmt.Sprintf(
			"Baseline failures resolved in this run: %v.", res.FailureAnalysis.ResolvedFailures))
	}

	if res.OverallScore >= 0.9 && res.Passed {
		recs = append(recs,
			"Excellent trajectory match. Consider promoting this run to a new baseline.")
	}

	return recs
}
