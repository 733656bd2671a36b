package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/segmentio/encoding/json"

	"github.com/mcp-eval/engine/pkg/types"
)

// GenerateMarkdown writes a Markdown-formatted report to w.
func GenerateMarkdown(w io.Writer, r *Report) error {
	title := r.Scenario
	if title == "" {
		title = "Trajectory Comparison"
	}
	if _, err := fmt.Fprintf(w, "## %s\n\n", title); err != nil {
		return err
	}

	res := r.Result
	if _, err := fmt.Fprintf(w, "**Verdict:** %s %s (score %.3f, threshold %.2f)\n\n",
		verdictIcon(r.Verdict), r.Verdict, res.OverallScore, res.PassThreshold); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "**Status:** current %s, baseline %s (trajectory score %.3f, tool count diff %+d)\n\n",
		res.ExecutionStatus, res.BaselineStatus, res.TrajectoryScore, res.ToolCountDiff); err != nil {
		return err
	}

	if res.BlockingStep != nil {
		if _, err := fmt.Fprintf(w, "**Blocked at step %d**, comparison stopped early.\n\n", *res.BlockingStep); err != nil {
			return err
		}
	}

	if len(res.PerCallResults) == 0 {
		if _, err := fmt.Fprintln(w, "_No aligned calls to compare._"); err != nil {
			return err
		}
	} else {
		if _, err := fmt.Fprintln(w, "| # | Label | Score | Current | Baseline |"); err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w, "|---|-------|-------|---------|----------|"); err != nil {
			return err
		}
		for _, pc := range res.PerCallResults {
			if _, err := fmt.Fprintf(w, "| %d | %s %s | %.3f | %s | %s |\n",
				pc.Index, labelIcon(pc.Label), pc.Label, pc.Score,
				callCell(pc.Current), callCell(pc.Baseline)); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}

	if len(res.FailureAnalysis.NewFailures) > 0 {
		if _, err := fmt.Fprintf(w, "**New failures:** %s\n\n",
			strings.Join(res.FailureAnalysis.NewFailures, ", ")); err != nil {
			return err
		}
	}
	if len(res.FailureAnalysis.ResolvedFailures) > 0 {
		if _, err := fmt.Fprintf(w, "**Resolved failures:** %s\n\n",
			strings.Join(res.FailureAnalysis.ResolvedFailures, ", ")); err != nil {
			return err
		}
	}

	if len(r.Recommendations) > 0 {
		if _, err := fmt.Fprintln(w, "### Recommendations"); err != nil {
			return err
		}
		for _, rec := range r.Recommendations {
			if _, err := fmt.Fprintf(w, "- %s\n", rec); err != nil {
				return err
			}
		}
	}

	return nil
}

const maxCellLen = 80

func callCell(call *types.ToolCallRecord) string {
	if call == nil {
		return "(absent)"
	}
	args, _ := json.Marshal(call.ToolInput)
	cell := fmt.Sprintf("`%s(%s)`", call.ToolName, args)
	cell = strings.ReplaceAll(cell, "|", "\\|")
	if len(cell) > maxCellLen {
		cell = cell[:maxCellLen-4] + "...`"
	}
	return cell
}

func verdictIcon(verdict string) string {
	if verdict == "PASS" {
		return ":white_check_mark:"
	}
	return ":x:"
}

func labelIcon(label string) string {
	switch label {
	case types.LabelExactMatch:
		return ":white_check_mark:"
	case types.LabelSimilar:
		return ":large_blue_circle:"
	case types.LabelPartial:
		return ":warning:"
	default:
		return ":x:"
	}
}
