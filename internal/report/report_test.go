package report

import (
	"strings"
	"testing"

	"github.com/segmentio/encoding/json"

	"github.com/mcp-eval/engine/pkg/types"
)

func passingResult() *types.ComparisonResult {
	return &types.ComparisonResult{
		OverallScore:    0.95,
		TrajectoryScore: 0.94,
		ExecutionStatus: types.StatusSuccess,
		BaselineStatus:  types.StatusSuccess,
		Passed:          true,
		PassThreshold:   0.8,
		PerCallResults: []types.PerCallResult{
			{
				Index: 0,
				Score: 1.0,
				Label: types.LabelExactMatch,
				Current: &types.ToolCallRecord{
					ToolName:  "mcp__kg__read",
					ToolInput: map[string]types.Value{"operation": types.String("read_graph")},
				},
				Baseline: &types.ToolCallRecord{
					ToolName:  "mcp__kg__read",
					ToolInput: map[string]types.Value{"operation": types.String("read_graph")},
				},
			},
		},
	}
}

func blockedResult() *types.ComparisonResult {
	step := 1
	return &types.ComparisonResult{
		OverallScore:    0.0,
		ExecutionStatus: types.StatusBlocked,
		BaselineStatus:  types.StatusSuccess,
		Passed:          false,
		PassThreshold:   0.8,
		PerCallResults:  []types.PerCallResult{},
		FailureAnalysis: types.FailureAnalysis{
			NewFailures: []string{"mcp__kg__write:create_entities"},
		},
		ToolCountDiff:      -3,
		EarlyStopped:       true,
		BlockingStep:       &step,
		RegressionSeverity: types.SeverityCritical,
	}
}

func TestNew(t *testing.T) {
	rep := New("kg-basic", passingResult())
	if rep.Verdict != "PASS" {
		t.Errorf("verdict = %s, want PASS", rep.Verdict)
	}
	if rep.ReportType != "trajectory_comparison" || rep.Version != reportVersion {
		t.Errorf("header = %s/%s", rep.ReportType, rep.Version)
	}
	if rep.Scenario != "kg-basic" {
		t.Errorf("scenario = %s", rep.Scenario)
	}

	failed := New("kg-basic", blockedResult())
	if failed.Verdict != "FAIL" {
		t.Errorf("verdict = %s, want FAIL", failed.Verdict)
	}
}

func TestRecommendations(t *testing.T) {
	t.Run("blocked run", func(t *testing.T) {
		recs := Recommendations(blockedResult())
		joined := strings.Join(recs, "\n")
		for _, want := range []string{
			"Critical regression",
			"trajectory mismatch",
			"tool usage count",
			"status changed",
			"New failures",
		} {
			if !strings.Contains(joined, want) {
				t.Errorf("recommendations missing %q:\n%s", want, joined)
			}
		}
	})

	t.Run("excellent run suggests promotion", func(t *testing.T) {
		recs := Recommendations(passingResult())
		joined := strings.Join(recs, "\n")
		if !strings.Contains(joined, "promoting this run to a new baseline") {
			t.Errorf("recommendations = %v", recs)
		}
	})
}

func TestGenerateJSON(t *testing.T) {
	data, err := GenerateJSON(New("kg-basic", passingResult()))
	if err != nil {
		t.Fatal(err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded["report_type"] != "trajectory_comparison" {
		t.Errorf("report_type = %v", decoded["report_type"])
	}
	if decoded["verdict"] != "PASS" {
		t.Errorf("verdict = %v", decoded["verdict"])
	}
}

func TestGenerateMarkdown(t *testing.T) {
	var sb strings.Builder
	if err := GenerateMarkdown(&sb, New("kg-basic", passingResult())); err != nil {
		t.Fatal(err)
	}
	out := sb.String()

	for _, want := range []string{
		"## kg-basic",
		"**Verdict:**",
		"PASS",
		"| # | Label | Score | Current | Baseline |",
		"EXACT_MATCH",
		"mcp__kg__read",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown missing %q:\n%s", want, out)
		}
	}
}

func TestGenerateMarkdownBlocked(t *testing.T) {
	var sb strings.Builder
	if err := GenerateMarkdown(&sb, New("kg-basic", blockedResult())); err != nil {
		t.Fatal(err)
	}
	out := sb.String()

	if !strings.Contains(out, "Blocked at step 1") {
		t.Errorf("markdown missing blocking note:\n%s", out)
	}
	if !strings.Contains(out, "No aligned calls to compare") {
		t.Errorf("markdown missing empty per-call note:\n%s", out)
	}
}

func TestGenerateHTML(t *testing.T) {
	var sb strings.Builder
	if err := GenerateHTML(&sb, New("kg-basic", passingResult())); err != nil {
		t.Fatal(err)
	}
	out := sb.String()

	for _, want := range []string{
		"<!DOCTYPE html>",
		"kg-basic",
		`class="pass"`,
		"mcp__kg__read",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("html missing %q", want)
		}
	}
}
