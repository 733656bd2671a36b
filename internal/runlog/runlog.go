// Package runlog reads and writes captured execution logs: the document an
// agent-orchestration collaborator produces while recording what an agent
// did for one scenario.
package runlog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/segmentio/encoding/json"

	"github.com/mcp-eval/engine/pkg/types"
)

// ExecutionLog is one recorded run of a scenario.
type ExecutionLog struct {
	Scenario      string                 `json:"scenario"`
	Mode          string                 `json:"mode,omitempty"`
	ExecutionTime string                 `json:"execution_time,omitempty"`
	UserIntent    string                 `json:"user_intent,omitempty"`
	ToolCalls     []types.ToolCallRecord `json:"tool_calls_summary"`
	Conversation  []types.DialogTurn     `json:"conversation_log,omitempty"`
}

const (
	// DetailedLogName is the canonical file name of a saved log.
	DetailedLogName = "detailed_log.json"
	// TrajectoryName is the human-readable trajectory companion file.
	TrajectoryName = "trajectory.txt"

	ModeBaseline   = "baseline"
	ModeEvaluation = "evaluation"
)

// Load reads an execution log from path. Sparse documents are fine: missing
// names, inputs, or responses degrade to empty values rather than failing.
// Only unreadable files and malformed JSON are errors; a CI pipeline
// scoring thousands of captured logs must never crash on one bad record.
func Load(path string) (*ExecutionLog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read execution log: %w", err)
	}
	var log ExecutionLog
	if err := json.Unmarshal(data, &log); err != nil {
		return nil, fmt.Errorf("parse execution log %s: %w", path, err)
	}
	Normalize(&log)
	return &log, nil
}

// Save writes the log into dir as detailed_log.json plus a readable
// trajectory.txt, creating dir if needed.
func Save(dir string, log *ExecutionLog) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	data, err := json.MarshalIndent(log, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal execution log: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, DetailedLogName), data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", DetailedLogName, err)
	}

	if err := os.WriteFile(filepath.Join(dir, TrajectoryName), []byte(FormatTrajectory(log)), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", TrajectoryName, err)
	}
	return nil
}

// Normalize trims the scenario name and drops surrounding whitespace from
// tool names.
func Normalize(log *ExecutionLog) {
	log.Scenario = strings.TrimSpace(log.Scenario)
	for i := range log.ToolCalls {
		log.ToolCalls[i].ToolName = strings.TrimSpace(log.ToolCalls[i].ToolName)
	}
}

// FormatTrajectory renders the log as the line-oriented trajectory text the
// original recorder wrote next to every baseline.
func FormatTrajectory(log *ExecutionLog) string {
	var sb strings.Builder
	if log.UserIntent != "" {
		fmt.Fprintf(&sb, "USER: %s\n", log.UserIntent)
	}
	for i := range log.ToolCalls {
		call := &log.ToolCalls[i]
		args, _ := json.Marshal(call.ToolInput)
		fmt.Fprintf(&sb, "TOOL_CALL: %s(%s)\n", call.ToolName, args)
		switch {
		case call.Error != "":
			fmt.Fprintf(&sb, "TOOL_ERROR: %s\n", call.Error)
		case call.Response != nil && call.Response.IsError:
			fmt.Fprintf(&sb, "TOOL_ERROR: %s\n", preview(call.Response.Content.StringForm()))
		case call.Response != nil:
			fmt.Fprintf(&sb, "TOOL_RESULT: %s\n", preview(call.Response.Content.StringForm()))
		}
	}
	return sb.String()
}

const previewLimit = 200

func preview(s string) string {
	if len(s) <= previewLimit {
		return s
	}
	return s[:previewLimit] + "..."
}
