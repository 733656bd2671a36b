package runlog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mcp-eval/engine/pkg/types"
)

func writeLog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "detailed_log.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	t.Run("full document", func(t *testing.T) {
		path := writeLog(t, `{
			"scenario": "  kg-basic  ",
			"mode": "baseline",
			"user_intent": "create an entity",
			"tool_calls_summary": [
				{
					"tool_name": " mcp__kg__write ",
					"tool_input": {"operation": "create_entities", "count": 2},
					"response": {"content": "created", "is_error": false}
				}
			]
		}`)

		log, err := Load(path)
		if err != nil {
			t.Fatal(err)
		}
		if log.Scenario != "kg-basic" {
			t.Errorf("scenario = %q, want trimmed name", log.Scenario)
		}
		if len(log.ToolCalls) != 1 {
			t.Fatalf("tool calls = %d, want 1", len(log.ToolCalls))
		}
		call := log.ToolCalls[0]
		if call.ToolName != "mcp__kg__write" {
			t.Errorf("tool name = %q, want trimmed", call.ToolName)
		}
		if call.Operation() != "create_entities" {
			t.Errorf("operation = %q", call.Operation())
		}
		if n := call.ToolInput["count"]; n.Kind() != types.KindNumber || n.NumberVal() != 2 {
			t.Errorf("count = %v", n)
		}
	})

	t.Run("sparse document degrades gracefully", func(t *testing.T) {
		path := writeLog(t, `{"tool_calls_summary": [{}]}`)
		log, err := Load(path)
		if err != nil {
			t.Fatal(err)
		}
		if len(log.ToolCalls) != 1 || log.ToolCalls[0].ToolName != "" {
			t.Errorf("sparse call = %+v", log.ToolCalls)
		}
		if log.ToolCalls[0].Failed() {
			t.Error("a sparse record is not a failure")
		}
	})

	t.Run("malformed JSON", func(t *testing.T) {
		path := writeLog(t, `{"scenario": `)
		if _, err := Load(path); err == nil {
			t.Error("expected parse error")
		}
	})
}

func TestSaveRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run-001")
	log := &ExecutionLog{
		Scenario:   "kg-basic",
		Mode:       ModeBaseline,
		UserIntent: "create an entity",
		ToolCalls: []types.ToolCallRecord{
			{
				ToolName:  "mcp__kg__write",
				ToolInput: map[string]types.Value{"operation": types.String("create_entities")},
				Response:  &types.ToolResponse{Content: types.String("created")},
			},
		},
	}

	if err := Save(dir, log); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(filepath.Join(dir, DetailedLogName))
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Scenario != log.Scenario || len(loaded.ToolCalls) != 1 {
		t.Errorf("round trip lost data: %+v", loaded)
	}

	trajectory, err := os.ReadFile(filepath.Join(dir, TrajectoryName))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(trajectory), "TOOL_CALL: mcp__kg__write") {
		t.Errorf("trajectory.txt missing call line:\n%s", trajectory)
	}
}

func TestFormatTrajectory(t *testing.T) {
	log := &ExecutionLog{
		UserIntent: "create an entity",
		ToolCalls: []types.ToolCallRecord{
			{
				ToolName:  "mcp__kg__write",
				ToolInput: map[string]types.Value{"operation": types.String("create_entities")},
				Response:  &types.ToolResponse{Content: types.String("created")},
			},
			{
				ToolName: "mcp__kg__read",
				Error:    "timeout",
			},
			{
				ToolName: "mcp__kg__search",
				Response: &types.ToolResponse{Content: types.String("denied"), IsError: true},
			},
		},
	}

	out := FormatTrajectory(log)
	for _, want := range []string{
		"USER: create an entity",
		"TOOL_CALL: mcp__kg__write(",
		"TOOL_RESULT: created",
		"TOOL_ERROR: timeout",
		"TOOL_ERROR: denied",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("trajectory missing %q:\n%s", want, out)
		}
	}
}

func TestFormatTrajectoryTruncatesLongResults(t *testing.T) {
	long := strings.Repeat("x", previewLimit+50)
	log := &ExecutionLog{
		ToolCalls: []types.ToolCallRecord{
			{
				ToolName: "mcp__kg__read",
				Response: &types.ToolResponse{Content: types.String(long)},
			},
		},
	}
	out := FormatTrajectory(log)
	if !strings.Contains(out, strings.Repeat("x", previewLimit)+"...") {
		t.Error("long result was not truncated with an ellipsis")
	}
	if strings.Contains(out, long) {
		t.Error("full payload leaked into the trajectory text")
	}
}

func TestValidate(t *testing.T) {
	t.Run("nil log", func(t *testing.T) {
		if rpcErr := Validate(nil); rpcErr == nil {
			t.Error("expected error for nil log")
		}
	})

	t.Run("too many calls", func(t *testing.T) {
		log := &ExecutionLog{ToolCalls: make([]types.ToolCallRecord, MaxCallsPerLog+1)}
		rpcErr := Validate(log)
		if rpcErr == nil {
			t.Fatal("expected error")
		}
		if rpcErr.Code != types.ErrInvalidTrajectory {
			t.Errorf("code = %d, want %d", rpcErr.Code, types.ErrInvalidTrajectory)
		}
	})

	t.Run("normal log passes", func(t *testing.T) {
		log := &ExecutionLog{
			Scenario:  "kg-basic",
			ToolCalls: []types.ToolCallRecord{{ToolName: "mcp__kg__read"}},
		}
		if rpcErr := Validate(log); rpcErr != nil {
			t.Errorf("unexpected error: %+v", rpcErr)
		}
	})
}
