package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/mcp-eval/engine/pkg/types"
)

func newTestServer(t *testing.T, in io.Reader, out io.Writer) *Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := New(in, out, logger)
	RegisterBuiltinHandlers(s, nil)
	return s
}

func request(t *testing.T, id int64, method string, params any) string {
	t.Helper()
	raw, err := json.Marshal(params)
	if err != nil {
		t.Fatal(err)
	}
	req, err := json.Marshal(types.Request{JSONRPC: "2.0", ID: id, Method: method, Params: raw})
	if err != nil {
		t.Fatal(err)
	}
	return string(req)
}

func runServer(t *testing.T, lines ...string) []types.Response {
	t.Helper()
	in := strings.NewReader(strings.Join(lines, "\n") + "\n")
	var out bytes.Buffer
	s := newTestServer(t, in, &out)
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	var responses []types.Response
	scanner := bufio.NewScanner(&out)
	scanner.Buffer(make([]byte, 1<<20), 1<<20)
	for scanner.Scan() {
		var resp types.Response
		if err := json.Unmarshal(scanner.Bytes(), &resp); err != nil {
			t.Fatalf("bad response line %q: %v", scanner.Text(), err)
		}
		responses = append(responses, resp)
	}
	return responses
}

func initRequest(t *testing.T, id int64) string {
	return request(t, id, "initialize", types.InitializeParams{
		SDKName:         "test-sdk",
		SDKVersion:      "1.0.0",
		ProtocolVersion: 1,
	})
}

func okCall(tool, operation string) types.ToolCallRecord {
	return types.ToolCallRecord{
		ToolName:  tool,
		ToolInput: map[string]types.Value{"operation": types.String(operation)},
		Response:  &types.ToolResponse{Content: types.String("ok")},
	}
}

func TestInitialize(t *testing.T) {
	responses := runServer(t, initRequest(t, 1))
	if len(responses) != 1 {
		t.Fatalf("responses = %d, want 1", len(responses))
	}
	if responses[0].Error != nil {
		t.Fatalf("unexpected error: %+v", responses[0].Error)
	}

	var result types.InitializeResult
	if err := json.Unmarshal(responses[0].Result, &result); err != nil {
		t.Fatal(err)
	}
	if result.EngineVersion != engineVersion || result.ProtocolVersion != protocolVersion {
		t.Errorf("result = %+v", result)
	}
	if result.PassThreshold != 0.8 || result.DomainToolPrefix != "mcp__" {
		t.Errorf("config defaults = %v / %q", result.PassThreshold, result.DomainToolPrefix)
	}
	if len(result.Capabilities) == 0 {
		t.Error("expected capabilities list")
	}
}

func TestInitializeWrongProtocolVersion(t *testing.T) {
	responses := runServer(t, request(t, 1, "initialize", types.InitializeParams{ProtocolVersion: 99}))
	if len(responses) != 1 || responses[0].Error == nil {
		t.Fatalf("responses = %+v, want protocol error", responses)
	}
	if responses[0].Error.Data.ErrorType != types.ErrTypeSessionError {
		t.Errorf("error type = %s", responses[0].Error.Data.ErrorType)
	}
}

func TestMethodsBeforeInitialize(t *testing.T) {
	responses := runServer(t, request(t, 1, "analyze_status", types.AnalyzeStatusParams{}))
	if len(responses) != 1 || responses[0].Error == nil {
		t.Fatal("expected session error before initialize")
	}
	if responses[0].Error.Code != types.ErrSessionError {
		t.Errorf("code = %d, want %d", responses[0].Error.Code, types.ErrSessionError)
	}
}

func TestAnalyzeStatus(t *testing.T) {
	responses := runServer(t,
		initRequest(t, 1),
		request(t, 2, "analyze_status", types.AnalyzeStatusParams{
			Calls: []types.ToolCallRecord{
				{
					ToolName:  "mcp__kg__write",
					ToolInput: map[string]types.Value{"operation": types.String("create_entities")},
					Error:     "permission denied",
				},
			},
		}),
	)
	if len(responses) != 2 {
		t.Fatalf("responses = %d, want 2", len(responses))
	}
	if responses[1].Error != nil {
		t.Fatalf("unexpected error: %+v", responses[1].Error)
	}

	var analysis types.ExecutionAnalysis
	if err := json.Unmarshal(responses[1].Result, &analysis); err != nil {
		t.Fatal(err)
	}
	if analysis.Status != types.StatusBlocked {
		t.Errorf("status = %s, want BLOCKED", analysis.Status)
	}
}

func TestCompareTrajectories(t *testing.T) {
	calls := []types.ToolCallRecord{okCall("mcp__kg__read", "read_graph")}
	responses := runServer(t,
		initRequest(t, 1),
		request(t, 2, "compare_trajectories", types.CompareTrajectoriesParams{
			Current:  calls,
			Baseline: calls,
		}),
	)
	if len(responses) != 2 || responses[1].Error != nil {
		t.Fatalf("responses = %+v", responses)
	}

	var result types.ComparisonResult
	if err := json.Unmarshal(responses[1].Result, &result); err != nil {
		t.Fatal(err)
	}
	if result.OverallScore != 1.0 || !result.Passed {
		t.Errorf("result = %+v, want passing identical comparison", result)
	}
}

func TestCompareTrajectoriesWithOverrides(t *testing.T) {
	threshold := 0.99
	current := []types.ToolCallRecord{
		okCall("mcp__kg__read", "read_graph"),
		okCall("mcp__kg__open", "open_nodes"),
	}
	baseline := []types.ToolCallRecord{
		okCall("mcp__kg__read", "read_graph"),
		okCall("mcp__kg__search", "search_nodes"),
	}

	responses := runServer(t,
		initRequest(t, 1),
		request(t, 2, "compare_trajectories", types.CompareTrajectoriesParams{
			Current:  current,
			Baseline: baseline,
			Config:   &types.ConfigOverrides{PassThreshold: &threshold},
		}),
	)
	if responses[1].Error != nil {
		t.Fatalf("unexpected error: %+v", responses[1].Error)
	}

	var result types.ComparisonResult
	if err := json.Unmarshal(responses[1].Result, &result); err != nil {
		t.Fatal(err)
	}
	if result.PassThreshold != 0.99 {
		t.Errorf("pass threshold = %v, want the override", result.PassThreshold)
	}
	if result.Passed {
		t.Errorf("score %v should fail the raised threshold", result.OverallScore)
	}
}

func TestInvalidConfigOverrides(t *testing.T) {
	bad := 1.5
	responses := runServer(t,
		initRequest(t, 1),
		request(t, 2, "compare_trajectories", types.CompareTrajectoriesParams{
			Config: &types.ConfigOverrides{PassThreshold: &bad},
		}),
	)
	if responses[1].Error == nil {
		t.Fatal("expected config error")
	}
	if responses[1].Error.Code != types.ErrInvalidConfig {
		t.Errorf("code = %d, want %d", responses[1].Error.Code, types.ErrInvalidConfig)
	}
}

func TestShutdownReportsCounters(t *testing.T) {
	calls := []types.ToolCallRecord{okCall("mcp__kg__read", "read_graph")}
	responses := runServer(t,
		initRequest(t, 1),
		request(t, 2, "compare_trajectories", types.CompareTrajectoriesParams{Current: calls, Baseline: calls}),
		request(t, 3, "analyze_status", types.AnalyzeStatusParams{Calls: calls}),
		request(t, 4, "analyze_status", types.AnalyzeStatusParams{Calls: calls}),
		request(t, 5, "shutdown", nil),
	)
	if len(responses) != 5 {
		t.Fatalf("responses = %d, want 5", len(responses))
	}

	var result types.ShutdownResult
	if err := json.Unmarshal(responses[4].Result, &result); err != nil {
		t.Fatal(err)
	}
	if result.ComparisonsCompleted != 1 || result.AnalysesCompleted != 2 {
		t.Errorf("counters = %+v, want 1 comparison and 2 analyses", result)
	}
}

func TestShutdownStopsTheServer(t *testing.T) {
	responses := runServer(t,
		initRequest(t, 1),
		request(t, 2, "shutdown", nil),
		request(t, 3, "analyze_status", types.AnalyzeStatusParams{}),
	)
	// The request after shutdown is never dispatched.
	if len(responses) != 2 {
		t.Errorf("responses = %d, want 2", len(responses))
	}
}

func TestUnknownMethod(t *testing.T) {
	responses := runServer(t, request(t, 1, "no_such_method", nil))
	if len(responses) != 1 || responses[0].Error == nil {
		t.Fatal("expected method-not-found error")
	}
	if responses[0].Error.Code != -32601 {
		t.Errorf("code = %d, want -32601", responses[0].Error.Code)
	}
}

func TestParseError(t *testing.T) {
	responses := runServer(t, "{not json")
	if len(responses) != 1 || responses[0].Error == nil {
		t.Fatal("expected parse error")
	}
	if responses[0].Error.Code != -32700 {
		t.Errorf("code = %d, want -32700", responses[0].Error.Code)
	}
}

func TestInvalidRequestEnvelope(t *testing.T) {
	responses := runServer(t, `{"jsonrpc":"1.0","id":1,"method":"initialize"}`)
	if len(responses) != 1 || responses[0].Error == nil {
		t.Fatal("expected invalid-request error")
	}
	if responses[0].Error.Code != -32600 {
		t.Errorf("code = %d, want -32600", responses[0].Error.Code)
	}
}

func TestRateLimitedServerStillAnswers(t *testing.T) {
	in := strings.NewReader(initRequest(t, 1) + "\n")
	var out bytes.Buffer
	s := newTestServer(t, in, &out)
	s.SetRateLimit(1000)
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(out.String(), fmt.Sprintf("%q", engineVersion)) {
		t.Errorf("missing initialize response: %s", out.String())
	}
}
