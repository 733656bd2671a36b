package types

import "encoding/json"

// Request is a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int64           `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

// Response is a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int64           `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError represents a JSON-RPC error object.
type RPCError struct {
	Code    int        `json:"code"`
	Message string     `json:"message"`
	Data    *ErrorData `json:"data,omitempty"`
}

// ErrorData holds structured error detail.
type ErrorData struct {
	ErrorType string `json:"error_type"`
	Retryable bool   `json:"retryable"`
	Detail    string `json:"detail"`
}

// InitializeParams holds parameters for the initialize method.
type InitializeParams struct {
	SDKName         string `json:"sdk_name"`
	SDKVersion      string `json:"sdk_version"`
	ProtocolVersion int    `json:"protocol_version"`
}

// InitializeResult holds the result of the initialize method.
type InitializeResult struct {
	EngineVersion    string   `json:"engine_version"`
	ProtocolVersion  int      `json:"protocol_version"`
	Capabilities     []string `json:"capabilities"`
	MaxLogSizeBytes  int      `json:"max_log_size_bytes"`
	MaxCallsPerLog   int      `json:"max_calls_per_log"`
	PassThreshold    float64  `json:"pass_threshold"`
	DomainToolPrefix string   `json:"domain_tool_prefix"`
}

// ConfigOverrides carries optional per-request configuration. Unset fields
// fall back to the server's active configuration.
type ConfigOverrides struct {
	CriticalOperationKeywords []string `json:"critical_operation_keywords,omitempty"`
	MaxNumericDiff            *float64 `json:"max_numeric_diff,omitempty"`
	PassThreshold             *float64 `json:"pass_threshold,omitempty"`
	DomainToolPrefix          *string  `json:"domain_tool_prefix,omitempty"`
}

// CompareTrajectoriesParams holds parameters for the compare_trajectories method.
type CompareTrajectoriesParams struct {
	Current  []ToolCallRecord `json:"current"`
	Baseline []ToolCallRecord `json:"baseline"`
	Config   *ConfigOverrides `json:"config,omitempty"`
}

// AnalyzeStatusParams holds parameters for the analyze_status method.
type AnalyzeStatusParams struct {
	Calls  []ToolCallRecord `json:"calls"`
	Config *ConfigOverrides `json:"config,omitempty"`
}

// ShutdownResult holds the result of the shutdown method.
type ShutdownResult struct {
	ComparisonsCompleted int `json:"comparisons_completed"`
	AnalysesCompleted    int `json:"analyses_completed"`
}
