package types

// ToolCallRecord is one tool invocation as an agent actually performed it.
// Records are immutable once captured. A record missing a name or input map
// is still well-formed: the engine treats those as empty rather than erroring.
type ToolCallRecord struct {
	ToolName  string           `json:"tool_name"`
	ToolID    string           `json:"tool_id,omitempty"`
	ToolInput map[string]Value `json:"tool_input,omitempty"`
	Response  *ToolResponse    `json:"response,omitempty"`
	Error     string           `json:"error,omitempty"`
	Timestamp string           `json:"timestamp,omitempty"`
}

// ToolResponse holds the outcome payload of a tool call.
type ToolResponse struct {
	Content Value `json:"content,omitempty"`
	IsError bool  `json:"is_error,omitempty"`
}

// Failed reports whether the call carried an explicit error or an error
// marker embedded in its response.
func (r *ToolCallRecord) Failed() bool {
	if r.Error != "" {
		return true
	}
	return r.Response != nil && r.Response.IsError
}

// Operation returns the operation sub-field of the call's input, or "" when
// the input has no string-valued "operation" field.
func (r *ToolCallRecord) Operation() string {
	v, ok := r.ToolInput["operation"]
	if !ok || v.Kind() != KindString {
		return ""
	}
	return v.StringVal()
}

// FailureSignature identifies a failure as "tool:operation", or just the
// tool name when the call carries no operation field.
func (r *ToolCallRecord) FailureSignature() string {
	if op := r.Operation(); op != "" {
		return r.ToolName + ":" + op
	}
	return r.ToolName
}

// DialogTurn is one turn of a recorded multi-turn session.
type DialogTurn struct {
	Speaker   string           `json:"speaker"`
	Message   string           `json:"message,omitempty"`
	ToolCalls []ToolCallRecord `json:"tool_calls,omitempty"`
}
