package runlog

import (
	"fmt"

	"github.com/segmentio/encoding/json"

	"github.com/mcp-eval/engine/pkg/types"
)

const (
	MaxLogSize     = 10485760 // 10 MB
	MaxCallsPerLog = 10000
)

// Validate enforces the caller contract on a loaded log. Sparse records are
// acceptable; what is rejected is the class of inputs the engine cannot score
// at all: a nil log where a trajectory was promised, or logs past the size
// limits.
func Validate(log *ExecutionLog) *types.RPCError {
	if log == nil {
		return types.NewRPCError(
			types.ErrInvalidTrajectory,
			"execution log is nil",
			types.ErrTypeInvalidTrajectory,
			false,
			"A trajectory comparison requires an execution log document.",
		)
	}

	if len(log.ToolCalls) > MaxCallsPerLog {
		return types.NewRPCError(
			types.ErrInvalidTrajectory,
			fmt.Sprintf("execution log exceeds max calls: %d > %d", len(log.ToolCalls), MaxCallsPerLog),
			types.ErrTypeInvalidTrajectory,
			false,
			fmt.Sprintf("Reduce the number of recorded tool calls to %d or fewer.", MaxCallsPerLog),
		)
	}

	data, err := json.Marshal(log)
	if err != nil {
		return types.NewRPCError(
			types.ErrInvalidTrajectory,
			"execution log could not be serialized for size check",
			types.ErrTypeInvalidTrajectory,
			false,
			"Ensure all log fields contain valid JSON-serializable values.",
		)
	}
	if len(data) > MaxLogSize {
		return types.NewRPCError(
			types.ErrInvalidTrajectory,
			fmt.Sprintf("execution log exceeds max size: %d > %d bytes", len(data), MaxLogSize),
			types.ErrTypeInvalidTrajectory,
			false,
			fmt.Sprintf("Truncate tool responses before recording. Max allowed: %d bytes (10 MB).", MaxLogSize),
		)
	}

	return nil
}
