// Package analysis classifies captured trajectories: a single linear walk
// over the call records that detects failures and critical blocking points.
package analysis

import (
	"sort"
	"strings"

	"github.com/mcp-eval/engine/pkg/types"
)

// DefaultCriticalKeywords are the operation keywords whose failure
// invalidates the reliability of all subsequent calls in a trajectory.
var DefaultCriticalKeywords = []string{"create", "add", "initialize", "connect", "setup", "install"}

// Analyzer classifies call sequences. The keyword set is fixed at
// construction; an Analyzer is safe for concurrent use.
type Analyzer struct {
	keywords []string
}

// New returns an Analyzer with the given critical-operation keywords,
// matched case-insensitively as substrings of the operation field. A nil or
// empty set falls back to DefaultCriticalKeywords.
func New(keywords []string) *Analyzer {
	if len(keywords) == 0 {
		keywords = DefaultCriticalKeywords
	}
	lowered := make([]string, len(keywords))
	for i, k := range keywords {
		lowered[i] = strings.ToLower(k)
	}
	return &Analyzer{keywords: lowered}
}

// IsCritical reports whether the operation matches any critical keyword.
func (a *Analyzer) IsCritical(operation string) bool {
	if operation == "" {
		return false
	}
	op := strings.ToLower(operation)
	for _, k := range a.keywords {
		if strings.Contains(op, k) {
			return true
		}
	}
	return false
}

// AnalyzeStatus walks the records once, in order. The scan stops at the
// first failed call whose operation is critical: once a critical
// precondition has failed, the remainder of the log is unreliable and is
// not inspected. Without a blocking failure the status is FAILED when any
// failures were seen, EMPTY for an empty input, and SUCCESS otherwise.
func (a *Analyzer) AnalyzeStatus(calls []types.ToolCallRecord) *types.ExecutionAnalysis {
	failures := make(map[string]struct{})
	var blockingStep *int
	earlyStopped := false

	for i := range calls {
		call := &calls[i]
		if !call.Failed() {
			continue
		}
		failures[call.FailureSignature()] = struct{}{}

		if a.IsCritical(call.Operation()) {
			step := i
			blockingStep = &step
			earlyStopped = true
			break
		}
	}

	var status string
	switch {
	case earlyStopped && blockingStep != nil:
		status = types.StatusBlocked
	case len(failures) > 0:
		status = types.StatusFailed
	case len(calls) == 0:
		status = types.StatusEmpty
	default:
		status = types.StatusSuccess
	}

	return &types.ExecutionAnalysis{
		Status:       status,
		Failures:     sortedSet(failures),
		BlockingStep: blockingStep,
		EarlyStopped: earlyStopped,
		TotalCalls:   len(calls),
	}
}

// DetectCascade is the informational second pass: it lists every failed
// call and marks non-critical failures that follow a critical one as caused
// by it. Scoring never consults this output.
func (a *Analyzer) DetectCascade(calls []types.ToolCallRecord) []types.CascadeEntry {
	var cascade []types.CascadeEntry
	criticalSeen := false

	for i := range calls {
		call := &calls[i]
		if !call.Failed() {
			continue
		}
		op := call.Operation()
		isCritical := a.IsCritical(op)

		errMsg := call.Error
		if errMsg == "" {
			errMsg = "tool returned error"
		}

		cascade = append(cascade, types.CascadeEntry{
			Step:                   i,
			Tool:                   call.ToolName,
			Operation:              op,
			Error:                  errMsg,
			IsCritical:             isCritical,
			CausedByEarlierFailure: criticalSeen && !isCritical,
		})

		if isCritical {
			criticalSeen = true
		}
	}
	return cascade
}

// CriticalOperations lists every call whose operation matches a critical
// keyword, with its outcome.
func (a *Analyzer) CriticalOperations(calls []types.ToolCallRecord) []types.CriticalOperation {
	var ops []types.CriticalOperation
	for i := range calls {
		call := &calls[i]
		op := call.Operation()
		if !a.IsCritical(op) {
			continue
		}
		ops = append(ops, types.CriticalOperation{
			Operation: op,
			Tool:      call.ToolName,
			Success:   !call.Failed(),
		})
	}
	return ops
}

func sortedSet(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
