package scenario

import (
	"fmt"
	"strings"

	"github.com/mcp-eval/engine/internal/runlog"
)

// CheckResult is the outcome of one expectation check against a run log.
type CheckResult struct {
	Passed      bool   `json:"passed"`
	Explanation string `json:"explanation"`
}

// CheckToolsInOrder verifies that the expected tools appear in the recorded
// call sequence in order, not necessarily contiguously.
func CheckToolsInOrder(log *runlog.ExecutionLog, tools []string) CheckResult {
	if len(tools) == 0 {
		return CheckResult{Passed: true, Explanation: "no expected tools declared."}
	}

	names := callNames(log)
	indices := make([]int, 0, len(tools))
	cursor := 0
	for _, tool := range tools {
		found := false
		for i := cursor; i < len(names); i++ {
			if names[i] == tool {
				indices = append(indices, i)
				cursor = i + 1
				found = true
				break
			}
		}
		if !found {
			return CheckResult{
				Passed:      false,
				Explanation: fmt.Sprintf("tool sequence %v not found in order; missing %q after position %d", tools, tool, cursor),
			}
		}
	}
	return CheckResult{
		Passed:      true,
		Explanation: fmt.Sprintf("tool sequence %v found in order at calls %v.", tools, indices),
	}
}

// CheckRequiredTools verifies that every listed tool was called at least once.
func CheckRequiredTools(log *runlog.ExecutionLog, tools []string) CheckResult {
	if len(tools) == 0 {
		return CheckResult{Passed: true, Explanation: "no required tools declared."}
	}

	nameSet := make(map[string]bool)
	for _, name := range callNames(log) {
		nameSet[name] = true
	}
	var missing []string
	for _, tool := range tools {
		if !nameSet[tool] {
			missing = append(missing, tool)
		}
	}
	if len(missing) > 0 {
		return CheckResult{
			Passed:      false,
			Explanation: fmt.Sprintf("required tools not called: %v", missing),
		}
	}
	return CheckResult{
		Passed:      true,
		Explanation: fmt.Sprintf("all required tools called: %v.", tools),
	}
}

// CheckSuccessCriteria matches each criterion case-insensitively against the
// recorded tool responses and errors, returning the criteria met and missed.
func CheckSuccessCriteria(log *runlog.ExecutionLog, criteria []string) (met, missing []string) {
	var corpus strings.Builder
	for i := range log.ToolCalls {
		call := &log.ToolCalls[i]
		if call.Response != nil {
			corpus.WriteString(strings.ToLower(call.Response.Content.StringForm()))
			corpus.WriteByte('\n')
		}
		if call.Error != "" {
			corpus.WriteString(strings.ToLower(call.Error))
			corpus.WriteByte('\n')
		}
	}
	haystack := corpus.String()

	for _, criterion := range criteria {
		if strings.Contains(haystack, strings.ToLower(criterion)) {
			met = append(met, criterion)
		} else {
			missing = append(missing, criterion)
		}
	}
	return met, missing
}

func callNames(log *runlog.ExecutionLog) []string {
	names := make([]string, len(log.ToolCalls))
	for i := range log.ToolCalls {
		names[i] = log.ToolCalls[i].ToolName
	}
	return names
}
