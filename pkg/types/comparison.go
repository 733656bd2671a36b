package types

const (
	StatusSuccess = "SUCCESS"
	StatusPartial = "PARTIAL"
	StatusFailed  = "FAILED"
	StatusBlocked = "BLOCKED"
	StatusEmpty   = "EMPTY"

	LabelExactMatch = "EXACT_MATCH"
	LabelSimilar    = "SIMILAR"
	LabelPartial    = "PARTIAL"
	LabelMismatch   = "MISMATCH"
	LabelExtra      = "EXTRA"
	LabelMissing    = "MISSING"

	SeverityCritical = "CRITICAL"
)

// ExecutionAnalysis classifies one captured trajectory. It is derived
// deterministically from the records on every comparison and never persisted
// by the engine.
type ExecutionAnalysis struct {
	Status string `json:"status"`
	// Failures holds sorted "tool:operation" signatures of every failed call
	// seen before the scan stopped.
	Failures []string `json:"failures"`
	// BlockingStep is the index of the first critical failure. Set if and
	// only if Status is BLOCKED.
	BlockingStep *int `json:"blocking_step,omitempty"`
	EarlyStopped bool `json:"early_stopped"`
	TotalCalls   int  `json:"total_calls"`
}

// PerCallResult classifies one position of the positional alignment between
// the two domain-filtered trajectories.
type PerCallResult struct {
	Index    int             `json:"index"`
	Score    float64         `json:"score"`
	Label    string          `json:"label"`
	Current  *ToolCallRecord `json:"current,omitempty"`
	Baseline *ToolCallRecord `json:"baseline,omitempty"`
}

// CascadeEntry describes one failed call in the informational cascade pass.
// Failures after a critical failure are marked as caused by it to aid review;
// the scoring path never consults this.
type CascadeEntry struct {
	Step                   int    `json:"step"`
	Tool                   string `json:"tool"`
	Operation              string `json:"operation,omitempty"`
	Error                  string `json:"error"`
	IsCritical             bool   `json:"is_critical"`
	CausedByEarlierFailure bool   `json:"caused_by_earlier_failure"`
}

// CriticalOperation records one critical-keyword operation and whether it
// succeeded in its trajectory.
type CriticalOperation struct {
	Operation string `json:"operation"`
	Tool      string `json:"tool"`
	Success   bool   `json:"success"`
}

// FailureAnalysis relates the failure sets of the two sides. All four sets
// are derivable by replaying the status analyzer over the same records.
type FailureAnalysis struct {
	CurrentFailures   []string            `json:"current_failures"`
	BaselineFailures  []string            `json:"baseline_failures"`
	NewFailures       []string            `json:"new_failures"`
	ResolvedFailures  []string            `json:"resolved_failures"`
	FailureCascade    []CascadeEntry      `json:"failure_cascade,omitempty"`
	CriticalRegressed []CriticalOperation `json:"critical_operations_regressed,omitempty"`
}

// ComparisonResult is the engine's verdict on a current run versus its
// baseline. Serializable to JSON for downstream report generation.
type ComparisonResult struct {
	OverallScore    float64 `json:"overall_score"`
	TrajectoryScore float64 `json:"trajectory_score"`
	ExecutionStatus string  `json:"execution_status"`
	BaselineStatus  string  `json:"baseline_status"`
	Passed          bool    `json:"passed"`
	PassThreshold   float64 `json:"pass_threshold"`
	// PerCallResults covers the longer of the two domain-filtered
	// trajectories, and is empty when the comparison short-circuited
	// (current BLOCKED against a SUCCESS baseline).
	PerCallResults     []PerCallResult `json:"per_call_results"`
	FailureAnalysis    FailureAnalysis `json:"failure_analysis"`
	ToolCountDiff      int             `json:"tool_count_diff"`
	EarlyStopped       bool            `json:"early_stopped"`
	BlockingStep       *int            `json:"blocking_step,omitempty"`
	RegressionSeverity string          `json:"regression_severity,omitempty"`
}

// DialogComparison is the session-level result of comparing two recorded
// multi-turn dialogs.
type DialogComparison struct {
	OverallSimilarity    float64             `json:"overall_similarity"`
	TrajectorySimilarity float64             `json:"trajectory_similarity"`
	DialogFlowSimilarity float64             `json:"dialog_flow_similarity"`
	TurnSimilarity       float64             `json:"turn_similarity"`
	Status               string              `json:"status"`
	CurrentTurns         int                 `json:"current_turns"`
	BaselineTurns        int                 `json:"baseline_turns"`
	CurrentToolCalls     int                 `json:"current_tool_calls"`
	BaselineToolCalls    int                 `json:"baseline_tool_calls"`
	TurnAnalysis         []TurnAnalysis      `json:"turn_by_turn,omitempty"`
	ToolUsage            ToolUsageComparison `json:"tool_usage"`
}

// TurnAnalysis describes one aligned turn pair of a dialog comparison.
type TurnAnalysis struct {
	Turn              int     `json:"turn"`
	CurrentPresent    bool    `json:"current_present"`
	BaselinePresent   bool    `json:"baseline_present"`
	CurrentSpeaker    string  `json:"current_speaker,omitempty"`
	BaselineSpeaker   string  `json:"baseline_speaker,omitempty"`
	CurrentToolCalls  int     `json:"current_tool_calls"`
	BaselineToolCalls int     `json:"baseline_tool_calls"`
	Similarity        float64 `json:"similarity"`
}

// ToolUsageComparison summarizes which tools each side used.
type ToolUsageComparison struct {
	CommonTools       []string `json:"common_tools"`
	CurrentOnlyTools  []string `json:"current_only_tools"`
	BaselineOnlyTools []string `json:"baseline_only_tools"`
	ToolOverlapRatio  float64  `json:"tool_overlap_ratio"`
	CurrentToolCount  int      `json:"current_tool_count"`
	BaselineToolCount int      `json:"baseline_tool_count"`
}
