package server

import (
	"encoding/json"
	"fmt"

	"github.com/mcp-eval/engine/internal/compare"
	"github.com/mcp-eval/engine/internal/config"
	"github.com/mcp-eval/engine/internal/runlog"
	"github.com/mcp-eval/engine/pkg/types"
)

const (
	engineVersion   = "0.1.0"
	protocolVersion = 1
)

var capabilities = []string{"status_analysis", "trajectory_comparison", "config_overrides"}

// RegisterBuiltinHandlers registers the built-in JSON-RPC handlers on s.
// cfg is the server's base configuration; requests may override individual
// fields per call.
func RegisterBuiltinHandlers(s *Server, cfg *config.Config) {
	if cfg == nil {
		cfg = config.Default()
	}

	s.RegisterHandler("initialize", handleInitialize(cfg))
	s.RegisterHandler("analyze_status", handleAnalyzeStatus(cfg))
	s.RegisterHandler("compare_trajectories", handleCompareTrajectories(cfg))
	s.RegisterHandler("shutdown", handleShutdown)
}

func handleInitialize(cfg *config.Config) Handler {
	return func(session *Session, params json.RawMessage) (any, *types.RPCError) {
		if session.State() != StateUninitialized {
			return nil, types.NewRPCError(
				types.ErrSessionError,
				"initialize called on already-initialized session",
				types.ErrTypeSessionError,
				false,
				"initialize may only be called once per session",
			)
		}

		var p types.InitializeParams
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, types.NewRPCError(
				types.ErrSessionError,
				"invalid initialize params",
				types.ErrTypeSessionError,
				false,
				err.Error(),
			)
		}

		if p.ProtocolVersion != protocolVersion {
			return nil, types.NewRPCError(
				types.ErrSessionError,
				fmt.Sprintf("protocol version %d not supported; engine supports version %d", p.ProtocolVersion, protocolVersion),
				types.ErrTypeSessionError,
				false,
				"Upgrade the engine binary or downgrade the SDK protocol_version",
			)
		}

		session.SetState(StateActive)

		return &types.InitializeResult{
			EngineVersion:    engineVersion,
			ProtocolVersion:  protocolVersion,
			Capabilities:     capabilities,
			MaxLogSizeBytes:  runlog.MaxLogSize,
			MaxCallsPerLog:   runlog.MaxCallsPerLog,
			PassThreshold:    cfg.PassThreshold,
			DomainToolPrefix: cfg.DomainToolPrefix,
		}, nil
	}
}

func handleAnalyzeStatus(cfg *config.Config) Handler {
	return func(session *Session, params json.RawMessage) (any, *types.RPCError) {
		if session.State() != StateActive {
			return nil, sessionNotActive("analyze_status")
		}

		var p types.AnalyzeStatusParams
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, types.NewRPCError(
				types.ErrInvalidTrajectory,
				fmt.Sprintf("invalid analyze_status params: %v", err),
				types.ErrTypeInvalidTrajectory,
				false,
				"Check the request format matches the protocol.",
			)
		}

		if rpcErr := validateCalls("calls", p.Calls); rpcErr != nil {
			return nil, rpcErr
		}

		effective, rpcErr := applyOverrides(cfg, p.Config)
		if rpcErr != nil {
			return nil, rpcErr
		}

		analysis := compare.New(effective).AnalyzeStatus(p.Calls)
		session.IncrementAnalyses()
		return analysis, nil
	}
}

func handleCompareTrajectories(cfg *config.Config) Handler {
	return func(session *Session, params json.RawMessage) (any, *types.RPCError) {
		if session.State() != StateActive {
			return nil, sessionNotActive("compare_trajectories")
		}

		var p types.CompareTrajectoriesParams
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, types.NewRPCError(
				types.ErrInvalidTrajectory,
				fmt.Sprintf("invalid compare_trajectories params: %v", err),
				types.ErrTypeInvalidTrajectory,
				false,
				"Check the request format matches the protocol.",
			)
		}

		if rpcErr := validateCalls("current", p.Current); rpcErr != nil {
			return nil, rpcErr
		}
		if rpcErr := validateCalls("baseline", p.Baseline); rpcErr != nil {
			return nil, rpcErr
		}

		effective, rpcErr := applyOverrides(cfg, p.Config)
		if rpcErr != nil {
			return nil, rpcErr
		}

		result := compare.New(effective).Compare(p.Current, p.Baseline)
		session.IncrementComparisons()
		return result, nil
	}
}

func handleShutdown(session *Session, _ json.RawMessage) (any, *types.RPCError) {
	if session.State() != StateActive {
		return nil, types.NewRPCError(
			types.ErrSessionError,
			"shutdown called on uninitialized or already-shutting-down session",
			types.ErrTypeSessionError,
			false,
			"call initialize before shutdown",
		)
	}

	session.SetState(StateShuttingDown)
	comparisons, analyses := session.Counters()

	return &types.ShutdownResult{
		ComparisonsCompleted: comparisons,
		AnalysesCompleted:    analyses,
	}, nil
}

func sessionNotActive(method string) *types.RPCError {
	return types.NewRPCError(
		types.ErrSessionError,
		method+" called before initialize",
		types.ErrTypeSessionError,
		false,
		"call initialize first to establish a session before sending "+method+" requests",
	)
}

// applyOverrides layers per-request overrides on the server's base config and
// re-validates the merged result.
func applyOverrides(base *config.Config, overrides *types.ConfigOverrides) (*config.Config, *types.RPCError) {
	if overrides == nil {
		return base, nil
	}

	cfg := base.Clone()
	if len(overrides.CriticalOperationKeywords) > 0 {
		cfg.CriticalOperationKeywords = append([]string(nil), overrides.CriticalOperationKeywords...)
	}
	if overrides.MaxNumericDiff != nil {
		cfg.MaxNumericDiff = *overrides.MaxNumericDiff
	}
	if overrides.PassThreshold != nil {
		cfg.PassThreshold = *overrides.PassThreshold
	}
	if overrides.DomainToolPrefix != nil {
		cfg.DomainToolPrefix = *overrides.DomainToolPrefix
	}

	if err := cfg.Validate(); err != nil {
		return nil, types.NewRPCError(
			types.ErrInvalidConfig,
			fmt.Sprintf("invalid config overrides: %v", err),
			types.ErrTypeInvalidConfig,
			false,
			"Fix the override values and retry.",
		)
	}
	return cfg, nil
}

// validateCalls enforces the per-trajectory call limit.
func validateCalls(field string, calls []types.ToolCallRecord) *types.RPCError {
	if len(calls) > runlog.MaxCallsPerLog {
		return types.NewRPCError(
			types.ErrInvalidTrajectory,
			fmt.Sprintf("%s exceeds max calls: %d > %d", field, len(calls), runlog.MaxCallsPerLog),
			types.ErrTypeInvalidTrajectory,
			false,
			fmt.Sprintf("Reduce the number of recorded tool calls to %d or fewer.", runlog.MaxCallsPerLog),
		)
	}
	return nil
}
