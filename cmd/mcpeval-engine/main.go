// Command mcpeval-engine scores recorded agent tool-call trajectories
// against trusted baselines, from the command line or as a JSON-RPC stdio
// server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mcp-eval/engine/internal/compare"
	"github.com/mcp-eval/engine/internal/config"
	"github.com/mcp-eval/engine/internal/history"
	"github.com/mcp-eval/engine/internal/report"
	"github.com/mcp-eval/engine/internal/runlog"
	"github.com/mcp-eval/engine/internal/scenario"
	"github.com/mcp-eval/engine/internal/server"
	"github.com/segmentio/encoding/json"
)

const version = "0.1.0"

func main() {
	root := &cobra.Command{
		Use:           "mcpeval-engine",
		Short:         "Trajectory regression evaluation engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		versionCmd(),
		compareCmd(),
		analyzeCmd(),
		checkCmd(),
		dialogCmd(),
		historyCmd(),
		serveCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadConfig loads the config file if given, otherwise defaults, then applies
// MCPEVAL_* environment overrides.
func loadConfig(path string) (*config.Config, error) {
	cfg := config.Default()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	return config.FromEnv(cfg), nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the engine version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "mcpeval-engine %s\n", version)
		},
	}
}

func compareCmd() *cobra.Command {
	var (
		currentPath  string
		baselinePath string
		configPath   string
		outputPath   string
		format       string
		historyPath  string
		scenarioName string
	)

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare a current run against a baseline run",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			current, err := runlog.Load(currentPath)
			if err != nil {
				return err
			}
			baseline, err := runlog.Load(baselinePath)
			if err != nil {
				return err
			}
			if rpcErr := runlog.Validate(current); rpcErr != nil {
				return fmt.Errorf("current log: %s", rpcErr.Message)
			}
			if rpcErr := runlog.Validate(baseline); rpcErr != nil {
				return fmt.Errorf("baseline log: %s", rpcErr.Message)
			}

			result := compare.New(cfg).Compare(current.ToolCalls, baseline.ToolCalls)

			name := scenarioName
			if name == "" {
				name = current.Scenario
			}

			if historyPath != "" {
				store, err := history.Open(historyPath)
				if err != nil {
					return err
				}
				defer store.Close()
				if err := store.Record(name, result); err != nil {
					return err
				}
			}

			rep := report.New(name, result)
			out := cmd.OutOrStdout()
			if outputPath != "" {
				f, err := os.Create(outputPath)
				if err != nil {
					return fmt.Errorf("create output file: %w", err)
				}
				defer f.Close()
				out = f
			}

			switch format {
			case "json":
				data, err := report.GenerateJSON(rep)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(data))
			case "markdown":
				if err := report.GenerateMarkdown(out, rep); err != nil {
					return err
				}
			case "html":
				if err := report.GenerateHTML(out, rep); err != nil {
					return err
				}
			default:
				return fmt.Errorf("unknown format %q (want json, markdown, or html)", format)
			}

			if !result.Passed {
				os.Exit(1)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&currentPath, "current", "", "path to the current execution log (required)")
	cmd.Flags().StringVar(&baselinePath, "baseline", "", "path to the baseline execution log (required)")
	cmd.Flags().StringVar(&configPath, "config", "", "path to a config file")
	cmd.Flags().StringVar(&outputPath, "output", "", "write the report to this file instead of stdout")
	cmd.Flags().StringVar(&format, "format", "json", "report format: json, markdown, or html")
	cmd.Flags().StringVar(&historyPath, "history", "", "record the outcome in this SQLite history database")
	cmd.Flags().StringVar(&scenarioName, "scenario", "", "scenario name (defaults to the log's scenario field)")
	_ = cmd.MarkFlagRequired("current")
	_ = cmd.MarkFlagRequired("baseline")
	return cmd
}

func analyzeCmd() *cobra.Command {
	var (
		logPath    string
		configPath string
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Classify the execution status of a single run",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			log, err := runlog.Load(logPath)
			if err != nil {
				return err
			}
			if rpcErr := runlog.Validate(log); rpcErr != nil {
				return fmt.Errorf("%s", rpcErr.Message)
			}

			analysis := compare.New(cfg).AnalyzeStatus(log.ToolCalls)
			data, err := json.MarshalIndent(analysis, "", "  ")
			if err != nil {
				return fmt.Errorf("marshal analysis: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}

	cmd.Flags().StringVar(&logPath, "log", "", "path to the execution log (required)")
	cmd.Flags().StringVar(&configPath, "config", "", "path to a config file")
	_ = cmd.MarkFlagRequired("log")
	return cmd
}

func checkCmd() *cobra.Command {
	var (
		logPath      string
		scenarioPath string
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check a recorded run against its scenario expectations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			log, err := runlog.Load(logPath)
			if err != nil {
				return err
			}
			sc, err := scenario.Load(scenarioPath)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			passed := true

			order := scenario.CheckToolsInOrder(log, sc.ExpectedTools)
			fmt.Fprintf(out, "tools in order: %s (%s)\n", passFail(order.Passed), order.Explanation)
			passed = passed && order.Passed

			required := scenario.CheckRequiredTools(log, sc.ExpectedTools)
			fmt.Fprintf(out, "required tools: %s (%s)\n", passFail(required.Passed), required.Explanation)
			passed = passed && required.Passed

			met, missing := scenario.CheckSuccessCriteria(log, sc.SuccessCriteria)
			for _, c := range met {
				fmt.Fprintf(out, "criterion met: %q\n", c)
			}
			for _, c := range missing {
				fmt.Fprintf(out, "criterion MISSING: %q\n", c)
				passed = false
			}

			if !passed {
				os.Exit(1)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&logPath, "log", "", "path to the execution log (required)")
	cmd.Flags().StringVar(&scenarioPath, "scenario", "", "path to the scenario file (required)")
	_ = cmd.MarkFlagRequired("log")
	_ = cmd.MarkFlagRequired("scenario")
	return cmd
}

func dialogCmd() *cobra.Command {
	var (
		currentPath  string
		baselinePath string
		configPath   string
	)

	cmd := &cobra.Command{
		Use:   "dialog",
		Short: "Compare two recorded multi-turn sessions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			current, err := runlog.Load(currentPath)
			if err != nil {
				return err
			}
			baseline, err := runlog.Load(baselinePath)
			if err != nil {
				return err
			}

			result := compare.New(cfg).NewDialogComparator().Compare(current.Conversation, baseline.Conversation)
			data, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return fmt.Errorf("marshal dialog comparison: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}

	cmd.Flags().StringVar(&currentPath, "current", "", "path to the current execution log (required)")
	cmd.Flags().StringVar(&baselinePath, "baseline", "", "path to the baseline execution log (required)")
	cmd.Flags().StringVar(&configPath, "config", "", "path to a config file")
	_ = cmd.MarkFlagRequired("current")
	_ = cmd.MarkFlagRequired("baseline")
	return cmd
}

func historyCmd() *cobra.Command {
	var (
		dbPath       string
		scenarioName string
		window       int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded comparison statistics for a scenario",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := history.Open(dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			mean, stddev, count, err := store.Stats(scenarioName)
			if err != nil {
				return err
			}
			scores, err := store.QueryWindow(scenarioName, window)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "scenario: %s\n", scenarioName)
			fmt.Fprintf(out, "runs: %d  mean: %.3f  stddev: %.3f\n", count, mean, stddev)
			if len(scores) > 0 {
				formatted := make([]string, len(scores))
				for i, s := range scores {
					formatted[i] = strconv.FormatFloat(s, 'f', 3, 64)
				}
				fmt.Fprintf(out, "recent scores (newest first): %s\n", strings.Join(formatted, ", "))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "path to the SQLite history database (required)")
	cmd.Flags().StringVar(&scenarioName, "scenario", "", "scenario name (required)")
	cmd.Flags().IntVar(&window, "window", 20, "number of recent scores to list")
	_ = cmd.MarkFlagRequired("db")
	_ = cmd.MarkFlagRequired("scenario")
	return cmd
}

func serveCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the JSON-RPC stdio server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
			srv := server.New(os.Stdin, os.Stdout, logger)
			if v := os.Getenv("MCPEVAL_MAX_RPS"); v != "" {
				rps, err := strconv.ParseFloat(v, 64)
				if err != nil {
					return fmt.Errorf("invalid MCPEVAL_MAX_RPS %q: %w", v, err)
				}
				srv.SetRateLimit(rps)
			}
			server.RegisterBuiltinHandlers(srv, cfg)

			logger.Info("engine started", "version", version)
			return srv.Run(context.Background())
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to a config file")
	return cmd
}

func passFail(ok bool) string {
	if ok {
		return "PASS"
	}
	return "FAIL"
}
