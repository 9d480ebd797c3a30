package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/quaylabs/marketscout/pkg/backend"
	"github.com/quaylabs/marketscout/pkg/config"
	"github.com/quaylabs/marketscout/pkg/pipeline"
	"github.com/quaylabs/marketscout/pkg/report"
	"github.com/quaylabs/marketscout/pkg/retry"
	"github.com/quaylabs/marketscout/pkg/strategy"
)

var (
	backendFlag string
	modelFlag   string
	verboseFlag bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "marketscout",
		Short: "Adaptive product analysis over unreliable LLM backends",
		Long: `Marketscout runs a multi-step market/technology/business analysis
pipeline against a remote LLM. When the backend is overloaded, rate
limited, or slow, it retries individual calls with backoff and, if a
whole run fails or times out, escalates down a ladder of progressively
cheaper strategies instead of giving up.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			if verboseFlag {
				level = slog.LevelInfo
			}
			slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
				Level:      level,
				TimeFormat: time.Kitchen,
			})))
		},
	}

	rootCmd.PersistentFlags().StringVar(&backendFlag, "backend", "", "inference backend (google, anthropic, openai, mock)")
	rootCmd.PersistentFlags().StringVar(&modelFlag, "model", "", "model override")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "verbose logging")

	rootCmd.AddCommand(analyzeCmd())
	rootCmd.AddCommand(tasksCmd())
	rootCmd.AddCommand(modelsCmd())
	rootCmd.AddCommand(classifyCmd())
	rootCmd.AddCommand(validateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func analyzeCmd() *cobra.Command {
	var outDir string
	var noSave bool

	cmd := &cobra.Command{
		Use:   "analyze [product]",
		Short: "Run the adaptive analysis pipeline for a product",
		Long: `Runs the analysis ladder for the given product name. Strategies are
tried most capable first (full, quick, emergency); each gets an overall
time budget, and every remote call inside a run is retried with
classified backoff before the run as a whole is allowed to fail.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			product := args[0]
			if len(product) > 100 {
				return fmt.Errorf("product name too long (max 100 characters)")
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			be, searchTool, err := buildBackend(cfg)
			if err != nil {
				return err
			}

			model := modelFlag
			if model == "" {
				model = cfg.Settings.Model
			}
			if model == "" {
				models := be.Models()
				if len(models) == 0 {
					return fmt.Errorf("backend %s exposes no models", be.Name())
				}
				model = models[0]
			}

			policy := retry.NewPolicy(cfg.Settings.BaseBackoff())
			caller := retry.NewCaller(policy)
			caller.MaxAttempts = cfg.Settings.MaxAttempts
			caller.CallTimeout = cfg.Settings.CallTimeout()

			executor := &pipeline.Executor{
				Backend: be,
				Model:   model,
				Search:  searchTool,
				Caller:  caller,
			}

			orch := strategy.NewOrchestrator(cfg.Settings.Ladder(), executor)
			orch.MaxAttempts = cfg.Settings.MaxStrategyAttempts

			fmt.Printf("Analyzing %q with backend %s (%s)\n", product, be.Name(), model)
			result, runErr := orch.Run(context.Background(), product)

			if result.Outcome == strategy.Completed {
				fmt.Printf("\n%s\n", result.Output)
				fmt.Printf("\nCompleted with strategy: %s\n", result.Strategy)
			} else {
				fmt.Println("\nAnalysis could not be completed. Strategies tried:")
				for _, attempt := range result.Trail {
					fmt.Printf("  %d. %s (%s): %s\n", attempt.Attempt, attempt.Strategy, attempt.Kind, attempt.Error)
				}
				fmt.Println("\nSuggestions: try again in 10-15 minutes, or use a shorter product name.")
			}

			if !noSave {
				if path, err := saveRun(outDir, product, result); err != nil {
					slog.Warn("failed to save results", "error", err)
				} else {
					fmt.Printf("Results saved to: %s\n", path)
				}
			}

			return runErr
		},
	}

	cmd.Flags().StringVar(&outDir, "out", "", "directory for run records (default ~/.marketscout/runs)")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "do not write run records")
	return cmd
}

func tasksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tasks [set]",
		Short: "Show the tasks of a built-in task set",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := pipeline.SetFull
			if len(args) == 1 {
				id = pipeline.SetID(args[0])
			}
			set := pipeline.BuiltinTaskSet(id)
			ordered, err := pipeline.Order(set)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TASK\tROLE\tSEARCH\tDEPENDS ON")
			for _, task := range ordered {
				search := "-"
				if task.UsesSearch {
					search = "yes"
				}
				deps := "-"
				if len(task.DependsOn) > 0 {
					deps = fmt.Sprint(task.DependsOn)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", task.ID, task.Role, search, deps)
			}
			return w.Flush()
		},
	}
}

func modelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List available backends and models",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "BACKEND\tCONFIGURED\tMODELS")
			for _, entry := range []struct {
				name   string
				models []string
			}{
				{"google", (&backend.GoogleBackend{}).Models()},
				{"anthropic", (&backend.AnthropicBackend{}).Models()},
				{"openai", (&backend.OpenAIBackend{}).Models()},
			} {
				configured := "no"
				if cfg.HasBackend(entry.name) {
					configured = "yes"
				}
				fmt.Fprintf(w, "%s\t%s\t%v\n", entry.name, configured, entry.models)
			}
			return w.Flush()
		},
	}
}

func classifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify [message]",
		Short: "Show how a failure message would be classified",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := retry.ClassifyMessage(args[0])
			fmt.Printf("kind: %s (retryable: %t)\n", kind, kind.Retryable())
			return nil
		},
	}
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [manifest]",
		Short: "Validate a task set manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := pipeline.LoadManifest(args[0])
			if err != nil {
				return err
			}
			if _, err := pipeline.Order(set); err != nil {
				return err
			}
			fmt.Printf("%s: %d task(s), ok\n", set.Name, len(set.Tasks))
			return nil
		},
	}
}

func buildBackend(cfg *config.Config) (backend.Backend, backend.SearchTool, error) {
	name := backendFlag
	if name == "" {
		name = cfg.Settings.Backend
	}

	var be backend.Backend
	var err error
	switch name {
	case "google", "":
		be, err = backend.NewGoogleBackend(cfg.GoogleAPIKey)
	case "anthropic":
		be, err = backend.NewAnthropicBackend(cfg.AnthropicAPIKey)
	case "openai":
		be, err = backend.NewOpenAIBackend(cfg.OpenAIAPIKey)
	case "mock":
		return backend.NewMockBackend(), &backend.MockSearch{}, nil
	default:
		return nil, nil, fmt.Errorf("unknown backend %q", name)
	}
	if err != nil {
		return nil, nil, err
	}

	// The search tool is optional: only tool-enabled task sets need it, and
	// the emergency set never uses it.
	var searchTool backend.SearchTool
	if cfg.SerperAPIKey != "" {
		searchTool, err = backend.NewSerperSearch(cfg.SerperAPIKey)
		if err != nil {
			return nil, nil, err
		}
	} else {
		slog.Warn("SERPER_API_KEY not set; tool-enabled tasks will fail, emergency analysis still works")
	}

	return be, searchTool, nil
}

func saveRun(outDir, product string, result *strategy.RunResult) (string, error) {
	if outDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		outDir = filepath.Join(home, ".marketscout", "runs")
	}
	writer, err := report.NewWriter(outDir)
	if err != nil {
		return "", err
	}
	if err := writer.WriteRun(product, result); err != nil {
		return "", err
	}
	return writer.WriteReport(product, result)
}
