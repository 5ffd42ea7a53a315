package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"symbench/internal/config"
	"symbench/internal/history"
	"symbench/internal/logging"
	"symbench/internal/pipeline"
	"symbench/internal/report"
	"symbench/internal/runner"
)

var (
	// Global flags
	verbose    bool
	configFile string
	logDir     string

	// run flags
	selection     string
	workflow      string
	memoryLimitGB int
	timeoutSecs   int
	noLimits      bool

	// report flags
	texOutput string
	csvOutput string
	title     string

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "symbench",
	Short: "symbench - symmetry-reduction benchmark harness for PBES solving",
	Long: `symbench drives the mCRL2/merc tool chain over a catalogue of models and
properties, comparing the solver with and without symmetry reduction.

Each (model, property) pair is run under the configured workflow variants:
the plain solver, the first detected symmetry, every detected symmetry, or a
hand-picked one. Per-stage timings, answers and limit kills are accumulated
into a YAML result file that the report subcommand turns into a comparison
table.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		level := "info"
		if verbose {
			level = "debug"
		}
		if err := logging.Initialize(logDir, level); err != nil {
			return fmt.Errorf("failed to initialize category logs: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.CloseAll()
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// runCmd executes the full benchmark over a model folder
var runCmd = &cobra.Command{
	Use:   "run [models-folder] [result-file]",
	Short: "Run the benchmark catalogue and save results as YAML",
	Long: `Runs every (model, property, variant) triple of the selected catalogue tier
under the chosen workflow set, strictly sequentially, and saves the
accumulated records to the given YAML file.

Example:
  symbench run ./models results.yaml --selection m --workflow first-chosen`,
	Args: cobra.ExactArgs(2),
	RunE: runBenchmark,
}

// reportCmd aggregates result files into a comparison table
var reportCmd = &cobra.Command{
	Use:   "report [result-file]...",
	Short: "Aggregate result files into a LaTeX/CSV comparison table",
	Long: `Reads one or more YAML result files, averages repeated measurements per
(model, property) and renders the comparison table.

Example:
  symbench report results-1.yaml results-2.yaml -o table.tex --csv table.csv`,
	Args: cobra.MinimumNArgs(1),
	RunE: runReport,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Configuration file (YAML)")
	rootCmd.PersistentFlags().StringVar(&logDir, "log-dir", "", "Directory for category log files (disabled when empty)")

	// Run flags
	runCmd.Flags().StringVar(&selection, "selection", "", "Model tier: xs, s, m, l or xl")
	runCmd.Flags().StringVar(&workflow, "workflow", "", "Workflow set: first-chosen, chosen, first or all")
	runCmd.Flags().IntVar(&memoryLimitGB, "memory-limit", 0, "Memory limit in GB (overrides config)")
	runCmd.Flags().IntVar(&timeoutSecs, "timeout", 0, "CPU time limit in seconds (overrides config)")
	runCmd.Flags().BoolVar(&noLimits, "no-limits", false, "Run tools without the limit supervisor")

	// Report flags
	reportCmd.Flags().StringVarP(&texOutput, "output", "o", "", "Output LaTeX file (default: table.tex next to first input)")
	reportCmd.Flags().StringVar(&csvOutput, "csv", "", "Output CSV file")
	reportCmd.Flags().StringVar(&title, "title", "Benchmark Results", "Table title")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(reportCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig builds the effective configuration from the optional config
// file plus command-line overrides.
func loadConfig(modelsDir, resultFile string) (*config.Config, error) {
	cfg := config.Default()
	if configFile != "" {
		var err error
		cfg, err = config.Load(configFile)
		if err != nil {
			return nil, err
		}
	}

	cfg.Paths.ModelsDir = modelsDir
	cfg.Paths.ResultFile = resultFile
	if cfg.Paths.PropertiesDir == "" {
		cfg.Paths.PropertiesDir = filepath.Join(filepath.Dir(modelsDir), "properties")
	}
	if cfg.Paths.SymmetriesDir == "" {
		cfg.Paths.SymmetriesDir = filepath.Join(filepath.Dir(modelsDir), "symmetries")
	}

	if selection != "" {
		cfg.Catalogue.Selection = selection
	}
	if workflow != "" {
		cfg.Catalogue.Workflow = workflow
	}
	if memoryLimitGB > 0 {
		cfg.Limits.MemoryLimitKB = int64(memoryLimitGB) * 1024 * 1024
	}
	if timeoutSecs > 0 {
		cfg.Limits.TimeoutSeconds = timeoutSecs
	}
	if noLimits {
		cfg.Limits.Enforce = false
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runBenchmark(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(args[0], args[1])
	if err != nil {
		return err
	}

	info, err := os.Stat(cfg.Paths.ModelsDir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("the path %s is not a valid directory", cfg.Paths.ModelsDir)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var recorder pipeline.Recorder
	var store *history.Store
	if cfg.History.Enabled {
		store, err = history.Open(cfg.History.Path)
		if err != nil {
			return err
		}
		defer store.Close()

		runID, err := store.BeginRun(cfg.Catalogue.Selection, cfg.Catalogue.Workflow)
		if err != nil {
			return err
		}
		logger.Info("benchmark run started",
			zap.String("run_id", runID),
			zap.String("selection", cfg.Catalogue.Selection),
			zap.String("workflow", cfg.Catalogue.Workflow))
		recorder = store
	}

	harness := pipeline.New(cfg, runner.New(cfg.Tools, cfg.Limits), recorder)
	rs, execErr := harness.Execute(ctx)

	// save whatever accumulated, even on interruption
	if len(rs) > 0 {
		if err := rs.Save(cfg.Paths.ResultFile); err != nil {
			return err
		}
		logger.Info("results saved", zap.String("path", cfg.Paths.ResultFile))
	}
	if store != nil {
		if err := store.FinishRun(); err != nil {
			logger.Warn("failed to finish history run", zap.Error(err))
		}
	}
	return execErr
}

func runReport(cmd *cobra.Command, args []string) error {
	rows, err := report.Load(args)
	if err != nil {
		return err
	}

	texPath := texOutput
	if texPath == "" {
		texPath = filepath.Join(filepath.Dir(args[0]), "table.tex")
	}

	tex, err := os.Create(texPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", texPath, err)
	}
	defer tex.Close()
	if err := report.WriteLaTeX(tex, rows, title); err != nil {
		return err
	}
	logger.Info("wrote LaTeX table", zap.String("path", texPath), zap.Int("rows", len(rows)))

	if csvOutput != "" {
		f, err := os.Create(csvOutput)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", csvOutput, err)
		}
		defer f.Close()
		if err := report.WriteCSV(f, rows); err != nil {
			return err
		}
		logger.Info("wrote CSV table", zap.String("path", csvOutput))
	}
	return nil
}
