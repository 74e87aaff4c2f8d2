package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ppiankov/claimrank/internal/logging"
	"github.com/ppiankov/claimrank/internal/model"
	"github.com/ppiankov/claimrank/internal/render"
)

var (
	decisionID    int64
	outJSON       string
	outMD         string
	maxDepth      int
	augWorkers    int
	optionWorkers int
	noAugment     bool
	llmProvider   string
	llmModel      string
	timeout       time.Duration
	noCache       bool
)

// evaluateCmd represents the evaluate command
var evaluateCmd = &cobra.Command{
	Use:   "evaluate <snapshot>",
	Short: "Rank the options of one decision",
	Long: `Evaluate loads a snapshot and ranks the options of one decision:
- Score each option from its weighted claim links
- Propagate every claim's influence through the claim graph
- Extract live evidence from the option's documents (optional)
- Print a ranked summary and write JSON/Markdown reports

Example:
  claimrank evaluate snapshot.yaml --decision 1
  claimrank evaluate snapshot.yaml --decision 1 --json result.json --md result.md
  claimrank evaluate snapshot.yaml --decision 1 --llm-provider gemini --llm-model gemini-2.5-flash
  claimrank evaluate snapshot.yaml --decision 1 --no-augment --max-depth 3`,
	Args: cobra.ExactArgs(1),
	RunE: runEvaluate,
}

func init() {
	rootCmd.AddCommand(evaluateCmd)

	evaluateCmd.Flags().Int64Var(&decisionID, "decision", 0, "decision id to evaluate (required)")
	_ = evaluateCmd.MarkFlagRequired("decision")

	// Output flags
	evaluateCmd.Flags().StringVar(&outJSON, "json", "", "output JSON path (\"-\" for stdout)")
	evaluateCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")

	addEngineFlags(evaluateCmd.Flags())
}

// addEngineFlags registers the flags shared by evaluate and batch
func addEngineFlags(flags *pflag.FlagSet) {
	flags.IntVar(&maxDepth, "max-depth", 2, "propagation depth through the claim graph")
	flags.IntVar(&augWorkers, "workers", 4, "concurrent evidence extraction workers")
	flags.IntVar(&optionWorkers, "option-workers", 1, "options scored concurrently")
	flags.BoolVar(&noAugment, "no-augment", false, "skip live evidence extraction")
	flags.StringVar(&llmProvider, "llm-provider", "", "extraction provider (heuristic, openai, gemini, anthropic, ollama)")
	flags.StringVar(&llmModel, "llm-model", "", "extraction model name")
	flags.DurationVar(&timeout, "timeout", 5*time.Minute, "overall evaluation timeout")
	flags.BoolVar(&noCache, "no-cache", false, "disable the extraction cache")
}

// resolveConfig loads the configuration and applies explicitly set flags
func resolveConfig(cmd *cobra.Command) (*model.Config, error) {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("max-depth") {
		cfg.Scoring.MaxDepth = maxDepth
	}
	if flags.Changed("workers") {
		cfg.Augment.Workers = augWorkers
	}
	if flags.Changed("option-workers") {
		cfg.Evaluate.OptionWorkers = optionWorkers
	}
	if flags.Changed("timeout") {
		cfg.Evaluate.Timeout = timeout
	}
	if noAugment {
		cfg.Augment.Enabled = false
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	if flags.Changed("llm-provider") {
		cfg.LLM.Provider = llmProvider
		cfg.LLM.APIKey = viper.GetString("llm.api_key")
		applyProviderEnv(&cfg.LLM)
	}
	if flags.Changed("llm-model") {
		cfg.LLM.Model = llmModel
	}

	if cfg.Evaluate.Timeout <= 0 {
		cfg.Evaluate.Timeout = 5 * time.Minute
	}
	return cfg, nil
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	snapshotPath := args[0]

	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	logger, err := buildLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logging.Sync(logger) }()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Evaluate.Timeout)
	defer cancel()

	if verbose {
		fmt.Fprintf(os.Stderr, "Snapshot: %s\n", snapshotPath)
		fmt.Fprintf(os.Stderr, "Decision: %d\n", decisionID)
		fmt.Fprintf(os.Stderr, "Max depth: %d\n", cfg.Scoring.MaxDepth)
		fmt.Fprintf(os.Stderr, "Augment: %v (%s)\n", cfg.Augment.Enabled, cfg.LLM.Provider)
		fmt.Fprintln(os.Stderr)
	}

	st, err := openStore(ctx, snapshotPath, cfg, logger)
	if err != nil {
		return err
	}

	decision, err := st.GetDecision(ctx, decisionID)
	if err != nil {
		return err
	}

	evaluator, err := buildEvaluator(st, cfg, logger)
	if err != nil {
		return err
	}

	result, err := evaluator.Evaluate(ctx, decisionID)
	if err != nil {
		return fmt.Errorf("evaluate decision %d: %w", decisionID, err)
	}

	out := cmd.OutOrStdout()
	switch outJSON {
	case "":
	case "-":
		if err := render.JSON(out, result); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
	default:
		if err := render.WriteFile(outJSON, func(w io.Writer) error { return render.JSON(w, result) }); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", outJSON)
		}
	}

	if outMD != "" {
		links := optionLinks(ctx, st, result)
		if err := render.WriteFile(outMD, func(w io.Writer) error { return render.Markdown(w, decision, result, links) }); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote Markdown: %s\n", outMD)
		}
	}

	if outJSON != "-" {
		render.Summary(out, decision, result)
	}

	return nil
}
