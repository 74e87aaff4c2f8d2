package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppiankov/claimrank/internal/logging"
	"github.com/ppiankov/claimrank/internal/render"
)

var outputDir string

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <snapshot>",
	Short: "Rank the options of every decision in a snapshot",
	Long: `Batch evaluates every decision in a snapshot and writes one JSON and one
Markdown report per decision. A decision that fails to evaluate is reported
and the remaining decisions are still processed.

Example:
  claimrank batch snapshot.yaml
  claimrank batch snapshot.yaml --output-dir ./reports --option-workers 4
  claimrank batch snapshot.yaml --no-augment`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./claimrank-reports", "output directory for reports")
	addEngineFlags(batchCmd.Flags())
}

func runBatch(cmd *cobra.Command, args []string) error {
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

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  claimrank Batch Evaluation\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Snapshot:     %s\n", snapshotPath)
	fmt.Fprintf(os.Stderr, "  Max depth:    %d\n", cfg.Scoring.MaxDepth)
	fmt.Fprintf(os.Stderr, "  Augment:      %v\n", cfg.Augment.Enabled)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", cfg.Evaluate.Timeout)
	fmt.Fprintf(os.Stderr, "\n")

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	st, err := openStore(ctx, snapshotPath, cfg, logger)
	if err != nil {
		return err
	}

	evaluator, err := buildEvaluator(st, cfg, logger)
	if err != nil {
		return err
	}

	decisions := st.Decisions()
	successCount := 0
	failureCount := 0

	for _, decision := range decisions {
		result, err := evaluator.Evaluate(ctx, decision.ID)
		if err != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ decision %d: %v\n", decision.ID, err)
			continue
		}

		slug := fmt.Sprintf("decision-%d-%s", decision.ID, sanitizeFilename(decision.Title))
		jsonPath := filepath.Join(outputDir, slug+".json")
		mdPath := filepath.Join(outputDir, slug+".md")

		if err := render.WriteFile(jsonPath, func(w io.Writer) error { return render.JSON(w, result) }); err != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ decision %d: failed to write JSON: %v\n", decision.ID, err)
			continue
		}
		links := optionLinks(ctx, st, result)
		if err := render.WriteFile(mdPath, func(w io.Writer) error { return render.Markdown(w, decision, result, links) }); err != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ decision %d: failed to write Markdown: %v\n", decision.ID, err)
			continue
		}

		successCount++
		if best, ok := result.Best(); ok {
			fmt.Fprintf(os.Stderr, "✓ %s (best: %s, %.3f)\n", decision.Title, best.Name, best.Score)
		} else {
			fmt.Fprintf(os.Stderr, "✓ %s (no options)\n", decision.Title)
		}
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d decisions\n", len(decisions))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	return nil
}

// sanitizeFilename turns a title into a safe, lowercase file name fragment
func sanitizeFilename(s string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		" ", "-",
	)
	s = strings.ToLower(replacer.Replace(strings.TrimSpace(s)))

	// Limit length
	if len(s) > 100 {
		s = s[:100]
	}
	if s == "" {
		s = "untitled"
	}

	return s
}
