package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/truthweaver/internal/worker"
)

var (
	batchOpts    analysisFlags
	concurrency  int
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <manifest>",
	Short: "Analyze many subjects from a case manifest in parallel",
	Long: `Batch processes every case listed in a manifest concurrently.

A YAML manifest (.yaml, .yml) lists cases with their recordings:

  cases:
    - shadow_id: phoenix_2024
      files: [s1.mp3, s2.mp3, s3.mp3]

Any other file is read as text, one case per line:

  # shadow_id file1 file2 ...
  phoenix_2024 s1.mp3 s2.mp3 s3.mp3

Relative paths are resolved against the manifest's directory. Each case
is analyzed independently; a failing case does not stop the others.

Example:
  truthweaver batch cases.yaml
  truthweaver batch cases.txt --concurrency 8 --output-dir ./reports
  truthweaver batch cases.yaml --provider openai --timeout 30m --store`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchOpts.register(batchCmd)
	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (default from config)")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 30*time.Minute, "total timeout for batch processing")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	batchOpts.apply(cmd, cfg)
	if cmd.Flags().Changed("concurrency") {
		cfg.Concurrency.Workers = concurrency
	}

	manifest, err := worker.ReadManifest(file)
	if err != nil {
		return fmt.Errorf("read manifest: %w", err)
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Truth Weaver Batch Processing\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Manifest:     %s\n", file)
	fmt.Fprintf(os.Stderr, "  Cases:        %d\n", len(manifest.Cases))
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", cfg.Concurrency.Workers)
	fmt.Fprintf(os.Stderr, "  Provider:     %s\n", cfg.Transcription.Provider)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", cfg.Output.Dir)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(os.Stderr, "\n")

	processor := worker.NewBatchProcessor(a.pipeline, cfg.Concurrency.Workers)
	outcomes := processor.ProcessCases(ctx, manifest.Cases)

	successCount := 0
	failureCount := 0

	for _, outcome := range outcomes {
		if outcome.Error != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", outcome.ShadowID, outcome.Error)
			continue
		}

		if err := writeCase(ctx, a, outcome.Result); err != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", outcome.ShadowID, err)
			continue
		}

		successCount++
		report := outcome.Result.Report
		fmt.Fprintf(os.Stderr, "✓ %s (%d/%d sessions, %d contradictions)\n",
			report.ShadowID, outcome.Result.UsableSessions(), len(outcome.Result.Sessions), len(report.DeceptionPatterns))
	}

	// Summary
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d cases\n", len(outcomes))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", cfg.Output.Dir)
	fmt.Fprintf(os.Stderr, "\n")

	if failureCount > 0 && successCount == 0 && len(outcomes) > 0 {
		return fmt.Errorf("all %d cases failed", failureCount)
	}
	return nil
}
