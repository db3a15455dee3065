package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ppiankov/truthweaver/internal/model"
	"github.com/ppiankov/truthweaver/internal/pipeline"
)

// analysisFlags are shared by the case and batch commands
type analysisFlags struct {
	outputDir  string
	markdown   bool
	provider   string
	model      string
	lexicon    string
	noCache    bool
	archive    bool
	httpProxy  string
	httpsProxy string
}

func (f *analysisFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.outputDir, "output-dir", "output", "output directory for analysis files")
	cmd.Flags().BoolVar(&f.markdown, "md", false, "also write a Markdown report per case")
	cmd.Flags().StringVar(&f.provider, "provider", "sidecar", "transcription provider (sidecar, openai, mock)")
	cmd.Flags().StringVar(&f.model, "model", "whisper-1", "transcription model name")
	cmd.Flags().StringVar(&f.lexicon, "lexicon", "", "YAML lexicon overriding the built-in vocabulary")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable transcript cache")
	cmd.Flags().BoolVar(&f.archive, "store", false, "archive results in the SQLite store")
	cmd.Flags().StringVar(&f.httpProxy, "http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	cmd.Flags().StringVar(&f.httpsProxy, "https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")
}

// apply overrides configuration with the flags set on the command line
func (f *analysisFlags) apply(cmd *cobra.Command, cfg *model.Config) {
	changed := cmd.Flags().Changed

	if changed("output-dir") {
		cfg.Output.Dir = f.outputDir
	}
	if changed("md") {
		cfg.Output.Markdown = f.markdown
	}
	if changed("provider") {
		cfg.Transcription.Provider = f.provider
	}
	if changed("model") {
		cfg.Transcription.Model = f.model
	}
	if changed("lexicon") {
		cfg.Analysis.LexiconFile = f.lexicon
	}
	if changed("no-cache") {
		cfg.Cache.Enabled = !f.noCache
	}
	if changed("store") {
		cfg.Store.Enabled = f.archive
	}
	if changed("http-proxy") {
		cfg.HTTP.HTTPProxy = f.httpProxy
	}
	if changed("https-proxy") {
		cfg.HTTP.HTTPSProxy = f.httpsProxy
	}
	cfg.Output.Verbose = cfg.Output.Verbose || verbose
}

var (
	caseOpts    analysisFlags
	caseTimeout time.Duration
)

// caseCmd represents the case command
var caseCmd = &cobra.Command{
	Use:   "case <shadow-id> <file>...",
	Short: "Analyze the recordings of one subject",
	Long: `Case analyzes every recording of one subject, in the order given:
- Transcribe each recording (failed recordings are skipped)
- Extract experience, skill, confidence, leadership and team claims
- Detect experience inflation and skill exaggeration across sessions
- Reconcile a single truth profile

Writes <shadow-id>_analysis.json and <shadow-id>_transcript.txt to the
output directory.

Example:
  truthweaver case phoenix_2024 session1.mp3 session2.mp3 session3.mp3
  truthweaver case phoenix_2024 s*.mp3 --provider openai --md
  truthweaver case phoenix_2024 notes/*.txt --output-dir ./reports --store`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCase,
}

func init() {
	rootCmd.AddCommand(caseCmd)

	caseOpts.register(caseCmd)
	caseCmd.Flags().DurationVar(&caseTimeout, "timeout", 10*time.Minute, "overall case timeout")
}

func runCase(cmd *cobra.Command, args []string) error {
	shadowID, files := args[0], args[1:]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	caseOpts.apply(cmd, cfg)

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), caseTimeout)
	defer cancel()

	if cfg.Output.Verbose {
		fmt.Fprintf(os.Stderr, "Case:       %s\n", shadowID)
		fmt.Fprintf(os.Stderr, "Sessions:   %d\n", len(files))
		fmt.Fprintf(os.Stderr, "Provider:   %s\n", cfg.Transcription.Provider)
		fmt.Fprintf(os.Stderr, "Cache:      %v\n", cfg.Cache.Enabled)
		fmt.Fprintln(os.Stderr)
	}

	result, err := a.pipeline.ProcessCase(ctx, shadowID, files)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	if err := writeCase(ctx, a, result); err != nil {
		return err
	}

	pipeline.NewRenderer().RenderSummary(cmd.OutOrStdout(), result)
	return nil
}

// writeCase renders a case's artifacts and archives it when enabled
func writeCase(ctx context.Context, a *app, result *model.CaseResult) error {
	paths, err := a.pipeline.RenderResult(result, a.cfg.Output.Dir, a.cfg.Output.Markdown)
	if err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	if a.cfg.Output.Verbose {
		fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", paths.JSON)
		fmt.Fprintf(os.Stderr, "✓ Wrote transcript: %s\n", paths.Transcript)
		if paths.Markdown != "" {
			fmt.Fprintf(os.Stderr, "✓ Wrote Markdown: %s\n", paths.Markdown)
		}
	}

	if a.archive != nil {
		id, err := a.archive.Save(ctx, result)
		if err != nil {
			return fmt.Errorf("archive failed: %w", err)
		}
		a.logger.Info("archived case", zap.String("shadow_id", result.Report.ShadowID), zap.String("run_id", id))
		if a.cfg.Output.Verbose {
			fmt.Fprintf(os.Stderr, "✓ Archived run: %s\n", id)
		}
	}

	return nil
}
