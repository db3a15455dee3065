package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ppiankov/truthweaver/internal/pipeline"
	"github.com/ppiankov/truthweaver/internal/store"
)

var (
	historyDB    string
	historyShow  string
	historyLimit int
	historyJSON  bool
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history [shadow-id]",
	Short: "List archived analyses",
	Long: `History lists the analyses archived with --store, newest first.

Example:
  truthweaver history
  truthweaver history phoenix_2024 --limit 5
  truthweaver history --show 3f2b8c1e-...`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().StringVar(&historyDB, "db", "", "archive path (default from config)")
	historyCmd.Flags().StringVar(&historyShow, "show", "", "print the stored analysis JSON of a run")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum number of runs to list (0 for all)")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "list runs as JSON")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if historyDB != "" {
		cfg.Store.Path = historyDB
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	archive, err := store.Open(cfg.Store.Path, logger)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer func() { _ = archive.Close() }()

	out := cmd.OutOrStdout()
	ctx := cmd.Context()

	if historyShow != "" {
		run, err := archive.Get(ctx, historyShow)
		if err != nil {
			return err
		}
		data, err := pipeline.MarshalReport(run.Report)
		if err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
		_, err = out.Write(data)
		return err
	}

	shadowID := ""
	if len(args) == 1 {
		shadowID = args[0]
	}

	runs, err := archive.List(ctx, shadowID, historyLimit)
	if err != nil {
		return err
	}

	if historyJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}

	if len(runs) == 0 {
		fmt.Fprintln(out, "No archived analyses.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RUN ID\tSHADOW ID\tPROCESSED\tSESSIONS\tCONTRADICTIONS")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d/%d\t%d\n",
			r.ID, r.ShadowID, r.ProcessedAt.Local().Format("2006-01-02 15:04:05"),
			r.UsableSessions, r.SessionCount, r.Contradictions)
	}
	return w.Flush()
}
