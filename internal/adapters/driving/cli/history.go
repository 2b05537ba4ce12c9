package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/chunklink-cli/internal/core/domain"
	"github.com/custodia-labs/chunklink-cli/internal/core/services"
)

const timeLayout = "2006-01-02 15:04:05"

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded runs",
	Long: `Every chunk and watch run is recorded in ~/.chunklink/data/history.db
unless history is disabled (history.enabled = false or --no-history).`,
	RunE: runHistoryList,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent runs",
	Args:  cobra.NoArgs,
	RunE:  runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show the documents of a run",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

func init() {
	historyCmd.PersistentFlags().IntVarP(&historyLimit, "limit", "n", 20, "maximum number of runs to list")
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	rootCmd.AddCommand(historyCmd)
}

func runHistoryList(cmd *cobra.Command, _ []string) error {
	history, closeFn, err := openHistory()
	if err != nil {
		return err
	}
	defer closeFn()

	runs, err := history.List(cmd.Context(), historyLimit)
	if err != nil {
		return historyError(err)
	}
	if len(runs) == 0 {
		cmd.Println("No runs recorded.")
		return nil
	}

	styles := newReportStyles(cmd.OutOrStdout())
	cmd.Println(styles.Title.Render(fmt.Sprintf("%-36s  %-19s  %-9s  %4s  %s", "ID", "STARTED", "STATUS", "DOCS", "INPUT")))
	for i := range runs {
		run := &runs[i]
		cmd.Printf("%-36s  %-19s  %s  %4d  %s\n",
			run.ID,
			run.StartedAt.Local().Format(timeLayout),
			styles.status(run.Status).Render(fmt.Sprintf("%-9s", run.Status)),
			len(run.Documents),
			run.Input)
	}
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	history, closeFn, err := openHistory()
	if err != nil {
		return err
	}
	defer closeFn()

	run, err := history.Get(cmd.Context(), args[0])
	if err != nil {
		return historyError(err)
	}

	styles := newReportStyles(cmd.OutOrStdout())
	cmd.Println(styles.Title.Render("Run " + run.ID))
	cmd.Printf("  Input:    %s\n", run.Input)
	cmd.Printf("  Output:   %s\n", run.Output)
	cmd.Printf("  Policy:   %s\n", run.Policy)
	cmd.Printf("  Status:   %s\n", styles.status(run.Status).Render(string(run.Status)))
	cmd.Printf("  Started:  %s\n", run.StartedAt.Local().Format(timeLayout))
	if !run.FinishedAt.IsZero() {
		cmd.Printf("  Duration: %s\n", run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))
	}
	if run.Error != "" {
		cmd.Printf("  Error:    %s\n", styles.Error.Render(run.Error))
	}

	if len(run.Documents) == 0 {
		return nil
	}
	cmd.Println()
	for _, doc := range run.Documents {
		counts := domain.DocumentResult{Attempted: doc.Attempted, Chunked: doc.Chunked}
		cmd.Printf("  %s  %s\n", styles.ratio(counts).Render(ratioLine(counts)), doc.InputPath)
		if doc.Error != "" {
			cmd.Printf("      %s\n", styles.Error.Render(doc.Error))
		} else if doc.Failed > 0 {
			cmd.Printf("      %s\n", styles.Muted.Render(fmt.Sprintf("%d sentences skipped", doc.Failed)))
		}
	}
	return nil
}

func historyError(err error) error {
	switch {
	case errors.Is(err, services.ErrHistoryDisabled):
		return errors.New("run history is disabled (history.enabled = false)")
	case errors.Is(err, domain.ErrNotFound):
		return fmt.Errorf("run not found: %w", err)
	default:
		return err
	}
}
