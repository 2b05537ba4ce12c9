package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/chunklink-cli/internal/core/domain"
	"github.com/custodia-labs/chunklink-cli/internal/core/services"
)

// Report colours.
var (
	colourTitle   = lipgloss.Color("#7C3AED") // Purple
	colourMuted   = lipgloss.Color("#6C7086") // Medium gray
	colourSuccess = lipgloss.Color("#A6E3A1") // Green
	colourWarning = lipgloss.Color("#F9E2AF") // Yellow
	colourError   = lipgloss.Color("#F38BA8") // Red
)

// reportStyles renders command output. Styles are plain unless the
// writer is a terminal.
type reportStyles struct {
	Title   lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
}

func newReportStyles(w io.Writer) reportStyles {
	plain := lipgloss.NewStyle()
	s := reportStyles{Title: plain, Muted: plain, Success: plain, Warning: plain, Error: plain}
	if !isTerminal(w) {
		return s
	}
	s.Title = lipgloss.NewStyle().Bold(true).Foreground(colourTitle)
	s.Muted = lipgloss.NewStyle().Foreground(colourMuted)
	s.Success = lipgloss.NewStyle().Foreground(colourSuccess)
	s.Warning = lipgloss.NewStyle().Foreground(colourWarning)
	s.Error = lipgloss.NewStyle().Bold(true).Foreground(colourError)
	return s
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// ratio picks the style for the chunk ratio of r.
func (s reportStyles) ratio(r domain.DocumentResult) lipgloss.Style {
	switch {
	case r.Attempted == 0 || r.Chunked == r.Attempted:
		return s.Success
	case r.Chunked == 0:
		return s.Error
	default:
		return s.Warning
	}
}

// status picks the style for a run outcome.
func (s reportStyles) status(status domain.RunStatus) lipgloss.Style {
	switch status {
	case domain.RunSucceeded:
		return s.Success
	case domain.RunFailed:
		return s.Warning
	case domain.RunAborted:
		return s.Error
	default:
		return s.Muted
	}
}

// ratioLine formats the per-document report line.
func ratioLine(r domain.DocumentResult) string {
	return fmt.Sprintf("Chunked %d / %d = %f", r.Chunked, r.Attempted, r.Ratio())
}

// documentReporter prints the ratio line of every written document.
func documentReporter(cmd *cobra.Command) services.DocumentReporter {
	styles := newReportStyles(cmd.OutOrStdout())
	return func(r domain.DocumentResult) {
		if !r.Written {
			return
		}
		cmd.Printf("%s  %s\n",
			styles.ratio(r).Render(ratioLine(r)),
			styles.Muted.Render(r.OutputPath))
	}
}

// printSummary prints totals for runs covering more than one document.
func printSummary(cmd *cobra.Command, result domain.BatchResult) {
	if len(result.Documents) < 2 {
		return
	}
	styles := newReportStyles(cmd.OutOrStdout())
	totals := result.Totals()

	cmd.Println()
	cmd.Println(styles.Title.Render("Summary"))
	cmd.Printf("  Documents: %d (%d failed)\n", len(result.Documents), result.FailedDocuments())
	cmd.Printf("  Sentences: %d seen, %d with parses\n", totals.Seen, totals.Attempted)
	cmd.Printf("  %s\n", styles.ratio(totals).Render(ratioLine(totals)))
}
