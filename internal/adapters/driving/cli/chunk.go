package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/chunklink-cli/internal/logger"
)

var chunkFlags runFlags

var chunkCmd = &cobra.Command{
	Use:   "chunk <input> <output>",
	Short: "Add chunk tags to a document or a directory of documents",
	Long: `Adds a CHUNK tagging layer to every sentence with a constituency parse.

With a file input the annotated document is written to <output>; when
<output> is an existing directory the input file name is kept. With a
directory input every top-level file is processed into <output>, which must
be an existing directory. Subdirectories are not descended into.

By default failing sentences and documents are logged and skipped. With
--fail-fast the run stops at the first tool or document error.`,
	Args: cobra.ExactArgs(2),
	RunE: runChunk,
}

func init() {
	chunkFlags.register(chunkCmd)
	rootCmd.AddCommand(chunkCmd)
}

func runChunk(cmd *cobra.Command, args []string) error {
	settings, err := resolveSettings(cmd, &chunkFlags)
	if err != nil {
		return err
	}

	a, err := newApp(cmd, settings)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("closing run history: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("processing %s with policy %s", args[0], a.batch.Policy())
	result, err := a.batch.ProcessPath(ctx, args[0], args[1])
	printSummary(cmd, result)
	return err
}
