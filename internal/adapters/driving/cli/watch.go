package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/chunklink-cli/internal/connectors/filesystem"
	"github.com/custodia-labs/chunklink-cli/internal/core/domain"
	"github.com/custodia-labs/chunklink-cli/internal/logger"
)

var watchFlags runFlags

var watchCmd = &cobra.Command{
	Use:   "watch <input-dir> <output-dir>",
	Short: "Chunk documents as they appear in a directory",
	Long: `Processes the existing top-level files of <input-dir>, then watches it and
processes every file that is created or written once it has been quiet for
the debounce interval (watch.debounce, default 500ms).

Runs until interrupted.`,
	Args: cobra.ExactArgs(2),
	RunE: runWatch,
}

func init() {
	watchFlags.register(watchCmd)
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	inDir, outDir := args[0], args[1]
	same, err := sameDir(inDir, outDir)
	if err != nil {
		return err
	}
	if same {
		return fmt.Errorf("%w: input and output directories must differ", domain.ErrConfiguration)
	}

	settings, err := resolveSettings(cmd, &watchFlags)
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

	// Watch before the initial pass so files arriving during it are seen.
	w := filesystem.NewWatcher(inDir, settings.Watch.Debounce)
	defer w.Close()
	paths, err := w.Watch(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
	}

	result, err := a.batch.ProcessDir(ctx, inDir, outDir)
	printSummary(cmd, result)
	if err != nil {
		return err
	}
	logger.Info("watching %s", inDir)

	for path := range paths {
		out := filepath.Join(outDir, filepath.Base(path))
		if _, err := a.batch.ProcessFile(ctx, path, out); err != nil {
			if errors.Is(err, ctx.Err()) {
				break
			}
			return err
		}
	}
	return nil
}

// sameDir reports whether a and b name the same directory.
func sameDir(a, b string) (bool, error) {
	absA, err := filepath.Abs(a)
	if err != nil {
		return false, err
	}
	absB, err := filepath.Abs(b)
	if err != nil {
		return false, err
	}
	return absA == absB, nil
}
