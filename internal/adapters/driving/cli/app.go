package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/chunklink-cli/internal/adapters/driven/codec"
	"github.com/custodia-labs/chunklink-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/chunklink-cli/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/chunklink-cli/internal/adapters/driven/tool"
	"github.com/custodia-labs/chunklink-cli/internal/annotators"
	"github.com/custodia-labs/chunklink-cli/internal/connectors/filesystem"
	"github.com/custodia-labs/chunklink-cli/internal/core/domain"
	"github.com/custodia-labs/chunklink-cli/internal/core/ports/driving"
	"github.com/custodia-labs/chunklink-cli/internal/core/services"
	"github.com/custodia-labs/chunklink-cli/internal/logger"
)

// envFile is read from the working directory for environment overrides.
const envFile = ".env"

// settingsService resolves configuration. Nil builds one from --config-dir.
var settingsService driving.SettingsService

func loadSettingsService() (driving.SettingsService, error) {
	if settingsService != nil {
		return settingsService, nil
	}
	store, err := file.NewConfigStore(configDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
	}
	lookup, err := services.EnvLookup(envFile)
	if err != nil {
		return nil, err
	}
	return services.NewSettingsService(store, services.WithEnvLookup(lookup)), nil
}

// app holds the components wired for one chunk or watch command.
type app struct {
	settings *domain.AppSettings
	batch    *services.BatchService
	history  *sqlite.Store
}

// newApp wires the tool, annotator pipeline, document store and run history.
// Configuration problems are reported before any document is touched.
func newApp(cmd *cobra.Command, settings *domain.AppSettings) (*app, error) {
	toolSettings := settings.Tool
	if toolSettings.Path == "" {
		path, err := discoverTool()
		if err != nil {
			return nil, err
		}
		logger.Debug("using chunklink script %s", path)
		toolSettings.Path = path
	}

	runner, err := tool.New(toolSettings)
	if err != nil {
		return nil, err
	}
	if err := runner.Check(); err != nil {
		return nil, err
	}

	registry := annotators.NewRegistry()
	annotators.RegisterDefaults(registry)
	pipeline, err := registry.BuildPipeline(settings.Pipeline, annotators.Deps{Tool: runner})
	if err != nil {
		return nil, err
	}

	documents, err := codec.NewFileStore(settings.Document)
	if err != nil {
		return nil, err
	}

	a := &app{settings: settings}
	opts := []services.BatchOption{
		services.WithDocumentReporter(documentReporter(cmd)),
	}
	if settings.History.Enabled {
		store, err := sqlite.NewStore(settings.History.DataDir)
		if err != nil {
			logger.Warn("run history unavailable: %v", err)
		} else {
			a.history = store
			opts = append(opts, services.WithRunStore(store))
		}
	}

	a.batch = services.NewBatchService(pipeline, documents, filesystem.NewLister(), settings.Batch.Policy, opts...)
	return a, nil
}

// Close releases the history store.
func (a *app) Close() error {
	if a.history == nil {
		return nil
	}
	return a.history.Close()
}

// discoverTool looks for the chunklink script next to the working directory
// and the executable.
func discoverTool() (string, error) {
	var bases []string
	if wd, err := os.Getwd(); err == nil {
		bases = append(bases, wd)
	}
	if exe, err := os.Executable(); err == nil {
		bases = append(bases, filepath.Dir(exe))
	}
	if len(bases) == 0 {
		return "", errors.New("cannot determine search directories for the chunklink script")
	}
	return tool.Discover(bases...)
}

// openHistory opens the run history for the history commands.
func openHistory() (*services.HistoryService, func(), error) {
	svc, err := loadSettingsService()
	if err != nil {
		return nil, nil, err
	}
	settings, err := svc.Get()
	if err != nil {
		return nil, nil, err
	}
	if !settings.History.Enabled {
		return services.NewHistoryService(nil), func() {}, nil
	}
	store, err := sqlite.NewStore(settings.History.DataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("open run history: %w", err)
	}
	closeFn := func() {
		if err := store.Close(); err != nil {
			logger.Warn("closing run history: %v", err)
		}
	}
	return services.NewHistoryService(store), closeFn, nil
}
