package domain

import (
	"fmt"
	"time"
)

// Default tool settings.
const (
	// DefaultInterpreter runs the chunklink perl script.
	DefaultInterpreter = "perl"

	// DefaultToolTimeout bounds a single tool invocation.
	DefaultToolTimeout = 60 * time.Second

	// DefaultWatchDebounce is how long a file must be quiet before it is processed.
	DefaultWatchDebounce = 500 * time.Millisecond

	// ChunklinkScript is the file name of the CoNLL-2000 chunklink script.
	ChunklinkScript = "chunklink_2-2-2000_for_conll.pl"
)

// ToolSettings configures the external chunking tool.
type ToolSettings struct {
	// Path is the tool script or executable.
	Path string

	// Interpreter runs Path when set (e.g. "perl"). Empty executes Path directly.
	Interpreter string

	// Args are extra arguments placed after Path.
	Args []string

	// Transport selects stdin streaming or a temporary file.
	Transport Transport

	// Timeout bounds each invocation. Zero disables the timeout.
	Timeout time.Duration

	// Rate limits invocations per second. Zero means unlimited.
	Rate float64
}

// Command returns the program and leading arguments used to start the tool.
func (t ToolSettings) Command() (string, []string) {
	args := make([]string, 0, len(t.Args)+1)
	if t.Interpreter == "" {
		args = append(args, t.Args...)
		return t.Path, args
	}
	args = append(args, t.Path)
	args = append(args, t.Args...)
	return t.Interpreter, args
}

// BatchSettings configures error handling across a run.
type BatchSettings struct {
	Policy ErrorPolicy
}

// DocumentSettings configures document serialization.
type DocumentSettings struct {
	// Format is used for files whose extension does not name a format.
	Format DocumentFormat

	// ForceFormat ignores file extensions when true.
	ForceFormat bool
}

// HistorySettings configures the run history store.
type HistorySettings struct {
	Enabled bool

	// DataDir holds history.db. Empty selects ~/.chunklink/data.
	DataDir string
}

// WatchSettings configures watch mode.
type WatchSettings struct {
	Debounce time.Duration
}

// AppSettings holds all application settings.
type AppSettings struct {
	Tool     ToolSettings
	Batch    BatchSettings
	Document DocumentSettings
	History  HistorySettings
	Watch    WatchSettings
	Pipeline PipelineConfig
}

// DefaultAppSettings returns settings with sensible defaults.
// The tool path is left empty and discovered at run time.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Tool: ToolSettings{
			Interpreter: DefaultInterpreter,
			Transport:   TransportStdin,
			Timeout:     DefaultToolTimeout,
		},
		Batch:    BatchSettings{Policy: PolicyContinue},
		Document: DocumentSettings{Format: FormatJSON},
		History:  HistorySettings{Enabled: true},
		Watch:    WatchSettings{Debounce: DefaultWatchDebounce},
		Pipeline: DefaultPipelineConfig(),
	}
}

// Validate checks settings that do not depend on the filesystem.
func (s AppSettings) Validate() error {
	if !s.Batch.Policy.IsValid() {
		return fmt.Errorf("%w: unknown error policy %q", ErrConfiguration, s.Batch.Policy)
	}
	if _, err := ParseTransport(string(s.Tool.Transport)); err != nil {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	if _, err := ParseDocumentFormat(string(s.Document.Format)); err != nil {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	if s.Tool.Timeout < 0 {
		return fmt.Errorf("%w: negative tool timeout %s", ErrConfiguration, s.Tool.Timeout)
	}
	if s.Tool.Rate < 0 {
		return fmt.Errorf("%w: negative tool rate %v", ErrConfiguration, s.Tool.Rate)
	}
	if len(s.Pipeline.Annotators) == 0 {
		return fmt.Errorf("%w: no annotators configured", ErrConfiguration)
	}
	return nil
}

// PipelineConfig holds annotator pipeline configuration.
// Uses generic map-based config so new annotators can be added
// without modifying this struct.
type PipelineConfig struct {
	// Annotators is the ordered list of annotator names to run per tokenization.
	Annotators []string

	// AnnotatorConfigs holds per-annotator configuration as generic maps.
	AnnotatorConfigs map[string]map[string]any
}

// GetAnnotatorConfig returns config for a specific annotator, or nil if not set.
func (c *PipelineConfig) GetAnnotatorConfig(name string) map[string]any {
	if c.AnnotatorConfigs == nil {
		return nil
	}
	return c.AnnotatorConfigs[name]
}

// DefaultPipelineConfig returns the default pipeline: chunklink only.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Annotators: []string{"chunklink"},
		AnnotatorConfigs: map[string]map[string]any{
			"chunklink": {
				"tagging_type": "CHUNK",
				"column":       3,
			},
		},
	}
}
