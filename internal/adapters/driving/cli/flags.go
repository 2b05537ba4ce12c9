package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/chunklink-cli/internal/core/domain"
)

// runFlags are the flags shared by the chunk and watch commands.
// They override environment and config file settings when set.
type runFlags struct {
	tool        string
	interpreter string
	transport   string
	timeout     time.Duration
	rate        float64
	failFast    bool
	format      string
	noHistory   bool
}

func (f *runFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVarP(&f.tool, "chunklink", "c", "", "path to "+domain.ChunklinkScript)
	fl.StringVar(&f.interpreter, "interpreter", domain.DefaultInterpreter, "program that runs the script (empty runs it directly)")
	fl.StringVar(&f.transport, "transport", string(domain.TransportStdin), "how trees reach the tool: stdin or file")
	fl.DurationVar(&f.timeout, "timeout", domain.DefaultToolTimeout, "timeout per tool invocation (0 disables)")
	fl.Float64Var(&f.rate, "rate", 0, "maximum tool invocations per second (0 is unlimited)")
	fl.BoolVar(&f.failFast, "fail-fast", false, "abort on the first tool or document error")
	fl.StringVar(&f.format, "format", "", "document format for every file: json, yaml or msgpack")
	fl.BoolVar(&f.noHistory, "no-history", false, "do not record the run in the history")
}

// apply overlays the flags that were set on settings.
func (f *runFlags) apply(cmd *cobra.Command, s *domain.AppSettings) error {
	fl := cmd.Flags()
	if fl.Changed("chunklink") {
		s.Tool.Path = f.tool
	}
	if fl.Changed("interpreter") {
		s.Tool.Interpreter = f.interpreter
	}
	if fl.Changed("transport") {
		t, err := domain.ParseTransport(f.transport)
		if err != nil {
			return fmt.Errorf("%w: --transport: %w", domain.ErrConfiguration, err)
		}
		s.Tool.Transport = t
	}
	if fl.Changed("timeout") {
		s.Tool.Timeout = f.timeout
	}
	if fl.Changed("rate") {
		s.Tool.Rate = f.rate
	}
	if fl.Changed("fail-fast") {
		s.Batch.Policy = domain.PolicyContinue
		if f.failFast {
			s.Batch.Policy = domain.PolicyFailFast
		}
	}
	if fl.Changed("format") {
		format, err := domain.ParseDocumentFormat(f.format)
		if err != nil {
			return fmt.Errorf("%w: --format: %w", domain.ErrConfiguration, err)
		}
		s.Document.Format = format
		s.Document.ForceFormat = true
	}
	if f.noHistory {
		s.History.Enabled = false
	}
	return s.Validate()
}

// resolveSettings loads settings and applies the command's flags.
func resolveSettings(cmd *cobra.Command, f *runFlags) (*domain.AppSettings, error) {
	svc, err := loadSettingsService()
	if err != nil {
		return nil, err
	}
	settings, err := svc.Get()
	if err != nil {
		return nil, err
	}
	if err := f.apply(cmd, settings); err != nil {
		return nil, err
	}
	return settings, nil
}
