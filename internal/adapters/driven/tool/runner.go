package tool

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/chunklink-cli/internal/core/domain"
	"github.com/custodia-labs/chunklink-cli/internal/core/ports/driven"
	"github.com/custodia-labs/chunklink-cli/internal/logger"
)

// TreebankFileName is the file name used by the file transport.
const TreebankFileName = "wsj_0001.mrg"

// waitDelay bounds how long Run waits for output pipes after the process is killed.
const waitDelay = 2 * time.Second

// Ensure Runner implements the interface.
var _ driven.ChunkTool = (*Runner)(nil)

// Runner invokes the chunking tool once per call.
type Runner struct {
	settings domain.ToolSettings
	limiter  *rate.Limiter
	tempDir  string
}

// Option configures a Runner.
type Option func(*Runner)

// WithTempDir sets the parent directory for file transport scratch dirs.
func WithTempDir(dir string) Option {
	return func(r *Runner) {
		r.tempDir = dir
	}
}

// New creates a Runner for the given settings.
func New(settings domain.ToolSettings, opts ...Option) (*Runner, error) {
	if settings.Path == "" {
		return nil, fmt.Errorf("%w: chunklink tool path is not set", domain.ErrConfiguration)
	}
	transport, err := domain.ParseTransport(string(settings.Transport))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
	}
	settings.Transport = transport
	if settings.Timeout < 0 {
		return nil, fmt.Errorf("%w: negative tool timeout %s", domain.ErrConfiguration, settings.Timeout)
	}

	r := &Runner{settings: settings}
	if settings.Rate > 0 {
		r.limiter = rate.NewLimiter(rate.Limit(settings.Rate), 1)
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Settings returns the settings the runner was built with.
func (r *Runner) Settings() domain.ToolSettings {
	return r.settings
}

// Check verifies that the tool script exists and its program can be found.
func (r *Runner) Check() error {
	info, err := os.Stat(r.settings.Path)
	if err != nil {
		return fmt.Errorf("%w: chunklink tool %s: %w", domain.ErrConfiguration, r.settings.Path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: chunklink tool %s is a directory", domain.ErrConfiguration, r.settings.Path)
	}
	prog, _ := r.settings.Command()
	if _, err := exec.LookPath(prog); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
	}
	return nil
}

// Run feeds input to the tool and captures its output.
func (r *Runner) Run(ctx context.Context, input string) (driven.ToolOutput, error) {
	prog, args := r.settings.Command()

	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return driven.ToolOutput{}, &domain.ToolError{
				Command:  append([]string{prog}, args...),
				ExitCode: -1,
				Err:      err,
			}
		}
	}

	if r.settings.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.settings.Timeout)
		defer cancel()
	}

	var stdin string
	switch r.settings.Transport {
	case domain.TransportFile:
		path, cleanup, err := r.writeTreebank(input)
		if err != nil {
			return driven.ToolOutput{}, &domain.ToolError{
				Command:  append([]string{prog}, args...),
				ExitCode: -1,
				Err:      err,
			}
		}
		defer cleanup()
		args = append(args, path)
	default:
		stdin = input
	}

	cmdline := append([]string{prog}, args...)
	logger.Debug("running %s", strings.Join(cmdline, " "))

	cmd := exec.CommandContext(ctx, prog, args...)
	cmd.WaitDelay = waitDelay
	if r.settings.Transport != domain.TransportFile {
		cmd.Stdin = strings.NewReader(stdin)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	out := driven.ToolOutput{Stdout: stdout.String(), Stderr: stderr.String()}
	logger.Debug("%s finished in %s", prog, time.Since(start).Round(time.Millisecond))

	if err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("timed out after %s: %w", r.settings.Timeout, ctx.Err())
		} else if ctx.Err() != nil {
			err = ctx.Err()
		}
		return out, &domain.ToolError{
			Command:  cmdline,
			ExitCode: exitCode,
			Stderr:   out.Stderr,
			Err:      err,
		}
	}

	return out, nil
}

// writeTreebank writes input to a fresh scratch directory and returns the
// file path and a cleanup function removing the directory.
func (r *Runner) writeTreebank(input string) (string, func(), error) {
	dir, err := os.MkdirTemp(r.tempDir, "chunklink-*")
	if err != nil {
		return "", nil, fmt.Errorf("create scratch dir: %w", err)
	}
	cleanup := func() {
		if err := os.RemoveAll(dir); err != nil {
			logger.Warn("failed to remove %s: %v", dir, err)
		}
	}

	path := filepath.Join(dir, TreebankFileName)
	if err := os.WriteFile(path, []byte(input), 0o600); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("write treebank file: %w", err)
	}
	return path, cleanup, nil
}
