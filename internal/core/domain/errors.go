package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors classify failures so the batch processor can decide whether
// to skip a sentence, skip a document, or abort the run.
var (
	// ErrConfiguration indicates missing or invalid paths, tools or settings.
	// Always fatal and reported before any document is processed.
	ErrConfiguration = errors.New("configuration error")

	// ErrTreeIntegrity indicates a malformed constituency parse.
	// Isolated to the sentence it occurs in.
	ErrTreeIntegrity = errors.New("tree integrity error")

	// ErrToolInvocation indicates the external chunking tool failed to start,
	// exited non-zero, or timed out.
	ErrToolInvocation = errors.New("tool invocation failed")

	// ErrAlignment indicates the tool produced a different number of tags than
	// the sentence has tokens. Never fatal.
	ErrAlignment = errors.New("chunk alignment error")

	// ErrMalformedOutput indicates a tool output line without a tag column.
	// Treated like an alignment error.
	ErrMalformedOutput = errors.New("malformed tool output")

	// ErrDocumentIO indicates a document could not be read or written.
	ErrDocumentIO = errors.New("document i/o error")

	// ErrUnsupportedFormat indicates an unknown document serialization.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")
)

// ToolError describes a failed invocation of the external chunking tool.
// It matches ErrToolInvocation with errors.Is.
type ToolError struct {
	// Command is the command line that was run.
	Command []string

	// ExitCode is the process exit status, or -1 if it never exited normally.
	ExitCode int

	// Stderr is the captured standard error output.
	Stderr string

	// Err is the underlying cause.
	Err error
}

func (e *ToolError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", ErrToolInvocation, strings.Join(e.Command, " "))
	if e.ExitCode >= 0 {
		fmt.Fprintf(&b, " exited with status %d", e.ExitCode)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		fmt.Fprintf(&b, " (stderr: %s)", stderr)
	}
	return b.String()
}

func (e *ToolError) Unwrap() error { return e.Err }

// Is reports ErrToolInvocation as a match.
func (e *ToolError) Is(target error) bool {
	return target == ErrToolInvocation
}

// AlignmentError reports a tag count that differs from the token count.
type AlignmentError struct {
	Expected int
	Actual   int
}

func (e *AlignmentError) Error() string {
	return fmt.Sprintf("%s: incorrect number of chunks: expected=%d actual=%d",
		ErrAlignment, e.Expected, e.Actual)
}

// Is reports ErrAlignment as a match.
func (e *AlignmentError) Is(target error) bool {
	return target == ErrAlignment
}

// IsSentenceSkip reports whether err only ever skips the current sentence,
// regardless of the error policy.
func IsSentenceSkip(err error) bool {
	return errors.Is(err, ErrTreeIntegrity) ||
		errors.Is(err, ErrAlignment) ||
		errors.Is(err, ErrMalformedOutput)
}
