// Package chunklink derives B-I-O chunk tags for a tokenization by running its
// first constituency parse through the chunklink script.
package chunklink

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/chunklink-cli/internal/core/domain"
	"github.com/custodia-labs/chunklink-cli/internal/core/ports/driven"
	"github.com/custodia-labs/chunklink-cli/internal/logger"
	"github.com/custodia-labs/chunklink-cli/internal/treebank"
)

// Defaults for the attached layer.
const (
	DefaultTaggingType = "CHUNK"
	DefaultToolName    = "Chunklink Constituency Converter"
)

// Ensure Annotator implements the interface.
var _ driven.Annotator = (*Annotator)(nil)

// Annotator converts the first parse of a tokenization into a chunk layer.
type Annotator struct {
	tool        driven.ChunkTool
	taggingType string
	toolName    string
	column      int
	now         func() time.Time
}

// Option configures the annotator.
type Option func(*Annotator)

// WithTaggingType sets the type of the attached layer.
func WithTaggingType(t string) Option {
	return func(a *Annotator) {
		if t != "" {
			a.taggingType = t
		}
	}
}

// WithToolName sets the tool name recorded in layer metadata.
func WithToolName(name string) Option {
	return func(a *Annotator) {
		if name != "" {
			a.toolName = name
		}
	}
}

// WithColumn sets the output column holding the tag.
func WithColumn(column int) Option {
	return func(a *Annotator) {
		if column >= 0 {
			a.column = column
		}
	}
}

// WithClock sets the clock used for layer timestamps.
func WithClock(now func() time.Time) Option {
	return func(a *Annotator) {
		if now != nil {
			a.now = now
		}
	}
}

// New creates a chunklink annotator that runs tool.
func New(tool driven.ChunkTool, opts ...Option) *Annotator {
	a := &Annotator{
		tool:        tool,
		taggingType: DefaultTaggingType,
		toolName:    DefaultToolName,
		column:      DefaultColumn,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Name returns the annotator name.
func (a *Annotator) Name() string {
	return "chunklink"
}

// Annotate serializes the first parse, runs the tool on it and attaches the
// resulting tags. Only the first parse is used even when several exist.
// On any error tok is left unchanged.
func (a *Annotator) Annotate(ctx context.Context, tok *domain.Tokenization) error {
	if tok == nil || !tok.HasParse() {
		return fmt.Errorf("%w: tokenization has no parse", domain.ErrInvalidInput)
	}

	tree, err := treebank.Document(tok.ParseList[0])
	if err != nil {
		return err
	}
	logger.Debug("chunklink input for %s:\n%s", tok.UUID, tree)

	out, err := a.tool.Run(ctx, tree)
	if err != nil {
		return err
	}
	logger.Debug("chunklink output for %s:\n%s", tok.UUID, out.Stdout)

	tags, err := ParseColumn(out.Stdout, a.column)
	if err != nil {
		return err
	}
	logger.Debug("chunk tags for %s: %v", tok.UUID, tags)

	return Merge(tok, tags, Layer{
		TaggingType: a.taggingType,
		Tool:        a.toolName,
		Timestamp:   a.now(),
	})
}
