// Package annotators provides tokenization annotators and the pipeline that
// chains them.
package annotators

import (
	"context"
	"fmt"

	"github.com/custodia-labs/chunklink-cli/internal/core/domain"
	"github.com/custodia-labs/chunklink-cli/internal/core/ports/driven"
)

// Ensure Pipeline implements the interface.
var _ driven.Annotator = (*Pipeline)(nil)

// Pipeline chains multiple Annotators and runs them in order.
// It is itself an Annotator, so the batch processor can run either a single
// annotator or a configured chain.
type Pipeline struct {
	annotators []driven.Annotator
}

// NewPipeline creates a new annotation pipeline.
// Annotators are executed in the order provided.
func NewPipeline(annotators ...driven.Annotator) *Pipeline {
	return &Pipeline{
		annotators: annotators,
	}
}

// Name returns the pipeline name.
func (p *Pipeline) Name() string {
	return "pipeline"
}

// Annotate runs the tokenization through all annotators in order and stops at
// the first error. Layers added by earlier annotators are kept.
// The error is returned unwrapped apart from the annotator name, so callers
// can still classify it with errors.Is.
func (p *Pipeline) Annotate(ctx context.Context, tok *domain.Tokenization) error {
	if tok == nil {
		return fmt.Errorf("%w: tokenization is nil", domain.ErrInvalidInput)
	}

	for _, a := range p.annotators {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := a.Annotate(ctx, tok); err != nil {
			return fmt.Errorf("annotator %s: %w", a.Name(), err)
		}
	}

	return nil
}

// Add appends an annotator to the pipeline.
func (p *Pipeline) Add(a driven.Annotator) {
	p.annotators = append(p.annotators, a)
}

// Len returns the number of annotators in the pipeline.
func (p *Pipeline) Len() int {
	return len(p.annotators)
}

// Names returns the annotator names in execution order.
func (p *Pipeline) Names() []string {
	names := make([]string, len(p.annotators))
	for i, a := range p.annotators {
		names[i] = a.Name()
	}
	return names
}
