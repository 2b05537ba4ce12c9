package driven

import (
	"context"

	"github.com/custodia-labs/chunklink-cli/internal/core/domain"
)

// Annotator adds an annotation layer to a tokenization.
// Annotators are chained in a pipeline; each sees the layers added by the
// ones before it.
type Annotator interface {
	// Name returns the annotator name for logging and configuration.
	Name() string

	// Annotate reads the tokenization and appends layers to it. On error the
	// tokenization must be left unchanged by this annotator.
	Annotate(ctx context.Context, tok *domain.Tokenization) error
}
