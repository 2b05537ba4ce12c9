package driven

import (
	"context"

	"github.com/custodia-labs/chunklink-cli/internal/core/domain"
)

// RunStore persists batch run history.
type RunStore interface {
	// SaveRun creates or replaces a run and its document results.
	SaveRun(ctx context.Context, run *domain.Run) error

	// GetRun retrieves a run by ID.
	// Returns domain.ErrNotFound if it does not exist.
	GetRun(ctx context.Context, id string) (*domain.Run, error)

	// ListRuns returns the most recent runs first, without document results.
	// A limit of zero or less returns all runs.
	ListRuns(ctx context.Context, limit int) ([]domain.Run, error)
}
