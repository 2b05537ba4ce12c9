package driving

import (
	"context"

	"github.com/custodia-labs/chunklink-cli/internal/core/domain"
)

// BatchProcessor adds chunk annotations to documents on disk.
type BatchProcessor interface {
	// ProcessFile annotates one document and writes it to outPath.
	// The returned error is non-nil only when the run must stop
	// (fail-fast policy, or context cancellation).
	ProcessFile(ctx context.Context, inPath, outPath string) (domain.DocumentResult, error)

	// ProcessDir annotates every top-level file of inDir into outDir.
	// Both directories must exist.
	ProcessDir(ctx context.Context, inDir, outDir string) (domain.BatchResult, error)

	// ProcessPath dispatches to ProcessDir or ProcessFile depending on inPath.
	ProcessPath(ctx context.Context, inPath, outPath string) (domain.BatchResult, error)
}

// HistoryService exposes recorded runs.
type HistoryService interface {
	// List returns recent runs, newest first.
	List(ctx context.Context, limit int) ([]domain.Run, error)

	// Get returns one run with its document results.
	Get(ctx context.Context, id string) (*domain.Run, error)

	// Enabled reports whether a run store is configured.
	Enabled() bool
}
