package driven

import (
	"context"
	"io"

	"github.com/custodia-labs/chunklink-cli/internal/core/domain"
)

// DocumentCodec serializes Communications in one format.
type DocumentCodec interface {
	// Format returns the format this codec handles.
	Format() domain.DocumentFormat

	// Decode reads one Communication.
	Decode(r io.Reader) (*domain.Communication, error)

	// Encode writes one Communication.
	Encode(w io.Writer, comm *domain.Communication) error
}

// DocumentStore reads and writes Communications by path.
type DocumentStore interface {
	// Load reads the document at path.
	Load(ctx context.Context, path string) (*domain.Communication, error)

	// Save writes the document to path, replacing any existing file.
	Save(ctx context.Context, path string, comm *domain.Communication) error
}
