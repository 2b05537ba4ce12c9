package codec

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/chunklink-cli/internal/core/domain"
	"github.com/custodia-labs/chunklink-cli/internal/core/ports/driven"
)

// Ensure FileStore implements the interface.
var _ driven.DocumentStore = (*FileStore)(nil)

// FileStore loads and saves documents on the local filesystem, choosing the
// codec from the file extension.
type FileStore struct {
	settings domain.DocumentSettings
}

// NewFileStore creates a FileStore.
// settings.Format is used for unknown extensions, or for every file when
// settings.ForceFormat is set.
func NewFileStore(settings domain.DocumentSettings) (*FileStore, error) {
	if _, err := ForFormat(settings.Format); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
	}
	return &FileStore{settings: settings}, nil
}

// CodecFor returns the codec used for path.
func (s *FileStore) CodecFor(path string) driven.DocumentCodec {
	format := s.settings.Format
	if !s.settings.ForceFormat {
		if f, ok := FormatForPath(path); ok {
			format = f
		}
	}
	// Format was validated in NewFileStore.
	c, _ := ForFormat(format)
	return c
}

// Load reads the document at path.
func (s *FileStore) Load(ctx context.Context, path string) (*domain.Communication, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrDocumentIO, err)
	}
	defer f.Close()

	comm, err := s.CodecFor(path).Decode(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrDocumentIO, path, err)
	}
	return comm, nil
}

// Save writes comm to path. The document is written to a temporary file in
// the same directory and renamed into place, so a failed write never leaves
// a truncated output.
func (s *FileStore) Save(ctx context.Context, path string, comm *domain.Communication) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrDocumentIO, err)
	}
	tmpName := tmp.Name()
	defer func() {
		// No-op after a successful rename.
		_ = os.Remove(tmpName)
	}()

	w := bufio.NewWriter(tmp)
	if err := s.CodecFor(path).Encode(w, comm); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: %s: %w", domain.ErrDocumentIO, path, err)
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: %w", domain.ErrDocumentIO, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrDocumentIO, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrDocumentIO, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrDocumentIO, err)
	}
	return nil
}
