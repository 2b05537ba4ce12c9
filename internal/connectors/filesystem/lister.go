// Package filesystem lists and watches the documents of a local directory.
package filesystem

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/custodia-labs/chunklink-cli/internal/core/ports/driven"
)

// Ensure Lister implements the interface.
var _ driven.DirectoryLister = (*Lister)(nil)

// Lister returns the regular files directly inside a directory.
type Lister struct{}

// NewLister creates a Lister.
func NewLister() *Lister {
	return &Lister{}
}

// List returns the paths of the regular files in dir, sorted by name.
// Subdirectories are skipped, not descended into. Symlinks are followed.
func (l *Lister) List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}

	paths := make([]string, 0, len(entries))
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if !isRegularFile(path) {
			continue
		}
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths, nil
}

func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
