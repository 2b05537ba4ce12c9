package tool

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/chunklink-cli/internal/core/domain"
)

// Candidates returns the locations searched for the chunklink script under
// each base directory, in order.
func Candidates(baseDirs ...string) []string {
	paths := make([]string, 0, len(baseDirs)*2)
	for _, base := range baseDirs {
		paths = append(paths,
			filepath.Join(base, domain.ChunklinkScript),
			filepath.Join(base, "scripts", domain.ChunklinkScript),
		)
	}
	return paths
}

// Discover returns the first candidate that exists as a regular file.
func Discover(baseDirs ...string) (string, error) {
	candidates := Candidates(baseDirs...)
	for _, path := range candidates {
		info, err := os.Stat(path)
		if err == nil && info.Mode().IsRegular() {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: %s not found (searched %v); set it with --chunklink",
		domain.ErrConfiguration, domain.ChunklinkScript, candidates)
}
