package chunklink

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/chunklink-cli/internal/core/domain"
)

// DefaultColumn is the 0-indexed column holding the chunk tag in the
// CoNLL-style output of the chunklink script.
const DefaultColumn = 3

// ParseColumn extracts one tag per data line from columnar tool output.
// Lines are trimmed; blank lines and lines starting with "#" are skipped.
// The remaining lines are split on whitespace and field column is taken.
// A data line with too few fields yields domain.ErrMalformedOutput.
func ParseColumn(output string, column int) ([]string, error) {
	if column < 0 {
		return nil, fmt.Errorf("%w: negative column %d", domain.ErrConfiguration, column)
	}

	var tags []string
	for n, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) <= column {
			return nil, fmt.Errorf("%w: line %d has %d fields, need at least %d: %q",
				domain.ErrMalformedOutput, n+1, len(fields), column+1, line)
		}
		tags = append(tags, fields[column])
	}
	return tags, nil
}

// ParseTags extracts chunk tags from chunklink output using DefaultColumn.
func ParseTags(output string) ([]string, error) {
	return ParseColumn(output, DefaultColumn)
}
