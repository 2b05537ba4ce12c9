package cli

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/chunklink-cli/internal/core/domain"
)

func TestRatioLine(t *testing.T) {
	tests := []struct {
		result domain.DocumentResult
		want   string
	}{
		{domain.DocumentResult{Attempted: 2, Chunked: 1}, "Chunked 1 / 2 = 0.500000"},
		{domain.DocumentResult{}, "Chunked 0 / 0 = 0.000000"},
		{domain.DocumentResult{Seen: 5, Attempted: 3, Chunked: 3}, "Chunked 3 / 3 = 1.000000"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ratioLine(tt.result))
		assert.Contains(t, tt.want, fmt.Sprintf("%f", tt.result.Ratio()))
	}
}

func TestNewReportStyles_PlainForNonTerminal(t *testing.T) {
	styles := newReportStyles(new(bytes.Buffer))

	assert.Equal(t, "Summary", styles.Title.Render("Summary"))
	assert.Equal(t, "x", styles.status(domain.RunAborted).Render("x"))
	assert.Equal(t, "x", styles.ratio(domain.DocumentResult{Attempted: 3}).Render("x"))
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, isTerminal(new(bytes.Buffer)))
}
