package chunklink

import (
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/chunklink-cli/internal/core/domain"
)

// Layer describes the tagging layer Merge attaches.
type Layer struct {
	// UUID identifies the layer. Empty generates a random UUID.
	UUID string

	// TaggingType is the layer type, e.g. "CHUNK".
	TaggingType string

	// Tool is recorded in the layer metadata.
	Tool string

	// Timestamp is recorded in the layer metadata as unix seconds.
	Timestamp time.Time
}

// Merge attaches tags to tok as a new token tagging layer.
// The i-th tag is assigned to token index i. If the number of tags does not
// equal the number of tokens an *domain.AlignmentError is returned and tok is
// left unchanged. Existing layers, including ones of the same type, are kept.
func Merge(tok *domain.Tokenization, tags []string, layer Layer) error {
	expected := tok.TokenCount()
	if len(tags) != expected {
		return &domain.AlignmentError{Expected: expected, Actual: len(tags)}
	}

	id := layer.UUID
	if id == "" {
		id = uuid.NewString()
	}

	tagged := make([]domain.TaggedToken, len(tags))
	for i, tag := range tags {
		tagged[i] = domain.TaggedToken{TokenIndex: i, Tag: tag}
	}

	tok.TokenTaggingList = append(tok.TokenTaggingList, domain.TokenTagging{
		UUID:        id,
		TaggingType: layer.TaggingType,
		Metadata: &domain.AnnotationMetadata{
			Tool:      layer.Tool,
			Timestamp: layer.Timestamp.Unix(),
		},
		TaggedTokenList: tagged,
	})
	return nil
}
