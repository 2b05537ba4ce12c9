package annotators

import (
	"fmt"

	"github.com/custodia-labs/chunklink-cli/internal/annotators/chunklink"
	"github.com/custodia-labs/chunklink-cli/internal/core/domain"
	"github.com/custodia-labs/chunklink-cli/internal/core/ports/driven"
)

// RegisterDefaults registers all built-in annotators with the registry.
func RegisterDefaults(r *Registry) {
	r.Register("chunklink", buildChunklink)
}

// buildChunklink creates a chunklink annotator from generic config.
// Supported config keys:
//   - tagging_type (string): Layer type to attach (default: CHUNK)
//   - tool_name (string): Tool recorded in layer metadata
//   - column (int): 0-indexed output column holding the tag (default: 3)
func buildChunklink(cfg map[string]any, deps Deps) (driven.Annotator, error) {
	if deps.Tool == nil {
		return nil, fmt.Errorf("%w: chunklink annotator requires a chunk tool", domain.ErrConfiguration)
	}

	var opts []chunklink.Option
	if cfg != nil {
		if tt := getStringFromConfig(cfg, "tagging_type"); tt != "" {
			opts = append(opts, chunklink.WithTaggingType(tt))
		}
		if name := getStringFromConfig(cfg, "tool_name"); name != "" {
			opts = append(opts, chunklink.WithToolName(name))
		}
		if _, ok := cfg["column"]; ok {
			opts = append(opts, chunklink.WithColumn(getIntFromConfig(cfg, "column")))
		}
	}
	if deps.Now != nil {
		opts = append(opts, chunklink.WithClock(deps.Now))
	}

	return chunklink.New(deps.Tool, opts...), nil
}

// getIntFromConfig safely extracts an int from generic config map.
// Handles int, int64, and float64 types that may come from TOML/JSON parsing.
func getIntFromConfig(cfg map[string]any, key string) int {
	val, ok := cfg[key]
	if !ok {
		return 0
	}

	switch v := val.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

func getStringFromConfig(cfg map[string]any, key string) string {
	s, _ := cfg[key].(string)
	return s
}
