package annotators

import (
	"fmt"
	"sort"
	"time"

	"github.com/custodia-labs/chunklink-cli/internal/core/domain"
	"github.com/custodia-labs/chunklink-cli/internal/core/ports/driven"
)

// Deps carries the collaborators an annotator builder may wire in.
type Deps struct {
	// Tool runs the external chunking program.
	Tool driven.ChunkTool

	// Now returns the timestamp recorded in annotation metadata.
	// Nil uses time.Now.
	Now func() time.Time
}

// BuilderFunc creates an Annotator from generic config.
// Config is a map of annotator-specific settings parsed from user config.
type BuilderFunc func(cfg map[string]any, deps Deps) (driven.Annotator, error)

// Registry maps annotator names to their builders.
// It allows dynamic construction of annotators from configuration.
type Registry struct {
	builders map[string]BuilderFunc
}

// NewRegistry creates a new annotator registry.
func NewRegistry() *Registry {
	return &Registry{
		builders: make(map[string]BuilderFunc),
	}
}

// Register adds an annotator builder to the registry.
// Name should be unique and match the annotator's Name() return value.
func (r *Registry) Register(name string, builder BuilderFunc) {
	r.builders[name] = builder
}

// Build creates an annotator by name with the given config.
// Returns error if the annotator name is not registered.
func (r *Registry) Build(name string, cfg map[string]any, deps Deps) (driven.Annotator, error) {
	builder, ok := r.builders[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown annotator: %s", domain.ErrConfiguration, name)
	}
	return builder(cfg, deps)
}

// BuildPipeline creates every annotator named in cfg, in order.
func (r *Registry) BuildPipeline(cfg domain.PipelineConfig, deps Deps) (*Pipeline, error) {
	p := NewPipeline()
	for _, name := range cfg.Annotators {
		a, err := r.Build(name, cfg.GetAnnotatorConfig(name), deps)
		if err != nil {
			return nil, err
		}
		p.Add(a)
	}
	return p, nil
}

// Has returns true if an annotator with the given name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.builders[name]
	return ok
}

// Names returns all registered annotator names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
