package reporters

import (
	"fmt"

	"github.com/custodia-labs/mailsift-cli/internal/core/ports/driven"
)

// BuilderFunc creates a Reporter from generic config.
// Config is a map of reporter-specific settings parsed from user config.
type BuilderFunc func(cfg map[string]any) (driven.Reporter, error)

// Registry maps reporter names to their builders.
// It allows dynamic construction of reporters from configuration.
type Registry struct {
	builders map[string]BuilderFunc
}

// NewRegistry creates a new reporter registry.
func NewRegistry() *Registry {
	return &Registry{
		builders: make(map[string]BuilderFunc),
	}
}

// Register adds a reporter builder to the registry.
// Name should be unique and match the reporter's Name() return value.
func (r *Registry) Register(name string, builder BuilderFunc) {
	r.builders[name] = builder
}

// Build creates a reporter by name with the given config.
// Returns error if the reporter name is not registered.
func (r *Registry) Build(name string, cfg map[string]any) (driven.Reporter, error) {
	builder, ok := r.builders[name]
	if !ok {
		return nil, fmt.Errorf("unknown reporter: %s", name)
	}
	return builder(cfg)
}

// Has returns true if a reporter with the given name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.builders[name]
	return ok
}

// Names returns all registered reporter names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	return names
}
