package output

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/hupe1980/kdlgen/pkg/kdl"
)

// Layout names understood by DefaultRegistry.
const (
	LayoutHuman   = "human"
	LayoutCompact = "compact"
)

// Renderer turns a value into KDL bytes ready to be written.
type Renderer func(v any, opts ...kdl.Option) ([]byte, error)

// Registry maps layout names to Renderer functions.
type Registry struct {
	mu        sync.RWMutex
	renderers map[string]Renderer
}

// NewRegistry creates an empty layout registry.
func NewRegistry() *Registry {
	return &Registry{
		renderers: make(map[string]Renderer),
	}
}

// Register adds a renderer under the given layout name.
// Existing entries for the same name are overwritten.
func (r *Registry) Register(name string, renderer Renderer) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.renderers[name] = renderer
}

// Renderer returns the renderer for the given layout, or an error if not found.
func (r *Registry) Renderer(name string) (Renderer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.renderers[name]
	if !ok {
		return nil, fmt.Errorf("unknown layout %q (available: %s)", name, r.available())
	}

	return f, nil
}

// Layouts returns the sorted list of registered layout names.
func (r *Registry) Layouts() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.names()
}

func (r *Registry) names() []string {
	names := make([]string, 0, len(r.renderers))
	for name := range r.renderers {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// available is called with the read lock held.
func (r *Registry) available() string {
	names := r.names()
	if len(names) == 0 {
		return "none"
	}

	return strings.Join(names, ", ")
}

// DefaultRegistry returns a registry pre-populated with the built-in
// layouts. Compact output is terminated with a newline so files end cleanly.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.Register(LayoutHuman, kdl.Marshal)

	r.Register(LayoutCompact, func(v any, opts ...kdl.Option) ([]byte, error) {
		data, err := kdl.MarshalCompact(v, opts...)
		if err != nil {
			return nil, err
		}

		return append(data, '\n'), nil
	})

	return r
}

// LayoutName maps the compact switch to a layout name.
func LayoutName(compact bool) string {
	if compact {
		return LayoutCompact
	}

	return LayoutHuman
}
