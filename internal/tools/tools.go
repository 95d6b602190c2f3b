// Package tools provides the tool registry and request dispatcher. Each
// tool exposes a name, a description, and typed string arguments, and
// returns rendered text.
package tools

import (
	"context"
	"fmt"
	"sync"
)

// ArgSpec describes one tool argument.
type ArgSpec struct {
	Name        string
	Description string
	Required    bool
}

// Metadata identifies a tool for listing.
type Metadata struct {
	Name        string
	Description string
	Args        []ArgSpec
}

// Tool is a single callable operation.
type Tool interface {
	Metadata() Metadata
	Handle(ctx context.Context, args map[string]string) (string, error)
}

// Registry stores registered tools and provides lookup.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
	order []string
}

// NewRegistry creates a new empty Registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool to the registry. Re-registering a name replaces
// the previous tool but keeps its listing position.
func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := t.Metadata().Name
	if _, exists := r.tools[name]; !exists {
		r.order = append(r.order, name)
	}
	r.tools[name] = t
}

// Get returns a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// List returns metadata for all registered tools in registration order.
func (r *Registry) List() []Metadata {
	r.mu.RLock()
	defer r.mu.RUnlock()
	metas := make([]Metadata, 0, len(r.order))
	for _, name := range r.order {
		metas = append(metas, r.tools[name].Metadata())
	}
	return metas
}

// Dispatcher routes calls to tools via the registry.
type Dispatcher struct {
	registry *Registry
}

// NewDispatcher creates a new Dispatcher.
func NewDispatcher(registry *Registry) *Dispatcher {
	return &Dispatcher{registry: registry}
}

// Dispatch looks up the tool by name, checks required arguments, and
// calls its Handle method.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, args map[string]string) (string, error) {
	t, ok := d.registry.Get(name)
	if !ok {
		return "", fmt.Errorf("tool %q not found", name)
	}
	for _, a := range t.Metadata().Args {
		if a.Required && args[a.Name] == "" {
			return "", fmt.Errorf("tool %q: missing required argument %q", name, a.Name)
		}
	}
	return t.Handle(ctx, args)
}
