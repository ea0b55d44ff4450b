package registry

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/marmos91/frogopher/internal/protocol/gopher"
	"github.com/marmos91/frogopher/pkg/source"
)

// NotFoundPrefix starts the error message sent when no source serves a selector.
const NotFoundPrefix = "FROG NOT FOUND"

// ErrFrozen is returned by Register once the registry is frozen.
var ErrFrozen = errors.New("registry is frozen")

// Registry is the ordered set of sources that make up the root menu.
//
// Registration order is priority order: Find asks each source in turn and
// the first match wins, and Items lists sources in the same order. The
// registry is filled at startup and frozen when serving starts; from then on
// lookups read the entries without locking.
//
// Example usage:
//
//	reg := NewRegistry()
//	reg.Register("welcome", source.NewInfo("WELCOME, FRIEND"))
//	reg.Register("readme", source.NewText("/README", "READ ME", readme))
//
//	sel := reg.Find(ctx, gopher.NewPath("/README"))
type Registry struct {
	mu      sync.RWMutex
	entries []entry
	frozen  atomic.Bool
}

type entry struct {
	name string
	src  source.Source
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends a named source. Returns an error if src is nil, name is
// empty, or name is already registered.
func (r *Registry) Register(name string, src source.Source) error {
	if src == nil {
		return fmt.Errorf("cannot register nil source")
	}
	if name == "" {
		return fmt.Errorf("cannot register source with empty name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen.Load() {
		return fmt.Errorf("register %q: %w", name, ErrFrozen)
	}
	if slices.ContainsFunc(r.entries, func(e entry) bool { return e.name == name }) {
		return fmt.Errorf("source %q already registered", name)
	}

	r.entries = append(r.entries, entry{name: name, src: src})
	return nil
}

// Get returns the source registered under name.
func (r *Registry) Get(name string) (source.Source, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.entries {
		if e.name == name {
			return e.src, nil
		}
	}
	return nil, fmt.Errorf("source %q not found", name)
}

// Names returns the registered source names in priority order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.entries))
	for i, e := range r.entries {
		names[i] = e.name
	}
	return names
}

// Len returns the number of registered sources.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Freeze closes the registry to further registration. It is idempotent.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen.Store(true)
}

// Frozen reports whether Freeze has been called.
func (r *Registry) Frozen() bool {
	return r.frozen.Load()
}

// snapshot returns the entries to iterate. A frozen registry hands out its
// slice as is; otherwise the entries are copied so that iteration never holds
// the lock while sources talk to their backends.
func (r *Registry) snapshot() []entry {
	if r.frozen.Load() {
		return r.entries
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.entries)
}

// Find returns the response of the first source that serves path, or an
// Error response naming path when none does.
func (r *Registry) Find(ctx context.Context, path gopher.Path) gopher.Selected {
	for _, e := range r.snapshot() {
		if sel, ok := e.src.Find(ctx, path); ok {
			return sel
		}
	}
	return gopher.Error{Message: fmt.Sprintf("%s: %s", NotFoundPrefix, path.Val)}
}

// Items concatenates the menu items of every source in registration order.
// Sources are only asked for their items as iteration reaches them.
func (r *Registry) Items(ctx context.Context) iter.Seq[gopher.MenuItem] {
	return func(yield func(gopher.MenuItem) bool) {
		for _, e := range r.snapshot() {
			for item := range e.src.MenuItems(ctx) {
				if !yield(item) {
					return
				}
			}
		}
	}
}
