package states

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	// ErrUnknownHelper indicates a query called a helper that was never
	// defined.
	ErrUnknownHelper = errors.New("states: unknown query helper")
	// ErrHelperDefined indicates a second definition for a helper name.
	ErrHelperDefined = errors.New("states: query helper already defined")
)

// Helper is a Go function callable from state queries, either by name or
// through call("name", args...).
type Helper func(args ...any) (any, error)

// HelperRegistry holds query helpers. Names are case-insensitive.
type HelperRegistry struct {
	mu      sync.RWMutex
	helpers map[string]Helper
}

// NewHelperRegistry constructs an empty registry.
func NewHelperRegistry() *HelperRegistry {
	return &HelperRegistry{helpers: make(map[string]Helper)}
}

// Define adds fn under name. "call" is reserved for the dynamic dispatcher.
func (r *HelperRegistry) Define(name string, fn Helper) error {
	key := strings.ToLower(strings.TrimSpace(name))
	switch {
	case key == "":
		return fmt.Errorf("states: query helper name must not be empty")
	case key == "call":
		return fmt.Errorf("states: query helper name %q is reserved", name)
	case fn == nil:
		return fmt.Errorf("states: query helper %q is nil", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.helpers == nil {
		r.helpers = make(map[string]Helper)
	}
	if _, exists := r.helpers[key]; exists {
		return fmt.Errorf("%w: %s", ErrHelperDefined, name)
	}
	r.helpers[key] = fn
	return nil
}

// Has reports whether name is defined.
func (r *HelperRegistry) Has(name string) bool {
	if r == nil {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.helpers[strings.ToLower(name)]
	return ok
}

// Invoke runs the helper registered for name.
func (r *HelperRegistry) Invoke(name string, args ...any) (any, error) {
	var fn Helper
	if r != nil {
		r.mu.RLock()
		fn = r.helpers[strings.ToLower(name)]
		r.mu.RUnlock()
	}
	if fn == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownHelper, name)
	}
	return fn(args...)
}

// Names returns the defined helper names, sorted.
func (r *HelperRegistry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.helpers))
	for name := range r.helpers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// dispatch backs the call(name, args...) form shared by every engine.
func (r *HelperRegistry) dispatch(args ...any) (any, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("states: call requires a helper name")
	}
	name, ok := args[0].(string)
	if !ok {
		return nil, fmt.Errorf("states: call helper name must be a string, got %T", args[0])
	}
	return r.Invoke(name, args[1:]...)
}

// snapshot copies the registry so an engine is unaffected by later Define
// calls.
func (r *HelperRegistry) snapshot() *HelperRegistry {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := &HelperRegistry{helpers: make(map[string]Helper, len(r.helpers))}
	for name, fn := range r.helpers {
		out.helpers[name] = fn
	}
	return out
}
