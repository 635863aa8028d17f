package states

import (
	"context"
	"reflect"
	"sync"

	"github.com/goliatone/go-states/pkg/activity"
)

// DefaultCapacity bounds the number of scopes a registry keeps active.
const DefaultCapacity = 5

// Registry tracks the currently active scopes, oldest first, and resolves
// type lookups against them newest first.
//
// Capacity is a leak guard, not a lifetime guarantee: registering past
// capacity evicts the oldest scope even when its tree node has not been
// deactivated yet.
type Registry struct {
	mu       sync.RWMutex
	scopes   []*Scope
	capacity int
	logger   Logger
	emitter  *activity.Emitter
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithCapacity sets the eviction bound. Zero or a negative value disables
// eviction.
func WithCapacity(capacity int) RegistryOption {
	return func(r *Registry) {
		if capacity < 0 {
			capacity = 0
		}
		r.capacity = capacity
	}
}

// WithRegistryLogger sets the registry logger.
func WithRegistryLogger(logger Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithRegistryEmitter emits scope lifecycle and resolve miss events.
func WithRegistryEmitter(emitter *activity.Emitter) RegistryOption {
	return func(r *Registry) {
		r.emitter = emitter
	}
}

// NewRegistry constructs an empty registry with DefaultCapacity.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{capacity: DefaultCapacity}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	r.logger = loggerOrNop(r.logger)
	return r
}

// Register appends scope as the newest active scope. An entry wrapping the
// same container instances is removed first, and the oldest entry is evicted
// when the registry grows past capacity.
func (r *Registry) Register(scope *Scope) {
	if scope == nil {
		return
	}

	r.mu.Lock()
	var replaced []*Scope
	kept := r.scopes[:0:0]
	for _, existing := range r.scopes {
		if existing.sameMembers(scope) {
			replaced = append(replaced, existing)
			continue
		}
		kept = append(kept, existing)
	}
	kept = append(kept, scope)

	var evicted []*Scope
	for r.capacity > 0 && len(kept) > r.capacity {
		evicted = append(evicted, kept[0])
		kept = kept[1:]
	}
	r.scopes = kept
	active := len(kept)
	r.mu.Unlock()

	for _, old := range replaced {
		r.logger.Debugw("states: scope replaced", "scope", old.label(), "by", scope.label())
		r.emit(activity.VerbScopeReplaced, old, active)
	}
	for _, old := range evicted {
		r.logger.Warnw("states: scope evicted at capacity; lookups for its containers will miss until it is registered again",
			"scope", old.label(),
			"capacity", r.capacity,
		)
		r.emit(activity.VerbScopeEvicted, old, active)
	}
	r.logger.Debugw("states: scope registered", "scope", scope.label(), "active", active)
	r.emit(activity.VerbScopeRegistered, scope, active)
}

// Unregister removes scope if present. It reports whether anything was
// removed; calling it for an absent or evicted scope is a no-op.
func (r *Registry) Unregister(scope *Scope) bool {
	if scope == nil {
		return false
	}
	r.mu.Lock()
	index := -1
	for i, existing := range r.scopes {
		if existing == scope {
			index = i
			break
		}
	}
	if index < 0 {
		r.mu.Unlock()
		return false
	}
	r.scopes = append(r.scopes[:index:index], r.scopes[index+1:]...)
	active := len(r.scopes)
	r.mu.Unlock()

	r.logger.Debugw("states: scope unregistered", "scope", scope.label(), "active", active)
	r.emit(activity.VerbScopeUnregistered, scope, active)
	return true
}

// Resolve returns the container of type C from the newest active scope that
// holds one. It fails with ErrNoActiveScope when nothing is registered and
// with ErrNotFound when no active scope has a C.
func Resolve[C any](r *Registry) (C, error) {
	value, _, err := resolve[C](r, false)
	return value, err
}

// Get is the global accessor: the container of type C from whichever active
// scope is most relevant.
func Get[C any](r *Registry) (C, error) {
	return Resolve[C](r)
}

// ResolveWithTrace behaves like Resolve and additionally reports every scope
// probed, newest first.
func ResolveWithTrace[C any](r *Registry) (C, Trace, error) {
	return resolve[C](r, true)
}

func resolve[C any](r *Registry, traced bool) (C, Trace, error) {
	var zero C
	name := typeName(reflect.TypeOf((*C)(nil)).Elem())
	trace := Trace{Type: name}
	scopes := r.Active()

	if len(scopes) == 0 {
		err := &LookupError{Type: name, Err: ErrNoActiveScope}
		r.missed(name, 0, err)
		return zero, trace, err
	}

	for i := len(scopes) - 1; i >= 0; i-- {
		value, err := Lookup[C](scopes[i])
		if traced {
			trace.Probes = append(trace.Probes, Probe{
				ScopeID:   scopes[i].ID(),
				ScopeName: scopes[i].Name(),
				Position:  i,
				Found:     err == nil,
			})
		}
		if err == nil {
			return value, trace, nil
		}
	}

	err := &LookupError{Type: name, Active: len(scopes), Err: ErrNotFound}
	r.missed(name, len(scopes), err)
	return zero, trace, err
}

// Active returns the active scopes, oldest first.
func (r *Registry) Active() []*Scope {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Scope, len(r.scopes))
	copy(out, r.scopes)
	return out
}

// Len returns the number of active scopes.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.scopes)
}

// Capacity returns the eviction bound; zero means unbounded.
func (r *Registry) Capacity() int {
	return r.capacity
}

// Clear drops every active scope without disposing containers. Intended for
// test harnesses.
func (r *Registry) Clear() {
	r.mu.Lock()
	r.scopes = nil
	r.mu.Unlock()
}

// Snapshot merges the snapshots of all active scopes; for a binding name held
// by several scopes the newest wins.
func (r *Registry) Snapshot() map[string]any {
	out := map[string]any{}
	for _, scope := range r.Active() {
		for name, value := range scope.Snapshot() {
			out[name] = value
		}
	}
	return out
}

func (r *Registry) missed(typ string, active int, err error) {
	if r == nil {
		return
	}
	r.logger.Debugw("states: resolve missed", "type", typ, "active", active, "error", err)
	if !r.emitter.Enabled() {
		return
	}
	event := activity.BuildResolveMissedEvent(activity.ResolveEventInput{
		Type:   typ,
		Active: active,
		Reason: err.Error(),
	})
	if emitErr := r.emitter.Emit(context.Background(), event); emitErr != nil {
		r.logger.Debugw("states: activity hook failed", "verb", event.Verb, "error", emitErr)
	}
}

func (r *Registry) emit(verb string, scope *Scope, active int) {
	if !r.emitter.Enabled() {
		return
	}
	event := activity.BuildScopeEvent(verb, activity.ScopeEventInput{
		ScopeID:   scope.ID(),
		ScopeName: scope.Name(),
		Members:   scope.Len(),
		Active:    active,
		Capacity:  r.capacity,
	})
	if err := r.emitter.Emit(context.Background(), event); err != nil {
		r.logger.Debugw("states: activity hook failed", "verb", verb, "error", err)
	}
}
