package states

import (
	"fmt"
	"reflect"

	"github.com/google/uuid"
)

// Scope is an immutable, type-keyed collection of containers built once per
// tree-node activation.
type Scope struct {
	id       string
	name     string
	members  []Container
	byType   map[reflect.Type]Container
	shadowed int
}

// ScopeOption configures scope construction.
type ScopeOption func(*scopeConfig)

type scopeConfig struct {
	id        string
	name      string
	shadowing bool
}

// WithScopeName sets a human-friendly name used in logs, errors and events.
// The name also prefixes the restoration keys derived for unkeyed members, so
// two scopes with different names never share a derived key.
func WithScopeName(name string) ScopeOption {
	return func(cfg *scopeConfig) {
		cfg.name = name
	}
}

// WithScopeID overrides the generated identifier.
func WithScopeID(id string) ScopeOption {
	return func(cfg *scopeConfig) {
		cfg.id = id
	}
}

// WithShadowing accepts several containers of the same concrete type. Only
// the last one is reachable through Lookup; every one of them is still
// disposed with the scope.
func WithShadowing() ScopeOption {
	return func(cfg *scopeConfig) {
		cfg.shadowing = true
	}
}

// NewScope builds a scope from containers in declaration order. Containers
// without a restoration key receive one derived from the scope name, their
// concrete type and their position among same-typed members, and are seeded
// from the restoration store at that point. Unnamed scopes holding the same
// types derive the same keys, wherever they sit in the tree.
func NewScope(containers []Container, opts ...ScopeOption) (*Scope, error) {
	cfg := scopeConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.id == "" {
		cfg.id = uuid.NewString()
	}

	members := make([]Container, 0, len(containers))
	byType := make(map[reflect.Type]Container, len(containers))
	shadowed := 0
	for i, container := range containers {
		if isNilContainer(container) {
			return nil, fmt.Errorf("%w: position %d", ErrNilContainer, i)
		}
		typ := reflect.TypeOf(container)
		if _, exists := byType[typ]; exists {
			if !cfg.shadowing {
				return nil, fmt.Errorf("%w: %s", ErrDuplicateType, typeName(typ))
			}
			shadowed++
		}
		byType[typ] = container
		members = append(members, container)
	}

	ordinals := make(map[reflect.Type]int, len(byType))
	for _, container := range members {
		typ := reflect.TypeOf(container)
		if binder, ok := container.(keyBinder); ok {
			binder.bindDerivedKey(derivedKey(cfg.name, typ, ordinals[typ]))
		}
		ordinals[typ]++
	}

	return &Scope{
		id:       cfg.id,
		name:     cfg.name,
		members:  members,
		byType:   byType,
		shadowed: shadowed,
	}, nil
}

// Lookup returns the container of exactly type C. Interface and supertype
// requests never match; a miss fails with ErrNotFound.
func Lookup[C any](scope *Scope) (C, error) {
	var zero C
	want := reflect.TypeOf((*C)(nil)).Elem()
	if scope == nil {
		return zero, &LookupError{Type: typeName(want), Err: ErrNotFound}
	}
	container, ok := scope.byType[want]
	if !ok {
		return zero, &LookupError{Type: typeName(want), Scope: scope.label(), Err: ErrNotFound}
	}
	typed, ok := container.(C)
	if !ok {
		return zero, &LookupError{Type: typeName(want), Scope: scope.label(), Err: ErrNotFound}
	}
	return typed, nil
}

// ID returns the scope identifier.
func (s *Scope) ID() string {
	return s.id
}

// Name returns the configured name, if any.
func (s *Scope) Name() string {
	return s.name
}

// Len returns the number of declared containers, shadowed ones included.
func (s *Scope) Len() int {
	return len(s.members)
}

// Shadowed returns how many declared containers are unreachable by Lookup.
func (s *Scope) Shadowed() int {
	return s.shadowed
}

// Containers returns a copy of the members in declaration order.
func (s *Scope) Containers() []Container {
	out := make([]Container, len(s.members))
	copy(out, s.members)
	return out
}

// Snapshot maps each reachable container's binding name (its restoration key
// made identifier-safe) to its current value.
func (s *Scope) Snapshot() map[string]any {
	out := make(map[string]any, len(s.byType))
	for typ, container := range s.byType {
		name := bindingName(container.Key())
		if name == "" {
			name = bindingName(typeName(typ))
		}
		out[name] = container.Snapshot()
	}
	return out
}

// sameMembers reports whether other wraps exactly the same container
// instances in the same order.
func (s *Scope) sameMembers(other *Scope) bool {
	if s == other {
		return true
	}
	if s == nil || other == nil || len(s.members) != len(other.members) || len(s.members) == 0 {
		return false
	}
	for i := range s.members {
		if !sameInstance(s.members[i], other.members[i]) {
			return false
		}
	}
	return true
}

func (s *Scope) label() string {
	if s.name != "" {
		return s.name
	}
	return s.id
}

func sameInstance(a, b Container) bool {
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}
	if va.Kind() == reflect.Pointer {
		return va.Pointer() == vb.Pointer()
	}
	return va.Comparable() && a == b
}

// derivedKey renders "[scope/]type#ordinal".
func derivedKey(scope string, typ reflect.Type, ordinal int) string {
	key := fmt.Sprintf("%s#%d", typeName(typ), ordinal)
	if scope == "" {
		return key
	}
	return scope + "/" + key
}

func isNilContainer(container Container) bool {
	if container == nil {
		return true
	}
	value := reflect.ValueOf(container)
	switch value.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return value.IsNil()
	}
	return false
}
