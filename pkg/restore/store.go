package restore

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/invopop/jsonschema"
)

var (
	// ErrNotFound indicates no entry exists for the requested key.
	ErrNotFound = errors.New("restore: key not found")
	// ErrTypeMismatch indicates the stored value cannot be used as the
	// requested type.
	ErrTypeMismatch = errors.New("restore: stored value type mismatch")
	// ErrEmptyKey indicates a write or read with an empty key.
	ErrEmptyKey = errors.New("restore: key cannot be empty")
)

// Store is a mutex guarded, type-aware in-memory mapping from key to the last
// value written under it.
type Store struct {
	mu      sync.RWMutex
	entries map[string]entry
}

type entry struct {
	typ   reflect.Type
	value any
}

var defaultStore = NewStore()

// Default returns the process-wide store shared by containers that do not
// configure their own.
func Default() *Store {
	return defaultStore
}

// NewStore constructs an empty store.
func NewStore() *Store {
	return &Store{entries: make(map[string]entry)}
}

// Put records value under key, replacing any previous entry.
func (s *Store) Put(key string, value any) error {
	if key == "" {
		return ErrEmptyKey
	}
	var typ reflect.Type
	if value != nil {
		typ = reflect.TypeOf(value)
	}
	s.mu.Lock()
	s.entries[key] = entry{typ: typ, value: value}
	s.mu.Unlock()
	return nil
}

// Get returns the raw value stored under key.
func (s *Store) Get(key string) (any, bool) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return e.value, true
}

// Delete removes key and reports whether it was present.
func (s *Store) Delete(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[key]; !ok {
		return false
	}
	delete(s.entries, key)
	return true
}

// Keys returns the stored keys sorted alphabetically.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.entries))
	for key := range s.entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Clear drops every entry. Intended for test harnesses.
func (s *Store) Clear() {
	s.mu.Lock()
	s.entries = make(map[string]entry)
	s.mu.Unlock()
}

// Lookup returns the value stored under key as T. ok is false when no entry
// exists. A stored value that cannot be used as T fails with ErrTypeMismatch.
func Lookup[T any](s *Store, key string) (value T, ok bool, err error) {
	var zero T
	if key == "" {
		return zero, false, ErrEmptyKey
	}
	raw, found := s.Get(key)
	if !found {
		return zero, false, nil
	}
	typed, err := As[T](raw)
	if err != nil {
		return zero, true, fmt.Errorf("%w: key %q", err, key)
	}
	return typed, true, nil
}

// As converts a raw stored value into T. A nil raw value is accepted only when
// T is a nilable kind.
func As[T any](raw any) (T, error) {
	var zero T
	want := reflect.TypeOf((*T)(nil)).Elem()
	if raw == nil {
		if nilable(want.Kind()) {
			return zero, nil
		}
		return zero, fmt.Errorf("%w: wanted %v, got nil", ErrTypeMismatch, want)
	}
	typed, ok := raw.(T)
	if !ok {
		return zero, fmt.Errorf("%w: wanted %v, got %T", ErrTypeMismatch, want, raw)
	}
	return typed, nil
}

func nilable(kind reflect.Kind) bool {
	switch kind {
	case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return true
	default:
		return false
	}
}

// Schema returns a JSON schema describing the type of the value stored under
// key, decoded into a generic map.
func (s *Store) Schema(key string) (map[string]any, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	if e.typ == nil {
		return map[string]any{"type": "null"}, nil
	}
	return TypeSchema(e.typ), nil
}

// TypeSchema reflects t into a JSON schema map.
func TypeSchema(t reflect.Type) map[string]any {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	reflector := jsonschema.Reflector{
		ExpandedStruct:            true,
		DoNotReference:            true,
		AllowAdditionalProperties: false,
	}
	schema := reflector.ReflectFromType(t)

	data, err := json.Marshal(schema)
	if err != nil {
		return map[string]any{"type": "object"}
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return map[string]any{"type": "object"}
	}
	if _, ok := out["type"]; !ok {
		out["type"] = "object"
	}
	return out
}
