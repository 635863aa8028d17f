package states

import (
	"context"
	"fmt"
	"reflect"
	"runtime/debug"
	"sync"

	"github.com/goliatone/go-states/pkg/activity"
	"github.com/goliatone/go-states/pkg/restore"
)

// Container is the type-erased view of a state container used by scopes and
// the registry. *State[T] and any struct embedding it satisfy Container.
type Container interface {
	// Key returns the restoration key, or "" while none is assigned.
	Key() string
	// Snapshot returns the current value as any.
	Snapshot() any
	// Dispose drops subscribers and rejects further mutation.
	Dispose()
	// Disposed reports whether Dispose has run.
	Disposed() bool
}

// keyBinder is implemented by containers that accept a derived restoration
// key when first placed in a scope.
type keyBinder interface {
	bindDerivedKey(key string) bool
}

// RestorationStore remembers the last value written under a key.
// *restore.Store satisfies it.
type RestorationStore interface {
	Get(key string) (any, bool)
	Put(key string, value any) error
}

// StateOption configures a container at construction.
type StateOption func(*stateConfig)

type stateConfig struct {
	key       string
	store     RestorationStore
	noRestore bool
	logger    Logger
	emitter   *activity.Emitter
}

// WithKey assigns an explicit restoration key. The container is seeded from
// the store immediately when an entry exists under key.
//
// Without WithKey the key is derived when the container joins a scope, from
// the scope name plus type and position. Containers in unnamed scopes at
// different tree positions can therefore share an entry; use WithKey or
// WithScopeName when they must not.
func WithKey(key string) StateOption {
	return func(cfg *stateConfig) {
		cfg.key = key
	}
}

// WithStore replaces the process-wide restoration store.
func WithStore(store RestorationStore) StateOption {
	return func(cfg *stateConfig) {
		cfg.store = store
	}
}

// WithoutRestoration disables both seeding and persisting.
func WithoutRestoration() StateOption {
	return func(cfg *stateConfig) {
		cfg.noRestore = true
	}
}

// WithStateLogger sets the logger used for restoration and subscriber
// diagnostics.
func WithStateLogger(logger Logger) StateOption {
	return func(cfg *stateConfig) {
		cfg.logger = logger
	}
}

// WithStateEmitter emits state.set and state.restored activity events.
func WithStateEmitter(emitter *activity.Emitter) StateOption {
	return func(cfg *stateConfig) {
		cfg.emitter = emitter
	}
}

type subscriber[T any] struct {
	id uint64
	fn func(T)
}

// State holds one typed value and notifies subscribers on every Set.
//
// Embed *State[T] in a named struct to give a container its own lookup type:
//
//	type Counter struct{ *states.State[int] }
//	counter := &Counter{states.New(0)}
type State[T any] struct {
	mu          sync.RWMutex
	value       T
	initial     T
	key         string
	disposed    bool
	touched     bool
	seq         uint64
	subscribers []subscriber[T]
	nextID      uint64
	cfg         stateConfig

	// persistMu orders store writes; a write is skipped once a newer Set
	// has been issued.
	persistMu sync.Mutex
}

// New constructs a container holding initial.
func New[T any](initial T, opts ...StateOption) *State[T] {
	cfg := stateConfig{store: restore.Default()}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	cfg.logger = loggerOrNop(cfg.logger)

	s := &State[T]{
		value:   initial,
		initial: initial,
		cfg:     cfg,
	}
	if cfg.key != "" {
		s.assignKey(cfg.key)
	}
	return s
}

// Value returns the current value.
func (s *State[T]) Value() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Initial returns the value supplied at construction.
func (s *State[T]) Initial() T {
	return s.initial
}

// Key returns the restoration key, or "" when none has been assigned yet.
func (s *State[T]) Key() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.key
}

// Snapshot implements Container.
func (s *State[T]) Snapshot() any {
	return s.Value()
}

// Set replaces the value, notifies every subscriber and then writes the value
// to the restoration store. Every call notifies, even when value is unchanged.
// A store failure is logged; the new value stays in place.
//
// Concurrent calls are safe and the store always ends up holding the value of
// the last Set, but subscribers of two racing calls may observe them in
// either order.
func (s *State[T]) Set(value T) error {
	s.mu.Lock()
	if s.disposed {
		label := s.labelLocked()
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrDisposed, label)
	}
	s.value = value
	s.touched = true
	s.seq++
	seq := s.seq
	key := s.key
	subscribers := append([]subscriber[T](nil), s.subscribers...)
	s.mu.Unlock()

	for _, sub := range subscribers {
		s.notify(sub, value)
	}
	s.persist(key, seq, value)
	s.emit(activity.VerbStateSet, key, value)
	return nil
}

// Reset sets the container back to its initial value through the regular
// Set path.
func (s *State[T]) Reset() error {
	return s.Set(s.initial)
}

// Subscribe registers fn to receive every value passed to Set, in order. The
// returned function removes the subscription and is safe to call twice.
// Subscribing to a disposed container is a no-op.
func (s *State[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return func() {}
	}
	s.nextID++
	id := s.nextID
	s.subscribers = append(s.subscribers, subscriber[T]{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, sub := range s.subscribers {
				if sub.id == id {
					s.subscribers = append(s.subscribers[:i:i], s.subscribers[i+1:]...)
					return
				}
			}
		})
	}
}

// Subscribers returns the number of active subscriptions.
func (s *State[T]) Subscribers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subscribers)
}

// Dispose drops all subscribers; later calls to Set fail with ErrDisposed.
func (s *State[T]) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disposed = true
	s.subscribers = nil
}

// Disposed implements Container.
func (s *State[T]) Disposed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.disposed
}

func (s *State[T]) bindDerivedKey(key string) bool {
	if s == nil {
		return false
	}
	s.mu.RLock()
	assigned := s.key != ""
	s.mu.RUnlock()
	if assigned {
		return false
	}
	s.assignKey(key)
	return true
}

// assignKey fixes the restoration key and seeds the value from the store. A
// container that was already Set keeps its value and writes it under key
// instead.
func (s *State[T]) assignKey(key string) {
	s.mu.Lock()
	if s.key != "" {
		s.mu.Unlock()
		return
	}
	s.key = key
	touched, seq, current := s.touched, s.seq, s.value
	s.mu.Unlock()

	if s.cfg.noRestore || s.cfg.store == nil {
		return
	}
	if touched {
		s.persist(key, seq, current)
		return
	}
	raw, ok := s.cfg.store.Get(key)
	if !ok {
		return
	}
	value, err := restore.As[T](raw)
	if err != nil {
		s.cfg.logger.Warnw("states: restored value ignored, keeping initial value",
			"key", key,
			"error", err,
		)
		return
	}
	s.mu.Lock()
	if s.touched {
		// a Set raced the seeding; it wins.
		s.mu.Unlock()
		return
	}
	s.value = value
	s.mu.Unlock()
	s.emit(activity.VerbStateRestored, key, value)
}

func (s *State[T]) persist(key string, seq uint64, value T) {
	if key == "" || s.cfg.noRestore || s.cfg.store == nil {
		return
	}
	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	s.mu.RLock()
	stale := s.seq != seq
	s.mu.RUnlock()
	if stale {
		return
	}
	if err := s.cfg.store.Put(key, value); err != nil {
		s.cfg.logger.Errorw("states: restoration write failed", "key", key, "error", err)
	}
}

func (s *State[T]) notify(sub subscriber[T], value T) {
	defer func() {
		if r := recover(); r != nil {
			s.cfg.logger.Errorw("states: subscriber panicked",
				"key", s.Key(),
				"panic", r,
				"stack", string(debug.Stack()),
			)
		}
	}()
	sub.fn(value)
}

func (s *State[T]) emit(verb, key string, value T) {
	if !s.cfg.emitter.Enabled() {
		return
	}
	event := activity.BuildStateEvent(verb, activity.StateEventInput{
		Key:   key,
		Type:  typeName(reflect.TypeOf((*T)(nil)).Elem()),
		Value: value,
	})
	if err := s.cfg.emitter.Emit(context.Background(), event); err != nil {
		s.cfg.logger.Debugw("states: activity hook failed", "verb", verb, "error", err)
	}
}

func (s *State[T]) labelLocked() string {
	if s.key != "" {
		return fmt.Sprintf("state %q", s.key)
	}
	return "state " + typeName(reflect.TypeOf((*T)(nil)).Elem())
}
