package states

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/goliatone/go-states/pkg/restore"
)

func TestStateSetNotifiesEverySubscriberInOrder(t *testing.T) {
	counter := newCounter(restore.NewStore(), 0)

	var first, second []int
	counter.Subscribe(func(v int) { first = append(first, v) })
	counter.Subscribe(func(v int) { second = append(second, v) })

	for _, v := range []int{1, 1, 2} {
		if err := counter.Set(v); err != nil {
			t.Fatalf("set: %v", err)
		}
	}
	if counter.Value() != 2 {
		t.Fatalf("expected value 2, got %d", counter.Value())
	}
	want := []int{1, 1, 2}
	for _, got := range [][]int{first, second} {
		if len(got) != len(want) {
			t.Fatalf("expected notifications %v, got %v", want, got)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("expected notifications %v, got %v", want, got)
			}
		}
	}
}

func TestStateResetRestoresInitial(t *testing.T) {
	counter := newCounter(restore.NewStore(), 7)
	_ = counter.Set(3)

	var seen []int
	counter.Subscribe(func(v int) { seen = append(seen, v) })
	if err := counter.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if counter.Value() != 7 || counter.Initial() != 7 {
		t.Fatalf("expected value back at 7, got %d", counter.Value())
	}
	if len(seen) != 1 || seen[0] != 7 {
		t.Fatalf("reset should notify like Set, got %v", seen)
	}
}

func TestStateUnsubscribe(t *testing.T) {
	counter := newCounter(restore.NewStore(), 0)
	calls := 0
	unsubscribe := counter.Subscribe(func(int) { calls++ })

	_ = counter.Set(1)
	unsubscribe()
	unsubscribe()
	_ = counter.Set(2)

	if calls != 1 {
		t.Fatalf("expected one call before unsubscribe, got %d", calls)
	}
	if counter.Subscribers() != 0 {
		t.Fatalf("expected no subscribers, got %d", counter.Subscribers())
	}
}

func TestStateDispose(t *testing.T) {
	counter := newCounter(restore.NewStore(), 0, WithKey("disposed"))
	counter.Subscribe(func(int) {})
	counter.Dispose()

	if !counter.Disposed() {
		t.Fatalf("expected disposed container")
	}
	if counter.Subscribers() != 0 {
		t.Fatalf("dispose should drop subscribers")
	}
	err := counter.Set(1)
	if !errors.Is(err, ErrDisposed) {
		t.Fatalf("expected ErrDisposed, got %v", err)
	}
	if counter.Value() != 0 {
		t.Fatalf("failed set must not change value, got %d", counter.Value())
	}
	counter.Subscribe(func(int) {})
	if counter.Subscribers() != 0 {
		t.Fatalf("subscribe after dispose should be a no-op")
	}
}

func TestStateRestoresAcrossReconstruction(t *testing.T) {
	store := restore.NewStore()

	first := newCounter(store, 0, WithKey("c"))
	_ = first.Set(3)
	first.Dispose()

	second := newCounter(store, 0, WithKey("c"))
	if second.Value() != 3 {
		t.Fatalf("expected restored value 3, got %d", second.Value())
	}
	if second.Initial() != 0 {
		t.Fatalf("initial should stay the constructor value, got %d", second.Initial())
	}

	_ = second.Reset()
	third := newCounter(store, 9, WithKey("c"))
	if third.Value() != 0 {
		t.Fatalf("expected reset value to be persisted, got %d", third.Value())
	}
}

func TestStateWithoutRestoration(t *testing.T) {
	store := restore.NewStore()
	_ = store.Put("c", 5)

	counter := newCounter(store, 1, WithKey("c"), WithoutRestoration())
	if counter.Value() != 1 {
		t.Fatalf("expected initial value, got %d", counter.Value())
	}
	_ = counter.Set(2)
	if raw, _ := store.Get("c"); raw != 5 {
		t.Fatalf("expected store untouched, got %v", raw)
	}
}

func TestStateRestorationTypeMismatchIsLogged(t *testing.T) {
	store := restore.NewStore()
	_ = store.Put("shared", "text")
	logger, logs := observedLogger(zapcore.WarnLevel)

	counter := newCounter(store, 4, WithKey("shared"), WithStateLogger(logger))
	if counter.Value() != 4 {
		t.Fatalf("expected initial value on mismatch, got %d", counter.Value())
	}
	entries := logs.FilterMessage("states: restored value ignored, keeping initial value").All()
	if len(entries) != 1 {
		t.Fatalf("expected one warning, got %d", len(entries))
	}
	msg, _ := entries[0].ContextMap()["error"].(string)
	if !strings.Contains(msg, ErrRestorationTypeMismatch.Error()) {
		t.Fatalf("expected mismatch error, got %q", msg)
	}
}

func TestStateSubscriberPanicIsRecovered(t *testing.T) {
	logger, logs := observedLogger(zapcore.ErrorLevel)
	counter := newCounter(restore.NewStore(), 0, WithStateLogger(logger))

	var after []int
	counter.Subscribe(func(int) { panic("boom") })
	counter.Subscribe(func(v int) { after = append(after, v) })

	if err := counter.Set(1); err != nil {
		t.Fatalf("set: %v", err)
	}
	if len(after) != 1 || after[0] != 1 {
		t.Fatalf("later subscribers should still run, got %v", after)
	}
	if logs.FilterMessage("states: subscriber panicked").Len() != 1 {
		t.Fatalf("expected panic to be logged")
	}
}

type failingStore struct{}

func (failingStore) Get(string) (any, bool) { return nil, false }

func (failingStore) Put(string, any) error { return errors.New("disk full") }

func TestStatePersistFailureKeepsValue(t *testing.T) {
	logger, logs := observedLogger(zapcore.ErrorLevel)
	counter := &Counter{New(0, WithKey("c"), WithStore(failingStore{}), WithStateLogger(logger))}

	if err := counter.Set(8); err != nil {
		t.Fatalf("persist failures must not surface: %v", err)
	}
	if counter.Value() != 8 {
		t.Fatalf("expected value 8, got %d", counter.Value())
	}
	if logs.FilterMessage("states: restoration write failed").Len() != 1 {
		t.Fatalf("expected write failure to be logged")
	}
}

func TestStateWithoutKeyDoesNotPersist(t *testing.T) {
	store := restore.NewStore()
	counter := newCounter(store, 0)
	_ = counter.Set(1)
	if store.Len() != 0 {
		t.Fatalf("unkeyed container should not persist, store has %v", store.Keys())
	}
}

func TestStateConcurrentSetsLeaveStoreOnLatestValue(t *testing.T) {
	store := restore.NewStore()
	counter := newCounter(store, 0, WithKey("race"))

	var wg sync.WaitGroup
	for i := 1; i <= 64; i++ {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			_ = counter.Set(v)
		}(i)
	}
	wg.Wait()

	raw, ok := store.Get("race")
	if !ok {
		t.Fatalf("expected a stored value")
	}
	if raw != counter.Value() {
		t.Fatalf("store holds %v but Value() is %d", raw, counter.Value())
	}
}

func TestStateSetFromSubscriberPersistsInnerValue(t *testing.T) {
	store := restore.NewStore()
	counter := newCounter(store, 0, WithKey("clamp"))
	counter.Subscribe(func(v int) {
		if v > 10 {
			_ = counter.Set(10)
		}
	})

	_ = counter.Set(15)
	if counter.Value() != 10 {
		t.Fatalf("expected clamped value 10, got %d", counter.Value())
	}
	if raw, _ := store.Get("clamp"); raw != 10 {
		t.Fatalf("outer Set must not overwrite the newer stored value, got %v", raw)
	}
}
