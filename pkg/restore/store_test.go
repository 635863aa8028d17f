package restore

import (
	"errors"
	"testing"
)

type profile struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

func TestStoreLastWriteWins(t *testing.T) {
	store := NewStore()
	if err := store.Put("counter", 1); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.Put("counter", 2); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, ok := store.Get("counter")
	if !ok {
		t.Fatalf("expected entry for counter")
	}
	if got != 2 {
		t.Fatalf("expected last write to win, got %v", got)
	}
	if store.Len() != 1 {
		t.Fatalf("expected one entry per key, got %d", store.Len())
	}
}

func TestStoreRejectsEmptyKey(t *testing.T) {
	store := NewStore()
	if err := store.Put("", 1); !errors.Is(err, ErrEmptyKey) {
		t.Fatalf("expected ErrEmptyKey, got %v", err)
	}
	if _, _, err := Lookup[int](store, ""); !errors.Is(err, ErrEmptyKey) {
		t.Fatalf("expected ErrEmptyKey from lookup, got %v", err)
	}
}

func TestLookupTyped(t *testing.T) {
	store := NewStore()
	_ = store.Put("profile", profile{Name: "ada", Score: 3})

	got, ok, err := Lookup[profile](store, "profile")
	if err != nil || !ok {
		t.Fatalf("lookup: ok=%v err=%v", ok, err)
	}
	if got.Name != "ada" || got.Score != 3 {
		t.Fatalf("unexpected value %+v", got)
	}

	if _, ok, err := Lookup[profile](store, "missing"); ok || err != nil {
		t.Fatalf("expected clean miss, got ok=%v err=%v", ok, err)
	}
}

func TestLookupTypeMismatch(t *testing.T) {
	store := NewStore()
	_ = store.Put("counter", "not a number")

	_, ok, err := Lookup[int](store, "counter")
	if !ok {
		t.Fatalf("expected entry to be reported as present")
	}
	if !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("expected ErrTypeMismatch, got %v", err)
	}
}

func TestAsNilValues(t *testing.T) {
	if _, err := As[*profile](nil); err != nil {
		t.Fatalf("nil pointer should convert, got %v", err)
	}
	if _, err := As[[]string](nil); err != nil {
		t.Fatalf("nil slice should convert, got %v", err)
	}
	if _, err := As[int](nil); !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("nil int should mismatch, got %v", err)
	}
}

func TestStoreKeysDeleteClear(t *testing.T) {
	store := NewStore()
	_ = store.Put("b", 1)
	_ = store.Put("a", 2)

	keys := store.Keys()
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Fatalf("expected sorted keys, got %v", keys)
	}
	if !store.Delete("a") {
		t.Fatalf("expected delete to report presence")
	}
	if store.Delete("a") {
		t.Fatalf("second delete should report absence")
	}
	store.Clear()
	if store.Len() != 0 {
		t.Fatalf("expected empty store after clear, got %d", store.Len())
	}
}

func TestDefaultIsShared(t *testing.T) {
	if Default() != Default() {
		t.Fatalf("expected a single process-wide store")
	}
}

func TestSchemaDescribesStoredType(t *testing.T) {
	store := NewStore()
	_ = store.Put("profile", profile{Name: "ada"})
	_ = store.Put("count", 4)

	schema, err := store.Schema("profile")
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	if schema["type"] != "object" {
		t.Fatalf("expected object schema, got %v", schema["type"])
	}
	props, ok := schema["properties"].(map[string]any)
	if !ok {
		t.Fatalf("expected properties map, got %T", schema["properties"])
	}
	if _, ok := props["name"]; !ok {
		t.Fatalf("expected name property, got %v", props)
	}

	countSchema, err := store.Schema("count")
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	if countSchema["type"] != "integer" {
		t.Fatalf("expected integer schema, got %v", countSchema["type"])
	}

	if _, err := store.Schema("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
