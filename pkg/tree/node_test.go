package tree

import (
	"errors"
	"testing"

	states "github.com/goliatone/go-states"
	"github.com/goliatone/go-states/pkg/restore"
)

type Counter struct{ *states.State[int] }

type Title struct{ *states.State[string] }

func TestLookupUsesNearestScope(t *testing.T) {
	store := restore.NewStore()
	registry := states.NewRegistry()
	controller := states.NewController(registry)

	root := NewRoot("app")
	page := root.Child("page")
	button := page.Child("button")

	rootCounter := &Counter{states.New(1, states.WithStore(store), states.WithKey("root"))}
	pageCounter := &Counter{states.New(2, states.WithStore(store), states.WithKey("page"))}
	if _, err := controller.Activate(root, rootCounter, &Title{states.New("t", states.WithStore(store))}); err != nil {
		t.Fatalf("activate root: %v", err)
	}
	pageActivation, err := controller.Activate(page, pageCounter)
	if err != nil {
		t.Fatalf("activate page: %v", err)
	}

	got, err := Lookup[*Counter](button)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got != pageCounter {
		t.Fatalf("expected the page counter from the nearest scope")
	}

	if _, err := Lookup[*Title](button); !errors.Is(err, states.ErrNotFound) {
		t.Fatalf("nearest scope only, expected ErrNotFound, got %v", err)
	}

	pageActivation.Deactivate()
	if _, ok := page.Scope(); ok {
		t.Fatalf("deactivation should unbind the page scope")
	}
	got, err = Lookup[*Counter](button)
	if err != nil || got != rootCounter {
		t.Fatalf("expected root counter after page teardown, got %v", err)
	}
}

func TestLookupWithoutScope(t *testing.T) {
	node := NewRoot("app").Child("orphan")
	if _, err := Lookup[*Counter](node); !errors.Is(err, ErrNoScope) {
		t.Fatalf("expected ErrNoScope, got %v", err)
	}
}

func TestNodePath(t *testing.T) {
	leaf := NewRoot("app").Child("page").Child("button")
	if leaf.Path() != "app/page/button" {
		t.Fatalf("unexpected path %q", leaf.Path())
	}
	if leaf.Parent().Parent().Parent() != nil {
		t.Fatalf("root should have no parent")
	}
}

func TestUnbindIgnoresForeignScope(t *testing.T) {
	node := NewRoot("app")
	bound, _ := states.NewScope(nil)
	other, _ := states.NewScope(nil)
	node.BindScope(bound)
	node.UnbindScope(other)
	if got, ok := node.Scope(); !ok || got != bound {
		t.Fatalf("foreign unbind must not clear the bound scope")
	}
}
