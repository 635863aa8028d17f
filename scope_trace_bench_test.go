package states

import (
	"fmt"
	"testing"

	"github.com/goliatone/go-states/pkg/restore"
)

type benchLeaf struct{ *State[int] }

func benchRegistry(b *testing.B, depth int) *Registry {
	b.Helper()
	store := restore.NewStore()
	registry := NewRegistry(WithCapacity(0))
	registry.Register(mustScope(b, []Container{&benchLeaf{New(0, WithStore(store))}}))
	for i := 1; i < depth; i++ {
		registry.Register(mustScope(b, []Container{
			&Title{New(fmt.Sprintf("title_%d", i), WithStore(store))},
		}, WithScopeName(fmt.Sprintf("scope_%d", i))))
	}
	return registry
}

func BenchmarkResolveOldestScope(b *testing.B) {
	registry := benchRegistry(b, 10)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Resolve[*benchLeaf](registry); err != nil {
			b.Fatalf("resolve: %v", err)
		}
	}
}

func BenchmarkResolveWithTrace(b *testing.B) {
	registry := benchRegistry(b, 10)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, _, err := ResolveWithTrace[*benchLeaf](registry); err != nil {
			b.Fatalf("resolve: %v", err)
		}
	}
}
