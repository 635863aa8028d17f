package states

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/goliatone/go-states/pkg/restore"
)

type Counter struct{ *State[int] }

type Title struct{ *State[string] }

type Labeler interface {
	Value() string
}

func newCounter(store *restore.Store, initial int, opts ...StateOption) *Counter {
	return &Counter{New(initial, append([]StateOption{WithStore(store)}, opts...)...)}
}

func newTitle(store *restore.Store, initial string, opts ...StateOption) *Title {
	return &Title{New(initial, append([]StateOption{WithStore(store)}, opts...)...)}
}

func observedLogger(level zapcore.Level) (*zap.SugaredLogger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return zap.New(core).Sugar(), logs
}

func mustScope(t testing.TB, containers []Container, opts ...ScopeOption) *Scope {
	t.Helper()
	scope, err := NewScope(containers, opts...)
	if err != nil {
		t.Fatalf("new scope: %v", err)
	}
	return scope
}
