package states

import (
	"sort"
	"time"
)

// Response stores a typed result produced by an evaluator.
type Response[T any] struct {
	Value T
}

// QueryContext carries the inputs of a state query. Snapshot is usually the
// map returned by Scope.Snapshot or Registry.Snapshot; each key becomes a
// top-level variable in the expression.
type QueryContext struct {
	Snapshot  any
	Now       *time.Time
	Args      map[string]any
	Metadata  map[string]any
	ScopeID   string
	ScopeName string
}

func (ctx QueryContext) withDefaultNow() QueryContext {
	if ctx.Now != nil {
		return ctx
	}
	now := time.Now()
	ctx.Now = &now
	return ctx
}

func (ctx QueryContext) withDefaultMaps() QueryContext {
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	if ctx.Metadata == nil {
		ctx.Metadata = map[string]any{}
	}
	return ctx
}

func (ctx QueryContext) withDefaults() QueryContext {
	return ctx.withDefaultNow().withDefaultMaps()
}

func (ctx QueryContext) timestamp() time.Time {
	ctx = ctx.withDefaultNow()
	return *ctx.Now
}

func (ctx QueryContext) scopeLabel() string {
	if ctx.ScopeName != "" {
		return ctx.ScopeName
	}
	if ctx.ScopeID != "" {
		return ctx.ScopeID
	}
	return "registry"
}

func (ctx QueryContext) scopeBinding() map[string]any {
	if ctx.ScopeID == "" && ctx.ScopeName == "" {
		return nil
	}
	return map[string]any{
		"id":   ctx.ScopeID,
		"name": ctx.ScopeName,
	}
}

// Evaluator executes expressions against a query context.
type Evaluator interface {
	Evaluate(ctx QueryContext, expr string) (any, error)
	Compile(expr string, opts ...CompileOption) (CompiledRule, error)
}

// CompiledRule is a reusable expression program.
type CompiledRule interface {
	Evaluate(ctx QueryContext) (any, error)
}

// CompileOption configures evaluator compile behaviour.
type CompileOption interface {
	applyCompileOption(*compileConfig)
}

type compileConfig struct{}

func snapshotAsMap(value any) map[string]any {
	if m, ok := value.(map[string]any); ok && m != nil {
		return m
	}
	return map[string]any{}
}

func snapshotNames(snapshot map[string]any) []string {
	names := make([]string, 0, len(snapshot))
	for name := range snapshot {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
