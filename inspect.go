package states

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNoEvaluator indicates an inspector without a usable engine.
var ErrNoEvaluator = errors.New("states: evaluator not configured")

// Engine names accepted by EvaluatorForEngine.
const (
	EngineExpr = "expr"
	EngineCEL  = "cel"
	EngineJS   = "js"
)

// InspectorOption configures an Inspector.
type InspectorOption func(*inspectorConfig)

type inspectorConfig struct {
	evaluator    Evaluator
	engine       string
	programCache ProgramCache
	helpers      *HelperRegistry
	logger       EvaluatorLogger
}

// WithEvaluator sets the evaluator directly.
func WithEvaluator(evaluator Evaluator) InspectorOption {
	return func(cfg *inspectorConfig) {
		cfg.evaluator = evaluator
	}
}

// WithEngine selects a built-in engine by name. Ignored when WithEvaluator is
// also given.
func WithEngine(engine string) InspectorOption {
	return func(cfg *inspectorConfig) {
		cfg.engine = engine
	}
}

// WithProgramCache caches compiled programs across queries.
func WithProgramCache(cache ProgramCache) InspectorOption {
	return func(cfg *inspectorConfig) {
		cfg.programCache = cache
	}
}

// WithHelpers exposes the helpers defined in registry to queries. Helpers
// defined on registry afterwards are not seen by the inspector.
func WithHelpers(registry *HelperRegistry) InspectorOption {
	return func(cfg *inspectorConfig) {
		if registry == nil {
			return
		}
		if cfg.helpers == nil {
			cfg.helpers = NewHelperRegistry()
		}
		for name, fn := range registry.snapshot().helpers {
			cfg.helpers.helpers[name] = fn
		}
	}
}

// WithHelper defines a single query helper. Invalid or duplicate names are
// ignored; use a HelperRegistry to see those errors.
func WithHelper(name string, fn Helper) InspectorOption {
	return func(cfg *inspectorConfig) {
		if cfg.helpers == nil {
			cfg.helpers = NewHelperRegistry()
		}
		_ = cfg.helpers.Define(name, fn)
	}
}

// WithEvaluatorLogger records every evaluation.
func WithEvaluatorLogger(logger EvaluatorLogger) InspectorOption {
	return func(cfg *inspectorConfig) {
		cfg.logger = logger
	}
}

// Inspector evaluates expressions against live container values. It is a
// debugging aid and never mutates state.
type Inspector struct {
	evaluator Evaluator
	logger    EvaluatorLogger
}

// NewInspector builds an inspector. Without WithEvaluator or WithEngine it
// uses the expr engine.
func NewInspector(opts ...InspectorOption) (*Inspector, error) {
	cfg := inspectorConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	evaluator := cfg.evaluator
	if evaluator == nil {
		var err error
		evaluator, err = EvaluatorForEngine(cfg.engine, cfg.programCache, cfg.helpers)
		if err != nil {
			return nil, err
		}
	}
	logger := cfg.logger
	if logger == nil {
		logger = noopEvaluatorLogger{}
	}
	return &Inspector{evaluator: evaluator, logger: logger}, nil
}

// EvaluatorForEngine builds one of the built-in evaluators. An empty engine
// selects expr.
func EvaluatorForEngine(engine string, cache ProgramCache, helpers *HelperRegistry) (Evaluator, error) {
	opts := []EngineOption{EngineCache(cache), EngineHelpers(helpers)}
	switch strings.ToLower(strings.TrimSpace(engine)) {
	case "", EngineExpr:
		return NewExprEvaluator(opts...), nil
	case EngineCEL:
		return NewCELEvaluator(opts...), nil
	case EngineJS:
		evaluator := NewJSEvaluator(opts...)
		if evaluator == nil {
			return nil, fmt.Errorf("%w: js engine requires the js_eval build tag", ErrNoEvaluator)
		}
		return evaluator, nil
	default:
		return nil, fmt.Errorf("%w: unknown engine %q", ErrNoEvaluator, engine)
	}
}

// Engine returns the name of the configured engine.
func (i *Inspector) Engine() string {
	return evaluatorEngineName(i.evaluator)
}

// EvaluateScope runs expr with the scope's containers bound by key.
func (i *Inspector) EvaluateScope(scope *Scope, expr string) (Response[any], error) {
	if scope == nil {
		return Response[any]{}, &LookupError{Type: "scope", Err: ErrNoActiveScope}
	}
	return i.EvaluateWith(QueryContext{
		Snapshot:  scope.Snapshot(),
		ScopeID:   scope.ID(),
		ScopeName: scope.Name(),
	}, expr)
}

// EvaluateRegistry runs expr against every active scope; where several scopes
// bind the same name the newest wins.
func (i *Inspector) EvaluateRegistry(registry *Registry, expr string) (Response[any], error) {
	if registry == nil {
		return Response[any]{}, ErrNilRegistry
	}
	return i.EvaluateWith(QueryContext{Snapshot: registry.Snapshot()}, expr)
}

// EvaluateWith runs expr against an explicit context.
func (i *Inspector) EvaluateWith(ctx QueryContext, expr string) (Response[any], error) {
	if i == nil || i.evaluator == nil {
		return Response[any]{}, ErrNoEvaluator
	}
	ctx = ctx.withDefaults()
	engine := evaluatorEngineName(i.evaluator)
	if expr == "" {
		return Response[any]{}, annotateQueryError(compileError(engine, expr, ErrEmptyExpression), engine, expr, ctx)
	}
	start := time.Now()
	value, err := i.evaluator.Evaluate(ctx, expr)
	duration := time.Since(start)
	if err != nil {
		err = annotateQueryError(err, engine, expr, ctx)
	}
	i.logger.LogEvaluation(EvaluatorLogEvent{
		Engine:   engine,
		Expr:     expr,
		Scope:    ctx.scopeLabel(),
		Duration: duration,
		Err:      err,
	})
	if err != nil {
		return Response[any]{}, err
	}
	return Response[any]{Value: value}, nil
}

// Compile prepares expr for repeated evaluation.
func (i *Inspector) Compile(expr string, opts ...CompileOption) (CompiledRule, error) {
	if i == nil || i.evaluator == nil {
		return nil, ErrNoEvaluator
	}
	return i.evaluator.Compile(expr, opts...)
}

// Query evaluates expr against scope and converts the result to T.
func Query[T any](i *Inspector, scope *Scope, expr string) (T, error) {
	var zero T
	resp, err := i.EvaluateScope(scope, expr)
	if err != nil {
		return zero, err
	}
	typed, ok := resp.Value.(T)
	if !ok {
		return zero, fmt.Errorf("states: query %q returned %T, want %s", expr, resp.Value, TypeName[T]())
	}
	return typed, nil
}

type namedEngine interface {
	engineName() string
}

func evaluatorEngineName(e Evaluator) string {
	if e == nil {
		return "unknown"
	}
	if named, ok := e.(namedEngine); ok {
		return named.engineName()
	}
	return "custom"
}
