//go:build js_eval

package states

import (
	"fmt"

	"github.com/dop251/goja"
)

type jsEvaluator struct {
	engineConfig
}

// NewJSEvaluator constructs an Evaluator backed by goja. Each evaluation runs
// in a fresh runtime.
func NewJSEvaluator(opts ...EngineOption) Evaluator {
	return &jsEvaluator{engineConfig: newEngineConfig(opts)}
}

// JSEvaluatorAvailable reports whether the goja engine is compiled in.
func JSEvaluatorAvailable() bool {
	return true
}

func (e *jsEvaluator) engineName() string { return EngineJS }

func (e *jsEvaluator) Evaluate(ctx QueryContext, expression string) (any, error) {
	program, err := e.program(expression)
	if err != nil {
		return nil, annotateQueryError(err, EngineJS, expression, ctx)
	}
	return e.run(ctx.withDefaults(), expression, program)
}

func (e *jsEvaluator) Compile(expression string, _ ...CompileOption) (CompiledRule, error) {
	program, err := e.program(expression)
	if err != nil {
		return nil, err
	}
	return &jsCompiledRule{evaluator: e, expression: expression, program: program}, nil
}

func (e *jsEvaluator) program(expression string) (*goja.Program, error) {
	if expression == "" {
		return nil, compileError(EngineJS, expression, ErrEmptyExpression)
	}
	if program, ok := cached[*goja.Program](e.engineConfig, expression); ok {
		return program, nil
	}
	program, err := goja.Compile("", fmt.Sprintf("(function(){ return (%s); })()", expression), false)
	if err != nil {
		return nil, compileError(EngineJS, expression, err)
	}
	e.store(expression, program)
	return program, nil
}

func (e *jsEvaluator) run(ctx QueryContext, expression string, program *goja.Program) (any, error) {
	vm := goja.New()
	if err := e.bind(vm, ctx); err != nil {
		return nil, runError(EngineJS, expression, ctx, err)
	}
	value, err := vm.RunProgram(program)
	if err != nil {
		return nil, runError(EngineJS, expression, ctx, err)
	}
	return value.Export(), nil
}

// bind mirrors the expr environment: snapshot entries override the reserved
// globals, and helpers are installed last.
func (e *jsEvaluator) bind(vm *goja.Runtime, ctx QueryContext) error {
	globals := map[string]any{
		"now":      ctx.timestamp(),
		"args":     ctx.Args,
		"metadata": ctx.Metadata,
	}
	if binding := ctx.scopeBinding(); binding != nil {
		globals["scope"] = binding
	}
	for name, value := range snapshotAsMap(ctx.Snapshot) {
		globals[name] = value
	}
	if helpers := e.helpers; helpers != nil {
		globals["call"] = helpers.dispatch
		for _, name := range helpers.Names() {
			name := name
			globals[name] = func(args ...any) (any, error) {
				return helpers.Invoke(name, args...)
			}
		}
	}
	for name, value := range globals {
		if err := vm.Set(name, value); err != nil {
			return err
		}
	}
	return nil
}

type jsCompiledRule struct {
	evaluator  *jsEvaluator
	expression string
	program    *goja.Program
}

func (r *jsCompiledRule) Evaluate(ctx QueryContext) (any, error) {
	return r.evaluator.run(ctx.withDefaults(), r.expression, r.program)
}
