package states

import (
	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
)

// exprEvaluator runs queries with github.com/expr-lang/expr. Snapshot
// entries become top-level variables; helpers become functions.
type exprEvaluator struct {
	engineConfig
}

// NewExprEvaluator constructs an Evaluator backed by expr-lang/expr.
func NewExprEvaluator(opts ...EngineOption) Evaluator {
	return &exprEvaluator{engineConfig: newEngineConfig(opts)}
}

func (e *exprEvaluator) engineName() string { return EngineExpr }

func (e *exprEvaluator) Evaluate(ctx QueryContext, expression string) (any, error) {
	program, err := e.program(expression)
	if err != nil {
		return nil, annotateQueryError(err, EngineExpr, expression, ctx)
	}
	return e.run(ctx.withDefaults(), expression, program)
}

func (e *exprEvaluator) Compile(expression string, _ ...CompileOption) (CompiledRule, error) {
	program, err := e.program(expression)
	if err != nil {
		return nil, err
	}
	return &exprCompiledRule{evaluator: e, program: program, expression: expression}, nil
}

func (e *exprEvaluator) program(expression string) (*exprvm.Program, error) {
	if expression == "" {
		return nil, compileError(EngineExpr, expression, ErrEmptyExpression)
	}
	if program, ok := cached[*exprvm.Program](e.engineConfig, expression); ok {
		return program, nil
	}
	options := []exprlang.Option{
		exprlang.Env(map[string]any{}),
		exprlang.AllowUndefinedVariables(),
	}
	if helpers := e.helpers; helpers != nil {
		options = append(options, exprlang.Function("call", helpers.dispatch))
		for _, name := range helpers.Names() {
			name := name
			options = append(options, exprlang.Function(name, func(args ...any) (any, error) {
				return helpers.Invoke(name, args...)
			}))
		}
	}
	program, err := exprlang.Compile(expression, options...)
	if err != nil {
		return nil, compileError(EngineExpr, expression, err)
	}
	e.store(expression, program)
	return program, nil
}

func (e *exprEvaluator) run(ctx QueryContext, expression string, program *exprvm.Program) (any, error) {
	env := map[string]any{
		"now":      ctx.timestamp(),
		"args":     ctx.Args,
		"metadata": ctx.Metadata,
	}
	if binding := ctx.scopeBinding(); binding != nil {
		env["scope"] = binding
	}
	for name, value := range snapshotAsMap(ctx.Snapshot) {
		env[name] = value
	}
	result, err := exprlang.Run(program, env)
	if err != nil {
		return nil, runError(EngineExpr, expression, ctx, err)
	}
	return result, nil
}

type exprCompiledRule struct {
	evaluator  *exprEvaluator
	program    *exprvm.Program
	expression string
}

func (r *exprCompiledRule) Evaluate(ctx QueryContext) (any, error) {
	return r.evaluator.run(ctx.withDefaults(), r.expression, r.program)
}
