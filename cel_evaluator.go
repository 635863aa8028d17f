package states

import (
	"fmt"
	"strings"

	celgo "github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

// celMaxCallArgs bounds the arity of the call() helper; CEL has no variadic
// overloads.
const celMaxCallArgs = 4

type celProgram struct {
	env     *celgo.Env
	program celgo.Program
}

type celEvaluator struct {
	engineConfig
}

// NewCELEvaluator constructs an Evaluator backed by cel-go. Snapshot entries
// are declared as dyn variables, so values must be CEL-native (numbers,
// strings, bools, lists, maps, timestamps).
func NewCELEvaluator(opts ...EngineOption) Evaluator {
	return &celEvaluator{engineConfig: newEngineConfig(opts)}
}

func (e *celEvaluator) engineName() string { return EngineCEL }

func (e *celEvaluator) Evaluate(ctx QueryContext, expression string) (any, error) {
	if expression == "" {
		return nil, compileError(EngineCEL, expression, ErrEmptyExpression)
	}
	ctx = ctx.withDefaults()
	snapshot := snapshotAsMap(ctx.Snapshot)
	program, err := e.loadOrCompile(expression, snapshot)
	if err != nil {
		return nil, annotateQueryError(compileError(EngineCEL, expression, err), EngineCEL, expression, ctx)
	}
	out, _, err := program.program.Eval(e.activation(ctx, snapshot))
	if err != nil {
		return nil, runError(EngineCEL, expression, ctx, err)
	}
	return out.Value(), nil
}

// Compile defers type checking to the first evaluation because the variable
// set depends on the snapshot.
func (e *celEvaluator) Compile(expression string, _ ...CompileOption) (CompiledRule, error) {
	if expression == "" {
		return nil, compileError(EngineCEL, expression, ErrEmptyExpression)
	}
	return &celCompiledRule{evaluator: e, expression: expression}, nil
}

func (e *celEvaluator) loadOrCompile(expression string, snapshot map[string]any) (*celProgram, error) {
	names := snapshotNames(snapshot)
	cacheKey := expression + "\x00" + strings.Join(names, ",")
	if program, ok := cached[*celProgram](e.engineConfig, cacheKey); ok {
		return program, nil
	}

	env, err := e.buildEnv(names)
	if err != nil {
		return nil, err
	}
	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, err
	}
	bundle := &celProgram{env: env, program: prg}
	e.store(cacheKey, bundle)
	return bundle, nil
}

func (e *celEvaluator) buildEnv(names []string) (*celgo.Env, error) {
	opts := []celgo.EnvOption{
		celgo.Variable("now", celgo.TimestampType),
		celgo.Variable("args", celgo.MapType(celgo.StringType, celgo.DynType)),
		celgo.Variable("metadata", celgo.MapType(celgo.StringType, celgo.DynType)),
		celgo.Variable("scope", celgo.MapType(celgo.StringType, celgo.StringType)),
	}
	reserved := map[string]bool{"now": true, "args": true, "metadata": true, "scope": true}
	for _, name := range names {
		if reserved[name] {
			continue
		}
		opts = append(opts, celgo.Variable(name, celgo.DynType))
	}
	if e.helpers != nil {
		opts = append(opts, celgo.Function("call", e.callOverloads()...))
	}
	return celgo.NewEnv(opts...)
}

func (e *celEvaluator) callOverloads() []celgo.FunctionOpt {
	overloads := make([]celgo.FunctionOpt, 0, celMaxCallArgs+1)
	for arity := 0; arity <= celMaxCallArgs; arity++ {
		argTypes := []*celgo.Type{celgo.StringType}
		for i := 0; i < arity; i++ {
			argTypes = append(argTypes, celgo.DynType)
		}
		overloads = append(overloads, celgo.Overload(
			fmt.Sprintf("call_string_dyn%d", arity),
			argTypes,
			celgo.DynType,
			celgo.FunctionBinding(e.callBinding),
		))
	}
	return overloads
}

func (e *celEvaluator) callBinding(values ...ref.Val) ref.Val {
	args := make([]any, len(values))
	for i, val := range values {
		args[i] = val.Value()
	}
	result, err := e.helpers.dispatch(args...)
	if err != nil {
		return types.NewErr("%s", err.Error())
	}
	if result == nil {
		return types.NullValue
	}
	return types.DefaultTypeAdapter.NativeToValue(result)
}

func (e *celEvaluator) activation(ctx QueryContext, snapshot map[string]any) map[string]any {
	scope := map[string]string{"id": ctx.ScopeID, "name": ctx.ScopeName}
	activation := make(map[string]any, len(snapshot)+4)
	for key, value := range snapshot {
		activation[key] = value
	}
	activation["now"] = ctx.timestamp()
	activation["args"] = ctx.Args
	activation["metadata"] = ctx.Metadata
	activation["scope"] = scope
	return activation
}

type celCompiledRule struct {
	evaluator  *celEvaluator
	expression string
}

func (r *celCompiledRule) Evaluate(ctx QueryContext) (any, error) {
	return r.evaluator.Evaluate(ctx, r.expression)
}
