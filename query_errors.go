package states

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyExpression indicates a query with no expression text.
var ErrEmptyExpression = errors.New("states: expression must not be empty")

// QueryPhase tells whether a query failed while compiling or while running.
type QueryPhase string

const (
	PhaseCompile QueryPhase = "compile"
	PhaseRun     QueryPhase = "run"
)

// QueryError reports a failed state query together with the scope it ran
// against and the container bindings that were visible to the expression.
type QueryError struct {
	Engine    string
	Phase     QueryPhase
	Expr      string
	ScopeID   string
	ScopeName string
	// Bindings lists the snapshot names in scope, sorted. A typo in a
	// binding name shows up here next to the names that do exist.
	Bindings []string
	Err      error
}

func (e *QueryError) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "states: %s query %s failed", e.Engine, e.Phase)
	if e.Expr != "" {
		fmt.Fprintf(&b, " for %q", e.Expr)
	}
	if scope := e.scope(); scope != "" {
		fmt.Fprintf(&b, " in scope %s", scope)
	}
	if len(e.Bindings) > 0 {
		fmt.Fprintf(&b, " (bindings: %s)", strings.Join(e.Bindings, ", "))
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

func (e *QueryError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func (e *QueryError) scope() string {
	if e.ScopeName != "" {
		return e.ScopeName
	}
	return e.ScopeID
}

func compileError(engine, expr string, err error) error {
	if err == nil {
		return nil
	}
	var queryErr *QueryError
	if errors.As(err, &queryErr) {
		return err
	}
	return &QueryError{Engine: engine, Phase: PhaseCompile, Expr: expr, Err: err}
}

func runError(engine, expr string, ctx QueryContext, err error) error {
	if err == nil {
		return nil
	}
	return annotateQueryError(&QueryError{Engine: engine, Phase: PhaseRun, Expr: expr, Err: err}, engine, expr, ctx)
}

// annotateQueryError fills whatever err does not already say about the query.
// Errors that are not QueryErrors are treated as run failures.
func annotateQueryError(err error, engine, expr string, ctx QueryContext) error {
	if err == nil {
		return nil
	}
	var queryErr *QueryError
	if !errors.As(err, &queryErr) {
		queryErr = &QueryError{Phase: PhaseRun, Err: err}
	}
	if queryErr.Engine == "" {
		queryErr.Engine = engine
	}
	if queryErr.Expr == "" {
		queryErr.Expr = expr
	}
	if queryErr.ScopeID == "" && queryErr.ScopeName == "" {
		queryErr.ScopeID, queryErr.ScopeName = ctx.ScopeID, ctx.ScopeName
	}
	if queryErr.Bindings == nil {
		queryErr.Bindings = snapshotNames(snapshotAsMap(ctx.Snapshot))
	}
	return queryErr
}
