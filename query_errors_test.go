package states

import (
	"errors"
	"strings"
	"testing"
)

func TestCompileErrorKeepsExistingQueryError(t *testing.T) {
	cause := errors.New("unexpected token")
	first := compileError(EngineCEL, "count +", cause)
	second := compileError(EngineExpr, "other", first)
	if second != first {
		t.Fatalf("expected existing QueryError to pass through, got %v", second)
	}
	if !errors.Is(second, cause) {
		t.Fatalf("expected cause to unwrap")
	}
	if compileError(EngineExpr, "x", nil) != nil {
		t.Fatalf("expected nil for nil error")
	}
}

func TestRunErrorCarriesScopeAndBindings(t *testing.T) {
	ctx := QueryContext{
		Snapshot:  map[string]any{"title": "Inbox", "count": 1},
		ScopeID:   "scope-1",
		ScopeName: "inbox",
	}
	err := runError(EngineExpr, "count / 0", ctx, errors.New("division by zero"))

	var queryErr *QueryError
	if !errors.As(err, &queryErr) {
		t.Fatalf("expected QueryError, got %T", err)
	}
	if queryErr.Phase != PhaseRun || queryErr.ScopeID != "scope-1" || queryErr.ScopeName != "inbox" {
		t.Fatalf("unexpected metadata %+v", queryErr)
	}
	if strings.Join(queryErr.Bindings, ",") != "count,title" {
		t.Fatalf("expected sorted bindings, got %v", queryErr.Bindings)
	}
	want := `states: expr query run failed for "count / 0" in scope inbox (bindings: count, title): division by zero`
	if err.Error() != want {
		t.Fatalf("unexpected message\n got: %s\nwant: %s", err.Error(), want)
	}
}

func TestAnnotateQueryErrorFillsOnlyMissingFields(t *testing.T) {
	ctx := QueryContext{Snapshot: map[string]any{"count": 1}, ScopeID: "scope-2"}

	compiled := compileError(EngineCEL, "count +", errors.New("syntax"))
	err := annotateQueryError(compiled, EngineExpr, "ignored", ctx)
	var queryErr *QueryError
	if !errors.As(err, &queryErr) {
		t.Fatalf("expected QueryError, got %T", err)
	}
	if queryErr.Engine != EngineCEL || queryErr.Expr != "count +" || queryErr.Phase != PhaseCompile {
		t.Fatalf("expected original engine, expr and phase, got %+v", queryErr)
	}
	if queryErr.ScopeID != "scope-2" || len(queryErr.Bindings) != 1 {
		t.Fatalf("expected scope and bindings to be filled, got %+v", queryErr)
	}
	if !strings.Contains(err.Error(), "in scope scope-2") {
		t.Fatalf("expected scope id in message when unnamed, got %s", err.Error())
	}

	plain := annotateQueryError(errors.New("boom"), EngineJS, "x()", ctx)
	if !errors.As(plain, &queryErr) || queryErr.Phase != PhaseRun || queryErr.Engine != EngineJS {
		t.Fatalf("expected plain error wrapped as run failure, got %v", plain)
	}
	if annotateQueryError(nil, EngineExpr, "x", ctx) != nil {
		t.Fatalf("expected nil for nil error")
	}
}
