package states

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-states/pkg/restore"
)

var (
	// ErrNotFound indicates no container of the requested concrete type was
	// registered in the scope, or in any active scope.
	ErrNotFound = errors.New("states: container not found")
	// ErrNoActiveScope indicates a global resolve ran while the registry was
	// empty.
	ErrNoActiveScope = errors.New("states: no active scope")
	// ErrDisposed indicates a mutation on a container whose scope was torn down.
	ErrDisposed = errors.New("states: container disposed")
	// ErrRestorationTypeMismatch indicates a stored value could not be used as
	// the container's type. It is logged, never returned to constructors.
	ErrRestorationTypeMismatch = restore.ErrTypeMismatch
	// ErrDuplicateType indicates a scope was declared with two containers of
	// the same concrete type.
	ErrDuplicateType = errors.New("states: duplicate container type in scope")
	// ErrNilContainer indicates a nil entry in a scope declaration.
	ErrNilContainer = errors.New("states: nil container")
	// ErrNilRegistry indicates a controller was built without a registry.
	ErrNilRegistry = errors.New("states: registry is required")
)

// LookupError describes a failed scope lookup or registry resolve.
type LookupError struct {
	Type   string
	Scope  string
	Active int
	Err    error
}

func (e *LookupError) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch {
	case errors.Is(e.Err, ErrNoActiveScope):
		return fmt.Sprintf("states: resolve %s: %v (no scope has been activated yet, or all were deactivated)", e.Type, e.Err)
	case e.Scope != "":
		return fmt.Sprintf("states: lookup %s in scope %s: %v", e.Type, e.Scope, e.Err)
	case e.Active > 0:
		return fmt.Sprintf("states: resolve %s across %d active scopes: %v", e.Type, e.Active, e.Err)
	default:
		return fmt.Sprintf("states: lookup %s: %v", e.Type, e.Err)
	}
}

func (e *LookupError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
