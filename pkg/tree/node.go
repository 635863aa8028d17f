// Package tree is a minimal host for tree-scoped lookup: nodes with parent
// links that hold the scope bound to them and find the nearest one for any
// descendant. UI frameworks with their own element tree implement
// states.ScopeBinder directly instead.
package tree

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	states "github.com/goliatone/go-states"
)

// ErrNoScope indicates no scope is bound at or above a node.
var ErrNoScope = errors.New("tree: no scope bound at or above node")

// Node is one position in the tree.
type Node struct {
	name   string
	parent *Node

	mu    sync.RWMutex
	scope *states.Scope
}

// NewRoot creates a parentless node.
func NewRoot(name string) *Node {
	return &Node{name: name}
}

// Child creates a node below n.
func (n *Node) Child(name string) *Node {
	return &Node{name: name, parent: n}
}

// Parent returns the parent node, or nil for a root.
func (n *Node) Parent() *Node {
	return n.parent
}

// Path returns the slash separated names from the root to n.
func (n *Node) Path() string {
	var parts []string
	for cur := n; cur != nil; cur = cur.parent {
		parts = append(parts, cur.name)
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, "/")
}

// BindScope implements states.ScopeBinder.
func (n *Node) BindScope(scope *states.Scope) {
	n.mu.Lock()
	n.scope = scope
	n.mu.Unlock()
}

// UnbindScope implements states.ScopeBinder. A scope other than the bound one
// is ignored.
func (n *Node) UnbindScope(scope *states.Scope) {
	n.mu.Lock()
	if n.scope == scope {
		n.scope = nil
	}
	n.mu.Unlock()
}

// Scope returns the scope bound directly to n.
func (n *Node) Scope() (*states.Scope, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.scope, n.scope != nil
}

// Nearest walks from n towards the root and returns the first bound scope.
func (n *Node) Nearest() (*states.Scope, bool) {
	for cur := n; cur != nil; cur = cur.parent {
		if scope, ok := cur.Scope(); ok {
			return scope, true
		}
	}
	return nil, false
}

// Lookup finds the nearest scope to n and looks up the container of type C in
// it. Ancestors further up are not consulted when the nearest scope misses.
func Lookup[C any](n *Node) (C, error) {
	var zero C
	scope, ok := n.Nearest()
	if !ok {
		return zero, fmt.Errorf("%w: %s", ErrNoScope, n.Path())
	}
	return states.Lookup[C](scope)
}
