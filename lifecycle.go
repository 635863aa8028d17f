package states

import (
	"context"
	"sync"

	"github.com/goliatone/go-states/pkg/activity"
)

// ScopeBinder exposes a scope to the subtree of the tree node it belongs to.
// The host UI framework implements it; nil binders are allowed.
type ScopeBinder interface {
	BindScope(scope *Scope)
	UnbindScope(scope *Scope)
}

// Declaration returns the already-constructed containers a tree node needs,
// in declaration order.
type Declaration func() []Container

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithControllerLogger sets the controller logger.
func WithControllerLogger(logger Logger) ControllerOption {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithControllerEmitter emits scope.disposed events on deactivation.
func WithControllerEmitter(emitter *activity.Emitter) ControllerOption {
	return func(c *Controller) {
		c.emitter = emitter
	}
}

// WithScopeOptions applies opts to every scope the controller builds.
func WithScopeOptions(opts ...ScopeOption) ControllerOption {
	return func(c *Controller) {
		c.scopeOpts = append(c.scopeOpts, opts...)
	}
}

// Controller ties scopes to tree-node activation: it builds and registers a
// scope when a node activates and tears it down when the node goes away.
type Controller struct {
	registry  *Registry
	logger    Logger
	emitter   *activity.Emitter
	scopeOpts []ScopeOption
}

// NewController builds a controller that registers scopes with registry.
func NewController(registry *Registry, opts ...ControllerOption) *Controller {
	c := &Controller{registry: registry}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	c.logger = loggerOrNop(c.logger)
	return c
}

// Registry returns the registry scopes are registered with.
func (c *Controller) Registry() *Registry {
	return c.registry
}

// Activate builds a scope from containers, registers it and binds it to
// binder.
func (c *Controller) Activate(binder ScopeBinder, containers ...Container) (*Activation, error) {
	return c.activate(binder, containers, nil)
}

// ActivateDeclared is Activate for a declarative container list. Extra opts
// apply to this scope only.
func (c *Controller) ActivateDeclared(binder ScopeBinder, decl Declaration, opts ...ScopeOption) (*Activation, error) {
	var containers []Container
	if decl != nil {
		containers = decl()
	}
	return c.activate(binder, containers, opts)
}

func (c *Controller) activate(binder ScopeBinder, containers []Container, extra []ScopeOption) (*Activation, error) {
	if c.registry == nil {
		return nil, ErrNilRegistry
	}
	opts := append(append([]ScopeOption(nil), c.scopeOpts...), extra...)
	scope, err := NewScope(containers, opts...)
	if err != nil {
		return nil, err
	}
	c.registry.Register(scope)
	if binder != nil {
		binder.BindScope(scope)
	}
	c.logger.Debugw("states: scope activated", "scope", scope.label(), "members", scope.Len())
	return &Activation{controller: c, scope: scope, binder: binder}, nil
}

// Activation is the handle for one activated tree node.
type Activation struct {
	controller *Controller
	scope      *Scope
	binder     ScopeBinder

	mu   sync.Mutex
	done bool
}

// Scope returns the scope built for this activation.
func (a *Activation) Scope() *Scope {
	return a.scope
}

// Active reports whether Deactivate has not run yet.
func (a *Activation) Active() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return !a.done
}

// Deactivate unregisters the scope, unbinds it from the tree and disposes
// every member container, shadowed ones included. The scope leaves the
// registry before any container is disposed so no resolve can return a
// container mid-disposal. Calling Deactivate again is a no-op.
func (a *Activation) Deactivate() {
	a.mu.Lock()
	if a.done {
		a.mu.Unlock()
		return
	}
	a.done = true
	a.mu.Unlock()

	c := a.controller
	c.registry.Unregister(a.scope)
	if a.binder != nil {
		a.binder.UnbindScope(a.scope)
	}
	for _, container := range a.scope.members {
		container.Dispose()
	}
	c.logger.Debugw("states: scope disposed", "scope", a.scope.label(), "members", a.scope.Len())

	if !c.emitter.Enabled() {
		return
	}
	event := activity.BuildScopeEvent(activity.VerbScopeDisposed, activity.ScopeEventInput{
		ScopeID:   a.scope.ID(),
		ScopeName: a.scope.Name(),
		Members:   a.scope.Len(),
		Active:    c.registry.Len(),
	})
	if err := c.emitter.Emit(context.Background(), event); err != nil {
		c.logger.Debugw("states: activity hook failed", "verb", event.Verb, "error", err)
	}
}
