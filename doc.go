// Package states provides typed, observable state containers for
// tree-structured UI applications, grouped into scopes that follow the life
// of a tree node, plus a bounded registry that resolves containers by type
// from anywhere in the program.
//
// Data flow:
//
//	tree node declares containers -> Controller.Activate -> NewScope
//	  -> Registry.Register + ScopeBinder.BindScope
//	UI components: Lookup[C](nearest scope) -> Subscribe
//	business logic: Resolve[C](registry) -> Set
//	node teardown: Activation.Deactivate -> Unregister -> Dispose members
//
// Restoration:
//
//	Containers remember their last value in a process-wide restore.Store
//	keyed by restoration key. A container built with WithKey is seeded from
//	the store on construction. Without an explicit key, the key is derived
//	from the container's concrete type and its declaration position when it
//	is first placed in a Scope, so rebuilding the same node recovers the
//	previous values.
//
// Registry capacity:
//
//	The registry keeps at most DefaultCapacity scopes unless configured
//	otherwise. Registering past capacity evicts the oldest scope even if its
//	tree node is still active; resolves for types only that scope held then
//	fail with ErrNotFound. Use WithCapacity(0) to disable eviction and rely
//	on Activation.Deactivate alone.
//
// Concurrency:
//
//	The intended caller is a single UI goroutine. Containers, the registry
//	and the restoration store still guard their own state, so background
//	goroutines may call Set or Resolve. Subscribers run on the goroutine that
//	called Set, outside the container lock; ordering per container is only
//	guaranteed for calls issued from one goroutine.
package states
