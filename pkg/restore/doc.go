// Package restore holds the process-wide restoration store used by state
// containers that opt into value restoration.
//
// The store remembers the last value written under a key so that a container
// rebuilt later in the same process run can pick up where the previous one
// left off. It is a development aid, not a persistence layer:
//   - one entry per key, last write wins
//   - entries outlive the container that wrote them
//   - no TTL, no size bound, no namespacing
//   - nothing is ever written to disk
//
// Default() returns the shared instance; tests can call Clear() on it or build
// an isolated store with NewStore().
package restore
