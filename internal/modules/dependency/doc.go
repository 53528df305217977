// Package dependency discovers the dependency neighborhood of derived
// concepts and orders it for execution.
//
// Expander walks an externally stored edge set to a fixpoint, one store
// round trip per hop. Sort assigns stable integer indices to concept paths
// and runs Kahn's algorithm; a cycle is a tagged outcome rather than an
// error, and the partial order of the acyclic remainder is kept.
// Partition splits a whole edge set into its connected hierarchies with a
// bounded worker pool.
package dependency
