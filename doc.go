/*
Package inheritree provides an in-memory ordered associative container: a
B+-tree whose trees can inherit from one another by structural sharing.

A tree constructed over a base tree observes all of the base's entries.
Mutating the derived tree never perturbs the base: the first write along a
root-to-leaf path copies the touched nodes into the derived tree and
re-points the copies up to a derived-local root. Ownership of every node is
recorded on the node itself, so deciding whether a node is private or still
shared is a single pointer comparison.

Positions in a tree are represented by cursors (Path values): a root-to-leaf
chain of branch segments plus a leaf position. A path either points at an
entry ("on") or lies in a crack between entries. Paths carry a version
stamp; any committed mutation bumps the tree's version, so stale paths are
rejected by every path-consuming operation instead of silently drifting.

Capacity is fixed at NodeCapacity entries or children per node. Inserts
split overflowing nodes bottom-up; deletes borrow from or merge with
siblings and collapse the root when it runs dry. Keys are unique; the
comparator supplied at construction must be total and antisymmetric, and
the tree cross-checks antisymmetry on every comparison.

Iteration (Ascending, Descending, Range) is lazy and cursor-driven. The
tree is not internally synchronized; exactly one goroutine may mutate a
tree at a time, and a mutation performed between two iteration steps
invalidates the cursor, which the next step reports.

# BSD License

Copyright (c) Digithought. Please refer to the License file for details.
*/
package inheritree

import (
	"github.com/npillmayer/schuko/gtrace"
	"github.com/npillmayer/schuko/tracing"
)

// T traces to a global core-tracer.
func T() tracing.Trace {
	return gtrace.CoreTracer
}
