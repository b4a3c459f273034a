package inheritree

import "errors"

var (
	// ErrInvalidConfig signals an invalid tree configuration. Check also
	// wraps it when reporting a structural invariant violation.
	ErrInvalidConfig = errors.New("inheritree: invalid configuration")
	// ErrInvalidPath signals a path whose version stamp does not match the
	// tree's current version. Every path-consuming operation checks this
	// before touching the tree.
	ErrInvalidPath = errors.New("inheritree: path is stale")
	// ErrInconsistentComparator signals a comparator that is not
	// antisymmetric. It is detected at comparison sites and raised as a
	// panic; the tree's structure is unusable under such a comparator.
	ErrInconsistentComparator = errors.New("inheritree: comparator is not antisymmetric")
)
