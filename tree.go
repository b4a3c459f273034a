package inheritree

import (
	"cmp"
	"fmt"
)

// Config configures a tree: how to derive a key from an entry and how to
// order keys.
type Config[E, K any] struct {
	// KeyOf extracts an entry's key. Required.
	KeyOf func(entry E) K
	// Compare orders keys. It must be total and antisymmetric; the tree
	// cross-checks antisymmetry at every comparison and panics with
	// ErrInconsistentComparator on violation. Required.
	Compare func(a, b K) int
}

func (cfg Config[E, K]) validate() error {
	if cfg.KeyOf == nil {
		return fmt.Errorf("%w: key extractor is required", ErrInvalidConfig)
	}
	if cfg.Compare == nil {
		return fmt.Errorf("%w: comparator is required", ErrInvalidConfig)
	}
	return nil
}

// Tree is an ordered container of unique-keyed entries.
//
// A tree holds an optional local root and an optional base tree. While the
// local root is absent and a base is set, the tree shares the base's root;
// the first mutation copies nodes along the touched path into this tree.
// Entries are treated as immutable: the tree stores references and never
// writes through them.
type Tree[E, K any] struct {
	cfg     Config[E, K]
	root    treeNode[E, K]
	base    *Tree[E, K]
	version uint64
}

// New creates an empty tree with validated configuration.
func New[E, K any](cfg Config[E, K]) (*Tree[E, K], error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Tree[E, K]{cfg: cfg}, nil
}

// NewOrdered creates an empty tree whose keys order by the built-in
// comparison of an ordered key type.
func NewOrdered[E any, K cmp.Ordered](keyOf func(entry E) K) *Tree[E, K] {
	tree, err := New(Config[E, K]{KeyOf: keyOf, Compare: cmp.Compare[K]})
	assert(err == nil, "NewOrdered: config cannot be invalid")
	return tree
}

// Derive constructs a tree that observes all of the receiver's entries.
// Mutations of the derived tree copy nodes instead of touching the base;
// the base must outlive the derived tree until ClearBase is called on it.
func (t *Tree[E, K]) Derive() *Tree[E, K] {
	return &Tree[E, K]{cfg: t.cfg, base: t}
}

// ClearBase captures the current effective root as the tree's own root and
// releases the base pointer. Later mutations of the former base no longer
// surface through this tree. No nodes are modified and the version is not
// bumped.
func (t *Tree[E, K]) ClearBase() {
	if t.base == nil {
		return
	}
	if t.root == nil {
		t.root = t.base.effectiveRoot()
	}
	t.base = nil
	T().Debugf("inheritree: base cleared, root captured")
}

// effectiveRoot resolves the root this tree currently reads through: the
// local root if one exists, else the base chain's.
func (t *Tree[E, K]) effectiveRoot() treeNode[E, K] {
	if t.root != nil {
		return t.root
	}
	if t.base != nil {
		return t.base.effectiveRoot()
	}
	return nil
}

// compare orders two keys and cross-checks the comparator's antisymmetry.
func (t *Tree[E, K]) compare(a, b K) int {
	r := t.cfg.Compare(a, b)
	if r != 0 {
		s := t.cfg.Compare(b, a)
		if s == 0 || (s < 0) == (r < 0) {
			panic(fmt.Errorf("%w: compare(a,b)=%d but compare(b,a)=%d",
				ErrInconsistentComparator, r, s))
		}
	}
	return r
}

func (t *Tree[E, K]) keyAt(path *Path[E, K]) K {
	assert(path.leaf != nil && path.leafIndex < len(path.leaf.entries),
		"keyAt called with path off the leaf")
	return t.cfg.KeyOf(path.leaf.entries[path.leafIndex])
}

// Find descends from the root to the leaf position of key. The returned
// path is on the entry when the key is present, else in the crack where
// the key would be inserted.
func (t *Tree[E, K]) Find(key K) *Path[E, K] {
	path := &Path[E, K]{version: t.version}
	n := t.effectiveRoot()
	if n == nil {
		return path
	}
	for !n.isLeaf() {
		branch := n.(*branchNode[E, K])
		idx := t.childIndex(branch, key)
		path.branches = append(path.branches, pathBranch[E, K]{branch: branch, index: idx})
		n = branch.nodes[idx]
	}
	leaf := n.(*leafNode[E, K])
	path.leaf = leaf
	path.leafIndex, path.on = t.searchLeaf(leaf, key)
	return path
}

// childIndex picks the child subtree that owns key. Equality steers right:
// keys equal to a partition live in the subtree at or beyond it.
func (t *Tree[E, K]) childIndex(branch *branchNode[E, K], key K) int {
	lo, hi := 0, len(branch.partitions)
	for lo < hi {
		mid := (lo + hi) >> 1
		if t.compare(key, branch.partitions[mid]) >= 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// searchLeaf binary-searches a leaf for key, returning the entry position
// when found, else the insertion point (lower bound).
func (t *Tree[E, K]) searchLeaf(leaf *leafNode[E, K], key K) (int, bool) {
	lo, hi := 0, len(leaf.entries)
	for lo < hi {
		mid := (lo + hi) >> 1
		if t.compare(t.cfg.KeyOf(leaf.entries[mid]), key) < 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	found := lo < len(leaf.entries) && t.compare(t.cfg.KeyOf(leaf.entries[lo]), key) == 0
	return lo, found
}

// Get returns the entry stored under key, if any.
func (t *Tree[E, K]) Get(key K) (E, bool) {
	path := t.Find(key)
	if !path.on {
		var zero E
		return zero, false
	}
	return path.leaf.entries[path.leafIndex], true
}

// At returns the entry a path points at. The second result is false when
// the path lies in a crack.
func (t *Tree[E, K]) At(path *Path[E, K]) (E, bool, error) {
	var zero E
	if !t.IsValid(path) {
		return zero, false, ErrInvalidPath
	}
	if !path.on {
		return zero, false, nil
	}
	return path.leaf.entries[path.leafIndex], true, nil
}

// IsValid reports whether a path was issued against the tree's current
// version.
func (t *Tree[E, K]) IsValid(path *Path[E, K]) bool {
	return path != nil && path.version == t.version
}

// commit finishes a mutation: the version advances and the surviving paths
// are stamped with it.
func (t *Tree[E, K]) commit(paths ...*Path[E, K]) {
	t.version++
	for _, p := range paths {
		if p != nil {
			p.version = t.version
		}
	}
}
