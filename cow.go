package inheritree

// The copy-on-write engine. A node is private to a tree iff its owner
// pointer equals that tree; anything else reachable through the root came
// from a base and must be cloned before the first write. Cloning proceeds
// bottom-up along the path: the touched node is copied, then every foreign
// ancestor, re-pointing each copy's child link, until a private ancestor
// absorbs the chain or a new local root is installed. The old→new map is
// then replayed over the operation's path(s) so cursors keep pointing at
// the private chain.
//
// Private nodes form an upward-closed region: a private node's ancestors
// along any root path are private, because the first divergence cloned all
// the way to the root. mutableLeaf and mutableBranch rely on this to stop
// the climb at the first already-owned branch.

// mutableLeaf returns the path's leaf as a node private to t, cloning the
// leaf and its foreign ancestors when necessary. The given path and any
// auxiliary paths are remapped onto the new chain. Idempotent on private
// chains.
func (t *Tree[E, K]) mutableLeaf(path *Path[E, K], aux ...*Path[E, K]) *leafNode[E, K] {
	assert(path.leaf != nil, "mutableLeaf called with no leaf on path")
	if path.leaf.ownedBy(t) {
		return path.leaf
	}
	m := nodeMap[E, K]{}
	cloned := path.leaf.clone(t)
	m[path.leaf] = cloned
	t.graftUp(path.branches, cloned, m)
	path.remap(m)
	for _, p := range aux {
		p.remap(m)
	}
	return cloned
}

// mutableBranch returns the branch at the given path depth as a node
// private to t, cloning it and its foreign ancestors when necessary.
func (t *Tree[E, K]) mutableBranch(path *Path[E, K], depth int, aux ...*Path[E, K]) *branchNode[E, K] {
	assert(depth >= 0 && depth < len(path.branches), "mutableBranch depth out of range")
	seg := path.branches[depth]
	if seg.branch.ownedBy(t) {
		return seg.branch
	}
	m := nodeMap[E, K]{}
	cloned := seg.branch.clone(t)
	m[seg.branch] = cloned
	t.graftUp(path.branches[:depth], cloned, m)
	path.remap(m)
	for _, p := range aux {
		p.remap(m)
	}
	return cloned
}

// graftUp wires a freshly cloned child into the chain above it, cloning
// foreign branches until a private one accepts the link; past the top the
// child becomes the tree's new root.
func (t *Tree[E, K]) graftUp(branches []pathBranch[E, K], child treeNode[E, K], m nodeMap[E, K]) {
	for d := len(branches) - 1; d >= 0; d-- {
		seg := branches[d]
		if seg.branch.ownedBy(t) {
			seg.branch.nodes[seg.index] = child
			return
		}
		cloned := seg.branch.clone(t)
		cloned.nodes[seg.index] = child
		m[seg.branch] = cloned
		child = cloned
	}
	t.root = child
}

// mutableLeafChild returns the leaf child of an already-private parent as
// a private node, cloning it in place when foreign. Used for sibling views
// during rebalance; siblings never appear on the operation's path, so no
// remap is needed.
func (t *Tree[E, K]) mutableLeafChild(parent *branchNode[E, K], idx int) *leafNode[E, K] {
	assert(parent.ownedBy(t), "mutableLeafChild requires a private parent")
	child := parent.nodes[idx].(*leafNode[E, K])
	if child.ownedBy(t) {
		return child
	}
	cloned := child.clone(t)
	parent.nodes[idx] = cloned
	return cloned
}

// mutableBranchChild is the branch counterpart of mutableLeafChild.
func (t *Tree[E, K]) mutableBranchChild(parent *branchNode[E, K], idx int) *branchNode[E, K] {
	assert(parent.ownedBy(t), "mutableBranchChild requires a private parent")
	child := parent.nodes[idx].(*branchNode[E, K])
	if child.ownedBy(t) {
		return child
	}
	cloned := child.clone(t)
	parent.nodes[idx] = cloned
	return cloned
}
