package inheritree

// split reports the result of splitting a node: the partition key promoted
// to the parent, the new right sibling, and how far the cursor's segment
// index shifts (1 when the cursor followed the entry into the right half).
type split[E, K any] struct {
	key        K
	right      treeNode[E, K]
	indexDelta int
}

// Insert adds an entry under its extracted key. When the key is already
// present nothing changes and the returned path reports the occupant's
// position with On() == false. On success the returned path is on the new
// entry and stamped with the post-mutation version.
func (t *Tree[E, K]) Insert(entry E) *Path[E, K] {
	path := t.Find(t.cfg.KeyOf(entry))
	if path.on {
		path.on = false
		return path
	}
	t.insertAt(path, entry)
	path.on = true
	t.commit(path)
	return path
}

// Upsert inserts or overwrites the entry under its extracted key. The
// returned path reports On() == true when an existing entry was
// overwritten and On() == false when the entry was newly inserted; either
// way it addresses the entry's position.
func (t *Tree[E, K]) Upsert(entry E) *Path[E, K] {
	path := t.Find(t.cfg.KeyOf(entry))
	if path.on {
		leaf := t.mutableLeaf(path)
		leaf.entries[path.leafIndex] = entry
	} else {
		t.insertAt(path, entry)
	}
	t.commit(path)
	return path
}

// UpdateAt replaces the entry a path points at.
//
// When the path is not on an entry, UpdateAt performs nothing and returns
// the path with wasUpdate == true; callers distinguish this outcome by the
// path's On() staying false. When the new entry keeps its key, the entry
// is overwritten in place and wasUpdate is true. When the key changes, the
// operation devolves to an insert of the new entry followed by a delete of
// the old one and wasUpdate is false; if the new key is already taken,
// nothing changes and the occupant's position is returned with
// On() == false.
func (t *Tree[E, K]) UpdateAt(path *Path[E, K], entry E) (*Path[E, K], bool, error) {
	if !t.IsValid(path) {
		return nil, false, ErrInvalidPath
	}
	if !path.on {
		return path, true, nil
	}
	oldKey := t.keyAt(path)
	newKey := t.cfg.KeyOf(entry)
	if t.compare(oldKey, newKey) == 0 {
		leaf := t.mutableLeaf(path)
		leaf.entries[path.leafIndex] = entry
		t.commit(path)
		return path, true, nil
	}
	inserted := t.Find(newKey)
	if inserted.on {
		inserted.on = false
		return inserted, false, nil
	}
	t.insertAt(inserted, entry)
	removed := t.Find(oldKey)
	assert(removed.on, "UpdateAt lost the original entry")
	t.deleteAt(removed)
	result := t.Find(newKey)
	t.commit(result)
	return result, false, nil
}

// Merge inserts the entry when its key is absent, else feeds the existing
// entry through updater and updates in place. The updater must not mutate
// the tree; doing so is detected through path invalidation and reported as
// ErrInvalidPath. wasUpdate mirrors UpdateAt for the update arm and is
// false for a fresh insert.
func (t *Tree[E, K]) Merge(entry E, updater func(existing E) E) (*Path[E, K], bool, error) {
	path := t.Find(t.cfg.KeyOf(entry))
	if !path.on {
		t.insertAt(path, entry)
		path.on = true
		t.commit(path)
		return path, false, nil
	}
	updated := updater(path.leaf.entries[path.leafIndex])
	if path.version != t.version {
		return nil, false, ErrInvalidPath
	}
	return t.UpdateAt(path, updated)
}

// DeleteAt removes the entry a path points at. It reports false without
// effect when the path lies in a crack. The path is left in the crack
// where the entry used to be, stamped with the post-mutation version.
func (t *Tree[E, K]) DeleteAt(path *Path[E, K]) (bool, error) {
	if !t.IsValid(path) {
		return false, ErrInvalidPath
	}
	if !path.on {
		return false, nil
	}
	t.deleteAt(path)
	t.commit(path)
	return true, nil
}

// insertAt splices an entry into the crack the path points at, splitting
// bottom-up as nodes overflow. The path tracks the entry's final position.
func (t *Tree[E, K]) insertAt(path *Path[E, K], entry E) {
	if path.leaf == nil {
		// first mutation of a tree with no effective root
		leaf := &leafNode[E, K]{owner: t}
		t.root = leaf
		path.leaf = leaf
		path.leafIndex = 0
	}
	leaf := t.mutableLeaf(path)
	if len(leaf.entries) < NodeCapacity {
		leaf.entries = insertAt(leaf.entries, path.leafIndex, entry)
		return
	}
	pending := t.splitLeaf(leaf, path, entry)
	var left treeNode[E, K] = leaf
	for d := len(path.branches) - 1; d >= 0 && pending != nil; d-- {
		left = path.branches[d].branch
		pending = t.insertSplit(path, d, pending)
	}
	if pending != nil {
		t.growRoot(path, left, pending)
	}
}

// splitLeaf splits a full leaf around its midpoint, placing the incoming
// entry into whichever half the cursor falls in.
func (t *Tree[E, K]) splitLeaf(leaf *leafNode[E, K], path *Path[E, K], entry E) *split[E, K] {
	mid := (NodeCapacity + 1) / 2
	right := &leafNode[E, K]{
		owner:   t,
		entries: append([]E(nil), leaf.entries[mid:]...),
	}
	leaf.entries = leaf.entries[:mid:mid]
	delta := 0
	if path.leafIndex >= mid {
		path.leaf = right
		path.leafIndex -= mid
		delta = 1
		right.entries = insertAt(right.entries, path.leafIndex, entry)
	} else {
		leaf.entries = insertAt(leaf.entries, path.leafIndex, entry)
	}
	T().Debugf("inheritree: leaf split, %d|%d entries", len(leaf.entries), len(right.entries))
	return &split[E, K]{key: t.cfg.KeyOf(right.entries[0]), right: right, indexDelta: delta}
}

// insertSplit installs a child split into the branch at path depth d and
// reports the branch's own split when it overflows in turn.
func (t *Tree[E, K]) insertSplit(path *Path[E, K], d int, pending *split[E, K]) *split[E, K] {
	seg := &path.branches[d]
	branch := seg.branch
	assert(branch.ownedBy(t), "insertSplit on a foreign branch")
	childPos := seg.index
	branch.partitions = insertAt(branch.partitions, childPos, pending.key)
	branch.nodes = insertAt(branch.nodes, childPos+1, pending.right)
	seg.index += pending.indexDelta
	if len(branch.nodes) <= NodeCapacity {
		return nil
	}
	return t.splitBranch(branch, seg)
}

// splitBranch splits an overflowing branch, promoting the middle partition
// and keeping the receiver as the left half.
func (t *Tree[E, K]) splitBranch(branch *branchNode[E, K], seg *pathBranch[E, K]) *split[E, K] {
	n := len(branch.nodes)
	mid := (n + 1) / 2
	promoted := branch.partitions[mid-1]
	right := &branchNode[E, K]{
		owner:      t,
		partitions: append([]K(nil), branch.partitions[mid:]...),
		nodes:      append([]treeNode[E, K](nil), branch.nodes[mid:]...),
	}
	branch.partitions = branch.partitions[: mid-1 : mid-1]
	branch.nodes = branch.nodes[:mid:mid]
	delta := 0
	if seg.index >= mid {
		seg.branch = right
		seg.index -= mid
		delta = 1
	}
	T().Debugf("inheritree: branch split, %d|%d children", len(branch.nodes), len(right.nodes))
	return &split[E, K]{key: promoted, right: right, indexDelta: delta}
}

// growRoot installs a new root branch over the split halves and prepends
// the matching segment to the path.
func (t *Tree[E, K]) growRoot(path *Path[E, K], left treeNode[E, K], pending *split[E, K]) {
	root := &branchNode[E, K]{
		owner:      t,
		partitions: []K{pending.key},
		nodes:      []treeNode[E, K]{left, pending.right},
	}
	t.root = root
	path.branches = insertAt(path.branches, 0, pathBranch[E, K]{branch: root, index: pending.indexDelta})
	T().Debugf("inheritree: tree grows, new root branch")
}

// deleteAt removes the entry under the path, rebalancing underfull leaves
// and keeping ancestor partitions aligned with subtree minima. The path is
// left in the resulting crack.
func (t *Tree[E, K]) deleteAt(path *Path[E, K]) {
	leaf := t.mutableLeaf(path)
	at := path.leafIndex
	leaf.entries = removeRange(leaf.entries, at, at+1)
	switch {
	case len(path.branches) == 0:
		// the root leaf may underflow freely, down to zero entries
	case len(leaf.entries) < halfCapacity:
		t.rebalanceLeaf(path, at == 0)
	case at == 0:
		t.updatePartition(path.branches, t.cfg.KeyOf(leaf.entries[0]))
	}
	path.on = false
}

// updatePartition rewrites the partition guarding the path's subtree after
// its minimum key changed: the first ancestor entered through a child slot
// greater than zero holds that partition. On the left spine there is
// nothing to update.
func (t *Tree[E, K]) updatePartition(branches []pathBranch[E, K], key K) {
	for d := len(branches) - 1; d >= 0; d-- {
		if branches[d].index > 0 {
			assert(branches[d].branch.ownedBy(t), "updatePartition on a foreign branch")
			branches[d].branch.partitions[branches[d].index-1] = key
			return
		}
	}
}

// rebalanceLeaf repairs an underfull leaf by borrowing from or merging
// with a sibling. firstChanged reports that the leaf's minimum key moved,
// requiring a partition update when the leaf survives.
func (t *Tree[E, K]) rebalanceLeaf(path *Path[E, K], firstChanged bool) {
	d := len(path.branches) - 1
	seg := &path.branches[d]
	parent := seg.branch
	assert(parent.ownedBy(t), "rebalanceLeaf under a foreign parent")
	i := seg.index
	leaf := path.leaf

	if i+1 < len(parent.nodes) {
		if right := parent.nodes[i+1].(*leafNode[E, K]); len(right.entries) > halfCapacity {
			// borrow the right sibling's first entry
			sibling := t.mutableLeafChild(parent, i+1)
			moved := sibling.entries[0]
			sibling.entries = removeRange(sibling.entries, 0, 1)
			leaf.entries = insertAt(leaf.entries, len(leaf.entries), moved)
			parent.partitions[i] = t.cfg.KeyOf(sibling.entries[0])
			if firstChanged {
				t.updatePartition(path.branches, t.cfg.KeyOf(leaf.entries[0]))
			}
			T().Debugf("inheritree: leaf borrowed from right sibling")
			return
		}
	}
	if i > 0 {
		if left := parent.nodes[i-1].(*leafNode[E, K]); len(left.entries) > halfCapacity {
			// borrow the left sibling's last entry; the cursor shifts right
			sibling := t.mutableLeafChild(parent, i-1)
			moved := sibling.entries[len(sibling.entries)-1]
			sibling.entries = removeRange(sibling.entries, len(sibling.entries)-1, len(sibling.entries))
			leaf.entries = insertAt(leaf.entries, 0, moved)
			parent.partitions[i-1] = t.cfg.KeyOf(moved)
			path.leafIndex++
			T().Debugf("inheritree: leaf borrowed from left sibling")
			return
		}
	}
	if i+1 < len(parent.nodes) {
		right := parent.nodes[i+1].(*leafNode[E, K])
		if len(leaf.entries)+len(right.entries) <= NodeCapacity {
			// absorb the right sibling
			leaf.entries = concat(leaf.entries, right.entries)
			parent.partitions = removeRange(parent.partitions, i, i+1)
			parent.nodes = removeRange(parent.nodes, i+1, i+2)
			if firstChanged && len(leaf.entries) > 0 {
				t.updatePartition(path.branches, t.cfg.KeyOf(leaf.entries[0]))
			}
			T().Debugf("inheritree: leaf merged with right sibling")
			t.rebalanceBranch(path, d)
			return
		}
	}
	if i > 0 {
		left := parent.nodes[i-1].(*leafNode[E, K])
		if len(left.entries)+len(leaf.entries) <= NodeCapacity {
			// dissolve into the left sibling; the cursor follows
			sibling := t.mutableLeafChild(parent, i-1)
			path.leaf = sibling
			path.leafIndex += len(sibling.entries)
			sibling.entries = concat(sibling.entries, leaf.entries)
			parent.partitions = removeRange(parent.partitions, i-1, i)
			parent.nodes = removeRange(parent.nodes, i, i+1)
			seg.index = i - 1
			T().Debugf("inheritree: leaf merged into left sibling")
			t.rebalanceBranch(path, d)
			return
		}
	}
	assert(false, "rebalanceLeaf found no applicable sibling operation")
}

// rebalanceBranch repairs the branch at path depth d after it lost a
// child. At the top it collapses a root left with a single child; below it applies
// the same borrow/merge cases as leaves, rotating partitions through the
// parent.
func (t *Tree[E, K]) rebalanceBranch(path *Path[E, K], d int) {
	branch := path.branches[d].branch
	if d == 0 {
		if len(branch.nodes) == 1 {
			t.collapseRoot(path)
		}
		return
	}
	if len(branch.nodes) >= halfCapacity {
		return
	}
	self := t.mutableBranch(path, d)
	seg := &path.branches[d-1]
	parent := seg.branch
	assert(parent.ownedBy(t), "rebalanceBranch under a foreign parent")
	i := seg.index

	if i+1 < len(parent.nodes) {
		if right := parent.nodes[i+1].(*branchNode[E, K]); len(right.nodes) > halfCapacity {
			// rotate leftward through the parent partition
			sibling := t.mutableBranchChild(parent, i+1)
			self.partitions = insertAt(self.partitions, len(self.partitions), parent.partitions[i])
			self.nodes = insertAt(self.nodes, len(self.nodes), sibling.nodes[0])
			parent.partitions[i] = sibling.partitions[0]
			sibling.partitions = removeRange(sibling.partitions, 0, 1)
			sibling.nodes = removeRange(sibling.nodes, 0, 1)
			T().Debugf("inheritree: branch borrowed from right sibling")
			return
		}
	}
	if i > 0 {
		if left := parent.nodes[i-1].(*branchNode[E, K]); len(left.nodes) > halfCapacity {
			// rotate rightward through the parent partition
			sibling := t.mutableBranchChild(parent, i-1)
			self.partitions = insertAt(self.partitions, 0, parent.partitions[i-1])
			self.nodes = insertAt(self.nodes, 0, sibling.nodes[len(sibling.nodes)-1])
			parent.partitions[i-1] = sibling.partitions[len(sibling.partitions)-1]
			sibling.partitions = removeRange(sibling.partitions, len(sibling.partitions)-1, len(sibling.partitions))
			sibling.nodes = removeRange(sibling.nodes, len(sibling.nodes)-1, len(sibling.nodes))
			path.branches[d].index++
			T().Debugf("inheritree: branch borrowed from left sibling")
			return
		}
	}
	if i+1 < len(parent.nodes) {
		right := parent.nodes[i+1].(*branchNode[E, K])
		if len(self.nodes)+len(right.nodes) <= NodeCapacity {
			// absorb the right sibling, pulling the separator down
			self.partitions = concat(self.partitions, []K{parent.partitions[i]}, right.partitions)
			self.nodes = concat(self.nodes, right.nodes)
			parent.partitions = removeRange(parent.partitions, i, i+1)
			parent.nodes = removeRange(parent.nodes, i+1, i+2)
			T().Debugf("inheritree: branch merged with right sibling")
			t.rebalanceBranch(path, d-1)
			return
		}
	}
	if i > 0 {
		left := parent.nodes[i-1].(*branchNode[E, K])
		if len(left.nodes)+len(self.nodes) <= NodeCapacity {
			// dissolve into the left sibling; the cursor follows
			sibling := t.mutableBranchChild(parent, i-1)
			offset := len(sibling.nodes)
			sibling.partitions = concat(sibling.partitions, []K{parent.partitions[i-1]}, self.partitions)
			sibling.nodes = concat(sibling.nodes, self.nodes)
			parent.partitions = removeRange(parent.partitions, i-1, i)
			parent.nodes = removeRange(parent.nodes, i, i+1)
			path.branches[d].branch = sibling
			path.branches[d].index += offset
			seg.index = i - 1
			T().Debugf("inheritree: branch merged into left sibling")
			t.rebalanceBranch(path, d-1)
			return
		}
	}
	assert(false, "rebalanceBranch found no applicable sibling operation")
}

// collapseRoot replaces a single-child root branch with its child,
// cascading while the new root is itself a single-child branch.
func (t *Tree[E, K]) collapseRoot(path *Path[E, K]) {
	for {
		branch, ok := t.effectiveRoot().(*branchNode[E, K])
		if !ok || len(branch.nodes) != 1 {
			return
		}
		t.root = branch.nodes[0]
		if len(path.branches) > 0 && path.branches[0].branch == branch {
			path.branches = path.branches[1:]
		}
		T().Debugf("inheritree: root branch collapsed into sole child")
	}
}
