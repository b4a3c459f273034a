package inheritree

// pathBranch records one descent step: the branch visited and the child
// slot the path went through.
type pathBranch[E, K any] struct {
	branch *branchNode[E, K]
	index  int
}

// Path is a cursor: the root-to-leaf chain of branch segments, the leaf,
// and a position within it. When on is true the path points at an entry;
// otherwise it lies in a crack (between entries, before the first, or
// after the last). The version stamp ties the path to the tree state it
// was issued against.
type Path[E, K any] struct {
	branches  []pathBranch[E, K]
	leaf      *leafNode[E, K]
	leafIndex int
	on        bool
	version   uint64
}

// On reports whether the path currently points at an entry.
func (p *Path[E, K]) On() bool {
	return p.on
}

// Clone returns an independent cursor at the same position. Branch segments
// are copied; node references are shared.
func (p *Path[E, K]) Clone() *Path[E, K] {
	return &Path[E, K]{
		branches:  append([]pathBranch[E, K](nil), p.branches...),
		leaf:      p.leaf,
		leafIndex: p.leafIndex,
		on:        p.on,
		version:   p.version,
	}
}

// IsEqual reports whether two paths denote the same position in the same
// tree state. The version stamp participates: equal positions captured at
// different versions compare unequal.
func (p *Path[E, K]) IsEqual(other *Path[E, K]) bool {
	if p == nil || other == nil {
		return p == other
	}
	return p.leaf == other.leaf &&
		p.leafIndex == other.leafIndex &&
		p.on == other.on &&
		p.version == other.version
}

// nodeMap records old→new node identities produced by copy-on-write.
type nodeMap[E, K any] map[treeNode[E, K]]treeNode[E, K]

// remap rewrites the path's branch and leaf references through the map,
// leaving unmapped nodes untouched.
func (p *Path[E, K]) remap(m nodeMap[E, K]) {
	for i := range p.branches {
		if replaced, ok := m[p.branches[i].branch]; ok {
			p.branches[i].branch = replaced.(*branchNode[E, K])
		}
	}
	if p.leaf != nil {
		if replaced, ok := m[p.leaf]; ok {
			p.leaf = replaced.(*leafNode[E, K])
		}
	}
}
