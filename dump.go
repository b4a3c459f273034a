package inheritree

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

var (
	ownedMarker  = color.New(color.FgGreen).SprintFunc()
	sharedMarker = color.New(color.FgYellow).SprintFunc()
)

// Dump writes a structural rendering of the tree to w, one node per line,
// indented by depth. Nodes private to this tree are marked "owned", nodes
// still shared with a base are marked "shared". Intended for debugging;
// the output format is not stable.
func (t *Tree[E, K]) Dump(w io.Writer) {
	root := t.effectiveRoot()
	if root == nil {
		fmt.Fprintln(w, "(empty)")
		return
	}
	t.dumpNode(w, root, 0)
}

func (t *Tree[E, K]) dumpNode(w io.Writer, n treeNode[E, K], depth int) {
	indent := strings.Repeat("  ", depth)
	marker := sharedMarker("shared")
	if n.ownedBy(t) {
		marker = ownedMarker("owned")
	}
	if n.isLeaf() {
		leaf := n.(*leafNode[E, K])
		if len(leaf.entries) == 0 {
			fmt.Fprintf(w, "%sleaf [%s] empty\n", indent, marker)
			return
		}
		first := t.cfg.KeyOf(leaf.entries[0])
		last := t.cfg.KeyOf(leaf.entries[len(leaf.entries)-1])
		fmt.Fprintf(w, "%sleaf [%s] %d entries, keys %v..%v\n",
			indent, marker, len(leaf.entries), first, last)
		return
	}
	branch := n.(*branchNode[E, K])
	fmt.Fprintf(w, "%sbranch [%s] %d children, partitions %v\n",
		indent, marker, len(branch.nodes), branch.partitions)
	for _, child := range branch.nodes {
		t.dumpNode(w, child, depth+1)
	}
}
