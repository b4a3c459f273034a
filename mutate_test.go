package inheritree

import (
	"errors"
	"testing"

	"github.com/npillmayer/schuko/gtrace"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

// makeLeafOf builds a leaf owned by tree; test-only shape construction.
func makeLeafOf(tree *Tree[record, int], ids ...int) *leafNode[record, int] {
	leaf := &leafNode[record, int]{owner: tree}
	for _, id := range ids {
		leaf.entries = append(leaf.entries, rec(id))
	}
	return leaf
}

// makeBranchOf builds a branch over children, partitioned by each right
// child's minimum key.
func makeBranchOf(tree *Tree[record, int], children ...treeNode[record, int]) *branchNode[record, int] {
	branch := &branchNode[record, int]{owner: tree}
	for i, child := range children {
		branch.nodes = append(branch.nodes, child)
		if i > 0 {
			branch.partitions = append(branch.partitions, minKeyOf(tree, child))
		}
	}
	return branch
}

func minKeyOf(tree *Tree[record, int], n treeNode[record, int]) int {
	for !n.isLeaf() {
		n = n.(*branchNode[record, int]).nodes[0]
	}
	return tree.cfg.KeyOf(n.(*leafNode[record, int]).entries[0])
}

func seq(from, to int) []int {
	out := make([]int, 0, to-from)
	for id := from; id < to; id++ {
		out = append(out, id)
	}
	return out
}

func TestUpdateAtInPlace(t *testing.T) {
	tree := newRecordTree()
	tree.Insert(rec(1))
	path := tree.Insert(rec(2))
	tree.Insert(rec(3))
	path = tree.Find(2)
	updated, wasUpdate, err := tree.UpdateAt(path, record{id: 2, data: "two"})
	if err != nil || !wasUpdate {
		t.Fatalf("UpdateAt: wasUpdate=%v err=%v", wasUpdate, err)
	}
	entry, ok, err := tree.At(updated)
	if err != nil || !ok || entry.data != "two" {
		t.Fatalf("updated entry = %v ok=%v err=%v", entry, ok, err)
	}
	if got := collect(t, tree); len(got) != 3 {
		t.Fatalf("entry count changed: %v", got)
	}
}

func TestUpdateAtOffEntry(t *testing.T) {
	tree := newRecordTree()
	tree.Insert(rec(1))
	before := tree.version
	path := tree.Find(99)
	// an off-entry path updates nothing yet reports wasUpdate; the path's
	// On() stays false to disambiguate
	returned, wasUpdate, err := tree.UpdateAt(path, rec(99))
	if err != nil || !wasUpdate || returned.On() {
		t.Fatalf("off-entry UpdateAt: wasUpdate=%v on=%v err=%v", wasUpdate, returned.On(), err)
	}
	if tree.version != before {
		t.Fatalf("off-entry UpdateAt must not bump the version")
	}
	if _, ok := tree.Get(99); ok {
		t.Fatalf("off-entry UpdateAt must not insert")
	}
}

func TestUpdateAtKeyChange(t *testing.T) {
	tree := newRecordTree()
	for _, id := range []int{10, 20, 30} {
		tree.Insert(rec(id))
	}
	path := tree.Find(20)
	updated, wasUpdate, err := tree.UpdateAt(path, record{id: 25, data: "moved"})
	if err != nil || wasUpdate {
		t.Fatalf("key-changing UpdateAt: wasUpdate=%v err=%v", wasUpdate, err)
	}
	entry, ok, err := tree.At(updated)
	if err != nil || !ok || entry.id != 25 || entry.data != "moved" {
		t.Fatalf("entry after move = %v ok=%v err=%v", entry, ok, err)
	}
	if _, ok := tree.Get(20); ok {
		t.Fatalf("old key must be gone")
	}
	if got := collect(t, tree); len(got) != 3 || got[1] != 25 {
		t.Fatalf("unexpected sequence: %v", got)
	}
}

func TestUpdateAtKeyChangeCollision(t *testing.T) {
	tree := newRecordTree()
	tree.Insert(rec(10))
	tree.Insert(rec(20))
	before := tree.version
	returned, wasUpdate, err := tree.UpdateAt(tree.Find(10), rec(20))
	if err != nil || wasUpdate || returned.On() {
		t.Fatalf("colliding UpdateAt: wasUpdate=%v on=%v err=%v", wasUpdate, returned.On(), err)
	}
	if tree.version != before {
		t.Fatalf("colliding UpdateAt must not mutate")
	}
	if _, ok := tree.Get(10); !ok {
		t.Fatalf("original entry must survive a colliding update")
	}
}

func TestUpsertConvention(t *testing.T) {
	tree := newRecordTree()
	path := tree.Upsert(rec(5))
	if path.On() {
		t.Fatalf("fresh upsert must report On() == false")
	}
	path = tree.Upsert(record{id: 5, data: "five"})
	if !path.On() {
		t.Fatalf("overwriting upsert must report On() == true")
	}
	if entry, _ := tree.Get(5); entry.data != "five" {
		t.Fatalf("upsert did not overwrite: %q", entry.data)
	}
	// idempotence: repeating the upsert leaves sequence and entry alike
	first := collect(t, tree)
	tree.Upsert(record{id: 5, data: "five"})
	second := collect(t, tree)
	if !equalInts(first, second) {
		t.Fatalf("upsert idempotence violated: %v vs %v", first, second)
	}
	if entry, _ := tree.Get(5); entry.data != "five" {
		t.Fatalf("repeated upsert changed the entry: %q", entry.data)
	}
}

func TestMerge(t *testing.T) {
	tree := newRecordTree()
	double := func(existing record) record {
		return record{id: existing.id, data: existing.data + existing.data}
	}
	path, wasUpdate, err := tree.Merge(rec(4), double)
	if err != nil || wasUpdate || !path.On() {
		t.Fatalf("merge-insert: wasUpdate=%v on=%v err=%v", wasUpdate, path.On(), err)
	}
	_, wasUpdate, err = tree.Merge(rec(4), double)
	if err != nil || !wasUpdate {
		t.Fatalf("merge-update: wasUpdate=%v err=%v", wasUpdate, err)
	}
	if entry, _ := tree.Get(4); entry.data != "44" {
		t.Fatalf("merge updater not applied: %q", entry.data)
	}
}

func TestMergeUpdaterMustNotMutate(t *testing.T) {
	tree := newRecordTree()
	tree.Insert(rec(1))
	_, _, err := tree.Merge(rec(1), func(existing record) record {
		tree.Insert(rec(2))
		return existing
	})
	if !errors.Is(err, ErrInvalidPath) {
		t.Fatalf("expected ErrInvalidPath for a mutating updater, got %v", err)
	}
}

func TestDeleteAt(t *testing.T) {
	tree := newRecordTree()
	for _, id := range []int{5, 10, 20} {
		tree.Insert(rec(id))
	}
	path := tree.Find(10)
	ok, err := tree.DeleteAt(path)
	if err != nil || !ok {
		t.Fatalf("DeleteAt: ok=%v err=%v", ok, err)
	}
	if path.On() {
		t.Fatalf("path must land in the crack after delete")
	}
	// the crack points at the deleted entry's successor
	if err := tree.MoveNext(path); err != nil {
		t.Fatalf("MoveNext after delete: %v", err)
	}
	entry, ok, err := tree.At(path)
	if err != nil || !ok || entry.id != 20 {
		t.Fatalf("successor after delete = %v ok=%v err=%v", entry, ok, err)
	}
	if got := collect(t, tree); len(got) != 2 {
		t.Fatalf("unexpected sequence: %v", got)
	}
}

func TestDeleteAtOffEntry(t *testing.T) {
	tree := newRecordTree()
	tree.Insert(rec(1))
	before := tree.version
	ok, err := tree.DeleteAt(tree.Find(9))
	if err != nil || ok {
		t.Fatalf("off-entry delete: ok=%v err=%v", ok, err)
	}
	if tree.version != before {
		t.Fatalf("off-entry delete must not bump the version")
	}
}

func TestDeleteToEmptyAndRefill(t *testing.T) {
	tree := newRecordTree()
	for _, id := range seq(0, 10) {
		tree.Insert(rec(id))
	}
	for _, id := range seq(0, 10) {
		if ok, err := tree.DeleteAt(tree.Find(id)); err != nil || !ok {
			t.Fatalf("delete %d: ok=%v err=%v", id, ok, err)
		}
	}
	if !tree.IsEmpty() || tree.Len() != 0 {
		t.Fatalf("tree must be empty after draining")
	}
	// an empty root leaf is legal; the tree must accept new entries
	if leaf, ok := tree.root.(*leafNode[record, int]); !ok || len(leaf.entries) != 0 {
		t.Fatalf("expected an empty root leaf, got %T", tree.root)
	}
	tree.Insert(rec(42))
	if entry, ok := tree.Get(42); !ok || entry.id != 42 {
		t.Fatalf("refill failed")
	}
}

func TestLeafBorrowFromRight(t *testing.T) {
	gtrace.CoreTracer = gotestingadapter.New(t)
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	gtrace.CoreTracer.SetTraceLevel(tracing.LevelDebug)
	//
	tree := newRecordTree()
	left := makeLeafOf(tree, seq(0, halfCapacity)...)
	right := makeLeafOf(tree, seq(100, 100+halfCapacity+1)...)
	tree.root = makeBranchOf(tree, left, right)
	if err := tree.Check(); err != nil {
		t.Fatalf("fixture invalid: %v", err)
	}
	if ok, err := tree.DeleteAt(tree.Find(0)); err != nil || !ok {
		t.Fatalf("delete: %v %v", ok, err)
	}
	if err := tree.Check(); err != nil {
		t.Fatalf("Check after borrow: %v", err)
	}
	// the right sibling's first entry moved over; the partition tracks its
	// new minimum
	root := tree.root.(*branchNode[record, int])
	if root.partitions[0] != 101 {
		t.Fatalf("partition = %d, want 101", root.partitions[0])
	}
	if got := collect(t, tree); len(got) != 2*halfCapacity || got[0] != 1 {
		t.Fatalf("unexpected sequence after borrow: len=%d head=%v", len(got), got[0])
	}
}

func TestLeafBorrowFromLeft(t *testing.T) {
	tree := newRecordTree()
	left := makeLeafOf(tree, seq(0, halfCapacity+1)...)
	right := makeLeafOf(tree, seq(100, 100+halfCapacity)...)
	tree.root = makeBranchOf(tree, left, right)
	if err := tree.Check(); err != nil {
		t.Fatalf("fixture invalid: %v", err)
	}
	if ok, err := tree.DeleteAt(tree.Find(100)); err != nil || !ok {
		t.Fatalf("delete: %v %v", ok, err)
	}
	if err := tree.Check(); err != nil {
		t.Fatalf("Check after left borrow: %v", err)
	}
	// the left sibling's last entry moved over and guards the partition
	root := tree.root.(*branchNode[record, int])
	if root.partitions[0] != halfCapacity {
		t.Fatalf("partition = %d, want %d", root.partitions[0], halfCapacity)
	}
	if got := tree.Len(); got != 2*halfCapacity {
		t.Fatalf("Len = %d", got)
	}
}

func TestDrainAscendingRebalances(t *testing.T) {
	gtrace.CoreTracer = gotestingadapter.New(t)
	teardown := gotestingadapter.RedirectTracing(t)
	defer teardown()
	gtrace.CoreTracer.SetTraceLevel(tracing.LevelDebug)
	//
	tree := newRecordTree()
	n := NodeCapacity * NodeCapacity
	for _, id := range seq(0, n) {
		tree.Insert(rec(id))
	}
	if err := tree.Check(); err != nil {
		t.Fatalf("Check after fill: %v", err)
	}
	for i, id := range seq(0, n) {
		if ok, err := tree.DeleteAt(tree.Find(id)); err != nil || !ok {
			t.Fatalf("delete %d: ok=%v err=%v", id, ok, err)
		}
		if i%NodeCapacity == 0 {
			if err := tree.Check(); err != nil {
				t.Fatalf("Check after deleting %d: %v", id, err)
			}
		}
	}
	if !tree.IsEmpty() {
		t.Fatalf("tree must drain to empty")
	}
}

func TestDrainDescendingRebalances(t *testing.T) {
	tree := newRecordTree()
	n := NodeCapacity * NodeCapacity
	for _, id := range seq(0, n) {
		tree.Insert(rec(id))
	}
	for i := n - 1; i >= 0; i-- {
		if ok, err := tree.DeleteAt(tree.Find(i)); err != nil || !ok {
			t.Fatalf("delete %d: ok=%v err=%v", i, ok, err)
		}
		if i%NodeCapacity == 0 {
			if err := tree.Check(); err != nil {
				t.Fatalf("Check after deleting %d: %v", i, err)
			}
		}
	}
	if !tree.IsEmpty() {
		t.Fatalf("tree must drain to empty")
	}
}

// Deleting from the leftmost leaf must keep every ancestor partition equal
// to the minimum key of the subtree it guards.
func TestLeftSpinePartitionsTrackMinima(t *testing.T) {
	tree := newRecordTree()
	for _, id := range seq(0, 4*NodeCapacity) {
		tree.Insert(rec(id))
	}
	for _, id := range seq(0, NodeCapacity+halfCapacity) {
		if ok, err := tree.DeleteAt(tree.Find(id)); err != nil || !ok {
			t.Fatalf("delete %d: ok=%v err=%v", id, ok, err)
		}
		assertPartitionsMatchMinima(t, tree)
	}
	if err := tree.Check(); err != nil {
		t.Fatalf("Check failed: %v", err)
	}
}

func assertPartitionsMatchMinima(t *testing.T, tree *Tree[record, int]) {
	t.Helper()
	var walk func(n treeNode[record, int])
	walk = func(n treeNode[record, int]) {
		branch, ok := n.(*branchNode[record, int])
		if !ok {
			return
		}
		for i, p := range branch.partitions {
			if minKey := minKeyOf(tree, branch.nodes[i+1]); minKey != p {
				t.Fatalf("partition %d = %d, subtree minimum %d", i, p, minKey)
			}
		}
		for _, child := range branch.nodes {
			walk(child)
		}
	}
	if tree.root != nil {
		walk(tree.root)
	}
}
