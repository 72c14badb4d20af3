package dialog

import (
	"fmt"
	"testing"
)

func TestDeleteLeafDropsIncomingPointers(t *testing.T) {
	d := New()
	e := entry(d, "e")
	r := reply(d, "r")
	mustStart(t, d, e)
	mustAttach(t, d, e, r, TreeEdge)

	removed, err := DeleteNode(d, r)
	if err != nil {
		t.Fatal(err)
	}
	if !names(removed)["r"] {
		t.Errorf("removed = %v, want {r}", names(removed))
	}
	if len(e.Pointers) != 0 {
		t.Error("pointer to the deleted reply was not dropped")
	}
	if len(d.Replies) != 0 {
		t.Error("deleted reply still in list")
	}
}

func TestDeleteCascadesThroughSubtree(t *testing.T) {
	// start -> e -> r -> e2 -> r2; deleting e removes the whole chain.
	d := New()
	e := entry(d, "e")
	r := reply(d, "r")
	e2 := entry(d, "e2")
	r2 := reply(d, "r2")
	mustStart(t, d, e)
	mustAttach(t, d, e, r, TreeEdge)
	mustAttach(t, d, r, e2, TreeEdge)
	mustAttach(t, d, e2, r2, TreeEdge)

	removed, err := DeleteNode(d, e)
	if err != nil {
		t.Fatal(err)
	}
	if len(removed) != 4 {
		t.Errorf("removed %d nodes, want 4: %v", len(removed), names(removed))
	}
	if d.NodeCount() != 0 || len(d.Starts) != 0 {
		t.Errorf("graph not empty: %d nodes, %d starts", d.NodeCount(), len(d.Starts))
	}
}

func TestDeletePreservesNodeWithOutsideTreeParent(t *testing.T) {
	// Two entries tree-own the same reply. Deleting one keeps the reply.
	d := New()
	a := entry(d, "a")
	b := entry(d, "b")
	s := reply(d, "s")
	mustStart(t, d, a)
	mustStart(t, d, b)
	mustAttach(t, d, a, s, TreeEdge)
	mustAttach(t, d, b, s, TreeEdge)

	removed, err := DeleteNode(d, a)
	if err != nil {
		t.Fatal(err)
	}
	got := names(removed)
	if !got["a"] || got["s"] || len(removed) != 1 {
		t.Errorf("removed = %v, want exactly {a}", got)
	}
	if len(b.Pointers) != 1 || b.Pointers[0].Target != s {
		t.Error("surviving parent lost its pointer to the shared reply")
	}
}

func TestDeleteSharedNodeMatrix(t *testing.T) {
	// Entry A tree-owns reply S; entry B back-references it.
	build := func() (*Dialog, *Node, *Node, *Node) {
		d := New()
		a := entry(d, "a")
		b := entry(d, "b")
		s := reply(d, "s")
		mustStart(t, d, a)
		mustStart(t, d, b)
		mustAttach(t, d, a, s, TreeEdge)
		mustAttach(t, d, b, s, BackReference)
		return d, a, b, s
	}

	t.Run("deleting A alone preserves S", func(t *testing.T) {
		d, a, b, s := build()
		removed, err := DeleteNode(d, a)
		if err != nil {
			t.Fatal(err)
		}
		if names(removed)["s"] {
			t.Fatal("shared reply was removed while a link to it survives")
		}
		if len(b.Pointers) != 1 || b.Pointers[0].Target != s {
			t.Error("surviving back-reference no longer targets the shared reply")
		}
		// The preserved node is rehoused: reachable from the orphan
		// container, since its only tree parent is gone.
		c := FindOrphanContainer(d)
		if c == nil {
			t.Fatal("no orphan container after rehousing")
		}
		if !reachable(c.Pointers, false)[s] {
			t.Error("shared reply not reachable from the orphan container")
		}
	})

	t.Run("deleting A and B together removes S", func(t *testing.T) {
		d, a, b, _ := build()
		removed, err := DeleteNodes(d, a, b)
		if err != nil {
			t.Fatal(err)
		}
		got := names(removed)
		if !got["a"] || !got["b"] || !got["s"] {
			t.Errorf("removed = %v, want {a,b,s}", got)
		}
		if d.NodeCount() != 0 {
			t.Errorf("%d nodes survive, want none", d.NodeCount())
		}
	})
}

func TestDeleteFixedPointRescuesChains(t *testing.T) {
	// a -> s1 -> e1 -> s2; b tree-owns s1 through its own chain. Deleting a
	// must rescue s1 (outside parent b) and, through the rescue, everything
	// below s1. A single rescue pass that never revisits would miss s2 if
	// it checked s2 before s1.
	d := New()
	a := entry(d, "a")
	b := entry(d, "b")
	s1 := reply(d, "s1")
	e1 := entry(d, "e1")
	s2 := reply(d, "s2")
	mustStart(t, d, a)
	mustStart(t, d, b)
	mustAttach(t, d, a, s1, TreeEdge)
	mustAttach(t, d, b, s1, TreeEdge)
	mustAttach(t, d, s1, e1, TreeEdge)
	mustAttach(t, d, e1, s2, TreeEdge)

	removed, err := DeleteNode(d, a)
	if err != nil {
		t.Fatal(err)
	}
	got := names(removed)
	if len(removed) != 1 || !got["a"] {
		t.Errorf("removed = %v, want exactly {a}", got)
	}
	for _, want := range []string{"s1", "e1", "s2"} {
		if got[want] {
			t.Errorf("%s was removed despite being tree-held through b", want)
		}
	}
}

func TestDeleteFixedPointDeepSharedChain(t *testing.T) {
	// A deep alternating chain hangs off a; every fifth node is also
	// tree-held by b. Deleting a must rescue exactly the held nodes and
	// everything below the deepest held node... which is the whole chain
	// below each held node, so only the unshared prefix segments between a
	// and the first held node are removed.
	const depth = 40
	d := New()
	a := entry(d, "a")
	b := entry(d, "b")
	mustStart(t, d, a)
	mustStart(t, d, b)

	chain := make([]*Node, 0, depth)
	prev := a
	for i := 0; i < depth; i++ {
		var n *Node
		if prev.Kind == KindEntry {
			n = reply(d, fmt.Sprintf("n%d", i))
		} else {
			n = entry(d, fmt.Sprintf("n%d", i))
		}
		mustAttach(t, d, prev, n, TreeEdge)
		chain = append(chain, n)
		prev = n
	}
	// b holds node 4 (a reply, so b may tree-own it directly).
	mustAttach(t, d, b, chain[4], TreeEdge)

	removed, err := DeleteNode(d, a)
	if err != nil {
		t.Fatal(err)
	}
	got := names(removed)
	if !got["a"] {
		t.Error("a itself not removed")
	}
	for i := 0; i < 4; i++ {
		if !got[chain[i].Comment] {
			t.Errorf("unshared prefix node n%d should be removed", i)
		}
	}
	for i := 4; i < depth; i++ {
		if got[chain[i].Comment] {
			t.Errorf("node n%d below the rescued node was removed", i)
		}
	}
}

func TestDeleteDeepChainNoOverflow(t *testing.T) {
	// Cascade delete over a linear chain of depth 600 must not recurse.
	const depth = 600
	d := New()
	root := entry(d, "root")
	mustStart(t, d, root)
	prev := root
	for i := 0; i < depth; i++ {
		var n *Node
		if prev.Kind == KindEntry {
			n = reply(d, fmt.Sprintf("c%d", i))
		} else {
			n = entry(d, fmt.Sprintf("c%d", i))
		}
		mustAttach(t, d, prev, n, TreeEdge)
		prev = n
	}

	removed, err := DeleteNode(d, root)
	if err != nil {
		t.Fatal(err)
	}
	if len(removed) != depth+1 {
		t.Errorf("removed %d nodes, want %d", len(removed), depth+1)
	}
	if d.NodeCount() != 0 {
		t.Errorf("%d nodes survive", d.NodeCount())
	}
}

func TestDeleteWithCycleTerminates(t *testing.T) {
	// e -> r (tree), r -> e (link): deleting e removes both.
	d := New()
	e := entry(d, "e")
	r := reply(d, "r")
	mustStart(t, d, e)
	mustAttach(t, d, e, r, TreeEdge)
	mustAttach(t, d, r, e, BackReference)

	removed, err := DeleteNode(d, e)
	if err != nil {
		t.Fatal(err)
	}
	if len(removed) != 2 {
		t.Errorf("removed = %v, want both cycle members", names(removed))
	}
}

func TestDeleteRejectsForeignNode(t *testing.T) {
	d := New()
	other := New()
	stray := entry(other, "stray")

	if _, err := DeleteNode(d, stray); err != ErrNotInDialog {
		t.Errorf("err = %v, want ErrNotInDialog", err)
	}
	if _, err := DeleteNode(d, nil); err != ErrNilNode {
		t.Errorf("err = %v, want ErrNilNode", err)
	}
}

func TestDeleteRenumbersSurvivingIndices(t *testing.T) {
	d := New()
	e := entry(d, "e")
	r0 := reply(d, "r0")
	r1 := reply(d, "r1")
	mustStart(t, d, e)
	mustAttach(t, d, e, r0, TreeEdge)
	p1 := mustAttach(t, d, e, r1, TreeEdge)

	if _, err := DeleteNode(d, r0); err != nil {
		t.Fatal(err)
	}
	// r1 shifted from index 1 to 0; the surviving pointer must follow.
	if p1.Index != 0 {
		t.Errorf("surviving pointer index = %d, want 0", p1.Index)
	}
}

func TestPostDeleteReachability(t *testing.T) {
	// After any delete, every surviving node is reachable from a start via
	// tree edges or lives under the orphan container.
	d := New()
	a := entry(d, "a")
	b := entry(d, "b")
	s := reply(d, "s")
	deep := entry(d, "deep")
	mustStart(t, d, a)
	mustStart(t, d, b)
	mustAttach(t, d, a, s, TreeEdge)
	mustAttach(t, d, b, s, BackReference)
	mustAttach(t, d, s, deep, TreeEdge)

	if _, err := DeleteNode(d, a); err != nil {
		t.Fatal(err)
	}

	keep := reachable(d.Starts, false)
	for n := range containerSet(d) {
		keep[n] = true
	}
	if c := FindOrphanContainer(d); c != nil {
		keep[c] = true
	}
	d.EachNode(func(n *Node) {
		if !keep[n] {
			t.Errorf("surviving node %q is unreachable and outside the container", n.Comment)
		}
	})
}
