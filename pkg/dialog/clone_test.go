package dialog

import (
	"fmt"
	"testing"
)

func TestCloneSubtreeCopiesContent(t *testing.T) {
	d := New()
	e := entry(d, "e")
	e.Speaker = "vima"
	e.Script = "k_act_give"
	e.ActionParams["gold"] = "100"
	e.Text.Set(2, "bonjour")
	r := reply(d, "r")
	mustStart(t, d, e)
	p := mustAttach(t, d, e, r, TreeEdge)
	p.Condition = "c_has_item"
	p.ConditionParams["item"] = "g_w_sword001"

	root, all := CloneSubtree(e, MaxCloneDepth)
	if len(all) != 2 {
		t.Fatalf("cloned %d nodes, want 2", len(all))
	}
	if root == e {
		t.Fatal("clone aliases the source")
	}
	if root.Speaker != "vima" || root.Script != "k_act_give" {
		t.Error("scalar fields not copied")
	}
	if root.Text.Get(2) != "bonjour" {
		t.Error("localized text not copied")
	}
	if len(root.Pointers) != 1 {
		t.Fatalf("root has %d pointers, want 1", len(root.Pointers))
	}
	cp := root.Pointers[0]
	if cp.Target == r {
		t.Error("cloned pointer targets the source graph")
	}
	if cp.Condition != "c_has_item" || cp.ConditionParams["item"] != "g_w_sword001" {
		t.Error("pointer condition not copied")
	}
}

func TestCloneNeverAliasesDictionaries(t *testing.T) {
	d := New()
	e := entry(d, "e")
	e.ActionParams["k"] = "v"
	e.Text.Set(0, "hi")
	mustStart(t, d, e)

	root, _ := CloneSubtree(e, MaxCloneDepth)
	root.ActionParams["k"] = "changed"
	root.Text.Set(0, "changed")
	if e.ActionParams["k"] != "v" || e.Text.Get(0) != "hi" {
		t.Error("clone shares maps with the source")
	}
}

func TestCloneCycleYieldsOneCopyEach(t *testing.T) {
	d := New()
	a := entry(d, "a")
	b := reply(d, "b")
	mustStart(t, d, a)
	mustAttach(t, d, a, b, TreeEdge)
	mustAttach(t, d, b, a, BackReference)

	root, all := CloneSubtree(a, MaxCloneDepth)
	if len(all) != 2 {
		t.Fatalf("cloned %d nodes, want 2", len(all))
	}
	cb := root.Pointers[0].Target
	if cb == b {
		t.Fatal("clone aliases the source")
	}
	if len(cb.Pointers) != 1 || cb.Pointers[0].Target != root {
		t.Error("cycle not rebuilt between the two clones")
	}
}

func TestCloneDepthCapTruncates(t *testing.T) {
	d := New()
	nodes := chain(d, 10)
	mustStart(t, d, nodes[0])

	root, all := CloneSubtree(nodes[0], 3)
	if len(all) != 4 {
		t.Fatalf("cloned %d nodes, want 4 (root plus 3 levels)", len(all))
	}
	// The deepest clone must not carry an edge into the source graph.
	tip := root
	for len(tip.Pointers) > 0 {
		tip = tip.Pointers[0].Target
	}
	for _, n := range nodes {
		if tip == n {
			t.Fatal("truncated clone reaches into the source graph")
		}
	}
}

func TestCloneDeepChain(t *testing.T) {
	d := New()
	nodes := chain(d, 600)
	mustStart(t, d, nodes[0])

	_, all := CloneSubtree(nodes[0], 601)
	if len(all) != 600 {
		t.Errorf("cloned %d nodes, want 600", len(all))
	}
}

// chain builds e0 -> r1 -> e2 -> ... of the given length and returns the
// nodes in order.
func chain(d *Dialog, n int) []*Node {
	nodes := make([]*Node, n)
	for i := range nodes {
		if i%2 == 0 {
			nodes[i] = entry(d, fmt.Sprintf("n%d", i))
		} else {
			nodes[i] = reply(d, fmt.Sprintf("n%d", i))
		}
		if i > 0 {
			d.Attach(nodes[i-1], nodes[i], TreeEdge)
		}
	}
	return nodes
}
