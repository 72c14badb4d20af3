package dialog

// Orphan management. An orphan is a node no start pointer can reach over
// tree-defining edges. Rather than discarding orphaned content outright,
// the editor can park it under a reserved container subtree that is inert
// at runtime but survives a save/load round trip.

// OrphanContainerComment is the reserved comment token marking the orphan
// container's root entry.
const OrphanContainerComment = "[orphan-container]"

// OrphanGuardScript is the appearance condition placed on the container's
// start pointer. The script engine guarantees it evaluates false, so the
// container can never appear in a running conversation.
const OrphanGuardScript = "c_false"

// reachable walks tree-defining edges from the given pointers with an
// explicit worklist. When followLinks is set, back-reference edges are
// followed as well.
func reachable(starts []*Pointer, followLinks bool) map[*Node]bool {
	seen := make(map[*Node]bool)
	var stack []*Node
	push := func(p *Pointer) {
		if p.Target == nil || seen[p.Target] {
			return
		}
		if p.Kind != TreeEdge && !followLinks {
			return
		}
		seen[p.Target] = true
		stack = append(stack, p.Target)
	}
	for _, p := range starts {
		push(p)
	}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, p := range cur.Pointers {
			push(p)
		}
	}
	return seen
}

// FindOrphanContainer returns the container's root entry, or nil.
func FindOrphanContainer(d *Dialog) *Node {
	for _, n := range d.Entries {
		if n.Comment == OrphanContainerComment {
			return n
		}
	}
	return nil
}

// EnsureOrphanContainer returns the container's root entry, creating the
// sentinel entry and its guarded start pointer on first use.
func EnsureOrphanContainer(d *Dialog) *Node {
	if c := FindOrphanContainer(d); c != nil {
		return c
	}
	c := NewEntry()
	c.Comment = OrphanContainerComment
	d.AddNode(c)
	p, _ := d.AttachStart(c)
	p.Condition = OrphanGuardScript
	return c
}

// containerSet returns the container root and everything reachable from it,
// links included, so rehoused subtrees are fully covered. Empty when no
// container exists.
func containerSet(d *Dialog) map[*Node]bool {
	c := FindOrphanContainer(d)
	if c == nil {
		return nil
	}
	set := reachable(c.Pointers, true)
	set[c] = true
	return set
}

// RemoveOrphanedNodes removes every node unreachable from the start list
// over tree-defining edges, except nodes living under the orphan container.
// It returns the removed nodes. Running it twice in a row removes nothing
// the second time.
func RemoveOrphanedNodes(d *Dialog) []*Node {
	keep := reachable(d.Starts, false)
	for n := range containerSet(d) {
		keep[n] = true
	}

	doomed := make(map[*Node]bool)
	d.EachNode(func(n *Node) {
		if !keep[n] {
			doomed[n] = true
		}
	})
	if len(doomed) == 0 {
		return nil
	}
	removed := removeNodes(d, doomed)
	Renumber(d)
	return removed
}

// RemoveOrphanedPointers drops every pointer whose target no longer exists
// in the dialog's lists, returning how many were dropped.
func RemoveOrphanedPointers(d *Dialog) int {
	owned := make(map[*Node]bool, d.NodeCount())
	d.EachNode(func(n *Node) { owned[n] = true })

	dropped := 0
	keptStarts := d.Starts[:0]
	for _, p := range d.Starts {
		if p.Target != nil && owned[p.Target] {
			keptStarts = append(keptStarts, p)
		} else {
			dropped++
		}
	}
	d.Starts = keptStarts

	d.EachNode(func(n *Node) {
		kept := n.Pointers[:0]
		for _, p := range n.Pointers {
			if p.Target != nil && owned[p.Target] {
				kept = append(kept, p)
			} else {
				dropped++
			}
		}
		n.Pointers = kept
	})
	if dropped > 0 {
		Renumber(d)
	}
	return dropped
}

// IdentifyOrphanedLinkChildren finds, ahead of a physical deletion, the
// pending nodes that surviving nodes still reach through back-reference
// edges while no tree-defining parent outside the pending set remains.
// Deleting them would dangle the survivors' links and silently lose shared
// content; the caller rehouses them under the orphan container instead.
func IdentifyOrphanedLinkChildren(d *Dialog, pending map[*Node]bool) []*Node {
	linked := make(map[*Node]bool)
	treeHeld := make(map[*Node]bool)
	d.EachPointer(func(ptr *Pointer) {
		if ptr.Target == nil || !pending[ptr.Target] {
			return
		}
		if ptr.Source != nil && pending[ptr.Source] {
			return // the source goes away with the target
		}
		if ptr.Kind == BackReference {
			linked[ptr.Target] = true
		} else {
			treeHeld[ptr.Target] = true
		}
	})

	var out []*Node
	d.EachNode(func(n *Node) {
		if linked[n] && !treeHeld[n] {
			out = append(out, n)
		}
	})
	return out
}

// RehouseOrphans parks the given nodes under the orphan container with
// tree-defining pointers so later orphan scans leave them alone. The
// container accepts both node kinds; the alternation check is deliberately
// bypassed here, which is safe because the guard condition keeps the whole
// subtree out of any running conversation.
func RehouseOrphans(d *Dialog, nodes []*Node) {
	if len(nodes) == 0 {
		return
	}
	c := EnsureOrphanContainer(d)
	for _, n := range nodes {
		if n == nil || n == c || !d.Contains(n) {
			continue
		}
		d.attachUnchecked(c, n, TreeEdge)
	}
}
