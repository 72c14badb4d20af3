package dialog

// Cascade deletion. Deleting a node must remove exactly the nodes that
// become unreachable, and must never remove a node still held by a
// tree-defining pointer whose source survives, even though back-reference
// edges make the graph cyclic.
//
// A single forward reachability pass followed by one backward check is not
// enough: rescuing one shared node can expose outside tree parents for
// nodes deeper in the chain, which must then be rescued too. The candidate
// set therefore shrinks to a fixed point before anything is removed.

// DeleteNode removes n from the dialog together with every node that loses
// its last outside tree-defining parent. See DeleteNodes.
func DeleteNode(d *Dialog, n *Node) ([]*Node, error) {
	return DeleteNodes(d, n)
}

// DeleteNodes cascade-deletes the seed nodes as one atomic operation.
//
// The candidate set is seeded with the seeds and everything tree-reachable
// from them, then shrunk to a fixed point: any candidate other than a seed
// that retains a tree-defining pointer from a surviving source (a start
// pointer or a node outside the set) is rescued, which can in turn expose
// surviving parents for deeper candidates. Candidates that surviving nodes
// still reach through back-reference links are not destroyed either; they
// are rehoused under the orphan container so the links stay valid. Every
// pointer that targeted a removed node is dropped and all stored indices
// are renumbered.
//
// The function is pure over (dialog, seeds): it builds its own reverse
// index and leaves no auxiliary state behind. It returns the removed
// nodes, entries first, in list order. Validation happens before any
// mutation; on error the dialog is unchanged. Callers holding a
// LinkRegistry must Rebuild it afterwards.
func DeleteNodes(d *Dialog, seeds ...*Node) ([]*Node, error) {
	seedSet := make(map[*Node]bool, len(seeds))
	for _, n := range seeds {
		if n == nil {
			return nil, ErrNilNode
		}
		if !d.Contains(n) {
			return nil, ErrNotInDialog
		}
		seedSet[n] = true
	}
	if len(seedSet) == 0 {
		return nil, nil
	}

	incoming := make(map[*Node][]*Pointer, d.NodeCount())
	d.EachPointer(func(p *Pointer) {
		if p.Target != nil {
			incoming[p.Target] = append(incoming[p.Target], p)
		}
	})

	// Seed expansion over tree-defining edges. Explicit worklist; chains of
	// hundreds of nodes must not recurse.
	candidates := make(map[*Node]bool, len(seedSet))
	stack := make([]*Node, 0, len(seedSet))
	for n := range seedSet {
		candidates[n] = true
		stack = append(stack, n)
	}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, p := range cur.Pointers {
			if p.Kind != TreeEdge || p.Target == nil || candidates[p.Target] {
				continue
			}
			candidates[p.Target] = true
			stack = append(stack, p.Target)
		}
	}

	// Fixed point: rescue candidates with a surviving outside tree parent.
	treeFixedPoint := func() {
		for {
			rescuedAny := false
			for c := range candidates {
				if seedSet[c] {
					continue
				}
				for _, p := range incoming[c] {
					if p.Kind != TreeEdge {
						continue
					}
					if p.Source == nil || !candidates[p.Source] {
						delete(candidates, c)
						rescuedAny = true
						break
					}
				}
			}
			if !rescuedAny {
				return
			}
		}
	}

	// Shared content that survivors still link to is parked, not destroyed.
	// Preserving a link-held node exposes its subtree to the tree rescue
	// again, so the two rescues alternate until neither changes the set.
	var rehoused []*Node
	for {
		treeFixedPoint()
		changed := false
		for _, n := range IdentifyOrphanedLinkChildren(d, candidates) {
			if seedSet[n] {
				continue
			}
			delete(candidates, n)
			rehoused = append(rehoused, n)
			changed = true
		}
		if !changed {
			break
		}
	}
	RehouseOrphans(d, rehoused)

	removed := removeNodes(d, candidates)
	Renumber(d)
	return removed, nil
}

// removeNodes drops every node in doomed from the dialog's lists and every
// pointer (surviving-node-owned or start) that targets one of them. The
// removed nodes are returned entries first, in list order.
func removeNodes(d *Dialog, doomed map[*Node]bool) []*Node {
	removed := make([]*Node, 0, len(doomed))

	filterList := func(list []*Node) []*Node {
		kept := list[:0]
		for _, node := range list {
			if doomed[node] {
				removed = append(removed, node)
			} else {
				kept = append(kept, node)
			}
		}
		return kept
	}
	d.Entries = filterList(d.Entries)
	d.Replies = filterList(d.Replies)

	keptStarts := d.Starts[:0]
	for _, p := range d.Starts {
		if p.Target == nil || !doomed[p.Target] {
			keptStarts = append(keptStarts, p)
		}
	}
	d.Starts = keptStarts

	d.EachNode(func(node *Node) {
		kept := node.Pointers[:0]
		for _, p := range node.Pointers {
			if p.Target == nil || !doomed[p.Target] {
				kept = append(kept, p)
			}
		}
		node.Pointers = kept
	})

	return removed
}
