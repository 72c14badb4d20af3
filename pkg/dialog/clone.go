package dialog

// MaxCloneDepth bounds how deep a subtree clone descends. Structure below
// the limit is truncated rather than recursed into; shared and cyclic
// targets are cloned once and reused, so the bound only matters for
// genuinely deep chains.
const MaxCloneDepth = 100

// cloneNode copies every scalar field and copies the dictionaries by value.
// Pointers are wired separately.
func cloneNode(src *Node) *Node {
	return &Node{
		Kind:         src.Kind,
		Text:         src.Text.Copy(),
		Speaker:      src.Speaker,
		Animation:    src.Animation,
		AnimLoop:     src.AnimLoop,
		Script:       src.Script,
		ActionParams: src.ActionParams.Copy(),
		Delay:        src.Delay,
		Comment:      src.Comment,
		Sound:        src.Sound,
		Quest:        src.Quest,
		QuestEntry:   src.QuestEntry,
	}
}

// CloneSubtree deep-copies the subtree rooted at root, following every
// outgoing pointer (links included) breadth-first up to maxDepth levels
// (non-positive means MaxCloneDepth). A node reached twice, through a
// shared target or a cycle, is cloned exactly once and reused, so cloning
// always terminates. The clone is detached: it belongs to no dialog until
// the caller inserts it.
//
// It returns the cloned root plus every clone in discovery order.
func CloneSubtree(root *Node, maxDepth int) (*Node, []*Node) {
	if root == nil {
		return nil, nil
	}
	if maxDepth <= 0 {
		maxDepth = MaxCloneDepth
	}

	clones := map[*Node]*Node{root: cloneNode(root)}
	order := []*Node{root}

	type item struct {
		src   *Node
		depth int
	}
	queue := []item{{root, 0}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.depth >= maxDepth {
			continue // truncate; pointers into this level are dropped below
		}
		for _, p := range cur.src.Pointers {
			if p.Target == nil {
				continue
			}
			if _, ok := clones[p.Target]; ok {
				continue
			}
			clones[p.Target] = cloneNode(p.Target)
			order = append(order, p.Target)
			queue = append(queue, item{p.Target, cur.depth + 1})
		}
	}

	// Wire pointers between clones. A pointer whose target fell past the
	// depth bound has no clone and is dropped with the truncated structure.
	for src, dst := range clones {
		for _, p := range src.Pointers {
			target, ok := clones[p.Target]
			if !ok {
				continue
			}
			dst.Pointers = append(dst.Pointers, &Pointer{
				Source:          dst,
				Target:          target,
				Kind:            p.Kind,
				TargetKind:      p.TargetKind,
				Index:           p.Index,
				Condition:       p.Condition,
				ConditionParams: p.ConditionParams.Copy(),
				Comment:         p.Comment,
			})
		}
	}

	all := make([]*Node, 0, len(order))
	for _, src := range order {
		all = append(all, clones[src])
	}
	return clones[root], all
}
