package dialog

// LinkRegistry is the reverse index of incoming pointers per node. It is
// consulted by the delete and clipboard engines and by save-time index
// repair. The index is exact whenever mutations go through Register and
// Unregister; any bulk structural change that bypasses them must be
// followed by Rebuild before the registry is trusted again.
type LinkRegistry struct {
	incoming map[*Node][]*Pointer
}

// NewLinkRegistry returns an empty registry.
func NewLinkRegistry() *LinkRegistry {
	return &LinkRegistry{incoming: make(map[*Node][]*Pointer)}
}

// Register records p as an incoming pointer of its target.
func (r *LinkRegistry) Register(p *Pointer) {
	if p == nil || p.Target == nil {
		return
	}
	r.incoming[p.Target] = append(r.incoming[p.Target], p)
}

// Unregister removes p from its target's incoming set.
func (r *LinkRegistry) Unregister(p *Pointer) {
	if p == nil || p.Target == nil {
		return
	}
	in := r.incoming[p.Target]
	for i, cand := range in {
		if cand == p {
			r.incoming[p.Target] = append(in[:i], in[i+1:]...)
			if len(r.incoming[p.Target]) == 0 {
				delete(r.incoming, p.Target)
			}
			return
		}
	}
}

// Rebuild discards the index and reconstructs it from the dialog in
// O(nodes + pointers): every start pointer plus every node's outgoing list.
func (r *LinkRegistry) Rebuild(d *Dialog) {
	r.incoming = make(map[*Node][]*Pointer, d.NodeCount())
	d.EachPointer(func(p *Pointer) {
		r.Register(p)
	})
}

// LinksTo returns every pointer currently targeting n: start pointers and
// node-owned pointers, back-references included. The returned slice is the
// registry's own; callers must not mutate it.
func (r *LinkRegistry) LinksTo(n *Node) []*Pointer {
	return r.incoming[n]
}

// UpdateNodeIndex rewrites the stored list index (and target kind) on every
// pointer targeting n, after n moved to newIndex in its owning list.
func (r *LinkRegistry) UpdateNodeIndex(n *Node, newIndex uint32, kind NodeKind) {
	for _, p := range r.incoming[n] {
		p.Index = newIndex
		p.TargetKind = kind
	}
}

// Renumber recomputes the stored index of every pointer in the dialog from
// current list positions. Used after deletions reshuffle the lists and
// before every save.
func Renumber(d *Dialog) {
	pos := make(map[*Node]uint32, d.NodeCount())
	for i, n := range d.Entries {
		pos[n] = uint32(i)
	}
	for i, n := range d.Replies {
		pos[n] = uint32(i)
	}
	d.EachPointer(func(p *Pointer) {
		if p.Target != nil {
			p.Index = pos[p.Target]
			p.TargetKind = p.Target.Kind
		}
	})
}
