package dialog

import "errors"

var (
	// ErrAlternation is returned when an edge would break the entry/reply
	// alternation: entries speak to replies, replies to entries, starts to
	// entries.
	ErrAlternation = errors.New("dialog: pointer would break entry/reply alternation")
	// ErrNotInDialog is returned when an operation names a node the dialog
	// does not own.
	ErrNotInDialog = errors.New("dialog: node does not belong to this dialog")
	// ErrNilNode is returned for nil node arguments.
	ErrNilNode = errors.New("dialog: nil node")
)

// NewEntry creates an NPC line. The node is not part of any dialog until
// appended with AddNode.
func NewEntry() *Node {
	return &Node{Kind: KindEntry, Text: NewLocString(), ActionParams: Params{}}
}

// NewReply creates a player line.
func NewReply() *Node {
	return &Node{Kind: KindReply, Text: NewLocString(), ActionParams: Params{}}
}

// AddNode appends a node to its owning list and returns it. Nodes leave the
// lists only through cascade deletion or orphan removal; ad hoc removal
// would desynchronize the link registry and every stored index.
func (d *Dialog) AddNode(n *Node) *Node {
	if n.Kind == KindEntry {
		d.Entries = append(d.Entries, n)
	} else {
		d.Replies = append(d.Replies, n)
	}
	return n
}

// Attach creates a tree or link pointer from src to target. The alternation
// invariant is validated before anything is mutated; on error the graph is
// unchanged.
func (d *Dialog) Attach(src, target *Node, kind PointerKind) (*Pointer, error) {
	if src == nil || target == nil {
		return nil, ErrNilNode
	}
	if src.Kind == target.Kind {
		return nil, ErrAlternation
	}
	idx, ok := d.NodeIndex(target)
	if !ok {
		return nil, ErrNotInDialog
	}
	if !d.Contains(src) {
		return nil, ErrNotInDialog
	}
	p := &Pointer{
		Source:          src,
		Target:          target,
		Kind:            kind,
		TargetKind:      target.Kind,
		Index:           uint32(idx),
		ConditionParams: Params{},
	}
	src.Pointers = append(src.Pointers, p)
	return p, nil
}

// AttachStart creates a start pointer to an entry node.
func (d *Dialog) AttachStart(target *Node) (*Pointer, error) {
	if target == nil {
		return nil, ErrNilNode
	}
	if target.Kind != KindEntry {
		return nil, ErrAlternation
	}
	idx, ok := d.NodeIndex(target)
	if !ok {
		return nil, ErrNotInDialog
	}
	p := &Pointer{
		Target:          target,
		Kind:            TreeEdge,
		TargetKind:      KindEntry,
		Index:           uint32(idx),
		ConditionParams: Params{},
	}
	d.Starts = append(d.Starts, p)
	return p, nil
}

// attachUnchecked wires a pointer without the alternation check. Reserved
// for orphan rehousing, where the container must accept either node kind.
func (d *Dialog) attachUnchecked(src, target *Node, kind PointerKind) *Pointer {
	idx, _ := d.NodeIndex(target)
	p := &Pointer{
		Source:          src,
		Target:          target,
		Kind:            kind,
		TargetKind:      target.Kind,
		Index:           uint32(idx),
		ConditionParams: Params{},
	}
	src.Pointers = append(src.Pointers, p)
	return p
}

// Detach removes a pointer from its owner (source node or start list).
// It returns false when the pointer was not found.
func (d *Dialog) Detach(p *Pointer) bool {
	if p == nil {
		return false
	}
	if p.Source == nil {
		for i, cand := range d.Starts {
			if cand == p {
				d.Starts = append(d.Starts[:i], d.Starts[i+1:]...)
				return true
			}
		}
		return false
	}
	for i, cand := range p.Source.Pointers {
		if cand == p {
			p.Source.Pointers = append(p.Source.Pointers[:i], p.Source.Pointers[i+1:]...)
			return true
		}
	}
	return false
}
