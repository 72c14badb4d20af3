package dialog

import (
	"reflect"

	"github.com/google/uuid"
)

// Structural snapshots for undo/redo. A snapshot is a full flat copy of the
// dialog, never a diff: node payloads by value plus pointer targets as
// (kind, index) pairs. Restoring builds an entirely fresh object graph
// with identical node ordering, identical edge variants and identical
// targets by position.

type flatPointer struct {
	Kind            PointerKind
	TargetKind      NodeKind
	Index           uint32
	HasTarget       bool
	Condition       string
	ConditionParams Params
	Comment         string
}

type flatNode struct {
	Kind         NodeKind
	Text         LocString
	Speaker      string
	Animation    uint32
	AnimLoop     bool
	Script       string
	ActionParams Params
	Delay        uint32
	Comment      string
	Sound        string
	Quest        string
	QuestEntry   uint32
	Pointers     []flatPointer
}

// Snapshot is an immutable structural copy of a Dialog.
type Snapshot struct {
	id          uuid.UUID
	entries     []flatNode
	replies     []flatNode
	starts      []flatPointer
	delayEntry  uint32
	delayReply  uint32
	endScript   string
	abortScript string
	preventZoom bool
	numWords    uint32
}

// Capture takes a structural snapshot. Targets are encoded by current list
// position, so the snapshot is valid regardless of how stale the stored
// pointer indices are.
func Capture(d *Dialog) *Snapshot {
	pos := make(map[*Node]uint32, d.NodeCount())
	for i, n := range d.Entries {
		pos[n] = uint32(i)
	}
	for i, n := range d.Replies {
		pos[n] = uint32(i)
	}

	flatP := func(p *Pointer) flatPointer {
		fp := flatPointer{
			Kind:            p.Kind,
			Condition:       p.Condition,
			ConditionParams: p.ConditionParams.Copy(),
			Comment:         p.Comment,
		}
		if p.Target != nil {
			fp.HasTarget = true
			fp.TargetKind = p.Target.Kind
			fp.Index = pos[p.Target]
		}
		return fp
	}
	flatN := func(n *Node) flatNode {
		fn := flatNode{
			Kind:         n.Kind,
			Text:         n.Text.Copy(),
			Speaker:      n.Speaker,
			Animation:    n.Animation,
			AnimLoop:     n.AnimLoop,
			Script:       n.Script,
			ActionParams: n.ActionParams.Copy(),
			Delay:        n.Delay,
			Comment:      n.Comment,
			Sound:        n.Sound,
			Quest:        n.Quest,
			QuestEntry:   n.QuestEntry,
		}
		for _, p := range n.Pointers {
			fn.Pointers = append(fn.Pointers, flatP(p))
		}
		return fn
	}

	s := &Snapshot{
		id:          d.ID,
		delayEntry:  d.DelayEntry,
		delayReply:  d.DelayReply,
		endScript:   d.EndScript,
		abortScript: d.AbortScript,
		preventZoom: d.PreventZoom,
		numWords:    d.NumWords,
	}
	for _, n := range d.Entries {
		s.entries = append(s.entries, flatN(n))
	}
	for _, n := range d.Replies {
		s.replies = append(s.replies, flatN(n))
	}
	for _, p := range d.Starts {
		s.starts = append(s.starts, flatP(p))
	}
	return s
}

// Restore materializes a fresh Dialog from the snapshot. The dialog keeps
// the captured instance identity, so clipboard ownership checks survive an
// undo.
func (s *Snapshot) Restore() *Dialog {
	d := &Dialog{
		ID:          s.id,
		DelayEntry:  s.delayEntry,
		DelayReply:  s.delayReply,
		EndScript:   s.endScript,
		AbortScript: s.abortScript,
		PreventZoom: s.preventZoom,
		NumWords:    s.numWords,
	}

	restoreNode := func(fn *flatNode) *Node {
		return &Node{
			Kind:         fn.Kind,
			Text:         fn.Text.Copy(),
			Speaker:      fn.Speaker,
			Animation:    fn.Animation,
			AnimLoop:     fn.AnimLoop,
			Script:       fn.Script,
			ActionParams: fn.ActionParams.Copy(),
			Delay:        fn.Delay,
			Comment:      fn.Comment,
			Sound:        fn.Sound,
			Quest:        fn.Quest,
			QuestEntry:   fn.QuestEntry,
		}
	}
	for i := range s.entries {
		d.Entries = append(d.Entries, restoreNode(&s.entries[i]))
	}
	for i := range s.replies {
		d.Replies = append(d.Replies, restoreNode(&s.replies[i]))
	}

	resolve := func(fp *flatPointer) *Node {
		if !fp.HasTarget {
			return nil
		}
		return d.Node(fp.TargetKind, fp.Index)
	}
	restorePointer := func(fp *flatPointer, src *Node) *Pointer {
		target := resolve(fp)
		p := &Pointer{
			Source:          src,
			Target:          target,
			Kind:            fp.Kind,
			TargetKind:      fp.TargetKind,
			Index:           fp.Index,
			Condition:       fp.Condition,
			ConditionParams: fp.ConditionParams.Copy(),
			Comment:         fp.Comment,
		}
		return p
	}

	attach := func(nodes []*Node, flats []flatNode) {
		for i, n := range nodes {
			for j := range flats[i].Pointers {
				n.Pointers = append(n.Pointers, restorePointer(&flats[i].Pointers[j], n))
			}
		}
	}
	attach(d.Entries, s.entries)
	attach(d.Replies, s.replies)
	for i := range s.starts {
		d.Starts = append(d.Starts, restorePointer(&s.starts[i], nil))
	}
	return d
}

// Equal compares two snapshots by content: node ordering, every scalar,
// edge variants and pointer targets.
func (s *Snapshot) Equal(other *Snapshot) bool {
	if s == nil || other == nil {
		return s == other
	}
	return reflect.DeepEqual(stripID(s), stripID(other))
}

func stripID(s *Snapshot) *Snapshot {
	cp := *s
	cp.id = uuid.UUID{}
	return &cp
}
