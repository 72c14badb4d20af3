package dialog

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// NodeKind distinguishes NPC lines from player lines.
type NodeKind int

const (
	KindEntry NodeKind = iota // NPC-spoken line
	KindReply                 // player-spoken line
)

func (k NodeKind) String() string {
	switch k {
	case KindEntry:
		return "entry"
	case KindReply:
		return "reply"
	default:
		return fmt.Sprintf("NodeKind(%d)", int(k))
	}
}

// PointerKind is the edge variant. Tree edges define the conversation tree
// and reachability; back-references mark shared copies and cycles and never
// keep a node alive on their own.
type PointerKind int

const (
	TreeEdge      PointerKind = iota // tree-defining edge
	BackReference                    // link to a node owned elsewhere
)

func (k PointerKind) String() string {
	switch k {
	case TreeEdge:
		return "tree"
	case BackReference:
		return "link"
	default:
		return fmt.Sprintf("PointerKind(%d)", int(k))
	}
}

// NoStrRef marks a LocString without an external string-table fallback.
const NoStrRef uint32 = 0xFFFFFFFF

// LocString is localized text: per-language strings plus an optional
// external string-table reference used when no inline text matches.
type LocString struct {
	StrRef  uint32
	Strings map[uint32]string
}

// NewLocString returns an empty LocString with no fallback reference.
func NewLocString() LocString {
	return LocString{StrRef: NoStrRef}
}

// Set stores text for a language id.
func (l *LocString) Set(lang uint32, text string) {
	if l.Strings == nil {
		l.Strings = make(map[uint32]string)
	}
	l.Strings[lang] = text
}

// Get returns the text for a language id, or "" when absent.
func (l LocString) Get(lang uint32) string {
	return l.Strings[lang]
}

// First returns any inline text, preferring language 0. Used for display
// and word counting when the caller has no language preference.
func (l LocString) First() string {
	if s, ok := l.Strings[0]; ok {
		return s
	}
	for _, s := range l.Strings {
		return s
	}
	return ""
}

// Copy returns a value copy whose string map is never aliased.
func (l LocString) Copy() LocString {
	out := LocString{StrRef: l.StrRef}
	if l.Strings != nil {
		out.Strings = make(map[uint32]string, len(l.Strings))
		for k, v := range l.Strings {
			out.Strings[k] = v
		}
	}
	return out
}

// Params is an order-insensitive script parameter dictionary with unique
// keys. Duplicate keys in a decoded file resolve last-write-wins.
type Params map[string]string

// Copy returns a never-aliased copy.
func (p Params) Copy() Params {
	if p == nil {
		return nil
	}
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Node is one conversation line, either an Entry or a Reply, with its
// outgoing pointers.
type Node struct {
	Kind NodeKind

	Text    LocString
	Speaker string // entries only: overriding speaker tag

	Animation uint32
	AnimLoop  bool

	Script       string // action script fired when the line plays
	ActionParams Params

	Delay      uint32
	Comment    string
	Sound      string // sound resource reference
	Quest      string
	QuestEntry uint32

	Pointers []*Pointer // outgoing edges, ordered
}

// Pointer is a directed edge to a target node, owned either by a source
// node or by the dialog's start list (Source == nil).
type Pointer struct {
	Source *Node // nil for start pointers
	Target *Node

	Kind PointerKind

	// TargetKind and Index mirror the target's identity in the flat file
	// form. They are recomputed from list positions at save time; the link
	// registry keeps them current between bulk rebuilds.
	TargetKind NodeKind
	Index      uint32

	Condition       string // appearance condition script; "" = always shown
	ConditionParams Params
	Comment         string
}

// IsLink reports whether the pointer is a back-reference rather than a
// tree-defining edge.
func (p *Pointer) IsLink() bool { return p.Kind == BackReference }

// Dialog is the root aggregate: ordered node lists, start pointers and
// global conversation properties. A node or pointer belongs to exactly one
// Dialog for its whole life.
type Dialog struct {
	ID uuid.UUID // instance identity; not persisted

	Entries []*Node
	Replies []*Node
	Starts  []*Pointer

	DelayEntry  uint32
	DelayReply  uint32
	EndScript   string // script run on normal conversation end
	AbortScript string // script run on aborted conversation
	PreventZoom bool
	NumWords    uint32
}

// New creates an empty Dialog with a fresh instance identity.
func New() *Dialog {
	return &Dialog{
		ID:         uuid.New(),
		DelayEntry: 0xFFFFFFFF,
		DelayReply: 0xFFFFFFFF,
	}
}

// list returns the owning list for a node kind.
func (d *Dialog) list(kind NodeKind) []*Node {
	if kind == KindEntry {
		return d.Entries
	}
	return d.Replies
}

// NodeIndex returns the node's position in its owning list.
func (d *Dialog) NodeIndex(n *Node) (int, bool) {
	for i, cand := range d.list(n.Kind) {
		if cand == n {
			return i, true
		}
	}
	return 0, false
}

// Contains reports whether the node belongs to this dialog.
func (d *Dialog) Contains(n *Node) bool {
	_, ok := d.NodeIndex(n)
	return ok
}

// Node returns the node of the given kind at index, or nil.
func (d *Dialog) Node(kind NodeKind, index uint32) *Node {
	l := d.list(kind)
	if uint64(index) >= uint64(len(l)) {
		return nil
	}
	return l[index]
}

// NodeCount returns the total number of nodes.
func (d *Dialog) NodeCount() int {
	return len(d.Entries) + len(d.Replies)
}

// EachNode calls fn for every node, entries first, in list order.
func (d *Dialog) EachNode(fn func(*Node)) {
	for _, n := range d.Entries {
		fn(n)
	}
	for _, n := range d.Replies {
		fn(n)
	}
}

// EachPointer calls fn for every pointer: starts first, then each node's
// outgoing list in node order.
func (d *Dialog) EachPointer(fn func(*Pointer)) {
	for _, p := range d.Starts {
		fn(p)
	}
	d.EachNode(func(n *Node) {
		for _, p := range n.Pointers {
			fn(p)
		}
	})
}

// ComputeWordCount counts the words of every node's inline text. The save
// path refreshes NumWords from this.
func (d *Dialog) ComputeWordCount() uint32 {
	var total uint32
	d.EachNode(func(n *Node) {
		for _, s := range n.Text.Strings {
			total += uint32(len(strings.Fields(s)))
		}
	})
	return total
}
