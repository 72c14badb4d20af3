package dlg

import (
	"errors"
	"fmt"
	"sort"

	"github.com/chazu/colloquy/pkg/dialog"
	"github.com/chazu/colloquy/pkg/gff"
)

var (
	// ErrFileType is returned when a container does not carry the
	// conversation tag.
	ErrFileType = errors.New("dlg: not a conversation container")
	// ErrBadIndex is returned when a stored edge index points outside the
	// node list it refers to.
	ErrBadIndex = errors.New("dlg: pointer index out of range")
)

// FromContainer builds a dialog graph from a decoded container root.
// Numeric edge indices are resolved to node references exactly once, here;
// nothing downstream ever chases an index. Unknown fields are tolerated and
// dropped. Duplicate script parameter keys resolve last-write-wins.
func FromContainer(root *gff.Struct) (*dialog.Dialog, error) {
	if root == nil {
		return nil, ErrFileType
	}
	d := dialog.New()
	d.DelayEntry = root.Dword(labelDelayEntry)
	d.DelayReply = root.Dword(labelDelayReply)
	d.NumWords = root.Dword(labelNumWords)
	d.EndScript = root.ResRef(labelEndScript)
	d.AbortScript = root.ResRef(labelAbortScript)
	d.PreventZoom = root.Byte(labelPreventZoom) != 0

	entries := root.List(labelEntryList)
	replies := root.List(labelReplyList)

	// Nodes first, edges second: a pointer may target any list position,
	// including ones not materialized yet.
	for _, s := range entries {
		d.AddNode(nodeFromStruct(s, dialog.KindEntry))
	}
	for _, s := range replies {
		d.AddNode(nodeFromStruct(s, dialog.KindReply))
	}

	for i, s := range entries {
		if err := pointersFromList(d, d.Entries[i], s.List(labelRepliesList), dialog.KindReply); err != nil {
			return nil, err
		}
	}
	for i, s := range replies {
		if err := pointersFromList(d, d.Replies[i], s.List(labelEntriesList), dialog.KindEntry); err != nil {
			return nil, err
		}
	}
	if err := pointersFromList(d, nil, root.List(labelStartingList), dialog.KindEntry); err != nil {
		return nil, err
	}

	dialog.Renumber(d)
	return d, nil
}

func nodeFromStruct(s *gff.Struct, kind dialog.NodeKind) *dialog.Node {
	var n *dialog.Node
	if kind == dialog.KindEntry {
		n = dialog.NewEntry()
		n.Speaker = s.String(labelSpeaker)
	} else {
		n = dialog.NewReply()
	}
	n.Text = locFromGFF(s.LocString(labelText))
	n.Animation = s.Dword(labelAnimation)
	n.AnimLoop = s.Byte(labelAnimLoop) != 0
	n.Script = s.ResRef(labelScript)
	n.ActionParams = paramsFromList(s.List(labelActionParams))
	n.Delay = s.Dword(labelDelay)
	n.Comment = s.String(labelComment)
	n.Sound = s.ResRef(labelSound)
	n.Quest = s.String(labelQuest)
	n.QuestEntry = s.Dword(labelQuestEntry)
	return n
}

// pointersFromList resolves one edge list. src == nil means the starting
// list, whose pointers live on the dialog itself.
func pointersFromList(d *dialog.Dialog, src *dialog.Node, list gff.List, targetKind dialog.NodeKind) error {
	for _, s := range list {
		idx := s.Dword(labelIndex)
		target := d.Node(targetKind, idx)
		if target == nil {
			return fmt.Errorf("%w: %s %d", ErrBadIndex, targetKind, idx)
		}
		kind := dialog.TreeEdge
		if s.Byte(labelIsChild) != 0 {
			kind = dialog.BackReference
		}
		p := &dialog.Pointer{
			Source:          src,
			Target:          target,
			Kind:            kind,
			TargetKind:      targetKind,
			Index:           idx,
			Condition:       s.ResRef(labelActive),
			ConditionParams: paramsFromList(s.List(labelConditionParams)),
			Comment:         s.String(labelLinkComment),
		}
		if src == nil {
			d.Starts = append(d.Starts, p)
		} else {
			src.Pointers = append(src.Pointers, p)
		}
	}
	return nil
}

func paramsFromList(list gff.List) dialog.Params {
	out := dialog.Params{}
	for _, s := range list {
		out[s.String(labelParamKey)] = s.String(labelParamValue)
	}
	return out
}

func locFromGFF(ls gff.LocString) dialog.LocString {
	out := dialog.LocString{StrRef: ls.StrRef}
	for _, sub := range ls.Subs {
		out.Set(sub.ID, sub.Text)
	}
	return out
}

// ToContainer flattens a dialog graph back to container form. Every stored
// edge index is recomputed from the node's current list position and the
// word count is refreshed, so stale in-memory numbering can never reach the
// file.
func ToContainer(d *dialog.Dialog) *gff.File {
	dialog.Renumber(d)
	d.NumWords = d.ComputeWordCount()

	root := &gff.Struct{Type: RootStructType}
	root.Set(labelDelayEntry, gff.TypeDword, gff.Dword(d.DelayEntry))
	root.Set(labelDelayReply, gff.TypeDword, gff.Dword(d.DelayReply))
	root.Set(labelNumWords, gff.TypeDword, gff.Dword(d.NumWords))
	root.Set(labelEndScript, gff.TypeResRef, gff.ResRef(d.EndScript))
	root.Set(labelAbortScript, gff.TypeResRef, gff.ResRef(d.AbortScript))
	root.Set(labelPreventZoom, gff.TypeByte, boolByte(d.PreventZoom))

	root.Set(labelEntryList, gff.TypeList, nodeList(d.Entries))
	root.Set(labelReplyList, gff.TypeList, nodeList(d.Replies))
	root.Set(labelStartingList, gff.TypeList, pointerList(d.Starts))

	return &gff.File{FileType: FileType, Root: root}
}

func nodeList(nodes []*dialog.Node) gff.List {
	out := make(gff.List, 0, len(nodes))
	for i, n := range nodes {
		s := &gff.Struct{Type: uint32(i)}
		if n.Kind == dialog.KindEntry {
			s.Set(labelSpeaker, gff.TypeString, gff.String(n.Speaker))
		}
		s.Set(labelText, gff.TypeLocString, locToGFF(n.Text))
		s.Set(labelAnimation, gff.TypeDword, gff.Dword(n.Animation))
		s.Set(labelAnimLoop, gff.TypeByte, boolByte(n.AnimLoop))
		s.Set(labelScript, gff.TypeResRef, gff.ResRef(n.Script))
		s.Set(labelActionParams, gff.TypeList, paramList(n.ActionParams))
		s.Set(labelDelay, gff.TypeDword, gff.Dword(n.Delay))
		s.Set(labelComment, gff.TypeString, gff.String(n.Comment))
		s.Set(labelSound, gff.TypeResRef, gff.ResRef(n.Sound))
		s.Set(labelQuest, gff.TypeString, gff.String(n.Quest))
		s.Set(labelQuestEntry, gff.TypeDword, gff.Dword(n.QuestEntry))
		edges := labelRepliesList
		if n.Kind == dialog.KindReply {
			edges = labelEntriesList
		}
		s.Set(edges, gff.TypeList, pointerList(n.Pointers))
		out = append(out, s)
	}
	return out
}

func pointerList(ptrs []*dialog.Pointer) gff.List {
	out := make(gff.List, 0, len(ptrs))
	for i, p := range ptrs {
		s := &gff.Struct{Type: uint32(i)}
		s.Set(labelActive, gff.TypeResRef, gff.ResRef(p.Condition))
		s.Set(labelIndex, gff.TypeDword, gff.Dword(p.Index))
		s.Set(labelIsChild, gff.TypeByte, boolByte(p.IsLink()))
		s.Set(labelConditionParams, gff.TypeList, paramList(p.ConditionParams))
		if p.Comment != "" {
			s.Set(labelLinkComment, gff.TypeString, gff.String(p.Comment))
		}
		out = append(out, s)
	}
	return out
}

// paramList writes script parameters in key order so encoding a graph is
// deterministic.
func paramList(params dialog.Params) gff.List {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make(gff.List, 0, len(keys))
	for i, k := range keys {
		s := &gff.Struct{Type: uint32(i)}
		s.Set(labelParamKey, gff.TypeString, gff.String(k))
		s.Set(labelParamValue, gff.TypeString, gff.String(params[k]))
		out = append(out, s)
	}
	return out
}

func locToGFF(ls dialog.LocString) gff.LocString {
	out := gff.LocString{StrRef: ls.StrRef}
	ids := make([]uint32, 0, len(ls.Strings))
	for id := range ls.Strings {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		out.Subs = append(out.Subs, gff.LocSub{ID: id, Text: ls.Strings[id]})
	}
	return out
}

func boolByte(b bool) gff.Byte {
	if b {
		return 1
	}
	return 0
}
