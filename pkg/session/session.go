// Package session is the editing surface a frontend binds to. It owns the
// open dialog, the link registry, the undo history and the clipboard, and
// funnels every mutation through operations that validate before touching
// the graph: a rejected operation leaves the graph exactly as it was.
//
// A Session is single-threaded by design. Mutations come from one editor
// loop; the only concurrent visitor is the file watcher, which never
// touches the graph itself.
package session

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/chazu/colloquy/pkg/dialog"
	"github.com/chazu/colloquy/pkg/dlg"
	"github.com/chazu/colloquy/pkg/script"
)

// MaxUndoDepth bounds the undo and redo stacks. The oldest snapshot is
// discarded when a new one would exceed the bound.
const MaxUndoDepth = 100

var (
	// ErrNoHistory is returned by Undo and Redo when the corresponding
	// stack is empty.
	ErrNoHistory = errors.New("session: nothing to undo or redo")
	// ErrClipboardEmpty is returned by paste operations before any copy.
	ErrClipboardEmpty = errors.New("session: clipboard is empty")
	// ErrSourceConsumed is returned when pasting a cut source twice.
	ErrSourceConsumed = errors.New("session: cut source already pasted")
	// ErrSourceCut is returned when linking to a cut source. The source is
	// leaving the graph, so the link would dangle the moment the move
	// completes.
	ErrSourceCut = errors.New("session: cannot link to a cut source")
	// ErrCrossDialog is returned when a link paste targets a different
	// dialog than the one the source was copied from.
	ErrCrossDialog = errors.New("session: cannot link across dialogs")
	// ErrNoPath is returned by Save when the session has never been given
	// a file path.
	ErrNoPath = errors.New("session: no file path set")
)

// clipboard remembers one copied or cut node by reference, plus the
// identity of the dialog it came from so cross-dialog pastes can be told
// apart after the current dialog changes.
type clipboard struct {
	node     *dialog.Node
	dialogID uuid.UUID
	cut      bool
	consumed bool
}

// Session is one open conversation being edited.
type Session struct {
	log      *slog.Logger
	dialog   *dialog.Dialog
	registry *dialog.LinkRegistry
	scripts  *script.Engine
	path     string

	undo []*dialog.Snapshot
	redo []*dialog.Snapshot
	clip *clipboard

	stopWatch func()
}

// New creates a Session holding a fresh empty dialog. A nil logger falls
// back to slog.Default.
func New(logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Session{
		log:     logger,
		scripts: script.NewEngine(),
	}
	s.setDialog(dialog.New())
	return s
}

// Dialog returns the open dialog graph.
func (s *Session) Dialog() *dialog.Dialog { return s.dialog }

// Registry returns the live link registry for the open dialog.
func (s *Session) Registry() *dialog.LinkRegistry { return s.registry }

// Scripts returns the condition engine used by previews.
func (s *Session) Scripts() *script.Engine { return s.scripts }

// Path returns the file backing the session, or "" before the first Load
// or SaveAs.
func (s *Session) Path() string { return s.path }

func (s *Session) setDialog(d *dialog.Dialog) {
	s.dialog = d
	s.registry = dialog.NewLinkRegistry()
	s.registry.Rebuild(d)
}

// Load opens a conversation file, replacing the current dialog and history.
func (s *Session) Load(path string) error {
	d, err := dlg.Load(path)
	if err != nil {
		return err
	}
	s.setDialog(d)
	s.path = path
	s.undo = nil
	s.redo = nil
	s.log.Info("dialog loaded",
		"path", path,
		"entries", len(d.Entries),
		"replies", len(d.Replies),
		"starts", len(d.Starts))
	return nil
}

// Save writes the dialog back to the path it was loaded from.
func (s *Session) Save() error {
	if s.path == "" {
		return ErrNoPath
	}
	return s.SaveAs(s.path)
}

// SaveAs writes the dialog to path and makes that path the session's
// backing file.
func (s *Session) SaveAs(path string) error {
	s.registry.Rebuild(s.dialog)
	if err := dlg.Save(s.dialog, path); err != nil {
		s.log.Error("save failed", "path", path, "error", err)
		return err
	}
	s.path = path
	s.log.Info("dialog saved", "path", path, "words", s.dialog.NumWords)
	return nil
}

// SaveState pushes the current graph onto the undo stack and clears the
// redo stack. Operations that mutate the graph call this themselves; a
// frontend making direct field edits calls it before the edit.
func (s *Session) SaveState() {
	s.undo = pushBounded(s.undo, dialog.Capture(s.dialog))
	s.redo = nil
}

func pushBounded(stack []*dialog.Snapshot, snap *dialog.Snapshot) []*dialog.Snapshot {
	if len(stack) >= MaxUndoDepth {
		stack = append(stack[:0], stack[1:]...)
	}
	return append(stack, snap)
}

// Undo restores the most recently saved state. The current state moves to
// the redo stack.
func (s *Session) Undo() error {
	if len(s.undo) == 0 {
		return ErrNoHistory
	}
	snap := s.undo[len(s.undo)-1]
	s.undo = s.undo[:len(s.undo)-1]
	s.redo = pushBounded(s.redo, dialog.Capture(s.dialog))
	s.setDialog(snap.Restore())
	s.log.Debug("undo", "depth", len(s.undo))
	return nil
}

// Redo re-applies the most recently undone state.
func (s *Session) Redo() error {
	if len(s.redo) == 0 {
		return ErrNoHistory
	}
	snap := s.redo[len(s.redo)-1]
	s.redo = s.redo[:len(s.redo)-1]
	s.undo = pushBounded(s.undo, dialog.Capture(s.dialog))
	s.setDialog(snap.Restore())
	s.log.Debug("redo", "depth", len(s.redo))
	return nil
}

// Copy places a node on the clipboard by reference.
func (s *Session) Copy(n *dialog.Node) error {
	if !s.dialog.Contains(n) {
		return dialog.ErrNotInDialog
	}
	s.clip = &clipboard{node: n, dialogID: s.dialog.ID}
	return nil
}

// Cut places a node on the clipboard for a move. The node stays in the
// graph until the paste lands; a cut source can be pasted once.
func (s *Session) Cut(n *dialog.Node) error {
	if !s.dialog.Contains(n) {
		return dialog.ErrNotInDialog
	}
	s.clip = &clipboard{node: n, dialogID: s.dialog.ID, cut: true}
	return nil
}

// PasteAsDuplicate clones the clipboard subtree under parent and returns
// the cloned root. Shared and cyclic structure in the source is cloned
// once; nothing in the clone aliases the source. A cut source is cascade
// deleted after its clone lands, completing the move.
func (s *Session) PasteAsDuplicate(parent *dialog.Node) (*dialog.Node, error) {
	if s.clip == nil {
		return nil, ErrClipboardEmpty
	}
	if s.clip.consumed {
		return nil, ErrSourceConsumed
	}
	if parent != nil && parent.Kind == s.clip.node.Kind {
		return nil, dialog.ErrAlternation
	}
	if parent != nil && !s.dialog.Contains(parent) {
		return nil, dialog.ErrNotInDialog
	}

	s.SaveState()
	root, all := dialog.CloneSubtree(s.clip.node, dialog.MaxCloneDepth)
	for _, n := range all {
		s.dialog.AddNode(n)
	}
	var err error
	if parent != nil {
		_, err = s.dialog.Attach(parent, root, dialog.TreeEdge)
	} else {
		if root.Kind != dialog.KindEntry {
			err = dialog.ErrAlternation
		} else {
			_, err = s.dialog.AttachStart(root)
		}
	}
	if err != nil {
		// Cannot happen after the checks above; restore and report anyway.
		s.mustUndo()
		return nil, err
	}

	if s.clip.cut && s.clip.dialogID == s.dialog.ID {
		if _, err := dialog.DeleteNode(s.dialog, s.clip.node); err != nil {
			s.mustUndo()
			return nil, fmt.Errorf("session: removing cut source: %w", err)
		}
		s.clip.consumed = true
	}
	s.registry.Rebuild(s.dialog)
	s.log.Debug("paste as duplicate", "cloned", len(all), "cut", s.clip.cut)
	return root, nil
}

// PasteAsLink attaches a back-reference from parent to the clipboard node.
// The source must not be cut, pending or pasted: a cut source is leaving
// the graph, and a link to it would either dangle after the move or stop
// the move from completing. It must also belong to the open dialog, since
// a link into another dialog's graph dies with that graph.
func (s *Session) PasteAsLink(parent *dialog.Node) (*dialog.Pointer, error) {
	if s.clip == nil {
		return nil, ErrClipboardEmpty
	}
	if s.clip.consumed {
		return nil, ErrSourceConsumed
	}
	if s.clip.cut {
		return nil, ErrSourceCut
	}
	if s.clip.dialogID != s.dialog.ID {
		return nil, ErrCrossDialog
	}

	s.SaveState()
	p, err := s.dialog.Attach(parent, s.clip.node, dialog.BackReference)
	if err != nil {
		s.mustUndo()
		return nil, err
	}
	s.registry.Register(p)
	return p, nil
}

// Delete cascade deletes a node: everything reachable only through it goes,
// shared descendants survive, and nodes other branches still link to are
// rehoused under the orphan container. Returns the removed nodes.
func (s *Session) Delete(n *dialog.Node) ([]*dialog.Node, error) {
	if !s.dialog.Contains(n) {
		return nil, dialog.ErrNotInDialog
	}
	s.SaveState()
	removed, err := dialog.DeleteNode(s.dialog, n)
	if err != nil {
		s.mustUndo()
		return nil, err
	}
	s.registry.Rebuild(s.dialog)
	s.log.Info("cascade delete", "removed", len(removed))
	return removed, nil
}

// RemoveOrphanedNodes drops every node unreachable from the start list,
// sparing the orphan container's subtree. Returns the removed nodes.
func (s *Session) RemoveOrphanedNodes() []*dialog.Node {
	// Capture before sweeping; the history (redo stack included) must only
	// change when the graph does.
	snap := dialog.Capture(s.dialog)
	removed := dialog.RemoveOrphanedNodes(s.dialog)
	if len(removed) == 0 {
		return nil
	}
	s.undo = pushBounded(s.undo, snap)
	s.redo = nil
	s.registry.Rebuild(s.dialog)
	s.log.Info("orphan sweep", "removed", len(removed))
	return removed
}

// RebuildLinkRegistry refreshes the reverse index after bulk mutations that
// bypassed Register and Unregister.
func (s *Session) RebuildLinkRegistry() {
	s.registry.Rebuild(s.dialog)
}

// Validate runs structural validation on the open dialog.
func (s *Session) Validate() []dialog.Finding {
	return dialog.Validate(s.dialog)
}

// mustUndo rolls back the state pushed by the failed operation itself.
func (s *Session) mustUndo() {
	if err := s.Undo(); err != nil {
		s.log.Error("rollback failed", "error", err)
	}
	s.redo = nil
}
