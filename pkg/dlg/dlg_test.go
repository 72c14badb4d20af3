package dlg

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/chazu/colloquy/pkg/dialog"
	"github.com/chazu/colloquy/pkg/gff"
)

// buildSample returns a graph exercising every persisted field: a shared
// reply reached by a tree edge and a link, conditions, parameters and
// localized text.
func buildSample(t *testing.T) *dialog.Dialog {
	t.Helper()
	d := dialog.New()
	d.DelayEntry = 0xFFFFFFFF
	d.DelayReply = 2
	d.EndScript = "k_end"
	d.AbortScript = "k_abort"
	d.PreventZoom = true

	e1 := dialog.NewEntry()
	e1.Speaker = "jolee"
	e1.Text.Set(0, "Hello there, you look lost.")
	e1.Text.Set(2, "Bonjour.")
	e1.Animation = 6
	e1.AnimLoop = true
	e1.Script = "k_act_wave"
	e1.ActionParams["mood"] = "calm"
	e1.Sound = "n_jolee_greet"
	e1.Quest = "lost_student"
	e1.QuestEntry = 10
	d.AddNode(e1)

	e2 := dialog.NewEntry()
	e2.Text.Set(0, "So be it.")
	e2.Comment = "shared closer"
	d.AddNode(e2)

	r1 := dialog.NewReply()
	r1.Text.Set(0, "I know exactly where I am.")
	r1.Delay = 1
	d.AddNode(r1)

	r2 := dialog.NewReply()
	r2.Text.Set(0, "Maybe a little.")
	d.AddNode(r2)

	sp, err := d.AttachStart(e1)
	if err != nil {
		t.Fatal(err)
	}
	sp.Condition = "c_first_meeting"
	sp.ConditionParams["act"] = "1"

	p1, err := d.Attach(e1, r1, dialog.TreeEdge)
	if err != nil {
		t.Fatal(err)
	}
	p1.Condition = "c_high_wisdom"
	if _, err := d.Attach(e1, r2, dialog.TreeEdge); err != nil {
		t.Fatal(err)
	}
	if _, err := d.Attach(r1, e2, dialog.TreeEdge); err != nil {
		t.Fatal(err)
	}
	link, err := d.Attach(r2, e2, dialog.BackReference)
	if err != nil {
		t.Fatal(err)
	}
	link.Comment = "rejoins the closer"
	return d
}

func TestGraphContainerRoundTrip(t *testing.T) {
	d := buildSample(t)
	got, err := FromContainer(ToContainer(d).Root)
	if err != nil {
		t.Fatal(err)
	}
	if !dialog.Capture(got).Equal(dialog.Capture(d)) {
		t.Error("round-tripped graph differs from the original")
	}
	// The link must come back as a reference to the same node object the
	// tree edge targets, not a second copy.
	shared := got.Replies[0].Pointers[0].Target
	lnk := got.Replies[1].Pointers[0]
	if !lnk.IsLink() || lnk.Target != shared {
		t.Error("back-reference did not resolve to the shared entry")
	}
}

func TestBinaryRoundTrip(t *testing.T) {
	d := buildSample(t)
	data, err := gff.Encode(ToContainer(d))
	if err != nil {
		t.Fatal(err)
	}
	f, err := gff.Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if f.FileType != FileType {
		t.Errorf("file type = %q", f.FileType)
	}
	if f.Root.Type != RootStructType {
		t.Errorf("root struct type = %#x", f.Root.Type)
	}
	got, err := FromContainer(f.Root)
	if err != nil {
		t.Fatal(err)
	}
	if !dialog.Capture(got).Equal(dialog.Capture(d)) {
		t.Error("binary round trip changed the graph")
	}
}

func TestToContainerRecomputesState(t *testing.T) {
	d := buildSample(t)
	// Stale numbering and word count must never reach the container.
	d.Entries[0].Pointers[0].Index = 99
	d.NumWords = 0

	root := ToContainer(d).Root
	if got := root.Dword(labelNumWords); got != d.ComputeWordCount() || got == 0 {
		t.Errorf("NumWords = %d, want %d", got, d.ComputeWordCount())
	}
	entryEdges := root.List(labelEntryList)[0].List(labelRepliesList)
	if idx := entryEdges[0].Dword(labelIndex); idx != 0 {
		t.Errorf("stale index written: %d", idx)
	}
	// List structs are typed by position.
	for i, s := range root.List(labelEntryList) {
		if s.Type != uint32(i) {
			t.Errorf("entry struct %d typed %d", i, s.Type)
		}
	}
}

func TestFromContainerRejectsBadIndex(t *testing.T) {
	d := buildSample(t)
	root := ToContainer(d).Root
	root.List(labelStartingList)[0].Set(labelIndex, gff.TypeDword, gff.Dword(42))

	if _, err := FromContainer(root); !errors.Is(err, ErrBadIndex) {
		t.Errorf("err = %v, want ErrBadIndex", err)
	}
}

func TestFromContainerTolerantOfUnknownFields(t *testing.T) {
	d := buildSample(t)
	root := ToContainer(d).Root
	root.Set("VO_ID", gff.TypeString, gff.String("jolee01"))
	root.List(labelEntryList)[0].Set("CameraAngle", gff.TypeDword, gff.Dword(3))

	if _, err := FromContainer(root); err != nil {
		t.Errorf("unknown fields rejected: %v", err)
	}
}

func TestDuplicateParamKeysLastWins(t *testing.T) {
	list := gff.List{}
	for i, v := range []string{"first", "second"} {
		s := &gff.Struct{Type: uint32(i)}
		s.Set(labelParamKey, gff.TypeString, gff.String("mood"))
		s.Set(labelParamValue, gff.TypeString, gff.String(v))
		list = append(list, s)
	}
	params := paramsFromList(list)
	if len(params) != 1 || params["mood"] != "second" {
		t.Errorf("params = %v, want mood=second", params)
	}
}

func TestLoadSaveRoundTrip(t *testing.T) {
	d := buildSample(t)
	path := filepath.Join(t.TempDir(), "jolee.dlg")
	if err := Save(d, path); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !dialog.Capture(got).Equal(dialog.Capture(d)) {
		t.Error("file round trip changed the graph")
	}
}

func TestLoadRejectsWrongFileType(t *testing.T) {
	f := ToContainer(buildSample(t))
	f.FileType = "ARE "
	data, err := gff.Encode(f)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "not_a_dialog.are")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); !errors.Is(err, ErrFileType) {
		t.Errorf("err = %v, want ErrFileType", err)
	}
}

func TestSaveRefusesInvalidGraph(t *testing.T) {
	d := buildSample(t)
	// A dangling pointer is an error-severity finding.
	ghost := dialog.NewReply()
	e := d.Entries[0]
	e.Pointers = append(e.Pointers, &dialog.Pointer{Source: e, Target: ghost, Kind: dialog.TreeEdge, TargetKind: dialog.KindReply})

	dir := t.TempDir()
	path := filepath.Join(dir, "broken.dlg")
	if err := Save(d, path); err == nil {
		t.Fatal("save of an invalid graph succeeded")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("failed save left a file behind")
	}
	// No temp leftovers either.
	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(ents) != 0 {
		t.Errorf("leftover files after failed save: %v", ents)
	}
}

func TestSaveRepairsStaleIndices(t *testing.T) {
	d := buildSample(t)
	d.Starts[0].Index = 7

	path := filepath.Join(t.TempDir(), "repaired.dlg")
	if err := Save(d, path); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Starts[0].Index != 0 {
		t.Errorf("stale index survived the save: %d", got.Starts[0].Index)
	}
}
