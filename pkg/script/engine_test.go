package script

import (
	"strings"
	"testing"
)

func TestEvalEmptyNameAlwaysTrue(t *testing.T) {
	eng := NewEngine()

	ok, err := eng.Eval("", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Error("empty condition should always hold")
	}
}

func TestEvalGuardAlwaysFalse(t *testing.T) {
	eng := NewEngine()
	// Registration cannot override the reserved guard.
	eng.Register(AlwaysFalse, "true")

	ok, err := eng.Eval(AlwaysFalse, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("guard script evaluated true")
	}
}

func TestEvalUnregisteredDefaultsTrue(t *testing.T) {
	eng := NewEngine()

	ok, err := eng.Eval("c_not_loaded", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Error("unregistered condition should default to true")
	}
}

func TestEvalBooleanResults(t *testing.T) {
	eng := NewEngine()
	eng.Register("c_yes", "true")
	eng.Register("c_no", "false")
	eng.Register("c_zero", "(- 2 2)")
	eng.Register("c_one", "(+ 0 1)")

	cases := []struct {
		resref string
		want   bool
	}{
		{"c_yes", true},
		{"c_no", false},
		{"c_zero", false},
		{"c_one", true},
	}
	for _, tc := range cases {
		got, err := eng.Eval(tc.resref, nil)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.resref, err)
		}
		if got != tc.want {
			t.Errorf("%s = %v, want %v", tc.resref, got, tc.want)
		}
	}
}

func TestEvalEmptySourceHolds(t *testing.T) {
	eng := NewEngine()
	eng.Register("c_blank", "   \n\t  ")

	ok, err := eng.Eval("c_blank", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Error("blank source should hold")
	}
}

func TestEvalParamsVisibleToScript(t *testing.T) {
	eng := NewEngine()
	eng.Register("c_act_two", `(== (param "act") "2")`)

	ok, err := eng.Eval("c_act_two", map[string]string{"act": "2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Error("condition should hold when act is 2")
	}

	ok, err = eng.Eval("c_act_two", map[string]string{"act": "1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("condition should fail when act is 1")
	}
}

func TestEvalHasParam(t *testing.T) {
	eng := NewEngine()
	eng.Register("c_flagged", `(has_param "flag")`)

	ok, err := eng.Eval("c_flagged", map[string]string{"flag": ""})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Error("present key should satisfy has_param")
	}

	ok, err = eng.Eval("c_flagged", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("missing key should fail has_param")
	}
}

func TestEvalParseErrorSurfaces(t *testing.T) {
	eng := NewEngine()
	eng.Register("c_broken", "(((")

	ok, err := eng.Eval("c_broken", nil)
	if err == nil {
		t.Fatal("expected an error for unparseable source")
	}
	if ok {
		t.Error("broken script must not hold")
	}
	if !strings.Contains(err.Error(), "c_broken") {
		t.Errorf("error does not name the script: %v", err)
	}
}

func TestEvalRuntimeErrorSurfaces(t *testing.T) {
	eng := NewEngine()
	eng.Register("c_crash", "(undefined_function 1 2)")

	if ok, err := eng.Eval("c_crash", nil); err == nil || ok {
		t.Errorf("got (%v, %v), want a surfaced error", ok, err)
	}
}

func TestParseZygomysErrorExtractsLine(t *testing.T) {
	cases := []struct {
		msg  string
		line int
	}{
		{"Error on line 3: undefined symbol", 3},
		{"line 7: unexpected token", 7},
		{"something with no location", 0},
	}
	for _, tc := range cases {
		got := parseZygomysError(errString(tc.msg))
		if got.Line != tc.line {
			t.Errorf("%q: line = %d, want %d", tc.msg, got.Line, tc.line)
		}
		if got.Message == "" {
			t.Errorf("%q: empty message", tc.msg)
		}
	}
}

type errString string

func (e errString) Error() string { return string(e) }

func TestSequentialEvaluationsIndependent(t *testing.T) {
	eng := NewEngine()
	eng.Register("c_def", "(def leaked 1)\ntrue")
	eng.Register("c_check", "leaked")

	if ok, err := eng.Eval("c_def", nil); err != nil || !ok {
		t.Fatalf("first eval: (%v, %v)", ok, err)
	}
	// A fresh sandbox per eval means the global from the first script is
	// gone; referencing it is a runtime error, not a stale true.
	if ok, err := eng.Eval("c_check", nil); err == nil || ok {
		t.Errorf("state leaked between sandboxes: (%v, %v)", ok, err)
	}
}
