// Package script evaluates conversation condition scripts. Scripts are
// small Lisp programs registered under their resource name; a pointer's
// condition names a script, and the engine decides whether the pointer is
// shown. Each evaluation runs in a fresh zygomys sandbox so user code can
// never touch the filesystem or leak state between evaluations.
package script

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	zygo "github.com/glycerine/zygomys/zygo"
)

// AlwaysFalse is the reserved guard script name. It evaluates false without
// running any code; the orphan container's start pointer uses it to keep
// parked nodes out of every conversation.
const AlwaysFalse = "c_false"

// EvalError is a non-fatal problem in user script code, such as a parse
// error or a runtime error.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// Engine evaluates registered condition scripts. It is safe for concurrent
// use; each evaluation runs in its own sandbox.
type Engine struct {
	mu         sync.Mutex
	generation uint64
	scripts    map[string]string
}

// NewEngine creates an Engine with no scripts registered.
func NewEngine() *Engine {
	return &Engine{scripts: make(map[string]string)}
}

// Register stores script source under a resource name, replacing any
// previous source.
func (e *Engine) Register(resref, source string) {
	e.mu.Lock()
	e.scripts[resref] = source
	e.mu.Unlock()
}

// Source returns the registered source for a resource name.
func (e *Engine) Source(resref string) (string, bool) {
	e.mu.Lock()
	src, ok := e.scripts[resref]
	e.mu.Unlock()
	return src, ok
}

// Eval decides whether the condition named by resref holds under the given
// parameters. An empty name always holds, the reserved guard never holds,
// and an unregistered name defaults to true so a preview can walk a dialog
// whose scripts live elsewhere. Script errors are returned, not swallowed:
// a broken condition should surface in the editor, not silently hide a
// branch.
func (e *Engine) Eval(resref string, params map[string]string) (bool, error) {
	if resref == "" {
		return true, nil
	}
	if resref == AlwaysFalse {
		return false, nil
	}

	e.mu.Lock()
	source, ok := e.scripts[resref]
	e.generation++
	gen := e.generation
	e.mu.Unlock()
	if !ok {
		return true, nil
	}

	ch := make(chan evalResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()
		v, evalErr, err := evaluate(source, params)
		ch <- evalResult{value: v, evalErr: evalErr, err: err}
	}()

	v, evalErr, err := waitWithTimeout(ch, gen, &e.mu, &e.generation)
	if err != nil {
		return false, fmt.Errorf("script %s: %w", resref, err)
	}
	if evalErr != nil {
		return false, fmt.Errorf("script %s: %w", resref, evalErr)
	}
	return v, nil
}

// evaluate runs one script in a fresh sandbox. The script sees its
// parameters through the param and has_param builtins; the value of the
// last expression is the verdict.
func evaluate(source string, params map[string]string) (bool, *EvalError, error) {
	if strings.TrimSpace(source) == "" {
		return true, nil, nil
	}

	env := zygo.NewZlispSandbox()
	defer env.Stop()
	registerParamBuiltins(env, params)

	if err := env.LoadString(source); err != nil {
		ee := parseZygomysError(err)
		return false, &ee, nil
	}
	result, err := env.Run()
	if err != nil {
		ee := parseZygomysError(err)
		return false, &ee, nil
	}
	return truthy(result), nil, nil
}

func registerParamBuiltins(env *zygo.Zlisp, params map[string]string) {
	env.AddFunction("param", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("param requires exactly 1 argument, got %d", len(args))
		}
		key, ok := args[0].(*zygo.SexpStr)
		if !ok {
			return zygo.SexpNull, fmt.Errorf("param: expected string key, got %T", args[0])
		}
		return &zygo.SexpStr{S: params[key.S]}, nil
	})
	env.AddFunction("has_param", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("has_param requires exactly 1 argument, got %d", len(args))
		}
		key, ok := args[0].(*zygo.SexpStr)
		if !ok {
			return zygo.SexpNull, fmt.Errorf("has_param: expected string key, got %T", args[0])
		}
		_, present := params[key.S]
		return &zygo.SexpBool{Val: present}, nil
	})
}

// truthy maps a script's final value to a verdict. Only an explicit false,
// a zero integer or a nil result reject; anything else holds.
func truthy(v zygo.Sexp) bool {
	switch val := v.(type) {
	case *zygo.SexpBool:
		return val.Val
	case *zygo.SexpInt:
		return val.Val != 0
	default:
		return v != zygo.SexpNull
	}
}

// linePattern matches zygomys errors that include "Error on line N: ...".
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." messages.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError extracts line information from a zygomys error message
// where the format allows it.
func parseZygomysError(err error) EvalError {
	msg := err.Error()
	if m := linePattern.FindStringSubmatch(msg); m != nil {
		line, _ := strconv.Atoi(m[1])
		return EvalError{Line: line, Message: strings.TrimSpace(m[2])}
	}
	if m := linePatternShort.FindStringSubmatch(msg); m != nil {
		line, _ := strconv.Atoi(m[1])
		return EvalError{Line: line, Message: strings.TrimSpace(m[2])}
	}
	return EvalError{Message: strings.TrimSpace(msg)}
}
