package script

import (
	"fmt"
	"sync"
	"time"
)

// EvalTimeout is the hard limit for a single script evaluation.
const EvalTimeout = 5 * time.Second

type evalResult struct {
	value   bool
	evalErr *EvalError
	err     error
}

// waitWithTimeout waits for a result from ch, giving up after EvalTimeout.
// A generation counter discards stale results: on timeout the goroutine may
// still be running, and whatever it eventually produces must not be mistaken
// for the answer to a newer evaluation.
func waitWithTimeout(
	ch <-chan evalResult,
	gen uint64,
	mu *sync.Mutex,
	currentGen *uint64,
) (bool, *EvalError, error) {
	timer := time.NewTimer(EvalTimeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		mu.Lock()
		current := *currentGen
		mu.Unlock()
		if gen != current {
			return false, nil, fmt.Errorf("evaluation superseded by newer request")
		}
		return res.value, res.evalErr, res.err

	case <-timer.C:
		return false, nil, fmt.Errorf("evaluation timed out after %s", EvalTimeout)
	}
}
