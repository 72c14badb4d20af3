package session

import (
	"fmt"

	"github.com/fsnotify/fsnotify"
)

// Watch starts watching the session's backing file and invokes onChange
// with the path whenever another program rewrites it. The callback runs on
// the watcher goroutine; it must not mutate the session itself, only signal
// the editor loop (which typically offers a reload).
//
// Watching a session with no backing file is an error. A second Watch
// replaces the first.
func (s *Session) Watch(onChange func(path string)) error {
	if s.path == "" {
		return ErrNoPath
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("session: watcher: %w", err)
	}
	if err := w.Add(s.path); err != nil {
		w.Close()
		return fmt.Errorf("session: watch %s: %w", s.path, err)
	}
	s.StopWatch()

	done := make(chan struct{})
	path := s.path
	go func() {
		defer w.Close()
		s.watchLoop(w.Events, w.Errors, done, path, onChange)
	}()
	s.stopWatch = func() { close(done) }
	return nil
}

// watchLoop drains both watcher channels until done closes or the watcher
// shuts down. Errors are logged and delivery continues; a closed channel
// ends the loop rather than spinning on it.
func (s *Session) watchLoop(events <-chan fsnotify.Event, errs <-chan error, done <-chan struct{}, path string, onChange func(string)) {
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
				s.log.Debug("file changed on disk", "path", path)
				onChange(path)
			}
		case err, ok := <-errs:
			if !ok {
				return
			}
			s.log.Warn("watcher error", "path", path, "error", err)
		case <-done:
			return
		}
	}
}

// StopWatch stops a running file watcher. Safe to call when none is
// running.
func (s *Session) StopWatch() {
	if s.stopWatch != nil {
		s.stopWatch()
		s.stopWatch = nil
	}
}
