package batch

import (
	"context"
	"errors"
	"sync"
)

// ErrRunActive is returned by Start while a previous run has not finished.
var ErrRunActive = errors.New("a batch run is already active")

// Runner owns the single background worker. At most one run may be active;
// Start rejects rather than queues.
type Runner struct {
	mu     sync.Mutex
	active bool
}

// Active reports whether a run is currently in flight.
func (r *Runner) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// Start launches the run on a background goroutine and returns immediately.
// Progress is observed by draining ch; the final DoneMsg carries the
// summary. A run-fatal setup error also surfaces as a log line so polling
// consumers see why nothing happened.
func (r *Runner) Start(ctx context.Context, opts Options, ch *Channel) error {
	r.mu.Lock()
	if r.active {
		r.mu.Unlock()
		return ErrRunActive
	}
	r.active = true
	r.mu.Unlock()

	go func() {
		defer func() {
			r.mu.Lock()
			r.active = false
			r.mu.Unlock()
		}()
		if _, err := Run(ctx, opts, ch); err != nil {
			ch.Logf("run aborted: %v", err)
			ch.Publish(DoneMsg{Summary: Summary{Total: len(opts.Items)}})
		}
	}()
	return nil
}
