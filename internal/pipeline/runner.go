package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/mhaslett/acgbridge/internal/config"
	"github.com/mhaslett/acgbridge/internal/model"
	"github.com/mhaslett/acgbridge/internal/transform"
)

// ErrRunInFlight is returned by Runner.Start while a run is active. A new
// run is rejected, never queued.
var ErrRunInFlight = errors.New("a processing run is already in flight")

// Event is one human-readable status line produced by a background run,
// delivered in emission order.
type Event struct {
	Line string
}

// Result is the terminal outcome of a background run, sent exactly once
// after the event channel is closed.
type Result struct {
	Summary *model.RunSummary
	Err     error
}

// Runner executes runs on a background goroutine so an interactive
// foreground stays responsive. At most one run is in flight at a time; the
// foreground consumes events and the result on its own schedule and never
// touches run-owned data.
type Runner struct {
	mu     sync.Mutex
	active bool
}

// Start launches one pipeline run in the background. The returned event
// channel carries ordered status lines and is closed when the run ends;
// the result channel then delivers exactly one Result. Cancellation is
// cooperative through ctx: it takes effect at the next row or file
// boundary, so a cancelled run never leaves a partially written output.
func (r *Runner) Start(ctx context.Context, base zerolog.Logger, reg *config.Registry, funcs *transform.Registry, opts Options) (<-chan Event, <-chan Result, error) {
	r.mu.Lock()
	if r.active {
		r.mu.Unlock()
		return nil, nil, ErrRunInFlight
	}
	r.active = true
	r.mu.Unlock()

	events := make(chan Event, 64)
	result := make(chan Result, 1)

	log := base.Output(zerolog.ConsoleWriter{Out: &eventWriter{ch: events}, NoColor: true})

	go func() {
		summary, err := Run(ctx, log, reg, funcs, opts)
		close(events)

		// Release the gate before delivering the result, so a caller that
		// has seen the result can immediately start the next run.
		r.mu.Lock()
		r.active = false
		r.mu.Unlock()

		result <- Result{Summary: summary, Err: err}
		close(result)
	}()

	return events, result, nil
}

// Active reports whether a run is currently in flight.
func (r *Runner) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// eventWriter adapts the run's log stream onto the event channel: one write
// (one rendered log line) becomes one event.
type eventWriter struct {
	ch chan<- Event
}

func (w *eventWriter) Write(p []byte) (int, error) {
	w.ch <- Event{Line: strings.TrimRight(string(p), "\n")}
	return len(p), nil
}
