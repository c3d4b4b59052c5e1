// Package interrupt turns SIGINT/SIGTERM into context cancellation for
// in-flight API requests, with a second Ctrl+C forcing an immediate exit.
package interrupt

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// ExitInterrupt is the exit code for interrupt (130 = 128 + SIGINT).
const ExitInterrupt = 130

// forceWindow is the time window for a second Ctrl+C to force an exit.
const forceWindow = 2 * time.Second

const (
	cancelMessage = "\nCancelling requests (press Ctrl+C again to quit)..."
	abortMessage  = "\nAborted."
)

// Handler cancels its context on the first signal. A second signal within
// forceWindow exits the process without waiting for requests to unwind.
type Handler struct {
	mu             sync.Mutex
	firstInterrupt time.Time
	interrupted    bool
	stopped        bool
	cancelFunc     context.CancelFunc
	done           chan struct{} // Signals listen goroutine to exit

	// Injected dependencies (for testing)
	exitFunc func(int)
	nowFunc  func() time.Time
	stderr   io.Writer
}

// Options holds injectable dependencies for testing.
type Options struct {
	SigCh    <-chan os.Signal
	ExitFunc func(int)
	NowFunc  func() time.Time
	// Stderr is the writer for user-facing messages.
	// Must be safe for concurrent writes from multiple goroutines.
	Stderr io.Writer
}

// NewHandler creates a handler that listens for SIGINT/SIGTERM.
// Returns the handler and a context that is canceled on first interrupt.
func NewHandler(parent context.Context) (*Handler, context.Context) {
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return NewHandlerWithOptions(parent, Options{SigCh: sigCh})
}

// NewHandlerWithOptions creates a handler with injectable dependencies.
func NewHandlerWithOptions(parent context.Context, opts Options) (*Handler, context.Context) {
	ctx, cancel := context.WithCancel(parent)

	exitFunc := opts.ExitFunc
	if exitFunc == nil {
		exitFunc = os.Exit
	}
	nowFunc := opts.NowFunc
	if nowFunc == nil {
		nowFunc = time.Now
	}
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	h := &Handler{
		cancelFunc: cancel,
		done:       make(chan struct{}),
		exitFunc:   exitFunc,
		nowFunc:    nowFunc,
		stderr:     stderr,
	}

	if opts.SigCh != nil {
		go h.listen(opts.SigCh)
	}

	return h, ctx
}

// listen handles incoming signals.
func (h *Handler) listen(sigCh <-chan os.Signal) {
	for {
		select {
		case <-h.done:
			return
		case _, ok := <-sigCh:
			if !ok {
				return
			}

			h.mu.Lock()
			if h.stopped {
				h.mu.Unlock()
				return
			}
			now := h.nowFunc()

			if !h.interrupted {
				h.interrupted = true
				h.firstInterrupt = now
				h.cancelFunc()
				h.mu.Unlock()
				fmt.Fprintln(h.stderr, cancelMessage)
				continue
			}

			if now.Sub(h.firstInterrupt) <= forceWindow {
				h.mu.Unlock()
				fmt.Fprintln(h.stderr, abortMessage)
				h.exitFunc(ExitInterrupt)
				return // In case exitFunc doesn't actually exit (tests)
			}

			// Late second signal restarts the window.
			h.firstInterrupt = now
			h.mu.Unlock()
		}
	}
}

// WasInterrupted returns true if at least one interrupt was received.
func (h *Handler) WasInterrupted() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.interrupted
}

// Stop releases the signal handlers and cancels the context.
// It is safe to call more than once.
func (h *Handler) Stop() {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return
	}
	h.stopped = true
	h.mu.Unlock()

	signal.Reset(syscall.SIGINT, syscall.SIGTERM)
	h.cancelFunc()
	close(h.done)
}
