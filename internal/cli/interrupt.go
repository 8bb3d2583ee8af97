package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// InterruptHandler cancels a context on SIGINT or SIGTERM and tells the user
// what happens next.
type InterruptHandler struct {
	writer      io.Writer
	hint        string
	interrupted bool
	mu          sync.Mutex
}

// NewInterruptHandler creates a handler writing its notice to writer, or to
// stderr when writer is nil.
func NewInterruptHandler(writer io.Writer) *InterruptHandler {
	if writer == nil {
		writer = os.Stderr
	}
	return &InterruptHandler{
		writer: writer,
	}
}

// HandleInterrupts returns a context canceled on the first interrupt. The
// hint, if any, is printed beneath the notice. Call the returned cancel
// function to release the signal handler.
func (h *InterruptHandler) HandleInterrupts(ctx context.Context, hint string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)

	h.mu.Lock()
	h.hint = hint
	h.mu.Unlock()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case <-sigChan:
			h.interrupt(cancel)
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// WasInterrupted returns true if the process was interrupted.
func (h *InterruptHandler) WasInterrupted() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.interrupted
}

func (h *InterruptHandler) interrupt(cancel context.CancelFunc) {
	h.mu.Lock()
	if !h.interrupted {
		h.interrupted = true
		h.showInterruptMessage()
	}
	h.mu.Unlock()
	cancel()
}

func (h *InterruptHandler) showInterruptMessage() {
	msg := "\n" + FormatWarning("Interrupted, shutting down...")
	if h.hint != "" {
		msg += "\n" + FormatInfo(h.hint)
	}
	msg += "\n"

	if _, err := fmt.Fprint(h.writer, msg); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write interrupt message: %v\n", err)
	}
}
