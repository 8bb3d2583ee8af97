// Package schedule runs the recurring polls of headless commands on a
// cron scheduler whose lifetime is owned by the caller.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// ErrDuplicateTask is returned when a task name is registered twice.
var ErrDuplicateTask = errors.New("task already registered")

// Task is a recurring job. The context is cancelled when the runner stops.
type Task func(ctx context.Context) error

// Runner owns a set of named recurring tasks.
type Runner struct {
	ctx     context.Context
	cron    *cron.Cron
	cancel  context.CancelFunc
	entries map[string]cron.EntryID
	mu      sync.Mutex
}

// NewRunner creates a stopped runner. Overlapping runs of the same task are
// skipped and panics are recovered and logged.
func NewRunner() *Runner {
	logger := slogLogger{}
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		ctx:    ctx,
		cancel: cancel,
		cron: cron.New(
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		entries: make(map[string]cron.EntryID),
	}
}

// Every registers fn to run at interval under name. Intervals are rounded
// to whole seconds with a minimum of one second.
func (r *Runner) Every(name string, interval time.Duration, fn Task) error {
	if interval <= 0 {
		return fmt.Errorf("task %s: interval must be positive", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateTask, name)
	}

	spec := "@every " + interval.String()
	id, err := r.cron.AddFunc(spec, func() {
		if r.ctx.Err() != nil {
			return
		}
		if err := fn(r.ctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Warn("Scheduled task failed", "task", name, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule %s (%s): %w", name, spec, err)
	}

	r.entries[name] = id
	slog.Debug("Scheduled task", "task", name, "spec", spec)
	return nil
}

// Remove unregisters a task. It is safe to call from inside the task.
func (r *Runner) Remove(name string) {
	r.mu.Lock()
	id, ok := r.entries[name]
	delete(r.entries, name)
	r.mu.Unlock()

	if ok {
		r.cron.Remove(id)
		slog.Debug("Removed task", "task", name)
	}
}

// Has reports whether a task is registered under name.
func (r *Runner) Has(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[name]
	return ok
}

// Start begins running the registered tasks.
func (r *Runner) Start() {
	r.cron.Start()
}

// Stop cancels the task context and waits for running tasks to return, or
// for ctx to expire.
func (r *Runner) Stop(ctx context.Context) error {
	r.cancel()
	done := r.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for scheduled tasks: %w", ctx.Err())
	}
}

// slogLogger adapts cron's logger to slog.
type slogLogger struct{}

func (slogLogger) Info(msg string, keysAndValues ...any) {
	slog.Debug("cron: "+msg, keysAndValues...)
}

func (slogLogger) Error(err error, msg string, keysAndValues ...any) {
	slog.Error("cron: "+msg, append([]any{"error", err}, keysAndValues...)...)
}
