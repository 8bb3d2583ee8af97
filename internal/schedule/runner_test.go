package schedule

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunner_RunsTask(t *testing.T) {
	r := NewRunner()
	var runs atomic.Int32

	require.NoError(t, r.Every("sample", time.Second, func(context.Context) error {
		runs.Add(1)
		return nil
	}))
	r.Start()
	defer func() { _ = r.Stop(context.Background()) }()

	assert.Eventually(t, func() bool { return runs.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)
}

func TestRunner_TaskRemovesItself(t *testing.T) {
	r := NewRunner()
	var runs atomic.Int32

	require.NoError(t, r.Every("reconnect", time.Second, func(context.Context) error {
		runs.Add(1)
		r.Remove("reconnect")
		return nil
	}))
	r.Start()
	defer func() { _ = r.Stop(context.Background()) }()

	require.Eventually(t, func() bool { return !r.Has("reconnect") }, 3*time.Second, 50*time.Millisecond)
	time.Sleep(1500 * time.Millisecond)
	assert.Equal(t, int32(1), runs.Load())
}

func TestRunner_StopCancelsTasks(t *testing.T) {
	r := NewRunner()
	started := make(chan struct{})
	var cancelled atomic.Bool

	require.NoError(t, r.Every("slow", time.Second, func(ctx context.Context) error {
		select {
		case started <- struct{}{}:
		default:
		}
		<-ctx.Done()
		cancelled.Store(true)
		return ctx.Err()
	}))
	r.Start()

	select {
	case <-started:
	case <-time.After(3 * time.Second):
		t.Fatal("task never started")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, r.Stop(ctx))
	assert.True(t, cancelled.Load())
}

func TestRunner_Errors(t *testing.T) {
	r := NewRunner()
	noop := func(context.Context) error { return nil }

	require.NoError(t, r.Every("a", time.Second, noop))
	err := r.Every("a", time.Second, noop)
	assert.True(t, errors.Is(err, ErrDuplicateTask))

	assert.Error(t, r.Every("b", 0, noop))
	assert.False(t, r.Has("b"))
}
