package signalhandler

import (
	"context"
	"runtime"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOptimalProcs(t *testing.T) {
	assert.Equal(t, 6, GetOptimalProcs(6))
	assert.Equal(t, runtime.NumCPU(), GetOptimalProcs(0))
	assert.Equal(t, runtime.NumCPU(), GetOptimalProcs(-2))
}

// settledGoroutines starts and stops one handler so the runtime's signal watcher
// is already running, then returns the goroutine count
func settledGoroutines(t *testing.T) int {
	t.Helper()
	_, stop := SetupHandler(context.Background())
	stop()
	time.Sleep(10 * time.Millisecond)
	return runtime.NumGoroutine()
}

func TestSetupHandlerCancelsOnSignal(t *testing.T) {
	before := settledGoroutines(t)

	ctx, stop := SetupHandler(context.Background())
	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGTERM))

	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("context was not cancelled by SIGTERM")
	}

	stop()
	stop()
	assert.Eventually(t, func() bool { return runtime.NumGoroutine() <= before },
		2*time.Second, 10*time.Millisecond, "handler goroutine still running after stop")
}

func TestSetupHandlerStop(t *testing.T) {
	before := settledGoroutines(t)

	ctx, stop := SetupHandler(context.Background())
	stop()
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
	assert.Eventually(t, func() bool { return runtime.NumGoroutine() <= before },
		2*time.Second, 10*time.Millisecond)
}

func TestSetupHandlerParentCancelled(t *testing.T) {
	before := settledGoroutines(t)

	parent, cancelParent := context.WithCancel(context.Background())
	ctx, stop := SetupHandler(parent)
	cancelParent()
	<-ctx.Done()

	stop()
	assert.Eventually(t, func() bool { return runtime.NumGoroutine() <= before },
		2*time.Second, 10*time.Millisecond)
}
