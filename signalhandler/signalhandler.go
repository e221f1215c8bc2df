package signalhandler

import (
	"context"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"

	"gallerydiff/logging"
)

// SetupHandler returns a context that is cancelled on SIGINT or SIGTERM, letting
// running workers drain before the process exits. A second signal exits at once.
// The returned stop function releases the signal handler and its goroutine.
func SetupHandler(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})

	// Create a channel to receive OS signals
	sigChan := make(chan os.Signal, 2)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			logging.LogWarning("Received %s, stopping after in-flight work", sig)
			cancel()
		case <-ctx.Done():
			<-done
			return
		case <-done:
			return
		}

		select {
		case <-sigChan:
			os.Exit(1)
		case <-done:
		}
	}()

	var once sync.Once
	return ctx, func() {
		once.Do(func() {
			signal.Stop(sigChan)
			close(done)
			cancel()
		})
	}
}

// GetOptimalProcs returns the number of worker goroutines to use: a positive
// configured value, otherwise one per CPU
func GetOptimalProcs(configured int) int {
	if configured > 0 {
		return configured
	}
	return runtime.NumCPU()
}
