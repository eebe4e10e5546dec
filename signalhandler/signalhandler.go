package signalhandler

import (
	"os"
	"os/signal"
	"runtime"
	"syscall"
)

// SetupHandler configures signal handling so an interrupted run exits
// promptly instead of leaving a half-answered viewer prompt behind
func SetupHandler() {
	// Create a channel to receive OS signals
	sigChan := make(chan os.Signal, 1)

	// Register for specific signals
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Handle signals in a separate goroutine
	go func() {
		sig := <-sigChan
		switch sig {
		case syscall.SIGINT, syscall.SIGTERM:
			// Clean shutdown; partial progress is acceptable
			os.Exit(0)
		}
	}()
}

// OptimalWorkers returns the number of hashing goroutines to run.
// Decoding and hashing are pure Go and CPU-bound, so one worker per CPU.
func OptimalWorkers() int {
	numCPU := runtime.NumCPU()
	if numCPU < 1 {
		return 1
	}
	return numCPU
}
