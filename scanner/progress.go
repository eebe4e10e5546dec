package scanner

import (
	"fmt"
	"os"
	"sync"
	"time"
)

// ProgressTracker tracks progress of the hashing pass and periodically
// paints it to stderr, keeping stdout clean for list output
type ProgressTracker struct {
	processed  int
	errors     int
	totalFiles int
	ticker     *time.Ticker
	done       chan bool
	mu         sync.Mutex
	silent     bool
}

// newProgressTracker initializes progress tracking for totalFiles files.
// A silent tracker still counts but never prints.
func newProgressTracker(totalFiles int, silent bool) *ProgressTracker {
	tracker := &ProgressTracker{
		ticker:     time.NewTicker(500 * time.Millisecond),
		done:       make(chan bool),
		totalFiles: totalFiles,
		silent:     silent,
	}

	// Start progress display goroutine
	go tracker.displayProgress()

	return tracker
}

// displayProgress shows the progress periodically
func (p *ProgressTracker) displayProgress() {
	for {
		select {
		case <-p.done:
			return
		case <-p.ticker.C:
			if p.silent {
				continue
			}
			p.mu.Lock()
			if p.errors > 0 {
				fmt.Fprintf(os.Stderr, "\rHashing images: %d/%d (errors: %d)", p.processed, p.totalFiles, p.errors)
			} else {
				fmt.Fprintf(os.Stderr, "\rHashing images: %d/%d", p.processed, p.totalFiles)
			}
			p.mu.Unlock()
		}
	}
}

// record updates the tracker with the result of one file
func (p *ProgressTracker) record(success bool) {
	p.mu.Lock()
	p.processed++
	if !success {
		p.errors++
	}
	p.mu.Unlock()
}

// stop ends the progress tracking and terminates the progress line
func (p *ProgressTracker) stop() {
	p.ticker.Stop()
	p.done <- true
	if !p.silent && p.processed > 0 {
		fmt.Fprintf(os.Stderr, "\rHashing images: %d/%d (errors: %d)\n", p.processed, p.totalFiles, p.errors)
	}
}
