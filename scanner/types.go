package scanner

// ScanOptions defines the options for collecting and hashing image files
type ScanOptions struct {
	Force      bool       // hash files regardless of extension
	Quiet      bool       // suppress skip warnings and progress output
	MaxWorkers int        // hashing goroutine limit (0 = sequential)
	Times      TimeSource // optional capture-time source; nil falls back to mtime
}

// HashFailure records a file whose perceptual hash could not be computed.
// A failure never aborts the run; it is surfaced as a warning at the end
// unless quiet mode is set.
type HashFailure struct {
	Path string
	Err  error
}
