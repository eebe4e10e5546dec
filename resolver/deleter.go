package resolver

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"imagededup/logging"
)

// Deleter removes the files condemned by group resolution. Deletion is
// in-place with no trash semantics; per-file failures are warnings and the
// batch continues.
type Deleter struct {
	Fs     afero.Fs
	DryRun bool
	In     io.Reader
	Out    io.Writer
}

// DeleteStats summarizes a deletion pass
type DeleteStats struct {
	Deleted        int
	Failed         int
	BytesReclaimed int64
}

// Run validates the outcomes, confirms with the user, and deletes every
// condemned file. Only files referenced by an outcome are ever touched, and
// an outcome that would delete every member of its group is a defect that
// aborts the pass before any filesystem mutation.
func (d *Deleter) Run(outcomes []Outcome) (DeleteStats, error) {
	var stats DeleteStats

	doomed, err := condemnedFiles(outcomes)
	if err != nil {
		return stats, err
	}
	if len(doomed) == 0 {
		fmt.Fprintln(d.Out, "No duplicates to delete.")
		return stats, nil
	}

	if d.DryRun {
		for _, path := range doomed {
			fmt.Fprintln(d.Out, path)
		}
		return stats, nil
	}

	fmt.Fprintln(d.Out, "About to delete:")
	fmt.Fprintln(d.Out, strings.Join(doomed, "\n"))
	if !d.confirm() {
		fmt.Fprintln(d.Out, "Aborted, nothing deleted.")
		return stats, nil
	}

	for _, path := range doomed {
		var size int64
		if info, err := d.Fs.Stat(path); err == nil {
			size = info.Size()
		}

		if err := d.Fs.Remove(path); err != nil {
			logging.Warnf("could not delete %s: %v", path, err)
			stats.Failed++
			continue
		}
		stats.Deleted++
		stats.BytesReclaimed += size
	}

	fmt.Fprintf(d.Out, "Deleted %d files, reclaimed %d bytes.\n", stats.Deleted, stats.BytesReclaimed)
	return stats, nil
}

// condemnedFiles flattens the outcomes into a sorted, deduplicated deletion
// list, enforcing the at-least-one-survivor invariant per group
func condemnedFiles(outcomes []Outcome) ([]string, error) {
	seen := make(map[string]bool)
	var doomed []string

	for _, outcome := range outcomes {
		if len(outcome.Delete) > 0 && len(outcome.Preserve) == 0 {
			return nil, fmt.Errorf("refusing to delete every member of a group of %d", len(outcome.Members))
		}
		for _, path := range outcome.Delete {
			if seen[path] {
				continue
			}
			seen[path] = true
			doomed = append(doomed, path)
		}
	}

	sort.Strings(doomed)
	return doomed, nil
}

// confirm asks for the final go-ahead. Anything starting with "n", or an
// unreadable answer, aborts.
func (d *Deleter) confirm() bool {
	fmt.Fprint(d.Out, "Ok to delete? [Y/n] ")

	line, err := bufio.NewReader(d.In).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	return !strings.HasPrefix(strings.ToLower(strings.TrimSpace(line)), "n")
}
