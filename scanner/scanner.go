package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"imagededup/dedup"
	"imagededup/hasher"
	"imagededup/logging"
)

// CollectTargets expands the positional targets into a deduplicated list of
// files to hash. File targets are taken as-is, directory targets are walked
// recursively. Files failing the extension check are silently skipped unless
// force is set. A target that does not exist is a fatal error.
func CollectTargets(fs afero.Fs, targets []string, opts ScanOptions) ([]string, error) {
	seen := make(map[string]bool)
	var files []string

	appendFile := func(path string) {
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = filepath.Clean(path)
		}
		if seen[abs] {
			return
		}
		seen[abs] = true
		files = append(files, abs)
	}

	for _, target := range targets {
		info, err := fs.Stat(target)
		if err != nil {
			return nil, fmt.Errorf("could not find %s", target)
		}

		if !info.IsDir() {
			if IsImageFile(target) || opts.Force {
				appendFile(target)
			} else {
				logging.Debugf("%s is not a compatible image format, skipping...", target)
			}
			continue
		}

		err = afero.Walk(fs, target, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				logging.Debugf("error accessing path %s: %v", path, err)
				return nil // Skip files that can't be accessed
			}
			if info.IsDir() {
				return nil
			}
			if IsImageFile(path) || opts.Force {
				appendFile(path)
			} else {
				logging.Debugf("%s is not a compatible image format, skipping...", path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("could not walk %s: %v", target, err)
		}
	}

	sort.Strings(files)
	return files, nil
}

// HashFiles computes a perceptual hash for every file, producing one record
// per success and one failure entry per file that could not be hashed.
// Hashing runs in parallel across files since each record is independent.
// Records come back sorted oldest first so that older files are preferred
// by the resolution policies.
func HashFiles(fs afero.Fs, h hasher.Hasher, files []string, opts ScanOptions) ([]dedup.Record, []HashFailure) {
	var (
		mu       sync.Mutex
		records  []dedup.Record
		failures []HashFailure
	)

	tracker := newProgressTracker(len(files), opts.Quiet)
	defer tracker.stop()

	workers := opts.MaxWorkers
	if workers < 1 {
		workers = 1
	}

	var group errgroup.Group
	group.SetLimit(workers)

	for _, path := range files {
		path := path
		group.Go(func() error {
			record, err := hashOneFile(fs, h, path, opts)

			mu.Lock()
			if err != nil {
				failures = append(failures, HashFailure{Path: path, Err: err})
			} else {
				records = append(records, record)
			}
			mu.Unlock()

			tracker.record(err == nil)
			return nil
		})
	}

	// Workers never return errors; per-file failures are collected instead
	group.Wait()

	sort.Slice(records, func(i, j int) bool {
		if !records[i].ModTime.Equal(records[j].ModTime) {
			return records[i].ModTime.Before(records[j].ModTime)
		}
		return records[i].Path < records[j].Path
	})
	sort.Slice(failures, func(i, j int) bool {
		return failures[i].Path < failures[j].Path
	})

	return records, failures
}

// hashOneFile produces the record for a single file
func hashOneFile(fs afero.Fs, h hasher.Hasher, path string, opts ScanOptions) (dedup.Record, error) {
	info, err := fs.Stat(path)
	if err != nil {
		return dedup.Record{}, fmt.Errorf("cannot stat file: %v", err)
	}

	timestamp := info.ModTime()
	if opts.Times != nil {
		if captured, err := opts.Times.FileTime(path); err == nil {
			timestamp = captured
		} else {
			logging.Debugf("no capture time for %s, using mtime: %v", path, err)
		}
	}

	hash, err := h.HashFile(path)
	if err != nil {
		return dedup.Record{}, err
	}

	return dedup.Record{
		Path:    path,
		Hash:    hash,
		ModTime: timestamp,
		Size:    info.Size(),
	}, nil
}
