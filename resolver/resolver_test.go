package resolver

import (
	"errors"
	"testing"
	"time"

	"imagededup/dedup"
)

var errFake = errors.New("viewer exploded")

func rec(path string, age int) dedup.Record {
	return dedup.Record{
		Path:    path,
		ModTime: time.Unix(int64(age), 0),
		Size:    100,
	}
}

func matrix(t *testing.T, records []dedup.Record, table map[[2]string]float64) *dedup.Matrix {
	t.Helper()
	m, err := dedup.ComputeMatrix(records, func(a, b dedup.Record) (float64, error) {
		if d, ok := table[[2]string{a.Path, b.Path}]; ok {
			return d, nil
		}
		if d, ok := table[[2]string{b.Path, a.Path}]; ok {
			return d, nil
		}
		return 1.0, nil
	})
	if err != nil {
		t.Fatalf("ComputeMatrix failed: %v", err)
	}
	return m
}

// fakeSelector records what it was shown and answers with a fixed keep set
type fakeSelector struct {
	keep  []string
	err   error
	shown [][]string
}

func (f *fakeSelector) Select(paths []string) ([]string, error) {
	f.shown = append(f.shown, paths)
	if f.err != nil {
		return nil, f.err
	}
	return f.keep, nil
}

func deleteSet(outcomes []Outcome) map[string]bool {
	set := make(map[string]bool)
	for _, o := range outcomes {
		for _, path := range o.Delete {
			set[path] = true
		}
	}
	return set
}

func TestAutoKeepsOldest(t *testing.T) {
	// A and B are near-duplicates, C is unrelated
	m := matrix(t,
		[]dedup.Record{rec("/a", 1), rec("/b", 2), rec("/c", 3)},
		map[[2]string]float64{
			{"/a", "/b"}: 0.05,
			{"/a", "/c"}: 0.9,
			{"/b", "/c"}: 0.9,
		})

	selector := &fakeSelector{}
	outcomes, err := Resolve(m, Options{
		Threshold:     0.3,
		AutoThreshold: 0.1,
		AutoEnabled:   true,
		Selector:      selector,
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if len(outcomes) != 1 {
		t.Fatalf("expected 1 outcome, got %d", len(outcomes))
	}
	o := outcomes[0]
	if o.Decision != DecisionAuto {
		t.Errorf("expected auto decision, got %v", o.Decision)
	}
	if len(o.Preserve) != 1 || o.Preserve[0] != "/a" {
		t.Errorf("expected to preserve the oldest /a, got %v", o.Preserve)
	}
	if len(o.Delete) != 1 || o.Delete[0] != "/b" {
		t.Errorf("expected to delete /b, got %v", o.Delete)
	}
	if deleteSet(outcomes)["/c"] {
		t.Error("/c should be untouched")
	}
	if len(selector.shown) != 0 {
		t.Errorf("viewer should not run in a fully auto-resolved run, shown %d times", len(selector.shown))
	}
}

func TestAutoCatchesPairsAboveDisplayThreshold(t *testing.T) {
	// With t=0 nothing is displayable, but the auto threshold still
	// catches the close pair
	m := matrix(t,
		[]dedup.Record{rec("/a", 1), rec("/b", 2), rec("/c", 3)},
		map[[2]string]float64{
			{"/a", "/b"}: 0.05,
			{"/a", "/c"}: 0.9,
			{"/b", "/c"}: 0.9,
		})

	selector := &fakeSelector{}
	outcomes, err := Resolve(m, Options{
		Threshold:     0,
		AutoThreshold: 0.2,
		AutoEnabled:   true,
		Selector:      selector,
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	set := deleteSet(outcomes)
	if !set["/b"] || len(set) != 1 {
		t.Errorf("expected exactly /b deleted, got %v", set)
	}
	if len(selector.shown) != 0 {
		t.Error("viewer should never be invoked with t=0")
	}
}

func TestLooseChainFallsThroughToManual(t *testing.T) {
	// A-B and B-C link tightly but A and C are far apart, so the group
	// must not auto-resolve: deleting across a long similarity chain
	// needs a human decision
	m := matrix(t,
		[]dedup.Record{rec("/a", 1), rec("/b", 2), rec("/c", 3)},
		map[[2]string]float64{
			{"/a", "/b"}: 0.05,
			{"/b", "/c"}: 0.05,
			{"/a", "/c"}: 0.5,
		})

	selector := &fakeSelector{keep: []string{"/a"}}
	outcomes, err := Resolve(m, Options{
		Threshold:     0.3,
		AutoThreshold: 0.1,
		AutoEnabled:   true,
		Selector:      selector,
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if len(selector.shown) != 1 {
		t.Fatalf("expected one viewer invocation, got %d", len(selector.shown))
	}
	if len(selector.shown[0]) != 3 {
		t.Errorf("expected all 3 chain members shown, got %v", selector.shown[0])
	}

	if len(outcomes) != 1 {
		t.Fatalf("expected 1 outcome, got %d", len(outcomes))
	}
	o := outcomes[0]
	if o.Decision != DecisionManual {
		t.Errorf("expected manual decision, got %v", o.Decision)
	}
	set := deleteSet(outcomes)
	if set["/a"] || !set["/b"] || !set["/c"] {
		t.Errorf("expected /b and /c deleted, got %v", set)
	}
}

func TestEmptySelectionPreservesAll(t *testing.T) {
	m := matrix(t,
		[]dedup.Record{rec("/a", 1), rec("/b", 2)},
		map[[2]string]float64{{"/a", "/b"}: 0.1})

	selector := &fakeSelector{keep: nil}
	outcomes, err := Resolve(m, Options{Threshold: 0.3, Selector: selector})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if len(outcomes) != 1 {
		t.Fatalf("expected 1 outcome, got %d", len(outcomes))
	}
	o := outcomes[0]
	if o.Decision != DecisionKeepAll {
		t.Errorf("expected keep-all decision, got %v", o.Decision)
	}
	if len(o.Delete) != 0 {
		t.Errorf("nothing should be deleted on an empty selection, got %v", o.Delete)
	}
	if len(o.Preserve) != 2 {
		t.Errorf("expected both members preserved, got %v", o.Preserve)
	}
}

func TestSelectionErrorPreservesAll(t *testing.T) {
	m := matrix(t,
		[]dedup.Record{rec("/a", 1), rec("/b", 2)},
		map[[2]string]float64{{"/a", "/b"}: 0.1})

	selector := &fakeSelector{err: errFake}
	outcomes, err := Resolve(m, Options{Threshold: 0.3, Selector: selector})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if len(deleteSet(outcomes)) != 0 {
		t.Error("a failed selection must not condemn anything")
	}
}

func TestManualSelectionIgnoresUnknownPaths(t *testing.T) {
	m := matrix(t,
		[]dedup.Record{rec("/a", 1), rec("/b", 2)},
		map[[2]string]float64{{"/a", "/b"}: 0.1})

	selector := &fakeSelector{keep: []string{"/b", "/elsewhere"}}
	outcomes, err := Resolve(m, Options{Threshold: 0.3, Selector: selector})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	set := deleteSet(outcomes)
	if !set["/a"] || set["/b"] || len(set) != 1 {
		t.Errorf("expected exactly /a deleted, got %v", set)
	}
}

func TestPairsOnlyMode(t *testing.T) {
	// Closest pair first: a-b auto-deletes /b, then b-c is skipped
	// because /b is already marked, and a-c is reviewed
	m := matrix(t,
		[]dedup.Record{rec("/a", 1), rec("/b", 2), rec("/c", 3)},
		map[[2]string]float64{
			{"/a", "/b"}: 0.02,
			{"/b", "/c"}: 0.1,
			{"/a", "/c"}: 0.2,
		})

	selector := &fakeSelector{keep: []string{"/a"}}
	outcomes, err := Resolve(m, Options{
		Threshold:     0.3,
		AutoThreshold: 0.05,
		AutoEnabled:   true,
		PairsOnly:     true,
		Selector:      selector,
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if len(selector.shown) != 1 {
		t.Fatalf("expected one reviewed pair, got %d", len(selector.shown))
	}
	shown := selector.shown[0]
	if len(shown) != 2 || shown[0] != "/a" || shown[1] != "/c" {
		t.Errorf("expected the a-c pair shown oldest first, got %v", shown)
	}

	set := deleteSet(outcomes)
	if !set["/b"] || !set["/c"] || set["/a"] {
		t.Errorf("expected /b (auto) and /c (manual) deleted, got %v", set)
	}
	if outcomes[0].Decision != DecisionAuto {
		t.Errorf("first outcome should be auto, got %v", outcomes[0].Decision)
	}
}

func TestPairsOnlyOrdersPairByAge(t *testing.T) {
	// The path-ordered pair is (new, old); review must still show the
	// older file first and auto mode must keep it
	m := matrix(t,
		[]dedup.Record{rec("/a-new", 9), rec("/b-old", 1)},
		map[[2]string]float64{{"/a-new", "/b-old"}: 0.01})

	outcomes, err := Resolve(m, Options{
		Threshold:     0.3,
		AutoThreshold: 0.05,
		AutoEnabled:   true,
		PairsOnly:     true,
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if len(outcomes) != 1 {
		t.Fatalf("expected 1 outcome, got %d", len(outcomes))
	}
	o := outcomes[0]
	if len(o.Preserve) != 1 || o.Preserve[0] != "/b-old" {
		t.Errorf("expected the older file preserved, got %v", o.Preserve)
	}
	if len(o.Delete) != 1 || o.Delete[0] != "/a-new" {
		t.Errorf("expected the newer file deleted, got %v", o.Delete)
	}
}

func TestNoAutoWithoutFlag(t *testing.T) {
	m := matrix(t,
		[]dedup.Record{rec("/a", 1), rec("/b", 2)},
		map[[2]string]float64{{"/a", "/b"}: 0.01})

	selector := &fakeSelector{keep: nil}
	outcomes, err := Resolve(m, Options{Threshold: 0.3, Selector: selector})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	// Even the closest pair goes to review when auto mode is off
	if len(selector.shown) != 1 {
		t.Errorf("expected one viewer invocation, got %d", len(selector.shown))
	}
	if len(deleteSet(outcomes)) != 0 {
		t.Error("nothing should be deleted without a selection")
	}
}
