package resolver

import (
	"imagededup/dedup"
	"imagededup/logging"
)

// Decision labels how a group outcome was reached
type Decision int

const (
	// DecisionAuto means the oldest member was preserved and the rest
	// marked without review
	DecisionAuto Decision = iota
	// DecisionManual means the user chose the preserve set in the viewer
	DecisionManual
	// DecisionKeepAll means nothing was marked: the selection was empty,
	// cancelled, or unreadable, and deletion is never inferred from an
	// ambiguous response
	DecisionKeepAll
)

// Outcome records the fate of one duplicate group: which members survive and
// which are marked for deletion. Preserve and Delete always partition the
// members, and Preserve is never empty.
type Outcome struct {
	Members  []dedup.Record
	Preserve []string
	Delete   []string
	Decision Decision
}

// Selector presents a set of candidate duplicates to the user and returns
// the subset of paths to keep
type Selector interface {
	Select(paths []string) ([]string, error)
}

// Options configures group resolution
type Options struct {
	Threshold     float64  // display threshold t: links shown for manual review
	AutoThreshold float64  // auto threshold a: groups fully within it skip review
	AutoEnabled   bool     // auto-threshold was given on the command line
	PairsOnly     bool     // disable clustering, review one pair at a time
	Selector      Selector // manual review collaborator
}

// RetentionThreshold returns the distance below which pairs are retained for
// resolution. When auto mode is enabled with a threshold above t, auto
// deletion must still see those pairs even though they are never displayed.
func (o Options) RetentionThreshold() float64 {
	if o.AutoEnabled && o.AutoThreshold > o.Threshold {
		return o.AutoThreshold
	}
	return o.Threshold
}

// Resolve decides the fate of every duplicate group in the matrix. Groups
// whose pairwise distances all sit within the auto threshold resolve to
// "keep the oldest"; everything else falls through to manual review at the
// display threshold.
func Resolve(m *dedup.Matrix, opts Options) ([]Outcome, error) {
	if opts.PairsOnly {
		return resolvePairs(m, opts)
	}

	displayGroups := m.GroupsWithin(opts.Threshold)

	var outcomes []Outcome
	for _, group := range m.GroupsWithin(opts.RetentionThreshold()) {
		if opts.AutoEnabled && group.MaxDistance <= opts.AutoThreshold {
			outcomes = append(outcomes, autoResolve(group))
			continue
		}

		// The group did not qualify for automatic deletion; review the
		// parts of it that are connected at the display threshold
		reviewed, err := manualResolve(group, displayGroups, opts)
		if err != nil {
			return nil, err
		}
		outcomes = append(outcomes, reviewed...)
	}

	return outcomes, nil
}

// autoResolve preserves the single oldest member and marks all others
func autoResolve(group dedup.Group) Outcome {
	outcome := Outcome{
		Members:  group.Members,
		Preserve: []string{group.Oldest().Path},
		Decision: DecisionAuto,
	}
	for _, member := range group.Members[1:] {
		outcome.Delete = append(outcome.Delete, member.Path)
	}
	return outcome
}

// manualResolve picks out the display-threshold sub-clusters of the group
// and sends each one to the selector. Display links are a subset of the
// retention links, so every display group lies inside exactly one retention
// group; members only reachable through links above the display threshold
// are left untouched.
func manualResolve(group dedup.Group, displayGroups []dedup.Group, opts Options) ([]Outcome, error) {
	inGroup := make(map[string]bool, len(group.Members))
	for _, member := range group.Members {
		inGroup[member.Path] = true
	}

	var outcomes []Outcome
	for _, sub := range displayGroups {
		if !inGroup[sub.Oldest().Path] {
			continue
		}
		outcome, err := selectOutcome(sub.Members, opts.Selector)
		if err != nil {
			return nil, err
		}
		outcomes = append(outcomes, outcome)
	}

	return outcomes, nil
}

// selectOutcome asks the selector which members to keep. An empty, unknown,
// or failed selection preserves every member.
func selectOutcome(members []dedup.Record, selector Selector) (Outcome, error) {
	outcome := Outcome{Members: members}

	paths := make([]string, len(members))
	valid := make(map[string]bool, len(members))
	for i, member := range members {
		paths[i] = member.Path
		valid[member.Path] = true
	}

	var keep map[string]bool
	if selector != nil {
		selected, err := selector.Select(paths)
		if err != nil {
			logging.Warnf("selection failed, keeping all %d files: %v", len(members), err)
		} else {
			keep = make(map[string]bool, len(selected))
			for _, path := range selected {
				if valid[path] {
					keep[path] = true
				}
			}
		}
	}

	if len(keep) == 0 {
		outcome.Preserve = paths
		outcome.Decision = DecisionKeepAll
		return outcome, nil
	}

	outcome.Decision = DecisionManual
	for _, path := range paths {
		if keep[path] {
			outcome.Preserve = append(outcome.Preserve, path)
		} else {
			outcome.Delete = append(outcome.Delete, path)
		}
	}
	if len(outcome.Delete) == 0 {
		outcome.Decision = DecisionKeepAll
	}

	return outcome, nil
}

// resolvePairs walks qualifying pairs in ascending distance order without
// clustering, reviewing or auto-resolving one pair at a time. A pair is
// skipped when either side was already marked by an earlier, closer pair.
func resolvePairs(m *dedup.Matrix, opts Options) ([]Outcome, error) {
	marked := make(map[string]bool)

	var outcomes []Outcome
	for _, pair := range m.PairsWithin(opts.RetentionThreshold()) {
		if marked[pair.Path1] || marked[pair.Path2] {
			continue
		}

		older, ok1 := m.RecordFor(pair.Path1)
		newer, ok2 := m.RecordFor(pair.Path2)
		if !ok1 || !ok2 {
			continue
		}
		if newer.ModTime.Before(older.ModTime) {
			older, newer = newer, older
		}
		members := []dedup.Record{older, newer}

		if opts.AutoEnabled && pair.Distance <= opts.AutoThreshold {
			marked[newer.Path] = true
			outcomes = append(outcomes, Outcome{
				Members:  members,
				Preserve: []string{older.Path},
				Delete:   []string{newer.Path},
				Decision: DecisionAuto,
			})
			continue
		}

		if pair.Distance > opts.Threshold {
			continue
		}

		outcome, err := selectOutcome(members, opts.Selector)
		if err != nil {
			return nil, err
		}
		for _, path := range outcome.Delete {
			marked[path] = true
		}
		outcomes = append(outcomes, outcome)
	}

	return outcomes, nil
}
