package dedup

import (
	"sort"
	"time"

	"imagededup/hasher"
)

// Record holds the information kept about one successfully hashed image.
// Records are created once during the scan phase and never mutated.
type Record struct {
	Path    string
	Hash    hasher.Hash
	ModTime time.Time
	Size    int64
}

// Pair is an unordered pair of records whose hashes are within some distance
// of each other. Path1 always sorts before Path2.
type Pair struct {
	Path1    string
	Path2    string
	Distance float64
}

// Group is a cluster of records connected by pairwise distances at or below
// a threshold. Members are sorted oldest first (timestamp, then path) and a
// group always has at least two of them.
type Group struct {
	Members []Record

	// Min and max pairwise distance over all member pairs, not just the
	// linking edges. MaxDistance decides auto-delete qualification.
	MinDistance float64
	MaxDistance float64
}

// Oldest returns the member with the earliest timestamp
func (g Group) Oldest() Record {
	return g.Members[0]
}

// Paths returns the member paths in member order
func (g Group) Paths() []string {
	paths := make([]string, len(g.Members))
	for i, m := range g.Members {
		paths[i] = m.Path
	}
	return paths
}

// DistanceFunc computes the perceptual distance between two records
type DistanceFunc func(a, b Record) (float64, error)

// Matrix holds every pairwise distance between a fixed set of records.
// Distances are computed once (O(n²) comparisons) and queried at different
// thresholds afterwards.
type Matrix struct {
	records []Record
	dist    [][]float64
	byPath  map[string]int
}

// ComputeMatrix compares every unordered pair of records with distance.
// Records are ordered oldest first so that grouping output is deterministic
// for a fixed input set.
func ComputeMatrix(records []Record, distance DistanceFunc) (*Matrix, error) {
	ordered := make([]Record, len(records))
	copy(ordered, records)
	sort.Slice(ordered, func(i, j int) bool {
		if !ordered[i].ModTime.Equal(ordered[j].ModTime) {
			return ordered[i].ModTime.Before(ordered[j].ModTime)
		}
		return ordered[i].Path < ordered[j].Path
	})

	m := &Matrix{
		records: ordered,
		dist:    make([][]float64, len(ordered)),
		byPath:  make(map[string]int, len(ordered)),
	}

	for i := range ordered {
		m.dist[i] = make([]float64, len(ordered))
		m.byPath[ordered[i].Path] = i
	}

	for i := 0; i < len(ordered); i++ {
		for j := i + 1; j < len(ordered); j++ {
			d, err := distance(ordered[i], ordered[j])
			if err != nil {
				return nil, err
			}
			m.dist[i][j] = d
			m.dist[j][i] = d
		}
	}

	return m, nil
}

// Len returns the number of records in the matrix
func (m *Matrix) Len() int {
	return len(m.records)
}

// RecordFor looks up the record for a path
func (m *Matrix) RecordFor(path string) (Record, bool) {
	i, ok := m.byPath[path]
	if !ok {
		return Record{}, false
	}
	return m.records[i], true
}

// DistanceBetween returns the stored distance between two records by path
func (m *Matrix) DistanceBetween(path1, path2 string) (float64, bool) {
	i, ok1 := m.byPath[path1]
	j, ok2 := m.byPath[path2]
	if !ok1 || !ok2 {
		return 0, false
	}
	return m.dist[i][j], true
}

// PairsWithin returns every pair with distance at or below threshold, sorted
// by ascending distance with ties broken by path order. For thresholds
// t1 < t2 the result at t1 is a subset of the result at t2.
func (m *Matrix) PairsWithin(threshold float64) []Pair {
	var pairs []Pair
	for i := 0; i < len(m.records); i++ {
		for j := i + 1; j < len(m.records); j++ {
			if m.dist[i][j] > threshold {
				continue
			}
			p1, p2 := m.records[i].Path, m.records[j].Path
			if p2 < p1 {
				p1, p2 = p2, p1
			}
			pairs = append(pairs, Pair{Path1: p1, Path2: p2, Distance: m.dist[i][j]})
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Distance != pairs[j].Distance {
			return pairs[i].Distance < pairs[j].Distance
		}
		if pairs[i].Path1 != pairs[j].Path1 {
			return pairs[i].Path1 < pairs[j].Path1
		}
		return pairs[i].Path2 < pairs[j].Path2
	})

	return pairs
}

// GroupsWithin clusters records into connected components over pairs with
// distance at or below threshold. Grouping is transitive: if A~B and B~C
// qualify, A, B and C form one group even when A~C exceeds the threshold.
// Groups are sorted by their lexicographically smallest member path.
func (m *Matrix) GroupsWithin(threshold float64) []Group {
	uf := newUnionFind(len(m.records))
	for i := 0; i < len(m.records); i++ {
		for j := i + 1; j < len(m.records); j++ {
			if m.dist[i][j] <= threshold {
				uf.union(i, j)
			}
		}
	}

	components := make(map[int][]int)
	for i := range m.records {
		root := uf.find(i)
		components[root] = append(components[root], i)
	}

	var groups []Group
	for _, members := range components {
		if len(members) < 2 {
			continue
		}
		groups = append(groups, m.buildGroup(members))
	}

	sort.Slice(groups, func(i, j int) bool {
		return smallestPath(groups[i]) < smallestPath(groups[j])
	})

	return groups
}

// buildGroup assembles a Group from member indices, computing the min and
// max distance over all member pairs
func (m *Matrix) buildGroup(members []int) Group {
	group := Group{Members: make([]Record, 0, len(members))}

	for _, i := range members {
		group.Members = append(group.Members, m.records[i])
	}
	// Records are already ordered oldest first in the matrix
	sort.Ints(members)

	group.MinDistance = m.dist[members[0]][members[1]]
	for x := 0; x < len(members); x++ {
		for y := x + 1; y < len(members); y++ {
			d := m.dist[members[x]][members[y]]
			if d < group.MinDistance {
				group.MinDistance = d
			}
			if d > group.MaxDistance {
				group.MaxDistance = d
			}
		}
	}

	sort.Slice(group.Members, func(i, j int) bool {
		if !group.Members[i].ModTime.Equal(group.Members[j].ModTime) {
			return group.Members[i].ModTime.Before(group.Members[j].ModTime)
		}
		return group.Members[i].Path < group.Members[j].Path
	})

	return group
}

func smallestPath(g Group) string {
	smallest := g.Members[0].Path
	for _, m := range g.Members[1:] {
		if m.Path < smallest {
			smallest = m.Path
		}
	}
	return smallest
}
