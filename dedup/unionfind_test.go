package dedup

import "testing"

func TestUnionFindSingletons(t *testing.T) {
	uf := newUnionFind(4)
	for i := 0; i < 4; i++ {
		for j := i + 1; j < 4; j++ {
			if uf.find(i) == uf.find(j) {
				t.Errorf("fresh elements %d and %d share a root", i, j)
			}
		}
	}
}

func TestUnionFindTransitive(t *testing.T) {
	uf := newUnionFind(5)
	uf.union(0, 1)
	uf.union(1, 2)

	if uf.find(0) != uf.find(2) {
		t.Error("0 and 2 should be connected through 1")
	}
	if uf.find(0) == uf.find(3) {
		t.Error("3 should not be connected to the 0-1-2 component")
	}

	// Merging two components connects all their members
	uf.union(3, 4)
	uf.union(2, 3)
	if uf.find(0) != uf.find(4) {
		t.Error("components were not merged")
	}
}

func TestUnionFindIdempotent(t *testing.T) {
	uf := newUnionFind(3)
	uf.union(0, 1)
	uf.union(0, 1)
	uf.union(1, 0)

	if uf.find(0) != uf.find(1) {
		t.Error("0 and 1 should share a root")
	}
	if uf.find(2) == uf.find(0) {
		t.Error("2 should remain separate")
	}
}
