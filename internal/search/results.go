package search

import (
	"cmp"
	"slices"
	"strings"
)

type rankKey struct {
	score float64
	path  string
	line  int
}

// compareKeys is the total order of a result set: filename hits by
// descending score then path, content hits by path then line.
func compareKeys(mode Mode, a, b rankKey) int {
	if mode == ModeFilename {
		if c := cmp.Compare(b.score, a.score); c != 0 {
			return c
		}
	}
	if c := strings.Compare(a.path, b.path); c != 0 {
		return c
	}
	switch {
	case a.line < b.line:
		return -1
	case a.line > b.line:
		return 1
	default:
		return 0
	}
}

func compareFileHits(a, b FileHit) int {
	return compareKeys(ModeFilename, a.rankKey(), b.rankKey())
}

func compareContentHits(a, b ContentHit) int {
	return compareKeys(ModeContent, a.rankKey(), b.rankKey())
}

// ResultSet is an immutable ranked sequence of hits of a single mode.
// The zero value is an empty filename result set.
type ResultSet struct {
	mode Mode
	hits []Hit
}

// NewFileResults ranks filename hits. The input slice is not modified.
func NewFileResults(hits []FileHit) ResultSet {
	sorted := slices.Clone(hits)
	slices.SortStableFunc(sorted, compareFileHits)
	out := make([]Hit, len(sorted))
	for i, h := range sorted {
		out[i] = h
	}
	return ResultSet{mode: ModeFilename, hits: out}
}

// NewContentResults ranks content hits. The input slice is not modified.
func NewContentResults(hits []ContentHit) ResultSet {
	sorted := slices.Clone(hits)
	slices.SortStableFunc(sorted, compareContentHits)
	out := make([]Hit, len(sorted))
	for i, h := range sorted {
		out[i] = h
	}
	return ResultSet{mode: ModeContent, hits: out}
}

// EmptyResults returns an empty set tagged with mode.
func EmptyResults(mode Mode) ResultSet {
	return ResultSet{mode: mode}
}

func (rs ResultSet) Mode() Mode { return rs.mode }

func (rs ResultSet) Len() int { return len(rs.hits) }

func (rs ResultSet) At(i int) Hit { return rs.hits[i] }

// Slice copies hits [start, end) after clamping both bounds.
func (rs ResultSet) Slice(start, end int) []Hit {
	start = max(0, min(start, len(rs.hits)))
	end = max(start, min(end, len(rs.hits)))
	if start == end {
		return nil
	}
	return slices.Clone(rs.hits[start:end])
}
