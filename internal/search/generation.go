package search

import "sync/atomic"

// Generation is a monotonically increasing query counter. Work captures the
// value it started under and drops its output once a newer value exists.
type Generation struct {
	value atomic.Uint64
}

// Next supersedes all in-flight work and returns the new generation.
func (g *Generation) Next() uint64 {
	return g.value.Add(1)
}

func (g *Generation) Current() uint64 {
	return g.value.Load()
}

func (g *Generation) IsCurrent(id uint64) bool {
	return g.value.Load() == id
}
