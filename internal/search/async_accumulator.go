package search

import (
	"slices"
	"sync"
	"time"
)

const (
	batchIntervalFast         = 75 * time.Millisecond
	batchIntervalSlow         = 200 * time.Millisecond
	batchForceSize            = 400
	batchFastThreshold        = 40
	initialImmediateBatchSize = 10
)

// hitAccumulator gathers content hits from concurrent workers and hands
// ranked snapshots to a callback in batches driven by size and elapsed time.
type hitAccumulator struct {
	// flushMu keeps snapshots reaching the callback in the order they were taken.
	flushMu  sync.Mutex
	mu       sync.Mutex
	hits     []ContentHit
	lastSize int
	lastTime time.Time
	callback func([]ContentHit)
}

func newHitAccumulator(callback func([]ContentHit)) *hitAccumulator {
	return &hitAccumulator{
		lastTime: time.Now(),
		callback: callback,
	}
}

// Add appends the hits of one file and flushes when a batch is due.
func (a *hitAccumulator) Add(hits []ContentHit) {
	if len(hits) == 0 {
		return
	}
	a.mu.Lock()
	a.hits = append(a.hits, hits...)
	a.mu.Unlock()
	a.Flush(false)
}

func (a *hitAccumulator) Flush(force bool) {
	if a.callback == nil {
		return
	}
	a.flushMu.Lock()
	defer a.flushMu.Unlock()
	snapshot := a.collect(force)
	if snapshot == nil {
		return
	}
	slices.SortStableFunc(snapshot, compareContentHits)
	a.callback(snapshot)
}

func (a *hitAccumulator) collect(force bool) []ContentHit {
	a.mu.Lock()
	defer a.mu.Unlock()
	current := len(a.hits)
	if current <= a.lastSize {
		return nil
	}
	if !force && !shouldFlushBatch(a.lastSize, current, a.lastTime) {
		return nil
	}
	a.lastSize = current
	a.lastTime = time.Now()
	return slices.Clone(a.hits)
}

// Results returns every accumulated hit, ranked.
func (a *hitAccumulator) Results() []ContentHit {
	a.mu.Lock()
	out := slices.Clone(a.hits)
	a.mu.Unlock()
	slices.SortStableFunc(out, compareContentHits)
	return out
}

func shouldFlushBatch(lastSize, currentSize int, lastTime time.Time) bool {
	if currentSize <= lastSize {
		return false
	}
	delta := currentSize - lastSize
	if lastSize == 0 && currentSize >= initialImmediateBatchSize {
		return true
	}
	if delta >= batchForceSize {
		return true
	}

	interval := batchIntervalSlow
	if delta <= batchFastThreshold {
		interval = batchIntervalFast
	}
	return time.Since(lastTime) >= interval
}
