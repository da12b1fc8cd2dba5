package engine

import (
	"sync"

	"github.com/kk-code-lab/rfind/internal/search"
)

// Store holds the published result set. Readers always see a complete set:
// Replace swaps an immutable value under the write lock.
type Store struct {
	mu      sync.RWMutex
	results search.ResultSet
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) Replace(results search.ResultSet) {
	s.mu.Lock()
	s.results = results
	s.mu.Unlock()
}

func (s *Store) Snapshot() search.ResultSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.results
}

func (s *Store) Len() int {
	return s.Snapshot().Len()
}

// Page returns hits [index*size, min((index+1)*size, len)). An index past the
// end clamps to the last page, a negative index to the first, and a size
// below 1 is treated as 1.
func (s *Store) Page(index, size int) []search.Hit {
	results := s.Snapshot()
	start, end := pageBounds(results.Len(), index, size)
	return results.Slice(start, end)
}

// TotalPages is ceil(len/size), never less than 1.
func (s *Store) TotalPages(size int) int {
	return totalPages(s.Len(), size)
}

func totalPages(length, size int) int {
	if size < 1 {
		size = 1
	}
	if length == 0 {
		return 1
	}
	return (length + size - 1) / size
}

// ClampPage maps any requested index onto a valid page for length and size.
func ClampPage(length, index, size int) int {
	last := totalPages(length, size) - 1
	return max(0, min(index, last))
}

func pageBounds(length, index, size int) (int, int) {
	if size < 1 {
		size = 1
	}
	index = ClampPage(length, index, size)
	start := index * size
	end := min(start+size, length)
	return start, end
}
