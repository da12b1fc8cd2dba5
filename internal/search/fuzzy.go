package search

import (
	"context"
	"math"
	"runtime"
	"sync"
	"unicode"

	"golang.org/x/sync/errgroup"
)

// DefaultParallelThreshold is the candidate count above which ScoreAll fans
// out across goroutines.
const DefaultParallelThreshold = 4096

const scoreChunkSize = 1024

// Match describes how a query aligned with a candidate. Positions are rune
// indexes of the matched characters, Spans the same positions folded into
// half-open ranges.
type Match struct {
	Score     float64
	Positions []int
	Spans     []MatchSpan
}

// FuzzyScorer performs case-insensitive subsequence matching and picks the
// highest scoring alignment with dynamic programming.
//
// Scoring, per matched rune:
//   - base score
//   - consecutive bonus when it directly follows the previous match
//   - boundary bonus when it opens a run at a word start (candidate start,
//     after a separator, camel-case hump)
//   - filename bonus when the first rune lands at the start of the last segment
//   - gap penalty per skipped rune, larger for a skipped '/'
//
// plus a capped penalty for the leading offset and for the candidate length.
// A run continuation is worth more than a boundary opening after a gap by
// more than the filename bonus and the length cap together, so a contiguous
// prefix always beats a scattered match of the same runes.
type FuzzyScorer struct {
	charScore           float64
	consecutiveBonus    float64
	boundaryBonus       float64
	filenameStartBonus  float64
	gapPenalty          float64
	separatorGapPenalty float64
	leadingPenalty      float64
	maxLeadingPenalty   float64
	lengthPenalty       float64
	maxLengthPenalty    float64

	// ParallelThreshold overrides DefaultParallelThreshold when positive.
	ParallelThreshold int
}

func NewFuzzyScorer() *FuzzyScorer {
	return &FuzzyScorer{
		charScore:           1.0,
		consecutiveBonus:    2.0,
		boundaryBonus:       0.8,
		filenameStartBonus:  1.0,
		gapPenalty:          0.2,
		separatorGapPenalty: 0.5,
		leadingPenalty:      0.01,
		maxLeadingPenalty:   0.3,
		lengthPenalty:       0.005,
		maxLengthPenalty:    0.3,
		ParallelThreshold:   DefaultParallelThreshold,
	}
}

// Score matches query against candidate. An empty query matches everything
// with score 0 and no spans.
func (fs *FuzzyScorer) Score(query, candidate string) (Match, bool) {
	pattern := foldRunes(query)
	if len(pattern) == 0 {
		return Match{}, true
	}

	text := []rune(candidate)
	folded := make([]rune, len(text))
	for i, r := range text {
		folded[i] = unicode.ToLower(r)
	}
	if !isSubsequence(pattern, folded) {
		return Match{}, false
	}

	score, positions := fs.align(pattern, text, folded)
	if positions == nil {
		return Match{}, false
	}
	return Match{
		Score:     score,
		Positions: positions,
		Spans:     spansFromPositions(positions),
	}, true
}

type dpScratch struct {
	prev     []float64
	curr     []float64
	back     []int32
	slashes  []int32
	boundary []bool
}

var dpScratchPool = sync.Pool{
	New: func() any {
		return &dpScratch{}
	},
}

func acquireDPScratch(rows, cols int) *dpScratch {
	s := dpScratchPool.Get().(*dpScratch)
	s.prev = resize(s.prev, cols)
	s.curr = resize(s.curr, cols)
	s.back = resize(s.back, rows*cols)
	s.slashes = resize(s.slashes, cols+1)
	s.boundary = resize(s.boundary, cols)
	return s
}

func releaseDPScratch(s *dpScratch) {
	if s == nil {
		return
	}
	dpScratchPool.Put(s)
}

func resize[T any](buf []T, n int) []T {
	if cap(buf) < n {
		return make([]T, n)
	}
	return buf[:n]
}

// align runs the DP. dp[i][j] is the best score of matching pattern[:i+1]
// with pattern[i] placed on text[j]. Gap predecessors are folded into a
// running maximum so each row is linear in the candidate length.
func (fs *FuzzyScorer) align(pattern, text, folded []rune) (float64, []int) {
	m, n := len(pattern), len(text)
	if m == 0 || m > n {
		return 0, nil
	}

	scratch := acquireDPScratch(m, n)
	defer releaseDPScratch(scratch)

	negInf := math.Inf(-1)
	prev, curr, back := scratch.prev, scratch.curr, scratch.back
	slashes, boundary := scratch.slashes, scratch.boundary

	finalStart := 0
	slashes[0] = 0
	for j, r := range text {
		slashes[j+1] = slashes[j]
		if r == '/' {
			slashes[j+1]++
			finalStart = j + 1
		}
		boundary[j] = isBoundaryRune(text, j)
	}

	local := func(j int) float64 {
		score := fs.charScore
		if boundary[j] {
			score += fs.boundaryBonus
		}
		return score
	}

	for j := 0; j < n; j++ {
		prev[j] = negInf
		if folded[j] != pattern[0] {
			continue
		}
		score := local(j) - math.Min(fs.leadingPenalty*float64(j), fs.maxLeadingPenalty)
		if j == finalStart {
			score += fs.filenameStartBonus
		}
		prev[j] = score
	}

	for i := 1; i < m; i++ {
		bestGap := negInf
		bestGapIdx := -1
		row := back[i*n : (i+1)*n]
		for j := 0; j < n; j++ {
			// Predecessor j-2 is the newest one that leaves a gap before j.
			if p := j - 2; p >= 0 && prev[p] > negInf {
				v := prev[p] + fs.gapPenalty*float64(p) + fs.separatorGapPenalty*float64(slashes[p+1])
				if v > bestGap {
					bestGap = v
					bestGapIdx = p
				}
			}

			curr[j] = negInf
			if folded[j] != pattern[i] {
				continue
			}

			best := negInf
			from := -1
			if bestGapIdx >= 0 {
				best = bestGap - fs.gapPenalty*float64(j-1) - fs.separatorGapPenalty*float64(slashes[j]) + local(j)
				from = bestGapIdx
			}
			if j > 0 && prev[j-1] > negInf {
				if v := prev[j-1] + fs.charScore + fs.consecutiveBonus; v > best {
					best = v
					from = j - 1
				}
			}
			if from < 0 {
				continue
			}
			curr[j] = best
			row[j] = int32(from)
		}
		prev, curr = curr, prev
	}

	bestEnd := -1
	best := negInf
	for j := 0; j < n; j++ {
		if prev[j] > best {
			best = prev[j]
			bestEnd = j
		}
	}
	if bestEnd < 0 {
		return 0, nil
	}

	positions := make([]int, m)
	k := bestEnd
	for i := m - 1; i >= 0; i-- {
		positions[i] = k
		if i > 0 {
			k = int(back[i*n+k])
		}
	}

	best -= math.Min(fs.lengthPenalty*float64(n), fs.maxLengthPenalty)
	return best, positions
}

// ScoreAll scores every candidate and returns the matching ones in input
// order. Large inputs are split across goroutines; the context is checked
// between chunks.
func (fs *FuzzyScorer) ScoreAll(ctx context.Context, query string, candidates []CandidatePath) ([]FileHit, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	threshold := fs.ParallelThreshold
	if threshold <= 0 {
		threshold = DefaultParallelThreshold
	}
	if len(candidates) <= threshold {
		return fs.scoreRange(ctx, query, candidates)
	}

	workers := runtime.GOMAXPROCS(0)
	chunk := (len(candidates) + workers - 1) / workers
	parts := make([][]FileHit, workers)

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		w := w
		start := w * chunk
		if start >= len(candidates) {
			break
		}
		end := min(start+chunk, len(candidates))
		g.Go(func() error {
			hits, err := fs.scoreRange(gctx, query, candidates[start:end])
			parts[w] = hits
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, part := range parts {
		total += len(part)
	}
	hits := make([]FileHit, 0, total)
	for _, part := range parts {
		hits = append(hits, part...)
	}
	return hits, nil
}

func (fs *FuzzyScorer) scoreRange(ctx context.Context, query string, candidates []CandidatePath) ([]FileHit, error) {
	var hits []FileHit
	for i, candidate := range candidates {
		if i%scoreChunkSize == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		match, ok := fs.Score(query, candidate.Path)
		if !ok {
			continue
		}
		hits = append(hits, FileHit{
			Path:  candidate.Path,
			Score: match.Score,
			Spans: match.Spans,
		})
	}
	return hits, nil
}

func foldRunes(s string) []rune {
	if s == "" {
		return nil
	}
	out := make([]rune, 0, len(s))
	for _, r := range s {
		out = append(out, unicode.ToLower(r))
	}
	return out
}

func isSubsequence(pattern, text []rune) bool {
	i := 0
	for _, r := range text {
		if i < len(pattern) && r == pattern[i] {
			i++
		}
	}
	return i == len(pattern)
}

// isBoundaryRune reports a word start: the first rune, a rune after a
// separator, or an upper-case rune following a lower-case one.
func isBoundaryRune(text []rune, idx int) bool {
	if idx == 0 {
		return true
	}
	prev := text[idx-1]
	switch prev {
	case '/', '\\', '_', '-', '.', ' ':
		return true
	}
	return unicode.IsLower(prev) && unicode.IsUpper(text[idx])
}
