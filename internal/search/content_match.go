package search

import (
	"bytes"
	"unicode"
	"unicode/utf8"
)

// needle is a query prepared for case-insensitive line matching.
type needle struct {
	folded string
	ascii  bool
	runes  int
}

func newNeedle(query string) needle {
	folded := string(foldRunes(query))
	return needle{
		folded: folded,
		ascii:  isASCII(folded),
		runes:  utf8.RuneCountInString(folded),
	}
}

// index returns the byte range of the first case-insensitive occurrence of
// the needle in line.
func (n needle) index(line []byte) (start, end int, ok bool) {
	if n.folded == "" {
		return 0, 0, false
	}
	if n.ascii && isASCII(line) {
		idx := indexASCIIFold(line, n.folded)
		if idx < 0 {
			return 0, 0, false
		}
		return idx, idx + len(n.folded), true
	}
	for i := 0; i < len(line); {
		if end, ok := matchesAtFolded(line, i, n.folded); ok {
			return i, end, true
		}
		_, size := utf8.DecodeRune(line[i:])
		i += size
	}
	return 0, 0, false
}

// matchesAtFolded compares rune by rune from start and reports the byte
// offset just past the match. Offsets stay those of the original line even
// when a rune's lower-case form has a different encoded length.
func matchesAtFolded(haystack []byte, start int, foldedNeedle string) (int, bool) {
	h := start
	for _, nr := range foldedNeedle {
		if h >= len(haystack) {
			return 0, false
		}
		hr, size := utf8.DecodeRune(haystack[h:])
		if unicode.ToLower(hr) != nr {
			return 0, false
		}
		h += size
	}
	return h, true
}

func indexASCIIFold(haystack []byte, foldedNeedle string) int {
	n := len(foldedNeedle)
	if n == 0 {
		return 0
	}
	first := foldedNeedle[0]
	for i := 0; i+n <= len(haystack); i++ {
		if lowerASCII(haystack[i]) != first {
			continue
		}
		j := 1
		for j < n && lowerASCII(haystack[i+j]) == foldedNeedle[j] {
			j++
		}
		if j == n {
			return i
		}
	}
	return -1
}

func lowerASCII(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b + ('a' - 'A')
	}
	return b
}

func isASCII[T string | []byte](s T) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// previewLine trims the line for display and shifts the match span to match.
// Lines longer than maxBytes are cut to a window around the match, aligned to
// rune boundaries.
func previewLine(line []byte, start, end, maxBytes int) (string, MatchSpan) {
	line = bytes.TrimRight(line, "\r\n")
	if end > len(line) {
		end = len(line)
	}

	trimmed := bytes.TrimLeftFunc(line, unicode.IsSpace)
	offset := len(line) - len(trimmed)
	if offset > start {
		// The match itself begins with whitespace; keep it intact.
		offset = start
		trimmed = line[offset:]
	}
	start -= offset
	end -= offset

	if maxBytes <= 0 || len(trimmed) <= maxBytes {
		return string(trimmed), MatchSpan{Start: start, End: end}
	}

	matchLen := end - start
	if matchLen >= maxBytes {
		windowEnd := runeBoundaryBefore(trimmed, start+maxBytes)
		return string(trimmed[start:windowEnd]), MatchSpan{Start: 0, End: windowEnd - start}
	}

	lead := (maxBytes - matchLen) / 2
	windowStart := max(0, start-lead)
	windowEnd := windowStart + maxBytes
	if windowEnd > len(trimmed) {
		windowEnd = len(trimmed)
		windowStart = max(0, windowEnd-maxBytes)
	}
	windowStart = runeBoundaryAfter(trimmed, windowStart)
	windowEnd = runeBoundaryBefore(trimmed, windowEnd)
	return string(trimmed[windowStart:windowEnd]), MatchSpan{Start: start - windowStart, End: end - windowStart}
}

func runeBoundaryAfter(b []byte, i int) int {
	for i < len(b) && !utf8.RuneStart(b[i]) {
		i++
	}
	return i
}

func runeBoundaryBefore(b []byte, i int) int {
	if i >= len(b) {
		return len(b)
	}
	for i > 0 && !utf8.RuneStart(b[i]) {
		i--
	}
	return i
}
