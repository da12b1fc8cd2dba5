package search

import (
	"fmt"
	"strings"
)

// Mode selects which pipeline answers a query.
type Mode int

const (
	ModeFilename Mode = iota
	ModeContent
)

func (m Mode) String() string {
	switch m {
	case ModeFilename:
		return "filename"
	case ModeContent:
		return "content"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Toggle returns the other search mode.
func (m Mode) Toggle() Mode {
	if m == ModeContent {
		return ModeFilename
	}
	return ModeContent
}

// ParseMode accepts "filename"/"name" and "content"/"grep".
func ParseMode(value string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "filename", "name", "file":
		return ModeFilename, nil
	case "content", "grep", "text":
		return ModeContent, nil
	default:
		return ModeFilename, fmt.Errorf("unknown search mode %q", value)
	}
}

// CandidatePath is a file discovered by the walk. Path is slash separated and
// relative to the root; Depth counts its segments.
type CandidatePath struct {
	Path  string
	Depth int
}

// MatchSpan is the half-open range [Start, End) of a match. Filename spans
// count runes of the path, content spans count bytes of the preview text.
type MatchSpan struct {
	Start int
	End   int
}

func (s MatchSpan) Len() int {
	return s.End - s.Start
}

// Hit is a single ranked result. The set of implementations is closed:
// FileHit and ContentHit.
type Hit interface {
	HitPath() string
	HitSpans() []MatchSpan
	rankKey() rankKey
}

// FileHit is a filename-mode result.
type FileHit struct {
	Path  string
	Score float64
	Spans []MatchSpan
}

func (h FileHit) HitPath() string       { return h.Path }
func (h FileHit) HitSpans() []MatchSpan { return h.Spans }
func (h FileHit) rankKey() rankKey {
	return rankKey{score: h.Score, path: h.Path}
}

// ContentHit is a content-mode result. Line is 1-based and Text is the
// display preview the spans refer to.
type ContentHit struct {
	Path  string
	Line  int
	Text  string
	Spans []MatchSpan
}

func (h ContentHit) HitPath() string       { return h.Path }
func (h ContentHit) HitSpans() []MatchSpan { return h.Spans }
func (h ContentHit) rankKey() rankKey {
	return rankKey{path: h.Path, line: h.Line}
}

// ScanStats summarises one content scan.
type ScanStats struct {
	FilesScanned int
	SkippedText  int
	Unreadable   int
	Hits         int
}

