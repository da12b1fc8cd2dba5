package search

// spansFromPositions folds sorted rune positions into half-open spans.
func spansFromPositions(positions []int) []MatchSpan {
	if len(positions) == 0 {
		return nil
	}
	spans := make([]MatchSpan, len(positions))
	for i, pos := range positions {
		spans[i] = MatchSpan{Start: pos, End: pos + 1}
	}
	return MergeMatchSpans(spans)
}

// MergeMatchSpans joins overlapping or touching spans. Input must be sorted by Start.
func MergeMatchSpans(spans []MatchSpan) []MatchSpan {
	if len(spans) == 0 {
		return nil
	}
	merged := make([]MatchSpan, 0, len(spans))
	current := spans[0]
	for i := 1; i < len(spans); i++ {
		next := spans[i]
		if next.Start <= current.End {
			if next.End > current.End {
				current.End = next.End
			}
			continue
		}
		merged = append(merged, current)
		current = next
	}
	merged = append(merged, current)
	return merged
}

// ShiftSpans moves spans left by offset and drops what falls outside [0, limit).
func ShiftSpans(spans []MatchSpan, offset, limit int) []MatchSpan {
	var out []MatchSpan
	for _, span := range spans {
		start := max(span.Start-offset, 0)
		end := min(span.End-offset, limit)
		if end <= start {
			continue
		}
		out = append(out, MatchSpan{Start: start, End: end})
	}
	return out
}

// InSpans reports whether idx falls in any span.
func InSpans(spans []MatchSpan, idx int) bool {
	for _, span := range spans {
		if idx >= span.Start && idx < span.End {
			return true
		}
	}
	return false
}
