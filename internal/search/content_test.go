package search

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func newTestScanner(t *testing.T, opts ContentScannerOptions) *ContentScanner {
	t.Helper()
	if opts.Workers == 0 {
		opts.Workers = 4
	}
	scanner, err := NewContentScanner(opts)
	if err != nil {
		t.Fatalf("NewContentScanner: %v", err)
	}
	t.Cleanup(scanner.Close)
	return scanner
}

func candidates(paths ...string) []CandidatePath {
	out := make([]CandidatePath, len(paths))
	for i, p := range paths {
		out[i] = CandidatePath{Path: p, Depth: strings.Count(p, "/") + 1}
	}
	return out
}

func TestContentScanFindsHitsAcrossCollectedFiles(t *testing.T) {
	isolateGlobalIgnores(t)
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"src/main.txt":    "hello world",
		"src/ignored.txt": "hello",
		"src/.gitignore":  "ignored.txt\n",
		"docs/readme.txt": "hello",
	})
	walk, err := NewCollector(root, DefaultCollectorOptions()).Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}

	scanner := newTestScanner(t, ContentScannerOptions{})
	result, err := scanner.Scan(context.Background(), ScanRequest{Root: root, Query: "hello", Paths: walk.Paths})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(result.Hits) != 2 {
		t.Fatalf("expected 2 hits, got %#v", result.Hits)
	}
	if result.Hits[0].Path != "docs/readme.txt" || result.Hits[0].Line != 1 {
		t.Fatalf("unexpected first hit %#v", result.Hits[0])
	}
	if result.Hits[1].Path != "src/main.txt" || result.Hits[1].Line != 1 {
		t.Fatalf("unexpected second hit %#v", result.Hits[1])
	}
	if result.Stats.FilesScanned != 2 || result.Stats.Hits != 2 {
		t.Fatalf("unexpected stats %+v", result.Stats)
	}
}

func TestContentScanCaseInsensitiveFirstOccurrence(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a.txt": "nothing here\n  Foo bar FOO\r\nbaz\nxfoo\n",
	})

	scanner := newTestScanner(t, ContentScannerOptions{})
	result, err := scanner.Scan(context.Background(), ScanRequest{Root: root, Query: "foo", Paths: candidates("a.txt")})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(result.Hits) != 2 {
		t.Fatalf("expected 2 hits, got %#v", result.Hits)
	}

	first := result.Hits[0]
	if first.Line != 2 || first.Text != "Foo bar FOO" {
		t.Fatalf("unexpected first hit %#v", first)
	}
	if len(first.Spans) != 1 || first.Spans[0] != (MatchSpan{Start: 0, End: 3}) {
		t.Fatalf("unexpected spans %v", first.Spans)
	}

	second := result.Hits[1]
	if second.Line != 4 || second.Text[second.Spans[0].Start:second.Spans[0].End] != "foo" {
		t.Fatalf("unexpected second hit %#v", second)
	}
}

func TestContentScanUnicodeSpansAreByteOffsets(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"pl.txt": "Zażółć Gęślą jaźń\n"})

	scanner := newTestScanner(t, ContentScannerOptions{})
	result, err := scanner.Scan(context.Background(), ScanRequest{Root: root, Query: "GĘŚ", Paths: candidates("pl.txt")})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(result.Hits) != 1 {
		t.Fatalf("expected 1 hit, got %#v", result.Hits)
	}
	hit := result.Hits[0]
	span := hit.Spans[0]
	if span != (MatchSpan{Start: 11, End: 16}) {
		t.Fatalf("span = %+v", span)
	}
	if got := hit.Text[span.Start:span.End]; got != "Gęś" {
		t.Fatalf("span text = %q", got)
	}
}

func TestContentScanDecodesUTF16(t *testing.T) {
	root := t.TempDir()
	content := []byte{0xFF, 0xFE}
	for _, r := range "hello\r\nworld\r\n" {
		content = append(content, byte(r), 0x00)
	}
	if err := os.WriteFile(filepath.Join(root, "utf16.txt"), content, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	scanner := newTestScanner(t, ContentScannerOptions{})
	result, err := scanner.Scan(context.Background(), ScanRequest{Root: root, Query: "WORLD", Paths: candidates("utf16.txt")})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(result.Hits) != 1 || result.Hits[0].Line != 2 || result.Hits[0].Text != "world" {
		t.Fatalf("unexpected hits %#v", result.Hits)
	}
}

func TestContentScanSkipsNonTextAndUnreadable(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"blob.bin2": "needle\x00\x01\x02",
		"image.png": "needle",
		"big.txt":   strings.Repeat("needle\n", 10),
		"ok.txt":    "needle",
	})

	scanner := newTestScanner(t, ContentScannerOptions{MaxFileSize: 64})
	result, err := scanner.Scan(context.Background(), ScanRequest{
		Root:  root,
		Query: "needle",
		Paths: candidates("blob.bin2", "image.png", "big.txt", "ok.txt", "missing.txt"),
	})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(result.Hits) != 1 || result.Hits[0].Path != "ok.txt" {
		t.Fatalf("unexpected hits %#v", result.Hits)
	}
	want := ScanStats{FilesScanned: 1, SkippedText: 3, Unreadable: 1, Hits: 1}
	if result.Stats != want {
		t.Fatalf("stats = %+v, want %+v", result.Stats, want)
	}
}

func TestContentScanCapsHitsPerFile(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"many.txt": strings.Repeat("match\n", 150)})

	scanner := newTestScanner(t, ContentScannerOptions{})
	result, err := scanner.Scan(context.Background(), ScanRequest{Root: root, Query: "match", Paths: candidates("many.txt")})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(result.Hits) != DefaultMaxHitsPerFile {
		t.Fatalf("expected %d hits, got %d", DefaultMaxHitsPerFile, len(result.Hits))
	}
	if last := result.Hits[len(result.Hits)-1]; last.Line != DefaultMaxHitsPerFile {
		t.Fatalf("expected last hit on line %d, got %d", DefaultMaxHitsPerFile, last.Line)
	}
}

func TestContentScanWindowsLongLines(t *testing.T) {
	root := t.TempDir()
	line := strings.Repeat("a", 300) + "needle" + strings.Repeat("b", 300)
	writeTree(t, root, map[string]string{"long.txt": line + "\n"})

	scanner := newTestScanner(t, ContentScannerOptions{MaxPreviewBytes: 40})
	result, err := scanner.Scan(context.Background(), ScanRequest{Root: root, Query: "NEEDLE", Paths: candidates("long.txt")})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(result.Hits) != 1 {
		t.Fatalf("expected 1 hit, got %#v", result.Hits)
	}
	hit := result.Hits[0]
	if len(hit.Text) > 40 {
		t.Fatalf("preview not windowed: %d bytes", len(hit.Text))
	}
	if got := hit.Text[hit.Spans[0].Start:hit.Spans[0].End]; got != "needle" {
		t.Fatalf("span text = %q in %q", got, hit.Text)
	}
}

func TestContentScanEmptyQueryScansNothing(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.txt": "anything"})

	scanner := newTestScanner(t, ContentScannerOptions{})
	result, err := scanner.Scan(context.Background(), ScanRequest{Root: root, Query: "", Paths: candidates("a.txt")})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(result.Hits) != 0 || result.Stats != (ScanStats{}) {
		t.Fatalf("expected empty result, got %+v", result)
	}
}

func TestContentScanSupersededGeneration(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.txt": "needle"})

	var gen Generation
	id := gen.Next()
	gen.Next()

	scanner := newTestScanner(t, ContentScannerOptions{})
	result, err := scanner.Scan(context.Background(), ScanRequest{
		Root:         root,
		Query:        "needle",
		Paths:        candidates("a.txt"),
		GenerationID: id,
		Generation:   &gen,
	})
	if !errors.Is(err, ErrSuperseded) {
		t.Fatalf("expected ErrSuperseded, got %v", err)
	}
	if len(result.Hits) != 0 {
		t.Fatalf("superseded scan should not collect hits, got %#v", result.Hits)
	}
}

func TestContentScanCancelled(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.txt": "needle"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	scanner := newTestScanner(t, ContentScannerOptions{})
	if _, err := scanner.Scan(ctx, ScanRequest{Root: root, Query: "needle", Paths: candidates("a.txt")}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestContentScanReportsProgress(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.txt": strings.Repeat("needle\n", 12)})

	var mu sync.Mutex
	var batches [][]ContentHit
	scanner := newTestScanner(t, ContentScannerOptions{})
	result, err := scanner.Scan(context.Background(), ScanRequest{
		Root:  root,
		Query: "needle",
		Paths: candidates("a.txt"),
		OnProgress: func(hits []ContentHit) {
			mu.Lock()
			batches = append(batches, hits)
			mu.Unlock()
		},
	})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(batches) == 0 {
		t.Fatalf("expected at least one progress batch")
	}
	if got := len(batches[0]); got != fileHitBatch {
		t.Fatalf("first batch has %d hits, want %d", got, fileHitBatch)
	}
	if got := len(result.Hits); got != 12 {
		t.Fatalf("result has %d hits, want 12", got)
	}
}

func TestContentScanStopsMidFileWhenSuperseded(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"big.txt": strings.Repeat("needle\n", 5000)})

	var gen Generation
	id := gen.Next()
	var calls int
	scanner := newTestScanner(t, ContentScannerOptions{Workers: 1, MaxHitsPerFile: 10000})
	result, err := scanner.Scan(context.Background(), ScanRequest{
		Root:         root,
		Query:        "needle",
		Paths:        candidates("big.txt"),
		GenerationID: id,
		Generation:   &gen,
		OnProgress: func([]ContentHit) {
			calls++
			gen.Next()
		},
	})
	if !errors.Is(err, ErrSuperseded) {
		t.Fatalf("expected ErrSuperseded, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected a single progress batch before the stop, got %d", calls)
	}
	if got := len(result.Hits); got != fileHitBatch {
		t.Fatalf("expected the scan to stop after the first batch, got %d hits", got)
	}
	if got := result.Hits[len(result.Hits)-1].Line; got >= 5000 {
		t.Fatalf("file was read to the end (last line %d)", got)
	}
}

func TestContentScanAfterCloseFails(t *testing.T) {
	scanner, err := NewContentScanner(ContentScannerOptions{Workers: 1})
	if err != nil {
		t.Fatalf("NewContentScanner: %v", err)
	}
	scanner.Close()

	_, err = scanner.Scan(context.Background(), ScanRequest{Root: t.TempDir(), Query: "x", Paths: candidates("a.txt")})
	if err == nil {
		t.Fatalf("expected scan on a closed scanner to fail")
	}
}

func TestPreviewLine(t *testing.T) {
	tests := []struct {
		name      string
		line      string
		start     int
		end       int
		max       int
		wantText  string
		wantMatch string
	}{
		{"trims crlf", "value\r\n", 0, 5, 100, "value", "value"},
		{"trims leading whitespace", "\t  key = value\n", 9, 14, 100, "key = value", "value"},
		{"keeps whitespace that is matched", "    x", 2, 5, 100, "  x", "  x"},
		{"window around match", strings.Repeat("a", 50) + "XY" + strings.Repeat("b", 50), 50, 52, 10, "aaaaXYbbbb", "XY"},
		{"window at line end", strings.Repeat("a", 50) + "XY", 50, 52, 10, "aaaaaaaaXY", "XY"},
		{"match longer than window", "ABCDEFGHIJ", 0, 10, 4, "ABCD", "ABCD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, span := previewLine([]byte(tt.line), tt.start, tt.end, tt.max)
			if text != tt.wantText {
				t.Fatalf("text = %q, want %q", text, tt.wantText)
			}
			if got := text[span.Start:span.End]; got != tt.wantMatch {
				t.Fatalf("span text = %q, want %q", got, tt.wantMatch)
			}
		})
	}
}
