package search

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	fsutil "github.com/kk-code-lab/rfind/internal/fs"
)

const (
	DefaultMaxFileSize     = 10 << 20
	DefaultMaxHitsPerFile  = 100
	DefaultMaxPreviewBytes = 1000
	maxScanWorkers         = 100
	minScanWorkers         = 32
	fileHitBatch           = initialImmediateBatchSize
)

// ErrSuperseded is returned by a scan whose generation was replaced while it ran.
var ErrSuperseded = errors.New("superseded by a newer query")

// ContentScannerOptions tunes the content pipeline. Zero values fall back to
// the defaults.
type ContentScannerOptions struct {
	Workers         int
	MaxFileSize     int64
	MaxHitsPerFile  int
	MaxPreviewBytes int
	Logger          logrus.FieldLogger
}

// DefaultScanWorkers is max(32, GOMAXPROCS*4) capped at 100.
func DefaultScanWorkers() int {
	return min(max(minScanWorkers, runtime.GOMAXPROCS(0)*4), maxScanWorkers)
}

func (o ContentScannerOptions) withDefaults() ContentScannerOptions {
	if o.Workers <= 0 {
		o.Workers = DefaultScanWorkers()
	}
	if o.MaxFileSize <= 0 {
		o.MaxFileSize = DefaultMaxFileSize
	}
	if o.MaxHitsPerFile <= 0 {
		o.MaxHitsPerFile = DefaultMaxHitsPerFile
	}
	if o.MaxPreviewBytes <= 0 {
		o.MaxPreviewBytes = DefaultMaxPreviewBytes
	}
	if o.Logger == nil {
		o.Logger = discardLogger()
	}
	return o
}

// ScanRequest describes one content query. Generation may be nil, in which
// case the scan is only bounded by the context.
type ScanRequest struct {
	Root         string
	Query        string
	Paths        []CandidatePath
	GenerationID uint64
	Generation   *Generation
	// OnProgress receives ranked snapshots of the hits found so far.
	OnProgress func([]ContentHit)
}

type ScanResult struct {
	Hits  []ContentHit
	Stats ScanStats
}

// ContentScanner greps candidate files with a bounded worker pool shared by
// every scan it runs.
type ContentScanner struct {
	opts       ContentScannerOptions
	pool       *ants.PoolWithFunc
	log        logrus.FieldLogger
	logLimiter *rate.Limiter
}

type scanRun struct {
	ctx    context.Context
	req    ScanRequest
	needle needle
	acc    *hitAccumulator
	stats  scanCounters
}

type scanCounters struct {
	files      atomic.Int64
	skipped    atomic.Int64
	unreadable atomic.Int64
	hits       atomic.Int64
}

type fileTask struct {
	run  *scanRun
	path string
	wg   *sync.WaitGroup
}

func NewContentScanner(opts ContentScannerOptions) (*ContentScanner, error) {
	opts = opts.withDefaults()
	s := &ContentScanner{
		opts:       opts,
		log:        opts.Logger,
		logLimiter: rate.NewLimiter(rate.Every(time.Second), 5),
	}
	pool, err := ants.NewPoolWithFunc(opts.Workers, func(i interface{}) {
		task := i.(*fileTask)
		defer task.wg.Done()
		s.scanTask(task)
	})
	if err != nil {
		return nil, fmt.Errorf("pool: %w", err)
	}
	s.pool = pool
	return s, nil
}

// Close releases the worker pool. Scans started afterwards fail.
func (s *ContentScanner) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Release()
}

// Scan searches every candidate for the query. An empty query scans nothing.
// A scan that is cancelled or superseded returns the context error or
// ErrSuperseded together with whatever it had collected.
func (s *ContentScanner) Scan(ctx context.Context, req ScanRequest) (ScanResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if req.Query == "" {
		return ScanResult{}, nil
	}

	run := &scanRun{
		ctx:    ctx,
		req:    req,
		needle: newNeedle(req.Query),
		acc:    newHitAccumulator(req.OnProgress),
	}

	var wg sync.WaitGroup
	var submitErr error
	for _, candidate := range req.Paths {
		if run.stale() {
			break
		}
		wg.Add(1)
		if err := s.pool.Invoke(&fileTask{run: run, path: candidate.Path, wg: &wg}); err != nil {
			wg.Done()
			submitErr = fmt.Errorf("submit scan task: %w", err)
			break
		}
	}
	wg.Wait()

	result := ScanResult{Hits: run.acc.Results(), Stats: run.snapshotStats()}
	switch {
	case submitErr != nil:
		return result, submitErr
	case ctx.Err() != nil:
		return result, ctx.Err()
	case run.superseded():
		return result, ErrSuperseded
	}

	s.log.WithFields(logrus.Fields{
		"generation": req.GenerationID,
		"files":      result.Stats.FilesScanned,
		"hits":       result.Stats.Hits,
	}).Debug("content scan complete")
	return result, nil
}

func (r *scanRun) superseded() bool {
	return r.req.Generation != nil && !r.req.Generation.IsCurrent(r.req.GenerationID)
}

func (r *scanRun) stale() bool {
	return r.ctx.Err() != nil || r.superseded()
}

func (r *scanRun) snapshotStats() ScanStats {
	return ScanStats{
		FilesScanned: int(r.stats.files.Load()),
		SkippedText:  int(r.stats.skipped.Load()),
		Unreadable:   int(r.stats.unreadable.Load()),
		Hits:         int(r.stats.hits.Load()),
	}
}

func (s *ContentScanner) scanTask(task *fileTask) {
	run := task.run
	if run.stale() {
		return
	}
	err := s.scanFile(run, task.path, run.addHits)
	switch {
	case errors.Is(err, ErrNonTextFile):
		run.stats.skipped.Add(1)
		return
	case err != nil:
		run.stats.unreadable.Add(1)
		if s.logLimiter.Allow() {
			s.log.WithError(err).WithField("path", task.path).Debug("content scan skipped file")
		}
		return
	}
	run.stats.files.Add(1)
}

func (r *scanRun) addHits(hits []ContentHit) {
	if len(hits) == 0 || r.stale() {
		return
	}
	r.stats.hits.Add(int64(len(hits)))
	r.acc.Add(hits)
}

// scanFile hands the hits of a single file to emit in batches of
// fileHitBatch. Oversized and binary files are reported as ErrNonTextFile;
// open and read failures as ErrFileUnreadable. The generation is checked
// before every line, so a superseded scan stops mid-file.
func (s *ContentScanner) scanFile(run *scanRun, relPath string, emit func([]ContentHit)) error {
	if fsutil.LooksBinaryByExtension(relPath) {
		return ErrNonTextFile
	}

	full := filepath.Join(run.req.Root, filepath.FromSlash(relPath))
	file, err := os.Open(full)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFileUnreadable, err)
	}
	defer func() {
		_ = file.Close()
	}()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFileUnreadable, err)
	}
	if !info.Mode().IsRegular() || info.Size() > s.opts.MaxFileSize {
		return ErrNonTextFile
	}

	buffered := bufio.NewReaderSize(file, 64*1024)
	sample, err := buffered.Peek(fsutil.TextSampleSize)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return fmt.Errorf("%w: %v", ErrFileUnreadable, err)
	}
	if !fsutil.IsTextFile(relPath, sample) {
		return ErrNonTextFile
	}

	reader := bufio.NewReader(fsutil.NewTextReader(buffered, sample))
	var batch []ContentHit
	found := 0
	lineNo := 0
	for {
		if run.stale() {
			return nil
		}
		line, readErr := reader.ReadBytes('\n')
		if len(line) > 0 {
			lineNo++
			if start, end, ok := run.needle.index(line); ok {
				text, span := previewLine(line, start, end, s.opts.MaxPreviewBytes)
				batch = append(batch, ContentHit{
					Path:  relPath,
					Line:  lineNo,
					Text:  text,
					Spans: []MatchSpan{span},
				})
				found++
				if found >= s.opts.MaxHitsPerFile {
					emit(batch)
					return nil
				}
				if len(batch) >= fileHitBatch {
					emit(batch)
					batch = nil
				}
			}
		}
		if readErr != nil {
			emit(batch)
			if errors.Is(readErr, io.EOF) {
				return nil
			}
			return fmt.Errorf("%w: %v", ErrFileUnreadable, readErr)
		}
	}
}
