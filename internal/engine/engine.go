package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"

	"github.com/kk-code-lab/rfind/internal/search"
)

const (
	// DefaultSyncThreshold is the largest candidate count scored inline by Submit.
	DefaultSyncThreshold = 20000
	DefaultCacheSize     = 128
)

var errNoRoot = errors.New("no root set")

// State reports what the engine is doing for the current generation.
type State int

const (
	Idle State = iota
	FilenameSearching
	ContentSearching
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case FilenameSearching:
		return "filename-searching"
	case ContentSearching:
		return "content-searching"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Options configures an Engine.
type Options struct {
	ShowHidden bool
	// MaxDepth limits the walk; 0 walks the whole tree.
	MaxDepth int
	Scanner  search.ContentScannerOptions
	// SyncThreshold is the candidate count up to which filename queries are
	// scored inside Submit. Negative values always score in the background.
	SyncThreshold int
	CacheSize     int
	// OnPublish runs after every store replacement, outside the engine lock.
	OnPublish func()
	Logger    logrus.FieldLogger
}

func DefaultOptions() Options {
	return Options{
		MaxDepth:      search.DefaultMaxDepth,
		SyncThreshold: DefaultSyncThreshold,
		CacheSize:     DefaultCacheSize,
	}
}

// Record is the UI-facing view of one hit. Line is 0 for filename hits.
type Record struct {
	Path    string
	Line    int
	Preview string
	Spans   []search.MatchSpan
	Score   float64
}

// Engine orchestrates the walk, the two search pipelines and the store.
type Engine struct {
	opts    Options
	log     logrus.FieldLogger
	scorer  *search.FuzzyScorer
	scanner *search.ContentScanner
	store   *Store
	gen     search.Generation
	cache   *lru.Cache[string, search.ResultSet]

	// ctx bounds every search the engine runs; Close cancels it.
	ctx  context.Context
	stop context.CancelFunc

	mu         sync.Mutex
	root       string
	candidates []search.CandidatePath
	warnings   int
	query      string
	mode       search.Mode
	state      State
	cancel     context.CancelFunc
	done       chan struct{}
	stats      search.ScanStats
}

func New(opts Options) (*Engine, error) {
	if opts.SyncThreshold == 0 {
		opts.SyncThreshold = DefaultSyncThreshold
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = DefaultCacheSize
	}
	if opts.Logger == nil {
		logger := logrus.New()
		logger.SetOutput(io.Discard)
		opts.Logger = logger
	}
	if opts.Scanner.Logger == nil {
		opts.Scanner.Logger = opts.Logger
	}

	scanner, err := search.NewContentScanner(opts.Scanner)
	if err != nil {
		return nil, fmt.Errorf("content scanner: %w", err)
	}
	cache, err := lru.New[string, search.ResultSet](opts.CacheSize)
	if err != nil {
		scanner.Close()
		return nil, fmt.Errorf("query cache: %w", err)
	}

	done := make(chan struct{})
	close(done)
	ctx, stop := context.WithCancel(context.Background())
	return &Engine{
		ctx:     ctx,
		stop:    stop,
		opts:    opts,
		log:     opts.Logger,
		scorer:  search.NewFuzzyScorer(),
		scanner: scanner,
		store:   NewStore(),
		cache:   cache,
		done:    done,
	}, nil
}

// SetRoot walks path and makes it the search root. The query cache and the
// store are cleared and the held query is resubmitted against the new tree.
// On error the previous root stays in effect.
func (e *Engine) SetRoot(ctx context.Context, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("set root: %w", &search.RootError{Path: path, Err: err})
	}

	collector := search.NewCollector(abs, search.CollectorOptions{
		ShowHidden: e.opts.ShowHidden,
		MaxDepth:   e.opts.MaxDepth,
		Logger:     e.log,
	})
	walk, err := collector.Collect(ctx)
	if err != nil {
		return fmt.Errorf("set root: %w", err)
	}

	e.mu.Lock()
	e.gen.Next()
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	e.root = abs
	e.candidates = walk.Paths
	e.warnings = walk.Warnings
	e.stats = search.ScanStats{}
	e.cache.Purge()
	e.store.Replace(search.EmptyResults(e.mode))
	query, mode := e.query, e.mode
	e.mu.Unlock()

	e.log.WithFields(logrus.Fields{
		"root":     abs,
		"files":    len(walk.Paths),
		"warnings": walk.Warnings,
	}).Info("root loaded")

	e.Submit(query, mode)
	return nil
}

// Refresh re-walks the current root, dropping cached results.
func (e *Engine) Refresh(ctx context.Context) error {
	e.mu.Lock()
	root := e.root
	e.mu.Unlock()
	if root == "" {
		return fmt.Errorf("refresh: %w", errNoRoot)
	}
	return e.SetRoot(ctx, root)
}

// Submit starts a search for query in mode, superseding any in-flight work.
// Filename queries over small candidate sets are answered before it returns.
func (e *Engine) Submit(query string, mode search.Mode) {
	if e.submit(query, mode) {
		e.notify()
	}
}

// ToggleMode resubmits the held query in the other mode.
func (e *Engine) ToggleMode() {
	e.mu.Lock()
	query, mode := e.query, e.mode
	e.mu.Unlock()
	e.Submit(query, mode.Toggle())
}

// submit reports whether it published synchronously.
func (e *Engine) submit(query string, mode search.Mode) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	id := e.gen.Next()
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	e.query, e.mode = query, mode
	done := make(chan struct{})
	e.done = done
	if e.store.Snapshot().Mode() != mode {
		e.store.Replace(search.EmptyResults(mode))
	}

	e.log.WithFields(logrus.Fields{
		"generation": id,
		"mode":       mode,
		"query":      query,
	}).Debug("query submitted")

	if mode == search.ModeContent {
		e.state = ContentSearching
		if query == "" {
			e.stats = search.ScanStats{}
			e.publishLocked(id, search.EmptyResults(search.ModeContent), true)
			close(done)
			return true
		}
		ctx, cancel := context.WithCancel(e.ctx)
		e.cancel = cancel
		go e.runContent(ctx, id, e.root, query, e.candidates, done)
		return false
	}

	e.state = FilenameSearching
	if cached, ok := e.cache.Get(query); ok {
		e.publishLocked(id, cached, true)
		close(done)
		return true
	}
	if e.opts.SyncThreshold >= 0 && len(e.candidates) <= e.opts.SyncThreshold {
		hits, err := e.scorer.ScoreAll(e.ctx, query, e.candidates)
		if err != nil {
			e.log.WithError(err).WithField("generation", id).Debug("filename search abandoned")
			e.publishLocked(id, search.EmptyResults(search.ModeFilename), true)
			close(done)
			return true
		}
		results := search.NewFileResults(hits)
		e.cache.Add(query, results)
		e.publishLocked(id, results, true)
		close(done)
		return true
	}
	ctx, cancel := context.WithCancel(e.ctx)
	e.cancel = cancel
	go e.runFilename(ctx, id, query, e.candidates, done)
	return false
}

func (e *Engine) runFilename(ctx context.Context, id uint64, query string, candidates []search.CandidatePath, done chan struct{}) {
	defer close(done)
	hits, err := e.scorer.ScoreAll(ctx, query, candidates)
	if err != nil {
		e.log.WithError(err).WithField("generation", id).Debug("filename search abandoned")
		return
	}
	results := search.NewFileResults(hits)

	e.mu.Lock()
	published := e.publishLocked(id, results, true)
	if published {
		e.cache.Add(query, results)
	}
	e.mu.Unlock()
	if published {
		e.notify()
	}
}

func (e *Engine) runContent(ctx context.Context, id uint64, root, query string, candidates []search.CandidatePath, done chan struct{}) {
	defer close(done)
	result, err := e.scanner.Scan(ctx, search.ScanRequest{
		Root:         root,
		Query:        query,
		Paths:        candidates,
		GenerationID: id,
		Generation:   &e.gen,
		OnProgress: func(hits []search.ContentHit) {
			e.publish(id, search.NewContentResults(hits), false)
		},
	})
	log := e.log.WithField("generation", id)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, search.ErrSuperseded) {
			log.Debug("content search superseded")
			return
		}
		log.WithError(err).Warn("content search failed")
		e.mu.Lock()
		if e.gen.IsCurrent(id) {
			e.state = Idle
		}
		e.mu.Unlock()
		return
	}

	e.mu.Lock()
	published := e.publishLocked(id, search.NewContentResults(result.Hits), true)
	if published {
		e.stats = result.Stats
	}
	e.mu.Unlock()
	if published {
		e.notify()
		log.WithFields(logrus.Fields{
			"hits":       result.Stats.Hits,
			"files":      result.Stats.FilesScanned,
			"skipped":    result.Stats.SkippedText,
			"unreadable": result.Stats.Unreadable,
		}).Debug("content search published")
	}
}

func (e *Engine) publish(id uint64, results search.ResultSet, final bool) bool {
	e.mu.Lock()
	published := e.publishLocked(id, results, final)
	e.mu.Unlock()
	if published {
		e.notify()
	}
	return published
}

// publishLocked replaces the store only when id is still the current
// generation. Callers hold e.mu.
func (e *Engine) publishLocked(id uint64, results search.ResultSet, final bool) bool {
	if !e.gen.IsCurrent(id) {
		return false
	}
	e.store.Replace(results)
	if final {
		e.state = Idle
		if e.cancel != nil {
			e.cancel()
			e.cancel = nil
		}
	}
	return true
}

func (e *Engine) notify() {
	if e.opts.OnPublish != nil {
		e.opts.OnPublish()
	}
}

// Wait blocks until the work of the generation current at call time is done.
func (e *Engine) Wait(ctx context.Context) error {
	e.mu.Lock()
	done := e.done
	e.mu.Unlock()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// CurrentPage returns the records of one page of the published results.
func (e *Engine) CurrentPage(index, size int) []Record {
	hits := e.store.Page(index, size)
	records := make([]Record, 0, len(hits))
	for _, hit := range hits {
		records = append(records, toRecord(hit))
	}
	return records
}

func toRecord(hit search.Hit) Record {
	switch h := hit.(type) {
	case search.FileHit:
		return Record{Path: h.Path, Spans: h.Spans, Score: h.Score}
	case search.ContentHit:
		return Record{Path: h.Path, Line: h.Line, Preview: h.Text, Spans: h.Spans}
	default:
		return Record{Path: hit.HitPath(), Spans: hit.HitSpans()}
	}
}

func (e *Engine) PageCount(size int) int {
	return e.store.TotalPages(size)
}

// ResultCount is the number of published hits.
func (e *Engine) ResultCount() int {
	return e.store.Len()
}

// ResultMode is the mode of the published result set, which may lag Query
// while a search is running.
func (e *Engine) ResultMode() search.Mode {
	return e.store.Snapshot().Mode()
}

func (e *Engine) Warnings() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.warnings
}

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine) Generation() uint64 {
	return e.gen.Current()
}

func (e *Engine) Query() (string, search.Mode) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.query, e.mode
}

func (e *Engine) Root() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.root
}

func (e *Engine) Candidates() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.candidates)
}

func (e *Engine) LastScanStats() search.ScanStats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

// Close cancels in-flight work and releases the worker pool.
func (e *Engine) Close() {
	e.mu.Lock()
	e.gen.Next()
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	e.state = Idle
	e.mu.Unlock()
	e.stop()
	e.scanner.Close()
}
