package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	fsutil "github.com/kk-code-lab/rfind/internal/fs"
	"github.com/sirupsen/logrus"
)

// DefaultMaxDepth limits how many path segments below the root are walked.
const DefaultMaxDepth = 10

var errNotDirectory = errors.New("not a directory")

// CollectorOptions tunes the walk. MaxDepth 0 means unlimited.
type CollectorOptions struct {
	ShowHidden bool
	MaxDepth   int
	Logger     logrus.FieldLogger
}

// DefaultCollectorOptions hides dot files and stops at DefaultMaxDepth.
func DefaultCollectorOptions() CollectorOptions {
	return CollectorOptions{MaxDepth: DefaultMaxDepth}
}

// Walk is the outcome of one traversal. Warnings counts directories that
// could not be read and were skipped.
type Walk struct {
	Paths    []CandidatePath
	Warnings int
}

// Collector produces the candidate list for a root directory.
type Collector struct {
	root string
	opts CollectorOptions
	log  logrus.FieldLogger
}

func NewCollector(root string, opts CollectorOptions) *Collector {
	log := opts.Logger
	if log == nil {
		log = discardLogger()
	}
	return &Collector{
		root: root,
		opts: opts,
		log:  log.WithField("root", root),
	}
}

type walkFrame struct {
	absPath string
	relPath string
	depth   int
	rules   *ignoreStack
	entries []os.DirEntry
	next    int
}

// Collect walks the tree depth-first in pre-order, entries in the order
// os.ReadDir returns them. Ignored and hidden directories are pruned.
func (c *Collector) Collect(ctx context.Context) (Walk, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	info, err := os.Stat(c.root)
	if err != nil {
		return Walk{}, &RootError{Path: c.root, Err: err}
	}
	if !info.IsDir() {
		return Walk{}, &RootError{Path: c.root, Err: errNotDirectory}
	}
	entries, err := os.ReadDir(c.root)
	if err != nil {
		return Walk{}, &RootError{Path: c.root, Err: err}
	}

	rules := (*ignoreStack)(nil).
		push(".", loadGlobalRules(c.root)).
		push(".", loadDirectoryRules(c.root))

	var walk Walk
	stack := []*walkFrame{{
		absPath: c.root,
		relPath: ".",
		rules:   rules,
		entries: entries,
	}}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		if top.next >= len(top.entries) {
			stack = stack[:len(stack)-1]
			continue
		}
		entry := top.entries[top.next]
		top.next++

		name := entry.Name()
		rel := joinRelPath(top.relPath, name)
		full := filepath.Join(top.absPath, name)
		depth := top.depth + 1

		isDir, keep := c.classify(full, entry)
		if !keep || c.skipEntry(full, name, isDir) {
			continue
		}
		if top.rules.ignored(rel, isDir) {
			continue
		}

		if !isDir {
			if c.opts.MaxDepth > 0 && depth > c.opts.MaxDepth {
				continue
			}
			walk.Paths = append(walk.Paths, CandidatePath{Path: rel, Depth: depth})
			continue
		}

		if c.opts.MaxDepth > 0 && depth >= c.opts.MaxDepth {
			continue
		}
		if err := ctx.Err(); err != nil {
			return walk, err
		}
		children, err := os.ReadDir(full)
		if err != nil {
			walk.Warnings++
			c.log.WithError(fmt.Errorf("%w: %v", ErrDirectoryAccessDenied, err)).
				WithField("path", rel).
				Debug("skipping unreadable directory")
			continue
		}
		stack = append(stack, &walkFrame{
			absPath: full,
			relPath: rel,
			depth:   depth,
			rules:   top.rules.push(rel, loadDirectoryRules(full)),
			entries: children,
		})
	}

	c.log.WithFields(logrus.Fields{
		"files":    len(walk.Paths),
		"warnings": walk.Warnings,
	}).Debug("walk complete")
	return walk, nil
}

// classify resolves what an entry is for the walk. Directories are never
// followed through symlinks; a symlink is kept only when it points at a
// regular file. Devices, sockets and pipes are dropped.
func (c *Collector) classify(full string, entry os.DirEntry) (isDir bool, keep bool) {
	mode := entry.Type()
	switch {
	case mode.IsDir():
		return true, true
	case mode.IsRegular():
		return false, true
	case mode&fs.ModeSymlink != 0:
		target, err := os.Stat(full)
		if err != nil {
			return false, false
		}
		return false, target.Mode().IsRegular()
	default:
		return false, false
	}
}

func (c *Collector) skipEntry(full, name string, isDir bool) bool {
	if isDir && name == ".git" {
		return true
	}
	if fsutil.IsProtected(full, name) {
		return true
	}
	if !c.opts.ShowHidden && fsutil.IsHidden(full, name) {
		return true
	}
	return false
}

func joinRelPath(parent, child string) string {
	if parent == "." || parent == "" {
		return child
	}
	return parent + "/" + child
}

func discardLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
