package pyscope

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/jward/pyscope/internal/discover"
	"github.com/jward/pyscope/internal/semantic"
	"github.com/jward/pyscope/internal/store"
)

// DefaultMaxFileSize is the largest file, in bytes, indexed by default.
const DefaultMaxFileSize = 1_000_000

// Engine orchestrates the pyscope pipeline: file discovery, change
// detection, parsing and index building, persistence, and query access.
// An Engine is safe for concurrent use; indexing calls are serialized.
type Engine struct {
	store       *store.Store
	logger      *slog.Logger
	jobs        int
	maxFileSize int64
	excludes    []string
	force       bool

	// indexMu serializes indexing so the serial commit phase stays serial
	// across callers.
	indexMu sync.Mutex

	mu   sync.Mutex
	memo map[string]memoEntry

	// rebuilt and changedModules accumulate, since the last call to
	// Affected, the ids of rebuilt files and the modules that were rebuilt,
	// renamed or removed.
	rebuilt        map[int64]bool
	changedModules map[string]bool
}

// memoEntry is the in-memory index of one file revision under one module
// name.
type memoEntry struct {
	hash   string
	module string
	idx    *semantic.Index
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the structured logger. The default discards output.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithJobs bounds the number of files parsed concurrently. Zero or less
// means GOMAXPROCS.
func WithJobs(n int) Option {
	return func(e *Engine) {
		e.jobs = n
	}
}

// WithMaxFileSize skips files larger than n bytes. Zero or less disables the
// limit.
func WithMaxFileSize(n int64) Option {
	return func(e *Engine) {
		e.maxFileSize = n
	}
}

// WithExcludes adds gitignore-style patterns that IndexDirectory skips.
func WithExcludes(patterns ...string) Option {
	return func(e *Engine) {
		e.excludes = append(e.excludes, patterns...)
	}
}

// WithForce rebuilds every file even when its content hash is unchanged.
func WithForce(force bool) Option {
	return func(e *Engine) {
		e.force = force
	}
}

// New creates an Engine backed by a SQLite database at dbPath.
func New(dbPath string, opts ...Option) (*Engine, error) {
	s, err := store.NewStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("pyscope: create store: %w", err)
	}
	if err := s.Migrate(); err != nil {
		s.Close()
		return nil, fmt.Errorf("pyscope: migrate: %w", err)
	}

	e := &Engine{
		store:       s,
		logger:      slog.New(slog.DiscardHandler),
		maxFileSize: DefaultMaxFileSize,
		memo:           make(map[string]memoEntry),
		rebuilt:        make(map[int64]bool),
		changedModules: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Close releases the Engine's database resources.
func (e *Engine) Close() error {
	return e.store.Close()
}

// Store returns the underlying Store for direct access.
func (e *Engine) Store() *Store {
	return e.store
}

// Query returns a new QueryBuilder wrapping the Store.
func (e *Engine) Query() *QueryBuilder {
	return &QueryBuilder{store: e.store}
}

// Cached returns the in-memory index of path, if the Engine has indexed or
// loaded it in this process.
func (e *Engine) Cached(path string) (*semantic.Index, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	entry, ok := e.memo[filepath.Clean(path)]
	return entry.idx, ok
}

func (e *Engine) memoized(path, hash, module string) (*semantic.Index, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	entry, ok := e.memo[path]
	if !ok || entry.hash != hash || entry.module != module {
		return nil, false
	}
	return entry.idx, true
}

func (e *Engine) remember(path, hash, module string, idx *semantic.Index) {
	e.mu.Lock()
	e.memo[path] = memoEntry{hash: hash, module: module, idx: idx}
	e.mu.Unlock()
}

func (e *Engine) forget(path string) {
	e.mu.Lock()
	delete(e.memo, path)
	e.mu.Unlock()
}

// Affected returns the paths of the files rebuilt since the previous call
// together with the indexed files importing a module that was rebuilt,
// renamed or removed in that time, and resets the set. Importers are
// resolved against the current store.
func (e *Engine) Affected() ([]string, error) {
	e.mu.Lock()
	ids := make([]int64, 0, len(e.rebuilt))
	for id := range e.rebuilt {
		ids = append(ids, id)
	}
	modules := make([]string, 0, len(e.changedModules))
	for m := range e.changedModules {
		modules = append(modules, m)
	}
	e.rebuilt = make(map[int64]bool)
	e.changedModules = make(map[string]bool)
	e.mu.Unlock()

	importers, err := e.store.FilesImportingModules(modules)
	if err != nil {
		return nil, fmt.Errorf("pyscope: affected files: %w", err)
	}
	ids = append(ids, importers...)
	slices.Sort(ids)
	files, err := e.store.FilesByIDs(slices.Compact(ids))
	if err != nil {
		return nil, fmt.Errorf("pyscope: affected files: %w", err)
	}
	paths := make([]string, 0, len(files))
	for _, f := range files {
		paths = append(paths, f.Path)
	}
	return paths, nil
}

// IndexSource returns the index of src as the content of path. The result
// is shared: callers must treat it as read-only.
//
// Lookup order:
//  1. In-memory index for the same path and content hash
//  2. Stored snapshot for the same path and content hash
//  3. Parse and build, replacing any stored rows for path
func (e *Engine) IndexSource(ctx context.Context, path string, src []byte) (*semantic.Index, error) {
	path = filepath.Clean(path)
	e.indexMu.Lock()
	defer e.indexMu.Unlock()

	item, skip, err := e.prepareSource(path, moduleForFile(path), src)
	if err != nil {
		return nil, fmt.Errorf("pyscope: index %s: %w", path, err)
	}
	if skip {
		return item.idx, nil
	}
	if err := e.buildItem(ctx, item); err != nil {
		e.abandon(item)
		return nil, fmt.Errorf("pyscope: index %s: %w", path, err)
	}
	if err := e.commitItem(item); err != nil {
		return nil, fmt.Errorf("pyscope: index %s: %w", path, err)
	}
	return item.idx, nil
}

// IndexFile reads path from disk and indexes it like IndexSource.
func (e *Engine) IndexFile(ctx context.Context, path string) (*semantic.Index, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("pyscope: read %s: %w", path, err)
	}
	return e.IndexSource(ctx, path, src)
}

// IndexDirectory discovers Python files under root, honoring .gitignore
// and the configured excludes, and indexes them in parallel. Module names
// are derived from each file's path relative to root.
func (e *Engine) IndexDirectory(ctx context.Context, root string) error {
	rels, err := discover.Files(root, e.excludes)
	if err != nil {
		return fmt.Errorf("pyscope: discover: %w", err)
	}
	e.logger.Info("discovered files", "root", root, "count", len(rels))

	inputs := make([]fileInput, 0, len(rels))
	present := make(map[string]bool, len(rels))
	for _, rel := range rels {
		path := filepath.Clean(filepath.Join(root, filepath.FromSlash(rel)))
		present[path] = true
		inputs = append(inputs, fileInput{path: path, module: ModuleName(rel)})
	}
	if err := e.removeStale(root, present); err != nil {
		return fmt.Errorf("pyscope: %w", err)
	}
	return e.indexInputs(ctx, inputs)
}

// removeStale deletes the stored files under root that discovery no longer
// reports, marking their modules as changed.
func (e *Engine) removeStale(root string, present map[string]bool) error {
	e.indexMu.Lock()
	defer e.indexMu.Unlock()

	files, err := e.store.Files()
	if err != nil {
		return fmt.Errorf("remove stale files: %w", err)
	}
	prefix := filepath.Clean(root) + string(filepath.Separator)
	for _, f := range files {
		if present[f.Path] || !strings.HasPrefix(f.Path, prefix) {
			continue
		}
		if err := e.store.DeleteFile(f.ID); err != nil {
			return fmt.Errorf("remove stale file %s: %w", f.Path, err)
		}
		e.forget(f.Path)
		e.markChanged(0, f.Module)
		e.logger.Info("removed stale file", "path", f.Path)
	}
	return nil
}

// markChanged records a rebuilt file (fileID 0 for none) and the modules
// whose importers Affected should report.
func (e *Engine) markChanged(fileID int64, modules ...string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if fileID != 0 {
		e.rebuilt[fileID] = true
	}
	for _, m := range modules {
		if m != "" {
			e.changedModules[m] = true
		}
	}
}

// ModuleName returns the dotted module name of a slash-separated path
// relative to a source root: "pkg/sub/mod.py" is "pkg.sub.mod" and
// "pkg/__init__.py" is "pkg". Returns "" for paths that are not Python
// files.
func ModuleName(rel string) string {
	rel = filepath.ToSlash(rel)
	switch {
	case strings.HasSuffix(rel, ".pyi"):
		rel = strings.TrimSuffix(rel, ".pyi")
	case strings.HasSuffix(rel, ".py"):
		rel = strings.TrimSuffix(rel, ".py")
	default:
		return ""
	}
	rel = strings.TrimPrefix(rel, "./")
	if rel == "__init__" {
		return ""
	}
	rel = strings.TrimSuffix(rel, "/__init__")
	return strings.ReplaceAll(rel, "/", ".")
}

// moduleForFile names a file indexed without a source root after its base
// name, as a top-level module.
func moduleForFile(path string) string {
	return ModuleName(filepath.Base(path))
}
