package pyscope

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jward/pyscope/internal/discover"
	"github.com/jward/pyscope/internal/parser"
	"github.com/jward/pyscope/internal/semantic"
	"github.com/jward/pyscope/internal/store"
)

// fileInput is one file to index, with the module name it is imported as.
type fileInput struct {
	path   string
	module string
}

// workItem holds everything a build worker needs and what it produces.
type workItem struct {
	path   string
	module string
	hash   string
	src    []byte
	fileID int64
	batch  *store.BatchedStore

	idx             *semantic.Index
	hasSyntaxErrors bool
	err             error
}

// IndexFiles indexes the given paths. Files without a Python extension are
// skipped, as are files whose content hash matches the stored revision.
// Each file is named as a top-level module after its base name.
//
// Errors on individual files are collected and processing continues; the
// returned error wraps the first of them.
func (e *Engine) IndexFiles(ctx context.Context, paths []string) error {
	inputs := make([]fileInput, 0, len(paths))
	for _, p := range paths {
		if _, ok := discover.Extensions[filepath.Ext(p)]; !ok {
			continue
		}
		inputs = append(inputs, fileInput{path: p, module: moduleForFile(p)})
	}
	return e.indexInputs(ctx, inputs)
}

// indexInputs runs the three-phase pipeline:
//
//	Phase A (serial):   Read, hash check, snapshot reuse, replace file records.
//	Phase B (parallel): Parse, build, and buffer rows per file (errgroup).
//	Phase C (serial):   Commit batches to SQLite in input order.
func (e *Engine) indexInputs(ctx context.Context, inputs []fileInput) error {
	e.indexMu.Lock()
	defer e.indexMu.Unlock()

	start := time.Now()
	var errs []error
	reused := 0

	// ---- Phase A: Serial file preparation ----
	var items []*workItem
	for _, in := range inputs {
		if err := ctx.Err(); err != nil {
			e.abandonAll(items)
			return fmt.Errorf("pyscope: index: %w", err)
		}
		path := filepath.Clean(in.path)
		src, err := e.readSource(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("read %s: %w", path, err))
			continue
		}
		if src == nil {
			continue
		}
		item, skip, err := e.prepareSource(path, in.module, src)
		if err != nil {
			errs = append(errs, fmt.Errorf("prepare %s: %w", path, err))
			continue
		}
		if skip {
			reused++
			continue
		}
		items = append(items, item)
	}

	// ---- Phase B: Parallel build ----
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers(len(items)))
	for _, item := range items {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			// Per-file failures do not cancel the batch.
			item.err = e.buildItem(gctx, item)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		e.abandonAll(items)
		return fmt.Errorf("pyscope: index: %w", err)
	}

	// ---- Phase C: Serial commit ----
	built := 0
	for _, item := range items {
		if item.err != nil {
			e.abandon(item)
			errs = append(errs, fmt.Errorf("build %s: %w", item.path, item.err))
			continue
		}
		if err := e.commitItem(item); err != nil {
			errs = append(errs, fmt.Errorf("commit %s: %w", item.path, err))
			continue
		}
		built++
	}

	e.logger.Info("indexed files",
		"built", built, "reused", reused, "errors", len(errs), "elapsed", time.Since(start))
	if len(errs) > 0 {
		return fmt.Errorf("pyscope: indexing had %d error(s): %w", len(errs), errs[0])
	}
	return nil
}

func (e *Engine) workers(items int) int {
	n := e.jobs
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}
	return max(1, min(n, items))
}

// readSource returns nil, nil for files over the size limit.
func (e *Engine) readSource(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if e.maxFileSize > 0 && info.Size() > e.maxFileSize {
		e.logger.Warn("skipping large file", "path", path, "size", info.Size(), "limit", e.maxFileSize)
		return nil, nil
	}
	return os.ReadFile(path)
}

// prepareSource does Phase A work for a single file. skip=true means the
// returned item already carries a reused index and needs no build.
func (e *Engine) prepareSource(path, module string, src []byte) (*workItem, bool, error) {
	hash := store.ContentHash(src)
	if !e.force {
		if idx, ok := e.memoized(path, hash, module); ok {
			return &workItem{path: path, hash: hash, idx: idx}, true, nil
		}
	}

	existing, err := e.store.FileByPath(path)
	if err != nil {
		return nil, false, fmt.Errorf("lookup file: %w", err)
	}
	if existing != nil && existing.Hash == hash && !e.force {
		idx, err := e.loadSnapshot(existing.ID)
		if err != nil {
			e.logger.Debug("snapshot unusable, rebuilding", "path", path, "err", err)
		}
		if idx != nil {
			if existing.Module != module {
				if err := e.renameModule(existing, module); err != nil {
					return nil, false, err
				}
			}
			e.remember(path, hash, module, idx)
			return &workItem{path: path, module: module, hash: hash, fileID: existing.ID, idx: idx}, true, nil
		}
	}

	// Clean up old data.
	if existing != nil {
		if err := e.store.DeleteFile(existing.ID); err != nil {
			return nil, false, fmt.Errorf("delete old data: %w", err)
		}
	}
	e.forget(path)

	// Insert new file record (real ID assigned by SQLite).
	fileID, err := e.store.InsertFile(&store.File{
		Path:        path,
		Module:      module,
		Hash:        hash,
		Size:        int64(len(src)),
		LineCount:   bytes.Count(src, []byte{'\n'}) + 1,
		LastIndexed: time.Now(),
	})
	if err != nil {
		return nil, false, fmt.Errorf("insert file: %w", err)
	}

	return &workItem{
		path:   path,
		module: module,
		hash:   hash,
		src:    src,
		fileID: fileID,
		batch:  store.NewBatchedStore(),
	}, false, nil
}

// renameModule records that an unchanged file is now imported under a
// different module name, as when a file first indexed alone is later
// indexed from its source root.
func (e *Engine) renameModule(f *store.File, module string) error {
	if err := e.store.SetFileModule(f.ID, module); err != nil {
		return fmt.Errorf("rename module: %w", err)
	}
	e.logger.Debug("module renamed", "path", f.Path, "from", f.Module, "to", module)
	e.markChanged(f.ID, f.Module, module)
	return nil
}

// loadSnapshot decodes the stored snapshot of a file. Returns nil, nil when
// there is none.
func (e *Engine) loadSnapshot(fileID int64) (*semantic.Index, error) {
	snap, err := e.store.SnapshotByFile(fileID)
	if err != nil || snap == nil {
		return nil, err
	}
	if snap.Schema != int(semantic.SnapshotSchema) {
		return nil, fmt.Errorf("%w: stored %d", semantic.ErrSnapshotVersion, snap.Schema)
	}
	return semantic.UnmarshalSnapshot(snap.Data)
}

// buildItem parses and indexes one file and buffers its rows. It touches
// no shared state, so items build concurrently.
func (e *Engine) buildItem(ctx context.Context, item *workItem) error {
	mod, err := parser.Parse(ctx, item.path, item.src)
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	idx, err := semantic.BuildChecked(mod)
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}
	if err := extractRows(item.batch, item.fileID, mod, idx); err != nil {
		return fmt.Errorf("extract rows: %w", err)
	}
	data, err := idx.MarshalSnapshot()
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := item.batch.PutSnapshot(&store.Snapshot{
		FileID: item.fileID,
		Schema: int(semantic.SnapshotSchema),
		Data:   data,
	}); err != nil {
		return fmt.Errorf("buffer snapshot: %w", err)
	}
	item.idx = idx
	item.hasSyntaxErrors = mod.HasSyntaxErrors
	return nil
}

// commitItem writes a built item and records which files it affects.
func (e *Engine) commitItem(item *workItem) error {
	if err := e.store.CommitBatch(item.batch); err != nil {
		e.abandon(item)
		return err
	}
	if item.hasSyntaxErrors {
		if err := e.store.SetFileSyntaxErrors(item.fileID, true); err != nil {
			return err
		}
		e.logger.Warn("file has syntax errors", "path", item.path)
	}
	e.remember(item.path, item.hash, item.module, item.idx)
	e.markChanged(item.fileID, item.module)
	e.logger.Debug("indexed file", "path", item.path, "module", item.module, "scopes", item.idx.ScopeCount())
	return nil
}

// abandon removes the file record of an item that could not be committed,
// so the next run rebuilds it instead of trusting its hash.
func (e *Engine) abandon(item *workItem) {
	e.forget(item.path)
	if err := e.store.DeleteFile(item.fileID); err != nil {
		e.logger.Warn("cleanup failed", "path", item.path, "err", err)
	}
}

func (e *Engine) abandonAll(items []*workItem) {
	for _, item := range items {
		e.abandon(item)
	}
}
