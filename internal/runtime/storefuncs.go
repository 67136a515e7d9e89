package runtime

import (
	"context"
	"fmt"

	"github.com/risor-io/risor/object"

	"github.com/jward/pyscope/internal/store"
)

// Host functions over the persisted index. Scope and file ids here are
// database row ids, not the per-file scope ids of the in-memory index.

// files() → [File]
func makeFilesFn(s *store.Store) *object.Builtin {
	return object.NewBuiltin("files", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 0 {
			return object.NewArgsError("files", 0, len(args))
		}
		files, err := s.Files()
		if err != nil {
			return object.Errorf("files: %v", err)
		}
		return filesToList(files)
	})
}

// makeImportersFn creates "importers" — files with an absolute import of a
// module or one of its submodules.
//
// importers(module) → [File]
func makeImportersFn(s *store.Store) *object.Builtin {
	return object.NewBuiltin("importers", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("importers", 1, len(args))
		}
		module, err := toString(args[0])
		if err != nil {
			return object.Errorf("importers: %v", err)
		}
		ids, err := s.FilesImportingModule(module)
		if err != nil {
			return object.Errorf("importers: %v", err)
		}
		files, err := s.FilesByIDs(ids)
		if err != nil {
			return object.Errorf("importers: %v", err)
		}
		return filesToList(files)
	})
}

// makeResolveFn creates "resolve" — the visible binding of a name from a
// stored scope outward.
//
// resolve(scope_row_id, name) → {"scope": int, "symbol": Symbol} or nil
func makeResolveFn(s *store.Store) *object.Builtin {
	return object.NewBuiltin("resolve", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 2 {
			return object.NewArgsError("resolve", 2, len(args))
		}
		scopeID, err := toInt64(args[0])
		if err != nil {
			return object.Errorf("resolve: %v", err)
		}
		name, err := toString(args[1])
		if err != nil {
			return object.Errorf("resolve: %v", err)
		}
		sym, sc, err := s.ResolveName(scopeID, name)
		if err != nil {
			return object.Errorf("resolve: %v", err)
		}
		if sym == nil {
			return object.Nil
		}
		flags := []object.Object{}
		for _, f := range sym.Flags {
			flags = append(flags, object.NewString(f))
		}
		return object.NewMap(map[string]object.Object{
			"scope":       object.NewInt(sc.ID),
			"scope_index": object.NewInt(int64(sc.ScopeIndex)),
			"symbol": object.NewMap(map[string]object.Object{
				"id":    object.NewInt(sym.ID),
				"name":  object.NewString(sym.Name),
				"flags": object.NewList(flags),
			}),
		})
	})
}

func filesToList(files []*store.File) object.Object {
	results := []object.Object{}
	for _, f := range files {
		results = append(results, object.NewMap(map[string]object.Object{
			"id":                object.NewInt(f.ID),
			"path":              object.NewString(f.Path),
			"hash":              object.NewString(f.Hash),
			"lines":             object.NewInt(int64(f.LineCount)),
			"has_syntax_errors": object.NewBool(f.HasSyntaxErrors),
		}))
	}
	return object.NewList(results)
}

// --- Argument helpers ---

func toInt64(obj object.Object) (int64, error) {
	if i, ok := obj.(*object.Int); ok {
		return i.Value(), nil
	}
	if f, ok := obj.(*object.Float); ok {
		return int64(f.Value()), nil
	}
	return 0, fmt.Errorf("expected int, got %s", obj.Type())
}

func toString(obj object.Object) (string, error) {
	if s, ok := obj.(*object.String); ok {
		return s.Value(), nil
	}
	return "", fmt.Errorf("expected string, got %s", obj.Type())
}

func errScopeOutOfRange(id int64, count int) error {
	return fmt.Errorf("scope %d out of range [0, %d)", id, count)
}
