package pyscope

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jward/pyscope/internal/store"
)

// DependencyGraph is the module-to-module dependency graph, aggregated from
// file-level imports.
type DependencyGraph struct {
	Modules  []ModuleNode
	Edges    []DependencyEdge
	External []string // top-level names of imported modules that are not indexed
}

// ModuleNode represents an indexed module. A package directory and a
// same-named module file both contribute to one node.
type ModuleNode struct {
	Name      string
	FileCount int
	LineCount int
}

// DependencyEdge represents a dependency between two modules with the
// number of import aliases that contribute to it.
type DependencyEdge struct {
	FromModule  string
	ToModule    string
	ImportCount int
}

// ModuleDependencyGraph returns the module-to-module dependency graph.
// Relative imports resolve against the importing file's package. An import
// of a dotted name resolves to its longest indexed prefix; imports with no
// indexed prefix are external. A module importing itself adds no edge.
func (q *QueryBuilder) ModuleDependencyGraph() (*DependencyGraph, error) {
	files, err := q.store.Files()
	if err != nil {
		return nil, fmt.Errorf("module dependency graph: files: %w", err)
	}

	type fileInfo struct {
		module    string
		isPackage bool
	}
	byID := map[int64]fileInfo{}
	nodes := map[string]*ModuleNode{}
	for _, f := range files {
		if f.Module == "" {
			continue
		}
		byID[f.ID] = fileInfo{module: f.Module, isPackage: store.IsPackagePath(f.Path)}
		n, ok := nodes[f.Module]
		if !ok {
			n = &ModuleNode{Name: f.Module}
			nodes[f.Module] = n
		}
		n.FileCount++
		n.LineCount += f.LineCount
	}

	imports, err := q.store.AllImports()
	if err != nil {
		return nil, fmt.Errorf("module dependency graph: %w", err)
	}

	known := func(name string) bool {
		_, ok := nodes[name]
		return ok
	}

	type edgeKey struct {
		from, to string
	}
	edgeCounts := map[edgeKey]int{}
	external := map[string]bool{}
	for _, imp := range imports {
		from, ok := byID[imp.FileID]
		if !ok {
			continue // importer has no module name
		}
		target, ok := store.ImportTarget(from.module, from.isPackage, imp.Module, imp.Level)
		if !ok {
			continue // relative import escapes the root
		}
		// "from pkg import sub" names the submodule when one is indexed.
		if imp.IsFromImport() && imp.Name != "*" {
			if sub := store.JoinModule(target, imp.Name); known(sub) {
				target = sub
			}
		}
		to, ok := longestKnownPrefix(target, known)
		if !ok {
			if imp.Level == 0 && target != "" {
				external[strings.SplitN(target, ".", 2)[0]] = true
			}
			continue
		}
		if to == from.module {
			continue
		}
		edgeCounts[edgeKey{from: from.module, to: to}]++
	}

	// Sort by name for deterministic output.
	names := make([]string, 0, len(nodes))
	for name := range nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	modules := make([]ModuleNode, 0, len(names))
	for _, name := range names {
		modules = append(modules, *nodes[name])
	}

	edges := make([]DependencyEdge, 0, len(edgeCounts))
	for ek, count := range edgeCounts {
		edges = append(edges, DependencyEdge{
			FromModule:  ek.from,
			ToModule:    ek.to,
			ImportCount: count,
		})
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].FromModule != edges[j].FromModule {
			return edges[i].FromModule < edges[j].FromModule
		}
		return edges[i].ToModule < edges[j].ToModule
	})

	ext := make([]string, 0, len(external))
	for name := range external {
		ext = append(ext, name)
	}
	sort.Strings(ext)

	return &DependencyGraph{Modules: modules, Edges: edges, External: ext}, nil
}

// longestKnownPrefix returns the longest dotted prefix of name that known
// accepts.
func longestKnownPrefix(name string, known func(string) bool) (string, bool) {
	for name != "" {
		if known(name) {
			return name, true
		}
		name = store.ParentModule(name)
	}
	return "", false
}

// CircularDependencies detects cycles in the module dependency graph using
// Tarjan's strongly connected components algorithm.
// Returns a list of cycles, each represented as a list of module names
// (first element repeated at end for clarity).
// Returns empty list (not nil) for acyclic graphs.
func (q *QueryBuilder) CircularDependencies() ([][]string, error) {
	graph, err := q.ModuleDependencyGraph()
	if err != nil {
		return nil, fmt.Errorf("circular dependencies: %w", err)
	}

	adj := map[string][]string{}
	for _, edge := range graph.Edges {
		adj[edge.FromModule] = append(adj[edge.FromModule], edge.ToModule)
	}

	// Tarjan's SCC algorithm.
	type nodeInfo struct {
		index   int
		lowlink int
		onStack bool
	}
	info := map[string]*nodeInfo{}
	index := 0
	var stack []string
	result := [][]string{}

	var strongconnect func(v string)
	strongconnect = func(v string) {
		ni := &nodeInfo{index: index, lowlink: index, onStack: true}
		info[v] = ni
		index++
		stack = append(stack, v)

		for _, w := range adj[v] {
			wInfo, visited := info[w]
			if !visited {
				strongconnect(w)
				ni.lowlink = min(ni.lowlink, info[w].lowlink)
			} else if wInfo.onStack {
				ni.lowlink = min(ni.lowlink, wInfo.index)
			}
		}

		if ni.lowlink != ni.index {
			return
		}
		var scc []string
		for {
			w := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			info[w].onStack = false
			scc = append(scc, w)
			if w == v {
				break
			}
		}
		// Self edges are never recorded, so only multi-module SCCs are cycles.
		if len(scc) < 2 {
			return
		}
		// Tarjan pops in reverse.
		for i, j := 0, len(scc)-1; i < j; i, j = i+1, j-1 {
			scc[i], scc[j] = scc[j], scc[i]
		}
		result = append(result, append(scc, scc[0]))
	}

	for _, m := range graph.Modules {
		if _, visited := info[m.Name]; !visited {
			strongconnect(m.Name)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i][0] < result[j][0]
	})
	return result, nil
}
