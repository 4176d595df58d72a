// Package forest implements component C5, the forest: the collection of
// parsed syntax trees for every source file in a workspace, kept
// consistent with on-disk and editor state.
//
// Grounded on the teacher's project_manager.go / sm_cache.go pattern of a
// single owning store that is mutated only through explicit
// add/replace/remove operations and queried everywhere else -- the same
// "single writer, many readers" discipline spec.md §5 requires.
package forest

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/elmtools/lsp-core/cst"
	"github.com/elmtools/lsp-core/importresolver"
	"github.com/elmtools/lsp-core/modindex"
)

// TreeContainer is the reconstructed-on-every-reparse view of one source
// file (spec.md §3). ResolvedImports starts nil after addOrReplace and is
// filled in by a subsequent SetResolvedImports call -- import resolution
// is a pure view over the forest (§9 design note) computed by package
// importresolver, which needs the forest itself to resolve module names,
// so it cannot live inside this package without an import cycle.
type TreeContainer struct {
	URI        string
	Tree       *cst.Node
	Writeable  bool
	Generation uint64

	ModuleName       string
	Exposing         modindex.ExposingSet
	TopLevelBindings []modindex.TopLevelBinding
	bindingsByName   map[string]*modindex.TopLevelBinding

	ResolvedImports []importresolver.ResolvedImport
}

// Binding looks up a top-level binding by name.
func (tc *TreeContainer) Binding(name string) (*modindex.TopLevelBinding, bool) {
	b, ok := tc.bindingsByName[name]
	return b, ok
}

// Forest is Map<FileURI, TreeContainer> plus the secondary
// Map<ModuleName, FileURI> index (spec.md §3), which holds one URI per
// module name. No two writeable trees may share a module name. Other
// collisions (a read-only tree with any other tree) are not rejected: the
// tree added last takes the module name, and the earlier tree stays
// reachable by URI only.
type Forest struct {
	mu         sync.RWMutex
	byURI      map[string]*TreeContainer
	byModule   map[string]string
	generation uint64
}

// New returns an empty Forest.
func New() *Forest {
	return &Forest{
		byURI:    make(map[string]*TreeContainer),
		byModule: make(map[string]string),
	}
}

// AddOrReplace parses bytes and installs (or replaces) the TreeContainer
// for uri. A parse always succeeds (spec.md §4.5): syntax errors surface
// as ERROR nodes in the tree rather than as a returned error. The only
// error this can return is the "no two writeable trees share a module
// name" invariant violation.
func (f *Forest) AddOrReplace(uri string, bytes []byte, writeable bool) (*TreeContainer, error) {
	tree := cst.Parse(bytes)
	idx := modindex.Build(tree)

	f.mu.Lock()
	defer f.mu.Unlock()

	if writeable {
		if existingURI, ok := f.byModule[idx.ModuleName]; ok && existingURI != uri {
			if existing, ok := f.byURI[existingURI]; ok && existing.Writeable {
				return nil, errors.Errorf("module %q is already defined in %s", idx.ModuleName, existingURI)
			}
		}
	}

	f.generation++
	tc := &TreeContainer{
		URI:              uri,
		Tree:             tree,
		Writeable:        writeable,
		Generation:       f.generation,
		ModuleName:       idx.ModuleName,
		Exposing:         idx.Exposing,
		TopLevelBindings: idx.TopLevel,
		bindingsByName:   idx.Bindings,
	}

	if old, ok := f.byURI[uri]; ok && old.ModuleName != idx.ModuleName {
		delete(f.byModule, old.ModuleName)
	}
	f.byURI[uri] = tc
	f.byModule[idx.ModuleName] = uri

	return tc, nil
}

// SetResolvedImports stores the result of resolving uri's import list,
// computed externally by package importresolver (which needs read access
// to this Forest to resolve module names, so the computation can't live
// inside AddOrReplace without an import cycle). A no-op if uri is no
// longer present or has since been reparsed to a newer generation.
func (f *Forest) SetResolvedImports(uri string, generation uint64, imports []importresolver.ResolvedImport) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tc, ok := f.byURI[uri]
	if !ok || tc.Generation != generation {
		return
	}
	tc.ResolvedImports = imports
}

// Remove deletes the TreeContainer for uri, if any, invalidating any
// analyses keyed on it.
func (f *Forest) Remove(uri string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tc, ok := f.byURI[uri]
	if !ok {
		return
	}
	delete(f.byURI, uri)
	if f.byModule[tc.ModuleName] == uri {
		delete(f.byModule, tc.ModuleName)
	}
}

// GetByURI returns the TreeContainer for uri, or nil.
func (f *Forest) GetByURI(uri string) *TreeContainer {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.byURI[uri]
}

// GetByModule returns the TreeContainer whose module declaration names
// moduleName, or nil.
func (f *Forest) GetByModule(moduleName string) *TreeContainer {
	f.mu.RLock()
	defer f.mu.RUnlock()
	uri, ok := f.byModule[moduleName]
	if !ok {
		return nil
	}
	return f.byURI[uri]
}

// AllWriteable returns every writeable TreeContainer in the forest. The
// returned slice is a snapshot; it is safe to iterate even if the forest
// is mutated concurrently afterward.
func (f *Forest) AllWriteable() []*TreeContainer {
	f.mu.RLock()
	defer f.mu.RUnlock()
	var out []*TreeContainer
	for _, tc := range f.byURI {
		if tc.Writeable {
			out = append(out, tc)
		}
	}
	return out
}

// All returns every TreeContainer in the forest, writeable and read-only.
func (f *Forest) All() []*TreeContainer {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]*TreeContainer, 0, len(f.byURI))
	for _, tc := range f.byURI {
		out = append(out, tc)
	}
	return out
}
