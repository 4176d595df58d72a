// Package workspace provides the §6 external interface: it wires the
// manifest loader, package cache, solver, source reader, forest, import
// resolver, and reference resolver together behind a single Handle that
// the hosting editor-protocol layer drives.
//
// Grounded on golang-dep's context.go + project_manager.go, the pair of
// types that own a GOPATH-equivalent project root and hand out every
// derived view (selected versions, source trees) to the rest of the
// program -- the same coordinating role a Handle plays here.
package workspace

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/theckman/go-flock"

	"github.com/elmtools/lsp-core/coreerr"
	"github.com/elmtools/lsp-core/corelsp"
	"github.com/elmtools/lsp-core/cst"
	"github.com/elmtools/lsp-core/forest"
	"github.com/elmtools/lsp-core/importresolver"
	"github.com/elmtools/lsp-core/internal/corelog"
	"github.com/elmtools/lsp-core/manifest"
	"github.com/elmtools/lsp-core/modindex"
	"github.com/elmtools/lsp-core/pkgcache"
	"github.com/elmtools/lsp-core/refresolver"
	"github.com/elmtools/lsp-core/solver"
	"github.com/elmtools/lsp-core/sourcereader"
)

// Handle owns one forest, one solved dependency Solution, and one
// HostSink (spec.md's phrase for the logger capability passed in rather
// than reached for as a global). One workspace is driven single-threaded
// cooperatively (spec.md §5); Handle's own mutex serializes
// ApplyFileChange calls and does not guard the forest itself, which has
// its own internal RWMutex for the single-writer/many-reader discipline.
type Handle struct {
	mu sync.Mutex

	RootPath string
	Manifest *manifest.Manifest
	Forest   *forest.Forest
	Solution solver.Solution

	cache   *pkgcache.Cache
	watcher *sourcereader.Watcher
	lock    *flock.Flock
	log     *corelog.Logger
}

// LoadWorkspace implements spec.md §6 loadWorkspace: read the root
// manifest, run the solver, populate the forest from the project's own
// source directories and every solved dependency's source directories.
//
// A theckman/go-flock advisory lock on a sentinel file in rootPath guards
// against two processes concurrently loading (and so concurrently
// populating a shared on-disk package cache for) the same workspace root.
func LoadWorkspace(rootPath string, cacheDir string, log *corelog.Logger) (*Handle, error) {
	if log == nil {
		log = corelog.NewNop()
	}

	lck := flock.New(filepath.Join(rootPath, ".elmlsd.lock"))
	if err := lck.Lock(); err != nil {
		return nil, coreerr.Wrap(coreerr.KindProjectMisconfigured, err, "acquiring workspace lock")
	}

	m, err := manifest.Load(filepath.Join(rootPath, "elm.json"))
	if err != nil {
		lck.Unlock()
		return nil, err
	}

	cache, err := pkgcache.Open(cacheDir)
	if err != nil {
		lck.Unlock()
		return nil, err
	}

	h := &Handle{
		RootPath: rootPath,
		Manifest: m,
		Forest:   forest.New(),
		cache:    cache,
		lock:     lck,
		log:      log,
	}

	sol, err := solver.Solve(cache, m.Dependencies)
	if err != nil {
		// Solver failure: the workspace loads with only the project files
		// (spec.md §4's failure-semantics note); resolvers then treat every
		// dependency module as missing.
		log.Warnf("dependency solve failed, loading project files only: %v", err)
		h.Solution = solver.Solution{}
	} else {
		h.Solution = sol
	}

	if err := h.loadProjectFiles(); err != nil {
		lck.Unlock()
		return nil, err
	}
	h.loadDependencyFiles()
	h.resolveAllImports()

	watcher, err := sourcereader.NewWatcher(h.absoluteSourceDirs(), log)
	if err != nil {
		log.Warnf("source watcher unavailable: %v", err)
	} else {
		h.watcher = watcher
		watcher.Start(300 * time.Millisecond)
		go h.pumpWatcherEvents()
	}

	return h, nil
}

func (h *Handle) absoluteSourceDirs() []string {
	dirs := make([]string, 0, len(h.Manifest.SourceDirs))
	for _, d := range h.Manifest.SourceDirs {
		dirs = append(dirs, filepath.Join(h.RootPath, d))
	}
	return dirs
}

func (h *Handle) loadProjectFiles() error {
	files, readErrs, err := sourcereader.EnumerateDirs(h.RootPath, h.Manifest.SourceDirs, true)
	if err != nil {
		return err
	}
	for _, e := range readErrs {
		h.log.Warnf("skipping unreadable source file: %v", e)
	}
	for _, f := range files {
		if _, err := h.Forest.AddOrReplace(f.URI, f.Bytes, f.Writeable); err != nil {
			h.log.Warnf("loading %s: %v", f.URI, err)
		}
	}
	return nil
}

// loadDependencyFiles enumerates the source directories of every selected
// dependency (read-only per spec.md §4.4). Dependency source is read from
// <root>/elm-stuff/packages/<package>/<version>/src, a per-package,
// per-version layout like the one the teacher's source_manager.go uses for
// fetched revisions under its base cache directory.
func (h *Handle) loadDependencyFiles() {
	for name, version := range h.Solution {
		depRoot := filepath.Join(h.RootPath, "elm-stuff", "packages", name, version.String())
		files, readErrs, err := sourcereader.EnumerateDirs(depRoot, []string{"src"}, false)
		if err != nil {
			h.log.Warnf("dependency %s@%s source unavailable: %v", name, version, err)
			continue
		}
		for _, e := range readErrs {
			h.log.Warnf("skipping unreadable dependency file: %v", e)
		}
		for _, f := range files {
			if _, err := h.Forest.AddOrReplace(f.URI, f.Bytes, f.Writeable); err != nil {
				h.log.Warnf("loading %s: %v", f.URI, err)
			}
		}
	}
}

func (h *Handle) resolveAllImports() {
	lookup := forestLookup{h.Forest}
	for _, tc := range h.Forest.All() {
		imports := importresolver.Resolve(tc.Tree, lookup)
		h.Forest.SetResolvedImports(tc.URI, tc.Generation, imports)
	}
}

func (h *Handle) pumpWatcherEvents() {
	for change := range h.watcher.Events() {
		switch change.Kind {
		case sourcereader.Removed:
			h.Forest.Remove(change.URI)
		default:
			if _, err := h.Forest.AddOrReplace(change.URI, change.Bytes, true); err != nil {
				h.log.Warnf("reparsing %s: %v", change.URI, err)
				continue
			}
		}
		h.resolveAllImports()
	}
}

// ApplyFileChange implements spec.md §6 applyFileChange: an idempotent
// file update. Passing deleted=true removes uri from the forest instead of
// reparsing it. Reparsing one file invalidates the import resolution of
// every file (a module it used to expose, or stopped exposing, can change
// another file's binding environment), so resolution is recomputed for the
// whole forest -- cheap relative to the parse itself, and simpler than
// tracking a dependency graph between files.
func (h *Handle) ApplyFileChange(uri string, bytes []byte, deleted bool) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if deleted {
		h.Forest.Remove(uri)
	} else {
		if _, err := h.Forest.AddOrReplace(uri, bytes, true); err != nil {
			return err
		}
	}
	h.resolveAllImports()
	return nil
}

// GetForest implements spec.md §6 getForest.
func (h *Handle) GetForest() *forest.Forest { return h.Forest }

// GetTree implements spec.md §6 getTree.
func (h *Handle) GetTree(uri string) *cst.Node {
	tc := h.Forest.GetByURI(uri)
	if tc == nil {
		return nil
	}
	return tc.Tree
}

// FindDefinition implements spec.md §6 findDefinition.
func (h *Handle) FindDefinition(uri string, pos int) (*refresolver.DefinitionNode, error) {
	return refresolver.FindDefinition(h.Forest, uri, pos)
}

// FindReferences implements spec.md §6 findReferences.
func (h *Handle) FindReferences(def *refresolver.DefinitionNode, cancel refresolver.CancelToken) ([]refresolver.Reference, error) {
	return refresolver.FindReferences(h.Forest, def, cancel)
}

// DefinitionLocation converts the result of FindDefinition to an
// lsp.Location-shaped corelsp.Location, the form a textDocument/definition
// response hands back over the wire.
func (h *Handle) DefinitionLocation(uri string, pos int) (*corelsp.Location, error) {
	def, err := h.FindDefinition(uri, pos)
	if err != nil || def == nil {
		return nil, err
	}
	loc := corelsp.NewLocation(def.URI, def.Node)
	return &loc, nil
}

// ReferenceLocations converts the result of FindReferences to a slice of
// corelsp.Location, the form a textDocument/references response hands back.
func (h *Handle) ReferenceLocations(def *refresolver.DefinitionNode, cancel refresolver.CancelToken) ([]corelsp.Location, error) {
	refs, err := h.FindReferences(def, cancel)
	if err != nil {
		return nil, err
	}
	locs := make([]corelsp.Location, len(refs))
	for i, r := range refs {
		locs[i] = corelsp.NewLocation(r.URI, r.Node)
	}
	return locs, nil
}

// GetImports implements spec.md §6 getImports.
func (h *Handle) GetImports(uri string) []importresolver.ResolvedImport {
	tc := h.Forest.GetByURI(uri)
	if tc == nil {
		return nil
	}
	return tc.ResolvedImports
}

// Close releases the workspace's advisory lock and stops its file watcher.
func (h *Handle) Close() error {
	if h.watcher != nil {
		h.watcher.Close()
	}
	h.cache.Close()
	return h.lock.Unlock()
}

// forestLookup adapts *forest.Forest to importresolver.Lookup. It lives
// here, in package workspace, rather than in package forest or
// importresolver, specifically to avoid the import cycle those two
// packages would otherwise form (forest.TreeContainer embeds
// importresolver.ResolvedImport; importresolver needs read access to the
// forest to resolve module names). workspace already imports both, so it
// is the natural home for the adapter.
type forestLookup struct {
	f *forest.Forest
}

func (l forestLookup) LookupModule(name string) (importresolver.ModuleInfo, bool) {
	tc := l.f.GetByModule(name)
	if tc == nil {
		return importresolver.ModuleInfo{}, false
	}
	return importresolver.ModuleInfo{
		ModuleName: tc.ModuleName,
		Exposing:   tc.Exposing,
		HasBinding: func(n string) bool {
			_, ok := tc.Binding(n)
			return ok
		},
		ConstructorsOf: func(typeName string) []string {
			var ctors []string
			for _, b := range tc.TopLevelBindings {
				if b.Kind != modindex.BindingUnionConstructor || b.ParentUnion == nil {
					continue
				}
				if name := b.ParentUnion.FindChild(cst.KindUpperIdentifier); name != nil && name.Text == typeName {
					ctors = append(ctors, b.Name)
				}
			}
			return ctors
		},
	}, true
}
