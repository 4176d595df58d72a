// Package importresolver implements component C7: for each tree, resolve
// its import list into a binding environment mapping local names to
// (moduleUri, symbol).
//
// Grounded on the teacher's analysis.go/deduce.go, which perform the
// closest analogous step in golang-dep -- turning a raw import path list
// into resolved project roots before the solver ever runs.
package importresolver

import (
	"github.com/elmtools/lsp-core/cst"
	"github.com/elmtools/lsp-core/modindex"
)

// ModuleInfo is the subset of a module's identity that import resolution
// needs to look up: whether it exists in the forest, what it exposes, and
// whether a given name is among its top-level bindings.
type ModuleInfo struct {
	ModuleName string
	Exposing   modindex.ExposingSet
	HasBinding func(name string) bool
	// ConstructorsOf returns the names of every union constructor whose
	// parent union type is typeName, for expanding a "T(..)" aggregate
	// exposure (spec.md §4.7).
	ConstructorsOf func(typeName string) []string
}

// Lookup resolves a module name to its ModuleInfo. It is implemented by a
// thin adapter over *forest.Forest in package workspace, kept as an
// interface here so this package never needs to import forest (which
// itself imports this package for the ResolvedImport type).
type Lookup interface {
	LookupModule(name string) (ModuleInfo, bool)
}

// ExposedBinding is what a locally-exposed name resolves to.
type ExposedBinding struct {
	SourceModule string
	OriginalName string
}

// ResolvedImport is one import statement's resolved effect on the
// importing file's binding environment (spec.md §3).
type ResolvedImport struct {
	SourceModule string
	// Alias is the qualifier used for Mod.foo-style access: the module's
	// own name, or the "as X" alias if present.
	Alias string
	// ExposedLocally brings names into the unqualified namespace, per the
	// module's explicit exposing(...) clause.
	ExposedLocally map[string]ExposedBinding
	// Unresolved is true when SourceModule could not be found in the
	// forest (spec.md §4.7 invariant: unresolved names are returned as
	// Unresolved rather than silently dropped).
	Unresolved bool
	// Wildcard is true for an "exposing (..)" clause, which brings every
	// exported binding of the source module into the unqualified
	// namespace. The membership test happens lazily, via ModuleInfo, since
	// enumerating every name up front would require the full binding list
	// rather than just the exposing predicate.
	Wildcard bool
}

// preludeModules lists the implicit default imports of the language's
// standard prelude (spec.md §4.7), added to every module unless shadowed
// by an explicit import of the same module.
var preludeModules = []string{"Basics", "List", "Maybe", "Result", "String", "Char", "Tuple"}

// Resolve computes every ResolvedImport for root's import clauses, plus
// the implicit prelude imports not already shadowed by an explicit one.
func Resolve(root *cst.Node, lookup Lookup) []ResolvedImport {
	var out []ResolvedImport
	seen := make(map[string]bool)

	for _, imp := range root.FindChildren(cst.KindImportClause) {
		ri := resolveOne(imp, lookup)
		seen[ri.SourceModule] = true
		out = append(out, ri)
	}

	for _, name := range preludeModules {
		if seen[name] {
			continue
		}
		out = append(out, resolvePrelude(name, lookup))
	}

	return out
}

func resolveOne(imp *cst.Node, lookup Lookup) ResolvedImport {
	moduleNameNode := imp.FindChild(cst.KindUpperIdentifier)
	moduleName := ""
	if moduleNameNode != nil {
		moduleName = moduleNameNode.Text
	}

	ri := ResolvedImport{SourceModule: moduleName, Alias: moduleName, ExposedLocally: map[string]ExposedBinding{}}

	// The second UpperIdentifier child, if present and not part of an
	// exposing list, is the "as X" alias.
	var aliasNode *cst.Node
	var exposingList *cst.Node
	for i, c := range imp.Children {
		if i == 0 {
			continue // the module name node itself
		}
		switch c.Kind {
		case cst.KindUpperIdentifier:
			aliasNode = c
		case cst.KindExposingList:
			exposingList = c
		}
	}
	if aliasNode != nil {
		ri.Alias = aliasNode.Text
	}

	info, ok := lookup.LookupModule(moduleName)
	if !ok {
		ri.Unresolved = true
		return ri
	}

	if exposingList != nil {
		applyExposing(&ri, exposingList, info)
	}

	return ri
}

// applyExposing brings the names listed in an explicit exposing(...)
// clause into the local unqualified namespace (spec.md §4.7):
// "T(..)" exposes every constructor of union T, "T(A, B)" exposes only the
// listed constructors, ".." exposes every exported binding of the
// imported module, and plain names expose themselves -- but only when the
// source module actually exposes them (the resolver never fabricates a
// binding for a name an import does not expose).
func applyExposing(ri *ResolvedImport, list *cst.Node, info ModuleInfo) {
	if len(list.Children) == 0 && isWildcard(list) {
		ri.Wildcard = true
		return
	}

	for _, item := range list.Children {
		switch item.Kind {
		case cst.KindExposedValue:
			if n := item.FindChild(cst.KindLowerIdentifier); n != nil && info.Exposing.Exposes(n.Text) {
				ri.ExposedLocally[n.Text] = ExposedBinding{SourceModule: info.ModuleName, OriginalName: n.Text}
			}
		case cst.KindExposedOperator:
			if n := item.FindChild(cst.KindOperatorIdentifier); n != nil && info.Exposing.Exposes(n.Text) {
				ri.ExposedLocally[n.Text] = ExposedBinding{SourceModule: info.ModuleName, OriginalName: n.Text}
			}
		case cst.KindExposedType:
			children := item.FindChildren(cst.KindUpperIdentifier)
			if len(children) == 0 {
				continue
			}
			typeName := children[0].Text
			if info.Exposing.Exposes(typeName) {
				ri.ExposedLocally[typeName] = ExposedBinding{SourceModule: info.ModuleName, OriginalName: typeName}
			}
			if item.FindChild(cst.KindDoubleDot) != nil {
				if info.ConstructorsOf != nil {
					for _, ctor := range info.ConstructorsOf(typeName) {
						if info.Exposing.Exposes(ctor) {
							ri.ExposedLocally[ctor] = ExposedBinding{SourceModule: info.ModuleName, OriginalName: ctor}
						}
					}
				}
				continue
			}
			for _, ctor := range children[1:] {
				if info.Exposing.Exposes(ctor.Text) {
					ri.ExposedLocally[ctor.Text] = ExposedBinding{SourceModule: info.ModuleName, OriginalName: ctor.Text}
				}
			}
		}
	}
}

func isWildcard(list *cst.Node) bool {
	for i := 0; i+1 < len(list.Text); i++ {
		if list.Text[i] == '.' && list.Text[i+1] == '.' {
			return true
		}
	}
	return false
}

func resolvePrelude(name string, lookup Lookup) ResolvedImport {
	ri := ResolvedImport{SourceModule: name, Alias: name, ExposedLocally: map[string]ExposedBinding{}}
	if _, ok := lookup.LookupModule(name); !ok {
		ri.Unresolved = true
	}
	return ri
}
