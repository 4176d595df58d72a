// Package modindex implements component C6, the module index: for each
// parsed tree, extract the module declaration, the exposing set, and every
// top-level binding (values, type aliases, union types and their
// constructors, ports, and infix operators).
//
// Grounded on the teacher's pkgtree.go, which performs the analogous
// "walk one parsed file, extract its package-level facts" step for Go
// packages (package name, imports) ahead of any cross-package resolution.
package modindex

import "github.com/elmtools/lsp-core/cst"

// BindingKind classifies a TopLevelBinding, per spec.md §3.
type BindingKind uint8

const (
	BindingValue BindingKind = iota
	BindingTypeAlias
	BindingUnionType
	BindingUnionConstructor
	BindingPort
	BindingOperator
)

func (k BindingKind) String() string {
	switch k {
	case BindingValue:
		return "Value"
	case BindingTypeAlias:
		return "TypeAlias"
	case BindingUnionType:
		return "UnionType"
	case BindingUnionConstructor:
		return "UnionConstructor"
	case BindingPort:
		return "Port"
	case BindingOperator:
		return "Operator"
	default:
		return "Unknown"
	}
}

// TopLevelBinding is a named thing introduced at file scope.
type TopLevelBinding struct {
	Name         string
	Kind         BindingKind
	DefiningNode *cst.Node
	// TypeAnnotation is the preceding type-annotation sibling for a Value
	// binding, if one was present. Nil otherwise.
	TypeAnnotation *cst.Node
	// ParentUnion points back to the union type node that introduced this
	// constructor. Nil for every other binding kind (spec.md §4.6
	// invariant: "constructor bindings point back to their parent union
	// type; the index exposes both").
	ParentUnion *cst.Node
}

// ExposingSet is either the wildcard "expose everything" form or an
// explicit set of exported names.
type ExposingSet struct {
	All   bool
	Names map[string]bool
	// OpenTypes holds the names of union types exposed with the aggregate
	// "T(..)" form, pending expansion (by expandOpenTypes) to every
	// constructor whose ParentUnion is that type. Empty once Build returns.
	OpenTypes map[string]bool
}

// Exposes reports whether name is visible to importers.
func (e ExposingSet) Exposes(name string) bool {
	if e.All {
		return true
	}
	return e.Names[name]
}

// Index is the per-tree module index (spec.md §4.6).
type Index struct {
	ModuleName string
	Exposing   ExposingSet
	// TopLevel preserves declaration order; Bindings is the same data
	// keyed by name for O(1) lookup.
	TopLevel []TopLevelBinding
	Bindings map[string]*TopLevelBinding
}

// Build extracts a module Index from a parsed file root.
func Build(root *cst.Node) *Index {
	idx := &Index{
		ModuleName: "Main",
		Bindings:   make(map[string]*TopLevelBinding),
	}

	if modDecl := root.FindChild(cst.KindModuleDeclaration); modDecl != nil {
		if nameNode := modDecl.FindChild(cst.KindUpperIdentifier); nameNode != nil {
			idx.ModuleName = nameNode.Text
		}
		if expList := modDecl.FindChild(cst.KindExposingList); expList != nil {
			idx.Exposing = buildExposingSet(expList)
		}
	} else {
		idx.Exposing = ExposingSet{All: true}
	}

	var pendingAnnotation *cst.Node
	for _, child := range root.Children {
		switch child.Kind {
		case cst.KindTypeAnnotation:
			pendingAnnotation = child
		case cst.KindValueDeclaration:
			name := firstLowerIdentText(child)
			b := TopLevelBinding{Name: name, Kind: BindingValue, DefiningNode: child}
			if pendingAnnotation != nil && annotationName(pendingAnnotation) == name {
				b.TypeAnnotation = pendingAnnotation
			}
			pendingAnnotation = nil
			idx.add(b)
		case cst.KindTypeAlias:
			name := firstUpperIdentText(child)
			idx.add(TopLevelBinding{Name: name, Kind: BindingTypeAlias, DefiningNode: child})
			pendingAnnotation = nil
		case cst.KindUnionType:
			name := firstUpperIdentText(child)
			idx.add(TopLevelBinding{Name: name, Kind: BindingUnionType, DefiningNode: child})
			for _, variant := range child.FindChildren(cst.KindUnionVariant) {
				ctorName := firstUpperIdentText(variant)
				idx.add(TopLevelBinding{
					Name:         ctorName,
					Kind:         BindingUnionConstructor,
					DefiningNode: variant,
					ParentUnion:  child,
				})
			}
			pendingAnnotation = nil
		case cst.KindPort:
			name := firstLowerIdentText(child)
			idx.add(TopLevelBinding{Name: name, Kind: BindingPort, DefiningNode: child})
			pendingAnnotation = nil
		case cst.KindInfixDeclaration:
			name := infixOperatorText(child)
			idx.add(TopLevelBinding{Name: name, Kind: BindingOperator, DefiningNode: child})
			pendingAnnotation = nil
		default:
			pendingAnnotation = nil
		}
	}

	idx.expandOpenTypes()

	return idx
}

// expandOpenTypes resolves every "T(..)" aggregate exposure recorded during
// buildExposingSet to the full set of constructor names now that TopLevel
// has been populated: every BindingUnionConstructor whose ParentUnion names
// one of the open types is added to Exposing.Names (spec.md §4.6/§4.7).
func (idx *Index) expandOpenTypes() {
	if len(idx.Exposing.OpenTypes) == 0 {
		return
	}
	for _, b := range idx.TopLevel {
		if b.Kind != BindingUnionConstructor || b.ParentUnion == nil {
			continue
		}
		if idx.Exposing.OpenTypes[firstUpperIdentText(b.ParentUnion)] {
			idx.Exposing.Names[b.Name] = true
		}
	}
	idx.Exposing.OpenTypes = nil
}

func (idx *Index) add(b TopLevelBinding) {
	idx.TopLevel = append(idx.TopLevel, b)
	stored := &idx.TopLevel[len(idx.TopLevel)-1]
	idx.Bindings[b.Name] = stored
}

func buildExposingSet(list *cst.Node) ExposingSet {
	set := ExposingSet{Names: make(map[string]bool), OpenTypes: make(map[string]bool)}
	for _, item := range list.Children {
		switch item.Kind {
		case cst.KindExposedValue:
			if n := item.FindChild(cst.KindLowerIdentifier); n != nil {
				set.Names[n.Text] = true
			}
		case cst.KindExposedOperator:
			if n := item.FindChild(cst.KindOperatorIdentifier); n != nil {
				set.Names[n.Text] = true
			}
		case cst.KindExposedType:
			name := ""
			if n := item.FindChild(cst.KindUpperIdentifier); n != nil {
				name = n.Text
				set.Names[name] = true
			}
			if item.FindChild(cst.KindDoubleDot) != nil {
				set.OpenTypes[name] = true
				continue
			}
			for _, ctor := range item.FindChildren(cst.KindUpperIdentifier)[1:] {
				set.Names[ctor.Text] = true
			}
		}
	}
	if len(list.Children) == 0 {
		// Either "exposing ()" (nothing exposed, explicit empty set) or
		// "exposing (..)" (wildcard, whose ".." token the parser consumes
		// without emitting a child). Disambiguate on raw text.
		set.All = containsDotDot(list.Text)
	}
	return set
}

func containsDotDot(s string) bool {
	for i := 0; i+1 < len(s); i++ {
		if s[i] == '.' && s[i+1] == '.' {
			return true
		}
	}
	return false
}

func firstLowerIdentText(n *cst.Node) string {
	if c := n.FindChild(cst.KindLowerIdentifier); c != nil {
		return c.Text
	}
	return ""
}

func firstUpperIdentText(n *cst.Node) string {
	if c := n.FindChild(cst.KindUpperIdentifier); c != nil {
		return c.Text
	}
	return ""
}

func annotationName(annotation *cst.Node) string {
	return firstLowerIdentText(annotation)
}

func infixOperatorText(n *cst.Node) string {
	if c := n.FindChild(cst.KindOperatorIdentifier); c != nil {
		return c.Text
	}
	return ""
}
