// Package refresolver implements component C8, the reference/definition
// resolver: given a cursor node, classify the identifier and walk bindings
// (local scope -> module scope -> imports -> transitive exposure) to find
// the defining node; and, given a definition, find every other occurrence
// across the forest.
//
// There is no teacher analog for this -- golang-dep never resolves
// identifier occurrences -- so this package is new code, but it reuses the
// forest/modindex/importresolver layering the teacher's own
// store/derive-views split established (§9 design note: "resolve as
// layered computations").
package refresolver

import (
	"github.com/elmtools/lsp-core/coreerr"
	"github.com/elmtools/lsp-core/cst"
	"github.com/elmtools/lsp-core/forest"
	"github.com/elmtools/lsp-core/importresolver"
	"github.com/elmtools/lsp-core/modindex"
)

// NodeType classifies what a DefinitionNode refers to.
type NodeType string

const (
	NodeValue             NodeType = "Value"
	NodeTypeAlias         NodeType = "TypeAlias"
	NodeUnionType         NodeType = "UnionType"
	NodeUnionConstructor  NodeType = "UnionConstructor"
	NodePort              NodeType = "Port"
	NodeOperator          NodeType = "Operator"
	NodeFunctionParameter NodeType = "FunctionParameter"
	NodeCasePattern       NodeType = "CasePattern"
)

// DefinitionNode is the resolved defining occurrence of an identifier
// (spec.md §4.8 step 3).
type DefinitionNode struct {
	Node     *cst.Node
	URI      string
	NodeType NodeType
}

// ReferenceKind classifies one occurrence found by FindReferences.
type ReferenceKind string

const (
	ReferenceDefinition          ReferenceKind = "Definition"
	ReferenceUse                 ReferenceKind = "Use"
	ReferenceExposingClauseEntry ReferenceKind = "ExposingClauseEntry"
	ReferenceImportClauseEntry   ReferenceKind = "ImportClauseEntry"
)

// Reference is one occurrence of an identifier (spec.md §3).
type Reference struct {
	URI  string
	Node *cst.Node
	Kind ReferenceKind
}

// CancelToken is checked by FindReferences between files (spec.md §5: "a
// query carries a cancellation token checked at least between files when
// iterating the forest"); once it has fired, FindReferences returns a
// KindCancelled error.
type CancelToken <-chan struct{}

func bindingKindToNodeType(k modindex.BindingKind) NodeType {
	switch k {
	case modindex.BindingValue:
		return NodeValue
	case modindex.BindingTypeAlias:
		return NodeTypeAlias
	case modindex.BindingUnionType:
		return NodeUnionType
	case modindex.BindingUnionConstructor:
		return NodeUnionConstructor
	case modindex.BindingPort:
		return NodePort
	case modindex.BindingOperator:
		return NodeOperator
	default:
		return NodeValue
	}
}

// FindDefinition implements spec.md §4.8 steps 1-3: locate the smallest
// node covering pos, classify it, and walk bindings outward until a
// defining occurrence is found. Returns (nil, nil) -- not an error -- when
// the identifier cannot be resolved (spec.md §7: UnresolvedReference
// surfaces as an absent result, never an exception).
func FindDefinition(f *forest.Forest, uri string, pos int) (*DefinitionNode, error) {
	tc := f.GetByURI(uri)
	if tc == nil {
		return nil, coreerr.New(coreerr.KindIoError, "no tree for "+uri)
	}

	node := tc.Tree.SmallestNodeContaining(pos)
	if node == nil {
		return nil, nil
	}

	return resolveNode(f, tc, node), nil
}

func resolveNode(f *forest.Forest, tc *forest.TreeContainer, node *cst.Node) *DefinitionNode {
	switch node.Kind {
	case cst.KindFunctionParameter:
		return &DefinitionNode{Node: node, URI: tc.URI, NodeType: NodeFunctionParameter}
	case cst.KindAnonymousFunctionParameter:
		return &DefinitionNode{Node: node, URI: tc.URI, NodeType: NodeFunctionParameter}
	case cst.KindCasePattern:
		return &DefinitionNode{Node: node, URI: tc.URI, NodeType: NodeCasePattern}
	}

	if node.Parent != nil && node.Parent.Kind == cst.KindQualifiedReference {
		return resolveQualified(f, node.Parent)
	}
	if node.Kind == cst.KindQualifiedReference {
		return resolveQualified(f, node)
	}

	switch node.Kind {
	case cst.KindLowerIdentifier:
		return resolveLower(f, tc, node)
	case cst.KindUpperIdentifier:
		return resolveUpper(f, tc, node)
	case cst.KindOperatorIdentifier:
		return resolveOperatorRef(f, tc, node)
	}

	return nil
}

// resolveQualified splits "Mod.foo" into its qualifier and bare name,
// resolves Mod via imports, and looks up foo in the target module's
// top-level bindings restricted to its exposing set.
func resolveQualified(f *forest.Forest, qref *cst.Node) *DefinitionNode {
	if len(qref.Children) < 2 {
		return nil
	}
	qualifier := qref.Children[0].Text
	last := qref.Children[len(qref.Children)-1]
	name := last.Text

	owningTC := enclosingTreeContainer(f, qref)
	if owningTC == nil {
		return nil
	}

	targetModule := resolveAliasToModule(owningTC, qualifier)
	if targetModule == "" {
		targetModule = qualifier
	}
	target := f.GetByModule(targetModule)
	if target == nil {
		return nil
	}
	if !target.Exposing.Exposes(name) {
		return nil
	}
	b, ok := target.Binding(name)
	if !ok {
		return nil
	}
	return &DefinitionNode{Node: b.DefiningNode, URI: target.URI, NodeType: bindingKindFromBinding(b)}
}

func bindingKindFromBinding(b *modindex.TopLevelBinding) NodeType {
	return bindingKindToNodeType(b.Kind)
}

func resolveAliasToModule(tc *forest.TreeContainer, alias string) string {
	for _, ri := range tc.ResolvedImports {
		if ri.Alias == alias {
			return ri.SourceModule
		}
	}
	return ""
}

// enclosingTreeContainer is a helper for resolving a node whose owning
// TreeContainer isn't otherwise passed down the call stack (qualified
// references are resolved from both the cursor path and from the
// cross-file reference scan). It walks to the node's root and matches it
// against every tree in the forest by identity.
func enclosingTreeContainer(f *forest.Forest, n *cst.Node) *forest.TreeContainer {
	root := n
	for root.Parent != nil {
		root = root.Parent
	}
	for _, tc := range f.All() {
		if tc.Tree == root {
			return tc
		}
	}
	return nil
}

// resolveLower walks outward through let-bindings, enclosing function
// parameters, case/lambda patterns, file-scope bindings, and imports
// (spec.md §4.7 shadowing order: innermost wins).
func resolveLower(f *forest.Forest, tc *forest.TreeContainer, node *cst.Node) *DefinitionNode {
	name := node.Text

	for anc := node.Parent; anc != nil; anc = anc.Parent {
		switch anc.Kind {
		case cst.KindLetExpression:
			for _, decl := range anc.FindChildren(cst.KindLetDeclaration) {
				if declName := firstChildText(decl, cst.KindLowerIdentifier); declName == name {
					return &DefinitionNode{Node: decl, URI: tc.URI, NodeType: NodeValue}
				}
			}
		case cst.KindValueDeclaration, cst.KindLetDeclaration:
			for _, param := range anc.FindChildren(cst.KindFunctionParameter) {
				if paramName := firstChildText(param, cst.KindLowerIdentifier); paramName == name {
					return &DefinitionNode{Node: param, URI: tc.URI, NodeType: NodeFunctionParameter}
				}
			}
		case cst.KindLambdaExpression:
			for _, param := range anc.FindChildren(cst.KindAnonymousFunctionParameter) {
				if paramName := firstChildText(param, cst.KindLowerIdentifier); paramName == name {
					return &DefinitionNode{Node: param, URI: tc.URI, NodeType: NodeFunctionParameter}
				}
			}
		case cst.KindCaseBranch:
			if pat := anc.FindChild(cst.KindCasePattern); pat != nil {
				if found := findBoundNameInPattern(pat, name); found != nil {
					return &DefinitionNode{Node: found, URI: tc.URI, NodeType: NodeCasePattern}
				}
			}
			if pat := anc.FindChild(cst.KindFunctionParameter); pat != nil && pat.Text == name {
				return &DefinitionNode{Node: pat, URI: tc.URI, NodeType: NodeFunctionParameter}
			}
		}
	}

	if b, ok := tc.Binding(name); ok {
		return &DefinitionNode{Node: b.DefiningNode, URI: tc.URI, NodeType: bindingKindFromBinding(b)}
	}

	return resolveViaImports(f, tc, name)
}

// findBoundNameInPattern looks for a lower-identifier bound by a (possibly
// nested constructor) pattern, e.g. "Just x" binding x.
func findBoundNameInPattern(pat *cst.Node, name string) *cst.Node {
	var found *cst.Node
	pat.Walk(func(n *cst.Node) {
		if n.Kind == cst.KindFunctionParameter && n.Text == name {
			found = n
		}
	})
	return found
}

func firstChildText(n *cst.Node, k cst.Kind) string {
	if c := n.FindChild(k); c != nil {
		return c.Text
	}
	return ""
}

// resolveViaImports checks the file's explicit import exposing lists, then
// the implicit wildcard imports, for name.
func resolveViaImports(f *forest.Forest, tc *forest.TreeContainer, name string) *DefinitionNode {
	for _, ri := range tc.ResolvedImports {
		if ri.Unresolved {
			continue
		}
		if eb, ok := ri.ExposedLocally[name]; ok {
			return lookupExposedBinding(f, eb)
		}
		if ri.Wildcard {
			target := f.GetByModule(ri.SourceModule)
			if target == nil {
				continue
			}
			if target.Exposing.Exposes(name) {
				if b, ok := target.Binding(name); ok {
					return &DefinitionNode{Node: b.DefiningNode, URI: target.URI, NodeType: bindingKindFromBinding(b)}
				}
			}
		}
	}
	return nil
}

func lookupExposedBinding(f *forest.Forest, eb importresolver.ExposedBinding) *DefinitionNode {
	target := f.GetByModule(eb.SourceModule)
	if target == nil {
		return nil
	}
	b, ok := target.Binding(eb.OriginalName)
	if !ok {
		return nil
	}
	return &DefinitionNode{Node: b.DefiningNode, URI: target.URI, NodeType: bindingKindFromBinding(b)}
}

// resolveUpper resolves an uppercase identifier: a type alias or union
// type lookup in type position, a union constructor lookup in expression
// position (spec.md §4.8).
func resolveUpper(f *forest.Forest, tc *forest.TreeContainer, node *cst.Node) *DefinitionNode {
	name := node.Text

	if b, ok := tc.Binding(name); ok {
		// A type name and one of its own constructors can share no name, so
		// any binding found under name is unambiguous regardless of
		// position; inTypePosition only matters when resolving the same
		// name through a wildcard import further down, where two different
		// modules could each expose an unrelated binding under that name.
		return &DefinitionNode{Node: b.DefiningNode, URI: tc.URI, NodeType: bindingKindFromBinding(b)}
	}

	inTypePosition := isInTypePosition(node)
	var fallback *DefinitionNode

	for _, ri := range tc.ResolvedImports {
		if ri.Unresolved {
			continue
		}
		if eb, ok := ri.ExposedLocally[name]; ok {
			return lookupExposedBinding(f, eb)
		}
		if ri.Wildcard {
			target := f.GetByModule(ri.SourceModule)
			if target == nil || !target.Exposing.Exposes(name) {
				continue
			}
			b, ok := target.Binding(name)
			if !ok {
				continue
			}
			def := &DefinitionNode{Node: b.DefiningNode, URI: target.URI, NodeType: bindingKindFromBinding(b)}
			if matchesTypePosition(b.Kind, inTypePosition) {
				return def
			}
			if fallback == nil {
				fallback = def
			}
		}
	}
	return fallback
}

// matchesTypePosition reports whether a binding of kind k belongs at a
// reference site where inTypePosition holds: type aliases and union types
// at type positions, everything else (values, constructors, ports) at
// expression positions.
func matchesTypePosition(k modindex.BindingKind, inTypePosition bool) bool {
	isTypeKind := k == modindex.BindingTypeAlias || k == modindex.BindingUnionType
	return isTypeKind == inTypePosition
}

func isInTypePosition(node *cst.Node) bool {
	for anc := node.Parent; anc != nil; anc = anc.Parent {
		switch anc.Kind {
		case cst.KindTypeAnnotation, cst.KindTypeAlias, cst.KindTypeReference, cst.KindUnionVariant:
			return true
		case cst.KindValueDeclaration, cst.KindLetDeclaration, cst.KindApplication:
			return false
		}
	}
	return false
}

// resolveOperatorRef resolves an infix operator occurrence to its infix
// declaration.
func resolveOperatorRef(f *forest.Forest, tc *forest.TreeContainer, node *cst.Node) *DefinitionNode {
	name := node.Text
	if b, ok := tc.Binding(name); ok && b.Kind == modindex.BindingOperator {
		return &DefinitionNode{Node: b.DefiningNode, URI: tc.URI, NodeType: NodeOperator}
	}
	for _, ri := range tc.ResolvedImports {
		if ri.Unresolved {
			continue
		}
		if eb, ok := ri.ExposedLocally[name]; ok {
			return lookupExposedBinding(f, eb)
		}
	}
	return nil
}

// candidateKinds lists the node kinds that can ever stand for an
// identifier occurrence worth testing against a definition.
var candidateKinds = map[cst.Kind]bool{
	cst.KindLowerIdentifier:    true,
	cst.KindUpperIdentifier:    true,
	cst.KindOperatorIdentifier: true,
}

// FindReferences implements spec.md §4.8 step 4: given a resolved
// definition, find every occurrence of it. An unexposed definition (one
// whose enclosing module's exposing set does not include its name) is
// only visible within its own file (spec.md §4.7: exposure bounds
// visibility); an exposed definition is searched for across every
// writeable tree in the forest. cancel, if non-nil, is checked between
// files (spec.md §5: long-running queries are cancellable at file
// granularity).
func FindReferences(f *forest.Forest, def *DefinitionNode, cancel CancelToken) ([]Reference, error) {
	if def == nil || def.Node == nil {
		return nil, nil
	}

	defTC := f.GetByURI(def.URI)
	if defTC == nil {
		return nil, coreerr.New(coreerr.KindIoError, "no tree for "+def.URI)
	}

	name := def.Node.Text
	switch def.Node.Kind {
	case cst.KindValueDeclaration, cst.KindLetDeclaration, cst.KindPort:
		name = firstChildText(def.Node, cst.KindLowerIdentifier)
	case cst.KindTypeAlias, cst.KindUnionType, cst.KindUnionVariant:
		name = firstChildText(def.Node, cst.KindUpperIdentifier)
	case cst.KindInfixDeclaration:
		name = firstChildText(def.Node, cst.KindOperatorIdentifier)
	}
	exposed := defTC.Exposing.Exposes(name)

	var trees []*forest.TreeContainer
	if exposed {
		trees = f.AllWriteable()
	} else {
		trees = []*forest.TreeContainer{defTC}
	}

	var out []Reference
	for _, tc := range trees {
		if cancel != nil {
			select {
			case <-cancel:
				return nil, coreerr.New(coreerr.KindCancelled, "findReferences cancelled")
			default:
			}
		}

		tc.Tree.Walk(func(n *cst.Node) {
			if !candidateKinds[n.Kind] {
				return
			}
			if n.Text != name {
				return
			}
			// A qualified reference's qualifier segment is never itself
			// the bare name being searched for; only its trailing segment
			// can match.
			if n.Parent != nil && n.Parent.Kind == cst.KindQualifiedReference {
				siblings := n.Parent.Children
				if len(siblings) == 0 || siblings[len(siblings)-1] != n {
					return
				}
			}

			got := resolveNode(f, tc, n)
			if got == nil || got.Node != def.Node || got.URI != def.URI {
				return
			}

			ref := Reference{URI: tc.URI, Node: n, Kind: classifyOccurrence(n)}
			if ref.Kind == ReferenceDefinition && n.Parent == def.Node {
				// The defining occurrence is reported as the definition
				// node itself, so def is among its own references.
				ref.Node = def.Node
			}
			out = append(out, ref)
		})
	}

	return out, nil
}

// classifyOccurrence labels an identifier occurrence already known to
// resolve to the queried definition.
func classifyOccurrence(n *cst.Node) ReferenceKind {
	if n.Parent != nil {
		switch n.Parent.Kind {
		case cst.KindFunctionParameter, cst.KindAnonymousFunctionParameter:
			return ReferenceDefinition
		}
	}

	for anc := n.Parent; anc != nil; anc = anc.Parent {
		switch anc.Kind {
		case cst.KindExposingList:
			if anc.Parent != nil && anc.Parent.Kind == cst.KindImportClause {
				return ReferenceImportClauseEntry
			}
			return ReferenceExposingClauseEntry
		case cst.KindValueDeclaration, cst.KindLetDeclaration, cst.KindTypeAlias,
			cst.KindUnionType, cst.KindPort, cst.KindInfixDeclaration:
			if defNameMatches(anc, n) {
				return ReferenceDefinition
			}
			return ReferenceUse
		}
	}
	return ReferenceUse
}

// defNameMatches reports whether n is the defining name child of decl
// itself (as opposed to some reference nested inside decl's body, e.g. a
// recursive call).
func defNameMatches(decl *cst.Node, n *cst.Node) bool {
	if len(decl.Children) == 0 {
		return false
	}
	first := decl.Children[0]
	if first.Kind == cst.KindUpperIdentifier || first.Kind == cst.KindLowerIdentifier {
		return first == n
	}
	return false
}
