// Package corelsp adapts this module's own (row, column) and byte-range
// position types to github.com/sourcegraph/go-lsp's wire types, so a host
// RPC layer (wired on top of github.com/sourcegraph/jsonrpc2, out of scope
// per spec.md §1) can marshal a DefinitionNode or Reference without doing
// its own offset math. Grounded on the jbw976-up example's use of
// sourcegraph/go-lsp as the position/range vocabulary between a language
// server core and its transport.
package corelsp

import (
	lsp "github.com/sourcegraph/go-lsp"

	"github.com/elmtools/lsp-core/cst"
)

// ToPosition converts a cst.Pos (zero-based row/column, spec.md §3) to an
// lsp.Position, which uses the same zero-based convention.
func ToPosition(p cst.Pos) lsp.Position {
	return lsp.Position{Line: p.Row, Character: p.Column}
}

// ToRange converts a node's start/end cst.Pos pair to an lsp.Range.
func ToRange(n *cst.Node) lsp.Range {
	return lsp.Range{Start: ToPosition(n.StartPos), End: ToPosition(n.EndPos)}
}

// Location pairs a document URI with an lsp.Range, the shape a
// textDocument/definition or textDocument/references response returns.
type Location struct {
	URI   lsp.DocumentURI `json:"uri"`
	Range lsp.Range       `json:"range"`
}

// NewLocation builds a Location for node n in the document at uri.
func NewLocation(uri string, n *cst.Node) Location {
	return Location{URI: lsp.DocumentURI(uri), Range: ToRange(n)}
}
