package cst

// Parse lexes and parses src into a concrete syntax tree. It always
// succeeds (spec.md §4.5): unrecognized input becomes ERROR nodes and the
// parser resynchronizes at the next plausible top-level declaration rather
// than aborting.
func Parse(src []byte) *Node {
	p := &parser{lex: newLexer(src), src: src}
	p.advance()
	return p.parseFile()
}

type parser struct {
	lex  *lexer
	src  []byte
	cur  token
	prev token
}

func (p *parser) advance() {
	p.prev = p.cur
	p.cur = p.lex.next()
}

func (p *parser) at(k tokenKind) bool { return p.cur.kind == k }

func (p *parser) atKeyword(kw string) bool {
	return p.cur.kind == tokKeyword && p.cur.text == kw
}

func (p *parser) node(kind Kind, start int, children ...*Node) *Node {
	n := &Node{Kind: kind, Range: Range{Start: start, End: p.prev.end}}
	if len(children) == 0 && n.Range.End < n.Range.Start {
		n.Range.End = n.Range.Start
	}
	for _, c := range children {
		n.addChild(c)
	}
	n.Text = string(p.src[clamp(n.Range.Start, len(p.src)):clamp(n.Range.End, len(p.src))])
	if len(n.Children) > 0 {
		n.StartPos = n.Children[0].StartPos
		n.EndPos = n.Children[len(n.Children)-1].EndPos
	}
	return n
}

func clamp(v, max int) int {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}

// leaf builds a single-token node (an identifier, literal, or operator)
// and advances past it.
func (p *parser) leaf(kind Kind) *Node {
	t := p.cur
	n := &Node{Kind: kind, Range: Range{Start: t.start, End: t.end}, Text: t.text, StartPos: t.pos}
	n.EndPos = Pos{Row: t.pos.Row, Column: t.pos.Column + (t.end - t.start)}
	p.advance()
	return n
}

// errorNode consumes the current token (if any) into an ERROR node so the
// parser always makes progress and a parse never gets stuck.
func (p *parser) errorNode() *Node {
	if p.at(tokEOF) {
		return &Node{Kind: KindError}
	}
	t := p.cur
	n := &Node{Kind: KindError, Range: Range{Start: t.start, End: t.end}, Text: t.text, StartPos: t.pos}
	p.advance()
	return n
}

func (p *parser) parseFile() *Node {
	start := p.cur.start
	file := &Node{Kind: KindFile}

	if p.atKeyword("module") {
		file.addChild(p.parseModuleDeclaration())
	}
	for p.atKeyword("import") {
		file.addChild(p.parseImport())
	}
	for !p.at(tokEOF) {
		file.addChild(p.parseTopDecl())
	}

	file.Range = Range{Start: start, End: p.prev.end}
	if len(file.Children) > 0 {
		file.StartPos = file.Children[0].StartPos
		file.EndPos = file.Children[len(file.Children)-1].EndPos
	}
	file.Text = string(p.src[clamp(file.Range.Start, len(p.src)):clamp(file.Range.End, len(p.src))])
	return file
}

func (p *parser) parseModuleDeclaration() *Node {
	start := p.cur.start
	p.advance() // "module"
	name := p.parseModuleName()
	var exposing *Node
	if p.atKeyword("exposing") {
		p.advance()
		exposing = p.parseExposingList()
	}
	children := []*Node{name}
	if exposing != nil {
		children = append(children, exposing)
	}
	return p.node(KindModuleDeclaration, start, children...)
}

func (p *parser) parseModuleName() *Node {
	start := p.cur.start
	var parts []*Node
	for p.at(tokUpperIdent) {
		parts = append(parts, p.leaf(KindUpperIdentifier))
		if p.at(tokDot) {
			p.advance()
			continue
		}
		break
	}
	if len(parts) == 0 {
		return p.errorNode()
	}
	return p.node(KindUpperIdentifier, start, parts...)
}

func (p *parser) parseImport() *Node {
	start := p.cur.start
	p.advance() // "import"
	name := p.parseModuleName()
	children := []*Node{name}
	if p.atKeyword("as") {
		p.advance()
		if p.at(tokUpperIdent) {
			children = append(children, p.leaf(KindUpperIdentifier))
		}
	}
	if p.atKeyword("exposing") {
		p.advance()
		children = append(children, p.parseExposingList())
	}
	return p.node(KindImportClause, start, children...)
}

func (p *parser) parseExposingList() *Node {
	start := p.cur.start
	var items []*Node
	if p.at(tokLParen) {
		p.advance()
		for !p.at(tokRParen) && !p.at(tokEOF) {
			if p.at(tokOperator) && p.cur.text == ".." {
				p.advance()
				continue
			}
			items = append(items, p.parseExposedItem())
			if p.at(tokComma) {
				p.advance()
				continue
			}
			break
		}
		if p.at(tokRParen) {
			p.advance()
		}
	}
	return p.node(KindExposingList, start, items...)
}

func (p *parser) parseExposedItem() *Node {
	start := p.cur.start
	switch {
	case p.at(tokLowerIdent):
		return p.node(KindExposedValue, start, p.leaf(KindLowerIdentifier))
	case p.at(tokLParen):
		p.advance()
		var op *Node
		if p.at(tokOperator) {
			op = p.leaf(KindOperatorIdentifier)
		}
		if p.at(tokRParen) {
			p.advance()
		}
		return p.node(KindExposedOperator, start, op)
	case p.at(tokUpperIdent):
		name := p.leaf(KindUpperIdentifier)
		children := []*Node{name}
		if p.at(tokLParen) {
			p.advance()
			for !p.at(tokRParen) && !p.at(tokEOF) {
				if p.at(tokOperator) && p.cur.text == ".." {
					children = append(children, p.leaf(KindDoubleDot))
					continue
				}
				if p.at(tokUpperIdent) {
					children = append(children, p.leaf(KindUpperIdentifier))
				}
				if p.at(tokComma) {
					p.advance()
					continue
				}
				break
			}
			if p.at(tokRParen) {
				p.advance()
			}
		}
		return p.node(KindExposedType, start, children...)
	default:
		return p.errorNode()
	}
}

// parseTopDecl dispatches on the leading keyword/token of a top-level
// declaration. It always consumes at least one token, so the file loop
// terminates even on malformed input.
func (p *parser) parseTopDecl() *Node {
	switch {
	case p.atKeyword("type"):
		return p.parseTypeDecl()
	case p.atKeyword("port"):
		return p.parsePort()
	case p.atKeyword("infix"):
		return p.parseInfix()
	case p.at(tokLowerIdent):
		return p.parseValueDeclOrAnnotation()
	default:
		return p.errorNode()
	}
}

func (p *parser) parseTypeDecl() *Node {
	start := p.cur.start
	p.advance() // "type"
	if p.atKeyword("alias") {
		p.advance()
		name := p.parseUpperIdentOrError()
		var params []*Node
		for p.at(tokLowerIdent) {
			params = append(params, p.leaf(KindLowerIdentifier))
		}
		var body *Node
		if p.at(tokEquals) {
			p.advance()
			body = p.parseTypeExpr()
		}
		children := append([]*Node{name}, params...)
		if body != nil {
			children = append(children, body)
		}
		return p.node(KindTypeAlias, start, children...)
	}

	name := p.parseUpperIdentOrError()
	var params []*Node
	for p.at(tokLowerIdent) {
		params = append(params, p.leaf(KindLowerIdentifier))
	}
	children := append([]*Node{name}, params...)
	if p.at(tokEquals) {
		p.advance()
		children = append(children, p.parseUnionVariant())
		for p.at(tokPipe) {
			p.advance()
			children = append(children, p.parseUnionVariant())
		}
	}
	return p.node(KindUnionType, start, children...)
}

func (p *parser) parseUnionVariant() *Node {
	start := p.cur.start
	name := p.parseUpperIdentOrError()
	children := []*Node{name}
	for p.isTypeAtomStart() {
		children = append(children, p.parseTypeExprAtom())
	}
	return p.node(KindUnionVariant, start, children...)
}

func (p *parser) parseUpperIdentOrError() *Node {
	if p.at(tokUpperIdent) {
		return p.leaf(KindUpperIdentifier)
	}
	return p.errorNode()
}

func (p *parser) parsePort() *Node {
	start := p.cur.start
	p.advance() // "port"
	name := p.leafIf(tokLowerIdent, KindLowerIdentifier)
	children := []*Node{name}
	if p.at(tokColon) {
		p.advance()
		children = append(children, p.parseTypeExpr())
	}
	return p.node(KindPort, start, children...)
}

func (p *parser) parseInfix() *Node {
	start := p.cur.start
	p.advance() // "infix"
	var children []*Node
	if p.at(tokLowerIdent) { // associativity: left/right/non
		children = append(children, p.leaf(KindLowerIdentifier))
	}
	if p.at(tokNumber) {
		children = append(children, p.leaf(KindLiteral))
	}
	if p.at(tokLParen) {
		p.advance()
		if p.at(tokOperator) {
			children = append(children, p.leaf(KindOperatorIdentifier))
		}
		if p.at(tokRParen) {
			p.advance()
		}
	}
	if p.at(tokEquals) {
		p.advance()
		if p.at(tokLowerIdent) {
			children = append(children, p.leaf(KindLowerIdentifier))
		}
	}
	return p.node(KindInfixDeclaration, start, children...)
}

func (p *parser) leafIf(tk tokenKind, kind Kind) *Node {
	if p.at(tk) {
		return p.leaf(kind)
	}
	return p.errorNode()
}

// parseValueDeclOrAnnotation parses either a bare type annotation
// ("name : Type") or a value declaration ("name pat* = expr"); both start
// the same way, so the call disambiguates on the token after the name.
func (p *parser) parseValueDeclOrAnnotation() *Node {
	start := p.cur.start
	name := p.leaf(KindLowerIdentifier)

	if p.at(tokColon) {
		p.advance()
		typeExpr := p.parseTypeExpr()
		return p.node(KindTypeAnnotation, start, name, typeExpr)
	}

	var params []*Node
	for p.at(tokLowerIdent) || p.at(tokUpperIdent) || p.at(tokLParen) {
		params = append(params, p.parsePattern())
	}
	children := append([]*Node{name}, params...)
	if p.at(tokEquals) {
		p.advance()
		children = append(children, p.parseExpr())
	}
	return p.node(KindValueDeclaration, start, children...)
}

// ---- patterns ----

func (p *parser) parsePattern() *Node {
	start := p.cur.start
	switch {
	case p.at(tokLowerIdent):
		return p.node(KindFunctionParameter, start, p.leaf(KindLowerIdentifier))
	case p.at(tokUpperIdent):
		ctor := p.leaf(KindUpperIdentifier)
		children := []*Node{ctor}
		for p.at(tokLowerIdent) || p.at(tokUpperIdent) {
			children = append(children, p.parsePattern())
		}
		return p.node(KindCasePattern, start, children...)
	case p.at(tokLParen):
		p.advance()
		inner := p.parsePattern()
		if p.at(tokRParen) {
			p.advance()
		}
		return inner
	default:
		return p.errorNode()
	}
}

// ---- type expressions ----

func (p *parser) isTypeAtomStart() bool {
	if p.cur.pos.Column == 0 { // a token in column 0 starts the next top-level declaration
		return false
	}
	return p.at(tokUpperIdent) || p.at(tokLowerIdent) || p.at(tokLParen)
}

func (p *parser) parseTypeExpr() *Node {
	start := p.cur.start
	left := p.parseTypeExprApp()
	if p.at(tokArrow) {
		p.advance()
		right := p.parseTypeExpr()
		return p.node(KindTypeReference, start, left, right)
	}
	return left
}

func (p *parser) parseTypeExprApp() *Node {
	start := p.cur.start
	first := p.parseTypeExprAtom()
	children := []*Node{first}
	for p.isTypeAtomStart() {
		children = append(children, p.parseTypeExprAtom())
	}
	if len(children) == 1 {
		return first
	}
	return p.node(KindTypeReference, start, children...)
}

func (p *parser) parseTypeExprAtom() *Node {
	start := p.cur.start
	switch {
	case p.at(tokUpperIdent):
		parts := []*Node{p.leaf(KindUpperIdentifier)}
		for p.at(tokDot) {
			p.advance()
			if p.at(tokUpperIdent) {
				parts = append(parts, p.leaf(KindUpperIdentifier))
			}
		}
		return p.node(KindTypeReference, start, parts...)
	case p.at(tokLowerIdent):
		return p.leaf(KindLowerIdentifier)
	case p.at(tokLParen):
		p.advance()
		inner := p.parseTypeExpr()
		for p.at(tokComma) {
			p.advance()
			p.parseTypeExpr()
		}
		if p.at(tokRParen) {
			p.advance()
		}
		return p.node(KindParenthesized, start, inner)
	default:
		return p.errorNode()
	}
}

// ---- expressions ----

func (p *parser) parseExpr() *Node {
	switch {
	case p.at(tokBackslash):
		return p.parseLambda()
	case p.atKeyword("let"):
		return p.parseLet()
	case p.atKeyword("case"):
		return p.parseCase()
	case p.atKeyword("if"):
		return p.parseIf()
	default:
		return p.parseOpExpr()
	}
}

func (p *parser) parseIf() *Node {
	start := p.cur.start
	p.advance() // "if"
	cond := p.parseExpr()
	children := []*Node{cond}
	if p.atKeyword("then") {
		p.advance()
		children = append(children, p.parseExpr())
	}
	if p.atKeyword("else") {
		p.advance()
		children = append(children, p.parseExpr())
	}
	return p.node(KindApplication, start, children...)
}

func (p *parser) parseLambda() *Node {
	start := p.cur.start
	p.advance() // "\"
	var params []*Node
	for p.at(tokLowerIdent) || p.at(tokUpperIdent) || p.at(tokLParen) {
		pat := p.parsePattern()
		param := &Node{Kind: KindAnonymousFunctionParameter, Range: pat.Range, Text: pat.Text, StartPos: pat.StartPos, EndPos: pat.EndPos}
		for _, c := range pat.Children {
			param.addChild(c)
		}
		params = append(params, param)
	}
	if p.at(tokArrow) {
		p.advance()
	}
	body := p.parseExpr()
	children := append(params, body)
	return p.node(KindLambdaExpression, start, children...)
}

func (p *parser) parseLet() *Node {
	start := p.cur.start
	p.advance() // "let"
	var decls []*Node
	for p.at(tokLowerIdent) {
		decls = append(decls, p.parseLetDecl())
	}
	if p.atKeyword("in") {
		p.advance()
	}
	body := p.parseExpr()
	children := append(decls, body)
	return p.node(KindLetExpression, start, children...)
}

func (p *parser) parseLetDecl() *Node {
	inner := p.parseValueDeclOrAnnotation()
	inner.Kind = KindLetDeclaration
	return inner
}

func (p *parser) parseCase() *Node {
	start := p.cur.start
	p.advance() // "case"
	scrutinee := p.parseExpr()
	children := []*Node{scrutinee}
	if p.atKeyword("of") {
		p.advance()
	}
	for p.cur.pos.Column > 0 && (p.at(tokLowerIdent) || p.at(tokUpperIdent) || p.at(tokLParen)) {
		children = append(children, p.parseCaseBranch())
	}
	return p.node(KindCaseExpression, start, children...)
}

func (p *parser) parseCaseBranch() *Node {
	start := p.cur.start
	pat := p.parsePattern()
	children := []*Node{pat}
	if p.at(tokArrow) {
		p.advance()
		children = append(children, p.parseExpr())
	}
	return p.node(KindCaseBranch, start, children...)
}

func (p *parser) parseOpExpr() *Node {
	start := p.cur.start
	left := p.parseAppExpr()
	for p.at(tokOperator) {
		op := p.leaf(KindOperatorIdentifier)
		right := p.parseAppExpr()
		left = p.nodeFrom(KindApplication, start, left, op, right)
	}
	return left
}

// nodeFrom is like node, but the children are already-built nodes spanning
// back to start; used when folding a left-associative operator chain.
func (p *parser) nodeFrom(kind Kind, start int, children ...*Node) *Node {
	n := &Node{Kind: kind, Range: Range{Start: start, End: p.prev.end}}
	for _, c := range children {
		cc := c
		cc.Parent = nil // re-parented by addChild
		n.addChild(cc)
	}
	n.Text = string(p.src[clamp(n.Range.Start, len(p.src)):clamp(n.Range.End, len(p.src))])
	if len(n.Children) > 0 {
		n.StartPos = n.Children[0].StartPos
		n.EndPos = n.Children[len(n.Children)-1].EndPos
	}
	return n
}

func (p *parser) parseAppExpr() *Node {
	start := p.cur.start
	first := p.parseAtom()
	children := []*Node{first}
	for p.isAtomStart() {
		children = append(children, p.parseAtom())
	}
	if len(children) == 1 {
		return first
	}
	return p.nodeFrom(KindApplication, start, children...)
}

func (p *parser) isAtomStart() bool {
	if p.cur.pos.Column == 0 { // a token in column 0 starts the next top-level declaration
		return false
	}
	return p.at(tokLowerIdent) || p.at(tokUpperIdent) || p.at(tokNumber) ||
		p.at(tokString) || p.at(tokChar) || p.at(tokLParen)
}

func (p *parser) parseAtom() *Node {
	start := p.cur.start
	switch {
	case p.at(tokLowerIdent):
		return p.leaf(KindLowerIdentifier)
	case p.at(tokUpperIdent):
		return p.parseQualifiableUpper()
	case p.at(tokNumber), p.at(tokString), p.at(tokChar):
		return p.leaf(KindLiteral)
	case p.at(tokLParen):
		p.advance()
		if p.at(tokOperator) {
			op := p.leaf(KindOperatorIdentifier)
			if p.at(tokRParen) {
				p.advance()
			}
			return p.node(KindParenthesized, start, op)
		}
		inner := p.parseExpr()
		if p.at(tokRParen) {
			p.advance()
		}
		return p.node(KindParenthesized, start, inner)
	default:
		return p.errorNode()
	}
}

// parseQualifiableUpper parses "Mod.Sub.foo", "Mod.Sub.Ctor", or a bare
// upper identifier, producing a QualifiedReference node when a qualifier
// (anything followed by ".") is present.
func (p *parser) parseQualifiableUpper() *Node {
	start := p.cur.start
	parts := []*Node{p.leaf(KindUpperIdentifier)}
	for p.at(tokDot) {
		p.advance()
		if p.at(tokUpperIdent) {
			parts = append(parts, p.leaf(KindUpperIdentifier))
			continue
		}
		if p.at(tokLowerIdent) {
			parts = append(parts, p.leaf(KindLowerIdentifier))
		}
		break
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return p.node(KindQualifiedReference, start, parts...)
}
