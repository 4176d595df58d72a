package cst

import "testing"

func TestParseSimpleModule(t *testing.T) {
	src := []byte("module A exposing (x)\nx = 1\n")
	root := Parse(src)

	mod := root.FindChild(KindModuleDeclaration)
	if mod == nil {
		t.Fatal("expected a module declaration")
	}

	decls := root.FindChildren(KindValueDeclaration)
	if len(decls) != 1 {
		t.Fatalf("got %d value declarations, want 1", len(decls))
	}
	if name := decls[0].FindChild(KindLowerIdentifier); name == nil || name.Text != "x" {
		t.Errorf("declaration name = %+v, want x", name)
	}
}

func TestParseCrossFileExample(t *testing.T) {
	src := []byte("module B exposing (..)\nimport A exposing (x)\ny = x + 1\n")
	root := Parse(src)

	imp := root.FindChild(KindImportClause)
	if imp == nil {
		t.Fatal("expected an import clause")
	}
	if modName := imp.FindChild(KindUpperIdentifier); modName == nil || modName.Text != "A" {
		t.Errorf("import module name = %+v, want A", modName)
	}

	decls := root.FindChildren(KindValueDeclaration)
	if len(decls) != 1 {
		t.Fatalf("got %d declarations, want 1", len(decls))
	}
}

func TestParseQualifiedReference(t *testing.T) {
	src := []byte("module C exposing (..)\nimport A as Q\nz = Q.x\n")
	root := Parse(src)

	decl := root.FindChildren(KindValueDeclaration)[0]
	var found *Node
	decl.Walk(func(n *Node) {
		if n.Kind == KindQualifiedReference {
			found = n
		}
	})
	if found == nil {
		t.Fatal("expected a qualified reference Q.x")
	}
	if found.Text != "Q.x" {
		t.Errorf("qualified reference text = %q, want Q.x", found.Text)
	}
}

func TestParseRecoversFromError(t *testing.T) {
	src := []byte("module D exposing (..)\n@@@\nx = 1\n")
	root := Parse(src)

	var errCount int
	root.Walk(func(n *Node) {
		if n.Kind == KindError {
			errCount++
		}
	})
	if errCount == 0 {
		t.Error("expected at least one ERROR node for the malformed input")
	}
	decls := root.FindChildren(KindValueDeclaration)
	if len(decls) != 1 {
		t.Fatalf("parser should recover and still find the valid declaration; got %d decls", len(decls))
	}
}

func TestSmallestNodeContaining(t *testing.T) {
	src := []byte("module A exposing (x)\nx = 1\n")
	root := Parse(src)

	// Position of the "x" in "x = 1".
	idx := indexOf(src, "x = 1")
	n := root.SmallestNodeContaining(idx)
	if n == nil || n.Kind != KindLowerIdentifier || n.Text != "x" {
		t.Errorf("SmallestNodeContaining = %+v, want lower identifier x", n)
	}
}

func indexOf(src []byte, sub string) int {
	for i := 0; i+len(sub) <= len(src); i++ {
		if string(src[i:i+len(sub)]) == sub {
			return i
		}
	}
	return -1
}
