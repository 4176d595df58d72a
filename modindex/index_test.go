package modindex

import (
	"testing"

	"github.com/elmtools/lsp-core/cst"
)

func TestBuildBasic(t *testing.T) {
	src := []byte(`module A exposing (x, T(..))
type T = TA | TB
x : Int
x = 1
`)
	root := cst.Parse(src)
	idx := Build(root)

	if idx.ModuleName != "A" {
		t.Errorf("ModuleName = %q, want A", idx.ModuleName)
	}
	if idx.Exposing.All {
		t.Error("Exposing.All should be false for an explicit list")
	}
	if !idx.Exposing.Exposes("x") {
		t.Error("x should be exposed")
	}
	if !idx.Exposing.Exposes("T") {
		t.Error("T should be exposed")
	}
	if !idx.Exposing.Exposes("TA") || !idx.Exposing.Exposes("TB") {
		t.Error("T(..) should expose every constructor of T")
	}

	xBinding, ok := idx.Bindings["x"]
	if !ok {
		t.Fatal("missing binding x")
	}
	if xBinding.Kind != BindingValue {
		t.Errorf("x kind = %s, want Value", xBinding.Kind)
	}
	if xBinding.TypeAnnotation == nil {
		t.Error("x should carry its preceding type annotation")
	}

	taBinding, ok := idx.Bindings["TA"]
	if !ok {
		t.Fatal("missing constructor binding TA")
	}
	if taBinding.Kind != BindingUnionConstructor {
		t.Errorf("TA kind = %s, want UnionConstructor", taBinding.Kind)
	}
	if taBinding.ParentUnion == nil {
		t.Error("TA should point back to its parent union type")
	}
}

func TestModuleNameSynthesizedWhenAbsent(t *testing.T) {
	root := cst.Parse([]byte("x = 1\n"))
	idx := Build(root)
	if idx.ModuleName != "Main" {
		t.Errorf("ModuleName = %q, want Main", idx.ModuleName)
	}
	if !idx.Exposing.All {
		t.Error("a module with no declaration should expose everything")
	}
}

func TestExposingAll(t *testing.T) {
	root := cst.Parse([]byte("module B exposing (..)\ny = 1\n"))
	idx := Build(root)
	if !idx.Exposing.All {
		t.Error("exposing (..) should set All")
	}
}
