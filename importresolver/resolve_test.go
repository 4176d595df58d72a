package importresolver

import (
	"testing"

	"github.com/elmtools/lsp-core/cst"
	"github.com/elmtools/lsp-core/modindex"
)

type fakeLookup map[string]ModuleInfo

func (f fakeLookup) LookupModule(name string) (ModuleInfo, bool) {
	info, ok := f[name]
	return info, ok
}

func TestResolveExplicitExposing(t *testing.T) {
	src := []byte("module B exposing (..)\nimport A exposing (x)\ny = x\n")
	root := cst.Parse(src)

	lookup := fakeLookup{
		"A": {
			ModuleName: "A",
			Exposing:   modindex.ExposingSet{Names: map[string]bool{"x": true}},
		},
	}
	for _, name := range preludeModules {
		lookup[name] = ModuleInfo{ModuleName: name, Exposing: modindex.ExposingSet{All: true}}
	}

	ris := Resolve(root, lookup)
	var a *ResolvedImport
	for i := range ris {
		if ris[i].SourceModule == "A" {
			a = &ris[i]
		}
	}
	if a == nil {
		t.Fatal("missing resolved import for A")
	}
	if a.Unresolved {
		t.Error("A should resolve")
	}
	binding, ok := a.ExposedLocally["x"]
	if !ok {
		t.Fatal("x should be exposed locally")
	}
	if binding.SourceModule != "A" || binding.OriginalName != "x" {
		t.Errorf("binding = %+v", binding)
	}
}

func TestResolveDoesNotFabricateUnexposedBinding(t *testing.T) {
	src := []byte("module B exposing (..)\nimport A exposing (x)\n")
	root := cst.Parse(src)

	lookup := fakeLookup{
		"A": {
			ModuleName: "A",
			Exposing:   modindex.ExposingSet{Names: map[string]bool{}}, // x not exposed
		},
	}
	for _, name := range preludeModules {
		lookup[name] = ModuleInfo{ModuleName: name, Exposing: modindex.ExposingSet{All: true}}
	}

	ris := Resolve(root, lookup)
	for _, ri := range ris {
		if ri.SourceModule == "A" {
			if _, ok := ri.ExposedLocally["x"]; ok {
				t.Error("resolver must not fabricate a binding for an unexposed name")
			}
		}
	}
}

func TestResolveAggregateConstructorExposing(t *testing.T) {
	src := []byte("module B exposing (..)\nimport A exposing (Color(..))\ny = Red\n")
	root := cst.Parse(src)

	lookup := fakeLookup{
		"A": {
			ModuleName: "A",
			Exposing:   modindex.ExposingSet{Names: map[string]bool{"Color": true, "Red": true, "Green": true}},
			ConstructorsOf: func(typeName string) []string {
				if typeName == "Color" {
					return []string{"Red", "Green"}
				}
				return nil
			},
		},
	}
	for _, name := range preludeModules {
		lookup[name] = ModuleInfo{ModuleName: name, Exposing: modindex.ExposingSet{All: true}}
	}

	ris := Resolve(root, lookup)
	var a *ResolvedImport
	for i := range ris {
		if ris[i].SourceModule == "A" {
			a = &ris[i]
		}
	}
	if a == nil {
		t.Fatal("missing resolved import for A")
	}
	for _, name := range []string{"Color", "Red", "Green"} {
		if _, ok := a.ExposedLocally[name]; !ok {
			t.Errorf("%s should be exposed locally via Color(..)", name)
		}
	}
}

func TestResolveUnknownModule(t *testing.T) {
	src := []byte("module B exposing (..)\nimport Missing\n")
	root := cst.Parse(src)
	lookup := fakeLookup{}
	for _, name := range preludeModules {
		lookup[name] = ModuleInfo{ModuleName: name, Exposing: modindex.ExposingSet{All: true}}
	}

	ris := Resolve(root, lookup)
	found := false
	for _, ri := range ris {
		if ri.SourceModule == "Missing" {
			found = true
			if !ri.Unresolved {
				t.Error("Missing should be Unresolved")
			}
		}
	}
	if !found {
		t.Fatal("expected a resolved-import entry for Missing")
	}
}

func TestResolveAlias(t *testing.T) {
	src := []byte("module C exposing (..)\nimport A as Q\n")
	root := cst.Parse(src)
	lookup := fakeLookup{"A": {ModuleName: "A", Exposing: modindex.ExposingSet{All: true}}}
	for _, name := range preludeModules {
		lookup[name] = ModuleInfo{ModuleName: name, Exposing: modindex.ExposingSet{All: true}}
	}

	ris := Resolve(root, lookup)
	for _, ri := range ris {
		if ri.SourceModule == "A" {
			if ri.Alias != "Q" {
				t.Errorf("Alias = %q, want Q", ri.Alias)
			}
		}
	}
}
