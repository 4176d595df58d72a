package workspace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/elmtools/lsp-core/internal/corelog"
)

func writeWorkspace(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	manifestBody := "name = \"author/pkg\"\ntype = \"application\"\nsource-directories = [\"src\"]\n"
	if err := os.WriteFile(filepath.Join(root, "elm.json"), []byte(manifestBody), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := os.MkdirAll(filepath.Join(root, "src"), 0o755); err != nil {
		t.Fatal(err)
	}
	src := "module A exposing (x)\nx = 1\n"
	if err := os.WriteFile(filepath.Join(root, "src", "A.elm"), []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	return root
}

func TestLoadWorkspacePopulatesForest(t *testing.T) {
	root := writeWorkspace(t)
	cacheDir := t.TempDir()

	h, err := LoadWorkspace(root, cacheDir, corelog.NewNop())
	if err != nil {
		t.Fatalf("LoadWorkspace: %v", err)
	}
	defer h.Close()

	uri := "file://" + filepath.ToSlash(filepath.Join(root, "src", "A.elm"))
	tree := h.GetTree(uri)
	if tree == nil {
		t.Fatal("expected A.elm to be in the forest")
	}

	src := "module A exposing (x)\nx = 1\n"
	// offset of the declaration's own "x" name, not the "x" in the
	// exposing clause.
	offset := strings.LastIndex(src, "x = 1")
	def, err := h.FindDefinition(uri, offset)
	if err != nil {
		t.Fatalf("FindDefinition: %v", err)
	}
	if def == nil {
		t.Error("expected x to resolve to its own declaration")
	}
}

func TestApplyFileChangeReflectsInGetTree(t *testing.T) {
	root := writeWorkspace(t)
	cacheDir := t.TempDir()

	h, err := LoadWorkspace(root, cacheDir, corelog.NewNop())
	if err != nil {
		t.Fatalf("LoadWorkspace: %v", err)
	}
	defer h.Close()

	uri := "file://" + filepath.ToSlash(filepath.Join(root, "src", "A.elm"))
	newSrc := "module A exposing (x)\nx = 2\n"
	if err := h.ApplyFileChange(uri, []byte(newSrc), false); err != nil {
		t.Fatalf("ApplyFileChange: %v", err)
	}

	tree := h.GetTree(uri)
	if tree == nil {
		t.Fatal("expected A.elm still in the forest after the change")
	}
	if !strings.Contains(tree.Text, "x = 2") {
		t.Errorf("tree.Text = %q, want it to reflect the updated source", tree.Text)
	}

	if err := h.ApplyFileChange(uri, nil, true); err != nil {
		t.Fatalf("ApplyFileChange(deleted): %v", err)
	}
	if h.GetTree(uri) != nil {
		t.Error("expected A.elm removed from the forest after deletion")
	}
}

func TestGetEmptyTypesReturnsIntrinsics(t *testing.T) {
	types := GetEmptyTypes()
	if len(types) == 0 {
		t.Fatal("expected a non-empty intrinsic type table")
	}
	found := false
	for _, et := range types {
		if et.Name == "List" {
			found = true
		}
	}
	if !found {
		t.Error("expected List among the intrinsic types")
	}
}
