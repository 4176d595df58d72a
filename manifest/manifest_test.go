package manifest

import "strings"

import "testing"

func TestReadApplicationManifest(t *testing.T) {
	src := `
name = "author/app"
type = "application"
source-directories = ["src", "generated"]

[dependencies]
"author/p" = "1.0.0 <= v < 2.0.0"
`
	m, err := Read(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	if m.Kind != KindApplication {
		t.Errorf("Kind = %s, want application", m.Kind)
	}
	if len(m.SourceDirs) != 2 {
		t.Errorf("SourceDirs = %v, want 2 entries", m.SourceDirs)
	}
	c, ok := m.Dependencies["author/p"]
	_ = c
	if !ok {
		t.Fatal("missing dependency author/p")
	}
}

func TestReadPackageManifestDefaultsSourceDir(t *testing.T) {
	src := `
name = "author/lib"
type = "package"
exposed-modules = ["Lib.Core"]
`
	m, err := Read(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	if m.Kind != KindPackage {
		t.Errorf("Kind = %s, want package", m.Kind)
	}
	if len(m.SourceDirs) != 1 || m.SourceDirs[0] != "src" {
		t.Errorf("SourceDirs = %v, want default [src]", m.SourceDirs)
	}
	if len(m.Exposed) != 1 || m.Exposed[0] != "Lib.Core" {
		t.Errorf("Exposed = %v", m.Exposed)
	}
}

func TestReadMissingName(t *testing.T) {
	_, err := Read(strings.NewReader(`type = "application"`))
	if err == nil {
		t.Fatal("expected error for missing name")
	}
}
