package pkgcache

import (
	"testing"

	"github.com/elmtools/lsp-core/coreerr"
	"github.com/elmtools/lsp-core/semver"
)

func mustConstraint(t *testing.T, s string) semver.Constraint {
	t.Helper()
	c, err := semver.ParseConstraint(s)
	if err != nil {
		t.Fatalf("ParseConstraint(%q): %v", s, err)
	}
	return c
}

func mustVersion(t *testing.T, s string) semver.Version {
	t.Helper()
	v, err := semver.Parse(s)
	if err != nil {
		t.Fatalf("Parse(%q): %v", s, err)
	}
	return v
}

func TestPutGetRoundTrip(t *testing.T) {
	c, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	releases := []Release{
		{
			Version: mustVersion(t, "1.5.0"),
			Dependencies: map[string]semver.Constraint{
				"author/q": mustConstraint(t, "1.0.0 <= v < 2.0.0"),
			},
		},
		{Version: mustVersion(t, "1.4.0")},
	}

	if err := c.Put("author/p", releases); err != nil {
		t.Fatal(err)
	}

	got, err := c.Get("author/p")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d releases, want 2", len(got))
	}
	if got[0].Version.String() != "1.5.0" {
		t.Errorf("got[0].Version = %s, want 1.5.0", got[0].Version)
	}
	dep, ok := got[0].Dependencies["author/q"]
	if !ok {
		t.Fatal("missing dependency author/q")
	}
	if !semver.Satisfies(mustVersion(t, "1.9.0"), dep) {
		t.Errorf("round-tripped constraint %s should allow 1.9.0", dep)
	}
}

func TestGetUnknownPackage(t *testing.T) {
	c, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	_, err = c.Get("author/nope")
	if !coreerr.Is(err, coreerr.KindUnknownPackage) {
		t.Fatalf("Get of unknown package: got %v, want UnknownPackage", err)
	}
}
