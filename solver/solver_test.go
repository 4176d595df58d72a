package solver

import (
	"testing"

	"github.com/elmtools/lsp-core/coreerr"
	"github.com/elmtools/lsp-core/pkgcache"
	"github.com/elmtools/lsp-core/semver"
)

// fakeCache is an in-memory Cache fixture, avoiding BoltDB in unit tests.
type fakeCache map[string][]pkgcache.Release

func (f fakeCache) Get(name string) ([]pkgcache.Release, error) {
	r, ok := f[name]
	if !ok {
		return nil, coreerr.New(coreerr.KindUnknownPackage, name)
	}
	return r, nil
}

func v(t *testing.T, s string) semver.Version {
	t.Helper()
	ver, err := semver.Parse(s)
	if err != nil {
		t.Fatalf("Parse(%q): %v", s, err)
	}
	return ver
}

func c(t *testing.T, s string) semver.Constraint {
	t.Helper()
	cs, err := semver.ParseConstraint(s)
	if err != nil {
		t.Fatalf("ParseConstraint(%q): %v", s, err)
	}
	return cs
}

// TestSolveScenario5 is spec.md §8 scenario 5: root needs P in [1.0.0,
// 2.0.0). P@1.5.0 depends on Q in [1.0.0, 2.0.0), P@1.4.0 depends on Q in
// [2.0.0, 3.0.0). Q@1.9.0 and Q@2.1.0 both exist. Expected: newest P first
// tries 1.5.0, whose Q constraint Q@1.9.0 satisfies, so {P: 1.5.0, Q: 1.9.0}.
func TestSolveScenario5(t *testing.T) {
	cache := fakeCache{
		"P": {
			{Version: v(t, "1.5.0"), Dependencies: map[string]semver.Constraint{"Q": c(t, "1.0.0 <= v < 2.0.0")}},
			{Version: v(t, "1.4.0"), Dependencies: map[string]semver.Constraint{"Q": c(t, "2.0.0 <= v < 3.0.0")}},
		},
		"Q": {
			{Version: v(t, "1.9.0")},
			{Version: v(t, "2.1.0")},
		},
	}

	sol, err := Solve(cache, map[string]semver.Constraint{"P": c(t, "1.0.0 <= v < 2.0.0")})
	if err != nil {
		t.Fatal(err)
	}
	if sol["P"].String() != "1.5.0" {
		t.Errorf("P = %s, want 1.5.0", sol["P"])
	}
	if sol["Q"].String() != "1.9.0" {
		t.Errorf("Q = %s, want 1.9.0", sol["Q"])
	}
	if err := Verify(cache, sol); err != nil {
		t.Errorf("Verify: %v", err)
	}
}

// TestSolveBacktracks covers the case where the newest candidate for P
// forces an unsatisfiable Q, so the solver must backtrack to P@1.4.0.
func TestSolveBacktracks(t *testing.T) {
	cache := fakeCache{
		"P": {
			{Version: v(t, "1.5.0"), Dependencies: map[string]semver.Constraint{"Q": c(t, "2.0.0 <= v < 3.0.0")}},
			{Version: v(t, "1.4.0"), Dependencies: map[string]semver.Constraint{"Q": c(t, "1.0.0 <= v < 2.0.0")}},
		},
		"Q": {
			{Version: v(t, "1.9.0")},
		},
	}

	sol, err := Solve(cache, map[string]semver.Constraint{"P": c(t, "1.0.0 <= v < 2.0.0")})
	if err != nil {
		t.Fatal(err)
	}
	if sol["P"].String() != "1.4.0" {
		t.Errorf("P = %s, want 1.4.0 (after backtracking)", sol["P"])
	}
}

// TestSolveScenario6 is spec.md §8 scenario 6: root needs P and Q, but
// their single overlapping transitive dependency has no satisfiable
// intersection. The solver must return Unsolvable.
func TestSolveScenario6(t *testing.T) {
	cache := fakeCache{
		"P": {{Version: v(t, "1.0.0"), Dependencies: map[string]semver.Constraint{"R": c(t, "1.0.0 <= v < 2.0.0")}}},
		"Q": {{Version: v(t, "1.0.0"), Dependencies: map[string]semver.Constraint{"R": c(t, "2.0.0 <= v < 3.0.0")}}},
		"R": {{Version: v(t, "1.5.0")}, {Version: v(t, "2.5.0")}},
	}

	_, err := Solve(cache, map[string]semver.Constraint{
		"P": c(t, "1.0.0 <= v < 2.0.0"),
		"Q": c(t, "1.0.0 <= v < 2.0.0"),
	})
	if !coreerr.Is(err, coreerr.KindUnsolvable) {
		t.Fatalf("got %v, want Unsolvable", err)
	}
}

func TestSolveMonotonicityTighteningNeverAddsSolutions(t *testing.T) {
	cache := fakeCache{
		"P": {
			{Version: v(t, "1.0.0")},
			{Version: v(t, "1.5.0")},
			{Version: v(t, "1.9.0")},
		},
	}

	wide, err := Solve(cache, map[string]semver.Constraint{"P": c(t, "1.0.0 <= v < 2.0.0")})
	if err != nil {
		t.Fatal(err)
	}
	narrow, err := Solve(cache, map[string]semver.Constraint{"P": c(t, "1.0.0 <= v < 1.5.0")})
	if err != nil {
		t.Fatal(err)
	}
	// The narrower constraint's solution must also have been a valid
	// solution under the wider constraint.
	if !semver.Satisfies(narrow["P"], c(t, "1.0.0 <= v < 2.0.0")) {
		t.Errorf("narrow solution %s does not satisfy the wider constraint", narrow["P"])
	}
	if wide["P"].String() != "1.9.0" {
		t.Errorf("wide solution = %s, want newest 1.9.0", wide["P"])
	}
}
