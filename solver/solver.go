// Package solver implements component C3, the dependency solver: given a
// root dependency map, it chooses a single version per transitively
// reachable package such that every declared constraint is simultaneously
// satisfied.
//
// The algorithm is the backtracking depth-first search of §4.3. Candidates
// are tried newest-version-first to match ecosystem convention (the
// teacher's own solver.go documents the same "upgrade by default" bias).
// The pending constraint map is kept in a radix tree, the way the teacher's
// root solver.go indexes working state with github.com/armon/go-radix,
// so that the lexicographically-smallest-pending-name pick required by the
// algorithm (and any future prefix-scoped queries over package names, e.g.
// "everything under author/") is a tree walk rather than a sort of the
// whole pending set on every recursive call.
package solver

import (
	"sort"

	"github.com/armon/go-radix"
	"github.com/pkg/errors"

	"github.com/elmtools/lsp-core/coreerr"
	"github.com/elmtools/lsp-core/pkgcache"
	"github.com/elmtools/lsp-core/semver"
)

// Solution is the result of a successful solve: one chosen version per
// selected package. Invariant (§3): for every selected (p, v) and every
// declared dependency (q, c) of that release, solution[q] exists and
// satisfies c. That invariant is established constructively by solve, and
// re-checked by Verify for callers that want a standalone sanity check
// (e.g. after deserializing a previously-solved lock file).
type Solution map[string]semver.Version

// Cache is the read-only package metadata source the solver queries. It is
// satisfied by *pkgcache.Cache; declared as an interface here so tests can
// supply an in-memory fixture without touching BoltDB.
type Cache interface {
	Get(name string) ([]pkgcache.Release, error)
}

// Solve runs the backtracking search of §4.3 against root, the dependency
// map declared by the root manifest. It returns Unsolvable (as a typed
// coreerr.Error) if no assignment satisfies every constraint.
func Solve(cache Cache, root map[string]semver.Constraint) (Solution, error) {
	pending := radix.New()
	for name, c := range root {
		pending.Insert(name, c)
	}

	sol, err := solve(cache, pending, Solution{})
	if err != nil {
		return nil, err
	}
	if sol == nil {
		return nil, coreerr.New(coreerr.KindUnsolvable, "no assignment satisfies all constraints")
	}
	return sol, nil
}

// solve is the recursive backtracking step. pending maps package name to
// the accumulated constraint it must satisfy; partial is the assignment
// built so far. Returns (nil, nil) — not an error — when this branch of the
// search is exhausted without a solution, so the caller can backtrack.
func solve(cache Cache, pending *radix.Tree, partial Solution) (Solution, error) {
	if pending.Len() == 0 {
		return partial, nil
	}

	name, rawConstraint := pickSmallest(pending)
	constraint := rawConstraint.(semver.Constraint)

	remaining := radix.New()
	pending.Walk(func(k string, v interface{}) bool {
		if k != name {
			remaining.Insert(k, v)
		}
		return false
	})

	releases, err := cache.Get(name)
	if err != nil {
		if coreerr.Is(err, coreerr.KindUnknownPackage) {
			// An unresolvable dependency makes this whole branch dead, but is
			// not itself a hard error for the overall solve: the caller may
			// backtrack into a different candidate for an ancestor package.
			return nil, nil
		}
		return nil, errors.Wrapf(err, "fetching releases for %s", name)
	}

	candidates := filterAndSortDescending(releases, constraint)
	if fixed, ok := partial[name]; ok {
		candidates = onlyVersion(candidates, fixed)
	}

	for _, candidate := range candidates {
		merged, ok := combine(remaining, candidate.Dependencies)
		if !ok {
			continue
		}

		next := make(Solution, len(partial)+1)
		for k, v := range partial {
			next[k] = v
		}
		next[name] = candidate.Version

		result, err := solve(cache, merged, next)
		if err != nil {
			return nil, err
		}
		if result != nil {
			return result, nil
		}
	}

	return nil, nil
}

// pickSmallest returns the lexicographically smallest pending package name
// and its constraint. go-radix walks keys in sorted order, so the first
// entry visited is the pick.
func pickSmallest(pending *radix.Tree) (string, interface{}) {
	var name string
	var val interface{}
	pending.Walk(func(k string, v interface{}) bool {
		name, val = k, v
		return true // stop after the first (smallest) key
	})
	return name, val
}

func filterAndSortDescending(releases []pkgcache.Release, c semver.Constraint) []pkgcache.Release {
	var out []pkgcache.Release
	for _, r := range releases {
		if semver.Satisfies(r.Version, c) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return semver.Compare(out[i].Version, out[j].Version) > 0
	})
	return out
}

func onlyVersion(releases []pkgcache.Release, v semver.Version) []pkgcache.Release {
	for _, r := range releases {
		if r.Version.Equal(v) {
			return []pkgcache.Release{r}
		}
	}
	return nil
}

// combine unions remaining with the candidate's declared dependencies,
// intersecting constraints where a package name appears in both. Returns
// ok=false if any such intersection is empty.
func combine(remaining *radix.Tree, deps map[string]semver.Constraint) (*radix.Tree, bool) {
	merged := radix.New()
	remaining.Walk(func(k string, v interface{}) bool {
		merged.Insert(k, v)
		return false
	})

	for name, c := range deps {
		if existing, ok := merged.Get(name); ok {
			intersected := semver.Intersect(existing.(semver.Constraint), c)
			if intersected.IsNone() {
				return nil, false
			}
			merged.Insert(name, intersected)
		} else {
			merged.Insert(name, c)
		}
	}
	return merged, true
}

// Verify re-checks the Solution invariant of §3 against cache: every
// selected release's declared dependencies must be present in sol and
// satisfy their declared constraint.
func Verify(cache Cache, sol Solution) error {
	for name, v := range sol {
		releases, err := cache.Get(name)
		if err != nil {
			return errors.Wrapf(err, "verifying %s", name)
		}
		var rel *pkgcache.Release
		for i := range releases {
			if releases[i].Version.Equal(v) {
				rel = &releases[i]
				break
			}
		}
		if rel == nil {
			return errors.Errorf("solution selects %s@%s but no such release exists", name, v)
		}
		for dep, c := range rel.Dependencies {
			depV, ok := sol[dep]
			if !ok {
				return errors.Errorf("%s@%s requires %s but solution has no entry for it", name, v, dep)
			}
			if !semver.Satisfies(depV, c) {
				return errors.Errorf("%s@%s requires %s to satisfy %s, but solution has %s", name, v, dep, c, depV)
			}
		}
	}
	return nil
}
