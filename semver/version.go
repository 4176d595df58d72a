// Package semver implements the Version & Constraint algebra of component
// C1: a (major, minor, patch) triple with total lexicographic order, and
// half-open interval constraints over that order.
//
// Parsing and string normalization lean on Masterminds/semver/v3, the
// library the teacher repository vendors for the same concern; the Version
// and Constraint types themselves are the project's own, matching the
// half-open-interval model spec'd in §3–§4.1 rather than Masterminds' own
// range syntax.
package semver

import (
	"fmt"

	mmsemver "github.com/Masterminds/semver/v3"
	"github.com/pkg/errors"
)

// Version is a triple of non-negative integers with total order by
// lexicographic comparison, carrying its original string form for display.
type Version struct {
	Major, Minor, Patch uint64
	orig                string
}

// Parse parses a version string of the form "MAJOR.MINOR.PATCH" (optionally
// prefixed with "v", with a pre-release/build suffix, which Masterminds/semver
// accepts and we discard for ordering purposes per the triple-only model in
// §3).
func Parse(s string) (Version, error) {
	sv, err := mmsemver.NewVersion(s)
	if err != nil {
		return Version{}, errors.Wrapf(err, "invalid version %q", s)
	}
	return Version{Major: sv.Major(), Minor: sv.Minor(), Patch: sv.Patch(), orig: s}, nil
}

// New constructs a Version directly from its components.
func New(major, minor, patch uint64) Version {
	return Version{Major: major, Minor: minor, Patch: patch}
}

// String returns the original parsed form if available, else a canonical
// "major.minor.patch" rendering.
func (v Version) String() string {
	if v.orig != "" {
		return v.orig
	}
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Compare returns -1, 0, or 1 as v is less than, equal to, or greater than
// other, comparing lexicographically on (Major, Minor, Patch).
func Compare(v, other Version) int {
	switch {
	case v.Major != other.Major:
		return cmpUint(v.Major, other.Major)
	case v.Minor != other.Minor:
		return cmpUint(v.Minor, other.Minor)
	default:
		return cmpUint(v.Patch, other.Patch)
	}
}

func cmpUint(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Less reports whether v sorts strictly before other.
func (v Version) Less(other Version) bool { return Compare(v, other) < 0 }

// Equal reports whether v and other are the same (major, minor, patch)
// triple, ignoring original string form.
func (v Version) Equal(other Version) bool { return Compare(v, other) == 0 }
