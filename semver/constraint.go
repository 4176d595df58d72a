package semver

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Op is a comparison operator usable as a constraint bound, restricted to
// the two the manifest format allows (§6): "<" and "<=".
type Op uint8

const (
	// OpLT is strict less-than.
	OpLT Op = iota
	// OpLE is less-than-or-equal.
	OpLE
)

func (o Op) String() string {
	if o == OpLE {
		return "<="
	}
	return "<"
}

// strict reports whether o is the stricter of the two operators.
func (o Op) strict() bool { return o == OpLT }

// Constraint is a half-open interval `lower op1 v op2 upper`: a version v is
// a member iff `lower op1 v` and `v op2 upper`. The invariant lower < upper
// is maintained by every constructor and by Intersect.
type Constraint struct {
	Lower  Version
	Op1    Op
	Upper  Version
	Op2    Op
	isNone bool // the empty set; returned by a failed Intersect
}

// New builds a Constraint, validating the lower < upper invariant.
func New(lower Version, op1 Op, upper Version, op2 Op) (Constraint, error) {
	if !lower.Less(upper) {
		return Constraint{}, fmt.Errorf("invalid constraint: lower bound %s is not less than upper bound %s", lower, upper)
	}
	return Constraint{Lower: lower, Op1: op1, Upper: upper, Op2: op2}, nil
}

// None is the empty constraint: it matches no version and intersecting
// anything with it yields None again.
var None = Constraint{isNone: true}

// IsNone reports whether c is the empty set.
func (c Constraint) IsNone() bool { return c.isNone }

// Satisfies reports whether v lies within the half-open interval, i.e.
// `lower op1 v` and `v op2 upper` both hold.
func Satisfies(v Version, c Constraint) bool {
	if c.isNone {
		return false
	}
	return lowerHolds(c.Lower, c.Op1, v) && upperHolds(v, c.Op2, c.Upper)
}

func lowerHolds(lower Version, op Op, v Version) bool {
	cmp := Compare(lower, v)
	if op == OpLT {
		return cmp < 0
	}
	return cmp <= 0
}

func upperHolds(v Version, op Op, upper Version) bool {
	cmp := Compare(v, upper)
	if op == OpLT {
		return cmp < 0
	}
	return cmp <= 0
}

// Intersect computes the intersection of c1 and c2. The new lower bound is
// the max of the two lowers (ties broken by strict-operator-wins); the new
// upper bound is the min of the two uppers (same tie-break). Returns None
// if the resulting interval would be empty (lower >= upper), per §4.1.
func Intersect(c1, c2 Constraint) Constraint {
	if c1.isNone || c2.isNone {
		return None
	}

	lower, op1 := tighterLower(c1.Lower, c1.Op1, c2.Lower, c2.Op1)
	upper, op2 := tighterUpper(c1.Upper, c1.Op2, c2.Upper, c2.Op2)

	if !lower.Less(upper) {
		return None
	}
	return Constraint{Lower: lower, Op1: op1, Upper: upper, Op2: op2}
}

// tighterLower picks the larger of two lower bounds; on a tie, the stricter
// operator (OpLT) wins, since it further restricts membership.
func tighterLower(a Version, aop Op, b Version, bop Op) (Version, Op) {
	switch Compare(a, b) {
	case 1:
		return a, aop
	case -1:
		return b, bop
	default:
		if aop.strict() || bop.strict() {
			return a, OpLT
		}
		return a, OpLE
	}
}

// tighterUpper picks the smaller of two upper bounds; on a tie, the
// stricter operator (OpLT) wins.
func tighterUpper(a Version, aop Op, b Version, bop Op) (Version, Op) {
	switch Compare(a, b) {
	case -1:
		return a, aop
	case 1:
		return b, bop
	default:
		if aop.strict() || bop.strict() {
			return a, OpLT
		}
		return a, OpLE
	}
}

// String renders the constraint in "lower op1 v op2 upper" form.
func (c Constraint) String() string {
	if c.isNone {
		return "<none>"
	}
	return fmt.Sprintf("%s %s v %s %s", c.Lower, c.Op1, c.Op2, c.Upper)
}

// ParseOp parses "<" or "<=" into an Op, per the manifest format of §6
// ("constraints of the form LOWER OP v OP UPPER where OP ∈ {<, ≤}").
func ParseOp(s string) (Op, error) {
	switch s {
	case "<":
		return OpLT, nil
	case "<=", "≤":
		return OpLE, nil
	default:
		return 0, fmt.Errorf("invalid constraint operator %q", s)
	}
}

// ParseConstraint parses the "lower op1 v op2 upper" textual form produced
// by Constraint.String, e.g. "1.0.0 <= v < 2.0.0".
func ParseConstraint(s string) (Constraint, error) {
	fields := strings.Fields(s)
	if len(fields) != 5 || fields[2] != "v" {
		return Constraint{}, fmt.Errorf("invalid constraint syntax %q, want \"LOWER OP v OP UPPER\"", s)
	}
	lower, err := Parse(fields[0])
	if err != nil {
		return Constraint{}, errors.Wrapf(err, "parsing constraint %q", s)
	}
	op1, err := ParseOp(fields[1])
	if err != nil {
		return Constraint{}, errors.Wrapf(err, "parsing constraint %q", s)
	}
	op2, err := ParseOp(fields[3])
	if err != nil {
		return Constraint{}, errors.Wrapf(err, "parsing constraint %q", s)
	}
	upper, err := Parse(fields[4])
	if err != nil {
		return Constraint{}, errors.Wrapf(err, "parsing constraint %q", s)
	}
	return New(lower, op1, upper, op2)
}
