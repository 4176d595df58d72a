package semver

import "testing"

func mustParse(t *testing.T, s string) Version {
	t.Helper()
	v, err := Parse(s)
	if err != nil {
		t.Fatalf("Parse(%q): %v", s, err)
	}
	return v
}

func TestCompare(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"1.0.0", "1.0.0", 0},
		{"1.0.0", "1.0.1", -1},
		{"1.2.0", "1.10.0", -1},
		{"2.0.0", "1.9.9", 1},
	}

	for _, c := range cases {
		a, b := mustParse(t, c.a), mustParse(t, c.b)
		if got := Compare(a, b); got != c.want {
			t.Errorf("Compare(%s, %s) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}

func TestConstraintSatisfies(t *testing.T) {
	lower := mustParse(t, "1.0.0")
	upper := mustParse(t, "2.0.0")
	c, err := New(lower, OpLE, upper, OpLT)
	if err != nil {
		t.Fatal(err)
	}

	for _, tc := range []struct {
		v    string
		want bool
	}{
		{"1.0.0", true},
		{"0.9.9", false},
		{"1.9.9", true},
		{"2.0.0", false},
	} {
		v := mustParse(t, tc.v)
		if got := Satisfies(v, c); got != tc.want {
			t.Errorf("Satisfies(%s, %s) = %v, want %v", tc.v, c, got, tc.want)
		}
	}
}

func TestIntersect(t *testing.T) {
	c1, _ := New(mustParse(t, "1.0.0"), OpLE, mustParse(t, "2.0.0"), OpLT)
	c2, _ := New(mustParse(t, "1.2.0"), OpLE, mustParse(t, "3.0.0"), OpLE)

	got := Intersect(c1, c2)
	if got.Lower.String() != "1.2.0" || got.Op1 != OpLE {
		t.Errorf("lower bound = %s %s, want 1.2.0 <=", got.Lower, got.Op1)
	}
	if got.Upper.String() != "2.0.0" || got.Op2 != OpLT {
		t.Errorf("upper bound = %s %s, want 2.0.0 <", got.Upper, got.Op2)
	}
}

func TestIntersectEmpty(t *testing.T) {
	c1, _ := New(mustParse(t, "1.0.0"), OpLE, mustParse(t, "1.5.0"), OpLT)
	c2, _ := New(mustParse(t, "2.0.0"), OpLE, mustParse(t, "3.0.0"), OpLT)

	if got := Intersect(c1, c2); !got.IsNone() {
		t.Errorf("Intersect of disjoint ranges = %s, want None", got)
	}
}

func TestIntersectCommutative(t *testing.T) {
	c1, _ := New(mustParse(t, "1.0.0"), OpLE, mustParse(t, "2.0.0"), OpLT)
	c2, _ := New(mustParse(t, "1.2.0"), OpLT, mustParse(t, "3.0.0"), OpLE)

	a := Intersect(c1, c2)
	b := Intersect(c2, c1)
	if a.Lower != b.Lower || a.Op1 != b.Op1 || a.Upper != b.Upper || a.Op2 != b.Op2 {
		t.Errorf("Intersect not commutative: %s vs %s", a, b)
	}
}

func TestSelfIntersectIsIdentity(t *testing.T) {
	c, _ := New(mustParse(t, "1.0.0"), OpLE, mustParse(t, "2.0.0"), OpLT)
	self := Intersect(c, c)
	for _, s := range []string{"1.0.0", "1.5.0", "1.9.9"} {
		v := mustParse(t, s)
		if Satisfies(v, self) != Satisfies(v, c) {
			t.Errorf("Satisfies(%s, self-intersect) != Satisfies(%s, c)", s, s)
		}
	}
}
