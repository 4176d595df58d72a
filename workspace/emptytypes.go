package workspace

// EmptyType is one grammar-intrinsic type with no source definition
// anywhere in the forest -- the module system's built-in primitives, which
// a hover or go-to-definition request can still be asked about even though
// no TreeContainer owns a defining node for them.
type EmptyType struct {
	Name     string
	Markdown string
}

// emptyTypes is the constant table behind GetEmptyTypes. Grounded on
// elm-language-server's getEmptyTypes handler (a supplement from
// original_source/, per SPEC_FULL.md: spec.md's distillation names the
// operation but not its contents), reproduced here as the intrinsic types
// of this language's own prelude rather than copied verbatim.
var emptyTypes = []EmptyType{
	{Name: "List", Markdown: "```\ntype List a\n```\nA list of values of a single type, built from `Nil` and `Cons` (`::`)."},
	{Name: "String", Markdown: "```\ntype String\n```\nA built-in sequence of UTF-8 characters."},
	{Name: "Int", Markdown: "```\ntype Int\n```\nA built-in arbitrary-precision (or platform-width) signed integer."},
	{Name: "Float", Markdown: "```\ntype Float\n```\nA built-in floating point number."},
	{Name: "Char", Markdown: "```\ntype Char\n```\nA built-in single Unicode code point."},
	{Name: "Bool", Markdown: "```\ntype Bool = True | False\n```\nThe built-in two-valued type used by conditionals."},
	{Name: "Order", Markdown: "```\ntype Order = LT | EQ | GT\n```\nThe built-in result of a comparison."},
	{Name: "Never", Markdown: "```\ntype Never\n```\nA type with no values, used to prove a branch is unreachable."},
}

// GetEmptyTypes implements spec.md §6 getEmptyTypes: the constant list of
// grammar-intrinsic types with no source definition. Returns a copy so
// callers can't mutate the shared table.
func GetEmptyTypes() []EmptyType {
	out := make([]EmptyType, len(emptyTypes))
	copy(out, emptyTypes)
	return out
}
