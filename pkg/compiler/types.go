package compiler

// TypeSpec describes one entry of a vendor's logical type map (spec.md
// §4.3 phase 8, §6 "logical-to-physical type map with optional size/
// precision requirement").
type TypeSpec struct {
	// NeedsSize is true when a field using this type must carry a
	// `size` property (e.g. varchar(n)).
	NeedsSize bool
	// NeedsPrecision is true when a field using this type must carry a
	// `precision` property (e.g. decimal(p,s)).
	NeedsPrecision bool
}

// TypeMap resolves an SDL logical type name (the argument to a field's
// `type` property) against a vendor. pkg/vendor's adapters implement
// this; pkg/compiler only depends on the shape, not on pkg/vendor
// itself, so the two packages don't form an import cycle.
type TypeMap interface {
	Resolve(name string) (TypeSpec, bool)
}
