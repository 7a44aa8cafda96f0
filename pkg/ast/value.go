package ast

import "fmt"

// ValueKind discriminates the literal/name variants a Property value may
// take (spec.md §3 "Property").
type ValueKind int

const (
	ValueInt ValueKind = iota
	ValueFloat
	ValueBool
	ValueString
	ValueNull
	ValueAll
	ValueName
)

// Value is a single argument to a Property: either a literal or a dotted
// name reference. Exactly one of the typed fields is meaningful, chosen
// by Kind.
type Value struct {
	Kind ValueKind
	Pos  Pos

	Int   int64
	Float float64
	Bool  bool
	Str   string
	Name  *DottedName
}

func (v Value) String() string {
	switch v.Kind {
	case ValueInt:
		return fmt.Sprintf("%d", v.Int)
	case ValueFloat:
		return fmt.Sprintf("%g", v.Float)
	case ValueBool:
		return fmt.Sprintf("%t", v.Bool)
	case ValueString:
		return fmt.Sprintf("%q", v.Str)
	case ValueNull:
		return "none"
	case ValueAll:
		return "all"
	case ValueName:
		if v.Name != nil {
			return v.Name.String()
		}
		return "<nil name>"
	default:
		return "<invalid value>"
	}
}
