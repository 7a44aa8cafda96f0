package ast

import "strings"

// NoDef is the zero value for a DefID, meaning "no definition". Valid
// DefIDs start at 1 so the zero value can be distinguished from a real
// reference without a separate "ok" flag everywhere.
const NoDef DefID = 0

// DefID is a stable arena index for a Definition. Cross-links between
// declarations (owner, ancestors, implementor chains, resolution
// targets...) are DefIDs rather than pointers; see Arena.
type DefID int

// DottedName is a parsed name-reference: a dotted path that may be
// absolute (starts with the `schema` keyword), may carry the `=`
// implementation-indirection marker, and may carry a bracketed kind
// filter (`foo.bar[fieldset]`). Binding fills in Target and Path; until
// then both are zero.
//
// The original implementation (venus.db.yasdl.ast.dotted_name) embeds
// this metadata on a str subclass; idiomatic Go keeps the text and
// metadata as separate struct fields instead (see DESIGN.md).
type DottedName struct {
	Text     string
	Absolute bool
	Indirect bool
	Filter   Kind
	Pos      Pos

	// Target and Path are populated by pkg/resolve. Target is the
	// DefID the name resolves to (after implementor substitution, for
	// dynamic binds); Path is the full chain of containers traversed
	// to reach it, which is what lets two textually distinct routes to
	// the same sub-definition stay distinguishable (spec "path
	// binding").
	Target DefID
	Path   []DefID
}

// Segments splits the dotted text into its component identifiers.
func (d *DottedName) Segments() []string {
	if d.Text == "" {
		return nil
	}
	return strings.Split(d.Text, ".")
}

func (d *DottedName) String() string {
	var b strings.Builder
	if d.Indirect {
		b.WriteByte('=')
	}
	if d.Absolute {
		b.WriteString("schema.")
	}
	b.WriteString(d.Text)
	if d.Filter != KindAny {
		b.WriteByte('[')
		b.WriteString(d.Filter.String())
		b.WriteByte(']')
	}
	return b.String()
}
