package ast

// Modifier is a bit in a Definition's modifier set.
type Modifier uint8

const (
	ModAbstract Modifier = 1 << iota
	ModFinal
	ModRequired
)

// Modifiers is a small bitset of Modifier values attached to a
// declaration (e.g. `abstract required fieldset foo { ... }`).
type Modifiers uint8

// Has reports whether m carries the given modifier.
func (m Modifiers) Has(mod Modifier) bool { return Modifiers(mod)&m != 0 }

// With returns a copy of m with mod set.
func (m Modifiers) With(mod Modifier) Modifiers { return m | Modifiers(mod) }

func (m Modifiers) String() string {
	var s string
	for _, pair := range []struct {
		mod  Modifier
		name string
	}{
		{ModAbstract, "abstract"},
		{ModFinal, "final"},
		{ModRequired, "required"},
	} {
		if m.Has(pair.mod) {
			if s != "" {
				s += " "
			}
			s += pair.name
		}
	}
	return s
}
