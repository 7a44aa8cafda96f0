package ast

// Use is a `use` import statement inside a Schema: `use foo.bar as fb
// required;`. Schema is the dotted package path as written in source;
// Resolved is filled in by the Parse Aggregator once the target schema
// has been loaded.
type Use struct {
	Schema   string
	Alias    string
	Required bool
	Pos      Pos

	Resolved DefID
}

// Deletion removes (or renames) an inherited member by name from the
// effective member list of its enclosing declaration (phase 3(f)).
// RenameTo is non-empty for a `rename X as Y` statement, recovered from
// original_source (see SPEC_FULL.md); a plain `delete X` leaves it empty.
type Deletion struct {
	Name     string
	RenameTo string
	Pos      Pos

	// Used records whether this deletion actually removed something
	// from the effective members, so phase 3(g) can warn on dead
	// deletions.
	Used bool
}
