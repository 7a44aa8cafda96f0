package ast

// Member is one entry of a declaration's effective member list: the
// order-preserving, name-keyed merge of inherited ancestor members and
// locally declared items, with deletions removed and local items
// overriding by name (spec.md §4.3 phase 3(f)).
type Member struct {
	Name   string
	Target DefID
}

// Definition is the single, closed sum type for every declaration
// variant (Schema, FieldSet, Field, Index, Constraint); Kind selects
// which fields beyond the common ones are meaningful. This mirrors
// DESIGN.md's "variant polymorphism" choice: behaviors that would be
// subclass method dispatch in an OO model become functions in pkg/compiler
// and pkg/resolve that branch on Kind.
//
// The fields below Owner are populated monotonically by the compiler
// phases named in each comment; no earlier phase reads a later phase's
// field (spec.md §3 "Lifecycle").
type Definition struct {
	ID        DefID
	Kind      Kind
	Name      string
	Modifiers Modifiers
	Pos       Pos

	// Owner is the immediately containing declaration: NoDef for a
	// top-level Schema, the owning Schema's DefID for a top-level
	// FieldSet, or the owning FieldSet's DefID for a nested member.
	Owner DefID
	// SchemaID is the schema that textually contains this declaration
	// (itself, for a Schema).
	SchemaID DefID
	// TopLevel is true when Owner is a Schema (declared at the
	// outermost level of its containing schema).
	TopLevel bool

	// Items are the directly owned sub-definitions, in declaration
	// order (only Schema and FieldSet own items).
	Items []DefID
	// Properties are the declaration's own property statements, in
	// declaration order. Ancestors/implements targets are properties
	// named "ancestors"/"implements" here until phase 3 (ancestors) and
	// phase 1 (implements) bind them.
	Properties []*Property
	Deletions  []*Deletion

	// --- Schema-only fields (meaningful iff Kind == KindSchema) ---
	PackageName string
	Imports     []*Use
	SourceLines []string

	// --- phase 1(g): implements targets declared by this definition,
	// statically bound (the reverse of DirectImplementor: if this list
	// contains T, this definition implements T). ---
	Implements []DefID

	// --- phase 2: implementation tree ---
	DirectImplementor DefID
	FinalImplementor  DefID
	Specifications    []DefID
	Implementations   []DefID

	// --- phase 3: inheritance graph ---
	Ancestors   []DefID
	Descendants map[DefID]bool

	// --- phase 3(f): effective members ---
	Members       []Member
	membersCached bool

	// --- phase 4(a): Field-only `references` binding. Target is the
	// resolved fieldset's final implementor; Universal is true when the
	// references property was declared with zero arguments (glossary
	// "Universal reference") or reduced to zero by an overriding
	// declaration.
	ReferencesTarget DefID
	Universal        bool

	// --- phase 5: realization ---
	Realized bool

	// GUID is required on every Schema and on every self-realized
	// top-level FieldSet (phase 7).
	GUID string
}

// NewDefinition allocates a Definition with its maps initialized; it is
// not yet registered in an Arena (see Arena.Add).
func NewDefinition(kind Kind, name string, pos Pos) *Definition {
	return &Definition{
		Kind:        kind,
		Name:        name,
		Pos:         pos,
		Owner:       NoDef,
		SchemaID:    NoDef,
		Descendants: map[DefID]bool{},
	}
}

// Property returns the first property with the given name, or nil.
func (d *Definition) Property(name string) *Property {
	for _, p := range d.Properties {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// IsSelfImplementing reports whether this declaration is its own final
// implementor (i.e. has no direct implementor anywhere in the chain).
func (d *Definition) IsSelfImplementing() bool {
	return d.FinalImplementor == d.ID
}

// MembersCached reports whether phase 3(f) has populated Members for
// this declaration yet; pkg/compiler uses it to avoid recomputing a
// member list that's already been merged.
func (d *Definition) MembersCached() bool { return d.membersCached }

// SetMembersCached marks the effective member list as computed.
func (d *Definition) SetMembersCached() { d.membersCached = true }
