package parser

import (
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// File is the root of one parsed source file: exactly one schema
// declaration (spec.md §6's surface syntax is schema-scoped; a source
// tree is a set of files, each declaring one schema, tied together by
// Path's loader).
type File struct {
	Pos    lexer.Position
	Schema *SchemaDecl `parser:"@@"`
}

// SchemaDecl is `schema dotted.package.name { ... }`.
type SchemaDecl struct {
	Pos  lexer.Position
	Name Path    `parser:"\"schema\" @@"`
	Body []*Item `parser:"\"{\" @@* \"}\""`
}

// Path is a plain dotted identifier path, with none of NameRef's
// indirection/absolute/filter decoration (used for schema package names
// and use targets).
type Path struct {
	Pos   lexer.Position
	Parts []string `parser:"@Ident (\".\" @Ident)*"`
}

func (p Path) String() string { return strings.Join(p.Parts, ".") }

// NameRef is a dotted name reference as it appears inside property
// values, ancestor/implements lists and field references: optionally
// `=`-indirect, optionally absolute (`schema.` prefix), optionally
// followed by a bracketed kind filter.
type NameRef struct {
	Pos      lexer.Position
	Indirect bool    `parser:"@\"=\"?"`
	Absolute bool    `parser:"( @\"schema\" \".\" )?"`
	Path     Path    `parser:"@@"`
	Filter   *string `parser:"( \"[\" @(\"schema\"|\"fieldset\"|\"field\"|\"index\"|\"constraint\"|\"property\") \"]\" )?"`
}

// Modifiers captures zero or more of the abstract/final/required
// keywords preceding a field/fieldset declaration, in any order, the
// way lex.py/yacc.py's `modifiers` production does.
type Modifiers struct {
	Pos   lexer.Position
	Kinds []string `parser:"@(\"abstract\"|\"final\"|\"required\")*"`
}

func (m Modifiers) has(kw string) bool {
	for _, k := range m.Kinds {
		if strings.EqualFold(k, kw) {
			return true
		}
	}
	return false
}

// UseDecl is `use name [as alias];` or `require name [as alias];`; the
// target may be a dotted path or a URI string literal.
type UseDecl struct {
	Pos     lexer.Position
	Keyword string  `parser:"@(\"use\"|\"require\")"`
	Target  *string `parser:"( @String"`
	Path    *Path   `parser:"| @@ )"`
	Alias   *string `parser:"( \"as\" @Ident )?"`
	Semi    string  `parser:"\";\""`
}

// DeletionDecl is `delete name;` or (recovered from original_source,
// see SPEC_FULL.md) `rename name as newname;`.
type DeletionDecl struct {
	Pos      lexer.Position
	Keyword  string  `parser:"@(\"delete\"|\"rename\")"`
	Name     string  `parser:"@Ident"`
	RenameTo *string `parser:"( \"as\" @Ident )?"`
	Semi     string  `parser:"\";\""`
}

// FieldSetDecl is `[modifiers] fieldset name [: ancestors] (; | { items });`.
type FieldSetDecl struct {
	Pos       lexer.Position
	Modifiers Modifiers  `parser:"@@ \"fieldset\""`
	Name      string     `parser:"@Ident"`
	Ancestors []*NameRef `parser:"( \":\" @@+ )?"`
	Semi      bool       `parser:"( @\";\""`
	Items     []*Item    `parser:"| \"{\" @@* \"}\" )"`
}

// FieldDecl is `[modifiers] field name [: ancestors] [-> target] (; | { props });`.
type FieldDecl struct {
	Pos       lexer.Position
	Modifiers Modifiers  `parser:"@@ \"field\""`
	Name      string     `parser:"@Ident"`
	Ancestors []*NameRef `parser:"( \":\" @@+ )?"`
	Reference *NameRef   `parser:"( \"->\" @@ )?"`
	Semi      bool       `parser:"( @\";\""`
	Props     []*Item    `parser:"| \"{\" @@* \"}\" )"`
}

// IndexDecl is `index name { props };`.
type IndexDecl struct {
	Pos   lexer.Position
	Name  string  `parser:"\"index\" @Ident"`
	Items []*Item `parser:"\"{\" @@* \"}\""`
}

// ConstraintDecl is `constraint name { props };`.
type ConstraintDecl struct {
	Pos   lexer.Position
	Name  string  `parser:"\"constraint\" @Ident"`
	Items []*Item `parser:"\"{\" @@* \"}\""`
}

// FieldsProp is the `fields` statement: a list of signed dotted names
// naming the index/constraint's member fields, sign indicating sort
// direction (`+` ascending, `-` descending, unsigned defaults to
// ascending).
type FieldsProp struct {
	Pos    lexer.Position
	Fields []*IdxField `parser:"\"fields\" @@+"`
	Semi   string      `parser:"\";\""`
}

// IdxField is one entry of a FieldsProp.
type IdxField struct {
	Pos  lexer.Position
	Desc bool    `parser:"( @\"-\""`
	Asc  bool    `parser:"| @\"+\" )?"`
	Name NameRef `parser:"@@"`
}

// SimpleProp is an ordinary `name value value ...;` property statement
// (values are whitespace-separated, never comma-separated, matching the
// original grammar).
type SimpleProp struct {
	Pos    lexer.Position
	Name   string       `parser:"@Ident"`
	Values []*PropValue `parser:"@@*"`
	Semi   string       `parser:"\";\""`
}

// PropValue is one argument of a SimpleProp.
type PropValue struct {
	Pos    lexer.Position
	Float  *float64 `parser:"( @Float"`
	Int    *int64   `parser:"| @Int"`
	None   bool     `parser:"| @\"none\""`
	All    bool     `parser:"| @\"all\""`
	True   bool     `parser:"| @\"true\""`
	False  bool     `parser:"| @\"false\""`
	String *string  `parser:"| @(String|TripleString)"`
	Name   *NameRef `parser:"| @@ )"`
}

// Item is any statement that may appear inside a schema or a fieldset
// body: use/require, delete/rename, a nested definition, or a property.
// spec.md's own grammar restricts top-level schema bodies to
// field/fieldset/property and reserves index/constraint/delete for
// fieldset bodies; this grammar is deliberately more permissive (it
// accepts the full Item set in both places) since the semantic compiler
// phases reject anything out of place with a proper diagnostic instead
// of the parser silently refusing a text that should be rejected later
// with context.
type Item struct {
	Pos        lexer.Position
	Use        *UseDecl        `parser:"( @@"`
	Deletion   *DeletionDecl   `parser:"| @@"`
	Index      *IndexDecl      `parser:"| @@"`
	Constraint *ConstraintDecl `parser:"| @@"`
	FieldSet   *FieldSetDecl   `parser:"| @@"`
	Field      *FieldDecl      `parser:"| @@"`
	Fields     *FieldsProp     `parser:"| @@"`
	Simple     *SimpleProp     `parser:"| @@ )"`
}
