package parser

import (
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/pkg/errors"

	"github.com/venusdb/sdl/pkg/ast"
)

// Build appends the schema declared by f to arena and returns its
// DefID. src is the original file text, kept so the schema can answer
// per-line source lookups for diagnostics (recovered from
// original_source's ast.py get_source_line_of, see SPEC_FULL.md); pass
// "" if unavailable.
func Build(arena *ast.Arena, f *File, src string) (ast.DefID, error) {
	sd := f.Schema
	def := ast.NewDefinition(ast.KindSchema, sd.Name.String(), toPos(sd.Pos))
	def.PackageName = sd.Name.String()
	def.TopLevel = true
	if src != "" {
		def.SourceLines = strings.Split(src, "\n")
	}
	id := arena.Add(def)
	def.SchemaID = id

	if err := buildItems(arena, id, id, sd.Body); err != nil {
		return ast.NoDef, err
	}
	return id, nil
}

func toPos(p lexer.Position) ast.Pos {
	return ast.Pos{File: p.Filename, Line: p.Line, Col: p.Column}
}

func kindFromKeyword(s string) ast.Kind {
	switch strings.ToLower(s) {
	case "schema":
		return ast.KindSchema
	case "fieldset":
		return ast.KindFieldSet
	case "field":
		return ast.KindField
	case "index":
		return ast.KindIndex
	case "constraint":
		return ast.KindConstraint
	case "property":
		return ast.KindProperty
	default:
		return ast.KindAny
	}
}

func toDottedName(nr *NameRef) *ast.DottedName {
	if nr == nil {
		return nil
	}
	dn := &ast.DottedName{
		Text:     nr.Path.String(),
		Absolute: nr.Absolute,
		Indirect: nr.Indirect,
		Pos:      toPos(nr.Pos),
	}
	if nr.Filter != nil {
		dn.Filter = kindFromKeyword(*nr.Filter)
	}
	return dn
}

func toValue(pv *PropValue) ast.Value {
	pos := toPos(pv.Pos)
	switch {
	case pv.Float != nil:
		return ast.Value{Kind: ast.ValueFloat, Pos: pos, Float: *pv.Float}
	case pv.Int != nil:
		return ast.Value{Kind: ast.ValueInt, Pos: pos, Int: *pv.Int}
	case pv.None:
		return ast.Value{Kind: ast.ValueNull, Pos: pos}
	case pv.All:
		return ast.Value{Kind: ast.ValueAll, Pos: pos}
	case pv.True:
		return ast.Value{Kind: ast.ValueBool, Pos: pos, Bool: true}
	case pv.False:
		return ast.Value{Kind: ast.ValueBool, Pos: pos, Bool: false}
	case pv.String != nil:
		return ast.Value{Kind: ast.ValueString, Pos: pos, Str: unquoteString(*pv.String)}
	case pv.Name != nil:
		return ast.Value{Kind: ast.ValueName, Pos: pos, Name: toDottedName(pv.Name)}
	default:
		return ast.Value{Kind: ast.ValueNull, Pos: pos}
	}
}

func modifiersFromGrammar(m Modifiers) ast.Modifiers {
	var out ast.Modifiers
	if m.has("abstract") {
		out = out.With(ast.ModAbstract)
	}
	if m.has("final") {
		out = out.With(ast.ModFinal)
	}
	if m.has("required") {
		out = out.With(ast.ModRequired)
	}
	return out
}

func lastSegment(s string) string {
	parts := strings.Split(s, ".")
	return parts[len(parts)-1]
}

// buildItems appends every statement in items onto the owner definition
// (use/deletion/property statements) or as a new owned sub-definition
// (field/fieldset/index/constraint), recursing into nested bodies.
func buildItems(arena *ast.Arena, owner, schemaID ast.DefID, items []*Item) error {
	ownerDef := arena.Get(owner)
	for _, it := range items {
		switch {
		case it.Use != nil:
			if owner != schemaID {
				return errors.Errorf("%s: use statements are only valid at schema scope", toPos(it.Use.Pos))
			}
			u := &ast.Use{
				Pos:      toPos(it.Use.Pos),
				Required: strings.EqualFold(it.Use.Keyword, "require"),
			}
			switch {
			case it.Use.Path != nil:
				u.Schema = it.Use.Path.String()
			case it.Use.Target != nil:
				u.Schema = unquoteString(*it.Use.Target)
			}
			if it.Use.Alias != nil {
				u.Alias = *it.Use.Alias
			} else {
				u.Alias = lastSegment(u.Schema)
			}
			ownerDef.Imports = append(ownerDef.Imports, u)

		case it.Deletion != nil:
			d := &ast.Deletion{Pos: toPos(it.Deletion.Pos), Name: it.Deletion.Name}
			if strings.EqualFold(it.Deletion.Keyword, "rename") && it.Deletion.RenameTo != nil {
				d.RenameTo = *it.Deletion.RenameTo
			}
			ownerDef.Deletions = append(ownerDef.Deletions, d)

		case it.FieldSet != nil:
			childID, err := buildFieldSet(arena, owner, schemaID, it.FieldSet)
			if err != nil {
				return err
			}
			ownerDef.Items = append(ownerDef.Items, childID)

		case it.Field != nil:
			childID, err := buildField(arena, owner, schemaID, it.Field)
			if err != nil {
				return err
			}
			ownerDef.Items = append(ownerDef.Items, childID)

		case it.Index != nil:
			childID, err := buildNested(arena, ast.KindIndex, it.Index.Name, owner, schemaID, toPos(it.Index.Pos), it.Index.Items)
			if err != nil {
				return err
			}
			ownerDef.Items = append(ownerDef.Items, childID)

		case it.Constraint != nil:
			childID, err := buildNested(arena, ast.KindConstraint, it.Constraint.Name, owner, schemaID, toPos(it.Constraint.Pos), it.Constraint.Items)
			if err != nil {
				return err
			}
			ownerDef.Items = append(ownerDef.Items, childID)

		case it.Fields != nil:
			p := &ast.Property{Name: "fields", Pos: toPos(it.Fields.Pos)}
			for _, f := range it.Fields.Fields {
				// Sort direction (+/-) is a lexical carryover from the
				// original grammar with no counterpart in the compiled
				// property model; it's accepted but not retained.
				p.Values = append(p.Values, ast.Value{Kind: ast.ValueName, Pos: toPos(f.Pos), Name: toDottedName(&f.Name)})
			}
			ownerDef.Properties = append(ownerDef.Properties, p)

		case it.Simple != nil:
			p := &ast.Property{Name: it.Simple.Name, Pos: toPos(it.Simple.Pos)}
			for _, v := range it.Simple.Values {
				p.Values = append(p.Values, toValue(v))
			}
			ownerDef.Properties = append(ownerDef.Properties, p)
		}
	}
	return nil
}

func buildFieldSet(arena *ast.Arena, owner, schemaID ast.DefID, fs *FieldSetDecl) (ast.DefID, error) {
	def := ast.NewDefinition(ast.KindFieldSet, fs.Name, toPos(fs.Pos))
	def.Modifiers = modifiersFromGrammar(fs.Modifiers)
	def.Owner = owner
	def.SchemaID = schemaID
	def.TopLevel = owner == schemaID
	id := arena.Add(def)

	if len(fs.Ancestors) > 0 {
		p := &ast.Property{Name: "ancestors", Pos: def.Pos}
		for _, a := range fs.Ancestors {
			p.Values = append(p.Values, ast.Value{Kind: ast.ValueName, Pos: toPos(a.Pos), Name: toDottedName(a)})
		}
		def.Properties = append(def.Properties, p)
	}
	if err := buildItems(arena, id, schemaID, fs.Items); err != nil {
		return ast.NoDef, err
	}
	return id, nil
}

func buildField(arena *ast.Arena, owner, schemaID ast.DefID, fd *FieldDecl) (ast.DefID, error) {
	def := ast.NewDefinition(ast.KindField, fd.Name, toPos(fd.Pos))
	def.Modifiers = modifiersFromGrammar(fd.Modifiers)
	def.Owner = owner
	def.SchemaID = schemaID
	def.TopLevel = owner == schemaID
	id := arena.Add(def)

	if len(fd.Ancestors) > 0 {
		p := &ast.Property{Name: "ancestors", Pos: def.Pos}
		for _, a := range fd.Ancestors {
			p.Values = append(p.Values, ast.Value{Kind: ast.ValueName, Pos: toPos(a.Pos), Name: toDottedName(a)})
		}
		def.Properties = append(def.Properties, p)
	}
	if fd.Reference != nil {
		def.Properties = append(def.Properties, &ast.Property{
			Name: "references",
			Pos:  def.Pos,
			Values: []ast.Value{
				{Kind: ast.ValueName, Pos: toPos(fd.Reference.Pos), Name: toDottedName(fd.Reference)},
			},
		})
	}
	if err := buildItems(arena, id, schemaID, fd.Props); err != nil {
		return ast.NoDef, err
	}
	return id, nil
}

func buildNested(arena *ast.Arena, kind ast.Kind, name string, owner, schemaID ast.DefID, pos ast.Pos, items []*Item) (ast.DefID, error) {
	def := ast.NewDefinition(kind, name, pos)
	def.Owner = owner
	def.SchemaID = schemaID
	id := arena.Add(def)
	if err := buildItems(arena, id, schemaID, items); err != nil {
		return ast.NoDef, err
	}
	return id, nil
}

// unquoteString strips SDL string delimiters and resolves backslash
// escapes for single/double-quoted literals; triple-quoted literals
// carry their content through verbatim.
func unquoteString(raw string) string {
	switch {
	case strings.HasPrefix(raw, "'''") && strings.HasSuffix(raw, "'''"):
		return raw[3 : len(raw)-3]
	case strings.HasPrefix(raw, `"""`) && strings.HasSuffix(raw, `"""`):
		return raw[3 : len(raw)-3]
	case len(raw) >= 2:
		return unescape(raw[1 : len(raw)-1])
	default:
		return raw
	}
}

func unescape(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\\' && i+1 < len(s) {
			i++
			switch s[i] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case '\\', '\'', '"':
				b.WriteByte(s[i])
			default:
				b.WriteByte('\\')
				b.WriteByte(s[i])
			}
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}
