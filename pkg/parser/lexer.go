package parser

import "github.com/alecthomas/participle/v2/lexer"

// sdlLexer tokenizes SDL source. Rule order matters: participle's simple
// lexer tries each rule in turn at the current position, so multi-char
// punctuation (the implementation-reference arrow) and the longer
// literal forms must precede their shorter prefixes.
var sdlLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `#[^\n]*`},
	{Name: "TripleString", Pattern: `(?s)('''.*?'''|""".*?""")`},
	{Name: "String", Pattern: `'([^'\\]|\\.)*'|"([^"\\]|\\.)*"`},
	{Name: "Float", Pattern: `[+-]?((\d*\.\d+|\d+\.\d*)([Ee][+-]?\d+)?|\d+[Ee][+-]?\d+)`},
	{Name: "Int", Pattern: `[+-]?\d+`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
	{Name: "Arrow", Pattern: `->`},
	{Name: "Punct", Pattern: `[{}\[\];:=.+-]`},
	{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
})

// sdlKeywords lists every reserved word (lex.py's "reserved" map). Passed
// to participle.CaseInsensitive so literal matches in the grammar
// (below) compare against Ident tokens case-insensitively, mirroring the
// original lexer's `t.value.lower()` keyword lookup.
var sdlKeywords = []string{
	"schema", "fieldset", "field", "index", "constraint",
	"use", "require", "as", "final", "abstract", "required",
	"rename", "delete", "fields",
	"true", "false", "none", "all",
}
