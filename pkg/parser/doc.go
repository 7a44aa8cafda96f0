// Package parser implements the concrete SDL surface syntax: a
// participle-based lexer and grammar that turns schema source text into
// ast.Definition trees appended to an ast.Arena.
//
// The grammar is a direct structural port of the original YASDL
// lex.py/yacc.py token and production set (ply-based) onto
// github.com/alecthomas/participle/v2, in the same style housekeeper's
// own pkg/parser uses for ClickHouse DDL: a lexer.MustSimple token set
// feeding a participle.MustBuild[Grammar] struct grammar.
package parser
