// Package loader implements the Parse Aggregator (spec.md §4.1): given a
// set of top-level schema file paths and a search path, it resolves and
// parses every schema transitively reachable through `use`/`require`
// statements into a single ast.Arena, always implicitly including the
// built-in core schema (schemas/core.sdl, embedded by builtin.go).
package loader
