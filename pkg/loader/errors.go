package loader

import (
	"fmt"

	"github.com/venusdb/sdl/pkg/ast"
)

// SchemaLocationError is raised when a `use`/`require` target cannot be
// found on the search path (spec.md §4.1 "Failure").
type SchemaLocationError struct {
	Pos        ast.Pos
	Name       string
	SearchPath []string
}

func (e *SchemaLocationError) Error() string {
	return fmt.Sprintf("%s:0001:E:loader: schema %q cannot be located (search path=%v)", e.Pos, e.Name, e.SearchPath)
}

// ParseError wraps a concrete-syntax failure with the source that
// produced it.
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%q:0002:E:loader: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// PackageMismatchError is raised when a use statement's declared target
// name doesn't match the package name the loaded schema actually
// declares.
type PackageMismatchError struct {
	Pos      ast.Pos
	Declared string
	Actual   string
	Source   string
}

func (e *PackageMismatchError) Error() string {
	return fmt.Sprintf("%s:0003:E:loader: invalid package name: %s is referenced as %s (from %s)",
		e.Pos, e.Actual, e.Declared, e.Source)
}

// DuplicatePackageError is raised when two loaded schemas declare the
// same package name.
type DuplicatePackageError struct {
	Pos     ast.Pos
	Package string
	Sources []string
}

func (e *DuplicatePackageError) Error() string {
	return fmt.Sprintf("%s:0004:E:loader: duplicate package name %s (sources=%v)", e.Pos, e.Package, e.Sources)
}
