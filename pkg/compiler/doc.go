// Package compiler implements the Semantic Compiler (spec.md §4.3): an
// ordered, multi-phase checker over a loader.Result that validates
// identifiers, builds the implementation and inheritance graphs,
// resolves the remaining dotted names, computes the realized set, and
// runs the final shape/vendor checks. Phases run strictly in order;
// a phase that appends an error-severity diagnostic (or, in strict
// mode, a warning) stops the compiler before the next phase runs —
// mirroring housekeeper's pkg/schema validate-then-generate structure
// (see pkg/schema/validation.go, pkg/schema/generator.go).
package compiler
