// Package ast defines the immutable-shape tree produced by parsing SDL
// source: schemas, fieldsets, fields, indexes, constraints, properties,
// uses and deletions.
//
// Declaration kinds are a closed sum type (Kind); a Definition carries a
// single Kind tag instead of being one of several Go types, so behaviors
// that would otherwise be method dispatch on subclasses (effective
// members, containment predicates) become functions that branch on the
// tag. All cross-references between declarations — owner, direct
// implementor, final implementor, ancestors, descendants, the effective
// member list, and name-reference resolution targets — are stored as
// DefID arena indices rather than pointers, so a compiled Arena has no
// reference cycles and serializes directly (see pkg/persist).
package ast
