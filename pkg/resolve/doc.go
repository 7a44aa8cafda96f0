// Package resolve implements the Name Resolver (spec.md §4.2): two
// traversal strategies over an ast.Arena that turn a dotted name plus
// an origin declaration into a resolution Path, without mutating the
// arena themselves — pkg/compiler calls in here and stores the result
// on the relevant ast.DottedName.
package resolve
