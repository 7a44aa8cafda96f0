// Package compare provides generic comparison utilities for structural equality testing.
//
// This package offers a set of helper functions that eliminate boilerplate code when
// implementing Equal() methods on structs. It handles common patterns like nil checking,
// pointer comparisons, slice comparisons, and map comparisons.
//
// # Key Features
//
//   - Generic functions that work with any type
//   - Nil-safe pointer comparisons
//   - Slice comparisons with custom equality functions
//   - Map comparisons with value equality
//   - Reduces boilerplate code by 60-80%
//
// # Usage Examples
//
// Replace repetitive nil checks:
//
//	// Before (6 lines):
//	if x == nil && other == nil {
//	    return true
//	}
//	if x == nil || other == nil {
//	    return false
//	}
//
//	// After (2 lines):
//	if eq, done := compare.NilCheck(x, other); !done {
//	    return eq
//	}
//
// Compare pointer fields:
//
//	// Before (12 lines for 2 fields):
//	if (f.Size != nil) != (other.Size != nil) {
//	    return false
//	}
//	if f.Size != nil && *f.Size != *other.Size {
//	    return false
//	}
//	// ... repeat for Precision
//
//	// After (2 lines):
//	return compare.Pointers(f.Size, other.Size) &&
//	       compare.Pointers(f.Precision, other.Precision)
//
// Compare slices with element equality:
//
//	// Before (9 lines):
//	if len(schema.Properties) != len(other.Properties) {
//	    return false
//	}
//	for i := range schema.Properties {
//	    if !schema.Properties[i].Equal(other.Properties[i]) {
//	        return false
//	    }
//	}
//	return true
//
//	// After (3 lines):
//	return compare.Slices(schema.Properties, other.Properties, func(a, b *Property) bool {
//	    return a.Equal(b)
//	})
package compare
