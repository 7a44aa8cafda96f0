package compare

// NilCheck performs a nil check on two pointers and returns whether they are equal
// and whether more comparison checks are needed.
//
// Returns (equal, needsMoreChecks) where:
//   - equal: true if both are nil, false if only one is nil
//   - needsMoreChecks: true if both pointers are non-nil and further comparison is needed
//
// Example:
//
//	func (d *DottedName) Equal(other *DottedName) bool {
//	    if eq, needsMoreChecks := compare.NilCheck(d, other); !needsMoreChecks {
//	        return eq
//	    }
//	    // Continue with field comparisons...
//	}
func NilCheck[T any](a, b *T) (equal bool, needsMoreChecks bool) {
	if a == nil && b == nil {
		return true, false
	}
	if a == nil || b == nil {
		return false, false
	}
	return false, true
}

// Pointers compares two pointer values for equality.
// Returns true if both are nil, or both are non-nil with equal values.
//
// Example:
//
//	func (f *FieldSpec) Equal(other *FieldSpec) bool {
//	    return compare.Pointers(f.Size, other.Size) &&
//	           compare.Pointers(f.Precision, other.Precision)
//	}
func Pointers[T comparable](a, b *T) bool {
	if (a != nil) != (b != nil) {
		return false
	}
	if a != nil && *a != *b {
		return false
	}
	return true
}

// PointersWithEqual compares two pointers using a custom equality function.
// Returns true if both are nil, or both are non-nil and the equality function returns true.
//
// Example:
//
//	func (f *Field) Equal(other *Field) bool {
//	    return compare.PointersWithEqual(f.References, other.References,
//	        func(a, b *FieldSet) bool { return a.Equal(b) })
//	}
func PointersWithEqual[T any](a, b *T, equalFunc func(*T, *T) bool) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return equalFunc(a, b)
}

// Slices compares two slices for equality using an equality function for elements.
// Returns true if both slices have the same length and all corresponding elements are equal.
//
// Example:
//
//	func (fs *FieldSet) Equal(other *FieldSet) bool {
//	    return compare.Slices(fs.Properties, other.Properties,
//	        func(a, b *Property) bool { return a.Equal(b) })
//	}
func Slices[T any](a, b []T, equalFunc func(T, T) bool) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !equalFunc(a[i], b[i]) {
			return false
		}
	}
	return true
}

// SlicesUnordered compares two slices for equality regardless of order.
// Returns true if both slices contain the same elements (by the equality function).
//
// Example:
//
//	func (d *Definition) SpecificationsEqual(other *Definition) bool {
//	    return compare.SlicesUnordered(d.Specifications, other.Specifications,
//	        func(a, b DefID) bool { return a == b })
//	}
func SlicesUnordered[T any](a, b []T, equalFunc func(T, T) bool) bool {
	if len(a) != len(b) {
		return false
	}

	// Track which elements in b have been matched
	matched := make([]bool, len(b))

	for _, aElem := range a {
		found := false
		for j, bElem := range b {
			if !matched[j] && equalFunc(aElem, bElem) {
				matched[j] = true
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	return true
}

// Maps compares two maps for equality.
// Returns true if both maps have the same keys and all corresponding values are equal.
//
// Example:
//
//	func (d *Definition) DescendantsEqual(other *Definition) bool {
//	    return compare.Maps(d.Descendants, other.Descendants)
//	}
func Maps[K comparable, V comparable](a, b map[K]V) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if bv, ok := b[k]; !ok || bv != v {
			return false
		}
	}
	return true
}

// MapsWithEqual compares two maps using a custom equality function for values.
// Returns true if both maps have the same keys and all corresponding values are equal
// according to the equality function.
//
// Example:
//
//	func (s *Schema) PropertiesByNameEqual(other *Schema) bool {
//	    return compare.MapsWithEqual(s.PropertiesByName, other.PropertiesByName,
//	        func(a, b *Property) bool { return a.Equal(b) })
//	}
func MapsWithEqual[K comparable, V any](a, b map[K]V, equalFunc func(V, V) bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		bv, ok := b[k]
		if !ok || !equalFunc(v, bv) {
			return false
		}
	}
	return true
}
