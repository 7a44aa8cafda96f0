// Package naming implements physical naming (spec.md §4.4): mapping a
// logical path of declaration names onto an identifier that's safe and
// unique for the target vendor's maximum identifier length.
package naming

import (
	"crypto/sha256"
	"encoding/base64"
	"strings"
)

// Separator joins path parts before length-checking/hashing.
const Separator = "$"

// hashEncoding is a URL-safe base64 alphabet using '_' and '$' as the
// two non-alphanumeric digits, matching original_source's
// `base64.b64encode(digest, b"_$")` (venus/db/dbo/connection.py
// Connection.hashname).
var hashEncoding = base64.NewEncoding(
	"ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789_$",
).WithPadding(base64.NoPadding)

// Mangle truncates basename to fit maxLen, preserving a recognizable
// prefix and appending a content hash so distinct long names don't
// collide. Names already within maxLen are returned unchanged.
func Mangle(basename string, maxLen int) string {
	if len(basename) <= maxLen {
		return basename
	}
	digest := sha256.Sum256([]byte(basename))
	tail := hashEncoding.EncodeToString(digest[:])[:6]
	return basename[:maxLen-8] + "__" + tail
}

// Join concatenates path parts with Separator; each part is a
// declaration name or a literal string segment (e.g. "pk", "fk").
func Join(parts ...string) string {
	return strings.Join(parts, Separator)
}

// Make builds a physical name from a logical path and mangles it to
// fit maxLen (spec.md §4.4 steps 1-3).
func Make(maxLen int, parts ...string) string {
	return Mangle(Join(parts...), maxLen)
}

// SchemaName derives a schema's physical name from its dotted package
// name components.
func SchemaName(maxLen int, packageComponents []string) string {
	return Make(maxLen, packageComponents...)
}

// TableName derives a top-level realized fieldset's physical table
// name from its own declaration name.
func TableName(maxLen int, tableDeclName string) string {
	return Make(maxLen, tableDeclName)
}

// PrimaryKeyName derives a table's primary-key constraint name:
// `pk$<tablename>`.
func PrimaryKeyName(maxLen int, tablePhysicalName string) string {
	return Make(maxLen, "pk", tablePhysicalName)
}

// IndexName derives an index's physical name from the owning table's
// declaration name, the index's own name, and the dotted reference
// paths of its indexed fields: `<table>$<index>$<field refpath...>`.
func IndexName(maxLen int, tableDeclName, indexDeclName string, fieldRefPaths []string) string {
	parts := append([]string{tableDeclName, indexDeclName}, fieldRefPaths...)
	return Make(maxLen, parts...)
}

// ConstraintName derives a table-scoped constraint's physical name:
// `<table>$<constraint>`.
func ConstraintName(maxLen int, tableDeclName, constraintDeclName string) string {
	return Make(maxLen, tableDeclName, constraintDeclName)
}

// FieldName derives a field's physical name from its dotted path of
// enclosing fieldset names down to and including the field itself.
func FieldName(maxLen int, fieldPath []string) string {
	return Make(maxLen, fieldPath...)
}

// ForeignKeyName derives a realized field's referencing foreign key
// name: `fk$<table>$<field path...>`.
func ForeignKeyName(maxLen int, tableDeclName string, fieldPath []string) string {
	parts := append([]string{"fk", tableDeclName}, fieldPath...)
	return Make(maxLen, parts...)
}
