package ast

// Property is a named list of values belonging to an enclosing
// declaration (spec.md §3). A handful of names are reserved with
// specific compiler-understood semantics; see ReservedProperties.
type Property struct {
	Name   string
	Values []Value
	Pos    Pos
}

// ReqLevel is the value domain of the `reqlevel` property.
type ReqLevel string

const (
	ReqLevelRequired ReqLevel = "required"
	ReqLevelDesired  ReqLevel = "desired"
	ReqLevelOptional ReqLevel = "optional"
)

// RefAction is the value domain of `ondelete`/`onupdate`.
type RefAction string

const (
	RefActionCascade  RefAction = "cascade"
	RefActionSetNull  RefAction = "setnull"
	RefActionNoAction RefAction = "noaction"
)

// ReservedProperties is the set of property names with compiler-defined
// semantics (spec.md §3). A declaration may not use one of these names
// for an ordinary sub-item unless it is itself a property (phase 1(d)).
var ReservedProperties = map[string]bool{
	"ancestors":  true,
	"implements": true,
	"references": true,
	"fields":     true,
	"unique":     true,
	"cluster":    true,
	"type":       true,
	"size":       true,
	"precision":  true,
	"notnull":    true,
	"immutable":  true,
	"default":    true,
	"reqlevel":   true,
	"ondelete":   true,
	"onupdate":   true,
	"guid":       true,
	"language":   true,
	"check":      true,
}
