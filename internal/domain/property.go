package domain

// PropertyType represents the semantic type of a filterable property.
// It determines which operators are legal and what shape a filter value takes.
type PropertyType string

const (
	PropertyTypeText     PropertyType = "text"
	PropertyTypeNumber   PropertyType = "number"
	PropertyTypeDate     PropertyType = "date"
	PropertyTypeBoolean  PropertyType = "boolean"
	PropertyTypeEnum     PropertyType = "enum"
	PropertyTypeUser     PropertyType = "user"
	PropertyTypeStatus   PropertyType = "status"
	PropertyTypeSeverity PropertyType = "severity"
)

// PropertyTypes lists every known property type.
var PropertyTypes = []PropertyType{
	PropertyTypeText,
	PropertyTypeNumber,
	PropertyTypeDate,
	PropertyTypeBoolean,
	PropertyTypeEnum,
	PropertyTypeUser,
	PropertyTypeStatus,
	PropertyTypeSeverity,
}

// IsValid reports whether t is one of the declared property types.
func (t PropertyType) IsValid() bool {
	for _, known := range PropertyTypes {
		if t == known {
			return true
		}
	}
	return false
}

// IsSetLike reports whether values of this type are filtered against a
// discrete set of options (is_any_of / is_none_of semantics).
func (t PropertyType) IsSetLike() bool {
	switch t {
	case PropertyTypeEnum, PropertyTypeUser, PropertyTypeStatus, PropertyTypeSeverity:
		return true
	}
	return false
}

// IsOrderable reports whether values of this type have a total order,
// which is what range operators like is_between require.
func (t PropertyType) IsOrderable() bool {
	return t == PropertyTypeNumber || t == PropertyTypeDate
}

// PropertyDescriptor declares one property of an entity type: its identity,
// display label, semantic type, and which view capabilities it participates in.
// Descriptors are loaded from configuration at startup and never mutated.
type PropertyDescriptor struct {
	ID         string       `json:"id" yaml:"id"`
	Label      string       `json:"label" yaml:"label"`
	Type       PropertyType `json:"type" yaml:"type"`
	Filterable bool         `json:"filterable" yaml:"filterable"`
	Sortable   bool         `json:"sortable" yaml:"sortable"`
	Groupable  bool         `json:"groupable" yaml:"groupable"`
}
