package domain

import "github.com/google/uuid"

// FilterCondition is the atomic unit of a filter: one property compared to
// one or two values with a single operator. Value carries single-value
// operands (for relative-date operators it holds the scalar count, with Unit
// qualifying it); Values carries set-membership operands; SecondaryValue is
// the upper bound for range operators.
type FilterCondition struct {
	ID             string     `json:"id" yaml:"id"`
	PropertyID     string     `json:"propertyId" yaml:"propertyId"`
	Operator       OperatorID `json:"operator" yaml:"operator"`
	Value          string     `json:"value,omitempty" yaml:"value,omitempty"`
	Values         []string   `json:"values,omitempty" yaml:"values,omitempty"`
	SecondaryValue string     `json:"secondaryValue,omitempty" yaml:"secondaryValue,omitempty"`
	Unit           DateUnit   `json:"unit,omitempty" yaml:"unit,omitempty"`
}

// NewFilterCondition creates a condition with a fresh id.
func NewFilterCondition(propertyID string, operator OperatorID) FilterCondition {
	return FilterCondition{
		ID:         uuid.NewString(),
		PropertyID: propertyID,
		Operator:   operator,
	}
}

// HasValue reports whether the condition carries a primary operand,
// either scalar or set-shaped.
func (c FilterCondition) HasValue() bool {
	return c.Value != "" || len(c.Values) > 0
}

// FilterGroup is a set of conditions combined with logical AND. Groups
// themselves combine with OR when a filter carries more than one.
type FilterGroup struct {
	ID         string            `json:"id" yaml:"id"`
	Conditions []FilterCondition `json:"conditions" yaml:"conditions"`
}

// NewFilterGroup creates a group with a fresh id.
func NewFilterGroup(conditions ...FilterCondition) FilterGroup {
	return FilterGroup{
		ID:         uuid.NewString(),
		Conditions: conditions,
	}
}

// QuickFilterState maps a property id to the single value its compact
// control currently holds. The operator is implied by the property type.
type QuickFilterState map[string]QuickFilterValue

// QuickFilterValue is the operand of one quick-filter slot. Set-like
// property types use Values; everything else uses Value.
type QuickFilterValue struct {
	Value  string   `json:"value,omitempty"`
	Values []string `json:"values,omitempty"`
}

// IsEmpty reports whether the slot holds no operand at all.
func (v QuickFilterValue) IsEmpty() bool {
	return v.Value == "" && len(v.Values) == 0
}

// DefaultQuickFilterSlots is how many quick-filter slots a module shows
// before the user adds more from the quick-filterable property set.
const DefaultQuickFilterSlots = 4

// QuickFilterOperator returns the operator a quick-filter slot implies for
// the given property type.
func QuickFilterOperator(t PropertyType) OperatorID {
	switch {
	case t.IsSetLike():
		return OperatorIsAnyOf
	case t == PropertyTypeText:
		return OperatorContains
	default:
		return OperatorIs
	}
}
