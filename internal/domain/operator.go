package domain

// OperatorID identifies a comparison operator.
type OperatorID string

const (
	// Presence tests, available on every property type.
	OperatorIsKnown   OperatorID = "is_known"
	OperatorIsUnknown OperatorID = "is_unknown"

	// Text operators.
	OperatorContains    OperatorID = "contains"
	OperatorNotContains OperatorID = "not_contains"
	OperatorStartsWith  OperatorID = "starts_with"
	OperatorEndsWith    OperatorID = "ends_with"

	// Equality, shared by text, number, date and boolean.
	OperatorIs    OperatorID = "is"
	OperatorIsNot OperatorID = "is_not"

	// Ordering operators for number and date.
	OperatorGreaterThan        OperatorID = "greater_than"
	OperatorGreaterThanOrEqual OperatorID = "greater_than_or_equal"
	OperatorLessThan           OperatorID = "less_than"
	OperatorLessThanOrEqual    OperatorID = "less_than_or_equal"
	OperatorIsBetween          OperatorID = "is_between"

	// Date-only operators.
	OperatorIsBefore        OperatorID = "is_before"
	OperatorIsAfter         OperatorID = "is_after"
	OperatorIsLessThanNAgo  OperatorID = "is_less_than_n_ago"
	OperatorIsMoreThanNAgo  OperatorID = "is_more_than_n_ago"

	// Set-membership operators for enum, status, severity and user.
	OperatorIsAnyOf  OperatorID = "is_any_of"
	OperatorIsNoneOf OperatorID = "is_none_of"
)

// ValueArity describes how many values an operator consumes.
type ValueArity string

const (
	ArityNone ValueArity = "none"
	ArityOne  ValueArity = "one"
	ArityTwo  ValueArity = "two"
)

// DateUnit is the unit qualifier for relative-date operators.
type DateUnit string

const (
	DateUnitDay     DateUnit = "day"
	DateUnitWeek    DateUnit = "week"
	DateUnitMonth   DateUnit = "month"
	DateUnitQuarter DateUnit = "quarter"
	DateUnitYear    DateUnit = "year"
)

// DateUnits lists the accepted relative-date units.
var DateUnits = []DateUnit{DateUnitDay, DateUnitWeek, DateUnitMonth, DateUnitQuarter, DateUnitYear}

// IsValid reports whether u is an accepted relative-date unit.
func (u DateUnit) IsValid() bool {
	for _, known := range DateUnits {
		if u == known {
			return true
		}
	}
	return false
}

// Operator declares one comparison operator: which property type it applies
// to, how many values it consumes, and whether it needs a date unit.
type Operator struct {
	ID           OperatorID   `json:"id"`
	AppliesTo    PropertyType `json:"appliesTo"`
	ValueArity   ValueArity   `json:"valueArity"`
	RequiresUnit bool         `json:"requiresUnit"`
}
