package compiler

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nick-gallo-ethico/risk-intelligence-platform-sub015/internal/domain"
	"github.com/nick-gallo-ethico/risk-intelligence-platform-sub015/internal/registry"
)

// ConditionFault classifies why a condition was rejected. Stale conditions
// reference schema that no longer exists; malformed conditions carry a
// value shape the operator cannot consume. Both degrade to "this filter is
// ignored" so a saved view keeps loading as the schema evolves underneath it.
type ConditionFault string

const (
	FaultStale     ConditionFault = "stale"
	FaultMalformed ConditionFault = "malformed"
)

// ConditionError is the typed rejection returned by Validate. It is a
// value, never a panic: saved filters are user data and must not be able
// to crash compilation.
type ConditionError struct {
	Fault      ConditionFault
	PropertyID string
	Reason     string
}

func (e *ConditionError) Error() string {
	return fmt.Sprintf("%s filter on %q: %s", e.Fault, e.PropertyID, e.Reason)
}

func staleErr(propertyID, format string, args ...any) *ConditionError {
	return &ConditionError{Fault: FaultStale, PropertyID: propertyID, Reason: fmt.Sprintf(format, args...)}
}

func malformedErr(propertyID, format string, args ...any) *ConditionError {
	return &ConditionError{Fault: FaultMalformed, PropertyID: propertyID, Reason: fmt.Sprintf(format, args...)}
}

// Validator checks filter conditions against the property and operator
// registries. It holds only read-only state and is safe for concurrent use.
type Validator struct {
	properties *registry.PropertyRegistry
	operators  *registry.OperatorRegistry
}

// NewValidator builds a validator over the given registries.
func NewValidator(properties *registry.PropertyRegistry, operators *registry.OperatorRegistry) *Validator {
	return &Validator{properties: properties, operators: operators}
}

// Validate checks one condition for the given entity type and returns the
// normalized condition on success. Reversed is_between bounds are swapped
// rather than rejected. The returned error is nil or a *ConditionError.
func (v *Validator) Validate(entityType string, cond domain.FilterCondition) (domain.FilterCondition, *ConditionError) {
	descriptor, ok := v.properties.Lookup(entityType, cond.PropertyID)
	if !ok {
		return cond, staleErr(cond.PropertyID, "property does not exist for entity type %s", entityType)
	}
	if !descriptor.Filterable {
		return cond, staleErr(cond.PropertyID, "property is not filterable")
	}
	if !v.operators.IsValid(descriptor.Type, cond.Operator) {
		return cond, staleErr(cond.PropertyID, "operator %s is not valid for %s properties", cond.Operator, descriptor.Type)
	}

	arity, _ := v.operators.ArityOf(cond.Operator)
	switch arity {
	case domain.ArityNone:
		if cond.HasValue() || cond.SecondaryValue != "" {
			return cond, malformedErr(cond.PropertyID, "operator %s takes no value", cond.Operator)
		}
	case domain.ArityOne:
		if !cond.HasValue() {
			return cond, malformedErr(cond.PropertyID, "operator %s requires a value", cond.Operator)
		}
		if cond.SecondaryValue != "" {
			return cond, malformedErr(cond.PropertyID, "operator %s takes a single value", cond.Operator)
		}
	case domain.ArityTwo:
		if cond.Value == "" || cond.SecondaryValue == "" {
			return cond, malformedErr(cond.PropertyID, "operator %s requires two values", cond.Operator)
		}
	}

	if v.operators.RequiresUnit(cond.Operator) {
		if !cond.Unit.IsValid() {
			return cond, malformedErr(cond.PropertyID, "operator %s requires a unit of %v", cond.Operator, domain.DateUnits)
		}
	} else if cond.Unit != "" {
		return cond, malformedErr(cond.PropertyID, "operator %s does not take a unit", cond.Operator)
	}

	return v.validateValueShape(descriptor, cond)
}

// validateValueShape checks operand values against the property's semantic
// type and normalizes range bounds.
func (v *Validator) validateValueShape(descriptor domain.PropertyDescriptor, cond domain.FilterCondition) (domain.FilterCondition, *ConditionError) {
	setOperator := cond.Operator == domain.OperatorIsAnyOf || cond.Operator == domain.OperatorIsNoneOf
	if setOperator && len(cond.Values) == 0 {
		return cond, malformedErr(cond.PropertyID, "operator %s requires a value set", cond.Operator)
	}
	if !setOperator && len(cond.Values) > 0 {
		return cond, malformedErr(cond.PropertyID, "operator %s takes a scalar value, not a set", cond.Operator)
	}

	if v.operators.RequiresUnit(cond.Operator) {
		n, err := strconv.Atoi(cond.Value)
		if err != nil || n <= 0 {
			return cond, malformedErr(cond.PropertyID, "relative date count %q must be a positive integer", cond.Value)
		}
		return cond, nil
	}

	switch descriptor.Type {
	case domain.PropertyTypeNumber:
		return normalizeNumberRange(cond)
	case domain.PropertyTypeDate:
		return normalizeDateRange(cond)
	case domain.PropertyTypeBoolean:
		if cond.Value != "" {
			if _, err := strconv.ParseBool(cond.Value); err != nil {
				return cond, malformedErr(cond.PropertyID, "boolean value %q is not true or false", cond.Value)
			}
		}
	}
	return cond, nil
}

func normalizeNumberRange(cond domain.FilterCondition) (domain.FilterCondition, *ConditionError) {
	var value float64
	if cond.Value != "" {
		parsed, err := strconv.ParseFloat(cond.Value, 64)
		if err != nil {
			return cond, malformedErr(cond.PropertyID, "number value %q is not numeric", cond.Value)
		}
		value = parsed
	}
	if cond.SecondaryValue == "" {
		return cond, nil
	}
	secondary, err := strconv.ParseFloat(cond.SecondaryValue, 64)
	if err != nil {
		return cond, malformedErr(cond.PropertyID, "number value %q is not numeric", cond.SecondaryValue)
	}
	// Reversed bounds are user input, not an error: swap into a valid range.
	if value > secondary {
		cond.Value, cond.SecondaryValue = cond.SecondaryValue, cond.Value
	}
	return cond, nil
}

func normalizeDateRange(cond domain.FilterCondition) (domain.FilterCondition, *ConditionError) {
	var value time.Time
	if cond.Value != "" {
		parsed, err := parseDate(cond.Value)
		if err != nil {
			return cond, malformedErr(cond.PropertyID, "date value %q is not a date", cond.Value)
		}
		value = parsed
	}
	if cond.SecondaryValue == "" {
		return cond, nil
	}
	secondary, err := parseDate(cond.SecondaryValue)
	if err != nil {
		return cond, malformedErr(cond.PropertyID, "date value %q is not a date", cond.SecondaryValue)
	}
	if value.After(secondary) {
		cond.Value, cond.SecondaryValue = cond.SecondaryValue, cond.Value
	}
	return cond, nil
}

// parseDate accepts RFC 3339 timestamps and plain calendar dates.
func parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", value)
}
