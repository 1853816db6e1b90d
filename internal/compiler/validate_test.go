package compiler

import (
	"testing"

	"github.com/nick-gallo-ethico/risk-intelligence-platform-sub015/internal/domain"
	"github.com/nick-gallo-ethico/risk-intelligence-platform-sub015/internal/registry"
)

func testRegistries() (*registry.PropertyRegistry, *registry.OperatorRegistry) {
	properties := registry.NewPropertyRegistry(map[string][]domain.PropertyDescriptor{
		"CASES": {
			{ID: "title", Label: "Title", Type: domain.PropertyTypeText, Filterable: true, Sortable: true},
			{ID: "status", Label: "Status", Type: domain.PropertyTypeStatus, Filterable: true, Sortable: true, Groupable: true},
			{ID: "severity", Label: "Severity", Type: domain.PropertyTypeSeverity, Filterable: true, Sortable: true, Groupable: true},
			{ID: "ownerId", Label: "Owner", Type: domain.PropertyTypeUser, Filterable: true, Sortable: true, Groupable: true},
			{ID: "daysOpen", Label: "Days Open", Type: domain.PropertyTypeNumber, Filterable: true, Sortable: true},
			{ID: "openedAt", Label: "Opened", Type: domain.PropertyTypeDate, Filterable: true, Sortable: true},
			{ID: "isAnonymous", Label: "Anonymous", Type: domain.PropertyTypeBoolean, Filterable: true},
			{ID: "internalScore", Label: "Internal Score", Type: domain.PropertyTypeNumber, Filterable: false, Sortable: true},
		},
	})
	return properties, registry.NewOperatorRegistry()
}

func TestValidateClassifiesStaleConditions(t *testing.T) {
	validator := NewValidator(testRegistries())

	cases := []struct {
		name string
		cond domain.FilterCondition
	}{
		{
			name: "unknown property",
			cond: domain.FilterCondition{ID: "1", PropertyID: "retiredField", Operator: domain.OperatorIs, Value: "x"},
		},
		{
			name: "unfilterable property",
			cond: domain.FilterCondition{ID: "2", PropertyID: "internalScore", Operator: domain.OperatorIs, Value: "5"},
		},
		{
			name: "operator illegal for type",
			cond: domain.FilterCondition{ID: "3", PropertyID: "status", Operator: domain.OperatorIsBetween, Value: "a", SecondaryValue: "b"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := validator.Validate("CASES", tc.cond)
			if err == nil {
				t.Fatal("expected a condition error")
			}
			if err.Fault != FaultStale {
				t.Errorf("expected stale classification, got %s (%s)", err.Fault, err.Reason)
			}
		})
	}
}

func TestValidateClassifiesMalformedConditions(t *testing.T) {
	validator := NewValidator(testRegistries())

	cases := []struct {
		name string
		cond domain.FilterCondition
	}{
		{
			name: "missing value",
			cond: domain.FilterCondition{ID: "1", PropertyID: "title", Operator: domain.OperatorContains},
		},
		{
			name: "value on presence operator",
			cond: domain.FilterCondition{ID: "2", PropertyID: "title", Operator: domain.OperatorIsKnown, Value: "x"},
		},
		{
			name: "missing secondary value",
			cond: domain.FilterCondition{ID: "3", PropertyID: "daysOpen", Operator: domain.OperatorIsBetween, Value: "10"},
		},
		{
			name: "set operator without values",
			cond: domain.FilterCondition{ID: "4", PropertyID: "status", Operator: domain.OperatorIsAnyOf, Value: "OPEN"},
		},
		{
			name: "non-numeric number value",
			cond: domain.FilterCondition{ID: "5", PropertyID: "daysOpen", Operator: domain.OperatorGreaterThan, Value: "lots"},
		},
		{
			name: "unparseable date",
			cond: domain.FilterCondition{ID: "6", PropertyID: "openedAt", Operator: domain.OperatorIsBefore, Value: "yesterday-ish"},
		},
		{
			name: "relative date without unit",
			cond: domain.FilterCondition{ID: "7", PropertyID: "openedAt", Operator: domain.OperatorIsLessThanNAgo, Value: "7"},
		},
		{
			name: "relative date with bad count",
			cond: domain.FilterCondition{ID: "8", PropertyID: "openedAt", Operator: domain.OperatorIsLessThanNAgo, Value: "-2", Unit: domain.DateUnitDay},
		},
		{
			name: "unit on plain operator",
			cond: domain.FilterCondition{ID: "9", PropertyID: "openedAt", Operator: domain.OperatorIsBefore, Value: "2025-01-01", Unit: domain.DateUnitWeek},
		},
		{
			name: "boolean with non-boolean value",
			cond: domain.FilterCondition{ID: "10", PropertyID: "isAnonymous", Operator: domain.OperatorIs, Value: "maybe"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := validator.Validate("CASES", tc.cond)
			if err == nil {
				t.Fatal("expected a condition error")
			}
			if err.Fault != FaultMalformed {
				t.Errorf("expected malformed classification, got %s (%s)", err.Fault, err.Reason)
			}
		})
	}
}

func TestValidateSwapsReversedRangeBounds(t *testing.T) {
	validator := NewValidator(testRegistries())

	numeric, err := validator.Validate("CASES", domain.FilterCondition{
		ID:             "1",
		PropertyID:     "daysOpen",
		Operator:       domain.OperatorIsBetween,
		Value:          "100",
		SecondaryValue: "50",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if numeric.Value != "50" || numeric.SecondaryValue != "100" {
		t.Errorf("expected [50,100], got [%s,%s]", numeric.Value, numeric.SecondaryValue)
	}

	dated, err := validator.Validate("CASES", domain.FilterCondition{
		ID:             "2",
		PropertyID:     "openedAt",
		Operator:       domain.OperatorIsBetween,
		Value:          "2025-06-01",
		SecondaryValue: "2025-01-01",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dated.Value != "2025-01-01" || dated.SecondaryValue != "2025-06-01" {
		t.Errorf("expected swapped date range, got [%s,%s]", dated.Value, dated.SecondaryValue)
	}
}

func TestValidateAcceptsWellFormedConditions(t *testing.T) {
	validator := NewValidator(testRegistries())

	conditions := []domain.FilterCondition{
		{ID: "1", PropertyID: "status", Operator: domain.OperatorIsAnyOf, Values: []string{"OPEN", "NEW"}},
		{ID: "2", PropertyID: "title", Operator: domain.OperatorContains, Value: "harassment"},
		{ID: "3", PropertyID: "openedAt", Operator: domain.OperatorIsLessThanNAgo, Value: "30", Unit: domain.DateUnitDay},
		{ID: "4", PropertyID: "ownerId", Operator: domain.OperatorIsUnknown},
		{ID: "5", PropertyID: "isAnonymous", Operator: domain.OperatorIs, Value: "true"},
	}
	for _, cond := range conditions {
		if _, err := validator.Validate("CASES", cond); err != nil {
			t.Errorf("condition %s should validate, got: %v", cond.ID, err)
		}
	}
}
