package compiler

import (
	"sort"

	"github.com/nick-gallo-ethico/risk-intelligence-platform-sub015/internal/domain"
	"github.com/nick-gallo-ethico/risk-intelligence-platform-sub015/internal/registry"
)

// Compiler turns quick filters and advanced filter groups into one
// executable predicate tree. It is pure: identical inputs always yield a
// structurally identical predicate and the same invalidFilters set, which
// keeps it testable without a data store and safe to share across requests.
type Compiler struct {
	properties *registry.PropertyRegistry
	operators  *registry.OperatorRegistry
	validator  *Validator
}

// New builds a compiler over the given registries.
func New(properties *registry.PropertyRegistry, operators *registry.OperatorRegistry) *Compiler {
	return &Compiler{
		properties: properties,
		operators:  operators,
		validator:  NewValidator(properties, operators),
	}
}

// Validator exposes the compiler's condition validator for callers that
// re-check stored conditions on their own (the saved view store's apply).
func (c *Compiler) Validator() *Validator {
	return c.validator
}

// Compile validates and merges the filter layers for an entity type.
// Conditions within a group AND together, groups OR together, and quick
// filters AND on top so they can only narrow the advanced result. Stale and
// malformed conditions are dropped and reported, never fatal.
func (c *Compiler) Compile(entityType string, quick domain.QuickFilterState, groups []domain.FilterGroup, sortBy string, sortOrder domain.SortOrder) domain.CompiledQuery {
	invalid := make(map[string]struct{})

	groupPredicates := make([]domain.Predicate, 0, len(groups))
	for _, group := range groups {
		conditions := make([]domain.Predicate, 0, len(group.Conditions))
		for _, cond := range group.Conditions {
			normalized, err := c.validator.Validate(entityType, cond)
			if err != nil {
				invalid[cond.PropertyID] = struct{}{}
				continue
			}
			conditions = append(conditions, c.comparison(entityType, normalized))
		}
		// A group whose conditions were all dropped matches everything,
		// which would erase the other groups under OR. Skip it instead.
		if len(conditions) > 0 {
			groupPredicates = append(groupPredicates, domain.And(conditions...))
		}
	}
	advanced := domain.Or(groupPredicates...)

	layers := []domain.Predicate{advanced}
	for _, propertyID := range sortedKeys(quick) {
		value := quick[propertyID]
		if value.IsEmpty() {
			continue
		}
		cond := c.quickCondition(entityType, propertyID, value)
		normalized, err := c.validator.Validate(entityType, cond)
		if err != nil {
			invalid[propertyID] = struct{}{}
			continue
		}
		layers = append(layers, c.comparison(entityType, normalized))
	}

	return domain.CompiledQuery{
		Predicate:      domain.And(layers...),
		Sort:           c.sort(entityType, sortBy, sortOrder),
		InvalidFilters: sortedSet(invalid),
	}
}

// quickCondition translates a quick-filter slot into a full condition with
// the operator the property type implies.
func (c *Compiler) quickCondition(entityType, propertyID string, value domain.QuickFilterValue) domain.FilterCondition {
	operator := domain.OperatorIs
	if descriptor, ok := c.properties.Lookup(entityType, propertyID); ok {
		operator = domain.QuickFilterOperator(descriptor.Type)
	}
	return domain.FilterCondition{
		ID:         "quick:" + propertyID,
		PropertyID: propertyID,
		Operator:   operator,
		Value:      value.Value,
		Values:     value.Values,
	}
}

func (c *Compiler) comparison(entityType string, cond domain.FilterCondition) domain.Predicate {
	descriptor, _ := c.properties.Lookup(entityType, cond.PropertyID)
	return domain.NewComparison(domain.Comparison{
		PropertyID:     cond.PropertyID,
		PropertyType:   descriptor.Type,
		Operator:       cond.Operator,
		Value:          cond.Value,
		Values:         cond.Values,
		SecondaryValue: cond.SecondaryValue,
		Unit:           cond.Unit,
	})
}

// sort validates the requested ordering against the catalogue. A sort on a
// property that is gone or not sortable is dropped the same way a stale
// filter is, and the direction defaults to descending.
func (c *Compiler) sort(entityType, sortBy string, sortOrder domain.SortOrder) domain.Sort {
	if sortBy != "" {
		descriptor, ok := c.properties.Lookup(entityType, sortBy)
		if !ok || !descriptor.Sortable {
			sortBy = ""
		}
	}
	if sortOrder != domain.SortOrderAsc {
		sortOrder = domain.SortOrderDesc
	}
	return domain.Sort{By: sortBy, Order: sortOrder}
}

func sortedKeys(state domain.QuickFilterState) []string {
	keys := make([]string, 0, len(state))
	for k := range state {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedSet(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
