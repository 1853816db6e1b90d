package registry

import (
	"github.com/nick-gallo-ethico/risk-intelligence-platform-sub015/internal/domain"
)

// OperatorRegistry maps each property type to its legal comparison
// operators. The catalogue is static: adding a filterable property only
// requires declaring its property type, never new comparison logic.
type OperatorRegistry struct {
	byType map[domain.PropertyType][]domain.Operator
	byID   map[domain.OperatorID]domain.Operator
}

func op(id domain.OperatorID, t domain.PropertyType, arity domain.ValueArity) domain.Operator {
	return domain.Operator{ID: id, AppliesTo: t, ValueArity: arity}
}

func unitOp(id domain.OperatorID, t domain.PropertyType) domain.Operator {
	return domain.Operator{ID: id, AppliesTo: t, ValueArity: domain.ArityOne, RequiresUnit: true}
}

// NewOperatorRegistry builds the static operator catalogue.
func NewOperatorRegistry() *OperatorRegistry {
	r := &OperatorRegistry{
		byType: make(map[domain.PropertyType][]domain.Operator),
		byID:   make(map[domain.OperatorID]domain.Operator),
	}

	for _, t := range domain.PropertyTypes {
		// Presence tests are universal and take no value.
		r.add(op(domain.OperatorIsKnown, t, domain.ArityNone))
		r.add(op(domain.OperatorIsUnknown, t, domain.ArityNone))

		switch {
		case t == domain.PropertyTypeText:
			r.add(op(domain.OperatorContains, t, domain.ArityOne))
			r.add(op(domain.OperatorNotContains, t, domain.ArityOne))
			r.add(op(domain.OperatorStartsWith, t, domain.ArityOne))
			r.add(op(domain.OperatorEndsWith, t, domain.ArityOne))
			r.add(op(domain.OperatorIs, t, domain.ArityOne))
			r.add(op(domain.OperatorIsNot, t, domain.ArityOne))
		case t == domain.PropertyTypeNumber:
			r.add(op(domain.OperatorIs, t, domain.ArityOne))
			r.add(op(domain.OperatorIsNot, t, domain.ArityOne))
			r.add(op(domain.OperatorGreaterThan, t, domain.ArityOne))
			r.add(op(domain.OperatorGreaterThanOrEqual, t, domain.ArityOne))
			r.add(op(domain.OperatorLessThan, t, domain.ArityOne))
			r.add(op(domain.OperatorLessThanOrEqual, t, domain.ArityOne))
			r.add(op(domain.OperatorIsBetween, t, domain.ArityTwo))
		case t == domain.PropertyTypeDate:
			r.add(op(domain.OperatorIs, t, domain.ArityOne))
			r.add(op(domain.OperatorIsBefore, t, domain.ArityOne))
			r.add(op(domain.OperatorIsAfter, t, domain.ArityOne))
			r.add(op(domain.OperatorIsBetween, t, domain.ArityTwo))
			r.add(unitOp(domain.OperatorIsLessThanNAgo, t))
			r.add(unitOp(domain.OperatorIsMoreThanNAgo, t))
		case t == domain.PropertyTypeBoolean:
			r.add(op(domain.OperatorIs, t, domain.ArityOne))
		case t.IsSetLike():
			r.add(op(domain.OperatorIs, t, domain.ArityOne))
			r.add(op(domain.OperatorIsNot, t, domain.ArityOne))
			r.add(op(domain.OperatorIsAnyOf, t, domain.ArityOne))
			r.add(op(domain.OperatorIsNoneOf, t, domain.ArityOne))
		}
	}

	return r
}

func (r *OperatorRegistry) add(o domain.Operator) {
	r.byType[o.AppliesTo] = append(r.byType[o.AppliesTo], o)
	// Arity and unit requirement are identical across the types an
	// operator id applies to, so keeping one entry per id is safe.
	if _, exists := r.byID[o.ID]; !exists {
		r.byID[o.ID] = o
	}
}

// OperatorsFor returns the legal operators for a property type.
func (r *OperatorRegistry) OperatorsFor(t domain.PropertyType) []domain.Operator {
	ops := r.byType[t]
	out := make([]domain.Operator, len(ops))
	copy(out, ops)
	return out
}

// IsValid reports whether the operator is legal for the property type.
func (r *OperatorRegistry) IsValid(t domain.PropertyType, id domain.OperatorID) bool {
	for _, o := range r.byType[t] {
		if o.ID == id {
			return true
		}
	}
	return false
}

// ArityOf returns how many values the operator consumes. Unknown operators
// report ArityNone and false.
func (r *OperatorRegistry) ArityOf(id domain.OperatorID) (domain.ValueArity, bool) {
	o, ok := r.byID[id]
	if !ok {
		return domain.ArityNone, false
	}
	return o.ValueArity, true
}

// RequiresUnit reports whether the operator needs a relative-date unit.
func (r *OperatorRegistry) RequiresUnit(id domain.OperatorID) bool {
	o, ok := r.byID[id]
	return ok && o.RequiresUnit
}
