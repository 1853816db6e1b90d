package domain

// PredicateKind tags the nodes of a compiled predicate tree.
type PredicateKind string

const (
	PredicateAnd        PredicateKind = "and"
	PredicateOr         PredicateKind = "or"
	PredicateComparison PredicateKind = "comparison"
	// PredicateMatchAll is the neutral predicate produced when no filters
	// survive compilation; executors treat it as "no WHERE clause".
	PredicateMatchAll PredicateKind = "match_all"
)

// Comparison is a leaf predicate: one property tested with one operator.
// Relative-date comparisons stay symbolic (count + unit); resolving "now"
// is the executor's concern so compilation stays pure.
type Comparison struct {
	PropertyID     string       `json:"propertyId"`
	PropertyType   PropertyType `json:"propertyType"`
	Operator       OperatorID   `json:"operator"`
	Value          string       `json:"value,omitempty"`
	Values         []string     `json:"values,omitempty"`
	SecondaryValue string       `json:"secondaryValue,omitempty"`
	Unit           DateUnit     `json:"unit,omitempty"`
}

// Predicate is the compiled filter tree handed to the external data-access
// layer. The tree is at most three levels deep: an AND of the quick-filter
// comparisons with an OR of per-group ANDs.
type Predicate struct {
	Kind       PredicateKind `json:"kind"`
	Operands   []Predicate   `json:"operands,omitempty"`
	Comparison *Comparison   `json:"comparison,omitempty"`
}

// MatchAll returns the neutral predicate.
func MatchAll() Predicate {
	return Predicate{Kind: PredicateMatchAll}
}

// NewComparison wraps a comparison leaf into a predicate node.
func NewComparison(c Comparison) Predicate {
	return Predicate{Kind: PredicateComparison, Comparison: &c}
}

// And combines predicates conjunctively, flattening out neutral operands.
// Zero surviving operands yield MatchAll; one is returned unwrapped.
func And(operands ...Predicate) Predicate {
	return combine(PredicateAnd, operands)
}

// Or combines predicates disjunctively with the same normalization as And.
func Or(operands ...Predicate) Predicate {
	return combine(PredicateOr, operands)
}

func combine(kind PredicateKind, operands []Predicate) Predicate {
	kept := make([]Predicate, 0, len(operands))
	for _, op := range operands {
		if op.Kind == PredicateMatchAll {
			continue
		}
		kept = append(kept, op)
	}
	switch len(kept) {
	case 0:
		return MatchAll()
	case 1:
		return kept[0]
	}
	return Predicate{Kind: kind, Operands: kept}
}

// IsMatchAll reports whether the predicate filters nothing out.
func (p Predicate) IsMatchAll() bool {
	return p.Kind == PredicateMatchAll
}

// Sort captures the ordering attached to a compiled query. Order defaults
// to descending when the view does not say otherwise.
type Sort struct {
	By    string    `json:"by,omitempty"`
	Order SortOrder `json:"order"`
}

// CompiledQuery is the full output of filter compilation: the predicate
// tree, the sort, and the property ids of any conditions that were dropped
// as stale or malformed.
type CompiledQuery struct {
	Predicate      Predicate `json:"predicate"`
	Sort           Sort      `json:"sort"`
	InvalidFilters []string  `json:"invalidFilters"`
}
