package policy

import (
	"fmt"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/pilacorp/go-federation-sdk/federation/common/jsonmap"
)

// Combine folds the ordered policy contributions of a chain's
// intermediate statements into one CombinedPolicy. Entries are ordered
// from the subject's immediate superior toward the trust anchor;
// operators contributed closer to the anchor are merged into the
// accumulated operators contributed closer to the subject.
//
// Combination fails with ErrCriticalOperatorUnsupported if any entry
// marks an unknown operator critical, and with ErrPolicyMerge if two
// contributions are semantically incompatible. Unknown operators not
// marked critical are dropped.
func Combine(entries []Entry) (CombinedPolicy, error) {
	combined := make(CombinedPolicy)

	for i, entry := range entries {
		for _, name := range entry.Crit {
			if !knownOperators[name] {
				return nil, fmt.Errorf("statement %d marks operator %q critical: %w", i, name, ErrCriticalOperatorUnsupported)
			}
		}

		for _, typ := range sortedKeys(entry.Policy) {
			attrs := entry.Policy[typ]
			accAttrs, ok := combined[typ]
			if !ok {
				accAttrs = make(AttributePolicies)
				combined[typ] = accAttrs
			}

			for _, attr := range sortedKeys(attrs) {
				ops := attrs[attr]
				accOps, ok := accAttrs[attr]
				if !ok {
					accOps = make(Operators)
					accAttrs[attr] = accOps
				}

				for _, op := range sortedKeys(ops) {
					if !knownOperators[op] {
						continue
					}
					arg := ops[op]
					existing, present := accOps[op]
					if !present {
						accOps[op] = arg
						continue
					}
					merged, err := mergeOperator(op, existing, arg)
					if err != nil {
						return nil, fmt.Errorf("metadata type %q attribute %q: %w", typ, attr, err)
					}
					accOps[op] = merged
				}
			}
		}
	}

	for _, typ := range sortedKeys(combined) {
		for _, attr := range sortedKeys(combined[typ]) {
			if err := checkOperatorConsistency(combined[typ][attr]); err != nil {
				return nil, fmt.Errorf("metadata type %q attribute %q: %w", typ, attr, err)
			}
		}
	}

	return combined, nil
}

// mergeOperator combines two contributions of the same operator on the
// same attribute.
func mergeOperator(op string, a, b interface{}) (interface{}, error) {
	switch op {
	case OperatorValue, OperatorDefault:
		// Fixed and default values must agree exactly across contributors.
		if !jsonmap.Equal(a, b) {
			return nil, fmt.Errorf("operator %q set to both %v and %v: %w", op, a, b, ErrPolicyMerge)
		}
		return a, nil

	case OperatorEssential:
		// Once any statement marks the attribute essential, it stays so.
		return boolArg(a) || boolArg(b), nil

	case OperatorAdd:
		as, err := sliceArg(op, a)
		if err != nil {
			return nil, err
		}
		bs, err := sliceArg(op, b)
		if err != nil {
			return nil, err
		}
		return union(as, bs), nil

	case OperatorOneOf, OperatorSubsetOf:
		// Permitted-value sets narrow by intersection.
		as, err := sliceArg(op, a)
		if err != nil {
			return nil, err
		}
		bs, err := sliceArg(op, b)
		if err != nil {
			return nil, err
		}
		merged := intersect(as, bs)
		if len(merged) == 0 {
			return nil, fmt.Errorf("operator %q intersection of %v and %v is empty: %w", op, a, b, ErrPolicyMerge)
		}
		return merged, nil

	case OperatorSupersetOf:
		// Required-value lower bounds accumulate: the subject must
		// contain everything any contributor demands.
		as, err := sliceArg(op, a)
		if err != nil {
			return nil, err
		}
		bs, err := sliceArg(op, b)
		if err != nil {
			return nil, err
		}
		return union(as, bs), nil
	}

	return nil, fmt.Errorf("operator %q has no combination rule: %w", op, ErrPolicyMerge)
}

// checkOperatorConsistency rejects operator sets that survive pairwise
// merging but are mutually unsatisfiable, so a CombinedPolicy is
// guaranteed internally consistent.
func checkOperatorConsistency(ops Operators) error {
	_, hasOneOf := ops[OperatorOneOf]
	_, hasSubset := ops[OperatorSubsetOf]
	_, hasSuperset := ops[OperatorSupersetOf]

	// one_of governs single-valued attributes, subset_of/superset_of
	// multi-valued ones; both on one attribute is a contradiction.
	if hasOneOf && (hasSubset || hasSuperset) {
		return fmt.Errorf("one_of cannot be combined with subset_of or superset_of: %w", ErrPolicyMerge)
	}

	if value, ok := ops[OperatorValue]; ok {
		if err := checkAgainstSets(OperatorValue, value, ops); err != nil {
			return err
		}
		if add, ok := ops[OperatorAdd]; ok {
			vs, err := sliceArg(OperatorValue, value)
			if err != nil {
				return fmt.Errorf("value combined with add must be a list: %w", ErrPolicyMerge)
			}
			addVals, _ := sliceArg(OperatorAdd, add)
			if !subset(addVals, vs) {
				return fmt.Errorf("add values %v not contained in fixed value %v: %w", add, value, ErrPolicyMerge)
			}
		}
	}

	if def, ok := ops[OperatorDefault]; ok {
		if err := checkAgainstSets(OperatorDefault, def, ops); err != nil {
			return err
		}
	}

	if add, ok := ops[OperatorAdd]; ok {
		if hasOneOf {
			return fmt.Errorf("add cannot be combined with one_of: %w", ErrPolicyMerge)
		}
		if allowed, ok := ops[OperatorSubsetOf]; ok {
			addVals, err := sliceArg(OperatorAdd, add)
			if err != nil {
				return err
			}
			allowedVals, _ := sliceArg(OperatorSubsetOf, allowed)
			if !subset(addVals, allowedVals) {
				return fmt.Errorf("add values %v not permitted by subset_of %v: %w", add, allowed, ErrPolicyMerge)
			}
		}
	}

	return nil
}

// checkAgainstSets validates a value or default argument against the
// set-membership operators present on the same attribute.
func checkAgainstSets(op string, arg interface{}, ops Operators) error {
	if allowed, ok := ops[OperatorOneOf]; ok {
		allowedVals, _ := sliceArg(OperatorOneOf, allowed)
		if !member(arg, allowedVals) {
			return fmt.Errorf("%s %v not among one_of %v: %w", op, arg, allowed, ErrPolicyMerge)
		}
	}
	if allowed, ok := ops[OperatorSubsetOf]; ok {
		vs, err := sliceArg(op, arg)
		if err != nil {
			return fmt.Errorf("%s combined with subset_of must be a list: %w", op, ErrPolicyMerge)
		}
		allowedVals, _ := sliceArg(OperatorSubsetOf, allowed)
		if !subset(vs, allowedVals) {
			return fmt.Errorf("%s %v not contained in subset_of %v: %w", op, arg, allowed, ErrPolicyMerge)
		}
	}
	if required, ok := ops[OperatorSupersetOf]; ok {
		vs, err := sliceArg(op, arg)
		if err != nil {
			return fmt.Errorf("%s combined with superset_of must be a list: %w", op, ErrPolicyMerge)
		}
		requiredVals, _ := sliceArg(OperatorSupersetOf, required)
		if !subset(requiredVals, vs) {
			return fmt.Errorf("%s %v does not contain superset_of %v: %w", op, arg, required, ErrPolicyMerge)
		}
	}
	return nil
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := maps.Keys(m)
	slices.Sort(keys)
	return keys
}

// sliceArg coerces an operator argument to a list.
func sliceArg(op string, v interface{}) ([]interface{}, error) {
	switch vs := v.(type) {
	case []interface{}:
		return vs, nil
	case []string:
		out := make([]interface{}, len(vs))
		for i, s := range vs {
			out[i] = s
		}
		return out, nil
	default:
		return nil, fmt.Errorf("operator %q argument %v is not a list: %w", op, v, ErrPolicyMerge)
	}
}

func boolArg(v interface{}) bool {
	b, ok := v.(bool)
	return ok && b
}

func member(v interface{}, set []interface{}) bool {
	for _, s := range set {
		if jsonmap.Equal(v, s) {
			return true
		}
	}
	return false
}

func subset(vs, set []interface{}) bool {
	for _, v := range vs {
		if !member(v, set) {
			return false
		}
	}
	return true
}

func intersect(a, b []interface{}) []interface{} {
	out := make([]interface{}, 0, len(a))
	for _, v := range a {
		if member(v, b) {
			out = append(out, v)
		}
	}
	return out
}

func union(a, b []interface{}) []interface{} {
	out := make([]interface{}, 0, len(a)+len(b))
	out = append(out, a...)
	for _, v := range b {
		if !member(v, out) {
			out = append(out, v)
		}
	}
	return out
}
