package policy

import (
	"fmt"

	"github.com/pilacorp/go-federation-sdk/federation/common/jsonmap"
	"github.com/pilacorp/go-federation-sdk/federation/metadata"
)

// Apply enforces a combined policy on merged metadata and returns the
// resolved metadata. Attributes not mentioned by the policy pass through
// unchanged. On any violation it returns an error wrapping
// ErrPolicyValidation and no partial result.
func Apply(combined CombinedPolicy, md metadata.Metadata) (metadata.Metadata, error) {
	resolved, err := md.Clone()
	if err != nil {
		return nil, fmt.Errorf("failed to copy metadata: %w", err)
	}
	if resolved == nil {
		resolved = make(metadata.Metadata)
	}

	for _, typ := range sortedKeys(combined) {
		doc := resolved[typ]
		if doc == nil {
			doc = make(jsonmap.JSONMap)
		}

		for _, attr := range sortedKeys(combined[typ]) {
			if err := applyAttribute(doc, attr, combined[typ][attr]); err != nil {
				return nil, fmt.Errorf("metadata type %q attribute %q: %w", typ, attr, err)
			}
		}

		if len(doc) > 0 {
			resolved[typ] = doc
		}
	}

	return resolved, nil
}

// applyAttribute runs one attribute's operators against the metadata
// document in place: value forces, add accumulates, default fills an
// absence, the set operators and essential validate the outcome.
func applyAttribute(doc jsonmap.JSONMap, attr string, ops Operators) error {
	if value, ok := ops[OperatorValue]; ok {
		doc[attr] = value
	}

	if add, ok := ops[OperatorAdd]; ok {
		addVals, err := sliceArg(OperatorAdd, add)
		if err != nil {
			return fmt.Errorf("%v: %w", err, ErrPolicyValidation)
		}
		current, present := doc[attr]
		if !present {
			doc[attr] = addVals
		} else {
			currentVals, err := sliceArg(OperatorAdd, current)
			if err != nil {
				return fmt.Errorf("add applied to non-list value %v: %w", current, ErrPolicyValidation)
			}
			doc[attr] = union(currentVals, addVals)
		}
	}

	if def, ok := ops[OperatorDefault]; ok {
		if _, present := doc[attr]; !present {
			doc[attr] = def
		}
	}

	value, present := doc[attr]

	if allowed, ok := ops[OperatorOneOf]; ok && present {
		allowedVals, _ := sliceArg(OperatorOneOf, allowed)
		if !member(value, allowedVals) {
			return fmt.Errorf("value %v not among permitted values %v: %w", value, allowed, ErrPolicyValidation)
		}
	}

	if allowed, ok := ops[OperatorSubsetOf]; ok && present {
		vals, err := sliceArg(OperatorSubsetOf, value)
		if err != nil {
			return fmt.Errorf("subset_of applied to non-list value %v: %w", value, ErrPolicyValidation)
		}
		allowedVals, _ := sliceArg(OperatorSubsetOf, allowed)
		if !subset(vals, allowedVals) {
			return fmt.Errorf("values %v not contained in permitted set %v: %w", value, allowed, ErrPolicyValidation)
		}
	}

	if required, ok := ops[OperatorSupersetOf]; ok && present {
		vals, err := sliceArg(OperatorSupersetOf, value)
		if err != nil {
			return fmt.Errorf("superset_of applied to non-list value %v: %w", value, ErrPolicyValidation)
		}
		requiredVals, _ := sliceArg(OperatorSupersetOf, required)
		if !subset(requiredVals, vals) {
			return fmt.Errorf("values %v do not contain required values %v: %w", value, required, ErrPolicyValidation)
		}
	}

	if boolArg(ops[OperatorEssential]) && !present {
		return fmt.Errorf("attribute is essential but absent: %w", ErrPolicyValidation)
	}

	return nil
}
