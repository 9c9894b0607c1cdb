// Package policy implements the metadata policy algebra of a federation:
// folding the policies declared by every intermediate authority along a
// trust chain into one combined policy, and applying that combined
// policy to an entity's metadata.
package policy

import (
	"errors"
)

// Operator names understood by the combiner and applicator.
const (
	OperatorValue      = "value"
	OperatorAdd        = "add"
	OperatorDefault    = "default"
	OperatorEssential  = "essential"
	OperatorOneOf      = "one_of"
	OperatorSubsetOf   = "subset_of"
	OperatorSupersetOf = "superset_of"
)

// knownOperators is the complete operator set this implementation
// understands. Operators outside this set are ignored unless a statement
// marks them critical.
var knownOperators = map[string]bool{
	OperatorValue:      true,
	OperatorAdd:        true,
	OperatorDefault:    true,
	OperatorEssential:  true,
	OperatorOneOf:      true,
	OperatorSubsetOf:   true,
	OperatorSupersetOf: true,
}

// OperatorSupported reports whether the given policy operator is part of
// the implemented operator set.
func OperatorSupported(name string) bool {
	return knownOperators[name]
}

// Operators maps an operator name to its argument for one attribute.
type Operators map[string]interface{}

// AttributePolicies maps an attribute name to its operators.
type AttributePolicies map[string]Operators

// MetadataPolicy maps a metadata type to the per-attribute policies a
// superior imposes on a subordinate's metadata of that type. It is a
// value object and is never mutated after parse.
type MetadataPolicy map[string]AttributePolicies

// CombinedPolicy is the result of folding a sequence of metadata
// policies: one internally consistent operator set per metadata
// type/attribute.
type CombinedPolicy map[string]AttributePolicies

// Entry is one intermediate statement's contribution to policy
// combination: its declared policy plus the operator names it marks
// critical via metadata_policy_crit.
type Entry struct {
	Policy MetadataPolicy
	Crit   []string
}

// Error kinds for the policy algebra. Callers distinguish them with
// errors.Is so a rejected trust chain can report why it was rejected.
var (
	// ErrPolicyMerge reports that two statements contributed
	// incompatible operators for the same attribute.
	ErrPolicyMerge = errors.New("incompatible metadata policy operators")

	// ErrCriticalOperatorUnsupported reports that a statement marked a
	// policy operator critical which this implementation does not know.
	ErrCriticalOperatorUnsupported = errors.New("unsupported critical metadata policy operator")

	// ErrPolicyValidation reports that metadata does not satisfy a
	// combined policy.
	ErrPolicyValidation = errors.New("metadata does not satisfy policy")
)
