package resolver

import (
	"github.com/pilacorp/go-federation-sdk/federation/entity"
)

// RejectionReason classifies why a candidate chain was excluded from the
// result set.
type RejectionReason string

const (
	// ReasonVerificationFailed: the statement chain could not be
	// fetched or verified end to end.
	ReasonVerificationFailed RejectionReason = "verification_failed"

	// ReasonNoVerifiablePath: the verifier returned an empty statement
	// chain.
	ReasonNoVerifiablePath RejectionReason = "no_verifiable_path"

	// ReasonExpired: a statement in the chain is expired relative to
	// the shared resolution instant.
	ReasonExpired RejectionReason = "expired"

	// ReasonPolicyMerge: two statements contributed incompatible
	// metadata policy operators.
	ReasonPolicyMerge RejectionReason = "policy_merge"

	// ReasonCriticalOperatorUnsupported: a statement marked an unknown
	// policy operator critical.
	ReasonCriticalOperatorUnsupported RejectionReason = "critical_operator_unsupported"

	// ReasonPolicyValidation: the subject's merged metadata does not
	// satisfy the combined policy.
	ReasonPolicyValidation RejectionReason = "policy_validation"
)

// Rejection records why a candidate chain was dropped, with the
// configuration chain kept as evidence.
type Rejection struct {
	Reason         RejectionReason
	Err            error
	Configurations entity.EntityConfigurationChain
}

// CandidateResult is the tagged outcome of evaluating one candidate
// chain: exactly one of Chain and Rejection is set.
type CandidateResult struct {
	Chain     *TrustChain
	Rejection *Rejection
}

// Valid reports whether the candidate produced a trust chain.
func (r CandidateResult) Valid() bool {
	return r.Chain != nil
}
