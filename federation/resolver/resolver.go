// Package resolver assembles trust chains: it judges candidate chains
// of entity configurations against temporal validity and the combined
// metadata policy of their intermediate authorities, and produces the
// subject's resolved metadata per surviving chain.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	fedjwt "github.com/pilacorp/go-federation-sdk/federation/common/jwt"
	"github.com/pilacorp/go-federation-sdk/federation/entity"
	"github.com/pilacorp/go-federation-sdk/federation/metadata"
	"github.com/pilacorp/go-federation-sdk/federation/policy"
)

// ErrInvariantViolation reports a collaborator contract breach, such as
// a discovery collaborator returning an empty configuration chain. It is
// the only per-candidate condition that aborts a resolution.
var ErrInvariantViolation = errors.New("collaborator contract violated")

// VerifyFunc is the verification capability: it checks a signed
// statement against its purported signer's key set. It is supplied once
// by the top-level caller and threaded through unchanged.
type VerifyFunc func(token string, keys entity.JWKS) error

// ChainDiscovery fetches candidate configuration chains from the
// subject to the requested trust anchors. Every returned chain starts
// with the subject's own configuration and ends with an anchor's own
// configuration; chains are never empty.
type ChainDiscovery interface {
	FetchEntityConfigurationChains(ctx context.Context, subject entity.EntityID, anchors []entity.EntityID, verify VerifyFunc) ([]entity.EntityConfigurationChain, error)
}

// StatementVerifier fetches and verifies the statement chain matching a
// configuration chain. An empty result means no verifiable path exists.
type StatementVerifier interface {
	FetchEntityStatementChain(ctx context.Context, chain entity.EntityConfigurationChain, verify VerifyFunc) (entity.EntityStatementChain, error)
}

// Resolver resolves trust chains from a subject to a set of trust
// anchors.
type Resolver struct {
	discovery   ChainDiscovery
	verifier    StatementVerifier
	verify      VerifyFunc
	parallelism int
}

// ResolverOpt configures a Resolver.
type ResolverOpt func(*Resolver)

// WithVerifyFunc replaces the default JWKS-based verification
// capability.
func WithVerifyFunc(fn VerifyFunc) ResolverOpt {
	return func(r *Resolver) {
		r.verify = fn
	}
}

// WithParallelism bounds how many candidate chains are evaluated
// concurrently.
func WithParallelism(n int) ResolverOpt {
	return func(r *Resolver) {
		if n > 0 {
			r.parallelism = n
		}
	}
}

// New creates a Resolver over the given collaborators.
func New(discovery ChainDiscovery, verifier StatementVerifier, opts ...ResolverOpt) (*Resolver, error) {
	if discovery == nil {
		return nil, fmt.Errorf("chain discovery is required")
	}
	if verifier == nil {
		return nil, fmt.Errorf("statement verifier is required")
	}

	r := &Resolver{
		discovery:   discovery,
		verifier:    verifier,
		verify:      fedjwt.VerifyWithJWKS,
		parallelism: 4,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Resolve returns the valid trust chains reachable from the subject,
// zero or more per requested anchor. Invalid candidates are dropped
// silently; use ResolveDetailed for the per-candidate outcomes.
func (r *Resolver) Resolve(ctx context.Context, subject entity.EntityID, anchors []entity.EntityID) ([]TrustChain, error) {
	results, err := r.ResolveDetailed(ctx, subject, anchors)
	if err != nil {
		return nil, err
	}

	chains := make([]TrustChain, 0, len(results))
	for _, res := range results {
		if res.Valid() {
			chains = append(chains, *res.Chain)
		}
	}
	return chains, nil
}

// ResolveDetailed evaluates every candidate chain and returns one
// tagged result per candidate. All temporal checks share a single
// instant captured at call start. Candidates are evaluated
// concurrently; a collaborator failure on one candidate never aborts
// the others. Only a collaborator contract breach
// (ErrInvariantViolation) fails the whole call.
func (r *Resolver) ResolveDetailed(ctx context.Context, subject entity.EntityID, anchors []entity.EntityID) ([]CandidateResult, error) {
	if err := subject.Validate(); err != nil {
		return nil, fmt.Errorf("invalid subject: %w", err)
	}
	if len(anchors) == 0 {
		return nil, fmt.Errorf("at least one trust anchor is required")
	}
	for _, anchor := range anchors {
		if err := anchor.Validate(); err != nil {
			return nil, fmt.Errorf("invalid trust anchor: %w", err)
		}
	}

	now := time.Now()

	candidates, err := r.discovery.FetchEntityConfigurationChains(ctx, subject, anchors, r.verify)
	if err != nil {
		return nil, fmt.Errorf("chain discovery failed: %w", err)
	}

	results := make([]CandidateResult, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.parallelism)
	for i, candidate := range candidates {
		g.Go(func() error {
			res, err := r.evaluate(gctx, now, candidate)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

// evaluate judges one candidate configuration chain. It returns an
// error only for contract breaches; every data-quality failure becomes
// a Rejection.
func (r *Resolver) evaluate(ctx context.Context, now time.Time, configs entity.EntityConfigurationChain) (CandidateResult, error) {
	subjectConfig, err := configs.Subject()
	if err != nil {
		return CandidateResult{}, fmt.Errorf("%w: %v", ErrInvariantViolation, err)
	}

	statements, err := r.verifier.FetchEntityStatementChain(ctx, configs, r.verify)
	if err != nil {
		return rejected(configs, ReasonVerificationFailed, err), nil
	}
	if len(statements) == 0 {
		return rejected(configs, ReasonNoVerifiablePath, nil), nil
	}

	if statements.ExpiredAt(now) {
		return rejected(configs, ReasonExpired, fmt.Errorf("statement chain contains a statement expired at %s", now.Format(time.RFC3339))), nil
	}

	// Single-party case: the subject is itself the trust anchor, so
	// there is no policy to apply and the subject's own configuration
	// doubles as the anchor configuration.
	if len(statements) == 1 {
		resolved, err := subjectConfig.Metadata.Clone()
		if err != nil {
			return CandidateResult{}, fmt.Errorf("failed to copy subject metadata: %w", err)
		}
		return CandidateResult{Chain: &TrustChain{
			Statements:       statements,
			Subject:          subjectConfig,
			ResolvedMetadata: resolved,
			TrustAnchor:      subjectConfig,
		}}, nil
	}

	// The trust anchor's self-issued terminal statement carries no
	// policy over the subject and is excluded from combination.
	intermediates := statements.Intermediates()
	entries := make([]policy.Entry, len(intermediates))
	for i, stmt := range intermediates {
		entries[i] = stmt.PolicyEntry()
	}

	combined, err := policy.Combine(entries)
	if err != nil {
		reason := ReasonPolicyMerge
		if errors.Is(err, policy.ErrCriticalOperatorUnsupported) {
			reason = ReasonCriticalOperatorUnsupported
		}
		return rejected(configs, reason, err), nil
	}

	merged, err := metadata.Merge(subjectConfig.Metadata, intermediates[0].Metadata)
	if err != nil {
		return CandidateResult{}, fmt.Errorf("failed to merge subject metadata: %w", err)
	}

	resolved, err := policy.Apply(combined, merged)
	if err != nil {
		return rejected(configs, ReasonPolicyValidation, err), nil
	}

	anchorConfig, err := configs.TrustAnchor()
	if err != nil {
		return CandidateResult{}, fmt.Errorf("%w: %v", ErrInvariantViolation, err)
	}

	return CandidateResult{Chain: &TrustChain{
		Statements:       statements,
		Subject:          subjectConfig,
		ResolvedMetadata: resolved,
		TrustAnchor:      anchorConfig,
	}}, nil
}

func rejected(configs entity.EntityConfigurationChain, reason RejectionReason, err error) CandidateResult {
	return CandidateResult{Rejection: &Rejection{
		Reason:         reason,
		Err:            err,
		Configurations: configs,
	}}
}
