// Package discovery walks a federation upward from a subject entity to
// build candidate configuration chains per trust anchor, and fetches
// the verified statement chains matching them. It implements the
// collaborator interfaces the resolver consumes.
package discovery

import (
	"context"
	"fmt"
	"time"

	"github.com/pilacorp/go-federation-sdk/federation/common/cache"
	"github.com/pilacorp/go-federation-sdk/federation/common/provider"
	"github.com/pilacorp/go-federation-sdk/federation/entity"
	"github.com/pilacorp/go-federation-sdk/federation/resolver"
)

// DefaultMaxPathDepth bounds how many superiors a discovery walk
// follows from the subject.
const DefaultMaxPathDepth = 8

// Discoverer builds configuration chains by following authority_hints
// and fetches subordinate statements along them.
type Discoverer struct {
	provider provider.Provider
	store    *cache.ConfigurationStore
	maxDepth int
}

// DiscovererOpt configures a Discoverer.
type DiscovererOpt func(*Discoverer)

// WithMaxPathDepth bounds the discovery walk depth.
func WithMaxPathDepth(depth int) DiscovererOpt {
	return func(d *Discoverer) {
		if depth > 0 {
			d.maxDepth = depth
		}
	}
}

// WithConfigurationStore reuses configurations cached across calls.
func WithConfigurationStore(store *cache.ConfigurationStore) DiscovererOpt {
	return func(d *Discoverer) {
		if store != nil {
			d.store = store
		}
	}
}

// NewDiscoverer creates a Discoverer over the given provider.
func NewDiscoverer(p provider.Provider, opts ...DiscovererOpt) (*Discoverer, error) {
	if p == nil {
		return nil, fmt.Errorf("provider is required")
	}

	d := &Discoverer{
		provider: p,
		store:    cache.NewConfigurationStore(),
		maxDepth: DefaultMaxPathDepth,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// FetchEntityConfigurationChains walks authority_hints upward from the
// subject and returns every path ending at one of the requested trust
// anchors. Paths through entities that cannot be fetched or whose
// configuration does not verify are skipped; cycles are cut.
func (d *Discoverer) FetchEntityConfigurationChains(ctx context.Context, subject entity.EntityID, anchors []entity.EntityID, verify resolver.VerifyFunc) ([]entity.EntityConfigurationChain, error) {
	anchorSet := make(map[entity.EntityID]bool, len(anchors))
	for _, a := range anchors {
		anchorSet[a] = true
	}

	subjectConfig, err := d.fetchVerified(ctx, subject, verify)
	if err != nil {
		return nil, fmt.Errorf("failed to obtain subject configuration: %w", err)
	}

	var chains []entity.EntityConfigurationChain
	visited := map[entity.EntityID]bool{subject: true}
	d.walk(ctx, entity.EntityConfigurationChain{subjectConfig}, anchorSet, visited, verify, &chains)
	return chains, nil
}

// walk extends the path through each reachable superior, recording the
// path whenever its tip is a requested anchor.
func (d *Discoverer) walk(ctx context.Context, path entity.EntityConfigurationChain, anchors map[entity.EntityID]bool, visited map[entity.EntityID]bool, verify resolver.VerifyFunc, chains *[]entity.EntityConfigurationChain) {
	tip := path[len(path)-1]

	if anchors[tip.Subject] {
		chain := make(entity.EntityConfigurationChain, len(path))
		copy(chain, path)
		*chains = append(*chains, chain)
		return
	}

	if len(path) > d.maxDepth {
		return
	}

	for _, hint := range tip.AuthorityHints {
		if visited[hint] {
			continue
		}
		superior, err := d.fetchVerified(ctx, hint, verify)
		if err != nil {
			// An unreachable superior only prunes this branch.
			continue
		}

		visited[hint] = true
		d.walk(ctx, append(path, superior), anchors, visited, verify, chains)
		delete(visited, hint)
	}
}

// FetchEntityStatementChain fetches and verifies the statement chain of
// a configuration chain: one subordinate statement per hop plus the
// trust anchor's self-issued terminal statement. A signature that does
// not verify yields an empty chain (no verifiable path).
func (d *Discoverer) FetchEntityStatementChain(ctx context.Context, configs entity.EntityConfigurationChain, verify resolver.VerifyFunc) (entity.EntityStatementChain, error) {
	if len(configs) == 0 {
		return nil, fmt.Errorf("entity configuration chain is empty")
	}

	statements := make(entity.EntityStatementChain, 0, len(configs))

	for i := 0; i+1 < len(configs); i++ {
		superior := configs[i+1]
		subordinate := configs[i].Subject

		stmt, err := d.provider.FetchSubordinateStatement(ctx, superior, subordinate)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch statement of %q about %q: %w", superior.Subject, subordinate, err)
		}
		if stmt.Issuer != superior.Subject || stmt.Subject != subordinate {
			return nil, nil
		}
		if err := verify(stmt.RawJWT, superior.JWKS); err != nil {
			return nil, nil
		}
		statements = append(statements, stmt)
	}

	// Terminal statement: the anchor's own configuration, verified
	// against its own attested keys.
	anchor := configs[len(configs)-1]
	if err := verify(anchor.RawJWT, anchor.JWKS); err != nil {
		return nil, nil
	}
	statements = append(statements, &anchor.EntityStatement)

	return statements, nil
}

// fetchVerified returns an entity's configuration from the store or the
// provider, checking its self-signature.
func (d *Discoverer) fetchVerified(ctx context.Context, id entity.EntityID, verify resolver.VerifyFunc) (*entity.EntityConfiguration, error) {
	if config, err := d.store.Get(id, time.Now()); err == nil {
		return config, nil
	}

	config, err := d.provider.FetchEntityConfiguration(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := verify(config.RawJWT, config.JWKS); err != nil {
		return nil, fmt.Errorf("entity configuration of %q does not verify: %w", id, err)
	}

	// Best effort; a full store never blocks discovery.
	_ = d.store.Put(config)
	return config, nil
}
