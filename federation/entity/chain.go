package entity

import (
	"fmt"
	"time"
)

// EntityConfigurationChain is an ordered sequence of entity
// configurations. Index 0 is the subject's own configuration, the last
// element is a trust anchor's own configuration. A chain is never empty.
type EntityConfigurationChain []*EntityConfiguration

// Subject returns the subject's own configuration.
func (c EntityConfigurationChain) Subject() (*EntityConfiguration, error) {
	if len(c) == 0 {
		return nil, fmt.Errorf("entity configuration chain is empty")
	}
	return c[0], nil
}

// TrustAnchor returns the trust anchor's own configuration, the chain's
// terminal element.
func (c EntityConfigurationChain) TrustAnchor() (*EntityConfiguration, error) {
	if len(c) == 0 {
		return nil, fmt.Errorf("entity configuration chain is empty")
	}
	return c[len(c)-1], nil
}

// EntityStatementChain is the ordered sequence of verified statements
// describing the hops from the subject's immediate superior down to and
// including the trust anchor's self-issued terminal statement. An empty
// chain means no verifiable path exists; a chain of length one means the
// subject's direct superior is the trust anchor.
type EntityStatementChain []*EntityStatement

// ExpiredAt reports whether any statement in the chain is expired at the
// given instant. A single expired statement anywhere invalidates the
// whole chain.
func (c EntityStatementChain) ExpiredAt(now time.Time) bool {
	for _, s := range c {
		if s.ExpiredAt(now) {
			return true
		}
	}
	return false
}

// Intermediates returns the statements that contribute metadata policy:
// everything except the trust anchor's self-issued terminal statement.
func (c EntityStatementChain) Intermediates() EntityStatementChain {
	if len(c) < 2 {
		return nil
	}
	return c[:len(c)-1]
}
