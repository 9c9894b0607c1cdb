package resolver

import (
	"github.com/pilacorp/go-federation-sdk/federation/entity"
	"github.com/pilacorp/go-federation-sdk/federation/metadata"
)

// TrustChain is a verified, temporally valid path from a subject to a
// trust anchor together with the subject's policy-resolved metadata. It
// is immutable once produced and owned by the caller.
type TrustChain struct {
	// Statements is the verified statement chain, ordered from the
	// subject's immediate superior to the trust anchor's terminal
	// statement.
	Statements entity.EntityStatementChain

	// Subject is the subject's raw, pre-policy configuration.
	Subject *entity.EntityConfiguration

	// ResolvedMetadata is the subject's metadata after superior merge
	// and policy application.
	ResolvedMetadata metadata.Metadata

	// TrustAnchor is the anchor's own configuration.
	TrustAnchor *entity.EntityConfiguration
}
