// Package provider defines the interface for fetching federation
// statements from the network and an HTTP implementation of it. Custom
// implementations can be injected into the discovery logic.
package provider

import (
	"context"

	"github.com/pilacorp/go-federation-sdk/federation/entity"
)

// Provider fetches federation documents for an entity.
type Provider interface {
	// FetchEntityConfiguration retrieves the entity's self-signed
	// configuration from its well-known endpoint.
	FetchEntityConfiguration(ctx context.Context, id entity.EntityID) (*entity.EntityConfiguration, error)

	// FetchSubordinateStatement retrieves the statement the superior
	// issues about the subordinate from the superior's fetch endpoint.
	FetchSubordinateStatement(ctx context.Context, superior *entity.EntityConfiguration, subordinate entity.EntityID) (*entity.EntityStatement, error)
}
