// Package entity models the statements a federation is built from: the
// entity configuration an entity publishes about itself and the entity
// statements superiors issue about their immediate subordinates.
package entity

import (
	"fmt"
	"net/url"
)

// EntityID identifies a federation entity. It is the HTTPS URL under
// which the entity publishes its configuration.
type EntityID string

// Validate checks that the identifier is an absolute URL with a host.
func (id EntityID) Validate() error {
	if id == "" {
		return fmt.Errorf("entity identifier is empty")
	}

	u, err := url.Parse(string(id))
	if err != nil {
		return fmt.Errorf("invalid entity identifier %q: %w", id, err)
	}
	if !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("entity identifier %q must be an absolute URL with a host", id)
	}
	return nil
}

func (id EntityID) String() string {
	return string(id)
}

// Constraints limits what a superior permits in chains below it.
type Constraints struct {
	MaxPathLength      *int               `json:"max_path_length,omitempty"`
	NamingConstraints  *NamingConstraints `json:"naming_constraints,omitempty"`
	AllowedEntityTypes []string           `json:"allowed_entity_types,omitempty"`
}

// NamingConstraints restricts the identifiers of subordinate entities.
type NamingConstraints struct {
	Permitted []string `json:"permitted,omitempty"`
	Excluded  []string `json:"excluded,omitempty"`
}

// TrustMark is a reference to a signed trust mark carried on an entity
// configuration: the mark's identifier plus the mark JWT itself.
type TrustMark struct {
	ID           string `json:"id"`
	TrustMarkJWT string `json:"trust_mark"`
}

// TrustMarkOwner names the owner of a delegated trust mark together
// with the keys the owner delegates with.
type TrustMarkOwner struct {
	Subject EntityID `json:"sub"`
	JWKS    JWKS     `json:"jwks"`
}
