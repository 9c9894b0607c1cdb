package entity

import (
	"encoding/json"
	"fmt"
)

// JWK is a single JSON Web Key as carried in a statement's key set.
type JWK struct {
	Kty string `json:"kty"`
	Kid string `json:"kid,omitempty"`
	Use string `json:"use,omitempty"`
	Alg string `json:"alg,omitempty"`
	Crv string `json:"crv,omitempty"`
	X   string `json:"x,omitempty"`
	Y   string `json:"y,omitempty"`
	N   string `json:"n,omitempty"`
	E   string `json:"e,omitempty"`
}

// JWKS is a JSON Web Key set. Key identifiers are unique within one set.
type JWKS struct {
	Keys []JWK `json:"keys"`
}

// UnmarshalJSON parses the key set and enforces kid uniqueness.
func (s *JWKS) UnmarshalJSON(data []byte) error {
	type alias JWKS
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return fmt.Errorf("failed to unmarshal JWKS: %w", err)
	}

	seen := make(map[string]bool, len(a.Keys))
	for _, k := range a.Keys {
		if k.Kid == "" {
			continue
		}
		if seen[k.Kid] {
			return fmt.Errorf("duplicate key identifier %q in JWKS", k.Kid)
		}
		seen[k.Kid] = true
	}

	*s = JWKS(a)
	return nil
}

// KeyByID returns the key with the given identifier.
func (s JWKS) KeyByID(kid string) (JWK, bool) {
	for _, k := range s.Keys {
		if k.Kid == kid {
			return k, true
		}
	}
	return JWK{}, false
}

// IsEmpty reports whether the set carries no keys.
func (s JWKS) IsEmpty() bool {
	return len(s.Keys) == 0
}
