package entity

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pilacorp/go-federation-sdk/federation/common/jsonmap"
	"github.com/pilacorp/go-federation-sdk/federation/metadata"
	"github.com/pilacorp/go-federation-sdk/federation/policy"
)

// StatementType is the JOSE typ header value of a federation entity
// statement.
const StatementType = "entity-statement+jwt"

// EntityStatement is a signed statement a superior entity issues about
// an immediate subordinate. An entity configuration is the special case
// where issuer and subject are the same entity.
type EntityStatement struct {
	Issuer    EntityID `json:"iss"`
	Subject   EntityID `json:"sub"`
	IssuedAt  int64    `json:"iat"`
	ExpiresAt int64    `json:"exp"`
	JWKS      JWKS     `json:"jwks"`

	Metadata           metadata.Metadata         `json:"metadata,omitempty"`
	MetadataPolicy     policy.MetadataPolicy     `json:"metadata_policy,omitempty"`
	MetadataPolicyCrit []string                  `json:"metadata_policy_crit,omitempty"`
	Crit               []string                  `json:"crit,omitempty"`
	Constraints        *Constraints              `json:"constraints,omitempty"`
	AuthorityHints     []EntityID                `json:"authority_hints,omitempty"`
	TrustMarks         []TrustMark               `json:"trust_marks,omitempty"`
	TrustMarkIssuers   map[string][]EntityID     `json:"trust_mark_issuers,omitempty"`
	TrustMarkOwners    map[string]TrustMarkOwner `json:"trust_mark_owners,omitempty"`
	SourceEndpoint     string                    `json:"source_endpoint,omitempty"`

	// RawJWT is the compact serialization the statement was parsed
	// from, kept for re-publication and audit.
	RawJWT string `json:"-"`

	// Claims is the full decoded payload, including claims this struct
	// does not model.
	Claims jsonmap.JSONMap `json:"-"`
}

// ExpiredAt reports whether the statement's expiry lies before the given
// instant. All statements of one resolution pass are checked against the
// same instant.
func (s *EntityStatement) ExpiredAt(now time.Time) bool {
	return time.Unix(s.ExpiresAt, 0).Before(now)
}

// Validate checks the claims every entity statement must carry.
func (s *EntityStatement) Validate() error {
	if err := s.Issuer.Validate(); err != nil {
		return fmt.Errorf("invalid issuer: %w", err)
	}
	if err := s.Subject.Validate(); err != nil {
		return fmt.Errorf("invalid subject: %w", err)
	}
	if s.IssuedAt == 0 {
		return fmt.Errorf("statement has no iat claim")
	}
	if s.ExpiresAt == 0 {
		return fmt.Errorf("statement has no exp claim")
	}
	if s.JWKS.IsEmpty() {
		return fmt.Errorf("statement has no jwks claim")
	}
	return nil
}

// PolicyEntry returns the statement's contribution to policy
// combination.
func (s *EntityStatement) PolicyEntry() policy.Entry {
	return policy.Entry{
		Policy: s.MetadataPolicy,
		Crit:   s.MetadataPolicyCrit,
	}
}

// EntityConfiguration is an entity's self-signed statement about itself:
// an entity statement whose issuer equals its subject.
type EntityConfiguration struct {
	EntityStatement
}

// Validate checks the configuration invariants on top of the statement
// ones.
func (c *EntityConfiguration) Validate() error {
	if err := c.EntityStatement.Validate(); err != nil {
		return err
	}
	if c.Issuer != c.Subject {
		return fmt.Errorf("entity configuration issuer %q does not match subject %q", c.Issuer, c.Subject)
	}
	return nil
}

// ParseEntityStatement decodes a compact-serialized entity statement
// without verifying its signature. Signature verification is the
// caller's concern and happens against the issuer's attested keys.
func ParseEntityStatement(token string) (*EntityStatement, error) {
	payload, err := decodeStatementPayload(token)
	if err != nil {
		return nil, err
	}

	var stmt EntityStatement
	if err := json.Unmarshal(payload, &stmt); err != nil {
		return nil, fmt.Errorf("failed to unmarshal entity statement: %w", err)
	}

	claims, err := jsonmap.FromJSON(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode entity statement claims: %w", err)
	}

	stmt.RawJWT = token
	stmt.Claims = claims

	if err := stmt.Validate(); err != nil {
		return nil, fmt.Errorf("invalid entity statement: %w", err)
	}
	return &stmt, nil
}

// ParseEntityConfiguration decodes a compact-serialized entity
// configuration without verifying its signature.
func ParseEntityConfiguration(token string) (*EntityConfiguration, error) {
	stmt, err := ParseEntityStatement(token)
	if err != nil {
		return nil, err
	}

	config := &EntityConfiguration{EntityStatement: *stmt}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid entity configuration: %w", err)
	}
	return config, nil
}

// decodeStatementPayload splits a compact JWT, checks the typ header and
// returns the decoded payload bytes.
func decodeStatementPayload(token string) ([]byte, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("invalid JWT format")
	}

	headerBytes, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, fmt.Errorf("invalid header: %w", err)
	}

	var header map[string]interface{}
	if err := json.Unmarshal(headerBytes, &header); err != nil {
		return nil, fmt.Errorf("invalid header: %w", err)
	}

	if typ, ok := header["typ"].(string); ok && typ != StatementType && typ != "JWT" {
		return nil, fmt.Errorf("unexpected JWT typ %q", typ)
	}

	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, fmt.Errorf("invalid payload: %w", err)
	}
	return payload, nil
}
