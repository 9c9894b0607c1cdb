package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/pilacorp/go-federation-sdk/federation/common/jsonmap"
)

// StatementSigner mints signed entity statements and entity
// configurations for a federation operator.
type StatementSigner struct {
	privKeyHex string
	keyID      string
}

// NewStatementSigner creates a signer from a hex-encoded secp256k1
// private key and the key identifier published in the issuer's JWKS.
func NewStatementSigner(privKeyHex, keyID string) *StatementSigner {
	return &StatementSigner{
		privKeyHex: privKeyHex,
		keyID:      keyID,
	}
}

// SignStatement signs the given statement claims as an
// entity-statement+jwt. Missing iat/exp claims are filled from the
// current time and the given lifetime.
func (s *StatementSigner) SignStatement(claims jsonmap.JSONMap, lifetime time.Duration) (string, error) {
	if claims == nil {
		return "", fmt.Errorf("statement claims are nil")
	}

	// Register the ES256K signing method
	jwt.RegisterSigningMethod(ES256K.Alg(), func() jwt.SigningMethod {
		return ES256K
	})

	claimsCopy, err := claims.Clone()
	if err != nil {
		return "", fmt.Errorf("failed to copy statement claims: %w", err)
	}

	now := time.Now()
	if _, ok := claimsCopy["iat"]; !ok {
		claimsCopy["iat"] = now.Unix()
	}
	if _, ok := claimsCopy["exp"]; !ok {
		claimsCopy["exp"] = now.Add(lifetime).Unix()
	}

	token := jwt.NewWithClaims(ES256K, jwt.MapClaims(claimsCopy))
	token.Header["typ"] = "entity-statement+jwt"
	token.Header["kid"] = s.keyID

	signed, err := token.SignedString(s.privKeyHex)
	if err != nil {
		return "", fmt.Errorf("failed to sign entity statement: %w", err)
	}

	return signed, nil
}
