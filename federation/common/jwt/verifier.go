package jwt

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/pilacorp/go-federation-sdk/federation/common/crypto"
	"github.com/pilacorp/go-federation-sdk/federation/entity"
)

// VerifyWithJWKS verifies a compact-serialized statement against the
// purported signer's key set. It is the default verification capability
// handed to the resolver; callers with their own JOSE stack can supply
// any function with the same shape instead.
func VerifyWithJWKS(token string, keys entity.JWKS) error {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return fmt.Errorf("invalid JWT format")
	}

	headerBytes, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return fmt.Errorf("invalid header: %w", err)
	}

	var header map[string]interface{}
	if err := json.Unmarshal(headerBytes, &header); err != nil {
		return fmt.Errorf("invalid header: %w", err)
	}

	kid, ok := header["kid"].(string)
	if !ok {
		return fmt.Errorf("kid not found in header")
	}

	jwk, ok := keys.KeyByID(kid)
	if !ok {
		return fmt.Errorf("key %q not present in signer's JWKS", kid)
	}

	publicKey, err := crypto.ECPublicKeyFromJWK(jwk.Crv, jwk.X, jwk.Y)
	if err != nil {
		return fmt.Errorf("invalid public key: %w", err)
	}

	signingString := parts[0] + "." + parts[1]
	signature, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return fmt.Errorf("invalid signature: %w", err)
	}

	alg, _ := header["alg"].(string)
	switch alg {
	case ES256K.Alg():
		return ES256K.Verify(signingString, signature, publicKey)
	case "ES256":
		return verifyES256(signingString, signature, publicKey)
	default:
		return fmt.Errorf("unsupported signing algorithm %q", alg)
	}
}

// verifyES256 checks an R||S signature over P-256.
func verifyES256(signingString string, signature []byte, publicKey *ecdsa.PublicKey) error {
	if len(signature) != 64 {
		return fmt.Errorf("invalid signature length")
	}

	hash := sha256.Sum256([]byte(signingString))
	r := new(big.Int).SetBytes(signature[:32])
	s := new(big.Int).SetBytes(signature[32:])

	if !ecdsa.Verify(publicKey, hash[:], r, s) {
		return fmt.Errorf("signature verification failed")
	}

	return nil
}
