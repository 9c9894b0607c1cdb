// Package crypto converts federation JWKs into ECDSA public keys for
// signature verification.
package crypto

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"encoding/base64"
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// Curve names used in federation JWKs.
const (
	CurveP256      = "P-256"
	CurveSecp256k1 = "secp256k1"
)

// ECPublicKeyFromJWK builds an ECDSA public key from the coordinates of
// an EC JWK.
func ECPublicKeyFromJWK(crv, x, y string) (*ecdsa.PublicKey, error) {
	xBytes, err := base64.RawURLEncoding.DecodeString(x)
	if err != nil {
		return nil, fmt.Errorf("invalid x coordinate: %w", err)
	}
	yBytes, err := base64.RawURLEncoding.DecodeString(y)
	if err != nil {
		return nil, fmt.Errorf("invalid y coordinate: %w", err)
	}

	switch crv {
	case CurveP256:
		pub := &ecdsa.PublicKey{
			Curve: elliptic.P256(),
			X:     new(big.Int).SetBytes(xBytes),
			Y:     new(big.Int).SetBytes(yBytes),
		}
		if !pub.Curve.IsOnCurve(pub.X, pub.Y) {
			return nil, fmt.Errorf("point is not on curve %s", crv)
		}
		return pub, nil

	case CurveSecp256k1:
		return secp256k1PublicKey(xBytes, yBytes)

	default:
		return nil, fmt.Errorf("unsupported curve %q", crv)
	}
}

// secp256k1PublicKey validates the coordinates against the secp256k1
// field and curve before handing back a stdlib key.
func secp256k1PublicKey(xBytes, yBytes []byte) (*ecdsa.PublicKey, error) {
	var fx, fy secp256k1.FieldVal
	if overflow := fx.SetByteSlice(xBytes); overflow {
		return nil, fmt.Errorf("x coordinate overflows the secp256k1 field")
	}
	if overflow := fy.SetByteSlice(yBytes); overflow {
		return nil, fmt.Errorf("y coordinate overflows the secp256k1 field")
	}

	pub := secp256k1.NewPublicKey(&fx, &fy).ToECDSA()
	if !btcec.S256().IsOnCurve(pub.X, pub.Y) {
		return nil, fmt.Errorf("point is not on curve %s", CurveSecp256k1)
	}
	return pub, nil
}
