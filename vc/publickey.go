package vc

import (
	"encoding/base64"

	ourcrypto "github.com/agentrust/trustcore/crypto"
	ourdid "github.com/agentrust/trustcore/did"
	trusterrors "github.com/agentrust/trustcore/errors"
)

// extractPublicKey resolves the signing algorithm and raw public key
// bytes carried by a verification method, supporting the two encodings
// spec §3 names: publicKeyMultibase and publicKeyJwk.
func extractPublicKey(vm ourdid.VerificationMethod) (ourcrypto.Algorithm, []byte, error) {
	if vm.PublicKeyMultibase != "" {
		vmType, rawKey, err := ourdid.DecodePublicKeyMultibase(vm.PublicKeyMultibase)
		if err != nil {
			return "", nil, trusterrors.KeyNotFoundError("malformed publicKeyMultibase: %v", err)
		}
		switch vmType {
		case "Ed25519VerificationKey2020":
			return ourcrypto.AlgEd25519, rawKey, nil
		case "EcdsaSecp256k1VerificationKey2019":
			return ourcrypto.AlgSecp256k1, rawKey, nil
		default:
			return "", nil, trusterrors.KeyNotFoundError("unsupported verification method key type: %s", vmType)
		}
	}

	if vm.PublicKeyJwk != nil {
		crv, _ := vm.PublicKeyJwk["crv"].(string)
		x, _ := vm.PublicKeyJwk["x"].(string)
		if x == "" {
			return "", nil, trusterrors.KeyNotFoundError("publicKeyJwk missing x coordinate")
		}
		xBytes, err := base64.RawURLEncoding.DecodeString(x)
		if err != nil {
			return "", nil, trusterrors.KeyNotFoundError("malformed publicKeyJwk x coordinate: %v", err)
		}
		switch crv {
		case "Ed25519":
			return ourcrypto.AlgEd25519, xBytes, nil
		case "secp256k1":
			y, _ := vm.PublicKeyJwk["y"].(string)
			yBytes, err := base64.RawURLEncoding.DecodeString(y)
			if err != nil {
				return "", nil, trusterrors.KeyNotFoundError("malformed publicKeyJwk y coordinate: %v", err)
			}
			return ourcrypto.AlgSecp256k1, compressSecp256k1(xBytes, yBytes), nil
		default:
			return "", nil, trusterrors.KeyNotFoundError("unsupported publicKeyJwk curve: %s", crv)
		}
	}

	return "", nil, trusterrors.KeyNotFoundError("verification method has no usable public key encoding")
}

// compressSecp256k1 builds the 33-byte SEC1-compressed point encoding
// from raw (x, y) JWK coordinates.
func compressSecp256k1(x, y []byte) []byte {
	prefix := byte(0x02)
	if len(y) > 0 && y[len(y)-1]&1 == 1 {
		prefix = 0x03
	}
	out := make([]byte, 0, 33)
	out = append(out, prefix)
	padded := make([]byte, 32)
	copy(padded[32-len(x):], x)
	out = append(out, padded...)
	return out
}
