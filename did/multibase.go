package did

import (
	"github.com/mr-tron/base58"
)

// Multicodec varint prefixes this module understands in a
// publicKeyMultibase value (spec §4.4).
var (
	codecEd25519   = []byte{0xed, 0x01}
	codecSecp256k1 = []byte{0xe7, 0x01}
	codecX25519    = []byte{0xec, 0x01}
)

const (
	ed25519KeyLen   = 32
	secp256k1KeyLen = 33 // compressed
	x25519KeyLen    = 32
)

// DecodePublicKeyMultibase decodes a base58btc multibase value (the "z"
// prefix form used throughout this module) into a verification method
// type name and the raw key bytes, validating length per algorithm. It
// is the single shared implementation behind did:key resolution and
// verification-method key extraction during VC proof verification.
func DecodePublicKeyMultibase(mb string) (vmType string, rawKey []byte, err error) {
	if len(mb) == 0 || mb[0] != 'z' {
		return "", nil, ErrUnsupportedMultibase
	}
	decoded, err := base58.Decode(mb[1:])
	if err != nil {
		return "", nil, ErrUnsupportedMultibase
	}
	return decodeMulticodec(decoded)
}

// ErrUnsupportedMultibase is returned when a multibase string is not a
// recognized base58btc-encoded multicodec key.
var ErrUnsupportedMultibase = &multibaseError{"unsupported or malformed multibase value"}

type multibaseError struct{ msg string }

func (e *multibaseError) Error() string { return e.msg }

func decodeMulticodec(b []byte) (vmType string, rawKey []byte, err error) {
	if len(b) < 2 {
		return "", nil, &multibaseError{"multicodec header truncated"}
	}
	header := b[:2]
	rest := b[2:]
	switch {
	case header[0] == codecEd25519[0] && header[1] == codecEd25519[1]:
		if len(rest) != ed25519KeyLen {
			return "", nil, &multibaseError{"invalid ed25519 key length"}
		}
		return "Ed25519VerificationKey2020", rest, nil
	case header[0] == codecSecp256k1[0] && header[1] == codecSecp256k1[1]:
		if len(rest) != secp256k1KeyLen {
			return "", nil, &multibaseError{"invalid secp256k1 key length"}
		}
		return "EcdsaSecp256k1VerificationKey2019", rest, nil
	case header[0] == codecX25519[0] && header[1] == codecX25519[1]:
		if len(rest) != x25519KeyLen {
			return "", nil, &multibaseError{"invalid x25519 key length"}
		}
		return "X25519KeyAgreementKey2020", rest, nil
	default:
		return "", nil, &multibaseError{"unsupported multicodec header"}
	}
}
