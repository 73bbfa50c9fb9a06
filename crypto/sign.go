// Package crypto exposes the four primitives spec §4.1 requires:
// canonicalize, digest, sign, verify, for the two algorithms spec §4.1
// mandates (Ed25519 per RFC 8032, ECDSA-secp256k1 with SHA-256 pre-hash).
// Signature bytes are always the fixed-length canonical form: 64 bytes
// for Ed25519, 64 bytes of r||s (low-S normalized) for secp256k1.
package crypto

import (
	"crypto/ed25519"
	"crypto/sha256"
	"crypto/x509/pkix"
	"encoding/asn1"
	"math/big"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	trusterrors "github.com/agentrust/trustcore/errors"
)

// Algorithm names the supported signature algorithms.
type Algorithm string

const (
	AlgEd25519     Algorithm = "Ed25519"
	AlgSecp256k1   Algorithm = "ES256K"
	ed25519SigLen            = 64
	secp256k1SigLen          = 64
	secp256k1ScalarLen       = 32
)

// secp256k1Order is the order of the secp256k1 group. Remote KMS
// providers (AWS, GCP) return arbitrary-S DER signatures with no
// low-S guarantee, so NormalizeDERSignature reduces S against this
// constant rather than trust the caller.
var secp256k1Order, _ = new(big.Int).SetString(
	"fffffffffffffffffffffffffffffffebaaedce6af48a03bbfd25e8cd0364141", 16)

var secp256k1HalfOrder = new(big.Int).Rsh(secp256k1Order, 1)

// Sign produces a canonical-form signature of message under secretKey
// using alg. For AlgSecp256k1, message is pre-hashed with SHA-256 before
// signing, per spec §4.1.
func Sign(alg Algorithm, secretKey []byte, message []byte) ([]byte, error) {
	switch alg {
	case AlgEd25519:
		if len(secretKey) != ed25519.PrivateKeySize {
			return nil, trusterrors.New(trusterrors.MalformedInput, "invalid encoding: ed25519 private key must be %d bytes", ed25519.PrivateKeySize)
		}
		sig := ed25519.Sign(ed25519.PrivateKey(secretKey), message)
		return sig, nil
	case AlgSecp256k1:
		priv := secp256k1.PrivKeyFromBytes(secretKey)
		if priv == nil {
			return nil, trusterrors.New(trusterrors.MalformedInput, "invalid encoding: malformed secp256k1 private key")
		}
		hash := sha256.Sum256(message)
		sig := ecdsa.Sign(priv, hash[:])
		return signatureToFixedRS(sig)
	default:
		return nil, trusterrors.New(trusterrors.MalformedInput, "unsupported algorithm: %s", alg)
	}
}

// Verify reports whether signature is a valid signature of message under
// publicKey for alg. It never panics or errors on a malformed-but-decodable
// signature; it returns false, per spec §4.1 ("verification never throws").
func Verify(alg Algorithm, publicKey []byte, message []byte, signature []byte) bool {
	switch alg {
	case AlgEd25519:
		if len(publicKey) != ed25519.PublicKeySize || len(signature) != ed25519SigLen {
			return false
		}
		return ed25519.Verify(ed25519.PublicKey(publicKey), message, signature)
	case AlgSecp256k1:
		if len(signature) != secp256k1SigLen {
			return false
		}
		pub, err := secp256k1.ParsePubKey(publicKey)
		if err != nil {
			return false
		}
		sig, err := fixedRSToSignature(signature)
		if err != nil {
			return false
		}
		hash := sha256.Sum256(message)
		return sig.Verify(hash[:], pub)
	default:
		return false
	}
}

// signatureToFixedRS converts a decred ecdsa.Signature (which the
// library already produces with a low-S value, per BIP-62 style
// canonicalization) into the fixed 64-byte r||s wire form spec §4.1
// requires, by round-tripping through its DER encoding -- the only
// stable public accessor the library exposes for r and s.
func signatureToFixedRS(sig *ecdsa.Signature) ([]byte, error) {
	der := sig.Serialize()
	r, s, err := parseDERSignature(der)
	if err != nil {
		return nil, err
	}
	out := make([]byte, secp256k1ScalarLen*2)
	r.FillBytes(out[:secp256k1ScalarLen])
	s.FillBytes(out[secp256k1ScalarLen:])
	return out, nil
}

// NormalizeDERSignature converts an arbitrary DER-encoded ECDSA
// signature -- as returned by AWS KMS or Cloud KMS's AsymmetricSign,
// neither of which guarantees a low-S value -- into the fixed 64-byte
// low-S r||s wire form spec §4.1 requires and Verify expects.
func NormalizeDERSignature(der []byte) ([]byte, error) {
	r, s, err := parseDERSignature(der)
	if err != nil {
		return nil, err
	}
	if s.Cmp(secp256k1HalfOrder) > 0 {
		s = new(big.Int).Sub(secp256k1Order, s)
	}
	out := make([]byte, secp256k1ScalarLen*2)
	r.FillBytes(out[:secp256k1ScalarLen])
	s.FillBytes(out[secp256k1ScalarLen:])
	return out, nil
}

// subjectPublicKeyInfo mirrors the X.509 SubjectPublicKeyInfo ASN.1
// structure closely enough to pull out the raw key bit string; full
// decoding (crypto/x509.ParsePKIXPublicKey) doesn't recognize the
// secp256k1 curve OID, so this module parses just enough of the
// envelope itself.
type subjectPublicKeyInfo struct {
	Algorithm pkix.AlgorithmIdentifier
	PublicKey asn1.BitString
}

// SEC1PublicKeyFromSPKI extracts the raw SEC1 point (the
// uncompressed/compressed EC point secp256k1.ParsePubKey expects) out
// of a DER-encoded X.509 SubjectPublicKeyInfo, the form AWS KMS's
// GetPublicKey and (after PEM-decoding) Cloud KMS's GetPublicKey
// return.
func SEC1PublicKeyFromSPKI(der []byte) ([]byte, error) {
	var spki subjectPublicKeyInfo
	if _, err := asn1.Unmarshal(der, &spki); err != nil {
		return nil, trusterrors.New(trusterrors.MalformedInput, "malformed SPKI public key: %v", err)
	}
	return spki.PublicKey.RightAlign(), nil
}

// fixedRSToSignature parses a 64-byte r||s signature and re-encodes it
// as minimal DER so the underlying library can parse and verify it.
func fixedRSToSignature(raw []byte) (*ecdsa.Signature, error) {
	if len(raw) != secp256k1SigLen {
		return nil, trusterrors.New(trusterrors.InvalidSignature, "secp256k1 signature must be %d bytes", secp256k1SigLen)
	}
	r := new(big.Int).SetBytes(raw[:secp256k1ScalarLen])
	s := new(big.Int).SetBytes(raw[secp256k1ScalarLen:])
	der := encodeDERSignature(r, s)
	return ecdsa.ParseDERSignature(der)
}

// parseDERSignature extracts r and s from a DER-encoded ECDSA signature
// (SEQUENCE of two INTEGERs).
func parseDERSignature(der []byte) (r, s *big.Int, err error) {
	if len(der) < 8 || der[0] != 0x30 {
		return nil, nil, trusterrors.New(trusterrors.InvalidSignature, "malformed DER signature")
	}
	offset := 2
	if der[1] >= 0x80 {
		// Long-form length; skip the extra length-of-length bytes.
		offset += int(der[1] & 0x7f)
	}
	readInt := func(buf []byte, pos int) (*big.Int, int, error) {
		if pos >= len(buf) || buf[pos] != 0x02 {
			return nil, 0, trusterrors.New(trusterrors.InvalidSignature, "malformed DER integer")
		}
		length := int(buf[pos+1])
		start := pos + 2
		if start+length > len(buf) {
			return nil, 0, trusterrors.New(trusterrors.InvalidSignature, "truncated DER integer")
		}
		val := new(big.Int).SetBytes(buf[start : start+length])
		return val, start + length, nil
	}
	r, next, err := readInt(der, offset)
	if err != nil {
		return nil, nil, err
	}
	s, _, err = readInt(der, next)
	if err != nil {
		return nil, nil, err
	}
	return r, s, nil
}

// encodeDERSignature re-encodes r, s as a minimal DER SEQUENCE of two
// INTEGERs, the form the decred library's parser expects.
func encodeDERSignature(r, s *big.Int) []byte {
	encodeInt := func(v *big.Int) []byte {
		b := v.Bytes()
		if len(b) == 0 {
			b = []byte{0}
		}
		if b[0]&0x80 != 0 {
			b = append([]byte{0}, b...)
		}
		return append([]byte{0x02, byte(len(b))}, b...)
	}
	rb := encodeInt(r)
	sb := encodeInt(s)
	body := append(rb, sb...)
	return append([]byte{0x30, byte(len(body))}, body...)
}
