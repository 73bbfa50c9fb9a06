package vc

import (
	"encoding/base64"
	"encoding/json"
	"strings"

	jose "gopkg.in/go-jose/go-jose.v2"

	ourcrypto "github.com/agentrust/trustcore/crypto"
	trusterrors "github.com/agentrust/trustcore/errors"
)

// algToJOSE and joseToAlg map this module's signature algorithms to the
// JOSE "alg" header value carried in a credential's detached proof.
// ES256K is not a registered JOSE algorithm, but spec §4.1 names it
// directly, so it travels in the same header position go-jose's own
// SignatureAlgorithm type occupies.
var algToJOSE = map[ourcrypto.Algorithm]jose.SignatureAlgorithm{
	ourcrypto.AlgEd25519:   jose.EdDSA,
	ourcrypto.AlgSecp256k1: jose.SignatureAlgorithm("ES256K"),
}

var joseToAlg = map[jose.SignatureAlgorithm]ourcrypto.Algorithm{
	jose.EdDSA:                     ourcrypto.AlgEd25519,
	jose.SignatureAlgorithm("ES256K"): ourcrypto.AlgSecp256k1,
}

type jwsHeader struct {
	Algorithm jose.SignatureAlgorithm `json:"alg"`
	B64       bool                    `json:"b64"`
	Critical  []string                `json:"crit,omitempty"`
}

// buildDetachedJWS assembles a detached-content JWS compact serialization
// (RFC 7515 Appendix F: "header..signature") over digest, matching the
// JsonWebSignature2020 proof convention: the credential digest never
// appears in the serialized token, only in the signature computation.
func buildDetachedJWS(alg ourcrypto.Algorithm, digest []byte, sign func(message []byte) ([]byte, error)) (string, error) {
	joseAlg, ok := algToJOSE[alg]
	if !ok {
		return "", trusterrors.MalformedInputError("unsupported proof algorithm: %s", alg)
	}
	header := jwsHeader{Algorithm: joseAlg, B64: false, Critical: []string{"b64"}}
	headerJSON, err := json.Marshal(header)
	if err != nil {
		return "", trusterrors.InternalErrorf("marshaling jws header: %v", err)
	}
	headerB64 := base64.RawURLEncoding.EncodeToString(headerJSON)
	digestB64 := base64.RawURLEncoding.EncodeToString(digest)
	signingInput := []byte(headerB64 + "." + digestB64)

	signature, err := sign(signingInput)
	if err != nil {
		return "", err
	}
	sigB64 := base64.RawURLEncoding.EncodeToString(signature)
	return headerB64 + ".." + sigB64, nil
}

// parsedJWS is a detached JWS split into its three compact segments.
type parsedJWS struct {
	alg          ourcrypto.Algorithm
	headerB64    string
	signature    []byte
}

// parseDetachedJWS validates and decomposes a "header..signature"
// compact detached JWS string.
func parseDetachedJWS(compact string) (*parsedJWS, error) {
	parts := strings.Split(compact, ".")
	if len(parts) != 3 || parts[1] != "" {
		return nil, trusterrors.InvalidSignatureError("malformed detached jws")
	}
	headerJSON, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, trusterrors.InvalidSignatureError("malformed jws header encoding: %v", err)
	}
	var header jwsHeader
	if err := json.Unmarshal(headerJSON, &header); err != nil {
		return nil, trusterrors.InvalidSignatureError("malformed jws header: %v", err)
	}
	alg, ok := joseToAlg[header.Algorithm]
	if !ok {
		return nil, trusterrors.InvalidSignatureError("unsupported jws algorithm: %s", header.Algorithm)
	}
	signature, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return nil, trusterrors.InvalidSignatureError("malformed jws signature encoding: %v", err)
	}
	return &parsedJWS{alg: alg, headerB64: parts[0], signature: signature}, nil
}

// signingInput reconstructs the exact bytes that were signed, given the
// digest recomputed independently by the verifier (spec §4.6 step 4).
func (p *parsedJWS) signingInput(digest []byte) []byte {
	digestB64 := base64.RawURLEncoding.EncodeToString(digest)
	return []byte(p.headerB64 + "." + digestB64)
}
