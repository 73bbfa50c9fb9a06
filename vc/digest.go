package vc

import (
	"encoding/json"

	ourcrypto "github.com/agentrust/trustcore/crypto"
	trusterrors "github.com/agentrust/trustcore/errors"
)

// digestCredential canonicalizes cred (which must already have Proof
// cleared or absent) and returns its SHA-256 digest, the shared signing
// input for both issuance and verification (spec §4.6).
func digestCredential(cred *Credential) ([]byte, error) {
	raw, err := json.Marshal(cred)
	if err != nil {
		return nil, trusterrors.InternalErrorf("marshaling credential: %v", err)
	}
	canonical, err := ourcrypto.Canonicalize(raw)
	if err != nil {
		return nil, err
	}
	return ourcrypto.DigestSHA256(canonical), nil
}
