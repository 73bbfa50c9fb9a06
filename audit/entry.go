// Package audit implements the append-only, hash-chained, KMS-signed
// log of every trust operation (spec §4.8): one log instance per
// signing identity, single writer, lock-free concurrent readers.
package audit

import (
	"bytes"
	"crypto/sha256"
	"encoding/json"
	"time"

	ourcrypto "github.com/agentrust/trustcore/crypto"
	trusterrors "github.com/agentrust/trustcore/errors"
)

// genesisHash is the fixed prev_hash value for seq=0 (spec §3 Audit
// Entry invariant).
var genesisHash = sha256.Sum256([]byte("agentrust/trustcore audit log genesis"))

// Entry is one record in the chain (spec §3 Audit Entry).
type Entry struct {
	Seq                 uint64    `json:"seq"`
	Timestamp           time.Time `json:"timestamp"`
	Actor                string   `json:"actor"`
	Action               Action   `json:"action"`
	Subject              string   `json:"subject"`
	PayloadHash          []byte   `json:"payload_hash"`
	PrevHash             []byte   `json:"prev_hash"`
	Signature            []byte   `json:"signature,omitempty"`
	VerificationMethod   string   `json:"verification_method"`
}

// hash computes H(serialize(entry without signature)), the value used
// both as the next entry's prev_hash and as the signing input (spec §3,
// §4.8).
func (e *Entry) hash() ([]byte, error) {
	unsigned := *e
	unsigned.Signature = nil
	raw, err := json.Marshal(&unsigned)
	if err != nil {
		return nil, trusterrors.InternalErrorf("marshaling audit entry %d: %v", e.Seq, err)
	}
	canon, err := ourcrypto.Canonicalize(raw)
	if err != nil {
		return nil, trusterrors.InternalErrorf("canonicalizing audit entry %d: %v", e.Seq, err)
	}
	return ourcrypto.DigestSHA256(canon), nil
}

func payloadHash(payload interface{}) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, trusterrors.MalformedInputError("marshaling audit payload: %v", err)
	}
	canon, err := ourcrypto.Canonicalize(raw)
	if err != nil {
		return nil, trusterrors.MalformedInputError("canonicalizing audit payload: %v", err)
	}
	return ourcrypto.DigestSHA256(canon), nil
}

func hashEqual(a, b []byte) bool {
	return bytes.Equal(a, b)
}
