// Package kms defines the uniform signing interface (spec §4.2) that
// every credential-issuing and audit-appending component in this module
// signs through, backed interchangeably by a local encrypted keystore or
// a cloud KMS provider. Dispatch is a small tagged registry, not an
// inheritance hierarchy, per spec §9.
package kms

import (
	"context"

	ourcrypto "github.com/agentrust/trustcore/crypto"
)

// KeyRef names a signing key held by a Provider. Resolvable to a
// verification method listed in at least one issuer DID Document
// (spec §3 KMS Key Reference invariant).
type KeyRef string

// PublicKeyMaterial describes a key's public half.
type PublicKeyMaterial struct {
	Algorithm   ourcrypto.Algorithm
	KeyMaterial []byte
}

// SignResult carries a signature plus the metadata verifiers need to
// reconstruct the wire proof (spec §4.2: "remote providers may pre-hash
// as mandated by their API and MUST report which pre-hash was applied").
type SignResult struct {
	Signature          []byte
	Algorithm          ourcrypto.Algorithm
	VerificationMethod string
	PreHash            string // e.g. "SHA-256", "" if the caller's bytes were signed directly
}

// Provider is the capability interface implemented by Local, AwsKms, and
// GcpKms. Implementations must be safe for any number of concurrent Sign
// calls (spec §4.2 Concurrency); they serialize internally as needed.
type Provider interface {
	// Sign signs the exact bytes of message under keyRef.
	Sign(ctx context.Context, keyRef KeyRef, message []byte) (SignResult, error)

	// PublicKey returns the public key material for keyRef.
	PublicKey(ctx context.Context, keyRef KeyRef) (PublicKeyMaterial, error)

	// Create provisions a new signing key of the given algorithm and
	// returns its reference. Optional: implementations that don't
	// support key creation (e.g. a read-only KMS binding) return
	// MethodNotSupported.
	Create(ctx context.Context, alg ourcrypto.Algorithm) (KeyRef, error)
}
