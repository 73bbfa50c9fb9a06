package kms

import (
	"context"
	"crypto/rand"
	"testing"

	ourcrypto "github.com/agentrust/trustcore/crypto"
	trusterrors "github.com/agentrust/trustcore/errors"
)

func newTestLocal(t *testing.T) *Local {
	t.Helper()
	master := make([]byte, 32)
	if _, err := rand.Read(master); err != nil {
		t.Fatalf("failed to generate master key: %v", err)
	}
	l, err := NewLocal(master, "")
	if err != nil {
		t.Fatalf("NewLocal failed: %v", err)
	}
	return l
}

func TestLocalCreateSignPublicKeyEd25519(t *testing.T) {
	l := newTestLocal(t)
	ctx := context.Background()

	ref, err := l.Create(ctx, ourcrypto.AlgEd25519)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	msg := []byte("issue a credential")
	result, err := l.Sign(ctx, ref, msg)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	if result.Algorithm != ourcrypto.AlgEd25519 {
		t.Fatalf("expected Ed25519 algorithm, got %s", result.Algorithm)
	}

	pub, err := l.PublicKey(ctx, ref)
	if err != nil {
		t.Fatalf("PublicKey failed: %v", err)
	}
	if !ourcrypto.Verify(ourcrypto.AlgEd25519, pub.KeyMaterial, msg, result.Signature) {
		t.Fatalf("expected signature to verify against returned public key")
	}
}

func TestLocalCreateSignPublicKeySecp256k1(t *testing.T) {
	l := newTestLocal(t)
	ctx := context.Background()

	ref, err := l.Create(ctx, ourcrypto.AlgSecp256k1)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	msg := []byte("audit entry payload")
	result, err := l.Sign(ctx, ref, msg)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	if result.PreHash != "SHA-256" {
		t.Fatalf("expected secp256k1 signing to report SHA-256 pre-hash, got %q", result.PreHash)
	}
	pub, err := l.PublicKey(ctx, ref)
	if err != nil {
		t.Fatalf("PublicKey failed: %v", err)
	}
	if !ourcrypto.Verify(ourcrypto.AlgSecp256k1, pub.KeyMaterial, msg, result.Signature) {
		t.Fatalf("expected signature to verify against returned public key")
	}
}

func TestLocalSignUnknownKeyFails(t *testing.T) {
	l := newTestLocal(t)
	_, err := l.Sign(context.Background(), KeyRef("nonexistent"), []byte("x"))
	if !trusterrors.Is(err, trusterrors.KeyNotFound) {
		t.Fatalf("expected KeyNotFound, got %v", err)
	}
}

func TestNewLocalRejectsWrongKeyLength(t *testing.T) {
	_, err := NewLocal([]byte("too-short"), "")
	if !trusterrors.Is(err, trusterrors.MalformedInput) {
		t.Fatalf("expected MalformedInput, got %v", err)
	}
}
