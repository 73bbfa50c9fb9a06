package kms

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/google/uuid"

	ourcrypto "github.com/agentrust/trustcore/crypto"
	trusterrors "github.com/agentrust/trustcore/errors"
)

// masterKeyEnvVar names the environment variable carrying the 32-byte
// base64-encoded AES-256-GCM master key for the Local provider (spec §6).
const masterKeyEnvVar = "LOCAL_KMS_MASTER_KEY"

// storedKey is the at-rest representation of one key's encrypted secret.
type storedKey struct {
	Algorithm  ourcrypto.Algorithm `json:"algorithm"`
	Nonce      []byte              `json:"nonce"`
	Ciphertext []byte              `json:"ciphertext"`
	PublicKey  []byte              `json:"public_key"`
}

// Local is a file-encrypted keystore, AES-256-GCM under a process-scoped
// master key (spec §4.2). It is the KMS variant used when no cloud
// provider is configured.
type Local struct {
	mu        sync.Mutex
	masterKey []byte
	keys      map[KeyRef]storedKey
	path      string
}

// NewLocal builds a Local provider with the given 32-byte AES-256 master
// key, optionally persisting to path (empty path means in-memory only).
func NewLocal(masterKey []byte, path string) (*Local, error) {
	if len(masterKey) != 32 {
		return nil, trusterrors.New(trusterrors.MalformedInput, "local KMS master key must be 32 bytes, got %d", len(masterKey))
	}
	l := &Local{masterKey: masterKey, keys: make(map[KeyRef]storedKey), path: path}
	if path != "" {
		if err := l.load(); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// NewLocalFromEnv reads the master key from LOCAL_KMS_MASTER_KEY.
func NewLocalFromEnv(path string) (*Local, error) {
	encoded := os.Getenv(masterKeyEnvVar)
	if encoded == "" {
		return nil, trusterrors.New(trusterrors.MalformedInput, "%s is not set", masterKeyEnvVar)
	}
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, trusterrors.New(trusterrors.MalformedInput, "%s is not valid base64: %v", masterKeyEnvVar, err)
	}
	return NewLocal(key, path)
}

func (l *Local) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(l.masterKey)
	if err != nil {
		return nil, trusterrors.InternalErrorf("failed to build AES cipher: %v", err)
	}
	return cipher.NewGCM(block)
}

func (l *Local) load() error {
	data, err := os.ReadFile(l.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return trusterrors.CorruptStateError("failed to read local keystore %s: %v", l.path, err)
	}
	var keys map[KeyRef]storedKey
	if err := json.Unmarshal(data, &keys); err != nil {
		return trusterrors.CorruptStateError("failed to parse local keystore %s: %v", l.path, err)
	}
	l.keys = keys
	return nil
}

func (l *Local) persist() error {
	if l.path == "" {
		return nil
	}
	data, err := json.Marshal(l.keys)
	if err != nil {
		return trusterrors.InternalErrorf("failed to marshal local keystore: %v", err)
	}
	if err := os.WriteFile(l.path, data, 0o600); err != nil {
		return trusterrors.InternalErrorf("failed to write local keystore %s: %v", l.path, err)
	}
	return nil
}

// Create provisions a new local key of the given algorithm.
func (l *Local) Create(ctx context.Context, alg ourcrypto.Algorithm) (KeyRef, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var secret, public []byte
	switch alg {
	case ourcrypto.AlgEd25519:
		pub, priv, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return "", trusterrors.InternalErrorf("failed to generate ed25519 key: %v", err)
		}
		secret, public = priv, pub
	case ourcrypto.AlgSecp256k1:
		priv, err := secp256k1.GeneratePrivateKey()
		if err != nil {
			return "", trusterrors.InternalErrorf("failed to generate secp256k1 key: %v", err)
		}
		secret = priv.Serialize()
		public = priv.PubKey().SerializeCompressed()
	default:
		return "", trusterrors.New(trusterrors.MalformedInput, "unsupported algorithm: %s", alg)
	}

	gcmAEAD, err := l.gcm()
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcmAEAD.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", trusterrors.InternalErrorf("failed to generate nonce: %v", err)
	}
	ciphertext := gcmAEAD.Seal(nil, nonce, secret, nil)

	ref := KeyRef(fmt.Sprintf("local-%s", uuid.NewString()))
	l.keys[ref] = storedKey{Algorithm: alg, Nonce: nonce, Ciphertext: ciphertext, PublicKey: public}
	if err := l.persist(); err != nil {
		return "", err
	}
	return ref, nil
}

func (l *Local) decrypt(stored storedKey) ([]byte, error) {
	gcmAEAD, err := l.gcm()
	if err != nil {
		return nil, err
	}
	plaintext, err := gcmAEAD.Open(nil, stored.Nonce, stored.Ciphertext, nil)
	if err != nil {
		return nil, trusterrors.AccessDeniedError("failed to decrypt key material: %v", err)
	}
	return plaintext, nil
}

// Sign signs message with keyRef's private key.
func (l *Local) Sign(ctx context.Context, keyRef KeyRef, message []byte) (SignResult, error) {
	l.mu.Lock()
	stored, ok := l.keys[keyRef]
	l.mu.Unlock()
	if !ok {
		return SignResult{}, trusterrors.KeyNotFoundError("no local key for %s", keyRef)
	}
	secret, err := l.decrypt(stored)
	if err != nil {
		return SignResult{}, err
	}
	sig, err := ourcrypto.Sign(stored.Algorithm, secret, message)
	if err != nil {
		return SignResult{}, err
	}
	preHash := ""
	if stored.Algorithm == ourcrypto.AlgSecp256k1 {
		preHash = "SHA-256"
	}
	return SignResult{Signature: sig, Algorithm: stored.Algorithm, VerificationMethod: string(keyRef), PreHash: preHash}, nil
}

// PublicKey returns keyRef's public key material.
func (l *Local) PublicKey(ctx context.Context, keyRef KeyRef) (PublicKeyMaterial, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	stored, ok := l.keys[keyRef]
	if !ok {
		return PublicKeyMaterial{}, trusterrors.KeyNotFoundError("no local key for %s", keyRef)
	}
	return PublicKeyMaterial{Algorithm: stored.Algorithm, KeyMaterial: stored.PublicKey}, nil
}

// Import adds an already-generated keypair under a caller-chosen
// reference, used by tests and by migration from an existing key file.
func (l *Local) Import(ref KeyRef, alg ourcrypto.Algorithm, secret, public []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	gcmAEAD, err := l.gcm()
	if err != nil {
		return err
	}
	nonce := make([]byte, gcmAEAD.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return trusterrors.InternalErrorf("failed to generate nonce: %v", err)
	}
	ciphertext := gcmAEAD.Seal(nil, nonce, secret, nil)
	l.keys[ref] = storedKey{Algorithm: alg, Nonce: nonce, Ciphertext: ciphertext, PublicKey: public}
	return l.persist()
}
