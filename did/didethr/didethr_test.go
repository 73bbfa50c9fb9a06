package didethr

import (
	"context"
	"testing"

	ourdid "github.com/agentrust/trustcore/did"
)

func TestResolveLowercaseAddressDefaultsToMainnet(t *testing.T) {
	r := New()
	didURL := "did:ethr:0xb9c5714089478a327f09197987f16f9e5d936e8a"
	result, err := r.Resolve(context.Background(), didURL, ourdid.ResolutionOptions{})
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if result.DidResolutionMeta.Error != "" {
		t.Fatalf("expected no error, got %v", result.DidResolutionMeta.Error)
	}
	vm := result.DidDocument.VerificationMethod[0]
	if vm.BlockchainAccountID != "eip155:1:0xb9c5714089478a327f09197987f16f9e5d936e8a" {
		t.Fatalf("unexpected blockchainAccountId: %s", vm.BlockchainAccountID)
	}
}

func TestResolveNamedNetwork(t *testing.T) {
	r := New()
	didURL := "did:ethr:sepolia:0xb9c5714089478a327f09197987f16f9e5d936e8a"
	result, _ := r.Resolve(context.Background(), didURL, ourdid.ResolutionOptions{})
	vm := result.DidDocument.VerificationMethod[0]
	if vm.BlockchainAccountID != "eip155:11155111:0xb9c5714089478a327f09197987f16f9e5d936e8a" {
		t.Fatalf("unexpected blockchainAccountId: %s", vm.BlockchainAccountID)
	}
}

func TestResolveValidEip55Checksum(t *testing.T) {
	r := New()
	// Well-known EIP-55 test vector.
	didURL := "did:ethr:0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
	result, err := r.Resolve(context.Background(), didURL, ourdid.ResolutionOptions{})
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if result.DidResolutionMeta.Error != "" {
		t.Fatalf("expected valid checksum to resolve, got error %v", result.DidResolutionMeta.Error)
	}
}

func TestResolveRejectsBadChecksum(t *testing.T) {
	r := New()
	// Same address with an invalid mixed case (flipped from the valid vector).
	didURL := "did:ethr:0x5AAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
	result, _ := r.Resolve(context.Background(), didURL, ourdid.ResolutionOptions{})
	if result.DidResolutionMeta.Error != ourdid.ErrorInvalidDid {
		t.Fatalf("expected invalidDid for bad checksum, got %v", result.DidResolutionMeta.Error)
	}
}

func TestResolveRejectsMalformedAddress(t *testing.T) {
	r := New()
	result, _ := r.Resolve(context.Background(), "did:ethr:0xnotAnAddress", ourdid.ResolutionOptions{})
	if result.DidResolutionMeta.Error != ourdid.ErrorInvalidDid {
		t.Fatalf("expected invalidDid for malformed address, got %v", result.DidResolutionMeta.Error)
	}
}

func TestResolveRejectsUnknownNetwork(t *testing.T) {
	r := New()
	didURL := "did:ethr:bogusnet:0xb9c5714089478a327f09197987f16f9e5d936e8a"
	result, _ := r.Resolve(context.Background(), didURL, ourdid.ResolutionOptions{})
	if result.DidResolutionMeta.Error != ourdid.ErrorInvalidDid {
		t.Fatalf("expected invalidDid for unknown network, got %v", result.DidResolutionMeta.Error)
	}
}

type fakeRegistry struct {
	doc *ourdid.Document
	err error
}

func (f *fakeRegistry) Resolve(ctx context.Context, address string, chainID string) (*ourdid.Document, error) {
	return f.doc, f.err
}

func TestResolveDelegatesToRegistryOverride(t *testing.T) {
	custom := &ourdid.Document{ID: "did:ethr:0xb9c5714089478a327f09197987f16f9e5d936e8a"}
	r := &Resolver{Registry: &fakeRegistry{doc: custom}}
	result, err := r.Resolve(context.Background(), "did:ethr:0xb9c5714089478a327f09197987f16f9e5d936e8a", ourdid.ResolutionOptions{})
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if result.DidDocument != custom {
		t.Fatalf("expected registry override document to be returned verbatim")
	}
}
