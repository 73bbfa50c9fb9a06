package statuslist

import (
	"context"
	"crypto/rand"
	"sync"
	"testing"

	"github.com/jmhodges/clock"
	"github.com/mr-tron/base58"

	ourcrypto "github.com/agentrust/trustcore/crypto"
	trusterrors "github.com/agentrust/trustcore/errors"
	"github.com/agentrust/trustcore/kms"
	"github.com/agentrust/trustcore/log"
	"github.com/agentrust/trustcore/statuslist/storage"
)

func newTestManager() *Manager {
	return NewManager(storage.NewMemory(), clock.NewFake(), log.NewNop())
}

func TestInitializeRejectsDuplicate(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()
	if err := m.Initialize(ctx, "list-1", "revocation", 0); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	err := m.Initialize(ctx, "list-1", "revocation", 0)
	if !trusterrors.Is(err, trusterrors.MalformedInput) {
		t.Fatalf("expected MalformedInput on duplicate initialize, got %v", err)
	}
}

func TestInitializeDefaultsLength(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()
	if err := m.Initialize(ctx, "list-1", "revocation", 0); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	snap, err := m.storage.Load(ctx, "list-1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if snap.Length != 131072 {
		t.Fatalf("expected default length 131072, got %d", snap.Length)
	}
}

func TestAllocateIndexIncrements(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()
	if err := m.Initialize(ctx, "list-1", "revocation", 8); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	e0, err := m.AllocateIndex(ctx, "list-1")
	if err != nil {
		t.Fatalf("AllocateIndex failed: %v", err)
	}
	e1, err := m.AllocateIndex(ctx, "list-1")
	if err != nil {
		t.Fatalf("AllocateIndex failed: %v", err)
	}
	if e0.StatusListIndex != "0" || e1.StatusListIndex != "1" {
		t.Fatalf("expected sequential indexes, got %q then %q", e0.StatusListIndex, e1.StatusListIndex)
	}
	if e0.StatusListCredential != "list-1" || e0.ID != "list-1#0" {
		t.Fatalf("unexpected entry shape: %+v", e0)
	}
}

func TestAllocateIndexFailsWhenFull(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()
	if err := m.Initialize(ctx, "list-1", "revocation", 8); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	for i := 0; i < 8; i++ {
		if _, err := m.AllocateIndex(ctx, "list-1"); err != nil {
			t.Fatalf("AllocateIndex %d failed: %v", i, err)
		}
	}
	if _, err := m.AllocateIndex(ctx, "list-1"); !trusterrors.Is(err, trusterrors.ListFull) {
		t.Fatalf("expected ListFull once exhausted, got %v", err)
	}
}

func TestSetStatusAndGetStatus(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()
	if err := m.Initialize(ctx, "list-1", "revocation", 16); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if err := m.SetStatus(ctx, "list-1", 3, true, "operator", "compromised key"); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}
	set, err := m.GetStatus(ctx, "list-1", 3)
	if err != nil {
		t.Fatalf("GetStatus failed: %v", err)
	}
	if !set {
		t.Fatalf("expected bit 3 to be set")
	}
	unset, err := m.GetStatus(ctx, "list-1", 4)
	if err != nil {
		t.Fatalf("GetStatus failed: %v", err)
	}
	if unset {
		t.Fatalf("expected bit 4 to remain unset")
	}
}

func TestConcurrentSetStatusOnSameListSerializes(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()
	if err := m.Initialize(ctx, "list-1", "revocation", 1024); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			if err := m.SetStatus(ctx, "list-1", idx, true, "operator", "bulk revoke"); err != nil {
				t.Errorf("SetStatus(%d) failed: %v", idx, err)
			}
		}(i)
	}
	wg.Wait()
	for i := 0; i < 50; i++ {
		set, err := m.GetStatus(ctx, "list-1", i)
		if err != nil {
			t.Fatalf("GetStatus(%d) failed: %v", i, err)
		}
		if !set {
			t.Fatalf("expected bit %d to be set after concurrent writers", i)
		}
	}
}

func newTestLocalKMS(t *testing.T) *kms.Local {
	t.Helper()
	master := make([]byte, 32)
	if _, err := rand.Read(master); err != nil {
		t.Fatalf("rand.Read failed: %v", err)
	}
	l, err := kms.NewLocal(master, "")
	if err != nil {
		t.Fatalf("NewLocal failed: %v", err)
	}
	return l
}

func multibaseEd25519(pub []byte) string {
	prefixed := append([]byte{0xed, 0x01}, pub...)
	return "z" + base58.Encode(prefixed)
}

func TestPublishIssuesStatusListCredential(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()
	if err := m.Initialize(ctx, "list-1", "revocation", 16); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if err := m.SetStatus(ctx, "list-1", 2, true, "operator", "revoked"); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}

	l := newTestLocalKMS(t)
	ref, err := l.Create(ctx, ourcrypto.AlgEd25519)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	pub, err := l.PublicKey(ctx, ref)
	if err != nil {
		t.Fatalf("PublicKey failed: %v", err)
	}
	issuerDID := "did:key:" + multibaseEd25519(pub.KeyMaterial)

	cred, err := m.Publish(ctx, l, "list-1", PublishParams{
		IssuerDID:                  issuerDID,
		KeyRef:                     ref,
		VerificationMethodFragment: "keys-1",
	})
	if err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if cred.Proof == nil {
		t.Fatalf("expected published credential to carry a proof")
	}
	encodedList, ok := cred.CredentialSubject["encodedList"].(string)
	if !ok || encodedList == "" {
		t.Fatalf("expected credentialSubject.encodedList to be populated")
	}

	snap, err := m.storage.Load(ctx, "list-1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(snap.LastPublishedCredential) == 0 {
		t.Fatalf("expected last_published_credential to be recorded")
	}
}

func TestIndependentListsDoNotShareLocks(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()
	if err := m.Initialize(ctx, "list-a", "revocation", 8); err != nil {
		t.Fatalf("Initialize list-a failed: %v", err)
	}
	if err := m.Initialize(ctx, "list-b", "revocation", 8); err != nil {
		t.Fatalf("Initialize list-b failed: %v", err)
	}
	if m.lockFor("list-a") == m.lockFor("list-b") {
		t.Fatalf("expected distinct list ids to use distinct locks")
	}
}
