package vc

import (
	"context"
	"crypto/rand"
	"testing"
	"time"

	"github.com/jmhodges/clock"
	"github.com/mr-tron/base58"

	ourcrypto "github.com/agentrust/trustcore/crypto"
	ourdid "github.com/agentrust/trustcore/did"
	trusterrors "github.com/agentrust/trustcore/errors"
	"github.com/agentrust/trustcore/kms"
)

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

type fakeResolver struct {
	doc *ourdid.Document
}

func (f *fakeResolver) Resolve(ctx context.Context, didURL string, options ourdid.ResolutionOptions) (ourdid.ResolutionResult, error) {
	if f.doc == nil || f.doc.ID != didURL {
		return ourdid.ResolutionResult{DidResolutionMeta: ourdid.ResolutionMetadata{Error: ourdid.ErrorNotFound}}, nil
	}
	return ourdid.ResolutionResult{DidDocument: f.doc}, nil
}

func issuerSetup(t *testing.T) (*kms.Local, kms.KeyRef, *fakeResolver, string) {
	t.Helper()
	l := newTestLocalKMS(t)
	ref, err := l.Create(context.Background(), ourcrypto.AlgEd25519)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	pub, err := l.PublicKey(context.Background(), ref)
	if err != nil {
		t.Fatalf("PublicKey failed: %v", err)
	}
	issuerDID := "did:key:" + multibaseEd25519(pub.KeyMaterial)
	vmID := issuerDID + "#keys-1"
	doc := &ourdid.Document{
		ID: issuerDID,
		VerificationMethod: []ourdid.VerificationMethod{
			{ID: vmID, Type: "Ed25519VerificationKey2020", Controller: issuerDID, PublicKeyMultibase: multibaseEd25519(pub.KeyMaterial)},
		},
		AssertionMethod: []string{vmID},
	}
	return l, ref, &fakeResolver{doc: doc}, issuerDID
}

func TestIssueAndVerifyRoundTrip(t *testing.T) {
	l, ref, resolver, issuerDID := issuerSetup(t)
	clk := clock.NewFake()

	cred, err := Issue(context.Background(), l, clk, IssueParams{
		IssuerDID:                  issuerDID,
		SubjectClaims:              map[string]interface{}{"id": "did:key:zSubject"},
		Types:                      []string{"TrustDeclarationCredential"},
		KeyRef:                     ref,
		VerificationMethodFragment: "keys-1",
	})
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if cred.Proof == nil || cred.Proof.Jws == "" {
		t.Fatalf("expected a proof to be attached")
	}

	result, err := Verify(context.Background(), resolver, nil, clk, cred, true)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if !result.Valid {
		t.Fatalf("expected credential to verify, got errors: %v", result.Errors)
	}
	if !result.Checks.Signature || !result.Checks.Structural || !result.Checks.Temporal || !result.Checks.IssuerTrusted {
		t.Fatalf("expected all non-status checks to pass: %+v", result.Checks)
	}
}

func TestVerifyDetectsTamperedSubject(t *testing.T) {
	l, ref, resolver, issuerDID := issuerSetup(t)
	clk := clock.NewFake()

	cred, err := Issue(context.Background(), l, clk, IssueParams{
		IssuerDID:                  issuerDID,
		SubjectClaims:              map[string]interface{}{"id": "did:key:zSubject"},
		Types:                      []string{"TrustDeclarationCredential"},
		KeyRef:                     ref,
		VerificationMethodFragment: "keys-1",
	})
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	cred.CredentialSubject["id"] = "did:key:zAttacker"

	result, err := Verify(context.Background(), resolver, nil, clk, cred, true)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if result.Valid {
		t.Fatalf("expected tampered credential to fail verification")
	}
	found := false
	for _, e := range result.Errors {
		if e == trusterrors.InvalidSignature {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected InvalidSignature among errors, got %v", result.Errors)
	}
}

func TestIssueRejectsExpirationBeforeIssuance(t *testing.T) {
	l, ref, resolver, issuerDID := issuerSetup(t)
	clk := clock.NewFake()
	past := clk.Now().Add(-time.Hour)

	cred, err := Issue(context.Background(), l, clk, IssueParams{
		IssuerDID:                  issuerDID,
		SubjectClaims:              map[string]interface{}{"id": "did:key:zSubject"},
		Types:                      []string{"TrustDeclarationCredential"},
		Expiration:                 &past,
		KeyRef:                     ref,
		VerificationMethodFragment: "keys-1",
	})
	if err == nil {
		t.Fatalf("expected Issue to reject an expirationDate before issuanceDate, got credential %+v", cred)
	}
}

func TestVerifyRejectsUnresolvableIssuer(t *testing.T) {
	l, ref, _, issuerDID := issuerSetup(t)
	clk := clock.NewFake()
	cred, err := Issue(context.Background(), l, clk, IssueParams{
		IssuerDID:                  issuerDID,
		SubjectClaims:              map[string]interface{}{"id": "did:key:zSubject"},
		Types:                      []string{"TrustDeclarationCredential"},
		KeyRef:                     ref,
		VerificationMethodFragment: "keys-1",
	})
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	emptyResolver := &fakeResolver{}
	result, err := Verify(context.Background(), emptyResolver, nil, clk, cred, true)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if result.Valid {
		t.Fatalf("expected verification to fail against an unresolvable issuer")
	}
	found := false
	for _, e := range result.Errors {
		if e == trusterrors.IssuerNotResolvable {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected IssuerNotResolvable among errors, got %v", result.Errors)
	}
}
