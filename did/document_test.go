package did

import "testing"

func sampleDocument() *Document {
	return &Document{
		ID: "did:key:z6Mk",
		VerificationMethod: []VerificationMethod{
			{ID: "did:key:z6Mk#z6Mk", Type: "Ed25519VerificationKey2020", Controller: "did:key:z6Mk"},
		},
		Authentication:  []string{"did:key:z6Mk#z6Mk"},
		AssertionMethod: []string{"did:key:z6Mk#z6Mk"},
	}
}

func TestFindVerificationMethod(t *testing.T) {
	doc := sampleDocument()
	vm, ok := doc.FindVerificationMethod("did:key:z6Mk#z6Mk")
	if !ok {
		t.Fatalf("expected to find verification method")
	}
	if vm.Type != "Ed25519VerificationKey2020" {
		t.Fatalf("unexpected type: %s", vm.Type)
	}
	if _, ok := doc.FindVerificationMethod("did:key:z6Mk#missing"); ok {
		t.Fatalf("expected not to find a missing verification method")
	}
}

func TestHasRelationship(t *testing.T) {
	doc := sampleDocument()
	if !doc.HasRelationship("authentication", "did:key:z6Mk#z6Mk") {
		t.Fatalf("expected authentication relationship to hold")
	}
	if doc.HasRelationship("keyAgreement", "did:key:z6Mk#z6Mk") {
		t.Fatalf("expected no keyAgreement relationship")
	}
	if doc.HasRelationship("authentication", "did:key:z6Mk#other") {
		t.Fatalf("expected relationship check to fail for unrelated id")
	}
}
