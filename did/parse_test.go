package did

import "testing"

func TestSplitMethodSpecificID(t *testing.T) {
	method, msi, ok := SplitMethodSpecificID("did:web:example.com:users:alice")
	if !ok {
		t.Fatalf("expected ok")
	}
	if method != "web" || msi != "example.com:users:alice" {
		t.Fatalf("unexpected split: method=%s msi=%s", method, msi)
	}
}

func TestSplitMethodSpecificIDRejectsMalformed(t *testing.T) {
	cases := []string{"", "not-a-did", "did:", "did:web"}
	for _, c := range cases {
		if _, _, ok := SplitMethodSpecificID(c); ok {
			t.Fatalf("expected not-ok for %q", c)
		}
	}
}

func TestSplitVerificationMethodID(t *testing.T) {
	did, fragment, ok := SplitVerificationMethodID("did:key:z6Mk#key-1")
	if !ok {
		t.Fatalf("expected ok")
	}
	if did != "did:key:z6Mk" || fragment != "key-1" {
		t.Fatalf("unexpected split: did=%s fragment=%s", did, fragment)
	}
}

func TestSplitVerificationMethodIDRejectsMissingFragment(t *testing.T) {
	if _, _, ok := SplitVerificationMethodID("did:key:z6Mk"); ok {
		t.Fatalf("expected not-ok without a fragment")
	}
}
