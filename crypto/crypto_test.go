package crypto

import (
	"crypto/sha256"
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/agentrust/trustcore/internal/trusttest"
)

func TestCanonicalizeSortsKeysAndStripsWhitespace(t *testing.T) {
	in := []byte(`{ "b": 2, "a": 1, "c": { "z": true, "y": false } }`)
	out, err := Canonicalize(in)
	if err != nil {
		t.Fatalf("Canonicalize failed: %v", err)
	}
	want := `{"a":1,"b":2,"c":{"y":false,"z":true}}`
	if string(out) != want {
		t.Fatalf("got %s, want %s", out, want)
	}
}

func TestCanonicalizeIsIdempotent(t *testing.T) {
	in := []byte(`{"nested":{"arr":[3,1,2],"num":1.50,"s":"hié"},"top":null}`)
	once, err := Canonicalize(in)
	if err != nil {
		t.Fatalf("first canonicalize failed: %v", err)
	}
	twice, err := Canonicalize(once)
	if err != nil {
		t.Fatalf("second canonicalize failed: %v", err)
	}
	if string(once) != string(twice) {
		t.Fatalf("canonicalization not idempotent: %s vs %s", once, twice)
	}
}

func TestCanonicalizeNumberForms(t *testing.T) {
	cases := map[string]string{
		`1`:    "1",
		`1.0`:  "1",
		`-0`:   "0",
		`100`:  "100",
		`1.5`:  "1.5",
	}
	for in, want := range cases {
		out, err := Canonicalize([]byte(in))
		if err != nil {
			t.Fatalf("Canonicalize(%s) failed: %v", in, err)
		}
		if string(out) != want {
			t.Fatalf("Canonicalize(%s) = %s, want %s", in, out, want)
		}
	}
}

func TestEd25519SignVerifyRoundTrip(t *testing.T) {
	pub, priv := trusttest.Ed25519KeyPair(t)

	msg := []byte("hello trust core")
	sig, err := Sign(AlgEd25519, priv, msg)
	trusttest.AssertNotError(t, err, "Sign failed")
	trusttest.AssertEquals(t, ed25519SigLen, len(sig), "unexpected signature length")
	trusttest.Assert(t, Verify(AlgEd25519, pub, msg, sig), "expected signature to verify")
	trusttest.Assert(t, !Verify(AlgEd25519, pub, []byte("tampered"), sig), "expected signature over different message to fail")
}

func TestEd25519VerifyNeverPanicsOnGarbage(t *testing.T) {
	if Verify(AlgEd25519, []byte("short"), []byte("msg"), []byte("also-short")) {
		t.Fatalf("expected malformed input to fail verification, not succeed")
	}
}

func TestSecp256k1SignVerifyRoundTrip(t *testing.T) {
	seed := sha256.Sum256([]byte("secp256k1-test-seed"))
	priv := secp256k1.PrivKeyFromBytes(seed[:])
	pub := priv.PubKey()

	msg := []byte("hello trust core")
	sig, err := Sign(AlgSecp256k1, priv.Serialize(), msg)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	if len(sig) != secp256k1SigLen {
		t.Fatalf("expected %d byte signature, got %d", secp256k1SigLen, len(sig))
	}
	if !Verify(AlgSecp256k1, pub.SerializeCompressed(), msg, sig) {
		t.Fatalf("expected signature to verify")
	}
	if Verify(AlgSecp256k1, pub.SerializeCompressed(), []byte("tampered"), sig) {
		t.Fatalf("expected signature over different message to fail")
	}
}

func TestDigestSHA256(t *testing.T) {
	got := DigestSHA256([]byte("abc"))
	want := sha256.Sum256([]byte("abc"))
	if string(got) != string(want[:]) {
		t.Fatalf("digest mismatch")
	}
}
