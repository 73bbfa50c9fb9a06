package bitstring

import (
	"testing"

	trusterrors "github.com/agentrust/trustcore/errors"
)

func TestGetSetBoundaries(t *testing.T) {
	b := New(128)
	if err := b.Set(0, true); err != nil {
		t.Fatalf("Set(0) failed: %v", err)
	}
	if err := b.Set(127, true); err != nil {
		t.Fatalf("Set(127) failed: %v", err)
	}
	v, err := b.Get(0)
	if err != nil || !v {
		t.Fatalf("Get(0) = %v, %v; want true, nil", v, err)
	}
	v, err = b.Get(127)
	if err != nil || !v {
		t.Fatalf("Get(127) = %v, %v; want true, nil", v, err)
	}

	if _, err := b.Get(128); !trusterrors.Is(err, trusterrors.IndexOutOfRange) {
		t.Fatalf("expected IndexOutOfRange at length, got %v", err)
	}
	if err := b.Set(-1, true); !trusterrors.Is(err, trusterrors.IndexOutOfRange) {
		t.Fatalf("expected IndexOutOfRange for negative index, got %v", err)
	}
}

func TestRoundTrip(t *testing.T) {
	b := New(DefaultLength)
	for _, idx := range []int{0, 1, 7, 8, 500, DefaultLength - 1} {
		if err := b.Set(idx, true); err != nil {
			t.Fatalf("Set(%d) failed: %v", idx, err)
		}
	}
	encoded, err := b.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	decoded, err := Decode(encoded, DefaultLength)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !b.Equal(decoded) {
		t.Fatalf("round trip did not preserve bitstring contents")
	}
}

func TestEmptyListCompressedSize(t *testing.T) {
	b := New(DefaultLength)
	encoded, err := b.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if len(encoded) > 200 {
		t.Fatalf("expected empty list encoding <= 200 chars, got %d", len(encoded))
	}
	decoded, err := Decode(encoded, DefaultLength)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if decoded.Popcount() != 0 {
		t.Fatalf("expected empty list to have popcount 0, got %d", decoded.Popcount())
	}
}

func TestDecodeRejectsLengthMismatch(t *testing.T) {
	b := New(128)
	encoded, err := b.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if _, err := Decode(encoded, 256); !trusterrors.Is(err, trusterrors.InvalidStatusList) {
		t.Fatalf("expected InvalidStatusList for length mismatch, got %v", err)
	}
}

func TestPopcount(t *testing.T) {
	b := New(64)
	indices := []int{1, 2, 3, 63}
	for _, idx := range indices {
		_ = b.Set(idx, true)
	}
	if got := b.Popcount(); got != uint64(len(indices)) {
		t.Fatalf("Popcount() = %d, want %d", got, len(indices))
	}
}
