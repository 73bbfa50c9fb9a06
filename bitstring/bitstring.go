// Package bitstring implements the compressed bit-array codec behind
// Status List 2021 (spec §4.3): a fixed-length boolean array, encoded to
// the wire as base64url(gzip(bytes)), where bytes[i] bit (i mod 8) of
// byte i/8 holds the status of index i, low bit first (spec §6).
package bitstring

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"io"

	trusterrors "github.com/agentrust/trustcore/errors"
)

// DefaultLength is the default Status List 2021 length in bits
// (131,072 bits = 16 KiB uncompressed).
const DefaultLength = 131072

// Bitstring is a fixed-length boolean array.
type Bitstring struct {
	bits   []byte
	length int
}

// New allocates a zeroed Bitstring of the given length in bits.
func New(length int) *Bitstring {
	return &Bitstring{
		bits:   make([]byte, (length+7)/8),
		length: length,
	}
}

// Len returns the bitstring's logical length in bits.
func (b *Bitstring) Len() int {
	return b.length
}

// Get returns the value of the bit at index.
func (b *Bitstring) Get(index int) (bool, error) {
	if index < 0 || index >= b.length {
		return false, trusterrors.IndexOutOfRangeError("index %d out of range [0,%d)", index, b.length)
	}
	byteIdx, bitIdx := index/8, uint(index%8)
	return b.bits[byteIdx]&(1<<bitIdx) != 0, nil
}

// Set sets the bit at index to value.
func (b *Bitstring) Set(index int, value bool) error {
	if index < 0 || index >= b.length {
		return trusterrors.IndexOutOfRangeError("index %d out of range [0,%d)", index, b.length)
	}
	byteIdx, bitIdx := index/8, uint(index%8)
	if value {
		b.bits[byteIdx] |= 1 << bitIdx
	} else {
		b.bits[byteIdx] &^= 1 << bitIdx
	}
	return nil
}

// Popcount returns the number of set bits.
func (b *Bitstring) Popcount() uint64 {
	var count uint64
	for _, byt := range b.bits {
		count += uint64(popcountByte(byt))
	}
	return count
}

func popcountByte(b byte) int {
	n := 0
	for b != 0 {
		n += int(b & 1)
		b >>= 1
	}
	return n
}

// Encode gzips the raw byte representation and base64url-encodes it
// (no padding), the Status List 2021 `encodedList` wire form.
func (b *Bitstring) Encode() (string, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(b.bits); err != nil {
		return "", trusterrors.InternalErrorf("gzip write failed: %v", err)
	}
	if err := gz.Close(); err != nil {
		return "", trusterrors.InternalErrorf("gzip close failed: %v", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf.Bytes()), nil
}

// Decode reverses Encode, verifying that the decompressed length matches
// the expected bit length exactly (spec §4.3: otherwise InvalidStatusList).
func Decode(encoded string, expectedLength int) (*Bitstring, error) {
	compressed, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		// Some publishers may include padding; fall back to standard
		// base64url before giving up.
		compressed, err = base64.URLEncoding.DecodeString(encoded)
		if err != nil {
			return nil, trusterrors.InvalidStatusListError("invalid base64url encoding: %v", err)
		}
	}
	gz, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, trusterrors.InvalidStatusListError("invalid gzip stream: %v", err)
	}
	defer gz.Close()
	raw, err := io.ReadAll(gz)
	if err != nil {
		return nil, trusterrors.InvalidStatusListError("gzip decompression failed: %v", err)
	}
	wantBytes := (expectedLength + 7) / 8
	if len(raw) != wantBytes {
		return nil, trusterrors.InvalidStatusListError(
			"decompressed length %d does not match expected length %d bytes for %d bits", len(raw), wantBytes, expectedLength)
	}
	return &Bitstring{bits: raw, length: expectedLength}, nil
}

// Equal reports whether two bitstrings have the same length and bits.
func (b *Bitstring) Equal(other *Bitstring) bool {
	if other == nil || b.length != other.length {
		return false
	}
	return bytes.Equal(b.bits, other.bits)
}

// Clone returns a deep copy.
func (b *Bitstring) Clone() *Bitstring {
	cp := make([]byte, len(b.bits))
	copy(cp, b.bits)
	return &Bitstring{bits: cp, length: b.length}
}
