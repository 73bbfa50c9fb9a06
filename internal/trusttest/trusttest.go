// Package trusttest provides fixed test key material and assertion
// helpers shared by this module's package tests, in the shape of the
// teacher codebase's test package (test.AssertNotError, test.Assert).
package trusttest

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/require"
)

// AssertNotError fails the test if err is non-nil, in the teacher's
// test.AssertNotError idiom.
func AssertNotError(t *testing.T, err error, msg string) {
	t.Helper()
	require.NoError(t, err, msg)
}

// Assert fails the test if cond is false.
func Assert(t *testing.T, cond bool, msg string) {
	t.Helper()
	require.True(t, cond, msg)
}

// AssertEquals fails the test if expected != actual.
func AssertEquals(t *testing.T, expected, actual interface{}, msg string) {
	t.Helper()
	require.Equal(t, expected, actual, msg)
}

// FixedEd25519Seed is a deterministic 32-byte seed used across package
// tests that need reproducible Ed25519 key material.
var FixedEd25519Seed = []byte(
	"trustcore-fixed-test-seed-ed25519",
)[:32]

// Ed25519KeyPair returns a deterministic Ed25519 keypair for tests.
func Ed25519KeyPair(t *testing.T) (ed25519.PublicKey, ed25519.PrivateKey) {
	t.Helper()
	priv := ed25519.NewKeyFromSeed(FixedEd25519Seed)
	return priv.Public().(ed25519.PublicKey), priv
}
