// Package didethr implements the did:ethr method (spec §4.4): an
// Ethereum address identifies the DID subject; the default DID Document
// has a single EcdsaSecp256k1RecoveryMethod2020 verification method.
// An optional ERC-1056 registry endpoint may be consulted for
// delegate/attribute overrides; absent that, the default document is
// returned.
package didethr

import (
	"context"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/jmhodges/clock"
	"golang.org/x/crypto/sha3"

	ourdid "github.com/agentrust/trustcore/did"
)

// DefaultChainID is used when the DID omits an explicit network segment
// (did:ethr:<0x-address>, mainnet).
const DefaultChainID = "1"

// networkChainIDs maps the common named networks Boulder-adjacent
// tooling and the ERC-1056 spec use to their EIP-155 chain ids.
var networkChainIDs = map[string]string{
	"mainnet": "1",
	"ropsten": "3",
	"rinkeby": "4",
	"goerli":  "5",
	"sepolia": "11155111",
}

// RegistryResolver is the optional ERC-1056 registry lookup a caller may
// supply; absent, the default document is returned (spec §4.4).
type RegistryResolver interface {
	Resolve(ctx context.Context, address string, chainID string) (*ourdid.Document, error)
}

// Resolver implements did.Resolver for did:ethr.
type Resolver struct {
	Clock    clock.Clock
	Registry RegistryResolver // optional
}

// New builds a did:ethr resolver with no registry override.
func New() *Resolver {
	return &Resolver{Clock: clock.New()}
}

func (r *Resolver) clk() clock.Clock {
	if r.Clock != nil {
		return r.Clock
	}
	return clock.New()
}

func (r *Resolver) Resolve(ctx context.Context, didURL string, options ourdid.ResolutionOptions) (ourdid.ResolutionResult, error) {
	start := r.clk().Now()

	method, msi, ok := ourdid.SplitMethodSpecificID(didURL)
	if !ok || method != "ethr" {
		return errResult(r.clk(), start, ourdid.ErrorInvalidDid), nil
	}

	network, address, ok := splitNetworkAddress(msi)
	if !ok {
		return errResult(r.clk(), start, ourdid.ErrorInvalidDid), nil
	}
	if !validAddressChecksum(address) {
		return errResult(r.clk(), start, ourdid.ErrorInvalidDid), nil
	}

	chainID, ok := resolveChainID(network)
	if !ok {
		return errResult(r.clk(), start, ourdid.ErrorInvalidDid), nil
	}

	if r.Registry != nil {
		doc, err := r.Registry.Resolve(ctx, address, chainID)
		if err != nil {
			return errResult(r.clk(), start, ourdid.ErrorInternalError), nil
		}
		if doc != nil {
			return ourdid.ResolutionResult{
				DidDocument: doc,
				DidResolutionMeta: ourdid.ResolutionMetadata{
					ContentType: "application/did+json",
					Retrieved:   r.clk().Now(),
					Duration:    r.clk().Now().Sub(start),
				},
			}, nil
		}
	}

	vmID := didURL + "#controller"
	doc := &ourdid.Document{
		Context: []string{"https://www.w3.org/ns/did/v1"},
		ID:      didURL,
		VerificationMethod: []ourdid.VerificationMethod{
			{
				ID:                  vmID,
				Type:                "EcdsaSecp256k1RecoveryMethod2020",
				Controller:          didURL,
				BlockchainAccountID: "eip155:" + chainID + ":" + address,
			},
		},
		Authentication:  []string{vmID},
		AssertionMethod: []string{vmID},
	}

	return ourdid.ResolutionResult{
		DidDocument: doc,
		DidResolutionMeta: ourdid.ResolutionMetadata{
			ContentType: "application/did+json",
			Retrieved:   r.clk().Now(),
			Duration:    r.clk().Now().Sub(start),
		},
	}, nil
}

// splitNetworkAddress separates an optional "<network>:" prefix from the
// trailing 0x-address (spec §4.4: "did:ethr:[<network>:]<0x-address>").
func splitNetworkAddress(msi string) (network, address string, ok bool) {
	idx := strings.LastIndex(msi, ":")
	if idx < 0 {
		return "", msi, isHexAddress(msi)
	}
	network = msi[:idx]
	address = msi[idx+1:]
	return network, address, isHexAddress(address)
}

func isHexAddress(s string) bool {
	if !strings.HasPrefix(s, "0x") || len(s) != 42 {
		return false
	}
	_, err := hex.DecodeString(s[2:])
	return err == nil
}

func resolveChainID(network string) (string, bool) {
	if network == "" {
		return DefaultChainID, true
	}
	if id, ok := networkChainIDs[network]; ok {
		return id, true
	}
	if _, err := strconv.Atoi(network); err == nil {
		return network, true
	}
	return "", false
}

// validAddressChecksum accepts either an all-lowercase address or one
// satisfying the EIP-55 mixed-case checksum (spec §4.4).
func validAddressChecksum(address string) bool {
	body := address[2:]
	if body == strings.ToLower(body) {
		return true
	}
	return body == eip55Checksum(body)
}

// eip55Checksum implements EIP-55: keccak256 of the lowercase address
// hex determines, per hex digit, whether the corresponding address
// character is upper- or lower-cased.
func eip55Checksum(lowerBody string) string {
	lower := strings.ToLower(lowerBody)
	hash := sha3.NewLegacyKeccak256()
	hash.Write([]byte(lower))
	digest := hash.Sum(nil)

	var b strings.Builder
	for i, c := range lower {
		if c >= '0' && c <= '9' {
			b.WriteRune(c)
			continue
		}
		nibbleIndex := i / 2
		var nibble byte
		if i%2 == 0 {
			nibble = digest[nibbleIndex] >> 4
		} else {
			nibble = digest[nibbleIndex] & 0x0f
		}
		if nibble >= 8 {
			b.WriteRune(c - 32) // to upper
		} else {
			b.WriteRune(c)
		}
	}
	return b.String()
}

func errResult(clk clock.Clock, start time.Time, kind ourdid.ErrorKind) ourdid.ResolutionResult {
	return ourdid.ResolutionResult{
		DidResolutionMeta: ourdid.ResolutionMetadata{
			Retrieved: clk.Now(),
			Duration:  clk.Now().Sub(start),
			Error:     kind,
		},
	}
}
