// Package didkey implements the did:key method (spec §4.4): a
// stateless, self-certifying DID whose method-specific-id is a
// multibase/multicodec-encoded public key. No network I/O is ever
// performed; resolution is pure decoding.
package didkey

import (
	"context"
	"time"

	"github.com/jmhodges/clock"

	ourdid "github.com/agentrust/trustcore/did"
)

// Resolver implements did.Resolver for did:key.
type Resolver struct {
	Clock clock.Clock
}

// New builds a did:key resolver using the real wall clock.
func New() *Resolver {
	return &Resolver{Clock: clock.New()}
}

func (r *Resolver) clk() clock.Clock {
	if r.Clock != nil {
		return r.Clock
	}
	return clock.New()
}

// Resolve decodes didURL into a DID Document. It never performs network
// I/O; duration still reflects measured elapsed time (spec §4.4: "never
// report zero").
func (r *Resolver) Resolve(ctx context.Context, didURL string, options ourdid.ResolutionOptions) (ourdid.ResolutionResult, error) {
	start := r.clk().Now()

	method, msi, ok := ourdid.SplitMethodSpecificID(didURL)
	if !ok || method != "key" {
		return errResult(r.clk(), start, ourdid.ErrorInvalidDid), nil
	}
	if len(msi) == 0 || msi[0] != 'z' {
		return errResult(r.clk(), start, ourdid.ErrorInvalidDid), nil
	}

	vmType, rawKey, rerr := ourdid.DecodePublicKeyMultibase(msi)
	if rerr != nil {
		return errResult(r.clk(), start, ourdid.ErrorInvalidDid), nil
	}

	vmID := didURL + "#" + msi
	doc := &ourdid.Document{
		Context: []string{"https://www.w3.org/ns/did/v1"},
		ID:      didURL,
		VerificationMethod: []ourdid.VerificationMethod{
			{
				ID:                 vmID,
				Type:               vmType,
				Controller:         didURL,
				PublicKeyMultibase: msi,
			},
		},
		Authentication:  []string{vmID},
		AssertionMethod: []string{vmID},
	}
	_ = rawKey

	elapsed := r.clk().Now().Sub(start)
	if elapsed <= 0 {
		elapsed = time.Nanosecond
	}
	return ourdid.ResolutionResult{
		DidDocument: doc,
		DidResolutionMeta: ourdid.ResolutionMetadata{
			ContentType: "application/did+json",
			Retrieved:   r.clk().Now(),
			Duration:    elapsed,
		},
	}, nil
}

func errResult(clk clock.Clock, start time.Time, kind ourdid.ErrorKind) ourdid.ResolutionResult {
	elapsed := clk.Now().Sub(start)
	if elapsed <= 0 {
		elapsed = time.Nanosecond
	}
	return ourdid.ResolutionResult{
		DidResolutionMeta: ourdid.ResolutionMetadata{
			Retrieved: clk.Now(),
			Duration:  elapsed,
			Error:     kind,
		},
	}
}
