package vc

import (
	"context"
	"time"

	"github.com/jmhodges/clock"

	ourcrypto "github.com/agentrust/trustcore/crypto"
	ourdid "github.com/agentrust/trustcore/did"
	trusterrors "github.com/agentrust/trustcore/errors"
)

// clockSkew is the allowance spec §4.6 grants around issuanceDate.
const clockSkew = 60 * time.Second

// StatusState is the resolved state of a credential's status list entry
// (spec §4.7).
type StatusState string

const (
	StatusActive    StatusState = "active"
	StatusRevoked   StatusState = "revoked"
	StatusSuspended StatusState = "suspended"
	StatusUnknown   StatusState = "unknown"
)

// StatusChecker is consulted for a credential's credentialStatus entry.
type StatusChecker interface {
	Check(ctx context.Context, entry StatusEntry) (StatusState, error)
}

// Checks records which verification stages passed (spec §4.6 output).
type Checks struct {
	Structural    bool
	Temporal      bool
	Signature     bool
	Status        bool
	IssuerTrusted bool
}

// Result is the output of Verify (spec §4.6).
type Result struct {
	Valid  bool
	Errors []trusterrors.Kind
	Checks Checks
}

func (r *Result) fail(kind trusterrors.Kind) {
	r.Valid = false
	r.Errors = append(r.Errors, kind)
}

// Verify checks a credential's structure, temporal validity, issuer
// resolvability, signature, and (if present) status (spec §4.6).
// FailClosed controls behavior when the status list cannot be reached;
// per spec §4.6 the default policy is fail-closed.
func Verify(ctx context.Context, resolver ourdid.Resolver, statusChecker StatusChecker, clk clock.Clock, cred *Credential, failClosed bool) (Result, error) {
	if clk == nil {
		clk = clock.New()
	}
	result := Result{Valid: true}

	if err := cred.validateStructure(); err != nil {
		result.fail(trusterrors.MalformedCredential)
		return result, nil
	}
	result.Checks.Structural = true

	now := clk.Now()
	if now.Before(cred.IssuanceDate.Add(-clockSkew)) {
		result.fail(trusterrors.NotYetValid)
	} else if cred.ExpirationDate != nil && now.After(cred.ExpirationDate.Add(clockSkew)) {
		result.fail(trusterrors.Expired)
	} else {
		result.Checks.Temporal = true
	}

	did, fragment, ok := ourdid.SplitVerificationMethodID(cred.Proof.VerificationMethod)
	if !ok {
		result.fail(trusterrors.MalformedCredential)
		return result, nil
	}

	resolution, err := resolver.Resolve(ctx, did, ourdid.ResolutionOptions{})
	if err != nil || resolution.DidResolutionMeta.Error != "" || resolution.DidDocument == nil {
		result.fail(trusterrors.IssuerNotResolvable)
		return result, nil
	}

	vm, found := resolution.DidDocument.FindVerificationMethod(cred.Proof.VerificationMethod)
	if !found {
		result.fail(trusterrors.KeyNotFound)
		return result, nil
	}
	_ = fragment

	if !resolution.DidDocument.HasRelationship("assertionMethod", vm.ID) {
		result.fail(trusterrors.PurposeMismatch)
		return result, nil
	}
	result.Checks.IssuerTrusted = true

	alg, pubKey, err := extractPublicKey(*vm)
	if err != nil {
		result.fail(trusterrors.KeyNotFound)
		return result, nil
	}

	parsed, err := parseDetachedJWS(cred.Proof.Jws)
	if err != nil {
		result.fail(trusterrors.InvalidSignature)
		return result, nil
	}
	if parsed.alg != alg {
		result.fail(trusterrors.InvalidSignature)
		return result, nil
	}

	unsignedCopy := *cred
	unsignedCopy.Proof = nil
	digest, err := digestCredential(&unsignedCopy)
	if err != nil {
		result.fail(trusterrors.MalformedCredential)
		return result, nil
	}
	signingInput := parsed.signingInput(digest)

	if !ourcrypto.Verify(alg, pubKey, signingInput, parsed.signature) {
		result.fail(trusterrors.InvalidSignature)
		return result, nil
	}
	result.Checks.Signature = true

	if cred.CredentialStatus != nil && statusChecker != nil {
		state, serr := statusChecker.Check(ctx, *cred.CredentialStatus)
		if serr != nil {
			if failClosed {
				result.fail(trusterrors.StatusUnavailable)
				return result, nil
			}
		} else {
			switch state {
			case StatusRevoked:
				result.fail(trusterrors.Revoked)
				return result, nil
			case StatusSuspended:
				result.fail(trusterrors.Suspended)
				return result, nil
			case StatusUnknown:
				if failClosed {
					result.fail(trusterrors.StatusUnavailable)
					return result, nil
				}
			}
		}
	}
	result.Checks.Status = true

	return result, nil
}
