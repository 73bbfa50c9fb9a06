package vc

import (
	"context"
	"time"

	"github.com/jmhodges/clock"

	ourcrypto "github.com/agentrust/trustcore/crypto"
	trusterrors "github.com/agentrust/trustcore/errors"
	"github.com/agentrust/trustcore/kms"
)

// IssueParams is the input to Issue (spec §4.6 "Issue").
type IssueParams struct {
	IssuerDID                  string
	SubjectClaims               map[string]interface{}
	Types                       []string
	Expiration                  *time.Time
	StatusEntry                 *StatusEntry
	KeyRef                      kms.KeyRef
	VerificationMethodFragment  string // appended to IssuerDID as "#fragment"
	CredentialID                string
}

// Issue builds, canonicalizes, digests, and signs a new Verifiable
// Credential (spec §4.6).
func Issue(ctx context.Context, provider kms.Provider, clk clock.Clock, params IssueParams) (*Credential, error) {
	if clk == nil {
		clk = clock.New()
	}
	if params.IssuerDID == "" {
		return nil, trusterrors.MalformedInputError("issuer_did is required")
	}
	if params.KeyRef == "" {
		return nil, trusterrors.MalformedInputError("kms key reference is required")
	}
	if params.VerificationMethodFragment == "" {
		return nil, trusterrors.MalformedInputError("verification method fragment is required")
	}

	types := append([]string{"VerifiableCredential"}, filterOutBaseType(params.Types)...)

	cred := &Credential{
		Context:           []string{contextURL},
		ID:                params.CredentialID,
		Type:              types,
		Issuer:            Issuer{ID: params.IssuerDID},
		IssuanceDate:      clk.Now().UTC(),
		ExpirationDate:    params.Expiration,
		CredentialSubject: params.SubjectClaims,
		CredentialStatus:  params.StatusEntry,
	}

	unsignedCopy := *cred
	unsignedCopy.Proof = nil
	if err := validateUnsigned(&unsignedCopy); err != nil {
		return nil, err
	}

	pubKey, err := provider.PublicKey(ctx, params.KeyRef)
	if err != nil {
		return nil, err
	}

	digest, err := digestCredential(&unsignedCopy)
	if err != nil {
		return nil, err
	}

	vmID := params.IssuerDID + "#" + params.VerificationMethodFragment
	jws, err := buildDetachedJWS(pubKey.Algorithm, digest, func(message []byte) ([]byte, error) {
		result, serr := provider.Sign(ctx, params.KeyRef, message)
		if serr != nil {
			return nil, serr
		}
		return result.Signature, nil
	})
	if err != nil {
		return nil, err
	}

	cred.Proof = &Proof{
		Type:               proofTypeFor(pubKey.Algorithm),
		Created:             clk.Now().UTC(),
		VerificationMethod:  vmID,
		ProofPurpose:        "assertionMethod",
		Jws:                 jws,
	}
	return cred, nil
}

func proofTypeFor(alg ourcrypto.Algorithm) string {
	switch alg {
	case ourcrypto.AlgEd25519:
		return "Ed25519Signature2020"
	case ourcrypto.AlgSecp256k1:
		return "EcdsaSecp256k1Signature2019"
	default:
		return "JsonWebSignature2020"
	}
}

func filterOutBaseType(types []string) []string {
	out := make([]string, 0, len(types))
	for _, t := range types {
		if t != "VerifiableCredential" {
			out = append(out, t)
		}
	}
	return out
}

// validateUnsigned checks the structural invariants that hold before a
// proof is attached.
func validateUnsigned(c *Credential) error {
	hasBaseType := false
	for _, t := range c.Type {
		if t == "VerifiableCredential" {
			hasBaseType = true
		}
	}
	if !hasBaseType {
		return trusterrors.MalformedCredentialError("type must contain VerifiableCredential")
	}
	if c.Issuer.ID == "" {
		return trusterrors.MalformedCredentialError("issuer must be a non-empty DID")
	}
	if c.IssuanceDate.IsZero() {
		return trusterrors.MalformedCredentialError("issuanceDate is required")
	}
	if c.ExpirationDate != nil && !c.ExpirationDate.After(c.IssuanceDate) {
		return trusterrors.MalformedCredentialError("expirationDate must be after issuanceDate")
	}
	if c.CredentialSubject == nil {
		return trusterrors.MalformedCredentialError("credentialSubject is required")
	}
	return nil
}
