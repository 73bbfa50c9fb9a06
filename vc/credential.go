// Package vc implements W3C Verifiable Credential issuance and
// verification (spec §4.6): RFC 8785 canonicalization feeds a detached
// JWS proof, signed and checked through the module's own crypto and KMS
// packages rather than go-jose's built-in algorithm dispatch, since the
// signing key never leaves the KMS provider and the secp256k1 algorithm
// label this module uses (ES256K) isn't a registered JOSE algorithm.
package vc

import (
	"encoding/json"
	"time"

	trusterrors "github.com/agentrust/trustcore/errors"
)

const contextURL = "https://www.w3.org/2018/credentials/v1"

// Issuer is a DID or, per spec §3, a {id: DID} object. It round-trips
// through JSON as whichever form it was read in, defaulting to the bare
// DID string form when constructed directly.
type Issuer struct {
	ID         string
	ObjectForm bool
}

func (i Issuer) MarshalJSON() ([]byte, error) {
	if i.ObjectForm {
		return json.Marshal(struct {
			ID string `json:"id"`
		}{ID: i.ID})
	}
	return json.Marshal(i.ID)
}

func (i *Issuer) UnmarshalJSON(data []byte) error {
	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		i.ID = asString
		i.ObjectForm = false
		return nil
	}
	var asObject struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &asObject); err != nil {
		return trusterrors.MalformedCredentialError("issuer must be a DID string or {id: DID}: %v", err)
	}
	i.ID = asObject.ID
	i.ObjectForm = true
	return nil
}

// StatusEntry is the credentialStatus object embedded in a credential
// (spec §3 Status Entry).
type StatusEntry struct {
	ID                   string `json:"id"`
	Type                 string `json:"type"`
	StatusPurpose        string `json:"statusPurpose"`
	StatusListIndex      string `json:"statusListIndex"`
	StatusListCredential string `json:"statusListCredential"`
}

// Proof carries the detached-JWS signature over a credential (spec §3,
// §4.6).
type Proof struct {
	Type               string    `json:"type"`
	Created            time.Time `json:"created"`
	VerificationMethod string    `json:"verificationMethod"`
	ProofPurpose       string    `json:"proofPurpose"`
	Jws                string    `json:"jws"`
}

// Credential is a W3C Verifiable Credential (Data Model 1.1, spec §3).
type Credential struct {
	Context           []string               `json:"@context"`
	ID                string                 `json:"id,omitempty"`
	Type              []string               `json:"type"`
	Issuer            Issuer                 `json:"issuer"`
	IssuanceDate      time.Time              `json:"issuanceDate"`
	ExpirationDate    *time.Time             `json:"expirationDate,omitempty"`
	CredentialSubject map[string]interface{} `json:"credentialSubject"`
	CredentialStatus  *StatusEntry           `json:"credentialStatus,omitempty"`
	Proof             *Proof                 `json:"proof,omitempty"`
}

// validateStructure checks the spec §3 Verifiable Credential invariants
// that don't require cryptographic or network work.
func (c *Credential) validateStructure() error {
	hasBaseType := false
	for _, t := range c.Type {
		if t == "VerifiableCredential" {
			hasBaseType = true
			break
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
	if c.Proof == nil {
		return trusterrors.MalformedCredentialError("proof is required")
	}
	return nil
}

// withoutProof returns a shallow copy of c with Proof cleared, for
// canonicalization of the signing input (spec §4.6: "canonicalize the VC
// without its proof").
func (c *Credential) withoutProof() *Credential {
	cp := *c
	cp.Proof = nil
	return &cp
}
