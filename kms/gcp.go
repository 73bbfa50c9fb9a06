package kms

import (
	"context"
	"encoding/pem"

	kmspb "cloud.google.com/go/kms/apiv1/kmspb"
	"google.golang.org/api/googleapi"

	ourcrypto "github.com/agentrust/trustcore/crypto"
	trusterrors "github.com/agentrust/trustcore/errors"
)

// gcpKeyClient is the subset of Google Cloud KMS's client this package
// consumes.
type gcpKeyClient interface {
	AsymmetricSign(ctx context.Context, req *kmspb.AsymmetricSignRequest) (*kmspb.AsymmetricSignResponse, error)
	GetPublicKey(ctx context.Context, req *kmspb.GetPublicKeyRequest) (*kmspb.PublicKey, error)
}

// GcpKms signs through Google Cloud KMS. Keys are named by their full
// resource name (projects/.../locations/.../keyRings/.../cryptoKeys/.../
// cryptoKeyVersions/...), per GCP_PROJECT_ID/GCP_KMS_KEY_NAME (spec §6).
type GcpKms struct {
	client gcpKeyClient
}

// NewGcpKms builds a GcpKms provider from an already-configured client.
func NewGcpKms(client gcpKeyClient) *GcpKms {
	return &GcpKms{client: client}
}

func (g *GcpKms) Sign(ctx context.Context, keyRef KeyRef, message []byte) (SignResult, error) {
	digest := ourcrypto.DigestSHA256(message)
	resp, err := g.client.AsymmetricSign(ctx, &kmspb.AsymmetricSignRequest{
		Name: string(keyRef),
		Digest: &kmspb.Digest{
			Digest: &kmspb.Digest_Sha256{Sha256: digest},
		},
	})
	if err != nil {
		return SignResult{}, wrapGcpErr(err)
	}
	// Cloud KMS's AsymmetricSign returns a DER-encoded signature with no
	// low-S guarantee, same as AWS KMS.
	sig, err := ourcrypto.NormalizeDERSignature(resp.Signature)
	if err != nil {
		return SignResult{}, trusterrors.Wrap(trusterrors.InvalidSignature, err, "decoding Cloud KMS signature")
	}
	return SignResult{
		Signature:          sig,
		Algorithm:          ourcrypto.AlgSecp256k1,
		VerificationMethod: string(keyRef),
		PreHash:            "SHA-256",
	}, nil
}

func (g *GcpKms) PublicKey(ctx context.Context, keyRef KeyRef) (PublicKeyMaterial, error) {
	resp, err := g.client.GetPublicKey(ctx, &kmspb.GetPublicKeyRequest{Name: string(keyRef)})
	if err != nil {
		return PublicKeyMaterial{}, wrapGcpErr(err)
	}
	// Cloud KMS reports the public key as a PEM-encoded X.509
	// SubjectPublicKeyInfo; decode the PEM envelope, then the SPKI
	// envelope, down to the raw SEC1 point.
	block, _ := pem.Decode([]byte(resp.Pem))
	if block == nil {
		return PublicKeyMaterial{}, trusterrors.New(trusterrors.MalformedInput, "Cloud KMS public key is not valid PEM")
	}
	raw, err := ourcrypto.SEC1PublicKeyFromSPKI(block.Bytes)
	if err != nil {
		return PublicKeyMaterial{}, trusterrors.Wrap(trusterrors.MalformedInput, err, "decoding Cloud KMS public key")
	}
	return PublicKeyMaterial{Algorithm: ourcrypto.AlgSecp256k1, KeyMaterial: raw}, nil
}

func (g *GcpKms) Create(ctx context.Context, alg ourcrypto.Algorithm) (KeyRef, error) {
	// Cloud KMS key rings/crypto keys are provisioned out of band via
	// the GCP console or Terraform, not from an application signing
	// path; this provider only ever binds to an existing key name.
	return "", trusterrors.New(trusterrors.MethodNotSupported, "GCP KMS provider does not support on-demand key creation")
}

func wrapGcpErr(err error) error {
	if gerr, ok := err.(*googleapi.Error); ok {
		switch gerr.Code {
		case 404:
			return trusterrors.Wrap(trusterrors.KeyNotFound, err, "GCP KMS key not found")
		case 403:
			return trusterrors.Wrap(trusterrors.AccessDenied, err, "GCP KMS access denied")
		case 503, 429:
			return trusterrors.Wrap(trusterrors.KmsUnavailable, err, "GCP KMS unavailable")
		}
	}
	return trusterrors.Wrap(trusterrors.KmsUnavailable, err, "GCP KMS call failed")
}
