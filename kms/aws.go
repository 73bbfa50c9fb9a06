package kms

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/kms/types"
	"github.com/aws/smithy-go"

	ourcrypto "github.com/agentrust/trustcore/crypto"
	trusterrors "github.com/agentrust/trustcore/errors"
)

// kmsClient is the subset of the AWS SDK's KMS client this package
// consumes, narrowed the way the teacher's sa package narrows SQL
// executors to single-method capability interfaces.
type kmsClient interface {
	Sign(ctx context.Context, params *kms.SignInput, optFns ...func(*kms.Options)) (*kms.SignOutput, error)
	GetPublicKey(ctx context.Context, params *kms.GetPublicKeyInput, optFns ...func(*kms.Options)) (*kms.GetPublicKeyOutput, error)
	CreateKey(ctx context.Context, params *kms.CreateKeyInput, optFns ...func(*kms.Options)) (*kms.CreateKeyOutput, error)
}

// AwsKms signs through AWS Key Management Service. AWS KMS always
// pre-hashes messages for its ECC_SECG_P256K1 signing algorithm, so
// SignResult.PreHash is always reported as SHA-256 for secp256k1 keys
// per spec §4.2.
type AwsKms struct {
	client kmsClient
	region string
}

// NewAwsKms builds an AwsKms provider from an already-configured SDK
// client (the caller owns credential/region resolution via
// AWS_REGION/AWS_KMS_KEY_ID per spec §6).
func NewAwsKms(client kmsClient, region string) *AwsKms {
	return &AwsKms{client: client, region: region}
}

func (a *AwsKms) Sign(ctx context.Context, keyRef KeyRef, message []byte) (SignResult, error) {
	out, err := a.client.Sign(ctx, &kms.SignInput{
		KeyId:            aws.String(string(keyRef)),
		Message:          message,
		MessageType:      types.MessageTypeRaw,
		SigningAlgorithm: types.SigningAlgorithmSpecEcdsaSha256,
	})
	if err != nil {
		return SignResult{}, wrapAwsErr(err)
	}
	// AWS KMS returns a DER-encoded signature with no low-S guarantee;
	// this module's wire form is always fixed-length low-S r||s.
	sig, err := ourcrypto.NormalizeDERSignature(out.Signature)
	if err != nil {
		return SignResult{}, trusterrors.Wrap(trusterrors.InvalidSignature, err, "decoding AWS KMS signature")
	}
	return SignResult{
		Signature:          sig,
		Algorithm:          ourcrypto.AlgSecp256k1,
		VerificationMethod: string(keyRef),
		PreHash:            "SHA-256",
	}, nil
}

func (a *AwsKms) PublicKey(ctx context.Context, keyRef KeyRef) (PublicKeyMaterial, error) {
	out, err := a.client.GetPublicKey(ctx, &kms.GetPublicKeyInput{KeyId: aws.String(string(keyRef))})
	if err != nil {
		return PublicKeyMaterial{}, wrapAwsErr(err)
	}
	// AWS KMS reports public keys as DER-encoded X.509 SubjectPublicKeyInfo;
	// the rest of this module works with raw SEC1 points.
	raw, err := ourcrypto.SEC1PublicKeyFromSPKI(out.PublicKey)
	if err != nil {
		return PublicKeyMaterial{}, trusterrors.Wrap(trusterrors.MalformedInput, err, "decoding AWS KMS public key")
	}
	return PublicKeyMaterial{Algorithm: ourcrypto.AlgSecp256k1, KeyMaterial: raw}, nil
}

func (a *AwsKms) Create(ctx context.Context, alg ourcrypto.Algorithm) (KeyRef, error) {
	if alg != ourcrypto.AlgSecp256k1 {
		return "", trusterrors.New(trusterrors.MethodNotSupported, "AWS KMS provider only supports secp256k1 signing keys, got %s", alg)
	}
	out, err := a.client.CreateKey(ctx, &kms.CreateKeyInput{
		KeyUsage: types.KeyUsageTypeSignVerify,
		KeySpec:  types.KeySpecEccSecgP256k1,
	})
	if err != nil {
		return "", wrapAwsErr(err)
	}
	return KeyRef(aws.ToString(out.KeyMetadata.KeyId)), nil
}

// wrapAwsErr maps AWS SDK errors onto the shared taxonomy, following
// spec §4.2's KeyNotFound/AccessDenied/ProviderUnavailable/InvalidKeyType
// closed failure set.
func wrapAwsErr(err error) error {
	var apiErr smithy.APIError
	if ok := asAPIError(err, &apiErr); ok {
		switch apiErr.ErrorCode() {
		case "NotFoundException":
			return trusterrors.Wrap(trusterrors.KeyNotFound, err, "AWS KMS key not found")
		case "AccessDeniedException":
			return trusterrors.Wrap(trusterrors.AccessDenied, err, "AWS KMS access denied")
		case "KMSInvalidStateException", "DisabledException":
			return trusterrors.Wrap(trusterrors.MalformedInput, err, "AWS KMS key in invalid state")
		case "KMSInternalException", "DependencyTimeoutException":
			return trusterrors.Wrap(trusterrors.KmsUnavailable, err, "AWS KMS unavailable")
		}
	}
	return trusterrors.Wrap(trusterrors.KmsUnavailable, err, "AWS KMS call failed")
}

func asAPIError(err error, target *smithy.APIError) bool {
	type apiErrorer interface {
		ErrorCode() string
		ErrorMessage() string
		ErrorFault() smithy.ErrorFault
	}
	if ae, ok := err.(apiErrorer); ok {
		*target = smithy.GenericAPIError{Code: ae.ErrorCode(), Message: ae.ErrorMessage(), Fault: ae.ErrorFault()}
		return true
	}
	return false
}
