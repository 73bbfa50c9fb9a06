package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	trusterrors "github.com/agentrust/trustcore/errors"
)

// s3Client is the subset of the AWS SDK's S3 client this package
// consumes, narrowed to a single-method-per-capability interface the
// way the teacher's sa package narrows SQL executors.
type s3Client interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3 persists status list snapshots as one object per list id in a
// bucket, for deployments that publish status lists from multiple
// processes without a shared filesystem.
type S3 struct {
	client s3Client
	bucket string
	prefix string
}

// NewS3 builds an S3-backed store using bucket/prefix as the object key
// namespace.
func NewS3(client s3Client, bucket, prefix string) *S3 {
	return &S3{client: client, bucket: bucket, prefix: prefix}
}

func (s *S3) key(listID string) string {
	return s.prefix + listID + ".json"
}

func (s *S3) Load(ctx context.Context, listID string) (*Snapshot, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(listID)),
	})
	if err != nil {
		var apiErr smithy.APIError
		if ok := asS3APIError(err, &apiErr); ok && (apiErr.ErrorCode() == "NoSuchKey" || apiErr.ErrorCode() == "NotFound") {
			return nil, trusterrors.NotFoundError("status list %q not found", listID)
		}
		return nil, trusterrors.Wrap(trusterrors.NetworkError, err, "fetching status list %q from s3", listID)
	}
	defer out.Body.Close()
	raw, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, trusterrors.Wrap(trusterrors.NetworkError, err, "reading status list %q body", listID)
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, trusterrors.CorruptStateError("status list %q is corrupt: %v", listID, err)
	}
	return &snap, nil
}

func (s *S3) Save(ctx context.Context, listID string, snapshot *Snapshot) error {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return trusterrors.InternalErrorf("marshaling status list %q: %v", listID, err)
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(listID)),
		Body:        bytes.NewReader(raw),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return trusterrors.Wrap(trusterrors.NetworkError, err, "saving status list %q to s3", listID)
	}
	return nil
}

func (s *S3) ListAll(ctx context.Context) ([]string, error) {
	var ids []string
	var continuationToken *string
	for {
		out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucket),
			Prefix:            aws.String(s.prefix),
			ContinuationToken: continuationToken,
		})
		if err != nil {
			return nil, trusterrors.Wrap(trusterrors.NetworkError, err, "listing status lists in s3")
		}
		for _, obj := range out.Contents {
			snap, err := s.Load(ctx, keyToListID(aws.ToString(obj.Key), s.prefix))
			if err != nil {
				continue
			}
			ids = append(ids, snap.ListID)
		}
		if out.IsTruncated == nil || !*out.IsTruncated {
			break
		}
		continuationToken = out.NextContinuationToken
	}
	return ids, nil
}

func keyToListID(key, prefix string) string {
	trimmed := key
	if len(prefix) > 0 && len(key) >= len(prefix) {
		trimmed = key[len(prefix):]
	}
	if len(trimmed) > len(".json") {
		trimmed = trimmed[:len(trimmed)-len(".json")]
	}
	return trimmed
}

func asS3APIError(err error, target *smithy.APIError) bool {
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
