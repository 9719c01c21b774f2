package storage

import (
	"context"
	"fmt"
	"os"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/mbarrette/sentrypi/internal/debug"
)

// s3API is the slice of the S3 client the archiver needs; tests
// substitute a fake.
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Archiver uploads capture artifacts into the archive bucket with
// server-side encryption enabled.
type Archiver struct {
	client s3API
	bucket string
	prefix string
}

// NewArchiver builds an archiver from the ambient AWS credential chain.
func NewArchiver(ctx context.Context, bucket, prefix, region string) (*Archiver, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &Archiver{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
		prefix: prefix,
	}, nil
}

// KeyFor returns the object key a local filename archives under.
func (a *Archiver) KeyFor(filename string) string {
	return path.Join(a.prefix, filename)
}

// Upload stores a local file under the given key with AES256
// server-side encryption. It does not retry on its own; callers wrap
// it in a transfer policy.
func (a *Archiver) Upload(ctx context.Context, localPath, key string) error {
	debug.Info("Archiving %s to s3://%s/%s", localPath, a.bucket, key)

	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", localPath, err)
	}
	defer f.Close()

	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:               aws.String(a.bucket),
		Key:                  aws.String(key),
		Body:                 f,
		ServerSideEncryption: types.ServerSideEncryptionAes256,
	})
	if err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", a.bucket, key, err)
	}
	return nil
}
