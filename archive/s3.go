package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/mouguu/reddit-crawler/config"
)

// s3API is the slice of the S3 client the sink uses. Faked in tests.
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Sink writes post documents to an S3 bucket under a run-scoped key
// prefix. Credentials come from the SDK default chain (env vars,
// shared config, IAM role).
type S3Sink struct {
	client s3API
	bucket string
	prefix string
}

// NewS3Sink loads AWS configuration and returns a sink bound to the
// configured bucket.
func NewS3Sink(ctx context.Context, cfg config.ArchiveConfig, runID string) (*S3Sink, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 archive requires a bucket")
	}

	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &S3Sink{
		client: s3.NewFromConfig(awsCfg),
		bucket: cfg.Bucket,
		prefix: path.Join(cfg.Prefix, runID),
	}, nil
}

func (s *S3Sink) WritePost(ctx context.Context, id string, data []byte) error {
	if err := validateID(id); err != nil {
		return err
	}
	key := path.Join(s.prefix, id+".json")

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", s.bucket, key, err)
	}
	return nil
}
