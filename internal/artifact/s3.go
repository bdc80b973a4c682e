package artifact

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config addresses an S3-compatible bucket (Tigris, MinIO, R2, AWS).
type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	Prefix    string
}

// S3Mirror uploads artifacts to an S3-compatible bucket.
type S3Mirror struct {
	client *s3.Client
	bucket string
	prefix string
	logger *slog.Logger
}

// NewS3Mirror builds a mirror with static credentials and path-style addressing.
func NewS3Mirror(ctx context.Context, cfg S3Config, logger *slog.Logger) (*S3Mirror, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load s3 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true
	})

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "attractions"
	}
	logger.Info("artifact mirror enabled", "bucket", cfg.Bucket, "endpoint", cfg.Endpoint)
	return &S3Mirror{client: client, bucket: cfg.Bucket, prefix: prefix, logger: logger}, nil
}

// Upload stores data under prefix/key, replacing any previous object.
func (m *S3Mirror) Upload(ctx context.Context, key string, data []byte) error {
	objectKey := path.Join(m.prefix, key)
	_, err := m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(m.bucket),
		Key:         aws.String(objectKey),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", objectKey, err)
	}
	m.logger.Debug("artifact mirrored", "key", objectKey, "size_bytes", len(data))
	return nil
}
