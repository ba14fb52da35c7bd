package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const archiveContentType = "application/x-ndjson"

// ServiceConfig holds the settings for the S3-compatible archive bucket.
type ServiceConfig struct {
	S3BucketName      string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
}

// s3Uploader implements Uploader against S3-compatible storage.
type s3Uploader struct {
	cfg      ServiceConfig
	uploader *manager.Uploader
}

// NewS3Uploader initializes the S3 client with a custom endpoint so
// S3-compatible providers work too.
func NewS3Uploader(cfg ServiceConfig) (Uploader, error) {
	sdkCfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3AccessKeyID,
			cfg.S3SecretAccessKey,
			"",
		)),
		awsconfig.WithRegion("auto"),
	)
	if err != nil {
		return nil, errors.New("failed to initialize S3 client configuration")
	}

	client := s3.NewFromConfig(sdkCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.S3Endpoint)
		o.UsePathStyle = true
	})

	return &s3Uploader{
		cfg:      cfg,
		uploader: manager.NewUploader(client),
	}, nil
}

// Upload stores body under key in the archive bucket.
func (u *s3Uploader) Upload(ctx context.Context, key string, body []byte) error {
	_, err := u.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.cfg.S3BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(archiveContentType),
	})

	if err != nil {
		return fmt.Errorf("failed to upload archive object %s: %w", key, err)
	}

	return nil
}
