package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"

	"github.com/goliatone/go-accounts/pkg/types"
)

// S3Store stores blobs in AWS S3 or an S3-compatible endpoint such as R2.
type S3Store struct {
	svc           *s3.S3
	uploader      *s3manager.Uploader
	bucket        string
	publicBaseURL string
}

var _ types.ObjectStore = (*S3Store)(nil)

// NewS3Store builds an S3-backed object store.
func NewS3Store(cfg Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("storage: bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "auto"
	}
	awsCfg := &aws.Config{
		Region:           aws.String(region),
		S3ForcePathStyle: aws.Bool(true),
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
	}
	if cfg.AccessKey != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, "")
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("storage: create aws session: %w", err)
	}

	publicBase := cfg.PublicBaseURL
	if publicBase == "" {
		publicBase = fmt.Sprintf("%s/%s", cfg.Endpoint, cfg.Bucket)
	}

	return &S3Store{
		svc:           s3.New(sess),
		uploader:      s3manager.NewUploader(sess),
		bucket:        cfg.Bucket,
		publicBaseURL: publicBase,
	}, nil
}

// Upload writes the object and returns its public URL.
func (s *S3Store) Upload(ctx context.Context, path string, body io.Reader, size int64, contentType string) (string, error) {
	_, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(path),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("storage: upload %s: %w", path, err)
	}
	return s.PublicURL(path), nil
}

// Delete removes the object. Deleting a missing object is not an error.
func (s *S3Store) Delete(ctx context.Context, path string) error {
	_, err := s.svc.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		return fmt.Errorf("storage: delete %s: %w", path, err)
	}
	return nil
}

// PublicURL returns the CDN-facing URL for the object.
func (s *S3Store) PublicURL(path string) string {
	return joinURL(s.publicBaseURL, path)
}

// SignedURL creates a time-limited download link for the object.
func (s *S3Store) SignedURL(path string, expiresIn time.Duration) (string, error) {
	req, _ := s.svc.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
	})
	urlStr, err := req.Presign(expiresIn)
	if err != nil {
		return "", fmt.Errorf("storage: presign %s: %w", path, err)
	}
	return urlStr, nil
}
