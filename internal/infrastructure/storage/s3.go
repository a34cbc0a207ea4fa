package storage

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/harudiet/backend/internal/domain"
)

// DefaultBucket holds meal photos unless configured otherwise
const DefaultBucket = "food-images"

// s3API is the subset of the S3 client used by S3PhotoStore
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Options configures an S3PhotoStore
type Options struct {
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	// PublicBaseURL prefixes object keys to build the returned image URL
	PublicBaseURL string
}

// S3PhotoStore implements domain.PhotoStore on any S3-compatible object storage
type S3PhotoStore struct {
	client        s3API
	bucket        string
	publicBaseURL string
	now           func() time.Time
}

// NewS3PhotoStore creates a photo store with static credentials and a custom endpoint
func NewS3PhotoStore(ctx context.Context, opts Options) (*S3PhotoStore, error) {
	if opts.Endpoint == "" || opts.AccessKeyID == "" || opts.SecretAccessKey == "" {
		return nil, fmt.Errorf("%w: endpoint, access key id and secret access key are required", domain.ErrStorageUnavailable)
	}
	if strings.TrimSpace(opts.Region) == "" {
		opts.Region = "us-east-1"
	}
	if opts.Bucket == "" {
		opts.Bucket = DefaultBucket
	}
	if opts.PublicBaseURL == "" {
		opts.PublicBaseURL = strings.TrimRight(opts.Endpoint, "/") + "/" + opts.Bucket
	}

	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(opts.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load S3 config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(opts.Endpoint)
		o.UsePathStyle = true
	})

	return newS3PhotoStore(client, opts.Bucket, opts.PublicBaseURL), nil
}

func newS3PhotoStore(client s3API, bucket, publicBaseURL string) *S3PhotoStore {
	return &S3PhotoStore{
		client:        client,
		bucket:        bucket,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		now:           time.Now,
	}
}

// Upload stores a photo under a fresh key and returns its public URL
func (s *S3PhotoStore) Upload(ctx context.Context, filename, contentType string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty photo", domain.ErrInvalidRequest)
	}
	key := s.objectKey(filename)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		log.Printf("[STORAGE] Upload of %s failed: %v", key, err)
		return "", fmt.Errorf("%w: failed to put object: %v", domain.ErrStorageUnavailable, err)
	}

	log.Printf("[STORAGE] Uploaded %s (%d bytes)", key, len(data))
	return s.publicBaseURL + "/" + key, nil
}

// Delete removes a photo by key. A public URL of this bucket is accepted too;
// URLs pointing elsewhere are rejected.
func (s *S3PhotoStore) Delete(ctx context.Context, key string) error {
	if strings.Contains(key, "://") {
		trimmed := strings.TrimPrefix(key, s.publicBaseURL+"/")
		if trimmed == key {
			return fmt.Errorf("%w: %s is not in bucket %s", domain.ErrInvalidRequest, key, s.bucket)
		}
		key = trimmed
	}
	if key == "" {
		return fmt.Errorf("%w: empty key", domain.ErrInvalidRequest)
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("%w: failed to delete object: %v", domain.ErrStorageUnavailable, err)
	}
	return nil
}

// objectKey is "<unix millis>-<uuid><ext>", keeping the lower-cased extension of filename
func (s *S3PhotoStore) objectKey(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return fmt.Sprintf("%d-%s%s", s.now().UnixMilli(), uuid.NewString(), ext)
}
