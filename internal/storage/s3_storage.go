package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Sink uploads results to an S3-compatible bucket.
type S3Sink struct {
	minio  *minio.Client
	bucket string

	mu          sync.Mutex
	bucketReady bool
}

func NewS3Sink(endpoint, accessKey, secretKey, bucket string, useSSL bool) (*S3Sink, error) {
	if strings.TrimSpace(bucket) == "" {
		return nil, fmt.Errorf("bucket is required")
	}

	mc, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	return &S3Sink{minio: mc, bucket: bucket}, nil
}

func (s *S3Sink) Kind() string { return "s3" }

// EnsureBucket creates the bucket when it does not exist yet.
func (s *S3Sink) EnsureBucket(ctx context.Context) error {
	exists, err := s.minio.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket existence: %w", err)
	}
	if exists {
		return nil
	}

	if err := s.minio.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		exists, checkErr := s.minio.BucketExists(ctx, s.bucket)
		if checkErr == nil && exists {
			return nil
		}
		return fmt.Errorf("create bucket %s: %w", s.bucket, err)
	}
	return nil
}

// ensureBucketOnce retries on later saves until a check succeeds.
func (s *S3Sink) ensureBucketOnce(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bucketReady {
		return nil
	}
	if err := s.EnsureBucket(ctx); err != nil {
		return err
	}
	s.bucketReady = true
	return nil
}

func (s *S3Sink) Save(ctx context.Context, name, contentType string, data []byte) (string, error) {
	key, err := objectName(name)
	if err != nil {
		return "", err
	}
	if err := s.ensureBucketOnce(ctx); err != nil {
		return "", err
	}

	_, err = s.minio.PutObject(
		ctx,
		s.bucket,
		key,
		bytes.NewReader(data),
		int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType},
	)
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	return fmt.Sprintf("s3://%s/%s", s.bucket, key), nil
}
