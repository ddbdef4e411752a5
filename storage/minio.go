// S3-compatible uploader backed by the MinIO client.

package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioUploader stores payloads in an S3-compatible bucket and returns
// presigned GET links.
type MinioUploader struct {
	client *minio.Client
	bucket string
}

// MinioConfig holds connection settings for an S3-compatible endpoint.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// NewMinioUploader connects to the endpoint and ensures the bucket exists.
func NewMinioUploader(ctx context.Context, cfg MinioConfig) (*MinioUploader, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %q: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %q: %w", cfg.Bucket, err)
		}
	}

	return &MinioUploader{client: client, bucket: cfg.Bucket}, nil
}

// Upload writes the payload under uploads/{uuid}/{name} and presigns a GET
// link valid for LinkValidity.
func (u *MinioUploader) Upload(ctx context.Context, data []byte, mimeType, suggestedName string) (UploadedObject, error) {
	key := objectKey(suggestedName)
	contentType := resolveMIME(data, mimeType)

	_, err := u.client.PutObject(ctx, u.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return UploadedObject{}, &StorageError{Op: "put " + key, Err: err}
	}

	link, err := u.client.PresignedGetObject(ctx, u.bucket, key, LinkValidity, nil)
	if err != nil {
		return UploadedObject{}, &StorageError{Op: "presign " + key, Err: err}
	}

	return UploadedObject{
		Key:      key,
		URL:      link.String(),
		MIMEType: contentType,
		Size:     int64(len(data)),
		Expiry:   time.Now().Add(LinkValidity),
	}, nil
}

// Verify MinioUploader implements Uploader
var _ Uploader = (*MinioUploader)(nil)
