package services

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// StorageService wraps the MinIO client for one bucket.
type StorageService struct {
	client *minio.Client
	bucket string
	log    *zap.Logger
}

// NewStorageService connects to MinIO and creates the bucket if it doesn't
// exist.
func NewStorageService(endpoint, accessKey, secretKey, bucket string, useSSL bool, log *zap.Logger) (*StorageService, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
		log.Info("created bucket", zap.String("bucket", bucket))
	}

	log.Info("connected to MinIO", zap.String("endpoint", endpoint))
	return &StorageService{client: client, bucket: bucket, log: log}, nil
}

// CheckConnection is used by the health endpoint.
func (s *StorageService) CheckConnection(ctx context.Context) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("storage service not initialized")
	}
	_, err := s.client.BucketExists(ctx, s.bucket)
	return err
}

// Upload streams an object into the bucket.
func (s *StorageService) Upload(ctx context.Context, reader io.Reader, size int64, objectName, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

// Download fetches an object into a local file. Used by the virus scanner.
func (s *StorageService) Download(ctx context.Context, objectName, localPath string) error {
	return s.client.FGetObject(ctx, s.bucket, objectName, localPath, minio.GetObjectOptions{})
}

// Remove deletes an object from the bucket.
func (s *StorageService) Remove(ctx context.Context, objectName string) error {
	return s.client.RemoveObject(ctx, s.bucket, objectName, minio.RemoveObjectOptions{})
}

// PresignedGet returns a time-limited signed URL granting direct read access
// to one object.
func (s *StorageService) PresignedGet(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, objectName, expiry, url.Values{})
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

// ObjectURL composes the plain (unsigned) URL of an object, stored on the
// files row at upload time.
func (s *StorageService) ObjectURL(objectName string) string {
	return fmt.Sprintf("%s/%s/%s", s.client.EndpointURL(), s.bucket, objectName)
}

// KeyFromURL extracts the object key from an URL composed by ObjectURL.
// Returns an empty string when the URL doesn't parse or isn't bucket-scoped.
func (s *StorageService) KeyFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	path := u.EscapedPath()
	prefix := "/" + s.bucket + "/"
	if len(path) <= len(prefix) || path[:len(prefix)] != prefix {
		return ""
	}
	key, err := url.PathUnescape(path[len(prefix):])
	if err != nil {
		return ""
	}
	return key
}
