package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinIOStorage keeps page attachments in one bucket.
type MinIOStorage struct {
	client *minio.Client
	bucket string
}

// NewMinIOStorage creates a new MinIO storage client and ensures the bucket exists.
func NewMinIOStorage(ctx context.Context, cfg *MinIOConfig) (*MinIOStorage, error) {
	if cfg == nil || cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio config missing")
	}
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio new: %w", err)
	}
	s := &MinIOStorage{client: mc, bucket: cfg.Bucket}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mc.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		// ignore "already exists" style errors
		exist, xerr := mc.BucketExists(ctx, s.bucket)
		if xerr != nil || !exist {
			return nil, fmt.Errorf("minio bucket ensure: %w", err)
		}
	}
	return s, nil
}

// Ping reports whether the bucket is reachable.
func (s *MinIOStorage) Ping(ctx context.Context) bool {
	ok, err := s.client.BucketExists(ctx, s.bucket)
	return err == nil && ok
}

func (s *MinIOStorage) Upload(ctx context.Context, page, filename string, r io.Reader, size int64, contentType string) (string, error) {
	key, err := ObjectKey(page, filename)
	if err != nil {
		return "", err
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if _, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType}); err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return key, nil
}

// URL returns a presigned GET URL valid for expiry.
func (s *MinIOStorage) URL(ctx context.Context, page, filename string, expiry time.Duration) (string, error) {
	key, err := ObjectKey(page, filename)
	if err != nil {
		return "", err
	}
	if _, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return "", ErrAttachmentNotFound
		}
		return "", fmt.Errorf("stat %s: %w", key, err)
	}
	params := make(url.Values)
	params.Set("response-content-disposition", `inline; filename="`+strings.ReplaceAll(filename, `"`, "")+`"`)
	presigned, err := s.client.PresignedGetObject(ctx, s.bucket, key, expiry, params)
	if err != nil {
		return "", err
	}
	return presigned.String(), nil
}

func (s *MinIOStorage) List(ctx context.Context, page string) ([]Attachment, error) {
	prefix := pagePrefix(page)
	out := []Attachment{}
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		out = append(out, Attachment{
			Name:         strings.TrimPrefix(obj.Key, prefix),
			Key:          obj.Key,
			Size:         obj.Size,
			ContentType:  obj.ContentType,
			LastModified: obj.LastModified,
		})
	}
	return out, nil
}
