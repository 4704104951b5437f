// Package storage is the object-storage collaborator: it accepts content
// under a name and hands back time-limited retrieval URLs.
package storage

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/julianshen/componentdoc/internal/config"
	"github.com/julianshen/componentdoc/internal/errors"
)

// Store uploads named content and presigns retrieval URLs for stored keys.
type Store interface {
	Upload(ctx context.Context, content []byte, name, contentType string) (string, error)
	PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// S3Config holds the connection settings of an S3-compatible endpoint.
type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// S3ConfigFrom converts the storage section of the configuration.
func S3ConfigFrom(sc config.StorageConfig) S3Config {
	return S3Config{
		Endpoint:  sc.Endpoint,
		Region:    sc.Region,
		AccessKey: sc.AccessKey,
		SecretKey: sc.SecretKey,
		Bucket:    sc.Bucket,
		UseSSL:    sc.UseSSL,
	}
}

// S3Store implements Store on MinIO or any S3-compatible service. The
// bucket is created on first use when missing.
type S3Store struct {
	client     *minio.Client
	bucketName string
	region     string
	initOnce   sync.Once
	initErr    error
}

// NewS3Store validates cfg and creates the client. No network call is made
// until the first upload.
func NewS3Store(cfg S3Config) (*S3Store, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, errors.New("s3 endpoint is required")
	}
	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)
	if access == "" || secret == "" {
		return nil, errors.New("s3 access key and secret key are required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, errors.Wrap(err, "init s3 client")
	}

	return &S3Store{
		client:     client,
		bucketName: bucket,
		region:     region,
	}, nil
}

// Bucket returns the configured bucket name.
func (s *S3Store) Bucket() string { return s.bucketName }

func (s *S3Store) ensureBucket(ctx context.Context) error {
	s.initOnce.Do(func() {
		exists, err := s.client.BucketExists(ctx, s.bucketName)
		if err != nil {
			s.initErr = err
			return
		}
		if exists {
			return
		}
		s.initErr = s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{Region: s.region})
	})
	return s.initErr
}

// Upload stores content under name and returns its object key.
func (s *S3Store) Upload(ctx context.Context, content []byte, name, contentType string) (string, error) {
	key := ObjectKey(name)
	if key == "" {
		return "", errors.New("object name is required")
	}
	if err := s.ensureBucket(ctx); err != nil {
		return "", errors.Mark(errors.Wrap(err, "ensure bucket"), errors.ErrStorageUnavailable)
	}
	if content == nil {
		content = []byte{}
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := s.client.PutObject(ctx, s.bucketName, key, bytes.NewReader(content), int64(len(content)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", errors.Mark(errors.Wrapf(err, "put object %s", key), errors.ErrStorageUnavailable)
	}
	return key, nil
}

// PresignedURL returns a GET URL for key valid for expiry.
func (s *S3Store) PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if expiry <= 0 {
		expiry = time.Hour
	}
	u, err := s.client.PresignedGetObject(ctx, s.bucketName, key, expiry, nil)
	if err != nil {
		return "", errors.Mark(errors.Wrapf(err, "presign %s", key), errors.ErrStorageUnavailable)
	}
	return u.String(), nil
}

// ObjectKey normalizes an object name into a bucket key.
func ObjectKey(name string) string {
	return strings.TrimLeft(strings.TrimSpace(name), "/")
}
