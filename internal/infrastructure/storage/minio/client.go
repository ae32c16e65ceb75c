// Package minio uploads exports to an S3-compatible bucket.
package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/turtacn/molexplorer/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molexplorer/internal/infrastructure/storage"
	"github.com/turtacn/molexplorer/pkg/errors"
)

// MinIOAPI is the subset of *minio.Client the store uses.
type MinIOAPI interface {
	ListBuckets(ctx context.Context) ([]minio.BucketInfo, error)
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expiry time.Duration, reqParams url.Values) (*url.URL, error)
}

type MinIOConfig struct {
	Enabled         bool          `mapstructure:"enabled" yaml:"enabled"`
	Endpoint        string        `mapstructure:"endpoint" yaml:"endpoint"`
	AccessKeyID     string        `mapstructure:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string        `mapstructure:"secret_access_key" yaml:"secret_access_key"`
	UseSSL          bool          `mapstructure:"use_ssl" yaml:"use_ssl"`
	Region          string        `mapstructure:"region" yaml:"region"`
	Bucket          string        `mapstructure:"bucket" yaml:"bucket"`
	Prefix          string        `mapstructure:"prefix" yaml:"prefix"`
	PresignExpiry   time.Duration `mapstructure:"presign_expiry" yaml:"presign_expiry"`
}

// Store implements storage.ExportStore on a bucket.
type Store struct {
	client MinIOAPI
	config *MinIOConfig
	logger logging.Logger
}

var _ storage.ExportStore = (*Store)(nil)

// NewStore connects to the endpoint and makes sure the bucket exists.
func NewStore(cfg *MinIOConfig, log logging.Logger) (*Store, error) {
	applyDefaults(cfg)

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInvalidConfig, "failed to create minio client")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := client.ListBuckets(ctx); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeServiceUnavailable, "failed to connect to minio")
	}

	s, err := NewStoreWithClient(ctx, client, cfg, log)
	if err != nil {
		return nil, err
	}
	s.logger.Info("minio store connected", logging.String("endpoint", cfg.Endpoint), logging.String("bucket", cfg.Bucket))
	return s, nil
}

// NewStoreWithClient wraps an existing client.
func NewStoreWithClient(ctx context.Context, client MinIOAPI, cfg *MinIOConfig, log logging.Logger) (*Store, error) {
	if log == nil {
		log = logging.NewNopLogger()
	}
	applyDefaults(cfg)
	s := &Store{client: client, config: cfg, logger: log.Named("storage.minio")}
	if err := s.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func applyDefaults(cfg *MinIOConfig) {
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	if cfg.Bucket == "" {
		cfg.Bucket = "molx-exports"
	}
}

// EnsureBucket creates the export bucket when missing.
func (s *Store) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.config.Bucket)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStorage, "failed to check bucket existence")
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.config.Bucket, minio.MakeBucketOptions{Region: s.config.Region}); err != nil {
		return errors.Wrap(err, errors.ErrCodeStorage, fmt.Sprintf("failed to create bucket %s", s.config.Bucket))
	}
	s.logger.Info("created bucket", logging.String("bucket", s.config.Bucket))
	return nil
}

// Save uploads obj. The location is a presigned URL when PresignExpiry is
// set, else "s3://bucket/key".
func (s *Store) Save(ctx context.Context, obj storage.Object) (string, error) {
	key := path.Join(s.config.Prefix, storage.SanitizeKey(obj.Key))
	contentType := obj.ContentType
	if contentType == "" {
		contentType = storage.SDFContentType
	}

	info, err := s.client.PutObject(ctx, s.config.Bucket, key, bytes.NewReader(obj.Data), int64(len(obj.Data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeStorage, "failed to upload export")
	}
	s.logger.Info("export uploaded",
		logging.String("bucket", s.config.Bucket),
		logging.String("key", key),
		logging.Int64("size", info.Size))

	if s.config.PresignExpiry > 0 {
		u, err := s.client.PresignedGetObject(ctx, s.config.Bucket, key, s.config.PresignExpiry, nil)
		if err != nil {
			return "", errors.Wrap(err, errors.ErrCodeStorage, "failed to presign export")
		}
		return u.String(), nil
	}
	return fmt.Sprintf("s3://%s/%s", s.config.Bucket, key), nil
}

// HealthCheck lists buckets to prove the endpoint answers.
func (s *Store) HealthCheck(ctx context.Context) error {
	if _, err := s.client.ListBuckets(ctx); err != nil {
		return errors.Wrap(err, errors.ErrCodeServiceUnavailable, "minio unreachable")
	}
	return nil
}
