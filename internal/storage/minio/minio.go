// Package minio stores sync archives in a MinIO (or any S3-compatible) bucket.
package minio

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/kurum-rebirth/kurum-sync/internal/config"
	"github.com/kurum-rebirth/kurum-sync/internal/httpclient"
	"github.com/kurum-rebirth/kurum-sync/internal/storage"
)

func init() {
	storage.Register(config.StorageTypeMinio, New)
}

// Store implements storage.ObjectStore on MinIO
type Store struct {
	client *minio.Client
	bucket string
	prefix string
}

var _ storage.ObjectStore = (*Store)(nil)

// New creates a MinIO store from cfg.Minio
func New(_ context.Context, cfg *config.StorageConfig) (storage.ObjectStore, error) {
	if cfg == nil || cfg.Minio == nil {
		return nil, fmt.Errorf("minio configuration is required for storage type minio")
	}
	mcfg := cfg.Minio

	secret, err := mcfg.GetSecretAccessKey()
	if err != nil {
		return nil, err
	}

	client, err := minio.New(mcfg.Endpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(mcfg.AccessKeyID, secret, ""),
		Secure:    mcfg.UseSSL,
		Transport: httpclient.NewTransport(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &Store{
		client: client,
		bucket: mcfg.Bucket,
		prefix: mcfg.Prefix,
	}, nil
}

func (s *Store) objectKey(remotePath string) string {
	if s.prefix == "" {
		return remotePath
	}
	return path.Join(s.prefix, remotePath)
}

// Put uploads the file at localPath
func (s *Store) Put(ctx context.Context, localPath, remotePath string) error {
	_, err := s.client.FPutObject(ctx, s.bucket, s.objectKey(remotePath), localPath, minio.PutObjectOptions{
		ContentType: "application/zip",
	})
	return translateError(err)
}

// Get downloads remotePath into localPath
func (s *Store) Get(ctx context.Context, remotePath, localPath string) error {
	err := s.client.FGetObject(ctx, s.bucket, s.objectKey(remotePath), localPath, minio.GetObjectOptions{})
	return translateError(err)
}

// PutEmpty writes a zero-length object
func (s *Store) PutEmpty(ctx context.Context, remotePath string) error {
	_, err := s.client.PutObject(ctx, s.bucket, s.objectKey(remotePath), bytes.NewReader(nil), 0, minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	return translateError(err)
}

// ModTime returns the LastModified time of remotePath
func (s *Store) ModTime(ctx context.Context, remotePath string) (time.Time, error) {
	info, err := s.client.StatObject(ctx, s.bucket, s.objectKey(remotePath), minio.StatObjectOptions{})
	if err != nil {
		return time.Time{}, translateError(err)
	}
	return info.LastModified, nil
}

// Ping checks that the bucket exists and is reachable
func (s *Store) Ping(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return translateError(err)
	}
	if !exists {
		return fmt.Errorf("bucket %s does not exist", s.bucket)
	}
	return nil
}

// translateError maps missing-object responses to storage.ErrNotFound
func translateError(err error) error {
	if err == nil {
		return nil
	}
	resp := minio.ToErrorResponse(err)
	switch resp.Code {
	case "NoSuchKey", "NotFound":
		return fmt.Errorf("%w: %s", storage.ErrNotFound, resp.Message)
	}
	return err
}
