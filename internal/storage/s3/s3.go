// Package s3 stores sync archives in an AWS S3 bucket.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/aws/smithy-go/ptr"

	"github.com/kurum-rebirth/kurum-sync/internal/config"
	"github.com/kurum-rebirth/kurum-sync/internal/httpclient"
	"github.com/kurum-rebirth/kurum-sync/internal/storage"
)

const defaultRegion = "us-east-1"

func init() {
	storage.Register(config.StorageTypeS3, New)
}

// API is the subset of the S3 client used by the backend
type API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// Store implements storage.ObjectStore on S3
type Store struct {
	client API
	bucket string
	prefix string
}

var _ storage.ObjectStore = (*Store)(nil)

// New creates an S3 store from cfg.S3 using the SDK default credential chain
func New(ctx context.Context, cfg *config.StorageConfig) (storage.ObjectStore, error) {
	if cfg == nil || cfg.S3 == nil {
		return nil, fmt.Errorf("s3 configuration is required for storage type s3")
	}
	s3cfg := cfg.S3

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}
	if s3cfg.Region != "" {
		awsCfg.Region = s3cfg.Region
	} else if awsCfg.Region == "" {
		awsCfg.Region = defaultRegion
	}

	opts := []func(*s3.Options){
		func(o *s3.Options) {
			o.HTTPClient = httpclient.NewClient(0)
		},
	}
	if s3cfg.ForcePathStyle {
		opts = append(opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}
	if s3cfg.Endpoint != "" {
		opts = append(opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(s3cfg.Endpoint)
		})
	}

	return NewWithClient(s3.NewFromConfig(awsCfg, opts...), s3cfg.Bucket, s3cfg.Prefix), nil
}

// NewWithClient creates a store on an existing client
func NewWithClient(client API, bucket, prefix string) *Store {
	return &Store{
		client: client,
		bucket: bucket,
		prefix: prefix,
	}
}

func (s *Store) objectKey(remotePath string) string {
	if s.prefix == "" {
		return remotePath
	}
	return path.Join(s.prefix, remotePath)
}

// Put uploads the file at localPath
func (s *Store) Put(ctx context.Context, localPath, remotePath string) error {
	// #nosec G304 -- localPath is an archive in the agent's temp dir
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", localPath, err)
	}
	defer func() { _ = f.Close() }()

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      ptr.String(s.bucket),
		Key:         ptr.String(s.objectKey(remotePath)),
		Body:        f,
		ContentType: ptr.String("application/zip"),
	})
	return translateError(err)
}

// Get downloads remotePath into localPath
func (s *Store) Get(ctx context.Context, remotePath, localPath string) error {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: ptr.String(s.bucket),
		Key:    ptr.String(s.objectKey(remotePath)),
	})
	if err != nil {
		return translateError(err)
	}
	defer func() { _ = out.Body.Close() }()

	if err := os.MkdirAll(filepath.Dir(localPath), 0750); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", localPath, err)
	}
	// #nosec G304 -- localPath is in the agent's temp dir
	f, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", localPath, err)
	}
	if _, err := io.Copy(f, out.Body); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", localPath, err)
	}
	return f.Close()
}

// PutEmpty writes a zero-length object
func (s *Store) PutEmpty(ctx context.Context, remotePath string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        ptr.String(s.bucket),
		Key:           ptr.String(s.objectKey(remotePath)),
		Body:          bytes.NewReader(nil),
		ContentLength: ptr.Int64(0),
	})
	return translateError(err)
}

// ModTime returns the LastModified time of remotePath
func (s *Store) ModTime(ctx context.Context, remotePath string) (time.Time, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: ptr.String(s.bucket),
		Key:    ptr.String(s.objectKey(remotePath)),
	})
	if err != nil {
		return time.Time{}, translateError(err)
	}
	if out.LastModified == nil {
		return time.Time{}, fmt.Errorf("object %s has no modification time", remotePath)
	}
	return *out.LastModified, nil
}

// Ping checks that the bucket is reachable with the current credentials
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: ptr.String(s.bucket),
	})
	return translateError(err)
}

// translateError maps missing-object API errors to storage.ErrNotFound
func translateError(err error) error {
	if err == nil {
		return nil
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return fmt.Errorf("%w: %s", storage.ErrNotFound, apiErr.ErrorMessage())
		}
	}
	return err
}
