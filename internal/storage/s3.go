// Package storage keeps rendered eval reports in S3-compatible storage.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/cloo-solutions/podquery/internal/config"
	"github.com/cloo-solutions/podquery/internal/domain"
)

const DefaultLinkExpiry = time.Hour

var (
	ErrInvalidKey     = errors.New("invalid report key")
	ErrReportNotFound = errors.New("report not found")
)

type ReportStoreConfig struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	UsePathStyle    bool
	LinkExpiry      time.Duration
}

// ReportStore uploads reports and hands out presigned links to them. The
// bucket is created on first upload if it does not exist.
type ReportStore struct {
	client     *s3.Client
	presign    *s3.PresignClient
	bucket     string
	linkExpiry time.Duration

	mu      sync.Mutex
	ensured bool
}

// ReportInfo is what a HEAD request tells about a stored report.
type ReportInfo struct {
	Size        int64
	ContentType string
	ETag        string
}

func NewReportStore(ctx context.Context, cfg ReportStoreConfig) (*ReportStore, error) {
	if cfg.Bucket == "" {
		return nil, domain.NewStageError(domain.StageConfig, domain.KindConfiguration, "report bucket is not set")
	}
	if cfg.LinkExpiry <= 0 {
		cfg.LinkExpiry = DefaultLinkExpiry
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return &ReportStore{
		client:     client,
		presign:    s3.NewPresignClient(client),
		bucket:     cfg.Bucket,
		linkExpiry: cfg.LinkExpiry,
	}, nil
}

// FromConfig builds a store from the PODQUERY_S3_* settings. Self-hosted
// endpoints such as RustFS need path-style addressing, so it is always on.
func FromConfig(ctx context.Context, cfg *config.Config) (*ReportStore, error) {
	if !cfg.HasS3() {
		return nil, domain.NewStageError(domain.StageConfig, domain.KindConfiguration,
			"report upload requires PODQUERY_S3_ENDPOINT, PODQUERY_S3_ACCESS_KEY_ID and PODQUERY_S3_SECRET_ACCESS_KEY")
	}
	return NewReportStore(ctx, ReportStoreConfig{
		Endpoint:        cfg.S3Endpoint,
		Region:          cfg.S3Region,
		AccessKeyID:     cfg.S3AccessKey,
		SecretAccessKey: cfg.S3SecretKey,
		Bucket:          cfg.S3Bucket,
		UsePathStyle:    true,
	})
}

func (s *ReportStore) Bucket() string {
	return s.bucket
}

// CleanKey normalizes a user-supplied key. Leading slashes are dropped;
// empty keys, directory keys and keys that climb out with ".." are
// rejected.
func CleanKey(key string) (string, error) {
	trimmed := strings.TrimLeft(strings.TrimSpace(key), "/")
	if trimmed == "" || strings.HasSuffix(trimmed, "/") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	cleaned := path.Clean(trimmed)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return cleaned, nil
}

// EnsureBucket creates the bucket when HEAD reports it missing. Any other
// HEAD failure, such as a permission error, is returned as is.
func (s *ReportStore) EnsureBucket(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ensured {
		return nil
	}

	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err != nil {
		var notFound *types.NotFound
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to check bucket %s: %w", s.bucket, err)
		}
		if _, err := s.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(s.bucket)}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", s.bucket, err)
		}
	}

	s.ensured = true
	return nil
}

// UploadReport stores body under key and returns a presigned link to it.
func (s *ReportStore) UploadReport(ctx context.Context, key, contentType string, body []byte) (string, error) {
	key, err := CleanKey(key)
	if err != nil {
		return "", err
	}
	if err := s.EnsureBucket(ctx); err != nil {
		return "", err
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(body))),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload report %s: %w", key, err)
	}
	return s.Link(ctx, key)
}

func (s *ReportStore) Link(ctx context.Context, key string) (string, error) {
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.linkExpiry))
	if err != nil {
		return "", fmt.Errorf("failed to presign %s: %w", key, err)
	}
	return req.URL, nil
}

// Get returns ErrReportNotFound for a missing key.
func (s *ReportStore) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, fmt.Errorf("%w: %s", ErrReportNotFound, key)
		}
		return nil, fmt.Errorf("failed to get report %s: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read report %s: %w", key, err)
	}
	return data, nil
}

func (s *ReportStore) Head(ctx context.Context, key string) (*ReportInfo, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: %s", ErrReportNotFound, key)
		}
		return nil, fmt.Errorf("failed to head report %s: %w", key, err)
	}

	return &ReportInfo{
		Size:        aws.ToInt64(out.ContentLength),
		ContentType: aws.ToString(out.ContentType),
		ETag:        aws.ToString(out.ETag),
	}, nil
}
