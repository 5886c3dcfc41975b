// Package s3 stores objects in an S3 bucket or an S3-compatible service.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/kbukum/voiceid/logger"
	"github.com/kbukum/voiceid/storage"
)

func init() {
	storage.RegisterFactory(storage.ProviderS3, func(ctx context.Context, cfg storage.Config, log *logger.Logger) (storage.Storage, error) {
		s, err := NewStorage(ctx, cfg)
		if err != nil {
			return nil, err
		}
		log.Debug("S3 storage ready", map[string]interface{}{"bucket": cfg.Bucket, "prefix": s.prefix})
		return s, nil
	})
}

// API is the part of *s3.Client that Storage calls.
type API interface {
	awss3.ListObjectsV2APIClient
	PutObject(ctx context.Context, in *awss3.PutObjectInput, opts ...func(*awss3.Options)) (*awss3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *awss3.GetObjectInput, opts ...func(*awss3.Options)) (*awss3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, in *awss3.DeleteObjectInput, opts ...func(*awss3.Options)) (*awss3.DeleteObjectOutput, error)
	HeadObject(ctx context.Context, in *awss3.HeadObjectInput, opts ...func(*awss3.Options)) (*awss3.HeadObjectOutput, error)
}

// Storage keeps each object under "<prefix>/<path>" in one bucket.
type Storage struct {
	client API
	bucket string
	prefix string
}

var _ storage.Storage = (*Storage)(nil)

// NewStorage resolves credentials through the default AWS chain unless
// static keys are configured. A custom endpoint implies path-style URLs.
func NewStorage(ctx context.Context, cfg storage.Config) (*Storage, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("storage: aws config: %w", err)
	}
	client := awss3.NewFromConfig(awsCfg, func(o *awss3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.ForcePathStyle || cfg.Endpoint != ""
	})
	return NewWithClient(client, cfg.Bucket, cfg.Prefix), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client API, bucket, prefix string) *Storage {
	return &Storage{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

func (s *Storage) key(p string) *string {
	p = strings.TrimPrefix(p, "/")
	if s.prefix != "" {
		p = path.Join(s.prefix, p)
	}
	return aws.String(p)
}

func (s *Storage) Upload(ctx context.Context, p string, r io.Reader) error {
	_, err := s.client.PutObject(ctx, &awss3.PutObjectInput{Bucket: &s.bucket, Key: s.key(p), Body: r})
	if err != nil {
		return fmt.Errorf("storage: s3 put %s: %w", p, err)
	}
	return nil
}

func (s *Storage) Download(ctx context.Context, p string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &awss3.GetObjectInput{Bucket: &s.bucket, Key: s.key(p)})
	if err != nil {
		var missing *types.NoSuchKey
		if errors.As(err, &missing) {
			return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, p)
		}
		return nil, fmt.Errorf("storage: s3 get %s: %w", p, err)
	}
	return out.Body, nil
}

// Delete succeeds for missing keys; S3 does not report them.
func (s *Storage) Delete(ctx context.Context, p string) error {
	if _, err := s.client.DeleteObject(ctx, &awss3.DeleteObjectInput{Bucket: &s.bucket, Key: s.key(p)}); err != nil {
		return fmt.Errorf("storage: s3 delete %s: %w", p, err)
	}
	return nil
}

func (s *Storage) Exists(ctx context.Context, p string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &awss3.HeadObjectInput{Bucket: &s.bucket, Key: s.key(p)})
	if err != nil {
		var missing *types.NotFound
		if errors.As(err, &missing) {
			return false, nil
		}
		return false, fmt.Errorf("storage: s3 head %s: %w", p, err)
	}
	return true, nil
}

// List pages through the bucket. Paths come back without the key prefix.
func (s *Storage) List(ctx context.Context, prefix string) ([]storage.FileInfo, error) {
	root := ""
	if s.prefix != "" {
		root = s.prefix + "/"
	}
	pages := awss3.NewListObjectsV2Paginator(s.client, &awss3.ListObjectsV2Input{
		Bucket: &s.bucket,
		Prefix: aws.String(root + strings.TrimPrefix(prefix, "/")),
	})
	var out []storage.FileInfo
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("storage: s3 list %s: %w", prefix, err)
		}
		for _, obj := range page.Contents {
			out = append(out, storage.FileInfo{
				Path:         strings.TrimPrefix(aws.ToString(obj.Key), root),
				Size:         aws.ToInt64(obj.Size),
				LastModified: aws.ToTime(obj.LastModified),
			})
		}
	}
	return out, nil
}
