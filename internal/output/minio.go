package output

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/Mohammedmarzuk17/EduShield/infrastructure/logger"
	"github.com/Mohammedmarzuk17/EduShield/internal/config"
)

const jsonContentType = "application/json"

// Publisher mirrors written files into a MinIO bucket so consumers can
// fetch them without access to the host running the aggregator.
type Publisher struct {
	client *miniogo.Client
	bucket string
	prefix string
	log    logger.Logger
}

// NewPublisher creates a Publisher. It does not contact the server; see
// EnsureBucket.
func NewPublisher(cfg config.MinIOConfig, log logger.Logger) (*Publisher, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, errors.New("minio endpoint and bucket are required")
	}

	client, err := miniogo.New(cfg.Endpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	return &Publisher{
		client: client,
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
		log:    log,
	}, nil
}

// EnsureBucket creates the bucket if it does not exist.
func (p *Publisher) EnsureBucket(ctx context.Context) error {
	exists, err := p.client.BucketExists(ctx, p.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", p.bucket, err)
	}
	if exists {
		return nil
	}

	if err = p.client.MakeBucket(ctx, p.bucket, miniogo.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %s: %w", p.bucket, err)
	}
	p.log.Info("Created MinIO bucket", logger.String("bucket", p.bucket))
	return nil
}

// CheckBucket fails when the bucket is unreachable or missing.
func (p *Publisher) CheckBucket(ctx context.Context) error {
	exists, err := p.client.BucketExists(ctx, p.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", p.bucket, err)
	}
	if !exists {
		return fmt.Errorf("bucket %s does not exist", p.bucket)
	}
	return nil
}

// Publish uploads files. The manifest is uploaded last so a consumer that
// sees a new manifest finds every artifact it lists.
func (p *Publisher) Publish(ctx context.Context, files []File) error {
	ordered := make([]File, 0, len(files))
	var manifest []File
	for _, f := range files {
		if path.Base(f.Key) == ManifestFile {
			manifest = append(manifest, f)
			continue
		}
		ordered = append(ordered, f)
	}
	ordered = append(ordered, manifest...)

	for _, f := range ordered {
		key := p.ObjectKey(f.Key)
		info, err := p.client.FPutObject(ctx, p.bucket, key, f.Path, miniogo.PutObjectOptions{
			ContentType: jsonContentType,
		})
		if err != nil {
			return fmt.Errorf("upload %s: %w", key, err)
		}
		p.log.Debug("Uploaded output file",
			logger.String("bucket", p.bucket),
			logger.String("key", key),
			logger.Int64("size", info.Size),
		)
	}

	p.log.Info("Published output to MinIO",
		logger.String("bucket", p.bucket),
		logger.Int("files", len(ordered)),
	)
	return nil
}

// ObjectKey maps an output key to its object key under the prefix.
func (p *Publisher) ObjectKey(key string) string {
	if p.prefix == "" {
		return key
	}
	return path.Join(p.prefix, key)
}
