package storage

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"arkive/internal/model"
)

type S3Config struct {
	Endpoint     string
	Region       string
	Bucket       string
	AccessKey    string
	SecretKey    string
	UsePathStyle bool
	PresignTTL   time.Duration
}

// S3Store issues short-lived URLs so clients move object bytes directly
// to and from the bucket. Deletes are the only server-side object calls.
type S3Store struct {
	client  *s3.PresignClient
	objects *s3.Client
	bucket  string
	ttl     time.Duration
	now     func() time.Time
}

func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load s3 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return &S3Store{
		client:  s3.NewPresignClient(client),
		objects: client,
		bucket:  cfg.Bucket,
		ttl:     cfg.PresignTTL,
		now:     time.Now,
	}, nil
}

func (p *S3Store) PresignUpload(ctx context.Context, key string, contentType string, size int64) (model.PresignedURL, error) {
	req, err := p.client.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(p.bucket),
		Key:           aws.String(key),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	}, s3.WithPresignExpires(p.ttl))
	if err != nil {
		return model.PresignedURL{}, fmt.Errorf("presign put %s: %w", key, err)
	}

	return model.PresignedURL{
		URL:        req.URL,
		Method:     http.MethodPut,
		StorageKey: key,
		ExpiresAt:  p.now().UTC().Add(p.ttl),
	}, nil
}

func (p *S3Store) PresignDownload(ctx context.Context, key string, filename string) (model.PresignedURL, error) {
	input := &s3.GetObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	}
	if filename != "" {
		input.ResponseContentDisposition = aws.String(
			mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	}

	req, err := p.client.PresignGetObject(ctx, input, s3.WithPresignExpires(p.ttl))
	if err != nil {
		return model.PresignedURL{}, fmt.Errorf("presign get %s: %w", key, err)
	}

	return model.PresignedURL{
		URL:       req.URL,
		Method:    http.MethodGet,
		ExpiresAt: p.now().UTC().Add(p.ttl),
	}, nil
}

// DeleteObject removes the object. S3 reports success for a missing key.
func (p *S3Store) DeleteObject(ctx context.Context, key string) error {
	_, err := p.objects.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}
