// Package media implements the media-store collaborator: uploaded files go
// to S3-compatible object storage and come back as opaque public URLs. The
// rest of the server only ever sees the URL string.
package media

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// Store is the contract consumed by the HTTP layer: persist a local file
// handle, return a URL.
type Store interface {
	Store(ctx context.Context, localPath string) (string, error)
}

// Seams for testing the S3 plumbing without a live backend.
var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	putObject = func(client *s3.Client, ctx context.Context, in *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
		return client.PutObject(ctx, in)
	}
)

// Config holds the object storage settings for the media store.
type Config struct {
	AccessKey     string
	SecretKey     string
	Bucket        string
	Region        string
	BaseEndpoint  string
	PublicBaseURL string
}

// S3Store uploads files to an S3-compatible bucket and builds public URLs
// from the configured base.
type S3Store struct {
	cfg Config
}

func NewS3Store(cfg Config) *S3Store {
	return &S3Store{cfg: cfg}
}

// randomStorageKey spreads objects by date and never reuses a key, so a
// re-uploaded avatar gets a fresh URL and caches cannot serve stale bytes.
func randomStorageKey(ext string) string {
	d := time.Now()
	return fmt.Sprintf("media/%d/%02d/%02d/%v%s", d.Year(), int(d.Month()), d.Day(), uuid.New(), ext)
}

func (s *S3Store) client(ctx context.Context) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.cfg.AccessKey,
			s.cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, err
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.cfg.BaseEndpoint)
	}), nil
}

// Store uploads the local file and returns its public URL. The temp file is
// removed afterwards regardless of outcome.
func (s *S3Store) Store(ctx context.Context, localPath string) (string, error) {
	defer os.Remove(localPath)

	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("media store: %w", err)
	}
	defer f.Close()

	client, err := s.client(ctx)
	if err != nil {
		return "", fmt.Errorf("media store: %w", err)
	}

	ext := filepath.Ext(localPath)
	key := randomStorageKey(ext)

	contentType := mime.TypeByExtension(ext)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err = putObject(client, ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("media store: %w", err)
	}

	return strings.TrimRight(s.cfg.PublicBaseURL, "/") + "/" + key, nil
}
