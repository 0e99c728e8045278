// Package storage implements photo object storage over an S3-compatible
// backend (MinIO in development).
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	sc "github.com/avilrenovations/estimates/internal/server/config"
)

// PhotoStore is the object-storage surface used by the intake flow and the
// Drive side channel.
type PhotoStore interface {
	// Upload stores one photo under key and returns its public URL.
	Upload(ctx context.Context, key, contentType string, data []byte) (string, error)

	// Download fetches the photo bytes stored under key.
	Download(ctx context.Context, key string) ([]byte, error)

	// KeyFromURL recovers the object key from a URL previously returned
	// by Upload. The second result is false for foreign URLs.
	KeyFromURL(url string) (string, bool)
}

// s3API is the subset of the S3 client the store needs; a seam for tests.
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Store stores photos in a single bucket, path-style, so public URLs have
// the shape <endpoint>/<bucket>/<key>.
type S3Store struct {
	client     s3API
	bucket     string
	publicBase string
}

// NewS3Store builds an S3 client with static credentials and a custom base
// endpoint, matching the MinIO-compatible setup used in development.
func NewS3Store(ctx context.Context, cfg *sc.Config) (*S3Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3RootUser,
			cfg.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.S3BaseEndpoint)
		o.UsePathStyle = true
	})

	return &S3Store{
		client:     client,
		bucket:     cfg.S3Bucket,
		publicBase: strings.TrimRight(cfg.S3BaseEndpoint, "/"),
	}, nil
}

func (s *S3Store) Upload(ctx context.Context, key, contentType string, data []byte) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload photo: %w", err)
	}
	return s.publicBase + "/" + s.bucket + "/" + key, nil
}

func (s *S3Store) Download(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download photo: %w", err)
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

func (s *S3Store) KeyFromURL(url string) (string, bool) {
	return strings.CutPrefix(url, s.publicBase+"/"+s.bucket+"/")
}
