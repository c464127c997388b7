package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// Config holds connection settings for the synthesized-audio object store.
type Config struct {
	Bucket        string
	Region        string
	Endpoint      string // non-empty for S3-compatible stores (MinIO etc.)
	AccessKey     string
	SecretKey     string
	Prefix        string
	PublicBaseURL string // base URL under which stored objects are publicly reachable
}

// S3Store stores synthesized audio in an S3-compatible object store. Objects
// are addressed publicly via PublicBaseURL so the telephony provider can fetch
// them for playback.
type S3Store struct {
	client        *s3.Client
	bucket        string
	prefix        string
	publicBaseURL string
	log           zerolog.Logger
}

// NewS3Store creates an audio store from config.
func NewS3Store(cfg Config, log zerolog.Logger) (*S3Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}

	return &S3Store{
		client:        s3.NewFromConfig(awsCfg, s3Opts...),
		bucket:        cfg.Bucket,
		prefix:        cfg.Prefix,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
		log:           log.With().Str("component", "audio-store").Logger(),
	}, nil
}

// HeadBucket checks that the bucket exists and credentials are valid.
func (s *S3Store) HeadBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: &s.bucket,
	})
	return err
}

// Save writes one object and returns its public URL.
func (s *S3Store) Save(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	objKey := s.objectKey(key)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &s.bucket,
		Key:         &objKey,
		Body:        bytes.NewReader(data),
		ContentType: &contentType,
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", objKey, err)
	}

	s.log.Debug().Str("key", objKey).Int("bytes", len(data)).Msg("audio object stored")
	return s.PublicURL(key), nil
}

// PublicURL returns the publicly reachable URL for a stored key.
func (s *S3Store) PublicURL(key string) string {
	return s.publicBaseURL + "/" + s.objectKey(key)
}

func (s *S3Store) objectKey(key string) string {
	if s.prefix == "" {
		return key
	}
	return strings.TrimRight(s.prefix, "/") + "/" + key
}
