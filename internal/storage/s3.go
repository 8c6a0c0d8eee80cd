package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Environment variables read by S3ConfigFromEnv.
const (
	EnvS3Endpoint  = "FLOODPATH_S3_ENDPOINT"
	EnvS3AccessKey = "FLOODPATH_S3_ACCESS_KEY"
	EnvS3SecretKey = "FLOODPATH_S3_SECRET_KEY"
	EnvS3Region    = "FLOODPATH_S3_REGION"
	EnvS3UseSSL    = "FLOODPATH_S3_USE_SSL"
)

// S3Config holds the connection settings of an S3-compatible store.
type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// Enabled reports whether an endpoint is configured.
func (c S3Config) Enabled() bool { return strings.TrimSpace(c.Endpoint) != "" }

// S3ConfigFromEnv loads the given .env files, if they exist, and reads the
// S3 settings from the environment. Variables already set in the
// environment win over the files.
func S3ConfigFromEnv(envFiles ...string) (S3Config, error) {
	var existing []string
	for _, f := range envFiles {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) > 0 {
		if err := godotenv.Load(existing...); err != nil {
			return S3Config{}, fmt.Errorf("storage: loading env files: %w", err)
		}
	}

	cfg := S3Config{
		Endpoint:  os.Getenv(EnvS3Endpoint),
		Region:    os.Getenv(EnvS3Region),
		AccessKey: os.Getenv(EnvS3AccessKey),
		SecretKey: os.Getenv(EnvS3SecretKey),
		UseSSL:    true,
	}
	if v := strings.TrimSpace(os.Getenv(EnvS3UseSSL)); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return S3Config{}, fmt.Errorf("storage: %s: %w", EnvS3UseSSL, err)
		}
		cfg.UseSSL = b
	}
	return cfg, nil
}

// S3 is the backend for s3:// locations.
type S3 struct {
	client *minio.Client
	region string
}

// NewS3 creates an S3 backend.
func NewS3(cfg S3Config) (*S3, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint is required")
	}
	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)
	if access == "" || secret == "" {
		return nil, fmt.Errorf("s3 access key and secret key are required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}
	return &S3{client: client, region: region}, nil
}

// Open implements Backend. The object is read fully so that a missing key
// is reported here rather than on the first Read.
func (s *S3) Open(ctx context.Context, loc Location) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, loc.Bucket, loc.Key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("storage: get %s: %w", loc, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		errResp := minio.ToErrorResponse(err)
		if errResp.Code == "NoSuchKey" || errResp.Code == "NoSuchBucket" {
			return nil, fmt.Errorf("storage: %s not found: %w", loc, err)
		}
		return nil, fmt.Errorf("storage: read %s: %w", loc, err)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// Write implements Backend. The bucket is created when it does not exist.
func (s *S3) Write(ctx context.Context, loc Location, data []byte) error {
	exists, err := s.client.BucketExists(ctx, loc.Bucket)
	if err != nil {
		return fmt.Errorf("storage: check bucket %s: %w", loc.Bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, loc.Bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
			return fmt.Errorf("storage: create bucket %s: %w", loc.Bucket, err)
		}
	}

	_, err = s.client.PutObject(ctx, loc.Bucket, loc.Key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType(loc.Key),
	})
	if err != nil {
		return fmt.Errorf("storage: put %s: %w", loc, err)
	}
	return nil
}
