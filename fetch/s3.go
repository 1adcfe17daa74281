// Package fetch downloads results archives from object storage so the
// pipeline can be pointed directly at an s3:// URI instead of a local copy.
package fetch

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pkg/errors"
)

// Environment overrides for S3-compatible stores (e.g. R2 or MinIO).
const (
	envEndpoint  = "USBIP_REPORT_S3_ENDPOINT"
	envAccessKey = "USBIP_REPORT_S3_ACCESS_KEY"
	envSecretKey = "USBIP_REPORT_S3_SECRET_KEY"
)

// IsS3URI reports whether the input path is an s3:// URI.
func IsS3URI(s string) bool {
	return strings.HasPrefix(s, "s3://")
}

// ParseS3URI splits s3://bucket/key/path into bucket and key.
func ParseS3URI(uri string) (bucket, key string, err error) {
	rest := strings.TrimPrefix(uri, "s3://")
	bucket, key, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", errors.Errorf("invalid S3 URI %q, expected s3://bucket/key", uri)
	}
	return bucket, key, nil
}

// Fetcher downloads objects from S3 or an S3-compatible endpoint.
type Fetcher struct {
	client *s3.Client
}

// NewFetcher creates a fetcher from the default AWS configuration chain.
// When the endpoint environment override is set, the endpoint and static
// credentials from the environment are used instead, the same way the
// benchmark uploader talks to R2.
func NewFetcher(ctx context.Context) (*Fetcher, error) {
	var opts []func(*config.LoadOptions) error

	if endpoint := os.Getenv(envEndpoint); endpoint != "" {
		resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
			return aws.Endpoint{URL: endpoint}, nil
		})
		opts = append(opts,
			config.WithEndpointResolverWithOptions(resolver),
			config.WithRegion("auto"),
		)
		if ak, sk := os.Getenv(envAccessKey), os.Getenv(envSecretKey); ak != "" && sk != "" {
			opts = append(opts, config.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(ak, sk, "")))
		}
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "load AWS config")
	}
	return &Fetcher{client: s3.NewFromConfig(cfg)}, nil
}

// Download fetches an object into destDir and returns the local path. The
// file keeps the object key's base name so archive suffix detection still
// works downstream.
func (f *Fetcher) Download(ctx context.Context, bucket, key, destDir string) (string, error) {
	out, err := f.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", errors.Wrapf(err, "get s3://%s/%s", bucket, key)
	}
	defer out.Body.Close()

	local := filepath.Join(destDir, filepath.Base(key))
	file, err := os.Create(local)
	if err != nil {
		return "", errors.Wrapf(err, "create %s", local)
	}
	if _, err := io.Copy(file, out.Body); err != nil {
		file.Close()
		return "", errors.Wrapf(err, "download s3://%s/%s", bucket, key)
	}
	if err := file.Close(); err != nil {
		return "", errors.Wrapf(err, "close %s", local)
	}
	return local, nil
}

// DownloadArchive resolves an s3:// URI and downloads the object into
// destDir.
func DownloadArchive(ctx context.Context, uri, destDir string) (string, error) {
	bucket, key, err := ParseS3URI(uri)
	if err != nil {
		return "", err
	}
	f, err := NewFetcher(ctx)
	if err != nil {
		return "", err
	}
	return f.Download(ctx, bucket, key, destDir)
}
