// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package archive bundles a run's artifacts into a gzip-compressed tarball
// and keeps a rotating set of them in S3-compatible object storage.
package archive

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
)

// EnvPrefix is the envconfig prefix for archive settings.
const EnvPrefix = "OSTI_SYNC_ARCHIVE"

// Config is read from OSTI_SYNC_ARCHIVE_* variables.
type Config struct {
	Bucket    string `envconfig:"BUCKET" required:"true"`
	Endpoint  string `envconfig:"ENDPOINT"`
	Region    string `envconfig:"REGION" default:"us-east-1"`
	AccessKey string `envconfig:"ACCESS_KEY"`
	SecretKey string `envconfig:"SECRET_KEY"`
	Prefix    string `envconfig:"PREFIX" default:"osti-sync/"`
	Keep      int    `envconfig:"KEEP" default:"10"`
}

// LoadConfig decodes the archive environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("reading %s_* environment: %w", EnvPrefix, err)
	}
	return cfg, nil
}

// Create writes a tar.gz of files to w, each stored under its base name.
// Missing files are skipped. It returns the names that were archived.
func Create(w io.Writer, files []string) ([]string, error) {
	gz := gzip.NewWriter(w)
	tw := tar.NewWriter(gz)

	var added []string
	for _, path := range files {
		info, err := os.Stat(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", path, err)
		}
		if info.IsDir() {
			continue
		}
		if err := addFile(tw, path, info); err != nil {
			return nil, err
		}
		added = append(added, filepath.Base(path))
	}

	if err := tw.Close(); err != nil {
		return nil, fmt.Errorf("closing tar: %w", err)
	}
	if err := gz.Close(); err != nil {
		return nil, fmt.Errorf("closing gzip: %w", err)
	}
	return added, nil
}

func addFile(tw *tar.Writer, path string, info os.FileInfo) error {
	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return fmt.Errorf("tar header for %s: %w", path, err)
	}
	hdr.Name = filepath.Base(path)
	if err := tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("writing header for %s: %w", path, err)
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := io.Copy(tw, f); err != nil {
		return fmt.Errorf("archiving %s: %w", path, err)
	}
	return nil
}

// ObjectStore is the subset of the S3 API the Uploader uses. *s3.Client
// satisfies it.
type ObjectStore interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// NewS3Client builds a client for cfg. A custom endpoint selects an
// S3-compatible service with path-style addressing.
func NewS3Client(ctx context.Context, cfg Config) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	if cfg.Endpoint != "" {
		resolver := aws.EndpointResolverWithOptionsFunc(
			func(service, region string, options ...interface{}) (aws.Endpoint, error) {
				return aws.Endpoint{
					URL:               cfg.Endpoint,
					SigningRegion:     cfg.Region,
					HostnameImmutable: true,
				}, nil
			},
		)
		opts = append(opts, awsconfig.WithEndpointResolverWithOptions(resolver))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.Endpoint != ""
	}), nil
}

// Uploader stores archives under a key prefix in one bucket.
type Uploader struct {
	Store  ObjectStore
	Bucket string
	Prefix string
	Log    zerolog.Logger
}

// Key returns the object key for an archive created at t.
func (u *Uploader) Key(t time.Time) string {
	return u.Prefix + "osti-sync-" + t.UTC().Format("2006-01-02T15-04-05Z") + ".tar.gz"
}

// Upload stores data under the key for t and returns the key.
func (u *Uploader) Upload(ctx context.Context, data []byte, t time.Time) (string, error) {
	key := u.Key(t)
	_, err := u.Store.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/gzip"),
	})
	if err != nil {
		return "", fmt.Errorf("uploading s3://%s/%s: %w", u.Bucket, key, err)
	}
	u.Log.Info().Str("bucket", u.Bucket).Str("key", key).Int("bytes", len(data)).Msg("archive uploaded")
	return key, nil
}

// Rotate deletes all but the newest keep archives under the prefix and
// returns the deleted keys. Failed deletions are logged and skipped.
func (u *Uploader) Rotate(ctx context.Context, keep int) ([]string, error) {
	var objects []s3types.Object
	p := s3.NewListObjectsV2Paginator(u.Store, &s3.ListObjectsV2Input{
		Bucket: aws.String(u.Bucket),
		Prefix: aws.String(u.Prefix),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing s3://%s/%s: %w", u.Bucket, u.Prefix, err)
		}
		for _, obj := range page.Contents {
			if obj.Key != nil && strings.HasSuffix(*obj.Key, ".tar.gz") {
				objects = append(objects, obj)
			}
		}
	}

	if len(objects) <= keep {
		return nil, nil
	}

	sort.Slice(objects, func(i, j int) bool {
		ti, tj := aws.ToTime(objects[i].LastModified), aws.ToTime(objects[j].LastModified)
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return aws.ToString(objects[i].Key) > aws.ToString(objects[j].Key)
	})

	var deleted []string
	for _, obj := range objects[keep:] {
		_, err := u.Store.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(u.Bucket),
			Key:    obj.Key,
		})
		if err != nil {
			u.Log.Warn().Err(err).Str("key", aws.ToString(obj.Key)).Msg("could not delete old archive")
			continue
		}
		deleted = append(deleted, aws.ToString(obj.Key))
	}
	return deleted, nil
}
