package fsx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3API is the subset of the S3 client used by S3FileSystem
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3FileSystem stores files as objects under a bucket prefix. A PutObject is
// atomic, so readers never observe a partial object.
type S3FileSystem struct {
	client S3API
	bucket string
	prefix string
}

// NewS3FileSystem builds a client from the default AWS configuration chain
func NewS3FileSystem(ctx context.Context, bucket, prefix string) (*S3FileSystem, error) {
	if bucket == "" {
		return nil, errors.New("s3: bucket is required")
	}
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("s3: load aws config: %w", err)
	}
	return NewS3FileSystemWithClient(s3.NewFromConfig(cfg), bucket, prefix), nil
}

// NewS3FileSystemWithClient wraps an existing client
func NewS3FileSystemWithClient(client S3API, bucket, prefix string) *S3FileSystem {
	return &S3FileSystem{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
	}
}

func (s *S3FileSystem) key(p string) string {
	if s.prefix == "" {
		return strings.TrimPrefix(p, "/")
	}
	return path.Join(s.prefix, p)
}

// Root returns the s3:// location
func (s *S3FileSystem) Root() string {
	return "s3://" + path.Join(s.bucket, s.prefix)
}

// ReadFile downloads an object
func (s *S3FileSystem) ReadFile(ctx context.Context, p string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(p)),
	})
	if err != nil {
		return nil, s.translate(p, err)
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

// WriteFile uploads an object
func (s *S3FileSystem) WriteFile(ctx context.Context, p string, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(p)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("s3: put %s: %w", s.key(p), err)
	}
	return nil
}

// Exists checks for an object with HeadObject
func (s *S3FileSystem) Exists(ctx context.Context, p string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(p)),
	})
	if err == nil {
		return true, nil
	}
	if err = s.translate(p, err); errors.Is(err, ErrNotExist) {
		return false, nil
	}
	return false, err
}

// DeleteFile removes an object
func (s *S3FileSystem) DeleteFile(ctx context.Context, p string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(p)),
	})
	if err != nil {
		return fmt.Errorf("s3: delete %s: %w", s.key(p), err)
	}
	return nil
}

// List returns objects directly under dir whose base name starts with prefix
func (s *S3FileSystem) List(ctx context.Context, dir, prefix string) ([]FileInfo, error) {
	base := s.key(dir)
	if base != "" && !strings.HasSuffix(base, "/") {
		base += "/"
	}

	var files []FileInfo
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(s.bucket),
		Prefix:    aws.String(base + prefix),
		Delimiter: aws.String("/"),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("s3: list %s: %w", base, err)
		}
		for _, obj := range page.Contents {
			info := FileInfo{Name: path.Join(dir, path.Base(aws.ToString(obj.Key)))}
			if obj.Size != nil {
				info.Size = *obj.Size
			}
			if obj.LastModified != nil {
				info.ModTime = *obj.LastModified
			}
			files = append(files, info)
		}
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

func (s *S3FileSystem) translate(p string, err error) error {
	var noKey *types.NoSuchKey
	var notFound *types.NotFound
	if errors.As(err, &noKey) || errors.As(err, &notFound) {
		return fmt.Errorf("s3: %s: %w", s.key(p), ErrNotExist)
	}
	return fmt.Errorf("s3: %s: %w", s.key(p), err)
}
