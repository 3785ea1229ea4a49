package fsx

import (
	"context"
	"io/fs"
	"strings"
	"time"
)

// ErrNotExist is returned (wrapped) when a path does not exist in any backend
var ErrNotExist = fs.ErrNotExist

// FileInfo represents information about a file
type FileInfo struct {
	Name    string    // Path relative to the file system root
	Size    int64     // File size in bytes
	ModTime time.Time // Modification time
}

// FileSystem defines the flat file operations the cache needs. Paths are
// slash-separated and relative to the backend's root.
type FileSystem interface {
	ReadFile(ctx context.Context, path string) ([]byte, error)

	// WriteFile must never leave a partially written file visible at path
	WriteFile(ctx context.Context, path string, data []byte) error

	Exists(ctx context.Context, path string) (bool, error)
	DeleteFile(ctx context.Context, path string) error

	// List returns the files directly under dir whose names start with prefix
	List(ctx context.Context, dir, prefix string) ([]FileInfo, error)

	// Root describes where files live, for logs
	Root() string
}

// Open picks a backend from a location string: s3://bucket/prefix selects S3,
// anything else is a local directory.
func Open(ctx context.Context, location string) (FileSystem, error) {
	if strings.HasPrefix(location, "s3://") {
		bucket, prefix, _ := strings.Cut(strings.TrimPrefix(location, "s3://"), "/")
		return NewS3FileSystem(ctx, bucket, prefix)
	}
	return NewLocalFileSystem(location), nil
}
