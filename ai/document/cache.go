package document

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/Abraxas-365/doccraft/ai/ocr"
	"github.com/Abraxas-365/doccraft/fsx"
)

// CacheSchemaVersion is written into every cache entry
const CacheSchemaVersion = 1

const (
	cacheFilePrefix = "mistral_ocr_"
	cacheFileSuffix = ".json"
)

// DefaultCacheDir is used when no cache location is configured
const DefaultCacheDir = "caches"

// cacheEntry is the on-disk envelope around a verbatim OCR response
type cacheEntry struct {
	SchemaVersion int             `json:"schema_version"`
	Key           string          `json:"key"`
	Source        string          `json:"source"`
	CreatedAt     time.Time       `json:"created_at"`
	Response      json.RawMessage `json:"response"`
}

// CacheEntryInfo describes a stored entry
type CacheEntryInfo struct {
	Key     string
	Size    int64
	ModTime time.Time
}

// Cache stores OCR results keyed by the hash of their source identifier.
// Entries are never revalidated: a remote file that changes behind the
// same URL keeps returning the first result.
type Cache struct {
	fs  fsx.FileSystem
	now func() time.Time
}

// NewCache creates a cache over fs
func NewCache(fs fsx.FileSystem) *Cache {
	return &Cache{fs: fs, now: time.Now}
}

// Root describes where entries live
func (c *Cache) Root() string {
	return c.fs.Root()
}

// CacheKey returns the hex MD5 of the trimmed source identifier
func CacheKey(source string) string {
	sum := md5.Sum([]byte(strings.TrimSpace(source)))
	return hex.EncodeToString(sum[:])
}

// CacheFileName returns the file name used for key
func CacheFileName(key string) string {
	return cacheFilePrefix + key + cacheFileSuffix
}

// Get returns the cached result for key. A missing entry is reported as
// found == false; an entry that cannot be decoded is an error.
func (c *Cache) Get(ctx context.Context, key string) (*ocr.Result, bool, error) {
	name := CacheFileName(key)
	data, err := c.fs.ReadFile(ctx, name)
	if errors.Is(err, fsx.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errRegistry.NewWithCause(ErrCodeIOFailure, err).
			WithDetail("file", name)
	}

	corrupt := func(reason string, cause error) error {
		e := errRegistry.New(ErrCodeCacheCorrupt).
			WithDetail("file", name).
			WithDetail("reason", reason)
		if cause != nil {
			e = e.WithCause(cause)
		}
		return e
	}

	var entry cacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, false, corrupt("undecodable entry", err)
	}
	if entry.SchemaVersion != CacheSchemaVersion {
		return nil, false, corrupt("unsupported schema version", nil)
	}
	if entry.Key != key {
		return nil, false, corrupt("key mismatch", nil)
	}
	if len(entry.Response) == 0 || string(entry.Response) == "null" {
		return nil, false, corrupt("empty response", nil)
	}

	result, err := ocr.Decode(entry.Response)
	if err != nil {
		return nil, false, corrupt("undecodable response", err)
	}
	if len(result.Pages) == 0 {
		return nil, false, corrupt("response has no pages", nil)
	}
	return result, true, nil
}

// Put stores result under key
func (c *Cache) Put(ctx context.Context, key, source string, result *ocr.Result) error {
	response := result.Raw
	if len(response) == 0 {
		raw, err := json.Marshal(result)
		if err != nil {
			return errRegistry.NewWithCause(ErrCodeSerializationFail, err)
		}
		response = raw
	}

	data, err := json.MarshalIndent(cacheEntry{
		SchemaVersion: CacheSchemaVersion,
		Key:           key,
		Source:        source,
		CreatedAt:     c.now().UTC(),
		Response:      response,
	}, "", "  ")
	if err != nil {
		return errRegistry.NewWithCause(ErrCodeSerializationFail, err)
	}

	name := CacheFileName(key)
	if err := c.fs.WriteFile(ctx, name, data); err != nil {
		return errRegistry.NewWithCause(ErrCodeIOFailure, err).
			WithDetail("file", name)
	}
	return nil
}

// List returns the stored entries
func (c *Cache) List(ctx context.Context) ([]CacheEntryInfo, error) {
	files, err := c.fs.List(ctx, "", cacheFilePrefix)
	if err != nil {
		return nil, errRegistry.NewWithCause(ErrCodeIOFailure, err)
	}

	entries := make([]CacheEntryInfo, 0, len(files))
	for _, f := range files {
		if !strings.HasSuffix(f.Name, cacheFileSuffix) {
			continue
		}
		key := strings.TrimSuffix(strings.TrimPrefix(f.Name, cacheFilePrefix), cacheFileSuffix)
		entries = append(entries, CacheEntryInfo{Key: key, Size: f.Size, ModTime: f.ModTime})
	}
	return entries, nil
}

// Delete removes the entry for key. Deleting a missing entry is not an error.
func (c *Cache) Delete(ctx context.Context, key string) error {
	err := c.fs.DeleteFile(ctx, CacheFileName(key))
	if err != nil && !errors.Is(err, fsx.ErrNotExist) {
		return errRegistry.NewWithCause(ErrCodeIOFailure, err).
			WithDetail("key", key)
	}
	return nil
}
