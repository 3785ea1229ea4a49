package document

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// DefaultFetchTimeout bounds a single remote fetch
const DefaultFetchTimeout = 30 * time.Second

const (
	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/58.0.3029.110 Safari/537.3"
	browserAccept    = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
)

// Resolver turns a document source into bytes
type Resolver struct {
	client  *http.Client
	timeout time.Duration
}

// ResolverOption configures a Resolver
type ResolverOption func(*Resolver)

// WithFetchTimeout sets the timeout applied to each remote fetch
func WithFetchTimeout(d time.Duration) ResolverOption {
	return func(r *Resolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithHTTPClient sets the client used for remote fetches
func WithHTTPClient(c *http.Client) ResolverOption {
	return func(r *Resolver) {
		if c != nil {
			r.client = c
		}
	}
}

// NewResolver creates a resolver with a 30s fetch timeout
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{
		client:  &http.Client{},
		timeout: DefaultFetchTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// IsURL reports whether s uses the http or https scheme
func IsURL(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return true
	}
	return false
}

// Resolve returns the bytes of src. Raw bytes are returned unchanged,
// http(s) strings are fetched and any other string is read as a local path.
func (r *Resolver) Resolve(ctx context.Context, src any) ([]byte, error) {
	switch v := src.(type) {
	case []byte:
		return v, nil
	case string:
		s := strings.TrimSpace(v)
		if IsURL(s) {
			return r.fetch(ctx, s)
		}
		return r.readFile(s)
	default:
		return nil, errRegistry.New(ErrCodeUnsupportedContent).
			WithDetail("type", fmt.Sprintf("%T", src))
	}
}

func (r *Resolver) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errRegistry.NewWithCause(ErrCodeFetchFailed, err).
			WithDetail("url", rawURL)
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", browserAccept)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, errRegistry.NewWithCause(ErrCodeFetchFailed, err).
			WithDetail("url", rawURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errRegistry.NewWithMessage(ErrCodeFetchFailed,
			fmt.Sprintf("Failed to fetch document: HTTP %d", resp.StatusCode)).
			WithDetail("url", rawURL).
			WithDetail("status", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errRegistry.NewWithCause(ErrCodeFetchFailed, err).
			WithDetail("url", rawURL)
	}
	return data, nil
}

func (r *Resolver) readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, errRegistry.NewWithCause(ErrCodeNotFound, err).
			WithDetail("path", path)
	}
	if err != nil {
		return nil, errRegistry.NewWithCause(ErrCodeFetchFailed, err).
			WithDetail("path", path)
	}
	return data, nil
}
