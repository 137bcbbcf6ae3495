// Package fetch downloads remote rule documents.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	DefaultTimeout   = 30 * time.Second
	DefaultUserAgent = "rulexpand/1.0"
)

// StatusError is returned for responses outside the 2xx range.
type StatusError struct {
	URL    string
	Status string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected HTTP status %s", e.Status)
}

// Waiter delays a fetch until the remote host may be contacted again.
type Waiter interface {
	Wait(ctx context.Context, key string) error
}

type Options struct {
	Timeout   time.Duration
	UserAgent string
	Limiter   Waiter
}

// Fetcher retrieves rule documents over HTTP or from local mirrors.
type Fetcher struct {
	client    *http.Client
	userAgent string
	limiter   Waiter
}

func New(opts Options) *Fetcher {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &Fetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
		limiter:   opts.Limiter,
	}
}

// Fetch returns the raw body behind raw. Paths starting with "/", "./" or
// "../" and file:// URLs are read from disk.
func (f *Fetcher) Fetch(ctx context.Context, raw string) ([]byte, error) {
	if looksLikeFilePath(raw) {
		return os.ReadFile(raw)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse url %q: %w", raw, err)
	}
	switch u.Scheme {
	case "file":
		return os.ReadFile(filepath.FromSlash(u.Path))
	case "http", "https":
	default:
		return nil, fmt.Errorf("unsupported scheme %q in %s", u.Scheme, raw)
	}

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx, u.Host); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, raw, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{URL: raw, Status: resp.Status, Code: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return data, nil
}

func looksLikeFilePath(s string) bool {
	return strings.HasPrefix(s, "./") || strings.HasPrefix(s, "../") || strings.HasPrefix(s, "/")
}
