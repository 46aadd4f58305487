// Package fetch implements the Fetcher interface.
// A source is an http(s) URL, a local file path, or "-" for stdin.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/gaurav-prasanna/markpipe/core"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "markpipe/1.0 (https://github.com/gaurav-prasanna/markpipe)"

	// maxBodySize caps what is read from any source.
	maxBodySize = 32 << 20
)

// SourceFetcher reads HTML from URLs, files and stdin.
type SourceFetcher struct {
	client    *http.Client
	userAgent string
	stdin     io.Reader
}

// Option configures a SourceFetcher.
type Option func(*SourceFetcher)

// WithTimeout sets the HTTP client timeout. Zero keeps the default.
func WithTimeout(d time.Duration) Option {
	return func(f *SourceFetcher) {
		if d > 0 {
			f.client.Timeout = d
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *SourceFetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithStdin replaces os.Stdin as the reader behind "-".
func WithStdin(r io.Reader) Option {
	return func(f *SourceFetcher) { f.stdin = r }
}

// New creates a SourceFetcher with a sensible timeout.
func New(opts ...Option) *SourceFetcher {
	f := &SourceFetcher{
		client:    &http.Client{Timeout: defaultTimeout},
		userAgent: defaultUserAgent,
		stdin:     os.Stdin,
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// IsURL reports whether source is an absolute http or https URL.
func IsURL(source string) bool {
	u, err := url.Parse(source)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Fetch retrieves the HTML behind source.
func (f *SourceFetcher) Fetch(ctx context.Context, source string) (*core.FetchResult, error) {
	switch {
	case source == "-":
		body, err := readAll(f.stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return &core.FetchResult{Source: source, HTML: body}, nil
	case IsURL(source):
		return f.fetchURL(ctx, source)
	default:
		file, err := os.Open(source)
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", source, err)
		}
		defer file.Close()
		body, err := readAll(file)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", source, err)
		}
		return &core.FetchResult{Source: source, HTML: body}, nil
	}
}

func (f *SourceFetcher) fetchURL(ctx context.Context, rawURL string) (*core.FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d for %s", resp.StatusCode, rawURL)
	}

	body, err := readAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	return &core.FetchResult{
		Source:     rawURL,
		StatusCode: resp.StatusCode,
		HTML:       body,
	}, nil
}

func readAll(r io.Reader) (string, error) {
	body, err := io.ReadAll(io.LimitReader(r, maxBodySize+1))
	if err != nil {
		return "", err
	}
	if len(body) > maxBodySize {
		return "", fmt.Errorf("input exceeds %d bytes", maxBodySize)
	}
	return string(body), nil
}
