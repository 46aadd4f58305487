// Package core defines the shared types and stage interfaces for markpipe.
// Each stage of the HTML→Markdown pipeline is a clean, testable interface.
package core

import "context"

// FetchResult holds the raw HTML and where it came from.
type FetchResult struct {
	Source     string // URL, file path or "-" for stdin
	StatusCode int    // HTTP status, 0 for local sources
	HTML       string
}

// PageMetadata holds metadata extracted from the page. It is the raw
// material for a generated front-matter block.
type PageMetadata struct {
	URL         string `json:"url,omitempty" yaml:"url,omitempty"`
	Title       string `json:"title,omitempty" yaml:"title,omitempty"`
	Author      string `json:"author,omitempty" yaml:"author,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	SiteName    string `json:"site_name,omitempty" yaml:"site_name,omitempty"`
	Language    string `json:"language,omitempty" yaml:"language,omitempty"`
	FetchedAt   string `json:"fetched_at,omitempty" yaml:"fetched_at,omitempty"` // ISO8601
}

// Extraction is the output of the content-extraction collaborator:
// the HTML fragment to convert plus whatever metadata it found.
type Extraction struct {
	HTML     string
	Metadata PageMetadata
}

// Fetcher retrieves raw HTML from a URL, a file path or stdin.
type Fetcher interface {
	Fetch(ctx context.Context, source string) (*FetchResult, error)
}

// Extractor pulls the main content from raw HTML, stripping noise.
type Extractor interface {
	Extract(html string) (*Extraction, error)
}

// Converter turns an HTML string into Markdown. Convert never fails; it
// degrades to a commented copy of the input instead.
type Converter interface {
	Convert(html string) string
}

// Normalizer converts cleaned HTML into Markdown and reports failures to
// the caller instead of degrading.
type Normalizer interface {
	Normalize(html string) (string, error)
}

// ErrorReporter receives failures that the pipeline recovered from.
// Implementations must be safe for concurrent use.
type ErrorReporter interface {
	Report(category, message string, err error)
}

// Renderer turns converted Markdown and its page metadata into the bytes
// written for one source.
type Renderer interface {
	Render(markdown string, meta PageMetadata) ([]byte, error)
	Extension() string
}
