// Package output handles file naming and writing for converted sources.
// Names come from the source: example.com/docs/intro becomes
// example_com_docs_intro, guide/page.html becomes page, stdin becomes stdin.
package output

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Writer writes rendered output to disk.
type Writer struct {
	OutputDir string
}

// New creates a Writer targeting the given output directory.
// If outputDir is empty, it defaults to the current working directory.
func New(outputDir string) (*Writer, error) {
	if outputDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting working directory: %w", err)
		}
		outputDir = wd
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	return &Writer{OutputDir: outputDir}, nil
}

// Write stores data under the name derived from source and returns the
// path written.
func (w *Writer) Write(source string, data []byte, ext string) (string, error) {
	path := filepath.Join(w.OutputDir, Name(source)+ext)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing file %s: %w", path, err)
	}
	return path, nil
}

// Name derives the output base name for a source.
func Name(source string) string {
	if source == "-" || source == "" {
		return "stdin"
	}
	if parsed, err := url.Parse(source); err == nil && parsed.Host != "" {
		return filenameFromURL(parsed)
	}
	base := filepath.Base(source)
	if stem := strings.TrimSuffix(base, filepath.Ext(base)); stem != "" {
		base = stem
	}
	return sanitize(base)
}

// filenameFromURL flattens host and path into one name.
func filenameFromURL(parsed *url.URL) string {
	parts := []string{sanitize(parsed.Host)}
	path := strings.Trim(parsed.Path, "/")
	path = strings.TrimSuffix(path, filepath.Ext(path))
	if path != "" {
		for _, seg := range strings.Split(path, "/") {
			parts = append(parts, sanitize(seg))
		}
	}
	return strings.Join(parts, "_")
}

// sanitize replaces non-alphanumeric characters with underscores.
func sanitize(s string) string {
	var b strings.Builder
	for _, ch := range s {
		if (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') || ch == '-' {
			b.WriteRune(ch)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}
