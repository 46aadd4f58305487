// Package render provides the output renderers for converted pages.
// This file implements the Markdown renderer.
package render

import (
	"strings"

	"github.com/gaurav-prasanna/markpipe/core"
	"github.com/gaurav-prasanna/markpipe/core/frontmatter"
)

// MarkdownRenderer writes the Markdown itself, optionally headed by front
// matter generated from the page metadata.
type MarkdownRenderer struct {
	// FrontMatter adds the metadata as YAML front matter unless the
	// Markdown already carries a block of its own.
	FrontMatter bool
}

// NewMarkdownRenderer creates a MarkdownRenderer.
func NewMarkdownRenderer(frontMatter bool) *MarkdownRenderer {
	return &MarkdownRenderer{FrontMatter: frontMatter}
}

// Render returns the Markdown as bytes, ending in a single newline.
func (r *MarkdownRenderer) Render(markdown string, meta core.PageMetadata) ([]byte, error) {
	if r.FrontMatter {
		if _, _, found := frontmatter.Split(markdown); !found {
			fm, err := frontmatter.FromMetadata(meta)
			if err != nil {
				return nil, err
			}
			markdown = frontmatter.Attach(fm, markdown)
		}
	}
	return []byte(strings.TrimRight(markdown, "\n") + "\n"), nil
}

// Extension returns the file extension for Markdown output.
func (r *MarkdownRenderer) Extension() string {
	return ".md"
}
