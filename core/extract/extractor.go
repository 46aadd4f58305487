// Package extract implements the Extractor interface.
// It isolates the main content of a full HTML page by:
//  1. Reading page metadata from <head> (title, author, description, site, language)
//  2. Removing noise elements (navigation, scripts, forms, ads)
//  3. Finding the best content container (<main>, <article>, [role=main] or <body>)
//
// Media, figures and task-list checkboxes stay: the converter has rules for them.
package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gaurav-prasanna/markpipe/core"
)

// noiseSelectors are removed before extraction.
var noiseSelectors = []string{
	"script:not([type^='math/tex'])", "style", "noscript", "template",
	"nav", "body > header", "body > footer",
	"canvas",
	"form", "button", "select", "textarea", "input:not([type=checkbox])",
	".sidebar", ".menu", ".navigation", ".ads", ".advertisement",
	"[aria-hidden=true]",
}

// containers are tried in order; the first match holds the content.
var containers = []string{"main", "article", "[role=main]", "body"}

// HTMLExtractor strips noise from HTML and returns the main content fragment.
type HTMLExtractor struct{}

// New creates an HTMLExtractor.
func New() *HTMLExtractor {
	return &HTMLExtractor{}
}

// Extract takes raw HTML and returns the main content fragment together
// with the page metadata.
func (e *HTMLExtractor) Extract(html string) (*core.Extraction, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	meta := Metadata(doc)

	for _, sel := range noiseSelectors {
		doc.Find(sel).Remove()
	}

	var content *goquery.Selection
	for _, sel := range containers {
		if found := doc.Find(sel); found.Length() > 0 {
			content = found.First()
			break
		}
	}
	if content == nil {
		return nil, fmt.Errorf("no content container found in HTML")
	}

	result, err := goquery.OuterHtml(content)
	if err != nil {
		return nil, fmt.Errorf("serializing content: %w", err)
	}
	return &core.Extraction{HTML: result, Metadata: meta}, nil
}

// Metadata reads the page metadata from doc. Open Graph values are used
// when the plain ones are missing.
func Metadata(doc *goquery.Document) core.PageMetadata {
	meta := func(selectors ...string) string {
		for _, sel := range selectors {
			if v, ok := doc.Find(sel).First().Attr("content"); ok {
				if v = strings.TrimSpace(v); v != "" {
					return v
				}
			}
		}
		return ""
	}

	title := strings.TrimSpace(doc.Find("head title").First().Text())
	if title == "" {
		title = meta(`meta[property="og:title"]`)
	}
	if title == "" {
		title = strings.TrimSpace(doc.Find("h1").First().Text())
	}

	lang, _ := doc.Find("html").First().Attr("lang")

	return core.PageMetadata{
		Title:       title,
		Author:      meta(`meta[name="author"]`, `meta[property="article:author"]`),
		Description: meta(`meta[name="description"]`, `meta[property="og:description"]`),
		SiteName:    meta(`meta[property="og:site_name"]`),
		Language:    strings.TrimSpace(lang),
	}
}
