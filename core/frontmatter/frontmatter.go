// Package frontmatter — the metadata block carried through a conversion in
// an HTML comment and reattached to the Markdown between --- fences.
package frontmatter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/gaurav-prasanna/markpipe/core"
	"gopkg.in/yaml.v3"
)

// marker matches <!-- front-matter ... --> (or frontmatter), any case.
var marker = regexp.MustCompile(`(?is)<!--\s*front-?matter[ \t]*\r?\n?(.*?)-->`)

// Extract removes the first front-matter comment from html and returns its
// body, the remaining HTML and whether a block was found.
func Extract(html string) (fm, rest string, found bool) {
	loc := marker.FindStringSubmatchIndex(html)
	if loc == nil {
		return "", html, false
	}
	fm = strings.TrimRight(strings.Trim(html[loc[2]:loc[3]], "\r\n"), " \t\r\n")
	return fm, html[:loc[0]] + html[loc[1]:], true
}

// Attach puts fm in front of md between --- fences. An empty fm leaves md
// unchanged.
func Attach(fm, md string) string {
	if strings.TrimSpace(fm) == "" {
		return md
	}
	return "---\n" + fm + "\n---\n\n" + md
}

// Wrap renders fm as the comment Extract recognizes.
func Wrap(fm string) string {
	return "<!-- front-matter\n" + fm + "\n-->"
}

// FromMetadata renders page metadata as YAML front matter.
func FromMetadata(meta core.PageMetadata) (string, error) {
	out, err := yaml.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("encoding front matter: %w", err)
	}
	fm := strings.TrimRight(string(out), "\n")
	if fm == "{}" {
		return "", nil
	}
	return fm, nil
}

// Validate reports whether fm parses as a YAML mapping.
func Validate(fm string) error {
	var v map[string]any
	if err := yaml.Unmarshal([]byte(fm), &v); err != nil {
		return fmt.Errorf("parsing front matter: %w", err)
	}
	return nil
}

// Split separates a leading --- fenced block from md.
func Split(md string) (fm, body string, found bool) {
	md = strings.ReplaceAll(md, "\r\n", "\n")
	if !strings.HasPrefix(md, "---\n") {
		return "", md, false
	}
	rest := md[len("---\n"):]
	end := strings.Index(rest, "\n---\n")
	switch {
	case end >= 0:
		return rest[:end], strings.TrimLeft(rest[end+len("\n---\n"):], "\n"), true
	case strings.HasSuffix(rest, "\n---"):
		return strings.TrimSuffix(rest, "\n---"), "", true
	}
	return "", md, false
}
