package rules

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/JohannesKaufmann/dom"
	"github.com/andybalholm/cascadia"
	"github.com/gaurav-prasanna/markpipe/core"
	"github.com/gaurav-prasanna/markpipe/core/rewrite"
	"github.com/gaurav-prasanna/markpipe/core/tree"
	"golang.org/x/net/html"
)

var (
	extraNewlines = regexp.MustCompile(`\n{3,}`)
	lineBreaks    = regexp.MustCompile(`[ \t]*\n\s*`)
)

// block wraps s in blank lines.
func block(s string) string {
	return "\n\n" + s + "\n\n"
}

// tidy trims content and squeezes runs of blank lines.
func tidy(content string) string {
	return extraNewlines.ReplaceAllString(strings.TrimSpace(content), "\n\n")
}

// oneLine flattens content onto a single line.
func oneLine(content string) string {
	return strings.TrimSpace(lineBreaks.ReplaceAllString(content, " "))
}

func blockRules(st *State) []Rule {
	opts := st.Options
	return []Rule{
		{
			Name: "horizontal rule",
			Tags: []string{"hr"},
			Raw:  true,
			Replace: func(string, *html.Node) string {
				return block("---")
			},
		},
		{
			Name:    "heading",
			Tags:    []string{"h1", "h2", "h3", "h4", "h5", "h6"},
			Replace: func(content string, n *html.Node) string { return heading(opts, content, n) },
		},
		{
			Name:    "code block",
			Tags:    []string{"pre"},
			Raw:     true,
			Replace: func(_ string, n *html.Node) string { return codeBlock(opts, n) },
		},
		{
			Name: "blockquote",
			Tags: []string{"blockquote"},
			Replace: func(content string, _ *html.Node) string {
				text := tidy(content)
				if text == "" {
					return ""
				}
				return block(quote(text))
			},
		},
		{
			Name: "media",
			Tags: []string{"audio", "video"},
			Raw:  true,
			Replace: func(_ string, n *html.Node) string {
				src := rewrite.MediaURL(n)
				if src == "" {
					return ""
				}
				label := "Video"
				if n.Data == "audio" {
					label = "Audio"
				}
				return block("[" + label + "](" + escapeDestination(st.Resolve(src)) + ")")
			},
		},
		{
			Name:     "definition list",
			Tags:     []string{"dl"},
			Elements: true,
			Replace: func(content string, _ *html.Node) string {
				return block(strings.TrimSpace(content))
			},
		},
		{
			Name: "definition term",
			Tags: []string{"dt"},
			Replace: func(content string, _ *html.Node) string {
				return "\n" + oneLine(content) + "\n"
			},
		},
		{
			Name: "definition description",
			Tags: []string{"dd"},
			Replace: func(content string, _ *html.Node) string {
				return ": " + indent(tidy(content), "  ") + "\n"
			},
		},
		{
			Name:    "footnote definitions",
			Tags:    []string{"section", "div", "ol"},
			Filter:  isFootnoteList,
			Raw:     true,
			Replace: func(_ string, n *html.Node) string { return footnotes(n) },
		},
	}
}

func heading(opts core.Options, content string, n *html.Node) string {
	text := oneLine(content)
	if text == "" {
		return ""
	}
	if id := strings.TrimSpace(dom.GetAttributeOr(n, "id", "")); id != "" {
		text += " {#" + id + "}"
	}
	level := int(n.Data[1] - '0')
	if opts.HeadingStyle == core.HeadingSetext && level <= 2 {
		ch := "="
		if level == 2 {
			ch = "-"
		}
		return block(text + "\n" + strings.Repeat(ch, max(utf8.RuneCountInString(text), 4)))
	}
	return block(strings.Repeat("#", level) + " " + text)
}

func codeBlock(opts core.Options, pre *html.Node) string {
	code, text := tree.CodeParts(pre)
	text = tree.TrimBlankLines(text)
	if text == "" {
		return ""
	}
	if opts.CodeBlockStyle == core.CodeBlockIndented {
		return block(indent("    "+text, "    "))
	}
	return block(tree.FencedBlock(opts.Fence, tree.CodeLanguage(code, pre), text))
}

// indent prefixes every line after the first with pad; blank lines stay
// empty.
func indent(s, pad string) string {
	lines := strings.Split(s, "\n")
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) != "" {
			lines[i] = pad + lines[i]
		}
	}
	return strings.Join(lines, "\n")
}

// quote prefixes every line with "> ", or ">" when the line is blank.
func quote(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		if strings.TrimSpace(l) == "" {
			lines[i] = ">"
		} else {
			lines[i] = "> " + l
		}
	}
	return strings.Join(lines, "\n")
}

var (
	footnoteContainer = cascadia.MustCompile(`section.footnotes, div.footnotes, section[role="doc-endnotes"], div[role="doc-endnotes"]`)
	footnoteBackref   = cascadia.MustCompile(`a.footnote-backref, a[role="doc-backlink"], a[rev="footnote"], a.reversefootnote`)
)

func isFootnoteList(n *html.Node) bool {
	if footnoteContainer.Match(n) {
		return len(footnoteItems(n)) > 0
	}
	if !tree.IsElement(n, "ol") {
		return false
	}
	items := tree.ElementChildren(n, "li")
	if len(items) == 0 {
		return false
	}
	for _, li := range items {
		if footnoteID(li) == "" {
			return false
		}
	}
	return true
}

// footnoteID returns the footnote label carried by an id like fn1, fn:1
// or fn-note.
func footnoteID(n *html.Node) string {
	id := strings.TrimSpace(dom.GetAttributeOr(n, "id", ""))
	if !strings.HasPrefix(id, "fn") || strings.HasPrefix(id, "fnref") {
		return ""
	}
	return trimFootnotePrefix(id)
}

func trimFootnotePrefix(id string) string {
	id = strings.TrimPrefix(id, "fn")
	id = strings.TrimLeft(id, ":-_")
	return id
}

func footnoteItems(container *html.Node) []*html.Node {
	var items []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if tree.IsElement(c, "li") && footnoteID(c) != "" {
				items = append(items, c)
				continue
			}
			walk(c)
		}
	}
	walk(container)
	return items
}

func footnotes(n *html.Node) string {
	var lines []string
	for _, li := range footnoteItems(n) {
		lines = append(lines, "[^"+footnoteID(li)+"]: "+footnoteText(li))
	}
	return block(strings.Join(lines, "\n"))
}

// footnoteText is the collapsed text of a footnote without its back
// references.
func footnoteText(li *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			switch {
			case c.Type == html.TextNode:
				b.WriteString(c.Data)
			case c.Type == html.ElementNode && footnoteBackref.Match(c):
			default:
				walk(c)
			}
			if tree.IsElement(c, "p", "div", "br") {
				b.WriteByte(' ')
			}
		}
	}
	walk(li)
	return strings.TrimSpace(strings.TrimRight(strings.Join(strings.Fields(b.String()), " "), "↩"))
}
