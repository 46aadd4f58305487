package rules

import (
	"strings"

	"github.com/JohannesKaufmann/dom"
	"github.com/andybalholm/cascadia"
	"github.com/gaurav-prasanna/markpipe/core"
	"github.com/gaurav-prasanna/markpipe/core/tree"
	"golang.org/x/net/html"
)

var footnoteRef = cascadia.MustCompile(`a.footnote-ref, a[role="doc-noteref"], a[rel="footnote"], sup.footnote-ref > a, sup[id^="fnref"] > a`)

func inlineRules(st *State) []Rule {
	opts := st.Options
	return []Rule{
		{
			Name:    "line break",
			Tags:    []string{"br"},
			Raw:     true,
			Inline:  true,
			Replace: func(string, *html.Node) string { return "  \n" },
		},
		{
			Name:    "image",
			Tags:    []string{"img"},
			Raw:     true,
			Inline:  true,
			Replace: func(_ string, n *html.Node) string { return image(st, n) },
		},
		{
			Name:   "inline code",
			Tags:   []string{"code", "tt", "samp"},
			Raw:    true,
			Inline: true,
			Filter: func(n *html.Node) bool {
				return tree.Ancestor(n, "pre") == nil
			},
			Replace: func(_ string, n *html.Node) string { return inlineCode(dom.CollectText(n)) },
		},
		{
			Name:    "footnote backref",
			Tags:    []string{"a"},
			Inline:  true,
			Filter:  footnoteBackref.Match,
			Replace: func(string, *html.Node) string { return "" },
		},
		{
			Name:    "footnote reference",
			Tags:    []string{"a"},
			Inline:  true,
			Filter:  footnoteRef.Match,
			Replace: footnoteReference,
		},
		{
			Name:   "plain anchor",
			Tags:   []string{"a"},
			Inline: true,
			Filter: func(n *html.Node) bool {
				href := strings.TrimSpace(dom.GetAttributeOr(n, "href", ""))
				return href == "" || href == "#" || strings.HasPrefix(strings.ToLower(href), "javascript:")
			},
			Replace: func(content string, _ *html.Node) string { return oneLine(content) },
		},
		{
			Name:   "link",
			Tags:   []string{"a"},
			Inline: true,
			Replace: func(content string, n *html.Node) string {
				text := oneLine(content)
				if text == "" {
					return ""
				}
				href := escapeDestination(st.Resolve(dom.GetAttributeOr(n, "href", "")))
				title := strings.TrimSpace(dom.GetAttributeOr(n, "title", ""))
				if opts.LinkStyle == core.LinkReferenced {
					return "[" + text + "][" + st.Reference(href, title) + "]"
				}
				out := "[" + text + "](" + href
				if title != "" {
					out += ` "` + escapeTitle(title) + `"`
				}
				return out + ")"
			},
		},
		{
			Name:   "footnote wrapper",
			Tags:   []string{"sup"},
			Inline: true,
			Filter: func(n *html.Node) bool {
				if tree.HasClass(n, "footnote-ref") {
					return true
				}
				kids := tree.ElementChildren(n)
				return len(kids) == 1 && footnoteRef.Match(kids[0])
			},
			Replace: func(content string, _ *html.Node) string { return strings.TrimSpace(content) },
		},
		wrapRule("superscript", "sup", "^", "^"),
		wrapRule("subscript", "sub", "~", "~"),
		wrapRule("highlight", "mark", "==", "=="),
		wrapRule("keyboard input", "kbd", "<kbd>", "</kbd>"),
		wrapRule("citation", "cite", "_", "_"),
		wrapRule("inline quote", "q", `"`, `"`),
		{
			Name:   "abbreviation",
			Tags:   []string{"abbr"},
			Inline: true,
			Replace: func(content string, n *html.Node) string {
				text := oneLine(content)
				title := strings.TrimSpace(dom.GetAttributeOr(n, "title", ""))
				if text == "" || title == "" || title == text {
					return text
				}
				return text + " (" + title + ")"
			},
		},
	}
}

// wrapRule surrounds the element's single-line text with open and closing,
// or drops the element when it has no text.
func wrapRule(name, tag, open, closing string) Rule {
	return Rule{
		Name:   name,
		Tags:   []string{tag},
		Inline: true,
		Replace: func(content string, _ *html.Node) string {
			text := oneLine(content)
			if text == "" {
				return ""
			}
			return open + text + closing
		},
	}
}

func image(st *State, n *html.Node) string {
	src := strings.TrimSpace(dom.GetAttributeOr(n, "src", ""))
	if src == "" {
		src = strings.TrimSpace(dom.GetAttributeOr(n, "data-src", ""))
	}
	if src == "" {
		return ""
	}
	alt := strings.Join(strings.Fields(dom.GetAttributeOr(n, "alt", "")), " ")
	alt = strings.NewReplacer("[", `\[`, "]", `\]`).Replace(alt)

	out := "![" + alt + "](" + escapeDestination(st.Resolve(src))
	if title := strings.TrimSpace(dom.GetAttributeOr(n, "title", "")); title != "" {
		out += ` "` + escapeTitle(title) + `"`
	}
	if st.Options.PreserveImageSize {
		if size := imageSize(n); size != "" {
			out += " =" + size
		}
	}
	return out + ")"
}

// imageSize returns "WxH", "Wx" or "xH" from the width and height
// attributes, or "" when both are absent.
func imageSize(n *html.Node) string {
	w := strings.TrimSuffix(strings.TrimSpace(dom.GetAttributeOr(n, "width", "")), "px")
	h := strings.TrimSuffix(strings.TrimSpace(dom.GetAttributeOr(n, "height", "")), "px")
	if w == "" && h == "" {
		return ""
	}
	return w + "x" + h
}

// inlineCode wraps text in a backtick run one longer than any run inside
// it. Empty code renders as nothing.
func inlineCode(text string) string {
	text = strings.ReplaceAll(text, "\n", " ")
	if strings.TrimSpace(text) == "" {
		return ""
	}
	longest, run := 0, 0
	for _, r := range text {
		if r == '`' {
			run++
			longest = max(longest, run)
		} else {
			run = 0
		}
	}
	ticks := strings.Repeat("`", longest+1)
	if strings.HasPrefix(text, "`") || strings.HasSuffix(text, "`") {
		return ticks + " " + text + " " + ticks
	}
	return ticks + text + ticks
}

func footnoteReference(content string, n *html.Node) string {
	href := strings.TrimSpace(dom.GetAttributeOr(n, "href", ""))
	if i := strings.LastIndex(href, "#"); i >= 0 {
		if id := trimFootnotePrefix(href[i+1:]); id != "" {
			return "[^" + id + "]"
		}
	}
	label := strings.Trim(oneLine(content), "[]^")
	if label == "" {
		return ""
	}
	return "[^" + label + "]"
}

func escapeDestination(href string) string {
	return strings.NewReplacer(" ", "%20", "(", "%28", ")", "%29").Replace(href)
}

func escapeTitle(title string) string {
	return strings.ReplaceAll(title, `"`, `\"`)
}
