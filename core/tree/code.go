package tree

import (
	"regexp"
	"strings"

	"github.com/JohannesKaufmann/dom"
	"golang.org/x/net/html"
)

// languageClass matches the class conventions used by highlighters:
// language-go, lang-go and highlight-source-go.
var languageClass = regexp.MustCompile(`(?:^|\s)(?:language|lang|highlight-source)-([A-Za-z0-9_+#.-]+)(?:\s|$)`)

// CodeLanguage detects the language of a code block from the code element
// and its enclosing pre. The first hint found wins.
func CodeLanguage(nodes ...*html.Node) string {
	for _, n := range nodes {
		if n == nil {
			continue
		}
		for _, key := range []string{"data-lang", "data-language"} {
			if v := strings.TrimSpace(dom.GetAttributeOr(n, key, "")); v != "" {
				return v
			}
		}
		if m := languageClass.FindStringSubmatch(dom.GetAttributeOr(n, "class", "")); m != nil {
			return m[1]
		}
	}
	return ""
}

// CodeParts splits a pre block into its code element (nil when the pre
// holds more than a single code child) and raw text.
func CodeParts(pre *html.Node) (code *html.Node, text string) {
	for c := pre.FirstChild; c != nil; c = c.NextSibling {
		switch {
		case IsElement(c, "code") && code == nil:
			code = c
		case IsBlank(c):
		default:
			code = nil
			return nil, dom.CollectText(pre)
		}
	}
	if code != nil {
		return code, dom.CollectText(code)
	}
	return nil, dom.CollectText(pre)
}

// TrimBlankLines removes leading and trailing lines that hold only
// whitespace, keeping the indentation of the first real line.
func TrimBlankLines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	lines := strings.Split(s, "\n")
	start, end := 0, len(lines)
	for start < end && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	return strings.Join(lines[start:end], "\n")
}

// Fence returns a fence made of the fence character that is longer than
// any run of it inside content.
func Fence(fence, content string) string {
	if fence == "" {
		fence = "```"
	}
	ch := fence[:1]
	longest := 0
	for _, line := range strings.Split(content, "\n") {
		t := strings.TrimSpace(line)
		run := len(t) - len(strings.TrimLeft(t, ch))
		if run > longest {
			longest = run
		}
	}
	if longest >= len(fence) {
		return strings.Repeat(ch, longest+1)
	}
	return fence
}

// FencedBlock renders content as a fenced code block.
func FencedBlock(fence, lang, content string) string {
	f := Fence(fence, content)
	return f + lang + "\n" + content + "\n" + f
}
