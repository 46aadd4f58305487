package preserve

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gaurav-prasanna/markpipe/core"
	"github.com/gaurav-prasanna/markpipe/core/tree"
	"golang.org/x/net/html"
)

// opaque elements keep their text out of math scanning.
var opaque = map[string]bool{
	"pre": true, "code": true, "script": true, "style": true,
	"textarea": true, "template": true, "math": true, "svg": true,
}

var blockMath = regexp.MustCompile(`(?s)\$\$(.+?)\$\$`)

// preserveClass names the code block classes that are kept verbatim.
var preserveClass = regexp.MustCompile(`(?:^|\s)(?:(?:language|lang)-)?(math|mermaid|diagram|latex|tex)(?:\s|$)`)

// Extract replaces preservable content in doc with tokens recorded in m.
// The steps run in a fixed order and each is isolated: a failing step is
// reported and the remaining ones still run.
func Extract(doc *goquery.Document, m *Map, reporter core.ErrorReporter) {
	if reporter == nil {
		reporter = core.NopReporter{}
	}
	steps := []struct {
		name string
		fn   func(*goquery.Document, *Map)
	}{
		{"tex annotation", extractAnnotatedMath},
		{"inline math", extractInlineMath},
		{"block math", extractBlockMath},
		{"code block", extractCode},
		{"comment", extractComments},
	}
	for _, s := range steps {
		err := core.Guard(func() error {
			s.fn(doc, m)
			return nil
		})
		if err != nil {
			reporter.Report(core.CategoryPreserve, s.name+" extraction failed", err)
		}
	}
}

// textNodes returns the text nodes under n that are outside opaque
// elements.
func textNodes(n *html.Node) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		for k := c.FirstChild; k != nil; k = k.NextSibling {
			switch {
			case k.Type == html.TextNode:
				out = append(out, k)
			case k.Type == html.ElementNode && opaque[k.Data]:
			default:
				walk(k)
			}
		}
	}
	walk(n)
	return out
}

func extractInlineMath(doc *goquery.Document, m *Map) {
	for _, t := range textNodes(doc.Get(0)) {
		if strings.Contains(t.Data, "$") {
			t.Data = ScanInlineMath(t.Data, func(math string) string {
				return m.Add(InlineMath, math)
			})
		}
	}
}

func extractBlockMath(doc *goquery.Document, m *Map) {
	for _, t := range textNodes(doc.Get(0)) {
		if strings.Contains(t.Data, "$$") {
			t.Data = blockMath.ReplaceAllStringFunc(t.Data, func(math string) string {
				return m.Add(BlockMath, math)
			})
		}
	}
}

// ScanInlineMath calls emit for every single-dollar math span in s and
// substitutes its result. A span opens with a $ not followed by space,
// closes with a $ not preceded by space and not followed by a digit or
// another $, and stays on one line. $$ runs and \$ are left alone.
func ScanInlineMath(s string, emit func(string) string) string {
	var b strings.Builder
	i := 0
	for i < len(s) {
		if s[i] != '$' || (i > 0 && s[i-1] == '\\') {
			b.WriteByte(s[i])
			i++
			continue
		}
		if i+1 < len(s) && s[i+1] == '$' {
			j := i
			for j < len(s) && s[j] == '$' {
				j++
			}
			b.WriteString(s[i:j])
			i = j
			continue
		}
		end := closingDollar(s, i)
		if end < 0 {
			b.WriteByte('$')
			i++
			continue
		}
		b.WriteString(emit(s[i : end+1]))
		i = end + 1
	}
	return b.String()
}

func closingDollar(s string, open int) int {
	if open+1 >= len(s) || isSpace(s[open+1]) {
		return -1
	}
	for j := open + 1; j < len(s); j++ {
		switch s[j] {
		case '\n':
			return -1
		case '$':
			if s[j-1] == '\\' {
				continue
			}
			if isSpace(s[j-1]) || j == open+1 {
				return -1
			}
			if j+1 < len(s) && (s[j+1] == '$' || (s[j+1] >= '0' && s[j+1] <= '9')) {
				return -1
			}
			return j
		}
	}
	return -1
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// extractAnnotatedMath swaps rendered KaTeX, MathML and MathJax output for
// the TeX source it carries.
func extractAnnotatedMath(doc *goquery.Document, m *Map) {
	doc.Find(`annotation[encoding="application/x-tex"]`).Each(func(_ int, a *goquery.Selection) {
		n := a.Get(0)
		tex := strings.TrimSpace(a.Text())
		if tex == "" {
			return
		}
		container := tree.Ancestor(n, "math")
		display := container != nil && strings.EqualFold(attr(container, "display"), "block")
		for p := n.Parent; p != nil; p = p.Parent {
			if tree.HasClass(p, "katex") {
				container = p
			}
			if tree.HasClass(p, "katex-display") {
				container, display = p, true
				break
			}
		}
		if container == nil || container.Parent == nil {
			return
		}
		replaceWithToken(container, m, display, tex)
	})

	doc.Find(`script[type^="math/tex"]`).Each(func(_ int, s *goquery.Selection) {
		n := s.Get(0)
		tex := strings.TrimSpace(s.Text())
		if tex == "" || n.Parent == nil {
			return
		}
		replaceWithToken(n, m, strings.Contains(attr(n, "type"), "mode=display"), tex)
	})
}

func replaceWithToken(n *html.Node, m *Map, display bool, tex string) {
	var token string
	if display {
		token = m.Add(BlockMath, "$$"+tex+"$$")
	} else {
		token = m.Add(InlineMath, "$"+tex+"$")
	}
	n.Parent.InsertBefore(tree.Text(token), n)
	tree.Detach(n)
}

// IsPreserveCode reports whether a pre (or diagram div) is kept verbatim.
func IsPreserveCode(n *html.Node) bool {
	nodes := []*html.Node{n}
	if code, _ := tree.CodeParts(n); code != nil {
		nodes = append(nodes, code)
	}
	for _, c := range nodes {
		if _, ok := tree.GetAttr(c, "data-preserve"); ok {
			return true
		}
		if tree.HasClass(c, "preserve") || preserveClass.MatchString(attr(c, "class")) {
			return true
		}
	}
	return false
}

func extractCode(doc *goquery.Document, m *Map) {
	doc.Find("pre, div.mermaid").Each(func(_ int, s *goquery.Selection) {
		n := s.Get(0)
		if n.Parent == nil || tree.Ancestor(n, "pre") != nil || !IsPreserveCode(n) {
			return
		}
		markup, err := goquery.OuterHtml(s)
		if err != nil {
			return
		}
		standalone(n, m.Add(Code, markup))
	})
}

// IsPreserveComment reports whether a comment's text carries a preserve
// marker.
func IsPreserveComment(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	return strings.HasPrefix(t, "preserve") || strings.Contains(t, "@preserve")
}

func extractComments(doc *goquery.Document, m *Map) {
	var found []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.CommentNode && c.Parent.Type == html.ElementNode && IsPreserveComment(c.Data) {
				found = append(found, c)
			}
			walk(c)
		}
	}
	walk(doc.Get(0))
	for _, c := range found {
		standalone(c, m.Add(Comment, "<!--"+c.Data+"-->"))
	}
}

// blockParents are containers where a token must sit in its own
// paragraph to come out as a separate block.
var blockParents = map[string]bool{
	"body": true, "div": true, "section": true, "article": true,
	"main": true, "header": true, "footer": true, "aside": true,
	"nav": true, "blockquote": true, "figure": true, "details": true,
}

// standalone replaces n with token, wrapped in a paragraph when n sits
// at block level.
func standalone(n *html.Node, token string) {
	var repl *html.Node
	if n.Type == html.ElementNode || blockParents[n.Parent.Data] {
		repl = tree.Wrap("p", tree.Text(token))
	} else {
		repl = tree.Text(token)
	}
	n.Parent.InsertBefore(repl, n)
	tree.Detach(n)
}

func attr(n *html.Node, key string) string {
	v, _ := tree.GetAttr(n, key)
	return v
}

// codeFromMarkup recovers the language and text of a preserved block from
// its stored markup.
func codeFromMarkup(markup string) (lang, text string) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return "", markup
	}
	block := doc.Find("pre, div").First()
	if block.Length() == 0 {
		return "", markup
	}
	n := block.Get(0)
	var code *html.Node
	if tree.IsElement(n, "pre") {
		code, text = tree.CodeParts(n)
	} else {
		text = block.Text()
	}
	lang = tree.CodeLanguage(code, n)
	if lang == "" {
		for _, c := range []*html.Node{code, n} {
			if c == nil {
				continue
			}
			if sub := preserveClass.FindStringSubmatch(attr(c, "class")); sub != nil {
				lang = sub[1]
				break
			}
		}
	}
	return lang, text
}
