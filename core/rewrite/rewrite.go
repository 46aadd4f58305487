// Package rewrite turns HTML constructs with no direct Markdown analogue
// (definition lists, details, figures, embedded media, orphaned list items,
// quoted citations, admonitions) into simpler HTML that the rule-based
// converter already knows how to render.
package rewrite

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gaurav-prasanna/markpipe/core"
	"github.com/gaurav-prasanna/markpipe/core/tree"
	"golang.org/x/net/html"
)

// pass is one rewrite applied to every element matching selector.
type pass struct {
	name     string
	selector string
	fn       tree.Rewrite
}

var passes = []pass{
	{"definition list", "dl", rewriteDefinitionList},
	{"details", "details", rewriteDetails},
	{"figure", "figure", rewriteFigure},
	{"embedded media", "iframe, video, audio", rewriteMedia},
	{"admonition", admonitionSelector(), rewriteAdmonition},
	{"blockquote citation", "blockquote", rewriteCitation},
}

// Apply runs every rewrite over doc in a fixed order. A substructure
// whose rewrite fails is reported and left exactly as it was.
func Apply(doc *goquery.Document, reporter core.ErrorReporter) {
	if reporter == nil {
		reporter = core.NopReporter{}
	}
	for _, p := range passes {
		tree.EachIsolated(doc.Selection, p.selector, func(_ *goquery.Selection, err error) {
			reporter.Report(core.CategoryRewrite, p.name+" rewrite failed", err)
		}, p.fn)
	}
	wrapOrphanItems(doc.Get(0), reporter)
}

// blockTags are elements that cannot live inside a synthesized <p>.
var blockTags = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"details": true, "div": true, "dl": true, "fieldset": true,
	"figure": true, "footer": true, "form": true, "h1": true, "h2": true,
	"h3": true, "h4": true, "h5": true, "h6": true, "header": true,
	"hr": true, "main": true, "nav": true, "ol": true, "p": true,
	"pre": true, "section": true, "table": true, "ul": true,
}

func isBlock(n *html.Node) bool {
	return n.Type == html.ElementNode && blockTags[n.Data]
}

// textOf returns the whitespace-collapsed text of n.
func textOf(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
		for k := c.FirstChild; k != nil; k = k.NextSibling {
			walk(k)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}

// splitInline moves the children of src into inline and block groups.
// Paragraph wrappers are unwrapped so their inline content can join a
// synthesized paragraph.
func splitInline(src *html.Node) (inline, block []*html.Node) {
	for _, c := range tree.Children(src) {
		switch {
		case tree.IsElement(c, "p"):
			kids := tree.Children(c)
			if len(inline) > 0 && len(kids) > 0 {
				inline = append(inline, tree.Text(" "))
			}
			for _, k := range kids {
				tree.Detach(k)
				inline = append(inline, k)
			}
		case isBlock(c):
			tree.Detach(c)
			block = append(block, c)
		case c.Type == html.CommentNode:
		default:
			tree.Detach(c)
			inline = append(inline, c)
		}
	}
	return trimEdges(inline), block
}

// trimEdges drops whitespace-only text nodes at both ends.
func trimEdges(nodes []*html.Node) []*html.Node {
	for len(nodes) > 0 && tree.IsBlank(nodes[0]) {
		nodes = nodes[1:]
	}
	for len(nodes) > 0 && tree.IsBlank(nodes[len(nodes)-1]) {
		nodes = nodes[:len(nodes)-1]
	}
	return nodes
}
