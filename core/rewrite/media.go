package rewrite

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gaurav-prasanna/markpipe/core"
	"github.com/gaurav-prasanna/markpipe/core/structure"
	"github.com/gaurav-prasanna/markpipe/core/tree"
	"golang.org/x/net/html"
)

var mediaLabels = map[string]string{
	"video":  "Video",
	"audio":  "Audio",
	"iframe": "Embedded content",
}

// MediaURL resolves the resource an embedded media element points at:
// the first <source src>, then the element's own src, then (video only)
// the poster image.
func MediaURL(n *html.Node) string {
	for _, s := range tree.ElementChildren(n, "source") {
		if src, _ := tree.GetAttr(s, "src"); strings.TrimSpace(src) != "" {
			return strings.TrimSpace(src)
		}
	}
	for _, key := range []string{"src", "data-src"} {
		if src, _ := tree.GetAttr(n, key); strings.TrimSpace(src) != "" {
			return strings.TrimSpace(src)
		}
	}
	if n.Data == "video" {
		if poster, _ := tree.GetAttr(n, "poster"); strings.TrimSpace(poster) != "" {
			return strings.TrimSpace(poster)
		}
	}
	return ""
}

// rewriteMedia replaces iframe, video and audio with a link to the
// resource and, when the element has a title, a descriptive line.
func rewriteMedia(clone *goquery.Selection) ([]*html.Node, error) {
	n := clone.Get(0)
	label := mediaLabels[n.Data]
	p := tree.Element("p")

	src := MediaURL(n)
	if src == "" {
		p.AppendChild(tree.Wrap("em", tree.Text("["+label+" unavailable]")))
		return []*html.Node{p}, nil
	}

	p.AppendChild(tree.Wrap("a", tree.Text(label)))
	tree.SetAttr(p.FirstChild, "href", src)

	title, _ := tree.GetAttr(n, "title")
	if title == "" {
		title, _ = tree.GetAttr(n, "aria-label")
	}
	if title = strings.TrimSpace(title); title != "" {
		p.AppendChild(tree.Element("br"))
		p.AppendChild(tree.Wrap("em", tree.Text(title)))
	}
	return []*html.Node{p}, nil
}

// wrapOrphanItems wraps every run of list items whose parent is not a
// list in a synthesized <ul>.
func wrapOrphanItems(root *html.Node, reporter core.ErrorReporter) {
	var orphans []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if tree.IsElement(c, "li") && !tree.IsElement(c.Parent, structure.ListTags...) {
				orphans = append(orphans, c)
			}
			walk(c)
		}
	}
	walk(root)

	done := make(map[*html.Node]bool)
	for _, li := range orphans {
		if done[li] {
			continue
		}
		err := core.Guard(func() error {
			run := []*html.Node{li}
			for s := li.NextSibling; s != nil; s = s.NextSibling {
				if tree.IsElement(s, "li") {
					run = append(run, s)
					continue
				}
				if !tree.IsBlank(s) {
					break
				}
			}
			ul := tree.Element("ul")
			li.Parent.InsertBefore(ul, li)
			for _, item := range run {
				done[item] = true
				tree.Detach(item)
				ul.AppendChild(item)
			}
			return nil
		})
		if err != nil {
			reporter.Report(core.CategoryRewrite, "orphaned list item rewrite failed", err)
		}
	}
}
