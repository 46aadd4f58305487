package rewrite

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gaurav-prasanna/markpipe/core/tree"
	"golang.org/x/net/html"
)

const defaultDetailsLabel = "Details"

// rewriteDetails turns <details> into a blockquote headed by the bold
// summary text.
func rewriteDetails(clone *goquery.Selection) ([]*html.Node, error) {
	details := clone.Get(0)
	var summary *html.Node
	if s := tree.ElementChildren(details, "summary"); len(s) > 0 {
		summary = s[0]
	}

	strong := tree.Element("strong")
	if summary != nil && textOf(summary) != "" {
		for _, k := range trimEdges(tree.Children(summary)) {
			tree.Detach(k)
			strong.AppendChild(k)
		}
	} else {
		strong.AppendChild(tree.Text(defaultDetailsLabel))
	}
	if summary != nil {
		tree.Detach(summary)
	}

	bq := tree.Element("blockquote")
	bq.AppendChild(tree.Wrap("p", strong))
	for _, c := range tree.Children(details) {
		tree.Detach(c)
		bq.AppendChild(c)
	}
	return []*html.Node{bq}, nil
}

// rewriteFigure merges an image and its caption into one paragraph. The
// caption becomes the alt text when the image has none. Figures missing
// either part are left alone.
func rewriteFigure(clone *goquery.Selection) ([]*html.Node, error) {
	figure := clone.Get(0)
	img := clone.Find("img").First()
	caption := clone.Find("figcaption").First()
	if img.Length() == 0 || caption.Length() == 0 {
		return []*html.Node{figure}, nil
	}
	captionText := textOf(caption.Get(0))
	if captionText == "" {
		return []*html.Node{figure}, nil
	}
	if alt := strings.TrimSpace(img.AttrOr("alt", "")); alt == "" {
		img.SetAttr("alt", captionText)
	}

	// Keep a linking <a> around the image; drop <picture> wrappers, whose
	// <source> siblings have no Markdown form.
	imgNode := img.Get(0)
	visual := imgNode
	for p := imgNode.Parent; p != nil && p != figure; p = p.Parent {
		if tree.IsElement(p, "a") {
			visual = p
		}
	}
	tree.Detach(visual)

	em := tree.Element("em")
	for _, k := range trimEdges(tree.Children(caption.Get(0))) {
		tree.Detach(k)
		em.AppendChild(k)
	}
	tree.Detach(caption.Get(0))

	p := tree.Wrap("p", visual, tree.Element("br"), em)
	out := []*html.Node{p}
	for _, c := range tree.Children(figure) {
		if tree.IsBlank(c) || tree.IsElement(c, "picture") {
			continue
		}
		tree.Detach(c)
		out = append(out, c)
	}
	return out, nil
}

// admonitionKinds maps admonition classes to their display title.
var admonitionKinds = []struct{ class, title string }{
	{"note", "Note"},
	{"tip", "Tip"},
	{"hint", "Tip"},
	{"warning", "Warning"},
	{"caution", "Warning"},
	{"danger", "Danger"},
	{"important", "Important"},
	{"info", "Info"},
}

func admonitionSelector() string {
	var parts []string
	for _, k := range admonitionKinds {
		parts = append(parts, "div."+k.class, "aside."+k.class)
	}
	return strings.Join(parts, ", ")
}

// rewriteAdmonition turns a note/tip/warning box into a blockquote whose
// first line is the bold title.
func rewriteAdmonition(clone *goquery.Selection) ([]*html.Node, error) {
	box := clone.Get(0)
	title := ""
	for _, k := range admonitionKinds {
		if tree.HasClass(box, k.class) {
			title = k.title
			break
		}
	}
	if t := clone.ChildrenFiltered(".admonition-title").First(); t.Length() > 0 {
		if s := textOf(t.Get(0)); s != "" {
			title = s
		}
		t.Remove()
	}

	bq := tree.Element("blockquote")
	bq.AppendChild(tree.Wrap("p", tree.Wrap("strong", tree.Text(title))))
	for _, c := range tree.Children(box) {
		tree.Detach(c)
		bq.AppendChild(c)
	}
	return []*html.Node{bq}, nil
}

// rewriteCitation moves the attribution of a blockquote (a direct cite,
// a footer, or a paragraph holding only a cite) to the end as an
// emphasized line.
func rewriteCitation(clone *goquery.Selection) ([]*html.Node, error) {
	bq := clone.Get(0)
	var sources []*html.Node
	for _, c := range tree.ElementChildren(bq) {
		switch {
		case tree.IsElement(c, "cite", "footer"):
			sources = append(sources, c)
		case tree.IsElement(c, "p") && onlyCite(c):
			sources = append(sources, c)
		}
	}
	if len(sources) == 0 {
		return []*html.Node{bq}, nil
	}

	var parts []string
	for _, s := range sources {
		if t := textOf(s); t != "" {
			parts = append(parts, t)
		}
		tree.Detach(s)
	}
	if len(parts) == 0 {
		return []*html.Node{bq}, nil
	}
	attribution := strings.Join(parts, ", ")
	attribution = strings.TrimSpace(strings.TrimLeft(attribution, "—–- "))
	bq.AppendChild(tree.Wrap("p", tree.Wrap("em", tree.Text("— "+attribution))))
	return []*html.Node{bq}, nil
}

// onlyCite reports whether p contains a single cite and nothing but
// whitespace or dashes around it.
func onlyCite(p *html.Node) bool {
	cites := 0
	for c := p.FirstChild; c != nil; c = c.NextSibling {
		switch {
		case tree.IsElement(c, "cite"):
			cites++
		case c.Type == html.TextNode:
			if strings.Trim(c.Data, " \t\n—–-") != "" {
				return false
			}
		default:
			return false
		}
	}
	return cites == 1
}
