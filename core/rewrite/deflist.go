package rewrite

import (
	"github.com/PuerkitoBio/goquery"
	"github.com/gaurav-prasanna/markpipe/core/tree"
	"golang.org/x/net/html"
)

// termGroup is one dt with the dd elements that immediately follow it.
type termGroup struct {
	term  *html.Node
	descs []*html.Node
}

// dlPart is either a term group or a child of the dl that is neither dt
// nor dd.
type dlPart struct {
	group *termGroup
	other *html.Node
}

// rewriteDefinitionList emits one paragraph per term: the term in bold, a
// colon, then every following description joined by spaces. Block content
// inside a description follows its paragraph. Other children keep their
// place between the groups.
func rewriteDefinitionList(clone *goquery.Selection) ([]*html.Node, error) {
	dl := clone.Get(0)

	var parts []dlPart
	groups := 0
	var current *termGroup
	var collect func(*html.Node)
	collect = func(parent *html.Node) {
		for _, c := range tree.Children(parent) {
			switch {
			case tree.IsElement(c, "dt"):
				current = &termGroup{term: c}
				parts = append(parts, dlPart{group: current})
				groups++
			case tree.IsElement(c, "dd"):
				if current == nil {
					current = &termGroup{}
					parts = append(parts, dlPart{group: current})
					groups++
				}
				current.descs = append(current.descs, c)
			case tree.IsElement(c, "div"):
				// HTML5 allows dt/dd groups wrapped in a div.
				collect(c)
			case tree.IsBlank(c):
			default:
				current = nil
				parts = append(parts, dlPart{other: c})
			}
		}
	}
	collect(dl)

	if groups == 0 {
		return []*html.Node{dl}, nil
	}

	var out []*html.Node
	for _, part := range parts {
		if part.other != nil {
			tree.Detach(part.other)
			out = append(out, part.other)
			continue
		}
		out = append(out, groupNodes(part.group)...)
	}
	return out, nil
}

func groupNodes(g *termGroup) []*html.Node {
	p := tree.Element("p")
	if g.term != nil {
		strong := tree.Element("strong")
		for _, k := range trimEdges(tree.Children(g.term)) {
			tree.Detach(k)
			strong.AppendChild(k)
		}
		p.AppendChild(strong)
		p.AppendChild(tree.Text(": "))
	}
	var blocks []*html.Node
	first := true
	for _, dd := range g.descs {
		inline, block := splitInline(dd)
		if len(inline) > 0 {
			if !first {
				p.AppendChild(tree.Text(" "))
			}
			first = false
			for _, k := range inline {
				p.AppendChild(k)
			}
		}
		blocks = append(blocks, block...)
	}
	return append([]*html.Node{p}, blocks...)
}
