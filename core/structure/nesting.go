package structure

import (
	"strconv"
	"strings"

	"github.com/gaurav-prasanna/markpipe/core/tree"
	"golang.org/x/net/html"
)

// MarkListNestingLevel stamps list with level and every list nested
// beneath it with its own depth, so that the stamp always equals the
// number of ancestor ul, ol and menu elements.
func MarkListNestingLevel(list *html.Node, level int) {
	markNesting(list, level, ListTags...)
}

// MarkBlockquoteNestingLevel does the same for nested blockquotes.
func MarkBlockquoteNestingLevel(bq *html.Node, level int) {
	markNesting(bq, level, "blockquote")
}

func markNesting(n *html.Node, level int, tags ...string) {
	tree.SetAttr(n, AttrDepth, strconv.Itoa(level))
	var walk func(*html.Node)
	walk = func(p *html.Node) {
		for c := p.FirstChild; c != nil; c = c.NextSibling {
			if tree.IsElement(c, tags...) {
				markNesting(c, level+1, tags...)
				continue
			}
			walk(c)
		}
	}
	walk(n)
}

// Depth returns the stamped nesting depth of n, falling back to counting
// ancestors with the given tags when n was never stamped.
func Depth(n *html.Node, tags ...string) int {
	if v, ok := tree.GetAttr(n, AttrDepth); ok {
		if d, err := strconv.Atoi(v); err == nil && d >= 0 {
			return d
		}
	}
	return tree.CountAncestors(n, tags...)
}

// MarkTaskItems finds list items that open with a checkbox, records the
// checked state on the li and removes the checkbox markup.
func MarkTaskItems(root *html.Node) {
	var items []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if tree.IsElement(n, "li") {
			items = append(items, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	for _, li := range items {
		if _, done := tree.GetAttr(li, AttrTask); done {
			continue
		}
		box := leadingCheckbox(li)
		if box == nil {
			continue
		}
		state := "unchecked"
		if _, checked := tree.GetAttr(box, "checked"); checked {
			state = "checked"
		}
		tree.SetAttr(li, AttrTask, state)
		tree.Detach(box)
	}
}

// leadingCheckbox returns the checkbox input that precedes any text in li,
// looking through wrappers such as <p> or <label>.
func leadingCheckbox(li *html.Node) *html.Node {
	var found *html.Node
	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			switch c.Type {
			case html.TextNode:
				if strings.TrimSpace(c.Data) != "" {
					return true
				}
			case html.ElementNode:
				if c.Data == "input" {
					if t, _ := tree.GetAttr(c, "type"); strings.EqualFold(t, "checkbox") {
						found = c
					}
					return true
				}
				if tree.IsElement(c, ListTags...) {
					return true
				}
				if walk(c) {
					return true
				}
			}
		}
		return false
	}
	walk(li)
	return found
}
