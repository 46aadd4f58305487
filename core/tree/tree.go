// Package tree holds the small DOM helpers shared by the rewriting passes:
// node construction, child iteration and the clone-mutate-swap loop that
// keeps a failed rewrite from leaving a half-edited subtree behind.
package tree

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gaurav-prasanna/markpipe/core"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Element creates a detached element node.
func Element(tag string, attrs ...html.Attribute) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
		Attr:     attrs,
	}
}

// Text creates a detached text node.
func Text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// Attr is shorthand for an html.Attribute.
func Attr(key, val string) html.Attribute {
	return html.Attribute{Key: key, Val: val}
}

// Wrap creates tag with the given children appended in order.
func Wrap(tag string, children ...*html.Node) *html.Node {
	n := Element(tag)
	for _, c := range children {
		Detach(c)
		n.AppendChild(c)
	}
	return n
}

// Rename changes an element's tag in place.
func Rename(n *html.Node, tag string) {
	n.Data = tag
	n.DataAtom = atom.Lookup([]byte(tag))
}

// Detach removes n from its parent, if any.
func Detach(n *html.Node) {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

// IsElement reports whether n is an element with one of the given tags.
func IsElement(n *html.Node, tags ...string) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	if len(tags) == 0 {
		return true
	}
	for _, t := range tags {
		if n.Data == t {
			return true
		}
	}
	return false
}

// ElementChildren returns the element children of n, optionally limited
// to the given tags.
func ElementChildren(n *html.Node, tags ...string) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if IsElement(c, tags...) {
			out = append(out, c)
		}
	}
	return out
}

// Children returns every child node of n; the slice is safe to use while
// the children are moved elsewhere.
func Children(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, c)
	}
	return out
}

// Ancestor returns the closest ancestor of n with one of the given tags.
func Ancestor(n *html.Node, tags ...string) *html.Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if IsElement(p, tags...) {
			return p
		}
	}
	return nil
}

// CountAncestors counts the ancestors of n that carry one of the tags.
func CountAncestors(n *html.Node, tags ...string) int {
	depth := 0
	for p := n.Parent; p != nil; p = p.Parent {
		if IsElement(p, tags...) {
			depth++
		}
	}
	return depth
}

// GetAttr returns the value of key on n and whether it was present.
func GetAttr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr sets key on n, replacing an existing value.
func SetAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// HasClass reports whether n's class list contains class.
func HasClass(n *html.Node, class string) bool {
	v, _ := GetAttr(n, "class")
	for _, c := range strings.Fields(v) {
		if c == class {
			return true
		}
	}
	return false
}

// IsBlank reports whether n is a whitespace-only text node or a comment.
func IsBlank(n *html.Node) bool {
	switch n.Type {
	case html.CommentNode:
		return true
	case html.TextNode:
		return strings.TrimSpace(n.Data) == ""
	}
	return false
}

// Rewrite is applied to a detached clone of a matched element and returns
// the nodes that take the original's place. Returning the clone itself
// keeps the element; returning nothing removes it.
type Rewrite func(clone *goquery.Selection) ([]*html.Node, error)

// EachIsolated applies fn to every element matching selector under root,
// innermost first. Each call works on a clone; the original is swapped
// out only when fn succeeds, and failures (including panics) go to report
// with the original left as it was.
func EachIsolated(root *goquery.Selection, selector string, report func(orig *goquery.Selection, err error), fn Rewrite) {
	matches := root.Find(selector)
	for i := matches.Length() - 1; i >= 0; i-- {
		orig := matches.Eq(i)
		if orig.Get(0).Parent == nil {
			continue
		}
		clone := orig.Clone()
		var repl []*html.Node
		err := core.Guard(func() error {
			var err error
			repl, err = fn(clone)
			return err
		})
		if err != nil {
			report(orig, err)
			continue
		}
		if len(repl) == 0 {
			orig.Remove()
			continue
		}
		for _, n := range repl {
			Detach(n)
		}
		orig.ReplaceWithNodes(repl...)
	}
}
