package rules

import (
	"strconv"
	"strings"

	"github.com/JohannesKaufmann/dom"
	"github.com/gaurav-prasanna/markpipe/core/structure"
	"github.com/gaurav-prasanna/markpipe/core/tree"
	"golang.org/x/net/html"
)

// listIndent is the continuation indent of an item; nesting compounds it
// once per ancestor list.
const listIndent = "  "

func listRules(st *State) []Rule {
	opts := st.Options
	return []Rule{
		{
			Name:     "list",
			Tags:     structure.ListTags,
			Elements: true,
			Replace: func(content string, n *html.Node) string {
				content = strings.Trim(content, "\n")
				if content == "" {
					return ""
				}
				if structure.Depth(n, structure.ListTags...) > 0 {
					return "\n" + content + "\n"
				}
				return block(content)
			},
		},
		{
			Name: "task list item",
			Tags: []string{"li"},
			Filter: func(n *html.Node) bool {
				_, ok := tree.GetAttr(n, structure.AttrTask)
				return ok
			},
			Replace: func(content string, n *html.Node) string {
				box := "[ ] "
				if v, _ := tree.GetAttr(n, structure.AttrTask); v == "checked" {
					box = "[x] "
				}
				return listItem(itemMarker(n, opts.BulletListMarker)+box, content)
			},
		},
		{
			Name: "list item",
			Tags: []string{"li"},
			Replace: func(content string, n *html.Node) string {
				return listItem(itemMarker(n, opts.BulletListMarker), content)
			},
		},
	}
}

// itemMarker returns "- " for bullet items or "N. " for ordered ones,
// counting from the list's start attribute.
func itemMarker(li *html.Node, bullet string) string {
	parent := li.Parent
	if !tree.IsElement(parent, "ol") {
		return bullet + " "
	}
	start, err := strconv.Atoi(strings.TrimSpace(dom.GetAttributeOr(parent, "start", "1")))
	if err != nil {
		start = 1
	}
	index := 0
	for s := li.PrevSibling; s != nil; s = s.PrevSibling {
		if tree.IsElement(s, "li") {
			index++
		}
	}
	return strconv.Itoa(start+index) + ". "
}

func listItem(marker, content string) string {
	text := tidy(content)
	if text == "" {
		return strings.TrimRight(marker, " ") + "\n"
	}
	return marker + indent(text, listIndent) + "\n"
}
