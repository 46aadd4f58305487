package rules

import (
	"strconv"
	"strings"

	"github.com/JohannesKaufmann/dom"
	"github.com/JohannesKaufmann/html-to-markdown/v2/marker"
	"github.com/gaurav-prasanna/markpipe/core/structure"
	"github.com/gaurav-prasanna/markpipe/core/tree"
	"golang.org/x/net/html"
)

func tableRules(st *State) []Rule {
	opts := st.Options
	return []Rule{
		{
			Name:     "table",
			Tags:     []string{"table"},
			Elements: true,
			Replace: func(content string, _ *html.Node) string {
				content = strings.Trim(content, "\n")
				if strings.TrimSpace(content) == "" {
					return ""
				}
				return block(content)
			},
		},
		{
			Name: "table caption",
			Tags: []string{"caption"},
			Replace: func(content string, _ *html.Node) string {
				if text := oneLine(content); text != "" {
					return text + "\n\n"
				}
				return ""
			},
		},
		{
			Name:     "table header",
			Tags:     []string{"thead"},
			Elements: true,
			Replace: func(content string, n *html.Node) string {
				content = strings.Trim(content, "\n")
				if content == "" {
					return ""
				}
				return content + "\n" + alignmentRow(n, opts.PreserveTableAlignment) + "\n"
			},
		},
		{
			Name:     "table section",
			Tags:     []string{"tbody", "tfoot"},
			Elements: true,
			Replace: func(content string, _ *html.Node) string {
				return content
			},
		},
		{
			Name:     "table row",
			Tags:     []string{"tr"},
			Elements: true,
			Replace: func(content string, n *html.Node) string {
				row := "|" + strings.Trim(content, "\n") + "\n"
				if isFirstRow(n) && tree.Ancestor(n, "thead") == nil {
					row += alignmentRow(n, opts.PreserveTableAlignment) + "\n"
				}
				return row
			},
		},
		{
			Name:    "table cell",
			Tags:    []string{"th", "td"},
			Replace: cell,
		},
	}
}

// cell renders " content |", padding one empty cell per extra column the
// cell spans.
func cell(content string, n *html.Node) string {
	text := escapePipes(oneLine(content))
	out := " " + text + " |"
	for i := 1; i < colspan(n); i++ {
		out += "  |"
	}
	return out
}

// escapePipes escapes every cell pipe exactly once. Pipes the converter
// already marked for escaping are resolved here, since unescaping a marker
// in front of a backslash would emit a literal backslash instead.
func escapePipes(s string) string {
	s = strings.ReplaceAll(s, string(marker.MarkerEscaping)+"|", `\|`)
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '|' && (i == 0 || s[i-1] != '\\') {
			b.WriteByte('\\')
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func colspan(n *html.Node) int {
	v, err := strconv.Atoi(strings.TrimSpace(dom.GetAttributeOr(n, "colspan", "1")))
	if err != nil || v < 1 {
		return 1
	}
	return min(v, 100)
}

func cells(row *html.Node) []*html.Node {
	return tree.ElementChildren(row, "th", "td")
}

// firstRow returns the first row of the table enclosing n.
func firstRow(n *html.Node) *html.Node {
	table := n
	if !tree.IsElement(n, "table") {
		table = tree.Ancestor(n, "table")
	}
	if table == nil {
		return nil
	}
	var found *html.Node
	var walk func(*html.Node) bool
	walk = func(p *html.Node) bool {
		for c := p.FirstChild; c != nil; c = c.NextSibling {
			switch {
			case tree.IsElement(c, "tr"):
				found = c
				return true
			case tree.IsElement(c, "thead", "tbody", "tfoot"):
				if walk(c) {
					return true
				}
			}
		}
		return false
	}
	walk(table)
	return found
}

func isFirstRow(tr *html.Node) bool {
	return firstRow(tr) == tr
}

// alignmentRow builds the delimiter row. The column count comes from the
// table's first row, spans included; alignment comes from the header
// cells' annotations.
func alignmentRow(n *html.Node, aligned bool) string {
	row := firstRow(n)
	if row == nil {
		return ""
	}
	var columns []string
	for _, c := range cells(row) {
		marker := "---"
		if aligned {
			marker = alignMarker(dom.GetAttributeOr(c, structure.AttrAlign, ""))
		}
		for i := 0; i < colspan(c); i++ {
			columns = append(columns, marker)
		}
	}
	if len(columns) == 0 {
		return ""
	}
	return "| " + strings.Join(columns, " | ") + " |"
}

func alignMarker(align string) string {
	switch align {
	case "left":
		return ":---"
	case "center":
		return ":---:"
	case "right":
		return "---:"
	}
	return "---"
}
