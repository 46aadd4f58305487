package structure

import (
	"strings"

	"github.com/gaurav-prasanna/markpipe/core/tree"
	"golang.org/x/net/html"
)

// rows returns every tr that belongs to table itself (not to a nested
// table), in document order.
func rows(table *html.Node) []*html.Node {
	var out []*html.Node
	for c := table.FirstChild; c != nil; c = c.NextSibling {
		switch {
		case tree.IsElement(c, "tr"):
			out = append(out, c)
		case tree.IsElement(c, "thead", "tbody", "tfoot"):
			out = append(out, tree.ElementChildren(c, "tr")...)
		}
	}
	return out
}

// NormalizeTable leaves table with exactly one thead and one tbody. When
// no thead exists the first row is promoted and its cells become th; all
// remaining rows move into a single tbody in their original order. A
// table without rows is left alone.
func NormalizeTable(table *html.Node) {
	all := rows(table)
	if len(all) == 0 {
		return
	}

	heads := tree.ElementChildren(table, "thead")
	var thead *html.Node
	var headerRows []*html.Node
	if len(heads) > 0 {
		thead = heads[0]
		for _, h := range heads {
			headerRows = append(headerRows, tree.ElementChildren(h, "tr")...)
		}
	} else {
		first := all[0]
		for _, cell := range tree.ElementChildren(first, "td", "th") {
			if cell.Data == "td" {
				tree.Rename(cell, "th")
			}
		}
		thead = tree.Element("thead")
		headerRows = []*html.Node{first}
	}

	isHeader := make(map[*html.Node]bool, len(headerRows))
	for _, r := range headerRows {
		isHeader[r] = true
	}
	var bodyRows []*html.Node
	for _, r := range all {
		if !isHeader[r] {
			bodyRows = append(bodyRows, r)
		}
	}

	// Rebuild the table: leading non-row content (caption, colgroup),
	// then thead, then tbody, then anything else that was not a row.
	var lead, trail []*html.Node
	seenRows := false
	for _, c := range tree.Children(table) {
		if tree.IsElement(c, "tr", "thead", "tbody", "tfoot") {
			seenRows = true
			tree.Detach(c)
			continue
		}
		tree.Detach(c)
		if tree.IsBlank(c) {
			continue
		}
		if seenRows {
			trail = append(trail, c)
		} else {
			lead = append(lead, c)
		}
	}

	for _, c := range tree.Children(thead) {
		tree.Detach(c)
	}
	for _, r := range headerRows {
		tree.Detach(r)
		thead.AppendChild(r)
	}

	tbody := tree.Element("tbody")
	for _, r := range bodyRows {
		tree.Detach(r)
		tbody.AppendChild(r)
	}

	for _, c := range lead {
		table.AppendChild(c)
	}
	table.AppendChild(thead)
	table.AppendChild(tbody)
	for _, c := range trail {
		table.AppendChild(c)
	}
}

// MarkCellAlignment annotates every th/td of table (nested tables excluded)
// with the normalized alignment token. The inline text-align style wins
// over the legacy align attribute; cells with neither get no annotation.
func MarkCellAlignment(table *html.Node) {
	for _, row := range rows(table) {
		for _, cell := range tree.ElementChildren(row, "th", "td") {
			if align := CellAlignment(cell); align != "" {
				tree.SetAttr(cell, AttrAlign, align)
			}
		}
	}
}

// CellAlignment resolves the alignment token of a single cell.
func CellAlignment(cell *html.Node) string {
	if style, ok := tree.GetAttr(cell, "style"); ok {
		if v := styleProperty(style, "text-align"); v != "" {
			return normalizeAlign(v)
		}
	}
	if v, ok := tree.GetAttr(cell, "align"); ok {
		return normalizeAlign(v)
	}
	return ""
}

func normalizeAlign(v string) string {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "left", "start":
		return "left"
	case "center", "middle":
		return "center"
	case "right", "end":
		return "right"
	}
	return ""
}

// styleProperty extracts one declaration from an inline style attribute.
// The last declaration wins, as in CSS.
func styleProperty(style, prop string) string {
	var val string
	for _, decl := range strings.Split(style, ";") {
		k, v, ok := strings.Cut(decl, ":")
		if !ok || !strings.EqualFold(strings.TrimSpace(k), prop) {
			continue
		}
		v = strings.TrimSpace(v)
		v = strings.TrimSpace(strings.TrimSuffix(v, "!important"))
		val = v
	}
	return val
}
