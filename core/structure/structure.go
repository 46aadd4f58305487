// Package structure makes table, list and blockquote markup uniform before
// it reaches the rule-based converter. It only annotates and reshapes; it
// never produces Markdown.
package structure

import (
	"github.com/PuerkitoBio/goquery"
	"github.com/gaurav-prasanna/markpipe/core"
	"github.com/gaurav-prasanna/markpipe/core/tree"
	"golang.org/x/net/html"
)

// Annotation attributes read by the rules package.
const (
	AttrAlign = "data-md-align"
	AttrDepth = "data-md-depth"
	AttrTask  = "data-md-task"
)

// ListTags are the elements that own list items.
var ListTags = []string{"ul", "ol", "menu"}

// Normalize runs every structure pass over doc. A table, list or
// blockquote that fails is reported and passed through untouched.
func Normalize(doc *goquery.Document, reporter core.ErrorReporter) {
	if reporter == nil {
		reporter = core.NopReporter{}
	}
	root := doc.Selection

	tree.EachIsolated(root, "table", func(_ *goquery.Selection, err error) {
		reporter.Report(core.CategoryStructure, "table normalization failed", err)
	}, func(clone *goquery.Selection) ([]*html.Node, error) {
		table := clone.Get(0)
		NormalizeTable(table)
		MarkCellAlignment(table)
		return []*html.Node{table}, nil
	})

	// Nesting marks are plain attribute writes on the live tree, so a
	// failure can at worst leave a partial depth annotation behind.
	root.Find("ul, ol, menu").Each(func(_ int, s *goquery.Selection) {
		n := s.Get(0)
		if tree.Ancestor(n, ListTags...) != nil {
			return
		}
		if err := core.Guard(func() error { MarkListNestingLevel(n, 0); return nil }); err != nil {
			reporter.Report(core.CategoryStructure, "list nesting failed", err)
		}
	})
	root.Find("blockquote").Each(func(_ int, s *goquery.Selection) {
		n := s.Get(0)
		if tree.Ancestor(n, "blockquote") != nil {
			return
		}
		if err := core.Guard(func() error { MarkBlockquoteNestingLevel(n, 0); return nil }); err != nil {
			reporter.Report(core.CategoryStructure, "blockquote nesting failed", err)
		}
	})

	if err := core.Guard(func() error { MarkTaskItems(root.Get(0)); return nil }); err != nil {
		reporter.Report(core.CategoryStructure, "task list marking failed", err)
	}
}
