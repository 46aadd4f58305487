// Package rules — the element-to-Markdown rules and the html-to-markdown
// plugin that dispatches to them.
//
// Rules are kept in two ordered lists, block and inline. For every tag a
// rule names, the plugin registers an early renderer that walks that
// tag's rules in order: the first rule whose Filter passes renders the
// node's children into a buffer and writes Replace(content, node). When
// no rule matches, rendering falls through to the commonmark plugin.
package rules

import (
	"bytes"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/gaurav-prasanna/markpipe/core"
	"github.com/gaurav-prasanna/markpipe/core/structure"
	"golang.org/x/net/html"
)

// Rule converts one kind of element.
type Rule struct {
	Name string
	// Tags the rule is considered for.
	Tags []string
	// Filter narrows the rule further; nil matches every node with a
	// listed tag.
	Filter func(n *html.Node) bool
	// Replace returns the Markdown for n given the rendered Markdown of its
	// children.
	Replace func(content string, n *html.Node) string
	// Raw rules read the node directly; children are not rendered and
	// content is empty.
	Raw bool
	// Elements renders only element children, ignoring the whitespace
	// text between them (table rows, list items).
	Elements bool
	// Inline places the rule in the inline list.
	Inline bool
}

// Set is the ordered rule lists. Within a list the first matching rule
// wins; block and inline rules never compete for the same tag.
type Set struct {
	Block  []Rule
	Inline []Rule
}

// Add appends rules to the list each belongs to.
func (s *Set) Add(rules ...Rule) {
	for _, r := range rules {
		if r.Inline {
			s.Inline = append(s.Inline, r)
		} else {
			s.Block = append(s.Block, r)
		}
	}
}

// Prepend puts rules ahead of the existing ones so they take precedence.
func (s *Set) Prepend(rules ...Rule) {
	var front Set
	front.Add(rules...)
	s.Block = append(front.Block, s.Block...)
	s.Inline = append(front.Inline, s.Inline...)
}

// Plugin registers a Set with an html-to-markdown converter.
type Plugin struct {
	set      *Set
	reporter core.ErrorReporter
}

// NewPlugin returns a plugin for set. A rule that panics is reported and
// the node falls through to the next renderer.
func NewPlugin(set *Set, reporter core.ErrorReporter) *Plugin {
	if reporter == nil {
		reporter = core.NopReporter{}
	}
	return &Plugin{set: set, reporter: reporter}
}

// Name implements converter.Plugin.
func (p *Plugin) Name() string { return "markpipe-rules" }

// Init implements converter.Plugin.
func (p *Plugin) Init(conv *converter.Converter) error {
	// Checkboxes must be read before base removes every <input>.
	conv.Register.PreRenderer(func(_ converter.Context, doc *html.Node) {
		structure.MarkTaskItems(doc)
	}, converter.PriorityEarly-10)

	for _, tag := range tagOrder(p.set.Block) {
		conv.Register.RendererFor(tag, converter.TagTypeBlock, p.renderer(forTag(p.set.Block, tag)), converter.PriorityEarly)
	}
	for _, tag := range tagOrder(p.set.Inline) {
		conv.Register.RendererFor(tag, converter.TagTypeInline, p.renderer(forTag(p.set.Inline, tag)), converter.PriorityEarly)
	}
	return nil
}

func (p *Plugin) renderer(rules []Rule) func(converter.Context, converter.Writer, *html.Node) converter.RenderStatus {
	return func(ctx converter.Context, w converter.Writer, n *html.Node) converter.RenderStatus {
		for _, r := range rules {
			if r.Filter != nil && !r.Filter(n) {
				continue
			}
			var out string
			err := core.Guard(func() error {
				out = r.Replace(renderContent(ctx, r, n), n)
				return nil
			})
			if err != nil {
				p.reporter.Report(core.CategoryConversion, r.Name+" rule failed on <"+n.Data+">", err)
				return converter.RenderTryNext
			}
			w.WriteString(out)
			return converter.RenderSuccess
		}
		return converter.RenderTryNext
	}
}

func renderContent(ctx converter.Context, r Rule, n *html.Node) string {
	if r.Raw {
		return ""
	}
	var buf bytes.Buffer
	if !r.Elements {
		ctx.RenderChildNodes(ctx, &buf, n)
		return buf.String()
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			ctx.RenderNodes(ctx, &buf, c)
		}
	}
	return buf.String()
}

// tagOrder lists the distinct tags of rules in first-seen order.
func tagOrder(rules []Rule) []string {
	seen := make(map[string]bool)
	var tags []string
	for _, r := range rules {
		for _, t := range r.Tags {
			if !seen[t] {
				seen[t] = true
				tags = append(tags, t)
			}
		}
	}
	return tags
}

func forTag(rules []Rule, tag string) []Rule {
	var out []Rule
	for _, r := range rules {
		for _, t := range r.Tags {
			if t == tag {
				out = append(out, r)
				break
			}
		}
	}
	return out
}

// Defaults returns the built-in rules bound to one conversion's state.
func Defaults(st *State) *Set {
	s := &Set{}
	s.Add(blockRules(st)...)
	s.Add(tableRules(st)...)
	s.Add(listRules(st)...)
	s.Add(inlineRules(st)...)
	return s
}
