// Package convert runs the HTML to Markdown pipeline:
//
//  1. front-matter extraction
//  2. structure normalization and rewriting of unusual structures
//  3. placeholder extraction of math, preserved code and comments
//  4. rule-based conversion
//  5. placeholder restoration
//  6. Markdown post-processing
//  7. front-matter reattachment
//
// Convert never fails. When the pipeline itself breaks, the input is
// returned inside an HTML comment and the failure is reported.
package convert

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/strikethrough"
	"github.com/PuerkitoBio/goquery"
	"github.com/gaurav-prasanna/markpipe/core"
	"github.com/gaurav-prasanna/markpipe/core/frontmatter"
	"github.com/gaurav-prasanna/markpipe/core/postprocess"
	"github.com/gaurav-prasanna/markpipe/core/preserve"
	"github.com/gaurav-prasanna/markpipe/core/rewrite"
	"github.com/gaurav-prasanna/markpipe/core/rules"
	"github.com/gaurav-prasanna/markpipe/core/structure"
	"golang.org/x/net/html"
)

// Converter holds one configuration. It is not modified after New, so a
// single Converter may be shared between goroutines.
type Converter struct {
	opts     core.Options
	custom   []rules.Rule
	logger   *slog.Logger
	reporter core.ErrorReporter
}

var (
	_ core.Converter  = (*Converter)(nil)
	_ core.Normalizer = (*Converter)(nil)
)

// New returns a Converter with the defaults overridden by opts. Invalid
// option values fall back to their defaults.
func New(opts ...Option) *Converter {
	c := &Converter{opts: core.DefaultOptions()}
	for _, o := range opts {
		o(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.reporter == nil {
		c.reporter = LogReporter{Logger: c.logger}
	}
	if err := c.opts.Validate(); err != nil {
		c.logger.Warn("invalid conversion options, using defaults", slog.Any("error", err))
		c.opts = c.opts.Sanitized()
	}
	return c
}

// Convert converts html with a Converter built from opts.
func Convert(html string, opts ...Option) string {
	return New(opts...).Convert(html)
}

// Options returns the effective options.
func (c *Converter) Options() core.Options { return c.opts }

// Convert converts html to Markdown. It never panics; a failed conversion
// yields Fallback(html, err).
func (c *Converter) Convert(html string) string {
	md, err := c.run(html)
	if err != nil {
		return Fallback(html, err)
	}
	return md
}

// Normalize converts html to Markdown, returning the pipeline failure
// (wrapping core.ErrConversion) instead of the fallback comment.
func (c *Converter) Normalize(html string) (string, error) {
	md, err := c.run(html)
	if err != nil {
		return "", fmt.Errorf("%w: %w", core.ErrConversion, err)
	}
	return md, nil
}

func (c *Converter) run(input string) (md string, err error) {
	err = core.Guard(func() error {
		var e error
		md, e = c.convertString(input)
		return e
	})
	if err != nil {
		c.report(err)
		return "", err
	}
	return md, nil
}

// ConvertNode converts a deep copy of n; n itself is never modified.
// Front matter does not apply to nodes.
func (c *Converter) ConvertNode(n *html.Node) string {
	if n == nil {
		return ""
	}
	var md string
	err := core.Guard(func() error {
		root := goquery.NewDocumentFromNode(n).Clone().Get(0)
		if root.Type != html.DocumentNode {
			doc := &html.Node{Type: html.DocumentNode}
			doc.AppendChild(root)
			root = doc
		}
		var e error
		md, e = c.convertDocument(goquery.NewDocumentFromNode(root))
		return e
	})
	if err != nil {
		c.report(err)
		var b strings.Builder
		if rerr := html.Render(&b, n); rerr != nil {
			return Fallback("", err)
		}
		return Fallback(b.String(), err)
	}
	return md
}

func (c *Converter) report(err error) {
	// Reporters are caller code and may panic too.
	_ = core.Guard(func() error {
		c.reporter.Report(core.CategoryConversion, "markdown conversion failed", err)
		return nil
	})
}

func (c *Converter) convertString(input string) (string, error) {
	fm := ""
	if c.opts.PreserveFrontMatter {
		fm, input, _ = frontmatter.Extract(input)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(input))
	if err != nil {
		return "", fmt.Errorf("parsing HTML: %w", err)
	}
	md, err := c.convertDocument(doc)
	if err != nil {
		return "", err
	}
	return frontmatter.Attach(fm, md), nil
}

func (c *Converter) convertDocument(doc *goquery.Document) (string, error) {
	if c.opts.ProcessComplexStructures {
		structure.Normalize(doc, c.reporter)
		rewrite.Apply(doc, c.reporter)
	}

	keep := preserve.NewMap()
	keep.Fence = c.opts.Fence
	preserve.Extract(doc, keep, c.reporter)

	st := rules.NewState(c.opts)
	set := rules.Defaults(st)
	set.Prepend(c.custom...)

	conv := converter.NewConverter(converter.WithPlugins(
		base.NewBasePlugin(),
		commonmark.NewCommonmarkPlugin(c.commonmarkOptions()...),
		strikethrough.NewStrikethroughPlugin(),
		rules.NewPlugin(set, c.reporter),
	))
	out, err := conv.ConvertNode(doc.Get(0))
	if err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}

	md := string(out) + st.Definitions()
	md = keep.Restore(md)
	return postprocess.Process(md), nil
}

func (c *Converter) commonmarkOptions() []commonmark.OptionFunc {
	opts := []commonmark.OptionFunc{
		commonmark.WithEmDelimiter(c.opts.EmDelimiter),
		commonmark.WithStrongDelimiter(c.opts.StrongDelimiter),
		commonmark.WithBulletListMarker(c.opts.BulletListMarker),
		commonmark.WithHorizontalRule("---"),
	}
	if c.opts.HeadingStyle == core.HeadingSetext {
		opts = append(opts, commonmark.WithHeadingStyle("setext"))
	} else {
		opts = append(opts, commonmark.WithHeadingStyle("atx"))
	}
	return opts
}

// Fallback is the result of a failed conversion: the failure message and
// the original HTML inside a comment. Any "-->" in either is neutralized
// so the comment cannot close early.
func Fallback(input string, err error) string {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return "<!-- markdown conversion failed: " + neutralize(msg) + "\n" + neutralize(input) + "\n-->"
}

func neutralize(s string) string {
	return strings.ReplaceAll(s, "-->", "--&gt;")
}
