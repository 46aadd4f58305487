package convert

import (
	"log/slog"

	"github.com/gaurav-prasanna/markpipe/core"
	"github.com/gaurav-prasanna/markpipe/core/rules"
)

// Option configures a Converter.
type Option func(*Converter)

// WithOptions replaces the whole options snapshot.
func WithOptions(o core.Options) Option {
	return func(c *Converter) { c.opts = o }
}

// WithHeadingStyle selects "atx" or "setext" headings.
func WithHeadingStyle(style string) Option {
	return func(c *Converter) { c.opts.HeadingStyle = style }
}

// WithBulletListMarker sets the unordered list marker.
func WithBulletListMarker(marker string) Option {
	return func(c *Converter) { c.opts.BulletListMarker = marker }
}

// WithCodeBlockStyle selects "fenced" or "indented" code blocks.
func WithCodeBlockStyle(style string) Option {
	return func(c *Converter) { c.opts.CodeBlockStyle = style }
}

// WithFence sets the code fence, ``` or ~~~.
func WithFence(fence string) Option {
	return func(c *Converter) { c.opts.Fence = fence }
}

// WithEmDelimiter sets the emphasis delimiter.
func WithEmDelimiter(d string) Option {
	return func(c *Converter) { c.opts.EmDelimiter = d }
}

// WithStrongDelimiter sets the strong emphasis delimiter.
func WithStrongDelimiter(d string) Option {
	return func(c *Converter) { c.opts.StrongDelimiter = d }
}

// WithLinkStyle selects "inlined" or "referenced" links.
func WithLinkStyle(style string) Option {
	return func(c *Converter) { c.opts.LinkStyle = style }
}

func WithPreserveImageSize(on bool) Option {
	return func(c *Converter) { c.opts.PreserveImageSize = on }
}

func WithPreserveTableAlignment(on bool) Option {
	return func(c *Converter) { c.opts.PreserveTableAlignment = on }
}

func WithPreserveFrontMatter(on bool) Option {
	return func(c *Converter) { c.opts.PreserveFrontMatter = on }
}

// WithProcessComplexStructures toggles the structure normalizer and the
// rewriter.
func WithProcessComplexStructures(on bool) Option {
	return func(c *Converter) { c.opts.ProcessComplexStructures = on }
}

// WithBaseURL resolves relative link and image URLs against base.
func WithBaseURL(base string) Option {
	return func(c *Converter) { c.opts.BaseURL = base }
}

// WithRule adds a custom rule ahead of the built-in ones.
func WithRule(r rules.Rule) Option {
	return func(c *Converter) { c.custom = append(c.custom, r) }
}

// WithLogger sets the logger used by the default error reporter.
func WithLogger(l *slog.Logger) Option {
	return func(c *Converter) { c.logger = l }
}

// WithErrorReporter replaces the default slog reporter.
func WithErrorReporter(r core.ErrorReporter) Option {
	return func(c *Converter) { c.reporter = r }
}
