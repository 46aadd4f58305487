// Package cmd — convert command.
// This is the main command that orchestrates the pipeline:
// fetch → extract → convert → render → write.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gaurav-prasanna/markpipe/core"
	"github.com/gaurav-prasanna/markpipe/core/convert"
	"github.com/gaurav-prasanna/markpipe/core/extract"
	"github.com/gaurav-prasanna/markpipe/core/fetch"
	"github.com/gaurav-prasanna/markpipe/core/output"
	"github.com/gaurav-prasanna/markpipe/core/render"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var flagStdout bool

var convertCmd = &cobra.Command{
	Use:   "convert <url|file|->...",
	Short: "Convert HTML sources to Markdown",
	Long: `Convert reads each source (an http(s) URL, a file, or - for stdin),
optionally keeps only the page's main content, converts it to Markdown and
writes one file per source, or everything to stdout with --stdout.

Examples:
  markpipe convert https://example.com/docs --extract --front_matter
  markpipe convert page.html --heading_style setext --stdout
  curl -s https://example.com | markpipe convert - --format json
  markpipe convert a.html b.html c.html --output_dir ./out --jobs 8`,
	Args: cobra.MinimumNArgs(1),
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)
	f := convertCmd.Flags()
	d := core.DefaultOptions()

	// Conversion flags, named after their config keys.
	f.String("heading_style", d.HeadingStyle, "Heading form: atx or setext")
	f.String("bullet_list_marker", d.BulletListMarker, "Unordered list marker: -, + or *")
	f.String("code_block_style", d.CodeBlockStyle, "Code block form: fenced or indented")
	f.String("fence", d.Fence, "Code fence: ``` or ~~~")
	f.String("em_delimiter", d.EmDelimiter, "Emphasis delimiter: * or _")
	f.String("strong_delimiter", d.StrongDelimiter, "Strong delimiter: ** or __")
	f.String("link_style", d.LinkStyle, "Link form: inlined or referenced")
	f.Bool("preserve_image_size", d.PreserveImageSize, "Append =WxH to sized images")
	f.Bool("preserve_table_alignment", d.PreserveTableAlignment, "Emit table alignment markers")
	f.Bool("preserve_front_matter", d.PreserveFrontMatter, "Carry <!-- front-matter --> blocks into the output")
	f.Bool("process_complex_structures", d.ProcessComplexStructures, "Normalize tables and rewrite unusual structures")
	f.String("base_url", "", "Resolve relative URLs against this base (default: the source URL)")

	// Pipeline flags.
	f.Bool("extract", false, "Keep only the main content of the page")
	f.Bool("front_matter", false, "Prepend YAML front matter built from page metadata")
	f.String("format", "markdown", "Output format: markdown or json")
	f.String("output_dir", "", "Output directory (default: current directory)")
	f.Int("jobs", 4, "Number of sources converted in parallel")
	f.Duration("timeout", 30*time.Second, "HTTP fetch timeout")
	f.String("user_agent", "", "User-Agent header for HTTP fetches")
	f.BoolVar(&flagStdout, "stdout", false, "Write results to stdout instead of files")
}

func runConvert(cmd *cobra.Command, args []string) error {
	opts, err := conversionOptions(cfg)
	if err != nil {
		return err
	}
	if err := checkConfigValidity(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	renderer := selectRenderer(cfg.GetString("format"), cfg.GetBool("front_matter"))
	p := &pipeline{
		fetcher:   fetch.New(fetch.WithTimeout(cfg.GetDuration("timeout")), fetch.WithUserAgent(cfg.GetString("user_agent"))),
		extractor: extract.New(),
		options:   opts,
		renderer:  renderer,
		extract:   cfg.GetBool("extract"),
		metadata:  cfg.GetBool("front_matter") || cfg.GetString("format") == "json",
		logger:    slog.Default(),
	}

	results := p.runAll(cmd.Context(), args, cfg.GetInt("jobs"))

	var writer *output.Writer
	if !flagStdout {
		writer, err = output.New(cfg.GetString("output_dir"))
		if err != nil {
			return fmt.Errorf("initializing output writer: %w", err)
		}
	}

	var errCount int
	for i, res := range results {
		if res.err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "✗ %s: %v\n", args[i], res.err)
			errCount++
			continue
		}
		if writer == nil {
			if _, err := cmd.OutOrStdout().Write(res.data); err != nil {
				return fmt.Errorf("writing stdout: %w", err)
			}
			continue
		}
		path, err := writer.Write(args[i], res.data, renderer.Extension())
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "✗ %s: %v\n", args[i], err)
			errCount++
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Written: %s\n", path)
	}

	if errCount > 0 {
		return fmt.Errorf("%d/%d sources failed", errCount, len(args))
	}
	return nil
}

// selectRenderer creates the Renderer for the configured format.
func selectRenderer(format string, frontMatter bool) core.Renderer {
	if format == "json" {
		return render.NewJSONRenderer()
	}
	return render.NewMarkdownRenderer(frontMatter)
}

// pipeline runs one source at a time through fetch, extract, convert and
// render. It holds no per-source state, so runAll shares it between
// goroutines.
type pipeline struct {
	fetcher   core.Fetcher
	extractor core.Extractor
	options   core.Options
	renderer  core.Renderer
	extract   bool
	metadata  bool
	logger    *slog.Logger
}

type result struct {
	data []byte
	err  error
}

// runAll processes sources with at most jobs in flight and returns the
// results in source order.
func (p *pipeline) runAll(ctx context.Context, sources []string, jobs int) []result {
	results := make([]result, len(sources))
	var g errgroup.Group
	g.SetLimit(max(jobs, 1))
	for i, source := range sources {
		g.Go(func() error {
			data, err := p.process(ctx, source)
			results[i] = result{data: data, err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// process runs a single source through the full pipeline.
func (p *pipeline) process(ctx context.Context, source string) ([]byte, error) {
	log := p.logger.With(slog.String("source", source))

	// 1. Fetch
	res, err := p.fetcher.Fetch(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	log.Debug("fetched", slog.Int("bytes", len(res.HTML)))

	// 2. Extract main content and metadata
	html := res.HTML
	var meta core.PageMetadata
	if p.extract || p.metadata {
		ext, err := p.extractor.Extract(html)
		if err != nil {
			return nil, fmt.Errorf("extract: %w", err)
		}
		meta = ext.Metadata
		if p.extract {
			html = ext.HTML
			log.Debug("extracted", slog.Int("bytes", len(html)))
		}
	}
	if fetch.IsURL(source) {
		meta.URL = source
	}
	meta.FetchedAt = time.Now().UTC().Format(time.RFC3339)

	// 3. Convert. Relative URLs resolve against the page itself unless a
	// base is configured.
	opts := p.options
	if opts.BaseURL == "" && fetch.IsURL(source) {
		opts.BaseURL = source
	}
	markdown := convert.New(convert.WithOptions(opts), convert.WithLogger(log)).Convert(html)

	// 4. Render
	data, err := p.renderer.Render(markdown, meta)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return data, nil
}
