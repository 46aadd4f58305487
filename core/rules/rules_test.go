package rules

import (
	"strings"
	"testing"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/gaurav-prasanna/markpipe/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func render(t *testing.T, opts core.Options, markup string, extra ...Rule) (string, *State) {
	t.Helper()
	st := NewState(opts)
	set := Defaults(st)
	set.Prepend(extra...)
	conv := converter.NewConverter(converter.WithPlugins(
		base.NewBasePlugin(),
		commonmark.NewCommonmarkPlugin(),
		NewPlugin(set, nil),
	))
	out, err := conv.ConvertString(markup)
	require.NoError(t, err)
	return out, st
}

func TestHeadings(t *testing.T) {
	opts := core.DefaultOptions()
	out, _ := render(t, opts, `<h2 id="intro">Intro</h2><h3>Sub</h3>`)
	assert.Contains(t, out, "## Intro {#intro}")
	assert.Contains(t, out, "### Sub")

	opts.HeadingStyle = core.HeadingSetext
	out, _ = render(t, opts, `<h1>Title</h1><h3>Deep</h3>`)
	assert.Contains(t, out, "Title\n=====")
	assert.Contains(t, out, "### Deep")
}

func TestCodeBlock(t *testing.T) {
	out, _ := render(t, core.DefaultOptions(), "<pre><code class=\"language-js\">\n\nlet x=1;\n\n</code></pre>")
	assert.Equal(t, "```js\nlet x=1;\n```", strings.TrimSpace(out))

	out, _ = render(t, core.DefaultOptions(), "<pre><code data-lang=\"Go\">a := \"```\"\n```</code></pre>")
	assert.True(t, strings.HasPrefix(strings.TrimSpace(out), "````Go\n"), out)

	opts := core.DefaultOptions()
	opts.CodeBlockStyle = core.CodeBlockIndented
	out, _ = render(t, opts, "<p>x</p><pre><code>a\nb</code></pre>")
	assert.Contains(t, out, "x\n\n    a\n    b")
}

func TestInlineCode(t *testing.T) {
	assert.Equal(t, "`x`", inlineCode("x"))
	assert.Equal(t, "``a`b``", inlineCode("a`b"))
	assert.Equal(t, "`` `a ``", inlineCode("`a"))
	assert.Equal(t, "", inlineCode("  "))

	out, _ := render(t, core.DefaultOptions(), `<p>run <code>go test</code> now <code></code></p>`)
	assert.Equal(t, "run `go test` now", strings.TrimSpace(out))
}

func TestTable(t *testing.T) {
	out, _ := render(t, core.DefaultOptions(), `<table>
		<caption>Scores</caption>
		<thead><tr><th data-md-align="left">Name</th><th data-md-align="right">Score</th><th>Note</th></tr></thead>
		<tbody><tr><td>a|b</td><td colspan="2">9</td></tr></tbody>
	</table>`)
	assert.Contains(t, out, "Scores\n\n| Name | Score | Note |\n| :--- | ---: | --- |\n| a\\|b | 9 |  |")
}

func TestTableWithoutHeadSection(t *testing.T) {
	out, _ := render(t, core.DefaultOptions(), `<table><tr><td>A</td><td>B</td></tr><tr><td>1</td><td>2</td></tr></table>`)
	assert.Contains(t, out, "| A | B |\n| --- | --- |\n| 1 | 2 |")
}

func TestAlignmentIgnoredWhenDisabled(t *testing.T) {
	opts := core.DefaultOptions()
	opts.PreserveTableAlignment = false
	out, _ := render(t, opts, `<table><thead><tr><th data-md-align="center">A</th></tr></thead><tbody><tr><td>1</td></tr></tbody></table>`)
	assert.Contains(t, out, "| --- |")
	assert.NotContains(t, out, ":---")
}

func TestLinks(t *testing.T) {
	opts := core.DefaultOptions()
	opts.BaseURL = "https://example.com/docs/"
	out, _ := render(t, opts, `<p><a href="guide" title="The guide">Guide</a> <a href="#">top</a> <a href="javascript:void(0)">js</a> <a>bare</a></p>`)
	assert.Equal(t, `[Guide](https://example.com/docs/guide "The guide") top js bare`, strings.TrimSpace(out))
}

func TestReferencedLinks(t *testing.T) {
	opts := core.DefaultOptions()
	opts.LinkStyle = core.LinkReferenced
	out, st := render(t, opts, `<p><a href="https://a.example">A</a> and <a href="https://b.example">B</a></p>`)
	assert.Equal(t, "[A][1] and [B][2]", strings.TrimSpace(out))
	assert.Equal(t, "\n\n[1]: https://a.example\n[2]: https://b.example\n", st.Definitions())
}

func TestFootnotes(t *testing.T) {
	out, _ := render(t, core.DefaultOptions(), `<p>Claim<sup class="footnote-ref"><a href="#fn1" id="fnref1">1</a></sup>.</p>
		<section class="footnotes"><hr><ol><li id="fn1"><p>Source. <a href="#fnref1" class="footnote-backref">↩</a></p></li></ol></section>`)
	assert.Contains(t, out, "Claim[^1].")
	assert.Contains(t, out, "[^1]: Source.")
	assert.NotContains(t, out, "↩")
}

func TestImages(t *testing.T) {
	out, _ := render(t, core.DefaultOptions(), `<p><img src="a b.png" alt=" A  cat " title="Cat" width="10" height="20"><img alt="none"></p>`)
	assert.Equal(t, `![A cat](a%20b.png "Cat" =10x20)`, strings.TrimSpace(out))

	opts := core.DefaultOptions()
	opts.PreserveImageSize = false
	out, _ = render(t, opts, `<img src="a.png" width="10">`)
	assert.Equal(t, `![](a.png)`, strings.TrimSpace(out))
}

func TestLists(t *testing.T) {
	out, _ := render(t, core.DefaultOptions(), `<ul><li>a<ul><li>b<ul><li>c</li></ul></li></ul></li><li>d</li></ul>`)
	assert.Equal(t, "- a\n  - b\n    - c\n- d", strings.TrimSpace(out))

	out, _ = render(t, core.DefaultOptions(), `<ol start="3"><li>x</li><li>y</li></ol>`)
	assert.Equal(t, "3. x\n4. y", strings.TrimSpace(out))
}

func TestTaskItems(t *testing.T) {
	out, _ := render(t, core.DefaultOptions(), `<ul><li><input type="checkbox" checked> Done</li><li><input type="checkbox"> Todo</li></ul>`)
	assert.Equal(t, "- [x] Done\n- [ ] Todo", strings.TrimSpace(out))
}

func TestBlockquoteNesting(t *testing.T) {
	out, _ := render(t, core.DefaultOptions(), `<blockquote><p>outer</p><blockquote><p>inner</p></blockquote></blockquote>`)
	assert.Equal(t, "> outer\n>\n> > inner", strings.TrimSpace(out))
}

func TestInlineMarkers(t *testing.T) {
	out, _ := render(t, core.DefaultOptions(), `<p>H<sub>2</sub>O x<sup>2</sup> <mark>hot</mark> <abbr title="HyperText Markup Language">HTML</abbr> <kbd>Ctrl</kbd> <cite>Dune</cite> <q>hi</q></p>`)
	assert.Equal(t, `H~2~O x^2^ ==hot== HTML (HyperText Markup Language) <kbd>Ctrl</kbd> _Dune_ "hi"`, strings.TrimSpace(out))
}

func TestDefinitionListFallback(t *testing.T) {
	out, _ := render(t, core.DefaultOptions(), `<dl><dt>Term</dt><dd>Def</dd></dl>`)
	assert.Equal(t, "Term\n: Def", strings.TrimSpace(out))
}

func TestMediaFallback(t *testing.T) {
	out, _ := render(t, core.DefaultOptions(), `<video><source src="v.mp4"></video>`)
	assert.Equal(t, "[Video](v.mp4)", strings.TrimSpace(out))
}

func TestCustomRuleTakesPrecedence(t *testing.T) {
	custom := Rule{
		Name:    "shout",
		Tags:    []string{"mark"},
		Inline:  true,
		Replace: func(content string, _ *html.Node) string { return strings.ToUpper(content) },
	}
	out, _ := render(t, core.DefaultOptions(), `<p><mark>hot</mark></p>`, custom)
	assert.Equal(t, "HOT", strings.TrimSpace(out))
}

func TestPanickingRuleFallsThrough(t *testing.T) {
	boom := Rule{
		Name:    "boom",
		Tags:    []string{"h1"},
		Replace: func(string, *html.Node) string { panic("boom") },
	}
	st := NewState(core.DefaultOptions())
	set := Defaults(st)
	set.Prepend(boom)
	var got []string
	reporter := reporterFunc(func(category, _ string, _ error) { got = append(got, category) })
	conv := converter.NewConverter(converter.WithPlugins(
		base.NewBasePlugin(),
		commonmark.NewCommonmarkPlugin(),
		NewPlugin(set, reporter),
	))
	out, err := conv.ConvertString(`<h1>Title</h1>`)
	require.NoError(t, err)
	assert.Equal(t, "# Title", strings.TrimSpace(out))
	assert.Equal(t, []string{core.CategoryConversion}, got)
}

type reporterFunc func(category, message string, err error)

func (f reporterFunc) Report(category, message string, err error) { f(category, message, err) }
