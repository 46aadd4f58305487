package convert

import (
	"errors"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/gaurav-prasanna/markpipe/core"
	"github.com/gaurav-prasanna/markpipe/core/frontmatter"
	"github.com/gaurav-prasanna/markpipe/core/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

type recorder struct {
	mu         sync.Mutex
	categories []string
}

func (r *recorder) Report(category, _ string, _ error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.categories = append(r.categories, category)
}

func TestScenarios(t *testing.T) {
	t.Run("bold", func(t *testing.T) {
		assert.Contains(t, Convert(`<p>Hello <b>world</b></p>`), "Hello **world**")
	})

	t.Run("table without header", func(t *testing.T) {
		out := Convert(`<table><tr><td>A</td><td>B</td></tr><tr><td>1</td><td>2</td></tr></table>`)
		assert.Equal(t, "| A | B |\n| --- | --- |\n| 1 | 2 |", out)
	})

	t.Run("fenced code", func(t *testing.T) {
		assert.Equal(t, "```js\nlet x=1;\n```", Convert(`<pre><code class="language-js">let x=1;</code></pre>`))
	})

	t.Run("definition list", func(t *testing.T) {
		assert.Contains(t, Convert(`<dl><dt>Term</dt><dd>Def</dd></dl>`), "**Term**: Def")
	})

	t.Run("task item", func(t *testing.T) {
		assert.Contains(t, Convert(`<ul><li><input type="checkbox" checked> Done</li></ul>`), "- [x] Done")
	})

	t.Run("front matter", func(t *testing.T) {
		out := Convert(frontmatter.Wrap("title: Hello") + `<p>Body</p>`)
		assert.True(t, strings.HasPrefix(out, "---\ntitle: Hello\n---\n\n"), out)
		assert.Contains(t, out, "Body")

		out = Convert(frontmatter.Wrap("title: Hello")+`<p>Body</p>`, WithPreserveFrontMatter(false))
		assert.Equal(t, "Body", out)
	})
}

func TestNeverPanics(t *testing.T) {
	inputs := []string{
		"",
		"<",
		"<table><tr>",
		"<<<>>>",
		"\x00\xff\xfe",
		"<ul><li><ul><li><ol>",
		"<table><td colspan=\"99999\">x</td></table>",
		"<dl><dd>orphan</dd><dt></dt></dl>",
		"$$ unclosed",
		"<pre><code class=\"language-\"></code></pre>",
		"<!-- front-matter\n: [bad\n--><p>x</p>",
	}
	for _, in := range inputs {
		assert.NotPanics(t, func() { _ = Convert(in) }, "input %q", in)
	}
}

func TestListDepth(t *testing.T) {
	out := Convert(`<ul><li>a<ul><li>b<ul><li>c</li></ul></li></ul></li></ul>`)
	assert.Equal(t, "- a\n  - b\n    - c", out)

	for _, line := range strings.Split(out, "\n") {
		indent := len(line) - len(strings.TrimLeft(line, " "))
		assert.Zero(t, indent%2, line)
	}
}

func TestAlignmentRowColumns(t *testing.T) {
	cells := regexp.MustCompile(`:?-{3,}:?`)
	for _, n := range []int{1, 3, 7} {
		var b strings.Builder
		b.WriteString("<table><thead><tr>")
		for range n {
			b.WriteString("<th>h</th>")
		}
		b.WriteString("</tr></thead><tbody><tr>")
		for range n {
			b.WriteString("<td>v</td>")
		}
		b.WriteString("</tr></tbody></table>")

		lines := strings.Split(Convert(b.String()), "\n")
		require.GreaterOrEqual(t, len(lines), 2)
		assert.Len(t, cells.FindAllString(lines[1], -1), n, lines[1])
	}
}

func TestAlignmentIsCarried(t *testing.T) {
	out := Convert(`<table><tr><th align="left">a</th><th style="text-align: center">b</th><th align="right">c</th></tr><tr><td>1</td><td>2</td><td>3</td></tr></table>`)
	assert.Contains(t, out, "| :--- | :---: | ---: |")

	out = Convert(`<table><tr><th align="right">a</th></tr></table>`, WithPreserveTableAlignment(false))
	assert.Contains(t, out, "| --- |")
}

func TestPipesStayInsideCells(t *testing.T) {
	out := Convert(`<table><tr><th>H</th><th>I</th></tr><tr><td>a|b</td><td>c</td></tr></table>`)
	assert.Equal(t, "| H | I |\n| --- | --- |\n| a\\|b | c |", out)
}

func TestTaskItemsWithoutComplexStructures(t *testing.T) {
	tasks := `<ul><li><input type="checkbox" checked> Done</li><li><input type="checkbox"> Todo</li></ul>`
	for _, on := range []bool{true, false} {
		out := Convert(tasks, WithProcessComplexStructures(on))
		assert.Equal(t, "- [x] Done\n- [ ] Todo", out, "complex structures %v", on)
	}
}

func TestOrderedListsRenumberFromOne(t *testing.T) {
	out := Convert(`<ol start="3"><li>x</li><li>y</li></ol><p>para</p><ol><li>z</li></ol>`)
	assert.Equal(t, "1. x\n2. y\n\npara\n\n1. z", out)
}

func TestInlineMathIsPreserved(t *testing.T) {
	for _, in := range []string{
		`<p>Sum $x+y=z$ here</p>`,
		`<p><em>Note</em>: $x+y=z$</p>`,
		`<ul><li>$x+y=z$</li></ul>`,
	} {
		assert.Contains(t, Convert(in), "$x+y=z$", in)
	}
}

func TestDisplayMathAndPreservedCode(t *testing.T) {
	out := Convert("<p>Before</p><p>$$\na_1 * b_2\n$$</p><div class=\"mermaid\">graph TD\n  A-->B</div>")
	assert.Contains(t, out, "a_1 * b_2")
	assert.NotContains(t, out, `a\_1`)
	assert.Contains(t, out, "```mermaid\ngraph TD\n  A-->B\n```")
	assert.NotContains(t, out, "MDKEEP")
}

func TestOptionsShapeOutput(t *testing.T) {
	c := New(
		WithHeadingStyle(core.HeadingSetext),
		WithEmDelimiter("_"),
		WithStrongDelimiter("__"),
		WithBulletListMarker("*"),
		WithFence("~~~"),
	)
	out := c.Convert(`<h1>Title</h1><p><em>a</em> <strong>b</strong></p><ul><li>x</li></ul><pre><code>y</code></pre>`)
	assert.Contains(t, out, "Title\n=====")
	assert.Contains(t, out, "_a_ __b__")
	assert.Contains(t, out, "- x", "bullets are normalized after conversion")
	assert.Contains(t, out, "~~~\ny\n~~~")
}

func TestReferencedLinks(t *testing.T) {
	out := Convert(`<p><a href="/a">one</a> and <a href="https://b.example">two</a></p>`,
		WithLinkStyle(core.LinkReferenced), WithBaseURL("https://docs.example/guide/"))
	assert.Contains(t, out, "[one][1] and [two][2]")
	assert.Contains(t, out, "[1]: https://docs.example/a")
	assert.Contains(t, out, "[2]: https://b.example")
}

func TestInvalidOptionsFallBackToDefaults(t *testing.T) {
	c := New(WithFence("'''"), WithHeadingStyle("underline"))
	assert.Equal(t, "```", c.Options().Fence)
	assert.Equal(t, core.HeadingATX, c.Options().HeadingStyle)
}

func TestCustomRule(t *testing.T) {
	callout := rules.Rule{
		Name: "callout",
		Tags: []string{"div"},
		Filter: func(n *html.Node) bool {
			for _, a := range n.Attr {
				if a.Key == "class" && a.Val == "callout" {
					return true
				}
			}
			return false
		},
		Replace: func(content string, _ *html.Node) string {
			return "\n\n> **Note:** " + strings.TrimSpace(content) + "\n\n"
		},
	}
	out := Convert(`<div class="callout">Read this</div><div>plain</div>`, WithRule(callout))
	assert.Equal(t, "> **Note:** Read this\n\nplain", out)
}

func TestFailingRuleIsReported(t *testing.T) {
	rec := &recorder{}
	broken := rules.Rule{
		Name:    "broken",
		Tags:    []string{"p"},
		Replace: func(string, *html.Node) string { panic("broken rule") },
	}
	out := Convert(`<p>still here</p>`, WithRule(broken), WithErrorReporter(rec))
	assert.Equal(t, "still here", out)
	assert.Equal(t, []string{core.CategoryConversion}, rec.categories)
}

type panickingReporter struct{}

func (panickingReporter) Report(string, string, error) { panic("reporter down") }

func TestPipelineFailureFallsBack(t *testing.T) {
	broken := rules.Rule{
		Name:    "broken",
		Tags:    []string{"p"},
		Replace: func(string, *html.Node) string { panic("broken rule") },
	}
	in := `<p>a --> b</p>`
	c := New(WithRule(broken), WithErrorReporter(panickingReporter{}))

	var out string
	require.NotPanics(t, func() { out = c.Convert(in) })
	assert.True(t, strings.HasPrefix(out, "<!-- markdown conversion failed: "), out)
	assert.True(t, strings.HasSuffix(out, "\n-->"), out)
	assert.Equal(t, 1, strings.Count(out, "-->"), "the comment closes exactly once")

	_, err := c.Normalize(in)
	assert.ErrorIs(t, err, core.ErrConversion)
}

func TestFallback(t *testing.T) {
	got := Fallback("<p>x --> y</p>", errors.New("bad --> state"))
	assert.Equal(t, "<!-- markdown conversion failed: bad --&gt; state\n<p>x --&gt; y</p>\n-->", got)
}

func TestConvertNodeLeavesInputAlone(t *testing.T) {
	doc, err := html.Parse(strings.NewReader(`<table><tr><td>A</td></tr><tr><td>1</td></tr></table><p>$x+y=z$</p>`))
	require.NoError(t, err)
	var before strings.Builder
	require.NoError(t, html.Render(&before, doc))

	out := New().ConvertNode(doc)
	assert.Contains(t, out, "| A |\n| --- |\n| 1 |")
	assert.Contains(t, out, "$x+y=z$")

	var after strings.Builder
	require.NoError(t, html.Render(&after, doc))
	assert.Equal(t, before.String(), after.String())
	assert.Empty(t, New().ConvertNode(nil))
}

func TestConcurrentUse(t *testing.T) {
	c := New(WithLinkStyle(core.LinkReferenced))
	in := `<p><a href="https://a.example">a</a> $k$</p><div class="mermaid">x</div>`
	want := c.Convert(in)

	var wg sync.WaitGroup
	results := make([]string, 16)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = c.Convert(in)
		}()
	}
	wg.Wait()
	for _, got := range results {
		assert.Equal(t, want, got)
	}
}
