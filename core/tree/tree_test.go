package tree

import (
	"errors"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func parse(t *testing.T, markup string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	require.NoError(t, err)
	return doc
}

func body(t *testing.T, doc *goquery.Document) string {
	t.Helper()
	out, err := doc.Find("body").Html()
	require.NoError(t, err)
	return out
}

func TestEachIsolatedWorksInnermostFirst(t *testing.T) {
	doc := parse(t, `<div id="a"><div id="b"><div id="c"></div></div></div>`)
	var order []string
	EachIsolated(doc.Selection, "div", func(*goquery.Selection, error) {}, func(clone *goquery.Selection) ([]*html.Node, error) {
		id, _ := clone.Attr("id")
		order = append(order, id)
		return clone.Nodes, nil
	})
	assert.Equal(t, []string{"c", "b", "a"}, order)
}

func TestEachIsolatedKeepsOriginalOnFailure(t *testing.T) {
	doc := parse(t, `<p>one</p><p>two</p><p>three</p>`)
	var failed []string
	EachIsolated(doc.Selection, "p", func(orig *goquery.Selection, err error) {
		failed = append(failed, orig.Text()+": "+err.Error())
	}, func(clone *goquery.Selection) ([]*html.Node, error) {
		switch clone.Text() {
		case "one":
			return nil, errors.New("refused")
		case "two":
			clone.SetText("half done")
			panic("mid-rewrite")
		}
		return []*html.Node{Wrap("h2", Text("3"))}, nil
	})

	assert.Equal(t, `<p>one</p><p>two</p><h2>3</h2>`, body(t, doc))
	assert.ElementsMatch(t, []string{"one: refused", "two: panic: mid-rewrite"}, failed)
}

func TestEachIsolatedRemovesOnEmptyResult(t *testing.T) {
	doc := parse(t, `<p>keep</p><span>drop</span>`)
	EachIsolated(doc.Selection, "span", nil, func(*goquery.Selection) ([]*html.Node, error) {
		return nil, nil
	})
	assert.Equal(t, `<p>keep</p>`, body(t, doc))
}

func TestNodeHelpers(t *testing.T) {
	li := Element("li", Attr("class", "task done"))
	ul := Wrap("ul", li)
	Wrap("blockquote", Wrap("ol", ul))

	assert.True(t, HasClass(li, "done"))
	assert.False(t, HasClass(li, "do"))
	assert.Equal(t, ul.Parent, Ancestor(li, "ol"))
	assert.Equal(t, 2, CountAncestors(li, "ul", "ol"))

	SetAttr(li, "class", "x")
	v, ok := GetAttr(li, "class")
	assert.True(t, ok)
	assert.Equal(t, "x", v)

	Rename(li, "div")
	assert.True(t, IsElement(li, "div"))
	Detach(li)
	assert.Nil(t, li.Parent)
	assert.Empty(t, Children(ul))

	assert.True(t, IsBlank(Text(" \n\t")))
	assert.True(t, IsBlank(&html.Node{Type: html.CommentNode, Data: "x"}))
	assert.False(t, IsBlank(Text("a")))
}

func TestCodeLanguage(t *testing.T) {
	pre := Element("pre", Attr("class", "highlight-source-python"))
	code := Element("code", Attr("class", "hljs language-Go"))
	assert.Equal(t, "Go", CodeLanguage(code, pre))
	assert.Equal(t, "python", CodeLanguage(nil, pre))
	assert.Equal(t, "rust", CodeLanguage(Element("code", Attr("data-lang", "rust"), Attr("class", "lang-c"))))
	assert.Empty(t, CodeLanguage(Element("code", Attr("class", "mylanguage-go"))))
}

func TestCodeParts(t *testing.T) {
	code := Wrap("code", Text("a\nb"))
	pre := Wrap("pre", Text("\n"), code)
	got, text := CodeParts(pre)
	assert.Same(t, code, got)
	assert.Equal(t, "a\nb", text)

	mixed := Wrap("pre", Wrap("code", Text("a")), Text(" tail"))
	got, text = CodeParts(mixed)
	assert.Nil(t, got)
	assert.Equal(t, "a tail", text)
}

func TestFences(t *testing.T) {
	assert.Equal(t, "  x\ny", TrimBlankLines("\n \n  x\ny\n\t\n"))
	assert.Equal(t, "```", Fence("```", "plain"))
	assert.Equal(t, "````", Fence("```", "a\n```\nb"))
	assert.Equal(t, "~~~", Fence("~~~", "```"))
	assert.Equal(t, "```go\nx\n```", FencedBlock("```", "go", "x"))
}
