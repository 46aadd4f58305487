package rewrite

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func apply(t *testing.T, markup string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	require.NoError(t, err)
	Apply(doc, nil)
	return doc
}

func bodyHTML(t *testing.T, doc *goquery.Document) string {
	t.Helper()
	out, err := doc.Find("body").Html()
	require.NoError(t, err)
	return strings.TrimSpace(out)
}

func TestDefinitionList(t *testing.T) {
	doc := apply(t, `<dl><dt>Term</dt><dd>Def</dd></dl>`)
	assert.Equal(t, `<p><strong>Term</strong>: Def</p>`, bodyHTML(t, doc))
}

func TestDefinitionListKeepsOtherChildrenInPlace(t *testing.T) {
	doc := apply(t, `<dl><dt>A</dt><dd>one</dd><p id="note">between</p><dt>B</dt><dd>two</dd></dl>`)

	ps := doc.Find("body > p")
	require.Equal(t, 3, ps.Length())
	assert.Equal(t, "A: one", ps.Eq(0).Text())
	assert.Equal(t, "note", ps.Eq(1).AttrOr("id", ""))
	assert.Equal(t, "B: two", ps.Eq(2).Text())
}

func TestDefinitionListGroupsDescriptions(t *testing.T) {
	doc := apply(t, `<dl>
		<dt>A</dt><dd>one</dd><dd><p>two</p></dd>
		<dt>B</dt>
		<div><dt>C</dt><dd>three<ul><li>x</li></ul></dd></div>
	</dl>`)

	ps := doc.Find("body > p")
	require.Equal(t, 3, ps.Length())
	assert.Equal(t, "A: one two", ps.Eq(0).Text())
	assert.Equal(t, "B: ", ps.Eq(1).Text())
	assert.Equal(t, "C: three", ps.Eq(2).Text())
	assert.Equal(t, 1, doc.Find("body > ul").Length())
	assert.Equal(t, 0, doc.Find("dl, dt, dd").Length())
}

func TestDetails(t *testing.T) {
	doc := apply(t, `<details><summary>More <i>info</i></summary><p>Body</p></details>`)
	bq := doc.Find("blockquote")
	require.Equal(t, 1, bq.Length())
	assert.Equal(t, "More info", bq.Find("p > strong").First().Text())
	assert.Equal(t, "Body", bq.Find("p").Eq(1).Text())
	assert.Equal(t, 0, doc.Find("details, summary").Length())

	doc = apply(t, `<details><p>Body</p></details>`)
	assert.Equal(t, defaultDetailsLabel, doc.Find("blockquote strong").Text())
}

func TestFigureCopiesCaptionToAlt(t *testing.T) {
	doc := apply(t, `<figure><img src="a.png"><figcaption>A cat</figcaption></figure>`)
	assert.Equal(t, 0, doc.Find("figure, figcaption").Length())
	img := doc.Find("p > img")
	require.Equal(t, 1, img.Length())
	assert.Equal(t, "A cat", img.AttrOr("alt", ""))
	assert.Equal(t, "A cat", doc.Find("p > em").Text())

	doc = apply(t, `<figure><img src="a.png" alt="kept"><figcaption>Caption</figcaption></figure>`)
	assert.Equal(t, "kept", doc.Find("img").AttrOr("alt", ""))
}

func TestFigureWithoutCaptionIsUntouched(t *testing.T) {
	doc := apply(t, `<figure><img src="a.png"></figure>`)
	assert.Equal(t, 1, doc.Find("figure").Length())
	doc = apply(t, `<figure><figcaption>Only text</figcaption></figure>`)
	assert.Equal(t, 1, doc.Find("figure").Length())
}

func TestMedia(t *testing.T) {
	doc := apply(t, `<video poster="p.jpg" title="Launch"><source src="launch.mp4"></video>`)
	a := doc.Find("p > a")
	assert.Equal(t, "launch.mp4", a.AttrOr("href", ""))
	assert.Equal(t, "Video", a.Text())
	assert.Equal(t, "Launch", doc.Find("p > em").Text())

	doc = apply(t, `<video poster="p.jpg"></video>`)
	assert.Equal(t, "p.jpg", doc.Find("a").AttrOr("href", ""))

	doc = apply(t, `<iframe src="https://example.com/embed"></iframe>`)
	assert.Equal(t, "https://example.com/embed", doc.Find("a").AttrOr("href", ""))
	assert.Equal(t, "Embedded content", doc.Find("a").Text())

	doc = apply(t, `<audio></audio>`)
	assert.Equal(t, "[Audio unavailable]", doc.Find("p > em").Text())
	assert.Equal(t, 0, doc.Find("audio").Length())
}

func TestOrphanedItemsAreWrapped(t *testing.T) {
	doc := apply(t, `<div><li>a</li> <li>b</li><p>x</p><li>c</li></div>`)
	uls := doc.Find("div > ul")
	require.Equal(t, 2, uls.Length())
	assert.Equal(t, 2, uls.Eq(0).Children().Length())
	assert.Equal(t, 1, uls.Eq(1).Children().Length())
}

func TestCitationMovesToEnd(t *testing.T) {
	doc := apply(t, `<blockquote><cite>Ada</cite><p>Quote</p></blockquote>`)
	ps := doc.Find("blockquote > p")
	require.Equal(t, 2, ps.Length())
	assert.Equal(t, "Quote", ps.Eq(0).Text())
	assert.Equal(t, "— Ada", ps.Eq(1).Find("em").Text())
	assert.Equal(t, 0, doc.Find("cite").Length())

	doc = apply(t, `<blockquote><p>Q</p><footer>— <cite>Grace</cite></footer></blockquote>`)
	assert.Equal(t, "— Grace", doc.Find("blockquote em").Text())
}

func TestInlineCiteInsideQuoteTextStays(t *testing.T) {
	doc := apply(t, `<blockquote><p>As <cite>The Book</cite> says</p></blockquote>`)
	assert.Equal(t, 1, doc.Find("cite").Length())
	assert.Equal(t, 0, doc.Find("em").Length())
}

func TestAdmonition(t *testing.T) {
	doc := apply(t, `<div class="admonition warning"><p class="admonition-title">Careful</p><p>Hot</p></div>`)
	bq := doc.Find("blockquote")
	require.Equal(t, 1, bq.Length())
	assert.Equal(t, "Careful", bq.Find("strong").Text())
	assert.Equal(t, "Hot", bq.Find("p").Last().Text())
}

func TestNestedDefinitionListsRewriteInnermostFirst(t *testing.T) {
	doc := apply(t, `<dl><dt>Outer</dt><dd><dl><dt>Inner</dt><dd>x</dd></dl></dd></dl>`)
	assert.Equal(t, 0, doc.Find("dl").Length())
	assert.Contains(t, doc.Find("body").Text(), "Inner: x")
}
