// Package render — JSON renderer.
// Parses the converted Markdown with goldmark (GFM) and reports its
// structure next to the page metadata: headings, sections, links, images,
// code blocks, tables, lists and task items.
package render

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gaurav-prasanna/markpipe/core"
	"github.com/gaurav-prasanna/markpipe/core/frontmatter"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"
)

// Document is the JSON output for one page.
type Document struct {
	Metadata    core.PageMetadata `json:"metadata"`
	FrontMatter map[string]any    `json:"front_matter,omitempty"`
	Content     Content           `json:"content"`
	Structure   Structure         `json:"structure"`
}

type Content struct {
	Text     string    `json:"text"`
	Markdown string    `json:"markdown"`
	Sections []Section `json:"sections,omitempty"`
}

// Section is the text between one heading and the next.
type Section struct {
	Heading string `json:"heading"`
	Level   int    `json:"level"`
	Text    string `json:"text"`
}

type Structure struct {
	Headings   []Heading   `json:"headings"`
	Links      []Link      `json:"links"`
	Images     []Link      `json:"images"`
	CodeBlocks []CodeBlock `json:"code_blocks"`
	Tables     int         `json:"tables"`
	Lists      int         `json:"lists"`
	Tasks      Tasks       `json:"tasks"`
}

type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
}

type Link struct {
	Text string `json:"text"`
	Href string `json:"href"`
}

type CodeBlock struct {
	Language string `json:"language,omitempty"`
	Lines    int    `json:"lines"`
}

type Tasks struct {
	Done int `json:"done"`
	Open int `json:"open"`
}

var markdownParser = goldmark.New(goldmark.WithExtensions(extension.GFM)).Parser()

// JSONRenderer produces structured JSON output from Markdown.
type JSONRenderer struct{}

// NewJSONRenderer creates a JSONRenderer.
func NewJSONRenderer() *JSONRenderer {
	return &JSONRenderer{}
}

// Render builds the Document for markdown and encodes it.
func (r *JSONRenderer) Render(markdown string, meta core.PageMetadata) ([]byte, error) {
	page, err := Analyze(markdown)
	if err != nil {
		return nil, err
	}
	page.Metadata = meta

	data, err := json.MarshalIndent(page, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// Extension returns the file extension for JSON output.
func (r *JSONRenderer) Extension() string {
	return ".json"
}

// Analyze parses markdown and collects its structure. A leading front
// matter block is decoded separately and not parsed as Markdown.
func Analyze(markdown string) (*Document, error) {
	page := &Document{
		Content: Content{Markdown: markdown},
		Structure: Structure{
			Headings:   []Heading{},
			Links:      []Link{},
			Images:     []Link{},
			CodeBlocks: []CodeBlock{},
		},
	}

	body := markdown
	if fm, rest, found := frontmatter.Split(markdown); found {
		if err := yaml.Unmarshal([]byte(fm), &page.FrontMatter); err != nil {
			return nil, fmt.Errorf("parsing front matter: %w", err)
		}
		body = rest
	}

	src := []byte(body)
	doc := markdownParser.Parse(text.NewReader(src))

	var blocks []string
	var current *Section
	var sectionText []string
	flush := func() {
		if current != nil {
			current.Text = strings.Join(sectionText, "\n\n")
			page.Content.Sections = append(page.Content.Sections, *current)
		}
		sectionText = nil
	}
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		txt := strings.TrimSpace(plainText(n, src))
		if h, ok := n.(*ast.Heading); ok {
			flush()
			current = &Section{Heading: txt, Level: h.Level}
		} else if current != nil && txt != "" {
			sectionText = append(sectionText, txt)
		}
		if txt != "" {
			blocks = append(blocks, txt)
		}
	}
	flush()
	page.Content.Text = strings.Join(blocks, "\n\n")

	st := &page.Structure
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n := n.(type) {
		case *ast.Heading:
			st.Headings = append(st.Headings, Heading{Level: n.Level, Text: strings.TrimSpace(plainText(n, src))})
		case *ast.Link:
			st.Links = append(st.Links, Link{Text: plainText(n, src), Href: string(n.Destination)})
		case *ast.AutoLink:
			url := string(n.URL(src))
			st.Links = append(st.Links, Link{Text: url, Href: url})
		case *ast.Image:
			st.Images = append(st.Images, Link{Text: plainText(n, src), Href: string(n.Destination)})
		case *ast.FencedCodeBlock:
			st.CodeBlocks = append(st.CodeBlocks, CodeBlock{Language: string(n.Language(src)), Lines: n.Lines().Len()})
		case *ast.CodeBlock:
			st.CodeBlocks = append(st.CodeBlocks, CodeBlock{Lines: n.Lines().Len()})
		case *east.Table:
			st.Tables++
		case *ast.List:
			if _, nested := n.Parent().(*ast.ListItem); !nested {
				st.Lists++
			}
		case *east.TaskCheckBox:
			if n.IsChecked {
				st.Tasks.Done++
			} else {
				st.Tasks.Open++
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking markdown: %w", err)
	}
	return page, nil
}

// plainText flattens n to its text, one line per block.
func plainText(n ast.Node, src []byte) string {
	var b strings.Builder
	var walk func(ast.Node)
	walk = func(n ast.Node) {
		switch n := n.(type) {
		case *ast.Text:
			b.Write(n.Segment.Value(src))
			if n.HardLineBreak() {
				b.WriteByte('\n')
			} else if n.SoftLineBreak() {
				b.WriteByte(' ')
			}
			return
		case *ast.String:
			b.Write(n.Value)
			return
		case *ast.AutoLink:
			b.Write(n.URL(src))
			return
		case *ast.RawHTML, *ast.HTMLBlock:
			return
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				b.Write(seg.Value(src))
			}
			return
		}
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			if c.Type() == ast.TypeBlock && b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
				b.WriteByte('\n')
			}
			walk(c)
		}
	}
	walk(n)
	return strings.TrimRight(b.String(), "\n")
}
