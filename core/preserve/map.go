// Package preserve — placeholder extraction and restoration for content that
// must survive Markdown conversion verbatim: TeX math, diagram and math code
// blocks, and comments marked for preservation.
package preserve

import (
	"strconv"
	"strings"

	"github.com/gaurav-prasanna/markpipe/core/tree"
	"github.com/google/uuid"
)

// Kind tells Restore how to render an entry.
type Kind int

const (
	InlineMath Kind = iota
	BlockMath
	Code
	Comment
)

var kindLetters = map[Kind]string{
	InlineMath: "I",
	BlockMath:  "B",
	Code:       "C",
	Comment:    "H",
}

const tokenPrefix = "MDKEEP"

// Entry is one preserved fragment.
type Entry struct {
	Token   string
	Kind    Kind
	Content string
}

// Map records preserved fragments for a single conversion in extraction
// order. Tokens are alphanumeric so the converter's escaping leaves them
// alone, and the per-map nonce keeps them from colliding with page text.
type Map struct {
	// Fence is used when restoring preserved code blocks.
	Fence string

	nonce   string
	entries []Entry
	index   map[string]int
}

// NewMap returns an empty map with a fresh nonce.
func NewMap() *Map {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return &Map{
		Fence: "```",
		nonce: id[:12],
		index: make(map[string]int),
	}
}

// Add stores content and returns the token that stands in for it.
func (m *Map) Add(kind Kind, content string) string {
	token := tokenPrefix + m.nonce + kindLetters[kind] + strconv.Itoa(len(m.entries)) + "X"
	m.index[token] = len(m.entries)
	m.entries = append(m.entries, Entry{Token: token, Kind: kind, Content: content})
	return token
}

// Len returns the number of preserved fragments.
func (m *Map) Len() int { return len(m.entries) }

// Entries returns the preserved fragments in extraction order.
func (m *Map) Entries() []Entry {
	return append([]Entry(nil), m.entries...)
}

// Lookup returns the entry for token.
func (m *Map) Lookup(token string) (Entry, bool) {
	i, ok := m.index[token]
	if !ok {
		return Entry{}, false
	}
	return m.entries[i], true
}

// Restore replaces every token in md with its restored form and clears the
// map. Tokens missing from md are dropped.
func (m *Map) Restore(md string) string {
	for _, e := range m.entries {
		if !strings.Contains(md, e.Token) {
			continue
		}
		md = strings.ReplaceAll(md, e.Token, m.render(e))
	}
	m.entries = nil
	m.index = make(map[string]int)
	return md
}

func (m *Map) render(e Entry) string {
	switch e.Kind {
	case Code:
		lang, text := codeFromMarkup(e.Content)
		return tree.FencedBlock(m.Fence, lang, tree.TrimBlankLines(text))
	default:
		return e.Content
	}
}
