package rules

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/gaurav-prasanna/markpipe/core"
)

// State is the per-conversion context the rules share: the options and
// the reference-style link definitions collected so far.
type State struct {
	Options core.Options

	base *url.URL
	refs []string
}

// NewState returns the state for one conversion.
func NewState(opts core.Options) *State {
	st := &State{Options: opts}
	if opts.BaseURL != "" {
		if u, err := url.Parse(opts.BaseURL); err == nil && u.IsAbs() {
			st.base = u
		}
	}
	return st
}

// Resolve makes href absolute against the base URL when one is set.
// Fragments, mail and script links are returned as they are.
func (st *State) Resolve(href string) string {
	href = strings.TrimSpace(href)
	if st.base == nil || href == "" {
		return href
	}
	if strings.HasPrefix(href, "#") || strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "tel:") || strings.HasPrefix(href, "data:") {
		return href
	}
	parsed, err := url.Parse(href)
	if err != nil {
		return href
	}
	return st.base.ResolveReference(parsed).String()
}

// Reference records a link definition and returns its label.
func (st *State) Reference(href, title string) string {
	label := fmt.Sprintf("%d", len(st.refs)+1)
	def := "[" + label + "]: " + href
	if title != "" {
		def += ` "` + escapeTitle(title) + `"`
	}
	st.refs = append(st.refs, def)
	return label
}

// Definitions renders the collected link definitions as a trailing block,
// or "" when there are none.
func (st *State) Definitions() string {
	if len(st.refs) == 0 {
		return ""
	}
	return "\n\n" + strings.Join(st.refs, "\n") + "\n"
}
