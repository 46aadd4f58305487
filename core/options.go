package core

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// Heading styles.
const (
	HeadingATX    = "atx"
	HeadingSetext = "setext"
)

// Code block styles.
const (
	CodeBlockFenced   = "fenced"
	CodeBlockIndented = "indented"
)

// Link styles.
const (
	LinkInlined    = "inlined"
	LinkReferenced = "referenced"
)

// Options is the immutable configuration snapshot consulted by the rules
// and the post-processor. Build it with DefaultOptions and override
// fields; never mutate one that a converter already holds.
type Options struct {
	HeadingStyle             string `mapstructure:"heading_style" yaml:"heading_style"`
	BulletListMarker         string `mapstructure:"bullet_list_marker" yaml:"bullet_list_marker"`
	CodeBlockStyle           string `mapstructure:"code_block_style" yaml:"code_block_style"`
	Fence                    string `mapstructure:"fence" yaml:"fence"`
	EmDelimiter              string `mapstructure:"em_delimiter" yaml:"em_delimiter"`
	StrongDelimiter          string `mapstructure:"strong_delimiter" yaml:"strong_delimiter"`
	LinkStyle                string `mapstructure:"link_style" yaml:"link_style"`
	PreserveImageSize        bool   `mapstructure:"preserve_image_size" yaml:"preserve_image_size"`
	PreserveTableAlignment   bool   `mapstructure:"preserve_table_alignment" yaml:"preserve_table_alignment"`
	PreserveFrontMatter      bool   `mapstructure:"preserve_front_matter" yaml:"preserve_front_matter"`
	ProcessComplexStructures bool   `mapstructure:"process_complex_structures" yaml:"process_complex_structures"`

	// BaseURL, when set, resolves relative link and image URLs.
	BaseURL string `mapstructure:"base_url" yaml:"base_url,omitempty"`
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{
		HeadingStyle:             HeadingATX,
		BulletListMarker:         "-",
		CodeBlockStyle:           CodeBlockFenced,
		Fence:                    "```",
		EmDelimiter:              "*",
		StrongDelimiter:          "**",
		LinkStyle:                LinkInlined,
		PreserveImageSize:        true,
		PreserveTableAlignment:   true,
		PreserveFrontMatter:      true,
		ProcessComplexStructures: true,
	}
}

type enumField struct {
	name    string
	value   *string
	def     string
	allowed []string
}

func (o *Options) enums() []enumField {
	d := DefaultOptions()
	return []enumField{
		{"heading_style", &o.HeadingStyle, d.HeadingStyle, []string{HeadingATX, HeadingSetext}},
		{"bullet_list_marker", &o.BulletListMarker, d.BulletListMarker, []string{"-", "+", "*"}},
		{"code_block_style", &o.CodeBlockStyle, d.CodeBlockStyle, []string{CodeBlockFenced, CodeBlockIndented}},
		{"fence", &o.Fence, d.Fence, []string{"```", "~~~"}},
		{"em_delimiter", &o.EmDelimiter, d.EmDelimiter, []string{"_", "*"}},
		{"strong_delimiter", &o.StrongDelimiter, d.StrongDelimiter, []string{"__", "**"}},
		{"link_style", &o.LinkStyle, d.LinkStyle, []string{LinkInlined, LinkReferenced}},
	}
}

func (f enumField) valid() bool {
	return slices.Contains(f.allowed, *f.value)
}

// Validate reports every invalid field at once.
func (o Options) Validate() error {
	var errs []error
	for _, f := range o.enums() {
		if !f.valid() {
			errs = append(errs, fmt.Errorf("%s must be one of %s (got %q)", f.name, strings.Join(f.allowed, ", "), *f.value))
		}
	}
	if o.BaseURL != "" {
		u, err := url.Parse(o.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("base_url must be an absolute URL (got %q)", o.BaseURL))
		}
	}
	return errors.Join(errs...)
}

// Sanitized returns a copy of o with every invalid field reset to its
// default.
func (o Options) Sanitized() Options {
	for _, f := range o.enums() {
		if !f.valid() {
			*f.value = f.def
		}
	}
	if o.BaseURL != "" {
		if u, err := url.Parse(o.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			o.BaseURL = ""
		}
	}
	return o
}
