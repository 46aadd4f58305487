package postprocess

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/gaurav-prasanna/markpipe/core/preserve"
)

// kind classifies a line for the steps that must leave code and display
// math alone.
type kind int

const (
	prose kind = iota
	fenceOpen
	fenceBody
	fenceClose
	mathBlock
)

var (
	fenceStart      = regexp.MustCompile("^(\\s*)(`{3,}|~{3,})(.*)$")
	atxHeading      = regexp.MustCompile(`^#{1,6}(\s|$)`)
	hrLine          = regexp.MustCompile(`^ {0,3}(?:(?:-[ \t]*){3,}|(?:\*[ \t]*){3,}|(?:_[ \t]*){3,})$`)
	setextUnderline = regexp.MustCompile(`^ {0,3}(?:=+|-+)[ \t]*$`)
	listMarker      = regexp.MustCompile(`^(\s*)(?:[-*+]|\d{1,9}[.)])(?:[ \t]+|$)`)
)

func split(md string) []string   { return strings.Split(md, "\n") }
func join(lines []string) string { return strings.Join(lines, "\n") }

func blank(s string) bool { return strings.TrimSpace(s) == "" }

// classify marks fenced code and $$ display math. An unclosed fence runs
// to the end of the document.
func classify(lines []string) []kind {
	kinds := make([]kind, len(lines))
	fence := ""
	inMath := false
	for i, l := range lines {
		t := strings.TrimSpace(l)
		switch {
		case fence != "":
			if isClosingFence(t, fence) {
				kinds[i] = fenceClose
				fence = ""
			} else {
				kinds[i] = fenceBody
			}
		case inMath:
			kinds[i] = mathBlock
			if t == "$$" {
				inMath = false
			}
		default:
			if f, ok := openingFence(l); ok {
				kinds[i] = fenceOpen
				fence = f
			} else if t == "$$" {
				kinds[i] = mathBlock
				inMath = true
			}
		}
	}
	return kinds
}

func openingFence(line string) (string, bool) {
	m := fenceStart.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	if m[2][0] == '`' && strings.Contains(m[3], "`") {
		return "", false
	}
	return m[2], true
}

func isClosingFence(t, fence string) bool {
	return len(t) >= len(fence) && strings.Trim(t, fence[:1]) == ""
}

// indentWidth counts leading whitespace, a tab standing for four spaces.
func indentWidth(s string) int {
	w := 0
	for _, r := range s {
		switch r {
		case ' ':
			w++
		case '\t':
			w += 4
		default:
			return w
		}
	}
	return w
}

func reindent(s string, width int) string {
	return strings.Repeat(" ", max(width, 0)) + strings.TrimLeft(s, " \t")
}

func isMarker(line string) bool {
	return listMarker.MatchString(line) && !hrLine.MatchString(line)
}

var heldSpan = regexp.MustCompile("\x00([0-9]+)\x00")

// protectInline applies fn to line with inline code spans and $...$ math
// masked out.
func protectInline(line string, fn func(string) string) string {
	var held []string
	hold := func(s string) string {
		held = append(held, s)
		return "\x00" + strconv.Itoa(len(held)-1) + "\x00"
	}
	masked := mapCodeSpans(line, hold)
	masked = preserve.ScanInlineMath(masked, hold)
	if len(held) == 0 {
		return fn(line)
	}
	out := fn(masked)
	return heldSpan.ReplaceAllStringFunc(out, func(m string) string {
		i, _ := strconv.Atoi(m[1 : len(m)-1])
		return held[i]
	})
}

// mapCodeSpans replaces every inline code span in line with fn(span).
func mapCodeSpans(line string, fn func(string) string) string {
	var b strings.Builder
	last, i := 0, 0
	for i < len(line) {
		switch line[i] {
		case '\\':
			i += 2
			continue
		case '`':
		default:
			i++
			continue
		}
		n := backtickRun(line, i)
		end := -1
		for j := i + n; j < len(line); {
			if line[j] != '`' {
				j++
				continue
			}
			m := backtickRun(line, j)
			if m == n {
				end = j + m
				break
			}
			j += m
		}
		if end < 0 {
			i += n
			continue
		}
		b.WriteString(line[last:i])
		b.WriteString(fn(line[i:end]))
		last, i = end, end
	}
	if last == 0 {
		return line
	}
	b.WriteString(line[last:])
	return b.String()
}

func backtickRun(s string, i int) int {
	n := 0
	for i+n < len(s) && s[i+n] == '`' {
		n++
	}
	return n
}
