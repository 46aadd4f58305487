// Package postprocess — the text-level cleanup chain run over converter
// output. Every step is line based, leaves fenced code and $$ math
// blocks alone, and only inserts a blank line where none exists. Process
// repeats the chain until the text is stable, so it is idempotent.
package postprocess

import (
	"regexp"
	"strconv"
	"strings"
)

type step struct {
	name string
	fn   func(string) string
}

var steps = []step{
	{"line endings", normalizeLineEndings},
	{"blank lines", collapseBlankLines},
	{"bullet markers", standardizeBullets},
	{"code fence spacing", spaceCodeFences},
	{"heading markers", spaceHeadingMarkers},
	{"trailing whitespace", stripTrailingWhitespace},
	{"table pipes", normalizeTablePipes},
	{"list indentation", reindentLists},
	{"blockquote and rule spacing", spaceQuotesAndRules},
	{"adjacent headings", separateHeadings},
	{"link whitespace", trimLinks},
	{"inline code whitespace", trimCodeSpans},
	{"ordered list numbers", renumberOrderedLists},
	{"fence languages", lowercaseFenceLanguages},
	{"emphasis spacing", spaceEmphasis},
	{"image whitespace", trimImages},
	{"document whitespace", strings.TrimSpace},
}

// maxPasses bounds Process. A later step can expose work for an earlier
// one, such as a blank line left behind by a dropped quote line; a second
// pass normally settles it.
const maxPasses = 8

// Process runs every step in order, repeating the chain until the text no
// longer changes.
func Process(md string) string {
	for range maxPasses {
		next := pass(md)
		if next == md {
			break
		}
		md = next
	}
	return md
}

func pass(md string) string {
	for _, s := range steps {
		md = s.fn(md)
	}
	return md
}

// normalizeLineEndings also drops leading blank space from the document,
// so the per-line steps see the first line as it will be emitted.
func normalizeLineEndings(md string) string {
	md = strings.NewReplacer("\r\n", "\n", "\r", "\n").Replace(md)
	return strings.TrimLeft(md, " \t\n")
}

func collapseBlankLines(md string) string {
	lines := split(md)
	kinds := classify(lines)
	out := make([]string, 0, len(lines))
	previousBlank := false
	for i, l := range lines {
		if kinds[i] == prose && blank(l) {
			if !previousBlank {
				out = append(out, "")
			}
			previousBlank = true
			continue
		}
		previousBlank = false
		out = append(out, l)
	}
	return join(out)
}

var bulletMarker = regexp.MustCompile(`^(\s*)[*+]([ \t]+)`)

func standardizeBullets(md string) string {
	lines := split(md)
	kinds := classify(lines)
	for i, l := range lines {
		if kinds[i] != prose || hrLine.MatchString(l) {
			continue
		}
		lines[i] = bulletMarker.ReplaceAllString(l, "${1}-${2}")
	}
	return join(lines)
}

func spaceCodeFences(md string) string {
	lines := split(md)
	kinds := classify(lines)
	out := make([]string, 0, len(lines))
	for i, l := range lines {
		if kinds[i] == fenceOpen && len(out) > 0 && !blank(out[len(out)-1]) {
			out = append(out, "")
		}
		out = append(out, l)
		if kinds[i] == fenceClose && i+1 < len(lines) && !blank(lines[i+1]) {
			out = append(out, "")
		}
	}
	return join(out)
}

var gluedHeading = regexp.MustCompile(`^(#{1,6})([^\s#])`)

func spaceHeadingMarkers(md string) string {
	lines := split(md)
	kinds := classify(lines)
	for i, l := range lines {
		if kinds[i] == prose {
			lines[i] = gluedHeading.ReplaceAllString(l, "$1 $2")
		}
	}
	return join(lines)
}

// stripTrailingWhitespace removes trailing blanks except a hard break:
// exactly two spaces ending a line that the next line continues.
func stripTrailingWhitespace(md string) string {
	lines := split(md)
	kinds := classify(lines)
	for i, l := range lines {
		if kinds[i] != prose {
			continue
		}
		trimmed := strings.TrimRight(l, " \t")
		if l[len(trimmed):] == "  " && i+1 < len(lines) && kinds[i+1] == prose && continuesParagraph(trimmed, lines[i+1]) {
			continue
		}
		lines[i] = trimmed
	}
	return join(lines)
}

// continuesParagraph reports whether next is an ordinary line of the
// paragraph that cur belongs to.
func continuesParagraph(cur, next string) bool {
	c, n := strings.TrimSpace(cur), strings.TrimSpace(next)
	if c == "" || n == "" || atxHeading.MatchString(c) {
		return false
	}
	if atxHeading.MatchString(n) || setextUnderline.MatchString(next) || hrLine.MatchString(next) ||
		isMarker(next) || strings.HasPrefix(n, "|") {
		return false
	}
	if _, ok := openingFence(next); ok {
		return false
	}
	return strings.HasPrefix(n, ">") == strings.HasPrefix(c, ">")
}

// normalizeTablePipes rewrites table rows as "| a | b |".
func normalizeTablePipes(md string) string {
	lines := split(md)
	kinds := classify(lines)
	for i, l := range lines {
		if kinds[i] != prose {
			continue
		}
		t := strings.TrimSpace(l)
		if len(t) < 2 || t[0] != '|' || t[len(t)-1] != '|' || t[len(t)-2] == '\\' {
			continue
		}
		cells := splitCells(t[1 : len(t)-1])
		for j := range cells {
			cells[j] = strings.TrimSpace(cells[j])
		}
		lead := l[:len(l)-len(strings.TrimLeft(l, " \t"))]
		lines[i] = lead + "| " + strings.Join(cells, " | ") + " |"
	}
	return join(lines)
}

// splitCells splits on pipes that are not escaped.
func splitCells(s string) []string {
	var cells []string
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '|':
			cells = append(cells, s[start:i])
			start = i + 1
		}
	}
	return append(cells, s[start:])
}

// reindentLists rewrites list marker indentation to two spaces per
// nesting level. A marker starts a deeper level when it is indented at
// least two columns past the enclosing marker. Continuation lines move by
// the same amount as the marker they follow.
func reindentLists(md string) string {
	lines := split(md)
	kinds := classify(lines)
	var stack []int
	delta := 0
	for i, l := range lines {
		if blank(l) {
			continue
		}
		w := indentWidth(l)
		if kinds[i] == prose && isMarker(l) {
			for len(stack) > 0 && w < stack[len(stack)-1] {
				stack = stack[:len(stack)-1]
			}
			if len(stack) == 0 || w >= stack[len(stack)-1]+2 {
				stack = append(stack, w)
			}
			target := 2 * (len(stack) - 1)
			lines[i] = reindent(l, target)
			delta = target - w
			continue
		}
		if len(stack) == 0 {
			continue
		}
		if w == 0 {
			if blank(lines[i-1]) || !lazyContinuation(l, kinds[i]) {
				stack, delta = nil, 0
			}
			continue
		}
		if delta != 0 {
			lines[i] = reindent(l, w+delta)
		}
	}
	return join(lines)
}

func lazyContinuation(l string, k kind) bool {
	if k != prose {
		return false
	}
	t := strings.TrimSpace(l)
	return !atxHeading.MatchString(t) && !hrLine.MatchString(l) &&
		!strings.HasPrefix(t, ">") && !strings.HasPrefix(t, "|")
}

var blankQuote = regexp.MustCompile(`^>[>\s]*$`)

// spaceQuotesAndRules separates top-level blockquotes and horizontal rules
// from the surrounding text and drops redundant empty quote lines.
func spaceQuotesAndRules(md string) string {
	lines := split(md)
	kinds := classify(lines)
	isQuote := func(i int) bool {
		return i >= 0 && i < len(lines) && kinds[i] == prose && strings.HasPrefix(lines[i], ">")
	}
	out := make([]string, 0, len(lines))
	last := func() string {
		if len(out) == 0 {
			return ""
		}
		return out[len(out)-1]
	}
	for i, l := range lines {
		switch {
		case isQuote(i):
			if blankQuote.MatchString(l) {
				q := strings.TrimSpace(l)
				if !strings.HasPrefix(last(), ">") || !isQuote(i+1) || last() == q || blankQuote.MatchString(lines[i+1]) {
					continue
				}
				out = append(out, q)
				continue
			}
			if len(out) > 0 && !blank(last()) && !strings.HasPrefix(last(), ">") {
				out = append(out, "")
			}
			out = append(out, l)
			if i+1 < len(lines) && !blank(lines[i+1]) && !isQuote(i+1) {
				out = append(out, "")
			}
		case kinds[i] == prose && l == "---" && blank(last()):
			out = append(out, l)
			if i+1 < len(lines) && !blank(lines[i+1]) {
				out = append(out, "")
			}
		default:
			out = append(out, l)
		}
	}
	return collapseBlankLines(join(out))
}

// separateHeadings puts a blank line between a heading and a heading that
// follows it directly.
func separateHeadings(md string) string {
	lines := split(md)
	kinds := classify(lines)
	plain := func(i int) bool {
		t := strings.TrimSpace(lines[i])
		return kinds[i] == prose && t != "" && !isMarker(lines[i]) &&
			!strings.HasPrefix(t, ">") && !strings.HasPrefix(t, "|")
	}
	underline := func(i int) bool {
		return kinds[i] == prose && setextUnderline.MatchString(lines[i]) && i > 0 && plain(i-1) &&
			!setextUnderline.MatchString(lines[i-1])
	}
	ends := func(i int) bool {
		return kinds[i] == prose && (atxHeading.MatchString(lines[i]) || underline(i))
	}
	starts := func(i int) bool {
		if kinds[i] != prose {
			return false
		}
		if atxHeading.MatchString(lines[i]) {
			return true
		}
		return i+1 < len(lines) && !atxHeading.MatchString(lines[i]) && underline(i+1)
	}
	out := make([]string, 0, len(lines))
	for i, l := range lines {
		out = append(out, l)
		if i+1 < len(lines) && ends(i) && starts(i+1) {
			out = append(out, "")
		}
	}
	return join(out)
}

var (
	linkSpan  = regexp.MustCompile(`(!?)\[([^\[\]]*)\]\(([^()]*)\)`)
	spaceRune = regexp.MustCompile(`\s`)
)

// trimSpans trims the text and destination of links (images when image is
// set) on prose lines.
func trimSpans(md string, image bool) string {
	lines := split(md)
	kinds := classify(lines)
	for i, l := range lines {
		if kinds[i] != prose || !strings.Contains(l, "](") {
			continue
		}
		lines[i] = protectInline(l, func(s string) string {
			return linkSpan.ReplaceAllStringFunc(s, func(m string) string {
				sub := linkSpan.FindStringSubmatch(m)
				if (sub[1] == "!") != image {
					return m
				}
				return sub[1] + "[" + strings.TrimSpace(sub[2]) + "](" + trimDestination(sub[3]) + ")"
			})
		})
	}
	return join(lines)
}

func trimDestination(d string) string {
	d = strings.TrimSpace(d)
	loc := spaceRune.FindStringIndex(d)
	if loc == nil {
		return d
	}
	return d[:loc[0]] + " " + strings.TrimSpace(d[loc[0]:])
}

func trimLinks(md string) string  { return trimSpans(md, false) }
func trimImages(md string) string { return trimSpans(md, true) }

func trimCodeSpans(md string) string {
	lines := split(md)
	kinds := classify(lines)
	for i, l := range lines {
		if kinds[i] != prose || !strings.Contains(l, "`") {
			continue
		}
		lines[i] = mapCodeSpans(l, func(span string) string {
			n := backtickRun(span, 0)
			ticks := span[:n]
			inner := strings.TrimSpace(span[n : len(span)-n])
			if inner == "" {
				return span
			}
			if strings.HasPrefix(inner, "`") || strings.HasSuffix(inner, "`") {
				return ticks + " " + inner + " " + ticks
			}
			return ticks + inner + ticks
		})
	}
	return join(lines)
}

var orderedMarker = regexp.MustCompile(`^(\s*)(\d{1,9})([.)])([ \t].*|)$`)

// renumberOrderedLists numbers the items of each run sequentially from 1.
// Runs are tracked per indentation; a blank line, or a line that is not an
// ordered item at or below a run's indentation, ends that run.
func renumberOrderedLists(md string) string {
	lines := split(md)
	kinds := classify(lines)
	next := make(map[int]int)
	dropFrom := func(w int) {
		for k := range next {
			if k >= w {
				delete(next, k)
			}
		}
	}
	for i, l := range lines {
		if blank(l) {
			clear(next)
			continue
		}
		w := indentWidth(l)
		m := orderedMarker.FindStringSubmatch(l)
		if kinds[i] != prose || m == nil {
			dropFrom(w)
			continue
		}
		dropFrom(w + 1)
		n, ok := next[w]
		if !ok {
			n = 1
		}
		lines[i] = m[1] + strconv.Itoa(n) + m[3] + m[4]
		next[w] = n + 1
	}
	return join(lines)
}

func lowercaseFenceLanguages(md string) string {
	lines := split(md)
	kinds := classify(lines)
	for i, l := range lines {
		if kinds[i] != fenceOpen {
			continue
		}
		m := fenceStart.FindStringSubmatch(l)
		info := strings.TrimSpace(m[3])
		if info == "" {
			continue
		}
		lang, rest, _ := strings.Cut(info, " ")
		lines[i] = m[1] + m[2] + strings.ToLower(lang)
		if rest != "" {
			lines[i] += " " + rest
		}
	}
	return join(lines)
}

var (
	strongSpan = regexp.MustCompile(`(\*\*|__)([^\s*_](?:[^*_]*?[^\s*_])?)(\*\*|__)`)
	emSpan     = regexp.MustCompile(`\*([^\s*](?:[^*]*?[^\s*])?)\*`)
)

// spaceEmphasis inserts a space on the glued side of an emphasis span that
// touches a word character on exactly one side.
func spaceEmphasis(md string) string {
	lines := split(md)
	kinds := classify(lines)
	for i, l := range lines {
		if kinds[i] != prose || !strings.ContainsAny(l, "*_") || hrLine.MatchString(l) {
			continue
		}
		lines[i] = protectInline(l, func(s string) string {
			s = spaceSpans(s, strongSpan, true)
			return spaceSpans(s, emSpan, false)
		})
	}
	return join(lines)
}

func spaceSpans(s string, re *regexp.Regexp, paired bool) string {
	var b strings.Builder
	last := 0
	for _, m := range re.FindAllStringSubmatchIndex(s, -1) {
		start, end := m[0], m[1]
		if paired && s[m[2]:m[3]] != s[m[6]:m[7]] {
			continue
		}
		var prev, next byte
		if start > 0 {
			prev = s[start-1]
		}
		if end < len(s) {
			next = s[end]
		}
		if prev == '\\' || prev == '*' || prev == '_' || next == '*' || next == '_' {
			continue
		}
		left, right := wordByte(prev), wordByte(next)
		if left == right {
			continue
		}
		b.WriteString(s[last:start])
		if left {
			b.WriteByte(' ')
		}
		b.WriteString(s[start:end])
		if right {
			b.WriteByte(' ')
		}
		last = end
	}
	if last == 0 {
		return s
	}
	b.WriteString(s[last:])
	return b.String()
}

func wordByte(c byte) bool {
	return c >= 0x80 || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}
