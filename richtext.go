package main

import "strings"

// Text bubbles hold a small markup: "# " starts a title line, "## " a
// subtitle line, and **bold**, *italic* and __underline__ mark inline runs.

type BlockKind int

const (
	BlockBody BlockKind = iota
	BlockTitle
	BlockSubtitle
)

func (k BlockKind) prefix() string {
	switch k {
	case BlockTitle:
		return "# "
	case BlockSubtitle:
		return "## "
	}
	return ""
}

func (k BlockKind) String() string {
	switch k {
	case BlockTitle:
		return "H1"
	case BlockSubtitle:
		return "H2"
	}
	return "P"
}

type Mark int

const (
	MarkBold Mark = iota
	MarkItalic
	MarkUnderline
)

func (m Mark) delimiter() string {
	switch m {
	case MarkBold:
		return "**"
	case MarkUnderline:
		return "__"
	}
	return "*"
}

// SelectionContext is the editing surface state: the raw markup and a
// selection expressed in rune offsets. Start == End is a caret.
type SelectionContext struct {
	Text  string
	Start int
	End   int
}

type FormattingState struct {
	Bold      bool
	Italic    bool
	Underline bool
	Block     BlockKind
}

type Span struct {
	Text      string
	Bold      bool
	Italic    bool
	Underline bool
}

type tokenKind int

const (
	tokText tokenKind = iota
	tokMarker
)

type token struct {
	kind  tokenKind
	mark  Mark
	start int // rune offset within the line
	end   int
}

func tokenizeLine(line []rune) []token {
	var toks []token
	textStart := -1
	flush := func(at int) {
		if textStart >= 0 {
			toks = append(toks, token{kind: tokText, start: textStart, end: at})
			textStart = -1
		}
	}
	for i := 0; i < len(line); {
		switch {
		case i+1 < len(line) && line[i] == '*' && line[i+1] == '*':
			flush(i)
			toks = append(toks, token{kind: tokMarker, mark: MarkBold, start: i, end: i + 2})
			i += 2
		case i+1 < len(line) && line[i] == '_' && line[i+1] == '_':
			flush(i)
			toks = append(toks, token{kind: tokMarker, mark: MarkUnderline, start: i, end: i + 2})
			i += 2
		case line[i] == '*':
			flush(i)
			toks = append(toks, token{kind: tokMarker, mark: MarkItalic, start: i, end: i + 1})
			i++
		default:
			if textStart < 0 {
				textStart = i
			}
			i++
		}
	}
	flush(len(line))
	return toks
}

func blockOf(line string) (BlockKind, int) {
	switch {
	case strings.HasPrefix(line, "## "):
		return BlockSubtitle, 3
	case strings.HasPrefix(line, "# "):
		return BlockTitle, 2
	}
	return BlockBody, 0
}

// ParseLine splits one markup line into its block kind and styled spans.
func ParseLine(line string) (BlockKind, []Span) {
	block, skip := blockOf(line)
	body := []rune(line)[skip:]
	var spans []Span
	var cur Span
	for _, t := range tokenizeLine(body) {
		if t.kind == tokMarker {
			switch t.mark {
			case MarkBold:
				cur.Bold = !cur.Bold
			case MarkItalic:
				cur.Italic = !cur.Italic
			case MarkUnderline:
				cur.Underline = !cur.Underline
			}
			continue
		}
		s := cur
		s.Text = string(body[t.start:t.end])
		spans = append(spans, s)
	}
	return block, spans
}

// PlainText strips every marker from the markup.
func PlainText(markup string) string {
	lines := strings.Split(markup, "\n")
	for i, line := range lines {
		_, spans := ParseLine(line)
		var sb strings.Builder
		for _, s := range spans {
			sb.WriteString(s.Text)
		}
		lines[i] = sb.String()
	}
	return strings.Join(lines, "\n")
}

// lineAt locates the line holding rune offset pos.
func lineAt(text []rune, pos int) (start, end int) {
	if pos > len(text) {
		pos = len(text)
	}
	if pos < 0 {
		pos = 0
	}
	start = pos
	for start > 0 && text[start-1] != '\n' {
		start--
	}
	end = pos
	for end < len(text) && text[end] != '\n' {
		end++
	}
	return start, end
}

// markState returns which marks are open at rune offset pos of line, and
// for each open mark the token index of its opening delimiter.
func markState(toks []token, pos int) (open [3]bool, opener [3]int) {
	for i, t := range toks {
		if t.start >= pos {
			break
		}
		if t.kind != tokMarker || t.end > pos {
			continue
		}
		open[t.mark] = !open[t.mark]
		opener[t.mark] = i
	}
	return open, opener
}

// skipMarkers advances pos over delimiters that start exactly at pos, so a
// selection beginning on "**" reports the style inside it.
func skipMarkers(toks []token, pos int) int {
	for _, t := range toks {
		if t.kind == tokMarker && t.start == pos {
			pos = t.end
		}
	}
	return pos
}

// DeriveFormattingState reports the formatting at the start of the
// selection. It has no side effects and is called on every caret change.
func DeriveFormattingState(ctx SelectionContext) FormattingState {
	text := []rune(ctx.Text)
	ls, le := lineAt(text, ctx.Start)
	line := string(text[ls:le])
	block, skip := blockOf(line)
	body := []rune(line)[skip:]
	toks := tokenizeLine(body)

	pos := ctx.Start - ls - skip
	if pos < 0 {
		pos = 0
	}
	if ctx.End > ctx.Start {
		pos = skipMarkers(toks, pos)
	}
	open, _ := markState(toks, pos)
	return FormattingState{
		Bold:      open[MarkBold],
		Italic:    open[MarkItalic],
		Underline: open[MarkUnderline],
		Block:     block,
	}
}

// ToggleInline turns mark on or off for the selection. A caret outside the
// mark inserts an empty delimiter pair; inside a marked run it unwraps the run.
func ToggleInline(ctx SelectionContext, mark Mark) SelectionContext {
	text := []rune(ctx.Text)
	start, end := ordered(ctx.Start, ctx.End, len(text))
	ls, le := lineAt(text, start)
	_, skip := blockOf(string(text[ls:le]))
	bodyStart := ls + skip
	if start < bodyStart {
		start = bodyStart
	}
	if end < start {
		end = start
	}
	body := text[bodyStart:le]
	toks := tokenizeLine(body)

	pos := start - bodyStart
	if end > start {
		pos = skipMarkers(toks, pos)
	}
	open, opener := markState(toks, pos)
	delim := []rune(mark.delimiter())

	if open[mark] {
		openTok := toks[opener[mark]]
		closeTok := token{start: -1}
		for _, t := range toks[opener[mark]+1:] {
			if t.kind == tokMarker && t.mark == mark {
				closeTok = t
				break
			}
		}
		out := make([]rune, 0, len(text))
		out = append(out, text[:bodyStart+openTok.start]...)
		if closeTok.start >= 0 {
			out = append(out, text[bodyStart+openTok.end:bodyStart+closeTok.start]...)
			out = append(out, text[bodyStart+closeTok.end:]...)
		} else {
			out = append(out, text[bodyStart+openTok.end:]...)
		}
		shift := func(p int) int {
			abs := p
			if abs > bodyStart+openTok.start {
				abs -= len(delim)
			}
			if closeTok.start >= 0 && p > bodyStart+closeTok.start {
				abs -= len(delim)
			}
			if abs < bodyStart+openTok.start {
				abs = bodyStart + openTok.start
			}
			return abs
		}
		return SelectionContext{Text: string(out), Start: shift(start), End: shift(end)}
	}

	out := make([]rune, 0, len(text)+2*len(delim))
	out = append(out, text[:start]...)
	out = append(out, delim...)
	out = append(out, text[start:end]...)
	out = append(out, delim...)
	out = append(out, text[end:]...)
	return SelectionContext{Text: string(out), Start: start + len(delim), End: end + len(delim)}
}

// ApplyBlock sets the block kind of the line holding the caret.
func ApplyBlock(ctx SelectionContext, block BlockKind) SelectionContext {
	text := []rune(ctx.Text)
	ls, le := lineAt(text, ctx.Start)
	_, skip := blockOf(string(text[ls:le]))
	prefix := []rune(block.prefix())

	out := make([]rune, 0, len(text)+len(prefix))
	out = append(out, text[:ls]...)
	out = append(out, prefix...)
	out = append(out, text[ls+skip:]...)

	delta := len(prefix) - skip
	move := func(p int) int {
		if p < ls {
			return p
		}
		p += delta
		if p < ls+len(prefix) {
			p = ls + len(prefix)
		}
		return p
	}
	return SelectionContext{Text: string(out), Start: move(ctx.Start), End: move(ctx.End)}
}

func ordered(a, b, max int) (int, int) {
	if a > b {
		a, b = b, a
	}
	if a < 0 {
		a = 0
	}
	if b > max {
		b = max
	}
	if a > max {
		a = max
	}
	return a, b
}
