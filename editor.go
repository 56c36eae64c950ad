package main

// editor is the in-bubble text editing surface. Offsets are rune indices;
// the selection runs between anchor and caret.
type editor struct {
	bubbleID string
	text     []rune
	original string
	caret    int
	anchor   int
}

func newEditor(bubbleID, content string) *editor {
	text := []rune(content)
	return &editor{
		bubbleID: bubbleID,
		text:     text,
		original: content,
		caret:    len(text),
		anchor:   len(text),
	}
}

func (e *editor) String() string {
	return string(e.text)
}

func (e *editor) selection() (int, int) {
	if e.anchor < e.caret {
		return e.anchor, e.caret
	}
	return e.caret, e.anchor
}

func (e *editor) hasSelection() bool {
	return e.anchor != e.caret
}

func (e *editor) context() SelectionContext {
	start, end := e.selection()
	return SelectionContext{Text: string(e.text), Start: start, End: end}
}

// apply replaces the text and selection with an edited context.
func (e *editor) apply(ctx SelectionContext) {
	e.text = []rune(ctx.Text)
	e.anchor, e.caret = ordered(ctx.Start, ctx.End, len(e.text))
}

func (e *editor) format() FormattingState {
	return DeriveFormattingState(e.context())
}

func (e *editor) deleteSelection() {
	start, end := e.selection()
	e.text = append(e.text[:start:start], e.text[end:]...)
	e.caret, e.anchor = start, start
}

func (e *editor) insert(s string) {
	if e.hasSelection() {
		e.deleteSelection()
	}
	r := []rune(s)
	out := make([]rune, 0, len(e.text)+len(r))
	out = append(out, e.text[:e.caret]...)
	out = append(out, r...)
	out = append(out, e.text[e.caret:]...)
	e.text = out
	e.caret += len(r)
	e.anchor = e.caret
}

func (e *editor) backspace() {
	if e.hasSelection() {
		e.deleteSelection()
		return
	}
	if e.caret == 0 {
		return
	}
	e.text = append(e.text[:e.caret-1:e.caret-1], e.text[e.caret:]...)
	e.caret--
	e.anchor = e.caret
}

func (e *editor) deleteForward() {
	if e.hasSelection() {
		e.deleteSelection()
		return
	}
	if e.caret >= len(e.text) {
		return
	}
	e.text = append(e.text[:e.caret:e.caret], e.text[e.caret+1:]...)
}

func (e *editor) moveTo(pos int, extend bool) {
	if pos < 0 {
		pos = 0
	}
	if pos > len(e.text) {
		pos = len(e.text)
	}
	e.caret = pos
	if !extend {
		e.anchor = pos
	}
}

func (e *editor) move(delta int, extend bool) {
	if !extend && e.hasSelection() {
		start, end := e.selection()
		if delta < 0 {
			e.moveTo(start, false)
		} else {
			e.moveTo(end, false)
		}
		return
	}
	e.moveTo(e.caret+delta, extend)
}

// moveLine moves the caret to the same column of the previous or next line.
func (e *editor) moveLine(dir int, extend bool) {
	ls, le := lineAt(e.text, e.caret)
	col := e.caret - ls
	if dir < 0 {
		if ls == 0 {
			e.moveTo(0, extend)
			return
		}
		ps, pe := lineAt(e.text, ls-1)
		e.moveTo(min(ps+col, pe), extend)
		return
	}
	if le >= len(e.text) {
		e.moveTo(len(e.text), extend)
		return
	}
	ns, ne := lineAt(e.text, le+1)
	e.moveTo(min(ns+col, ne), extend)
}

func (e *editor) home(extend bool) {
	ls, _ := lineAt(e.text, e.caret)
	e.moveTo(ls, extend)
}

func (e *editor) end(extend bool) {
	_, le := lineAt(e.text, e.caret)
	e.moveTo(le, extend)
}

func (e *editor) selectAll() {
	e.anchor = 0
	e.caret = len(e.text)
}
