package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToggleInlineWrapsAndUnwrapsSelection(t *testing.T) {
	ctx := SelectionContext{Text: "hello world", Start: 0, End: 5}

	wrapped := ToggleInline(ctx, MarkBold)
	assert.Equal(t, SelectionContext{Text: "**hello** world", Start: 2, End: 7}, wrapped)
	assert.True(t, DeriveFormattingState(wrapped).Bold)

	unwrapped := ToggleInline(wrapped, MarkBold)
	assert.Equal(t, ctx, unwrapped)
	assert.False(t, DeriveFormattingState(unwrapped).Bold)
}

func TestToggleInlineAtCaretInsertsEmptyPair(t *testing.T) {
	got := ToggleInline(SelectionContext{Text: "ab", Start: 1, End: 1}, MarkBold)
	assert.Equal(t, SelectionContext{Text: "a****b", Start: 3, End: 3}, got)
	assert.True(t, DeriveFormattingState(got).Bold)

	got = ToggleInline(SelectionContext{Text: "ab", Start: 1, End: 1}, MarkUnderline)
	assert.Equal(t, "a____b", got.Text)
	assert.True(t, DeriveFormattingState(got).Underline)
}

func TestToggleInlineNestedMarks(t *testing.T) {
	ctx := ToggleInline(SelectionContext{Text: "word", Start: 0, End: 4}, MarkItalic)
	assert.Equal(t, "*word*", ctx.Text)

	ctx = ToggleInline(ctx, MarkUnderline)
	assert.Equal(t, "*__word__*", ctx.Text)

	state := DeriveFormattingState(ctx)
	assert.True(t, state.Italic)
	assert.True(t, state.Underline)
	assert.False(t, state.Bold)
}

func TestDeriveFormattingState(t *testing.T) {
	text := "plain **bold** *it*"
	tests := []struct {
		name  string
		start int
		end   int
		want  FormattingState
	}{
		{"caret in plain", 2, 2, FormattingState{}},
		{"caret in bold", 9, 9, FormattingState{Bold: true}},
		{"selection starting on marker", 6, 12, FormattingState{Bold: true}},
		{"caret in italic", 17, 17, FormattingState{Italic: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveFormattingState(SelectionContext{Text: text, Start: tt.start, End: tt.end})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApplyBlock(t *testing.T) {
	ctx := SelectionContext{Text: "hello", Start: 2, End: 2}

	title := ApplyBlock(ctx, BlockTitle)
	assert.Equal(t, SelectionContext{Text: "# hello", Start: 4, End: 4}, title)
	assert.Equal(t, BlockTitle, DeriveFormattingState(title).Block)

	subtitle := ApplyBlock(title, BlockSubtitle)
	assert.Equal(t, SelectionContext{Text: "## hello", Start: 5, End: 5}, subtitle)
	assert.Equal(t, BlockSubtitle, DeriveFormattingState(subtitle).Block)

	body := ApplyBlock(subtitle, BlockBody)
	assert.Equal(t, ctx, body)
	assert.Equal(t, BlockBody, DeriveFormattingState(body).Block)
}

func TestApplyBlockOnlyTouchesCaretLine(t *testing.T) {
	got := ApplyBlock(SelectionContext{Text: "one\ntwo", Start: 5, End: 5}, BlockTitle)
	assert.Equal(t, SelectionContext{Text: "one\n# two", Start: 7, End: 7}, got)

	state := DeriveFormattingState(SelectionContext{Text: got.Text, Start: 1, End: 1})
	assert.Equal(t, BlockBody, state.Block)
}

func TestParseLine(t *testing.T) {
	block, spans := ParseLine("# **Big** idea")
	assert.Equal(t, BlockTitle, block)
	assert.Equal(t, []Span{{Text: "Big", Bold: true}, {Text: " idea"}}, spans)

	block, spans = ParseLine("a __b *c*__")
	assert.Equal(t, BlockBody, block)
	assert.Equal(t, []Span{
		{Text: "a "},
		{Text: "b ", Underline: true},
		{Text: "c", Underline: true, Italic: true},
	}, spans)
}

func TestPlainText(t *testing.T) {
	assert.Equal(t, "a b\nc", PlainText("## __a__ *b*\nc"))
	assert.Equal(t, "", PlainText(""))
}

func TestBlockKindString(t *testing.T) {
	assert.Equal(t, "P", BlockBody.String())
	assert.Equal(t, "H1", BlockTitle.String())
	assert.Equal(t, "H2", BlockSubtitle.String())
}
