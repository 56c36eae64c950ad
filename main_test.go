package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUseAltScreen(t *testing.T) {
	cfg := defaultConfig()
	assert.True(t, useAltScreen(cfg, "xterm-256color"))
	assert.False(t, useAltScreen(cfg, "dumb"))

	cfg.Window = "inline"
	assert.False(t, useAltScreen(cfg, "xterm-256color"))
	assert.Len(t, programOptions(cfg, "xterm-256color"), 1)

	cfg.Window = "fullscreen"
	assert.Len(t, programOptions(cfg, "xterm-256color"), 2)
}

func TestToolbarLayout(t *testing.T) {
	buttons := toolbarLayout()
	assert.Len(t, buttons, len(toolbarLabels))

	for i := 1; i < len(buttons); i++ {
		prev := buttons[i-1]
		assert.Greater(t, buttons[i].col, prev.col+prev.width-1, "buttons %d and %d overlap", i-1, i)
	}

	b, ok := toolbarButtonAt(buttons[0].col, 0)
	assert.True(t, ok)
	assert.Equal(t, actBold, b.action)

	_, ok = toolbarButtonAt(buttons[0].col, 1)
	assert.False(t, ok)
	_, ok = toolbarButtonAt(0, 0)
	assert.False(t, ok)

	assert.True(t, b.formatting())
	assert.True(t, b.active(FormattingState{Bold: true}))
	assert.False(t, b.active(FormattingState{}))

	last := buttons[len(buttons)-1]
	assert.Equal(t, actExport, last.action)
	assert.False(t, last.formatting())
	assert.Equal(t, 2, toolbarRows(defaultToolbarHeight))
	assert.Equal(t, 1, toolbarRows(4))
}
