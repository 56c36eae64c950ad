package main

import tea "github.com/charmbracelet/bubbletea"

func (m *model) handleNavigation(key string, speed int) tea.Cmd {
	if m.selected == "" {
		m.selectNext()
		return nil
	}
	m.handleNudge(key, speed)
	return nil
}

// handleNudge moves the selected bubble by whole cells.
func (m *model) handleNudge(key string, speed int) {
	b, ok := m.canvas.Bubble(m.selected)
	if !ok {
		m.selected = ""
		return
	}
	dx, dy := 0.0, 0.0
	switch key {
	case "left", "shift+left":
		dx = -cellWidth
	case "right", "shift+right":
		dx = cellWidth
	case "up", "shift+up":
		dy = -cellHeight
	case "down", "shift+down":
		dy = cellHeight
	}
	m.canvas.MoveBubble(b.ID, b.X+dx*float64(speed), b.Y+dy*float64(speed))
}

func (m *model) getMoveSpeed(key string) int {
	switch key {
	case "shift+left", "shift+right", "shift+up", "shift+down":
		return 4
	default:
		return 1
	}
}

// selectNext cycles the selection through bubbles in draw order.
func (m *model) selectNext() {
	bubbles := m.canvas.Bubbles()
	if len(bubbles) == 0 {
		m.selected = ""
		return
	}
	next := 0
	for i, b := range bubbles {
		if b.ID == m.selected {
			next = (i + 1) % len(bubbles)
			break
		}
	}
	m.selected = bubbles[next].ID
}
