package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// twoBubbles places A at (100,100) and B at (400,100), both 100x50.
func twoBubbles(t *testing.T) (*Canvas, string, string) {
	t.Helper()
	c := newTestCanvas()
	a := c.CreateBubble(BubbleText, "a", 100, 100, 100, 50)
	b := c.CreateBubble(BubbleText, "b", 400, 100, 100, 50)
	return c, a, b
}

func TestLinkGestureReleasedOnBody(t *testing.T) {
	c, a, b := twoBubbles(t)
	in := NewInteraction(NearestSidePolicy)

	hit := in.PointerDown(c, Point{200, 125})
	assert.Equal(t, HandleSide, hit.Handle)
	assert.Equal(t, StateLinkDrawing, in.State())

	in.PointerMove(c, Point{415, 125})
	pending, ok := in.Pending()
	require.True(t, ok)
	assert.Equal(t, a, pending.SourceID)
	assert.Equal(t, SideRight, pending.SourceSide)
	assert.Equal(t, Point{415, 125}, pending.Cursor)

	id, ok := in.PointerUp(c, Point{415, 125}, LinkArrow, primaryColor)
	require.True(t, ok)
	assert.Equal(t, StateIdle, in.State())

	links := c.Links()
	require.Len(t, links, 1)
	l := links[0]
	assert.Equal(t, id, l.ID)
	assert.Equal(t, a, l.SourceID)
	assert.Equal(t, b, l.TargetID)
	assert.Equal(t, SideRight, l.SourceSide)
	assert.Equal(t, SideLeft, l.TargetSide)
	assert.Equal(t, LinkArrow, l.Style)
	assert.Equal(t, primaryColor, l.Color)
}

func TestLinkGestureReleasedOnSideHandle(t *testing.T) {
	c, _, b := twoBubbles(t)
	in := NewInteraction(NearestSidePolicy)

	in.PointerDown(c, Point{150, 150})
	_, ok := in.PointerUp(c, Point{450, 100}, LinkLine, "#000000")
	require.True(t, ok)

	l := c.Links()[0]
	assert.Equal(t, SideBottom, l.SourceSide)
	assert.Equal(t, b, l.TargetID)
	assert.Equal(t, SideTop, l.TargetSide)
	assert.Equal(t, LinkLine, l.Style)
}

func TestLinkGestureDirectionPolicy(t *testing.T) {
	c, _, _ := twoBubbles(t)
	in := NewInteraction(DirectionSidePolicy)

	in.PointerDown(c, Point{200, 125})
	_, ok := in.PointerUp(c, Point{480, 140}, LinkArrow, primaryColor)
	require.True(t, ok)
	assert.Equal(t, SideLeft, c.Links()[0].TargetSide)
}

func TestLinkGestureOnSameBubbleIsDiscarded(t *testing.T) {
	c, _, _ := twoBubbles(t)
	in := NewInteraction(nil)

	in.PointerDown(c, Point{200, 125})
	_, ok := in.PointerUp(c, Point{150, 135}, LinkArrow, primaryColor)
	assert.False(t, ok)
	assert.Empty(t, c.Links())
	assert.Equal(t, StateIdle, in.State())
}

func TestLinkGestureOnEmptySpaceIsDiscarded(t *testing.T) {
	c, _, _ := twoBubbles(t)
	in := NewInteraction(nil)

	in.PointerDown(c, Point{200, 125})
	_, ok := in.PointerUp(c, Point{700, 600}, LinkArrow, primaryColor)
	assert.False(t, ok)
	assert.Empty(t, c.Links())
}

func TestPointerLeaveResets(t *testing.T) {
	c, _, _ := twoBubbles(t)
	in := NewInteraction(nil)

	in.PointerDown(c, Point{200, 125})
	require.Equal(t, StateLinkDrawing, in.State())

	in.PointerLeave()
	assert.Equal(t, StateIdle, in.State())
	_, ok := in.Pending()
	assert.False(t, ok)

	// a release after leaving never creates a link
	_, ok = in.PointerUp(c, Point{415, 125}, LinkArrow, primaryColor)
	assert.False(t, ok)
	assert.Empty(t, c.Links())
}

func TestDragKeepsGrabOffset(t *testing.T) {
	c, a, b := twoBubbles(t)
	in := NewInteraction(nil)

	hit := in.PointerDown(c, Point{110, 105})
	assert.Equal(t, HandleDrag, hit.Handle)
	assert.Equal(t, StateDragging, in.State())
	assert.Equal(t, a, in.BubbleID())

	in.PointerMove(c, Point{310, 205})
	moved, _ := c.Bubble(a)
	assert.Equal(t, 300.0, moved.X)
	assert.Equal(t, 200.0, moved.Y)

	// the dragged bubble is raised above the others
	bubbles := c.Bubbles()
	assert.Equal(t, a, bubbles[len(bubbles)-1].ID)
	assert.NotEqual(t, b, bubbles[len(bubbles)-1].ID)

	in.PointerUp(c, Point{310, 205}, LinkArrow, primaryColor)
	assert.Equal(t, StateIdle, in.State())
}

func TestResizeGesture(t *testing.T) {
	c, a, _ := twoBubbles(t)
	in := NewInteraction(nil)

	hit := in.PointerDown(c, Point{195, 145})
	require.Equal(t, HandleResize, hit.Handle)

	in.PointerMove(c, Point{250, 180})
	b, _ := c.Bubble(a)
	assert.Equal(t, 150.0, b.W)
	assert.Equal(t, 80.0, b.H)

	in.PointerMove(c, Point{101, 101})
	b, _ = c.Bubble(a)
	assert.Equal(t, minBubbleWidth, b.W)
	assert.Equal(t, minBubbleHeight, b.H)
}

func TestBodyAndRemoveDoNotStartGestures(t *testing.T) {
	c, a, _ := twoBubbles(t)
	in := NewInteraction(nil)

	hit := in.PointerDown(c, Point{150, 135})
	assert.Equal(t, HandleBody, hit.Handle)
	assert.Equal(t, StateIdle, in.State())

	hit = in.PointerDown(c, Point{195, 105})
	assert.Equal(t, HandleRemove, hit.Handle)
	assert.Equal(t, a, hit.BubbleID)
	assert.Equal(t, StateIdle, in.State())
}

func TestGestureOnRemovedBubbleResets(t *testing.T) {
	c, a, _ := twoBubbles(t)
	in := NewInteraction(nil)

	in.PointerDown(c, Point{110, 105})
	c.RemoveBubble(a)
	in.PointerMove(c, Point{300, 300})
	assert.Equal(t, StateIdle, in.State())
}
