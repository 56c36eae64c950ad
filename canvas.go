package main

import (
	"math"

	"github.com/google/uuid"
)

type Bubble struct {
	ID      string
	X       float64
	Y       float64
	W       float64
	H       float64
	Type    BubbleType
	Content string
	MinW    float64 // intrinsic image size, zero when unset
	MinH    float64
}

func (b Bubble) Center() Point {
	return Point{b.X + b.W/2, b.Y + b.H/2}
}

func (b Bubble) Contains(p Point) bool {
	return p.X >= b.X && p.X <= b.X+b.W && p.Y >= b.Y && p.Y <= b.Y+b.H
}

func (b Bubble) minSize() (float64, float64) {
	w, h := minBubbleWidth, minBubbleHeight
	if b.MinW > 0 {
		w = b.MinW
	}
	if b.MinH > 0 {
		h = b.MinH
	}
	return w, h
}

type Link struct {
	ID         string
	SourceID   string
	TargetID   string
	SourceSide Side
	TargetSide Side
	Style      LinkStyle
	Color      string
}

// Canvas owns the bubble and link stores. Bubble order is draw order, the
// last bubble is topmost.
type Canvas struct {
	bubbles       []Bubble
	links         []Link
	width         float64
	height        float64
	toolbarHeight float64
}

func NewCanvas(width, height, toolbarHeight float64) *Canvas {
	return &Canvas{
		bubbles:       make([]Bubble, 0),
		links:         make([]Link, 0),
		width:         width,
		height:        height,
		toolbarHeight: toolbarHeight,
	}
}

func (c *Canvas) Size() (float64, float64) {
	return c.width, c.height
}

func (c *Canvas) ToolbarHeight() float64 {
	return c.toolbarHeight
}

// SetBounds changes the canvas size and re-clamps every bubble into it.
func (c *Canvas) SetBounds(width, height float64) {
	c.width, c.height = width, height
	for i := range c.bubbles {
		b := &c.bubbles[i]
		b.MinW = math.Min(b.MinW, width)
		b.MinH = math.Min(b.MinH, height-c.toolbarHeight)
		c.clampSize(b)
		c.clampPosition(b)
	}
}

func (c *Canvas) index(id string) int {
	for i := range c.bubbles {
		if c.bubbles[i].ID == id {
			return i
		}
	}
	return -1
}

func (c *Canvas) Bubble(id string) (Bubble, bool) {
	if i := c.index(id); i >= 0 {
		return c.bubbles[i], true
	}
	return Bubble{}, false
}

func (c *Canvas) Bubbles() []Bubble {
	out := make([]Bubble, len(c.bubbles))
	copy(out, c.bubbles)
	return out
}

func (c *Canvas) Links() []Link {
	out := make([]Link, len(c.links))
	copy(out, c.links)
	return out
}

func (c *Canvas) IsEmpty() bool {
	return len(c.bubbles) == 0
}

type BubbleOption func(*Bubble)

// WithMinSize sets the resize floor, used for an image's intrinsic size.
func WithMinSize(w, h float64) BubbleOption {
	return func(b *Bubble) {
		b.MinW = w
		b.MinH = h
	}
}

func (c *Canvas) CreateBubble(t BubbleType, content string, x, y, w, h float64, opts ...BubbleOption) string {
	b := Bubble{
		ID:      uuid.NewString(),
		X:       x,
		Y:       y,
		W:       w,
		H:       h,
		Type:    t,
		Content: content,
	}
	for _, opt := range opts {
		opt(&b)
	}
	// A floor larger than the drawable area could never be honoured.
	b.MinW = math.Min(b.MinW, c.width)
	b.MinH = math.Min(b.MinH, c.height-c.toolbarHeight)

	c.clampSize(&b)
	c.clampPosition(&b)
	c.bubbles = append(c.bubbles, b)
	return b.ID
}

func (c *Canvas) clampSize(b *Bubble) {
	minW, minH := b.minSize()
	b.W = clamp(math.Max(b.W, minW), minW, c.width)
	b.H = clamp(math.Max(b.H, minH), minH, c.height-c.toolbarHeight)
}

func (c *Canvas) clampPosition(b *Bubble) {
	b.X = clamp(b.X, 0, c.width-b.W)
	b.Y = clamp(b.Y, c.toolbarHeight, c.height-b.H)
}

func (c *Canvas) MoveBubble(id string, x, y float64) {
	i := c.index(id)
	if i < 0 {
		return
	}
	b := &c.bubbles[i]
	b.X, b.Y = x, y
	c.clampPosition(b)
}

// ResizeBubble keeps the origin fixed. The size is floored at the bubble's
// minimum and capped to the space left between the origin and the canvas
// edge; when even the minimum does not fit the bubble is pushed back inside.
func (c *Canvas) ResizeBubble(id string, w, h float64) {
	i := c.index(id)
	if i < 0 {
		return
	}
	b := &c.bubbles[i]
	minW, minH := b.minSize()
	b.W = math.Max(minW, math.Min(w, c.width-b.X))
	b.H = math.Max(minH, math.Min(h, c.height-b.Y))
	c.clampSize(b)
	c.clampPosition(b)
}

func (c *Canvas) SetContent(id, content string) {
	if i := c.index(id); i >= 0 {
		c.bubbles[i].Content = content
	}
}

func (c *Canvas) BringToFront(id string) {
	i := c.index(id)
	if i < 0 || i == len(c.bubbles)-1 {
		return
	}
	b := c.bubbles[i]
	c.bubbles = append(c.bubbles[:i], c.bubbles[i+1:]...)
	c.bubbles = append(c.bubbles, b)
}

func (c *Canvas) RemoveBubble(id string) {
	i := c.index(id)
	if i < 0 {
		return
	}
	c.bubbles = append(c.bubbles[:i], c.bubbles[i+1:]...)
	c.RemoveLinksReferencing(id)
}

func (c *Canvas) Clear() {
	c.bubbles = c.bubbles[:0]
	c.links = c.links[:0]
}

func (c *Canvas) CreateLink(sourceID string, sourceSide Side, targetID string, targetSide Side, style LinkStyle, color string) (string, bool) {
	if sourceID == targetID || c.index(sourceID) < 0 || c.index(targetID) < 0 {
		return "", false
	}
	link := Link{
		ID:         uuid.NewString(),
		SourceID:   sourceID,
		TargetID:   targetID,
		SourceSide: sourceSide,
		TargetSide: targetSide,
		Style:      style,
		Color:      color,
	}
	c.links = append(c.links, link)
	return link.ID, true
}

func (c *Canvas) RemoveLink(id string) {
	for i := range c.links {
		if c.links[i].ID == id {
			c.links = append(c.links[:i], c.links[i+1:]...)
			return
		}
	}
}

// RemoveLinksReferencing drops every link with bubbleID at either end and
// reports how many were removed.
func (c *Canvas) RemoveLinksReferencing(bubbleID string) int {
	kept := c.links[:0]
	for _, l := range c.links {
		if l.SourceID != bubbleID && l.TargetID != bubbleID {
			kept = append(kept, l)
		}
	}
	removed := len(c.links) - len(kept)
	c.links = kept
	return removed
}

func (c *Canvas) LinksForBubble(bubbleID string) []Link {
	var out []Link
	for _, l := range c.links {
		if l.SourceID == bubbleID || l.TargetID == bubbleID {
			out = append(out, l)
		}
	}
	return out
}

// LinkEndpoints resolves both attachment points of l.
func (c *Canvas) LinkEndpoints(l Link) (Point, Point, bool) {
	src, ok := c.Bubble(l.SourceID)
	if !ok {
		return Point{}, Point{}, false
	}
	dst, ok := c.Bubble(l.TargetID)
	if !ok {
		return Point{}, Point{}, false
	}
	return AttachmentPoint(src, l.SourceSide), AttachmentPoint(dst, l.TargetSide), true
}

// LinkAt returns the topmost link passing within linkHitTolerance of p.
func (c *Canvas) LinkAt(p Point) (Link, bool) {
	for i := len(c.links) - 1; i >= 0; i-- {
		from, to, ok := c.LinkEndpoints(c.links[i])
		if !ok {
			continue
		}
		if distanceToSegment(from, to, p) <= linkHitTolerance {
			return c.links[i], true
		}
	}
	return Link{}, false
}

type Hit struct {
	BubbleID string
	Handle   HandleKind
	Side     Side
}

// HitTest finds the handle under p, scanning bubbles topmost first. Side
// handles win over corners, corners over the drag bar.
func (c *Canvas) HitTest(p Point) Hit {
	for i := len(c.bubbles) - 1; i >= 0; i-- {
		b := c.bubbles[i]
		for _, side := range allSides {
			a := AttachmentPoint(b, side)
			if math.Abs(p.X-a.X) <= sideHandleTolX && math.Abs(p.Y-a.Y) <= sideHandleTolY {
				return Hit{BubbleID: b.ID, Handle: HandleSide, Side: side}
			}
		}
		if !b.Contains(p) {
			continue
		}
		right, bottom := b.X+b.W, b.Y+b.H
		switch {
		case p.X >= right-cornerHandleSize && p.Y < b.Y+dragBarHeight:
			return Hit{BubbleID: b.ID, Handle: HandleRemove}
		case p.X >= right-cornerHandleSize && p.Y >= bottom-cornerHandleSize:
			return Hit{BubbleID: b.ID, Handle: HandleResize}
		case p.Y < b.Y+dragBarHeight:
			return Hit{BubbleID: b.ID, Handle: HandleDrag}
		}
		return Hit{BubbleID: b.ID, Handle: HandleBody}
	}
	return Hit{}
}

// Snapshot deep-copies the canvas for use off the UI goroutine.
func (c *Canvas) Snapshot() *Canvas {
	return &Canvas{
		bubbles:       c.Bubbles(),
		links:         c.Links(),
		width:         c.width,
		height:        c.height,
		toolbarHeight: c.toolbarHeight,
	}
}
