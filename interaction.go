package main

type PendingLink struct {
	SourceID   string
	SourceSide Side
	Cursor     Point
}

// Interaction tracks the single active pointer gesture on a canvas.
type Interaction struct {
	state    InteractionState
	bubbleID string
	offset   Point
	side     Side
	cursor   Point
	policy   SidePolicy
}

func NewInteraction(policy SidePolicy) *Interaction {
	if policy == nil {
		policy = NearestSidePolicy
	}
	return &Interaction{policy: policy}
}

func (in *Interaction) State() InteractionState {
	return in.state
}

func (in *Interaction) BubbleID() string {
	return in.bubbleID
}

func (in *Interaction) Pending() (PendingLink, bool) {
	if in.state != StateLinkDrawing {
		return PendingLink{}, false
	}
	return PendingLink{SourceID: in.bubbleID, SourceSide: in.side, Cursor: in.cursor}, true
}

func (in *Interaction) reset() {
	policy := in.policy
	*in = Interaction{policy: policy}
}

// PointerDown starts a gesture when p lands on a drag, resize or side handle.
// The hit is returned so the caller can react to body and remove clicks,
// which do not start a gesture.
func (in *Interaction) PointerDown(c *Canvas, p Point) Hit {
	in.reset()
	hit := c.HitTest(p)
	b, ok := c.Bubble(hit.BubbleID)
	if !ok {
		return hit
	}
	switch hit.Handle {
	case HandleDrag:
		in.state = StateDragging
		in.bubbleID = b.ID
		in.offset = p.Sub(Point{b.X, b.Y})
		c.BringToFront(b.ID)
	case HandleResize:
		in.state = StateResizing
		in.bubbleID = b.ID
	case HandleSide:
		in.state = StateLinkDrawing
		in.bubbleID = b.ID
		in.side = hit.Side
		in.cursor = p
	}
	return hit
}

func (in *Interaction) PointerMove(c *Canvas, p Point) {
	if in.state == StateIdle {
		return
	}
	b, ok := c.Bubble(in.bubbleID)
	if !ok {
		in.reset()
		return
	}
	switch in.state {
	case StateDragging:
		c.MoveBubble(b.ID, p.X-in.offset.X, p.Y-in.offset.Y)
	case StateResizing:
		c.ResizeBubble(b.ID, p.X-b.X, p.Y-b.Y)
	case StateLinkDrawing:
		in.cursor = p
	}
}

// PointerUp ends any gesture. A link gesture released over another bubble
// creates a link; the new link's id is returned with ok set.
func (in *Interaction) PointerUp(c *Canvas, p Point, style LinkStyle, color string) (string, bool) {
	defer in.reset()
	if in.state != StateLinkDrawing {
		return "", false
	}
	source, ok := c.Bubble(in.bubbleID)
	if !ok {
		return "", false
	}
	hit := c.HitTest(p)
	if hit.Handle == HandleNone || hit.BubbleID == source.ID {
		return "", false
	}
	target, _ := c.Bubble(hit.BubbleID)
	side := hit.Side
	if hit.Handle != HandleSide {
		side = in.policy(source, target, p)
	}
	return c.CreateLink(source.ID, in.side, target.ID, side, style, color)
}

func (in *Interaction) PointerLeave() {
	in.reset()
}
