package main

import "time"

type Mode int

const (
	ModeNormal Mode = iota
	ModeEditing
	ModeImageURL
	ModeConfirm
)

type ConfirmAction int

const (
	ConfirmClearCanvas ConfirmAction = iota
	ConfirmQuit
)

type BubbleType int

const (
	BubbleText BubbleType = iota
	BubbleImage
)

func (t BubbleType) String() string {
	if t == BubbleImage {
		return "image"
	}
	return "text"
}

// Side is an attachment side of a bubble. The declaration order is also the
// tie-break order used by NearestSide.
type Side int

const (
	SideTop Side = iota
	SideBottom
	SideLeft
	SideRight
)

var allSides = [...]Side{SideTop, SideBottom, SideLeft, SideRight}

func (s Side) String() string {
	switch s {
	case SideTop:
		return "top"
	case SideBottom:
		return "bottom"
	case SideLeft:
		return "left"
	case SideRight:
		return "right"
	}
	return "unknown"
}

type LinkStyle int

const (
	LinkArrow LinkStyle = iota
	LinkLine
)

func (s LinkStyle) String() string {
	if s == LinkLine {
		return "line"
	}
	return "arrow"
}

type HandleKind int

const (
	HandleNone HandleKind = iota
	HandleBody
	HandleDrag
	HandleResize
	HandleSide
	HandleRemove
)

type InteractionState int

const (
	StateIdle InteractionState = iota
	StateDragging
	StateResizing
	StateLinkDrawing
)

func (s InteractionState) String() string {
	switch s {
	case StateDragging:
		return "dragging"
	case StateResizing:
		return "resizing"
	case StateLinkDrawing:
		return "linking"
	}
	return "idle"
}

const (
	minBubbleWidth  = 40.0
	minBubbleHeight = 24.0

	// Terminal cell size in canvas pixels.
	cellWidth  = 8.0
	cellHeight = 16.0

	defaultCanvasWidth   = 1200.0
	defaultCanvasHeight  = 800.0
	defaultToolbarHeight = 32.0

	dropTextWidth    = 220.0
	dropTextHeight   = 80.0
	dropImageWidth   = 200.0
	dropImageHeight  = 150.0
	newTextX         = 100.0
	newTextY         = 100.0
	newTextWidth     = 200.0
	newTextHeight    = 100.0
	urlImageX        = 80.0
	urlImageY        = 120.0
	urlImageWidth    = 200.0
	urlImageHeight   = 140.0
	dragBarHeight    = 16.0
	cornerHandleSize = 16.0
	sideHandleTolX   = 10.0
	sideHandleTolY   = 12.0
	linkHitTolerance = 8.0

	primaryColor = "#ff9100"
	textColor    = "#333333"
	footerColor  = "#888888"
)

const (
	// Upper bound for fetching one remote image bubble.
	imageFetchTimeout = 30 * time.Second
	// Upper bound for a whole export, summary call included.
	exportTimeout = 5 * time.Minute
	// Quiet time after which buffered pasted input is placed on the canvas.
	pasteSettleDelay = 30 * time.Millisecond
)
