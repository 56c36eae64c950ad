package main

import "math"

type Point struct {
	X, Y float64
}

func (p Point) Sub(q Point) Point {
	return Point{p.X - q.X, p.Y - q.Y}
}

func distance(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// AttachmentPoint returns the point on b's boundary where a link anchors.
func AttachmentPoint(b Bubble, side Side) Point {
	switch side {
	case SideTop:
		return Point{b.X + b.W/2, b.Y}
	case SideBottom:
		return Point{b.X + b.W/2, b.Y + b.H}
	case SideLeft:
		return Point{b.X, b.Y + b.H/2}
	default:
		return Point{b.X + b.W, b.Y + b.H/2}
	}
}

// NearestSide picks the side whose attachment point is closest to p.
// Ties go to the first side in top, bottom, left, right order.
func NearestSide(b Bubble, p Point) Side {
	best := SideTop
	bestDist := math.Inf(1)
	for _, side := range allSides {
		if d := distance(AttachmentPoint(b, side), p); d < bestDist {
			best, bestDist = side, d
		}
	}
	return best
}

// PreferredSide picks the target side facing the source, comparing the
// horizontal and vertical distance between the bubble centres.
func PreferredSide(source, target Bubble) Side {
	sc, tc := source.Center(), target.Center()
	dx, dy := sc.X-tc.X, sc.Y-tc.Y
	if math.Abs(dx) > math.Abs(dy) {
		if dx < 0 {
			return SideLeft
		}
		return SideRight
	}
	if dy < 0 {
		return SideTop
	}
	return SideBottom
}

// SidePolicy resolves the target side when a link is released over a
// bubble's body instead of one of its side handles.
type SidePolicy func(source, target Bubble, release Point) Side

func NearestSidePolicy(_, target Bubble, release Point) Side {
	return NearestSide(target, release)
}

func DirectionSidePolicy(source, target Bubble, _ Point) Side {
	return PreferredSide(source, target)
}

func sidePolicyByName(name string) SidePolicy {
	if name == "direction" {
		return DirectionSidePolicy
	}
	return NearestSidePolicy
}

// closestPointOnSegment projects p onto the segment a-b.
func closestPointOnSegment(a, b, p Point) Point {
	dx, dy := b.X-a.X, b.Y-a.Y
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return a
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / lenSq
	t = math.Max(0, math.Min(1, t))
	return Point{a.X + t*dx, a.Y + t*dy}
}

func distanceToSegment(a, b, p Point) float64 {
	return distance(closestPointOnSegment(a, b, p), p)
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
