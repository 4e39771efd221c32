// Package geometry provides the 2D primitives used by the layout engine.
//
// All coordinates are in user units (typically pixels in the rendered
// output). Points are plain value types; rectangles are axis-aligned and
// stored as edge coordinates (Left, Top, Right, Bottom) so that overlap
// and containment tests reduce to comparisons.
//
// The package also hosts the numeric sanitization helpers that guard the
// engine's input boundary: any non-finite or non-positive dimension coming
// from an upstream producer is replaced with a safe default before layout
// begins.
package geometry

import "math"

// Point is a location in 2D space.
type Point struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// Add returns the point translated by (dx, dy).
func (p Point) Add(dx, dy float64) Point {
	return Point{X: p.X + dx, Y: p.Y + dy}
}

// DistanceTo returns the Euclidean distance to q.
func (p Point) DistanceTo(q Point) float64 {
	return math.Hypot(q.X-p.X, q.Y-p.Y)
}

// Rect is an axis-aligned rectangle stored as edge coordinates.
// A valid Rect has Left <= Right and Top <= Bottom (screen coordinates:
// Y grows downward).
type Rect struct {
	Left, Top, Right, Bottom float64
}

// RectFromCenter builds a Rect around a center point.
func RectFromCenter(center Point, width, height float64) Rect {
	return Rect{
		Left:   center.X - width/2,
		Top:    center.Y - height/2,
		Right:  center.X + width/2,
		Bottom: center.Y + height/2,
	}
}

// RectFromTopLeft builds a Rect from its top-left corner and extent.
func RectFromTopLeft(topLeft Point, width, height float64) Rect {
	return Rect{
		Left:   topLeft.X,
		Top:    topLeft.Y,
		Right:  topLeft.X + width,
		Bottom: topLeft.Y + height,
	}
}

// Width returns the horizontal span of the rectangle.
func (r Rect) Width() float64 { return r.Right - r.Left }

// Height returns the vertical span of the rectangle.
func (r Rect) Height() float64 { return r.Bottom - r.Top }

// Center returns the rectangle's center point.
func (r Rect) Center() Point {
	return Point{X: (r.Left + r.Right) / 2, Y: (r.Top + r.Bottom) / 2}
}

// Expand grows the rectangle by pad on every side.
// A negative pad shrinks it; callers are responsible for keeping the
// result valid.
func (r Rect) Expand(pad float64) Rect {
	return Rect{
		Left:   r.Left - pad,
		Top:    r.Top - pad,
		Right:  r.Right + pad,
		Bottom: r.Bottom + pad,
	}
}

// Union returns the smallest rectangle enclosing both r and o.
func (r Rect) Union(o Rect) Rect {
	return Rect{
		Left:   math.Min(r.Left, o.Left),
		Top:    math.Min(r.Top, o.Top),
		Right:  math.Max(r.Right, o.Right),
		Bottom: math.Max(r.Bottom, o.Bottom),
	}
}

// Contains reports whether p lies inside the rectangle (inclusive).
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Left && p.X <= r.Right && p.Y >= r.Top && p.Y <= r.Bottom
}

// ContainsRect reports whether o lies entirely inside r (inclusive).
func (r Rect) ContainsRect(o Rect) bool {
	return o.Left >= r.Left && o.Right <= r.Right && o.Top >= r.Top && o.Bottom <= r.Bottom
}

// Overlaps reports whether the two rectangles intersect after each is
// expanded by tol. A tol of zero tests exact overlap; a positive tol
// treats rectangles closer than tol as overlapping.
func (r Rect) Overlaps(o Rect, tol float64) bool {
	return r.Left-tol < o.Right && r.Right+tol > o.Left &&
		r.Top-tol < o.Bottom && r.Bottom+tol > o.Top
}

// IntersectsSegment reports whether the segment a-b passes through the
// rectangle expanded by tol. The test treats the segment as its own
// bounding rectangle, which is exact for the horizontal and vertical
// segments produced by orthogonal routing.
func (r Rect) IntersectsSegment(a, b Point, tol float64) bool {
	seg := Rect{
		Left:   math.Min(a.X, b.X),
		Top:    math.Min(a.Y, b.Y),
		Right:  math.Max(a.X, b.X),
		Bottom: math.Max(a.Y, b.Y),
	}
	return r.Overlaps(seg, tol)
}

// PerimeterPoint returns the point where the ray from the rectangle's
// center toward target crosses the rectangle's edge.
//
// The intersection is parametric: with the ray written as
// center + t*(dx, dy), the edge crossing happens at the smaller of
// t = halfWidth/|dx| and t = halfHeight/|dy|. This yields continuous
// docking anywhere on the perimeter rather than snapping to the four
// side midpoints.
//
// If target coincides with the center the right edge midpoint is
// returned, keeping the result deterministic.
func (r Rect) PerimeterPoint(target Point) Point {
	c := r.Center()
	dx := target.X - c.X
	dy := target.Y - c.Y
	if dx == 0 && dy == 0 {
		return Point{X: r.Right, Y: c.Y}
	}

	halfW := r.Width() / 2
	halfH := r.Height() / 2

	t := math.Inf(1)
	if dx != 0 {
		t = halfW / math.Abs(dx)
	}
	if dy != 0 {
		if ty := halfH / math.Abs(dy); ty < t {
			t = ty
		}
	}
	return Point{X: c.X + dx*t, Y: c.Y + dy*t}
}

// IsFinite reports whether v is a usable coordinate (not NaN or ±Inf).
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// FiniteOr returns v if it is finite, otherwise fallback.
func FiniteOr(v, fallback float64) float64 {
	if IsFinite(v) {
		return v
	}
	return fallback
}

// PositiveOr returns v if it is finite and strictly positive, otherwise
// fallback. Used to sanitize widths and heights.
func PositiveOr(v, fallback float64) float64 {
	if IsFinite(v) && v > 0 {
		return v
	}
	return fallback
}

// Clamp limits v to the range [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
