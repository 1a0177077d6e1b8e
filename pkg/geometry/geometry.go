// Package geometry provides the planar primitives shared by the graph model,
// the renderers and the interaction layer.
//
// All coordinates are in world space: x grows to the right, y grows downward,
// and a [Rect] is anchored at its top-left corner. Functions in this package
// are pure and never allocate beyond their return values.
package geometry

import "math"

// Vec2 is a point or displacement in world space.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns v+o.
func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }

// Sub returns v-o.
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }

// Scale returns v scaled by k.
func (v Vec2) Scale(k float64) Vec2 { return Vec2{v.X * k, v.Y * k} }

// IsZero reports whether both components are zero.
func (v Vec2) IsZero() bool { return v.X == 0 && v.Y == 0 }

// Size is a width/height pair. Negative values are never produced by this
// package but are not rejected either.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// IsZero reports whether the size is unset.
func (s Size) IsZero() bool { return s.Width == 0 && s.Height == 0 }

// Max returns the component-wise maximum of s and o.
func (s Size) Max(o Size) Size {
	return Size{math.Max(s.Width, o.Width), math.Max(s.Height, o.Height)}
}

// Rect is an axis-aligned box anchored at its top-left corner.
type Rect struct {
	X, Y, W, H float64
}

// RectOf builds the box of an entity placed at pos with the given size.
func RectOf(pos Vec2, size Size) Rect {
	return Rect{X: pos.X, Y: pos.Y, W: size.Width, H: size.Height}
}

// Min returns the top-left corner.
func (r Rect) Min() Vec2 { return Vec2{r.X, r.Y} }

// Max returns the bottom-right corner.
func (r Rect) Max() Vec2 { return Vec2{r.X + r.W, r.Y + r.H} }

// Size returns the width and height of r.
func (r Rect) Size() Size { return Size{r.W, r.H} }

// Center returns the midpoint of r.
func (r Rect) Center() Vec2 { return Vec2{r.X + r.W/2, r.Y + r.H/2} }

// Area returns W*H.
func (r Rect) Area() float64 { return r.W * r.H }

// ContainsPoint reports whether p lies inside r. Edges are inclusive.
func (r Rect) ContainsPoint(p Vec2) bool {
	return p.X >= r.X && p.X <= r.X+r.W && p.Y >= r.Y && p.Y <= r.Y+r.H
}

// Contains reports whether o lies entirely inside r. Shared edges count as
// inside, so a rect always contains itself.
func (r Rect) Contains(o Rect) bool {
	return o.X >= r.X && o.Y >= r.Y &&
		o.X+o.W <= r.X+r.W && o.Y+o.H <= r.Y+r.H
}

// Union returns the smallest rect containing both r and o.
func (r Rect) Union(o Rect) Rect {
	minX := math.Min(r.X, o.X)
	minY := math.Min(r.Y, o.Y)
	maxX := math.Max(r.X+r.W, o.X+o.W)
	maxY := math.Max(r.Y+r.H, o.Y+o.H)
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// Outset grows r by the given amounts on each side.
func (r Rect) Outset(left, top, right, bottom float64) Rect {
	return Rect{X: r.X - left, Y: r.Y - top, W: r.W + left + right, H: r.H + top + bottom}
}

// Normalize returns r with non-negative width and height, which is what a
// lasso dragged up or to the left produces.
func (r Rect) Normalize() Rect {
	if r.W < 0 {
		r.X, r.W = r.X+r.W, -r.W
	}
	if r.H < 0 {
		r.Y, r.H = r.Y+r.H, -r.H
	}
	return r
}

// Center returns the midpoint of the box placed at pos with the given size.
func Center(pos Vec2, size Size) Vec2 {
	return Vec2{pos.X + size.Width/2, pos.Y + size.Height/2}
}

// RectIntersection returns the point where the ray from center toward target
// leaves the box of the given size centered on center. When target coincides
// with center the center itself is returned.
func RectIntersection(center Vec2, size Size, target Vec2) Vec2 {
	dx := target.X - center.X
	dy := target.Y - center.Y
	if dx == 0 && dy == 0 {
		return center
	}

	hw := size.Width / 2
	hh := size.Height / 2

	scale := math.Inf(1)
	if dx != 0 {
		scale = hw / math.Abs(dx)
	}
	if dy != 0 {
		scale = math.Min(scale, hh/math.Abs(dy))
	}

	return Vec2{center.X + dx*scale, center.Y + dy*scale}
}

// SpreadAlong returns the position of slot i out of n evenly spread along a
// segment of the given length starting at start, leaving equal gaps at both
// ends.
func SpreadAlong(start, length float64, i, n int) float64 {
	step := length / float64(n+1)
	return start + step*float64(i+1)
}
