package geometry

import "math"

// Zoom limits applied by [Viewport.ZoomAt].
const (
	MinZoom = 0.1
	MaxZoom = 5.0
)

// Viewport maps between screen and world coordinates. Screen = world*Zoom +
// Pan. The zero value is not usable; start from [NewViewport].
type Viewport struct {
	Pan  Vec2    `json:"pan"`
	Zoom float64 `json:"zoom"`
}

// NewViewport returns the identity viewport.
func NewViewport() Viewport {
	return Viewport{Zoom: 1}
}

// ScreenToWorld converts a screen point to world space.
func (v Viewport) ScreenToWorld(p Vec2) Vec2 {
	return Vec2{(p.X - v.Pan.X) / v.Zoom, (p.Y - v.Pan.Y) / v.Zoom}
}

// WorldToScreen converts a world point to screen space.
func (v Viewport) WorldToScreen(p Vec2) Vec2 {
	return Vec2{p.X*v.Zoom + v.Pan.X, p.Y*v.Zoom + v.Pan.Y}
}

// PanBy shifts the viewport by a screen-space delta.
func (v Viewport) PanBy(d Vec2) Viewport {
	v.Pan = v.Pan.Add(d)
	return v
}

// ZoomAt multiplies the zoom by factor while keeping the world point under
// the screen point anchor fixed. The result is clamped to [MinZoom, MaxZoom].
func (v Viewport) ZoomAt(anchor Vec2, factor float64) Viewport {
	world := v.ScreenToWorld(anchor)
	zoom := math.Min(MaxZoom, math.Max(MinZoom, v.Zoom*factor))
	return Viewport{
		Zoom: zoom,
		Pan:  Vec2{anchor.X - world.X*zoom, anchor.Y - world.Y*zoom},
	}
}
