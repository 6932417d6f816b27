// Package gfx provides the integer geometry and bitmap helpers shared by the
// rendering bridge, the renderer wire protocol and the presentation layer.
package gfx

import (
	"fmt"
	"image"
	"math"
)

// IntPoint is a position in device pixels.
type IntPoint struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// String returns the point formatted as "x,y".
func (p IntPoint) String() string {
	return fmt.Sprintf("%d,%d", p.X, p.Y)
}

// Translated returns p moved by dx, dy.
func (p IntPoint) Translated(dx, dy int) IntPoint {
	return IntPoint{X: p.X + dx, Y: p.Y + dy}
}

// IntSize is a width and height in device pixels.
type IntSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// IsEmpty reports whether either dimension is zero or negative.
func (s IntSize) IsEmpty() bool {
	return s.Width <= 0 || s.Height <= 0
}

// Contains reports whether a bitmap of size s can hold one of size o.
func (s IntSize) Contains(o IntSize) bool {
	return s.Width >= o.Width && s.Height >= o.Height
}

// Scaled multiplies both dimensions by factor, rounding up so the result
// always covers the scaled area.
func (s IntSize) Scaled(factor float64) IntSize {
	return IntSize{
		Width:  int(math.Ceil(float64(s.Width) * factor)),
		Height: int(math.Ceil(float64(s.Height) * factor)),
	}
}

// String returns the size formatted as "WxH".
func (s IntSize) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// IntRect is an axis-aligned rectangle in device pixels.
type IntRect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// NewRect builds a rectangle from a location and a size.
func NewRect(loc IntPoint, size IntSize) IntRect {
	return IntRect{X: loc.X, Y: loc.Y, Width: size.Width, Height: size.Height}
}

// Location returns the top-left corner.
func (r IntRect) Location() IntPoint {
	return IntPoint{X: r.X, Y: r.Y}
}

// Size returns the rectangle's dimensions.
func (r IntRect) Size() IntSize {
	return IntSize{Width: r.Width, Height: r.Height}
}

// IsEmpty reports whether the rectangle covers no pixels.
func (r IntRect) IsEmpty() bool {
	return r.Size().IsEmpty()
}

// Contains reports whether p lies inside r.
func (r IntRect) Contains(p IntPoint) bool {
	return p.X >= r.X && p.Y >= r.Y && p.X < r.X+r.Width && p.Y < r.Y+r.Height
}

// Image converts r to an image.Rectangle.
func (r IntRect) Image() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// String returns the rectangle formatted as "[x,y WxH]".
func (r IntRect) String() string {
	return fmt.Sprintf("[%d,%d %dx%d]", r.X, r.Y, r.Width, r.Height)
}

// RectFromImage converts an image.Rectangle to an IntRect.
func RectFromImage(r image.Rectangle) IntRect {
	return IntRect{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()}
}
