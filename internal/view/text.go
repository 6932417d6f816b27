package view

import (
	"image/color"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
)

// TextDrawer draws overlay text. Tests substitute a fake.
type TextDrawer interface {
	DrawText(dst *ebiten.Image, s string, x, y float64, clr color.RGBA)
	MeasureText(s string) (width, height float64)
	LineHeight() float64
}

// TextRenderer draws text with one Go font face.
type TextRenderer struct {
	source *text.GoTextFaceSource
	size   float64
	mu     sync.RWMutex
}

// SetScale multiplies the face size, for device pixel ratios above 1.
func (tr *TextRenderer) SetScale(scale float64) {
	if scale <= 0 {
		return
	}
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.size *= scale
}

// Size returns the face size in pixels.
func (tr *TextRenderer) Size() float64 {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	return tr.size
}

func (tr *TextRenderer) face() *text.GoTextFace {
	return &text.GoTextFace{Source: tr.source, Size: tr.size}
}

// DrawText renders s with its top-left corner at x, y.
func (tr *TextRenderer) DrawText(dst *ebiten.Image, s string, x, y float64, clr color.RGBA) {
	tr.mu.RLock()
	defer tr.mu.RUnlock()

	op := &text.DrawOptions{}
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleWithColor(clr)
	op.LineSpacing = tr.size * 1.2
	text.Draw(dst, s, tr.face(), op)
}

// MeasureText returns the extent of s.
func (tr *TextRenderer) MeasureText(s string) (width, height float64) {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	return text.Measure(s, tr.face(), tr.size*1.2)
}

// LineHeight returns the height of a single line of text.
func (tr *TextRenderer) LineHeight() float64 {
	tr.mu.RLock()
	defer tr.mu.RUnlock()
	return tr.size * 1.2
}
