package view

import (
	"bytes"
	"fmt"

	"github.com/hajimehoshi/ebiten/v2/text/v2"

	"github.com/opd-ai/go-ladybird/internal/theme"
)

// Fonts holds the faces used for overlays, resolved from the system font
// queries against the embedded Go fonts.
type Fonts struct {
	Default     *TextRenderer
	FixedWidth  *TextRenderer
	WindowTitle *TextRenderer
}

// NewFonts resolves q against the embedded Go fonts.
func NewFonts(q theme.FontQueries) (*Fonts, error) {
	def, fixed, title := q.Specs()
	f := &Fonts{}
	for _, face := range []struct {
		dst  **TextRenderer
		spec theme.FontSpec
		mono bool
	}{
		{&f.Default, def, false},
		{&f.FixedWidth, fixed, true},
		{&f.WindowTitle, title, false},
	} {
		tr, err := newTextRendererForSpec(face.spec, face.mono)
		if err != nil {
			return nil, err
		}
		*face.dst = tr
	}
	return f, nil
}

func newTextRendererForSpec(spec theme.FontSpec, mono bool) (*TextRenderer, error) {
	src, err := text.NewGoTextFaceSource(bytes.NewReader(theme.GoFont(spec, mono)))
	if err != nil {
		return nil, fmt.Errorf("load font %q: %w", spec.Family, err)
	}
	return &TextRenderer{source: src, size: pointsToPixels(spec.Size)}, nil
}

// pointsToPixels converts a point size at 96 DPI.
func pointsToPixels(pt float64) float64 {
	return pt * 96 / 72
}
