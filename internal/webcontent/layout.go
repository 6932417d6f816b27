package webcontent

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/opd-ai/go-ladybird/internal/gfx"
	"github.com/opd-ai/go-ladybird/internal/theme"
)

// margin around the page in CSS pixels.
const margin = 8

// headingScale enlarges the window title face for headings.
const headingScale = 1.4

// faces are the font faces a page is laid out with.
type faces struct {
	text    font.Face
	heading font.Face
	mono    font.Face
}

func newFaces(q theme.FontQueries, dpr float64) (*faces, error) {
	def, fixed, title := q.Specs()
	title.Size *= headingScale

	newFace := func(spec theme.FontSpec, mono bool) (font.Face, error) {
		f, err := opentype.Parse(theme.GoFont(spec, mono))
		if err != nil {
			return nil, fmt.Errorf("parse font %q: %w", spec.Family, err)
		}
		return opentype.NewFace(f, &opentype.FaceOptions{
			Size:    spec.Size,
			DPI:     96 * dpr,
			Hinting: font.HintingFull,
		})
	}

	var fs faces
	var err error
	if fs.text, err = newFace(def, false); err != nil {
		return nil, err
	}
	if fs.heading, err = newFace(title, false); err != nil {
		return nil, err
	}
	if fs.mono, err = newFace(fixed, true); err != nil {
		return nil, err
	}
	return &fs, nil
}

func (fs *faces) forKind(k BlockKind) font.Face {
	switch k {
	case BlockHeading:
		return fs.heading
	case BlockPre:
		return fs.mono
	default:
		return fs.text
	}
}

func (fs *faces) close() {
	for _, f := range []font.Face{fs.text, fs.heading, fs.mono} {
		if f != nil {
			f.Close()
		}
	}
}

// Line is one laid out line in content coordinates.
type Line struct {
	Text    string
	Rect    gfx.IntRect
	Kind    BlockKind
	Link    string
	Tooltip string
}

// Layout is a document broken into positioned lines.
type Layout struct {
	Lines []Line
	Size  gfx.IntSize
}

// HitTest returns the index of the line containing p, or -1.
func (l Layout) HitTest(p gfx.IntPoint) int {
	for i, line := range l.Lines {
		if line.Rect.Contains(p) {
			return i
		}
	}
	return -1
}

// layoutDocument wraps doc to width device pixels.
func layoutDocument(doc Document, fs *faces, width int, dpr float64) Layout {
	m := int(margin * dpr)
	avail := max(width-2*m, 1)
	y := m
	right := 0

	var lines []Line
	for _, block := range doc.Blocks {
		face := fs.forKind(block.Kind)
		metrics := face.Metrics()
		height := metrics.Height.Ceil()

		var texts []string
		if block.Kind == BlockPre {
			texts = strings.Split(block.Text, "\n")
		} else {
			texts = wrap(face, block.Text, avail)
		}
		for _, t := range texts {
			w := font.MeasureString(face, t).Ceil()
			lines = append(lines, Line{
				Text:    t,
				Rect:    gfx.IntRect{X: m, Y: y, Width: w, Height: height},
				Kind:    block.Kind,
				Link:    block.Link,
				Tooltip: block.Tooltip,
			})
			right = max(right, m+w)
			y += height
		}
		y += height / 2
	}
	return Layout{
		Lines: lines,
		Size:  gfx.IntSize{Width: max(width, right+m), Height: y + m},
	}
}

// wrap breaks text into lines no wider than width. A word wider than
// width gets a line of its own.
func wrap(face font.Face, text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	limit := fixed.I(width)
	var lines []string
	cur := words[0]
	for _, w := range words[1:] {
		next := cur + " " + w
		if font.MeasureString(face, next) > limit {
			lines = append(lines, cur)
			cur = w
			continue
		}
		cur = next
	}
	return append(lines, cur)
}

// palette holds the page colors.
type palette struct {
	background color.RGBA
	text       color.RGBA
	link       color.RGBA
}

func defaultPalette() palette {
	return palette{
		background: color.RGBA{R: 255, G: 255, B: 255, A: 255},
		text:       color.RGBA{A: 255},
		link:       color.RGBA{B: 238, A: 255},
	}
}

func paletteFromTheme(t theme.Theme) palette {
	p := defaultPalette()
	if c, ok := t.Color("Base"); ok {
		p.background = c
	}
	if c, ok := t.Color("BaseText"); ok {
		p.text = c
	}
	if c, ok := t.Color("Link"); ok {
		p.link = c
	}
	return p
}

// paintLayout paints the part of lay starting at origin into dst. dst
// covers dst.Bounds() from origin.
func paintLayout(dst *image.RGBA, lay Layout, origin gfx.IntPoint, fs *faces, p palette) {
	draw.Draw(dst, dst.Bounds(), image.NewUniform(p.background), image.Point{}, draw.Src)
	view := gfx.NewRect(origin, gfx.BitmapSize(dst)).Image()

	for _, line := range lay.Lines {
		r := line.Rect.Image()
		if !r.Overlaps(view) {
			continue
		}
		r = r.Sub(view.Min)
		clr := p.text
		if line.Link != "" {
			clr = p.link
		}
		face := fs.forKind(line.Kind)
		d := font.Drawer{
			Dst:  dst,
			Src:  image.NewUniform(clr),
			Face: face,
			Dot:  fixed.P(r.Min.X, r.Min.Y+face.Metrics().Ascent.Ceil()),
		}
		d.DrawString(line.Text)

		if line.Link != "" {
			underline := image.Rect(r.Min.X, r.Max.Y-1, r.Max.X, r.Max.Y)
			draw.Draw(dst, underline, image.NewUniform(clr), image.Point{}, draw.Src)
		}
	}
}
