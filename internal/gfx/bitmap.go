package gfx

import "image"

// NewBitmap allocates a zeroed RGBA bitmap covering size.
// An empty size yields a nil bitmap.
func NewBitmap(size IntSize) *image.RGBA {
	if size.IsEmpty() {
		return nil
	}
	return image.NewRGBA(image.Rect(0, 0, size.Width, size.Height))
}

// BitmapSize returns the dimensions of bmp, or the zero size for nil.
func BitmapSize(bmp *image.RGBA) IntSize {
	if bmp == nil {
		return IntSize{}
	}
	b := bmp.Bounds()
	return IntSize{Width: b.Dx(), Height: b.Dy()}
}
