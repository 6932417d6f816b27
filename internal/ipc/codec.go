package ipc

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/opd-ai/go-ladybird/internal/gfx"
)

// ErrPixelSize is returned when a pixel payload does not match the
// announced paint size.
var ErrPixelSize = errors.New("pixel payload size mismatch")

var (
	codecOnce sync.Once
	encoder   *zstd.Encoder
	decoder   *zstd.Decoder
	codecErr  error
)

// initCodec builds the shared encoder and decoder. EncodeAll and DecodeAll
// are safe for concurrent use, so one of each serves the whole process.
func initCodec() {
	codecOnce.Do(func() {
		encoder, codecErr = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
		if codecErr != nil {
			return
		}
		decoder, codecErr = zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
	})
}

// EncodePixels packs the top-left size region of src into RGBA rows and
// compresses them.
func EncodePixels(src *image.RGBA, size gfx.IntSize) ([]byte, error) {
	initCodec()
	if codecErr != nil {
		return nil, fmt.Errorf("init pixel codec: %w", codecErr)
	}
	if src == nil || !gfx.BitmapSize(src).Contains(size) {
		return nil, fmt.Errorf("encode %v from %v: %w", size, gfx.BitmapSize(src), ErrPixelSize)
	}

	rowLen := size.Width * 4
	raw := make([]byte, 0, rowLen*size.Height)
	for y := 0; y < size.Height; y++ {
		off := y * src.Stride
		raw = append(raw, src.Pix[off:off+rowLen]...)
	}
	return encoder.EncodeAll(raw, nil), nil
}

// DecodePixelsInto decompresses data and writes it into the top-left size
// region of dst.
func DecodePixelsInto(dst *image.RGBA, size gfx.IntSize, data []byte) error {
	initCodec()
	if codecErr != nil {
		return fmt.Errorf("init pixel codec: %w", codecErr)
	}
	if dst == nil || !gfx.BitmapSize(dst).Contains(size) {
		return fmt.Errorf("decode %v into %v: %w", size, gfx.BitmapSize(dst), ErrPixelSize)
	}

	raw, err := decoder.DecodeAll(data, nil)
	if err != nil {
		return fmt.Errorf("decompress pixels: %w", err)
	}
	rowLen := size.Width * 4
	if len(raw) != rowLen*size.Height {
		return fmt.Errorf("got %d bytes for %v: %w", len(raw), size, ErrPixelSize)
	}
	for y := 0; y < size.Height; y++ {
		off := y * dst.Stride
		copy(dst.Pix[off:off+rowLen], raw[y*rowLen:(y+1)*rowLen])
	}
	return nil
}
