//go:build !linux

package screen

import "github.com/opd-ai/go-ladybird/internal/gfx"

// Rects is not supported on this platform.
func Rects() ([]gfx.IntRect, error) {
	return nil, ErrUnavailable
}
