// Package screen reports the geometry of the attached displays.
package screen

import (
	"errors"
	"os"
	"strings"

	"github.com/opd-ai/go-ladybird/internal/gfx"
)

// ErrUnavailable is returned when screen geometry cannot be queried on
// this platform or session.
var ErrUnavailable = errors.New("screen geometry unavailable")

// Info is one display as the X server reports it.
type Info struct {
	X, Y          int16
	Width, Height uint16
}

// toRects converts display info to rectangles, dropping empty displays.
func toRects(infos []Info) []gfx.IntRect {
	rects := make([]gfx.IntRect, 0, len(infos))
	for _, s := range infos {
		if s.Width == 0 || s.Height == 0 {
			continue
		}
		rects = append(rects, gfx.IntRect{X: int(s.X), Y: int(s.Y), Width: int(s.Width), Height: int(s.Height)})
	}
	return rects
}

// IsWayland reports whether the session runs on Wayland, where global
// screen coordinates are not exposed to clients.
func IsWayland() bool {
	if strings.EqualFold(os.Getenv("XDG_SESSION_TYPE"), "wayland") {
		return true
	}
	return os.Getenv("WAYLAND_DISPLAY") != ""
}

// RectsOrFallback returns the screen rectangles, or a single screen of
// fallback size when they cannot be queried.
func RectsOrFallback(fallback gfx.IntSize) []gfx.IntRect {
	rects, err := Rects()
	if err != nil || len(rects) == 0 {
		if fallback.IsEmpty() {
			return nil
		}
		return []gfx.IntRect{{Width: fallback.Width, Height: fallback.Height}}
	}
	return rects
}
