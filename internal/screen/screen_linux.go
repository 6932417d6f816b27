//go:build linux

package screen

import (
	"fmt"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xinerama"
	"github.com/jezek/xgb/xproto"

	"github.com/opd-ai/go-ladybird/internal/gfx"
)

// Rects queries the X server for the screen layout. Xinerama is preferred
// because it reports each monitor; without it every X screen is one rect.
func Rects() ([]gfx.IntRect, error) {
	if IsWayland() {
		return nil, ErrUnavailable
	}

	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("connect to X server: %w", err)
	}
	defer conn.Close()

	if infos, err := xineramaScreens(conn); err == nil && len(infos) > 0 {
		return toRects(infos), nil
	}

	setup := xproto.Setup(conn)
	if len(setup.Roots) == 0 {
		return nil, ErrUnavailable
	}
	infos := make([]Info, 0, len(setup.Roots))
	for _, root := range setup.Roots {
		infos = append(infos, Info{Width: root.WidthInPixels, Height: root.HeightInPixels})
	}
	return toRects(infos), nil
}

func xineramaScreens(conn *xgb.Conn) ([]Info, error) {
	if err := xinerama.Init(conn); err != nil {
		return nil, err
	}
	active, err := xinerama.IsActive(conn).Reply()
	if err != nil {
		return nil, err
	}
	if active.State == 0 {
		return nil, ErrUnavailable
	}
	reply, err := xinerama.QueryScreens(conn).Reply()
	if err != nil {
		return nil, err
	}
	infos := make([]Info, 0, len(reply.ScreenInfo))
	for _, s := range reply.ScreenInfo {
		infos = append(infos, Info{X: s.XOrg, Y: s.YOrg, Width: s.Width, Height: s.Height})
	}
	return infos, nil
}
