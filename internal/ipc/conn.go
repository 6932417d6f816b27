package ipc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/channel"

	"github.com/opd-ai/go-ladybird/internal/gfx"
	"github.com/opd-ai/go-ladybird/internal/theme"
)

// ErrConnClosed is returned when sending on a closed connection.
var ErrConnClosed = errors.New("renderer connection closed")

// Notification is one renderer notification as received off the wire.
type Notification struct {
	Method string
	Params json.RawMessage
}

// Decode unmarshals the notification parameters into v. A notification
// without parameters leaves v untouched.
func (n Notification) Decode(v any) error {
	if len(n.Params) == 0 {
		return nil
	}
	if err := json.Unmarshal(n.Params, v); err != nil {
		return fmt.Errorf("decode %s: %w", n.Method, err)
	}
	return nil
}

// ConnOptions configures a Conn.
type ConnOptions struct {
	// OnNotify receives every notification on the connection's reader
	// goroutine, in arrival order. It must not block.
	OnNotify func(Notification)

	// OnStop is called once when the connection stops for any reason.
	OnStop func(err error)

	// Logger receives protocol-level debug text. Nil disables it.
	Logger func(text string)
}

// Conn is the shell's end of a renderer connection. Every command is a
// fire-and-forget notification; none of the methods wait for the renderer.
type Conn struct {
	cli    *jrpc2.Client
	closed atomic.Bool
}

// NewConn starts a client on ch.
func NewConn(ch channel.Channel, opts ConnOptions) *Conn {
	c := &Conn{}
	copts := &jrpc2.ClientOptions{
		OnNotify: func(req *jrpc2.Request) {
			n := Notification{Method: req.Method()}
			if req.HasParams() {
				var raw json.RawMessage
				if err := req.UnmarshalParams(&raw); err != nil {
					if opts.Logger != nil {
						opts.Logger(fmt.Sprintf("dropping %s: %v", req.Method(), err))
					}
					return
				}
				n.Params = raw
			}
			if opts.OnNotify != nil {
				opts.OnNotify(n)
			}
		},
		OnStop: func(_ *jrpc2.Client, err error) {
			c.closed.Store(true)
			if opts.OnStop != nil {
				opts.OnStop(err)
			}
		},
	}
	if opts.Logger != nil {
		copts.Logger = opts.Logger
	}
	c.cli = jrpc2.NewClient(ch, copts)
	return c
}

// Close shuts the connection down. Further sends return ErrConnClosed.
func (c *Conn) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	return c.cli.Close()
}

// Closed reports whether the connection has stopped.
func (c *Conn) Closed() bool {
	return c.closed.Load()
}

func (c *Conn) send(ctx context.Context, method string, params any) error {
	if c.closed.Load() {
		return fmt.Errorf("%s: %w", method, ErrConnClosed)
	}
	if err := c.cli.Notify(ctx, method, params); err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	return nil
}

// SetWindowHandle sends the session identifier.
func (c *Conn) SetWindowHandle(ctx context.Context, handle string) error {
	return c.send(ctx, MethodSetWindowHandle, SetWindowHandleParams{Handle: handle})
}

// SetDevicePixelRatio sends the device pixels per CSS pixel.
func (c *Conn) SetDevicePixelRatio(ctx context.Context, ratio float64) error {
	return c.send(ctx, MethodSetDevicePixelRatio, DevicePixelRatioParams{Ratio: ratio})
}

// UpdateSystemFonts sends the system font queries.
func (c *Conn) UpdateSystemFonts(ctx context.Context, fonts theme.FontQueries) error {
	return c.send(ctx, MethodUpdateSystemFonts, SystemFontsParams{Fonts: fonts})
}

// UpdateSystemTheme sends the parsed system theme.
func (c *Conn) UpdateSystemTheme(ctx context.Context, t theme.Theme) error {
	return c.send(ctx, MethodUpdateSystemTheme, SystemThemeParams{Theme: t})
}

// UpdateScreenRects sends the screen geometry.
func (c *Conn) UpdateScreenRects(ctx context.Context, rects []gfx.IntRect, mainScreen int) error {
	return c.send(ctx, MethodUpdateScreenRects, ScreenRectsParams{Rects: rects, MainScreen: mainScreen})
}

// SetViewportRect sends the visible content rectangle.
func (c *Conn) SetViewportRect(ctx context.Context, rect gfx.IntRect) error {
	return c.send(ctx, MethodSetViewportRect, ViewportRectParams{Rect: rect})
}

// AddBackingStore announces a new front/back bitmap pair.
func (c *Conn) AddBackingStore(ctx context.Context, frontID, backID int, size gfx.IntSize) error {
	return c.send(ctx, MethodAddBackingStore, AddBackingStoreParams{FrontID: frontID, BackID: backID, Size: size})
}

// Paint asks for rect to be painted into bitmapID.
func (c *Conn) Paint(ctx context.Context, rect gfx.IntRect, bitmapID int) error {
	return c.send(ctx, MethodPaint, PaintParams{Rect: rect, BitmapID: bitmapID})
}

// LoadURL navigates to url.
func (c *Conn) LoadURL(ctx context.Context, url string) error {
	return c.send(ctx, MethodLoadURL, LoadURLParams{URL: url})
}

// LoadHTML loads html as the document at url.
func (c *Conn) LoadHTML(ctx context.Context, html, url string) error {
	return c.send(ctx, MethodLoadHTML, LoadHTMLParams{HTML: html, URL: url})
}

// MouseEvent forwards a mouse event.
func (c *Conn) MouseEvent(ctx context.Context, ev MouseEventParams) error {
	return c.send(ctx, MethodMouseEvent, ev)
}

// KeyEvent forwards a keyboard event.
func (c *Conn) KeyEvent(ctx context.Context, ev KeyEventParams) error {
	return c.send(ctx, MethodKeyEvent, ev)
}

// AlertClosed reports that an alert was dismissed.
func (c *Conn) AlertClosed(ctx context.Context) error {
	return c.send(ctx, MethodAlertClosed, nil)
}

// ConfirmClosed reports the answer to a confirm dialog.
func (c *Conn) ConfirmClosed(ctx context.Context, accepted bool) error {
	return c.send(ctx, MethodConfirmClosed, ConfirmClosedParams{Accepted: accepted})
}

// PromptClosed reports the prompt response; nil means cancelled.
func (c *Conn) PromptClosed(ctx context.Context, response *string) error {
	return c.send(ctx, MethodPromptClosed, PromptClosedParams{Response: response})
}

// HandleFileReturn answers a file request.
func (c *Conn) HandleFileReturn(ctx context.Context, errno int, file *File, requestID int) error {
	return c.send(ctx, MethodHandleFileReturn, HandleFileReturnParams{Error: errno, File: file, RequestID: requestID})
}
