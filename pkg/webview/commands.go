package webview

import (
	"github.com/opd-ai/go-ladybird/internal/gfx"
	"github.com/opd-ai/go-ladybird/internal/ipc"
)

// conn returns the live renderer connection or the reason there is none.
func (b *Bridge) conn(op string) (*ipc.Conn, error) {
	switch b.State() {
	case StateClosed:
		return nil, ErrClosed
	case StateFailed:
		return nil, b.Err()
	}
	if b.client.conn == nil {
		return nil, runtimeError(op, ipc.ErrConnClosed)
	}
	return b.client.conn, nil
}

func (b *Bridge) send(op string, fn func(*ipc.Conn) error) error {
	conn, err := b.conn(op)
	if err != nil {
		return err
	}
	if err := fn(conn); err != nil {
		return runtimeError(op, err)
	}
	return nil
}

// Load navigates to url. The URL is remembered and reloaded if the
// renderer has to be replaced after a crash.
func (b *Bridge) Load(url string) error {
	if b.State() != StateClosed {
		b.lastURL, b.lastHTML = url, nil
	}
	return b.send("load", func(c *ipc.Conn) error { return c.LoadURL(b.ctx, url) })
}

// LoadHTML loads html as the document at url. Like Load, the document is
// loaded again into a replacement renderer.
func (b *Bridge) LoadHTML(html, url string) error {
	if b.State() != StateClosed {
		b.lastURL, b.lastHTML = url, &html
	}
	return b.send("load html", func(c *ipc.Conn) error { return c.LoadHTML(b.ctx, html, url) })
}

// SendMouseEvent forwards a mouse event given in widget coordinates.
func (b *Bridge) SendMouseEvent(ev ipc.MouseEventParams) error {
	ev.Position = b.ToContentPosition(ev.Position)
	return b.send("mouse event", func(c *ipc.Conn) error { return c.MouseEvent(b.ctx, ev) })
}

// SendKeyEvent forwards a keyboard event.
func (b *Bridge) SendKeyEvent(ev ipc.KeyEventParams) error {
	return b.send("key event", func(c *ipc.Conn) error { return c.KeyEvent(b.ctx, ev) })
}

// AlertClosed tells the renderer the alert dialog was dismissed.
func (b *Bridge) AlertClosed() error {
	return b.send("alert closed", func(c *ipc.Conn) error { return c.AlertClosed(b.ctx) })
}

// ConfirmClosed reports the answer to a confirm dialog.
func (b *Bridge) ConfirmClosed(accepted bool) error {
	return b.send("confirm closed", func(c *ipc.Conn) error { return c.ConfirmClosed(b.ctx, accepted) })
}

// PromptClosed reports the prompt response. A nil response means the
// prompt was cancelled.
func (b *Bridge) PromptClosed(response *string) error {
	return b.send("prompt closed", func(c *ipc.Conn) error { return c.PromptClosed(b.ctx, response) })
}

// UpdateScreenRects replaces the known screen geometry and pushes it to
// the renderer. mainScreen indexes the primary screen.
func (b *Bridge) UpdateScreenRects(rects []gfx.IntRect, mainScreen int) error {
	b.screenRects = append([]gfx.IntRect(nil), rects...)
	return b.send("update screens", func(c *ipc.Conn) error {
		return c.UpdateScreenRects(b.ctx, b.screenRects, mainScreen)
	})
}
