package ipc

import (
	"context"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/handler"
)

// Renderer is implemented by the renderer end of a connection. Each method
// handles one command from the shell.
type Renderer interface {
	SetWindowHandle(ctx context.Context, p SetWindowHandleParams) error
	SetDevicePixelRatio(ctx context.Context, p DevicePixelRatioParams) error
	UpdateSystemFonts(ctx context.Context, p SystemFontsParams) error
	UpdateSystemTheme(ctx context.Context, p SystemThemeParams) error
	UpdateScreenRects(ctx context.Context, p ScreenRectsParams) error
	SetViewportRect(ctx context.Context, p ViewportRectParams) error
	AddBackingStore(ctx context.Context, p AddBackingStoreParams) error
	Paint(ctx context.Context, p PaintParams) error
	LoadURL(ctx context.Context, p LoadURLParams) error
	LoadHTML(ctx context.Context, p LoadHTMLParams) error
	MouseEvent(ctx context.Context, p MouseEventParams) error
	KeyEvent(ctx context.Context, p KeyEventParams) error
	AlertClosed(ctx context.Context) error
	ConfirmClosed(ctx context.Context, p ConfirmClosedParams) error
	PromptClosed(ctx context.Context, p PromptClosedParams) error
	HandleFileReturn(ctx context.Context, p HandleFileReturnParams) error
}

// bind adapts a typed command handler to a JSON-RPC handler.
func bind[P any](fn func(context.Context, P) error) jrpc2.Handler {
	return func(ctx context.Context, req *jrpc2.Request) (any, error) {
		var p P
		if err := req.UnmarshalParams(&p); err != nil {
			return nil, jrpc2.Errorf(jrpc2.InvalidParams, "%s: %v", req.Method(), err)
		}
		return nil, fn(ctx, p)
	}
}

// Handlers maps every command to r.
func Handlers(r Renderer) handler.Map {
	return handler.Map{
		MethodSetWindowHandle:     bind(r.SetWindowHandle),
		MethodSetDevicePixelRatio: bind(r.SetDevicePixelRatio),
		MethodUpdateSystemFonts:   bind(r.UpdateSystemFonts),
		MethodUpdateSystemTheme:   bind(r.UpdateSystemTheme),
		MethodUpdateScreenRects:   bind(r.UpdateScreenRects),
		MethodSetViewportRect:     bind(r.SetViewportRect),
		MethodAddBackingStore:     bind(r.AddBackingStore),
		MethodPaint:               bind(r.Paint),
		MethodLoadURL:             bind(r.LoadURL),
		MethodLoadHTML:            bind(r.LoadHTML),
		MethodMouseEvent:          bind(r.MouseEvent),
		MethodKeyEvent:            bind(r.KeyEvent),
		MethodAlertClosed: func(ctx context.Context, _ *jrpc2.Request) (any, error) {
			return nil, r.AlertClosed(ctx)
		},
		MethodConfirmClosed:    bind(r.ConfirmClosed),
		MethodPromptClosed:     bind(r.PromptClosed),
		MethodHandleFileReturn: bind(r.HandleFileReturn),
	}
}

// NewServer builds a renderer server for r. Commands are handled one at a
// time so they apply in the order the shell sent them.
func NewServer(r Renderer, logger func(text string)) *jrpc2.Server {
	opts := &jrpc2.ServerOptions{
		AllowPush:   true,
		Concurrency: 1,
	}
	if logger != nil {
		opts.Logger = logger
	}
	return jrpc2.NewServer(Handlers(r), opts)
}

// Notifier pushes notifications from a renderer to the shell.
type Notifier struct {
	srv *jrpc2.Server
}

// NewNotifier wraps a started server.
func NewNotifier(srv *jrpc2.Server) *Notifier {
	return &Notifier{srv: srv}
}

// Notify pushes an arbitrary notification.
func (n *Notifier) Notify(ctx context.Context, method string, params any) error {
	return n.srv.Notify(ctx, method, params)
}

// DidPaint reports a finished paint.
func (n *Notifier) DidPaint(ctx context.Context, p DidPaintParams) error {
	return n.Notify(ctx, NotifyDidPaint, p)
}

// DidLayout reports the content size.
func (n *Notifier) DidLayout(ctx context.Context, p DidLayoutParams) error {
	return n.Notify(ctx, NotifyDidLayout, p)
}

// DidInvalidateContentRect reports that rect needs repainting.
func (n *Notifier) DidInvalidateContentRect(ctx context.Context, p RectParams) error {
	return n.Notify(ctx, NotifyDidInvalidateContentRect, p)
}

// DidChangeSelection reports a selection change.
func (n *Notifier) DidChangeSelection(ctx context.Context) error {
	return n.Notify(ctx, NotifyDidChangeSelection, nil)
}

// DidRequestCursorChange asks for a cursor shape.
func (n *Notifier) DidRequestCursorChange(ctx context.Context, p CursorChangeParams) error {
	return n.Notify(ctx, NotifyDidRequestCursorChange, p)
}

// DidEnterTooltipArea reports a tooltip under the pointer.
func (n *Notifier) DidEnterTooltipArea(ctx context.Context, p TooltipParams) error {
	return n.Notify(ctx, NotifyDidEnterTooltipArea, p)
}

// DidLeaveTooltipArea reports the pointer left the tooltip area.
func (n *Notifier) DidLeaveTooltipArea(ctx context.Context) error {
	return n.Notify(ctx, NotifyDidLeaveTooltipArea, nil)
}

// DidRequestAlert asks the shell to show an alert.
func (n *Notifier) DidRequestAlert(ctx context.Context, p MessageParams) error {
	return n.Notify(ctx, NotifyDidRequestAlert, p)
}

// DidRequestFile asks the shell to open a file.
func (n *Notifier) DidRequestFile(ctx context.Context, p FileRequestParams) error {
	return n.Notify(ctx, NotifyDidRequestFile, p)
}

// DidCloseFile releases a file opened by an earlier request.
func (n *Notifier) DidCloseFile(ctx context.Context, p FileReleaseParams) error {
	return n.Notify(ctx, NotifyDidCloseFile, p)
}

// DidFinishHandlingInputEvent reports whether an input event was consumed.
func (n *Notifier) DidFinishHandlingInputEvent(ctx context.Context, accepted bool) error {
	return n.Notify(ctx, NotifyDidFinishHandlingInput, InputHandledParams{Accepted: accepted})
}

// DidChangeTitle reports a new document title.
func (n *Notifier) DidChangeTitle(ctx context.Context, title string) error {
	return n.Notify(ctx, NotifyDidChangeTitle, TitleParams{Title: title})
}

// DidFinishLoad reports a completed navigation.
func (n *Notifier) DidFinishLoad(ctx context.Context, url string) error {
	return n.Notify(ctx, NotifyDidFinishLoad, LoadFinishedParams{URL: url})
}
