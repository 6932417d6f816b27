// Package ipc defines the wire protocol spoken between the shell and a
// renderer process, and the connection types for both ends.
//
// Every message is a JSON-RPC 2.0 notification framed one per line. Commands
// flow from the shell to the renderer; the renderer reports back with
// server-pushed notifications. Nothing on either side waits for a reply, so
// all interaction is asynchronous and ordered per connection.
package ipc

import (
	"github.com/opd-ai/go-ladybird/internal/gfx"
	"github.com/opd-ai/go-ladybird/internal/theme"
)

// Commands sent from the shell to the renderer.
const (
	MethodSetWindowHandle     = "set-window-handle"
	MethodSetDevicePixelRatio = "set-device-pixel-ratio"
	MethodUpdateSystemFonts   = "update-system-fonts"
	MethodUpdateSystemTheme   = "update-system-theme"
	MethodUpdateScreenRects   = "update-screen-rects"
	MethodSetViewportRect     = "set-viewport-rect"
	MethodAddBackingStore     = "add-backing-store"
	MethodPaint               = "paint"
	MethodLoadURL             = "load-url"
	MethodLoadHTML            = "load-html"
	MethodMouseEvent          = "mouse-event"
	MethodKeyEvent            = "key-event"
	MethodAlertClosed         = "alert-closed"
	MethodConfirmClosed       = "confirm-closed"
	MethodPromptClosed        = "prompt-closed"
	MethodHandleFileReturn    = "handle-file-return"
)

// Notifications pushed from the renderer to the shell.
const (
	NotifyDidPaint                 = "did-paint"
	NotifyDidLayout                = "did-layout"
	NotifyDidInvalidateContentRect = "did-invalidate-content-rect"
	NotifyDidChangeSelection       = "did-change-selection"
	NotifyDidRequestCursorChange   = "did-request-cursor-change"
	NotifyDidRequestScroll         = "did-request-scroll"
	NotifyDidRequestScrollTo       = "did-request-scroll-to"
	NotifyDidRequestScrollIntoView = "did-request-scroll-into-view"
	NotifyDidEnterTooltipArea      = "did-enter-tooltip-area"
	NotifyDidLeaveTooltipArea      = "did-leave-tooltip-area"
	NotifyDidRequestAlert          = "did-request-alert"
	NotifyDidRequestConfirm        = "did-request-confirm"
	NotifyDidRequestPrompt         = "did-request-prompt"
	NotifyDidRequestSetPromptText  = "did-request-set-prompt-text"
	NotifyDidRequestAcceptDialog   = "did-request-accept-dialog"
	NotifyDidRequestDismissDialog  = "did-request-dismiss-dialog"
	NotifyDidRequestFile           = "did-request-file"
	NotifyDidCloseFile             = "did-close-file"
	NotifyDidFinishHandlingInput   = "did-finish-handling-input-event"
	NotifyDidChangeTitle           = "did-change-title"
	NotifyDidFinishLoad            = "did-finish-load"
)

// SetWindowHandleParams carries the session identifier for a renderer.
type SetWindowHandleParams struct {
	Handle string `json:"handle"`
}

// DevicePixelRatioParams carries the device pixels per CSS pixel.
type DevicePixelRatioParams struct {
	Ratio float64 `json:"ratio"`
}

// SystemFontsParams carries the three system font queries.
type SystemFontsParams struct {
	Fonts theme.FontQueries `json:"fonts"`
}

// SystemThemeParams carries a parsed theme file.
type SystemThemeParams struct {
	Theme theme.Theme `json:"theme"`
}

// ScreenRectsParams lists the known screens; MainScreen indexes the primary.
type ScreenRectsParams struct {
	Rects      []gfx.IntRect `json:"rects"`
	MainScreen int           `json:"main_screen"`
}

// ViewportRectParams carries the visible content rectangle.
type ViewportRectParams struct {
	Rect gfx.IntRect `json:"rect"`
}

// AddBackingStoreParams announces the two bitmaps a renderer may paint into.
type AddBackingStoreParams struct {
	FrontID int         `json:"front_id"`
	BackID  int         `json:"back_id"`
	Size    gfx.IntSize `json:"size"`
}

// PaintParams asks the renderer to paint rect into the bitmap BitmapID.
type PaintParams struct {
	Rect     gfx.IntRect `json:"rect"`
	BitmapID int         `json:"bitmap_id"`
}

// LoadURLParams navigates to a URL.
type LoadURLParams struct {
	URL string `json:"url"`
}

// LoadHTMLParams loads a document from memory, reporting url as its address.
type LoadHTMLParams struct {
	HTML string `json:"html"`
	URL  string `json:"url"`
}

// Mouse event types.
const (
	MouseDown  = "down"
	MouseUp    = "up"
	MouseMove  = "move"
	MouseWheel = "wheel"
)

// Mouse buttons, as a bit set.
const (
	ButtonPrimary   uint = 1 << iota
	ButtonSecondary
	ButtonMiddle
)

// Key modifiers, as a bit set.
const (
	ModAlt uint = 1 << iota
	ModCtrl
	ModShift
	ModSuper
)

// MouseEventParams is a mouse event in widget coordinates. The renderer
// adds the viewport offset.
type MouseEventParams struct {
	Type      string       `json:"type"`
	Position  gfx.IntPoint `json:"position"`
	Button    uint         `json:"button,omitempty"`
	Buttons   uint         `json:"buttons,omitempty"`
	Modifiers uint         `json:"modifiers,omitempty"`
	WheelX    int          `json:"wheel_x,omitempty"`
	WheelY    int          `json:"wheel_y,omitempty"`
}

// Key event types.
const (
	KeyDown = "down"
	KeyUp   = "up"
)

// KeyEventParams is a keyboard event. CodePoint is zero for keys that do
// not produce text.
type KeyEventParams struct {
	Type      string `json:"type"`
	Key       string `json:"key"`
	Modifiers uint   `json:"modifiers,omitempty"`
	CodePoint rune   `json:"code_point,omitempty"`
}

// ConfirmClosedParams reports the user's answer to a confirm dialog.
type ConfirmClosedParams struct {
	Accepted bool `json:"accepted"`
}

// PromptClosedParams reports the prompt response; nil means cancelled.
type PromptClosedParams struct {
	Response *string `json:"response"`
}

// File is a handle the shell opened on the renderer's behalf. The
// descriptor is valid in the process identified by PID; a local renderer
// reaches it through /proc/<pid>/fd/<fd>.
type File struct {
	FD  int `json:"fd"`
	PID int `json:"pid"`
}

// HandleFileReturnParams answers a did-request-file. Error is zero on
// success, otherwise the platform error number; File is set only on success.
type HandleFileReturnParams struct {
	Error     int   `json:"error"`
	File      *File `json:"file,omitempty"`
	RequestID int   `json:"request_id"`
}

// DidPaintParams reports a finished paint. Pixels holds the painted area as
// tightly packed RGBA rows, compressed with EncodePixels; it may be empty
// when the bitmap is shared by other means.
type DidPaintParams struct {
	BitmapID int         `json:"bitmap_id"`
	Size     gfx.IntSize `json:"size"`
	Pixels   []byte      `json:"pixels,omitempty"`
}

// DidLayoutParams reports the document's content size.
type DidLayoutParams struct {
	ContentSize gfx.IntSize `json:"content_size"`
}

// RectParams carries a rectangle (invalidation, scroll-into-view).
type RectParams struct {
	Rect gfx.IntRect `json:"rect"`
}

// CursorChangeParams requests a cursor shape.
type CursorChangeParams struct {
	Cursor gfx.StandardCursor `json:"cursor"`
}

// ScrollParams requests a relative scroll.
type ScrollParams struct {
	DeltaX int `json:"delta_x"`
	DeltaY int `json:"delta_y"`
}

// PointParams carries a position (scroll-to).
type PointParams struct {
	Position gfx.IntPoint `json:"position"`
}

// TooltipParams describes the tooltip under the pointer.
type TooltipParams struct {
	Position gfx.IntPoint `json:"position"`
	Title    string       `json:"title"`
}

// MessageParams carries dialog text.
type MessageParams struct {
	Message string `json:"message"`
}

// PromptParams carries a prompt's message and default value.
type PromptParams struct {
	Message string `json:"message"`
	Default string `json:"default"`
}

// FileRequestParams asks the shell to open path read-only.
type FileRequestParams struct {
	Path      string `json:"path"`
	RequestID int    `json:"request_id"`
}

// FileReleaseParams tells the shell the renderer is done with a file.
type FileReleaseParams struct {
	RequestID int `json:"request_id"`
}

// InputHandledParams reports whether an input event was consumed.
type InputHandledParams struct {
	Accepted bool `json:"accepted"`
}

// TitleParams carries the document title.
type TitleParams struct {
	Title string `json:"title"`
}

// LoadFinishedParams reports the URL that finished loading.
type LoadFinishedParams struct {
	URL string `json:"url"`
}
