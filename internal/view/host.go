package view

import (
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/opd-ai/go-ladybird/internal/gfx"
	"github.com/opd-ai/go-ladybird/pkg/webview"
)

var (
	_ webview.ViewHost   = (*Game)(nil)
	_ webview.DialogHost = (*Game)(nil)
	_ webview.InputHost  = (*Game)(nil)
)

type tooltip struct {
	pos  gfx.IntPoint
	text string
}

type dialogKind int

const (
	dialogAlert dialogKind = iota
	dialogConfirm
	dialogPrompt
)

type dialog struct {
	kind    dialogKind
	message string
	input   string
}

// DidLayout records the content size and keeps the viewport inside it.
func (g *Game) DidLayout(contentSize gfx.IntSize) {
	g.contentSize = contentSize
	if g.bridge != nil {
		g.scrollTo(g.bridge.ViewportRect().Location())
	}
}

// DidRequestCursorChange switches the mouse cursor.
func (g *Game) DidRequestCursorChange(cursor gfx.StandardCursor) {
	if cursor == g.cursor {
		return
	}
	g.cursor = cursor
	g.setCursor(cursor)
}

// DidRequestScroll scrolls the viewport by a delta.
func (g *Game) DidRequestScroll(deltaX, deltaY int) {
	if g.bridge == nil {
		return
	}
	g.scrollTo(g.bridge.ViewportRect().Location().Translated(deltaX, deltaY))
}

// DidRequestScrollTo scrolls the viewport to position.
func (g *Game) DidRequestScrollTo(position gfx.IntPoint) {
	g.scrollTo(position)
}

// DidRequestScrollIntoView scrolls the least distance that makes rect
// visible.
func (g *Game) DidRequestScrollIntoView(rect gfx.IntRect) {
	if g.bridge == nil {
		return
	}
	vp := g.bridge.ViewportRect()
	loc := vp.Location()
	if rect.X < vp.X {
		loc.X = rect.X
	} else if rect.X+rect.Width > vp.X+vp.Width {
		loc.X = rect.X + rect.Width - vp.Width
	}
	if rect.Y < vp.Y {
		loc.Y = rect.Y
	} else if rect.Y+rect.Height > vp.Y+vp.Height {
		loc.Y = rect.Y + rect.Height - vp.Height
	}
	g.scrollTo(loc)
}

// DidEnterTooltipArea shows title near position.
func (g *Game) DidEnterTooltipArea(position gfx.IntPoint, title string) {
	g.tooltip = &tooltip{pos: position, text: title}
}

// DidLeaveTooltipArea hides the tooltip.
func (g *Game) DidLeaveTooltipArea() {
	g.tooltip = nil
}

// DidChangeTitle updates the window title. An empty title restores the
// configured one.
func (g *Game) DidChangeTitle(title string) {
	if title == "" {
		title = g.Config().Title
	}
	g.title = title
	g.setTitle(title)
}

// DidFinishLoad records the loaded URL.
func (g *Game) DidFinishLoad(url string) {
	g.url = url
}

// URL returns the last URL that finished loading.
func (g *Game) URL() string { return g.url }

// Title returns the current window title.
func (g *Game) Title() string { return g.title }

// DidRequestAlert opens an alert dialog.
func (g *Game) DidRequestAlert(message string) {
	g.dialog = &dialog{kind: dialogAlert, message: message}
}

// DidRequestConfirm opens a confirm dialog.
func (g *Game) DidRequestConfirm(message string) {
	g.dialog = &dialog{kind: dialogConfirm, message: message}
}

// DidRequestPrompt opens a prompt dialog filled with defaultValue.
func (g *Game) DidRequestPrompt(message, defaultValue string) {
	g.dialog = &dialog{kind: dialogPrompt, message: message, input: defaultValue}
}

// DidRequestSetPromptText replaces the text of an open prompt.
func (g *Game) DidRequestSetPromptText(text string) {
	if g.dialog != nil && g.dialog.kind == dialogPrompt {
		g.dialog.input = text
	}
}

// DidRequestAcceptDialog accepts the open dialog as if the user had.
func (g *Game) DidRequestAcceptDialog() {
	g.acceptDialog()
}

// DidRequestDismissDialog dismisses the open dialog as if the user had.
func (g *Game) DidRequestDismissDialog() {
	g.dismissDialog()
}

// DidFinishHandlingInputEvent scrolls locally for wheel events the page
// did not consume.
func (g *Game) DidFinishHandlingInputEvent(accepted bool) {
	ev, ok := g.input.acknowledge()
	if !ok {
		return
	}
	if !accepted && ev.wheel != (gfx.IntPoint{}) {
		g.unhandled++
		g.DidRequestScroll(ev.wheel.X, ev.wheel.Y)
	}
}

func (g *Game) acceptDialog() {
	d := g.dialog
	if d == nil || g.bridge == nil {
		return
	}
	g.dialog = nil

	var err error
	switch d.kind {
	case dialogAlert:
		err = g.bridge.AlertClosed()
	case dialogConfirm:
		err = g.bridge.ConfirmClosed(true)
	case dialogPrompt:
		response := d.input
		err = g.bridge.PromptClosed(&response)
	}
	g.reportError(err)
}

func (g *Game) dismissDialog() {
	d := g.dialog
	if d == nil || g.bridge == nil {
		return
	}
	g.dialog = nil

	var err error
	switch d.kind {
	case dialogAlert:
		err = g.bridge.AlertClosed()
	case dialogConfirm:
		err = g.bridge.ConfirmClosed(false)
	case dialogPrompt:
		err = g.bridge.PromptClosed(nil)
	}
	g.reportError(err)
}

// scrollTo moves the viewport to p, clamped to the content.
func (g *Game) scrollTo(p gfx.IntPoint) {
	if g.bridge == nil {
		return
	}
	vp := g.bridge.ViewportRect()
	if vp.IsEmpty() {
		return
	}
	loc := g.clampScroll(p, vp.Size())
	if loc == vp.Location() {
		return
	}
	g.bridge.SetViewportRect(gfx.NewRect(loc, vp.Size()))
}

func (g *Game) clampScroll(p gfx.IntPoint, size gfx.IntSize) gfx.IntPoint {
	return gfx.IntPoint{
		X: clamp(p.X, 0, g.contentSize.Width-size.Width),
		Y: clamp(p.Y, 0, g.contentSize.Height-size.Height),
	}
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	return min(max(v, lo), hi)
}

func applyCursor(cursor gfx.StandardCursor) {
	if cursor == gfx.CursorHidden {
		ebiten.SetCursorMode(ebiten.CursorModeHidden)
		return
	}
	ebiten.SetCursorMode(ebiten.CursorModeVisible)
	ebiten.SetCursorShape(cursorShape(cursor))
}

// cursorShape maps a renderer cursor to the closest shape Ebiten offers.
func cursorShape(cursor gfx.StandardCursor) ebiten.CursorShapeType {
	switch cursor {
	case gfx.CursorCrosshair, gfx.CursorEyedropper:
		return ebiten.CursorShapeCrosshair
	case gfx.CursorIBeam:
		return ebiten.CursorShapeText
	case gfx.CursorHand:
		return ebiten.CursorShapePointer
	case gfx.CursorResizeHorizontal, gfx.CursorResizeColumn:
		return ebiten.CursorShapeEWResize
	case gfx.CursorResizeVertical, gfx.CursorResizeRow:
		return ebiten.CursorShapeNSResize
	case gfx.CursorResizeDiagonalTLBR:
		return ebiten.CursorShapeNWSEResize
	case gfx.CursorResizeDiagonalBLTR:
		return ebiten.CursorShapeNESWResize
	case gfx.CursorMove, gfx.CursorDrag, gfx.CursorDragCopy:
		return ebiten.CursorShapeMove
	case gfx.CursorDisallowed:
		return ebiten.CursorShapeNotAllowed
	default:
		return ebiten.CursorShapeDefault
	}
}
