package webcontent

import (
	"context"
	"net/url"

	"github.com/opd-ai/go-ladybird/internal/gfx"
	"github.com/opd-ai/go-ladybird/internal/ipc"
)

// MouseEvent updates hover state and follows clicked links. Wheel events
// are left to the shell.
func (r *Renderer) MouseEvent(_ context.Context, p ipc.MouseEventParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	pos := p.Position.Translated(r.viewport.X, r.viewport.Y)
	accepted := true
	switch p.Type {
	case ipc.MouseMove:
		r.hover(r.layout.HitTest(pos))
	case ipc.MouseDown:
		if i := r.layout.HitTest(pos); i >= 0 && p.Button == ipc.ButtonPrimary && r.layout.Lines[i].Link != "" {
			r.followLink(r.layout.Lines[i].Link)
		}
	case ipc.MouseWheel:
		accepted = false
	}
	r.notify(ipc.NotifyDidFinishHandlingInput, ipc.InputHandledParams{Accepted: accepted})
	return nil
}

// hover moves the pointer onto line i, or off every line when i is -1.
func (r *Renderer) hover(i int) {
	if i == r.hovered {
		return
	}
	if r.hovered >= 0 && r.layout.Lines[r.hovered].Tooltip != "" {
		r.notify(ipc.NotifyDidLeaveTooltipArea, nil)
	}
	r.hovered = i

	cursor := gfx.CursorArrow
	if i >= 0 {
		line := r.layout.Lines[i]
		cursor = gfx.CursorIBeam
		if line.Link != "" {
			cursor = gfx.CursorHand
		}
		if line.Tooltip != "" {
			r.notify(ipc.NotifyDidEnterTooltipArea, ipc.TooltipParams{Position: line.Rect.Location(), Title: line.Tooltip})
		}
	}
	if cursor != r.cursor {
		r.cursor = cursor
		r.notify(ipc.NotifyDidRequestCursorChange, ipc.CursorChangeParams{Cursor: cursor})
	}
}

// followLink navigates to href resolved against the current page.
func (r *Renderer) followLink(href string) {
	target, err := url.Parse(href)
	if err != nil {
		r.logger.Warn("bad link", "href", href, "error", err)
		return
	}
	if base, err := url.Parse(r.doc.URL); err == nil {
		target = base.ResolveReference(target)
	}
	r.navigate(target.String())
}

// KeyEvent scrolls for navigation keys. Other keys are not consumed.
func (r *Renderer) KeyEvent(_ context.Context, p ipc.KeyEventParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	accepted := false
	if p.Type == ipc.KeyDown {
		accepted = true
		page := max(r.viewport.Height-r.viewport.Height/8, 1)
		switch p.Key {
		case "Home":
			r.notify(ipc.NotifyDidRequestScrollTo, ipc.PointParams{})
		case "End":
			r.notify(ipc.NotifyDidRequestScrollTo, ipc.PointParams{Position: gfx.IntPoint{Y: r.layout.Size.Height}})
		case "PageDown", " ":
			r.notify(ipc.NotifyDidRequestScroll, ipc.ScrollParams{DeltaY: page})
		case "PageUp":
			r.notify(ipc.NotifyDidRequestScroll, ipc.ScrollParams{DeltaY: -page})
		default:
			accepted = false
		}
	}
	r.notify(ipc.NotifyDidFinishHandlingInput, ipc.InputHandledParams{Accepted: accepted})
	return nil
}

// AlertClosed is accepted for protocol completeness; pages here never
// open dialogs.
func (r *Renderer) AlertClosed(context.Context) error {
	r.logger.Debug("alert closed")
	return nil
}

func (r *Renderer) ConfirmClosed(_ context.Context, p ipc.ConfirmClosedParams) error {
	r.logger.Debug("confirm closed", "accepted", p.Accepted)
	return nil
}

func (r *Renderer) PromptClosed(_ context.Context, p ipc.PromptClosedParams) error {
	r.logger.Debug("prompt closed", "cancelled", p.Response == nil)
	return nil
}
