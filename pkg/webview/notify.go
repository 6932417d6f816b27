package webview

import (
	"github.com/opd-ai/go-ladybird/internal/ipc"
)

type notifyHandler func(ipc.Notification) error

// on adapts a typed handler to a notification handler.
func on[P any](fn func(P)) notifyHandler {
	return func(n ipc.Notification) error {
		var p P
		if err := n.Decode(&p); err != nil {
			return err
		}
		fn(p)
		return nil
	}
}

func onBare(fn func()) notifyHandler {
	return func(ipc.Notification) error {
		fn()
		return nil
	}
}

// handlers maps every renderer notification to the bridge or a host.
func (b *Bridge) handlers() map[string]notifyHandler {
	view, dialog, input := b.opts.ViewHost, b.opts.DialogHost, b.opts.InputHost
	return map[string]notifyHandler{
		ipc.NotifyDidPaint:           on(b.didPaint),
		ipc.NotifyDidChangeSelection: onBare(b.requestRepaint),
		ipc.NotifyDidInvalidateContentRect: on(func(ipc.RectParams) {
			b.requestRepaint()
		}),

		ipc.NotifyDidLayout: on(func(p ipc.DidLayoutParams) {
			view.DidLayout(p.ContentSize)
		}),
		ipc.NotifyDidRequestCursorChange: on(func(p ipc.CursorChangeParams) {
			view.DidRequestCursorChange(p.Cursor)
		}),
		ipc.NotifyDidRequestScroll: on(func(p ipc.ScrollParams) {
			view.DidRequestScroll(p.DeltaX, p.DeltaY)
		}),
		ipc.NotifyDidRequestScrollTo: on(func(p ipc.PointParams) {
			view.DidRequestScrollTo(p.Position)
		}),
		ipc.NotifyDidRequestScrollIntoView: on(func(p ipc.RectParams) {
			view.DidRequestScrollIntoView(p.Rect)
		}),
		ipc.NotifyDidEnterTooltipArea: on(func(p ipc.TooltipParams) {
			view.DidEnterTooltipArea(p.Position, p.Title)
		}),
		ipc.NotifyDidLeaveTooltipArea: onBare(view.DidLeaveTooltipArea),
		ipc.NotifyDidChangeTitle: on(func(p ipc.TitleParams) {
			view.DidChangeTitle(p.Title)
		}),
		ipc.NotifyDidFinishLoad: on(func(p ipc.LoadFinishedParams) {
			view.DidFinishLoad(p.URL)
		}),

		ipc.NotifyDidRequestAlert: on(func(p ipc.MessageParams) {
			dialog.DidRequestAlert(p.Message)
		}),
		ipc.NotifyDidRequestConfirm: on(func(p ipc.MessageParams) {
			dialog.DidRequestConfirm(p.Message)
		}),
		ipc.NotifyDidRequestPrompt: on(func(p ipc.PromptParams) {
			dialog.DidRequestPrompt(p.Message, p.Default)
		}),
		ipc.NotifyDidRequestSetPromptText: on(func(p ipc.MessageParams) {
			dialog.DidRequestSetPromptText(p.Message)
		}),
		ipc.NotifyDidRequestAcceptDialog:  onBare(dialog.DidRequestAcceptDialog),
		ipc.NotifyDidRequestDismissDialog: onBare(dialog.DidRequestDismissDialog),

		ipc.NotifyDidRequestFile: on(b.didRequestFile),
		ipc.NotifyDidCloseFile:   on(b.didCloseFile),

		ipc.NotifyDidFinishHandlingInput: on(func(p ipc.InputHandledParams) {
			input.DidFinishHandlingInputEvent(p.Accepted)
		}),
	}
}

// dispatch routes one notification from the current renderer.
func (b *Bridge) dispatch(n ipc.Notification) {
	if b.notifyHandlers == nil {
		b.notifyHandlers = b.handlers()
	}
	h, ok := b.notifyHandlers[n.Method]
	if !ok {
		b.logger.Debug("ignoring unknown renderer notification", "method", n.Method)
		return
	}
	if err := h(n); err != nil {
		b.logger.Warn("malformed renderer notification", "method", n.Method, "error", err)
		b.notifyError(runtimeError(n.Method, err))
	}
}
