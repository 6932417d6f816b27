package webview

import (
	"fmt"
	"html"
	"time"
)

// handleRendererExit runs when the connected renderer's process exits.
func (b *Bridge) handleRendererExit() {
	if b.State() != StateConnected {
		return
	}
	b.metrics.IncrementCrashes()
	b.setState(StateCrashPending)
	b.logger.Warn("renderer exited unexpectedly", "session", b.client.handle)
	b.emitEvent(EventRendererCrashed, b.client.handle)

	delay, ok := b.recovery.crashed()
	if !ok {
		b.fail(runtimeError("recover renderer", ErrRendererUnrecoverable))
		return
	}

	gen := b.gen
	if delay <= 0 {
		b.queue.post(gen, b.recoverRenderer)
		return
	}
	b.logger.Info("delaying renderer recovery", "delay", delay)
	b.recoveryTimer = time.AfterFunc(delay, func() {
		b.queue.post(gen, b.recoverRenderer)
	})
}

// recoverRenderer replaces a crashed renderer, keeping the last good frame
// on screen until the new one paints.
func (b *Bridge) recoverRenderer() {
	if b.State() != StateCrashPending {
		return
	}
	b.recoveryTimer = nil
	b.setState(StateRecreating)

	b.keepFrontAsBackup()

	if err := b.createClient(); err != nil {
		b.fail(runtimeError("recover renderer", fmt.Errorf("%w: %w", ErrRendererUnrecoverable, err)))
		return
	}
	b.setState(StateConnected)
	b.HandleResize()

	if err := b.reload(); err != nil {
		b.logger.Warn("reloading after recovery", "url", b.lastURL, "error", err)
	}

	b.metrics.IncrementRecoveries()
	b.logger.Info("renderer recovered", "session", b.client.handle)
	b.emitEvent(EventRecovered, b.client.handle)
}

// reload shows the last page again in a replacement renderer: the crash
// notice, the document given to LoadHTML, or the last URL.
func (b *Bridge) reload() error {
	switch {
	case b.lastURL == "" && b.lastHTML == nil:
		return nil
	case b.opts.Recovery.ShowCrashPage:
		return b.client.conn.LoadHTML(b.ctx, crashPage(b.lastURL), b.lastURL)
	case b.lastHTML != nil:
		return b.client.conn.LoadHTML(b.ctx, *b.lastHTML, b.lastURL)
	default:
		return b.client.conn.LoadURL(b.ctx, b.lastURL)
	}
}

// fail gives up on rendering. The last frame stays available from
// Paintable.
func (b *Bridge) fail(err error) {
	b.keepFrontAsBackup()
	b.resetClient()
	b.gen++
	b.setErr(err)
	b.setState(StateFailed)
	b.logger.Error("renderer unavailable", "error", err)
	b.notifyError(err)
	b.emitEvent(EventFatal, err.Error())
}

func crashPage(url string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html><head><title>Page crashed</title></head>
<body><h1>This page crashed</h1><p>The renderer for %s exited and was restarted.</p></body></html>
`, html.EscapeString(url))
}
