// Package webview bridges a native view to an out-of-process web renderer.
//
// A [Bridge] launches a renderer process, pushes it the display and theme
// settings it needs, and keeps two backing stores it paints into. The view
// presents whichever frame [Bridge.Paintable] returns and calls
// [Bridge.Pump] whenever [Bridge.Wake] fires.
//
// # Basic Usage
//
//	b, err := webview.New(screens, 1.0, webview.DefaultOptions())
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer b.Close()
//
//	b.OnReadyToPaint(func() { /* schedule a redraw */ })
//	b.SetViewportRect(gfx.IntRect{Width: 800, Height: 600})
//	b.Load("https://example.org/")
//
//	for range b.Wake() {
//		b.Pump()
//	}
//
// # Threading
//
// A Bridge belongs to the goroutine that created it. Renderer
// notifications and process exits are queued and applied in order by
// Pump, so handlers and host callbacks always run on that goroutine.
// [Bridge.State], [Bridge.Err], [Bridge.Wake] and the handler setters may
// be used from anywhere.
//
// # Painting
//
// Each paint targets the back store. When the renderer reports it done,
// the stores swap and the new front is presented. Paint reports naming
// any other bitmap are stale and ignored. Invalidations that arrive while
// a paint is outstanding collapse into one follow-up paint.
//
// # Crash Recovery
//
// If the renderer exits, the bridge emits [EventRendererCrashed], keeps
// the last painted frame presentable and starts a replacement, reloading
// the last URL. A [RecoveryPolicy] bounds how many consecutive crashes are
// recovered and how long to wait between attempts; once exhausted the
// bridge enters [StateFailed] and [Bridge.Err] returns an error wrapping
// [ErrRendererUnrecoverable].
//
// # Error Handling
//
// Construction failures are returned from [New] and [Bridge.CreateClient]
// and satisfy [IsConstruction]. Runtime errors are reported through
// [ErrorHandler]:
//
//	b.SetErrorHandler(func(err error) {
//		log.Printf("webview error: %v", err)
//	})
//
// # Lifecycle Events
//
// Monitor lifecycle events through [EventHandler]:
//
//	b.SetEventHandler(func(e webview.Event) {
//		log.Printf("event: %s at %v", e.Type, e.Timestamp)
//	})
package webview
