package webview

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/opd-ai/go-ladybird/internal/gfx"
	"github.com/opd-ai/go-ladybird/internal/ipc"
	"github.com/opd-ai/go-ladybird/internal/ipc/ipctest"
	"github.com/opd-ai/go-ladybird/internal/process"
	"github.com/opd-ai/go-ladybird/internal/theme"
)

const waitTimeout = 2 * time.Second

const testTheme = `[Colors]
Base=#ffffff
Tooltip=#ffffe1

[Metrics]
TitleHeight=19
`

func writeTheme(t *testing.T, root string) {
	t.Helper()
	path := theme.Path(root, theme.DefaultThemeName)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(testTheme), 0o644); err != nil {
		t.Fatalf("write theme: %v", err)
	}
}

// recordingHost records every host callback as a string.
type recordingHost struct {
	calls []string
}

func (h *recordingHost) add(format string, args ...any) {
	h.calls = append(h.calls, fmt.Sprintf(format, args...))
}

func (h *recordingHost) DidLayout(s gfx.IntSize)                          { h.add("layout %v", s) }
func (h *recordingHost) DidRequestCursorChange(c gfx.StandardCursor)      { h.add("cursor %v", c) }
func (h *recordingHost) DidRequestScroll(dx, dy int)                      { h.add("scroll %d,%d", dx, dy) }
func (h *recordingHost) DidRequestScrollTo(p gfx.IntPoint)                { h.add("scroll-to %v", p) }
func (h *recordingHost) DidRequestScrollIntoView(r gfx.IntRect)           { h.add("scroll-into-view %v", r) }
func (h *recordingHost) DidEnterTooltipArea(p gfx.IntPoint, title string) { h.add("tooltip %v %s", p, title) }
func (h *recordingHost) DidLeaveTooltipArea()                             { h.add("tooltip-leave") }
func (h *recordingHost) DidChangeTitle(title string)                      { h.add("title %s", title) }
func (h *recordingHost) DidFinishLoad(url string)                         { h.add("loaded %s", url) }
func (h *recordingHost) DidRequestAlert(msg string)                       { h.add("alert %s", msg) }
func (h *recordingHost) DidRequestConfirm(msg string)                     { h.add("confirm %s", msg) }
func (h *recordingHost) DidRequestPrompt(msg, def string)                 { h.add("prompt %s [%s]", msg, def) }
func (h *recordingHost) DidRequestSetPromptText(text string)              { h.add("prompt-text %s", text) }
func (h *recordingHost) DidRequestAcceptDialog()                          { h.add("accept") }
func (h *recordingHost) DidRequestDismissDialog()                         { h.add("dismiss") }
func (h *recordingHost) DidFinishHandlingInputEvent(accepted bool)        { h.add("input-handled %t", accepted) }

// harness drives a Bridge backed by in-memory renderers. The test
// goroutine plays the UI goroutine.
type harness struct {
	t     *testing.T
	b     *Bridge
	host  *recordingHost
	procs []*ipctest.Process
}

func newHarness(t *testing.T, configure func(*Options)) *harness {
	t.Helper()
	root := t.TempDir()
	writeTheme(t, root)

	h := &harness{t: t, host: &recordingHost{}}
	opts := DefaultOptions()
	opts.ResourceRoot = root
	opts.Metrics = NewMetrics()
	opts.HelperPaths = func(string) ([]string, error) {
		return []string{"/opt/ladybird/libexec/webcontent"}, nil
	}
	opts.Launch = func(context.Context, process.LaunchRequest) (Process, error) {
		p := ipctest.NewProcess()
		h.procs = append(h.procs, p)
		return p, nil
	}
	opts.ViewHost = h.host
	opts.DialogHost = h.host
	opts.InputHost = h.host
	if configure != nil {
		configure(&opts)
	}

	b, err := New(nil, 1, opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	h.b = b
	t.Cleanup(func() { b.Close() })
	return h
}

// renderer returns the most recently launched renderer.
func (h *harness) renderer() *ipctest.Renderer {
	return h.proc().Renderer
}

func (h *harness) proc() *ipctest.Process {
	h.t.Helper()
	if len(h.procs) == 0 {
		h.t.Fatal("no renderer launched")
	}
	return h.procs[len(h.procs)-1]
}

func (h *harness) notifier() *ipc.Notifier {
	return h.renderer().Notifier()
}

// pumpUntil pumps the bridge until cond holds.
func (h *harness) pumpUntil(what string, cond func() bool) {
	h.t.Helper()
	deadline := time.Now().Add(waitTimeout)
	for !cond() {
		if time.Now().After(deadline) {
			h.t.Fatalf("timed out waiting for %s", what)
		}
		select {
		case <-h.b.Wake():
		case <-time.After(10 * time.Millisecond):
		}
		h.b.Pump()
	}
}

func (h *harness) metrics() MetricsSnapshot {
	return h.b.Metrics().Snapshot()
}

// waitCalls waits for n commands of method on the current renderer.
func (h *harness) waitCalls(method string, n int) []ipctest.Call {
	h.t.Helper()
	calls, err := h.renderer().WaitFor(method, n, waitTimeout)
	if err != nil {
		h.t.Fatal(err)
	}
	return calls
}

// lastPaintRequest returns the most recent paint command.
func (h *harness) lastPaintRequest(n int) ipc.PaintParams {
	h.t.Helper()
	calls := h.waitCalls(ipc.MethodPaint, n)
	return calls[len(calls)-1].Params.(ipc.PaintParams)
}

// paint answers a paint into bitmapID with a solid fill and pumps until
// the bridge has handled it.
func (h *harness) paint(bitmapID int, size gfx.IntSize, c color.RGBA) {
	h.t.Helper()
	src := gfx.NewBitmap(size)
	for i := 0; i < len(src.Pix); i += 4 {
		src.Pix[i], src.Pix[i+1], src.Pix[i+2], src.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	pixels, err := ipc.EncodePixels(src, size)
	if err != nil {
		h.t.Fatalf("EncodePixels() error = %v", err)
	}
	want := h.metrics().PaintsCompleted + 1
	if err := h.notifier().DidPaint(context.Background(), ipc.DidPaintParams{
		BitmapID: bitmapID,
		Size:     size,
		Pixels:   pixels,
	}); err != nil {
		h.t.Fatalf("DidPaint() error = %v", err)
	}
	h.pumpUntil("paint to complete", func() bool { return h.metrics().PaintsCompleted >= want })
}

// showViewport sets a viewport and returns the first paint request.
func (h *harness) showViewport(rect gfx.IntRect) ipc.PaintParams {
	h.t.Helper()
	h.b.SetViewportRect(rect)
	return h.lastPaintRequest(1)
}

func pixelAt(img *image.RGBA, x, y int) color.RGBA {
	return img.RGBAAt(x, y)
}

// eventRecorder collects lifecycle events delivered asynchronously.
type eventRecorder struct {
	ch chan Event
}

func recordEvents(b *Bridge) *eventRecorder {
	r := &eventRecorder{ch: make(chan Event, 64)}
	b.SetEventHandler(func(e Event) { r.ch <- e })
	return r
}

// waitFor blocks until an event of type typ arrives.
func (r *eventRecorder) waitFor(t *testing.T, typ EventType) Event {
	t.Helper()
	timeout := time.After(waitTimeout)
	for {
		select {
		case e := <-r.ch:
			if e.Type == typ {
				return e
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s event", typ)
			return Event{}
		}
	}
}
