package webcontent

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/creachadair/jrpc2/channel"

	"github.com/opd-ai/go-ladybird/internal/gfx"
	"github.com/opd-ai/go-ladybird/internal/ipc"
	"github.com/opd-ai/go-ladybird/internal/theme"
)

const waitTimeout = 5 * time.Second

// harness serves a Renderer over an in-memory pipe pair and drives it
// from the shell's side of the protocol.
type harness struct {
	t     *testing.T
	r     *Renderer
	conn  *ipc.Conn
	notes chan ipc.Notification
}

func newHarness(t *testing.T, opts Options) *harness {
	t.Helper()
	r, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	inR, inW := io.Pipe()
	outR, outW := io.Pipe()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Serve(ctx, channel.Line(inR, outW)) }()

	h := &harness{t: t, r: r, notes: make(chan ipc.Notification, 256)}
	h.conn = ipc.NewConn(channel.Line(outR, inW), ipc.ConnOptions{
		OnNotify: func(n ipc.Notification) { h.notes <- n },
	})
	t.Cleanup(func() {
		h.conn.Close()
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Serve: %v", err)
			}
		case <-time.After(waitTimeout):
			t.Error("Serve did not return")
		}
	})
	return h
}

// waitFor discards notifications until one with method arrives.
func (h *harness) waitFor(method string) ipc.Notification {
	h.t.Helper()
	timeout := time.After(waitTimeout)
	for {
		select {
		case n := <-h.notes:
			if n.Method == method {
				return n
			}
		case <-timeout:
			h.t.Fatalf("timed out waiting for %s", method)
		}
	}
}

// collect returns the methods of every notification up to and including
// the first one with method last.
func (h *harness) collect(last string) []ipc.Notification {
	h.t.Helper()
	var got []ipc.Notification
	timeout := time.After(waitTimeout)
	for {
		select {
		case n := <-h.notes:
			got = append(got, n)
			if n.Method == last {
				return got
			}
		case <-timeout:
			h.t.Fatalf("timed out waiting for %s after %d notifications", last, len(got))
		}
	}
}

func (h *harness) decode(n ipc.Notification, v any) {
	h.t.Helper()
	if err := n.Decode(v); err != nil {
		h.t.Fatal(err)
	}
}

// showViewport sets a viewport and waits for the first layout.
func (h *harness) showViewport(rect gfx.IntRect) {
	h.t.Helper()
	if err := h.conn.SetViewportRect(context.Background(), rect); err != nil {
		h.t.Fatal(err)
	}
	h.waitFor(ipc.NotifyDidInvalidateContentRect)
}

func (h *harness) loadHTML(html, url string) []ipc.Notification {
	h.t.Helper()
	if err := h.conn.LoadHTML(context.Background(), html, url); err != nil {
		h.t.Fatal(err)
	}
	return h.collect(ipc.NotifyDidFinishLoad)
}

func methods(ns []ipc.Notification) []string {
	out := make([]string, len(ns))
	for i, n := range ns {
		out[i] = n.Method
	}
	return out
}

func titleOf(h *harness, ns []ipc.Notification) string {
	h.t.Helper()
	for _, n := range ns {
		if n.Method == ipc.NotifyDidChangeTitle {
			var p ipc.TitleParams
			h.decode(n, &p)
			return p.Title
		}
	}
	h.t.Fatal("no title notification")
	return ""
}

func TestRenderer_LoadHTMLSequence(t *testing.T) {
	h := newHarness(t, Options{})
	h.showViewport(gfx.IntRect{Width: 400, Height: 300})

	got := h.loadHTML("<title>Hello</title><h1>Hi</h1><p>Body text</p>", "about:test")
	want := []string{
		ipc.NotifyDidChangeTitle,
		ipc.NotifyDidLayout,
		ipc.NotifyDidInvalidateContentRect,
		ipc.NotifyDidRequestScrollTo,
		ipc.NotifyDidFinishLoad,
	}
	gotMethods := methods(got)
	if len(gotMethods) != len(want) {
		t.Fatalf("notifications = %v, want %v", gotMethods, want)
	}
	for i := range want {
		if gotMethods[i] != want[i] {
			t.Fatalf("notifications = %v, want %v", gotMethods, want)
		}
	}

	if title := titleOf(h, got); title != "Hello" {
		t.Errorf("title = %q, want Hello", title)
	}
	var layout ipc.DidLayoutParams
	h.decode(got[1], &layout)
	if layout.ContentSize.Width != 400 || layout.ContentSize.Height <= 2*margin {
		t.Errorf("content size = %+v", layout.ContentSize)
	}
	var finished ipc.LoadFinishedParams
	h.decode(got[4], &finished)
	if finished.URL != "about:test" {
		t.Errorf("finished URL = %q", finished.URL)
	}
}

func TestRenderer_UntitledPageUsesURL(t *testing.T) {
	h := newHarness(t, Options{})
	got := h.loadHTML("<p>no title</p>", "about:untitled")
	if title := titleOf(h, got); title != "about:untitled" {
		t.Errorf("title = %q, want the URL", title)
	}
}

func TestRenderer_Paint(t *testing.T) {
	h := newHarness(t, Options{})
	ctx := context.Background()
	size := gfx.IntSize{Width: 200, Height: 100}
	h.showViewport(gfx.NewRect(gfx.IntPoint{}, size))
	h.loadHTML("<p>Painted</p>", "about:paint")

	if err := h.conn.UpdateSystemTheme(ctx, theme.Theme{Sections: map[string]map[string]string{
		"Colors": {"Base": "#203040"},
	}}); err != nil {
		t.Fatal(err)
	}
	h.waitFor(ipc.NotifyDidInvalidateContentRect)

	if err := h.conn.AddBackingStore(ctx, 1, 2, size); err != nil {
		t.Fatal(err)
	}
	// A request larger than the store is clamped to it.
	if err := h.conn.Paint(ctx, gfx.IntRect{Width: 500, Height: 500}, 2); err != nil {
		t.Fatal(err)
	}
	n := h.waitFor(ipc.NotifyDidPaint)
	var p ipc.DidPaintParams
	h.decode(n, &p)
	if p.BitmapID != 2 || p.Size != size {
		t.Fatalf("did-paint = bitmap %d size %+v", p.BitmapID, p.Size)
	}

	bmp := gfx.NewBitmap(size)
	if err := ipc.DecodePixelsInto(bmp, p.Size, p.Pixels); err != nil {
		t.Fatalf("DecodePixelsInto: %v", err)
	}
	bg := bmp.RGBAAt(0, 0)
	if bg.R != 0x20 || bg.G != 0x30 || bg.B != 0x40 {
		t.Errorf("background = %v, want the theme's Base color", bg)
	}
	if !hasColorOtherThan(bmp, 0, 0, size.Width, size.Height, bg) {
		t.Error("painted bitmap has no text")
	}
}

func TestRenderer_FileNavigation(t *testing.T) {
	dir := t.TempDir()
	page := filepath.Join(dir, "page.html")
	if err := os.WriteFile(page, []byte("<title>From disk</title><p>x</p>"), 0o644); err != nil {
		t.Fatal(err)
	}

	var opened ipc.File
	h := newHarness(t, Options{
		OpenFile: func(f ipc.File) (*os.File, error) {
			opened = f
			return os.Open(page)
		},
	})
	ctx := context.Background()

	if err := h.conn.LoadURL(ctx, "file://"+page); err != nil {
		t.Fatal(err)
	}
	var req ipc.FileRequestParams
	h.decode(h.waitFor(ipc.NotifyDidRequestFile), &req)
	if req.Path != page || req.RequestID == 0 {
		t.Fatalf("file request = %+v", req)
	}

	if err := h.conn.HandleFileReturn(ctx, 0, &ipc.File{FD: 9, PID: 1234}, req.RequestID); err != nil {
		t.Fatal(err)
	}
	got := h.collect(ipc.NotifyDidFinishLoad)
	if got[0].Method != ipc.NotifyDidCloseFile {
		t.Errorf("first notification = %s, want %s", got[0].Method, ipc.NotifyDidCloseFile)
	}
	var release ipc.FileReleaseParams
	h.decode(got[0], &release)
	if release.RequestID != req.RequestID {
		t.Errorf("released request %d, want %d", release.RequestID, req.RequestID)
	}
	if title := titleOf(h, got); title != "From disk" {
		t.Errorf("title = %q", title)
	}
	if opened.FD != 9 || opened.PID != 1234 {
		t.Errorf("opened %+v", opened)
	}
}

func TestRenderer_FileNavigationError(t *testing.T) {
	h := newHarness(t, Options{})
	ctx := context.Background()

	if err := h.conn.LoadURL(ctx, "file:///missing.html"); err != nil {
		t.Fatal(err)
	}
	var req ipc.FileRequestParams
	h.decode(h.waitFor(ipc.NotifyDidRequestFile), &req)
	if err := h.conn.HandleFileReturn(ctx, 2, nil, req.RequestID); err != nil {
		t.Fatal(err)
	}
	got := h.collect(ipc.NotifyDidFinishLoad)
	for _, n := range got {
		if n.Method == ipc.NotifyDidCloseFile {
			t.Error("closed a file that was never opened")
		}
	}
	if title := titleOf(h, got); title != "Error" {
		t.Errorf("title = %q, want Error", title)
	}
}

func TestRenderer_StaleFileReturnIsDropped(t *testing.T) {
	h := newHarness(t, Options{
		OpenFile: func(ipc.File) (*os.File, error) { return nil, errors.New("unused") },
	})
	ctx := context.Background()

	if err := h.conn.LoadURL(ctx, "file:///slow.html"); err != nil {
		t.Fatal(err)
	}
	var req ipc.FileRequestParams
	h.decode(h.waitFor(ipc.NotifyDidRequestFile), &req)

	// A newer navigation supersedes the pending file load.
	h.loadHTML("<title>Newer</title>", "about:newer")
	if err := h.conn.HandleFileReturn(ctx, 2, nil, req.RequestID); err != nil {
		t.Fatal(err)
	}
	got := h.loadHTML("<title>Last</title>", "about:last")
	if title := titleOf(h, got); title != "Last" {
		t.Errorf("stale file return replaced the page: title %q", title)
	}
}

func TestRenderer_TestModeBlocksNetwork(t *testing.T) {
	h := newHarness(t, Options{TestMode: true})
	if err := h.conn.LoadURL(context.Background(), "http://example.com/"); err != nil {
		t.Fatal(err)
	}
	got := h.collect(ipc.NotifyDidFinishLoad)
	if title := titleOf(h, got); title != "Error" {
		t.Errorf("title = %q, want Error", title)
	}
}

func TestRenderer_UnsupportedScheme(t *testing.T) {
	h := newHarness(t, Options{})
	if err := h.conn.LoadURL(context.Background(), "gopher://example.com/"); err != nil {
		t.Fatal(err)
	}
	got := h.collect(ipc.NotifyDidFinishLoad)
	if title := titleOf(h, got); title != "Error" {
		t.Errorf("title = %q, want Error", title)
	}
}

func TestRenderer_HTTPNavigation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<title>Served</title><p>over http</p>"))
	}))
	defer srv.Close()

	h := newHarness(t, Options{HTTPClient: srv.Client()})
	if err := h.conn.LoadURL(context.Background(), srv.URL); err != nil {
		t.Fatal(err)
	}
	got := h.collect(ipc.NotifyDidFinishLoad)
	if title := titleOf(h, got); title != "Served" {
		t.Errorf("title = %q, want Served", title)
	}
}

func TestRenderer_HoverAndTooltip(t *testing.T) {
	h := newHarness(t, Options{})
	ctx := context.Background()
	h.showViewport(gfx.IntRect{Width: 400, Height: 300})
	h.loadHTML(`<p title="the tip">hover me</p>`, "about:hover")

	inside := gfx.IntPoint{X: margin + 2, Y: margin + 2}
	if err := h.conn.MouseEvent(ctx, ipc.MouseEventParams{Type: ipc.MouseMove, Position: inside}); err != nil {
		t.Fatal(err)
	}
	got := h.collect(ipc.NotifyDidFinishHandlingInput)
	want := []string{ipc.NotifyDidEnterTooltipArea, ipc.NotifyDidRequestCursorChange, ipc.NotifyDidFinishHandlingInput}
	if len(got) != len(want) {
		t.Fatalf("notifications = %v, want %v", methods(got), want)
	}
	var tip ipc.TooltipParams
	h.decode(got[0], &tip)
	if tip.Title != "the tip" {
		t.Errorf("tooltip = %q", tip.Title)
	}
	var cur ipc.CursorChangeParams
	h.decode(got[1], &cur)
	if cur.Cursor != gfx.CursorIBeam {
		t.Errorf("cursor = %v, want IBeam", cur.Cursor)
	}

	if err := h.conn.MouseEvent(ctx, ipc.MouseEventParams{Type: ipc.MouseMove, Position: gfx.IntPoint{X: 390, Y: 290}}); err != nil {
		t.Fatal(err)
	}
	got = h.collect(ipc.NotifyDidFinishHandlingInput)
	want = []string{ipc.NotifyDidLeaveTooltipArea, ipc.NotifyDidRequestCursorChange, ipc.NotifyDidFinishHandlingInput}
	if len(got) != len(want) {
		t.Fatalf("notifications = %v, want %v", methods(got), want)
	}
	h.decode(got[1], &cur)
	if cur.Cursor != gfx.CursorArrow {
		t.Errorf("cursor = %v, want Arrow", cur.Cursor)
	}
}

func TestRenderer_FollowsLinks(t *testing.T) {
	h := newHarness(t, Options{})
	ctx := context.Background()
	h.showViewport(gfx.IntRect{Width: 400, Height: 300})
	h.loadHTML(`<a href="data:text/plain,arrived">go</a>`, "about:links")

	pos := gfx.IntPoint{X: margin + 1, Y: margin + 1}
	if err := h.conn.MouseEvent(ctx, ipc.MouseEventParams{Type: ipc.MouseMove, Position: pos}); err != nil {
		t.Fatal(err)
	}
	var cur ipc.CursorChangeParams
	h.decode(h.waitFor(ipc.NotifyDidRequestCursorChange), &cur)
	if cur.Cursor != gfx.CursorHand {
		t.Errorf("cursor over link = %v, want Hand", cur.Cursor)
	}

	if err := h.conn.MouseEvent(ctx, ipc.MouseEventParams{Type: ipc.MouseDown, Position: pos, Button: ipc.ButtonPrimary}); err != nil {
		t.Fatal(err)
	}
	var finished ipc.LoadFinishedParams
	h.decode(h.waitFor(ipc.NotifyDidFinishLoad), &finished)
	if finished.URL != "data:text/plain,arrived" {
		t.Errorf("followed to %q", finished.URL)
	}
}

func TestRenderer_MouseUsesViewportOffset(t *testing.T) {
	h := newHarness(t, Options{})
	ctx := context.Background()
	h.showViewport(gfx.IntRect{Width: 400, Height: 300})
	h.loadHTML(`<p title="tip">text</p>`, "about:offset")

	// Scrolled down past the line, the same widget position misses it.
	if err := h.conn.SetViewportRect(ctx, gfx.IntRect{Y: 200, Width: 400, Height: 300}); err != nil {
		t.Fatal(err)
	}
	if err := h.conn.MouseEvent(ctx, ipc.MouseEventParams{Type: ipc.MouseMove, Position: gfx.IntPoint{X: margin + 2, Y: margin + 2}}); err != nil {
		t.Fatal(err)
	}
	for _, n := range h.collect(ipc.NotifyDidFinishHandlingInput) {
		if n.Method == ipc.NotifyDidEnterTooltipArea {
			t.Error("hovered a line scrolled out of view")
		}
	}
}

func TestRenderer_InputAcceptance(t *testing.T) {
	h := newHarness(t, Options{})
	ctx := context.Background()
	h.showViewport(gfx.IntRect{Width: 400, Height: 300})
	h.loadHTML("<p>page</p>", "about:input")

	accepted := func() bool {
		var p ipc.InputHandledParams
		h.decode(h.waitFor(ipc.NotifyDidFinishHandlingInput), &p)
		return p.Accepted
	}

	if err := h.conn.MouseEvent(ctx, ipc.MouseEventParams{Type: ipc.MouseWheel, WheelY: 48}); err != nil {
		t.Fatal(err)
	}
	if accepted() {
		t.Error("wheel event accepted, want it left to the shell")
	}

	if err := h.conn.KeyEvent(ctx, ipc.KeyEventParams{Type: ipc.KeyDown, Key: "x", CodePoint: 'x'}); err != nil {
		t.Fatal(err)
	}
	if accepted() {
		t.Error("text key accepted")
	}

	if err := h.conn.KeyEvent(ctx, ipc.KeyEventParams{Type: ipc.KeyDown, Key: "PageDown"}); err != nil {
		t.Fatal(err)
	}
	var scroll ipc.ScrollParams
	h.decode(h.waitFor(ipc.NotifyDidRequestScroll), &scroll)
	if scroll.DeltaY <= 0 || scroll.DeltaY > 300 {
		t.Errorf("page down scrolled by %d", scroll.DeltaY)
	}
	if !accepted() {
		t.Error("PageDown not accepted")
	}

	if err := h.conn.KeyEvent(ctx, ipc.KeyEventParams{Type: ipc.KeyDown, Key: "Home"}); err != nil {
		t.Fatal(err)
	}
	var to ipc.PointParams
	h.decode(h.waitFor(ipc.NotifyDidRequestScrollTo), &to)
	if to.Position != (gfx.IntPoint{}) {
		t.Errorf("Home scrolled to %+v", to.Position)
	}
}

func TestRenderer_RejectsBadDevicePixelRatio(t *testing.T) {
	r, err := New(Options{})
	if err != nil {
		t.Fatal(err)
	}
	if err := r.SetDevicePixelRatio(context.Background(), ipc.DevicePixelRatioParams{Ratio: 0}); err == nil {
		t.Error("ratio 0 accepted")
	}
	if err := r.SetDevicePixelRatio(context.Background(), ipc.DevicePixelRatioParams{Ratio: 2}); err != nil {
		t.Errorf("ratio 2: %v", err)
	}
}

func TestRenderer_ServeStopsOnCancel(t *testing.T) {
	r, err := New(Options{})
	if err != nil {
		t.Fatal(err)
	}
	inR, inW := io.Pipe()
	defer inW.Close()
	_, outW := io.Pipe()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Serve(ctx, channel.Line(inR, outW)) }()
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve = %v, want nil after cancel", err)
		}
	case <-time.After(waitTimeout):
		t.Fatal("Serve did not return after cancel")
	}
}
