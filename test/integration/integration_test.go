//go:build integration

// Package integration drives the webview bridge against a real WebContent
// helper built from cmd/webcontent.
//
// These tests spawn processes and call the go tool, so they are kept
// behind the integration build tag.
package integration

import (
	"context"
	"encoding/base64"
	"image/color"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/opd-ai/go-ladybird/internal/gfx"
	"github.com/opd-ai/go-ladybird/internal/process"
	"github.com/opd-ai/go-ladybird/internal/theme"
	"github.com/opd-ai/go-ladybird/pkg/webview"
)

const pumpTimeout = 15 * time.Second

var (
	buildOnce sync.Once
	helperBin string
	buildErr  error
	buildOut  []byte
)

// moduleRoot returns the repository root.
// It calls t.Fatal if runtime.Caller fails.
func moduleRoot(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("runtime.Caller failed to get current file path")
	}
	return filepath.Join(filepath.Dir(file), "..", "..")
}

// webContentBinary builds the helper once per test run.
func webContentBinary(t *testing.T) string {
	t.Helper()
	buildOnce.Do(func() {
		dir, err := os.MkdirTemp("", "ladybird-integration")
		if err != nil {
			buildErr = err
			return
		}
		helperBin = filepath.Join(dir, "WebContent")
		cmd := exec.Command("go", "build", "-o", helperBin, "./cmd/webcontent")
		cmd.Dir = moduleRoot(t)
		buildOut, buildErr = cmd.CombinedOutput()
	})
	if buildErr != nil {
		t.Fatalf("building webcontent: %v\n%s", buildErr, buildOut)
	}
	return helperBin
}

// host records what the renderer reported. Callbacks run inside Pump on
// the test goroutine.
type host struct {
	webview.NopHost
	title       string
	finished    []string
	contentSize gfx.IntSize
}

func (h *host) DidChangeTitle(title string)       { h.title = title }
func (h *host) DidFinishLoad(url string)          { h.finished = append(h.finished, url) }
func (h *host) DidLayout(contentSize gfx.IntSize) { h.contentSize = contentSize }

type fixture struct {
	b     *webview.Bridge
	host  *host
	procs []webview.Process
	mu    sync.Mutex
}

func newFixture(t *testing.T, configure func(*webview.Options)) *fixture {
	t.Helper()
	bin := webContentBinary(t)

	root := t.TempDir()
	themePath := theme.Path(root, theme.DefaultThemeName)
	if err := os.MkdirAll(filepath.Dir(themePath), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(themePath, []byte("[Colors]\nBase=#ffffff\nBaseText=#000000\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	f := &fixture{host: &host{}}
	opts := webview.DefaultOptions()
	opts.ResourceRoot = root
	opts.ViewHost = f.host
	opts.Logger = webview.TextLogger(os.Stderr, slogLevel())
	opts.HelperPaths = func(string) ([]string, error) { return []string{bin}, nil }
	opts.Launch = func(ctx context.Context, req process.LaunchRequest) (webview.Process, error) {
		req.TestMode = true
		h, err := process.Launch(ctx, req)
		if err != nil {
			return nil, err
		}
		f.mu.Lock()
		f.procs = append(f.procs, h)
		f.mu.Unlock()
		return h, nil
	}
	if configure != nil {
		configure(&opts)
	}

	b, err := webview.New(nil, 1, opts)
	if err != nil {
		t.Fatalf("webview.New: %v", err)
	}
	t.Cleanup(func() { b.Close() })
	f.b = b
	return f
}

// pumpUntil pumps the bridge until cond holds.
func (f *fixture) pumpUntil(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.After(pumpTimeout)
	for {
		f.b.Pump()
		if cond() {
			return
		}
		select {
		case <-f.b.Wake():
		case <-time.After(20 * time.Millisecond):
		case <-deadline:
			t.Fatalf("timed out waiting for %s (state %v, err %v)", what, f.b.State(), f.b.Err())
		}
	}
}

func (f *fixture) painted() bool {
	_, ok := f.b.Paintable()
	return ok
}

func htmlURL(html string) string {
	return "data:text/html;base64," + base64.StdEncoding.EncodeToString([]byte(html))
}

func TestLoadAndPaint(t *testing.T) {
	f := newFixture(t, nil)
	size := gfx.IntSize{Width: 320, Height: 240}
	f.b.SetViewportRect(gfx.NewRect(gfx.IntPoint{}, size))

	if err := f.b.Load(htmlURL("<title>Integration</title><h1>Hello</h1><p>from a real renderer</p>")); err != nil {
		t.Fatalf("Load: %v", err)
	}
	f.pumpUntil(t, "title and frame", func() bool {
		return f.host.title == "Integration" && f.painted()
	})

	if f.host.contentSize.Width != size.Width {
		t.Errorf("content width = %d, want %d", f.host.contentSize.Width, size.Width)
	}
	p, _ := f.b.Paintable()
	if p.Size != size {
		t.Fatalf("paintable size = %+v, want %+v", p.Size, size)
	}
	white := color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	if got := p.Bitmap.RGBAAt(0, 0); got != white {
		t.Errorf("background = %v, want white", got)
	}
	if !hasInk(p, white) {
		t.Error("frame has no text")
	}
}

// hasInk reports whether the painted region holds any pixel other than bg.
func hasInk(p webview.Paintable, bg color.RGBA) bool {
	for y := 0; y < p.Size.Height; y++ {
		for x := 0; x < p.Size.Width; x++ {
			if p.Bitmap.RGBAAt(x, y) != bg {
				return true
			}
		}
	}
	return false
}

func TestFileNavigation(t *testing.T) {
	f := newFixture(t, nil)
	f.b.SetViewportRect(gfx.IntRect{Width: 200, Height: 100})

	page := filepath.Join(t.TempDir(), "page.html")
	if err := os.WriteFile(page, []byte("<title>On disk</title><p>served through a shared descriptor</p>"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := f.b.Load("file://" + page); err != nil {
		t.Fatalf("Load: %v", err)
	}
	f.pumpUntil(t, "file page title", func() bool { return f.host.title == "On disk" })
	if got := f.b.Metrics().Snapshot().FileRequests; got != 1 {
		t.Errorf("FileRequests = %d, want 1", got)
	}
}

func TestMissingFileShowsError(t *testing.T) {
	f := newFixture(t, nil)
	missing := filepath.Join(t.TempDir(), "missing.html")
	if err := f.b.Load("file://" + missing); err != nil {
		t.Fatalf("Load: %v", err)
	}
	f.pumpUntil(t, "error page", func() bool { return f.host.title == "Error" })
	if got := f.b.Metrics().Snapshot().FileRequestErrors; got != 1 {
		t.Errorf("FileRequestErrors = %d, want 1", got)
	}
}

func TestCrashRecovery(t *testing.T) {
	f := newFixture(t, func(o *webview.Options) {
		o.Recovery = webview.RecoveryPolicy{MaxConsecutiveCrashes: 2, InitialDelay: 10 * time.Millisecond, MaxDelay: 50 * time.Millisecond}
	})
	f.b.SetViewportRect(gfx.IntRect{Width: 200, Height: 100})

	url := htmlURL("<title>Survivor</title><p>reloaded after a crash</p>")
	if err := f.b.Load(url); err != nil {
		t.Fatalf("Load: %v", err)
	}
	f.pumpUntil(t, "first paint", func() bool { return f.host.title == "Survivor" && f.painted() })

	f.host.title = ""
	f.host.finished = nil
	paintedBefore := f.b.Metrics().Snapshot().PaintsCompleted
	f.mu.Lock()
	first := f.procs[0]
	f.mu.Unlock()
	if err := first.Kill(); err != nil {
		t.Fatalf("Kill: %v", err)
	}

	f.pumpUntil(t, "reload in a new renderer", func() bool {
		return f.host.title == "Survivor" && f.b.State() == webview.StateConnected
	})
	white := color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	f.pumpUntil(t, "text painted by the new renderer", func() bool {
		if f.b.Metrics().Snapshot().PaintsCompleted <= paintedBefore {
			return false
		}
		p, ok := f.b.Paintable()
		return ok && hasInk(p, white)
	})
	f.mu.Lock()
	launched := len(f.procs)
	f.mu.Unlock()
	if launched != 2 {
		t.Errorf("launched %d renderers, want 2", launched)
	}
	if len(f.host.finished) == 0 || f.host.finished[len(f.host.finished)-1] != url {
		t.Errorf("finished loads after recovery = %v", f.host.finished)
	}
	if got := f.b.Metrics().Snapshot().Crashes; got != 1 {
		t.Errorf("Crashes = %d, want 1", got)
	}
}

func slogLevel() slog.Level {
	if os.Getenv("LADYBIRD_DEBUG") != "" {
		return slog.LevelDebug
	}
	return slog.LevelWarn
}
