// Package ipctest provides an in-memory renderer for exercising the shell
// side of the renderer protocol without spawning a process.
package ipctest

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/channel"

	"github.com/opd-ai/go-ladybird/internal/ipc"
)

// Call is one command received by a Renderer.
type Call struct {
	Method string
	Params any
}

// Renderer records every command it receives and can push notifications
// back to the shell.
type Renderer struct {
	mu      sync.Mutex
	calls   []Call
	changed chan struct{}

	srv      *jrpc2.Server
	notifier *ipc.Notifier
	in       *io.PipeReader
}

var _ ipc.Renderer = (*Renderer)(nil)

// NewRenderer returns a renderer that is not yet serving.
func NewRenderer() *Renderer {
	return &Renderer{changed: make(chan struct{}, 1)}
}

// Serve starts r on an in-memory pipe pair framed like a process's stdio
// and returns the shell's end.
func (r *Renderer) Serve() channel.Channel {
	inR, inW := io.Pipe()
	outR, outW := io.Pipe()
	r.in = inR
	r.srv = ipc.NewServer(r, nil).Start(channel.Line(inR, outW))
	r.notifier = ipc.NewNotifier(r.srv)
	return channel.Line(outR, inW)
}

// Stop shuts the server down. The shell sees end of input, and its
// further writes fail as they would on a dead process's pipe.
func (r *Renderer) Stop() {
	if r.srv != nil {
		r.srv.Stop()
	}
	if r.in != nil {
		r.in.CloseWithError(io.ErrClosedPipe)
	}
}

// Notifier returns the notification pusher. Serve must have been called.
func (r *Renderer) Notifier() *ipc.Notifier {
	return r.notifier
}

// Calls returns a copy of every command received so far.
func (r *Renderer) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call, len(r.calls))
	copy(out, r.calls)
	return out
}

// CallsTo returns the received commands with the given method.
func (r *Renderer) CallsTo(method string) []Call {
	var out []Call
	for _, c := range r.Calls() {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

// WaitFor blocks until at least n commands with method have arrived.
func (r *Renderer) WaitFor(method string, n int, timeout time.Duration) ([]Call, error) {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	for {
		if calls := r.CallsTo(method); len(calls) >= n {
			return calls, nil
		}
		select {
		case <-r.changed:
		case <-deadline.C:
			return nil, fmt.Errorf("timed out waiting for %d %s (have %d)", n, method, len(r.CallsTo(method)))
		}
	}
}

func (r *Renderer) record(method string, params any) error {
	r.mu.Lock()
	r.calls = append(r.calls, Call{Method: method, Params: params})
	r.mu.Unlock()
	select {
	case r.changed <- struct{}{}:
	default:
	}
	return nil
}

func (r *Renderer) SetWindowHandle(_ context.Context, p ipc.SetWindowHandleParams) error {
	return r.record(ipc.MethodSetWindowHandle, p)
}

func (r *Renderer) SetDevicePixelRatio(_ context.Context, p ipc.DevicePixelRatioParams) error {
	return r.record(ipc.MethodSetDevicePixelRatio, p)
}

func (r *Renderer) UpdateSystemFonts(_ context.Context, p ipc.SystemFontsParams) error {
	return r.record(ipc.MethodUpdateSystemFonts, p)
}

func (r *Renderer) UpdateSystemTheme(_ context.Context, p ipc.SystemThemeParams) error {
	return r.record(ipc.MethodUpdateSystemTheme, p)
}

func (r *Renderer) UpdateScreenRects(_ context.Context, p ipc.ScreenRectsParams) error {
	return r.record(ipc.MethodUpdateScreenRects, p)
}

func (r *Renderer) SetViewportRect(_ context.Context, p ipc.ViewportRectParams) error {
	return r.record(ipc.MethodSetViewportRect, p)
}

func (r *Renderer) AddBackingStore(_ context.Context, p ipc.AddBackingStoreParams) error {
	return r.record(ipc.MethodAddBackingStore, p)
}

func (r *Renderer) Paint(_ context.Context, p ipc.PaintParams) error {
	return r.record(ipc.MethodPaint, p)
}

func (r *Renderer) LoadURL(_ context.Context, p ipc.LoadURLParams) error {
	return r.record(ipc.MethodLoadURL, p)
}

func (r *Renderer) LoadHTML(_ context.Context, p ipc.LoadHTMLParams) error {
	return r.record(ipc.MethodLoadHTML, p)
}

func (r *Renderer) MouseEvent(_ context.Context, p ipc.MouseEventParams) error {
	return r.record(ipc.MethodMouseEvent, p)
}

func (r *Renderer) KeyEvent(_ context.Context, p ipc.KeyEventParams) error {
	return r.record(ipc.MethodKeyEvent, p)
}

func (r *Renderer) AlertClosed(_ context.Context) error {
	return r.record(ipc.MethodAlertClosed, nil)
}

func (r *Renderer) ConfirmClosed(_ context.Context, p ipc.ConfirmClosedParams) error {
	return r.record(ipc.MethodConfirmClosed, p)
}

func (r *Renderer) PromptClosed(_ context.Context, p ipc.PromptClosedParams) error {
	return r.record(ipc.MethodPromptClosed, p)
}

func (r *Renderer) HandleFileReturn(_ context.Context, p ipc.HandleFileReturnParams) error {
	return r.record(ipc.MethodHandleFileReturn, p)
}

// Process is an in-memory stand-in for a launched renderer process.
type Process struct {
	Renderer *Renderer

	ch     channel.Channel
	exited chan struct{}
	once   sync.Once
	killed atomic.Bool
}

// NewProcess starts a serving Renderer wrapped as a process.
func NewProcess() *Process {
	r := NewRenderer()
	return &Process{
		Renderer: r,
		ch:       r.Serve(),
		exited:   make(chan struct{}),
	}
}

// Channel returns the shell's end of the connection.
func (p *Process) Channel() channel.Channel { return p.ch }

// Exited is closed once the process has gone away.
func (p *Process) Exited() <-chan struct{} { return p.exited }

// Kill terminates the process on the shell's request.
func (p *Process) Kill() error {
	p.killed.Store(true)
	p.exit()
	return nil
}

// Crash terminates the process as if it died on its own.
func (p *Process) Crash() {
	p.exit()
}

// Killed reports whether Kill was called.
func (p *Process) Killed() bool {
	return p.killed.Load()
}

func (p *Process) exit() {
	p.once.Do(func() {
		p.Renderer.Stop()
		close(p.exited)
	})
}
