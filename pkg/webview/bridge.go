package webview

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/opd-ai/go-ladybird/internal/gfx"
	"github.com/opd-ai/go-ladybird/internal/ipc"
	"github.com/opd-ai/go-ladybird/internal/process"
	"github.com/opd-ai/go-ladybird/internal/theme"
)

// Bridge connects a view to an out-of-process renderer.
//
// A Bridge is owned by one goroutine, the UI goroutine. Unless stated
// otherwise its methods must only be called from there. Renderer
// notifications and process exits are queued by background goroutines and
// applied when the UI goroutine calls Pump, typically after Wake fires.
type Bridge struct {
	opts    Options
	logger  Logger
	metrics *Metrics
	ctx     context.Context
	cancel  context.CancelFunc
	queue   *taskQueue

	client       clientState
	gen          uint64
	nextBitmapID int
	viewportRect gfx.IntRect
	screenRects  []gfx.IntRect
	dpr          float64

	// backup is the last good frame from a previous renderer, shown until
	// the current one paints.
	backup     *image.RGBA
	backupSize gfx.IntSize

	notifyHandlers map[string]notifyHandler
	lastURL        string
	// lastHTML is the document given to LoadHTML for lastURL, if any.
	lastHTML       *string
	onReadyToPaint func()
	recovery       *recoveryTracker
	recoveryTimer  *time.Timer
	themeWatcher   *theme.Watcher
	lastPaint      time.Time

	state atomic.Int32

	mu           sync.RWMutex
	err          error
	errorHandler ErrorHandler
	eventHandler EventHandler
}

// clientState is everything tied to one renderer connection. It is reset
// whenever a new renderer is created.
type clientState struct {
	proc   Process
	conn   *ipc.Conn
	handle string

	// slots hold the two backing stores; front indexes the one on screen.
	slots [2]slot
	front int

	hasUsableBitmap      bool
	repaintWhilePainting bool

	files map[int]*os.File
}

// slot is one backing store.
type slot struct {
	id              int
	bitmap          *image.RGBA
	lastPaintedSize gfx.IntSize
	pendingPaints   int
	requestedAt     time.Time
}

func (c *clientState) frontSlot() *slot { return &c.slots[c.front] }
func (c *clientState) backSlot() *slot  { return &c.slots[c.front^1] }

// swap exchanges the roles of the two backing stores.
func (c *clientState) swap() { c.front ^= 1 }

// New creates a bridge and connects it to a freshly launched renderer.
// screenRects and devicePixelRatio describe the display; the viewport
// starts empty until SetViewportRect is called.
//
// On failure no renderer is left running and the error satisfies
// IsConstruction.
func New(screenRects []gfx.IntRect, devicePixelRatio float64, opts Options) (*Bridge, error) {
	opts.applyDefaults()
	if devicePixelRatio <= 0 {
		devicePixelRatio = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	b := &Bridge{
		opts:        opts,
		logger:      opts.Logger,
		metrics:     opts.Metrics,
		ctx:         ctx,
		cancel:      cancel,
		queue:       newTaskQueue(),
		screenRects: append([]gfx.IntRect(nil), screenRects...),
		dpr:         devicePixelRatio,
		recovery:    newRecoveryTracker(opts.Recovery),
	}

	if err := b.createClient(); err != nil {
		b.resetClient()
		cancel()
		return nil, err
	}
	b.setState(StateConnected)

	if opts.WatchTheme {
		if err := b.startThemeWatcher(); err != nil {
			b.logger.Warn("theme watcher unavailable", "error", err)
		}
	}
	return b, nil
}

// CreateClient replaces the current renderer with a fresh one. All
// per-renderer state is reset: backing stores, pending paints and open
// files. Work still queued for the old renderer is discarded.
func (b *Bridge) CreateClient() error {
	switch b.State() {
	case StateClosed:
		return ErrClosed
	}
	if b.recoveryTimer != nil {
		b.recoveryTimer.Stop()
		b.recoveryTimer = nil
	}
	if err := b.createClient(); err != nil {
		b.fail(err)
		return err
	}
	b.setErr(nil)
	b.setState(StateConnected)
	return nil
}

func (b *Bridge) createClient() error {
	b.resetClient()
	b.gen++
	gen := b.gen

	th, err := theme.LoadDefault(b.opts.ResourceRoot)
	if err != nil {
		return constructionError("load theme", err)
	}
	paths, err := b.opts.HelperPaths(process.RoleWebContent)
	if err != nil {
		return constructionError("find renderer", err)
	}
	if len(paths) == 0 {
		return constructionError("find renderer", ErrNoHelperPaths)
	}
	handle, err := uuid.NewRandom()
	if err != nil {
		return constructionError("create session", err)
	}

	proc, err := b.opts.Launch(b.ctx, process.LaunchRequest{
		Role:            process.RoleWebContent,
		CandidatePaths:  paths,
		EnableProfiling: b.opts.EnableProfiling,
		Networking:      b.opts.Networking,
	})
	if err != nil {
		return constructionError("launch renderer", err)
	}

	conn := ipc.NewConn(proc.Channel(), ipc.ConnOptions{
		OnNotify: func(n ipc.Notification) {
			b.queue.post(gen, func() { b.dispatch(n) })
		},
		Logger: protocolLogger(b.logger),
	})
	b.client = clientState{
		proc:   proc,
		conn:   conn,
		handle: handle.String(),
		files:  make(map[int]*os.File),
	}
	go b.watchExit(gen, proc)

	err = errors.Join(
		conn.SetWindowHandle(b.ctx, b.client.handle),
		conn.SetDevicePixelRatio(b.ctx, b.dpr),
		conn.UpdateSystemFonts(b.ctx, b.opts.Fonts),
		conn.UpdateSystemTheme(b.ctx, th),
	)
	if len(b.screenRects) > 0 {
		err = errors.Join(err, conn.UpdateScreenRects(b.ctx, b.screenRects, 0))
	}
	if !b.viewportRect.IsEmpty() {
		err = errors.Join(err, conn.SetViewportRect(b.ctx, b.viewportRect))
	}
	if err != nil {
		b.resetClient()
		return constructionError("initialize renderer", err)
	}

	b.metrics.IncrementClientsCreated()
	b.logger.Info("renderer connected", "session", b.client.handle)
	b.emitEvent(EventClientCreated, b.client.handle)
	return nil
}

// resetClient tears down the current renderer connection, if any.
func (b *Bridge) resetClient() {
	c := b.client
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			b.logger.Debug("closing renderer connection", "error", err)
		}
	}
	if c.proc != nil {
		if err := c.proc.Kill(); err != nil {
			b.logger.Debug("killing renderer", "error", err)
		}
	}
	b.closeFiles()
	b.client = clientState{}
}

func (b *Bridge) watchExit(gen uint64, proc Process) {
	select {
	case <-proc.Exited():
		b.queue.post(gen, b.handleRendererExit)
	case <-b.ctx.Done():
	}
}

// Pump applies the work queued since the previous call, in arrival order,
// and returns how much it took. Work queued while pumping waits for the
// next call.
func (b *Bridge) Pump() int {
	tasks := b.queue.drain()
	for _, t := range tasks {
		if t.gen != 0 && t.gen != b.gen {
			b.metrics.IncrementStaleEvents()
			continue
		}
		t.fn()
	}
	return len(tasks)
}

// Wake receives a value whenever work is queued for Pump. It is safe to
// use from any goroutine.
func (b *Bridge) Wake() <-chan struct{} {
	return b.queue.wake
}

// Close kills the renderer and releases everything the bridge holds. It
// is idempotent.
func (b *Bridge) Close() error {
	if b.State() == StateClosed {
		return nil
	}
	if b.recoveryTimer != nil {
		b.recoveryTimer.Stop()
		b.recoveryTimer = nil
	}
	if b.themeWatcher != nil {
		b.themeWatcher.Stop()
		b.themeWatcher = nil
	}
	b.resetClient()
	b.gen++
	b.cancel()
	b.setState(StateClosed)
	b.logger.Info("bridge closed")
	b.emitEvent(EventClosed, "")
	return nil
}

// State returns the lifecycle state. It is safe to call from any goroutine.
func (b *Bridge) State() State {
	return State(b.state.Load())
}

func (b *Bridge) setState(s State) {
	if old := State(b.state.Swap(int32(s))); old != s {
		b.logger.Debug("bridge state changed", "from", old, "to", s)
	}
}

// Err returns the error that put the bridge in StateFailed, or nil. It is
// safe to call from any goroutine.
func (b *Bridge) Err() error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.err
}

func (b *Bridge) setErr(err error) {
	b.mu.Lock()
	b.err = err
	b.mu.Unlock()
}

// Metrics returns the bridge's metrics collector.
func (b *Bridge) Metrics() *Metrics {
	return b.metrics
}

// SetErrorHandler sets a callback for runtime errors. It is safe to call
// from any goroutine.
func (b *Bridge) SetErrorHandler(handler ErrorHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.errorHandler = handler
}

// SetEventHandler sets a callback for lifecycle events. It is safe to call
// from any goroutine.
func (b *Bridge) SetEventHandler(handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.eventHandler = handler
}

// OnReadyToPaint registers fn to run after each completed paint, once the
// new frame is available from Paintable.
func (b *Bridge) OnReadyToPaint(fn func()) {
	b.onReadyToPaint = fn
}

// notifyError hands err to the error handler without blocking the caller.
func (b *Bridge) notifyError(err error) {
	b.metrics.IncrementErrors()

	b.mu.RLock()
	handler := b.errorHandler
	b.mu.RUnlock()

	if handler == nil {
		return
	}
	logger := b.logger
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("error handler panicked", "panic", r, "original_error", err)
			}
		}()
		handler(err)
	}()
}

// emitEvent hands an event to the event handler without blocking the caller.
func (b *Bridge) emitEvent(eventType EventType, message string) {
	b.metrics.IncrementEventsEmitted()

	b.mu.RLock()
	handler := b.eventHandler
	errHandler := b.errorHandler
	b.mu.RUnlock()

	if handler == nil {
		return
	}
	ev := Event{Type: eventType, Timestamp: time.Now(), Message: message}
	go func() {
		defer func() {
			if r := recover(); r != nil && errHandler != nil {
				if err, ok := r.(error); ok {
					errHandler(fmt.Errorf("panic in event handler: %w", err))
				} else {
					errHandler(fmt.Errorf("panic in event handler: %v", r))
				}
			}
		}()
		handler(ev)
	}()
}

func (b *Bridge) startThemeWatcher() error {
	path := theme.Path(b.opts.ResourceRoot, theme.DefaultThemeName)
	w, err := theme.NewWatcher(path, b.opts.WatchDebounce,
		func() { b.queue.post(0, b.reloadTheme) },
		func(err error) {
			b.queue.post(0, func() { b.logger.Warn("theme watcher error", "error", err) })
		},
	)
	if err != nil {
		return err
	}
	w.Start()
	b.themeWatcher = w
	return nil
}

// reloadTheme pushes the theme file to the renderer again.
func (b *Bridge) reloadTheme() {
	if b.client.conn == nil {
		return
	}
	th, err := theme.LoadDefault(b.opts.ResourceRoot)
	if err != nil {
		b.logger.Warn("reloading theme", "error", err)
		b.notifyError(runtimeError("reload theme", err))
		return
	}
	if err := b.client.conn.UpdateSystemTheme(b.ctx, th); err != nil {
		b.logger.Warn("pushing theme", "error", err)
		return
	}
	b.logger.Info("theme reloaded")
	b.emitEvent(EventThemeReloaded, "")
	b.requestRepaint()
}
