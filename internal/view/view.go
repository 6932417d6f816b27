// Package view presents a web view in an Ebiten window. The Game pumps the
// bridge from its update loop, draws the latest painted frame, forwards
// input and shows tooltips and dialogs requested by the page.
package view

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/opd-ai/go-ladybird/internal/gfx"
	"github.com/opd-ai/go-ladybird/internal/ipc"
	"github.com/opd-ai/go-ladybird/internal/theme"
	"github.com/opd-ai/go-ladybird/pkg/webview"
)

// ErrTerminated is returned from Update when the game context is cancelled.
var ErrTerminated = errors.New("view terminated")

// ErrorHandler is a function type for handling errors during updates.
type ErrorHandler func(err error)

// DefaultErrorHandler writes errors to stderr.
func DefaultErrorHandler(err error) {
	fmt.Fprintf(os.Stderr, "view error: %v\n", err)
}

// Bridge is the part of *webview.Bridge the view drives. All methods are
// called from the update loop.
type Bridge interface {
	Pump() int
	Paintable() (webview.Paintable, bool)
	OnReadyToPaint(fn func())
	ViewportRect() gfx.IntRect
	SetViewportRect(rect gfx.IntRect)
	DevicePixelRatio() float64
	SendMouseEvent(ev ipc.MouseEventParams) error
	SendKeyEvent(ev ipc.KeyEventParams) error
	AlertClosed() error
	ConfirmClosed(accepted bool) error
	PromptClosed(response *string) error
	State() webview.State
	Err() error
}

var _ Bridge = (*webview.Bridge)(nil)

// Config holds window and overlay settings.
type Config struct {
	Width  int
	Height int
	Title  string

	Background  color.RGBA
	Panel       color.RGBA
	PanelText   color.RGBA
	Tooltip     color.RGBA
	TooltipText color.RGBA

	// WheelStep is the scroll distance of one wheel notch in device pixels.
	WheelStep int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Width:       800,
		Height:      600,
		Title:       "Ladybird",
		Background:  color.RGBA{R: 255, G: 255, B: 255, A: 255},
		Panel:       color.RGBA{R: 212, G: 208, B: 200, A: 255},
		PanelText:   color.RGBA{A: 255},
		Tooltip:     color.RGBA{R: 255, G: 255, B: 225, A: 255},
		TooltipText: color.RGBA{A: 255},
		WheelStep:   48,
	}
}

// WithTheme overrides the colors the theme defines.
func (c Config) WithTheme(t theme.Theme) Config {
	for role, dst := range map[string]*color.RGBA{
		"Base":        &c.Background,
		"Window":      &c.Panel,
		"WindowText":  &c.PanelText,
		"Tooltip":     &c.Tooltip,
		"TooltipText": &c.TooltipText,
	} {
		if v, ok := t.Color(role); ok {
			*dst = v
		}
	}
	return c
}

// Game implements ebiten.Game and webview's host interfaces.
type Game struct {
	mu           sync.Mutex
	config       Config
	ctx          context.Context
	errorHandler ErrorHandler
	dpr          float64
	outside      gfx.IntSize
	running      bool

	// Owned by the update loop.
	bridge    Bridge
	text      TextDrawer
	titleText TextDrawer
	poll      func() inputState
	setCursor func(gfx.StandardCursor)
	setTitle  func(string)

	frame      *ebiten.Image
	frameSrc   *image.RGBA
	frameDirty bool

	contentSize gfx.IntSize
	cursor      gfx.StandardCursor
	title       string
	url         string
	tooltip     *tooltip
	dialog      *dialog
	input       inputTracker
	unhandled   int
}

// NewGame creates a Game. fonts may be nil, in which case overlays are
// drawn without text.
func NewGame(config Config, fonts *Fonts) *Game {
	g := &Game{
		config:       config,
		errorHandler: DefaultErrorHandler,
		dpr:          1,
		poll:         pollInput,
		setCursor:    applyCursor,
		setTitle:     ebiten.SetWindowTitle,
		title:        config.Title,
	}
	if fonts != nil {
		g.text, g.titleText = fonts.Default, fonts.WindowTitle
	}
	return g
}

// Attach connects the bridge. It must be called before Run.
func (g *Game) Attach(b Bridge) {
	g.bridge = b
	b.OnReadyToPaint(func() { g.frameDirty = true })

	g.mu.Lock()
	g.dpr = b.DevicePixelRatio()
	g.mu.Unlock()
}

// SetErrorHandler sets a custom error handler for update errors.
// If nil is passed, errors will be silently ignored.
func (g *Game) SetErrorHandler(handler ErrorHandler) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.errorHandler = handler
}

// SetContext sets a context for the game loop. When the context is cancelled,
// the game loop will terminate gracefully.
func (g *Game) SetContext(ctx context.Context) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ctx = ctx
}

func (g *Game) reportError(err error) {
	g.mu.Lock()
	handler := g.errorHandler
	g.mu.Unlock()
	if handler != nil && err != nil {
		handler(err)
	}
}

// Update implements ebiten.Game.Update.
func (g *Game) Update() error {
	g.mu.Lock()
	ctx, size := g.ctx, g.outside
	g.mu.Unlock()

	if ctx != nil {
		select {
		case <-ctx.Done():
			return ErrTerminated
		default:
		}
	}
	if g.bridge == nil {
		return nil
	}

	g.syncViewport(size)
	g.bridge.Pump()
	g.handleInput(g.poll())
	return nil
}

// syncViewport resizes the viewport to the window, keeping the scroll
// position inside the content.
func (g *Game) syncViewport(size gfx.IntSize) {
	if size.IsEmpty() {
		return
	}
	vp := g.bridge.ViewportRect()
	if vp.Size() == size {
		return
	}
	loc := g.clampScroll(vp.Location(), size)
	g.bridge.SetViewportRect(gfx.NewRect(loc, size))
}

// Draw implements ebiten.Game.Draw.
func (g *Game) Draw(screen *ebiten.Image) {
	g.mu.Lock()
	cfg := g.config
	g.mu.Unlock()

	screen.Fill(cfg.Background)
	if g.bridge == nil {
		return
	}

	if p, ok := g.bridge.Paintable(); ok {
		g.drawFrame(screen, p)
	}
	g.drawStatus(screen, cfg)
	g.drawTooltip(screen, cfg)
	g.drawDialog(screen, cfg)
}

// drawFrame uploads the paintable when it changed and draws its painted
// region at the origin.
func (g *Game) drawFrame(screen *ebiten.Image, p webview.Paintable) {
	bounds := p.Bitmap.Bounds()
	if g.frame == nil || g.frame.Bounds().Size() != bounds.Size() {
		if g.frame != nil {
			g.frame.Deallocate()
		}
		g.frame = ebiten.NewImage(bounds.Dx(), bounds.Dy())
		g.frameSrc = nil
	}
	if g.frameDirty || g.frameSrc != p.Bitmap {
		g.frame.WritePixels(p.Bitmap.Pix)
		g.frameSrc = p.Bitmap
		g.frameDirty = false
	}

	painted := image.Rect(0, 0, p.Size.Width, p.Size.Height).Intersect(g.frame.Bounds())
	if painted.Empty() {
		return
	}
	screen.DrawImage(g.frame.SubImage(painted).(*ebiten.Image), nil)
}

// Layout implements ebiten.Game.Layout. The screen is in device pixels.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	w := int(math.Ceil(float64(outsideWidth) * g.dpr))
	h := int(math.Ceil(float64(outsideHeight) * g.dpr))
	g.outside = gfx.IntSize{Width: w, Height: h}
	return w, h
}

// Config returns the current configuration.
func (g *Game) Config() Config {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.config
}

// SetConfig replaces the configuration, for theme reloads.
func (g *Game) SetConfig(config Config) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.config = config
}

// Run opens the window and blocks until it is closed or the context is
// cancelled.
func (g *Game) Run() error {
	g.mu.Lock()
	cfg := g.config
	g.running = true
	g.mu.Unlock()

	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	err := ebiten.RunGame(g)

	g.mu.Lock()
	g.running = false
	g.mu.Unlock()

	if errors.Is(err, ErrTerminated) {
		return nil
	}
	return err
}

// IsRunning returns whether the game loop is currently running.
func (g *Game) IsRunning() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.running
}
