// Package webcontent is a small renderer helper. It reduces pages to text
// blocks, lays them out with the embedded Go fonts and paints them into
// the shell's backing stores over the ipc protocol.
package webcontent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/creachadair/jrpc2/channel"

	"github.com/opd-ai/go-ladybird/internal/gfx"
	"github.com/opd-ai/go-ladybird/internal/ipc"
	"github.com/opd-ai/go-ladybird/internal/process"
	"github.com/opd-ai/go-ladybird/internal/theme"
)

// Options configures a Renderer.
type Options struct {
	Networking process.NetworkingMode
	// TestMode disables network loads.
	TestMode bool
	// HTTPClient fetches http and https URLs. Nil uses a client with a
	// 30 second timeout.
	HTTPClient *http.Client
	// FetchRetries bounds retries of failed network loads.
	FetchRetries uint64
	// OpenFile opens a descriptor the shell shared, given its owner's pid.
	// Nil opens /proc/<pid>/fd/<fd>.
	OpenFile func(file ipc.File) (*os.File, error)
	Logger   *slog.Logger
}

// fileRequest is a file: navigation waiting for the shell to open it.
type fileRequest struct {
	url    string
	path   string
	loadID int
}

// Renderer implements ipc.Renderer. Commands arrive one at a time; network
// loads finish on their own goroutines, so all state is behind mu.
type Renderer struct {
	opts    Options
	logger  *slog.Logger
	fetcher *fetcher

	mu       sync.Mutex
	notifier *ipc.Notifier
	handle   string
	dpr      float64
	fonts    theme.FontQueries
	faces    *faces
	colors   palette
	screens  []gfx.IntRect
	viewport gfx.IntRect
	stores   map[int]gfx.IntSize
	doc      Document
	layout   Layout

	loadID      int
	cancelLoad  context.CancelFunc
	files       map[int]fileRequest
	nextRequest int
	hovered     int
	cursor      gfx.StandardCursor
}

var _ ipc.Renderer = (*Renderer)(nil)

// New returns a renderer that has not started serving.
func New(opts Options) (*Renderer, error) {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.FetchRetries == 0 {
		opts.FetchRetries = 3
	}
	if opts.OpenFile == nil {
		opts.OpenFile = openSharedFile
	}

	fs, err := newFaces(theme.DefaultFontQueries(), 1)
	if err != nil {
		return nil, err
	}
	return &Renderer{
		opts:    opts,
		logger:  opts.Logger,
		fetcher: &fetcher{client: opts.HTTPClient, maxRetries: opts.FetchRetries, initial: 200 * time.Millisecond},
		dpr:     1,
		fonts:   theme.DefaultFontQueries(),
		faces:   fs,
		colors:  defaultPalette(),
		stores:  make(map[int]gfx.IntSize),
		files:   make(map[int]fileRequest),
		hovered: -1,
		cursor:  gfx.CursorArrow,
		doc:     Document{URL: "about:blank"},
	}, nil
}

// Serve answers commands on ch until the shell goes away or ctx is done.
func (r *Renderer) Serve(ctx context.Context, ch channel.Channel) error {
	r.mu.Lock()
	srv := ipc.NewServer(r, func(text string) { r.logger.Debug(text) }).Start(ch)
	r.notifier = ipc.NewNotifier(srv)
	r.mu.Unlock()

	stop := context.AfterFunc(ctx, srv.Stop)
	defer stop()

	err := srv.Wait()

	r.mu.Lock()
	if r.cancelLoad != nil {
		r.cancelLoad()
	}
	r.faces.close()
	r.mu.Unlock()

	if ctx.Err() != nil || errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) {
		return nil
	}
	return err
}

// notify pushes a notification. Called with mu held.
func (r *Renderer) notify(method string, params any) {
	if r.notifier == nil {
		return
	}
	if err := r.notifier.Notify(context.Background(), method, params); err != nil {
		r.logger.Warn("sending notification", "method", method, "error", err)
	}
}

func (r *Renderer) SetWindowHandle(_ context.Context, p ipc.SetWindowHandleParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handle = p.Handle
	r.logger.Info("attached to window", "session", p.Handle)
	return nil
}

func (r *Renderer) SetDevicePixelRatio(_ context.Context, p ipc.DevicePixelRatioParams) error {
	if p.Ratio <= 0 {
		return fmt.Errorf("invalid device pixel ratio %v", p.Ratio)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dpr = p.Ratio
	return r.reloadFaces()
}

func (r *Renderer) UpdateSystemFonts(_ context.Context, p ipc.SystemFontsParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fonts = p.Fonts.WithDefaults()
	return r.reloadFaces()
}

// reloadFaces rebuilds the faces and lays the page out again.
func (r *Renderer) reloadFaces() error {
	fs, err := newFaces(r.fonts, r.dpr)
	if err != nil {
		return err
	}
	r.faces.close()
	r.faces = fs
	r.relayout()
	return nil
}

func (r *Renderer) UpdateSystemTheme(_ context.Context, p ipc.SystemThemeParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.colors = paletteFromTheme(p.Theme)
	r.logger.Debug("theme updated", "theme", p.Theme.Name)
	r.invalidate()
	return nil
}

func (r *Renderer) UpdateScreenRects(_ context.Context, p ipc.ScreenRectsParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.screens = p.Rects
	return nil
}

func (r *Renderer) SetViewportRect(_ context.Context, p ipc.ViewportRectParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	widthChanged := p.Rect.Width != r.viewport.Width
	r.viewport = p.Rect
	if widthChanged {
		r.relayout()
	}
	return nil
}

func (r *Renderer) AddBackingStore(_ context.Context, p ipc.AddBackingStoreParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.stores)
	r.stores[p.FrontID] = p.Size
	r.stores[p.BackID] = p.Size
	r.logger.Debug("backing stores", "front", p.FrontID, "back", p.BackID, "size", p.Size)
	return nil
}

// Paint renders rect of the page into the bitmap and sends it back.
func (r *Renderer) Paint(_ context.Context, p ipc.PaintParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	storeSize, ok := r.stores[p.BitmapID]
	if !ok {
		r.logger.Warn("paint into unknown bitmap", "bitmap", p.BitmapID)
		return nil
	}
	size := gfx.IntSize{
		Width:  min(p.Rect.Width, storeSize.Width),
		Height: min(p.Rect.Height, storeSize.Height),
	}
	bmp := gfx.NewBitmap(size)
	if bmp == nil {
		return nil
	}
	paintLayout(bmp, r.layout, p.Rect.Location(), r.faces, r.colors)

	pixels, err := ipc.EncodePixels(bmp, size)
	if err != nil {
		return err
	}
	r.notify(ipc.NotifyDidPaint, ipc.DidPaintParams{BitmapID: p.BitmapID, Size: size, Pixels: pixels})
	return nil
}

func (r *Renderer) LoadURL(_ context.Context, p ipc.LoadURLParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.navigate(p.URL)
	return nil
}

func (r *Renderer) LoadHTML(_ context.Context, p ipc.LoadHTMLParams) error {
	doc, err := ParseHTML(strings.NewReader(p.HTML), p.URL)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.beginLoad()
	if err != nil {
		doc = ErrorDocument(p.URL, err)
	}
	r.setDocument(doc)
	return nil
}

// beginLoad starts a new navigation, abandoning any load in flight.
func (r *Renderer) beginLoad() int {
	if r.cancelLoad != nil {
		r.cancelLoad()
		r.cancelLoad = nil
	}
	r.loadID++
	return r.loadID
}

// navigate loads rawURL. Called with mu held.
func (r *Renderer) navigate(rawURL string) {
	id := r.beginLoad()
	r.logger.Info("loading", "url", rawURL)

	u, err := url.Parse(rawURL)
	if err != nil {
		r.setDocument(ErrorDocument(rawURL, err))
		return
	}
	switch u.Scheme {
	case "about":
		doc, err := aboutDocument(u, rawURL)
		if err != nil {
			doc = ErrorDocument(rawURL, err)
		}
		r.setDocument(doc)
	case "data":
		doc, err := dataDocument(rawURL)
		if err != nil {
			doc = ErrorDocument(rawURL, err)
		}
		r.setDocument(doc)
	case "file":
		r.nextRequest++
		r.files[r.nextRequest] = fileRequest{url: rawURL, path: u.Path, loadID: id}
		r.notify(ipc.NotifyDidRequestFile, ipc.FileRequestParams{Path: u.Path, RequestID: r.nextRequest})
	case "http", "https":
		if r.opts.TestMode {
			r.setDocument(ErrorDocument(rawURL, ErrNetworkDisabled))
			return
		}
		ctx, cancel := context.WithCancel(context.Background())
		r.cancelLoad = cancel
		go r.fetchInBackground(ctx, id, rawURL)
	default:
		r.setDocument(ErrorDocument(rawURL, fmt.Errorf("%q: %w", u.Scheme, ErrUnsupportedScheme)))
	}
}

func (r *Renderer) fetchInBackground(ctx context.Context, id int, rawURL string) {
	doc, err := r.fetcher.fetch(ctx, rawURL)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		doc = ErrorDocument(rawURL, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if id != r.loadID {
		return
	}
	r.cancelLoad = nil
	r.setDocument(doc)
}

// HandleFileReturn completes a file: navigation with the descriptor the
// shell opened.
func (r *Renderer) HandleFileReturn(_ context.Context, p ipc.HandleFileReturnParams) error {
	r.mu.Lock()
	req, ok := r.files[p.RequestID]
	delete(r.files, p.RequestID)
	r.mu.Unlock()
	if !ok {
		r.logger.Warn("file return for unknown request", "request", p.RequestID)
		return nil
	}

	var doc Document
	switch {
	case p.Error != 0:
		doc = ErrorDocument(req.url, &os.PathError{Op: "open", Path: req.path, Err: syscall.Errno(p.Error)})
	case p.File == nil:
		doc = ErrorDocument(req.url, fmt.Errorf("open %s: no file returned", req.path))
	default:
		doc = r.readSharedFile(req, *p.File)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if p.Error == 0 && p.File != nil {
		r.notify(ipc.NotifyDidCloseFile, ipc.FileReleaseParams{RequestID: p.RequestID})
	}
	if req.loadID != r.loadID {
		return nil
	}
	r.setDocument(doc)
	return nil
}

func (r *Renderer) readSharedFile(req fileRequest, file ipc.File) Document {
	f, err := r.opts.OpenFile(file)
	if err != nil {
		return ErrorDocument(req.url, err)
	}
	defer f.Close()

	body, err := io.ReadAll(io.LimitReader(f, maxDocumentSize))
	if err != nil {
		return ErrorDocument(req.url, err)
	}
	doc, err := decodeDocument(body, mediaTypeForPath(req.path), req.url)
	if err != nil {
		return ErrorDocument(req.url, err)
	}
	return doc
}

func openSharedFile(file ipc.File) (*os.File, error) {
	return os.Open(fmt.Sprintf("/proc/%d/fd/%d", file.PID, file.FD))
}

// setDocument replaces the page and tells the shell about it. Called with
// mu held.
func (r *Renderer) setDocument(doc Document) {
	r.doc = doc

	title := doc.Title
	if title == "" {
		title = doc.URL
	}
	r.notify(ipc.NotifyDidChangeTitle, ipc.TitleParams{Title: title})
	r.relayout()
	r.notify(ipc.NotifyDidRequestScrollTo, ipc.PointParams{})
	r.notify(ipc.NotifyDidFinishLoad, ipc.LoadFinishedParams{URL: doc.URL})
}

// relayout lays the page out at the viewport width and reports the new
// content size. Called with mu held.
func (r *Renderer) relayout() {
	if r.viewport.Width <= 0 {
		return
	}
	r.hover(-1)
	r.layout = layoutDocument(r.doc, r.faces, r.viewport.Width, r.dpr)
	r.notify(ipc.NotifyDidLayout, ipc.DidLayoutParams{ContentSize: r.layout.Size})
	r.invalidate()
}

// invalidate asks the shell to repaint the viewport. Called with mu held.
func (r *Renderer) invalidate() {
	if r.viewport.IsEmpty() {
		return
	}
	r.notify(ipc.NotifyDidInvalidateContentRect, ipc.RectParams{Rect: r.viewport})
}
