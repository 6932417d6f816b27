package webview

import (
	"image"
	"time"

	"github.com/opd-ai/go-ladybird/internal/gfx"
	"github.com/opd-ai/go-ladybird/internal/ipc"
)

// Paintable is a frame ready to be presented. Only the top-left Size region
// of Bitmap holds painted content. The bitmap belongs to the bridge and is
// valid until the next Pump.
type Paintable struct {
	Bitmap *image.RGBA
	Size   gfx.IntSize
}

// Paintable returns the frame to present: the front backing store once the
// current renderer has painted, otherwise the last frame kept from a
// previous renderer. ok is false when there is nothing to show.
func (b *Bridge) Paintable() (p Paintable, ok bool) {
	if b.client.hasUsableBitmap {
		if front := b.client.frontSlot(); front.bitmap != nil {
			return Paintable{Bitmap: front.bitmap, Size: front.lastPaintedSize}, true
		}
	}
	if b.backup != nil {
		return Paintable{Bitmap: b.backup, Size: b.backupSize}, true
	}
	return Paintable{}, false
}

// ViewportRect returns the visible content rectangle.
func (b *Bridge) ViewportRect() gfx.IntRect {
	return b.viewportRect
}

// SetViewportRect updates the visible content rectangle, tells the
// renderer and requests a repaint at the new geometry.
func (b *Bridge) SetViewportRect(rect gfx.IntRect) {
	b.viewportRect = rect
	if conn := b.client.conn; conn != nil {
		if err := conn.SetViewportRect(b.ctx, rect); err != nil {
			b.logger.Warn("sending viewport", "error", err)
		}
	}
	b.resizeBackingStores()
	b.requestRepaint()
}

// HandleResize reallocates the backing stores for the current viewport if
// needed and requests a repaint.
func (b *Bridge) HandleResize() {
	b.resizeBackingStores()
	b.requestRepaint()
}

// HandleScroll requests a repaint after the view scrolled.
func (b *Bridge) HandleScroll() {
	b.requestRepaint()
}

// UpdateZoom is called when the zoom level changes. Zoom is applied by the
// renderer through the viewport, so there is nothing to do here.
func (b *Bridge) UpdateZoom() {}

// DevicePixelRatio returns the device pixels per CSS pixel.
func (b *Bridge) DevicePixelRatio() float64 {
	return b.dpr
}

// InverseDevicePixelRatio returns 1 / DevicePixelRatio.
func (b *Bridge) InverseDevicePixelRatio() float64 {
	return 1 / b.dpr
}

// ToContentPosition maps a widget position to content coordinates.
func (b *Bridge) ToContentPosition(p gfx.IntPoint) gfx.IntPoint {
	return p
}

// ToWidgetPosition maps a content position to widget coordinates.
func (b *Bridge) ToWidgetPosition(p gfx.IntPoint) gfx.IntPoint {
	return p
}

func (b *Bridge) allocBitmapID() int {
	b.nextBitmapID++
	return b.nextBitmapID
}

// resizeBackingStores allocates a fresh front/back pair when the viewport
// size no longer matches. The current front frame, if painted, is kept as
// the backup so the view has something to show until the first paint at
// the new size.
func (b *Bridge) resizeBackingStores() {
	size := b.viewportRect.Size()
	if size.IsEmpty() || b.client.conn == nil {
		return
	}
	front, back := b.client.frontSlot(), b.client.backSlot()
	if front.bitmap != nil && back.bitmap != nil &&
		gfx.BitmapSize(front.bitmap) == size && gfx.BitmapSize(back.bitmap) == size {
		return
	}

	b.keepFrontAsBackup()
	b.client.hasUsableBitmap = false
	b.client.repaintWhilePainting = false

	frontID, backID := b.allocBitmapID(), b.allocBitmapID()
	*front = slot{id: frontID, bitmap: gfx.NewBitmap(size)}
	*back = slot{id: backID, bitmap: gfx.NewBitmap(size)}

	b.logger.Debug("allocated backing stores", "front", frontID, "back", backID, "size", size)
	if err := b.client.conn.AddBackingStore(b.ctx, frontID, backID, size); err != nil {
		b.logger.Warn("announcing backing stores", "error", err)
	}
}

// keepFrontAsBackup hands the painted front bitmap over to the backup so
// it outlives the current backing stores.
func (b *Bridge) keepFrontAsBackup() {
	front := b.client.frontSlot()
	if b.client.hasUsableBitmap && front.bitmap != nil {
		b.backup, b.backupSize = front.bitmap, front.lastPaintedSize
	}
}

// requestRepaint asks the renderer to paint the back store. While a paint
// is outstanding further requests collapse into a single follow-up issued
// when it completes.
func (b *Bridge) requestRepaint() {
	back := b.client.backSlot()
	if back.bitmap == nil || b.client.conn == nil {
		return
	}
	if back.pendingPaints > 0 {
		b.client.repaintWhilePainting = true
		b.metrics.IncrementCoalescedRepaints()
		return
	}

	back.pendingPaints++
	back.requestedAt = time.Now()
	b.metrics.IncrementPaintsRequested()

	rect := gfx.NewRect(b.viewportRect.Location(), gfx.BitmapSize(back.bitmap))
	if err := b.client.conn.Paint(b.ctx, rect, back.id); err != nil {
		b.logger.Warn("requesting paint", "bitmap", back.id, "error", err)
	}
}

// didPaint completes a paint into the back store and swaps it to the front.
// A paint for any other bitmap is stale and ignored.
func (b *Bridge) didPaint(p ipc.DidPaintParams) {
	back := b.client.backSlot()
	if back.bitmap == nil || p.BitmapID != back.id {
		b.metrics.IncrementStalePaints()
		b.logger.Debug("ignoring stale paint", "bitmap", p.BitmapID, "back", back.id)
		return
	}

	if back.pendingPaints > 0 {
		back.pendingPaints--
	}
	if len(p.Pixels) > 0 {
		if err := ipc.DecodePixelsInto(back.bitmap, p.Size, p.Pixels); err != nil {
			// The back store holds an older frame; keep presenting the
			// current one and honor any repaint that was waiting.
			back.requestedAt = time.Time{}
			b.logger.Warn("decoding paint", "bitmap", p.BitmapID, "error", err)
			b.notifyError(runtimeError("decode paint", err))
			if b.client.repaintWhilePainting {
				b.client.repaintWhilePainting = false
				b.requestRepaint()
			}
			return
		}
	}

	b.client.hasUsableBitmap = true
	back.lastPaintedSize = p.Size
	if !back.requestedAt.IsZero() {
		b.metrics.RecordPaintLatency(time.Since(back.requestedAt))
		back.requestedAt = time.Time{}
	}
	b.client.swap()

	b.backup, b.backupSize = nil, gfx.IntSize{}
	b.lastPaint = time.Now()
	b.metrics.IncrementPaintsCompleted()
	b.recovery.succeeded()

	if b.onReadyToPaint != nil {
		b.onReadyToPaint()
	}
	if b.client.repaintWhilePainting {
		b.client.repaintWhilePainting = false
		b.requestRepaint()
	}
}
