package view

import (
	"image/color"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/opd-ai/go-ladybird/pkg/webview"
)

const (
	overlayPadding = 8
	tooltipOffset  = 20
	dialogWidth    = 420
)

// statusText describes a bridge without a live renderer, or "" when
// there is nothing to report.
func (g *Game) statusText() string {
	switch g.bridge.State() {
	case webview.StateCrashPending, webview.StateRecreating:
		return "The renderer crashed and is restarting."
	case webview.StateFailed:
		if err := g.bridge.Err(); err != nil {
			return "The renderer is unavailable: " + err.Error()
		}
		return "The renderer is unavailable."
	}
	return ""
}

func (g *Game) drawStatus(screen *ebiten.Image, cfg Config) {
	msg := g.statusText()
	if msg == "" {
		return
	}
	w := float32(screen.Bounds().Dx())
	h := float32(overlayPadding * 2)
	if g.text != nil {
		h += float32(g.text.LineHeight())
	}
	vector.DrawFilledRect(screen, 0, 0, w, h, cfg.Panel, false)
	vector.StrokeLine(screen, 0, h, w, h, 1, cfg.PanelText, false)
	if g.text != nil {
		g.text.DrawText(screen, msg, overlayPadding, overlayPadding, cfg.PanelText)
	}
}

func (g *Game) drawTooltip(screen *ebiten.Image, cfg Config) {
	if g.tooltip == nil || g.tooltip.text == "" || g.text == nil {
		return
	}
	tw, th := g.text.MeasureText(g.tooltip.text)
	w, h := tw+overlayPadding, th+overlayPadding

	vp := g.bridge.ViewportRect()
	x := float64(g.tooltip.pos.X - vp.X)
	y := float64(g.tooltip.pos.Y-vp.Y) + tooltipOffset
	bounds := screen.Bounds()
	x = max(0, min(x, float64(bounds.Dx())-w))
	y = max(0, min(y, float64(bounds.Dy())-h))

	drawPanel(screen, x, y, w, h, cfg.Tooltip, cfg.TooltipText)
	g.text.DrawText(screen, g.tooltip.text, x+overlayPadding/2, y+overlayPadding/2, cfg.TooltipText)
}

func (g *Game) drawDialog(screen *ebiten.Image, cfg Config) {
	d := g.dialog
	if d == nil {
		return
	}
	bounds := screen.Bounds()
	vector.DrawFilledRect(screen, 0, 0, float32(bounds.Dx()), float32(bounds.Dy()), color.RGBA{A: 96}, false)

	lineH := 16.0
	if g.text != nil {
		lineH = g.text.LineHeight()
	}
	lines := strings.Split(d.message, "\n")
	rows := len(lines) + 2
	if d.kind == dialogPrompt {
		rows += 2
	}
	w := min(float64(dialogWidth), float64(bounds.Dx()-2*overlayPadding))
	h := float64(rows)*lineH + 2*overlayPadding
	x := (float64(bounds.Dx()) - w) / 2
	y := (float64(bounds.Dy()) - h) / 3
	drawPanel(screen, x, y, w, h, cfg.Panel, cfg.PanelText)

	if g.text == nil {
		return
	}
	tx, ty := x+overlayPadding, y+overlayPadding
	heading := g.text
	if g.titleText != nil {
		heading = g.titleText
	}
	heading.DrawText(screen, dialogHeading(d.kind), tx, ty, cfg.PanelText)
	ty += lineH * 1.5
	for _, line := range lines {
		g.text.DrawText(screen, line, tx, ty, cfg.PanelText)
		ty += lineH
	}
	if d.kind == dialogPrompt {
		ty += lineH / 2
		drawPanel(screen, tx, ty, w-2*overlayPadding, lineH+4, cfg.Background, cfg.PanelText)
		g.text.DrawText(screen, d.input+"|", tx+2, ty+2, cfg.PanelText)
	}
	hint := "Enter: OK"
	if d.kind != dialogAlert {
		hint += "   Esc: Cancel"
	}
	g.text.DrawText(screen, hint, tx, y+h-overlayPadding-lineH, cfg.PanelText)
}

func dialogHeading(kind dialogKind) string {
	switch kind {
	case dialogConfirm:
		return "Confirm"
	case dialogPrompt:
		return "Prompt"
	default:
		return "Alert"
	}
}

func drawPanel(dst *ebiten.Image, x, y, w, h float64, fill, border color.RGBA) {
	vector.DrawFilledRect(dst, float32(x), float32(y), float32(w), float32(h), fill, false)
	vector.StrokeRect(dst, float32(x), float32(y), float32(w), float32(h), 1, border, false)
}
