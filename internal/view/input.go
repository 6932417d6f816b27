package view

import (
	"math"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/opd-ai/go-ladybird/internal/gfx"
	"github.com/opd-ai/go-ladybird/internal/ipc"
	"github.com/opd-ai/go-ladybird/pkg/webview"
)

// maxPendingInput bounds the forwarded events awaiting acknowledgement.
const maxPendingInput = 256

// inputState is one tick of polled input.
type inputState struct {
	pos       gfx.IntPoint
	buttons   uint
	pressed   uint
	released  uint
	wheelX    float64
	wheelY    float64
	modifiers uint
	keysDown  []ebiten.Key
	keysUp    []ebiten.Key
	chars     []rune
}

var mouseButtons = []struct {
	button ebiten.MouseButton
	bit    uint
}{
	{ebiten.MouseButtonLeft, ipc.ButtonPrimary},
	{ebiten.MouseButtonRight, ipc.ButtonSecondary},
	{ebiten.MouseButtonMiddle, ipc.ButtonMiddle},
}

func pollInput() inputState {
	var in inputState
	x, y := ebiten.CursorPosition()
	in.pos = gfx.IntPoint{X: x, Y: y}
	for _, mb := range mouseButtons {
		if ebiten.IsMouseButtonPressed(mb.button) {
			in.buttons |= mb.bit
		}
		if inpututil.IsMouseButtonJustPressed(mb.button) {
			in.pressed |= mb.bit
		}
		if inpututil.IsMouseButtonJustReleased(mb.button) {
			in.released |= mb.bit
		}
	}
	in.wheelX, in.wheelY = ebiten.Wheel()

	if ebiten.IsKeyPressed(ebiten.KeyAlt) {
		in.modifiers |= ipc.ModAlt
	}
	if ebiten.IsKeyPressed(ebiten.KeyControl) {
		in.modifiers |= ipc.ModCtrl
	}
	if ebiten.IsKeyPressed(ebiten.KeyShift) {
		in.modifiers |= ipc.ModShift
	}
	if ebiten.IsKeyPressed(ebiten.KeyMeta) {
		in.modifiers |= ipc.ModSuper
	}

	in.keysDown = inpututil.AppendJustPressedKeys(nil)
	in.keysUp = inpututil.AppendJustReleasedKeys(nil)
	in.chars = ebiten.AppendInputChars(nil)
	return in
}

// forwarded is an input event sent to the renderer and not yet
// acknowledged.
type forwarded struct {
	wheel gfx.IntPoint
}

type inputTracker struct {
	seen    bool
	lastPos gfx.IntPoint
	pending []forwarded
}

func (t *inputTracker) sent(ev forwarded) {
	if len(t.pending) >= maxPendingInput {
		t.pending = t.pending[1:]
	}
	t.pending = append(t.pending, ev)
}

func (t *inputTracker) acknowledge() (forwarded, bool) {
	if len(t.pending) == 0 {
		return forwarded{}, false
	}
	ev := t.pending[0]
	t.pending = t.pending[1:]
	return ev, true
}

// handleInput routes one tick of input to the open dialog or the page.
func (g *Game) handleInput(in inputState) {
	if g.dialog != nil {
		g.handleDialogInput(in)
		return
	}
	if g.bridge.State() != webview.StateConnected {
		return
	}

	if !g.input.seen || in.pos != g.input.lastPos {
		g.input.seen = true
		g.input.lastPos = in.pos
		g.sendMouse(ipc.MouseEventParams{Type: ipc.MouseMove, Position: in.pos, Buttons: in.buttons, Modifiers: in.modifiers})
	}
	for _, mb := range mouseButtons {
		if in.pressed&mb.bit != 0 {
			g.sendMouse(ipc.MouseEventParams{Type: ipc.MouseDown, Position: in.pos, Button: mb.bit, Buttons: in.buttons, Modifiers: in.modifiers})
		}
		if in.released&mb.bit != 0 {
			g.sendMouse(ipc.MouseEventParams{Type: ipc.MouseUp, Position: in.pos, Button: mb.bit, Buttons: in.buttons, Modifiers: in.modifiers})
		}
	}
	if in.wheelX != 0 || in.wheelY != 0 {
		step := float64(g.Config().WheelStep)
		// Ebiten reports wheel-up as positive; content scrolls down for it.
		dx := int(math.Round(-in.wheelX * step))
		dy := int(math.Round(-in.wheelY * step))
		if dx != 0 || dy != 0 {
			g.sendMouse(ipc.MouseEventParams{Type: ipc.MouseWheel, Position: in.pos, Buttons: in.buttons, Modifiers: in.modifiers, WheelX: dx, WheelY: dy})
		}
	}

	typing := len(in.chars) > 0 && in.modifiers&(ipc.ModCtrl|ipc.ModAlt|ipc.ModSuper) == 0
	for _, k := range in.keysDown {
		if typing && isTextKey(k) {
			continue
		}
		g.sendKey(ipc.KeyEventParams{Type: ipc.KeyDown, Key: k.String(), Modifiers: in.modifiers})
	}
	for _, r := range in.chars {
		g.sendKey(ipc.KeyEventParams{Type: ipc.KeyDown, Key: string(r), Modifiers: in.modifiers, CodePoint: r})
	}
	for _, k := range in.keysUp {
		g.sendKey(ipc.KeyEventParams{Type: ipc.KeyUp, Key: k.String(), Modifiers: in.modifiers})
	}
}

func (g *Game) sendMouse(ev ipc.MouseEventParams) {
	if err := g.bridge.SendMouseEvent(ev); err != nil {
		g.reportError(err)
		return
	}
	var wheel gfx.IntPoint
	if ev.Type == ipc.MouseWheel {
		wheel = gfx.IntPoint{X: ev.WheelX, Y: ev.WheelY}
	}
	g.input.sent(forwarded{wheel: wheel})
}

func (g *Game) sendKey(ev ipc.KeyEventParams) {
	if err := g.bridge.SendKeyEvent(ev); err != nil {
		g.reportError(err)
		return
	}
	g.input.sent(forwarded{})
}

// handleDialogInput edits and answers the open dialog. Input does not
// reach the page while a dialog is open.
func (g *Game) handleDialogInput(in inputState) {
	for _, k := range in.keysDown {
		switch k {
		case ebiten.KeyEnter, ebiten.KeyNumpadEnter:
			g.acceptDialog()
			return
		case ebiten.KeyEscape:
			g.dismissDialog()
			return
		case ebiten.KeyBackspace:
			if g.dialog.kind == dialogPrompt && g.dialog.input != "" {
				r := []rune(g.dialog.input)
				g.dialog.input = string(r[:len(r)-1])
			}
		}
	}
	if g.dialog.kind == dialogPrompt {
		g.dialog.input += string(in.chars)
	}
}

var textKeyNames = map[string]bool{
	"Space": true, "Minus": true, "Equal": true, "Comma": true, "Period": true,
	"Slash": true, "Semicolon": true, "Quote": true, "Backquote": true,
	"Backslash": true, "BracketLeft": true, "BracketRight": true,
}

// isTextKey reports whether k normally produces a character, in which
// case the character event stands in for the key press.
func isTextKey(k ebiten.Key) bool {
	name := k.String()
	return len(name) == 1 || strings.HasPrefix(name, "Digit") || textKeyNames[name]
}
