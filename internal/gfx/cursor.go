package gfx

// StandardCursor enumerates the cursor shapes a renderer may request.
type StandardCursor int

const (
	CursorNone StandardCursor = iota
	CursorHidden
	CursorArrow
	CursorCrosshair
	CursorIBeam
	CursorResizeHorizontal
	CursorResizeVertical
	CursorResizeDiagonalTLBR
	CursorResizeDiagonalBLTR
	CursorResizeColumn
	CursorResizeRow
	CursorHand
	CursorHelp
	CursorDrag
	CursorDragCopy
	CursorMove
	CursorWait
	CursorDisallowed
	CursorEyedropper
	CursorZoom
)

var cursorNames = [...]string{
	CursorNone:               "none",
	CursorHidden:             "hidden",
	CursorArrow:              "arrow",
	CursorCrosshair:          "crosshair",
	CursorIBeam:              "ibeam",
	CursorResizeHorizontal:   "resize-horizontal",
	CursorResizeVertical:     "resize-vertical",
	CursorResizeDiagonalTLBR: "resize-diagonal-tlbr",
	CursorResizeDiagonalBLTR: "resize-diagonal-bltr",
	CursorResizeColumn:       "resize-column",
	CursorResizeRow:          "resize-row",
	CursorHand:               "hand",
	CursorHelp:               "help",
	CursorDrag:               "drag",
	CursorDragCopy:           "drag-copy",
	CursorMove:               "move",
	CursorWait:               "wait",
	CursorDisallowed:         "disallowed",
	CursorEyedropper:         "eyedropper",
	CursorZoom:               "zoom",
}

// String returns the cursor's protocol name.
func (c StandardCursor) String() string {
	if c < 0 || int(c) >= len(cursorNames) {
		return "unknown"
	}
	return cursorNames[c]
}
