package fractal

import "strings"

// Action is a logical camera action bound to a key. Each action owns one
// bit of the key mask, so a set of held actions is itself an Action.
type Action uint32

// Camera actions.
const (
	PanUp Action = 1 << iota
	PanDown
	PanLeft
	PanRight
	ZoomIn
	ZoomOut
)

// AllActions lists every action in bit order.
var AllActions = []Action{PanUp, PanDown, PanLeft, PanRight, ZoomIn, ZoomOut}

var actionNames = map[Action]string{
	PanUp:    "PanUp",
	PanDown:  "PanDown",
	PanLeft:  "PanLeft",
	PanRight: "PanRight",
	ZoomIn:   "ZoomIn",
	ZoomOut:  "ZoomOut",
}

// Has reports whether every bit of b is also set in a.
func (a Action) Has(b Action) bool {
	return b != 0 && a&b == b
}

// String returns the action names joined with "|", or "None".
func (a Action) String() string {
	if a == 0 {
		return "None"
	}
	var parts []string
	for _, act := range AllActions {
		if a&act != 0 {
			parts = append(parts, actionNames[act])
		}
	}
	if rest := a &^ (PanUp | PanDown | PanLeft | PanRight | ZoomIn | ZoomOut); rest != 0 {
		parts = append(parts, "Unknown")
	}
	return strings.Join(parts, "|")
}
