package events

// KeyAction tells whether a key went down, up or repeated.
type KeyAction int

const (
	KeyPress KeyAction = iota
	KeyRelease
	KeyRepeat
)

func (a KeyAction) String() string {
	switch a {
	case KeyPress:
		return "press"
	case KeyRelease:
		return "release"
	case KeyRepeat:
		return "repeat"
	default:
		return "unknown"
	}
}

// Key is published by the input backend for every key transition.
type Key struct {
	Code   rune
	Action KeyAction
}

// CursorPosition is the pointer location in window coordinates. Producers
// emit it at high frequency; consumers usually register with Last.
type CursorPosition struct {
	X float64
	Y float64
}

// WindowResize is emitted when the polled window size changes.
type WindowResize struct {
	Width  int
	Height int
}
