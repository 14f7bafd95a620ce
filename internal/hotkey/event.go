package hotkey

import (
	"fmt"
	"time"
)

// PressType classifies a completed key interaction.
type PressType uint8

const (
	// PressUnknown is the zero value before classification completes.
	PressUnknown PressType = iota
	// PressShort is a single press released before the long-press threshold.
	PressShort
	// PressLong is a single press held at or beyond the long-press threshold.
	PressLong
	// PressDouble is two presses within the multi-press window.
	PressDouble
	// PressMulti is three or more presses within the multi-press window.
	PressMulti
	// PressChord is reserved for simultaneous key combinations.
	// The classifier never emits it in the current design.
	PressChord
)

// String returns the canonical pattern name for the press type.
func (p PressType) String() string {
	switch p {
	case PressShort:
		return "short"
	case PressLong:
		return "long"
	case PressDouble:
		return "double"
	case PressMulti:
		return "multi"
	case PressChord:
		return "chord"
	default:
		return "unknown"
	}
}

// Event is a hardware-agnostic record of one classified input occurrence.
type Event struct {
	// Combo is the normalized key combination identifier (e.g. "f9").
	Combo string

	// Press is the classified press pattern.
	// PressUnknown until classification completes.
	Press PressType

	// Timestamp is when the physical event was observed.
	Timestamp time.Time

	// Source is the provenance tag set by the producing input provider.
	Source string

	// Duration is the elapsed time between press and release.
	// Zero if the key has not been released.
	Duration time.Duration

	// Count is the number of presses folded into this event
	// (1 for short/long, 2 for double, N>=3 for multi).
	Count int

	// Action is the resolved action label, filled in after classification
	// (e.g. "short", "double", "multi_3").
	Action string
}

// String returns a compact human-readable description of the event.
func (e Event) String() string {
	return fmt.Sprintf("%s[%s x%d]", e.Combo, e.Action, e.Count)
}

// ActionLabel derives the action label for a press type and count.
// Multi presses encode the count: "multi_3", "multi_4", ...
func ActionLabel(press PressType, count int) string {
	if press == PressMulti {
		return fmt.Sprintf("multi_%d", count)
	}
	return press.String()
}
