// Package hotkey provides the input event model and the press-pattern
// classifier.
//
// The classifier consumes raw press/release timing from an input provider
// and emits exactly one classified Event per burst of presses on a key
// combination. Ambiguity between short, double, and multi presses is
// resolved with a cancellable decision timer per key; long presses are
// classified synchronously at release time.
package hotkey
