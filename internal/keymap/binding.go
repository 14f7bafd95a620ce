package keymap

import "fmt"

// Pattern associates a press-pattern name with an opaque action string.
// Pattern names are "short", "long", "double", "multi_3", and so on.
type Pattern struct {
	Name   string
	Action string
}

// Binding associates a key combination (within a mode) with a feature and
// per-pattern action strings. Patterns keep their insertion order so the
// resolver's fallback pick is deterministic.
type Binding struct {
	// Feature is the registered feature name this binding invokes.
	Feature string

	// Patterns are the configured pattern-to-action entries, in order.
	Patterns []Pattern
}

// NewBinding creates a binding for a feature.
func NewBinding(feature string) Binding {
	return Binding{Feature: feature}
}

// With returns a copy of the binding with a pattern entry appended.
func (b Binding) With(name, action string) Binding {
	patterns := make([]Pattern, len(b.Patterns)+1)
	copy(patterns, b.Patterns)
	patterns[len(b.Patterns)] = Pattern{Name: name, Action: action}
	b.Patterns = patterns
	return b
}

// Action returns the action string for a pattern name.
func (b Binding) Action(name string) (string, bool) {
	for _, p := range b.Patterns {
		if p.Name == name {
			return p.Action, true
		}
	}
	return "", false
}

// First returns the first pattern entry by insertion order.
func (b Binding) First() (Pattern, bool) {
	if len(b.Patterns) == 0 {
		return Pattern{}, false
	}
	return b.Patterns[0], true
}

// Validate checks that the binding is well formed.
func (b Binding) Validate() error {
	if b.Feature == "" {
		return fmt.Errorf("binding has empty feature name")
	}
	for i, p := range b.Patterns {
		if p.Name == "" {
			return fmt.Errorf("binding for %q: pattern %d has empty name", b.Feature, i)
		}
	}
	return nil
}
