// Package mode provides the mode registry and state machine that selects
// which binding table is active.
package mode

import "hotkeyd/internal/keymap"

// Mode is a named configuration context with its own binding table.
type Mode struct {
	// ID is the unique mode identifier (e.g. "DEV").
	ID string

	// Name is the human-readable display name. Falls back to ID when
	// empty.
	Name string

	// Bindings maps key combinations to their bindings in this mode.
	Bindings map[string]keymap.Binding
}

// DisplayName returns the configured name, or the ID if none is set.
func (m Mode) DisplayName() string {
	if m.Name != "" {
		return m.Name
	}
	return m.ID
}
