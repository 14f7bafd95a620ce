// Package modectl provides the mode-control feature, making mode cycling
// and selection hotkey-drivable.
package modectl

import (
	"fmt"
	"strings"

	"hotkeyd/internal/feature"
	"hotkeyd/internal/hotkey"
	"hotkeyd/internal/mode"
)

// FeatureName is the binding key for the mode-control feature.
const FeatureName = "mode"

// selectPrefix introduces a direct mode selection action, e.g.
// "select:DEV".
const selectPrefix = "select:"

// ModeCtl switches modes in response to hotkeys.
type ModeCtl struct {
	modes *mode.Machine
}

// New is the feature.Factory for the mode-control feature.
func New(deps feature.Deps) (feature.Feature, error) {
	if deps.Modes == nil {
		return nil, fmt.Errorf("mode feature requires the mode machine")
	}
	return &ModeCtl{modes: deps.Modes}, nil
}

// Name implements feature.Feature.
func (m *ModeCtl) Name() string { return FeatureName }

// SupportedPatterns implements feature.Feature.
func (m *ModeCtl) SupportedPatterns() []string {
	return []string{"short", "long", "double"}
}

// Execute handles "next", "previous", and "select:<id>" actions.
func (m *ModeCtl) Execute(ev hotkey.Event, action string) feature.Result {
	switch {
	case action == "next":
		id := m.modes.Next()
		return feature.Successf("mode: %s", id)
	case action == "previous":
		id := m.modes.Previous()
		return feature.Successf("mode: %s", id)
	case strings.HasPrefix(action, selectPrefix):
		id := strings.TrimPrefix(action, selectPrefix)
		if err := m.modes.SwitchTo(id); err != nil {
			return feature.Error(err)
		}
		return feature.Successf("mode: %s", id)
	default:
		return feature.Errorf("unknown mode action: %q", action)
	}
}
