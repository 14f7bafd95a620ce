package keymap

import (
	"errors"

	"hotkeyd/internal/hotkey"
	"hotkeyd/internal/logging"
)

// Resolution negative results. All are the normal "no binding" class, never
// fatal; they carry distinct reasons for logging.
var (
	// ErrNoBinding reports that the mode has no binding for the key.
	ErrNoBinding = errors.New("no binding for key in mode")

	// ErrNoPatterns reports a binding with an empty pattern table.
	ErrNoPatterns = errors.New("binding has no patterns")

	// ErrFeatureUnregistered reports a binding whose feature is not
	// registered.
	ErrFeatureUnregistered = errors.New("binding references unregistered feature")
)

// Source provides read-only binding tables per mode.
type Source interface {
	// Bindings returns the key-combination binding table for a mode.
	// ok is false if the mode is unknown.
	Bindings(modeID string) (map[string]Binding, bool)
}

// FeatureSet reports which feature names are registered.
type FeatureSet interface {
	Has(name string) bool
}

// Resolution is a successful binding lookup.
type Resolution struct {
	// Feature is the feature name to invoke.
	Feature string

	// Action is the opaque action string selected for the event's pattern.
	Action string

	// Fallback is true when the action came from the permissive
	// first-pattern fallback rather than an exact or canonical match.
	Fallback bool
}

// Resolver maps (mode, classified event) pairs to feature invocations.
// It never mutates configuration; repeated calls with identical inputs
// return identical results.
type Resolver struct {
	src      Source
	features FeatureSet
	log      *logging.Logger
}

// NewResolver creates a resolver over the given binding source and
// feature set.
func NewResolver(src Source, features FeatureSet, log *logging.Logger) *Resolver {
	if log == nil {
		log = logging.Null
	}
	return &Resolver{src: src, features: features, log: log}
}

// Resolve selects the action for a classified event in a mode.
//
// Selection order: the event's exact action label ("multi_5"), then the
// canonical press-type name ("multi"), then the first configured pattern.
// The last step is a compatibility affordance kept from the original
// behavior; new bindings should not rely on it.
func (r *Resolver) Resolve(modeID string, ev hotkey.Event) (Resolution, error) {
	bindings, ok := r.src.Bindings(modeID)
	if !ok {
		return Resolution{}, ErrNoBinding
	}

	binding, ok := bindings[ev.Combo]
	if !ok {
		return Resolution{}, ErrNoBinding
	}

	res := Resolution{Feature: binding.Feature}

	if action, ok := binding.Action(ev.Action); ok {
		res.Action = action
	} else if action, ok := binding.Action(ev.Press.String()); ok {
		res.Action = action
	} else if first, ok := binding.First(); ok {
		res.Action = first.Action
		res.Fallback = true
		r.log.Debug("pattern fallback for %s in mode %s: no %q entry, using %q",
			ev.Combo, modeID, ev.Action, first.Name)
	} else {
		return Resolution{}, ErrNoPatterns
	}

	if r.features != nil && !r.features.Has(binding.Feature) {
		return Resolution{}, ErrFeatureUnregistered
	}

	return res, nil
}
