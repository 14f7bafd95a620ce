// Package router binds classification, mode lookup, binding resolution,
// and feature dispatch together.
package router

import (
	"errors"
	"fmt"
	"runtime"

	"hotkeyd/internal/feature"
	"hotkeyd/internal/hotkey"
	"hotkeyd/internal/keymap"
	"hotkeyd/internal/logging"
	"hotkeyd/internal/mode"
	"hotkeyd/internal/notify"
)

// Router dispatches classified events to the bound feature for the
// current mode. Nothing escaping a feature call propagates further: the
// event-processing loop must stay alive indefinitely.
type Router struct {
	resolver *keymap.Resolver
	modes    *mode.Machine
	features *feature.Registry
	notifier notify.Notifier
	log      *logging.Logger
}

// New creates a router over the given collaborators.
func New(resolver *keymap.Resolver, modes *mode.Machine, features *feature.Registry, notifier notify.Notifier, log *logging.Logger) *Router {
	if log == nil {
		log = logging.Null
	}
	if notifier == nil {
		notifier = notify.NewLogNotifier(log)
	}
	return &Router{
		resolver: resolver,
		modes:    modes,
		features: features,
		notifier: notifier,
		log:      log,
	}
}

// HandleEvent routes one classified event. It satisfies
// hotkey.EmitFunc's contract: it never calls back into the classifier and
// returns promptly, since features delegate slow work to the background.
func (r *Router) HandleEvent(ev hotkey.Event) {
	modeID := r.modes.CurrentID()

	res, err := r.resolver.Resolve(modeID, ev)
	if err != nil {
		r.handleMiss(modeID, ev, err)
		return
	}

	f, ok := r.features.Get(res.Feature)
	if !ok {
		// Resolve already checked registration; a vanished feature here
		// is still a miss, not a crash.
		r.handleMiss(modeID, ev, keymap.ErrFeatureUnregistered)
		return
	}

	if res.Fallback {
		r.log.Debug("dispatching %s via pattern fallback to %s(%q)", ev, res.Feature, res.Action)
	}

	result := r.execute(f, ev, res.Action)
	r.report(ev, res, result)
}

// handleMiss surfaces a resolution miss as an informational notification.
func (r *Router) handleMiss(modeID string, ev hotkey.Event, err error) {
	switch {
	case errors.Is(err, keymap.ErrFeatureUnregistered):
		r.log.Warn("binding for %s in mode %s references an unregistered feature", ev.Combo, modeID)
	case errors.Is(err, keymap.ErrNoPatterns):
		r.log.Warn("binding for %s in mode %s has no patterns", ev.Combo, modeID)
	default:
		r.log.Debug("no binding for %s (%s) in mode %s", ev.Combo, ev.Action, modeID)
	}

	body := fmt.Sprintf("%s (%s) is not bound in mode %s", ev.Combo, ev.Action, r.modes.DisplayName())
	if err := r.notifier.Notify("No binding", body); err != nil {
		r.log.Warn("notifying resolution miss: %v", err)
	}
}

// execute invokes a feature with panic recovery. A panicking feature is
// logged with its stack and synthesized into an error result.
func (r *Router) execute(f feature.Feature, ev hotkey.Event, action string) (result feature.Result) {
	defer func() {
		if rec := recover(); rec != nil {
			stack := make([]byte, 4096)
			n := runtime.Stack(stack, false)
			r.log.Error("feature %s panic on %s: %v\n%s", f.Name(), ev, rec, stack[:n])
			result = feature.Errorf("feature %s panicked: %v", f.Name(), rec)
		}
	}()
	return f.Execute(ev, action)
}

// report logs the outcome and surfaces failures to the user.
func (r *Router) report(ev hotkey.Event, res keymap.Resolution, result feature.Result) {
	if !result.IsError() {
		r.log.Debug("%s -> %s(%q): %s", ev, res.Feature, res.Action, result.Status)
		return
	}

	r.log.Error("feature %s failed for %s: %s", res.Feature, ev, result.Message)

	body := result.Message
	if body == "" {
		body = "action failed"
	}
	if err := r.notifier.Notify(fmt.Sprintf("%s failed", res.Feature), body); err != nil {
		r.log.Warn("notifying feature failure: %v", err)
	}
}
