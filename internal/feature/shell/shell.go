// Package shell provides the generic command feature. The opaque action
// string is a command line executed in the background; git, docker, npm
// and friends are all just configured command lines to this feature.
package shell

import (
	"context"
	"fmt"

	"hotkeyd/internal/command"
	"hotkeyd/internal/feature"
	"hotkeyd/internal/hotkey"
	"hotkeyd/internal/logging"
)

// FeatureName is the binding key for the shell feature.
const FeatureName = "shell"

// Shell executes binding action strings as background commands.
type Shell struct {
	runner *command.Runner
	log    *logging.Logger
}

// New is the feature.Factory for the shell feature.
func New(deps feature.Deps) (feature.Feature, error) {
	if deps.Runner == nil {
		return nil, fmt.Errorf("shell feature requires a command runner")
	}
	log := deps.Log
	if log == nil {
		log = logging.Null
	}
	return &Shell{runner: deps.Runner, log: log.WithComponent(FeatureName)}, nil
}

// Name implements feature.Feature.
func (s *Shell) Name() string { return FeatureName }

// SupportedPatterns implements feature.Feature.
func (s *Shell) SupportedPatterns() []string {
	return []string{"short", "long", "double", "multi"}
}

// Execute launches the action string as a background command and returns
// immediately with a pending result.
func (s *Shell) Execute(ev hotkey.Event, action string) feature.Result {
	if err := s.runner.Start(context.Background(), action, func(o command.Outcome) {
		if o.Err != nil {
			s.log.Warn("%s: %q failed: %v", ev, o.Line, o.Err)
			return
		}
		s.log.Info("%s: %q finished in %v", ev, o.Line, o.Duration)
	}); err != nil {
		return feature.Error(err)
	}
	return feature.Pending(fmt.Sprintf("started: %s", action))
}
