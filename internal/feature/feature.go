package feature

import (
	"hotkeyd/internal/command"
	"hotkeyd/internal/hotkey"
	"hotkeyd/internal/logging"
	"hotkeyd/internal/mode"
)

// Feature is a pluggable hotkey handler.
//
// Execute must return promptly: subprocess calls and other slow work
// belong in background execution (see command.Runner), with a Pending
// result returned immediately. Failures are returned as error results,
// never raised; the router's panic recovery is a last resort only.
type Feature interface {
	// Name is the unique binding key for this feature.
	Name() string

	// SupportedPatterns lists the press-pattern names this feature is
	// designed for. Advisory only; the resolver does not enforce it.
	SupportedPatterns() []string

	// Execute performs the action selected for a classified event.
	Execute(ev hotkey.Event, action string) Result
}

// Deps carries the shared collaborators injected into features at
// construction time.
type Deps struct {
	// Modes gives features read access to the mode machine.
	Modes *mode.Machine

	// Runner launches external commands in the background.
	Runner *command.Runner

	// Log is the daemon logger.
	Log *logging.Logger
}

// Factory constructs a feature with its collaborators injected.
type Factory func(Deps) (Feature, error)
