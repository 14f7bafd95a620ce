// Package feature defines the contract implemented by pluggable hotkey
// handlers and the registry that instantiates them.
//
// A feature is a named unit invoked with a classified event and an opaque
// action string. Failure is encoded in the returned Result, never raised
// across the boundary; long-running work is delegated to background
// execution so Execute returns promptly.
//
// Features are registered through explicit startup-time factories rather
// than reflection-based scanning: adding a feature is one registration
// call. Shared collaborators are injected through Deps, so features carry
// no hidden global state and are independently testable.
package feature
