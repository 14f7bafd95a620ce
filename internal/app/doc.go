// Package app wires the daemon together: configuration, the press
// classifier, the mode machine, the feature registry, and the router,
// plus the run loop that feeds raw presses from an input provider
// through the pipeline.
package app
