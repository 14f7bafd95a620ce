// Package keymap provides the binding model and the resolver that maps a
// classified hotkey event, within the current mode, to a feature name and
// action string.
package keymap
