// Package config owns the on-disk configuration of the daemon: the TOML
// config file (settings, modes, bindings), the JSON state file holding
// runtime state such as the current mode, and the file watcher that
// drives hot reload.
package config
