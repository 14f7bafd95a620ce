// Package main is the entry point for the hotkeyd daemon.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"hotkeyd/internal/app"
	"hotkeyd/internal/logging"
	"hotkeyd/internal/notify"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
)

const appName = "hotkeyd"

func main() {
	os.Exit(run())
}

func run() int {
	flags := parseFlags()

	log := logging.New(logging.Config{
		Level:  logging.ParseLevel(flags.logLevel),
		Output: os.Stderr,
		Prefix: appName,
	})

	notifier, closeNotifier := pickNotifier(log)
	defer closeNotifier()

	engine, err := app.New(app.Options{
		ConfigPath: flags.configPath,
		StatePath:  flags.statePath,
		Provider:   app.NewReaderProvider(os.Stdin),
		Notifier:   notifier,
		Logger:     log,
		Watch:      !flags.noWatch,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := engine.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// pickNotifier prefers desktop notifications over the session bus and
// falls back to log-only delivery when no bus is available.
func pickNotifier(log *logging.Logger) (notify.Notifier, func()) {
	n, err := notify.NewDBusNotifier(appName)
	if err != nil {
		log.Warn("desktop notifications unavailable: %v", err)
		return notify.NewLogNotifier(log), func() {}
	}
	return n, func() {
		if err := n.Close(); err != nil {
			log.Warn("closing notifier: %v", err)
		}
	}
}

type cliFlags struct {
	configPath string
	statePath  string
	logLevel   string
	noWatch    bool
}

func parseFlags() cliFlags {
	var flags cliFlags
	var showVersion bool

	defCfg, defState := defaultPaths()

	flag.StringVar(&flags.configPath, "config", defCfg, "Path to configuration file")
	flag.StringVar(&flags.configPath, "c", defCfg, "Path to configuration file (shorthand)")
	flag.StringVar(&flags.statePath, "state", defState, "Path to runtime state file")
	flag.StringVar(&flags.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.BoolVar(&flags.noWatch, "no-watch", false, "Disable config hot reload")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "hotkeyd - hotkey automation daemon\n\n")
		fmt.Fprintf(os.Stderr, "Usage: hotkeyd [options]\n\n")
		fmt.Fprintf(os.Stderr, "Reads presses from stdin, one per line: <combo> [held_ms]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if showVersion {
		fmt.Printf("hotkeyd %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		os.Exit(0)
	}

	switch flags.logLevel {
	case "debug", "info", "warn", "error":
	default:
		fmt.Fprintf(os.Stderr, "Error: invalid log level %q (must be debug, info, warn, or error)\n", flags.logLevel)
		os.Exit(1)
	}

	return flags
}

// defaultPaths resolves the XDG-style config and state file locations.
func defaultPaths() (string, string) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "hotkeyd.toml", "state.json"
	}
	dir := filepath.Join(base, appName)
	return filepath.Join(dir, "hotkeyd.toml"), filepath.Join(dir, "state.json")
}
