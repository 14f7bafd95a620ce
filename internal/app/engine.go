package app

import (
	"context"
	"fmt"
	"time"

	"hotkeyd/internal/command"
	"hotkeyd/internal/config"
	"hotkeyd/internal/feature"
	"hotkeyd/internal/feature/modectl"
	"hotkeyd/internal/feature/script"
	"hotkeyd/internal/feature/shell"
	"hotkeyd/internal/hotkey"
	"hotkeyd/internal/keymap"
	"hotkeyd/internal/logging"
	"hotkeyd/internal/mode"
	"hotkeyd/internal/notify"
	"hotkeyd/internal/router"
)

// eventBuffer is the dispatch queue depth. Classifier emits come from
// timer goroutines holding the classifier lock, so a full queue drops
// rather than blocks.
const eventBuffer = 64

// Options configures the engine.
type Options struct {
	// ConfigPath is the TOML configuration file.
	ConfigPath string

	// StatePath is the JSON runtime state file.
	StatePath string

	// Provider is the raw input source.
	Provider Provider

	// Notifier surfaces misses and failures to the user. Nil falls back
	// to log-only notifications.
	Notifier notify.Notifier

	// Logger is the root logger. Nil disables logging.
	Logger *logging.Logger

	// Watch enables config hot reload.
	Watch bool
}

// Engine owns the full press-to-feature pipeline.
type Engine struct {
	opts Options
	log  *logging.Logger

	classifier *hotkey.Classifier
	machine    *mode.Machine
	registry   *feature.Registry
	router     *router.Router
	runner     *command.Runner
	state      *config.StateStore
	scripts    *script.Host
	watcher    *config.Watcher

	events chan hotkey.Event
}

// New loads the configuration and wires the pipeline. No goroutines
// start until Run.
func New(opts Options) (*Engine, error) {
	if opts.Provider == nil {
		return nil, fmt.Errorf("engine requires an input provider")
	}
	log := opts.Logger
	if log == nil {
		log = logging.Null
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		opts:   opts,
		log:    log.WithComponent("engine"),
		state:  config.NewStateStore(opts.StatePath),
		events: make(chan hotkey.Event, eventBuffer),
	}

	e.machine = mode.NewMachine(log)
	if err := e.machine.Replace(cfg.ModeList()); err != nil {
		return nil, err
	}
	e.machine.SetPersist(e.state.SetCurrentMode)
	e.setInitialMode(cfg)

	e.runner = command.NewRunner(cfg.CommandTimeout(), log)

	e.registry = feature.NewRegistry(log)
	e.registry.Build(feature.Deps{
		Modes:  e.machine,
		Runner: e.runner,
		Log:    log,
	}, shell.New, modectl.New)

	e.scripts, err = script.LoadDir(cfg.Settings.ScriptDir, log)
	if err != nil {
		return nil, err
	}
	for _, f := range e.scripts.Features() {
		if err := e.registry.Register(f); err != nil {
			e.log.Warn("script feature %q not registered: %v", f.Name(), err)
		}
	}

	resolver := keymap.NewResolver(e.machine, e.registry, log)
	e.router = router.New(resolver, e.machine, e.registry, opts.Notifier, log)

	e.classifier = hotkey.NewClassifier(cfg.ClassifierConfig(), nil, e.enqueue)

	return e, nil
}

// setInitialMode restores the persisted current mode, falling back to
// the configured default when it is absent or no longer declared.
func (e *Engine) setInitialMode(cfg config.Config) {
	if persisted := e.state.CurrentMode(); persisted != "" {
		if err := e.machine.SetInitial(persisted); err == nil {
			e.log.Info("restored mode %s", persisted)
			return
		}
		e.log.Warn("persisted mode %q no longer exists, using default", persisted)
	}
	if err := e.machine.SetInitial(cfg.Settings.DefaultMode); err != nil {
		e.log.Warn("default mode: %v", err)
	}
}

// enqueue hands a classified event to the dispatch goroutine. Called
// with the classifier lock held; it must never block.
func (e *Engine) enqueue(ev hotkey.Event) {
	select {
	case e.events <- ev:
	default:
		e.log.Warn("event queue full, dropping %s", ev)
	}
}

// HandlePress feeds one completed press into the classifier.
func (e *Engine) HandlePress(combo string, held time.Duration, at time.Time) {
	e.classifier.OnPress(combo, at.Add(-held))
	e.classifier.OnRelease(combo, held, at)
}

// CurrentMode returns the active mode id.
func (e *Engine) CurrentMode() string {
	return e.machine.CurrentID()
}

// ModeIDs returns the configured mode ids in order.
func (e *Engine) ModeIDs() []string {
	return e.machine.IDs()
}

// Run starts dispatch and the input provider and blocks until the
// context is cancelled or the provider ends.
func (e *Engine) Run(ctx context.Context) error {
	if e.opts.Watch {
		w, err := config.NewWatcher(e.opts.ConfigPath, e.reload, e.log)
		if err != nil {
			return fmt.Errorf("starting config watcher: %w", err)
		}
		e.watcher = w
	}

	// The classifier's decision timers may still fire after the provider
	// stops, so the event channel is never closed; dispatch exits via
	// quit and late events sit in the buffer unreceived.
	quit := make(chan struct{})
	dispatchDone := make(chan struct{})
	go func() {
		defer close(dispatchDone)
		for {
			select {
			case <-quit:
				return
			case ev := <-e.events:
				e.router.HandleEvent(ev)
			}
		}
	}()

	e.log.Info("running with modes %v, features %v", e.machine.IDs(), e.registry.Names())
	err := e.opts.Provider.Run(ctx, e.HandlePress)
	if err != nil && ctx.Err() != nil {
		err = nil
	}

	close(quit)
	<-dispatchDone
	e.shutdown()
	return err
}

// reload re-reads the config file and applies thresholds and modes to
// the live pipeline. A broken config is logged and the previous one
// stays in effect.
func (e *Engine) reload() {
	cfg, err := config.Load(e.opts.ConfigPath)
	if err != nil {
		e.log.Error("reload failed, keeping previous config: %v", err)
		return
	}
	e.classifier.SetConfig(cfg.ClassifierConfig())
	if err := e.machine.Replace(cfg.ModeList()); err != nil {
		e.log.Error("reload: %v", err)
		return
	}
	e.log.Info("config applied: modes %v", e.machine.IDs())
}

func (e *Engine) shutdown() {
	if e.watcher != nil {
		if err := e.watcher.Close(); err != nil {
			e.log.Warn("closing watcher: %v", err)
		}
	}
	e.runner.Wait()
	e.scripts.Close()
	e.log.Info("stopped")
}
