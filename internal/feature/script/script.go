// Package script hosts Lua-scripted features. Each .lua file in the
// script directory becomes a registered feature: the file declares a
// global `name`, an optional `patterns` list, and an
// `execute(event, action)` function returning (ok, message).
package script

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"

	"hotkeyd/internal/feature"
	"hotkeyd/internal/hotkey"
	"hotkeyd/internal/logging"
)

// defaultTimeout bounds a single script invocation.
const defaultTimeout = 5 * time.Second

// Script is one Lua-scripted feature.
type Script struct {
	name     string
	patterns []string
	path     string
	exec     *executor
	timeout  time.Duration
	log      *logging.Logger

	wg sync.WaitGroup
}

// Name implements feature.Feature.
func (s *Script) Name() string { return s.name }

// SupportedPatterns implements feature.Feature.
func (s *Script) SupportedPatterns() []string {
	return s.patterns
}

// Execute launches the script's execute(event, action) function in the
// background and returns a pending result immediately, keeping the
// dispatch path prompt even for slow scripts. The outcome is logged.
func (s *Script) Execute(ev hotkey.Event, action string) feature.Result {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		res := s.invoke(ev, action)
		if res.IsError() {
			s.log.Warn("%s: %s", ev, res.Message)
			return
		}
		if res.Message != "" {
			s.log.Info("%s: %s", ev, res.Message)
		}
	}()
	return feature.Pending(fmt.Sprintf("started: %s", s.name))
}

// invoke runs the script synchronously with the invocation timeout. The
// script reports failure by returning (false, message); runtime errors
// and timeouts are captured as error results.
func (s *Script) invoke(ev hotkey.Event, action string) feature.Result {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	var ok bool
	var message string

	err := s.exec.execute(ctx, func(L *lua.LState) error {
		fn := L.GetGlobal("execute")
		if fn.Type() != lua.LTFunction {
			return fmt.Errorf("script %s declares no execute function", s.path)
		}

		L.Push(fn)
		L.Push(eventTable(L, ev))
		L.Push(lua.LString(action))
		if err := L.PCall(2, 2, nil); err != nil {
			return err
		}

		msg := L.Get(-1)
		status := L.Get(-2)
		L.Pop(2)

		ok = lua.LVAsBool(status)
		if msg.Type() == lua.LTString {
			message = lua.LVAsString(msg)
		}
		return nil
	})
	if err != nil {
		return feature.Errorf("script %s: %v", s.name, err)
	}
	if !ok {
		if message == "" {
			message = "script reported failure"
		}
		return feature.Errorf("script %s: %s", s.name, message)
	}
	if message != "" {
		return feature.Successf("%s", message)
	}
	return feature.Success()
}

// eventTable converts a classified event into a Lua table.
func eventTable(L *lua.LState, ev hotkey.Event) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("combo", lua.LString(ev.Combo))
	t.RawSetString("press", lua.LString(ev.Press.String()))
	t.RawSetString("action", lua.LString(ev.Action))
	t.RawSetString("count", lua.LNumber(ev.Count))
	t.RawSetString("duration_ms", lua.LNumber(ev.Duration.Milliseconds()))
	t.RawSetString("source", lua.LString(ev.Source))
	return t
}

// Host owns the loaded scripts and their Lua states.
type Host struct {
	scripts []*Script
	log     *logging.Logger
}

// LoadDir loads every .lua file in dir as a feature. A missing directory
// yields an empty host. A broken script is logged and skipped; the rest
// still load.
func LoadDir(dir string, log *logging.Logger) (*Host, error) {
	if log == nil {
		log = logging.Null
	}
	h := &Host{log: log.WithComponent("script")}

	if dir == "" {
		return h, nil
	}
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		h.log.Debug("script directory %s does not exist", dir)
		return h, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading script directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		path := filepath.Join(dir, name)
		s, err := load(path, h.log)
		if err != nil {
			h.log.Error("loading script %s: %v", path, err)
			continue
		}
		h.scripts = append(h.scripts, s)
		h.log.Info("loaded script feature %q from %s", s.name, path)
	}

	return h, nil
}

// load compiles one script file and reads its declarations.
func load(path string, log *logging.Logger) (*Script, error) {
	L := lua.NewState()

	if err := L.DoFile(path); err != nil {
		L.Close()
		return nil, err
	}

	nameVal := L.GetGlobal("name")
	if nameVal.Type() != lua.LTString {
		L.Close()
		return nil, fmt.Errorf("script must declare a string global `name`")
	}
	name := lua.LVAsString(nameVal)

	var patterns []string
	if pv := L.GetGlobal("patterns"); pv.Type() == lua.LTTable {
		pv.(*lua.LTable).ForEach(func(_, v lua.LValue) {
			if v.Type() == lua.LTString {
				patterns = append(patterns, lua.LVAsString(v))
			}
		})
	}

	if L.GetGlobal("execute").Type() != lua.LTFunction {
		L.Close()
		return nil, fmt.Errorf("script must declare an execute function")
	}

	return &Script{
		name:     name,
		patterns: patterns,
		path:     path,
		exec:     newExecutor(L),
		timeout:  defaultTimeout,
		log:      log,
	}, nil
}

// Features returns the loaded scripts as features.
func (h *Host) Features() []feature.Feature {
	out := make([]feature.Feature, len(h.scripts))
	for i, s := range h.scripts {
		out[i] = s
	}
	return out
}

// Close waits for in-flight invocations and shuts down all script
// executors.
func (h *Host) Close() {
	for _, s := range h.scripts {
		s.wg.Wait()
		s.exec.close()
	}
}
