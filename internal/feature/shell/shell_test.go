package shell

import (
	"testing"
	"time"

	"hotkeyd/internal/command"
	"hotkeyd/internal/feature"
	"hotkeyd/internal/hotkey"
)

func newTestFeature(t *testing.T) (feature.Feature, *command.Runner) {
	t.Helper()

	runner := command.NewRunner(5*time.Second, nil)
	f, err := New(feature.Deps{Runner: runner})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return f, runner
}

func TestFactoryRequiresRunner(t *testing.T) {
	if _, err := New(feature.Deps{}); err == nil {
		t.Error("New() accepted missing runner")
	}
}

func TestExecuteReturnsPending(t *testing.T) {
	f, runner := newTestFeature(t)

	ev := hotkey.Event{Combo: "f9", Press: hotkey.PressShort, Count: 1, Action: "short"}
	start := time.Now()
	res := f.Execute(ev, "sleep 0.2 && true")
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("Execute blocked for %v", elapsed)
	}
	if res.Status != feature.StatusPending {
		t.Errorf("Execute() status = %v, want pending", res.Status)
	}
	runner.Wait()
}

func TestExecuteRejectsEmptyAction(t *testing.T) {
	f, _ := newTestFeature(t)

	ev := hotkey.Event{Combo: "f9", Press: hotkey.PressShort, Count: 1, Action: "short"}
	if res := f.Execute(ev, ""); !res.IsError() {
		t.Errorf("Execute(\"\") = %+v, want error", res)
	}
}
