package keymap

import (
	"errors"
	"testing"

	"hotkeyd/internal/hotkey"
)

// mapSource is a Source over a literal mode table.
type mapSource map[string]map[string]Binding

func (m mapSource) Bindings(modeID string) (map[string]Binding, bool) {
	b, ok := m[modeID]
	return b, ok
}

// setFeatures is a FeatureSet over a name list.
type setFeatures map[string]bool

func (s setFeatures) Has(name string) bool { return s[name] }

func devSource() mapSource {
	return mapSource{
		"DEV": {
			"f9": NewBinding("git_status").
				With("short", "status").
				With("double", "diff"),
			"f10": NewBinding("docker_ps"),
		},
	}
}

func shortEvent(combo string) hotkey.Event {
	return hotkey.Event{
		Combo:  combo,
		Press:  hotkey.PressShort,
		Count:  1,
		Action: "short",
	}
}

func TestResolveExactActionMatch(t *testing.T) {
	r := NewResolver(devSource(), setFeatures{"git_status": true}, nil)

	res, err := r.Resolve("DEV", shortEvent("f9"))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if res.Feature != "git_status" || res.Action != "status" {
		t.Errorf("Resolve() = (%q, %q), want (git_status, status)", res.Feature, res.Action)
	}
	if res.Fallback {
		t.Error("exact match should not be flagged as fallback")
	}
}

func TestResolveCanonicalNameMatch(t *testing.T) {
	src := mapSource{
		"DEV": {
			"f9": NewBinding("git_status").With("multi", "log"),
		},
	}
	r := NewResolver(src, setFeatures{"git_status": true}, nil)

	ev := hotkey.Event{
		Combo:  "f9",
		Press:  hotkey.PressMulti,
		Count:  5,
		Action: "multi_5",
	}

	res, err := r.Resolve("DEV", ev)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if res.Action != "log" {
		t.Errorf("Action = %q, want canonical-name match %q", res.Action, "log")
	}
}

func TestResolveExactBeatsCanonical(t *testing.T) {
	src := mapSource{
		"DEV": {
			"f9": NewBinding("git_status").
				With("multi", "log").
				With("multi_3", "log3"),
		},
	}
	r := NewResolver(src, setFeatures{"git_status": true}, nil)

	ev := hotkey.Event{Combo: "f9", Press: hotkey.PressMulti, Count: 3, Action: "multi_3"}

	res, err := r.Resolve("DEV", ev)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if res.Action != "log3" {
		t.Errorf("Action = %q, want exact label match %q", res.Action, "log3")
	}
}

func TestResolveFirstPatternFallback(t *testing.T) {
	// A long press against a binding that only configures "short" falls
	// back to the first configured pattern. This is intentional but
	// discouraged compatibility behavior; new bindings should configure
	// the pattern they mean.
	src := mapSource{
		"DEV": {
			"f9": NewBinding("git_status").With("short", "status"),
		},
	}
	r := NewResolver(src, setFeatures{"git_status": true}, nil)

	ev := hotkey.Event{Combo: "f9", Press: hotkey.PressLong, Count: 1, Action: "long"}

	res, err := r.Resolve("DEV", ev)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if res.Feature != "git_status" || res.Action != "status" {
		t.Errorf("Resolve() = (%q, %q), want fallback to (git_status, status)", res.Feature, res.Action)
	}
	if !res.Fallback {
		t.Error("fallback resolution should be flagged")
	}
}

func TestResolveUnknownMode(t *testing.T) {
	r := NewResolver(devSource(), setFeatures{"git_status": true}, nil)

	_, err := r.Resolve("UNKNOWN", shortEvent("f9"))
	if !errors.Is(err, ErrNoBinding) {
		t.Errorf("error = %v, want ErrNoBinding", err)
	}
}

func TestResolveUnboundKey(t *testing.T) {
	r := NewResolver(devSource(), setFeatures{"git_status": true}, nil)

	_, err := r.Resolve("DEV", shortEvent("f12"))
	if !errors.Is(err, ErrNoBinding) {
		t.Errorf("error = %v, want ErrNoBinding", err)
	}
}

func TestResolveEmptyPatterns(t *testing.T) {
	r := NewResolver(devSource(), setFeatures{"docker_ps": true}, nil)

	_, err := r.Resolve("DEV", shortEvent("f10"))
	if !errors.Is(err, ErrNoPatterns) {
		t.Errorf("error = %v, want ErrNoPatterns", err)
	}
}

func TestResolveUnregisteredFeature(t *testing.T) {
	r := NewResolver(devSource(), setFeatures{}, nil)

	_, err := r.Resolve("DEV", shortEvent("f9"))
	if !errors.Is(err, ErrFeatureUnregistered) {
		t.Errorf("error = %v, want ErrFeatureUnregistered", err)
	}
}

func TestResolveIdempotent(t *testing.T) {
	src := devSource()
	r := NewResolver(src, setFeatures{"git_status": true}, nil)
	ev := shortEvent("f9")

	first, err1 := r.Resolve("DEV", ev)
	second, err2 := r.Resolve("DEV", ev)

	if err1 != nil || err2 != nil {
		t.Fatalf("Resolve() errors = %v, %v", err1, err2)
	}
	if first != second {
		t.Errorf("repeated Resolve() differs: %+v vs %+v", first, second)
	}

	// The binding table must be untouched.
	b := src["DEV"]["f9"]
	if len(b.Patterns) != 2 || b.Patterns[0].Action != "status" {
		t.Errorf("binding table mutated: %+v", b)
	}
}

func TestBindingValidate(t *testing.T) {
	if err := NewBinding("").Validate(); err == nil {
		t.Error("empty feature name should fail validation")
	}
	if err := NewBinding("f").With("", "x").Validate(); err == nil {
		t.Error("empty pattern name should fail validation")
	}
	if err := NewBinding("f").With("short", "x").Validate(); err != nil {
		t.Errorf("valid binding failed validation: %v", err)
	}
}
