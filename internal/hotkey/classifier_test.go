package hotkey

import (
	"sort"
	"sync"
	"testing"
	"time"
)

// fakeTimer is a manually fired Timer.
type fakeTimer struct {
	deadline time.Duration
	fn       func()
	stopped  bool
	fired    bool
}

func (t *fakeTimer) Stop() bool {
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}

// fakeScheduler drives decision timers deterministically from tests.
type fakeScheduler struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*fakeTimer
}

func (s *fakeScheduler) AfterFunc(d time.Duration, fn func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := &fakeTimer{deadline: s.now + d, fn: fn}
	s.timers = append(s.timers, t)
	return t
}

// advance moves fake time forward and fires due timers in deadline order.
func (s *fakeScheduler) advance(d time.Duration) {
	s.mu.Lock()
	s.now += d
	var due []*fakeTimer
	for _, t := range s.timers {
		if !t.stopped && !t.fired && t.deadline <= s.now {
			t.fired = true
			due = append(due, t)
		}
	}
	s.mu.Unlock()

	sort.Slice(due, func(i, j int) bool { return due[i].deadline < due[j].deadline })
	for _, t := range due {
		t.fn()
	}
}

// collector records emitted events.
type collector struct {
	mu     sync.Mutex
	events []Event
}

func (c *collector) emit(e Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

func (c *collector) all() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Event, len(c.events))
	copy(out, c.events)
	return out
}

func newTestClassifier() (*Classifier, *fakeScheduler, *collector) {
	sched := &fakeScheduler{}
	col := &collector{}
	cfg := Config{
		LongPressThreshold: 800 * time.Millisecond,
		MultiPressWindow:   500 * time.Millisecond,
		MultiPressCount:    3,
	}
	return NewClassifier(cfg, sched, col.emit), sched, col
}

var base = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func at(ms int) time.Time {
	return base.Add(time.Duration(ms) * time.Millisecond)
}

func TestClassifierShortPress(t *testing.T) {
	c, sched, col := newTestClassifier()

	c.OnRelease("f9", 100*time.Millisecond, at(0))

	if got := col.all(); len(got) != 0 {
		t.Fatalf("emitted %d events before window elapsed, want 0", len(got))
	}

	sched.advance(500 * time.Millisecond)

	got := col.all()
	if len(got) != 1 {
		t.Fatalf("emitted %d events, want 1", len(got))
	}
	e := got[0]
	if e.Press != PressShort {
		t.Errorf("Press = %v, want short", e.Press)
	}
	if e.Count != 1 {
		t.Errorf("Count = %d, want 1", e.Count)
	}
	if e.Action != "short" {
		t.Errorf("Action = %q, want %q", e.Action, "short")
	}
	if e.Combo != "f9" {
		t.Errorf("Combo = %q, want %q", e.Combo, "f9")
	}
	if e.Source != "keyboard" {
		t.Errorf("Source = %q, want %q", e.Source, "keyboard")
	}
}

func TestClassifierLongPressBypass(t *testing.T) {
	c, sched, col := newTestClassifier()

	c.OnRelease("f10", 900*time.Millisecond, at(0))

	got := col.all()
	if len(got) != 1 {
		t.Fatalf("emitted %d events, want 1 immediately", len(got))
	}
	e := got[0]
	if e.Press != PressLong {
		t.Errorf("Press = %v, want long", e.Press)
	}
	if e.Action != "long" {
		t.Errorf("Action = %q, want %q", e.Action, "long")
	}
	if e.Count != 1 {
		t.Errorf("Count = %d, want 1", e.Count)
	}
	if e.Duration != 900*time.Millisecond {
		t.Errorf("Duration = %v, want 900ms", e.Duration)
	}

	if pending := c.PendingKeys(); len(pending) != 0 {
		t.Errorf("pending timers after long press: %v", pending)
	}

	// The window elapsing must not produce a second event.
	sched.advance(time.Second)
	if got := col.all(); len(got) != 1 {
		t.Errorf("emitted %d events after window, want 1", len(got))
	}
}

func TestClassifierLongAtExactThreshold(t *testing.T) {
	c, _, col := newTestClassifier()

	c.OnRelease("f10", 800*time.Millisecond, at(0))

	got := col.all()
	if len(got) != 1 || got[0].Press != PressLong {
		t.Fatalf("duration == threshold should classify long immediately, got %v", got)
	}
}

func TestClassifierDoublePress(t *testing.T) {
	c, sched, col := newTestClassifier()

	c.OnRelease("f9", 100*time.Millisecond, at(0))
	sched.advance(200 * time.Millisecond)
	c.OnRelease("f9", 100*time.Millisecond, at(200))

	if got := col.all(); len(got) != 0 {
		t.Fatalf("emitted %d events before window elapsed, want 0", len(got))
	}

	// The window is measured from the second press.
	sched.advance(499 * time.Millisecond)
	if got := col.all(); len(got) != 0 {
		t.Fatalf("emitted %d events before second window elapsed, want 0", len(got))
	}

	sched.advance(1 * time.Millisecond)

	got := col.all()
	if len(got) != 1 {
		t.Fatalf("emitted %d events, want 1", len(got))
	}
	if got[0].Press != PressDouble || got[0].Count != 2 {
		t.Errorf("event = %v count %d, want double count 2", got[0].Press, got[0].Count)
	}
	if got[0].Action != "double" {
		t.Errorf("Action = %q, want %q", got[0].Action, "double")
	}
}

func TestClassifierMultiEarlyTermination(t *testing.T) {
	// Scenario from the timing contract: releases at t=0, 200ms, 350ms
	// must emit a single multi_3 at t=350ms, not later.
	c, sched, col := newTestClassifier()

	c.OnRelease("f9", 100*time.Millisecond, at(0))
	sched.advance(200 * time.Millisecond)
	c.OnRelease("f9", 100*time.Millisecond, at(200))
	sched.advance(150 * time.Millisecond)
	c.OnRelease("f9", 100*time.Millisecond, at(350))

	got := col.all()
	if len(got) != 1 {
		t.Fatalf("emitted %d events at third release, want 1", len(got))
	}
	e := got[0]
	if e.Press != PressMulti {
		t.Errorf("Press = %v, want multi", e.Press)
	}
	if e.Count != 3 {
		t.Errorf("Count = %d, want 3", e.Count)
	}
	if e.Action != "multi_3" {
		t.Errorf("Action = %q, want %q", e.Action, "multi_3")
	}

	// No trailing decision after the early termination.
	sched.advance(time.Second)
	if got := col.all(); len(got) != 1 {
		t.Errorf("emitted %d events after window, want 1", len(got))
	}
}

func TestClassifierTrailingMulti(t *testing.T) {
	// With a higher count threshold, a 3-press burst resolves on timeout.
	sched := &fakeScheduler{}
	col := &collector{}
	c := NewClassifier(Config{
		LongPressThreshold: 800 * time.Millisecond,
		MultiPressWindow:   500 * time.Millisecond,
		MultiPressCount:    5,
	}, sched, col.emit)

	c.OnRelease("f9", 50*time.Millisecond, at(0))
	sched.advance(100 * time.Millisecond)
	c.OnRelease("f9", 50*time.Millisecond, at(100))
	sched.advance(100 * time.Millisecond)
	c.OnRelease("f9", 50*time.Millisecond, at(200))

	sched.advance(500 * time.Millisecond)

	got := col.all()
	if len(got) != 1 {
		t.Fatalf("emitted %d events, want 1", len(got))
	}
	if got[0].Press != PressMulti || got[0].Count != 3 || got[0].Action != "multi_3" {
		t.Errorf("got %v count %d action %q, want multi count 3 action multi_3",
			got[0].Press, got[0].Count, got[0].Action)
	}
}

func TestClassifierTimerExclusivity(t *testing.T) {
	// Any sequence of releases on one key must emit exactly one event per
	// burst; stale timers must never produce duplicates.
	c, sched, col := newTestClassifier()

	// Burst 1: double press.
	c.OnRelease("f9", 100*time.Millisecond, at(0))
	sched.advance(200 * time.Millisecond)
	c.OnRelease("f9", 100*time.Millisecond, at(200))
	sched.advance(500 * time.Millisecond)

	// Burst 2: single short press.
	c.OnRelease("f9", 100*time.Millisecond, at(1000))
	sched.advance(500 * time.Millisecond)

	// Burst 3: long press.
	c.OnRelease("f9", 900*time.Millisecond, at(3000))

	sched.advance(5 * time.Second)

	got := col.all()
	if len(got) != 3 {
		t.Fatalf("emitted %d events, want exactly 3 (one per burst): %v", len(got), got)
	}
	want := []PressType{PressDouble, PressShort, PressLong}
	for i, w := range want {
		if got[i].Press != w {
			t.Errorf("event %d = %v, want %v", i, got[i].Press, w)
		}
	}
}

func TestClassifierIndependentKeys(t *testing.T) {
	c, sched, col := newTestClassifier()

	c.OnRelease("f9", 100*time.Millisecond, at(0))
	c.OnRelease("f10", 100*time.Millisecond, at(10))
	sched.advance(600 * time.Millisecond)

	got := col.all()
	if len(got) != 2 {
		t.Fatalf("emitted %d events, want 2", len(got))
	}
	combos := map[string]bool{}
	for _, e := range got {
		combos[e.Combo] = true
		if e.Press != PressShort {
			t.Errorf("%s: Press = %v, want short", e.Combo, e.Press)
		}
	}
	if !combos["f9"] || !combos["f10"] {
		t.Errorf("combos = %v, want f9 and f10", combos)
	}
}

func TestClassifierNewBurstAfterWindow(t *testing.T) {
	c, sched, col := newTestClassifier()

	c.OnRelease("f9", 100*time.Millisecond, at(0))
	sched.advance(500 * time.Millisecond)
	// Past the window: this starts a fresh burst on the same key state.
	c.OnRelease("f9", 100*time.Millisecond, at(700))
	sched.advance(500 * time.Millisecond)

	got := col.all()
	if len(got) != 2 {
		t.Fatalf("emitted %d events, want 2 separate shorts", len(got))
	}
	for i, e := range got {
		if e.Press != PressShort || e.Count != 1 {
			t.Errorf("event %d = %v count %d, want short count 1", i, e.Press, e.Count)
		}
	}
}

func TestClassifierLateReleaseResolvesPreviousBurst(t *testing.T) {
	// A release can arrive after the window has elapsed but before the
	// decision timer callback has run. The old burst must still emit its
	// decision; only then does the new burst start.
	c, sched, col := newTestClassifier()

	c.OnRelease("f9", 100*time.Millisecond, at(0))
	// No advance: the first burst's timer is expired-equivalent but its
	// callback has not run when the next release wins the race.
	c.OnRelease("f9", 100*time.Millisecond, at(600))

	got := col.all()
	if len(got) != 1 {
		t.Fatalf("emitted %d events at second release, want 1 for the old burst: %v", len(got), got)
	}
	if got[0].Press != PressShort || got[0].Count != 1 {
		t.Errorf("old burst = %v count %d, want short count 1", got[0].Press, got[0].Count)
	}

	sched.advance(2 * time.Second)

	got = col.all()
	if len(got) != 2 {
		t.Fatalf("two separate bursts emitted %d events, want 2: %v", len(got), got)
	}
	if got[1].Press != PressShort || got[1].Count != 1 {
		t.Errorf("new burst = %v count %d, want short count 1", got[1].Press, got[1].Count)
	}
}

func TestClassifierLateLongPressResolvesPreviousBurst(t *testing.T) {
	// Same race, but the late release is a long press: the old burst's
	// double must emit before the long press does.
	c, sched, col := newTestClassifier()

	c.OnRelease("f9", 100*time.Millisecond, at(0))
	sched.advance(200 * time.Millisecond)
	c.OnRelease("f9", 100*time.Millisecond, at(200))
	c.OnRelease("f9", 900*time.Millisecond, at(1600))

	got := col.all()
	if len(got) != 2 {
		t.Fatalf("emitted %d events, want 2: %v", len(got), got)
	}
	if got[0].Press != PressDouble || got[0].Count != 2 {
		t.Errorf("old burst = %v count %d, want double count 2", got[0].Press, got[0].Count)
	}
	if got[1].Press != PressLong {
		t.Errorf("late release = %v, want long", got[1].Press)
	}

	sched.advance(2 * time.Second)
	if got := col.all(); len(got) != 2 {
		t.Errorf("stale timer produced extra events: %v", got)
	}
}

func TestClassifierRejectsMalformedInput(t *testing.T) {
	c, sched, col := newTestClassifier()

	c.OnRelease("", 100*time.Millisecond, at(0))
	c.OnRelease("f9", -1*time.Millisecond, at(0))
	sched.advance(time.Second)

	if got := col.all(); len(got) != 0 {
		t.Errorf("emitted %d events for malformed input, want 0", len(got))
	}
	if pending := c.PendingKeys(); len(pending) != 0 {
		t.Errorf("pending timers for malformed input: %v", pending)
	}
}

func TestClassifierPressTracking(t *testing.T) {
	c, _, _ := newTestClassifier()

	c.OnPress("f9", at(0))
	c.mu.Lock()
	pressed := c.keys["f9"].pressed
	c.mu.Unlock()
	if !pressed {
		t.Error("key should be tracked as pressed after OnPress")
	}

	c.OnRelease("f9", 100*time.Millisecond, at(100))
	c.mu.Lock()
	pressed = c.keys["f9"].pressed
	c.mu.Unlock()
	if pressed {
		t.Error("key should not be tracked as pressed after OnRelease")
	}
}

func TestClassifierRealSchedulerShortPress(t *testing.T) {
	// Smoke test against the runtime timer facility with generous margins.
	col := &collector{}
	c := NewClassifier(Config{
		LongPressThreshold: 200 * time.Millisecond,
		MultiPressWindow:   30 * time.Millisecond,
		MultiPressCount:    3,
	}, nil, col.emit)

	c.OnRelease("f5", 10*time.Millisecond, time.Now())

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(col.all()) == 1 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	got := col.all()
	if len(got) != 1 || got[0].Press != PressShort {
		t.Fatalf("got %v, want one short press", got)
	}
}

func TestActionLabel(t *testing.T) {
	tests := []struct {
		press PressType
		count int
		want  string
	}{
		{PressShort, 1, "short"},
		{PressLong, 1, "long"},
		{PressDouble, 2, "double"},
		{PressMulti, 3, "multi_3"},
		{PressMulti, 7, "multi_7"},
		{PressUnknown, 0, "unknown"},
	}

	for _, tt := range tests {
		if got := ActionLabel(tt.press, tt.count); got != tt.want {
			t.Errorf("ActionLabel(%v, %d) = %q, want %q", tt.press, tt.count, got, tt.want)
		}
	}
}
