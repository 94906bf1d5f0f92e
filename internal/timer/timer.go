// Package timer implements the pomodoro cycle state machine: work/short
// break/long break progression, duration mutation, one-cycle overrides, and
// session bookkeeping. The engine performs no I/O of its own; transition side
// effects are delivered through an injected Notifier.
package timer

import (
	"fmt"
)

// Cycle table indices. CurrentIndex is always one of these.
const (
	indexWork       = 0
	indexShortBreak = 1
	indexLongBreak  = 2
	cycleCount      = 3
)

// MaxIterations is the number of work/short-break round trips before a long
// break is scheduled.
const MaxIterations = 4

// TickMillis is the quantum by which Tick advances the sub-second accumulator.
const TickMillis = 100

// Default durations in seconds.
const (
	DefaultWorkTime   = 25 * 60
	DefaultShortBreak = 5 * 60
	DefaultLongBreak  = 15 * 60
)

// Display state classes, mirrored into the status bar CSS class field.
const (
	ClassEmpty = ""
	ClassPause = "pause"
	ClassWork  = "work"
	ClassBreak = "break"
)

// CycleType identifies one of the three cycle slots.
type CycleType int

const (
	CycleWork CycleType = iota
	CycleShortBreak
	CycleLongBreak
)

func (c CycleType) String() string {
	switch c {
	case CycleWork:
		return "work"
	case CycleShortBreak:
		return "short break"
	case CycleLongBreak:
		return "long break"
	default:
		return fmt.Sprintf("cycle(%d)", int(c))
	}
}

// CycleFromIndex maps a cycle table index to its CycleType. An out-of-range
// index is an invariant violation, reported as an error rather than a panic
// since CurrentIndex is kept in range by construction.
func CycleFromIndex(index int) (CycleType, error) {
	if index < 0 || index >= cycleCount {
		return CycleWork, fmt.Errorf("cycle index %d out of range", index)
	}
	return CycleType(index), nil
}

// Notifier receives cycle transition events. Only the designated instance's
// timer carries a non-nil notifier.
type Notifier interface {
	CycleStarted(cycle CycleType)
}

// Policy holds the transition options the engine consults when a cycle ends.
type Policy struct {
	// AutoWork keeps the timer running when a work cycle begins.
	AutoWork bool
	// AutoBreak keeps the timer running when a break cycle begins.
	AutoBreak bool
}

// Timer is the engine state. It is owned and mutated by a single goroutine;
// see the daemon package for the ownership model.
type Timer struct {
	CurrentIndex     int    `json:"current_index"`
	ElapsedMillis    int    `json:"elapsed_millis"`
	ElapsedTime      int    `json:"elapsed_time"`
	Times            [3]int `json:"times"`
	Iterations       int    `json:"iterations"`
	SessionCompleted int    `json:"session_completed"`
	Running          bool   `json:"running"`
	InstanceID       int    `json:"instance_id"`

	// CurrentOverride replaces the base duration for the current cycle only.
	// It is cleared on transition and never persisted.
	CurrentOverride *int `json:"-"`

	notifier Notifier
}

// New creates a stopped timer positioned at the start of a work cycle.
// Durations are in seconds.
func New(workTime, shortBreak, longBreak, instanceID int) *Timer {
	return &Timer{
		Times:      [3]int{workTime, shortBreak, longBreak},
		InstanceID: instanceID,
	}
}

// SetNotifier attaches the transition side-effect sink.
func (t *Timer) SetNotifier(n Notifier) {
	t.notifier = n
}

// Reset returns the timer to a stopped work cycle with all progress cleared.
// Configured durations and the completed-session counter survive.
func (t *Timer) Reset() {
	t.CurrentIndex = indexWork
	t.ElapsedTime = 0
	t.ElapsedMillis = 0
	t.Iterations = 0
	t.Running = false
	t.CurrentOverride = nil
}

// IsBreak reports whether the current cycle is a break.
func (t *Timer) IsBreak() bool {
	return t.CurrentIndex != indexWork
}

// EffectiveDuration is the duration the current cycle runs against: the
// one-shot override when set, otherwise the configured base duration.
func (t *Timer) EffectiveDuration() int {
	if t.CurrentOverride != nil {
		return *t.CurrentOverride
	}
	return t.Times[t.CurrentIndex]
}

// Remaining returns the seconds left in the current cycle.
func (t *Timer) Remaining() int {
	return t.EffectiveDuration() - t.ElapsedTime
}

// SetDuration overwrites the base duration for a cycle, in minutes. Changing
// a base duration invalidates in-progress comparisons, so the whole cycle
// restarts from a stopped work state.
func (t *Timer) SetDuration(cycle CycleType, minutes int) {
	t.Reset()
	t.Times[cycle] = minutes * 60
}

// AddDeltaDuration adjusts a base duration by a signed number of minutes,
// floored at zero, without resetting progress. If the adjusted cycle is the
// active one and its duration drops to at or below the elapsed time, the
// elapsed time is fast-forwarded so the next tick fires the transition
// instead of leaving a negative remainder.
func (t *Timer) AddDeltaDuration(cycle CycleType, deltaMinutes int) {
	next := t.Times[cycle] + deltaMinutes*60
	if next < 0 {
		next = 0
	}
	t.Times[cycle] = next

	if int(cycle) == t.CurrentIndex && t.CurrentOverride == nil && t.ElapsedTime >= next {
		t.ElapsedTime = next
		t.ElapsedMillis = 0
	}
}

// SetCurrentOverride replaces the current cycle's duration, in minutes, for
// this cycle only. The base durations are untouched.
func (t *Timer) SetCurrentOverride(minutes int) {
	duration := minutes * 60
	t.CurrentOverride = &duration
	if t.ElapsedTime > duration {
		t.ElapsedTime = duration
		t.ElapsedMillis = 0
	}
}

// AddCurrentDelta adjusts the current cycle's effective duration by a signed
// number of minutes, floored at zero, storing the result as an override.
func (t *Timer) AddCurrentDelta(deltaMinutes int) {
	next := t.EffectiveDuration() + deltaMinutes*60
	if next < 0 {
		next = 0
	}
	t.CurrentOverride = &next
	if t.ElapsedTime > next {
		t.ElapsedTime = next
		t.ElapsedMillis = 0
	}
}

// Tick advances the sub-second accumulator by one quantum, carrying whole
// seconds into ElapsedTime. Callers only tick while Running.
func (t *Timer) Tick() {
	t.ElapsedMillis += TickMillis
	if t.ElapsedMillis >= 1000 {
		t.ElapsedMillis = 0
		t.ElapsedTime++
	}
}

// UpdateState fires the cycle transition when the current cycle has run to
// completion; otherwise it is a no-op. Invoked once per tick after time
// advances.
func (t *Timer) UpdateState(policy Policy) {
	if t.EffectiveDuration()-t.ElapsedTime != 0 {
		return
	}

	// Overrides are single-cycle scoped.
	t.CurrentOverride = nil

	switch {
	case t.CurrentIndex == indexWork && t.Iterations == MaxIterations-1:
		// The last work cycle of the set earns a long break.
		t.CurrentIndex = indexLongBreak
		t.Iterations = MaxIterations
	case t.CurrentIndex == indexLongBreak && t.Iterations == MaxIterations:
		// Coming off the long break completes one full pomodoro session.
		t.CurrentIndex = indexWork
		t.Iterations = 0
		t.SessionCompleted++
	default:
		t.CurrentIndex = (t.CurrentIndex + 1) % 2
		if t.CurrentIndex == indexWork {
			t.Iterations++
		}
	}

	t.ElapsedTime = 0

	// Auto-continue is evaluated against the state just entered.
	t.Running = (policy.AutoBreak && t.IsBreak()) || (policy.AutoWork && !t.IsBreak())

	t.notifyTransition()
}

func (t *Timer) notifyTransition() {
	if t.notifier == nil {
		return
	}
	cycle, err := CycleFromIndex(t.CurrentIndex)
	if err != nil {
		return
	}
	t.notifier.CycleStarted(cycle)
}

// NextState skips to the end of the current cycle and fires the transition,
// letting a user manually advance the timer.
func (t *Timer) NextState(policy Policy) {
	t.ElapsedTime = t.EffectiveDuration()
	t.ElapsedMillis = 0
	t.UpdateState(policy)
}

// Class returns the display-state classifier. The four cases are disjoint and
// exhaustive: untouched, paused, work, break.
func (t *Timer) Class() string {
	switch {
	case t.ElapsedMillis == 0 && t.ElapsedTime == 0 && t.Iterations == 0 && t.SessionCompleted == 0:
		return ClassEmpty
	case !t.Running:
		return ClassPause
	case !t.IsBreak():
		return ClassWork
	default:
		return ClassBreak
	}
}
