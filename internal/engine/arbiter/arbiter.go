// Package arbiter tracks single- vs multi-finger contact state across
// frames and gates whether a single-finger frame should be processed
// by the rest of the engine (spec.md §4.3).
package arbiter

import "time"

// GestureMode is the arbiter's tri-state finger-count classification.
type GestureMode int

const (
	Idle GestureMode = iota
	SingleFinger
	MultiFinger
)

func (m GestureMode) String() string {
	switch m {
	case Idle:
		return "idle"
	case SingleFinger:
		return "single_finger"
	case MultiFinger:
		return "multi_finger"
	default:
		return "unknown"
	}
}

// multiToSingleDebounce is the window during which single-finger
// frames right after a multi-finger gesture are discarded, to avoid
// reacting to system gesture tails (spec.md §4.3).
const multiToSingleDebounce = 150 * time.Millisecond

// Arbiter is the mutable finger-count state machine. It is not safe
// for concurrent use; the engine's main loop owns it exclusively
// (spec.md §5).
type Arbiter struct {
	mode                        GestureMode
	multiToSingleTransitionTime time.Time
	haveTransitionTime          bool
}

// New returns an Arbiter starting in Idle.
func New() *Arbiter {
	return &Arbiter{mode: Idle}
}

// Mode returns the current gesture mode.
func (a *Arbiter) Mode() GestureMode {
	return a.mode
}

// CancelResult reports whether an active scroll session must be
// cancelled as a side effect of an OnFingerCount transition.
type CancelResult struct {
	CancelActiveScroll bool
}

// OnFingerCount updates the arbiter for a newly observed finger count
// at time now, applying the transition table from spec.md §4.3.
func (a *Arbiter) OnFingerCount(count int, now time.Time) CancelResult {
	prev := a.mode

	switch {
	case count == 0:
		a.mode = Idle
	case count == 1:
		if prev == MultiFinger {
			a.multiToSingleTransitionTime = now
			a.haveTransitionTime = true
		}
		a.mode = SingleFinger
	default: // count > 1
		a.mode = MultiFinger
	}

	cancelled := prev == SingleFinger && a.mode == MultiFinger
	return CancelResult{CancelActiveScroll: cancelled}
}

// ShouldProcessSingleFingerTouch reports whether a single-finger frame
// arriving at now should be processed, per spec.md §4.3: false while
// in MultiFinger mode, and false for multiToSingleDebounce after a
// multi-to-single transition.
func (a *Arbiter) ShouldProcessSingleFingerTouch(now time.Time) bool {
	if a.mode == MultiFinger {
		return false
	}
	if a.mode == SingleFinger && a.haveTransitionTime {
		if now.Sub(a.multiToSingleTransitionTime) < multiToSingleDebounce {
			return false
		}
	}
	return true
}
