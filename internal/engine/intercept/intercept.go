// Package intercept implements the Event Interceptor: it decides
// whether a raw OS scroll or mouse-move event should pass through to
// the rest of the system or be dropped because the engine's own
// synthetic scrolling already owns the gesture (spec.md §4.7).
//
// The guarded state is intentionally tiny, mirroring the small
// mutex-protected globals used to shuttle state across callback
// threads elsewhere in this codebase: a single bool plus a
// finger-count snapshot, nothing that needs its own goroutine.
package intercept

import (
	"sync"

	"github.com/jason5545/TrackPal/pkg/inject"
)

// Interceptor tracks whether the engine is actively driving a
// synthetic scroll and, if so, suppresses conflicting raw events from
// the OS input tap.
type Interceptor struct {
	mu sync.Mutex

	activeInZone bool
	fingerCount  int
}

// New returns an idle Interceptor.
func New() *Interceptor {
	return &Interceptor{}
}

// SetActive records whether the engine currently owns scrolling for
// the active touch session.
func (in *Interceptor) SetActive(active bool) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.activeInZone = active
}

// SetFingerCount records the latest raw finger count from the touch
// source.
func (in *Interceptor) SetFingerCount(n int) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.fingerCount = n
}

// InterceptScroll decides whether a raw two-finger scroll event from
// the OS should pass through untouched. A synthetic event carrying
// inject.TrackPalTag is always passed: it is the engine's own output,
// not a raw OS event, and must never be suppressed by its own tap.
func (in *Interceptor) InterceptScroll(ev inject.ScrollEvent) inject.Decision {
	if ev.UserDataTag == inject.TrackPalTag {
		return inject.Pass
	}

	in.mu.Lock()
	defer in.mu.Unlock()

	if in.activeInZone && in.fingerCount <= 1 {
		return inject.Drop
	}
	return inject.Pass
}

// InterceptMouseMove decides whether a raw mouse-move should pass. It
// is dropped under exactly the same is_actively_scrolling_in_zone
// condition as a raw scroll event (spec.md §4.7, §6); unlike
// InterceptScroll there is no tag exemption to check, since the engine
// never synthesizes its own MouseMoveEvent.
func (in *Interceptor) InterceptMouseMove(inject.MouseMoveEvent) inject.Decision {
	in.mu.Lock()
	defer in.mu.Unlock()

	if in.activeInZone && in.fingerCount <= 1 {
		return inject.Drop
	}
	return inject.Pass
}

// OnTapDenied is called when the OS event tap has been revoked
// (spec.md §7: "accessibility permission revoked mid-session"). It
// clears the active-scroll flag so a later successful re-enable does
// not inherit stale suppression state.
func (in *Interceptor) OnTapDenied() {
	in.SetActive(false)
}
