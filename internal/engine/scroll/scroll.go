// Package scroll implements the Scroll Emitter: it turns activation
// deltas into pixel-precise synthetic scroll events, tracking the
// sub-pixel accumulator and the began/ended phase machine for one
// touch session (spec.md §4.5).
package scroll

import (
	"math"

	"github.com/jason5545/TrackPal/pkg/config"
	"github.com/jason5545/TrackPal/pkg/inject"
	"github.com/jason5545/TrackPal/pkg/zone"
)

// Delta is a raw per-frame position change on the trackpad surface.
type Delta struct{ DX, DY float64 }

// Emitter accumulates fractional scroll distance for one touch
// session and emits whole-pixel scroll events. It is created fresh
// per session and discarded on reset_tracking.
type Emitter struct {
	Zone       zone.Zone
	AccX, AccY float64
	PhaseBegan bool
}

// New returns an Emitter for a scroll-zone touch session.
func New(z zone.Zone) *Emitter {
	return &Emitter{Zone: z}
}

// Feed applies the acceleration curve to delta, accumulates it using
// natural-scroll conventions, and returns the resulting event, or nil
// if the accumulated sub-pixel remainder has not yet reached a whole
// pixel on either axis.
func (e *Emitter) Feed(delta Delta, cfg config.Config) *inject.ScrollEvent {
	if e.Zone.IsHorizontal() {
		adjustedX := applyCurve(cfg.AccelerationCurve, delta.DX)
		e.AccX += adjustedX * cfg.ScrollMultiplier * 100 * 1.6
	} else {
		adjustedY := applyCurve(cfg.AccelerationCurve, delta.DY)
		e.AccY += -adjustedY * cfg.ScrollMultiplier * 100
	}

	sx := int(e.AccX)
	sy := int(e.AccY)
	e.AccX -= float64(sx)
	e.AccY -= float64(sy)

	if sx == 0 && sy == 0 {
		return nil
	}

	// scroll_phase_began is bookkeeping only: it tracks whether a
	// zero-delta event is owed on End, and is never written into the
	// event's own Phase field (spec.md §4.5: a nonzero phase here
	// activates the host UI framework's responsive-scrolling tracking
	// loop, which some hosts respond to by silently discarding the
	// event).
	e.PhaseBegan = true

	return &inject.ScrollEvent{
		DeltaX:      sx,
		DeltaY:      sy,
		LineDeltaX:  lineDelta(sx),
		LineDeltaY:  lineDelta(sy),
		Continuous:  true,
		Phase:       inject.PhaseNone,
		UserDataTag: inject.TrackPalTag,
	}
}

// End returns a zero-delta event if a scroll was previously fed, and
// clears PhaseBegan. It returns nil otherwise (spec.md invariant:
// scroll_phase_began implies a scroll event has been posted and no
// ended event has yet followed). Its Phase field is zero, same as
// every other emitted event.
func (e *Emitter) End() *inject.ScrollEvent {
	if !e.PhaseBegan {
		return nil
	}
	e.PhaseBegan = false
	return &inject.ScrollEvent{
		Phase:       inject.PhaseNone,
		Continuous:  true,
		UserDataTag: inject.TrackPalTag,
	}
}

// FlushRamped feeds buffered activation deltas through the emitter
// with a linear ramp (delta i of n scaled by (i+1)/(n+1)) so the view
// does not jump on activation (spec.md §4.4).
func (e *Emitter) FlushRamped(deltas []Delta, cfg config.Config) []*inject.ScrollEvent {
	n := len(deltas)
	var events []*inject.ScrollEvent
	for i, d := range deltas {
		scale := float64(i+1) / float64(n+1)
		scaled := Delta{DX: d.DX * scale, DY: d.DY * scale}
		if ev := e.Feed(scaled, cfg); ev != nil {
			events = append(events, ev)
		}
	}
	return events
}

func applyCurve(curve config.AccelerationCurve, d float64) float64 {
	switch curve {
	case config.CurveLinear:
		return d
	case config.CurveQuadratic:
		return d * math.Abs(d)
	case config.CurveCubic:
		return d * d * d
	case config.CurveEase:
		t := clamp01(math.Abs(d) * 10)
		smooth := t * t * (3 - 2*t)
		return d * (0.5 + smooth*0.5)
	default:
		return d
	}
}

func lineDelta(s int) int {
	if s == 0 {
		return 0
	}
	sign := 1
	abs := s
	if s < 0 {
		sign = -1
		abs = -s
	}
	v := abs / 10
	if v < 1 {
		v = 1
	}
	return sign * v
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
