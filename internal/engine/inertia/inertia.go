// Package inertia implements the frame-clock-driven exponential decay
// that keeps emitting scroll events after lift-off (spec.md §4.6).
package inertia

import (
	"math"

	"github.com/jason5545/TrackPal/pkg/config"
	"github.com/jason5545/TrackPal/pkg/inject"
	"github.com/jason5545/TrackPal/pkg/zone"
)

const (
	// decelerationRate is applied once per millisecond of frame
	// interval: decay = decelerationRate^frameIntervalMs.
	decelerationRate = 0.998
	// minVelocity is the per-axis cutoff below which inertia stops.
	minVelocity = 2.0
	// startVelocityThreshold is the minimum |v_axis_scroll| required
	// to start an inertia phase at all.
	startVelocityThreshold = 20.0
)

// Coaster is one lift-off's decaying velocity state. It is started
// when a scroll session ends with sufficient velocity and stopped by
// a new touch, a multi-finger transition, or natural decay.
type Coaster struct {
	Zone         zone.Zone
	VX, VY       float64
	MomentumBegan bool
	running      bool
}

// VelocitySample is one chronologically-ordered sample of the touch
// session's velocity history (spec.md §3).
type VelocitySample struct{ VX, VY, T float64 }

// Average reduces a bounded velocity history to a single (vx, vy)
// sample, per spec.md §4.6 ("Average velocity_history").
func Average(history []VelocitySample) (avgVX, avgVY float64) {
	if len(history) == 0 {
		return 0, 0
	}
	for _, s := range history {
		avgVX += s.VX
		avgVY += s.VY
	}
	n := float64(len(history))
	return avgVX / n, avgVY / n
}

// Start computes the initial inertia velocity from the averaged
// on-lift-off velocity and returns (coaster, true) if it exceeds the
// start threshold on the zone's scroll axis; otherwise (nil, false).
func Start(z zone.Zone, avgVX, avgVY float64, cfg config.Config) (*Coaster, bool) {
	var scrollVelX, scrollVelY float64
	var axisVelocity float64

	if z.IsHorizontal() {
		scrollVelX = avgVX * cfg.ScrollMultiplier * 20 * 1.6
		axisVelocity = scrollVelX
	} else {
		scrollVelY = -avgVY * cfg.ScrollMultiplier * 20
		axisVelocity = scrollVelY
	}

	if math.Abs(axisVelocity) <= startVelocityThreshold {
		return nil, false
	}

	return &Coaster{Zone: z, VX: scrollVelX, VY: scrollVelY, running: true}, true
}

// Running reports whether the coaster is still decaying.
func (c *Coaster) Running() bool {
	return c != nil && c.running
}

// Tick advances the coaster by one frame-clock interval and returns
// the scroll event to emit, or nil if the coaster is not running.
// When decay brings both axes below minVelocity,
// Tick stops the coaster and returns a momentum-ended event if a
// momentum-began event was previously emitted.
func (c *Coaster) Tick(frameIntervalMs float64) *inject.ScrollEvent {
	if !c.running {
		return nil
	}

	decay := math.Pow(decelerationRate, frameIntervalMs)
	c.VX *= decay
	c.VY *= decay

	if math.Abs(c.VX) < minVelocity && math.Abs(c.VY) < minVelocity {
		c.running = false
		if c.MomentumBegan {
			c.MomentumBegan = false
			return &inject.ScrollEvent{
				Momentum:    inject.MomentumEnded,
				Continuous:  true,
				UserDataTag: inject.TrackPalTag,
			}
		}
		return nil
	}

	momentum := inject.MomentumChanged
	if !c.MomentumBegan {
		momentum = inject.MomentumBegan
		c.MomentumBegan = true
	}

	return &inject.ScrollEvent{
		DeltaX:      int(c.VX),
		DeltaY:      int(c.VY),
		Continuous:  true,
		Momentum:    momentum,
		UserDataTag: inject.TrackPalTag,
	}
}

// Stop cancels the coaster immediately (new session, multi-finger
// transition, or explicit cancel) and returns a momentum-ended event
// if one was in progress.
func (c *Coaster) Stop() *inject.ScrollEvent {
	if c == nil || !c.running {
		return nil
	}
	c.running = false
	if c.MomentumBegan {
		c.MomentumBegan = false
		return &inject.ScrollEvent{
			Momentum:    inject.MomentumEnded,
			Continuous:  true,
			UserDataTag: inject.TrackPalTag,
		}
	}
	return nil
}
