package engine

import (
	"github.com/jason5545/TrackPal/internal/engine/inertia"
	"github.com/jason5545/TrackPal/internal/engine/intent"
	"github.com/jason5545/TrackPal/internal/engine/scroll"
	"github.com/jason5545/TrackPal/internal/engine/session"
	"github.com/jason5545/TrackPal/pkg/zone"
)

// velocityHistoryLimit bounds the per-touch velocity ring the Inertia
// Engine averages at lift-off (spec.md §3, §4.6).
const velocityHistoryLimit = 5

// touchSession is the engine's bookkeeping for one physical contact,
// from the frame that created it to the frame that released it. It is
// owned exclusively by the main loop, mirroring internal/capture/buckets's
// bounded-slice-with-eviction idiom for the velocity ring.
type touchSession struct {
	zone         zone.Zone // current zone, promoted or reset as the session evolves
	originalZone zone.Zone // zone the contact first entered, used for tap-vs-slide on release

	startTime float64
	lastTime  float64
	lastPos   intent.Point
	lastVel   intent.Velocity

	movement float64 // cumulative |delta|, used to distinguish taps from slides

	velocityHistory []inertia.VelocitySample

	activation *intent.State   // non-nil while the Bayesian evaluator is still deciding
	activated  bool            // true once activation has flushed to the Scroll Emitter
	emitter    *scroll.Emitter // non-nil for the lifetime of a scroll/corner-promoted session
	record     *session.Record // non-nil once activated
}

func (s *touchSession) pushVelocity(vx, vy, t float64) {
	s.velocityHistory = append(s.velocityHistory, inertia.VelocitySample{VX: vx, VY: vy, T: t})
	if len(s.velocityHistory) > velocityHistoryLimit {
		s.velocityHistory = s.velocityHistory[len(s.velocityHistory)-velocityHistoryLimit:]
	}
}
