package engine

import (
	"math"
	"time"

	"github.com/jason5545/TrackPal/internal/engine/inertia"
	"github.com/jason5545/TrackPal/internal/engine/intent"
	"github.com/jason5545/TrackPal/internal/engine/scroll"
	"github.com/jason5545/TrackPal/internal/engine/session"
	"github.com/jason5545/TrackPal/pkg/config"
	"github.com/jason5545/TrackPal/pkg/inject"
	"github.com/jason5545/TrackPal/pkg/touch"
	"github.com/jason5545/TrackPal/pkg/zone"
)

// tapMovementThreshold is the cumulative movement, in normalized
// units, below which a middle-click-zone touch is treated as a tap
// rather than a slide. Corner taps are not checked against it.
const tapMovementThreshold = 0.02

func timeAt(seconds float64) time.Time {
	return time.Unix(0, int64(seconds*float64(time.Second)))
}

// handleFrame runs entirely on the main loop for every raw multitouch
// frame (spec.md §5). It updates the Finger-Count Arbiter first, since
// that transition table applies regardless of the current session
// state, then dispatches on finger count.
func (e *Ctx) handleFrame(m frameMsg) {
	now := timeAt(m.timestamp)

	result := e.arbiter.OnFingerCount(m.fingerCount, now)
	e.interceptor.SetFingerCount(m.fingerCount)
	if result.CancelActiveScroll {
		e.cancelActive()
	}

	switch {
	case m.fingerCount == 0:
		e.handleRelease(m.timestamp)
		return
	case m.fingerCount > 1:
		return
	}

	if len(m.contacts) == 0 {
		return
	}
	c := m.contacts[0]

	if !e.arbiter.ShouldProcessSingleFingerTouch(now) {
		return
	}

	verdict := e.classifier.Classify(c, e.cfg)
	e.verdicts.Record(verdict)
	if verdict != touch.Valid {
		if e.session != nil {
			e.abandonSession()
		}
		return
	}

	if e.session == nil {
		e.startSession(c)
		return
	}
	e.updateSession(c)
}

// startSession begins tracking a new contact. Any inertia coast still
// running from a prior lift-off is pre-empted immediately, even if the
// new touch lands outside a scroll edge (spec.md §3, "momentum
// coasting... ends when... a new touch... pre-empts it").
func (e *Ctx) startSession(c touch.Contact) {
	if ev := e.stopInertia(); ev != nil {
		e.emitScroll(ev)
	}

	z := zone.Resolve(c.X, c.Y, e.cfg)
	pos := intent.Point{X: c.X, Y: c.Y}

	s := &touchSession{
		zone:         z,
		originalZone: z,
		startTime:    c.Timestamp,
		lastTime:     c.Timestamp,
		lastPos:      pos,
	}

	if z.IsScrollEdge() || z.IsCorner() {
		s.activation = intent.Start(z, pos, e.cfg)
		s.emitter = scroll.New(z)
		e.learner.OnSessionStart(z, timeAt(c.Timestamp))
		e.interceptor.SetActive(true)
	}

	e.session = s
}

func (e *Ctx) updateSession(c touch.Contact) {
	s := e.session
	pos := intent.Point{X: c.X, Y: c.Y}

	dt := c.Timestamp - s.lastTime
	if dt <= 0 {
		dt = 1.0 / 60.0
	}
	delta := intent.Delta{DX: pos.X - s.lastPos.X, DY: pos.Y - s.lastPos.Y}
	vel := intent.Velocity{VX: delta.DX / dt, VY: delta.DY / dt}

	s.movement += math.Hypot(delta.DX, delta.DY)
	s.pushVelocity(vel.VX, vel.VY, c.Timestamp)
	s.lastPos = pos
	s.lastVel = vel
	s.lastTime = c.Timestamp

	switch {
	case s.activation != nil:
		decision := s.activation.Update(pos, c.Density, vel, e.cfg, e.learner.Inputs())
		switch decision {
		case intent.Activated:
			e.onActivated(s)
		case intent.Rejected:
			e.onRejected(s)
		}

	case s.activated:
		if ev := s.emitter.Feed(scroll.Delta{DX: delta.DX, DY: delta.DY}, e.cfg); ev != nil {
			e.emitScroll(ev)
		}
		if s.record != nil {
			s.record.AddDelta(delta.DX, delta.DY)
		}
	}
}

// onActivated flushes the buffered activation deltas through the
// Scroll Emitter's linear ramp, feeds each delta's on-axis ratio to
// the Adaptive Learner, and starts a Session Recorder record (spec.md
// §4.4, §4.8, §4.9).
func (e *Ctx) onActivated(s *touchSession) {
	z := s.activation.Zone
	// A corner session may have been promoted to an edge; emit on that
	// edge's axis.
	s.emitter.Zone = z
	deltas := make([]scroll.Delta, len(s.activation.Deltas))
	for i, d := range s.activation.Deltas {
		deltas[i] = scroll.Delta{DX: d.DX, DY: d.DY}
	}

	for _, ev := range s.emitter.FlushRamped(deltas, e.cfg) {
		e.emitScroll(ev)
	}

	var lastRatio float64
	for _, d := range s.activation.Deltas {
		if ratio, ok := intent.OnAxisRatio(z, d); ok {
			e.learner.OnActivationSuccess(z, ratio)
			lastRatio = ratio
		}
	}

	density := 0.0
	if n := len(s.activation.Densities); n > 0 {
		density = s.activation.Densities[n-1]
	}
	onAxisSpeed, offAxisSpeed := intent.AxisSpeeds(z, s.lastVel)

	rec := session.Start(z, s.startTime, session.ActivationSnapshot{
		OnAxisRatio:  lastRatio,
		OffAxisSpeed: offAxisSpeed,
		OnAxisSpeed:  onAxisSpeed,
		Density:      density,
		Confidence:   s.activation.Confidence,
	})
	for _, d := range deltas {
		rec.AddDelta(d.DX, d.DY)
	}

	s.zone = z
	s.record = rec
	s.activated = true
	s.activation = nil
}

// onRejected discards the pending activation and restores the session
// to its resting zone: back to the original corner (still eligible for
// a tap on release) or, for a rejected edge, back to plain cursor
// motion.
func (e *Ctx) onRejected(s *touchSession) {
	e.learner.OnActivationFailure(s.activation.Zone, timeAt(s.lastTime))

	if s.originalZone.IsCorner() {
		s.zone = s.originalZone
	} else {
		s.zone = zone.Center
	}
	s.activation = nil
	s.emitter = nil
	e.interceptor.SetActive(false)
}

// handleRelease runs when the touch source reports zero fingers,
// meaning the previously tracked contact lifted off (spec.md §4.1,
// §4.6). It resolves whatever the session's terminal state implies:
// a corner or middle-click tap, an inertia hand-off, or nothing.
func (e *Ctx) handleRelease(nowSeconds float64) {
	s := e.session
	if s == nil {
		return
	}
	defer func() {
		e.session = nil
		e.interceptor.SetActive(false)
	}()

	switch {
	case s.activation != nil:
		// Lifted off before the evaluator reached a verdict: a tap.
		e.learner.OnActivationFailure(s.activation.Zone, timeAt(nowSeconds))
		if s.originalZone.IsCorner() {
			e.fireCornerTap(s.originalZone)
		}

	case s.activated:
		if ev := s.emitter.End(); ev != nil {
			e.emitScroll(ev)
		}
		if s.record != nil {
			s.record.Finish(nowSeconds, false)
			e.recorder.Push(s.record)
		}
		e.startInertia(s)

	default:
		// Rejected earlier in the touch, or never entered a scroll or
		// corner zone at all.
		if s.zone.IsCorner() {
			e.fireCornerTap(s.zone)
		} else if s.zone == zone.MiddleClick && s.movement < tapMovementThreshold {
			e.fireMiddleClick()
		}
	}
}

// abandonSession discards tracking for a contact that failed
// classification mid-touch (palm rejection, spec.md §4.1), without
// treating it as a completed tap or slide.
func (e *Ctx) abandonSession() {
	s := e.session
	if s == nil {
		return
	}
	if s.activated {
		if ev := s.emitter.End(); ev != nil {
			e.emitScroll(ev)
		}
		if s.record != nil {
			s.record.Finish(s.lastTime, true)
			e.recorder.Push(s.record)
		}
	}
	e.interceptor.SetActive(false)
	e.session = nil
}

// cancelActive is called on a single-to-multi-finger transition
// (spec.md §4.3): any in-progress scroll or inertia coast is torn down
// immediately, since a second finger means the OS's own gesture
// recognizer now owns the touch.
func (e *Ctx) cancelActive() {
	s := e.session
	if s != nil {
		if s.activated {
			if ev := s.emitter.End(); ev != nil {
				e.emitScroll(ev)
			}
			if s.record != nil {
				s.record.Finish(s.lastTime, true)
				e.recorder.Push(s.record)
			}
		}
		e.session = nil
	}
	e.interceptor.SetActive(false)

	if ev := e.stopInertia(); ev != nil {
		e.emitScroll(ev)
	}
}

func (e *Ctx) startInertia(s *touchSession) {
	avgVX, avgVY := inertia.Average(s.velocityHistory)
	c, ok := inertia.Start(s.zone, avgVX, avgVY, e.cfg)
	if !ok {
		return
	}
	e.coaster = c
	if !e.clockRunning {
		e.clockRunning = true
		e.frameClock.Start(e.onTick)
	}
}

func (e *Ctx) stopInertia() *inject.ScrollEvent {
	if e.coaster == nil {
		return nil
	}
	ev := e.coaster.Stop()
	e.coaster = nil
	if e.clockRunning {
		e.clockRunning = false
		e.frameClock.Stop()
	}
	return ev
}

// handleTick runs on the main loop for every frame-clock callback
// (spec.md §4.6). Once the coaster's decay brings it to rest, the
// frame clock is torn down so it does not spin uselessly between
// coasts.
func (e *Ctx) handleTick(m tickMsg) {
	if e.coaster == nil || !e.coaster.Running() {
		return
	}
	if ev := e.coaster.Tick(m.frameIntervalMs); ev != nil {
		e.emitScroll(ev)
	}
	if !e.coaster.Running() {
		e.coaster = nil
		if e.clockRunning {
			e.clockRunning = false
			e.frameClock.Stop()
		}
	}
}

func (e *Ctx) emitScroll(ev *inject.ScrollEvent) {
	if ev == nil {
		return
	}
	if err := e.sink.Scroll(*ev); err != nil {
		e.logger.Warn().Err(err).Msg("scroll injection failed")
	}
}

// fireCornerTap dispatches the configured host action for a corner
// zone that was tapped rather than slid into a scroll (spec.md §4.2,
// §6).
func (e *Ctx) fireCornerTap(z zone.Zone) {
	corner, ok := z.Corner()
	if !ok {
		return
	}
	action := e.cfg.CornerActions[corner]
	e.emmiter.Emit("corner_action", corner, action)

	if action == config.ActionRightClick {
		e.clickButton(inject.ButtonRight)
	}
}

func (e *Ctx) fireMiddleClick() {
	e.emmiter.Emit("middle_click")
	e.clickButton(inject.ButtonMiddle)
}

func (e *Ctx) clickButton(b inject.Button) {
	if err := e.sink.ButtonDown(b); err != nil {
		e.logger.Warn().Err(err).Msg("button down injection failed")
		return
	}
	if err := e.sink.ButtonUp(b); err != nil {
		e.logger.Warn().Err(err).Msg("button up injection failed")
	}
}
