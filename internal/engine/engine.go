// Package engine composes every subcomponent — the Classifier, Zone
// resolver, Finger-Count Arbiter, Intent Evaluator, Scroll Emitter,
// Inertia Engine, Event Interceptor, Adaptive Learner and Session
// Recorder — into one running touch-intent pipeline (spec.md §5). Ctx
// owns the main-loop goroutine and every piece of session state; the
// other packages in internal/engine are driven from here, and all but
// the mutex-guarded Interceptor (also read from the event tap's
// thread) are pure or single-owner value types.
package engine

import (
	"sync"

	"github.com/kataras/go-events"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jason5545/TrackPal/internal/engine/adaptive"
	"github.com/jason5545/TrackPal/internal/engine/arbiter"
	"github.com/jason5545/TrackPal/internal/engine/inertia"
	"github.com/jason5545/TrackPal/internal/engine/intercept"
	"github.com/jason5545/TrackPal/internal/engine/session"
	"github.com/jason5545/TrackPal/pkg/clock"
	"github.com/jason5545/TrackPal/pkg/config"
	"github.com/jason5545/TrackPal/pkg/inject"
	"github.com/jason5545/TrackPal/pkg/touch"
	"github.com/jason5545/TrackPal/pkg/touchsrc"
)

// frameMsg carries one raw multitouch frame from Producer A (the touch
// source's reader goroutine) onto the main loop (spec.md §5, "callbacks
// -> typed messages").
type frameMsg struct {
	contacts    []touch.Contact
	timestamp   float64
	fingerCount int
}

// tickMsg carries one frame-clock callback from Producer C onto the
// main loop.
type tickMsg struct {
	frameIntervalMs float64
}

// Ctx is the engine's composition root.
type Ctx struct {
	logger   zerolog.Logger
	wg       sync.WaitGroup
	shutdown chan struct{}
	mainCh   chan any
	emmiter  events.EventEmmiter

	source      touchsrc.Source
	sink        inject.Sink
	tap         inject.Tap
	frameClock  clock.Source
	store       config.Store

	cfg config.Config

	classifier  touch.Classifier
	verdicts    touch.VerdictCounters
	arbiter     *arbiter.Arbiter
	interceptor *intercept.Interceptor
	learner     *adaptive.Learner
	recorder    *session.Recorder

	session *touchSession

	coaster      *inertia.Coaster
	clockRunning bool

	startMu sync.Mutex
	started bool
}

func (e *Ctx) stopFrameClockLocked() {
	if e.clockRunning {
		e.frameClock.Stop()
		e.clockRunning = false
	}
	e.coaster = nil
}

// New wires every subcomponent together and loads the persisted
// configuration and adaptive state. It does not start anything; call
// Start to begin processing.
func New(source touchsrc.Source, sink inject.Sink, tap inject.Tap, frameClock clock.Source, store config.Store) *Ctx {
	logger := log.With().Str("module", "engine").Logger()

	e := &Ctx{
		logger:      logger,
		emmiter:     events.New(),
		source:      source,
		sink:        sink,
		tap:         tap,
		frameClock:  frameClock,
		store:       store,
		cfg:         store.LoadConfig(),
		classifier:  touch.NewClassifier(),
		arbiter:     arbiter.New(),
		interceptor: intercept.New(),
		recorder:    session.New(),
	}
	e.learner = adaptive.New(store.LoadAdaptiveState(), e.persistAdaptive)
	return e
}

func (e *Ctx) persistAdaptive(state config.AdaptiveState) {
	e.store.SaveAdaptiveState(state)
	e.emmiter.Emit("adaptive_persisted", state)
}

// SetTap attaches the system event tap after construction. The tap's
// own callbacks close over the engine's InterceptScroll/InterceptMouseMove
// methods, so it cannot be built until after New returns a *Ctx to
// close over.
func (e *Ctx) SetTap(tap inject.Tap) {
	e.tap = tap
}

// Config returns the currently active configuration.
func (e *Ctx) Config() config.Config {
	return e.cfg
}

// SetConfig replaces the active configuration, e.g. after the user
// edits it through a settings UI. It takes effect for the next frame;
// no in-flight session is retroactively reinterpreted.
func (e *Ctx) SetConfig(cfg config.Config) {
	e.cfg = cfg
	e.store.SaveConfig(cfg)
}

// Start begins processing raw multitouch frames. It is idempotent: a
// second call while already started is a no-op (spec.md §8). If the
// engine is disabled in configuration, Start returns immediately
// without opening the touch source.
func (e *Ctx) Start() {
	e.startMu.Lock()
	defer e.startMu.Unlock()
	if e.started {
		return
	}

	if !e.cfg.IsEnabled {
		e.logger.Info().Msg("trackpal is disabled, not starting")
		return
	}

	e.shutdown = make(chan struct{})
	e.mainCh = make(chan any, 64)

	e.wg.Add(1)
	go e.run()

	if err := e.source.Start(e.onRawFrame); err != nil {
		e.logger.Warn().Err(err).Msg("multitouch source unavailable, running in degraded mode")
		e.emmiter.Emit("degraded", "source_unavailable", err)
	}

	e.started = true
}

// Stop halts frame processing and releases the touch source and event
// tap. Idempotent (spec.md §8: "calling stop() twice must leave the
// engine disabled with no dangling taps or clocks").
func (e *Ctx) Stop() {
	e.startMu.Lock()
	defer e.startMu.Unlock()
	if !e.started {
		return
	}
	e.started = false

	close(e.shutdown)

	if err := e.source.Stop(); err != nil {
		e.logger.Warn().Err(err).Msg("error stopping multitouch source")
	}
	if e.tap != nil {
		if err := e.tap.Close(); err != nil {
			e.logger.Warn().Err(err).Msg("error closing event tap")
		}
	}

	// The main loop goroutine has now observed shutdown and returned, so
	// the coaster and frame clock it owned are safe to touch here.
	e.wg.Wait()
	e.stopFrameClockLocked()

	e.learner.Persist()
}

// onRawFrame is Producer A: it runs on the touch source's own reader
// thread and must not touch any engine state directly. It copies the
// primitive fields it needs out of the caller's slice (which the
// source may reuse on the next frame) and hands off a typed message.
func (e *Ctx) onRawFrame(contacts []touch.Contact, timestamp float64, fingerCount int) {
	copied := append([]touch.Contact(nil), contacts...)
	msg := frameMsg{contacts: copied, timestamp: timestamp, fingerCount: fingerCount}

	select {
	case e.mainCh <- msg:
	case <-e.shutdown:
	}
}

// onTick is Producer C: the frame-clock's callback, invoked on a media
// thread (spec.md §5). It only ever enqueues; all coaster state is
// mutated on the main loop.
func (e *Ctx) onTick(frameIntervalMs float64) {
	select {
	case e.mainCh <- tickMsg{frameIntervalMs: frameIntervalMs}:
	case <-e.shutdown:
	}
}

func (e *Ctx) run() {
	defer e.wg.Done()
	for {
		select {
		case <-e.shutdown:
			return
		case m := <-e.mainCh:
			switch v := m.(type) {
			case frameMsg:
				e.handleFrame(v)
			case tickMsg:
				e.handleTick(v)
			}
		}
	}
}

// InterceptScroll implements the Event Interceptor entry point the
// system event tap calls synchronously, on its own thread (spec.md
// §4.7). It reads only the Interceptor's own mutex-guarded state, not
// the main loop's, so it never blocks on frame processing.
func (e *Ctx) InterceptScroll(ev inject.ScrollEvent) inject.Decision {
	return e.interceptor.InterceptScroll(ev)
}

// InterceptMouseMove implements the same synchronous entry point for
// native cursor-move events.
func (e *Ctx) InterceptMouseMove(ev inject.MouseMoveEvent) inject.Decision {
	return e.interceptor.InterceptMouseMove(ev)
}

// OnTapDisabled must be called whenever the OS reports the event tap
// was revoked (spec.md §7). It clears suppression state and attempts
// an unconditional re-enable.
func (e *Ctx) OnTapDisabled() {
	e.interceptor.OnTapDenied()
	if e.tap == nil {
		return
	}
	if err := e.tap.Reenable(); err != nil {
		e.logger.Warn().Err(err).Msg("could not re-enable event tap")
		e.emmiter.Emit("degraded", "tap_disabled", err)
	}
}
