// Package adaptive implements the Adaptive Learner: an EMA of learned
// on-axis ratio centers plus retry-bonus counters, persisted across
// runs (spec.md §4.8).
package adaptive

import (
	"math"
	"time"

	"github.com/jason5545/TrackPal/internal/engine/intent"
	"github.com/jason5545/TrackPal/pkg/config"
	"github.com/jason5545/TrackPal/pkg/zone"
)

const (
	emaAlpha           = 0.02
	ringTarget         = 5
	successDecay       = 0.995
	retryWindow        = 2 * time.Second
	retryTotalGate     = 5
	retryRatioGate     = 0.30
	retryBonusRate     = 0.10
	retryBonusCeiling  = 0.08
	persistEveryEvents = 20
)

// Learner owns the two EMAs and two retry-bonus counters described in
// spec.md §4.8, plus the ring buffers used to batch EMA updates.
type Learner struct {
	state config.AdaptiveState

	ringH []float64
	ringV []float64

	successesSincePersist int

	lastMissTime time.Time
	haveLastMiss bool

	onPersist func(config.AdaptiveState)
}

// New returns a Learner seeded with an already-loaded (and clamped)
// AdaptiveState. onPersist is called every time persistence is due
// (every 20 learning events, activation successes and failures alike,
// and the caller is expected to also call Persist explicitly at
// teardown).
func New(initial config.AdaptiveState, onPersist func(config.AdaptiveState)) *Learner {
	initial.Clamp()
	return &Learner{state: initial, onPersist: onPersist}
}

// State returns a copy of the current adaptive state.
func (l *Learner) State() config.AdaptiveState {
	return l.state
}

// Inputs returns the values the Intent Evaluator needs (spec.md §4.4).
func (l *Learner) Inputs() intent.AdaptiveInputs {
	return intent.AdaptiveInputs{
		CenterH:     l.state.LearnedDirectionCenterH,
		CenterV:     l.state.LearnedDirectionCenterV,
		RetryBonusH: l.state.RetryBonusH,
		RetryBonusV: l.state.RetryBonusV,
	}
}

// OnSessionStart applies the retry-count bump when a scroll-zone
// session starts within retryWindow of a miss in the same zone
// category (spec.md §4.8).
func (l *Learner) OnSessionStart(z zone.Zone, now time.Time) {
	if !l.haveLastMiss {
		return
	}
	if now.Sub(l.lastMissTime) > retryWindow {
		return
	}
	if l.state.LastMissZoneCategory != categoryOf(z) {
		return
	}

	if z.IsHorizontal() {
		l.state.RetryCountH++
		l.maybeRaiseBonus(true)
	} else {
		l.state.RetryCountV++
		l.maybeRaiseBonus(false)
	}
}

func (l *Learner) maybeRaiseBonus(horizontal bool) {
	var retry, miss int
	if horizontal {
		retry, miss = l.state.RetryCountH, l.state.MissCountH
	} else {
		retry, miss = l.state.RetryCountV, l.state.MissCountV
	}
	total := retry + miss
	if total < retryTotalGate {
		return
	}
	ratio := float64(retry) / float64(total)
	if ratio <= retryRatioGate {
		return
	}
	bonus := math.Min(ratio*retryBonusRate, retryBonusCeiling)
	if horizontal {
		l.state.RetryBonusH = bonus
	} else {
		l.state.RetryBonusV = bonus
	}
}

// OnActivationSuccess records one buffered delta's on-axis ratio for
// zone z, applying the EMA once the ring reaches ringTarget samples,
// and decays that axis's retry bonus (spec.md §4.8).
func (l *Learner) OnActivationSuccess(z zone.Zone, onAxisRatio float64) {
	if z.IsHorizontal() {
		l.ringH = append(l.ringH, onAxisRatio)
		if len(l.ringH) >= ringTarget {
			l.applyEMA(&l.state.LearnedDirectionCenterH, l.ringH)
			l.ringH = l.ringH[:0]
		}
		l.state.RetryBonusH *= successDecay
	} else {
		l.ringV = append(l.ringV, onAxisRatio)
		if len(l.ringV) >= ringTarget {
			l.applyEMA(&l.state.LearnedDirectionCenterV, l.ringV)
			l.ringV = l.ringV[:0]
		}
		l.state.RetryBonusV *= successDecay
	}

	l.state.Clamp()
	l.countPersistenceEvent()
}

func (l *Learner) applyEMA(center *float64, samples []float64) {
	mean := 0.0
	for _, s := range samples {
		mean += s
	}
	mean /= float64(len(samples))
	*center = *center + emaAlpha*(mean-*center)
}

// OnActivationFailure records a rejection or timeout: stamps the last
// miss zone/time and increments the miss counter, halving both
// counters when their sum exceeds 1000 (spec.md §4.8).
func (l *Learner) OnActivationFailure(z zone.Zone, now time.Time) {
	l.state.LastMissZoneCategory = categoryOf(z)
	l.state.LastMissTimestamp = float64(now.UnixNano()) / 1e9
	l.lastMissTime = now
	l.haveLastMiss = true

	if z.IsHorizontal() {
		l.state.MissCountH++
	} else {
		l.state.MissCountV++
	}
	l.state.Clamp()
	l.countPersistenceEvent()
}

func (l *Learner) countPersistenceEvent() {
	l.successesSincePersist++
	if l.successesSincePersist >= persistEveryEvents {
		l.successesSincePersist = 0
		l.Persist()
	}
}

// Persist invokes the configured persistence callback with the
// current state. Safe to call at any time, including at teardown.
func (l *Learner) Persist() {
	if l.onPersist != nil {
		l.onPersist(l.state)
	}
}

func categoryOf(z zone.Zone) string {
	if z.IsHorizontal() {
		return "horizontal"
	}
	return "vertical"
}
