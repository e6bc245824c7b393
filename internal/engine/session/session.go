// Package session implements the Session Recorder: it records each
// completed scroll session and tightens per-zone false-activation
// thresholds from the history (spec.md §4.9). The learned thresholds
// are advisory input only; the Intent Evaluator's Bayesian decision
// remains the sole activation gate (spec.md §9).
package session

import (
	"math"

	"github.com/jason5545/TrackPal/pkg/config"
	"github.com/jason5545/TrackPal/pkg/zone"
)

const historyLimit = 50

// ActivationSnapshot is the activation data captured at the moment a
// session starts (spec.md §3).
type ActivationSnapshot struct {
	OnAxisRatio  float64
	OffAxisSpeed float64
	OnAxisSpeed  float64
	Density      float64
	Confidence   float64
}

// Record is one completed scroll session (spec.md §3).
type Record struct {
	Zone            zone.Zone
	StartTime       float64
	EndTime         float64
	TotalDistance   float64
	MaxVelocity     float64
	DirectionChanges int
	WasCancelled    bool
	Activation      ActivationSnapshot

	lastDelta struct {
		dx, dy float64
		have   bool
	}
}

// IsFalseActivation reports whether the completed record counts as a
// false activation (spec.md §3): short, small, and not cancelled.
func (r *Record) IsFalseActivation() bool {
	duration := r.EndTime - r.StartTime
	return duration < 0.3 && r.TotalDistance < 0.05 && !r.WasCancelled
}

// Start begins recording a new session.
func Start(z zone.Zone, startTime float64, snap ActivationSnapshot) *Record {
	return &Record{Zone: z, StartTime: startTime, Activation: snap}
}

// AddDelta folds one activation delta into the running statistics:
// total distance, running-max velocity, and direction-change count
// (spec.md §4.9).
func (r *Record) AddDelta(dx, dy float64) {
	r.TotalDistance += math.Hypot(dx, dy)

	v := math.Hypot(dx, dy)
	if v > r.MaxVelocity {
		r.MaxVelocity = v
	}

	if r.lastDelta.have {
		dot := dx*r.lastDelta.dx + dy*r.lastDelta.dy
		if dot < 0 {
			r.DirectionChanges++
		}
	}
	r.lastDelta.dx, r.lastDelta.dy = dx, dy
	r.lastDelta.have = true
}

// Finish stamps the end time and cancellation flag.
func (r *Record) Finish(endTime float64, cancelled bool) {
	r.EndTime = endTime
	r.WasCancelled = cancelled
}

// Recorder owns the bounded history of completed sessions and the
// per-zone learned false-activation thresholds.
type Recorder struct {
	history    []*Record
	thresholds map[zone.Zone]config.FalseActivationThresholds
}

// New returns an empty Recorder.
func New() *Recorder {
	return &Recorder{thresholds: make(map[zone.Zone]config.FalseActivationThresholds)}
}

// Push appends a completed record to the bounded history and updates
// that zone's learned thresholds.
func (rec *Recorder) Push(r *Record) {
	rec.history = append(rec.history, r)
	if len(rec.history) > historyLimit {
		rec.history = rec.history[len(rec.history)-historyLimit:]
	}
	rec.learn(r)
}

// History returns the bounded session history, most recent last.
func (rec *Recorder) History() []*Record {
	return rec.history
}

// Thresholds returns the learned thresholds for z, defaulting to
// config.DefaultFalseActivationThresholds if z has no history yet.
func (rec *Recorder) Thresholds(z zone.Zone) config.FalseActivationThresholds {
	if t, ok := rec.thresholds[z]; ok {
		return t
	}
	return config.DefaultFalseActivationThresholds()
}

func (rec *Recorder) learn(r *Record) {
	t := rec.Thresholds(r.Zone)
	t.SampleCount++
	alpha := math.Min(float64(t.SampleCount)/100, 0.1)

	if r.IsFalseActivation() {
		t.MinDuration *= 1 + alpha*0.1
		t.MinDistance *= 1 + alpha*0.1
		t.MinOnAxisRatio = math.Min(t.MinOnAxisRatio*(1+alpha*0.05), 0.5)
	} else {
		t.MinDuration = math.Max(t.MinDuration*(1-alpha*0.02), 0.2)
		t.MinDistance = math.Max(t.MinDistance*(1-alpha*0.02), 0.03)
		t.MinOnAxisRatio = math.Max(t.MinOnAxisRatio*(1-alpha*0.02), 0.3)
	}

	rec.thresholds[r.Zone] = t
}
