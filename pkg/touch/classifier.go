package touch

import "github.com/jason5545/TrackPal/pkg/config"

// Classifier is a pure, stateless per-frame plausibility filter
// (spec.md §4.1). It keeps no session state of its own; verdict
// counters for diagnostics are the caller's responsibility.
type Classifier struct{}

// NewClassifier returns a ready-to-use Classifier. It carries no
// state, so a zero value works equally well; the constructor exists
// for symmetry with the other engine subcomponents.
func NewClassifier() Classifier {
	return Classifier{}
}

// Classify returns Valid, TooLight, or TooLarge for c under cfg.
// Lift-off states bypass classification because density falls to
// zero on release.
func (Classifier) Classify(c Contact, cfg config.Config) Verdict {
	if c.State.IsLiftOff() {
		return Valid
	}

	if cfg.FilterLightTouches && c.Density < cfg.LightTouchDensityThresh {
		return TooLight
	}

	if cfg.FilterLargeTouches &&
		(c.MajorAxis > cfg.LargeTouchMajorAxisThresh || c.MinorAxis > cfg.LargeTouchMinorAxisThresh) {
		return TooLarge
	}

	return Valid
}

// VerdictCounters accumulates classifier verdicts for diagnostics
// (spec.md §4.1: "verdict counters are kept for diagnostics").
type VerdictCounters struct {
	Valid    uint64
	TooLight uint64
	TooLarge uint64
}

// Record increments the counter matching v.
func (c *VerdictCounters) Record(v Verdict) {
	switch v {
	case Valid:
		c.Valid++
	case TooLight:
		c.TooLight++
	case TooLarge:
		c.TooLarge++
	}
}
