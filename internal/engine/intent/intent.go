// Package intent implements the Bayesian confidence accumulator that
// decides, per touch, whether a scroll- or corner-zone contact is
// activated for scrolling, rejected back to cursor motion, or needs
// more frames of evidence (spec.md §4.4).
package intent

import (
	"math"

	"github.com/jason5545/TrackPal/pkg/config"
	"github.com/jason5545/TrackPal/pkg/zone"
)

// Decision is the outcome of one Update call.
type Decision int

const (
	NeedMoreFrames Decision = iota
	Activated
	Rejected
)

func (d Decision) String() string {
	switch d {
	case Activated:
		return "activated"
	case Rejected:
		return "rejected"
	default:
		return "need_more_frames"
	}
}

// Point is a normalized trackpad position.
type Point struct{ X, Y float64 }

// Delta is a per-frame position change.
type Delta struct{ DX, DY float64 }

// Velocity is the latest velocity sample on both axes, normalized
// units per second.
type Velocity struct{ VX, VY float64 }

// AdaptiveInputs are the learned values the evaluator reads from the
// Adaptive Learner (spec.md §4.8) without depending on that package.
type AdaptiveInputs struct {
	CenterH, CenterV     float64
	RetryBonusH, RetryBonusV float64
}

const (
	deadZone              = 0.05
	minActivationMovement = 0.003
	lowConfidence         = 0.20
	baseThreshold         = 0.75
	floorThreshold        = 0.67
	minEvidenceTotal      = 0.0005
	aspectCompensation    = 1.6
	highConfidenceBypass  = 0.80
	maxNegativeUpdate     = -0.20
)

// DefaultMaxFrames is the forced-timeout frame budget: spec.md §4.4
// gives "6-8"; 7 is the midpoint and used unless a caller overrides it.
const DefaultMaxFrames = 7

// State is one touch's activation buffer and confidence accumulator.
// It is owned exclusively by the engine's main loop (spec.md §5) and
// is not safe for concurrent use.
type State struct {
	Zone         zone.Zone
	OriginalZone zone.Zone
	StartPos     Point
	LastPos      Point

	Frames    []Point
	Deltas    []Delta
	Densities []float64

	Confidence float64
	FrameIndex int // 1 at the frame that created the state

	MaxFrames int
}

// Start begins activation-pending state for a touch that just entered
// a scroll or corner zone.
func Start(z zone.Zone, startPos Point, cfg config.Config) *State {
	s := &State{
		Zone:         z,
		OriginalZone: z,
		StartPos:     startPos,
		LastPos:      startPos,
		FrameIndex:   1,
		MaxFrames:    DefaultMaxFrames,
	}
	s.Frames = append(s.Frames, startPos)
	s.Confidence = zonePrior(z, startPos, cfg)
	return s
}

func zonePrior(z zone.Zone, pos Point, cfg config.Config) float64 {
	depth := zone.Depth(z, pos.X, pos.Y, cfg)
	return 0.50 + 0.35*depth
}

// Update feeds one new frame's position, density, and latest velocity
// sample into the evaluator and returns the resulting decision.
func (s *State) Update(pos Point, density float64, vel Velocity, cfg config.Config, adapt AdaptiveInputs) Decision {
	delta := Delta{DX: pos.X - s.LastPos.X, DY: pos.Y - s.LastPos.Y}
	s.LastPos = pos
	s.FrameIndex++
	s.Frames = append(s.Frames, pos)
	s.Deltas = append(s.Deltas, delta)
	s.Densities = append(s.Densities, density)

	if s.Zone.IsCorner() {
		promotedZone, status := s.evaluateCornerPromotion(cfg)
		switch status {
		case promotionImpossible:
			return Rejected
		case promotionNotYet:
			return NeedMoreFrames
		case promotionDone:
			s.Zone = promotedZone
			s.Confidence = zonePrior(promotedZone, pos, cfg)
		}
	}

	onAxisSpeed, offAxisSpeed := axisSpeeds(s.Zone, vel)

	if s.Zone.IsHorizontal() {
		if offAxisSpeed > 1.5*onAxisSpeed && s.FrameIndex <= 3 {
			return Rejected
		}
		if ratio, ok := onAxisRatio(s.Zone, delta); ok && ratio < 0.35 && s.FrameIndex >= 2 {
			return Rejected
		}
	}

	if s.FrameIndex == 2 {
		// The first delta is discarded: the initial contact frame is
		// noisy at sensor edges.
		return NeedMoreFrames
	}

	absDx := math.Abs(delta.DX) * aspectCompensation
	absDy := math.Abs(delta.DY)
	total := absDx + absDy

	if total < minEvidenceTotal {
		if s.Confidence >= highConfidenceBypass {
			return Activated
		}
		return NeedMoreFrames
	}

	ratio, _ := onAxisRatio(s.Zone, delta)
	center := adapt.CenterV
	retryBonus := adapt.RetryBonusV
	if s.Zone.IsHorizontal() {
		center = adapt.CenterH
		retryBonus = adapt.RetryBonusH
	}

	deviation := ratio - center
	var directionBoost float64
	switch {
	case math.Abs(deviation) <= deadZone:
		directionBoost = 0
	case deviation > 0:
		directionBoost = (deviation - deadZone) / (1 - center - deadZone) * 0.275
	default:
		directionBoost = (deviation + deadZone) / (center - deadZone) * 0.25
	}

	velocityBoost := stepVelocityBoost(onAxisSpeed)

	qualityWeight := clamp01((density-0.02)/0.08)*0.7 + 0.3

	update := (directionBoost + velocityBoost) * qualityWeight
	if update < maxNegativeUpdate {
		update = maxNegativeUpdate
	}
	s.Confidence = clamp01(s.Confidence + update)

	maxFrames := s.MaxFrames
	if maxFrames == 0 {
		maxFrames = DefaultMaxFrames
	}
	effectiveThreshold := math.Max(baseThreshold-retryBonus, floorThreshold)

	switch {
	case s.Confidence >= effectiveThreshold:
		return Activated
	case s.Confidence <= lowConfidence:
		return Rejected
	case s.FrameIndex >= maxFrames:
		return Rejected
	default:
		return NeedMoreFrames
	}
}

type promotionStatus int

const (
	promotionNotYet promotionStatus = iota
	promotionDone
	promotionImpossible
)

// evaluateCornerPromotion implements spec.md §4.4's corner-promotion
// rule: once buffered movement exceeds minActivationMovement, promote
// to one of the corner's two adjacent edges, honoring which edges are
// actually configured active, biasing 1.5x toward horizontal (edge
// sensor noise inflates Y at top/bottom corners).
func (s *State) evaluateCornerPromotion(cfg config.Config) (zone.Zone, promotionStatus) {
	h, v := zone.PromotedEdges(s.Zone)
	hOK := edgeConfigured(h, cfg)
	vOK := edgeConfigured(v, cfg)

	if !hOK && !vOK {
		return zone.None, promotionImpossible
	}

	if s.totalMovement() < minActivationMovement {
		return zone.None, promotionNotYet
	}

	switch {
	case hOK && vOK:
		dx := s.LastPos.X - s.StartPos.X
		dy := s.LastPos.Y - s.StartPos.Y
		if math.Abs(dx)*1.5 >= math.Abs(dy) {
			return h, promotionDone
		}
		return v, promotionDone
	case hOK:
		return h, promotionDone
	default:
		return v, promotionDone
	}
}

func edgeConfigured(e zone.Zone, cfg config.Config) bool {
	switch e {
	case zone.LeftEdge:
		return cfg.VerticalEdgeMode == config.VerticalEdgeLeft || cfg.VerticalEdgeMode == config.VerticalEdgeBoth
	case zone.RightEdge:
		return cfg.VerticalEdgeMode == config.VerticalEdgeRight || cfg.VerticalEdgeMode == config.VerticalEdgeBoth
	case zone.BottomEdge:
		return cfg.HorizontalPosition == config.HorizontalBottom
	case zone.TopEdge:
		return cfg.HorizontalPosition == config.HorizontalTop
	default:
		return false
	}
}

func (s *State) totalMovement() float64 {
	total := 0.0
	for _, d := range s.Deltas {
		total += math.Hypot(d.DX, d.DY)
	}
	return total
}

// OnAxisRatio exposes onAxisRatio for callers outside the package (the
// engine needs it to feed the Adaptive Learner's per-delta ring on
// activation, spec.md §4.8).
func OnAxisRatio(z zone.Zone, d Delta) (ratio float64, ok bool) {
	return onAxisRatio(z, d)
}

// AxisSpeeds exposes axisSpeeds for callers outside the package (the
// engine needs it to snapshot activation data for the Session
// Recorder, spec.md §3 "activation_data").
func AxisSpeeds(z zone.Zone, vel Velocity) (onAxis, offAxis float64) {
	return axisSpeeds(z, vel)
}

func axisSpeeds(z zone.Zone, vel Velocity) (onAxis, offAxis float64) {
	if z.IsHorizontal() {
		return math.Abs(vel.VX), math.Abs(vel.VY)
	}
	return math.Abs(vel.VY), math.Abs(vel.VX)
}

func onAxisRatio(z zone.Zone, d Delta) (ratio float64, ok bool) {
	absDx := math.Abs(d.DX) * aspectCompensation
	absDy := math.Abs(d.DY)
	total := absDx + absDy
	if total < minEvidenceTotal {
		return 0, false
	}
	if z.IsHorizontal() {
		return absDx / total, true
	}
	return absDy / total, true
}

func stepVelocityBoost(onAxisSpeed float64) float64 {
	switch {
	case onAxisSpeed > 0.30:
		return 0.10
	case onAxisSpeed > 0.15:
		return 0.05
	case onAxisSpeed > 0.05:
		return 0.02
	default:
		return 0.00
	}
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
