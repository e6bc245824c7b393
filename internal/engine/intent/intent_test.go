package intent

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jason5545/TrackPal/pkg/config"
	"github.com/jason5545/TrackPal/pkg/zone"
)

func neutralAdaptive() AdaptiveInputs {
	return AdaptiveInputs{CenterH: 0.50, CenterV: 0.50}
}

// scenario 1: pure vertical scroll from right edge.
func TestScenarioVerticalScrollFromRightEdge(t *testing.T) {
	cfg := config.Default()
	adapt := neutralAdaptive()

	positions := []Point{
		{0.95, 0.50},
		{0.95, 0.4625},
		{0.95, 0.425},
		{0.95, 0.3875},
		{0.95, 0.35},
	}
	s := Start(zone.RightEdge, positions[0], cfg)

	const dt = 1.0 / 60.0
	var decision Decision
	for i := 1; i < len(positions); i++ {
		dy := (positions[i].Y - positions[i-1].Y) / dt
		vel := Velocity{VX: 0, VY: dy}
		decision = s.Update(positions[i], 0.10, vel, cfg, adapt)
		if decision == Activated {
			require.LessOrEqual(t, i, 4, "activation should succeed by frame 3-4")
			return
		}
		require.NotEqual(t, Rejected, decision)
	}
	t.Fatalf("expected activation, got %v", decision)
}

// scenario 2: horizontal bottom-edge scroll.
func TestScenarioHorizontalBottomEdgeScroll(t *testing.T) {
	cfg := config.Default()
	adapt := neutralAdaptive()

	positions := []Point{
		{0.50, 0.05},
		{0.54, 0.05},
		{0.58, 0.05},
		{0.62, 0.05},
		{0.66, 0.05},
		{0.70, 0.05},
	}
	s := Start(zone.BottomEdge, positions[0], cfg)

	const dt = 1.0 / 60.0
	var decision Decision
	for i := 1; i < len(positions); i++ {
		dx := (positions[i].X - positions[i-1].X) / dt
		vel := Velocity{VX: dx, VY: 0}
		decision = s.Update(positions[i], 0.10, vel, cfg, adapt)
		if decision == Activated {
			return
		}
		require.NotEqual(t, Rejected, decision)
	}
	t.Fatalf("expected activation, got %v", decision)
}

// scenario 3: bottom-edge false activation, mostly vertical drag.
func TestScenarioBottomEdgeMostlyVerticalRejected(t *testing.T) {
	cfg := config.Default()
	adapt := neutralAdaptive()

	positions := []Point{
		{0.50, 0.05},
		{0.5033, 0.0933},
		{0.5066, 0.1366},
		{0.51, 0.18},
	}
	s := Start(zone.BottomEdge, positions[0], cfg)

	const dt = 1.0 / 60.0
	decision := s.Update(positions[1], 0.10, Velocity{VX: 0.02, VY: 2.6}, cfg, adapt)
	require.Equal(t, Rejected, decision, "on_axis_ratio < 0.35 by frame 2 must reject")
	_ = dt
}

func TestOffAxisSpeedHardRejectsEarly(t *testing.T) {
	cfg := config.Default()
	adapt := neutralAdaptive()

	s := Start(zone.BottomEdge, Point{0.50, 0.05}, cfg)
	// pure-vertical velocity sample far exceeding 1.5x the (near zero) on-axis speed.
	decision := s.Update(Point{0.501, 0.10}, 0.10, Velocity{VX: 0.05, VY: 3.0}, cfg, adapt)
	require.Equal(t, Rejected, decision)
}

// scenario 6b: corner slide promotes to the dominant adjacent edge.
func TestCornerPromotionToBottomEdge(t *testing.T) {
	cfg := config.Default()
	cfg.CornerTriggerEnabled = true
	cfg.CornerTriggerZoneSize = 0.1
	adapt := neutralAdaptive()

	s := Start(zone.BottomRightCorner, Point{0.97, 0.03}, cfg)
	require.Equal(t, zone.BottomRightCorner, s.Zone)

	positions := []Point{
		{0.90, 0.03},
		{0.85, 0.03},
		{0.80, 0.03},
	}
	for _, p := range positions {
		s.Update(p, 0.10, Velocity{VX: -3, VY: 0}, cfg, adapt)
	}

	require.Equal(t, zone.BottomEdge, s.Zone)
}

func TestCornerPromotionImpossibleRejects(t *testing.T) {
	cfg := config.Default()
	cfg.CornerTriggerEnabled = true
	cfg.CornerTriggerZoneSize = 0.1
	// disable both adjacent edges of BottomRightCorner: RightEdge and BottomEdge.
	cfg.VerticalEdgeMode = config.VerticalEdgeLeft
	cfg.HorizontalPosition = config.HorizontalTop
	adapt := neutralAdaptive()

	s := Start(zone.BottomRightCorner, Point{0.97, 0.03}, cfg)
	decision := s.Update(Point{0.80, 0.03}, 0.10, Velocity{VX: -3, VY: 0}, cfg, adapt)
	require.Equal(t, Rejected, decision)
}

func TestNegativeUpdateFloor(t *testing.T) {
	cfg := config.Default()
	adapt := AdaptiveInputs{CenterH: 0.50, CenterV: 0.50}

	s := Start(zone.RightEdge, Point{0.95, 0.5}, cfg)
	// discard frame
	s.Update(Point{0.95, 0.49}, 0.10, Velocity{VY: -0.6}, cfg, adapt)
	before := s.Confidence
	// evidence frame with a deviation opposite the learned center (off-axis dominant, low density)
	s.Update(Point{0.94, 0.489}, 0.02, Velocity{VY: 0.01, VX: 0.01}, cfg, adapt)
	require.GreaterOrEqual(t, s.Confidence, before-0.20-1e-9)
}
