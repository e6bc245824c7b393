package scroll

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jason5545/TrackPal/pkg/config"
	"github.com/jason5545/TrackPal/pkg/inject"
	"github.com/jason5545/TrackPal/pkg/zone"
)

func TestFeedVerticalNaturalScroll(t *testing.T) {
	cfg := config.Default()
	e := New(zone.RightEdge)

	// finger moves down (negative dy: y grows toward the top edge) ->
	// natural scroll inverts to positive deltaY.
	ev := e.Feed(Delta{DX: 0, DY: -0.05}, cfg)
	require.NotNil(t, ev)
	require.Greater(t, ev.DeltaY, 0)
	require.Equal(t, 0, ev.DeltaX)
	require.Equal(t, inject.TrackPalTag, ev.UserDataTag)
	require.Equal(t, inject.PhaseNone, ev.Phase)
	require.Less(t, math.Abs(e.AccY), 1.0)
}

func TestFeedHorizontalAspectCompensation(t *testing.T) {
	cfg := config.Default()
	e := New(zone.BottomEdge)

	ev := e.Feed(Delta{DX: 0.05, DY: 0}, cfg)
	require.NotNil(t, ev)
	require.Greater(t, ev.DeltaX, 0)
	require.Equal(t, 0, ev.DeltaY)
	require.Less(t, math.Abs(e.AccX), 1.0)
}

func TestFeedSkipsZeroPixelDelta(t *testing.T) {
	cfg := config.Default()
	cfg.ScrollMultiplier = 1
	e := New(zone.RightEdge)

	ev := e.Feed(Delta{DX: 0, DY: 0.00001}, cfg)
	require.Nil(t, ev)
}

func TestPhaseMachine(t *testing.T) {
	cfg := config.Default()
	e := New(zone.RightEdge)

	// every emitted event's Phase field stays zero (spec.md §4.5); only
	// the internal PhaseBegan bookkeeping flag tracks began/ended.
	ev1 := e.Feed(Delta{DX: 0, DY: 0.05}, cfg)
	require.Equal(t, inject.PhaseNone, ev1.Phase)
	require.True(t, e.PhaseBegan)

	ev2 := e.Feed(Delta{DX: 0, DY: 0.05}, cfg)
	require.Equal(t, inject.PhaseNone, ev2.Phase)

	end := e.End()
	require.NotNil(t, end)
	require.Equal(t, inject.PhaseNone, end.Phase)
	require.Equal(t, 0, end.DeltaX)
	require.Equal(t, 0, end.DeltaY)
	require.False(t, e.PhaseBegan)

	// End() is a no-op once already ended.
	require.Nil(t, e.End())
}

func TestAccelerationCurves(t *testing.T) {
	require.Equal(t, 0.5, applyCurve(config.CurveLinear, 0.5))
	require.InDelta(t, 0.25, applyCurve(config.CurveQuadratic, 0.5), 1e-9)
	require.InDelta(t, 0.125, applyCurve(config.CurveCubic, 0.5), 1e-9)
	require.Greater(t, applyCurve(config.CurveEase, 0.5), 0.0)
}

func TestLineDeltaFallback(t *testing.T) {
	require.Equal(t, 0, lineDelta(0))
	require.Equal(t, 1, lineDelta(3))
	require.Equal(t, 2, lineDelta(25))
	require.Equal(t, -2, lineDelta(-25))
}

func TestFlushRampedEmitsNearlyAllDeltas(t *testing.T) {
	cfg := config.Default()
	e := New(zone.RightEdge)

	deltas := []Delta{{DY: 0.01}, {DY: 0.01}, {DY: 0.01}, {DY: 0.01}, {DY: 0.01}}
	events := e.FlushRamped(deltas, cfg)

	require.GreaterOrEqual(t, len(events), len(deltas)-1)
	for _, ev := range events {
		require.Equal(t, inject.TrackPalTag, ev.UserDataTag)
	}
}
