package inertia

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jason5545/TrackPal/pkg/config"
	"github.com/jason5545/TrackPal/pkg/inject"
	"github.com/jason5545/TrackPal/pkg/zone"
)

func TestAverageVelocityHistory(t *testing.T) {
	history := []VelocitySample{{VX: 0, VY: 1, T: 0}, {VX: 0, VY: 3, T: 1}}
	vx, vy := Average(history)
	require.Equal(t, 0.0, vx)
	require.Equal(t, 2.0, vy)
}

func TestAverageEmptyHistory(t *testing.T) {
	vx, vy := Average(nil)
	require.Equal(t, 0.0, vx)
	require.Equal(t, 0.0, vy)
}

func TestStartRequiresThreshold(t *testing.T) {
	cfg := config.Default()
	_, ok := Start(zone.RightEdge, 0, -0.01, cfg)
	require.False(t, ok, "tiny lift-off velocity should not start inertia")

	c, ok := Start(zone.RightEdge, 0, -1.0, cfg)
	require.True(t, ok)
	require.Greater(t, c.VY, 0.0) // natural-scroll inversion
}

// scenario 1: inertia begins on release and decays below 2.0 units/frame.
func TestTickDecaysToStop(t *testing.T) {
	cfg := config.Default()
	c, ok := Start(zone.RightEdge, 0, -1.0, cfg)
	require.True(t, ok)

	sawBegan := false
	sawEnded := false
	for i := 0; i < 2000 && c.Running(); i++ {
		ev := c.Tick(16.67)
		if ev == nil {
			continue
		}
		if ev.Momentum == inject.MomentumBegan {
			sawBegan = true
		}
		if ev.Momentum == inject.MomentumEnded {
			sawEnded = true
		}
		require.Equal(t, inject.TrackPalTag, ev.UserDataTag)
	}
	require.False(t, c.Running())
	require.True(t, sawBegan)
	require.True(t, sawEnded)
}

func TestStopMidFlightEmitsMomentumEnded(t *testing.T) {
	cfg := config.Default()
	c, ok := Start(zone.RightEdge, 0, -1.0, cfg)
	require.True(t, ok)

	c.Tick(16.67) // begins momentum
	ev := c.Stop()
	require.NotNil(t, ev)
	require.Equal(t, inject.MomentumEnded, ev.Momentum)
	require.False(t, c.Running())

	// stopping again is a no-op.
	require.Nil(t, c.Stop())
}

func TestHorizontalInertiaZeroesY(t *testing.T) {
	cfg := config.Default()
	c, ok := Start(zone.BottomEdge, 1.0, 0, cfg)
	require.True(t, ok)
	require.Equal(t, 0.0, c.VY)
	require.Greater(t, math.Abs(c.VX), 0.0)
}
