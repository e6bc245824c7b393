package session

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jason5545/TrackPal/pkg/zone"
)

func TestIsFalseActivationShortAndSmall(t *testing.T) {
	r := Start(zone.RightEdge, 0, ActivationSnapshot{})
	r.AddDelta(0.001, 0.001)
	r.Finish(0.1, false)
	require.True(t, r.IsFalseActivation())
}

func TestIsFalseActivationNotWhenCancelled(t *testing.T) {
	r := Start(zone.RightEdge, 0, ActivationSnapshot{})
	r.Finish(0.1, true)
	require.False(t, r.IsFalseActivation())
}

func TestIsFalseActivationNotWhenLongEnough(t *testing.T) {
	r := Start(zone.RightEdge, 0, ActivationSnapshot{})
	r.Finish(0.5, false)
	require.False(t, r.IsFalseActivation())
}

func TestAddDeltaTracksDistanceAndMaxVelocity(t *testing.T) {
	r := Start(zone.RightEdge, 0, ActivationSnapshot{})
	r.AddDelta(0, 3)
	r.AddDelta(0, 4)
	require.InDelta(t, 7.0, r.TotalDistance, 1e-9)
	require.InDelta(t, 4.0, r.MaxVelocity, 1e-9)
}

func TestAddDeltaCountsDirectionChanges(t *testing.T) {
	r := Start(zone.RightEdge, 0, ActivationSnapshot{})
	r.AddDelta(0, 1)
	r.AddDelta(0, -1) // reversal: dot product negative
	require.Equal(t, 1, r.DirectionChanges)
}

func TestRecorderHistoryIsBounded(t *testing.T) {
	rec := New()
	for i := 0; i < historyLimit+10; i++ {
		r := Start(zone.RightEdge, 0, ActivationSnapshot{})
		r.Finish(1.0, false)
		rec.Push(r)
	}
	require.Len(t, rec.History(), historyLimit)
}

func TestThresholdsDefaultBeforeAnyHistory(t *testing.T) {
	rec := New()
	th := rec.Thresholds(zone.BottomEdge)
	require.Equal(t, 0.3, th.MinDuration)
	require.Equal(t, 0.05, th.MinDistance)
}

func TestFalseActivationsRaiseThresholds(t *testing.T) {
	rec := New()
	before := rec.Thresholds(zone.RightEdge)

	for i := 0; i < 30; i++ {
		r := Start(zone.RightEdge, 0, ActivationSnapshot{})
		r.Finish(0.1, false) // short + no distance -> false activation
		rec.Push(r)
	}

	after := rec.Thresholds(zone.RightEdge)
	require.Greater(t, after.MinDuration, before.MinDuration)
	require.Greater(t, after.MinDistance, before.MinDistance)
}

func TestGenuineActivationsLowerThresholds(t *testing.T) {
	rec := New()

	// seed with false activations to raise thresholds first.
	for i := 0; i < 30; i++ {
		r := Start(zone.RightEdge, 0, ActivationSnapshot{})
		r.Finish(0.1, false)
		rec.Push(r)
	}
	raised := rec.Thresholds(zone.RightEdge)

	for i := 0; i < 30; i++ {
		r := Start(zone.RightEdge, 0, ActivationSnapshot{})
		r.AddDelta(0, 1.0)
		r.Finish(1.0, false)
		rec.Push(r)
	}
	lowered := rec.Thresholds(zone.RightEdge)

	require.Less(t, lowered.MinDuration, raised.MinDuration)
	require.Less(t, lowered.MinDistance, raised.MinDistance)
}
