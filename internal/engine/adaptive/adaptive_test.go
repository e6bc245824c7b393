package adaptive

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jason5545/TrackPal/pkg/config"
	"github.com/jason5545/TrackPal/pkg/zone"
)

func TestOnActivationSuccessAppliesEMAAfterFiveSamples(t *testing.T) {
	l := New(config.DefaultAdaptiveState(), nil)

	for i := 0; i < 4; i++ {
		l.OnActivationSuccess(zone.RightEdge, 0.90)
	}
	require.Equal(t, 0.50, l.State().LearnedDirectionCenterV, "EMA should not move before 5 samples")

	l.OnActivationSuccess(zone.RightEdge, 0.90)
	require.Greater(t, l.State().LearnedDirectionCenterV, 0.50)
	require.LessOrEqual(t, l.State().LearnedDirectionCenterV, 0.55)
}

func TestOnActivationFailureIncrementsMissCount(t *testing.T) {
	l := New(config.DefaultAdaptiveState(), nil)
	now := time.Now()

	l.OnActivationFailure(zone.BottomEdge, now)
	require.Equal(t, 1, l.State().MissCountH)
	require.Equal(t, "horizontal", l.State().LastMissZoneCategory)
}

func TestRetryBonusRisesAfterRepeatedRetries(t *testing.T) {
	l := New(config.DefaultAdaptiveState(), nil)
	base := time.Now()

	for i := 0; i < 6; i++ {
		l.OnActivationFailure(zone.BottomEdge, base)
		l.OnSessionStart(zone.BottomEdge, base.Add(time.Duration(i)*100*time.Millisecond))
	}

	require.Greater(t, l.State().RetryBonusH, 0.0)
	require.LessOrEqual(t, l.State().RetryBonusH, 0.08)
}

func TestRetryWindowExpires(t *testing.T) {
	l := New(config.DefaultAdaptiveState(), nil)
	base := time.Now()
	l.OnActivationFailure(zone.RightEdge, base)

	l.OnSessionStart(zone.RightEdge, base.Add(3*time.Second))
	require.Equal(t, 0, l.State().RetryCountV, "retry outside the 2s window must not count")
}

func TestPersistCallback(t *testing.T) {
	var persisted config.AdaptiveState
	calls := 0
	l := New(config.DefaultAdaptiveState(), func(s config.AdaptiveState) {
		persisted = s
		calls++
	})

	for i := 0; i < 20; i++ {
		l.OnActivationSuccess(zone.RightEdge, 0.55)
	}
	require.Equal(t, 1, calls)
	require.InDelta(t, l.State().LearnedDirectionCenterV, persisted.LearnedDirectionCenterV, 1e-9)
}

func TestClampOnConstruction(t *testing.T) {
	bad := config.AdaptiveState{LearnedDirectionCenterH: 0.99, RetryBonusV: 1.0}
	l := New(bad, nil)
	require.LessOrEqual(t, l.State().LearnedDirectionCenterH, 0.55)
	require.LessOrEqual(t, l.State().RetryBonusV, 0.08)
}
