package arbiter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestIdleToSingle(t *testing.T) {
	a := New()
	now := time.Now()

	res := a.OnFingerCount(1, now)
	require.False(t, res.CancelActiveScroll)
	require.Equal(t, SingleFinger, a.Mode())
	require.True(t, a.ShouldProcessSingleFingerTouch(now))
}

func TestSingleToMultiCancels(t *testing.T) {
	a := New()
	now := time.Now()
	a.OnFingerCount(1, now)

	res := a.OnFingerCount(2, now)
	require.True(t, res.CancelActiveScroll)
	require.Equal(t, MultiFinger, a.Mode())
	require.False(t, a.ShouldProcessSingleFingerTouch(now))
}

func TestMultiToSingleDebounce(t *testing.T) {
	// scenario 5: two-finger frames for 300ms, then single-finger at t=0.30s.
	a := New()
	t0 := time.Now()
	a.OnFingerCount(2, t0)
	transition := t0.Add(300 * time.Millisecond)

	a.OnFingerCount(1, transition)
	require.Equal(t, SingleFinger, a.Mode())

	// within 150ms of the transition: discarded.
	require.False(t, a.ShouldProcessSingleFingerTouch(transition.Add(100*time.Millisecond)))

	// at t=0.45s (150ms after transition): begins a new session normally.
	require.True(t, a.ShouldProcessSingleFingerTouch(transition.Add(150*time.Millisecond)))
}

func TestAnyToZeroIsIdle(t *testing.T) {
	a := New()
	now := time.Now()
	a.OnFingerCount(2, now)
	a.OnFingerCount(0, now)
	require.Equal(t, Idle, a.Mode())
}

func TestZeroToOneIsSingle(t *testing.T) {
	a := New()
	now := time.Now()
	res := a.OnFingerCount(1, now)
	require.False(t, res.CancelActiveScroll)
	require.Equal(t, SingleFinger, a.Mode())
}
