package touch

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jason5545/TrackPal/pkg/config"
)

func TestClassifierValid(t *testing.T) {
	cfg := config.Default()
	c := NewClassifier()

	got := c.Classify(Contact{State: StateContact, Density: 0.10, MajorAxis: 8, MinorAxis: 7}, cfg)
	require.Equal(t, Valid, got)
}

func TestClassifierTooLight(t *testing.T) {
	cfg := config.Default()
	c := NewClassifier()

	got := c.Classify(Contact{State: StateContact, Density: 0.01, MajorAxis: 8, MinorAxis: 7}, cfg)
	require.Equal(t, TooLight, got)
}

func TestClassifierTooLargePalm(t *testing.T) {
	cfg := config.Default()
	c := NewClassifier()

	// scenario 4: palm contact.
	got := c.Classify(Contact{State: StateContact, Density: 0.30, MajorAxis: 22, MinorAxis: 18}, cfg)
	require.Equal(t, TooLarge, got)
}

func TestClassifierLiftOffBypassesDensity(t *testing.T) {
	cfg := config.Default()
	c := NewClassifier()

	got := c.Classify(Contact{State: StateReleased, Density: 0}, cfg)
	require.Equal(t, Valid, got)

	got = c.Classify(Contact{State: StateLifting, Density: 0}, cfg)
	require.Equal(t, Valid, got)
}

func TestClassifierFiltersDisabled(t *testing.T) {
	cfg := config.Default()
	cfg.FilterLightTouches = false
	cfg.FilterLargeTouches = false
	c := NewClassifier()

	got := c.Classify(Contact{State: StateContact, Density: 0, MajorAxis: 99, MinorAxis: 99}, cfg)
	require.Equal(t, Valid, got)
}

func TestVerdictCounters(t *testing.T) {
	var vc VerdictCounters
	vc.Record(Valid)
	vc.Record(TooLight)
	vc.Record(TooLight)
	vc.Record(TooLarge)

	require.Equal(t, uint64(1), vc.Valid)
	require.Equal(t, uint64(2), vc.TooLight)
	require.Equal(t, uint64(1), vc.TooLarge)
}
