package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	pkgconfig "github.com/jason5545/TrackPal/pkg/config"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	return &Store{dir: filepath.Join(dir, "trackpal")}
}

func TestLoadConfigWritesDefaultsOnFirstRun(t *testing.T) {
	s := newTestStore(t)
	cfg := s.LoadConfig()
	require.Equal(t, pkgconfig.Default().EdgeZoneWidth, cfg.EdgeZoneWidth)

	_, err := os.Stat(filepath.Join(s.dir, configFileName))
	require.NoError(t, err)
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	s := newTestStore(t)
	cfg := pkgconfig.Default()
	cfg.ScrollMultiplier = 5.5
	cfg.VerticalEdgeMode = pkgconfig.VerticalEdgeBoth
	cfg.CornerActions[pkgconfig.TopLeft] = pkgconfig.ActionMissionControl

	s.SaveConfig(cfg)
	loaded := s.LoadConfig()

	require.Equal(t, 5.5, loaded.ScrollMultiplier)
	require.Equal(t, pkgconfig.VerticalEdgeBoth, loaded.VerticalEdgeMode)
	require.Equal(t, pkgconfig.ActionMissionControl, loaded.CornerActions[pkgconfig.TopLeft])
}

func TestCorruptConfigFallsBackToDefaults(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.MkdirAll(s.dir, 0700))
	require.NoError(t, os.WriteFile(filepath.Join(s.dir, configFileName), []byte("not valid toml {{{"), 0644))

	cfg := s.LoadConfig()
	require.Equal(t, pkgconfig.Default().ScrollMultiplier, cfg.ScrollMultiplier)
}

func TestMigrateLegacyKeys(t *testing.T) {
	fc := fileConfig{EdgeWidth: 0.22, ScrollSpeed: 4.0, VerticalEdgeStr: "both"}
	migrateLegacyKeys(&fc)

	require.Equal(t, 0.22, fc.EdgeZoneWidth)
	require.Equal(t, 4.0, fc.ScrollMultiplier)
	require.Equal(t, int(pkgconfig.VerticalEdgeBoth), fc.VerticalEdgeMode)
}

func TestAdaptiveStateRoundTripsAndClampsOnLoad(t *testing.T) {
	s := newTestStore(t)
	state := pkgconfig.AdaptiveState{LearnedDirectionCenterH: 0.99, LearnedDirectionCenterV: 0.5, RetryBonusV: 1.0}
	s.SaveAdaptiveState(state)

	loaded := s.LoadAdaptiveState()
	require.LessOrEqual(t, loaded.LearnedDirectionCenterH, 0.55)
	require.LessOrEqual(t, loaded.RetryBonusV, 0.08)
}

func TestMissingAdaptiveStateReturnsDefaults(t *testing.T) {
	s := newTestStore(t)
	state := s.LoadAdaptiveState()
	require.Equal(t, pkgconfig.DefaultAdaptiveState(), state)
}
